package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"ai-project-gate/internal/adapter/gemini"
	"ai-project-gate/internal/adapter/heuristic"
	"ai-project-gate/internal/adapter/remote"
	"ai-project-gate/internal/domain"
	"ai-project-gate/internal/port"

	"github.com/joho/godotenv"
)

func main() {
	// 命令行直接喂一份提案文本，逐个策略跑一遍看结论
	title := flag.String("title", "AI Study Planner", "项目标题")
	desc := flag.String("desc", "Our goal is to build a planner that adapts study schedules to each student's pace and upcoming exams.", "项目描述")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ 未找到 .env 文件，使用系统环境变量")
	}

	ctx := context.Background()
	project := &domain.Project{
		ID:          "debug-project",
		Title:       *title,
		Description: *desc,
		Status:      domain.StatusPending,
	}

	fmt.Println("🔍 调试模式：逐个策略评估同一份提案")
	fmt.Printf("标题: %s\n", project.Title)
	fmt.Printf("描述: %s\n\n", project.Description)

	// 1. 模型直连
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		evaluator, err := gemini.NewEvaluator(ctx, key)
		if err != nil {
			log.Printf("❌ Gemini 初始化失败: %v", err)
		} else {
			tryStrategy(ctx, evaluator, project)
		}
	} else {
		fmt.Println("⏭️ 未设置 GEMINI_API_KEY，跳过模型直连策略")
	}

	// 2. 远端托管函数（需要项目已入库，调试文本跑不出结果属正常）
	if endpoint := os.Getenv("EVALUATE_FUNCTION_URL"); endpoint != "" {
		tryStrategy(ctx, remote.NewFunctionClient(endpoint), project)
	} else {
		fmt.Println("⏭️ 未设置 EVALUATE_FUNCTION_URL，跳过远端函数策略")
	}

	// 3. 本地启发式
	tryStrategy(ctx, heuristic.NewScorer(), project)
}

func tryStrategy(ctx context.Context, strategy port.Strategy, project *domain.Project) {
	fmt.Printf("🧠 策略 %s 评估中...\n", strategy.Name())

	result, err := strategy.Evaluate(ctx, project)
	if err != nil {
		log.Printf("   ❌ 评估失败: %v\n", err)
		return
	}

	fmt.Printf("   结论: %s\n", result.Recommendation)
	fmt.Printf("   反馈: %s\n", result.Feedback)
	for i, s := range result.Suggestions {
		fmt.Printf("   建议 #%d: %s\n", i+1, s)
	}
	fmt.Println()
}
