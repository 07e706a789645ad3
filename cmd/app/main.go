package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-project-gate/internal/adapter/gemini"
	"ai-project-gate/internal/adapter/heuristic"
	"ai-project-gate/internal/adapter/httpapi"
	"ai-project-gate/internal/adapter/notify"
	"ai-project-gate/internal/adapter/remote"
	"ai-project-gate/internal/adapter/repository"
	"ai-project-gate/internal/port"
	"ai-project-gate/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// 1. 定义命令行参数
	mode := flag.String("mode", "serve", "运行模式: serve (HTTP服务) / evaluate (单次评估) / sweep (清扫待评估项目)")
	projectID := flag.String("id", "", "项目 ID (仅在 evaluate 模式下有效)")
	addr := flag.String("addr", ":8080", "HTTP 监听地址 (仅在 serve 模式下有效)")
	interval := flag.Int("interval", 0, "定时清扫间隔（分钟），0表示只执行一次 (仅在 sweep 模式下有效)")
	concurrency := flag.Int("concurrency", 3, "清扫模式的评估并发数")
	flag.Parse()

	// 2. 加载 .env，线上环境直接读系统环境变量
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ 未找到 .env 文件，使用系统环境变量")
	}

	// 3. 初始化公共依赖 (数据库)
	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost user=postgres password=123456 dbname=project_gate port=5432 sslmode=disable TimeZone=Asia/Shanghai"
	}
	repoStore, err := repository.NewPostgresRepo(dsn)
	if err != nil {
		log.Fatalf("❌ DB 初始化失败: %v", err)
	}

	// 4. 组装评估策略链和服务
	hub := notify.NewHub(notify.DefaultTTL)
	evalService := service.NewEvaluationService(repoStore, hub, buildStrategies()...)
	evalService.SetMaxGoroutines(*concurrency)

	// 5. 根据模式分流
	switch *mode {
	case "serve":
		runServer(evalService, hub, *addr)
	case "evaluate":
		runEvaluate(evalService, *projectID)
	case "sweep":
		if *interval > 0 {
			runScheduledSweep(evalService, *interval)
		} else {
			runSweep(evalService)
		}
	default:
		fmt.Println("❌ 未知模式，请使用 -mode=serve、-mode=evaluate 或 -mode=sweep")
	}
}

// buildStrategies 按优先级组装评估策略链
// 模型直连 -> 远端托管函数 -> 本地启发式，没配凭证的策略直接不进链，
// 启发式永远殿后，保证链条至少有一个不会失败的出口
func buildStrategies() []port.Strategy {
	var strategies []port.Strategy

	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		evaluator, err := gemini.NewEvaluator(context.Background(), key)
		if err != nil {
			log.Printf("⚠️ Gemini 初始化失败，跳过模型直连策略: %v", err)
		} else {
			strategies = append(strategies, evaluator)
			fmt.Println("✅ 已启用评估策略: gemini-direct")
		}
	} else {
		log.Println("⚠️ 未设置 GEMINI_API_KEY，跳过模型直连策略")
	}

	if endpoint := os.Getenv("EVALUATE_FUNCTION_URL"); endpoint != "" {
		strategies = append(strategies, remote.NewFunctionClient(endpoint))
		fmt.Println("✅ 已启用评估策略: remote-function")
	} else {
		log.Println("⚠️ 未设置 EVALUATE_FUNCTION_URL，跳过远端函数策略")
	}

	strategies = append(strategies, heuristic.NewScorer())
	fmt.Println("✅ 已启用评估策略: heuristic (兜底)")

	return strategies
}

// runServer 启动 HTTP 服务并优雅关闭
func runServer(evalService *service.EvaluationService, hub *notify.Hub, addr string) {
	router := gin.Default()
	httpapi.NewHandler(evalService, hub).Register(router)

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		fmt.Printf("🚀 HTTP 服务已启动: %s\n", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ HTTP 服务异常退出: %v", err)
		}
	}()

	// 设置信号处理，优雅关闭
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\n👋 收到停止信号，正在退出...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("⚠️ HTTP 服务关闭出错: %v", err)
	}
}

// runEvaluate 对单个项目执行一次评估
func runEvaluate(evalService *service.EvaluationService, projectID string) {
	if projectID == "" {
		fmt.Println("⚠️ 请用 -id 指定要评估的项目 ID")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	result, newStatus, err := evalService.Evaluate(ctx, projectID)
	if err != nil {
		log.Fatalf("❌ 评估失败: %v", err)
	}

	fmt.Println("\n================ [ 评估结果 ] ================")
	fmt.Printf("结论: %s\n", result.Recommendation)
	fmt.Printf("新状态: %s\n", newStatus)
	fmt.Printf("反馈: %s\n", result.Feedback)
	for i, s := range result.Suggestions {
		fmt.Printf("建议 #%d: %s\n", i+1, s)
	}
	fmt.Println("==============================================")
}

// runSweep 执行一轮待评估项目清扫
func runSweep(evalService *service.EvaluationService) {
	// 为整轮清扫设置超时时间(5分钟)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if _, err := evalService.EvaluatePending(ctx); err != nil {
		log.Printf("❌ 清扫失败: %v", err)
	}
}

// runScheduledSweep 定时清扫待评估项目
func runScheduledSweep(evalService *service.EvaluationService, interval int) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 设置信号处理，优雅关闭
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Duration(interval) * time.Minute)
	defer ticker.Stop()

	fmt.Printf("⏰ 定时清扫模式已启动，每 %d 分钟执行一次\n", interval)
	fmt.Println("按下 Ctrl+C 可以优雅停止程序")

	// 立即执行一次
	runSweep(evalService)

	for {
		select {
		case <-ticker.C:
			runSweep(evalService)
		case <-sigChan:
			fmt.Println("\n👋 收到停止信号，正在退出...")
			return
		case <-ctx.Done():
			fmt.Println("👋 定时任务已停止")
			return
		}
	}
}
