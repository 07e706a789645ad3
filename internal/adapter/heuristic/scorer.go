package heuristic

import (
	"context"
	"strings"

	"ai-project-gate/internal/domain"
	"ai-project-gate/internal/port"
)

// Scorer 实现了 port.Strategy 接口
// 纯函数打分器，不做任何 I/O，是兜底策略：前面的网络策略全挂了它也能出结果
type Scorer struct{}

var _ port.Strategy = (*Scorer)(nil)

// 四项检查各 25 分，按评估顺序排列
var goalKeywords = []string{"goal", "objective", "purpose", "aim"}

const (
	suggestTitle       = "Provide a more descriptive title (at least 5 characters)"
	suggestDescription = "Provide a more detailed description (at least 50 characters)"
	suggestDetail      = "Add more details about your project goals and implementation"
	suggestGoals       = "Clearly state your project's goals and objectives"

	feedbackApprove = "Your project meets the basic criteria and has been approved. Good job on providing clear details!"
	feedbackPending = "Your project shows promise but needs some improvements before approval."
	feedbackReject  = "Your project needs significant improvements before it can be approved."
)

// NewScorer 创建启发式打分器
func NewScorer() *Scorer {
	return &Scorer{}
}

func (s *Scorer) Name() string {
	return "heuristic"
}

// Evaluate 满足 port.Strategy；永不返回错误
func (s *Scorer) Evaluate(_ context.Context, project *domain.Project) (*domain.EvaluationResult, error) {
	return s.Score(project.Title, project.Description), nil
}

// Score 按满分 100 的阈值模型打分：
// 标题 ≥5 字符、描述 ≥50、描述 ≥100、描述含 goal/objective/purpose/aim 各得 25 分
// ≥75 通过，50~74 待定，<50 拒绝
func (s *Scorer) Score(title, description string) *domain.EvaluationResult {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)

	score := 0
	var suggestions []string

	if len(title) >= 5 {
		score += 25
	} else {
		suggestions = append(suggestions, suggestTitle)
	}

	if len(description) >= 50 {
		score += 25
	} else {
		suggestions = append(suggestions, suggestDescription)
	}

	if len(description) >= 100 {
		score += 25
	} else {
		suggestions = append(suggestions, suggestDetail)
	}

	if containsGoalKeyword(description) {
		score += 25
	} else {
		suggestions = append(suggestions, suggestGoals)
	}

	var recommendation domain.Recommendation
	var feedback string
	switch {
	case score >= 75:
		recommendation = domain.RecommendationApprove
		feedback = feedbackApprove
		// 数据模型约定：通过的结果不带建议
		suggestions = []string{}
	case score >= 50:
		recommendation = domain.RecommendationPending
		feedback = feedbackPending
	default:
		recommendation = domain.RecommendationReject
		feedback = feedbackReject
	}

	if suggestions == nil {
		suggestions = []string{}
	}

	return &domain.EvaluationResult{
		Recommendation: recommendation,
		Feedback:       feedback,
		Suggestions:    suggestions,
	}
}

func containsGoalKeyword(description string) bool {
	lower := strings.ToLower(description)
	for _, kw := range goalKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
