package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"ai-project-gate/internal/common"
	"ai-project-gate/internal/domain"
	"ai-project-gate/internal/port"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Evaluator 实现了 port.Strategy 接口，走 Gemini 直连评估
// API Key 只在服务端注入，绝不下发到展示层
type Evaluator struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

var _ port.Strategy = (*Evaluator)(nil)

// 定义一个内部结构体来接收 AI 返回的 JSON
type aiResponse struct {
	Recommendation string   `json:"recommendation"`
	Feedback       string   `json:"feedback"`
	Suggestions    []string `json:"suggestions"`
}

// NewEvaluator 创建 Gemini 评估器
func NewEvaluator(ctx context.Context, apiKey string) (*Evaluator, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	model := client.GenerativeModel("gemini-2.5-flash-lite")

	return &Evaluator{
		client: client,
		model:  model,
	}, nil
}

func (e *Evaluator) Name() string {
	return "gemini-direct"
}

// Evaluate 调用 Gemini 给项目提案出结论
// 网络/接口层面的失败返回 MODEL_UNAVAILABLE，2xx 但没有文本字段返回 MODEL_RESPONSE_INVALID
// 文本里抠不出 JSON 不算错误：原文本身也是有用的反馈，降级成 PENDING 结果往外送
func (e *Evaluator) Evaluate(ctx context.Context, project *domain.Project) (*domain.EvaluationResult, error) {
	// 1. 构造 Prompt，标题和描述原样嵌入
	prompt := buildPrompt(project.Title, project.Description)

	// 2. 调用 AI
	resp, err := e.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, common.WrapError(common.ErrCodeModelUnavailable, "Gemini 调用失败", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, common.NewError(common.ErrCodeModelResponseInvalid, "Gemini 返回内容为空")
	}

	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return nil, common.NewError(common.ErrCodeModelResponseInvalid, "Gemini 返回的不是文本")
	}

	// 3. 宽松解析，这一步永不失败
	return parseEvaluation(string(text)), nil
}

func buildPrompt(title, description string) string {
	return fmt.Sprintf(`You are an AI project evaluator. Please evaluate the following project and provide:
1. A recommendation (APPROVE or REJECT)
2. Detailed feedback explaining your decision
3. Specific suggestions for improvement if rejecting

Project Title: %s
Project Description: %s

Evaluation Criteria:
- Clarity and feasibility of the project
- Potential impact and value
- Technical soundness
- Resource requirements
- Risk assessment

Please provide your response in the following JSON format:
{
  "recommendation": "APPROVE" or "REJECT",
  "feedback": "Detailed explanation of your decision",
  "suggestions": ["suggestion 1", "suggestion 2", ...]
}
`, title, description)
}

// ```json ... ``` 围栏块，围栏语言标记可省略
var fencedJSONPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// parseEvaluation 把模型的自由文本解析成评估结果
// 两段式抠 JSON：先找围栏代码块，再找第一个配平的 {...} 区间
// 都找不到或解析失败时，整段原文当作反馈，结论降级为 PENDING
func parseEvaluation(raw string) *domain.EvaluationResult {
	jsonStr := extractJSON(raw)

	if jsonStr != "" {
		var res aiResponse
		if err := json.Unmarshal([]byte(jsonStr), &res); err == nil {
			feedback := strings.TrimSpace(res.Feedback)
			if feedback == "" {
				// 模型偷懒没写反馈，退回用原文
				feedback = strings.TrimSpace(raw)
			}
			suggestions := res.Suggestions
			if suggestions == nil {
				suggestions = []string{}
			}
			return &domain.EvaluationResult{
				Recommendation: domain.ParseRecommendation(res.Recommendation),
				Feedback:       feedback,
				Suggestions:    suggestions,
			}
		}
	}

	// 非 JSON 但非空的回复照样是有用的反馈，直接透传
	return &domain.EvaluationResult{
		Recommendation: domain.RecommendationPending,
		Feedback:       raw,
		Suggestions:    []string{},
	}
}

// extractJSON 从自由文本里定位 JSON 对象，找不到返回空串
func extractJSON(raw string) string {
	if m := fencedJSONPattern.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return firstBalancedObject(raw)
}

// firstBalancedObject 返回文本中第一个花括号配平的 {...} 区间
func firstBalancedObject(raw string) string {
	start := strings.Index(raw, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return raw[start : i+1]
				}
			}
		}
	}
	return ""
}
