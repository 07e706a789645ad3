package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"ai-project-gate/internal/common"
	"ai-project-gate/internal/domain"
	"ai-project-gate/internal/port"
)

// FunctionClient 实现了 port.Strategy 接口
// 调用托管在服务端的 evaluate 函数：那边持有自己的模型凭证，
// 内部还有自己的启发式兜底，并会在远端顺手更新一次项目记录
type FunctionClient struct {
	endpoint string
	client   *http.Client
}

var _ port.Strategy = (*FunctionClient)(nil)

// 远端函数的应答信封
type functionResponse struct {
	Success      bool                     `json:"success"`
	Evaluation   *domain.EvaluationResult `json:"evaluation"`
	NewStatus    domain.Status            `json:"newStatus"`
	UsedFallback bool                     `json:"usedFallback"`
	Error        string                   `json:"error"`
}

// NewFunctionClient 创建远端评估函数客户端
func NewFunctionClient(endpoint string) *FunctionClient {
	if endpoint == "" {
		log.Println("⚠️ 警告: 远端评估函数地址为空，该策略将无法工作！")
	}
	return &FunctionClient{
		endpoint: endpoint,
		client:   http.DefaultClient,
	}
}

func (c *FunctionClient) Name() string {
	return "remote-function"
}

// Evaluate 把项目 ID 发给远端函数，拿回它算好的评估结果
func (c *FunctionClient) Evaluate(ctx context.Context, project *domain.Project) (*domain.EvaluationResult, error) {
	if c.endpoint == "" {
		return nil, common.NewError(common.ErrCodeRemoteFunction, "远端评估函数地址为空")
	}

	payload, _ := json.Marshal(map[string]string{"projectId": project.ID})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(payload))
	if err != nil {
		return nil, common.WrapError(common.ErrCodeRemoteFunction, "构造请求失败", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, common.WrapError(common.ErrCodeRemoteFunction, "请求远端评估函数失败", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, common.WrapError(common.ErrCodeRemoteFunction, "读取应答失败", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// 错误时的应答体是 {error: string}
		var fr functionResponse
		if json.Unmarshal(body, &fr) == nil && fr.Error != "" {
			return nil, common.NewError(common.ErrCodeRemoteFunction,
				fmt.Sprintf("远端评估函数报错: 状态码 %d, %s", resp.StatusCode, fr.Error))
		}
		return nil, common.NewError(common.ErrCodeRemoteFunction,
			fmt.Sprintf("远端评估函数报错: 状态码 %d", resp.StatusCode))
	}

	var fr functionResponse
	if err := json.Unmarshal(body, &fr); err != nil {
		return nil, common.WrapError(common.ErrCodeRemoteFunction, "解析应答失败", err)
	}

	if !fr.Success || fr.Evaluation == nil {
		return nil, common.NewError(common.ErrCodeRemoteFunction, "远端评估函数没有返回评估结果")
	}

	if fr.UsedFallback {
		fmt.Printf("   ℹ️ 远端函数走了它自己的启发式兜底 (项目 %s)\n", project.ID)
	}

	result := fr.Evaluation
	if result.Suggestions == nil {
		result.Suggestions = []string{}
	}
	return result, nil
}
