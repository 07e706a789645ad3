package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"ai-project-gate/internal/common"
	"ai-project-gate/internal/domain"

	"github.com/stretchr/testify/assert"
)

// mockFunctionServer 创建模拟的远端评估函数服务器
func mockFunctionServer(t *testing.T, statusCode int, response string, validatePayload func(*testing.T, map[string]interface{})) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 验证请求方法
		assert.Equal(t, http.MethodPost, r.Method)

		// 验证 Content-Type
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		// 读取并解析请求体
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)

		var payload map[string]interface{}
		err = json.Unmarshal(body, &payload)
		assert.NoError(t, err)

		if validatePayload != nil {
			validatePayload(t, payload)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		w.Write([]byte(response))
	}))
}

func TestFunctionClient_Evaluate(t *testing.T) {
	project := &domain.Project{
		ID:          "project-123",
		Title:       "AI Tutor",
		Description: "An adaptive tutoring platform with a clear goal.",
		Status:      domain.StatusPending,
	}

	tests := []struct {
		name           string
		statusCode     int
		response       string
		expectError    bool
		errorSubstring string
		verify         func(*testing.T, *domain.EvaluationResult)
	}{
		{
			name:       "成功拿到模型评估结果",
			statusCode: http.StatusOK,
			response: `{
				"success": true,
				"evaluation": {
					"recommendation": "APPROVE",
					"feedback": "Clear and feasible project.",
					"suggestions": []
				},
				"newStatus": "approved",
				"usedFallback": false
			}`,
			verify: func(t *testing.T, result *domain.EvaluationResult) {
				assert.Equal(t, domain.RecommendationApprove, result.Recommendation)
				assert.Equal(t, "Clear and feasible project.", result.Feedback)
				assert.Empty(t, result.Suggestions)
			},
		},
		{
			name:       "远端走了兜底照样算成功",
			statusCode: http.StatusOK,
			response: `{
				"success": true,
				"evaluation": {
					"recommendation": "REJECT",
					"feedback": "Your project needs significant improvements before it can be approved.",
					"suggestions": ["Provide a more descriptive title (at least 5 characters)"]
				},
				"newStatus": "rejected",
				"usedFallback": true
			}`,
			verify: func(t *testing.T, result *domain.EvaluationResult) {
				assert.Equal(t, domain.RecommendationReject, result.Recommendation)
				assert.Len(t, result.Suggestions, 1)
			},
		},
		{
			name:       "suggestions为null补成空切片",
			statusCode: http.StatusOK,
			response: `{
				"success": true,
				"evaluation": {
					"recommendation": "PENDING",
					"feedback": "Could not reach a confident decision."
				},
				"newStatus": "pending",
				"usedFallback": false
			}`,
			verify: func(t *testing.T, result *domain.EvaluationResult) {
				assert.Equal(t, domain.RecommendationPending, result.Recommendation)
				assert.NotNil(t, result.Suggestions)
				assert.Empty(t, result.Suggestions)
			},
		},
		{
			name:           "404带错误载荷",
			statusCode:     http.StatusNotFound,
			response:       `{"error": "Project not found"}`,
			expectError:    true,
			errorSubstring: "Project not found",
		},
		{
			name:           "500不带错误载荷",
			statusCode:     http.StatusInternalServerError,
			response:       `oops`,
			expectError:    true,
			errorSubstring: "状态码 500",
		},
		{
			name:           "2xx但success为false",
			statusCode:     http.StatusOK,
			response:       `{"success": false}`,
			expectError:    true,
			errorSubstring: "没有返回评估结果",
		},
		{
			name:           "2xx但应答不是JSON",
			statusCode:     http.StatusOK,
			response:       `<html>gateway timeout</html>`,
			expectError:    true,
			errorSubstring: "解析应答失败",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := mockFunctionServer(t, tt.statusCode, tt.response, func(t *testing.T, payload map[string]interface{}) {
				// 请求体只带项目 ID
				assert.Equal(t, "project-123", payload["projectId"])
			})
			defer server.Close()

			client := NewFunctionClient(server.URL)
			result, err := client.Evaluate(context.Background(), project)

			if tt.expectError {
				assert.Error(t, err)
				assert.True(t, common.HasCode(err, common.ErrCodeRemoteFunction))
				if tt.errorSubstring != "" {
					assert.Contains(t, err.Error(), tt.errorSubstring)
				}
				assert.Nil(t, result)
			} else {
				assert.NoError(t, err)
				tt.verify(t, result)
			}
		})
	}
}

func TestFunctionClient_EmptyEndpoint(t *testing.T) {
	client := NewFunctionClient("")

	result, err := client.Evaluate(context.Background(), &domain.Project{ID: "p1"})

	assert.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "地址为空")
}

func TestFunctionClient_ServerUnreachable(t *testing.T) {
	// 先起再关，拿到一个必然连不上的地址
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewFunctionClient(server.URL)
	result, err := client.Evaluate(context.Background(), &domain.Project{ID: "p1"})

	assert.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, common.HasCode(err, common.ErrCodeRemoteFunction))
}
