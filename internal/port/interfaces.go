package port

import (
	"context"

	"ai-project-gate/internal/domain"
)

// Strategy (评估策略): 一种独立产出 EvaluationResult 的方式
// 可以是模型直连，可以是远端托管函数，也可以是本地启发式打分
// 编排器按顺序逐个尝试，直到某个策略成功为止
type Strategy interface {
	// Name 用于日志里区分是哪条路成功/失败的
	Name() string

	// Evaluate 对项目文本给出结论；返回 PENDING 结果也算成功
	Evaluate(ctx context.Context, project *domain.Project) (*domain.EvaluationResult, error)
}

// Repository (仓库管理员): 负责项目记录的存取
type Repository interface {
	// Create 新建项目，状态恒为 pending
	Create(ctx context.Context, project *domain.Project) error

	// Get 按主键取项目
	Get(ctx context.Context, id string) (*domain.Project, error)

	// ListByOwner 某个用户的全部项目，新的在前
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Project, error)

	// ListPending 待评估的项目，供定时清扫用
	ListPending(ctx context.Context) ([]*domain.Project, error)

	// SaveEvaluation 写入评估结果 (status + 序列化 feedback)，每次评估只写一次
	SaveEvaluation(ctx context.Context, id string, status domain.Status, feedback string) error

	// UpdateContent 改标题/描述，同时把状态拉回 pending 并清空 feedback
	UpdateContent(ctx context.Context, id, title, description string) error

	// Reset 不动文本，只把状态拉回 pending 并清空 feedback
	Reset(ctx context.Context, id string) error
}

// Notifier (信使): 评估定论后向展示层发事件
// 每次成功评估最多触发一次，且在持久化成功之后
type Notifier interface {
	NotifyApproved(ctx context.Context, projectID string) error
	NotifyRejected(ctx context.Context, projectID string) error
}
