package domain

import "time"

// Status 项目的审批状态
type Status string

const (
	// StatusPending 新建/刚编辑完的项目，等待评估
	StatusPending Status = "pending"
	// StatusApproved 评估通过
	StatusApproved Status = "approved"
	// StatusRejected 评估未通过
	StatusRejected Status = "rejected"
)

// Recommendation 评估策略给出的三态结论 (沿用远端评估函数的线上拼写)
type Recommendation string

const (
	RecommendationApprove Recommendation = "APPROVE"
	RecommendationReject  Recommendation = "REJECT"
	RecommendationPending Recommendation = "PENDING"
)

// ParseRecommendation 把模型返回的结论字符串映射为枚举
// 大小写敏感：只认 "APPROVE" 和 "REJECT"，其他一律视为 PENDING
func ParseRecommendation(s string) Recommendation {
	switch s {
	case string(RecommendationApprove):
		return RecommendationApprove
	case string(RecommendationReject):
		return RecommendationReject
	default:
		return RecommendationPending
	}
}

// ToStatus 结论到存储状态的映射
func (r Recommendation) ToStatus() Status {
	switch r {
	case RecommendationApprove:
		return StatusApproved
	case RecommendationReject:
		return StatusRejected
	default:
		return StatusPending
	}
}

// EvaluationResult 评估管道唯一的输出类型
type EvaluationResult struct {
	// 三态结论：PENDING 表示评估器没能得出有把握的结论，项目留在 pending
	Recommendation Recommendation `json:"recommendation"`

	// 书面反馈，永远非空
	Feedback string `json:"feedback"`

	// 改进建议，按评估顺序排列；结论为 APPROVE 时为空
	Suggestions []string `json:"suggestions"`
}

// Project 代表一份用户提交的项目提案
type Project struct {
	ID      string `json:"id" gorm:"primaryKey"`
	OwnerID string `json:"owner_id" gorm:"index"`

	// 用户自填的文本，只有所有者能改，被拒后可以再编辑
	Title       string `json:"title"`
	Description string `json:"description" gorm:"type:text"`

	// 只有评估管道能把状态从 pending 挪走
	Status Status `json:"status" gorm:"default:pending"`

	// 序列化后的 EvaluationResult；pending 状态下为空串
	Feedback string `json:"feedback" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CanEdit 已通过的项目不再开放编辑/重置
func (p *Project) CanEdit() bool {
	return p.Status != StatusApproved
}

// HasFeedback 是否已经附带评估结果
func (p *Project) HasFeedback() bool {
	return p.Feedback != ""
}
