package repository

import (
	"context"
	"errors"
	"fmt"

	"ai-project-gate/internal/common"
	"ai-project-gate/internal/domain"
	"ai-project-gate/internal/port"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// PostgresRepo 实现了 port.Repository 接口
type PostgresRepo struct {
	db *gorm.DB
}

var _ port.Repository = (*PostgresRepo)(nil)

// NewPostgresRepo 初始化数据库连接并自动迁移表结构
func NewPostgresRepo(dsn string) (*PostgresRepo, error) {
	// 1. 连接数据库
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	// 2. 自动迁移，projects 表跟着 domain.Project 走
	if err := db.AutoMigrate(&domain.Project{}); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	return &PostgresRepo{db: db}, nil
}

// Create 新建项目；ID 缺省时分配 UUID，状态恒为 pending
func (r *PostgresRepo) Create(ctx context.Context, project *domain.Project) error {
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	project.Status = domain.StatusPending
	project.Feedback = ""

	result := r.db.WithContext(ctx).Create(project)
	if result.Error != nil {
		return common.WrapError(common.ErrCodeDatabase, "保存项目失败", result.Error)
	}
	return nil
}

// Get 按主键取项目
func (r *PostgresRepo) Get(ctx context.Context, id string) (*domain.Project, error) {
	var project domain.Project
	err := r.db.WithContext(ctx).First(&project, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NewError(common.ErrCodeNotFound, fmt.Sprintf("项目 %s 不存在", id))
		}
		return nil, common.WrapError(common.ErrCodeDatabase, "读取项目失败", err)
	}
	return &project, nil
}

// ListByOwner 某个用户的全部项目，新提交的排前面
func (r *PostgresRepo) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Project, error) {
	var projects []*domain.Project
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at desc").
		Find(&projects).Error
	if err != nil {
		return nil, common.WrapError(common.ErrCodeDatabase, "查询项目列表失败", err)
	}
	return projects, nil
}

// ListPending 待评估的项目，最久没动的排前面，供定时清扫用
func (r *PostgresRepo) ListPending(ctx context.Context) ([]*domain.Project, error) {
	var projects []*domain.Project
	err := r.db.WithContext(ctx).
		Where("status = ?", domain.StatusPending).
		Order("updated_at asc").
		Limit(50). // 一轮最多清扫 50 个，防止模型调用量爆炸
		Find(&projects).Error
	if err != nil {
		return nil, common.WrapError(common.ErrCodeDatabase, "查询待评估项目失败", err)
	}
	return projects, nil
}

// SaveEvaluation 写入评估结果，每次评估只调用一次
func (r *PostgresRepo) SaveEvaluation(ctx context.Context, id string, status domain.Status, feedback string) error {
	result := r.db.WithContext(ctx).Model(&domain.Project{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":   status,
			"feedback": feedback,
		})
	if result.Error != nil {
		return common.WrapError(common.ErrCodeDatabase, "写入评估结果失败", result.Error)
	}
	return nil
}

// UpdateContent 改标题/描述，状态拉回 pending 并清空 feedback
func (r *PostgresRepo) UpdateContent(ctx context.Context, id, title, description string) error {
	result := r.db.WithContext(ctx).Model(&domain.Project{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"title":       title,
			"description": description,
			"status":      domain.StatusPending,
			"feedback":    "",
		})
	if result.Error != nil {
		return common.WrapError(common.ErrCodeDatabase, "更新项目内容失败", result.Error)
	}
	return nil
}

// Reset 不动文本，只把状态拉回 pending 并清空 feedback
func (r *PostgresRepo) Reset(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Model(&domain.Project{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":   domain.StatusPending,
			"feedback": "",
		})
	if result.Error != nil {
		return common.WrapError(common.ErrCodeDatabase, "重置项目失败", result.Error)
	}
	return nil
}
