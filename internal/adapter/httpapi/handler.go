package httpapi

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"ai-project-gate/internal/adapter/notify"
	"ai-project-gate/internal/common"
	"ai-project-gate/internal/domain"
	"ai-project-gate/internal/service"

	"github.com/gin-gonic/gin"
)

// Handler 把评估服务挂到 gin 路由上
// 同一个项目同一时刻只允许一次评估在跑，重复触发直接回 409
type Handler struct {
	svc *service.EvaluationService
	hub *notify.Hub

	mu         sync.Mutex
	evaluating map[string]bool
}

// NewHandler 创建 HTTP 处理器
func NewHandler(svc *service.EvaluationService, hub *notify.Hub) *Handler {
	return &Handler{
		svc:        svc,
		hub:        hub,
		evaluating: make(map[string]bool),
	}
}

// Register 注册全部路由
func (h *Handler) Register(router *gin.Engine) {
	api := router.Group("/api")
	{
		api.POST("/projects", h.Submit)
		api.GET("/projects", h.List)
		api.POST("/projects/:id/evaluate", h.Evaluate)
		api.PUT("/projects/:id", h.Edit)
		api.POST("/projects/:id/reset", h.Reset)
		api.GET("/events", h.Events)
	}
}

// submitRequest 提交/编辑项目的请求体
type submitRequest struct {
	OwnerID     string `json:"owner_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// projectView 对外展示的项目视图，feedback 解开成结构化的评估结果
type projectView struct {
	ID          string                   `json:"id"`
	OwnerID     string                   `json:"owner_id"`
	Title       string                   `json:"title"`
	Description string                   `json:"description"`
	Status      domain.Status            `json:"status"`
	Evaluation  *domain.EvaluationResult `json:"evaluation"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
}

func toView(p *domain.Project) projectView {
	return projectView{
		ID:          p.ID,
		OwnerID:     p.OwnerID,
		Title:       p.Title,
		Description: p.Description,
		Status:      p.Status,
		Evaluation:  parseFeedback(p.Feedback),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// parseFeedback 把存储的 feedback 还原成评估结果
// 不是 JSON 的旧数据原文透传，展示层永远不会因为脏数据挂掉
func parseFeedback(raw string) *domain.EvaluationResult {
	if raw == "" {
		return nil
	}
	var result domain.EvaluationResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return &domain.EvaluationResult{
			Recommendation: domain.RecommendationPending,
			Feedback:       raw,
			Suggestions:    []string{},
		}
	}
	if result.Suggestions == nil {
		result.Suggestions = []string{}
	}
	return &result
}

// Submit 提交新项目
func (h *Handler) Submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求体不是合法的 JSON"})
		return
	}
	if req.OwnerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "owner_id 不能为空"})
		return
	}

	project, err := h.svc.Submit(c.Request.Context(), req.OwnerID, req.Title, req.Description)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, toView(project))
}

// List 某个用户的全部项目
func (h *Handler) List(c *gin.Context) {
	ownerID := c.Query("owner_id")
	if ownerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "owner_id 不能为空"})
		return
	}

	projects, err := h.svc.List(c.Request.Context(), ownerID)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	views := make([]projectView, 0, len(projects))
	for _, p := range projects {
		views = append(views, toView(p))
	}
	c.JSON(http.StatusOK, gin.H{"projects": views})
}

// Evaluate 触发一次完整的评估管道
func (h *Handler) Evaluate(c *gin.Context) {
	id := c.Param("id")

	if !h.beginEvaluation(id) {
		c.JSON(http.StatusConflict, gin.H{"error": "该项目正在评估中"})
		return
	}
	defer h.endEvaluation(id)

	result, newStatus, err := h.svc.Evaluate(c.Request.Context(), id)
	if err != nil {
		if common.HasCode(err, common.ErrCodeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		// 所有策略都失败或落库失败，项目保持原状态
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error":   "评估服务暂时不可用",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"evaluation": result,
		"newStatus":  newStatus,
	})
}

// Edit 修改项目文本，已通过的项目不再开放编辑
func (h *Handler) Edit(c *gin.Context) {
	id := c.Param("id")

	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求体不是合法的 JSON"})
		return
	}

	project, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}
	if !project.CanEdit() {
		c.JSON(http.StatusConflict, gin.H{"error": "已通过的项目不能再编辑"})
		return
	}

	if err := h.svc.Edit(c.Request.Context(), id, req.Title, req.Description); err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	updated, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toView(updated))
}

// Reset 把项目拉回 pending 重新排队
func (h *Handler) Reset(c *gin.Context) {
	id := c.Param("id")

	project, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}
	if !project.CanEdit() {
		c.JSON(http.StatusConflict, gin.H{"error": "已通过的项目不能重置"})
		return
	}

	if err := h.svc.Reset(c.Request.Context(), id); err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "newStatus": domain.StatusPending})
}

// Events 当前还在展示期内的评估事件
func (h *Handler) Events(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"events": h.hub.Active()})
}

// beginEvaluation 抢占项目的评估位，抢不到说明已有评估在跑
func (h *Handler) beginEvaluation(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.evaluating[id] {
		return false
	}
	h.evaluating[id] = true
	return true
}

func (h *Handler) endEvaluation(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.evaluating, id)
}

// statusFromError 错误码到 HTTP 状态码的映射
func statusFromError(err error) int {
	switch {
	case common.HasCode(err, common.ErrCodeNotFound):
		return http.StatusNotFound
	case common.HasCode(err, common.ErrCodeInvalidInput):
		return http.StatusBadRequest
	case common.HasCode(err, common.ErrCodeAllStrategiesFailed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
