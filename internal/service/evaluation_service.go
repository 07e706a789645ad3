package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"ai-project-gate/internal/common"
	"ai-project-gate/internal/domain"
	"ai-project-gate/internal/port"
)

// EvaluationService 处理评估编排逻辑
// 按固定顺序逐个尝试评估策略，第一个成功的结果落库并广播，
// 后面的策略不再执行；PENDING 结论也算成功
type EvaluationService struct {
	repoStore      port.Repository
	strategies     []port.Strategy
	notifier       port.Notifier
	maxGoroutines  int           // 清扫模式的最大并发数
	attemptTimeout time.Duration // 单个策略的隔离超时
}

// NewEvaluationService 创建新的评估服务
// strategies 的顺序即尝试顺序，最后一个应当是永不失败的本地兜底
func NewEvaluationService(
	repoStore port.Repository,
	notifier port.Notifier,
	strategies ...port.Strategy,
) *EvaluationService {
	return &EvaluationService{
		repoStore:      repoStore,
		strategies:     strategies,
		notifier:       notifier,
		maxGoroutines:  3, // 默认并发数为3
		attemptTimeout: 15 * time.Second,
	}
}

// SetMaxGoroutines 设置清扫模式的最大并发数
func (s *EvaluationService) SetMaxGoroutines(max int) {
	if max > 0 {
		s.maxGoroutines = max
	}
}

// SetAttemptTimeout 设置单个策略的隔离超时
func (s *EvaluationService) SetAttemptTimeout(d time.Duration) {
	if d > 0 {
		s.attemptTimeout = d
	}
}

// Submit 提交新项目，入库状态恒为 pending
func (s *EvaluationService) Submit(ctx context.Context, ownerID, title, description string) (*domain.Project, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)

	if len(title) < 5 {
		return nil, common.NewError(common.ErrCodeInvalidInput, "标题至少需要 5 个字符")
	}
	if len(description) < 50 {
		return nil, common.NewError(common.ErrCodeInvalidInput, "描述至少需要 50 个字符")
	}

	project := &domain.Project{
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
	}
	if err := s.repoStore.Create(ctx, project); err != nil {
		return nil, err
	}

	fmt.Printf("📝 新项目已提交: %s (%s)\n", project.Title, project.ID)
	return project, nil
}

// Get 按 ID 取项目
func (s *EvaluationService) Get(ctx context.Context, id string) (*domain.Project, error) {
	return s.repoStore.Get(ctx, id)
}

// List 某个用户的全部项目
func (s *EvaluationService) List(ctx context.Context, ownerID string) ([]*domain.Project, error) {
	return s.repoStore.ListByOwner(ctx, ownerID)
}

// Edit 修改项目文本，状态拉回 pending 并清空历史评估结果
// 已通过的项目由调用方先行拦截
func (s *EvaluationService) Edit(ctx context.Context, id, title, description string) error {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)

	if title == "" || description == "" {
		return common.NewError(common.ErrCodeInvalidInput, "标题和描述都不能为空")
	}

	return s.repoStore.UpdateContent(ctx, id, title, description)
}

// Reset 不动文本，只把项目拉回 pending，下次评估重新走完整管道
func (s *EvaluationService) Reset(ctx context.Context, id string) error {
	return s.repoStore.Reset(ctx, id)
}

// Evaluate 对单个项目执行一次完整的评估管道
// 返回评估结果和落库后的新状态
func (s *EvaluationService) Evaluate(ctx context.Context, projectID string) (*domain.EvaluationResult, domain.Status, error) {
	// 1. 取项目
	project, err := s.repoStore.Get(ctx, projectID)
	if err != nil {
		return nil, "", err
	}

	fmt.Printf("🚀 开始评估项目: %s (%s)\n", project.Title, project.ID)

	// 2. 按顺序尝试评估策略
	result, err := s.runChain(ctx, project)
	if err != nil {
		return nil, "", err
	}

	// 3. 结论落库，每次评估只写这一次
	newStatus := result.Recommendation.ToStatus()
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, "", common.WrapError(common.ErrCodeInternal, "序列化评估结果失败", err)
	}
	if err := s.repoStore.SaveEvaluation(ctx, project.ID, newStatus, string(payload)); err != nil {
		return nil, "", err
	}

	// 4. 落库成功后才广播，最多一次；广播失败不影响评估结论
	s.announce(ctx, project.ID, newStatus)

	fmt.Printf("🎉 项目 %s 评估完成: %s -> %s\n", project.ID, result.Recommendation, newStatus)
	return result, newStatus, nil
}

// runChain 逐个隔离执行策略，返回第一个成功的结果
func (s *EvaluationService) runChain(ctx context.Context, project *domain.Project) (*domain.EvaluationResult, error) {
	for _, strategy := range s.strategies {
		var result *domain.EvaluationResult

		err := common.Guard(ctx, func(attemptCtx context.Context) error {
			r, evalErr := strategy.Evaluate(attemptCtx, project)
			if evalErr != nil {
				return evalErr
			}
			result = r
			return nil
		},
			common.WithTimeout(s.attemptTimeout),
			common.WithName(strategy.Name()),
		)

		if err != nil {
			log.Printf("❌ 策略 %s 评估失败: %v，尝试下一个", strategy.Name(), err)
			continue
		}
		if result == nil {
			log.Printf("❌ 策略 %s 没有返回结果，尝试下一个", strategy.Name())
			continue
		}

		fmt.Printf("✅ 策略 %s 给出结论: %s\n", strategy.Name(), result.Recommendation)
		return result, nil
	}

	return nil, common.NewError(common.ErrCodeAllStrategiesFailed, "所有评估策略都失败了，项目保持 pending")
}

// announce 按落库后的状态发一次展示层事件
func (s *EvaluationService) announce(ctx context.Context, projectID string, status domain.Status) {
	if s.notifier == nil {
		log.Printf("⚠️ 未配置通知通道，跳过项目 %s 的事件广播", projectID)
		return
	}

	var err error
	switch status {
	case domain.StatusApproved:
		err = s.notifier.NotifyApproved(ctx, projectID)
	case domain.StatusRejected:
		err = s.notifier.NotifyRejected(ctx, projectID)
	default:
		// PENDING 结论不广播，项目留在队列里等下一轮
		return
	}
	if err != nil {
		log.Printf("⚠️ 广播项目 %s 的评估事件失败: %v", projectID, err)
	}
}

// evaluateWorker 工作协程，处理单个项目的评估
func (s *EvaluationService) evaluateWorker(
	ctx context.Context,
	jobs <-chan *domain.Project,
	results chan<- domain.Status,
	errs chan<- error,
	wg *sync.WaitGroup,
	workerID int,
) {
	defer wg.Done()

	for project := range jobs {
		fmt.Printf("   [Worker-%d] 正在评估 %s...\n", workerID, project.Title)

		_, newStatus, err := s.Evaluate(ctx, project.ID)
		if err != nil {
			fmt.Printf("   [Worker-%d] ❌ %s 评估失败: %v\n", workerID, project.Title, err)
			errs <- fmt.Errorf("评估 %s 失败: %w", project.ID, err)
			continue
		}

		fmt.Printf("   [Worker-%d] ✅ %s 评估完成 (状态: %s)\n", workerID, project.Title, newStatus)
		results <- newStatus
	}
}

// EvaluatePending 并发清扫所有待评估项目，返回成功定论的数量
func (s *EvaluationService) EvaluatePending(ctx context.Context) (int, error) {
	projects, err := s.repoStore.ListPending(ctx)
	if err != nil {
		return 0, err
	}
	if len(projects) == 0 {
		fmt.Println("✨ 没有待评估的项目")
		return 0, nil
	}

	fmt.Printf("🧹 [清扫模式] 开始评估，共 %d 个项目，最大并发数: %d\n", len(projects), s.maxGoroutines)

	// 创建channel用于传递jobs和results
	jobs := make(chan *domain.Project, len(projects))
	results := make(chan domain.Status, len(projects))
	errs := make(chan error, len(projects))

	// 启动workers
	var wg sync.WaitGroup
	for i := 0; i < s.maxGoroutines; i++ {
		wg.Add(1)
		go s.evaluateWorker(ctx, jobs, results, errs, &wg, i+1)
	}

	// 发送jobs
	for _, project := range projects {
		jobs <- project
	}
	close(jobs)

	// 等待所有workers完成
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		// 所有任务完成
	case <-ctx.Done():
		fmt.Println("⏰ 清扫因超时或取消而中断")
		return 0, ctx.Err()
	}

	close(results)
	close(errs)

	// 收集结果
	settled := 0
	for status := range results {
		if status != domain.StatusPending {
			settled++
		}
	}

	if len(errs) > 0 {
		fmt.Printf("⚠️  共有 %d 个评估错误:\n", len(errs))
		for err := range errs {
			fmt.Printf("   错误: %v\n", err)
		}
	}

	fmt.Printf("🎉 本轮清扫完成，%d 个项目有了定论\n", settled)
	return settled, nil
}
