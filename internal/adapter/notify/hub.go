package notify

import (
	"context"
	"sync"
	"time"

	"ai-project-gate/internal/domain"
	"ai-project-gate/internal/port"
)

// DefaultTTL 展示层的庆祝/反馈动画时长，事件过期后自动消失
const DefaultTTL = 2500 * time.Millisecond

// Event 一次评估定论产生的展示层事件
type Event struct {
	ProjectID string        `json:"project_id"`
	Outcome   domain.Status `json:"outcome"`
	FiredAt   time.Time     `json:"fired_at"`
}

// Hub 实现了 port.Notifier 接口
// 进程内事件汇：每个项目最多挂一个活跃事件，到期自动清掉，
// 对数据没有任何后续影响，展示层轮询 Active 拿去驱动动画
type Hub struct {
	mu     sync.Mutex
	ttl    time.Duration
	seq    uint64
	events map[string]hubEntry
}

type hubEntry struct {
	event Event
	seq   uint64
}

var _ port.Notifier = (*Hub)(nil)

// NewHub 创建事件汇，ttl 不合法时用默认的 2500ms
func NewHub(ttl time.Duration) *Hub {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Hub{
		ttl:    ttl,
		events: make(map[string]hubEntry),
	}
}

// NotifyApproved 评估通过事件，每次成功评估只触发一次
func (h *Hub) NotifyApproved(_ context.Context, projectID string) error {
	h.fire(projectID, domain.StatusApproved)
	return nil
}

// NotifyRejected 评估未通过事件
func (h *Hub) NotifyRejected(_ context.Context, projectID string) error {
	h.fire(projectID, domain.StatusRejected)
	return nil
}

func (h *Hub) fire(projectID string, outcome domain.Status) {
	h.mu.Lock()
	h.seq++
	seq := h.seq
	h.events[projectID] = hubEntry{
		event: Event{
			ProjectID: projectID,
			Outcome:   outcome,
			FiredAt:   time.Now(),
		},
		seq: seq,
	}
	h.mu.Unlock()

	// 到期只清掉自己那一版事件，避免把后来重新评估触发的新事件误删
	time.AfterFunc(h.ttl, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if entry, ok := h.events[projectID]; ok && entry.seq == seq {
			delete(h.events, projectID)
		}
	})
}

// Active 当前还没过期的事件快照
func (h *Hub) Active() []Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	events := make([]Event, 0, len(h.events))
	for _, entry := range h.events {
		events = append(events, entry.event)
	}
	return events
}
