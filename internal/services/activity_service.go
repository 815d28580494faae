package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"equiploan/internal/domain"
	applog "equiploan/internal/log"
	"equiploan/internal/repos"
)

// ActivitySink stores or forwards audit entries (SQL table, Kafka topic).
type ActivitySink interface {
	Insert(ctx context.Context, a domain.StaffActivity) error
}

// ActivityLogger is the audit side channel. Log enqueues and returns at once; a single
// dispatcher goroutine writes to the sink. The trail may lag, and entries are dropped
// (and logged) when the queue is full or the sink fails.
type ActivityLogger struct {
	sink  ActivitySink
	inv   Invalidator
	queue chan domain.StaffActivity
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewActivityLogger starts the dispatcher. inv, when set, hears about every stored entry.
func NewActivityLogger(sink ActivitySink, buffer int, inv Invalidator) *ActivityLogger {
	if buffer <= 0 {
		buffer = 256
	}
	l := &ActivityLogger{
		sink:  sink,
		inv:   inv,
		queue: make(chan domain.StaffActivity, buffer),
		done:  make(chan struct{}),
	}
	go l.dispatch()
	return l
}

func (l *ActivityLogger) dispatch() {
	defer close(l.done)
	for a := range l.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := l.sink.Insert(ctx, a); err != nil {
			applog.Error(nil, "activity.write", err, map[string]any{
				"activity_id": a.ID, "action": a.ActionType, "target_id": a.TargetID,
			})
		} else {
			invalidate(ctx, l.inv, ViewStaffActivity)
		}
		cancel()
	}
}

// Log reports whether the entry was accepted for writing. It never blocks.
func (l *ActivityLogger) Log(a domain.StaffActivity) bool {
	if l == nil {
		return false
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt == "" {
		a.CreatedAt = domain.FormatTime(time.Now())
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return false
	}
	select {
	case l.queue <- a:
		return true
	default:
		applog.Security(nil, "activity.dropped", map[string]any{
			"action": a.ActionType, "target_id": a.TargetID, "staff_id": a.StaffID,
		})
		return false
	}
}

// Close stops intake and waits until queued entries reach the sink.
func (l *ActivityLogger) Close() {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.queue)
	}
	l.mu.Unlock()
	<-l.done
}

// record builds the entry for a staff action on a loan or reservation owned by targetUserID.
func (l *ActivityLogger) record(actor *domain.Actor, action domain.ActionType, targetType, targetID, targetUserID string, details map[string]any) bool {
	return l.Log(domain.StaffActivity{
		StaffID:      actor.ID,
		StaffRole:    actor.Role,
		ActionType:   action,
		TargetType:   targetType,
		TargetID:     targetID,
		TargetUserID: targetUserID,
		IsSelfAction: targetUserID != "" && targetUserID == actor.ID,
		Details:      details,
	})
}

type ActivityService struct {
	Repo *repos.ActivityRepo
}

func NewActivityService(repo *repos.ActivityRepo) *ActivityService {
	return &ActivityService{Repo: repo}
}

func (s *ActivityService) Recent(ctx context.Context, actor *domain.Actor, limit int) ([]domain.StaffActivity, error) {
	if actor == nil {
		return nil, ErrNotLoggedIn
	}
	if !actor.Can(domain.CapViewActivity) {
		return nil, ErrForbidden
	}
	return s.Repo.Recent(ctx, limit)
}

type activityTarget struct {
	TargetType string `validate:"required,oneof=loan reservation"`
	TargetID   string `validate:"required,resid"`
}

// ForTarget is the audit history of one loan or reservation, oldest first.
func (s *ActivityService) ForTarget(ctx context.Context, actor *domain.Actor, targetType, targetID string) ([]domain.StaffActivity, error) {
	if actor == nil {
		return nil, ErrNotLoggedIn
	}
	if !actor.Can(domain.CapViewActivity) {
		return nil, ErrForbidden
	}
	if err := checkStruct(activityTarget{TargetType: targetType, TargetID: targetID}); err != nil {
		return nil, err
	}
	return s.Repo.ForTarget(ctx, targetType, targetID)
}
