package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/suaviagemaquiadm-dev/plataforma-viagens/internal/metrics"
	"github.com/suaviagemaquiadm-dev/plataforma-viagens/internal/model"
	"github.com/suaviagemaquiadm-dev/plataforma-viagens/internal/store"
)

// PromotionService reacts to user creation events and grants the launch
// promotion to guide accounts while capped slots remain.
type PromotionService struct {
	store       store.PromotionStore
	counterName string
	maxSlots    int
	plan        string
	months      int
	logger      *zap.Logger
	now         func() time.Time
}

// NewPromotionService creates the promotion allocation service.
func NewPromotionService(promotions store.PromotionStore, counterName string, maxSlots int, plan string, months int, logger *zap.Logger) *PromotionService {
	return &PromotionService{
		store:       promotions,
		counterName: counterName,
		maxSlots:    maxSlots,
		plan:        plan,
		months:      months,
		logger:      logger,
		now:         time.Now,
	}
}

// HandleUserCreated processes one user-creation event. Only guide accounts
// participate. The counter read, the increment and the grant run in one
// transaction, so the cap holds under concurrent creations. Creation events
// are delivered at least once; a user already holding a promotion end date is
// skipped without touching the counter.
func (s *PromotionService) HandleUserCreated(ctx context.Context, snapshot model.User) error {
	start := time.Now()
	result := "failed"
	defer func() {
		metrics.RecordWorkflowDuration("promotion_allocation", result, time.Since(start).Seconds())
	}()

	if snapshot.Category != model.CategoryGuide {
		result = "success"
		metrics.PromotionsSkipped.WithLabelValues("category").Inc()
		return nil
	}

	var granted bool
	var skipReason string

	err := s.store.RunTransaction(ctx, func(tx store.PromotionTx) error {
		granted = false
		skipReason = ""

		user, err := tx.User(ctx, snapshot.ID)
		if err != nil {
			return err
		}
		if user.PromotionEndDate != nil {
			skipReason = "already_granted"
			return nil
		}

		count, err := tx.CounterCount(ctx, s.counterName)
		if err != nil {
			return err
		}
		if count >= s.maxSlots {
			skipReason = "capacity"
			return nil
		}

		if err := tx.IncrementCounter(ctx, s.counterName); err != nil {
			return err
		}

		endDate := addCalendarMonths(s.now(), s.months)
		if err := tx.GrantPromotion(ctx, user.ID, s.plan, endDate); err != nil {
			return err
		}

		granted = true
		return nil
	})
	if err != nil {
		s.logger.Error("promotion allocation failed",
			zap.String("user_id", snapshot.ID), zap.Error(err))
		return err
	}

	result = "success"
	if granted {
		metrics.PromotionsGranted.Inc()
		s.logger.Info("promotion granted",
			zap.String("user_id", snapshot.ID), zap.String("plan", s.plan))
	} else {
		metrics.PromotionsSkipped.WithLabelValues(skipReason).Inc()
		s.logger.Info("promotion not granted",
			zap.String("user_id", snapshot.ID), zap.String("reason", skipReason))
	}

	return nil
}

// addCalendarMonths advances t by whole calendar months. When the original day
// does not exist in the target month the date clamps to that month's last day
// (Dec 31 + 2 months = Feb 28/29), instead of rolling over into the next month.
func addCalendarMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	hour, minute, sec := t.Clock()

	firstOfTarget := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := lastDayOfMonth(firstOfTarget); day > last {
		day = last
	}

	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day,
		hour, minute, sec, t.Nanosecond(), t.Location())
}

func lastDayOfMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}
