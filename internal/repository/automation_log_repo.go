package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/marketops/leadbridge/internal/domain"
	"gorm.io/gorm"
)

// AutomationLogRepository handles the append-only audit log. The same table
// backs the dedup check and the circuit breaker's failure window; nothing
// ever updates or deletes a row.
type AutomationLogRepository struct {
	db *gorm.DB
}

// NewAutomationLogRepository creates a new AutomationLogRepository.
func NewAutomationLogRepository(db *gorm.DB) *AutomationLogRepository {
	return &AutomationLogRepository{db: db}
}

// Append inserts a new log record, assigning an ID and timestamp when the
// caller left them empty.
func (r *AutomationLogRepository) Append(ctx context.Context, log *domain.AutomationLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(log).Error
}

// HasLeadReceived reports whether a lead_received log already exists for
// this automation and external lead id. This is the idempotency guard for
// re-delivered webhook events.
func (r *AutomationLogRepository) HasLeadReceived(ctx context.Context, automationID, leadID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.AutomationLog{}).
		Where("automation_id = ? AND lead_id = ? AND kind = ?", automationID, leadID, domain.LogKindLeadReceived).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountErrorsSince counts error logs for an automation created after the
// given instant. The circuit breaker calls this with now minus its window,
// so the window slides with every failure.
func (r *AutomationLogRepository) CountErrorsSince(ctx context.Context, automationID string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.AutomationLog{}).
		Where("automation_id = ? AND kind = ? AND created_at > ?", automationID, domain.LogKindError, since).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ListByAutomation retrieves recent logs for an automation, newest first.
// Used by the dashboard's activity view.
func (r *AutomationLogRepository) ListByAutomation(ctx context.Context, automationID string, limit, offset int) ([]domain.AutomationLog, error) {
	var logs []domain.AutomationLog
	err := r.db.WithContext(ctx).
		Where("automation_id = ?", automationID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}
