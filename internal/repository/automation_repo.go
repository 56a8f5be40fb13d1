package repository

import (
	"context"
	"errors"
	"time"

	"github.com/marketops/leadbridge/internal/domain"
	"gorm.io/gorm"
)

// AutomationRepository handles automation data operations. The pipeline
// only ever writes the lead counter, the last-lead timestamp, and the
// error-status flip; every other column is dashboard-owned.
type AutomationRepository struct {
	db *gorm.DB
}

// NewAutomationRepository creates a new AutomationRepository.
func NewAutomationRepository(db *gorm.DB) *AutomationRepository {
	return &AutomationRepository{db: db}
}

// GetByID retrieves an automation by its ID.
func (r *AutomationRepository) GetByID(ctx context.Context, id string) (*domain.Automation, error) {
	var automation domain.Automation
	if err := r.db.WithContext(ctx).First(&automation, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &automation, nil
}

// FindActive looks up the automation matching an inbound lead event: same
// page, same form, status active. Returns (nil, nil) when nothing matches —
// an expected case, not an error.
func (r *AutomationRepository) FindActive(ctx context.Context, pageID, formID string) (*domain.Automation, error) {
	var automation domain.Automation
	err := r.db.WithContext(ctx).
		Where("page_id = ? AND form_id = ? AND status = ?", pageID, formID, domain.AutomationStatusActive).
		First(&automation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &automation, nil
}

// RecordLead increments the lead counter and stamps the last-lead time in a
// single statement. Last-write-wins on the timestamp is acceptable; the
// counter is informational.
func (r *AutomationRepository) RecordLead(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.Automation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"leads_count":  gorm.Expr("leads_count + 1"),
			"last_lead_at": at,
		}).Error
}

// Disable flips the automation to error status. This is the circuit
// breaker's one-way transition; nothing in this service ever sets an
// automation back to active.
func (r *AutomationRepository) Disable(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&domain.Automation{}).
		Where("id = ?", id).
		Update("status", domain.AutomationStatusError).Error
}
