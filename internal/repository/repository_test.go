package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/marketops/leadbridge/internal/config"
	"github.com/marketops/leadbridge/internal/domain"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// A single connection keeps the in-memory database alive for the test.
	db, err := InitDB(&config.DatabaseConfig{
		Driver:       "sqlite",
		Path:         ":memory:",
		MaxIdleConns: 1,
		MaxOpenConns: 1,
		AutoMigrate:  true,
	})
	if err != nil {
		t.Fatalf("InitDB() error: %v", err)
	}
	return db
}

func seedAutomation(t *testing.T, db *gorm.DB, status domain.AutomationStatus) *domain.Automation {
	t.Helper()
	automation := &domain.Automation{
		ID:     uuid.New().String(),
		UserID: "user-1",
		Name:   "Spring campaign leads",
		Status: status,
		PageID: "P1",
		FormID: "F1",
		FieldMapping: domain.FieldMappings{
			{FieldKey: "email", FieldLabel: "Email", Column: "Email"},
		},
	}
	if err := db.Create(automation).Error; err != nil {
		t.Fatalf("seed automation: %v", err)
	}
	return automation
}

func TestFindActive(t *testing.T) {
	db := newTestDB(t)
	repo := NewAutomationRepository(db)
	ctx := context.Background()

	active := seedAutomation(t, db, domain.AutomationStatusActive)

	got, err := repo.FindActive(ctx, "P1", "F1")
	if err != nil {
		t.Fatalf("FindActive() error: %v", err)
	}
	if got == nil || got.ID != active.ID {
		t.Fatalf("FindActive() = %+v, want automation %s", got, active.ID)
	}
	if len(got.FieldMapping) != 1 || got.FieldMapping[0].Column != "Email" {
		t.Errorf("FieldMapping did not round-trip: %+v", got.FieldMapping)
	}

	// No match is (nil, nil), not an error
	got, err = repo.FindActive(ctx, "P1", "other-form")
	if err != nil {
		t.Fatalf("FindActive() error: %v", err)
	}
	if got != nil {
		t.Errorf("FindActive() = %+v, want nil for unmatched form", got)
	}
}

func TestFindActiveIgnoresInactive(t *testing.T) {
	db := newTestDB(t)
	repo := NewAutomationRepository(db)
	ctx := context.Background()

	for _, status := range []domain.AutomationStatus{
		domain.AutomationStatusDraft,
		domain.AutomationStatusPaused,
		domain.AutomationStatusError,
	} {
		seedAutomation(t, db, status)
	}

	got, err := repo.FindActive(ctx, "P1", "F1")
	if err != nil {
		t.Fatalf("FindActive() error: %v", err)
	}
	if got != nil {
		t.Errorf("FindActive() matched a %s automation: %+v", got.Status, got)
	}
}

func TestRecordLead(t *testing.T) {
	db := newTestDB(t)
	repo := NewAutomationRepository(db)
	ctx := context.Background()

	automation := seedAutomation(t, db, domain.AutomationStatusActive)
	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	if err := repo.RecordLead(ctx, automation.ID, at); err != nil {
		t.Fatalf("RecordLead() error: %v", err)
	}
	if err := repo.RecordLead(ctx, automation.ID, at.Add(time.Minute)); err != nil {
		t.Fatalf("RecordLead() error: %v", err)
	}

	got, err := repo.GetByID(ctx, automation.ID)
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if got.LeadsCount != 2 {
		t.Errorf("LeadsCount = %d, want 2", got.LeadsCount)
	}
	if got.LastLeadAt == nil {
		t.Error("LastLeadAt not set")
	}
}

func TestDisable(t *testing.T) {
	db := newTestDB(t)
	repo := NewAutomationRepository(db)
	ctx := context.Background()

	automation := seedAutomation(t, db, domain.AutomationStatusActive)
	if err := repo.Disable(ctx, automation.ID); err != nil {
		t.Fatalf("Disable() error: %v", err)
	}

	got, err := repo.GetByID(ctx, automation.ID)
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if got.Status != domain.AutomationStatusError {
		t.Errorf("Status = %s, want error", got.Status)
	}
}

func TestHasLeadReceived(t *testing.T) {
	db := newTestDB(t)
	logs := NewAutomationLogRepository(db)
	ctx := context.Background()

	exists, err := logs.HasLeadReceived(ctx, "A1", "L1")
	if err != nil {
		t.Fatalf("HasLeadReceived() error: %v", err)
	}
	if exists {
		t.Error("HasLeadReceived() = true before any log")
	}

	if err := logs.Append(ctx, &domain.AutomationLog{
		AutomationID: "A1",
		Kind:         domain.LogKindLeadReceived,
		LeadID:       "L1",
		Payload:      domain.JSONMap{"email": "a@b.com"},
	}); err != nil {
		t.Fatalf("Append() error: %v", err)
	}

	exists, err = logs.HasLeadReceived(ctx, "A1", "L1")
	if err != nil {
		t.Fatalf("HasLeadReceived() error: %v", err)
	}
	if !exists {
		t.Error("HasLeadReceived() = false after lead_received log")
	}

	// An error log for the same lead does not count as received
	if err := logs.Append(ctx, &domain.AutomationLog{
		AutomationID: "A1",
		Kind:         domain.LogKindError,
		LeadID:       "L2",
	}); err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	exists, err = logs.HasLeadReceived(ctx, "A1", "L2")
	if err != nil {
		t.Fatalf("HasLeadReceived() error: %v", err)
	}
	if exists {
		t.Error("HasLeadReceived() = true for a lead with only an error log")
	}
}

func TestCountErrorsSince(t *testing.T) {
	db := newTestDB(t)
	logs := NewAutomationLogRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	addLog := func(kind domain.LogKind, age time.Duration) {
		t.Helper()
		if err := logs.Append(ctx, &domain.AutomationLog{
			AutomationID: "A1",
			Kind:         kind,
			CreatedAt:    now.Add(-age),
		}); err != nil {
			t.Fatalf("Append() error: %v", err)
		}
	}

	addLog(domain.LogKindError, 10*time.Minute)
	addLog(domain.LogKindError, 30*time.Minute)
	addLog(domain.LogKindError, 90*time.Minute) // outside the window
	addLog(domain.LogKindLeadReceived, 5*time.Minute)

	count, err := logs.CountErrorsSince(ctx, "A1", now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("CountErrorsSince() error: %v", err)
	}
	if count != 2 {
		t.Errorf("CountErrorsSince() = %d, want 2", count)
	}
}

func TestUpdateAccessToken(t *testing.T) {
	db := newTestDB(t)
	repo := NewConnectionRepository(db)
	ctx := context.Background()

	connection := &domain.Connection{
		ID:             uuid.New().String(),
		UserID:         "user-1",
		Provider:       domain.ProviderGoogleSheets,
		AccessToken:    "old-envelope",
		RefreshToken:   "refresh-envelope",
		TokenExpiresAt: time.Now().Add(-time.Hour).UTC(),
	}
	if err := db.Create(connection).Error; err != nil {
		t.Fatalf("seed connection: %v", err)
	}

	newExpiry := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	if err := repo.UpdateAccessToken(ctx, connection.ID, "new-envelope", newExpiry); err != nil {
		t.Fatalf("UpdateAccessToken() error: %v", err)
	}

	got, err := repo.GetByID(ctx, connection.ID)
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if got.AccessToken != "new-envelope" {
		t.Errorf("AccessToken = %q, want new-envelope", got.AccessToken)
	}
	if got.RefreshToken != "refresh-envelope" {
		t.Errorf("RefreshToken was rewritten to %q", got.RefreshToken)
	}
	if !got.TokenExpiresAt.Equal(newExpiry) {
		t.Errorf("TokenExpiresAt = %v, want %v", got.TokenExpiresAt, newExpiry)
	}
}
