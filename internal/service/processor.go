package service

import (
	"context"
	"fmt"
	"time"

	"github.com/marketops/leadbridge/internal/crypto"
	"github.com/marketops/leadbridge/internal/domain"
	"github.com/marketops/leadbridge/internal/logger"
	"github.com/marketops/leadbridge/internal/platform/meta"
	"github.com/marketops/leadbridge/internal/platform/sheets"
	"github.com/marketops/leadbridge/internal/webhook"
)

// Circuit breaker policy: an automation is disabled after this many error
// logs within the trailing window. Fixed policy, not per-automation
// configuration. The window slides with every failure; it is not a fixed
// bucket.
const (
	failureThreshold = 5
	failureWindow    = 60 * time.Minute
)

// AutomationStore is the automation query/update surface the processor
// needs from the persistent store.
type AutomationStore interface {
	FindActive(ctx context.Context, pageID, formID string) (*domain.Automation, error)
	RecordLead(ctx context.Context, id string, at time.Time) error
	Disable(ctx context.Context, id string) error
}

// LogStore is the append-only audit log surface.
type LogStore interface {
	Append(ctx context.Context, log *domain.AutomationLog) error
	HasLeadReceived(ctx context.Context, automationID, leadID string) (bool, error)
	CountErrorsSince(ctx context.Context, automationID string, since time.Time) (int64, error)
}

// ConnectionStore is the delegated-credential surface.
type ConnectionStore interface {
	GetByID(ctx context.Context, id string) (*domain.Connection, error)
	UpdateAccessToken(ctx context.Context, id, encryptedToken string, expiresAt time.Time) error
}

// LeadFetcher retrieves lead field data from the ads platform.
type LeadFetcher interface {
	FetchLead(ctx context.Context, leadID, accessToken string) (*meta.Lead, error)
}

// SheetWriter refreshes delegated tokens and appends rows at the
// spreadsheet provider.
type SheetWriter interface {
	RefreshAccessToken(ctx context.Context, refreshToken string) (*sheets.Token, error)
	AppendRow(ctx context.Context, accessToken, spreadsheetID, sheetName string, row []string) error
}

// Outcome classifies the result of processing one lead event.
type Outcome int

const (
	// OutcomeProcessed: the row was appended and the lead logged.
	OutcomeProcessed Outcome = iota
	// OutcomeNoMatch: no active automation for this page/form. Expected,
	// nothing logged.
	OutcomeNoMatch
	// OutcomeDuplicate: a lead_received log already exists. Expected,
	// nothing logged.
	OutcomeDuplicate
	// OutcomeFailed: a processing stage failed; an error log was written
	// and the circuit breaker ran.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeProcessed:
		return "processed"
	case OutcomeNoMatch:
		return "no_match"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DeliveryStats summarizes one webhook delivery.
type DeliveryStats struct {
	Processed int
	Skipped   int
	Failed    int
}

// Processor orchestrates lead-event processing: match, dedup, credential
// decryption, lead fetch, field mapping, token refresh, spreadsheet append,
// audit logging, and the circuit breaker. All collaborators are injected;
// the processor holds no global state.
type Processor struct {
	automations AutomationStore
	logs        LogStore
	connections ConnectionStore
	leads       LeadFetcher
	sheets      SheetWriter
	vault       *crypto.Vault
	logger      *logger.Logger
	now         func() time.Time
}

// NewProcessor creates a new lead event processor.
func NewProcessor(
	automations AutomationStore,
	logs LogStore,
	connections ConnectionStore,
	leads LeadFetcher,
	sheetWriter SheetWriter,
	vault *crypto.Vault,
	log *logger.Logger,
) *Processor {
	return &Processor{
		automations: automations,
		logs:        logs,
		connections: connections,
		leads:       leads,
		sheets:      sheetWriter,
		vault:       vault,
		logger:      log,
		now:         time.Now,
	}
}

// log returns a logger from context if available, otherwise the processor's.
func (p *Processor) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return p.logger
}

// ProcessDelivery processes every leadgen event of one webhook delivery
// sequentially, in array order. A failure in one lead never aborts its
// siblings, and nothing here affects the HTTP response: the receiver always
// acknowledges the delivery once processing has been attempted.
func (p *Processor) ProcessDelivery(ctx context.Context, delivery *webhook.Delivery) DeliveryStats {
	var stats DeliveryStats
	for _, event := range delivery.LeadEvents() {
		switch p.ProcessLead(ctx, event) {
		case OutcomeProcessed:
			stats.Processed++
		case OutcomeFailed:
			stats.Failed++
		default:
			stats.Skipped++
		}
	}
	return stats
}

// ProcessLead runs one lead event through the pipeline stages.
func (p *Processor) ProcessLead(ctx context.Context, event webhook.LeadEvent) Outcome {
	ctx = logger.WithFields(ctx, logger.Fields{
		logger.FieldPageID: event.PageID,
		logger.FieldFormID: event.FormID,
		logger.FieldLeadID: event.LeadID,
	})

	// Stage: match. No active automation for this page/form means the
	// event is not our concern; skip without logging.
	automation, err := p.automations.FindActive(ctx, event.PageID, event.FormID)
	if err != nil {
		p.log(ctx).WithError(err).Error("Automation lookup failed")
		return OutcomeFailed
	}
	if automation == nil {
		p.log(ctx).Debug("No active automation for lead event")
		return OutcomeNoMatch
	}
	ctx = logger.WithField(ctx, logger.FieldAutomationID, automation.ID)

	// Stage: dedup. The provider does not guarantee exactly-once delivery;
	// an existing lead_received log means this lead was already appended.
	received, err := p.logs.HasLeadReceived(ctx, automation.ID, event.LeadID)
	if err != nil {
		p.recordFailure(ctx, automation, event, fmt.Errorf("dedup check failed: %w", err))
		return OutcomeFailed
	}
	if received {
		p.log(ctx).Debug("Duplicate lead event, skipping")
		return OutcomeDuplicate
	}

	lead, row, err := p.deliverLead(ctx, automation, event)
	if err != nil {
		p.recordFailure(ctx, automation, event, err)
		return OutcomeFailed
	}

	p.recordSuccess(ctx, automation, event, lead, row)
	return OutcomeProcessed
}

// deliverLead runs the stages that can fail against external systems:
// decrypt the page token, fetch the lead, map its fields, resolve the
// spreadsheet credentials, refresh them when expired, and append the row.
func (p *Processor) deliverLead(ctx context.Context, automation *domain.Automation, event webhook.LeadEvent) (*meta.Lead, []string, error) {
	// Stage: decrypt page credentials
	pageToken, err := p.vault.Decrypt(automation.PageAccessToken)
	if err != nil {
		return nil, nil, fmt.Errorf("decrypt page access token: %w", err)
	}

	// Stage: fetch lead field data
	lead, err := p.leads.FetchLead(ctx, event.LeadID, pageToken)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch lead: %w", err)
	}

	// Stage: map fields to the spreadsheet row
	row := MapFields(automation.FieldMapping, lead.FieldData)

	// Stage: resolve and refresh spreadsheet credentials
	accessToken, err := p.resolveSheetToken(ctx, automation.SheetsConnectionID)
	if err != nil {
		return nil, nil, err
	}

	// Stage: append
	if err := p.sheets.AppendRow(ctx, accessToken, automation.SpreadsheetID, automation.SheetName, row); err != nil {
		return nil, nil, fmt.Errorf("append row: %w", err)
	}

	return lead, row, nil
}

// resolveSheetToken decrypts the connection's access token and, when the
// stored expiry has passed, exchanges the refresh token for a new access
// token, persisting the re-encrypted token and expiry. The refreshed token
// is used for the in-flight request; the refresh token is never rewritten.
func (p *Processor) resolveSheetToken(ctx context.Context, connectionID string) (string, error) {
	connection, err := p.connections.GetByID(ctx, connectionID)
	if err != nil {
		return "", fmt.Errorf("load spreadsheet connection: %w", err)
	}

	accessToken, err := p.vault.Decrypt(connection.AccessToken)
	if err != nil {
		return "", fmt.Errorf("decrypt spreadsheet access token: %w", err)
	}

	if connection.TokenExpiresAt.After(p.now()) {
		return accessToken, nil
	}

	refreshToken, err := p.vault.Decrypt(connection.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("decrypt spreadsheet refresh token: %w", err)
	}

	token, err := p.sheets.RefreshAccessToken(ctx, refreshToken)
	if err != nil {
		return "", fmt.Errorf("refresh spreadsheet token: %w", err)
	}

	encrypted, err := p.vault.Encrypt(token.AccessToken)
	if err != nil {
		return "", fmt.Errorf("encrypt refreshed token: %w", err)
	}
	expiresAt := token.ExpiresAt(p.now())
	if err := p.connections.UpdateAccessToken(ctx, connection.ID, encrypted, expiresAt); err != nil {
		return "", fmt.Errorf("persist refreshed token: %w", err)
	}

	p.log(ctx).Info("Refreshed spreadsheet access token")
	return token.AccessToken, nil
}

// recordSuccess writes the lead_received audit log and bumps the
// automation's counters. A logging failure here is reported but does not
// turn the processed lead into an error.
func (p *Processor) recordSuccess(ctx context.Context, automation *domain.Automation, event webhook.LeadEvent, lead *meta.Lead, row []string) {
	now := p.now().UTC()

	if err := p.logs.Append(ctx, &domain.AutomationLog{
		AutomationID: automation.ID,
		Kind:         domain.LogKindLeadReceived,
		Message:      fmt.Sprintf("Lead %s appended to %q", event.LeadID, automation.SpreadsheetName),
		LeadID:       event.LeadID,
		Payload: domain.JSONMap{
			"field_data":     lead.FieldData,
			"row":            row,
			"spreadsheet_id": automation.SpreadsheetID,
			"sheet_name":     automation.SheetName,
		},
		CreatedAt: now,
	}); err != nil {
		p.log(ctx).WithError(err).Error("Failed to write lead_received log")
	}

	if err := p.automations.RecordLead(ctx, automation.ID, now); err != nil {
		p.log(ctx).WithError(err).Error("Failed to update lead counter")
	}

	p.log(ctx).WithFields(logger.Fields{
		"spreadsheet_id": automation.SpreadsheetID,
		"sheet_name":     automation.SheetName,
	}).Info("Lead processed")
}

// recordFailure writes an error log for the failed lead and then runs the
// circuit breaker unconditionally. The failure never propagates to the
// HTTP response.
func (p *Processor) recordFailure(ctx context.Context, automation *domain.Automation, event webhook.LeadEvent, procErr error) {
	p.log(ctx).WithError(procErr).Error("Lead processing failed")

	if err := p.logs.Append(ctx, &domain.AutomationLog{
		AutomationID: automation.ID,
		Kind:         domain.LogKindError,
		Message:      procErr.Error(),
		LeadID:       event.LeadID,
		Payload: domain.JSONMap{
			"page_id": event.PageID,
			"form_id": event.FormID,
			"lead_id": event.LeadID,
			"error":   procErr.Error(),
		},
		CreatedAt: p.now().UTC(),
	}); err != nil {
		p.log(ctx).WithError(err).Error("Failed to write error log")
	}

	p.runCircuitBreaker(ctx, automation)
}

// runCircuitBreaker disables the automation once its error count within the
// trailing window reaches the threshold. The transition is one-way from
// this service's perspective: re-activation is a human dashboard action.
func (p *Processor) runCircuitBreaker(ctx context.Context, automation *domain.Automation) {
	since := p.now().Add(-failureWindow)
	count, err := p.logs.CountErrorsSince(ctx, automation.ID, since)
	if err != nil {
		p.log(ctx).WithError(err).Error("Circuit breaker count failed")
		return
	}
	if count < failureThreshold {
		return
	}

	if err := p.automations.Disable(ctx, automation.ID); err != nil {
		p.log(ctx).WithError(err).Error("Failed to disable automation")
		return
	}
	p.log(ctx).WithField("error_count", count).
		Warn("Automation disabled after repeated failures")
}
