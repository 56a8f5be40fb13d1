package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// AutomationStatus represents the lifecycle state of an automation.
// Values include AutomationStatusDraft, AutomationStatusActive,
// AutomationStatusPaused, and AutomationStatusError.
type AutomationStatus string

const (
	AutomationStatusDraft  AutomationStatus = "draft"
	AutomationStatusActive AutomationStatus = "active"
	AutomationStatusPaused AutomationStatus = "paused"
	AutomationStatusError  AutomationStatus = "error"
)

// FieldMapping maps one lead form field to one spreadsheet column.
type FieldMapping struct {
	FieldKey   string `json:"field_key"`
	FieldLabel string `json:"field_label"`
	Column     string `json:"column"`
}

// FieldMappings is an ordered list of field mappings stored as JSON in the
// database. Order determines spreadsheet column order.
type FieldMappings []FieldMapping

// Value implements the driver.Valuer interface for database serialization.
func (m FieldMappings) Value() (driver.Value, error) {
	if m == nil {
		return "[]", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (m *FieldMappings) Scan(value interface{}) error {
	if value == nil {
		*m = FieldMappings{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan FieldMappings")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, m)
}

// Automation binds one ads-platform lead form to one spreadsheet destination.
// Token fields hold vault envelopes, never plaintext. The pipeline only
// writes LeadsCount, LastLeadAt, and Status (error transition only); all
// other fields belong to the dashboard.
type Automation struct {
	ID                 string           `gorm:"type:text;primaryKey" json:"id"`
	UserID             string           `gorm:"type:text;not null;index:idx_automations_user" json:"user_id"`
	Name               string           `gorm:"type:text;not null" json:"name"`
	Status             AutomationStatus `gorm:"type:text;index:idx_automations_match;default:draft" json:"status"`
	PageID             string           `gorm:"type:text;index:idx_automations_match" json:"page_id"`
	PageName           string           `gorm:"type:text" json:"page_name"`
	PageAccessToken    string           `gorm:"type:text" json:"-"`
	FormID             string           `gorm:"type:text;index:idx_automations_match" json:"form_id"`
	FormName           string           `gorm:"type:text" json:"form_name"`
	SheetsConnectionID string           `gorm:"type:text;index" json:"sheets_connection_id"`
	SpreadsheetID      string           `gorm:"type:text" json:"spreadsheet_id"`
	SpreadsheetName    string           `gorm:"type:text" json:"spreadsheet_name"`
	SheetName          string           `gorm:"type:text" json:"sheet_name"`
	FieldMapping       FieldMappings    `gorm:"type:text" json:"field_mapping"`
	WebhookVerifyToken string           `gorm:"type:text" json:"-"`
	WebhookActive      bool             `gorm:"default:false" json:"webhook_active"`
	LeadsCount         int64            `gorm:"default:0" json:"leads_count"`
	LastLeadAt         *time.Time       `json:"last_lead_at,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// TableName returns the database table name for Automation.
func (Automation) TableName() string {
	return "automations"
}
