package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// LogKind classifies an automation audit record.
type LogKind string

const (
	LogKindLeadReceived      LogKind = "lead_received"
	LogKindError             LogKind = "error"
	LogKindWebhookRegistered LogKind = "webhook_registered"
	LogKindConnection        LogKind = "connection"
	LogKindDisconnection     LogKind = "disconnection"
)

// JSONMap stores an arbitrary key/value snapshot as JSON text.
type JSONMap map[string]interface{}

// Value implements the driver.Valuer interface for database serialization.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan JSONMap")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, m)
}

// AutomationLog is one immutable audit record per significant pipeline
// event. It is append-only: the same table backs the audit trail, the
// dedup check (kind=lead_received for a lead id), and the failure window
// (kind=error within the trailing hour).
type AutomationLog struct {
	ID           string    `gorm:"type:text;primaryKey" json:"id"`
	AutomationID string    `gorm:"type:text;not null;index:idx_automation_logs_automation" json:"automation_id"`
	Kind         LogKind   `gorm:"type:text;not null;index:idx_automation_logs_kind" json:"kind"`
	Message      string    `gorm:"type:text" json:"message"`
	Payload      JSONMap   `gorm:"type:text" json:"payload"`
	LeadID       string    `gorm:"type:text;index:idx_automation_logs_lead" json:"lead_id,omitempty"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

// TableName returns the database table name for AutomationLog.
func (AutomationLog) TableName() string {
	return "automation_logs"
}
