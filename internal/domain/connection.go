package domain

import "time"

// ConnectionProvider identifies the external provider of a delegated
// credential pair.
type ConnectionProvider string

const (
	ProviderGoogleSheets ConnectionProvider = "google_sheets"
)

// Connection holds a delegated credential pair obtained via an external
// provider's OAuth flow. AccessToken and RefreshToken are vault envelopes;
// the plaintext only ever exists in memory during a single request. The
// pipeline reads connections and rewrites AccessToken/TokenExpiresAt after
// a refresh; everything else is dashboard-owned.
type Connection struct {
	ID             string             `gorm:"type:text;primaryKey" json:"id"`
	UserID         string             `gorm:"type:text;not null;index" json:"user_id"`
	Provider       ConnectionProvider `gorm:"type:text;not null" json:"provider"`
	AccountEmail   string             `gorm:"type:text" json:"account_email"`
	AccessToken    string             `gorm:"type:text" json:"-"`
	RefreshToken   string             `gorm:"type:text" json:"-"`
	TokenExpiresAt time.Time          `json:"token_expires_at"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// TableName returns the database table name for Connection.
func (Connection) TableName() string {
	return "connections"
}
