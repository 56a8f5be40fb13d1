package repository

import (
	"context"
	"time"

	"github.com/marketops/leadbridge/internal/domain"
	"gorm.io/gorm"
)

// ConnectionRepository handles delegated credential records. The pipeline
// reads them and rewrites only the access token and expiry after a refresh;
// the refresh token is written exclusively by the dashboard's OAuth flow.
type ConnectionRepository struct {
	db *gorm.DB
}

// NewConnectionRepository creates a new ConnectionRepository.
func NewConnectionRepository(db *gorm.DB) *ConnectionRepository {
	return &ConnectionRepository{db: db}
}

// GetByID retrieves a connection by its ID.
func (r *ConnectionRepository) GetByID(ctx context.Context, id string) (*domain.Connection, error) {
	var connection domain.Connection
	if err := r.db.WithContext(ctx).First(&connection, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &connection, nil
}

// UpdateAccessToken persists a refreshed access token (already encrypted by
// the vault) and its new expiry in a single statement.
func (r *ConnectionRepository) UpdateAccessToken(ctx context.Context, id, encryptedToken string, expiresAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.Connection{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"access_token":     encryptedToken,
			"token_expires_at": expiresAt,
		}).Error
}
