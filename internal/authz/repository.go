package authz

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrMissingToken       = errors.New("missing token")
	ErrInvalidToken       = errors.New("invalid token")
	ErrNoPermissionRecord = errors.New("no permission record")
	ErrUnknownAction      = errors.New("unknown action")
)

// Repository is the read-only permission store gateway. Lookups are never
// cached; a permission revoked mid-session takes effect on the next request.
type Repository interface {
	FindByRoleAndMenu(ctx context.Context, roleID, menuID string) (*PermissionRow, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByRoleAndMenu(ctx context.Context, roleID, menuID string) (*PermissionRow, error) {
	var row PermissionRow
	err := r.db.WithContext(ctx).
		Where("role_id = ? AND menu_id = ?", roleID, menuID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoPermissionRecord
		}
		return nil, fmt.Errorf("permission lookup failed: %w", err)
	}
	return &row, nil
}
