package authz

import (
	"time"
)

// PermissionRow grants a role its capabilities on one menu. At most one row
// exists per (role, menu) pair; a missing row grants nothing.
type PermissionRow struct {
	ID     string `gorm:"primaryKey" json:"id"`
	RoleID string `gorm:"uniqueIndex:idx_role_menu;not null" json:"roleId"`
	MenuID string `gorm:"uniqueIndex:idx_role_menu;not null" json:"menuId"`

	Create   bool `gorm:"column:can_create;default:false" json:"create"`
	Edit     bool `gorm:"column:can_edit;default:false" json:"edit"`
	List     bool `gorm:"column:can_list;default:false" json:"list"`
	Delete   bool `gorm:"column:can_delete;default:false" json:"delete"`
	Download bool `gorm:"column:can_download;default:false" json:"download"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (PermissionRow) TableName() string {
	return "permission_rows"
}

// Allows reports whether the row grants the given action.
func (p *PermissionRow) Allows(action Action) bool {
	switch action {
	case ActionCreate:
		return p.Create
	case ActionEdit:
		return p.Edit
	case ActionList:
		return p.List
	case ActionDelete:
		return p.Delete
	case ActionDownload:
		return p.Download
	}
	return false
}
