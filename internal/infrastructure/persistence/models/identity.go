package models

import (
	"time"

	"github.com/taxgeo/backend/internal/infrastructure/crypto"
)

// Employee backs the authentication flows. Roles 3 and 4 are the admin
// roles; blocked or deleted accounts are rejected at the middleware.
type Employee struct {
	BaseModel
	Login        string               `gorm:"type:varchar(100);uniqueIndex;not null" json:"login"`
	PasswordHash string               `gorm:"type:varchar(200);not null" json:"-"`
	Iin          crypto.EncryptedIIN  `gorm:"type:varchar(36);uniqueIndex" json:"iin"`
	LastName     crypto.EncryptedName `gorm:"type:varchar(300)" json:"last_name"`
	FirstName    crypto.EncryptedName `gorm:"type:varchar(300)" json:"first_name"`
	RoleID       int                  `gorm:"not null;index" json:"role_id"`
	UgdID        *int                 `gorm:"index" json:"ugd_id"`
	IsBlocked    bool                 `gorm:"not null;default:false" json:"is_blocked"`
	IsDeleted    bool                 `gorm:"not null;default:false" json:"is_deleted"`
	CreatedAt    time.Time            `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (Employee) TableName() string { return "employees" }

// Admin role ids
const (
	RoleAdmin      = 3
	RoleSuperAdmin = 4
)

// IsAdmin reports whether the employee holds one of the admin roles
func (e *Employee) IsAdmin() bool {
	return e.RoleID == RoleAdmin || e.RoleID == RoleSuperAdmin
}

// IsActive reports whether the account may authenticate
func (e *Employee) IsActive() bool {
	return !e.IsBlocked && !e.IsDeleted
}
