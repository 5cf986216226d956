package identity

import (
	"time"

	"github.com/taxgeo/backend/internal/infrastructure/persistence/models"
)

// LoginInput carries the login form
type LoginInput struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResult is the token pair plus the authenticated employee
type LoginResult struct {
	AccessToken           string       `json:"access_token"`
	RefreshToken          string       `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time    `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time    `json:"refresh_token_expires_at"`
	Employee              EmployeeInfo `json:"employee"`
}

// EmployeeInfo is the safe employee projection. Encrypted columns decode
// in the GORM scanner, so the values here are already plaintext.
type EmployeeInfo struct {
	ID        int    `json:"id"`
	Login     string `json:"login"`
	LastName  string `json:"last_name"`
	FirstName string `json:"first_name"`
	RoleID    int    `json:"role_id"`
	UgdID     *int   `json:"ugd_id"`
	IsAdmin   bool   `json:"is_admin"`
}

func employeeInfo(e *models.Employee) EmployeeInfo {
	return EmployeeInfo{
		ID:        e.ID,
		Login:     e.Login,
		LastName:  string(e.LastName),
		FirstName: string(e.FirstName),
		RoleID:    e.RoleID,
		UgdID:     e.UgdID,
		IsAdmin:   e.IsAdmin(),
	}
}

// CreateEmployeeInput carries the employee registration form
type CreateEmployeeInput struct {
	Login     string `json:"login" binding:"required"`
	Password  string `json:"password" binding:"required,min=8"`
	Iin       string `json:"iin" binding:"omitempty,iin_bin"`
	LastName  string `json:"last_name"`
	FirstName string `json:"first_name"`
	RoleID    int    `json:"role_id" binding:"required"`
	UgdID     *int   `json:"ugd_id"`
}
