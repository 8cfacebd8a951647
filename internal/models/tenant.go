package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tenant is an organization registered on the portal. Reports reference the
// tenant by TenantID; tenant records are administered by staff only.
type Tenant struct {
	// TenantID is the public tenant identifier (UUID).
	TenantID string `gorm:"primaryKey" json:"tenantId"`
	// Email is the legal / escalation contact address.
	Email       string `gorm:"uniqueIndex;not null" json:"email"`
	CompanyName string `gorm:"type:text" json:"companyName"`
	Active      bool   `json:"active"`
	// Role is the access level granted to the tenant's staff account
	// (ADMIN or SUPERADMIN).
	Role string `gorm:"type:text" json:"role"`

	CreatedAt int64 `json:"createdAt,omitempty"`
	UpdatedAt int64 `json:"updatedAt,omitempty"`
}

// BeforeCreate assigns a UUID when the tenant has no public ID yet.
func (t *Tenant) BeforeCreate(tx *gorm.DB) (err error) {
	if t.TenantID == "" {
		t.TenantID = uuid.New().String()
	}
	return
}

// APIResponse is the envelope the backend wraps tenant admin responses in.
type APIResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}
