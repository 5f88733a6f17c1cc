package models

import "time"

type UserRole string

const (
	RoleResellerAdmin UserRole = "reseller_admin"
	RoleTenantAdmin   UserRole = "tenant_admin"
	RoleOperator      UserRole = "operator"
)

type User struct {
	ID           uint `gorm:"primaryKey"`
	TenantID     *uint
	Tenant       *Tenant
	Name         string   `gorm:"size:100;not null"`
	Email        string   `gorm:"size:100;uniqueIndex;not null"`
	PasswordHash string   `gorm:"size:255;not null"`
	Role         UserRole `gorm:"size:20;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
