package models

import "time"

type Customer struct {
	ID        uint   `gorm:"primaryKey"`
	TenantID  uint   `gorm:"index;not null"`
	Tenant    Tenant
	Name      string `gorm:"size:100;not null"`
	Phone     string `gorm:"size:50"`
	Email     string `gorm:"size:100"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FinanceEntryType - tipo do lançamento
type FinanceEntryType string

const (
	FinanceTypeReceivable FinanceEntryType = "receivable" // a receber
	FinanceTypePayable    FinanceEntryType = "payable"    // a pagar
)

// FinanceEntry - lançamento financeiro (contas a receber/a pagar)
type FinanceEntry struct {
	ID          uint             `gorm:"primaryKey"`
	TenantID    uint             `gorm:"index;not null"`
	Tenant      Tenant           `gorm:"foreignKey:TenantID"`
	CustomerID  *uint            `gorm:"index"`
	Customer    *Customer        `gorm:"foreignKey:CustomerID"`
	Type        FinanceEntryType `gorm:"type:varchar(20);not null;index"` // "receivable" ou "payable"
	Amount      float64          `gorm:"not null"`                        // valor total
	Description string           `gorm:"size:500"`
	DueDate     time.Time        `gorm:"index;not null"` // vencimento
	Payments    []FinancePayment `gorm:"foreignKey:FinanceEntryID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FinancePayment - baixas feitas no lançamento
type FinancePayment struct {
	ID             uint         `gorm:"primaryKey"`
	TenantID       uint         `gorm:"index;not null"`
	FinanceEntryID uint         `gorm:"index;not null"`
	FinanceEntry   FinanceEntry `gorm:"foreignKey:FinanceEntryID"`
	Amount         float64      `gorm:"not null"`
	PaymentDate    time.Time    `gorm:"index;not null"`
	Description    string       `gorm:"size:500"` // info de parcela etc
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
