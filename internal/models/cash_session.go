package models

import "time"

type SessionStatus string

const (
	SessionStatusOpen   SessionStatus = "open"
	SessionStatusClosed SessionStatus = "closed"
)

// CashSession - um período de caixa aberto/fechado. Criada na abertura com o
// fundo de troco, alterada uma única vez no fechamento (valor contado + status).
type CashSession struct {
	ID            uint `gorm:"primaryKey"`
	TenantID      uint `gorm:"index;not null"`
	Tenant        Tenant
	OpeningAmount float64       `gorm:"not null"` // fundo de troco
	OpenedAt      time.Time     `gorm:"index;not null"`
	ClosingAmount *float64      // valor contado no fechamento
	ClosedAt      *time.Time
	Notes         string        `gorm:"size:255"`
	Status        SessionStatus `gorm:"size:10;not null;index"`
	OpenedByID    uint
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CashWithdrawal - sangria: retirada manual de dinheiro do caixa.
// Reduz o valor esperado em espécie no fechamento.
type CashWithdrawal struct {
	ID        uint `gorm:"primaryKey"`
	TenantID  uint `gorm:"index;not null"`
	Tenant    Tenant
	SessionID uint `gorm:"index;not null"`
	Session   CashSession
	Amount    float64 `gorm:"not null"`
	Reason    string  `gorm:"size:255"`
	CreatedAt time.Time
}
