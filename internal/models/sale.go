package models

import "time"

type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"   // dinheiro
	PaymentMethodCredit PaymentMethod = "credit" // crédito
	PaymentMethodDebit  PaymentMethod = "debit"  // débito
	PaymentMethodPix    PaymentMethod = "pix"    // transferência instantânea
)

// Sale - venda concluída, pertence a exatamente uma sessão de caixa.
// Imutável depois de criada.
type Sale struct {
	ID        uint `gorm:"primaryKey"`
	TenantID  uint `gorm:"index;not null"`
	Tenant    Tenant
	SessionID uint `gorm:"index;not null"`
	Session   CashSession
	Total     float64        `gorm:"not null"`
	Note      string         `gorm:"size:255"`
	Payments  []PaymentEntry `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time      `gorm:"index"`
	UpdatedAt time.Time
}

// PaymentEntry - uma linha de pagamento da venda. Venda pode ter várias
// (pagamento dividido); a soma das linhas fecha com o total na criação.
type PaymentEntry struct {
	ID       uint `gorm:"primaryKey"`
	TenantID uint `gorm:"index;not null"`
	SaleID   uint `gorm:"index;not null"`
	Method   PaymentMethod `gorm:"size:20;not null"`
	Amount   float64       `gorm:"not null"`
}
