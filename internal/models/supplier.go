package models

import "time"

type Supplier struct {
	ID        uint   `gorm:"primaryKey"`
	TenantID  uint   `gorm:"index;not null"`
	Tenant    Tenant
	Name      string `gorm:"size:100;not null"`
	Document  string `gorm:"size:20"`
	Phone     string `gorm:"size:50"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Purchase - compra/nota de fornecedor (contas a pagar).
type Purchase struct {
	ID          uint `gorm:"primaryKey"`
	TenantID    uint `gorm:"index;not null"`
	Tenant      Tenant
	SupplierID  uint `gorm:"index;not null"`
	Supplier    Supplier
	Amount      float64   `gorm:"not null"` // valor total da nota
	Description string    `gorm:"size:500"`
	Date        time.Time `gorm:"index;not null"`
	Payments    []PurchasePayment `gorm:"foreignKey:PurchaseID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PurchasePayment - pagamento parcial/total de uma compra (parcelas etc).
type PurchasePayment struct {
	ID          uint `gorm:"primaryKey"`
	TenantID    uint `gorm:"index;not null"`
	PurchaseID  uint `gorm:"index;not null"`
	Purchase    Purchase
	Amount      float64   `gorm:"not null"`
	PaymentDate time.Time `gorm:"index;not null"`
	Description string    `gorm:"size:500"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
