package models

import "time"

type ProposalStatus string

const (
	ProposalStatusDraft    ProposalStatus = "draft"
	ProposalStatusSent     ProposalStatus = "sent"
	ProposalStatusAccepted ProposalStatus = "accepted"
	ProposalStatusRejected ProposalStatus = "rejected"
)

// Proposal - orçamento/proposta com blocos ordenáveis e total calculado.
type Proposal struct {
	ID          uint `gorm:"primaryKey"`
	TenantID    uint `gorm:"index;not null"`
	Tenant      Tenant
	CustomerID  *uint     `gorm:"index"`
	Customer    *Customer `gorm:"foreignKey:CustomerID"`
	Title       string    `gorm:"size:150;not null"`
	Status      ProposalStatus `gorm:"size:20;not null;index"`
	PublicToken string         `gorm:"size:36;uniqueIndex;not null"` // link público somente leitura
	ValidUntil  *time.Time
	Blocks      []ProposalBlock `gorm:"foreignKey:ProposalID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ProposalBlockType string

const (
	ProposalBlockText ProposalBlockType = "text" // bloco de texto livre
	ProposalBlockItem ProposalBlockType = "item" // bloco de item com valor
)

// ProposalBlock - bloco de conteúdo da proposta. SortOrder define a posição
// na lista (arrastável no front).
type ProposalBlock struct {
	ID         uint `gorm:"primaryKey"`
	TenantID   uint `gorm:"index;not null"`
	ProposalID uint `gorm:"index;not null"`
	Type       ProposalBlockType `gorm:"size:10;not null"`
	SortOrder  int               `gorm:"not null;index"`
	Title      string            `gorm:"size:150"`
	Body       string            `gorm:"size:2000"` // só para blocos de texto
	Quantity   float64           // só para blocos de item
	UnitPrice  float64           // só para blocos de item
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
