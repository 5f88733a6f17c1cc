package register

import (
	"context"
	"errors"
	"fmt"

	"pdv-backend/internal/models"

	"gorm.io/gorm"
)

// GormSource - implementação do DataSource em cima do banco.
type GormSource struct {
	db *gorm.DB
}

func NewGormSource(db *gorm.DB) *GormSource {
	return &GormSource{db: db}
}

func (s *GormSource) Session(ctx context.Context, tenantID, sessionID uint) (*models.CashSession, error) {
	var sess models.CashSession
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, sessionID).
		First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("falha ao consultar a sessão: %w", err)
	}
	return &sess, nil
}

func (s *GormSource) Sales(ctx context.Context, tenantID, sessionID uint) ([]models.Sale, error) {
	var sales []models.Sale
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND session_id = ?", tenantID, sessionID).
		Order("id asc").
		Find(&sales).Error
	if err != nil {
		return nil, err
	}
	return sales, nil
}

func (s *GormSource) Payments(ctx context.Context, tenantID uint, saleIDs []uint) ([]models.PaymentEntry, error) {
	var payments []models.PaymentEntry
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND sale_id IN ?", tenantID, saleIDs).
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (s *GormSource) Withdrawals(ctx context.Context, tenantID, sessionID uint) ([]models.CashWithdrawal, error) {
	var withdrawals []models.CashWithdrawal
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND session_id = ?", tenantID, sessionID).
		Order("id asc").
		Find(&withdrawals).Error
	if err != nil {
		return nil, err
	}
	return withdrawals, nil
}
