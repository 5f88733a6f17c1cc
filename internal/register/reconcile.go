package register

import (
	"context"
	"errors"
	"fmt"
	"math"

	"pdv-backend/internal/models"

	"golang.org/x/sync/errgroup"
)

// ErrSessionNotFound - a sessão referenciada não existe para o tenant
var ErrSessionNotFound = errors.New("sessão de caixa não encontrada")

// DataSource abstrai o acesso a dados da conferência de caixa. O tenant vai
// explícito em toda chamada, nunca em estado global.
type DataSource interface {
	Session(ctx context.Context, tenantID, sessionID uint) (*models.CashSession, error)
	Sales(ctx context.Context, tenantID, sessionID uint) ([]models.Sale, error)
	Payments(ctx context.Context, tenantID uint, saleIDs []uint) ([]models.PaymentEntry, error)
	Withdrawals(ctx context.Context, tenantID, sessionID uint) ([]models.CashWithdrawal, error)
}

// ReconciliationResult - resumo da conferência.
// Variance positiva = sobra, negativa = falta, zero = caixa batido.
type ReconciliationResult struct {
	SessionID        uint    `json:"session_id"`
	OpeningAmount    float64 `json:"opening_amount"`
	TotalSales       float64 `json:"total_sales"`
	TotalCash        float64 `json:"total_cash"`
	TotalCredit      float64 `json:"total_credit"`
	TotalDebit       float64 `json:"total_debit"`
	TotalPix         float64 `json:"total_pix"`
	TotalWithdrawals float64 `json:"total_withdrawals"`
	ExpectedCash     float64 `json:"expected_cash"`
	CountedAmount    float64 `json:"counted_amount"`
	Variance         float64 `json:"variance"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Reconcile calcula a conferência de uma sessão de caixa. Somente leitura;
// o fechamento que persiste o valor contado é uma operação separada.
// O valor contado não é validado de propósito: valor absurdo só produz
// uma variance grande.
func Reconcile(ctx context.Context, src DataSource, tenantID, sessionID uint, counted float64) (*ReconciliationResult, error) {
	sess, err := src.Session(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}

	var (
		sales       []models.Sale
		withdrawals []models.CashWithdrawal
	)

	// Vendas e sangrias em paralelo; pagamentos depois, quando os ids das
	// vendas já são conhecidos.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sales, err = src.Sales(gctx, tenantID, sessionID)
		return err
	})
	g.Go(func() error {
		var err error
		withdrawals, err = src.Withdrawals(gctx, tenantID, sessionID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("falha ao consultar dados da sessão: %w", err)
	}

	res := &ReconciliationResult{
		SessionID:     sess.ID,
		OpeningAmount: sess.OpeningAmount,
		CountedAmount: counted,
	}

	saleIDs := make([]uint, 0, len(sales))
	for _, s := range sales {
		res.TotalSales += s.Total
		saleIDs = append(saleIDs, s.ID)
	}

	if len(saleIDs) > 0 {
		payments, err := src.Payments(ctx, tenantID, saleIDs)
		if err != nil {
			return nil, fmt.Errorf("falha ao consultar pagamentos: %w", err)
		}
		for _, p := range payments {
			switch p.Method {
			case models.PaymentMethodCash:
				res.TotalCash += p.Amount
			case models.PaymentMethodCredit:
				res.TotalCredit += p.Amount
			case models.PaymentMethodDebit:
				res.TotalDebit += p.Amount
			case models.PaymentMethodPix:
				res.TotalPix += p.Amount
			}
		}
	}

	for _, w := range withdrawals {
		res.TotalWithdrawals += w.Amount
	}

	res.TotalSales = round2(res.TotalSales)
	res.TotalCash = round2(res.TotalCash)
	res.TotalCredit = round2(res.TotalCredit)
	res.TotalDebit = round2(res.TotalDebit)
	res.TotalPix = round2(res.TotalPix)
	res.TotalWithdrawals = round2(res.TotalWithdrawals)
	res.ExpectedCash = round2(res.OpeningAmount + res.TotalCash - res.TotalWithdrawals)
	res.Variance = round2(res.CountedAmount - res.ExpectedCash)

	return res, nil
}
