package register

import (
	"context"
	"errors"
	"testing"
	"time"

	"pdv-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource - DataSource em memória para os testes
type fakeSource struct {
	session     *models.CashSession
	sales       []models.Sale
	payments    []models.PaymentEntry
	withdrawals []models.CashWithdrawal

	salesErr    error
	paymentsErr error
}

func (f *fakeSource) Session(_ context.Context, tenantID, sessionID uint) (*models.CashSession, error) {
	if f.session == nil || f.session.ID != sessionID || f.session.TenantID != tenantID {
		return nil, ErrSessionNotFound
	}
	return f.session, nil
}

func (f *fakeSource) Sales(_ context.Context, _, _ uint) ([]models.Sale, error) {
	if f.salesErr != nil {
		return nil, f.salesErr
	}
	return f.sales, nil
}

func (f *fakeSource) Payments(_ context.Context, _ uint, saleIDs []uint) ([]models.PaymentEntry, error) {
	if f.paymentsErr != nil {
		return nil, f.paymentsErr
	}
	ids := make(map[uint]bool, len(saleIDs))
	for _, id := range saleIDs {
		ids[id] = true
	}
	var out []models.PaymentEntry
	for _, p := range f.payments {
		if ids[p.SaleID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeSource) Withdrawals(_ context.Context, _, _ uint) ([]models.CashWithdrawal, error) {
	return f.withdrawals, nil
}

func newSession(opening float64) *models.CashSession {
	return &models.CashSession{
		ID:            1,
		TenantID:      10,
		OpeningAmount: opening,
		OpenedAt:      time.Now(),
		Status:        models.SessionStatusOpen,
	}
}

func TestReconcileSessionNotFound(t *testing.T) {
	src := &fakeSource{}

	_, err := Reconcile(context.Background(), src, 10, 99, 0)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestReconcileEmptySession(t *testing.T) {
	// Sessão sem vendas e sem sangrias: esperado == fundo de troco
	src := &fakeSource{session: newSession(100)}

	res, err := Reconcile(context.Background(), src, 10, 1, 100)
	require.NoError(t, err)

	assert.Equal(t, 100.0, res.ExpectedCash)
	assert.Equal(t, 0.0, res.TotalSales)
	assert.Equal(t, 0.0, res.Variance)
}

func TestReconcileSingleCashSale(t *testing.T) {
	// Fundo R$100, venda de R$50 toda em dinheiro, contado R$150
	src := &fakeSource{
		session: newSession(100),
		sales:   []models.Sale{{ID: 1, TenantID: 10, SessionID: 1, Total: 50}},
		payments: []models.PaymentEntry{
			{SaleID: 1, Method: models.PaymentMethodCash, Amount: 50},
		},
	}

	res, err := Reconcile(context.Background(), src, 10, 1, 150)
	require.NoError(t, err)

	assert.Equal(t, 150.0, res.ExpectedCash)
	assert.Equal(t, 0.0, res.Variance)
}

func TestReconcileSplitPaymentWithWithdrawal(t *testing.T) {
	// Fundo R$100, vendas R$200 (R$120 dinheiro / R$80 crédito),
	// sangria de R$30, contado R$180 -> falta de R$10
	src := &fakeSource{
		session: newSession(100),
		sales: []models.Sale{
			{ID: 1, TenantID: 10, SessionID: 1, Total: 130},
			{ID: 2, TenantID: 10, SessionID: 1, Total: 70},
		},
		payments: []models.PaymentEntry{
			{SaleID: 1, Method: models.PaymentMethodCash, Amount: 120},
			{SaleID: 1, Method: models.PaymentMethodCredit, Amount: 10},
			{SaleID: 2, Method: models.PaymentMethodCredit, Amount: 70},
		},
		withdrawals: []models.CashWithdrawal{{SessionID: 1, Amount: 30}},
	}

	res, err := Reconcile(context.Background(), src, 10, 1, 180)
	require.NoError(t, err)

	assert.Equal(t, 200.0, res.TotalSales)
	assert.Equal(t, 120.0, res.TotalCash)
	assert.Equal(t, 80.0, res.TotalCredit)
	assert.Equal(t, 30.0, res.TotalWithdrawals)
	assert.Equal(t, 190.0, res.ExpectedCash)
	assert.Equal(t, -10.0, res.Variance)
}

func TestReconcileMethodBuckets(t *testing.T) {
	src := &fakeSource{
		session: newSession(0),
		sales:   []models.Sale{{ID: 1, TenantID: 10, SessionID: 1, Total: 100}},
		payments: []models.PaymentEntry{
			{SaleID: 1, Method: models.PaymentMethodCash, Amount: 10},
			{SaleID: 1, Method: models.PaymentMethodCredit, Amount: 20},
			{SaleID: 1, Method: models.PaymentMethodDebit, Amount: 30},
			{SaleID: 1, Method: models.PaymentMethodPix, Amount: 40},
		},
	}

	res, err := Reconcile(context.Background(), src, 10, 1, 10)
	require.NoError(t, err)

	// Vendas totalmente pagas: soma dos métodos fecha com o total
	assert.Equal(t, res.TotalSales, res.TotalCash+res.TotalCredit+res.TotalDebit+res.TotalPix)
	assert.Equal(t, 40.0, res.TotalPix)
	assert.Equal(t, 0.0, res.Variance)
}

func TestReconcileVarianceSign(t *testing.T) {
	src := &fakeSource{session: newSession(100)}

	surplus, err := Reconcile(context.Background(), src, 10, 1, 110)
	require.NoError(t, err)
	assert.Equal(t, 10.0, surplus.Variance)

	shortage, err := Reconcile(context.Background(), src, 10, 1, 90)
	require.NoError(t, err)
	assert.Equal(t, -10.0, shortage.Variance)
}

func TestReconcileAcceptsAbsurdCountedAmount(t *testing.T) {
	// Valor contado não é validado: negativo só produz variance grande
	src := &fakeSource{session: newSession(100)}

	res, err := Reconcile(context.Background(), src, 10, 1, -50)
	require.NoError(t, err)
	assert.Equal(t, -150.0, res.Variance)
}

func TestReconcileIdempotent(t *testing.T) {
	src := &fakeSource{
		session: newSession(100),
		sales:   []models.Sale{{ID: 1, TenantID: 10, SessionID: 1, Total: 33.33}},
		payments: []models.PaymentEntry{
			{SaleID: 1, Method: models.PaymentMethodCash, Amount: 33.33},
		},
		withdrawals: []models.CashWithdrawal{{SessionID: 1, Amount: 3.33}},
	}

	first, err := Reconcile(context.Background(), src, 10, 1, 130)
	require.NoError(t, err)
	second, err := Reconcile(context.Background(), src, 10, 1, 130)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestReconcileRoundsToTwoDecimals(t *testing.T) {
	src := &fakeSource{
		session: newSession(0.10),
		sales: []models.Sale{
			{ID: 1, TenantID: 10, SessionID: 1, Total: 0.10},
			{ID: 2, TenantID: 10, SessionID: 1, Total: 0.20},
		},
		payments: []models.PaymentEntry{
			{SaleID: 1, Method: models.PaymentMethodCash, Amount: 0.10},
			{SaleID: 2, Method: models.PaymentMethodCash, Amount: 0.20},
		},
	}

	res, err := Reconcile(context.Background(), src, 10, 1, 0.40)
	require.NoError(t, err)

	// 0.1+0.2 em float64 não é exatamente 0.3; o arredondamento nas bordas segura isso
	assert.Equal(t, 0.30, res.TotalCash)
	assert.Equal(t, 0.40, res.ExpectedCash)
	assert.Equal(t, 0.0, res.Variance)
}

func TestReconcilePropagatesFetchError(t *testing.T) {
	boom := errors.New("conexão recusada")
	src := &fakeSource{session: newSession(100), salesErr: boom}

	_, err := Reconcile(context.Background(), src, 10, 1, 100)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestReconcilePropagatesPaymentFetchError(t *testing.T) {
	boom := errors.New("timeout")
	src := &fakeSource{
		session:     newSession(100),
		sales:       []models.Sale{{ID: 1, TenantID: 10, SessionID: 1, Total: 50}},
		paymentsErr: boom,
	}

	_, err := Reconcile(context.Background(), src, 10, 1, 100)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}
