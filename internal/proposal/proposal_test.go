package proposal

import (
	"testing"

	"pdv-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProposalTotalSomaSoItens(t *testing.T) {
	blocks := []models.ProposalBlock{
		{Type: models.ProposalBlockText, Body: "Apresentação"},
		{Type: models.ProposalBlockItem, Quantity: 2, UnitPrice: 150.00},
		{Type: models.ProposalBlockItem, Quantity: 1, UnitPrice: 99.90},
		{Type: models.ProposalBlockText, Body: "Condições de pagamento"},
	}

	assert.Equal(t, 399.90, ProposalTotal(blocks))
}

func TestProposalTotalVazio(t *testing.T) {
	assert.Equal(t, 0.0, ProposalTotal(nil))
	assert.Equal(t, 0.0, ProposalTotal([]models.ProposalBlock{
		{Type: models.ProposalBlockText, Body: "só texto"},
	}))
}

func TestProposalTotalArredondaDuasCasas(t *testing.T) {
	blocks := []models.ProposalBlock{
		{Type: models.ProposalBlockItem, Quantity: 3, UnitPrice: 0.1},
		{Type: models.ProposalBlockItem, Quantity: 1, UnitPrice: 0.2},
	}
	assert.Equal(t, 0.5, ProposalTotal(blocks))
}

func TestApplyBlockOrder(t *testing.T) {
	blocks := []models.ProposalBlock{
		{ID: 10, SortOrder: 0},
		{ID: 11, SortOrder: 1},
		{ID: 12, SortOrder: 2},
	}

	require.NoError(t, ApplyBlockOrder(blocks, []uint{12, 10, 11}))

	byID := map[uint]int{}
	for _, b := range blocks {
		byID[b.ID] = b.SortOrder
	}
	assert.Equal(t, 0, byID[12])
	assert.Equal(t, 1, byID[10])
	assert.Equal(t, 2, byID[11])
}

func TestApplyBlockOrderRejeitaListaIncompleta(t *testing.T) {
	blocks := []models.ProposalBlock{{ID: 1}, {ID: 2}}

	assert.Error(t, ApplyBlockOrder(blocks, []uint{1}))
	assert.Error(t, ApplyBlockOrder(blocks, []uint{1, 1}))
	assert.Error(t, ApplyBlockOrder(blocks, []uint{1, 99}))
}
