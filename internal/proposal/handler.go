package proposal

import (
	"fmt"
	"math"
	"strings"
	"time"

	"pdv-backend/internal/audit"
	"pdv-backend/internal/auth"
	"pdv-backend/internal/database"
	"pdv-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// -------------------------
// Request/Response Types
// -------------------------

type CreateProposalRequest struct {
	Title      string `json:"title"`
	CustomerID *uint  `json:"customer_id"`
	ValidUntil string `json:"valid_until"` // "2026-01-31" (opcional)
	TenantID   *uint  `json:"tenant_id"`
}

type UpdateProposalRequest struct {
	Title      *string `json:"title"`
	Status     *string `json:"status"`
	CustomerID *uint   `json:"customer_id"`
	ValidUntil *string `json:"valid_until"`
}

type BlockRequest struct {
	Type      string  `json:"type"` // "text" ou "item"
	Title     string  `json:"title"`
	Body      string  `json:"body"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type ReorderBlocksRequest struct {
	BlockIDs []uint `json:"block_ids"` // ordem final desejada
}

type BlockResponse struct {
	ID        uint    `json:"id"`
	Type      string  `json:"type"`
	SortOrder int     `json:"sort_order"`
	Title     string  `json:"title"`
	Body      string  `json:"body,omitempty"`
	Quantity  float64 `json:"quantity,omitempty"`
	UnitPrice float64 `json:"unit_price,omitempty"`
	Subtotal  float64 `json:"subtotal,omitempty"`
}

type ProposalResponse struct {
	ID          uint            `json:"id"`
	TenantID    uint            `json:"tenant_id"`
	CustomerID  *uint           `json:"customer_id"`
	Customer    string          `json:"customer,omitempty"`
	Title       string          `json:"title"`
	Status      string          `json:"status"`
	PublicToken string          `json:"public_token"`
	ValidUntil  *string         `json:"valid_until"`
	Blocks      []BlockResponse `json:"blocks"`
	Total       float64         `json:"total"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// -------------------------
// Auxiliar: dados do usuário logado
// -------------------------
func getUserInfo(c *fiber.Ctx) (uint, string, *uint, error) {
	userIDVal := c.Locals(auth.CtxUserIDKey)
	userID, ok := userIDVal.(uint)
	if !ok {
		return 0, "", nil, fiber.NewError(fiber.StatusForbidden, "Não foi possível obter o usuário")
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return 0, "", nil, fiber.NewError(fiber.StatusInternalServerError, "Usuário não encontrado")
	}

	var tenantID *uint
	tVal := c.Locals(auth.CtxTenantIDKey)
	if tPtr, ok := tVal.(*uint); ok && tPtr != nil {
		tenantID = tPtr
	}

	return userID, user.Name, tenantID, nil
}

// -------------------------
// Auxiliar: resolver tenant id
// -------------------------
func resolveTenantIDFromBodyOrRole(c *fiber.Ctx, bodyTenantID *uint) (uint, error) {
	roleVal := c.Locals(auth.CtxUserRoleKey)
	role, ok := roleVal.(models.UserRole)
	if !ok {
		return 0, fiber.NewError(fiber.StatusForbidden, "Não foi possível obter o papel do usuário")
	}

	if role != models.RoleResellerAdmin {
		tVal := c.Locals(auth.CtxTenantIDKey)
		tPtr, ok := tVal.(*uint)
		if !ok || tPtr == nil {
			return 0, fiber.NewError(fiber.StatusForbidden, "Tenant não encontrado no token")
		}
		return *tPtr, nil
	}

	if bodyTenantID == nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "tenant_id obrigatório")
	}
	return *bodyTenantID, nil
}

func resolveTenantIDFromQueryOrRole(c *fiber.Ctx) (uint, error) {
	roleVal := c.Locals(auth.CtxUserRoleKey)
	role, ok := roleVal.(models.UserRole)
	if !ok {
		return 0, fiber.NewError(fiber.StatusForbidden, "Não foi possível obter o papel do usuário")
	}

	if role != models.RoleResellerAdmin {
		tVal := c.Locals(auth.CtxTenantIDKey)
		tPtr, ok := tVal.(*uint)
		if !ok || tPtr == nil {
			return 0, fiber.NewError(fiber.StatusForbidden, "Tenant não encontrado no token")
		}
		return *tPtr, nil
	}

	tidStr := c.Query("tenant_id")
	if tidStr == "" {
		return 0, fiber.NewError(fiber.StatusBadRequest, "tenant_id obrigatório")
	}
	var tid uint
	if _, err := fmt.Sscan(tidStr, &tid); err != nil || tid == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "tenant_id inválido")
	}
	return tid, nil
}

// ProposalTotal soma os blocos de item (quantity * unit_price), arredondado
// em 2 casas. Blocos de texto não entram na conta.
func ProposalTotal(blocks []models.ProposalBlock) float64 {
	var total float64
	for _, b := range blocks {
		if b.Type == models.ProposalBlockItem {
			total += b.Quantity * b.UnitPrice
		}
	}
	return round2(total)
}

func toBlockResponse(b *models.ProposalBlock) BlockResponse {
	resp := BlockResponse{
		ID:        b.ID,
		Type:      string(b.Type),
		SortOrder: b.SortOrder,
		Title:     b.Title,
	}
	if b.Type == models.ProposalBlockText {
		resp.Body = b.Body
	} else {
		resp.Quantity = b.Quantity
		resp.UnitPrice = b.UnitPrice
		resp.Subtotal = round2(b.Quantity * b.UnitPrice)
	}
	return resp
}

func toProposalResponse(p *models.Proposal) ProposalResponse {
	blocks := make([]BlockResponse, 0, len(p.Blocks))
	for i := range p.Blocks {
		blocks = append(blocks, toBlockResponse(&p.Blocks[i]))
	}
	var validUntil *string
	if p.ValidUntil != nil {
		s := p.ValidUntil.Format("2006-01-02")
		validUntil = &s
	}
	customerName := ""
	if p.Customer != nil {
		customerName = p.Customer.Name
	}
	return ProposalResponse{
		ID:          p.ID,
		TenantID:    p.TenantID,
		CustomerID:  p.CustomerID,
		Customer:    customerName,
		Title:       p.Title,
		Status:      string(p.Status),
		PublicToken: p.PublicToken,
		ValidUntil:  validUntil,
		Blocks:      blocks,
		Total:       ProposalTotal(p.Blocks),
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.Format(time.RFC3339),
	}
}

func loadProposal(tenantID uint, id int) (*models.Proposal, error) {
	var p models.Proposal
	err := database.DB.Preload("Customer").
		Preload("Blocks", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order asc, id asc") }).
		Where("tenant_id = ? AND id = ?", tenantID, id).First(&p).Error
	if err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Proposta não encontrada")
	}
	return &p, nil
}

// -------------------------
// Propostas
// -------------------------

// POST /api/proposals
func CreateProposalHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateProposalRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Dados inválidos")
		}
		if strings.TrimSpace(body.Title) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Título obrigatório")
		}

		tenantID, err := resolveTenantIDFromBodyOrRole(c, body.TenantID)
		if err != nil {
			return err
		}

		if body.CustomerID != nil {
			var cust models.Customer
			if err := database.DB.Where("tenant_id = ? AND id = ?", tenantID, *body.CustomerID).First(&cust).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "Cliente não encontrado")
			}
		}

		var validUntil *time.Time
		if body.ValidUntil != "" {
			d, err := time.Parse("2006-01-02", body.ValidUntil)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Formato de data inválido, use 'AAAA-MM-DD'")
			}
			validUntil = &d
		}

		p := models.Proposal{
			TenantID:    tenantID,
			CustomerID:  body.CustomerID,
			Title:       strings.TrimSpace(body.Title),
			Status:      models.ProposalStatusDraft,
			PublicToken: uuid.NewString(),
			ValidUntil:  validUntil,
		}

		if err := database.DB.Create(&p).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível criar a proposta")
		}

		userID, userName, _, uerr := getUserInfo(c)
		if uerr == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				TenantID:    &p.TenantID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "proposal",
				EntityID:    p.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Proposta '%s' criada", p.Title),
				After:       toProposalResponse(&p),
			}); logErr != nil {
				fmt.Printf("Não foi possível gravar o audit log: %v\n", logErr)
			}
		}

		return c.Status(fiber.StatusCreated).JSON(toProposalResponse(&p))
	}
}

// GET /api/proposals?status=draft
func ListProposalsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := resolveTenantIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Preload("Customer").
			Preload("Blocks", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order asc, id asc") }).
			Where("tenant_id = ?", tenantID)

		if status := c.Query("status"); status != "" {
			dbq = dbq.Where("status = ?", status)
		}

		var proposals []models.Proposal
		if err := dbq.Order("created_at desc").Find(&proposals).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível listar as propostas")
		}

		resp := make([]ProposalResponse, 0, len(proposals))
		for i := range proposals {
			resp = append(resp, toProposalResponse(&proposals[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/proposals/:id
func GetProposalHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := resolveTenantIDFromQueryOrRole(c)
		if err != nil {
			return err
		}
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "id inválido")
		}

		p, err := loadProposal(tenantID, id)
		if err != nil {
			return err
		}
		return c.JSON(toProposalResponse(p))
	}
}

// PUT /api/proposals/:id
func UpdateProposalHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := resolveTenantIDFromQueryOrRole(c)
		if err != nil {
			return err
		}
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "id inválido")
		}

		var body UpdateProposalRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Dados inválidos")
		}

		p, err := loadProposal(tenantID, id)
		if err != nil {
			return err
		}
		before := toProposalResponse(p)

		if body.Title != nil {
			if strings.TrimSpace(*body.Title) == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Título não pode ser vazio")
			}
			p.Title = strings.TrimSpace(*body.Title)
		}
		if body.Status != nil {
			switch models.ProposalStatus(*body.Status) {
			case models.ProposalStatusDraft, models.ProposalStatusSent,
				models.ProposalStatusAccepted, models.ProposalStatusRejected:
				p.Status = models.ProposalStatus(*body.Status)
			default:
				return fiber.NewError(fiber.StatusBadRequest, "Status inválido")
			}
		}
		if body.CustomerID != nil {
			var cust models.Customer
			if err := database.DB.Where("tenant_id = ? AND id = ?", tenantID, *body.CustomerID).First(&cust).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "Cliente não encontrado")
			}
			p.CustomerID = body.CustomerID
		}
		if body.ValidUntil != nil {
			if *body.ValidUntil == "" {
				p.ValidUntil = nil
			} else {
				d, err := time.Parse("2006-01-02", *body.ValidUntil)
				if err != nil {
					return fiber.NewError(fiber.StatusBadRequest, "Formato de data inválido, use 'AAAA-MM-DD'")
				}
				p.ValidUntil = &d
			}
		}

		if err := database.DB.Save(p).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível atualizar a proposta")
		}

		userID, userName, _, uerr := getUserInfo(c)
		if uerr == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				TenantID:    &p.TenantID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "proposal",
				EntityID:    p.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Proposta %d atualizada", p.ID),
				Before:      before,
				After:       toProposalResponse(p),
			}); logErr != nil {
				fmt.Printf("Não foi possível gravar o audit log: %v\n", logErr)
			}
		}

		return c.JSON(toProposalResponse(p))
	}
}

// -------------------------
// Blocos
// -------------------------

// POST /api/proposals/:id/blocks
func CreateBlockHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := resolveTenantIDFromQueryOrRole(c)
		if err != nil {
			return err
		}
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "id inválido")
		}

		var body BlockRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Dados inválidos")
		}
		if body.Type != string(models.ProposalBlockText) && body.Type != string(models.ProposalBlockItem) {
			return fiber.NewError(fiber.StatusBadRequest, "type deve ser 'text' ou 'item'")
		}
		if body.Type == string(models.ProposalBlockItem) {
			if body.Quantity <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "quantity deve ser maior que 0")
			}
			if body.UnitPrice < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "unit_price não pode ser negativo")
			}
		}

		p, err := loadProposal(tenantID, id)
		if err != nil {
			return err
		}

		// Bloco novo entra no fim da lista.
		nextOrder := 0
		for _, b := range p.Blocks {
			if b.SortOrder >= nextOrder {
				nextOrder = b.SortOrder + 1
			}
		}

		block := models.ProposalBlock{
			TenantID:   tenantID,
			ProposalID: p.ID,
			Type:       models.ProposalBlockType(body.Type),
			SortOrder:  nextOrder,
			Title:      strings.TrimSpace(body.Title),
		}
		if block.Type == models.ProposalBlockText {
			block.Body = body.Body
		} else {
			block.Quantity = body.Quantity
			block.UnitPrice = body.UnitPrice
		}

		if err := database.DB.Create(&block).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível criar o bloco")
		}

		return c.Status(fiber.StatusCreated).JSON(toBlockResponse(&block))
	}
}

// PUT /api/proposals/:id/blocks/:block_id
func UpdateBlockHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := resolveTenantIDFromQueryOrRole(c)
		if err != nil {
			return err
		}
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "id inválido")
		}
		blockID, err := c.ParamsInt("block_id")
		if err != nil || blockID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "block_id inválido")
		}

		var body BlockRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Dados inválidos")
		}

		var block models.ProposalBlock
		if err := database.DB.Where("tenant_id = ? AND proposal_id = ? AND id = ?", tenantID, id, blockID).
			First(&block).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Bloco não encontrado")
		}

		// O tipo do bloco não muda depois de criado.
		block.Title = strings.TrimSpace(body.Title)
		if block.Type == models.ProposalBlockText {
			block.Body = body.Body
		} else {
			if body.Quantity <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "quantity deve ser maior que 0")
			}
			if body.UnitPrice < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "unit_price não pode ser negativo")
			}
			block.Quantity = body.Quantity
			block.UnitPrice = body.UnitPrice
		}

		if err := database.DB.Save(&block).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível atualizar o bloco")
		}

		return c.JSON(toBlockResponse(&block))
	}
}

// DELETE /api/proposals/:id/blocks/:block_id
func DeleteBlockHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := resolveTenantIDFromQueryOrRole(c)
		if err != nil {
			return err
		}
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "id inválido")
		}
		blockID, err := c.ParamsInt("block_id")
		if err != nil || blockID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "block_id inválido")
		}

		res := database.DB.Where("tenant_id = ? AND proposal_id = ? AND id = ?", tenantID, id, blockID).
			Delete(&models.ProposalBlock{})
		if res.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível remover o bloco")
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusNotFound, "Bloco não encontrado")
		}

		return c.JSON(fiber.Map{"message": "Bloco removido"})
	}
}

// PUT /api/proposals/:id/blocks/order
// Recebe a lista completa de IDs na ordem final. Todos os blocos da
// proposta precisam aparecer exatamente uma vez.
func ReorderBlocksHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := resolveTenantIDFromQueryOrRole(c)
		if err != nil {
			return err
		}
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "id inválido")
		}

		var body ReorderBlocksRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Dados inválidos")
		}

		p, err := loadProposal(tenantID, id)
		if err != nil {
			return err
		}

		if err := ApplyBlockOrder(p.Blocks, body.BlockIDs); err != nil {
			return err
		}

		tx := database.DB.Begin()
		for i := range p.Blocks {
			if err := tx.Model(&models.ProposalBlock{}).Where("id = ?", p.Blocks[i].ID).
				Update("sort_order", p.Blocks[i].SortOrder).Error; err != nil {
				tx.Rollback()
				return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível reordenar os blocos")
			}
		}
		if err := tx.Commit().Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível reordenar os blocos")
		}

		p, err = loadProposal(tenantID, id)
		if err != nil {
			return err
		}
		return c.JSON(toProposalResponse(p))
	}
}

// ApplyBlockOrder atribui SortOrder sequencial conforme a lista de IDs.
// A lista precisa conter todos os blocos, sem repetição e sem ID estranho.
func ApplyBlockOrder(blocks []models.ProposalBlock, orderedIDs []uint) error {
	if len(orderedIDs) != len(blocks) {
		return fiber.NewError(fiber.StatusBadRequest, "block_ids deve conter todos os blocos da proposta")
	}

	pos := make(map[uint]int, len(orderedIDs))
	for i, id := range orderedIDs {
		if _, dup := pos[id]; dup {
			return fiber.NewError(fiber.StatusBadRequest, "block_ids contém ID repetido")
		}
		pos[id] = i
	}

	for i := range blocks {
		p, ok := pos[blocks[i].ID]
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "block_ids deve conter todos os blocos da proposta")
		}
		blocks[i].SortOrder = p
	}
	return nil
}

// -------------------------
// Link público
// -------------------------

// GET /api/public/proposals/:token
func PublicProposalHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Params("token")
		if _, err := uuid.Parse(token); err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Proposta não encontrada")
		}

		var p models.Proposal
		if err := database.DB.Preload("Customer").
			Preload("Blocks", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order asc, id asc") }).
			Where("public_token = ?", token).First(&p).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Proposta não encontrada")
		}

		resp := toProposalResponse(&p)
		// Visão pública não expõe o token de volta nem o tenant.
		resp.PublicToken = ""
		resp.TenantID = 0
		return c.JSON(resp)
	}
}
