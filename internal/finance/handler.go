package finance

import (
	"fmt"
	"strings"
	"time"

	"pdv-backend/internal/audit"
	"pdv-backend/internal/auth"
	"pdv-backend/internal/database"
	"pdv-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// -------------------------
// Request/Response Types
// -------------------------

type CustomerRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	TenantID *uint  `json:"tenant_id"`
}

type CreateFinanceEntryRequest struct {
	Type        string  `json:"type"` // "receivable" ou "payable"
	CustomerID  *uint   `json:"customer_id"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	DueDate     string  `json:"due_date"` // "2025-12-09"
	TenantID    *uint   `json:"tenant_id"`
}

type UpdateFinanceEntryRequest struct {
	Type        *string  `json:"type"`
	Amount      *float64 `json:"amount"`
	Description *string  `json:"description"`
	DueDate     *string  `json:"due_date"`
}

type FinanceEntryResponse struct {
	ID          uint    `json:"id"`
	TenantID    uint    `json:"tenant_id"`
	CustomerID  *uint   `json:"customer_id"`
	Customer    string  `json:"customer,omitempty"`
	Type        string  `json:"type"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	DueDate     string  `json:"due_date"`
	TotalPaid   float64 `json:"total_paid"`
	Remaining   float64 `json:"remaining"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

type CreateFinancePaymentRequest struct {
	FinanceEntryID uint    `json:"finance_entry_id"`
	Amount         float64 `json:"amount"`
	PaymentDate    string  `json:"payment_date"`
	Description    string  `json:"description"`
	TenantID       *uint   `json:"tenant_id"`
}

type FinancePaymentResponse struct {
	ID             uint    `json:"id"`
	TenantID       uint    `json:"tenant_id"`
	FinanceEntryID uint    `json:"finance_entry_id"`
	Amount         float64 `json:"amount"`
	PaymentDate    string  `json:"payment_date"`
	Description    string  `json:"description"`
	CreatedAt      string  `json:"created_at"`
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

func toEntryResponse(e *models.FinanceEntry) FinanceEntryResponse {
	var paid float64
	for _, p := range e.Payments {
		paid += p.Amount
	}
	customerName := ""
	if e.Customer != nil {
		customerName = e.Customer.Name
	}
	return FinanceEntryResponse{
		ID:          e.ID,
		TenantID:    e.TenantID,
		CustomerID:  e.CustomerID,
		Customer:    customerName,
		Type:        string(e.Type),
		Amount:      e.Amount,
		Description: e.Description,
		DueDate:     e.DueDate.Format("2006-01-02"),
		TotalPaid:   paid,
		Remaining:   e.Amount - paid,
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   e.UpdatedAt.Format(time.RFC3339),
	}
}

// -------------------------
// Clientes
// -------------------------

// POST /api/customers
func CreateCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CustomerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido")
		}
		if strings.TrimSpace(body.Name) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Nome obrigatório")
		}

		tenantID, err := resolveTenantIDFromBodyOrRole(c, body.TenantID)
		if err != nil {
			return err
		}

		cust := models.Customer{
			TenantID: tenantID,
			Name:     strings.TrimSpace(body.Name),
			Phone:    strings.TrimSpace(body.Phone),
			Email:    strings.TrimSpace(strings.ToLower(body.Email)),
		}

		if err := database.DB.Create(&cust).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível criar o cliente")
		}

		return c.Status(fiber.StatusCreated).JSON(cust)
	}
}

// GET /api/customers
func ListCustomersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := resolveTenantIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		var customers []models.Customer
		if err := database.DB.Where("tenant_id = ?", tenantID).Order("name asc").Find(&customers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível listar os clientes")
		}
		return c.JSON(customers)
	}
}

// -------------------------
// Lançamentos financeiros
// -------------------------

// POST /api/finance-entries
func CreateFinanceEntryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateFinanceEntryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Dados inválidos")
		}

		// Validação
		if body.Type != string(models.FinanceTypeReceivable) && body.Type != string(models.FinanceTypePayable) {
			return fiber.NewError(fiber.StatusBadRequest, "type deve ser 'receivable' ou 'payable'")
		}
		if body.Amount <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "amount deve ser maior que 0")
		}
		if strings.TrimSpace(body.Description) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "description não pode ser vazia")
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

		d, err := time.Parse("2006-01-02", body.DueDate)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Formato de data inválido, use 'AAAA-MM-DD'")
		}

		entry := models.FinanceEntry{
			TenantID:    tenantID,
			CustomerID:  body.CustomerID,
			Type:        models.FinanceEntryType(body.Type),
			Amount:      body.Amount,
			Description: strings.TrimSpace(body.Description),
			DueDate:     d,
		}

		if err := database.DB.Create(&entry).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível gravar o lançamento")
		}

		userID, userName, _, uerr := getUserInfo(c)
		if uerr == nil {
			typeLabel := "A receber"
			if entry.Type == models.FinanceTypePayable {
				typeLabel = "A pagar"
			}
			if logErr := audit.WriteLog(audit.LogOptions{
				TenantID:    &entry.TenantID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "finance_entry",
				EntityID:    entry.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("%s: R$ %.2f - %s", typeLabel, entry.Amount, entry.Description),
				After:       toEntryResponse(&entry),
			}); logErr != nil {
				fmt.Printf("Não foi possível gravar o audit log: %v\n", logErr)
			}
		}

		return c.Status(fiber.StatusCreated).JSON(toEntryResponse(&entry))
	}
}

// GET /api/finance-entries?type=receivable&customer_id=1&from=2025-12-01&to=2025-12-31
func ListFinanceEntriesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := resolveTenantIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Preload("Payments").Preload("Customer").Where("tenant_id = ?", tenantID)

		if typeStr := c.Query("type"); typeStr != "" {
			if typeStr != string(models.FinanceTypeReceivable) && typeStr != string(models.FinanceTypePayable) {
				return fiber.NewError(fiber.StatusBadRequest, "type deve ser 'receivable' ou 'payable'")
			}
			dbq = dbq.Where("type = ?", typeStr)
		}
		if cidStr := c.Query("customer_id"); cidStr != "" {
			var cid uint
			if _, err := fmt.Sscan(cidStr, &cid); err != nil || cid == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "customer_id inválido")
			}
			dbq = dbq.Where("customer_id = ?", cid)
		}
		if fromStr := c.Query("from"); fromStr != "" {
			from, err := time.Parse("2006-01-02", fromStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Data 'from' inválida")
			}
			dbq = dbq.Where("due_date >= ?", from)
		}
		if toStr := c.Query("to"); toStr != "" {
			to, err := time.Parse("2006-01-02", toStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Data 'to' inválida")
			}
			dbq = dbq.Where("due_date <= ?", to)
		}

		var entries []models.FinanceEntry
		if err := dbq.Order("due_date asc, id asc").Find(&entries).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível listar os lançamentos")
		}

		resp := make([]FinanceEntryResponse, 0, len(entries))
		for i := range entries {
			resp = append(resp, toEntryResponse(&entries[i]))
		}
		return c.JSON(resp)
	}
}

// PUT /api/finance-entries/:id
func UpdateFinanceEntryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := resolveTenantIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "id inválido")
		}

		var body UpdateFinanceEntryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Dados inválidos")
		}

		var entry models.FinanceEntry
		if err := database.DB.Preload("Payments").Preload("Customer").
			Where("tenant_id = ? AND id = ?", tenantID, id).First(&entry).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Lançamento não encontrado")
		}

		before := toEntryResponse(&entry)

		if body.Type != nil {
			if *body.Type != string(models.FinanceTypeReceivable) && *body.Type != string(models.FinanceTypePayable) {
				return fiber.NewError(fiber.StatusBadRequest, "type deve ser 'receivable' ou 'payable'")
			}
			entry.Type = models.FinanceEntryType(*body.Type)
		}
		if body.Amount != nil {
			if *body.Amount <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "amount deve ser maior que 0")
			}
			entry.Amount = *body.Amount
		}
		if body.Description != nil {
			if strings.TrimSpace(*body.Description) == "" {
				return fiber.NewError(fiber.StatusBadRequest, "description não pode ser vazia")
			}
			entry.Description = strings.TrimSpace(*body.Description)
		}
		if body.DueDate != nil {
			d, err := time.Parse("2006-01-02", *body.DueDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Formato de data inválido, use 'AAAA-MM-DD'")
			}
			entry.DueDate = d
		}

		if err := database.DB.Save(&entry).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível atualizar o lançamento")
		}

		userID, userName, _, uerr := getUserInfo(c)
		if uerr == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				TenantID:    &entry.TenantID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "finance_entry",
				EntityID:    entry.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Lançamento %d atualizado", entry.ID),
				Before:      before,
				After:       toEntryResponse(&entry),
			}); logErr != nil {
				fmt.Printf("Não foi possível gravar o audit log: %v\n", logErr)
			}
		}

		return c.JSON(toEntryResponse(&entry))
	}
}

// -------------------------
// Baixas
// -------------------------

// POST /api/finance-payments
func CreateFinancePaymentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateFinancePaymentRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Dados inválidos")
		}

		if body.Amount <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "amount deve ser maior que 0")
		}
		if body.FinanceEntryID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "finance_entry_id obrigatório")
		}

		tenantID, err := resolveTenantIDFromBodyOrRole(c, body.TenantID)
		if err != nil {
			return err
		}

		var entry models.FinanceEntry
		if err := database.DB.Where("tenant_id = ? AND id = ?", tenantID, body.FinanceEntryID).First(&entry).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Lançamento não encontrado")
		}

		d, err := time.Parse("2006-01-02", body.PaymentDate)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Formato de data inválido, use 'AAAA-MM-DD'")
		}

		pay := models.FinancePayment{
			TenantID:       tenantID,
			FinanceEntryID: entry.ID,
			Amount:         body.Amount,
			PaymentDate:    d,
			Description:    strings.TrimSpace(body.Description),
		}

		if err := database.DB.Create(&pay).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível registrar a baixa")
		}

		return c.Status(fiber.StatusCreated).JSON(FinancePaymentResponse{
			ID:             pay.ID,
			TenantID:       pay.TenantID,
			FinanceEntryID: pay.FinanceEntryID,
			Amount:         pay.Amount,
			PaymentDate:    pay.PaymentDate.Format("2006-01-02"),
			Description:    pay.Description,
			CreatedAt:      pay.CreatedAt.Format(time.RFC3339),
		})
	}
}

// GET /api/finance-payments?entry_id=1
func ListFinancePaymentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := resolveTenantIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Where("tenant_id = ?", tenantID)
		if eidStr := c.Query("entry_id"); eidStr != "" {
			var eid uint
			if _, err := fmt.Sscan(eidStr, &eid); err != nil || eid == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "entry_id inválido")
			}
			dbq = dbq.Where("finance_entry_id = ?", eid)
		}

		var payments []models.FinancePayment
		if err := dbq.Order("payment_date asc, id asc").Find(&payments).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível listar as baixas")
		}

		resp := make([]FinancePaymentResponse, 0, len(payments))
		for _, p := range payments {
			resp = append(resp, FinancePaymentResponse{
				ID:             p.ID,
				TenantID:       p.TenantID,
				FinanceEntryID: p.FinanceEntryID,
				Amount:         p.Amount,
				PaymentDate:    p.PaymentDate.Format("2006-01-02"),
				Description:    p.Description,
				CreatedAt:      p.CreatedAt.Format(time.RFC3339),
			})
		}
		return c.JSON(resp)
	}
}
