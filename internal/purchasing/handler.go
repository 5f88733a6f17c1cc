package purchasing

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

type SupplierRequest struct {
	Name     string `json:"name"`
	Document string `json:"document"`
	Phone    string `json:"phone"`
	TenantID *uint  `json:"tenant_id"`
}

type SupplierResponse struct {
	ID       uint   `json:"id"`
	TenantID uint   `json:"tenant_id"`
	Name     string `json:"name"`
	Document string `json:"document"`
	Phone    string `json:"phone"`
}

type CreatePurchaseRequest struct {
	SupplierID  uint    `json:"supplier_id"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Date        string  `json:"date"` // "2025-12-09"
	TenantID    *uint   `json:"tenant_id"`
}

type PurchaseResponse struct {
	ID          uint    `json:"id"`
	TenantID    uint    `json:"tenant_id"`
	SupplierID  uint    `json:"supplier_id"`
	Supplier    string  `json:"supplier,omitempty"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
	TotalPaid   float64 `json:"total_paid"`
	Remaining   float64 `json:"remaining"`
}

type CreatePurchasePaymentRequest struct {
	PurchaseID  uint    `json:"purchase_id"`
	Amount      float64 `json:"amount"`
	PaymentDate string  `json:"payment_date"`
	Description string  `json:"description"`
	TenantID    *uint   `json:"tenant_id"`
}

type SupplierBalanceResponse struct {
	TenantID       uint    `json:"tenant_id"`
	SupplierID     uint    `json:"supplier_id"`
	TotalPurchases float64 `json:"total_purchases"`
	TotalPayments  float64 `json:"total_payments"`
	RemainingDebt  float64 `json:"remaining_debt"`
}

// -------------------------
// Auxiliares
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

// -------------------------
// Fornecedores
// -------------------------

// POST /api/suppliers
func CreateSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SupplierRequest
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

		sup := models.Supplier{
			TenantID: tenantID,
			Name:     strings.TrimSpace(body.Name),
			Document: strings.TrimSpace(body.Document),
			Phone:    strings.TrimSpace(body.Phone),
		}

		if err := database.DB.Create(&sup).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível criar o fornecedor")
		}

		return c.Status(fiber.StatusCreated).JSON(SupplierResponse{
			ID: sup.ID, TenantID: sup.TenantID, Name: sup.Name, Document: sup.Document, Phone: sup.Phone,
		})
	}
}

// GET /api/suppliers
func ListSuppliersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := resolveTenantIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		var suppliers []models.Supplier
		if err := database.DB.Where("tenant_id = ?", tenantID).Order("name asc").Find(&suppliers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível listar os fornecedores")
		}

		resp := make([]SupplierResponse, 0, len(suppliers))
		for _, s := range suppliers {
			resp = append(resp, SupplierResponse{
				ID: s.ID, TenantID: s.TenantID, Name: s.Name, Document: s.Document, Phone: s.Phone,
			})
		}
		return c.JSON(resp)
	}
}

// -------------------------
// Compras
// -------------------------

// POST /api/purchases
func CreatePurchaseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreatePurchaseRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido")
		}

		if body.Amount <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Valor deve ser maior que 0")
		}
		if body.SupplierID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "supplier_id obrigatório")
		}

		tenantID, err := resolveTenantIDFromBodyOrRole(c, body.TenantID)
		if err != nil {
			return err
		}

		var sup models.Supplier
		if err := database.DB.Where("tenant_id = ? AND id = ?", tenantID, body.SupplierID).First(&sup).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Fornecedor não encontrado")
		}

		d, err := time.Parse("2006-01-02", body.Date)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Formato de data inválido, use 'AAAA-MM-DD'")
		}

		p := models.Purchase{
			TenantID:    tenantID,
			SupplierID:  sup.ID,
			Amount:      body.Amount,
			Description: strings.TrimSpace(body.Description),
			Date:        d,
		}

		if err := database.DB.Create(&p).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível registrar a compra")
		}

		userID, userName, _, uerr := getUserInfo(c)
		if uerr == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				TenantID:    &p.TenantID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "purchase",
				EntityID:    p.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Compra de R$ %.2f de %s", p.Amount, sup.Name),
				After: map[string]interface{}{
					"id":          p.ID,
					"tenant_id":   p.TenantID,
					"supplier_id": p.SupplierID,
					"amount":      p.Amount,
					"description": p.Description,
					"date":        p.Date.Format("2006-01-02"),
				},
			}); logErr != nil {
				fmt.Printf("Não foi possível gravar o audit log: %v\n", logErr)
			}
		}

		return c.Status(fiber.StatusCreated).JSON(PurchaseResponse{
			ID:          p.ID,
			TenantID:    p.TenantID,
			SupplierID:  p.SupplierID,
			Supplier:    sup.Name,
			Amount:      p.Amount,
			Description: p.Description,
			Date:        p.Date.Format("2006-01-02"),
			Remaining:   p.Amount,
		})
	}
}

// GET /api/purchases?supplier_id=1&from=2025-12-01&to=2025-12-31
func ListPurchasesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := resolveTenantIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Preload("Supplier").Preload("Payments").Where("tenant_id = ?", tenantID)

		if sidStr := c.Query("supplier_id"); sidStr != "" {
			var sid uint
			if _, err := fmt.Sscan(sidStr, &sid); err != nil || sid == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "supplier_id inválido")
			}
			dbq = dbq.Where("supplier_id = ?", sid)
		}
		if fromStr := c.Query("from"); fromStr != "" {
			from, err := time.Parse("2006-01-02", fromStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Data 'from' inválida")
			}
			dbq = dbq.Where("date >= ?", from)
		}
		if toStr := c.Query("to"); toStr != "" {
			to, err := time.Parse("2006-01-02", toStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Data 'to' inválida")
			}
			dbq = dbq.Where("date <= ?", to)
		}

		var purchases []models.Purchase
		if err := dbq.Order("date asc, id asc").Find(&purchases).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível listar as compras")
		}

		resp := make([]PurchaseResponse, 0, len(purchases))
		for _, p := range purchases {
			var paid float64
			for _, pay := range p.Payments {
				paid += pay.Amount
			}
			resp = append(resp, PurchaseResponse{
				ID:          p.ID,
				TenantID:    p.TenantID,
				SupplierID:  p.SupplierID,
				Supplier:    p.Supplier.Name,
				Amount:      p.Amount,
				Description: p.Description,
				Date:        p.Date.Format("2006-01-02"),
				TotalPaid:   paid,
				Remaining:   p.Amount - paid,
			})
		}
		return c.JSON(resp)
	}
}

// -------------------------
// Pagamentos de compras
// -------------------------

// POST /api/purchase-payments
func CreatePurchasePaymentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreatePurchasePaymentRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido")
		}

		if body.Amount <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Valor deve ser maior que 0")
		}
		if body.PurchaseID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "purchase_id obrigatório")
		}

		tenantID, err := resolveTenantIDFromBodyOrRole(c, body.TenantID)
		if err != nil {
			return err
		}

		var p models.Purchase
		if err := database.DB.Where("tenant_id = ? AND id = ?", tenantID, body.PurchaseID).First(&p).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Compra não encontrada")
		}

		d, err := time.Parse("2006-01-02", body.PaymentDate)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Formato de data inválido, use 'AAAA-MM-DD'")
		}

		pay := models.PurchasePayment{
			TenantID:    tenantID,
			PurchaseID:  p.ID,
			Amount:      body.Amount,
			PaymentDate: d,
			Description: strings.TrimSpace(body.Description),
		}

		if err := database.DB.Create(&pay).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível registrar o pagamento")
		}

		return c.Status(fiber.StatusCreated).JSON(pay)
	}
}

// GET /api/purchase-payments?purchase_id=1
func ListPurchasePaymentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := resolveTenantIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Where("tenant_id = ?", tenantID)
		if pidStr := c.Query("purchase_id"); pidStr != "" {
			var pid uint
			if _, err := fmt.Sscan(pidStr, &pid); err != nil || pid == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "purchase_id inválido")
			}
			dbq = dbq.Where("purchase_id = ?", pid)
		}

		var payments []models.PurchasePayment
		if err := dbq.Order("payment_date asc, id asc").Find(&payments).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível listar os pagamentos")
		}
		return c.JSON(payments)
	}
}

// -------------------------------------------------
// GET /api/purchases/balance?supplier_id=1
// Saldo devedor: compras menos pagamentos
// -------------------------------------------------
func SupplierBalanceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := resolveTenantIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		var supplierID uint
		if sidStr := c.Query("supplier_id"); sidStr != "" {
			if _, err := fmt.Sscan(sidStr, &supplierID); err != nil || supplierID == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "supplier_id inválido")
			}
		}

		purchaseQ := database.DB.Model(&models.Purchase{}).Where("tenant_id = ?", tenantID)
		paymentQ := database.DB.Model(&models.PurchasePayment{}).
			Joins("JOIN purchases ON purchases.id = purchase_payments.purchase_id").
			Where("purchase_payments.tenant_id = ?", tenantID)
		if supplierID != 0 {
			purchaseQ = purchaseQ.Where("supplier_id = ?", supplierID)
			paymentQ = paymentQ.Where("purchases.supplier_id = ?", supplierID)
		}

		var totalPurchases float64
		if err := purchaseQ.Select("COALESCE(SUM(amount), 0)").Scan(&totalPurchases).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível somar as compras")
		}

		var totalPayments float64
		if err := paymentQ.Select("COALESCE(SUM(purchase_payments.amount), 0)").Scan(&totalPayments).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível somar os pagamentos")
		}

		return c.JSON(SupplierBalanceResponse{
			TenantID:       tenantID,
			SupplierID:     supplierID,
			TotalPurchases: totalPurchases,
			TotalPayments:  totalPayments,
			RemainingDebt:  totalPurchases - totalPayments,
		})
	}
}
