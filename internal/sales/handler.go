package sales

import (
	"fmt"
	"math"
	"time"

	"pdv-backend/internal/audit"
	"pdv-backend/internal/auth"
	"pdv-backend/internal/database"
	"pdv-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type PaymentLine struct {
	Method models.PaymentMethod `json:"method"` // "cash" | "credit" | "debit" | "pix"
	Amount float64              `json:"amount"`
}

type CreateSaleRequest struct {
	SessionID uint          `json:"session_id"`
	Total     float64       `json:"total"`
	Note      string        `json:"note"`
	Payments  []PaymentLine `json:"payments"`
	TenantID  *uint         `json:"tenant_id"`
}

type SaleResponse struct {
	ID        uint          `json:"id"`
	TenantID  uint          `json:"tenant_id"`
	SessionID uint          `json:"session_id"`
	Total     float64       `json:"total"`
	Note      string        `json:"note"`
	Payments  []PaymentLine `json:"payments"`
	CreatedAt string        `json:"created_at"`
}

type DailySummaryItem struct {
	Method models.PaymentMethod `json:"method"`
	Total  float64              `json:"total"`
}

type DailySummaryResponse struct {
	TenantID   uint               `json:"tenant_id"`
	Date       string             `json:"date"`
	Items      []DailySummaryItem `json:"items"`
	GrandTotal float64            `json:"grand_total"`
}

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

func validMethod(m models.PaymentMethod) bool {
	switch m {
	case models.PaymentMethodCash, models.PaymentMethodCredit, models.PaymentMethodDebit, models.PaymentMethodPix:
		return true
	}
	return false
}

func toSaleResponse(s *models.Sale) SaleResponse {
	payments := make([]PaymentLine, 0, len(s.Payments))
	for _, p := range s.Payments {
		payments = append(payments, PaymentLine{Method: p.Method, Amount: p.Amount})
	}
	return SaleResponse{
		ID:        s.ID,
		TenantID:  s.TenantID,
		SessionID: s.SessionID,
		Total:     s.Total,
		Note:      s.Note,
		Payments:  payments,
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
	}
}

// -------------------------------------------------
// POST /api/sales
// Venda com pagamento dividido: a soma das linhas precisa fechar com o
// total no momento da criação (depois disso a conferência não revalida).
// -------------------------------------------------
func CreateSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateSaleRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido")
		}

		if body.Total <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Total deve ser maior que 0")
		}
		if body.SessionID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "session_id obrigatório")
		}
		if len(body.Payments) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Informe ao menos uma forma de pagamento")
		}

		var paymentsSum float64
		for _, p := range body.Payments {
			if !validMethod(p.Method) {
				return fiber.NewError(fiber.StatusBadRequest, "Forma de pagamento inválida (cash|credit|debit|pix)")
			}
			if p.Amount <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Valor de pagamento deve ser maior que 0")
			}
			paymentsSum += p.Amount
		}
		if math.Abs(paymentsSum-body.Total) > 0.005 {
			return fiber.NewError(fiber.StatusBadRequest, "A soma dos pagamentos não fecha com o total da venda")
		}

		tenantID, err := resolveTenantIDFromBodyOrRole(c, body.TenantID)
		if err != nil {
			return err
		}

		var sess models.CashSession
		if err := database.DB.Where("tenant_id = ? AND id = ?", tenantID, body.SessionID).First(&sess).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sessão de caixa não encontrada")
		}
		if sess.Status != models.SessionStatusOpen {
			return fiber.NewError(fiber.StatusConflict, "Venda só pode ser lançada com o caixa aberto")
		}

		sale := models.Sale{
			TenantID:  tenantID,
			SessionID: sess.ID,
			Total:     body.Total,
			Note:      body.Note,
		}
		for _, p := range body.Payments {
			sale.Payments = append(sale.Payments, models.PaymentEntry{
				TenantID: tenantID,
				Method:   p.Method,
				Amount:   p.Amount,
			})
		}

		if err := database.DB.Create(&sale).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível registrar a venda")
		}

		userID, userName, _, uerr := getUserInfo(c)
		if uerr == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				TenantID:    &sale.TenantID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "sale",
				EntityID:    sale.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Venda de R$ %.2f registrada", sale.Total),
				After:       toSaleResponse(&sale),
			}); logErr != nil {
				fmt.Printf("Não foi possível gravar o audit log: %v\n", logErr)
			}
		}

		return c.Status(fiber.StatusCreated).JSON(toSaleResponse(&sale))
	}
}

// -------------------------------------------------
// GET /api/sales?session_id=1&from=2025-12-01&to=2025-12-31
// -------------------------------------------------
func ListSalesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := resolveTenantIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Preload("Payments").Where("tenant_id = ?", tenantID)

		if sidStr := c.Query("session_id"); sidStr != "" {
			var sid uint
			if _, err := fmt.Sscan(sidStr, &sid); err != nil || sid == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "session_id inválido")
			}
			dbq = dbq.Where("session_id = ?", sid)
		}
		if fromStr := c.Query("from"); fromStr != "" {
			from, err := time.Parse("2006-01-02", fromStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Data 'from' inválida")
			}
			dbq = dbq.Where("created_at >= ?", from)
		}
		if toStr := c.Query("to"); toStr != "" {
			to, err := time.Parse("2006-01-02", toStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Data 'to' inválida")
			}
			dbq = dbq.Where("created_at < ?", to.AddDate(0, 0, 1))
		}

		var salesList []models.Sale
		if err := dbq.Order("created_at asc, id asc").Find(&salesList).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível listar as vendas")
		}

		resp := make([]SaleResponse, 0, len(salesList))
		for i := range salesList {
			resp = append(resp, toSaleResponse(&salesList[i]))
		}
		return c.JSON(resp)
	}
}

// -------------------------------------------------
// GET /api/sales/summary/daily?date=2025-12-09
// Soma por forma de pagamento no dia
// -------------------------------------------------
func DailySummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := resolveTenantIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		dateStr := c.Query("date")
		if dateStr == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Parâmetro 'date' obrigatório")
		}
		day, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Formato de data inválido, use 'AAAA-MM-DD'")
		}
		dayEnd := day.AddDate(0, 0, 1)

		type row struct {
			Method string  `gorm:"column:method"`
			Total  float64 `gorm:"column:total"`
		}
		var rows []row

		if err := database.DB.Model(&models.PaymentEntry{}).
			Select("payment_entries.method, SUM(payment_entries.amount) as total").
			Joins("JOIN sales ON sales.id = payment_entries.sale_id").
			Where("payment_entries.tenant_id = ? AND sales.created_at >= ? AND sales.created_at < ?", tenantID, day, dayEnd).
			Group("payment_entries.method").
			Scan(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível calcular o resumo")
		}

		resp := DailySummaryResponse{
			TenantID: tenantID,
			Date:     dateStr,
			Items:    make([]DailySummaryItem, 0, len(rows)),
		}
		for _, r := range rows {
			resp.Items = append(resp.Items, DailySummaryItem{
				Method: models.PaymentMethod(r.Method),
				Total:  r.Total,
			})
			resp.GrandTotal += r.Total
		}

		return c.JSON(resp)
	}
}
