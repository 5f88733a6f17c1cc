package register

import (
	"fmt"
	"strconv"
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

type OpenSessionRequest struct {
	OpeningAmount float64 `json:"opening_amount"` // fundo de troco
	Notes         string  `json:"notes"`
	// reseller_admin precisa informar:
	TenantID *uint `json:"tenant_id"`
}

type CloseSessionRequest struct {
	CountedAmount *float64 `json:"counted_amount"` // valor contado na gaveta
	Notes         *string  `json:"notes"`
}

type SessionResponse struct {
	ID            uint     `json:"id"`
	TenantID      uint     `json:"tenant_id"`
	OpeningAmount float64  `json:"opening_amount"`
	OpenedAt      string   `json:"opened_at"`
	ClosingAmount *float64 `json:"closing_amount"`
	ClosedAt      *string  `json:"closed_at"`
	Notes         string   `json:"notes"`
	Status        string   `json:"status"`
}

type CreateWithdrawalRequest struct {
	SessionID uint    `json:"session_id"`
	Amount    float64 `json:"amount"`
	Reason    string  `json:"reason"`
	TenantID  *uint   `json:"tenant_id"`
}

type WithdrawalResponse struct {
	ID        uint    `json:"id"`
	TenantID  uint    `json:"tenant_id"`
	SessionID uint    `json:"session_id"`
	Amount    float64 `json:"amount"`
	Reason    string  `json:"reason"`
	CreatedAt string  `json:"created_at"`
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

// tenant_id do body + papel
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

	// reseller_admin
	if bodyTenantID == nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "tenant_id obrigatório")
	}
	return *bodyTenantID, nil
}

// tenant_id da query + papel
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

	// reseller_admin
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

func toSessionResponse(s *models.CashSession) SessionResponse {
	resp := SessionResponse{
		ID:            s.ID,
		TenantID:      s.TenantID,
		OpeningAmount: s.OpeningAmount,
		OpenedAt:      s.OpenedAt.Format(time.RFC3339),
		ClosingAmount: s.ClosingAmount,
		Notes:         s.Notes,
		Status:        string(s.Status),
	}
	if s.ClosedAt != nil {
		ts := s.ClosedAt.Format(time.RFC3339)
		resp.ClosedAt = &ts
	}
	return resp
}

// -------------------------------------------------
// POST /api/cash-sessions
// -------------------------------------------------
func OpenSessionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body OpenSessionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido")
		}

		if body.OpeningAmount < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Fundo de troco não pode ser negativo")
		}

		tenantID, err := resolveTenantIDFromBodyOrRole(c, body.TenantID)
		if err != nil {
			return err
		}

		// Um caixa aberto por vez
		var openCount int64
		database.DB.Model(&models.CashSession{}).
			Where("tenant_id = ? AND status = ?", tenantID, models.SessionStatusOpen).
			Count(&openCount)
		if openCount > 0 {
			return fiber.NewError(fiber.StatusConflict, "Já existe um caixa aberto")
		}

		// OpenedByID precisa do usuário real; sem ele não abre caixa
		userID, userName, _, err := getUserInfo(c)
		if err != nil {
			return err
		}

		sess := models.CashSession{
			TenantID:      tenantID,
			OpeningAmount: body.OpeningAmount,
			OpenedAt:      time.Now(),
			Notes:         body.Notes,
			Status:        models.SessionStatusOpen,
			OpenedByID:    userID,
		}

		if err := database.DB.Create(&sess).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível abrir o caixa")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			TenantID:    &sess.TenantID,
			UserID:      userID,
			UserName:    userName,
			EntityType:  "cash_session",
			EntityID:    sess.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Caixa aberto com fundo de R$ %.2f", sess.OpeningAmount),
			After:       toSessionResponse(&sess),
		}); logErr != nil {
			fmt.Printf("Não foi possível gravar o audit log: %v\n", logErr)
		}

		return c.Status(fiber.StatusCreated).JSON(toSessionResponse(&sess))
	}
}

// -------------------------------------------------
// GET /api/cash-sessions?status=open&from=2025-12-01&to=2025-12-31
// -------------------------------------------------
func ListSessionsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := resolveTenantIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Model(&models.CashSession{}).Where("tenant_id = ?", tenantID)

		if statusStr := c.Query("status"); statusStr != "" {
			dbq = dbq.Where("status = ?", statusStr)
		}
		if fromStr := c.Query("from"); fromStr != "" {
			from, err := time.Parse("2006-01-02", fromStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Data 'from' inválida")
			}
			dbq = dbq.Where("opened_at >= ?", from)
		}
		if toStr := c.Query("to"); toStr != "" {
			to, err := time.Parse("2006-01-02", toStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Data 'to' inválida")
			}
			dbq = dbq.Where("opened_at < ?", to.AddDate(0, 0, 1))
		}

		var sessions []models.CashSession
		if err := dbq.Order("opened_at desc, id desc").Find(&sessions).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível listar as sessões")
		}

		resp := make([]SessionResponse, 0, len(sessions))
		for i := range sessions {
			resp = append(resp, toSessionResponse(&sessions[i]))
		}

		return c.JSON(resp)
	}
}

// -------------------------------------------------
// GET /api/cash-sessions/:id/reconciliation?counted=150.00
// Somente leitura: calcula a conferência sem fechar o caixa.
// -------------------------------------------------
func ReconciliationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := resolveTenantIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		sessionID, err := c.ParamsInt("id")
		if err != nil || sessionID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "id da sessão inválido")
		}

		countedStr := c.Query("counted")
		if countedStr == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Parâmetro 'counted' obrigatório")
		}
		counted, err := strconv.ParseFloat(countedStr, 64)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Parâmetro 'counted' inválido")
		}

		result, err := Reconcile(c.Context(), NewGormSource(database.DB), tenantID, uint(sessionID), counted)
		if err != nil {
			if err == ErrSessionNotFound {
				return fiber.NewError(fiber.StatusNotFound, "Sessão de caixa não encontrada")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível calcular a conferência")
		}

		return c.JSON(result)
	}
}

// -------------------------------------------------
// POST /api/cash-sessions/:id/close
// Refaz a conferência no servidor e persiste o valor contado, para que o
// resultado devolvido e o que ficou gravado sempre batam.
// -------------------------------------------------
func CloseSessionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := resolveTenantIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		sessionID, err := c.ParamsInt("id")
		if err != nil || sessionID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "id da sessão inválido")
		}

		var body CloseSessionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido")
		}
		if body.CountedAmount == nil {
			return fiber.NewError(fiber.StatusBadRequest, "counted_amount obrigatório")
		}

		var sess models.CashSession
		if err := database.DB.Where("tenant_id = ? AND id = ?", tenantID, sessionID).First(&sess).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sessão de caixa não encontrada")
		}
		if sess.Status == models.SessionStatusClosed {
			return fiber.NewError(fiber.StatusConflict, "Caixa já está fechado")
		}

		result, err := Reconcile(c.Context(), NewGormSource(database.DB), tenantID, sess.ID, *body.CountedAmount)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível calcular a conferência")
		}

		before := toSessionResponse(&sess)

		now := time.Now()
		sess.ClosingAmount = body.CountedAmount
		sess.ClosedAt = &now
		sess.Status = models.SessionStatusClosed
		if body.Notes != nil {
			sess.Notes = *body.Notes
		}

		if err := database.DB.Save(&sess).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível fechar o caixa")
		}

		userID, userName, _, err := getUserInfo(c)
		if err == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				TenantID:    &sess.TenantID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "cash_session",
				EntityID:    sess.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Caixa fechado: contado R$ %.2f, diferença R$ %.2f", result.CountedAmount, result.Variance),
				Before:      before,
				After:       toSessionResponse(&sess),
			}); logErr != nil {
				fmt.Printf("Não foi possível gravar o audit log: %v\n", logErr)
			}
		}

		return c.JSON(fiber.Map{
			"session":        toSessionResponse(&sess),
			"reconciliation": result,
		})
	}
}

// -------------------------------------------------
// POST /api/cash-withdrawals
// -------------------------------------------------
func CreateWithdrawalHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateWithdrawalRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido")
		}

		if body.Amount <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Valor deve ser maior que 0")
		}
		if body.SessionID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "session_id obrigatório")
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
			return fiber.NewError(fiber.StatusConflict, "Sangria só pode ser feita com o caixa aberto")
		}

		w := models.CashWithdrawal{
			TenantID:  tenantID,
			SessionID: sess.ID,
			Amount:    body.Amount,
			Reason:    body.Reason,
		}

		if err := database.DB.Create(&w).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível registrar a sangria")
		}

		userID, userName, _, err := getUserInfo(c)
		if err == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				TenantID:    &w.TenantID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "cash_withdrawal",
				EntityID:    w.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Sangria de R$ %.2f", w.Amount),
				After: map[string]interface{}{
					"id":         w.ID,
					"tenant_id":  w.TenantID,
					"session_id": w.SessionID,
					"amount":     w.Amount,
					"reason":     w.Reason,
				},
			}); logErr != nil {
				fmt.Printf("Não foi possível gravar o audit log: %v\n", logErr)
			}
		}

		return c.Status(fiber.StatusCreated).JSON(WithdrawalResponse{
			ID:        w.ID,
			TenantID:  w.TenantID,
			SessionID: w.SessionID,
			Amount:    w.Amount,
			Reason:    w.Reason,
			CreatedAt: w.CreatedAt.Format(time.RFC3339),
		})
	}
}

// -------------------------------------------------
// GET /api/cash-withdrawals?session_id=1
// -------------------------------------------------
func ListWithdrawalsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := resolveTenantIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Model(&models.CashWithdrawal{}).Where("tenant_id = ?", tenantID)

		if sidStr := c.Query("session_id"); sidStr != "" {
			var sid uint
			if _, err := fmt.Sscan(sidStr, &sid); err != nil || sid == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "session_id inválido")
			}
			dbq = dbq.Where("session_id = ?", sid)
		}

		var withdrawals []models.CashWithdrawal
		if err := dbq.Order("created_at asc, id asc").Find(&withdrawals).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível listar as sangrias")
		}

		resp := make([]WithdrawalResponse, 0, len(withdrawals))
		for _, w := range withdrawals {
			resp = append(resp, WithdrawalResponse{
				ID:        w.ID,
				TenantID:  w.TenantID,
				SessionID: w.SessionID,
				Amount:    w.Amount,
				Reason:    w.Reason,
				CreatedAt: w.CreatedAt.Format(time.RFC3339),
			})
		}

		return c.JSON(resp)
	}
}
