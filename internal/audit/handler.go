package audit

import (
	"fmt"
	"time"

	"pdv-backend/internal/auth"
	"pdv-backend/internal/database"
	"pdv-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// -------------------------------------------------
// GET /api/audit-logs?entity_type=sale&from=2025-12-01&to=2025-12-31&limit=50
// reseller_admin vê qualquer tenant (?tenant_id=), os demais só o próprio
// -------------------------------------------------
func ListAuditLogsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		roleVal := c.Locals(auth.CtxUserRoleKey)
		role, ok := roleVal.(models.UserRole)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "Não foi possível obter o papel do usuário")
		}

		dbq := database.DB.Model(&models.AuditLog{})

		if role != models.RoleResellerAdmin {
			tVal := c.Locals(auth.CtxTenantIDKey)
			tPtr, ok := tVal.(*uint)
			if !ok || tPtr == nil {
				return fiber.NewError(fiber.StatusForbidden, "Tenant não encontrado no token")
			}
			dbq = dbq.Where("tenant_id = ?", *tPtr)
		} else if tidStr := c.Query("tenant_id"); tidStr != "" {
			var tid uint
			if _, err := fmt.Sscan(tidStr, &tid); err != nil || tid == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "tenant_id inválido")
			}
			dbq = dbq.Where("tenant_id = ?", tid)
		}

		if et := c.Query("entity_type"); et != "" {
			dbq = dbq.Where("entity_type = ?", et)
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

		limit := 100
		if lStr := c.Query("limit"); lStr != "" {
			var l int
			if _, err := fmt.Sscan(lStr, &l); err != nil || l <= 0 || l > 500 {
				return fiber.NewError(fiber.StatusBadRequest, "limit inválido (1-500)")
			}
			limit = l
		}

		var logs []models.AuditLog
		if err := dbq.Order("created_at desc, id desc").Limit(limit).Find(&logs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível listar os logs")
		}

		return c.JSON(logs)
	}
}
