package dashboard

import (
	"fmt"
	"time"

	"pdv-backend/internal/auth"
	"pdv-backend/internal/database"
	"pdv-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type SalesChartPoint struct {
	Label  string  `json:"label"` // data / início da semana / início do mês
	Cash   float64 `json:"cash"`
	Credit float64 `json:"credit"`
	Debit  float64 `json:"debit"`
	Pix    float64 `json:"pix"`
	Total  float64 `json:"total"`
}

type SalesChartGrandTotals struct {
	Cash   float64 `json:"cash"`
	Credit float64 `json:"credit"`
	Debit  float64 `json:"debit"`
	Pix    float64 `json:"pix"`
	Total  float64 `json:"total"`
}

type SalesChartResponse struct {
	TenantID    uint                  `json:"tenant_id"`
	Period      string                `json:"period"` // daily | weekly | monthly
	From        string                `json:"from"`
	To          string                `json:"to"`
	Points      []SalesChartPoint     `json:"points"`
	GrandTotals SalesChartGrandTotals `json:"grand_totals"`
}

// extrai o tenant do contexto (tenant_admin/operator pelo JWT, reseller_admin
// pelo query param). Para reseller_admin ?tenant_id=1 é obrigatório.
func getTenantIDFromContext(c *fiber.Ctx) (uint, error) {
	roleVal := c.Locals(auth.CtxUserRoleKey)
	role, ok := roleVal.(models.UserRole)
	if !ok {
		return 0, fiber.NewError(fiber.StatusForbidden, "Não foi possível obter o papel do usuário")
	}

	if role != models.RoleResellerAdmin {
		tenantIDVal := c.Locals(auth.CtxTenantIDKey)
		tenantIDPtr, ok := tenantIDVal.(*uint)
		if !ok || tenantIDPtr == nil {
			return 0, fiber.NewError(fiber.StatusForbidden, "Tenant não encontrado no token")
		}
		return *tenantIDPtr, nil
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

// GET /api/dashboard/sales-chart?period=daily&count=7&tenant_id=1
func SalesChartHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := getTenantIDFromContext(c)
		if err != nil {
			return err
		}

		period := c.Query("period", "daily") // daily | weekly | monthly
		countStr := c.Query("count", "")

		var count int
		if countStr == "" {
			switch period {
			case "weekly":
				count = 8
			case "monthly":
				count = 12
			default:
				period = "daily"
				count = 7
			}
		} else {
			if _, err := fmt.Sscan(countStr, &count); err != nil || count <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "count inválido")
			}
		}

		now := time.Now()
		loc := now.Location()
		// 00:00 de hoje
		end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
		var start time.Time

		switch period {
		case "weekly":
			// count semanas para trás
			days := 7 * (count - 1)
			start = end.AddDate(0, 0, -days)
		case "monthly":
			// a partir do início dos meses envolvidos
			end = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
			start = end.AddDate(0, -(count - 1), 0)
		default:
			// daily
			period = "daily"
			start = end.AddDate(0, 0, -(count - 1))
		}

		// linha do resultado da agregação
		type row struct {
			Bucket time.Time `gorm:"column:bucket"`
			Method string    `gorm:"column:method"`
			Total  float64   `gorm:"column:total"`
		}
		var rows []row

		var sql string
		switch period {
		case "weekly":
			sql = `
				SELECT date_trunc('week', s.created_at)::date AS bucket,
					   p.method,
					   SUM(p.amount) AS total
				FROM payment_entries p
				JOIN sales s ON s.id = p.sale_id
				WHERE s.tenant_id = ? AND s.created_at >= ? AND s.created_at < ?
				GROUP BY bucket, p.method
				ORDER BY bucket ASC;
			`
			end = end.AddDate(0, 0, 1)
		case "monthly":
			sql = `
				SELECT date_trunc('month', s.created_at)::date AS bucket,
					   p.method,
					   SUM(p.amount) AS total
				FROM payment_entries p
				JOIN sales s ON s.id = p.sale_id
				WHERE s.tenant_id = ? AND s.created_at >= ? AND s.created_at < ?
				GROUP BY bucket, p.method
				ORDER BY bucket ASC;
			`
			// para monthly, end = start + count meses
			end = start.AddDate(0, count, 0)
		default: // daily
			sql = `
				SELECT s.created_at::date AS bucket,
					   p.method,
					   SUM(p.amount) AS total
				FROM payment_entries p
				JOIN sales s ON s.id = p.sale_id
				WHERE s.tenant_id = ? AND s.created_at >= ? AND s.created_at < ?
				GROUP BY bucket, p.method
				ORDER BY bucket ASC;
			`
			end = end.AddDate(0, 0, 1)
		}

		if err := database.DB.Raw(sql, tenantID, start, end).Scan(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Erro ao agregar os dados")
		}

		// soma por bucket
		type bucketAgg struct {
			Bucket time.Time
			Cash   float64
			Credit float64
			Debit  float64
			Pix    float64
			Total  float64
		}

		buckets := make(map[time.Time]*bucketAgg)

		for _, r := range rows {
			agg, ok := buckets[r.Bucket]
			if !ok {
				agg = &bucketAgg{Bucket: r.Bucket}
				buckets[r.Bucket] = agg
			}

			switch r.Method {
			case string(models.PaymentMethodCash):
				agg.Cash += r.Total
			case string(models.PaymentMethodCredit):
				agg.Credit += r.Total
			case string(models.PaymentMethodDebit):
				agg.Debit += r.Total
			case string(models.PaymentMethodPix):
				agg.Pix += r.Total
			}
		}

		// passa do map para slice e ordena
		ordered := make([]bucketAgg, 0, len(buckets))
		for _, v := range buckets {
			v.Total = v.Cash + v.Credit + v.Debit + v.Pix
			ordered = append(ordered, *v)
		}

		// ordenação por data
		for i := 0; i < len(ordered); i++ {
			for j := i + 1; j < len(ordered); j++ {
				if ordered[j].Bucket.Before(ordered[i].Bucket) {
					ordered[i], ordered[j] = ordered[j], ordered[i]
				}
			}
		}

		points := make([]SalesChartPoint, 0, len(ordered))
		grand := SalesChartGrandTotals{}

		for _, b := range ordered {
			label := b.Bucket.Format("2006-01-02")
			points = append(points, SalesChartPoint{
				Label:  label,
				Cash:   b.Cash,
				Credit: b.Credit,
				Debit:  b.Debit,
				Pix:    b.Pix,
				Total:  b.Total,
			})

			grand.Cash += b.Cash
			grand.Credit += b.Credit
			grand.Debit += b.Debit
			grand.Pix += b.Pix
			grand.Total += b.Total
		}

		resp := SalesChartResponse{
			TenantID:    tenantID,
			Period:      period,
			From:        start.Format("2006-01-02"),
			To:          end.AddDate(0, 0, -1).Format("2006-01-02"),
			Points:      points,
			GrandTotals: grand,
		}

		return c.JSON(resp)
	}
}
