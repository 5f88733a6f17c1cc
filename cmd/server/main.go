package main

import (
	"log"
	"strings"

	"pdv-backend/internal/admin"
	"pdv-backend/internal/audit"
	"pdv-backend/internal/auth"
	"pdv-backend/internal/cache"
	"pdv-backend/internal/config"
	"pdv-backend/internal/dashboard"
	"pdv-backend/internal/database"
	"pdv-backend/internal/finance"
	"pdv-backend/internal/models"
	"pdv-backend/internal/proposal"
	"pdv-backend/internal/purchasing"
	"pdv-backend/internal/register"
	"pdv-backend/internal/sales"
	"pdv-backend/internal/scheduling"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)
	rdb := cache.NewRedisClient(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Erro inesperado do servidor",
			})
		},
	})

	// CORS
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Auth pública
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Rotas públicas de agendamento (sem JWT, com cache na disponibilidade)
	api.Get("/public/booking/:tenant/availability",
		cache.ResponseCache(rdb, "availability:", cfg.CacheTTL),
		scheduling.PublicAvailabilityHandler())
	api.Post("/public/booking/:tenant", scheduling.PublicBookingHandler(cfg))

	// Proposta pública por token
	api.Get("/public/proposals/:token", proposal.PublicProposalHandler())

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Painel da revenda
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleResellerAdmin))

	adminRoutes.Post("/tenants", admin.CreateTenantHandler())
	adminRoutes.Get("/tenants", admin.ListTenantsHandler())
	adminRoutes.Get("/tenants/:id", admin.GetTenantHandler())
	adminRoutes.Put("/tenants/:id", admin.UpdateTenantHandler())
	adminRoutes.Delete("/tenants/:id", admin.DeleteTenantHandler())
	adminRoutes.Post("/tenants/:id/admin", admin.CreateTenantAdminHandler())
	adminRoutes.Get("/tenants/:id/users", admin.ListTenantUsersHandler())

	// Caixa
	protected.Post("/cash-sessions", register.OpenSessionHandler())
	protected.Get("/cash-sessions", register.ListSessionsHandler())
	protected.Get("/cash-sessions/:id/reconciliation", register.ReconciliationHandler())
	protected.Post("/cash-sessions/:id/close", register.CloseSessionHandler())
	protected.Post("/cash-withdrawals", register.CreateWithdrawalHandler())
	protected.Get("/cash-withdrawals", register.ListWithdrawalsHandler())

	// Vendas
	protected.Post("/sales", sales.CreateSaleHandler())
	protected.Get("/sales", sales.ListSalesHandler())
	protected.Get("/sales/summary/daily", sales.DailySummaryHandler())

	// Fornecedores e compras
	protected.Post("/suppliers", purchasing.CreateSupplierHandler())
	protected.Get("/suppliers", purchasing.ListSuppliersHandler())
	protected.Post("/purchases", purchasing.CreatePurchaseHandler())
	protected.Get("/purchases", purchasing.ListPurchasesHandler())
	protected.Get("/purchases/balance", purchasing.SupplierBalanceHandler())
	protected.Post("/purchase-payments", purchasing.CreatePurchasePaymentHandler())
	protected.Get("/purchase-payments", purchasing.ListPurchasePaymentsHandler())

	// Clientes e financeiro (a receber / a pagar)
	protected.Post("/customers", finance.CreateCustomerHandler())
	protected.Get("/customers", finance.ListCustomersHandler())
	protected.Post("/finance-entries", finance.CreateFinanceEntryHandler())
	protected.Get("/finance-entries", finance.ListFinanceEntriesHandler())
	protected.Put("/finance-entries/:id", finance.UpdateFinanceEntryHandler())
	protected.Post("/finance-payments", finance.CreateFinancePaymentHandler())
	protected.Get("/finance-payments", finance.ListFinancePaymentsHandler())

	// Agendamento
	protected.Post("/services", scheduling.CreateServiceHandler())
	protected.Get("/services", scheduling.ListServicesHandler())
	protected.Put("/services/:id", scheduling.UpdateServiceHandler())
	protected.Post("/slot-configs", scheduling.CreateSlotConfigHandler())
	protected.Get("/slot-configs", scheduling.ListSlotConfigsHandler())
	protected.Delete("/slot-configs/:id", scheduling.DeleteSlotConfigHandler())
	protected.Post("/appointments", scheduling.CreateAppointmentHandler())
	protected.Get("/appointments", scheduling.ListAppointmentsHandler())
	protected.Post("/appointments/:id/cancel", scheduling.CancelAppointmentHandler())

	// Propostas
	protected.Post("/proposals", proposal.CreateProposalHandler())
	protected.Get("/proposals", proposal.ListProposalsHandler())
	protected.Get("/proposals/:id", proposal.GetProposalHandler())
	protected.Put("/proposals/:id", proposal.UpdateProposalHandler())
	protected.Post("/proposals/:id/blocks", proposal.CreateBlockHandler())
	protected.Put("/proposals/:id/blocks/order", proposal.ReorderBlocksHandler())
	protected.Put("/proposals/:id/blocks/:block_id", proposal.UpdateBlockHandler())
	protected.Delete("/proposals/:id/blocks/:block_id", proposal.DeleteBlockHandler())

	// Dashboard
	protected.Get("/dashboard/sales-chart", dashboard.SalesChartHandler())

	// Audit logs
	protected.Get("/audit-logs", audit.ListAuditLogsHandler())

	log.Println("Servidor rodando na porta:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
