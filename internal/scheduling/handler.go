package scheduling

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

type CreateServiceRequest struct {
	Name        string  `json:"name"`
	DurationMin int     `json:"duration_min"`
	Price       float64 `json:"price"`
	TenantID    *uint   `json:"tenant_id"`
}

type UpdateServiceRequest struct {
	Name        *string  `json:"name"`
	DurationMin *int     `json:"duration_min"`
	Price       *float64 `json:"price"`
	Active      *bool    `json:"active"`
}

type ServiceResponse struct {
	ID          uint    `json:"id"`
	TenantID    uint    `json:"tenant_id"`
	Name        string  `json:"name"`
	DurationMin int     `json:"duration_min"`
	Price       float64 `json:"price"`
	Active      bool    `json:"active"`
}

type SlotConfigRequest struct {
	StartTime      string `json:"start_time"` // "09:00"
	EndTime        string `json:"end_time"`   // "18:00"
	GranularityMin int    `json:"granularity_min"`
	Weekdays       string `json:"weekdays"` // "1,2,3,4,5"
	TenantID       *uint  `json:"tenant_id"`
}

type CreateAppointmentRequest struct {
	ServiceID     uint   `json:"service_id"`
	Date          string `json:"date"` // "2026-09-07"
	Time          string `json:"time"` // "14:30"
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	Notes         string `json:"notes"`
	TenantID      *uint  `json:"tenant_id"`
}

type AppointmentResponse struct {
	ID            uint    `json:"id"`
	TenantID      uint    `json:"tenant_id"`
	ServiceID     uint    `json:"service_id"`
	ServiceName   string  `json:"service_name,omitempty"`
	CustomerName  string  `json:"customer_name"`
	CustomerPhone string  `json:"customer_phone"`
	StartTime     string  `json:"start_time"`
	EndTime       string  `json:"end_time"`
	Status        string  `json:"status"`
	Code          string  `json:"code"`
	Notes         string  `json:"notes"`
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

func toAppointmentResponse(a *models.Appointment, serviceName string) AppointmentResponse {
	return AppointmentResponse{
		ID:            a.ID,
		TenantID:      a.TenantID,
		ServiceID:     a.ServiceID,
		ServiceName:   serviceName,
		CustomerName:  a.CustomerName,
		CustomerPhone: a.CustomerPhone,
		StartTime:     a.StartTime.Format(time.RFC3339),
		EndTime:       a.EndTime.Format(time.RFC3339),
		Status:        string(a.Status),
		Code:          a.Code,
		Notes:         a.Notes,
	}
}

// -------------------------
// Serviços
// -------------------------

// POST /api/services
func CreateServiceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateServiceRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido")
		}

		if strings.TrimSpace(body.Name) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Nome obrigatório")
		}
		if body.DurationMin <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "duration_min deve ser maior que 0")
		}
		if body.Price < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Preço não pode ser negativo")
		}

		tenantID, err := resolveTenantIDFromBodyOrRole(c, body.TenantID)
		if err != nil {
			return err
		}

		svc := models.Service{
			TenantID:    tenantID,
			Name:        strings.TrimSpace(body.Name),
			DurationMin: body.DurationMin,
			Price:       body.Price,
			Active:      true,
		}

		if err := database.DB.Create(&svc).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível criar o serviço")
		}

		return c.Status(fiber.StatusCreated).JSON(ServiceResponse{
			ID: svc.ID, TenantID: svc.TenantID, Name: svc.Name,
			DurationMin: svc.DurationMin, Price: svc.Price, Active: svc.Active,
		})
	}
}

// GET /api/services
func ListServicesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := resolveTenantIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		var services []models.Service
		if err := database.DB.Where("tenant_id = ?", tenantID).Order("name asc").Find(&services).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível listar os serviços")
		}

		resp := make([]ServiceResponse, 0, len(services))
		for _, s := range services {
			resp = append(resp, ServiceResponse{
				ID: s.ID, TenantID: s.TenantID, Name: s.Name,
				DurationMin: s.DurationMin, Price: s.Price, Active: s.Active,
			})
		}
		return c.JSON(resp)
	}
}

// PUT /api/services/:id
func UpdateServiceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := resolveTenantIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "id inválido")
		}

		var body UpdateServiceRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido")
		}

		var svc models.Service
		if err := database.DB.Where("tenant_id = ? AND id = ?", tenantID, id).First(&svc).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Serviço não encontrado")
		}

		if body.Name != nil {
			if strings.TrimSpace(*body.Name) == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Nome não pode ser vazio")
			}
			svc.Name = strings.TrimSpace(*body.Name)
		}
		if body.DurationMin != nil {
			if *body.DurationMin <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "duration_min deve ser maior que 0")
			}
			svc.DurationMin = *body.DurationMin
		}
		if body.Price != nil {
			if *body.Price < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Preço não pode ser negativo")
			}
			svc.Price = *body.Price
		}
		if body.Active != nil {
			svc.Active = *body.Active
		}

		if err := database.DB.Save(&svc).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível atualizar o serviço")
		}

		return c.JSON(ServiceResponse{
			ID: svc.ID, TenantID: svc.TenantID, Name: svc.Name,
			DurationMin: svc.DurationMin, Price: svc.Price, Active: svc.Active,
		})
	}
}

// -------------------------
// Janela de atendimento
// -------------------------

// POST /api/slot-configs
func CreateSlotConfigHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SlotConfigRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido")
		}

		tenantID, err := resolveTenantIDFromBodyOrRole(c, body.TenantID)
		if err != nil {
			return err
		}

		cfg := models.BookingSlotConfig{
			TenantID:       tenantID,
			StartTime:      strings.TrimSpace(body.StartTime),
			EndTime:        strings.TrimSpace(body.EndTime),
			GranularityMin: body.GranularityMin,
			Weekdays:       strings.TrimSpace(body.Weekdays),
		}

		// Valida convertendo: se não der para montar a janela, o registro está errado
		if _, err := WindowFromConfig(&cfg); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if cfg.GranularityMin <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "granularity_min deve ser maior que 0")
		}

		if err := database.DB.Create(&cfg).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível criar a janela de atendimento")
		}

		return c.Status(fiber.StatusCreated).JSON(cfg)
	}
}

// GET /api/slot-configs
func ListSlotConfigsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := resolveTenantIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		var configs []models.BookingSlotConfig
		if err := database.DB.Where("tenant_id = ?", tenantID).Order("id asc").Find(&configs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível listar as janelas")
		}
		return c.JSON(configs)
	}
}

// DELETE /api/slot-configs/:id
func DeleteSlotConfigHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := resolveTenantIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "id inválido")
		}

		res := database.DB.Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&models.BookingSlotConfig{})
		if res.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível remover a janela")
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusNotFound, "Janela não encontrada")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// -------------------------
// Agendamentos (painel interno)
// -------------------------

// POST /api/appointments
func CreateAppointmentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateAppointmentRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido")
		}

		tenantID, err := resolveTenantIDFromBodyOrRole(c, body.TenantID)
		if err != nil {
			return err
		}

		appt, err := bookAppointment(tenantID, &body)
		if err != nil {
			return err
		}

		userID, userName, _, uerr := getUserInfo(c)
		if uerr == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				TenantID:    &appt.TenantID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "appointment",
				EntityID:    appt.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Agendamento criado para %s às %s", appt.CustomerName, appt.StartTime.Format("02/01 15:04")),
				After:       toAppointmentResponse(appt, ""),
			}); logErr != nil {
				fmt.Printf("Não foi possível gravar o audit log: %v\n", logErr)
			}
		}

		return c.Status(fiber.StatusCreated).JSON(toAppointmentResponse(appt, ""))
	}
}

// GET /api/appointments?from=2026-09-01&to=2026-09-30&status=scheduled
func ListAppointmentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := resolveTenantIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Preload("Service").Where("tenant_id = ?", tenantID)

		if statusStr := c.Query("status"); statusStr != "" {
			dbq = dbq.Where("status = ?", statusStr)
		}
		if fromStr := c.Query("from"); fromStr != "" {
			from, err := time.Parse("2006-01-02", fromStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Data 'from' inválida")
			}
			dbq = dbq.Where("start_time >= ?", from)
		}
		if toStr := c.Query("to"); toStr != "" {
			to, err := time.Parse("2006-01-02", toStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Data 'to' inválida")
			}
			dbq = dbq.Where("start_time < ?", to.AddDate(0, 0, 1))
		}

		var appts []models.Appointment
		if err := dbq.Order("start_time asc, id asc").Find(&appts).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível listar os agendamentos")
		}

		resp := make([]AppointmentResponse, 0, len(appts))
		for i := range appts {
			resp = append(resp, toAppointmentResponse(&appts[i], appts[i].Service.Name))
		}
		return c.JSON(resp)
	}
}

// POST /api/appointments/:id/cancel
func CancelAppointmentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := resolveTenantIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "id inválido")
		}

		var appt models.Appointment
		if err := database.DB.Where("tenant_id = ? AND id = ?", tenantID, id).First(&appt).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Agendamento não encontrado")
		}
		if appt.Status == models.AppointmentStatusCancelled {
			return fiber.NewError(fiber.StatusConflict, "Agendamento já está cancelado")
		}

		before := toAppointmentResponse(&appt, "")

		now := time.Now()
		appt.Status = models.AppointmentStatusCancelled
		appt.CancelledAt = &now

		if err := database.DB.Save(&appt).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível cancelar")
		}

		userID, userName, _, uerr := getUserInfo(c)
		if uerr == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				TenantID:    &appt.TenantID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "appointment",
				EntityID:    appt.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Agendamento de %s cancelado", appt.CustomerName),
				Before:      before,
				After:       toAppointmentResponse(&appt, ""),
			}); logErr != nil {
				fmt.Printf("Não foi possível gravar o audit log: %v\n", logErr)
			}
		}

		return c.JSON(toAppointmentResponse(&appt, ""))
	}
}
