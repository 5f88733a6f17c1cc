package scheduling

import (
	"context"
	"fmt"
	"time"

	"pdv-backend/internal/config"
	"pdv-backend/internal/database"
	"pdv-backend/internal/events"
	"pdv-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// dayAppointments busca os agendamentos não cancelados que podem conflitar
// com o dia informado.
func dayAppointments(tenantID uint, day time.Time) ([]models.Appointment, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var appts []models.Appointment
	err := database.DB.
		Where("tenant_id = ? AND status <> ? AND start_time < ? AND end_time > ?",
			tenantID, models.AppointmentStatusCancelled, dayEnd, dayStart).
		Find(&appts).Error
	return appts, err
}

// availabilityForDay calcula os horários livres para a duração do serviço.
// O tenant pode ter várias janelas (uma por conjunto de dias); vale a que
// cobre o dia pedido. Tenant sem janela para o dia não tem horários.
func availabilityForDay(tenantID uint, svc *models.Service, day, now time.Time) ([]string, error) {
	var cfgs []models.BookingSlotConfig
	if err := database.DB.Where("tenant_id = ?", tenantID).Order("id asc").Find(&cfgs).Error; err != nil {
		return nil, err
	}

	w, err := WindowForDay(cfgs, day)
	if err != nil {
		return nil, fmt.Errorf("janela de atendimento mal configurada: %w", err)
	}
	if w == nil {
		return []string{}, nil
	}

	appts, err := dayAppointments(tenantID, day)
	if err != nil {
		return nil, err
	}

	return AvailableSlots(*w, day, now, svc.DurationMin, appts), nil
}

// bookAppointment valida e cria o agendamento. Recalcula a disponibilidade
// na hora de gravar para barrar horário que acabou de ser tomado.
func bookAppointment(tenantID uint, body *CreateAppointmentRequest) (*models.Appointment, error) {
	if body.ServiceID == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "service_id obrigatório")
	}
	if body.CustomerName == "" {
		return nil, fiber.NewError(fiber.StatusBadRequest, "customer_name obrigatório")
	}

	day, err := time.ParseInLocation("2006-01-02", body.Date, time.Local)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Formato de data inválido, use 'AAAA-MM-DD'")
	}
	startMin, err := parseHHMM(body.Time)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Formato de horário inválido, use 'HH:MM'")
	}

	var svc models.Service
	if err := database.DB.Where("tenant_id = ? AND id = ? AND active = ?", tenantID, body.ServiceID, true).First(&svc).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Serviço não encontrado")
	}

	slots, err := availabilityForDay(tenantID, &svc, day, time.Now())
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Não foi possível verificar a disponibilidade")
	}

	requested := body.Time
	found := false
	for _, s := range slots {
		if s == requested {
			found = true
			break
		}
	}
	if !found {
		return nil, fiber.NewError(fiber.StatusConflict, "Horário indisponível")
	}

	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location()).
		Add(time.Duration(startMin) * time.Minute)

	appt := models.Appointment{
		TenantID:      tenantID,
		ServiceID:     svc.ID,
		CustomerName:  body.CustomerName,
		CustomerPhone: body.CustomerPhone,
		StartTime:     start,
		EndTime:       start.Add(time.Duration(svc.DurationMin) * time.Minute),
		Status:        models.AppointmentStatusScheduled,
		Code:          uuid.NewString(),
		Notes:         body.Notes,
	}

	if err := database.DB.Create(&appt).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Não foi possível criar o agendamento")
	}

	return &appt, nil
}

// -------------------------
// Rotas públicas (sem JWT)
// -------------------------

// GET /api/public/booking/:tenant/availability?date=2026-09-07&service_id=1
func PublicAvailabilityHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := c.ParamsInt("tenant")
		if err != nil || tenantID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "tenant inválido")
		}

		var tenant models.Tenant
		if err := database.DB.First(&tenant, tenantID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Tenant não encontrado")
		}

		dateStr := c.Query("date")
		if dateStr == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Parâmetro 'date' obrigatório")
		}
		day, err := time.ParseInLocation("2006-01-02", dateStr, time.Local)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Formato de data inválido, use 'AAAA-MM-DD'")
		}

		var sid uint
		if _, err := fmt.Sscan(c.Query("service_id"), &sid); err != nil || sid == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "service_id inválido")
		}

		var svc models.Service
		if err := database.DB.Where("tenant_id = ? AND id = ? AND active = ?", tenantID, sid, true).First(&svc).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Serviço não encontrado")
		}

		slots, err := availabilityForDay(uint(tenantID), &svc, day, time.Now())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível calcular a disponibilidade")
		}

		return c.JSON(fiber.Map{
			"date":         dateStr,
			"service_id":   svc.ID,
			"duration_min": svc.DurationMin,
			"slots":        slots,
		})
	}
}

// POST /api/public/booking/:tenant
func PublicBookingHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := c.ParamsInt("tenant")
		if err != nil || tenantID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "tenant inválido")
		}

		var tenant models.Tenant
		if err := database.DB.First(&tenant, tenantID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Tenant não encontrado")
		}

		var body CreateAppointmentRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido")
		}

		appt, err := bookAppointment(uint(tenantID), &body)
		if err != nil {
			return err
		}

		var svc models.Service
		database.DB.First(&svc, appt.ServiceID)

		// Evento de confirmação: melhor esforço, nunca segura a resposta
		if cfg.AMQPURL != "" {
			event := events.NewAppointmentConfirmed(appt, &svc, time.Now())
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				_ = events.PublishAppointmentConfirmed(ctx, cfg.AMQPURL, event)
			}()
		}

		return c.Status(fiber.StatusCreated).JSON(toAppointmentResponse(appt, svc.Name))
	}
}
