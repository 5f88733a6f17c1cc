// Package events define e publica os eventos de domínio enviados ao broker.
package events

import (
	"time"

	"pdv-backend/internal/models"
)

// AppointmentConfirmedEvent é publicado quando um agendamento público é
// confirmado. Carrega o suficiente para consumidores notificarem o cliente
// sem consultar o banco principal.
type AppointmentConfirmedEvent struct {
	AppointmentID uint    `json:"appointment_id"`
	TenantID      uint    `json:"tenant_id"`
	ServiceID     uint    `json:"service_id"`
	ServiceName   string  `json:"service_name"`
	CustomerName  string  `json:"customer_name"`
	CustomerPhone string  `json:"customer_phone"`
	StartsAt      string  `json:"starts_at"`
	EndsAt        string  `json:"ends_at"`
	Price         float64 `json:"price"`
	Code          string  `json:"code"`
	ConfirmedAt   string  `json:"confirmed_at"`
}

// NewAppointmentConfirmed monta o evento a partir do agendamento gravado.
// Timestamps sempre em RFC3339 para os consumidores.
func NewAppointmentConfirmed(appt *models.Appointment, svc *models.Service, confirmedAt time.Time) AppointmentConfirmedEvent {
	return AppointmentConfirmedEvent{
		AppointmentID: appt.ID,
		TenantID:      appt.TenantID,
		ServiceID:     appt.ServiceID,
		ServiceName:   svc.Name,
		CustomerName:  appt.CustomerName,
		CustomerPhone: appt.CustomerPhone,
		StartsAt:      appt.StartTime.Format(time.RFC3339),
		EndsAt:        appt.EndTime.Format(time.RFC3339),
		Price:         svc.Price,
		Code:          appt.Code,
		ConfirmedAt:   confirmedAt.UTC().Format(time.RFC3339),
	}
}
