package events

import (
	"encoding/json"
	"testing"
	"time"

	"pdv-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppointmentConfirmed(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	start := time.Date(2026, 9, 7, 10, 0, 0, 0, loc)

	appt := &models.Appointment{
		ID:            42,
		TenantID:      3,
		ServiceID:     7,
		CustomerName:  "Maria Souza",
		CustomerPhone: "+55 11 99999-0000",
		StartTime:     start,
		EndTime:       start.Add(30 * time.Minute),
		Code:          "0b8e3f6a-1111-2222-3333-444455556666",
	}
	svc := &models.Service{ID: 7, Name: "Corte", Price: 50.0}

	confirmed := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	ev := NewAppointmentConfirmed(appt, svc, confirmed)

	assert.Equal(t, uint(42), ev.AppointmentID)
	assert.Equal(t, uint(3), ev.TenantID)
	assert.Equal(t, "Corte", ev.ServiceName)
	assert.Equal(t, "2026-09-07T10:00:00-03:00", ev.StartsAt)
	assert.Equal(t, "2026-09-07T10:30:00-03:00", ev.EndsAt)
	assert.Equal(t, "2026-09-01T12:00:00Z", ev.ConfirmedAt)
	assert.Equal(t, appt.Code, ev.Code)
}

func TestAppointmentConfirmedJSONShape(t *testing.T) {
	ev := AppointmentConfirmedEvent{AppointmentID: 1, TenantID: 2, Code: "abc"}

	raw, err := json.Marshal(ev)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	// chaves em snake_case, como os consumidores esperam
	assert.Contains(t, decoded, "appointment_id")
	assert.Contains(t, decoded, "tenant_id")
	assert.Contains(t, decoded, "customer_name")
	assert.Contains(t, decoded, "confirmed_at")
}
