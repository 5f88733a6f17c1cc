package scheduling

import (
	"testing"
	"time"

	"pdv-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func window(start, end string, granularity int, weekdays ...time.Weekday) SlotWindow {
	w := SlotWindow{GranularityMin: granularity, Weekdays: make(map[time.Weekday]bool)}
	s, err := parseHHMM(start)
	if err != nil {
		panic(err)
	}
	e, err := parseHHMM(end)
	if err != nil {
		panic(err)
	}
	w.StartMin = s
	w.EndMin = e
	for _, d := range weekdays {
		w.Weekdays[d] = true
	}
	return w
}

func at(day time.Time, hhmm string) time.Time {
	m, err := parseHHMM(hhmm)
	if err != nil {
		panic(err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location()).
		Add(time.Duration(m) * time.Minute)
}

var (
	// 2026-09-07 é uma segunda-feira
	monday = time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	// "agora" bem antes do dia em questão
	past = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
)

func appt(day time.Time, start, end string) models.Appointment {
	return models.Appointment{
		StartTime: at(day, start),
		EndTime:   at(day, end),
		Status:    models.AppointmentStatusScheduled,
	}
}

func TestAvailableSlotsEmptyCalendar(t *testing.T) {
	// Janela 09:00-12:00, passo 30, duração 60: o 11:30 não cabe
	w := window("09:00", "12:00", 30, time.Monday)

	slots := AvailableSlots(w, monday, past, 60, nil)
	assert.Equal(t, []string{"09:00", "09:30", "10:00", "10:30", "11:00"}, slots)
}

func TestAvailableSlotsInactiveWeekday(t *testing.T) {
	w := window("09:00", "12:00", 30, time.Tuesday)

	slots := AvailableSlots(w, monday, past, 30, nil)
	assert.Empty(t, slots)
}

func TestAvailableSlotsPastDay(t *testing.T) {
	w := window("09:00", "12:00", 30, time.Monday)
	future := monday.AddDate(0, 0, 3)

	slots := AvailableSlots(w, monday, future, 30, nil)
	assert.Empty(t, slots)
}

func TestAvailableSlotsSameDayPastSlots(t *testing.T) {
	// No próprio dia, horários que já passaram não aparecem
	w := window("09:00", "12:00", 30, time.Monday)
	now := at(monday, "10:00")

	slots := AvailableSlots(w, monday, now, 30, nil)
	// 10:00 também sai: precisa ser estritamente depois de agora
	assert.Equal(t, []string{"10:30", "11:00", "11:30"}, slots)
}

func TestAvailableSlotsDurationExceedsWindow(t *testing.T) {
	w := window("09:00", "10:00", 30, time.Monday)

	slots := AvailableSlots(w, monday, past, 90, nil)
	assert.Empty(t, slots)
}

func TestAvailableSlotsMalformedWindow(t *testing.T) {
	// Fim antes do início: a condição do laço já devolve vazio
	w := window("12:00", "09:00", 30, time.Monday)
	assert.Empty(t, AvailableSlots(w, monday, past, 30, nil))

	// Passo zero não pode virar laço infinito
	w = window("09:00", "12:00", 0, time.Monday)
	assert.Empty(t, AvailableSlots(w, monday, past, 30, nil))
}

func TestAvailableSlotsConflicts(t *testing.T) {
	// Agendamento 10:00-10:30, duração 60:
	// 09:30 sai (janela 09:30-10:30 envolve o agendamento),
	// 10:00 sai (início idêntico), 10:15 não existe (passo 30)
	w := window("09:00", "12:00", 30, time.Monday)
	appts := []models.Appointment{appt(monday, "10:00", "10:30")}

	slots := AvailableSlots(w, monday, past, 60, appts)
	assert.Equal(t, []string{"09:00", "10:30", "11:00"}, slots)
}

func TestAvailableSlotsIdenticalStartExcludedAdjacencyAllowed(t *testing.T) {
	// Slot que começa exatamente junto com um agendamento sai; slot que
	// apenas encosta (termina quando o agendamento começa) fica
	w := window("09:00", "12:00", 30, time.Monday)
	appts := []models.Appointment{appt(monday, "10:00", "10:30")}

	slots := AvailableSlots(w, monday, past, 30, appts)
	assert.NotContains(t, slots, "10:00")
	assert.Contains(t, slots, "09:30") // termina 10:00, intervalo semiaberto não conflita
	assert.Contains(t, slots, "10:30") // começa quando o agendamento termina
}

func TestAvailableSlotsIgnoresCancelled(t *testing.T) {
	w := window("09:00", "12:00", 30, time.Monday)
	cancelled := appt(monday, "10:00", "10:30")
	cancelled.Status = models.AppointmentStatusCancelled

	slots := AvailableSlots(w, monday, past, 30, []models.Appointment{cancelled})
	assert.Contains(t, slots, "10:00")
}

func TestAvailableSlotsAscendingAndConflictFree(t *testing.T) {
	w := window("08:00", "18:00", 15, time.Monday)
	appts := []models.Appointment{
		appt(monday, "09:00", "10:00"),
		appt(monday, "13:30", "14:15"),
	}

	slots := AvailableSlots(w, monday, past, 45, appts)
	require.NotEmpty(t, slots)

	prev := ""
	for _, s := range slots {
		assert.Greater(t, s, prev) // "HH:MM" ordena lexicograficamente
		prev = s

		start := at(monday, s)
		end := start.Add(45 * time.Minute)
		assert.False(t, hasConflict(start, end, appts), "slot %s conflita", s)
	}
}

func TestWindowForDayPicksMatchingConfig(t *testing.T) {
	// Segunda a sexta 09:00-18:00, sábado com horário reduzido
	cfgs := []models.BookingSlotConfig{
		{StartTime: "09:00", EndTime: "18:00", GranularityMin: 30, Weekdays: "1,2,3,4,5"},
		{StartTime: "10:00", EndTime: "13:00", GranularityMin: 30, Weekdays: "6"},
	}

	// 2026-09-12 é um sábado
	saturday := time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC)

	w, err := WindowForDay(cfgs, saturday)
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, 10*60, w.StartMin)
	assert.Equal(t, 13*60, w.EndMin)

	slots := AvailableSlots(*w, saturday, past, 60, nil)
	assert.Equal(t, []string{"10:00", "10:30", "11:00", "11:30", "12:00"}, slots)

	w, err = WindowForDay(cfgs, monday)
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, 9*60, w.StartMin)
}

func TestWindowForDayNoConfigCoversDay(t *testing.T) {
	cfgs := []models.BookingSlotConfig{
		{StartTime: "09:00", EndTime: "18:00", GranularityMin: 30, Weekdays: "1,2,3,4,5"},
	}

	// 2026-09-13 é um domingo
	sunday := time.Date(2026, 9, 13, 0, 0, 0, 0, time.UTC)

	w, err := WindowForDay(cfgs, sunday)
	require.NoError(t, err)
	assert.Nil(t, w)

	w, err = WindowForDay(nil, monday)
	require.NoError(t, err)
	assert.Nil(t, w)
}

func TestWindowForDayMalformedConfig(t *testing.T) {
	cfgs := []models.BookingSlotConfig{
		{StartTime: "ruim", EndTime: "18:00", GranularityMin: 30, Weekdays: "1"},
	}

	_, err := WindowForDay(cfgs, monday)
	assert.Error(t, err)
}

func TestWindowFromConfig(t *testing.T) {
	w, err := WindowFromConfig(&models.BookingSlotConfig{
		StartTime:      "09:00",
		EndTime:        "18:30",
		GranularityMin: 15,
		Weekdays:       "1,2,3,4,5",
	})
	require.NoError(t, err)

	assert.Equal(t, 9*60, w.StartMin)
	assert.Equal(t, 18*60+30, w.EndMin)
	assert.True(t, w.Weekdays[time.Monday])
	assert.False(t, w.Weekdays[time.Sunday])
}

func TestWindowFromConfigInvalid(t *testing.T) {
	_, err := WindowFromConfig(&models.BookingSlotConfig{StartTime: "9h", EndTime: "18:00", Weekdays: "1"})
	assert.Error(t, err)

	_, err = WindowFromConfig(&models.BookingSlotConfig{StartTime: "09:00", EndTime: "18:00", Weekdays: "1,7"})
	assert.Error(t, err)
}
