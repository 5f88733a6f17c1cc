package scheduling

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"pdv-backend/internal/models"
)

// SlotWindow - janela de atendimento já normalizada (minutos desde meia-noite).
type SlotWindow struct {
	StartMin       int
	EndMin         int
	GranularityMin int
	Weekdays       map[time.Weekday]bool
}

// WindowFromConfig converte o registro persistido ("HH:MM", "0,1,2,...")
// para a forma usada pelo cálculo.
func WindowFromConfig(cfg *models.BookingSlotConfig) (SlotWindow, error) {
	start, err := parseHHMM(cfg.StartTime)
	if err != nil {
		return SlotWindow{}, fmt.Errorf("horário inicial inválido: %w", err)
	}
	end, err := parseHHMM(cfg.EndTime)
	if err != nil {
		return SlotWindow{}, fmt.Errorf("horário final inválido: %w", err)
	}

	weekdays := make(map[time.Weekday]bool)
	for _, part := range strings.Split(cfg.Weekdays, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := strconv.Atoi(part)
		if err != nil || d < 0 || d > 6 {
			return SlotWindow{}, fmt.Errorf("dia da semana inválido: %q", part)
		}
		weekdays[time.Weekday(d)] = true
	}

	return SlotWindow{
		StartMin:       start,
		EndMin:         end,
		GranularityMin: cfg.GranularityMin,
		Weekdays:       weekdays,
	}, nil
}

// WindowForDay escolhe, entre as janelas do tenant, a primeira cujo conjunto
// de dias cobre o dia pedido (ex: uma janela de segunda a sexta e outra só de
// sábado). Nenhuma janela cobrindo o dia devolve nil.
func WindowForDay(cfgs []models.BookingSlotConfig, day time.Time) (*SlotWindow, error) {
	for i := range cfgs {
		w, err := WindowFromConfig(&cfgs[i])
		if err != nil {
			return nil, err
		}
		if w.Weekdays[day.Weekday()] {
			return &w, nil
		}
	}
	return nil, nil
}

func parseHHMM(s string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// AvailableSlots gera os horários livres de um único dia, em ordem
// crescente, no formato "HH:MM". Os agendamentos recebidos são os que podem
// conflitar com o dia (cancelados são ignorados). Janela mal formada
// (fim antes do início, passo <= 0) só produz lista vazia.
func AvailableSlots(w SlotWindow, day, now time.Time, durationMin int, appts []models.Appointment) []string {
	slots := []string{}

	if durationMin <= 0 || w.GranularityMin <= 0 {
		return slots
	}
	if !w.Weekdays[day.Weekday()] {
		return slots
	}

	loc := day.Location()
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	if dayStart.Before(today) {
		return slots
	}

	for startMin := w.StartMin; startMin < w.EndMin; startMin += w.GranularityMin {
		// O slot precisa caber inteiro na janela
		if startMin+durationMin > w.EndMin {
			continue
		}

		t := dayStart.Add(time.Duration(startMin) * time.Minute)
		tEnd := t.Add(time.Duration(durationMin) * time.Minute)

		// Sem agendamento no passado
		if !t.After(now) {
			continue
		}

		if hasConflict(t, tEnd, appts) {
			continue
		}

		slots = append(slots, t.Format("15:04"))
	}

	return slots
}

// hasConflict aplica a checagem de sobreposição em quatro casos sobre
// intervalos semiabertos [início, fim). O caso de início idêntico é
// redundante com o de intervalo contido, mas é mantido de propósito: o
// comportamento de referência está definido pelos quatro.
func hasConflict(t, tEnd time.Time, appts []models.Appointment) bool {
	for _, a := range appts {
		if a.Status == models.AppointmentStatusCancelled {
			continue
		}

		startsInside := t.After(a.StartTime) && t.Before(a.EndTime)
		endsInside := tEnd.After(a.StartTime) && tEnd.Before(a.EndTime)
		contains := !a.StartTime.Before(t) && !a.EndTime.After(tEnd)
		sameStart := t.Equal(a.StartTime)

		if startsInside || endsInside || contains || sameStart {
			return true
		}
	}
	return false
}
