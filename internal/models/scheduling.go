package models

import "time"

// Service - serviço agendável (corte, consulta, etc)
type Service struct {
	ID          uint   `gorm:"primaryKey"`
	TenantID    uint   `gorm:"index;not null"`
	Tenant      Tenant
	Name        string  `gorm:"size:100;not null"`
	DurationMin int     `gorm:"not null"` // duração em minutos
	Price       float64 `gorm:"not null"`
	Active      bool    `gorm:"default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BookingSlotConfig - janela de atendimento de um recurso agendável.
// Horários em "HH:MM", dias da semana como "0,1,2,..." (0 = domingo).
type BookingSlotConfig struct {
	ID             uint   `gorm:"primaryKey"`
	TenantID       uint   `gorm:"index;not null"`
	Tenant         Tenant
	StartTime      string `gorm:"size:5;not null"` // ex: "09:00"
	EndTime        string `gorm:"size:5;not null"` // ex: "18:00"
	GranularityMin int    `gorm:"not null"`        // passo entre horários
	Weekdays       string `gorm:"size:20;not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusDone      AppointmentStatus = "done"
	AppointmentStatusCancelled AppointmentStatus = "cancelled" // fora das checagens de conflito
)

type Appointment struct {
	ID            uint `gorm:"primaryKey"`
	TenantID      uint `gorm:"index;not null"`
	Tenant        Tenant
	ServiceID     uint `gorm:"index;not null"`
	Service       Service
	CustomerName  string    `gorm:"size:100;not null"`
	CustomerPhone string    `gorm:"size:50"`
	StartTime     time.Time `gorm:"index;not null"`
	EndTime       time.Time `gorm:"not null"`
	Status        AppointmentStatus `gorm:"size:20;not null;index"`
	Code          string            `gorm:"size:36;uniqueIndex"` // código de confirmação
	Notes         string            `gorm:"size:255"`
	CancelledAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
