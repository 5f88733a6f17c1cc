package database

import (
	"log"

	"pdv-backend/internal/config"
	"pdv-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Não foi possível conectar ao banco: %v", err)
	}

	// Migração manual: Appointment.code foi adicionado depois do lançamento
	// inicial; agendamentos antigos ficam sem código (coluna nullable).
	if DB.Migrator().HasTable(&models.Appointment{}) {
		if !DB.Migrator().HasColumn(&models.Appointment{}, "code") {
			log.Println("Adicionando coluna appointments.code...")
			if err := DB.Exec("ALTER TABLE appointments ADD COLUMN code VARCHAR(36)").Error; err != nil {
				log.Printf("Erro ao adicionar coluna code (pode já existir): %v", err)
			}
			DB.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_appointments_code ON appointments(code) WHERE code IS NOT NULL")
		}
	}

	err = DB.AutoMigrate(
		&models.Tenant{},
		&models.User{},
		&models.CashSession{},
		&models.CashWithdrawal{},
		&models.Sale{},
		&models.PaymentEntry{},
		&models.Supplier{},
		&models.Purchase{},
		&models.PurchasePayment{},
		&models.Customer{},
		&models.FinanceEntry{},
		&models.FinancePayment{},
		&models.Service{},
		&models.BookingSlotConfig{},
		&models.Appointment{},
		&models.Proposal{},
		&models.ProposalBlock{},
		&models.AuditLog{},
	)
	if err != nil {
		log.Fatalf("Erro no AutoMigrate: %v", err)
	}

	log.Println("Conexão com o banco ok. Migração concluída.")
}
