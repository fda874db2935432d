package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/taveron/agenda-backend/internal/pkg/logger"
	"github.com/taveron/agenda-backend/internal/types"
	"github.com/taveron/agenda-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	host := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	port := utils.GetEnv("POSTGRES_PORT", "5432", log)
	user := utils.GetEnv("POSTGRES_USER", "postgres", log)
	password := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	name := utils.GetEnv("POSTGRES_NAME", "agenda", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)

	serviceLog.Info("Connecting to Postgres...")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return &PostgresService{db: db, log: serviceLog}, nil
}

// AutoMigrateAll creates the tables and then wires the foreign keys by hand:
// child collections cascade with their contact, catalog references are
// RESTRICT so referenced rows cannot be deleted.
func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.User{},
		&types.UserToken{},
		&types.RelationshipType{},
		&types.PhoneType{},
		&types.EmailType{},
		&types.AddressType{},
		&types.Contact{},
		&types.ContactPhone{},
		&types.ContactEmail{},
		&types.ContactAddress{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}

	constraints := []struct {
		name string
		stmt string
	}{
		{"fk_user_tokens_user_id", `ALTER TABLE "user_tokens" ADD CONSTRAINT "fk_user_tokens_user_id" FOREIGN KEY ("user_id") REFERENCES "users"("id") ON DELETE CASCADE`},
		{"fk_contacts_user_id", `ALTER TABLE "contacts" ADD CONSTRAINT "fk_contacts_user_id" FOREIGN KEY ("user_id") REFERENCES "users"("id") ON DELETE CASCADE`},
		{"fk_contacts_relationship_type_id", `ALTER TABLE "contacts" ADD CONSTRAINT "fk_contacts_relationship_type_id" FOREIGN KEY ("relationship_type_id") REFERENCES "relationship_types"("id") ON DELETE RESTRICT`},
		{"fk_contact_phones_contact_id", `ALTER TABLE "contact_phones" ADD CONSTRAINT "fk_contact_phones_contact_id" FOREIGN KEY ("contact_id") REFERENCES "contacts"("id") ON DELETE CASCADE`},
		{"fk_contact_phones_type_id", `ALTER TABLE "contact_phones" ADD CONSTRAINT "fk_contact_phones_type_id" FOREIGN KEY ("type_id") REFERENCES "phone_types"("id") ON DELETE RESTRICT`},
		{"fk_contact_emails_contact_id", `ALTER TABLE "contact_emails" ADD CONSTRAINT "fk_contact_emails_contact_id" FOREIGN KEY ("contact_id") REFERENCES "contacts"("id") ON DELETE CASCADE`},
		{"fk_contact_emails_type_id", `ALTER TABLE "contact_emails" ADD CONSTRAINT "fk_contact_emails_type_id" FOREIGN KEY ("type_id") REFERENCES "email_types"("id") ON DELETE RESTRICT`},
		{"fk_contact_addresses_contact_id", `ALTER TABLE "contact_addresses" ADD CONSTRAINT "fk_contact_addresses_contact_id" FOREIGN KEY ("contact_id") REFERENCES "contacts"("id") ON DELETE CASCADE`},
		{"fk_contact_addresses_type_id", `ALTER TABLE "contact_addresses" ADD CONSTRAINT "fk_contact_addresses_type_id" FOREIGN KEY ("type_id") REFERENCES "address_types"("id") ON DELETE RESTRICT`},
	}
	for _, c := range constraints {
		var count int64
		s.db.Raw(`SELECT COUNT(*) FROM information_schema.table_constraints WHERE constraint_name = ?`, c.name).Scan(&count)
		if count > 0 {
			continue
		}
		if err := s.db.Exec(c.stmt).Error; err != nil {
			return fmt.Errorf("failed to add %s: %w", c.name, err)
		}
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
