package main

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/taveron/agenda-backend/internal/db"
	"github.com/taveron/agenda-backend/internal/pkg/logger"
	"github.com/taveron/agenda-backend/internal/types"
	"github.com/taveron/agenda-backend/internal/utils"
)

// Seeds the lookup catalogs and, when the ADMIN_* variables are set, a
// bootstrap admin account. Safe to run repeatedly; existing rows are left
// untouched.
func main() {
	log, err := logger.New("development")
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	if err := seedCatalogs(thePG); err != nil {
		log.Error("Catalog seed failed", "error", err)
		os.Exit(1)
	}
	log.Info("Catalogs seeded")

	if err := seedAdmin(thePG, log); err != nil {
		log.Error("Admin seed failed", "error", err)
		os.Exit(1)
	}
}

func seedCatalogs(pg *gorm.DB) error {
	relationshipTypes := []types.RelationshipType{
		{Nombre: "Familiar", Descripcion: "Miembros de la familia", Color: "#28a745", Activo: true},
		{Nombre: "Amigo", Descripcion: "Amistades personales", Color: "#007bff", Activo: true},
		{Nombre: "Trabajo", Descripcion: "Compañeros y contactos laborales", Color: "#6f42c1", Activo: true},
		{Nombre: "Cliente", Descripcion: "Clientes de negocio", Color: "#fd7e14", Activo: true},
		{Nombre: "Proveedor", Descripcion: "Proveedores de servicios", Color: "#20c997", Activo: true},
		{Nombre: "Otro", Descripcion: "Otros contactos", Color: "#6c757d", Activo: true},
	}
	for i := range relationshipTypes {
		rt := relationshipTypes[i]
		if err := pg.Where("nombre = ?", rt.Nombre).FirstOrCreate(&rt).Error; err != nil {
			return err
		}
	}

	phoneTypes := []types.PhoneType{
		{Nombre: "Móvil", Icono: "smartphone"},
		{Nombre: "Casa", Icono: "home"},
		{Nombre: "Trabajo", Icono: "briefcase"},
		{Nombre: "Otro", Icono: "phone"},
	}
	for i := range phoneTypes {
		pt := phoneTypes[i]
		if err := pg.Where("nombre = ?", pt.Nombre).FirstOrCreate(&pt).Error; err != nil {
			return err
		}
	}

	emailTypes := []types.EmailType{
		{Nombre: "Personal", Icono: "mail"},
		{Nombre: "Trabajo", Icono: "briefcase"},
		{Nombre: "Otro", Icono: "at-sign"},
	}
	for i := range emailTypes {
		et := emailTypes[i]
		if err := pg.Where("nombre = ?", et.Nombre).FirstOrCreate(&et).Error; err != nil {
			return err
		}
	}

	addressTypes := []types.AddressType{
		{Nombre: "Casa", Icono: "home"},
		{Nombre: "Trabajo", Icono: "briefcase"},
		{Nombre: "Temporal", Icono: "map-pin"},
		{Nombre: "Otro", Icono: "map"},
	}
	for i := range addressTypes {
		at := addressTypes[i]
		if err := pg.Where("nombre = ?", at.Nombre).FirstOrCreate(&at).Error; err != nil {
			return err
		}
	}
	return nil
}

func seedAdmin(pg *gorm.DB, log *logger.Logger) error {
	username := utils.GetEnv("ADMIN_USERNAME", "", log)
	password := utils.GetEnv("ADMIN_PASSWORD", "", log)
	email := utils.GetEnv("ADMIN_EMAIL", "", log)
	if username == "" || password == "" || email == "" {
		log.Info("ADMIN_* variables not set, skipping admin bootstrap")
		return nil
	}
	var count int64
	if err := pg.Model(&types.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Info("Admin account already exists", "username", username)
		return nil
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := &types.User{
		Username: username,
		Email:    email,
		Password: string(hashed),
		Rol:      types.RoleAdmin,
		IsActive: true,
	}
	if err := pg.Create(admin).Error; err != nil {
		return err
	}
	log.Info("Admin account created", "username", username)
	return nil
}
