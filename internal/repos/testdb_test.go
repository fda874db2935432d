package repos

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/taveron/agenda-backend/internal/pkg/dbctx"
	"github.com/taveron/agenda-backend/internal/pkg/logger"
	"github.com/taveron/agenda-backend/internal/types"
)

// testDB opens a throwaway sqlite database and migrates the full schema.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
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
	))
	return db
}

type fixtures struct {
	db       *gorm.DB
	dbc      dbctx.Context
	owner    *types.User
	other    *types.User
	familiar *types.RelationshipType
	trabajo  *types.RelationshipType
	movil    *types.PhoneType
	personal *types.EmailType
	casa     *types.AddressType
}

// seedFixtures creates two users and the catalog rows every contact test
// needs.
func seedFixtures(t *testing.T, db *gorm.DB) *fixtures {
	t.Helper()
	f := &fixtures{
		db:       db,
		dbc:      dbctx.New(context.Background()),
		owner:    &types.User{Username: "dueno", Email: "dueno@example.com", Password: "x", Rol: types.RoleUser, IsActive: true},
		other:    &types.User{Username: "otro", Email: "otro@example.com", Password: "x", Rol: types.RoleUser, IsActive: true},
		familiar: &types.RelationshipType{Nombre: "Familiar", Color: "#28a745", Activo: true},
		trabajo:  &types.RelationshipType{Nombre: "Trabajo", Color: "#6f42c1", Activo: true},
		movil:    &types.PhoneType{Nombre: "Móvil", Icono: "smartphone"},
		personal: &types.EmailType{Nombre: "Personal", Icono: "mail"},
		casa:     &types.AddressType{Nombre: "Casa", Icono: "home"},
	}
	for _, m := range []any{f.owner, f.other, f.familiar, f.trabajo, f.movil, f.personal, f.casa} {
		require.NoError(t, db.Create(m).Error)
	}
	return f
}

func testLogger() *logger.Logger {
	return logger.NewNop()
}
