package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/taveron/agenda-backend/internal/pkg/logger"
	"github.com/taveron/agenda-backend/internal/repos"
	"github.com/taveron/agenda-backend/internal/requestdata"
	"github.com/taveron/agenda-backend/internal/types"
)

type testEnv struct {
	db             *gorm.DB
	userRepo       repos.UserRepo
	userTokenRepo  repos.UserTokenRepo
	contactRepo    repos.ContactRepo
	catalogRepo    repos.CatalogRepo
	contactService ContactService
	userService    UserService
	catalogService CatalogService
	authService    AuthService

	owner    *types.User
	other    *types.User
	admin    *types.User
	familiar *types.RelationshipType
	trabajo  *types.RelationshipType
	movil    *types.PhoneType
	personal *types.EmailType
	casa     *types.AddressType
}

func newTestEnv(t *testing.T) *testEnv {
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

	log := logger.NewNop()
	env := &testEnv{
		db:            db,
		userRepo:      repos.NewUserRepo(db, log),
		userTokenRepo: repos.NewUserTokenRepo(db, log),
		contactRepo:   repos.NewContactRepo(db, log),
		catalogRepo:   repos.NewCatalogRepo(db, log),

		owner:    &types.User{Username: "dueno", Email: "dueno@example.com", Password: "x", Rol: types.RoleUser, IsActive: true},
		other:    &types.User{Username: "otro", Email: "otro@example.com", Password: "x", Rol: types.RoleUser, IsActive: true},
		admin:    &types.User{Username: "admin", Email: "admin@example.com", Password: "x", Rol: types.RoleAdmin, IsActive: true},
		familiar: &types.RelationshipType{Nombre: "Familiar", Color: "#28a745", Activo: true},
		trabajo:  &types.RelationshipType{Nombre: "Trabajo", Color: "#6f42c1", Activo: true},
		movil:    &types.PhoneType{Nombre: "Móvil", Icono: "smartphone"},
		personal: &types.EmailType{Nombre: "Personal", Icono: "mail"},
		casa:     &types.AddressType{Nombre: "Casa", Icono: "home"},
	}
	for _, m := range []any{env.owner, env.other, env.admin, env.familiar, env.trabajo, env.movil, env.personal, env.casa} {
		require.NoError(t, db.Create(m).Error)
	}
	env.contactService = NewContactService(db, log, env.contactRepo, env.catalogRepo, nil)
	env.userService = NewUserService(db, log, env.userRepo, env.userTokenRepo)
	env.catalogService = NewCatalogService(db, log, env.catalogRepo)
	env.authService = NewAuthService(db, log, env.userRepo, env.userTokenRepo, "test-secret", time.Hour, 24*time.Hour)
	return env
}

// as builds a context authenticated as the given user.
func (env *testEnv) as(u *types.User) context.Context {
	return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{
		UserID: u.ID,
		Role:   string(u.Rol),
	})
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
