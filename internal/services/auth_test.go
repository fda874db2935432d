package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taveron/agenda-backend/internal/pkg/dbctx"
	"github.com/taveron/agenda-backend/internal/platform/apierr"
	"github.com/taveron/agenda-backend/internal/requestdata"
	"github.com/taveron/agenda-backend/internal/types"
)

func registerAndLogin(t *testing.T, env *testEnv) (string, string, *types.User) {
	t.Helper()
	ctx := context.Background()
	_, err := env.authService.Register(ctx, RegisterInput{
		Username: "nuevo",
		Email:    "nuevo@example.com",
		Password: "secreta123",
	})
	require.NoError(t, err)
	access, refresh, user, err := env.authService.Login(ctx, "nuevo", "secreta123")
	require.NoError(t, err)
	return access, refresh, user
}

func TestAuthService_Register_ForcesUserRole(t *testing.T) {
	env := newTestEnv(t)
	user, err := env.authService.Register(context.Background(), RegisterInput{
		Username: "nuevo",
		Email:    "nuevo@example.com",
		Password: "secreta123",
	})
	require.NoError(t, err)
	require.Equal(t, types.RoleUser, user.Rol)
	require.True(t, user.IsActive)
	// The stored password is a hash of the submitted one.
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("secreta123")))
}

func TestAuthService_Register_DuplicateFieldsReportedPerField(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.authService.Register(ctx, RegisterInput{
		Username: "nuevo", Email: "nuevo@example.com", Password: "secreta123",
	})
	require.NoError(t, err)
	_, err = env.authService.Register(ctx, RegisterInput{
		Username: "nuevo", Email: "nuevo@example.com", Password: "secreta123",
	})
	require.Error(t, err)
	ae := apierr.From(err)
	require.Equal(t, http.StatusBadRequest, ae.Status)
	require.Contains(t, ae.Fields, "username")
	require.Contains(t, ae.Fields, "email")
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	env := newTestEnv(t)
	registerAndLogin(t, env)
	_, _, _, err := env.authService.Login(context.Background(), "nuevo", "equivocada")
	require.True(t, apierr.IsStatus(err, http.StatusUnauthorized))
}

func TestAuthService_Login_InactiveUserRejected(t *testing.T) {
	env := newTestEnv(t)
	_, _, user := registerAndLogin(t, env)
	user.IsActive = false
	require.NoError(t, env.db.Save(user).Error)
	_, _, _, err := env.authService.Login(context.Background(), "nuevo", "secreta123")
	require.True(t, apierr.IsStatus(err, http.StatusUnauthorized))
}

func TestAuthService_TokenRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	access, _, user := registerAndLogin(t, env)

	ctx, err := env.authService.SetContextFromToken(context.Background(), access)
	require.NoError(t, err)
	rd := requestdata.GetRequestData(ctx)
	require.NotNil(t, rd)
	require.Equal(t, user.ID, rd.UserID)
	require.Equal(t, "nuevo", rd.Username)
	require.Equal(t, string(types.RoleUser), rd.Role)

	_, err = env.authService.SetContextFromToken(context.Background(), "basura")
	require.True(t, apierr.IsStatus(err, http.StatusUnauthorized))
}

func TestAuthService_Refresh_RotatesToken(t *testing.T) {
	env := newTestEnv(t)
	_, refresh, _ := registerAndLogin(t, env)

	newAccess, newRefresh, err := env.authService.Refresh(context.Background(), refresh)
	require.NoError(t, err)
	require.NotEmpty(t, newAccess)
	require.NotEqual(t, refresh, newRefresh)

	// The old refresh token is dead after rotation.
	_, _, err = env.authService.Refresh(context.Background(), refresh)
	require.True(t, apierr.IsStatus(err, http.StatusUnauthorized))
}

func TestAuthService_Logout_DeletesSession(t *testing.T) {
	env := newTestEnv(t)
	access, refresh, user := registerAndLogin(t, env)

	ctx := requestdata.WithRequestData(context.Background(), &requestdata.RequestData{
		UserID:      user.ID,
		Role:        string(user.Rol),
		TokenString: access,
	})
	require.NoError(t, env.authService.Logout(ctx))

	tok, err := env.userTokenRepo.GetByRefreshToken(dbctx.New(context.Background()), refresh)
	require.NoError(t, err)
	require.Nil(t, tok)
}
