package services

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taveron/agenda-backend/internal/platform/apierr"
	"github.com/taveron/agenda-backend/internal/types"
)

func TestUserService_UpdateProfile_IgnoresRoleForRegularUsers(t *testing.T) {
	env := newTestEnv(t)
	user, err := env.userService.UpdateProfile(env.as(env.owner), UserUpdateInput{
		FirstName: strPtr("Ana"),
		Rol:       strPtr("admin"),
	})
	require.NoError(t, err)
	require.Equal(t, "Ana", user.FirstName)
	require.Equal(t, types.RoleUser, user.Rol)
}

func TestUserService_AdminUpdate_AssignsRole(t *testing.T) {
	env := newTestEnv(t)
	user, err := env.userService.AdminUpdate(env.as(env.admin), env.owner.ID, UserUpdateInput{
		Rol: strPtr("moderator"),
	})
	require.NoError(t, err)
	require.Equal(t, types.RoleModerator, user.Rol)

	_, err = env.userService.AdminUpdate(env.as(env.admin), env.owner.ID, UserUpdateInput{
		Rol: strPtr("superuser"),
	})
	require.Error(t, err)
	require.Contains(t, apierr.From(err).Fields, "rol")
}

func TestUserService_Create_AdminProvisionsAccountWithRole(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.userService.Create(env.as(env.owner), UserCreateInput{
		Username: "nuevo", Email: "nuevo@example.com", Password: "secreta123",
	})
	require.True(t, apierr.IsStatus(err, http.StatusForbidden))

	user, err := env.userService.Create(env.as(env.admin), UserCreateInput{
		Username: "moderadora",
		Email:    "mod@example.com",
		Password: "secreta123",
		Rol:      "moderator",
		IsActive: boolPtr(false),
	})
	require.NoError(t, err)
	require.Equal(t, types.RoleModerator, user.Rol)
	require.False(t, user.IsActive)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("secreta123")))

	// The inactive state survives the round trip.
	got, err := env.userService.Get(env.as(env.admin), user.ID)
	require.NoError(t, err)
	require.False(t, got.IsActive)
}

func TestUserService_Create_ValidationErrors(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.userService.Create(env.as(env.admin), UserCreateInput{
		Username: "dueno",
		Email:    "dueno@example.com",
		Password: "corta",
		Rol:      "superuser",
	})
	require.Error(t, err)
	ae := apierr.From(err)
	require.Equal(t, http.StatusBadRequest, ae.Status)
	require.Contains(t, ae.Fields, "username")
	require.Contains(t, ae.Fields, "email")
	require.Contains(t, ae.Fields, "password")
	require.Contains(t, ae.Fields, "rol")
}

func TestUserService_List_AdminOnly(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.userService.List(env.as(env.owner))
	require.True(t, apierr.IsStatus(err, http.StatusForbidden))

	users, err := env.userService.List(env.as(env.admin))
	require.NoError(t, err)
	require.Len(t, users, 3)
}

func TestUserService_Get_SelfOrAdmin(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.userService.Get(env.as(env.owner), env.other.ID)
	require.True(t, apierr.IsStatus(err, http.StatusForbidden))

	user, err := env.userService.Get(env.as(env.owner), env.owner.ID)
	require.NoError(t, err)
	require.Equal(t, env.owner.ID, user.ID)

	user, err = env.userService.Get(env.as(env.admin), env.owner.ID)
	require.NoError(t, err)
	require.Equal(t, env.owner.ID, user.ID)
}

func TestUserService_ChangePassword(t *testing.T) {
	env := newTestEnv(t)
	hashed, err := bcrypt.GenerateFromPassword([]byte("anterior123"), bcrypt.DefaultCost)
	require.NoError(t, err)
	env.owner.Password = string(hashed)
	require.NoError(t, env.db.Save(env.owner).Error)

	err = env.userService.ChangePassword(env.as(env.owner), "equivocada", "nueva12345")
	require.Error(t, err)
	require.Contains(t, apierr.From(err).Fields, "old_password")

	err = env.userService.ChangePassword(env.as(env.owner), "anterior123", "corta")
	require.Error(t, err)
	require.Contains(t, apierr.From(err).Fields, "new_password")

	require.NoError(t, env.userService.ChangePassword(env.as(env.owner), "anterior123", "nueva12345"))
}

func TestUserService_Delete_LastAdminProtected(t *testing.T) {
	env := newTestEnv(t)
	err := env.userService.Delete(env.as(env.admin), env.admin.ID, true)
	require.Error(t, err)
	require.Contains(t, apierr.From(err).Fields, "non_field_errors")
}

func TestUserService_Delete_AdminSelfDeleteNeedsConfirmation(t *testing.T) {
	env := newTestEnv(t)
	second := &types.User{Username: "admin2", Email: "admin2@example.com", Password: "x", Rol: types.RoleAdmin, IsActive: true}
	require.NoError(t, env.db.Create(second).Error)

	// Deleting another admin needs no confirmation.
	require.NoError(t, env.userService.Delete(env.as(env.admin), second.ID, false))

	require.NoError(t, env.db.Create(&types.User{
		Username: "admin3", Email: "admin3@example.com", Password: "x", Rol: types.RoleAdmin, IsActive: true,
	}).Error)

	// Deleting one's own admin account does.
	err := env.userService.Delete(env.as(env.admin), env.admin.ID, false)
	require.Error(t, err)
	require.Contains(t, apierr.From(err).Fields, "confirm_admin_deletion")

	require.NoError(t, env.userService.Delete(env.as(env.admin), env.admin.ID, true))
}

func TestUserService_Delete_SelfAllowedAdminRequiredForOthers(t *testing.T) {
	env := newTestEnv(t)
	err := env.userService.Delete(env.as(env.owner), env.other.ID, false)
	require.True(t, apierr.IsStatus(err, http.StatusForbidden))

	require.NoError(t, env.userService.Delete(env.as(env.owner), env.owner.ID, false))
}

func TestUserService_ToggleActive_LastActiveAdminProtected(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.userService.ToggleActive(env.as(env.admin), env.admin.ID)
	require.Error(t, err)
	require.Contains(t, apierr.From(err).Fields, "non_field_errors")

	// With a second active admin the toggle goes through.
	second := &types.User{Username: "admin2", Email: "admin2@example.com", Password: "x", Rol: types.RoleAdmin, IsActive: true}
	require.NoError(t, env.db.Create(second).Error)
	user, msg, err := env.userService.ToggleActive(env.as(env.admin), env.admin.ID)
	require.NoError(t, err)
	require.False(t, user.IsActive)
	require.Equal(t, "Usuario desactivado correctamente", msg)
}

func TestUserService_ToggleActive_RegularUserRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	user, _, err := env.userService.ToggleActive(env.as(env.admin), env.owner.ID)
	require.NoError(t, err)
	require.False(t, user.IsActive)

	user, msg, err := env.userService.ToggleActive(env.as(env.admin), env.owner.ID)
	require.NoError(t, err)
	require.True(t, user.IsActive)
	require.Equal(t, "Usuario activado correctamente", msg)
}

func TestUserService_Stats(t *testing.T) {
	env := newTestEnv(t)
	env.other.IsActive = false
	require.NoError(t, env.db.Save(env.other).Error)

	stats, err := env.userService.Stats(env.as(env.admin))
	require.NoError(t, err)
	require.EqualValues(t, 3, stats.TotalUsers)
	require.EqualValues(t, 2, stats.ActiveUsers)
	require.EqualValues(t, 1, stats.InactiveUsers)
	require.EqualValues(t, 1, stats.Admins)
	require.EqualValues(t, 2, stats.RegularUsers)

	_, err = env.userService.Stats(env.as(env.owner))
	require.True(t, apierr.IsStatus(err, http.StatusForbidden))
}
