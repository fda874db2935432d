package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/taveron/agenda-backend/internal/pkg/dbctx"
	"github.com/taveron/agenda-backend/internal/pkg/logger"
	"github.com/taveron/agenda-backend/internal/platform/apierr"
	"github.com/taveron/agenda-backend/internal/repos"
	"github.com/taveron/agenda-backend/internal/requestdata"
	"github.com/taveron/agenda-backend/internal/types"
)

// UserUpdateInput is the partial update shape for both the self-service
// profile route and the admin user routes. Rol is honored only for admins;
// for everyone else it is silently ignored.
type UserUpdateInput struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	Address   *string `json:"address"`
	Rol       *string `json:"rol"`
	IsActive  *bool   `json:"is_active"`
}

// UserCreateInput is the admin create shape. Unlike public registration it
// accepts a role and an initial activation state.
type UserCreateInput struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Rol       string `json:"rol"`
	IsActive  *bool  `json:"is_active"`
}

type UserStats struct {
	TotalUsers    int64 `json:"total_users"`
	ActiveUsers   int64 `json:"active_users"`
	InactiveUsers int64 `json:"inactive_users"`
	Admins        int64 `json:"admins"`
	Moderators    int64 `json:"moderators"`
	RegularUsers  int64 `json:"regular_users"`
}

type UserService interface {
	Profile(ctx context.Context) (*types.User, error)
	UpdateProfile(ctx context.Context, in UserUpdateInput) (*types.User, error)
	ChangePassword(ctx context.Context, oldPassword, newPassword string) error
	List(ctx context.Context) ([]types.User, error)
	Create(ctx context.Context, in UserCreateInput) (*types.User, error)
	Get(ctx context.Context, id uuid.UUID) (*types.User, error)
	AdminUpdate(ctx context.Context, id uuid.UUID, in UserUpdateInput) (*types.User, error)
	Delete(ctx context.Context, id uuid.UUID, confirmAdminDeletion bool) error
	ToggleActive(ctx context.Context, id uuid.UUID) (*types.User, string, error)
	Stats(ctx context.Context) (*UserStats, error)
}

type userService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
}

func NewUserService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
) UserService {
	return &userService{
		db:            db,
		log:           log.With("service", "UserService"),
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
	}
}

func (us *userService) caller(ctx context.Context) (*requestdata.RequestData, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized("Autenticación requerida")
	}
	return rd, nil
}

func (us *userService) requireAdmin(ctx context.Context) (*requestdata.RequestData, error) {
	rd, err := us.caller(ctx)
	if err != nil {
		return nil, err
	}
	if !rd.IsAdmin() {
		return nil, apierr.Forbidden("Se requieren permisos de administrador")
	}
	return rd, nil
}

func (us *userService) Profile(ctx context.Context) (*types.User, error) {
	rd, err := us.caller(ctx)
	if err != nil {
		return nil, err
	}
	user, err := us.userRepo.GetByID(dbctx.New(ctx), rd.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apierr.NotFound("Usuario no encontrado")
	}
	return user, nil
}

func (us *userService) UpdateProfile(ctx context.Context, in UserUpdateInput) (*types.User, error) {
	rd, err := us.caller(ctx)
	if err != nil {
		return nil, err
	}
	// A non-admin cannot escalate through the profile route.
	if !rd.IsAdmin() {
		in.Rol = nil
		in.IsActive = nil
	}
	return us.applyUpdate(ctx, rd.UserID, in)
}

func (us *userService) applyUpdate(ctx context.Context, id uuid.UUID, in UserUpdateInput) (*types.User, error) {
	dbc := dbctx.New(ctx)
	user, err := us.userRepo.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apierr.NotFound("Usuario no encontrado")
	}

	fields := map[string][]string{}
	if in.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*in.Email))
		if email == "" {
			fields["email"] = append(fields["email"], "El email es requerido")
		} else if email != user.Email {
			exists, err := us.userRepo.EmailExists(dbc, email, user.ID)
			if err != nil {
				return nil, err
			}
			if exists {
				fields["email"] = append(fields["email"], "Este email ya está registrado")
			}
		}
		user.Email = email
	}
	if in.Rol != nil {
		role := types.Role(*in.Rol)
		if !role.Valid() {
			fields["rol"] = append(fields["rol"], "Rol inválido")
		} else {
			user.Rol = role
		}
	}
	if len(fields) > 0 {
		return nil, apierr.Validation(fields)
	}

	if in.FirstName != nil {
		user.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		user.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Phone != nil {
		user.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Address != nil {
		user.Address = strings.TrimSpace(*in.Address)
	}
	if in.IsActive != nil {
		user.IsActive = *in.IsActive
	}
	if err := us.userRepo.Update(dbc, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (us *userService) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	rd, err := us.caller(ctx)
	if err != nil {
		return err
	}
	dbc := dbctx.New(ctx)
	user, err := us.userRepo.GetByID(dbc, rd.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return apierr.NotFound("Usuario no encontrado")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
		return apierr.FieldError("old_password", "La contraseña actual es incorrecta")
	}
	if len(newPassword) < 8 {
		return apierr.FieldError("new_password", "La contraseña debe tener al menos 8 caracteres")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.Password = string(hashed)
	return us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.WithTx(ctx, tx)
		if err := us.userRepo.Update(txc, user); err != nil {
			return err
		}
		// Existing sessions die with the old password.
		return us.userTokenRepo.DeleteForUser(txc, user.ID)
	})
}

func (us *userService) List(ctx context.Context) ([]types.User, error) {
	if _, err := us.requireAdmin(ctx); err != nil {
		return nil, err
	}
	return us.userRepo.List(dbctx.New(ctx))
}

// Create lets an admin provision an account directly, role included.
func (us *userService) Create(ctx context.Context, in UserCreateInput) (*types.User, error) {
	rd, err := us.requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	fields := map[string][]string{}
	if in.Username == "" {
		fields["username"] = append(fields["username"], "El nombre de usuario es requerido")
	}
	if in.Email == "" {
		fields["email"] = append(fields["email"], "El email es requerido")
	}
	if len(in.Password) < 8 {
		fields["password"] = append(fields["password"], "La contraseña debe tener al menos 8 caracteres")
	}
	role := types.RoleUser
	if in.Rol != "" {
		role = types.Role(in.Rol)
		if !role.Valid() {
			fields["rol"] = append(fields["rol"], "Rol inválido")
		}
	}
	dbc := dbctx.New(ctx)
	if in.Username != "" {
		exists, err := us.userRepo.UsernameExists(dbc, in.Username, uuid.Nil)
		if err != nil {
			return nil, err
		}
		if exists {
			fields["username"] = append(fields["username"], "Este nombre de usuario ya está en uso")
		}
	}
	if in.Email != "" {
		exists, err := us.userRepo.EmailExists(dbc, in.Email, uuid.Nil)
		if err != nil {
			return nil, err
		}
		if exists {
			fields["email"] = append(fields["email"], "Este email ya está registrado")
		}
	}
	if len(fields) > 0 {
		return nil, apierr.Validation(fields)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &types.User{
		Username:  in.Username,
		Email:     in.Email,
		Password:  string(hashed),
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Rol:       role,
		Phone:     strings.TrimSpace(in.Phone),
		Address:   strings.TrimSpace(in.Address),
		IsActive:  in.IsActive == nil || *in.IsActive,
	}
	if err := us.userRepo.Create(dbc, user); err != nil {
		return nil, err
	}
	us.log.Info("user created", "user_id", user.ID, "rol", user.Rol, "by", rd.UserID)
	return user, nil
}

// Get serves a user record to admins and to the user themselves.
func (us *userService) Get(ctx context.Context, id uuid.UUID) (*types.User, error) {
	rd, err := us.caller(ctx)
	if err != nil {
		return nil, err
	}
	if !rd.IsAdmin() && rd.UserID != id {
		return nil, apierr.Forbidden("No tienes permiso para ver este usuario")
	}
	user, err := us.userRepo.GetByID(dbctx.New(ctx), id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apierr.NotFound("Usuario no encontrado")
	}
	return user, nil
}

func (us *userService) AdminUpdate(ctx context.Context, id uuid.UUID, in UserUpdateInput) (*types.User, error) {
	if _, err := us.requireAdmin(ctx); err != nil {
		return nil, err
	}
	return us.applyUpdate(ctx, id, in)
}

// Delete removes a user. Admins can delete anyone; a user can delete their
// own account. The last admin of the system can never be deleted, and an
// admin deleting their own account must send the explicit confirmation flag.
func (us *userService) Delete(ctx context.Context, id uuid.UUID, confirmAdminDeletion bool) error {
	rd, err := us.caller(ctx)
	if err != nil {
		return err
	}
	if !rd.IsAdmin() && rd.UserID != id {
		return apierr.Forbidden("No tienes permiso para eliminar este usuario")
	}
	dbc := dbctx.New(ctx)
	target, err := us.userRepo.GetByID(dbc, id)
	if err != nil {
		return err
	}
	if target == nil {
		return apierr.NotFound("Usuario no encontrado")
	}
	if target.IsAdmin() {
		admins, err := us.userRepo.CountByRole(dbc, types.RoleAdmin, false)
		if err != nil {
			return err
		}
		if admins <= 1 {
			return apierr.FieldError("non_field_errors",
				"No se puede eliminar el último administrador del sistema")
		}
		if rd.UserID == id && !confirmAdminDeletion {
			return apierr.FieldError("confirm_admin_deletion",
				"Debes confirmar la eliminación de tu propia cuenta de administrador")
		}
	}
	return us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.WithTx(ctx, tx)
		if err := us.userTokenRepo.DeleteForUser(txc, id); err != nil {
			return err
		}
		rows, err := us.userRepo.Delete(txc, id)
		if err != nil {
			return err
		}
		if rows == 0 {
			return apierr.NotFound("Usuario no encontrado")
		}
		us.log.Info("user deleted", "user_id", id, "by", rd.UserID)
		return nil
	})
}

// ToggleActive flips the activation state. Deactivating the last active
// admin is refused so the system always has a working admin account.
func (us *userService) ToggleActive(ctx context.Context, id uuid.UUID) (*types.User, string, error) {
	rd, err := us.requireAdmin(ctx)
	if err != nil {
		return nil, "", err
	}
	dbc := dbctx.New(ctx)
	target, err := us.userRepo.GetByID(dbc, id)
	if err != nil {
		return nil, "", err
	}
	if target == nil {
		return nil, "", apierr.NotFound("Usuario no encontrado")
	}
	if target.IsAdmin() && target.IsActive {
		activeAdmins, err := us.userRepo.CountByRole(dbc, types.RoleAdmin, true)
		if err != nil {
			return nil, "", err
		}
		if activeAdmins <= 1 {
			return nil, "", apierr.FieldError("non_field_errors",
				"No se puede desactivar el último administrador activo del sistema")
		}
	}
	target.IsActive = !target.IsActive
	err = us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.WithTx(ctx, tx)
		if err := us.userRepo.Update(txc, target); err != nil {
			return err
		}
		if !target.IsActive {
			return us.userTokenRepo.DeleteForUser(txc, target.ID)
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	msg := "Usuario desactivado correctamente"
	if target.IsActive {
		msg = "Usuario activado correctamente"
	}
	us.log.Info("user activation toggled", "user_id", id, "is_active", target.IsActive, "by", rd.UserID)
	return target, msg, nil
}

func (us *userService) Stats(ctx context.Context) (*UserStats, error) {
	if _, err := us.requireAdmin(ctx); err != nil {
		return nil, err
	}
	dbc := dbctx.New(ctx)
	stats := &UserStats{}
	var err error
	if stats.TotalUsers, err = us.userRepo.CountAll(dbc); err != nil {
		return nil, err
	}
	if stats.ActiveUsers, err = us.userRepo.CountActive(dbc); err != nil {
		return nil, err
	}
	stats.InactiveUsers = stats.TotalUsers - stats.ActiveUsers
	if stats.Admins, err = us.userRepo.CountByRole(dbc, types.RoleAdmin, false); err != nil {
		return nil, err
	}
	if stats.Moderators, err = us.userRepo.CountByRole(dbc, types.RoleModerator, false); err != nil {
		return nil, err
	}
	if stats.RegularUsers, err = us.userRepo.CountByRole(dbc, types.RoleUser, false); err != nil {
		return nil, err
	}
	return stats, nil
}
