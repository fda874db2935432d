package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
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

// JWTClaims carries the identity claims of an access token. The subject is
// the user id; username, name, email and rol ride along for the client and
// the request context.
type JWTClaims struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Rol      string `json:"rol"`
	jwt.RegisteredClaims
}

type RegisterInput struct {
	Username  string `json:"username" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*types.User, error)
	Login(ctx context.Context, username, password string) (string, string, *types.User, error)
	Refresh(ctx context.Context, refreshToken string) (string, string, error)
	Logout(ctx context.Context) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	AccessTTL() time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	jwtSecretKey  string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	return &authService{
		db:            db,
		log:           log.With("service", "AuthService"),
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		jwtSecretKey:  jwtSecretKey,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// Register creates a regular account. Public registration always gets the
// "user" role; role assignment is an admin operation.
func (as *authService) Register(ctx context.Context, in RegisterInput) (*types.User, error) {
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
	dbc := dbctx.New(ctx)
	if in.Username != "" {
		exists, err := as.userRepo.UsernameExists(dbc, in.Username, uuid.Nil)
		if err != nil {
			return nil, err
		}
		if exists {
			fields["username"] = append(fields["username"], "Este nombre de usuario ya está en uso")
		}
	}
	if in.Email != "" {
		exists, err := as.userRepo.EmailExists(dbc, in.Email, uuid.Nil)
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
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &types.User{
		Username:  in.Username,
		Email:     in.Email,
		Password:  string(hashed),
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Rol:       types.RoleUser,
		Phone:     strings.TrimSpace(in.Phone),
		Address:   strings.TrimSpace(in.Address),
		IsActive:  true,
	}
	if err := as.userRepo.Create(dbc, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies the credentials and issues an access/refresh pair. The
// refresh token is a random uuid persisted server side so it can be rotated
// and revoked.
func (as *authService) Login(ctx context.Context, username, password string) (string, string, *types.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", "", nil, apierr.Unauthorized("Credenciales inválidas")
	}
	user, err := as.userRepo.GetByUsername(dbctx.New(ctx), username)
	if err != nil {
		return "", "", nil, err
	}
	if user == nil {
		return "", "", nil, apierr.Unauthorized("Credenciales inválidas")
	}
	if !user.IsActive {
		return "", "", nil, apierr.Unauthorized("Usuario inactivo")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", "", nil, apierr.Unauthorized("Credenciales inválidas")
	}

	var accessToken, refreshToken string
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		tok, genErr := as.generateAccessToken(user)
		if genErr != nil {
			return genErr
		}
		accessToken = tok
		refreshToken = uuid.New().String()
		return as.userTokenRepo.Create(dbc, &types.UserToken{
			UserID:       user.ID,
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ExpiresAt:    time.Now().Add(as.refreshTTL),
		})
	})
	if err != nil {
		return "", "", nil, err
	}
	return accessToken, refreshToken, user, nil
}

// Refresh rotates the refresh token: the old row is deleted and a new pair
// is issued in the same transaction.
func (as *authService) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return "", "", apierr.Unauthorized("Refresh token requerido")
	}
	var newAccess, newRefresh string
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		existing, err := as.userTokenRepo.GetByRefreshToken(dbc, refreshToken)
		if err != nil {
			return err
		}
		if existing == nil {
			return apierr.Unauthorized("Refresh token inválido")
		}
		if existing.ExpiresAt.Before(time.Now()) {
			if err := as.userTokenRepo.Delete(dbc, existing.ID); err != nil {
				return err
			}
			return apierr.Unauthorized("Refresh token expirado")
		}
		user, err := as.userRepo.GetByID(dbc, existing.UserID)
		if err != nil {
			return err
		}
		if user == nil || !user.IsActive {
			return apierr.Unauthorized("Usuario inactivo")
		}
		tok, err := as.generateAccessToken(user)
		if err != nil {
			return err
		}
		newAccess = tok
		newRefresh = uuid.New().String()
		if err := as.userTokenRepo.Create(dbc, &types.UserToken{
			UserID:       user.ID,
			AccessToken:  newAccess,
			RefreshToken: newRefresh,
			ExpiresAt:    time.Now().Add(as.refreshTTL),
		}); err != nil {
			return err
		}
		return as.userTokenRepo.Delete(dbc, existing.ID)
	})
	if err != nil {
		return "", "", err
	}
	return newAccess, newRefresh, nil
}

func (as *authService) Logout(ctx context.Context) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.TokenString == "" {
		return apierr.Unauthorized("No hay sesión activa")
	}
	dbc := dbctx.New(ctx)
	token, err := as.userTokenRepo.GetByAccessToken(dbc, rd.TokenString)
	if err != nil {
		return err
	}
	if token == nil {
		return nil
	}
	return as.userTokenRepo.Delete(dbc, token.ID)
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		Username: user.Username,
		Name:     user.FullName(),
		Email:    user.Email,
		Rol:      string(user.Rol),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

// SetContextFromToken verifies the access token and stores the resulting
// identity in the request context. The contact core trusts this identity as
// given; it performs no further auth beyond ownership comparison.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil {
		return ctx, apierr.Unauthorized("Token inválido o expirado")
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return ctx, apierr.Unauthorized("Token inválido o expirado")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, apierr.Unauthorized("Token inválido o expirado")
	}
	rd := &requestdata.RequestData{
		UserID:      userID,
		Username:    claims.Username,
		Role:        claims.Rol,
		TokenString: tokenString,
	}
	return requestdata.WithRequestData(ctx, rd), nil
}

func (as *authService) AccessTTL() time.Duration {
	return as.accessTTL
}
