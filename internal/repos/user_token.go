package repos

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/taveron/agenda-backend/internal/pkg/dbctx"
	"github.com/taveron/agenda-backend/internal/pkg/logger"
	"github.com/taveron/agenda-backend/internal/types"
)

type UserTokenRepo interface {
	Create(dbc dbctx.Context, token *types.UserToken) error
	GetByAccessToken(dbc dbctx.Context, accessToken string) (*types.UserToken, error)
	GetByRefreshToken(dbc dbctx.Context, refreshToken string) (*types.UserToken, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
	DeleteForUser(dbc dbctx.Context, userID uuid.UUID) error
}

type userTokenRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserTokenRepo(db *gorm.DB, baseLog *logger.Logger) UserTokenRepo {
	return &userTokenRepo{db: db, log: baseLog.With("repo", "UserTokenRepo")}
}

func (tr *userTokenRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return tr.db.WithContext(dbc.Ctx)
}

func (tr *userTokenRepo) Create(dbc dbctx.Context, token *types.UserToken) error {
	return tr.handle(dbc).Create(token).Error
}

func (tr *userTokenRepo) GetByAccessToken(dbc dbctx.Context, accessToken string) (*types.UserToken, error) {
	var token types.UserToken
	err := tr.handle(dbc).First(&token, "access_token = ?", accessToken).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (tr *userTokenRepo) GetByRefreshToken(dbc dbctx.Context, refreshToken string) (*types.UserToken, error) {
	var token types.UserToken
	err := tr.handle(dbc).First(&token, "refresh_token = ?", refreshToken).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (tr *userTokenRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	return tr.handle(dbc).Delete(&types.UserToken{}, "id = ?", id).Error
}

func (tr *userTokenRepo) DeleteForUser(dbc dbctx.Context, userID uuid.UUID) error {
	return tr.handle(dbc).Where("user_id = ?", userID).Delete(&types.UserToken{}).Error
}
