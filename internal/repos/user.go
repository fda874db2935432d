package repos

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/taveron/agenda-backend/internal/pkg/dbctx"
	"github.com/taveron/agenda-backend/internal/pkg/logger"
	"github.com/taveron/agenda-backend/internal/types"
)

type UserRepo interface {
	Create(dbc dbctx.Context, user *types.User) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error)
	GetByUsername(dbc dbctx.Context, username string) (*types.User, error)
	GetByEmail(dbc dbctx.Context, email string) (*types.User, error)
	UsernameExists(dbc dbctx.Context, username string, excludeID uuid.UUID) (bool, error)
	EmailExists(dbc dbctx.Context, email string, excludeID uuid.UUID) (bool, error)
	List(dbc dbctx.Context) ([]types.User, error)
	Update(dbc dbctx.Context, user *types.User) error
	Delete(dbc dbctx.Context, id uuid.UUID) (int64, error)
	CountByRole(dbc dbctx.Context, role types.Role, onlyActive bool) (int64, error)
	CountAll(dbc dbctx.Context) (int64, error)
	CountActive(dbc dbctx.Context) (int64, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

func (ur *userRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return ur.db.WithContext(dbc.Ctx)
}

func (ur *userRepo) Create(dbc dbctx.Context, user *types.User) error {
	return ur.handle(dbc).Create(user).Error
}

func (ur *userRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error) {
	var user types.User
	err := ur.handle(dbc).First(&user, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (ur *userRepo) GetByUsername(dbc dbctx.Context, username string) (*types.User, error) {
	var user types.User
	err := ur.handle(dbc).First(&user, "username = ?", username).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (ur *userRepo) GetByEmail(dbc dbctx.Context, email string) (*types.User, error) {
	var user types.User
	err := ur.handle(dbc).First(&user, "email = ?", email).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (ur *userRepo) UsernameExists(dbc dbctx.Context, username string, excludeID uuid.UUID) (bool, error) {
	q := ur.handle(dbc).Model(&types.User{}).Where("username = ?", username)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	err := q.Count(&count).Error
	return count > 0, err
}

func (ur *userRepo) EmailExists(dbc dbctx.Context, email string, excludeID uuid.UUID) (bool, error) {
	q := ur.handle(dbc).Model(&types.User{}).Where("email = ?", email)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	err := q.Count(&count).Error
	return count > 0, err
}

func (ur *userRepo) List(dbc dbctx.Context) ([]types.User, error) {
	var users []types.User
	err := ur.handle(dbc).Order("created_at DESC").Find(&users).Error
	return users, err
}

func (ur *userRepo) Update(dbc dbctx.Context, user *types.User) error {
	return ur.handle(dbc).Save(user).Error
}

func (ur *userRepo) Delete(dbc dbctx.Context, id uuid.UUID) (int64, error) {
	res := ur.handle(dbc).Delete(&types.User{}, "id = ?", id)
	return res.RowsAffected, res.Error
}

func (ur *userRepo) CountByRole(dbc dbctx.Context, role types.Role, onlyActive bool) (int64, error) {
	q := ur.handle(dbc).Model(&types.User{}).Where("rol = ?", role)
	if onlyActive {
		q = q.Where("is_active = ?", true)
	}
	var count int64
	err := q.Count(&count).Error
	return count, err
}

func (ur *userRepo) CountAll(dbc dbctx.Context) (int64, error) {
	var count int64
	err := ur.handle(dbc).Model(&types.User{}).Count(&count).Error
	return count, err
}

func (ur *userRepo) CountActive(dbc dbctx.Context) (int64, error) {
	var count int64
	err := ur.handle(dbc).Model(&types.User{}).Where("is_active = ?", true).Count(&count).Error
	return count, err
}
