package repos

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/taveron/agenda-backend/internal/pkg/dbctx"
	"github.com/taveron/agenda-backend/internal/pkg/logger"
	"github.com/taveron/agenda-backend/internal/types"
)

// CatalogRepo serves the four lookup catalogs. Relationship types support
// admin CRUD with protected delete; the other three are read-only reference
// data seeded out of band.
type CatalogRepo interface {
	ListRelationshipTypes(dbc dbctx.Context, onlyActive bool) ([]types.RelationshipType, error)
	GetRelationshipType(dbc dbctx.Context, id uuid.UUID) (*types.RelationshipType, error)
	CreateRelationshipType(dbc dbctx.Context, rt *types.RelationshipType) error
	UpdateRelationshipType(dbc dbctx.Context, rt *types.RelationshipType) error
	DeleteRelationshipType(dbc dbctx.Context, id uuid.UUID) error
	CountContactsForRelationshipType(dbc dbctx.Context, id uuid.UUID) (int64, error)

	ListPhoneTypes(dbc dbctx.Context) ([]types.PhoneType, error)
	ListEmailTypes(dbc dbctx.Context) ([]types.EmailType, error)
	ListAddressTypes(dbc dbctx.Context) ([]types.AddressType, error)
	PhoneTypeExists(dbc dbctx.Context, id uuid.UUID) (bool, error)
	EmailTypeExists(dbc dbctx.Context, id uuid.UUID) (bool, error)
	AddressTypeExists(dbc dbctx.Context, id uuid.UUID) (bool, error)
}

type catalogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCatalogRepo(db *gorm.DB, baseLog *logger.Logger) CatalogRepo {
	return &catalogRepo{db: db, log: baseLog.With("repo", "CatalogRepo")}
}

func (cr *catalogRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return cr.db.WithContext(dbc.Ctx)
}

func (cr *catalogRepo) ListRelationshipTypes(dbc dbctx.Context, onlyActive bool) ([]types.RelationshipType, error) {
	var out []types.RelationshipType
	q := cr.handle(dbc).Order("nombre ASC")
	if onlyActive {
		q = q.Where("activo = ?", true)
	}
	err := q.Find(&out).Error
	return out, err
}

func (cr *catalogRepo) GetRelationshipType(dbc dbctx.Context, id uuid.UUID) (*types.RelationshipType, error) {
	var rt types.RelationshipType
	err := cr.handle(dbc).First(&rt, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

func (cr *catalogRepo) CreateRelationshipType(dbc dbctx.Context, rt *types.RelationshipType) error {
	return cr.handle(dbc).Create(rt).Error
}

func (cr *catalogRepo) UpdateRelationshipType(dbc dbctx.Context, rt *types.RelationshipType) error {
	return cr.handle(dbc).Save(rt).Error
}

func (cr *catalogRepo) DeleteRelationshipType(dbc dbctx.Context, id uuid.UUID) error {
	return cr.handle(dbc).Delete(&types.RelationshipType{}, "id = ?", id).Error
}

func (cr *catalogRepo) CountContactsForRelationshipType(dbc dbctx.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := cr.handle(dbc).Model(&types.Contact{}).Where("relationship_type_id = ?", id).Count(&count).Error
	return count, err
}

func (cr *catalogRepo) ListPhoneTypes(dbc dbctx.Context) ([]types.PhoneType, error) {
	var out []types.PhoneType
	err := cr.handle(dbc).Order("nombre ASC").Find(&out).Error
	return out, err
}

func (cr *catalogRepo) ListEmailTypes(dbc dbctx.Context) ([]types.EmailType, error) {
	var out []types.EmailType
	err := cr.handle(dbc).Order("nombre ASC").Find(&out).Error
	return out, err
}

func (cr *catalogRepo) ListAddressTypes(dbc dbctx.Context) ([]types.AddressType, error) {
	var out []types.AddressType
	err := cr.handle(dbc).Order("nombre ASC").Find(&out).Error
	return out, err
}

func (cr *catalogRepo) PhoneTypeExists(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := cr.handle(dbc).Model(&types.PhoneType{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (cr *catalogRepo) EmailTypeExists(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := cr.handle(dbc).Model(&types.EmailType{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (cr *catalogRepo) AddressTypeExists(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := cr.handle(dbc).Model(&types.AddressType{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}
