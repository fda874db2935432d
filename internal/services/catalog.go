package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/taveron/agenda-backend/internal/pkg/dbctx"
	"github.com/taveron/agenda-backend/internal/pkg/logger"
	"github.com/taveron/agenda-backend/internal/platform/apierr"
	"github.com/taveron/agenda-backend/internal/repos"
	"github.com/taveron/agenda-backend/internal/requestdata"
	"github.com/taveron/agenda-backend/internal/types"
)

// RelationshipTypeInput is the admin mutation shape for relationship types.
type RelationshipTypeInput struct {
	Nombre      *string `json:"nombre"`
	Descripcion *string `json:"descripcion"`
	Color       *string `json:"color"`
	Activo      *bool   `json:"activo"`
}

type CatalogService interface {
	RelationshipTypes(ctx context.Context) ([]types.RelationshipType, error)
	PhoneTypes(ctx context.Context) ([]types.PhoneType, error)
	EmailTypes(ctx context.Context) ([]types.EmailType, error)
	AddressTypes(ctx context.Context) ([]types.AddressType, error)
	CreateRelationshipType(ctx context.Context, in RelationshipTypeInput) (*types.RelationshipType, error)
	UpdateRelationshipType(ctx context.Context, id uuid.UUID, in RelationshipTypeInput) (*types.RelationshipType, error)
	DeleteRelationshipType(ctx context.Context, id uuid.UUID) error
}

type catalogService struct {
	db          *gorm.DB
	log         *logger.Logger
	catalogRepo repos.CatalogRepo
}

func NewCatalogService(db *gorm.DB, log *logger.Logger, catalogRepo repos.CatalogRepo) CatalogService {
	return &catalogService{
		db:          db,
		log:         log.With("service", "CatalogService"),
		catalogRepo: catalogRepo,
	}
}

func (cs *catalogService) requireAdmin(ctx context.Context) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return apierr.Unauthorized("Autenticación requerida")
	}
	if !rd.IsAdmin() {
		return apierr.Forbidden("Se requieren permisos de administrador")
	}
	return nil
}

// RelationshipTypes lists only active types; inactive ones stay assignable
// on existing contacts but disappear from pickers.
func (cs *catalogService) RelationshipTypes(ctx context.Context) ([]types.RelationshipType, error) {
	return cs.catalogRepo.ListRelationshipTypes(dbctx.New(ctx), true)
}

func (cs *catalogService) PhoneTypes(ctx context.Context) ([]types.PhoneType, error) {
	return cs.catalogRepo.ListPhoneTypes(dbctx.New(ctx))
}

func (cs *catalogService) EmailTypes(ctx context.Context) ([]types.EmailType, error) {
	return cs.catalogRepo.ListEmailTypes(dbctx.New(ctx))
}

func (cs *catalogService) AddressTypes(ctx context.Context) ([]types.AddressType, error) {
	return cs.catalogRepo.ListAddressTypes(dbctx.New(ctx))
}

func (cs *catalogService) CreateRelationshipType(ctx context.Context, in RelationshipTypeInput) (*types.RelationshipType, error) {
	if err := cs.requireAdmin(ctx); err != nil {
		return nil, err
	}
	nombre := ""
	if in.Nombre != nil {
		nombre = strings.TrimSpace(*in.Nombre)
	}
	if nombre == "" {
		return nil, apierr.FieldError("nombre", "El nombre es requerido")
	}
	rt := &types.RelationshipType{Nombre: nombre, Activo: true}
	if in.Descripcion != nil {
		rt.Descripcion = strings.TrimSpace(*in.Descripcion)
	}
	if in.Color != nil {
		rt.Color = strings.TrimSpace(*in.Color)
	}
	if in.Activo != nil {
		rt.Activo = *in.Activo
	}
	if err := cs.catalogRepo.CreateRelationshipType(dbctx.New(ctx), rt); err != nil {
		return nil, err
	}
	cs.log.Info("relationship type created", "id", rt.ID, "nombre", rt.Nombre)
	return rt, nil
}

func (cs *catalogService) UpdateRelationshipType(ctx context.Context, id uuid.UUID, in RelationshipTypeInput) (*types.RelationshipType, error) {
	if err := cs.requireAdmin(ctx); err != nil {
		return nil, err
	}
	dbc := dbctx.New(ctx)
	rt, err := cs.catalogRepo.GetRelationshipType(dbc, id)
	if err != nil {
		return nil, err
	}
	if rt == nil {
		return nil, apierr.NotFound("Tipo de relación no encontrado")
	}
	if in.Nombre != nil {
		nombre := strings.TrimSpace(*in.Nombre)
		if nombre == "" {
			return nil, apierr.FieldError("nombre", "El nombre es requerido")
		}
		rt.Nombre = nombre
	}
	if in.Descripcion != nil {
		rt.Descripcion = strings.TrimSpace(*in.Descripcion)
	}
	if in.Color != nil {
		rt.Color = strings.TrimSpace(*in.Color)
	}
	if in.Activo != nil {
		rt.Activo = *in.Activo
	}
	if err := cs.catalogRepo.UpdateRelationshipType(dbc, rt); err != nil {
		return nil, err
	}
	return rt, nil
}

// DeleteRelationshipType refuses to remove a type that any contact still
// references, mirroring the protected foreign key in the database.
func (cs *catalogService) DeleteRelationshipType(ctx context.Context, id uuid.UUID) error {
	if err := cs.requireAdmin(ctx); err != nil {
		return err
	}
	dbc := dbctx.New(ctx)
	rt, err := cs.catalogRepo.GetRelationshipType(dbc, id)
	if err != nil {
		return err
	}
	if rt == nil {
		return apierr.NotFound("Tipo de relación no encontrado")
	}
	inUse, err := cs.catalogRepo.CountContactsForRelationshipType(dbc, id)
	if err != nil {
		return err
	}
	if inUse > 0 {
		return apierr.Protected(fmt.Sprintf(
			"No se puede eliminar el tipo de relación porque %d contacto(s) lo utilizan", inUse))
	}
	if err := cs.catalogRepo.DeleteRelationshipType(dbc, id); err != nil {
		return err
	}
	cs.log.Info("relationship type deleted", "id", id, "nombre", rt.Nombre)
	return nil
}
