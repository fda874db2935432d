package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/taveron/agenda-backend/internal/clients/cache"
	"github.com/taveron/agenda-backend/internal/pkg/dbctx"
	"github.com/taveron/agenda-backend/internal/pkg/logger"
	"github.com/taveron/agenda-backend/internal/platform/apierr"
	"github.com/taveron/agenda-backend/internal/presenter"
	"github.com/taveron/agenda-backend/internal/repos"
	"github.com/taveron/agenda-backend/internal/requestdata"
	"github.com/taveron/agenda-backend/internal/types"
)

const statsCacheTTL = 5 * time.Minute

type PhoneInput struct {
	TipoID    uuid.UUID `json:"tipo_id"`
	Numero    string    `json:"numero"`
	Principal bool      `json:"principal"`
	Activo    *bool     `json:"activo"`
}

type EmailInput struct {
	TipoID    uuid.UUID `json:"tipo_id"`
	Email     string    `json:"email"`
	Principal bool      `json:"principal"`
	Activo    *bool     `json:"activo"`
}

type AddressInput struct {
	TipoID          uuid.UUID `json:"tipo_id"`
	Calle           string    `json:"calle"`
	Ciudad          string    `json:"ciudad"`
	EstadoProvincia string    `json:"estado_provincia"`
	CodigoPostal    string    `json:"codigo_postal"`
	Pais            string    `json:"pais"`
	Principal       bool      `json:"principal"`
	Activo          *bool     `json:"activo"`
}

// ContactInput is the mutation shape for create and update. Scalars are
// pointers so an update can tell "absent" from "set to zero value"; the
// child slices distinguish absent (nil, leave untouched) from present
// (replace the whole collection, empty meaning delete all).
type ContactInput struct {
	Nombre          *string        `json:"nombre"`
	ApellidoPat     *string        `json:"apellido_pat"`
	ApellidoMat     *string        `json:"apellido_mat"`
	TipoRelacionID  *uuid.UUID     `json:"tipo_relacion_id"`
	Empresa         *string        `json:"empresa"`
	Cargo           *string        `json:"cargo"`
	FechaNacimiento *time.Time     `json:"fecha_nacimiento"`
	Notas           *string        `json:"notas"`
	Favorito        *bool          `json:"favorito"`
	Activo          *bool          `json:"activo"`
	Telefonos       []PhoneInput   `json:"telefonos"`
	Emails          []EmailInput   `json:"emails"`
	Direcciones     []AddressInput `json:"direcciones"`
}

// TypeGroup is one bucket of the by-relationship-type grouping.
type TypeGroup struct {
	TipoInfo TypeInfo `json:"tipo_info"`
	Count    int      `json:"count"`
	Contacts []any    `json:"contactos"`
}

type TypeInfo struct {
	ID          uuid.UUID `json:"id"`
	Nombre      string    `json:"nombre"`
	Descripcion string    `json:"descripcion"`
	Color       string    `json:"color"`
}

type TypeBreakdown struct {
	Count int64  `json:"count"`
	Color string `json:"color"`
}

type ContactStatistics struct {
	TotalContactos     int64                    `json:"total_contactos"`
	ContactosFavoritos int64                    `json:"contactos_favoritos"`
	ContactosActivos   int64                    `json:"contactos_activos"`
	ContactosInactivos int64                    `json:"contactos_inactivos"`
	PorTipoRelacion    map[string]TypeBreakdown `json:"por_tipo_relacion"`
	ConTelefono        int64                    `json:"con_telefono"`
	ConEmail           int64                    `json:"con_email"`
	ConDireccion       int64                    `json:"con_direccion"`
}

type ContactService interface {
	Create(ctx context.Context, in ContactInput) (*types.Contact, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Contact, error)
	Update(ctx context.Context, id uuid.UUID, in ContactInput) (*types.Contact, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f repos.ContactFilter) ([]types.Contact, int64, error)
	ListAll(ctx context.Context, f repos.ContactFilter) ([]types.Contact, error)
	GroupByRelationshipType(ctx context.Context, p presenter.Projection) (map[string]TypeGroup, error)
	Statistics(ctx context.Context) (*ContactStatistics, error)
	ToggleFavorite(ctx context.Context, id uuid.UUID) (*types.Contact, string, error)
}

type contactService struct {
	db          *gorm.DB
	log         *logger.Logger
	contactRepo repos.ContactRepo
	catalogRepo repos.CatalogRepo
	cache       *cache.Cache
	validate    *validator.Validate
}

func NewContactService(
	db *gorm.DB,
	log *logger.Logger,
	contactRepo repos.ContactRepo,
	catalogRepo repos.CatalogRepo,
	statsCache *cache.Cache,
) ContactService {
	return &contactService{
		db:          db,
		log:         log.With("service", "ContactService"),
		contactRepo: contactRepo,
		catalogRepo: catalogRepo,
		cache:       statsCache,
		validate:    validator.New(),
	}
}

func (cs *contactService) owner(ctx context.Context) (uuid.UUID, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return uuid.Nil, apierr.Unauthorized("Autenticación requerida")
	}
	return rd.UserID, nil
}

func statsCacheKey(ownerID uuid.UUID) string {
	return "contact_stats:" + ownerID.String()
}

func (cs *contactService) invalidateStats(ctx context.Context, ownerID uuid.UUID) {
	cs.cache.Delete(ctx, statsCacheKey(ownerID))
}

// validateChildren checks everything that must hold before any row is
// written: phone format, email syntax, catalog references, duplicates within
// the submitted set, and at most one principal per kind.
func (cs *contactService) validateChildren(dbc dbctx.Context, in *ContactInput) error {
	fields := map[string][]string{}

	principals := 0
	seenNumbers := map[string]bool{}
	for i, p := range in.Telefonos {
		key := fmt.Sprintf("telefonos[%d]", i)
		numero := strings.TrimSpace(p.Numero)
		if !types.PhoneNumberRe.MatchString(numero) {
			fields[key] = append(fields[key], "El número de teléfono debe tener entre 9 y 15 dígitos")
		}
		if seenNumbers[numero] {
			fields[key] = append(fields[key], "Número de teléfono duplicado para este contacto")
		}
		seenNumbers[numero] = true
		if p.TipoID == uuid.Nil {
			fields[key] = append(fields[key], "El tipo de teléfono es requerido")
		} else {
			ok, err := cs.catalogRepo.PhoneTypeExists(dbc, p.TipoID)
			if err != nil {
				return err
			}
			if !ok {
				fields[key] = append(fields[key], "Tipo de teléfono inválido")
			}
		}
		if p.Principal {
			principals++
		}
	}
	if principals > 1 {
		fields["telefonos"] = append(fields["telefonos"], "Solo un teléfono puede ser principal")
	}

	principals = 0
	seenEmails := map[string]bool{}
	for i, e := range in.Emails {
		key := fmt.Sprintf("emails[%d]", i)
		email := strings.TrimSpace(e.Email)
		if err := cs.validate.Var(email, "required,email"); err != nil {
			fields[key] = append(fields[key], "Dirección de email inválida")
		}
		lower := strings.ToLower(email)
		if seenEmails[lower] {
			fields[key] = append(fields[key], "Email duplicado para este contacto")
		}
		seenEmails[lower] = true
		if e.TipoID == uuid.Nil {
			fields[key] = append(fields[key], "El tipo de email es requerido")
		} else {
			ok, err := cs.catalogRepo.EmailTypeExists(dbc, e.TipoID)
			if err != nil {
				return err
			}
			if !ok {
				fields[key] = append(fields[key], "Tipo de email inválido")
			}
		}
		if e.Principal {
			principals++
		}
	}
	if principals > 1 {
		fields["emails"] = append(fields["emails"], "Solo un email puede ser principal")
	}

	principals = 0
	for i, a := range in.Direcciones {
		key := fmt.Sprintf("direcciones[%d]", i)
		if strings.TrimSpace(a.Calle) == "" {
			fields[key] = append(fields[key], "La calle es requerida")
		}
		if strings.TrimSpace(a.Ciudad) == "" {
			fields[key] = append(fields[key], "La ciudad es requerida")
		}
		if a.TipoID == uuid.Nil {
			fields[key] = append(fields[key], "El tipo de dirección es requerido")
		} else {
			ok, err := cs.catalogRepo.AddressTypeExists(dbc, a.TipoID)
			if err != nil {
				return err
			}
			if !ok {
				fields[key] = append(fields[key], "Tipo de dirección inválido")
			}
		}
		if a.Principal {
			principals++
		}
	}
	if principals > 1 {
		fields["direcciones"] = append(fields["direcciones"], "Solo una dirección puede ser principal")
	}

	if len(fields) > 0 {
		return apierr.Validation(fields)
	}
	return nil
}

func activeOrDefault(a *bool) bool {
	if a == nil {
		return true
	}
	return *a
}

func buildPhones(in []PhoneInput) []types.ContactPhone {
	out := make([]types.ContactPhone, 0, len(in))
	for _, p := range in {
		out = append(out, types.ContactPhone{
			TypeID:    p.TipoID,
			Numero:    strings.TrimSpace(p.Numero),
			Principal: p.Principal,
			Activo:    activeOrDefault(p.Activo),
		})
	}
	return out
}

func buildEmails(in []EmailInput) []types.ContactEmail {
	out := make([]types.ContactEmail, 0, len(in))
	for _, e := range in {
		out = append(out, types.ContactEmail{
			TypeID:    e.TipoID,
			Email:     strings.TrimSpace(e.Email),
			Principal: e.Principal,
			Activo:    activeOrDefault(e.Activo),
		})
	}
	return out
}

func buildAddresses(in []AddressInput) []types.ContactAddress {
	out := make([]types.ContactAddress, 0, len(in))
	for _, a := range in {
		out = append(out, types.ContactAddress{
			TypeID:          a.TipoID,
			Calle:           strings.TrimSpace(a.Calle),
			Ciudad:          strings.TrimSpace(a.Ciudad),
			EstadoProvincia: strings.TrimSpace(a.EstadoProvincia),
			CodigoPostal:    strings.TrimSpace(a.CodigoPostal),
			Pais:            strings.TrimSpace(a.Pais),
			Principal:       a.Principal,
			Activo:          activeOrDefault(a.Activo),
		})
	}
	return out
}

// Create persists the contact and all submitted children atomically. A
// failure in any child rolls back the whole aggregate.
func (cs *contactService) Create(ctx context.Context, in ContactInput) (*types.Contact, error) {
	ownerID, err := cs.owner(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.New(ctx)

	fields := map[string][]string{}
	nombre := ""
	if in.Nombre != nil {
		nombre = strings.TrimSpace(*in.Nombre)
	}
	if nombre == "" {
		fields["nombre"] = append(fields["nombre"], "El nombre es requerido")
	}
	if in.TipoRelacionID == nil || *in.TipoRelacionID == uuid.Nil {
		fields["tipo_relacion_id"] = append(fields["tipo_relacion_id"], "El tipo de relación es requerido")
	} else {
		rt, err := cs.catalogRepo.GetRelationshipType(dbc, *in.TipoRelacionID)
		if err != nil {
			return nil, err
		}
		if rt == nil {
			fields["tipo_relacion_id"] = append(fields["tipo_relacion_id"], "Tipo de relación inválido")
		}
	}
	apellidoPat, apellidoMat := "", ""
	if in.ApellidoPat != nil {
		apellidoPat = strings.TrimSpace(*in.ApellidoPat)
	}
	if in.ApellidoMat != nil {
		apellidoMat = strings.TrimSpace(*in.ApellidoMat)
	}
	if nombre != "" {
		dup, err := cs.contactRepo.ExistsByName(dbc, ownerID, nombre, apellidoPat, apellidoMat, uuid.Nil)
		if err != nil {
			return nil, err
		}
		if dup {
			fields["non_field_errors"] = append(fields["non_field_errors"],
				"Ya existe un contacto con este nombre completo")
		}
	}
	if len(fields) > 0 {
		return nil, apierr.Validation(fields)
	}
	if err := cs.validateChildren(dbc, &in); err != nil {
		return nil, err
	}

	contact := &types.Contact{
		UserID:      ownerID,
		Nombre:      nombre,
		ApellidoPat: apellidoPat,
		ApellidoMat: apellidoMat,
		Favorito:    in.Favorito != nil && *in.Favorito,
		Activo:      in.Activo == nil || *in.Activo,
	}
	if in.TipoRelacionID != nil {
		contact.RelationshipTypeID = *in.TipoRelacionID
	}
	if in.Empresa != nil {
		contact.Empresa = strings.TrimSpace(*in.Empresa)
	}
	if in.Cargo != nil {
		contact.Cargo = strings.TrimSpace(*in.Cargo)
	}
	if in.Notas != nil {
		contact.Notas = *in.Notas
	}
	contact.FechaNacimiento = in.FechaNacimiento

	err = cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.WithTx(ctx, tx)
		if err := cs.contactRepo.Create(txc, contact); err != nil {
			return err
		}
		if len(in.Telefonos) > 0 {
			if err := cs.contactRepo.ReplacePhones(txc, contact.ID, buildPhones(in.Telefonos)); err != nil {
				return err
			}
		}
		if len(in.Emails) > 0 {
			if err := cs.contactRepo.ReplaceEmails(txc, contact.ID, buildEmails(in.Emails)); err != nil {
				return err
			}
		}
		if len(in.Direcciones) > 0 {
			if err := cs.contactRepo.ReplaceAddresses(txc, contact.ID, buildAddresses(in.Direcciones)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	cs.invalidateStats(ctx, ownerID)
	cs.log.Info("contact created", "contact_id", contact.ID, "owner_id", ownerID)
	return cs.contactRepo.GetByID(dbc, ownerID, contact.ID)
}

// load resolves an id within the caller's collection, mapping a miss to 404
// and a contact owned by someone else to 403.
func (cs *contactService) load(dbc dbctx.Context, ownerID, id uuid.UUID) (*types.Contact, error) {
	contact, err := cs.contactRepo.GetByID(dbc, ownerID, id)
	if err != nil {
		return nil, err
	}
	if contact != nil {
		return contact, nil
	}
	exists, err := cs.contactRepo.Exists(dbc, id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apierr.Forbidden("No tienes permiso para acceder a este contacto")
	}
	return nil, apierr.NotFound("Contacto no encontrado")
}

func (cs *contactService) Get(ctx context.Context, id uuid.UUID) (*types.Contact, error) {
	ownerID, err := cs.owner(ctx)
	if err != nil {
		return nil, err
	}
	return cs.load(dbctx.New(ctx), ownerID, id)
}

// Update applies a partial scalar update plus the replace semantics for each
// child kind: a nil slice leaves that kind untouched, a present slice
// (including empty) replaces the whole collection.
func (cs *contactService) Update(ctx context.Context, id uuid.UUID, in ContactInput) (*types.Contact, error) {
	ownerID, err := cs.owner(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.New(ctx)
	contact, err := cs.load(dbc, ownerID, id)
	if err != nil {
		return nil, err
	}

	fields := map[string][]string{}
	nombre, apellidoPat, apellidoMat := contact.Nombre, contact.ApellidoPat, contact.ApellidoMat
	if in.Nombre != nil {
		nombre = strings.TrimSpace(*in.Nombre)
		if nombre == "" {
			fields["nombre"] = append(fields["nombre"], "El nombre es requerido")
		}
	}
	if in.ApellidoPat != nil {
		apellidoPat = strings.TrimSpace(*in.ApellidoPat)
	}
	if in.ApellidoMat != nil {
		apellidoMat = strings.TrimSpace(*in.ApellidoMat)
	}
	if nombre != contact.Nombre || apellidoPat != contact.ApellidoPat || apellidoMat != contact.ApellidoMat {
		dup, err := cs.contactRepo.ExistsByName(dbc, ownerID, nombre, apellidoPat, apellidoMat, contact.ID)
		if err != nil {
			return nil, err
		}
		if dup {
			fields["non_field_errors"] = append(fields["non_field_errors"],
				"Ya existe un contacto con este nombre completo")
		}
	}
	if in.TipoRelacionID != nil {
		rt, err := cs.catalogRepo.GetRelationshipType(dbc, *in.TipoRelacionID)
		if err != nil {
			return nil, err
		}
		if rt == nil {
			fields["tipo_relacion_id"] = append(fields["tipo_relacion_id"], "Tipo de relación inválido")
		}
	}
	if len(fields) > 0 {
		return nil, apierr.Validation(fields)
	}
	if err := cs.validateChildren(dbc, &in); err != nil {
		return nil, err
	}

	contact.Nombre = nombre
	contact.ApellidoPat = apellidoPat
	contact.ApellidoMat = apellidoMat
	if in.TipoRelacionID != nil {
		contact.RelationshipTypeID = *in.TipoRelacionID
	}
	if in.Empresa != nil {
		contact.Empresa = strings.TrimSpace(*in.Empresa)
	}
	if in.Cargo != nil {
		contact.Cargo = strings.TrimSpace(*in.Cargo)
	}
	if in.FechaNacimiento != nil {
		contact.FechaNacimiento = in.FechaNacimiento
	}
	if in.Notas != nil {
		contact.Notas = *in.Notas
	}
	if in.Favorito != nil {
		contact.Favorito = *in.Favorito
	}
	if in.Activo != nil {
		contact.Activo = *in.Activo
	}

	err = cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.WithTx(ctx, tx)
		if err := cs.contactRepo.Update(txc, contact); err != nil {
			return err
		}
		if in.Telefonos != nil {
			if err := cs.contactRepo.ReplacePhones(txc, contact.ID, buildPhones(in.Telefonos)); err != nil {
				return err
			}
		}
		if in.Emails != nil {
			if err := cs.contactRepo.ReplaceEmails(txc, contact.ID, buildEmails(in.Emails)); err != nil {
				return err
			}
		}
		if in.Direcciones != nil {
			if err := cs.contactRepo.ReplaceAddresses(txc, contact.ID, buildAddresses(in.Direcciones)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	cs.invalidateStats(ctx, ownerID)
	return cs.contactRepo.GetByID(dbc, ownerID, contact.ID)
}

func (cs *contactService) Delete(ctx context.Context, id uuid.UUID) error {
	ownerID, err := cs.owner(ctx)
	if err != nil {
		return err
	}
	dbc := dbctx.New(ctx)
	rows, err := cs.contactRepo.Delete(dbc, ownerID, id)
	if err != nil {
		return err
	}
	if rows == 0 {
		exists, err := cs.contactRepo.Exists(dbc, id)
		if err != nil {
			return err
		}
		if exists {
			return apierr.Forbidden("No tienes permiso para eliminar este contacto")
		}
		return apierr.NotFound("Contacto no encontrado")
	}
	cs.invalidateStats(ctx, ownerID)
	cs.log.Info("contact deleted", "contact_id", id, "owner_id", ownerID)
	return nil
}

// List returns one page of the caller's contacts plus the total count of the
// filtered set before pagination.
func (cs *contactService) List(ctx context.Context, f repos.ContactFilter) ([]types.Contact, int64, error) {
	ownerID, err := cs.owner(ctx)
	if err != nil {
		return nil, 0, err
	}
	if f.Ordering != "" && !repos.OrderingAllowed(f.Ordering) {
		return nil, 0, apierr.FieldError("ordering", "Campo de ordenamiento inválido: "+f.Ordering)
	}
	dbc := dbctx.New(ctx)
	total, err := cs.contactRepo.Count(dbc, ownerID, f)
	if err != nil {
		return nil, 0, err
	}
	contacts, err := cs.contactRepo.List(dbc, ownerID, f)
	if err != nil {
		return nil, 0, err
	}
	return contacts, total, nil
}

// ListAll is the unpaginated variant used by the todos and favoritos routes.
func (cs *contactService) ListAll(ctx context.Context, f repos.ContactFilter) ([]types.Contact, error) {
	ownerID, err := cs.owner(ctx)
	if err != nil {
		return nil, err
	}
	if f.Ordering != "" && !repos.OrderingAllowed(f.Ordering) {
		return nil, apierr.FieldError("ordering", "Campo de ordenamiento inválido: "+f.Ordering)
	}
	f.Limit = 0
	f.Offset = 0
	return cs.contactRepo.List(dbctx.New(ctx), ownerID, f)
}

// GroupByRelationshipType buckets the caller's contacts under every active
// relationship type, keyed by type name. Types with no contacts still appear
// with a zero count.
func (cs *contactService) GroupByRelationshipType(ctx context.Context, p presenter.Projection) (map[string]TypeGroup, error) {
	ownerID, err := cs.owner(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.New(ctx)
	rts, err := cs.catalogRepo.ListRelationshipTypes(dbc, true)
	if err != nil {
		return nil, err
	}
	groups := make(map[string]TypeGroup, len(rts))
	for i := range rts {
		rt := &rts[i]
		contacts, err := cs.contactRepo.ListByType(dbc, ownerID, rt.ID)
		if err != nil {
			return nil, err
		}
		groups[rt.Nombre] = TypeGroup{
			TipoInfo: TypeInfo{ID: rt.ID, Nombre: rt.Nombre, Descripcion: rt.Descripcion, Color: rt.Color},
			Count:    len(contacts),
			Contacts: presenter.Contacts(contacts, p),
		}
	}
	return groups, nil
}

// Statistics serves the per-owner summary, caching the computed payload for
// a few minutes. Mutations on the owner's collection invalidate the entry.
func (cs *contactService) Statistics(ctx context.Context) (*ContactStatistics, error) {
	ownerID, err := cs.owner(ctx)
	if err != nil {
		return nil, err
	}
	key := statsCacheKey(ownerID)
	if raw, ok := cs.cache.Get(ctx, key); ok {
		var cached ContactStatistics
		if err := json.Unmarshal(raw, &cached); err == nil {
			return &cached, nil
		}
		cs.cache.Delete(ctx, key)
	}

	repoStats, err := cs.contactRepo.Stats(dbctx.New(ctx), ownerID)
	if err != nil {
		return nil, err
	}
	stats := &ContactStatistics{
		TotalContactos:     repoStats.Total,
		ContactosFavoritos: repoStats.Favoritos,
		ContactosActivos:   repoStats.Activos,
		ContactosInactivos: repoStats.Inactivos,
		PorTipoRelacion:    make(map[string]TypeBreakdown, len(repoStats.PorTipo)),
		ConTelefono:        repoStats.ConTelefono,
		ConEmail:           repoStats.ConEmail,
		ConDireccion:       repoStats.ConDireccion,
	}
	for _, tc := range repoStats.PorTipo {
		if tc.Count > 0 {
			stats.PorTipoRelacion[tc.Nombre] = TypeBreakdown{Count: tc.Count, Color: tc.Color}
		}
	}
	if raw, err := json.Marshal(stats); err == nil {
		cs.cache.Set(ctx, key, raw, statsCacheTTL)
	}
	return stats, nil
}

// ToggleFavorite flips the favorite flag and reports the new state with a
// message describing the transition.
func (cs *contactService) ToggleFavorite(ctx context.Context, id uuid.UUID) (*types.Contact, string, error) {
	ownerID, err := cs.owner(ctx)
	if err != nil {
		return nil, "", err
	}
	dbc := dbctx.New(ctx)
	contact, err := cs.load(dbc, ownerID, id)
	if err != nil {
		return nil, "", err
	}
	contact.Favorito = !contact.Favorito
	if err := cs.contactRepo.Update(dbc, contact); err != nil {
		return nil, "", err
	}
	cs.invalidateStats(ctx, ownerID)
	msg := "Contacto removido de favoritos"
	if contact.Favorito {
		msg = "Contacto agregado a favoritos"
	}
	return contact, msg, nil
}
