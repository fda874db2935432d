package repos

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/taveron/agenda-backend/internal/pkg/dbctx"
	"github.com/taveron/agenda-backend/internal/pkg/logger"
	"github.com/taveron/agenda-backend/internal/types"
)

// ContactFilter is the optional filter specification for List. All criteria
// are conjunctive; Term is itself an OR across the searchable fields,
// including phone numbers and email addresses of the contact's children.
type ContactFilter struct {
	Term               string
	RelationshipTypeID *uuid.UUID
	Favorito           *bool
	Empresa            string
	Activo             *bool
	Ordering           string
	Limit              int
	Offset             int
}

// TypeCount is one per-relationship-type entry of the statistics breakdown.
type TypeCount struct {
	Nombre string
	Color  string
	Count  int64
}

type ContactStats struct {
	Total        int64
	Favoritos    int64
	Activos      int64
	Inactivos    int64
	ConTelefono  int64
	ConEmail     int64
	ConDireccion int64
	PorTipo      []TypeCount
}

// allowedOrdering maps API ordering names to SQL expressions. Anything not
// in this map is rejected by the service layer.
var allowedOrdering = map[string]string{
	"nombre":                "contacts.nombre",
	"apellido_pat":          "contacts.apellido_pat",
	"created_at":            "contacts.created_at",
	"updated_at":            "contacts.updated_at",
	"empresa":               "contacts.empresa",
	"favorito":              "contacts.favorito",
	"tipo_relacion__nombre": "relationship_types.nombre",
}

// OrderingAllowed reports whether field (optionally "-" prefixed) is a
// valid ordering key.
func OrderingAllowed(field string) bool {
	_, ok := allowedOrdering[strings.TrimPrefix(field, "-")]
	return ok
}

// ContactRepo is the ownership-scoped repository for the contact aggregate.
// Every read and mutation takes the owner id as an implicit filter; a query
// never returns, and a mutation never touches, a contact belonging to a
// different owner.
type ContactRepo interface {
	Create(dbc dbctx.Context, contact *types.Contact) error
	GetByID(dbc dbctx.Context, ownerID, id uuid.UUID) (*types.Contact, error)
	Exists(dbc dbctx.Context, id uuid.UUID) (bool, error)
	ExistsByName(dbc dbctx.Context, ownerID uuid.UUID, nombre, apellidoPat, apellidoMat string, excludeID uuid.UUID) (bool, error)
	List(dbc dbctx.Context, ownerID uuid.UUID, f ContactFilter) ([]types.Contact, error)
	Count(dbc dbctx.Context, ownerID uuid.UUID, f ContactFilter) (int64, error)
	Update(dbc dbctx.Context, contact *types.Contact) error
	Delete(dbc dbctx.Context, ownerID, id uuid.UUID) (int64, error)
	ListByType(dbc dbctx.Context, ownerID, typeID uuid.UUID) ([]types.Contact, error)
	ReplacePhones(dbc dbctx.Context, contactID uuid.UUID, phones []types.ContactPhone) error
	ReplaceEmails(dbc dbctx.Context, contactID uuid.UUID, emails []types.ContactEmail) error
	ReplaceAddresses(dbc dbctx.Context, contactID uuid.UUID, addresses []types.ContactAddress) error
	Stats(dbc dbctx.Context, ownerID uuid.UUID) (*ContactStats, error)
}

type contactRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContactRepo(db *gorm.DB, baseLog *logger.Logger) ContactRepo {
	return &contactRepo{db: db, log: baseLog.With("repo", "ContactRepo")}
}

func (cr *contactRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return cr.db.WithContext(dbc.Ctx)
}

func (cr *contactRepo) Create(dbc dbctx.Context, contact *types.Contact) error {
	return cr.handle(dbc).Create(contact).Error
}

// GetByID eager-loads the relationship type and all three child collections,
// each child with its own type, so callers never issue per-row lookups.
// Returns nil when no contact with that id belongs to ownerID.
func (cr *contactRepo) GetByID(dbc dbctx.Context, ownerID, id uuid.UUID) (*types.Contact, error) {
	var contact types.Contact
	err := cr.handle(dbc).
		Preload("RelationshipType").
		Preload("Telefonos.Tipo").
		Preload("Emails.Tipo").
		Preload("Direcciones.Tipo").
		Where("contacts.user_id = ?", ownerID).
		First(&contact, "contacts.id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

// Exists checks the id across all owners. Services use it to distinguish
// "not yours" (403) from "does not exist" (404).
func (cr *contactRepo) Exists(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := cr.handle(dbc).Model(&types.Contact{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (cr *contactRepo) ExistsByName(dbc dbctx.Context, ownerID uuid.UUID, nombre, apellidoPat, apellidoMat string, excludeID uuid.UUID) (bool, error) {
	q := cr.handle(dbc).Model(&types.Contact{}).
		Where("user_id = ? AND nombre = ? AND apellido_pat = ? AND apellido_mat = ?",
			ownerID, nombre, apellidoPat, apellidoMat)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	err := q.Count(&count).Error
	return count > 0, err
}

// filtered builds the composed filter query. The free-text term is matched
// through an id subquery with LEFT JOINs on the phone and email tables, so a
// contact matching through several children still appears exactly once.
func (cr *contactRepo) filtered(dbc dbctx.Context, ownerID uuid.UUID, f ContactFilter) *gorm.DB {
	q := cr.handle(dbc).Model(&types.Contact{}).Where("contacts.user_id = ?", ownerID)

	if term := strings.TrimSpace(f.Term); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		sub := cr.handle(dbc).Model(&types.Contact{}).
			Select("contacts.id").
			Joins("LEFT JOIN contact_phones ON contact_phones.contact_id = contacts.id").
			Joins("LEFT JOIN contact_emails ON contact_emails.contact_id = contacts.id").
			Where("contacts.user_id = ?", ownerID).
			Where(`LOWER(contacts.nombre) LIKE ?
				OR LOWER(contacts.apellido_pat) LIKE ?
				OR LOWER(contacts.apellido_mat) LIKE ?
				OR LOWER(contacts.empresa) LIKE ?
				OR LOWER(contacts.cargo) LIKE ?
				OR LOWER(contacts.notas) LIKE ?
				OR LOWER(contact_phones.numero) LIKE ?
				OR LOWER(contact_emails.email) LIKE ?`,
				like, like, like, like, like, like, like, like)
		q = q.Where("contacts.id IN (?)", sub)
	}
	if f.RelationshipTypeID != nil {
		q = q.Where("contacts.relationship_type_id = ?", *f.RelationshipTypeID)
	}
	if f.Favorito != nil {
		q = q.Where("contacts.favorito = ?", *f.Favorito)
	}
	if empresa := strings.TrimSpace(f.Empresa); empresa != "" {
		q = q.Where("LOWER(contacts.empresa) LIKE ?", "%"+strings.ToLower(empresa)+"%")
	}
	if f.Activo != nil {
		q = q.Where("contacts.activo = ?", *f.Activo)
	}
	return q
}

func (cr *contactRepo) List(dbc dbctx.Context, ownerID uuid.UUID, f ContactFilter) ([]types.Contact, error) {
	q := cr.filtered(dbc, ownerID, f)

	ordering := strings.TrimSpace(f.Ordering)
	if ordering == "" {
		q = q.Order("contacts.nombre ASC").Order("contacts.apellido_pat ASC")
	} else {
		field := strings.TrimPrefix(ordering, "-")
		col, ok := allowedOrdering[field]
		if !ok {
			// Services validate first; an unknown key here falls back to the
			// default order rather than injecting raw input into SQL.
			q = q.Order("contacts.nombre ASC").Order("contacts.apellido_pat ASC")
		} else {
			if field == "tipo_relacion__nombre" {
				q = q.Joins("JOIN relationship_types ON relationship_types.id = contacts.relationship_type_id")
			}
			dir := "ASC"
			if strings.HasPrefix(ordering, "-") {
				dir = "DESC"
			}
			q = q.Order(col + " " + dir)
		}
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var contacts []types.Contact
	err := q.
		Preload("RelationshipType").
		Preload("Telefonos.Tipo").
		Preload("Emails.Tipo").
		Preload("Direcciones.Tipo").
		Find(&contacts).Error
	return contacts, err
}

func (cr *contactRepo) Count(dbc dbctx.Context, ownerID uuid.UUID, f ContactFilter) (int64, error) {
	var count int64
	err := cr.filtered(dbc, ownerID, f).Count(&count).Error
	return count, err
}

func (cr *contactRepo) Update(dbc dbctx.Context, contact *types.Contact) error {
	// Save only the contact row; children are managed through the Replace
	// helpers so a scalar update can never silently rewrite them.
	return cr.handle(dbc).Omit("Telefonos", "Emails", "Direcciones", "RelationshipType").Save(contact).Error
}

func (cr *contactRepo) Delete(dbc dbctx.Context, ownerID, id uuid.UUID) (int64, error) {
	res := cr.handle(dbc).Where("user_id = ?", ownerID).Delete(&types.Contact{}, "id = ?", id)
	return res.RowsAffected, res.Error
}

func (cr *contactRepo) ListByType(dbc dbctx.Context, ownerID, typeID uuid.UUID) ([]types.Contact, error) {
	var contacts []types.Contact
	err := cr.handle(dbc).
		Preload("RelationshipType").
		Preload("Telefonos.Tipo").
		Preload("Emails.Tipo").
		Preload("Direcciones.Tipo").
		Where("contacts.user_id = ? AND contacts.relationship_type_id = ?", ownerID, typeID).
		Order("contacts.nombre ASC").Order("contacts.apellido_pat ASC").
		Find(&contacts).Error
	return contacts, err
}

// ReplacePhones implements the all-or-nothing replace of a child kind:
// delete every existing row for the contact, then insert the new set. The
// caller wraps this in a transaction together with the other kinds.
func (cr *contactRepo) ReplacePhones(dbc dbctx.Context, contactID uuid.UUID, phones []types.ContactPhone) error {
	h := cr.handle(dbc)
	if err := h.Where("contact_id = ?", contactID).Delete(&types.ContactPhone{}).Error; err != nil {
		return err
	}
	if len(phones) == 0 {
		return nil
	}
	for i := range phones {
		phones[i].ContactID = contactID
	}
	return h.Create(&phones).Error
}

func (cr *contactRepo) ReplaceEmails(dbc dbctx.Context, contactID uuid.UUID, emails []types.ContactEmail) error {
	h := cr.handle(dbc)
	if err := h.Where("contact_id = ?", contactID).Delete(&types.ContactEmail{}).Error; err != nil {
		return err
	}
	if len(emails) == 0 {
		return nil
	}
	for i := range emails {
		emails[i].ContactID = contactID
	}
	return h.Create(&emails).Error
}

func (cr *contactRepo) ReplaceAddresses(dbc dbctx.Context, contactID uuid.UUID, addresses []types.ContactAddress) error {
	h := cr.handle(dbc)
	if err := h.Where("contact_id = ?", contactID).Delete(&types.ContactAddress{}).Error; err != nil {
		return err
	}
	if len(addresses) == 0 {
		return nil
	}
	for i := range addresses {
		addresses[i].ContactID = contactID
	}
	return h.Create(&addresses).Error
}

// Stats computes the count-based summaries over the owner's whole
// collection. Contacts with several matching children count once (DISTINCT
// on the contact id); the per-type breakdown covers every relationship type
// but only reports types with at least one contact.
func (cr *contactRepo) Stats(dbc dbctx.Context, ownerID uuid.UUID) (*ContactStats, error) {
	h := cr.handle(dbc)
	stats := &ContactStats{}

	base := func() *gorm.DB {
		return cr.handle(dbc).Model(&types.Contact{}).Where("contacts.user_id = ?", ownerID)
	}
	if err := base().Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := base().Where("favorito = ?", true).Count(&stats.Favoritos).Error; err != nil {
		return nil, err
	}
	if err := base().Where("activo = ?", true).Count(&stats.Activos).Error; err != nil {
		return nil, err
	}
	stats.Inactivos = stats.Total - stats.Activos

	withChild := func(table string, out *int64) error {
		return base().
			Joins("JOIN " + table + " ON " + table + ".contact_id = contacts.id").
			Distinct("contacts.id").
			Count(out).Error
	}
	if err := withChild("contact_phones", &stats.ConTelefono); err != nil {
		return nil, err
	}
	if err := withChild("contact_emails", &stats.ConEmail); err != nil {
		return nil, err
	}
	if err := withChild("contact_addresses", &stats.ConDireccion); err != nil {
		return nil, err
	}

	var rows []TypeCount
	err := h.Model(&types.Contact{}).
		Select("relationship_types.nombre AS nombre, relationship_types.color AS color, COUNT(contacts.id) AS count").
		Joins("JOIN relationship_types ON relationship_types.id = contacts.relationship_type_id").
		Where("contacts.user_id = ?", ownerID).
		Group("relationship_types.nombre, relationship_types.color").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	stats.PorTipo = rows
	return stats, nil
}
