package types

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PhoneNumberRe accepts an optional leading '+', an optional country '1',
// and 9 to 15 digits. Numbers are stored as submitted, never normalized.
var PhoneNumberRe = regexp.MustCompile(`^\+?1?\d{9,15}$`)

// Contact is the aggregate root of the address book. It is exclusively
// owned by one user; the phone/email/address collections live and die with
// it (ON DELETE CASCADE), while RelationshipType is shared reference data
// behind a protected foreign key.
type Contact struct {
	ID                 uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID             uuid.UUID         `gorm:"type:uuid;not null;index;uniqueIndex:uniq_contact_owner_name" json:"user_id"`
	Nombre             string            `gorm:"size:100;not null;uniqueIndex:uniq_contact_owner_name" json:"nombre"`
	ApellidoPat        string            `gorm:"size:100;uniqueIndex:uniq_contact_owner_name" json:"apellido_pat"`
	ApellidoMat        string            `gorm:"size:100;uniqueIndex:uniq_contact_owner_name" json:"apellido_mat"`
	RelationshipTypeID uuid.UUID         `gorm:"type:uuid;not null;index" json:"tipo_relacion_id"`
	RelationshipType   *RelationshipType `gorm:"foreignKey:RelationshipTypeID" json:"tipo_relacion,omitempty"`
	Empresa            string            `gorm:"size:150" json:"empresa"`
	Cargo              string            `gorm:"size:100" json:"cargo"`
	FechaNacimiento    *time.Time        `json:"fecha_nacimiento"`
	Notas              string            `json:"notas"`
	Favorito           bool              `gorm:"not null;default:false" json:"favorito"`
	Activo             bool              `gorm:"not null" json:"activo"`
	Telefonos          []ContactPhone    `gorm:"foreignKey:ContactID" json:"telefonos"`
	Emails             []ContactEmail    `gorm:"foreignKey:ContactID" json:"emails"`
	Direcciones        []ContactAddress  `gorm:"foreignKey:ContactID" json:"direcciones"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

func (Contact) TableName() string { return "contacts" }

func (c *Contact) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// FullName joins the non-empty name parts with single spaces.
func (c *Contact) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{c.Nombre, c.ApellidoPat, c.ApellidoMat} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// Initials is the uppercased first letter of the given name plus the first
// letter of the paternal surname; empty parts are skipped.
func (c *Contact) Initials() string {
	var b strings.Builder
	if c.Nombre != "" {
		b.WriteString(strings.ToUpper(string([]rune(c.Nombre)[0])))
	}
	if c.ApellidoPat != "" {
		b.WriteString(strings.ToUpper(string([]rune(c.ApellidoPat)[0])))
	}
	return b.String()
}

// PrincipalPhone returns the first phone flagged principal, or nil.
func (c *Contact) PrincipalPhone() *ContactPhone {
	for i := range c.Telefonos {
		if c.Telefonos[i].Principal {
			return &c.Telefonos[i]
		}
	}
	return nil
}

func (c *Contact) PrincipalEmail() *ContactEmail {
	for i := range c.Emails {
		if c.Emails[i].Principal {
			return &c.Emails[i]
		}
	}
	return nil
}

func (c *Contact) PrincipalAddress() *ContactAddress {
	for i := range c.Direcciones {
		if c.Direcciones[i].Principal {
			return &c.Direcciones[i]
		}
	}
	return nil
}

type ContactPhone struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ContactID uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:uniq_contact_phone" json:"contact_id"`
	TypeID    uuid.UUID  `gorm:"type:uuid;not null" json:"tipo_id"`
	Tipo      *PhoneType `gorm:"foreignKey:TypeID" json:"tipo,omitempty"`
	Numero    string     `gorm:"size:20;not null;uniqueIndex:uniq_contact_phone" json:"numero"`
	Principal bool       `gorm:"not null;default:false" json:"principal"`
	Activo    bool       `gorm:"not null" json:"activo"`
}

func (ContactPhone) TableName() string { return "contact_phones" }

func (p *ContactPhone) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type ContactEmail struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ContactID uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:uniq_contact_email" json:"contact_id"`
	TypeID    uuid.UUID  `gorm:"type:uuid;not null" json:"tipo_id"`
	Tipo      *EmailType `gorm:"foreignKey:TypeID" json:"tipo,omitempty"`
	Email     string     `gorm:"size:254;not null;uniqueIndex:uniq_contact_email" json:"email"`
	Principal bool       `gorm:"not null;default:false" json:"principal"`
	Activo    bool       `gorm:"not null" json:"activo"`
}

func (ContactEmail) TableName() string { return "contact_emails" }

func (e *ContactEmail) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

type ContactAddress struct {
	ID              uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	ContactID       uuid.UUID    `gorm:"type:uuid;not null;index" json:"contact_id"`
	TypeID          uuid.UUID    `gorm:"type:uuid;not null" json:"tipo_id"`
	Tipo            *AddressType `gorm:"foreignKey:TypeID" json:"tipo,omitempty"`
	Calle           string       `gorm:"size:200;not null" json:"calle"`
	Ciudad          string       `gorm:"size:100;not null" json:"ciudad"`
	EstadoProvincia string       `gorm:"size:100" json:"estado_provincia"`
	CodigoPostal    string       `gorm:"size:20" json:"codigo_postal"`
	Pais            string       `gorm:"size:100;not null" json:"pais"`
	Principal       bool         `gorm:"not null;default:false" json:"principal"`
	Activo          bool         `gorm:"not null" json:"activo"`
}

func (ContactAddress) TableName() string { return "contact_addresses" }

func (a *ContactAddress) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Pais == "" {
		a.Pais = "México"
	}
	return nil
}

// FullAddress joins the non-empty components with ", ".
func (a *ContactAddress) FullAddress() string {
	parts := make([]string, 0, 5)
	for _, p := range []string{a.Calle, a.Ciudad, a.EstadoProvincia, a.CodigoPostal, a.Pais} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.TrimSpace(strings.Join(parts, ", "))
}
