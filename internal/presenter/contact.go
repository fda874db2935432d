package presenter

import (
	"time"

	"github.com/google/uuid"

	"github.com/taveron/agenda-backend/internal/types"
)

// Projection selects the output shape of a contact. It is resolved once per
// request from the ?simple= parameter and passed down to the pure mapping
// functions; nothing downstream inspects the request again.
type Projection int

const (
	ProjectionFull Projection = iota
	ProjectionSimplified
)

func FromSimpleParam(simple bool) Projection {
	if simple {
		return ProjectionSimplified
	}
	return ProjectionFull
}

type TipoRelacionView struct {
	ID          uuid.UUID `json:"id"`
	Nombre      string    `json:"nombre"`
	Descripcion string    `json:"descripcion"`
	Color       string    `json:"color"`
}

type TipoView struct {
	ID     uuid.UUID `json:"id"`
	Nombre string    `json:"nombre"`
	Icono  string    `json:"icono"`
}

type TelefonoView struct {
	ID        uuid.UUID `json:"id"`
	Tipo      *TipoView `json:"tipo"`
	Numero    string    `json:"numero"`
	Principal bool      `json:"principal"`
	Activo    bool      `json:"activo"`
}

type EmailView struct {
	ID        uuid.UUID `json:"id"`
	Tipo      *TipoView `json:"tipo"`
	Email     string    `json:"email"`
	Principal bool      `json:"principal"`
	Activo    bool      `json:"activo"`
}

type DireccionView struct {
	ID                uuid.UUID `json:"id"`
	Tipo              *TipoView `json:"tipo"`
	Calle             string    `json:"calle"`
	Ciudad            string    `json:"ciudad"`
	EstadoProvincia   string    `json:"estado_provincia"`
	CodigoPostal      string    `json:"codigo_postal"`
	Pais              string    `json:"pais"`
	Principal         bool      `json:"principal"`
	Activo            bool      `json:"activo"`
	DireccionCompleta string    `json:"direccion_completa"`
}

// ContactoFull is the full projection: every scalar field, the derived
// fields, the complete child collections, and the principal shortcuts.
type ContactoFull struct {
	ID                 uuid.UUID         `json:"id"`
	Nombre             string            `json:"nombre"`
	ApellidoPat        string            `json:"apellido_pat"`
	ApellidoMat        string            `json:"apellido_mat"`
	NombreCompleto     string            `json:"nombre_completo"`
	Iniciales          string            `json:"iniciales"`
	TipoRelacion       *TipoRelacionView `json:"tipo_relacion"`
	Empresa            string            `json:"empresa"`
	Cargo              string            `json:"cargo"`
	FechaNacimiento    *time.Time        `json:"fecha_nacimiento"`
	Notas              string            `json:"notas"`
	Favorito           bool              `json:"favorito"`
	Activo             bool              `json:"activo"`
	Telefonos          []TelefonoView    `json:"telefonos"`
	Emails             []EmailView       `json:"emails"`
	Direcciones        []DireccionView   `json:"direcciones"`
	TelefonoPrincipal  *string           `json:"telefono_principal"`
	EmailPrincipal     *string           `json:"email_principal"`
	DireccionPrincipal *string           `json:"direccion_principal"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// ContactoSimple carries only identity and classification fields plus the
// principal phone/email shortcuts; no child collections, no addresses.
type ContactoSimple struct {
	ID                uuid.UUID         `json:"id"`
	Nombre            string            `json:"nombre"`
	ApellidoPat       string            `json:"apellido_pat"`
	ApellidoMat       string            `json:"apellido_mat"`
	NombreCompleto    string            `json:"nombre_completo"`
	Iniciales         string            `json:"iniciales"`
	TipoRelacion      *TipoRelacionView `json:"tipo_relacion"`
	Empresa           string            `json:"empresa"`
	Cargo             string            `json:"cargo"`
	Favorito          bool              `json:"favorito"`
	Activo            bool              `json:"activo"`
	TelefonoPrincipal *string           `json:"telefono_principal"`
	EmailPrincipal    *string           `json:"email_principal"`
	CreatedAt         time.Time         `json:"created_at"`
}

func tipoRelacionView(rt *types.RelationshipType) *TipoRelacionView {
	if rt == nil {
		return nil
	}
	return &TipoRelacionView{ID: rt.ID, Nombre: rt.Nombre, Descripcion: rt.Descripcion, Color: rt.Color}
}

func phoneTipoView(t *types.PhoneType) *TipoView {
	if t == nil {
		return nil
	}
	return &TipoView{ID: t.ID, Nombre: t.Nombre, Icono: t.Icono}
}

func emailTipoView(t *types.EmailType) *TipoView {
	if t == nil {
		return nil
	}
	return &TipoView{ID: t.ID, Nombre: t.Nombre, Icono: t.Icono}
}

func addressTipoView(t *types.AddressType) *TipoView {
	if t == nil {
		return nil
	}
	return &TipoView{ID: t.ID, Nombre: t.Nombre, Icono: t.Icono}
}

func principalShortcuts(c *types.Contact) (telefono, email, direccion *string) {
	if p := c.PrincipalPhone(); p != nil {
		telefono = &p.Numero
	}
	if e := c.PrincipalEmail(); e != nil {
		email = &e.Email
	}
	if d := c.PrincipalAddress(); d != nil {
		full := d.FullAddress()
		direccion = &full
	}
	return
}

// Full maps a loaded contact aggregate into the full projection. The
// aggregate must have been retrieved with children and types preloaded.
func Full(c *types.Contact) ContactoFull {
	telefonos := make([]TelefonoView, 0, len(c.Telefonos))
	for i := range c.Telefonos {
		p := &c.Telefonos[i]
		telefonos = append(telefonos, TelefonoView{
			ID: p.ID, Tipo: phoneTipoView(p.Tipo), Numero: p.Numero,
			Principal: p.Principal, Activo: p.Activo,
		})
	}
	emails := make([]EmailView, 0, len(c.Emails))
	for i := range c.Emails {
		e := &c.Emails[i]
		emails = append(emails, EmailView{
			ID: e.ID, Tipo: emailTipoView(e.Tipo), Email: e.Email,
			Principal: e.Principal, Activo: e.Activo,
		})
	}
	direcciones := make([]DireccionView, 0, len(c.Direcciones))
	for i := range c.Direcciones {
		d := &c.Direcciones[i]
		direcciones = append(direcciones, DireccionView{
			ID: d.ID, Tipo: addressTipoView(d.Tipo), Calle: d.Calle,
			Ciudad: d.Ciudad, EstadoProvincia: d.EstadoProvincia,
			CodigoPostal: d.CodigoPostal, Pais: d.Pais,
			Principal: d.Principal, Activo: d.Activo,
			DireccionCompleta: d.FullAddress(),
		})
	}
	telefono, email, direccion := principalShortcuts(c)
	return ContactoFull{
		ID:                 c.ID,
		Nombre:             c.Nombre,
		ApellidoPat:        c.ApellidoPat,
		ApellidoMat:        c.ApellidoMat,
		NombreCompleto:     c.FullName(),
		Iniciales:          c.Initials(),
		TipoRelacion:       tipoRelacionView(c.RelationshipType),
		Empresa:            c.Empresa,
		Cargo:              c.Cargo,
		FechaNacimiento:    c.FechaNacimiento,
		Notas:              c.Notas,
		Favorito:           c.Favorito,
		Activo:             c.Activo,
		Telefonos:          telefonos,
		Emails:             emails,
		Direcciones:        direcciones,
		TelefonoPrincipal:  telefono,
		EmailPrincipal:     email,
		DireccionPrincipal: direccion,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

func Simple(c *types.Contact) ContactoSimple {
	telefono, email, _ := principalShortcuts(c)
	return ContactoSimple{
		ID:                c.ID,
		Nombre:            c.Nombre,
		ApellidoPat:       c.ApellidoPat,
		ApellidoMat:       c.ApellidoMat,
		NombreCompleto:    c.FullName(),
		Iniciales:         c.Initials(),
		TipoRelacion:      tipoRelacionView(c.RelationshipType),
		Empresa:           c.Empresa,
		Cargo:             c.Cargo,
		Favorito:          c.Favorito,
		Activo:            c.Activo,
		TelefonoPrincipal: telefono,
		EmailPrincipal:    email,
		CreatedAt:         c.CreatedAt,
	}
}

// Contact renders one contact in the requested projection.
func Contact(c *types.Contact, p Projection) any {
	if p == ProjectionSimplified {
		return Simple(c)
	}
	return Full(c)
}

// Contacts renders a slice in the requested projection, preserving order.
func Contacts(list []types.Contact, p Projection) []any {
	out := make([]any, 0, len(list))
	for i := range list {
		out = append(out, Contact(&list[i], p))
	}
	return out
}
