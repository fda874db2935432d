package services

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/taveron/agenda-backend/internal/platform/apierr"
	"github.com/taveron/agenda-backend/internal/presenter"
	"github.com/taveron/agenda-backend/internal/repos"
)

func validInput(env *testEnv) ContactInput {
	return ContactInput{
		Nombre:         strPtr("Ana"),
		ApellidoPat:    strPtr("López"),
		TipoRelacionID: &env.familiar.ID,
		Telefonos: []PhoneInput{
			{TipoID: env.movil.ID, Numero: "5551234567", Principal: true},
		},
		Emails: []EmailInput{
			{TipoID: env.personal.ID, Email: "ana@example.com", Principal: true},
		},
		Direcciones: []AddressInput{
			{TipoID: env.casa.ID, Calle: "Av. Reforma 10", Ciudad: "CDMX", Principal: true},
		},
	}
}

func TestContactService_Create_FullAggregate(t *testing.T) {
	env := newTestEnv(t)
	ctx := env.as(env.owner)

	contact, err := env.contactService.Create(ctx, validInput(env))
	require.NoError(t, err)
	require.Equal(t, env.owner.ID, contact.UserID)
	require.Len(t, contact.Telefonos, 1)
	require.Len(t, contact.Emails, 1)
	require.Len(t, contact.Direcciones, 1)
	require.NotNil(t, contact.RelationshipType)
	// Country default applies when omitted.
	require.Equal(t, "México", contact.Direcciones[0].Pais)
}

func TestContactService_Create_KeepsInactiveFlag(t *testing.T) {
	env := newTestEnv(t)
	ctx := env.as(env.owner)

	in := validInput(env)
	in.Activo = boolPtr(false)
	in.Telefonos[0].Activo = boolPtr(false)
	contact, err := env.contactService.Create(ctx, in)
	require.NoError(t, err)
	require.False(t, contact.Activo)
	require.False(t, contact.Telefonos[0].Activo)

	got, err := env.contactService.Get(ctx, contact.ID)
	require.NoError(t, err)
	require.False(t, got.Activo)
}

func TestContactService_Create_RequiresNameAndType(t *testing.T) {
	env := newTestEnv(t)
	ctx := env.as(env.owner)

	_, err := env.contactService.Create(ctx, ContactInput{})
	require.Error(t, err)
	ae := apierr.From(err)
	require.Equal(t, http.StatusBadRequest, ae.Status)
	require.Contains(t, ae.Fields, "nombre")
	require.Contains(t, ae.Fields, "tipo_relacion_id")
}

func TestContactService_Create_RejectsDuplicateNameTuple(t *testing.T) {
	env := newTestEnv(t)
	ctx := env.as(env.owner)

	_, err := env.contactService.Create(ctx, validInput(env))
	require.NoError(t, err)
	_, err = env.contactService.Create(ctx, validInput(env))
	require.Error(t, err)
	ae := apierr.From(err)
	require.Equal(t, http.StatusBadRequest, ae.Status)
	require.Contains(t, ae.Fields, "non_field_errors")

	// The same tuple under another owner is allowed.
	_, err = env.contactService.Create(env.as(env.other), validInput(env))
	require.NoError(t, err)
}

func TestContactService_Create_RejectsBadPhoneAndEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := env.as(env.owner)

	in := validInput(env)
	in.Telefonos = []PhoneInput{{TipoID: env.movil.ID, Numero: "12345"}}
	in.Emails = []EmailInput{{TipoID: env.personal.ID, Email: "no-es-email"}}
	_, err := env.contactService.Create(ctx, in)
	require.Error(t, err)
	ae := apierr.From(err)
	require.Equal(t, http.StatusBadRequest, ae.Status)
	require.Contains(t, ae.Fields, "telefonos[0]")
	require.Contains(t, ae.Fields, "emails[0]")
}

func TestContactService_Create_RejectsSecondPrincipal(t *testing.T) {
	env := newTestEnv(t)
	ctx := env.as(env.owner)

	in := validInput(env)
	in.Telefonos = []PhoneInput{
		{TipoID: env.movil.ID, Numero: "5551111111", Principal: true},
		{TipoID: env.movil.ID, Numero: "5552222222", Principal: true},
	}
	_, err := env.contactService.Create(ctx, in)
	require.Error(t, err)
	require.Contains(t, apierr.From(err).Fields, "telefonos")
}

func TestContactService_Create_RejectsUnknownCatalogType(t *testing.T) {
	env := newTestEnv(t)
	ctx := env.as(env.owner)

	in := validInput(env)
	in.Telefonos = []PhoneInput{{TipoID: uuid.New(), Numero: "5551234567"}}
	_, err := env.contactService.Create(ctx, in)
	require.Error(t, err)
	require.Contains(t, apierr.From(err).Fields, "telefonos[0]")
}

func TestContactService_Get_ForbiddenVsNotFound(t *testing.T) {
	env := newTestEnv(t)
	contact, err := env.contactService.Create(env.as(env.owner), validInput(env))
	require.NoError(t, err)

	_, err = env.contactService.Get(env.as(env.other), contact.ID)
	require.True(t, apierr.IsStatus(err, http.StatusForbidden))

	_, err = env.contactService.Get(env.as(env.other), uuid.New())
	require.True(t, apierr.IsStatus(err, http.StatusNotFound))
}

func TestContactService_Update_ChildReplaceSemantics(t *testing.T) {
	env := newTestEnv(t)
	ctx := env.as(env.owner)
	contact, err := env.contactService.Create(ctx, validInput(env))
	require.NoError(t, err)

	// Absent slices leave the collections untouched.
	updated, err := env.contactService.Update(ctx, contact.ID, ContactInput{Empresa: strPtr("Acme")})
	require.NoError(t, err)
	require.Equal(t, "Acme", updated.Empresa)
	require.Len(t, updated.Telefonos, 1)
	require.Len(t, updated.Emails, 1)

	// A present slice replaces the whole collection.
	updated, err = env.contactService.Update(ctx, contact.ID, ContactInput{
		Telefonos: []PhoneInput{
			{TipoID: env.movil.ID, Numero: "5559999999", Principal: true},
			{TipoID: env.movil.ID, Numero: "5558888888"},
		},
	})
	require.NoError(t, err)
	require.Len(t, updated.Telefonos, 2)
	require.Len(t, updated.Emails, 1)

	// An explicit empty slice deletes everything of that kind.
	updated, err = env.contactService.Update(ctx, contact.ID, ContactInput{
		Emails: []EmailInput{},
	})
	require.NoError(t, err)
	require.Empty(t, updated.Emails)
	require.Len(t, updated.Telefonos, 2)
}

func TestContactService_Update_DuplicateTupleRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := env.as(env.owner)
	_, err := env.contactService.Create(ctx, validInput(env))
	require.NoError(t, err)

	in := validInput(env)
	in.Nombre = strPtr("Beto")
	second, err := env.contactService.Create(ctx, in)
	require.NoError(t, err)

	_, err = env.contactService.Update(ctx, second.ID, ContactInput{Nombre: strPtr("Ana")})
	require.Error(t, err)
	require.Contains(t, apierr.From(err).Fields, "non_field_errors")

	// Renaming a contact to its own current tuple is not a conflict.
	_, err = env.contactService.Update(ctx, second.ID, ContactInput{Nombre: strPtr("Beto")})
	require.NoError(t, err)
}

func TestContactService_Delete(t *testing.T) {
	env := newTestEnv(t)
	ctx := env.as(env.owner)
	contact, err := env.contactService.Create(ctx, validInput(env))
	require.NoError(t, err)

	err = env.contactService.Delete(env.as(env.other), contact.ID)
	require.True(t, apierr.IsStatus(err, http.StatusForbidden))

	require.NoError(t, env.contactService.Delete(ctx, contact.ID))
	err = env.contactService.Delete(ctx, contact.ID)
	require.True(t, apierr.IsStatus(err, http.StatusNotFound))
}

func TestContactService_List_RejectsUnknownOrdering(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.contactService.List(env.as(env.owner), repos.ContactFilter{Ordering: "password"})
	require.Error(t, err)
	require.Equal(t, http.StatusBadRequest, apierr.From(err).Status)
}

func TestContactService_ToggleFavorite_RoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := env.as(env.owner)
	contact, err := env.contactService.Create(ctx, validInput(env))
	require.NoError(t, err)
	require.False(t, contact.Favorito)

	toggled, msg, err := env.contactService.ToggleFavorite(ctx, contact.ID)
	require.NoError(t, err)
	require.True(t, toggled.Favorito)
	require.Equal(t, "Contacto agregado a favoritos", msg)

	toggled, msg, err = env.contactService.ToggleFavorite(ctx, contact.ID)
	require.NoError(t, err)
	require.False(t, toggled.Favorito)
	require.Equal(t, "Contacto removido de favoritos", msg)
}

func TestContactService_GroupByRelationshipType_IncludesEmptyGroups(t *testing.T) {
	env := newTestEnv(t)
	ctx := env.as(env.owner)
	_, err := env.contactService.Create(ctx, validInput(env))
	require.NoError(t, err)

	groups, err := env.contactService.GroupByRelationshipType(ctx, presenter.ProjectionSimplified)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	require.Equal(t, 1, groups["Familiar"].Count)
	require.Equal(t, 0, groups["Trabajo"].Count)
	require.Empty(t, groups["Trabajo"].Contacts)
	require.Len(t, groups["Familiar"].Contacts, 1)
	_, isSimple := groups["Familiar"].Contacts[0].(presenter.ContactoSimple)
	require.True(t, isSimple)
}

func TestContactService_Statistics_OnlyNonZeroTypesInBreakdown(t *testing.T) {
	env := newTestEnv(t)
	ctx := env.as(env.owner)
	_, err := env.contactService.Create(ctx, validInput(env))
	require.NoError(t, err)

	stats, err := env.contactService.Statistics(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, stats.TotalContactos)
	require.EqualValues(t, 1, stats.ContactosActivos)
	require.EqualValues(t, 1, stats.ConTelefono)
	require.EqualValues(t, 1, stats.ConEmail)
	require.EqualValues(t, 1, stats.ConDireccion)
	require.Contains(t, stats.PorTipoRelacion, "Familiar")
	require.NotContains(t, stats.PorTipoRelacion, "Trabajo")
	require.Equal(t, "#28a745", stats.PorTipoRelacion["Familiar"].Color)
}
