package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taveron/agenda-backend/internal/pkg/dbctx"
	"github.com/taveron/agenda-backend/internal/platform/apierr"
)

func TestCatalogService_RelationshipTypes_OnlyActive(t *testing.T) {
	env := newTestEnv(t)
	env.trabajo.Activo = false
	require.NoError(t, env.db.Save(env.trabajo).Error)

	out, err := env.catalogService.RelationshipTypes(env.as(env.owner))
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "Familiar", out[0].Nombre)
}

func TestCatalogService_CreateRelationshipType_AdminOnlyWithDefaults(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.catalogService.CreateRelationshipType(env.as(env.owner), RelationshipTypeInput{
		Nombre: strPtr("Cliente"),
	})
	require.True(t, apierr.IsStatus(err, http.StatusForbidden))

	rt, err := env.catalogService.CreateRelationshipType(env.as(env.admin), RelationshipTypeInput{
		Nombre: strPtr("Cliente"),
	})
	require.NoError(t, err)
	require.True(t, rt.Activo)
	require.Equal(t, "#007bff", rt.Color)
}

func TestCatalogService_CreateRelationshipType_PersistsInactive(t *testing.T) {
	env := newTestEnv(t)
	rt, err := env.catalogService.CreateRelationshipType(env.as(env.admin), RelationshipTypeInput{
		Nombre: strPtr("Archivado"),
		Activo: boolPtr(false),
	})
	require.NoError(t, err)
	require.False(t, rt.Activo)

	// The flag survives the round trip through the database.
	got, err := env.catalogRepo.GetRelationshipType(dbctx.New(context.Background()), rt.ID)
	require.NoError(t, err)
	require.False(t, got.Activo)
}

func TestCatalogService_DeleteRelationshipType_ProtectedWhileInUse(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.contactService.Create(env.as(env.owner), validInput(env))
	require.NoError(t, err)

	err = env.catalogService.DeleteRelationshipType(env.as(env.admin), env.familiar.ID)
	require.True(t, apierr.IsStatus(err, http.StatusConflict))

	// An unused type deletes cleanly.
	require.NoError(t, env.catalogService.DeleteRelationshipType(env.as(env.admin), env.trabajo.ID))
}

func TestCatalogService_UpdateRelationshipType(t *testing.T) {
	env := newTestEnv(t)
	rt, err := env.catalogService.UpdateRelationshipType(env.as(env.admin), env.trabajo.ID, RelationshipTypeInput{
		Descripcion: strPtr("Contactos laborales"),
		Activo:      boolPtr(false),
	})
	require.NoError(t, err)
	require.Equal(t, "Contactos laborales", rt.Descripcion)
	require.False(t, rt.Activo)
}
