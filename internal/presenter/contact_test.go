package presenter

import (
	"testing"

	"github.com/taveron/agenda-backend/internal/types"
)

func sampleContact() *types.Contact {
	return &types.Contact{
		Nombre:      "Ana",
		ApellidoPat: "López",
		RelationshipType: &types.RelationshipType{
			Nombre: "Familiar", Color: "#28a745",
		},
		Telefonos: []types.ContactPhone{
			{Numero: "5551111111"},
			{Numero: "5552222222", Principal: true},
		},
		Emails: []types.ContactEmail{
			{Email: "ana@example.com", Principal: true},
		},
		Direcciones: []types.ContactAddress{
			{Calle: "Av. Reforma 10", Ciudad: "CDMX", Pais: "México", Principal: true},
		},
	}
}

func TestFull_DerivedFieldsAndShortcuts(t *testing.T) {
	v := Full(sampleContact())
	if v.NombreCompleto != "Ana López" {
		t.Fatalf("unexpected nombre_completo %q", v.NombreCompleto)
	}
	if v.Iniciales != "AL" {
		t.Fatalf("unexpected iniciales %q", v.Iniciales)
	}
	if v.TelefonoPrincipal == nil || *v.TelefonoPrincipal != "5552222222" {
		t.Fatalf("unexpected telefono_principal %v", v.TelefonoPrincipal)
	}
	if v.DireccionPrincipal == nil || *v.DireccionPrincipal != "Av. Reforma 10, CDMX, México" {
		t.Fatalf("unexpected direccion_principal %v", v.DireccionPrincipal)
	}
	if len(v.Telefonos) != 2 || len(v.Direcciones) != 1 {
		t.Fatalf("collections not mapped")
	}
}

func TestFull_NilShortcutsWhenNothingFlagged(t *testing.T) {
	c := &types.Contact{Nombre: "Ana", Telefonos: []types.ContactPhone{{Numero: "5551111111"}}}
	v := Full(c)
	if v.TelefonoPrincipal != nil || v.EmailPrincipal != nil || v.DireccionPrincipal != nil {
		t.Fatalf("expected nil principal shortcuts")
	}
	if v.TipoRelacion != nil {
		t.Fatalf("expected nil tipo_relacion when not preloaded")
	}
}

func TestSimple_OmitsCollections(t *testing.T) {
	v := Simple(sampleContact())
	if v.TelefonoPrincipal == nil || *v.TelefonoPrincipal != "5552222222" {
		t.Fatalf("unexpected telefono_principal %v", v.TelefonoPrincipal)
	}
	if v.EmailPrincipal == nil || *v.EmailPrincipal != "ana@example.com" {
		t.Fatalf("unexpected email_principal %v", v.EmailPrincipal)
	}
}

func TestContacts_ProjectionSelection(t *testing.T) {
	list := []types.Contact{*sampleContact()}
	out := Contacts(list, FromSimpleParam(true))
	if len(out) != 1 {
		t.Fatalf("expected 1 result")
	}
	if _, ok := out[0].(ContactoSimple); !ok {
		t.Fatalf("expected simplified projection, got %T", out[0])
	}
	out = Contacts(list, FromSimpleParam(false))
	if _, ok := out[0].(ContactoFull); !ok {
		t.Fatalf("expected full projection, got %T", out[0])
	}
}
