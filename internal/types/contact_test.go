package types

import "testing"

func TestContactFullName_SkipsEmptyParts(t *testing.T) {
	c := Contact{Nombre: "Ana", ApellidoPat: "", ApellidoMat: "Ruiz"}
	if got := c.FullName(); got != "Ana Ruiz" {
		t.Fatalf("expected %q got %q", "Ana Ruiz", got)
	}
}

func TestContactFullName_AllParts(t *testing.T) {
	c := Contact{Nombre: "Juan", ApellidoPat: "Pérez", ApellidoMat: "García"}
	if got := c.FullName(); got != "Juan Pérez García" {
		t.Fatalf("expected full name, got %q", got)
	}
}

func TestContactInitials(t *testing.T) {
	c := Contact{Nombre: "ana", ApellidoPat: "lópez"}
	if got := c.Initials(); got != "AL" {
		t.Fatalf("expected AL got %q", got)
	}
	c = Contact{Nombre: "Ana"}
	if got := c.Initials(); got != "A" {
		t.Fatalf("expected A got %q", got)
	}
}

func TestPrincipalPhone_FirstFlaggedWins(t *testing.T) {
	c := Contact{Telefonos: []ContactPhone{
		{Numero: "111111111"},
		{Numero: "222222222", Principal: true},
		{Numero: "333333333", Principal: true},
	}}
	p := c.PrincipalPhone()
	if p == nil || p.Numero != "222222222" {
		t.Fatalf("expected first principal phone, got %+v", p)
	}
}

func TestPrincipalPhone_NoneFlagged(t *testing.T) {
	c := Contact{Telefonos: []ContactPhone{{Numero: "111111111"}}}
	if p := c.PrincipalPhone(); p != nil {
		t.Fatalf("expected nil, got %+v", p)
	}
}

func TestFullAddress_SkipsEmptyComponents(t *testing.T) {
	a := ContactAddress{Calle: "Av. Reforma 10", Ciudad: "CDMX", Pais: "México"}
	if got := a.FullAddress(); got != "Av. Reforma 10, CDMX, México" {
		t.Fatalf("unexpected full address %q", got)
	}
}

func TestPhoneNumberRe(t *testing.T) {
	valid := []string{"123456789", "+521234567890", "1234567890", "+112345678901234"}
	for _, v := range valid {
		if !PhoneNumberRe.MatchString(v) {
			t.Fatalf("expected %q to be valid", v)
		}
	}
	invalid := []string{"12345", "abc123456789", "+52 123 456 7890", "1234567890123456789"}
	for _, v := range invalid {
		if PhoneNumberRe.MatchString(v) {
			t.Fatalf("expected %q to be invalid", v)
		}
	}
}
