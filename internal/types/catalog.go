package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RelationshipType classifies how the owner relates to a contact
// (Familiar, Trabajo, Amigos, ...). Shared reference data: rows are never
// owned by a contact and deletion is refused while contacts reference them.
type RelationshipType struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Nombre      string    `gorm:"size:50;uniqueIndex;not null" json:"nombre"`
	Descripcion string    `json:"descripcion"`
	Color       string    `gorm:"size:7;not null" json:"color"`
	Activo      bool      `gorm:"not null" json:"activo"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (RelationshipType) TableName() string { return "relationship_types" }

func (rt *RelationshipType) BeforeCreate(tx *gorm.DB) error {
	if rt.ID == uuid.Nil {
		rt.ID = uuid.New()
	}
	if rt.Color == "" {
		rt.Color = "#007bff"
	}
	return nil
}

// PhoneType: Móvil, Casa, Trabajo, Fax, ...
type PhoneType struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Nombre string    `gorm:"size:30;uniqueIndex;not null" json:"nombre"`
	Icono  string    `gorm:"size:50" json:"icono"`
}

func (PhoneType) TableName() string { return "phone_types" }

func (pt *PhoneType) BeforeCreate(tx *gorm.DB) error {
	if pt.ID == uuid.Nil {
		pt.ID = uuid.New()
	}
	return nil
}

// EmailType: Personal, Trabajo, Académico, ...
type EmailType struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Nombre string    `gorm:"size:30;uniqueIndex;not null" json:"nombre"`
	Icono  string    `gorm:"size:50" json:"icono"`
}

func (EmailType) TableName() string { return "email_types" }

func (et *EmailType) BeforeCreate(tx *gorm.DB) error {
	if et.ID == uuid.Nil {
		et.ID = uuid.New()
	}
	return nil
}

// AddressType: Casa, Trabajo, Temporal, ...
type AddressType struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Nombre string    `gorm:"size:30;uniqueIndex;not null" json:"nombre"`
	Icono  string    `gorm:"size:50" json:"icono"`
}

func (AddressType) TableName() string { return "address_types" }

func (at *AddressType) BeforeCreate(tx *gorm.DB) error {
	if at.ID == uuid.Nil {
		at.ID = uuid.New()
	}
	return nil
}
