package models

import (
	"fmt"
	"strings"

	"premium-homes/internal/errs"
)

// Property is a single listing for sale or rent.
type Property struct {
	// Basic info
	ID          int    `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Title       string `gorm:"type:varchar(255);not null" json:"title"`
	Location    string `gorm:"type:varchar(255);index" json:"location"`
	Address     string `gorm:"type:text" json:"address"`
	Description string `gorm:"type:text" json:"description"`

	// Filter attributes
	Price           float64         `gorm:"type:decimal(14,2);index" json:"price"`
	Currency        string          `gorm:"type:varchar(8)" json:"currency"`
	Area            float64         `gorm:"type:decimal(10,2)" json:"area"`
	Bedrooms        int             `gorm:"type:int;index" json:"bedrooms"`
	Bathrooms       int             `gorm:"type:int" json:"bathrooms"`
	PropertyType    PropertyType    `gorm:"type:varchar(20);index" json:"propertyType"`
	TransactionType TransactionType `gorm:"type:varchar(10);index" json:"transactionType"`

	Images   StringList `gorm:"type:text" json:"images"`
	Featured bool       `gorm:"not null;default:false" json:"featured"`
	AgentID  string     `gorm:"type:varchar(36);index" json:"agentId,omitempty"`
}

// PropertyType is the kind of real estate.
type PropertyType string

const (
	PropertyTypeApartment PropertyType = "apartment"
	PropertyTypeVilla     PropertyType = "villa"
	PropertyTypeOffice    PropertyType = "office"
	PropertyTypeLand      PropertyType = "land"
)

// TransactionType tells whether a property is offered for sale or rent.
type TransactionType string

const (
	TransactionSale TransactionType = "sale"
	TransactionRent TransactionType = "rent"
)

// Valid reports whether t is one of the known property types.
func (t PropertyType) Valid() bool {
	switch t {
	case PropertyTypeApartment, PropertyTypeVilla, PropertyTypeOffice, PropertyTypeLand:
		return true
	}
	return false
}

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	return t == TransactionSale || t == TransactionRent
}

// TableName pins the table name
func (Property) TableName() string {
	return "properties"
}

// City returns the part of Location before the first comma, trimmed.
// A location without a comma is returned whole.
func (p *Property) City() string {
	city, _, _ := strings.Cut(p.Location, ",")
	return strings.TrimSpace(city)
}

// Validate checks the fields a listing must carry before it is sent or stored.
func (p *Property) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("%w: title is required", errs.ErrValidation)
	}
	if p.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", errs.ErrValidation)
	}
	if p.Area < 0 {
		return fmt.Errorf("%w: area must not be negative", errs.ErrValidation)
	}
	if p.Bedrooms < 0 || p.Bathrooms < 0 {
		return fmt.Errorf("%w: room counts must not be negative", errs.ErrValidation)
	}
	if !p.PropertyType.Valid() {
		return fmt.Errorf("%w: unknown property type %q", errs.ErrValidation, p.PropertyType)
	}
	if !p.TransactionType.Valid() {
		return fmt.Errorf("%w: unknown transaction type %q", errs.ErrValidation, p.TransactionType)
	}
	return nil
}

// Clone returns a deep copy so callers can hand listings out without sharing Images.
func (p Property) Clone() Property {
	if p.Images != nil {
		p.Images = append(StringList(nil), p.Images...)
	}
	return p
}
