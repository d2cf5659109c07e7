package models

import (
	"fmt"
	"strings"

	"premium-homes/internal/errs"
)

// Agent is a listing owner profile
type Agent struct {
	ID              string `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name            string `gorm:"type:varchar(255);not null" json:"name"`
	Title           string `gorm:"type:varchar(255)" json:"title"`
	Email           string `gorm:"type:varchar(255);not null" json:"email"`
	Mobile          string `gorm:"type:varchar(64)" json:"mobile"`
	City            string `gorm:"type:varchar(128)" json:"city"`
	Image           string `gorm:"type:text" json:"image"`
	PropertiesCount int    `gorm:"not null;default:0" json:"propertiesCount"`
}

// TableName pins the table name
func (Agent) TableName() string {
	return "agents"
}

// Validate requires name and email
func (a *Agent) Validate() error {
	if strings.TrimSpace(a.Name) == "" || strings.TrimSpace(a.Email) == "" {
		return fmt.Errorf("%w: name and email are required", errs.ErrValidation)
	}
	return nil
}
