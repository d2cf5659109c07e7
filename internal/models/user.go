package models

import "time"

// Role of an account
type Role string

const (
	RoleAdmin Role = "admin"
	RoleAgent Role = "agent"
)

// User is an account able to sign in to the admin area.
type User struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Username     string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"username"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"password"`
	Role         Role      `gorm:"type:varchar(16);not null" json:"role"`
	AgentID      string    `gorm:"type:varchar(36)" json:"agentId,omitempty"`
	CreatedAt    time.Time `gorm:"not null;autoCreateTime" json:"createdAt"`
}

// TableName pins the table name
func (User) TableName() string {
	return "users"
}

// Descriptor returns the public part of the account.
func (u *User) Descriptor() UserInfo {
	return UserInfo{ID: u.ID, Username: u.Username, Role: u.Role, AgentID: u.AgentID}
}

// UserInfo is the user descriptor carried in tokens and session records.
type UserInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	AgentID  string `json:"agentId,omitempty"`
}
