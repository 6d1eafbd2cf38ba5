package models

import (
	"time"
)

// User is the account record shared by every storage backend. The service owns
// this table: accounts are created implicitly on first successful login.
type User struct {
	Username  string     `json:"username" gorm:"primaryKey;size:255"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login" gorm:"default:null"`
}

func (User) TableName() string {
	return "users"
}
