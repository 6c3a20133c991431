package models

import "time"

// UserRole соответствует ENUM user_role в БД.
type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RolePlayer UserRole = "player"
)

// AccountProvider указывает, через какого провайдера создан аккаунт.
type AccountProvider string

const (
	ProviderLocal  AccountProvider = "local"
	ProviderGoogle AccountProvider = "google"
)

type User struct {
	ID              int             `json:"id" db:"id"`
	FullName        string          `json:"full_name" db:"full_name"`
	Email           string          `json:"email" db:"email"`
	PasswordHash    string          `json:"-" db:"password_hash"`
	Role            UserRole        `json:"role" db:"role"`
	Provider        AccountProvider `json:"provider" db:"provider"`
	ProfileImageKey *string         `json:"-" db:"profile_image_key"`
	ProfileImageURL *string         `json:"profile_image_url,omitempty" db:"-"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}
