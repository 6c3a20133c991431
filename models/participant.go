package models

import "time"

// PoolParticipant — членство пользователя в пуле. Уникально по (pool_id, user_id).
type PoolParticipant struct {
	PoolID   int       `json:"pool_id" db:"pool_id"`
	UserID   int       `json:"user_id" db:"user_id"`
	JoinedAt time.Time `json:"joined_at" db:"joined_at"`

	User *User `json:"user,omitempty" db:"-"`
}
