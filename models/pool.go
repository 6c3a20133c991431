package models

import "time"

// Pool — пользовательское соревнование прогнозов в рамках одного турнира.
type Pool struct {
	ID                   int        `json:"id" db:"id"`
	Name                 string     `json:"name" db:"name"`
	Description          *string    `json:"description,omitempty" db:"description"`
	TournamentID         int        `json:"tournament_id" db:"tournament_id"`
	CreatorID            int        `json:"creator_id" db:"creator_id"`
	IsPrivate            bool       `json:"is_private" db:"is_private"`
	InviteCode           *string    `json:"invite_code,omitempty" db:"invite_code"`
	MaxParticipants      int        `json:"max_participants" db:"max_participants"`
	RegistrationDeadline *time.Time `json:"registration_deadline,omitempty" db:"registration_deadline"`
	CreatedAt            time.Time  `json:"created_at" db:"created_at"`

	Tournament *Tournament `json:"tournament,omitempty" db:"-"`
	Creator    *User       `json:"creator,omitempty" db:"-"`
}

// PoolSummary — публичная проекция пула, возвращаемая после вступления
// и при разрешении инвайт-кода.
type PoolSummary struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	IsPrivate bool   `json:"is_private"`
}

// Summary возвращает публичную проекцию пула без секретных полей.
func (p *Pool) Summary() PoolSummary {
	return PoolSummary{ID: p.ID, Name: p.Name, IsPrivate: p.IsPrivate}
}
