package models

import "time"

// Prediction — прогноз пользователя на матч в рамках конкретного пула.
// Уникален по (match_id, pool_id, user_id).
type Prediction struct {
	ID               int       `json:"id" db:"id"`
	MatchID          int       `json:"match_id" db:"match_id"`
	PoolID           int       `json:"pool_id" db:"pool_id"`
	UserID           int       `json:"user_id" db:"user_id"`
	HomeScore        int       `json:"home_score" db:"home_score"`
	AwayScore        int       `json:"away_score" db:"away_score"`
	ExtraTime        bool      `json:"extra_time" db:"extra_time"`
	Penalties        bool      `json:"penalties" db:"penalties"`
	HomePenaltyScore *int      `json:"home_penalty_score,omitempty" db:"home_penalty_score"`
	AwayPenaltyScore *int      `json:"away_penalty_score,omitempty" db:"away_penalty_score"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`

	User  *User  `json:"user,omitempty" db:"-"`
	Match *Match `json:"match,omitempty" db:"-"`
}
