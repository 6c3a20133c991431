package models

import "time"

// LeaderboardEntry — материализованная строка таблицы лидеров пула.
// Пересчитывается при завершении матчей, уникальна по (pool_id, user_id).
type LeaderboardEntry struct {
	PoolID              int       `json:"pool_id" db:"pool_id"`
	UserID              int       `json:"user_id" db:"user_id"`
	TotalPoints         int       `json:"total_points" db:"total_points"`
	ExactScoresCount    int       `json:"exact_scores_count" db:"exact_scores_count"`
	CorrectWinnersCount int       `json:"correct_winners_count" db:"correct_winners_count"`
	Rank                int       `json:"rank" db:"rank"`
	LastUpdated         time.Time `json:"last_updated" db:"last_updated"`

	User *User `json:"user,omitempty" db:"-"`
}
