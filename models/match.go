package models

import "time"

// MatchStage соответствует ENUM match_stage в БД.
type MatchStage string

const (
	StageGroup        MatchStage = "group"
	StageRoundOf16    MatchStage = "round_of_16"
	StageQuarterFinal MatchStage = "quarter_final"
	StageSemiFinal    MatchStage = "semi_final"
	StageThirdPlace   MatchStage = "third_place"
	StageFinal        MatchStage = "final"
)

// IsKnockout сообщает, относится ли стадия к плей-офф (финал считается отдельно).
func (s MatchStage) IsKnockout() bool {
	switch s {
	case StageRoundOf16, StageQuarterFinal, StageSemiFinal, StageThirdPlace:
		return true
	}
	return false
}

// MatchStatus соответствует ENUM match_status в БД.
type MatchStatus string

const (
	MatchScheduled  MatchStatus = "scheduled"
	MatchInProgress MatchStatus = "in_progress"
	MatchCompleted  MatchStatus = "completed"
	MatchPostponed  MatchStatus = "postponed"
	MatchCancelled  MatchStatus = "cancelled"
)

// Match представляет матч турнира. Счёт и флаги дополнительного времени
// заполняются по мере поступления реальных результатов.
type Match struct {
	ID               int         `json:"id" db:"id"`
	TournamentID     int         `json:"tournament_id" db:"tournament_id"`
	HomeTeamID       int         `json:"home_team_id" db:"home_team_id"`
	AwayTeamID       int         `json:"away_team_id" db:"away_team_id"`
	KickoffAt        time.Time   `json:"kickoff_at" db:"kickoff_at"`
	Stadium          *string     `json:"stadium,omitempty" db:"stadium"`
	Stage            MatchStage  `json:"stage" db:"stage"`
	Status           MatchStatus `json:"status" db:"status"`
	HomeScore        *int        `json:"home_score,omitempty" db:"home_score"`
	AwayScore        *int        `json:"away_score,omitempty" db:"away_score"`
	ExtraTime        bool        `json:"extra_time" db:"extra_time"`
	Penalties        bool        `json:"penalties" db:"penalties"`
	HomePenaltyScore *int        `json:"home_penalty_score,omitempty" db:"home_penalty_score"`
	AwayPenaltyScore *int        `json:"away_penalty_score,omitempty" db:"away_penalty_score"`

	HomeTeam *Team `json:"home_team,omitempty" db:"-"`
	AwayTeam *Team `json:"away_team,omitempty" db:"-"`
}
