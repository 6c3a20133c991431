package models

// ScoringRule — конфигурация начисления очков для одного пула.
// Создаётся вместе с пулом, ровно одна запись на пул.
type ScoringRule struct {
	ID                          int     `json:"id" db:"id"`
	PoolID                      int     `json:"pool_id" db:"pool_id"`
	ExactScorePoints            int     `json:"exact_score_points" db:"exact_score_points"`
	CorrectWinnerGoalDiffPoints int     `json:"correct_winner_goal_diff_points" db:"correct_winner_goal_diff_points"`
	CorrectWinnerPoints         int     `json:"correct_winner_points" db:"correct_winner_points"`
	CorrectDrawPoints           int     `json:"correct_draw_points" db:"correct_draw_points"`
	SpecialEventPoints          int     `json:"special_event_points" db:"special_event_points"`
	KnockoutMultiplier          float64 `json:"knockout_multiplier" db:"knockout_multiplier"`
	FinalMultiplier             float64 `json:"final_multiplier" db:"final_multiplier"`
}

// DefaultScoringRule возвращает правила по умолчанию для нового пула.
func DefaultScoringRule(poolID int) *ScoringRule {
	return &ScoringRule{
		PoolID:                      poolID,
		ExactScorePoints:            5,
		CorrectWinnerGoalDiffPoints: 3,
		CorrectWinnerPoints:         2,
		CorrectDrawPoints:           2,
		SpecialEventPoints:          1,
		KnockoutMultiplier:          1.5,
		FinalMultiplier:             2.0,
	}
}
