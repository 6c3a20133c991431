package services

import (
	"math"

	"github.com/goalpool/prediction-pools/models"
)

// ScoreBreakdown — результат оценки одного прогноза.
type ScoreBreakdown struct {
	BasePoints    int
	SpecialPoints int
	Multiplier    float64
	Total         int
	ExactScore    bool
	CorrectWinner bool
}

// EvaluatePrediction вычисляет очки прогноза по правилам пула.
// Матч должен быть завершён, правила пула — настроены.
//
// Базовые очки (первое сработавшее правило):
//  1. точный счёт;
//  2. ничья предсказана и случилась (счёт не угадан);
//  3. верный победитель и верная разница мячей;
//  4. верный победитель.
//
// За каждое верно предсказанное событие (дополнительное время, пенальти)
// добавляются special_event_points. Сумма умножается на коэффициент стадии
// и округляется до ближайшего целого (0.5 — от нуля).
func EvaluatePrediction(match *models.Match, prediction *models.Prediction, rule *models.ScoringRule) (*ScoreBreakdown, error) {
	if match == nil || match.Status != models.MatchCompleted {
		return nil, ErrMatchNotCompleted
	}
	if match.HomeScore == nil || match.AwayScore == nil {
		return nil, ErrMatchNotCompleted
	}
	if rule == nil {
		return nil, ErrScoringRuleNotConfigured
	}

	actualHome := *match.HomeScore
	actualAway := *match.AwayScore
	actualDiff := actualHome - actualAway
	predictedDiff := prediction.HomeScore - prediction.AwayScore

	breakdown := &ScoreBreakdown{Multiplier: stageMultiplier(match.Stage, rule)}

	switch {
	case prediction.HomeScore == actualHome && prediction.AwayScore == actualAway:
		breakdown.BasePoints = rule.ExactScorePoints
		breakdown.ExactScore = true
		breakdown.CorrectWinner = true
	case predictedDiff == 0 && actualDiff == 0:
		breakdown.BasePoints = rule.CorrectDrawPoints
		breakdown.CorrectWinner = true
	case sign(predictedDiff) == sign(actualDiff) && predictedDiff == actualDiff:
		breakdown.BasePoints = rule.CorrectWinnerGoalDiffPoints
		breakdown.CorrectWinner = true
	case sign(predictedDiff) == sign(actualDiff):
		breakdown.BasePoints = rule.CorrectWinnerPoints
		breakdown.CorrectWinner = true
	}

	if prediction.ExtraTime && match.ExtraTime {
		breakdown.SpecialPoints += rule.SpecialEventPoints
	}
	if prediction.Penalties && match.Penalties {
		breakdown.SpecialPoints += rule.SpecialEventPoints
	}

	subtotal := float64(breakdown.BasePoints + breakdown.SpecialPoints)
	breakdown.Total = int(math.Round(subtotal * breakdown.Multiplier))

	return breakdown, nil
}

func stageMultiplier(stage models.MatchStage, rule *models.ScoringRule) float64 {
	switch {
	case stage == models.StageFinal:
		return rule.FinalMultiplier
	case stage.IsKnockout():
		return rule.KnockoutMultiplier
	}
	return 1.0
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	}
	return 0
}
