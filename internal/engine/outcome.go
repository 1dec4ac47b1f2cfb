package engine

import "github.com/ericogr/pokearena/internal/game"

// Outcome is the terminal result of a battle, or OutcomeNone while it goes on.
type Outcome string

const (
	OutcomeNone      Outcome = ""
	OutcomePlayerWin Outcome = "player-win"
	OutcomeEnemyWin  Outcome = "enemy-win"
	OutcomeDraw      Outcome = "draw"
)

// Evaluate checks the two health counters. A double knock-out is a draw and
// takes precedence over either side winning.
func Evaluate(playerHealth, enemyHealth int) Outcome {
	switch {
	case playerHealth <= 0 && enemyHealth <= 0:
		return OutcomeDraw
	case playerHealth <= 0:
		return OutcomeEnemyWin
	case enemyHealth <= 0:
		return OutcomePlayerWin
	default:
		return OutcomeNone
	}
}

// Result maps an outcome to the player's result. OutcomeNone maps to "".
func (o Outcome) Result() game.Result {
	switch o {
	case OutcomePlayerWin:
		return game.ResultWin
	case OutcomeEnemyWin:
		return game.ResultLose
	case OutcomeDraw:
		return game.ResultDraw
	default:
		return ""
	}
}
