package spaced_repetition

// Difficulty is the coarse self-assessment attached to a successful answer.
// The review UI exposes it as the Again/Hard/Good/Easy buttons.
type Difficulty int

const (
	DifficultyAgain Difficulty = 0
	DifficultyHard  Difficulty = 1
	DifficultyGood  Difficulty = 2
	DifficultyEasy  Difficulty = 3
)

// successQuality maps a clamped difficulty to an SM-2 quality grade.
// Difficulty 0 on a successful answer still counts as a pass: the card
// was recalled, only with serious effort.
var successQuality = [4]QualityResponse{
	DifficultyAgain: QualityCorrectDifficult,
	DifficultyHard:  QualityCorrectDifficult,
	DifficultyGood:  QualityCorrectHesitation,
	DifficultyEasy:  QualityPerfect,
}

// ToQuality converts a binary answer plus an optional difficulty into the
// 0-5 grade the scheduler consumes. A failed answer is always a blackout
// regardless of difficulty. A successful answer without a difficulty is
// treated as "good".
func ToQuality(success bool, difficulty *Difficulty) QualityResponse {
	if !success {
		return QualityBlackout
	}
	if difficulty == nil {
		return QualityCorrectHesitation
	}
	d := *difficulty
	if d < DifficultyAgain {
		d = DifficultyAgain
	}
	if d > DifficultyEasy {
		d = DifficultyEasy
	}
	return successQuality[d]
}
