package spaced_repetition

import "math"

// SM2 implements the SuperMemo-2 algorithm for spaced repetition
type SM2 struct {
	// Пороговое значение "хорошего ответа"
	PassThreshold QualityResponse
	// Максимальный интервал повторения в днях
	MaxInterval int
	// Границы фактора легкости
	MinEaseFactor float64
	MaxEaseFactor float64
	// Порог завершения карточки: серия правильных ответов и интервал в днях
	MasteryStreak   int
	MasteryInterval int
}

// NewSM2 создает новый экземпляр SM2 с настройками по умолчанию
func NewSM2() *SM2 {
	return &SM2{
		PassThreshold:   QualityCorrectDifficult, // Ответы 3 и выше считаются успешными
		MaxInterval:     730,                     // Максимальный интервал - 2 года
		MinEaseFactor:   1.3,
		MaxEaseFactor:   3.0,
		MasteryStreak:   5,
		MasteryInterval: 90,
	}
}

// QualityResponse represents the quality of response in SM-2
type QualityResponse int

const (
	// Complete blackout, unable to recall
	QualityBlackout QualityResponse = 0
	// Incorrect response but remembered upon seeing the correct answer
	QualityIncorrect QualityResponse = 1
	// Incorrect response but the correct answer felt familiar
	QualityIncorrectFamiliar QualityResponse = 2
	// Correct response but required significant effort
	QualityCorrectDifficult QualityResponse = 3
	// Correct response after some hesitation
	QualityCorrectHesitation QualityResponse = 4
	// Perfect response with no hesitation
	QualityPerfect QualityResponse = 5
)

// Result carries the scheduling state produced by one review.
type Result struct {
	Interval           int     // days until the next review
	EaseFactor         float64 // updated EF, clamped and rounded to 2 decimals
	ConsecutiveCorrect int
}

// Compute applies one review to the given scheduling state and returns the
// next state. The function is pure: it never reads clocks or storage, so
// the same inputs always produce the same result.
func (sm *SM2) Compute(interval int, easeFactor float64, consecutiveCorrect int, quality QualityResponse) Result {
	if quality < QualityBlackout {
		quality = QualityBlackout
	}
	if quality > QualityPerfect {
		quality = QualityPerfect
	}

	if quality < sm.PassThreshold {
		// Неправильный ответ - сбрасываем серию и интервал
		easeFactor -= 0.2
		if easeFactor < sm.MinEaseFactor {
			easeFactor = sm.MinEaseFactor
		}
		return Result{
			Interval:           1,
			EaseFactor:         roundEase(easeFactor),
			ConsecutiveCorrect: 0,
		}
	}

	consecutiveCorrect++

	// The new interval grows from the EF the card had before this answer.
	var next int
	switch consecutiveCorrect {
	case 1:
		next = 1
	case 2:
		next = 6
	default:
		next = int(math.Round(float64(interval) * easeFactor))
	}
	if next < 1 {
		next = 1
	}
	if next > sm.MaxInterval {
		next = sm.MaxInterval
	}

	q := float64(quality)
	easeFactor += 0.1 - (5.0-q)*(0.08+(5.0-q)*0.02)
	if easeFactor < sm.MinEaseFactor {
		easeFactor = sm.MinEaseFactor
	}
	if easeFactor > sm.MaxEaseFactor {
		easeFactor = sm.MaxEaseFactor
	}

	return Result{
		Interval:           next,
		EaseFactor:         roundEase(easeFactor),
		ConsecutiveCorrect: consecutiveCorrect,
	}
}

// IsMastered determines if a card is considered fully learned
func (sm *SM2) IsMastered(consecutiveCorrect, interval int) bool {
	return consecutiveCorrect >= sm.MasteryStreak && interval >= sm.MasteryInterval
}

// roundEase keeps the stored EF on a two decimal grid.
func roundEase(ef float64) float64 {
	return math.Round(ef*100) / 100
}
