package quiz

import (
	"math/rand"
	"time"

	"github.com/example/recallbot/pkg/models"
)

// distractorCount is how many wrong answers accompany the correct one.
const distractorCount = 3

// Module builds multiple choice questions over the cards of a review
// session
type Module struct {
	rnd *rand.Rand
}

// New creates a quiz module
func New() *Module {
	return NewWithSeed(time.Now().UnixNano())
}

// NewWithSeed creates a quiz module with a fixed random seed
func NewWithSeed(seed int64) *Module {
	return &Module{rnd: rand.New(rand.NewSource(seed))}
}

// Question represents a single multiple choice question
type Question struct {
	CardID       int64    // card being tested
	Front        string   // prompt shown to the user
	Deck         string   // deck of the card, shown as context
	Options      []string // possible answers in display order
	CorrectIndex int      // index of correct answer in options
}

// Answered reports whether the picked option was the right one.
func (q *Question) Answered(index int) bool {
	return index == q.CorrectIndex
}

// BuildQuestions creates one question per session card. Wrong options are
// drawn from the owner's other cards in pool, preferring the same deck so
// the choices stay plausible.
func (m *Module) BuildQuestions(cards models.SessionCards, pool []models.Card) []Question {
	questions := make([]Question, 0, len(cards))

	for _, sc := range cards {
		options := m.pickDistractors(sc, pool, distractorCount)
		options = append(options, sc.Back)
		correctIndex := len(options) - 1

		// Shuffle options, tracking where the correct one lands
		m.rnd.Shuffle(len(options), func(i, j int) {
			if i == correctIndex {
				correctIndex = j
			} else if j == correctIndex {
				correctIndex = i
			}
			options[i], options[j] = options[j], options[i]
		})

		questions = append(questions, Question{
			CardID:       sc.CardID,
			Front:        sc.Front,
			Deck:         sc.Deck,
			Options:      options,
			CorrectIndex: correctIndex,
		})
	}

	return questions
}

// pickDistractors gets up to count wrong answers for a session card.
// Cards from the same deck come first, other decks fill the rest. Backs
// matching the correct answer are skipped so every option is unique.
func (m *Module) pickDistractors(sc models.SessionCard, pool []models.Card, count int) []string {
	sameDeck := make([]models.Card, 0, len(pool))
	otherDecks := make([]models.Card, 0, len(pool))
	for _, card := range pool {
		if card.ID == sc.CardID || card.Back == sc.Back {
			continue
		}
		if card.Deck == sc.Deck {
			sameDeck = append(sameDeck, card)
		} else {
			otherDecks = append(otherDecks, card)
		}
	}

	m.rnd.Shuffle(len(sameDeck), func(i, j int) {
		sameDeck[i], sameDeck[j] = sameDeck[j], sameDeck[i]
	})
	m.rnd.Shuffle(len(otherDecks), func(i, j int) {
		otherDecks[i], otherDecks[j] = otherDecks[j], otherDecks[i]
	})

	options := make([]string, 0, count)
	seen := map[string]bool{sc.Back: true}
	for _, card := range append(sameDeck, otherDecks...) {
		if len(options) >= count {
			break
		}
		if seen[card.Back] {
			continue
		}
		seen[card.Back] = true
		options = append(options, card.Back)
	}

	return options
}
