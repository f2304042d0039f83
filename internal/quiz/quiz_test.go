package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/recallbot/pkg/models"
)

func poolCard(id int64, back, deck string) models.Card {
	return models.Card{ID: id, OwnerID: 1, Front: "front", Back: back, Deck: deck}
}

func TestBuildQuestionsBasics(t *testing.T) {
	m := NewWithSeed(42)

	cards := models.SessionCards{
		{CardID: 1, Front: "dog", Back: "собака", Deck: "animals"},
		{CardID: 2, Front: "cat", Back: "кошка", Deck: "animals"},
	}
	pool := []models.Card{
		poolCard(1, "собака", "animals"),
		poolCard(2, "кошка", "animals"),
		poolCard(3, "лошадь", "animals"),
		poolCard(4, "корова", "animals"),
		poolCard(5, "стол", "furniture"),
	}

	questions := m.BuildQuestions(cards, pool)
	require.Len(t, questions, 2)

	for _, q := range questions {
		assert.Len(t, q.Options, 4, "three distractors plus the answer")
		require.GreaterOrEqual(t, q.CorrectIndex, 0)
		require.Less(t, q.CorrectIndex, len(q.Options))

		// Every option is unique and the correct index points at the back.
		seen := map[string]bool{}
		for _, opt := range q.Options {
			assert.False(t, seen[opt], "duplicate option %q", opt)
			seen[opt] = true
		}
	}

	assert.Equal(t, "собака", questions[0].Options[questions[0].CorrectIndex])
	assert.Equal(t, "кошка", questions[1].Options[questions[1].CorrectIndex])
}

func TestBuildQuestionsPrefersSameDeck(t *testing.T) {
	m := NewWithSeed(7)

	cards := models.SessionCards{{CardID: 1, Front: "dog", Back: "собака", Deck: "animals"}}
	pool := []models.Card{
		poolCard(1, "собака", "animals"),
		poolCard(2, "кошка", "animals"),
		poolCard(3, "лошадь", "animals"),
		poolCard(4, "корова", "animals"),
		poolCard(5, "стол", "furniture"),
		poolCard(6, "стул", "furniture"),
	}

	questions := m.BuildQuestions(cards, pool)
	require.Len(t, questions, 1)

	// Enough same-deck cards exist, so no furniture sneaks in.
	for _, opt := range questions[0].Options {
		assert.NotContains(t, []string{"стол", "стул"}, opt)
	}
}

func TestBuildQuestionsSmallPool(t *testing.T) {
	m := NewWithSeed(1)

	cards := models.SessionCards{{CardID: 1, Front: "dog", Back: "собака", Deck: ""}}

	// Only one other card to borrow a wrong answer from.
	questions := m.BuildQuestions(cards, []models.Card{
		poolCard(1, "собака", ""),
		poolCard(2, "кошка", ""),
	})
	require.Len(t, questions, 1)
	assert.Len(t, questions[0].Options, 2)
	assert.Equal(t, "собака", questions[0].Options[questions[0].CorrectIndex])

	// No pool at all still yields an answerable question.
	questions = m.BuildQuestions(cards, nil)
	require.Len(t, questions, 1)
	require.Len(t, questions[0].Options, 1)
	assert.Equal(t, 0, questions[0].CorrectIndex)
}

func TestBuildQuestionsSkipsMatchingBacks(t *testing.T) {
	m := NewWithSeed(3)

	cards := models.SessionCards{{CardID: 1, Front: "dog", Back: "собака", Deck: ""}}
	pool := []models.Card{
		poolCard(2, "собака", ""), // same back, useless as a wrong answer
		poolCard(3, "собака", ""),
		poolCard(4, "кошка", ""),
		poolCard(5, "кошка", ""), // duplicate back collapses
	}

	questions := m.BuildQuestions(cards, pool)
	require.Len(t, questions, 1)
	assert.Len(t, questions[0].Options, 2)
}

func TestBuildQuestionsDeterministicWithSeed(t *testing.T) {
	cards := models.SessionCards{
		{CardID: 1, Front: "a", Back: "1", Deck: "d"},
		{CardID: 2, Front: "b", Back: "2", Deck: "d"},
	}
	pool := []models.Card{
		poolCard(1, "1", "d"), poolCard(2, "2", "d"),
		poolCard(3, "3", "d"), poolCard(4, "4", "d"), poolCard(5, "5", "d"),
	}

	first := NewWithSeed(99).BuildQuestions(cards, pool)
	second := NewWithSeed(99).BuildQuestions(cards, pool)
	assert.Equal(t, first, second)
}

func TestAnswered(t *testing.T) {
	q := Question{Options: []string{"a", "b", "c"}, CorrectIndex: 1}
	assert.True(t, q.Answered(1))
	assert.False(t, q.Answered(0))
	assert.False(t, q.Answered(2))
}
