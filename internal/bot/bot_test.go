package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/recallbot/pkg/models"
)

func TestSplitCardLine(t *testing.T) {
	tests := []struct {
		line  string
		front string
		back  string
		ok    bool
	}{
		{"apple - яблоко", "apple", "яблоко", true},
		{"to get up — вставать", "to get up", "вставать", true},
		{"dog – собака", "dog", "собака", true},
		{"cat\tкошка", "cat", "кошка", true},
		{"run -  ", "", "", false},
		{"no separator here", "", "", false},
		{" - яблоко", "", "", false},
		{"", "", "", false},
	}
	for _, tt := range tests {
		front, back, ok := splitCardLine(tt.line)
		assert.Equal(t, tt.ok, ok, "line %q", tt.line)
		assert.Equal(t, tt.front, front, "line %q", tt.line)
		assert.Equal(t, tt.back, back, "line %q", tt.line)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "ровно", truncate("ровно", 5))
	assert.Equal(t, "длин…", truncate("длинное слово", 5))
}

func TestCardsWord(t *testing.T) {
	tests := map[int]string{
		1:   "карточка",
		2:   "карточки",
		4:   "карточки",
		5:   "карточек",
		11:  "карточек",
		14:  "карточек",
		21:  "карточка",
		22:  "карточки",
		111: "карточек",
		0:   "карточек",
	}
	for n, want := range tests {
		assert.Equal(t, want, cardsWord(n), "n=%d", n)
	}
}

func TestDaysWord(t *testing.T) {
	assert.Equal(t, "день", daysWord(1))
	assert.Equal(t, "дня", daysWord(3))
	assert.Equal(t, "дней", daysWord(12))
	assert.Equal(t, "день", daysWord(31))
	assert.Equal(t, "дней", daysWord(100))
}

func TestCreateKeyboard(t *testing.T) {
	markup := createKeyboard([][]MenuButton{
		{{Text: "Один", CallbackData: "one"}, {Text: "Два", CallbackData: "two"}},
		{{Text: "Три", CallbackData: "three"}},
	})

	require.Len(t, markup.InlineKeyboard, 2)
	require.Len(t, markup.InlineKeyboard[0], 2)
	require.Len(t, markup.InlineKeyboard[1], 1)
	assert.Equal(t, "Один", markup.InlineKeyboard[0][0].Text)
	require.NotNil(t, markup.InlineKeyboard[0][1].CallbackData)
	assert.Equal(t, "two", *markup.InlineKeyboard[0][1].CallbackData)
}

func TestActiveSessionCursor(t *testing.T) {
	active := &activeSession{
		session: &models.ReviewSession{
			Cards: models.SessionCards{
				{CardID: 1, Front: "a"},
				{CardID: 2, Front: "b"},
			},
		},
	}

	require.NotNil(t, active.currentCard())
	assert.Equal(t, int64(1), active.currentCard().CardID)

	active.position = 1
	assert.Equal(t, int64(2), active.currentCard().CardID)

	active.position = 2
	assert.Nil(t, active.currentCard(), "cursor past the end")

	assert.Nil(t, active.currentQuestion(), "no questions in a flashcard session")
}

func TestSessionStateIsPerUser(t *testing.T) {
	b := &Bot{
		states:   make(map[int64]*userState),
		sessions: make(map[int64]*activeSession),
	}

	b.setState(1, stateWaitingCardList)
	assert.Equal(t, stateWaitingCardList, b.getState(1))
	assert.Equal(t, "", b.getState(2))

	b.clearState(1)
	assert.Equal(t, "", b.getState(1))

	b.setSession(1, &activeSession{})
	assert.NotNil(t, b.getSession(1))
	assert.Nil(t, b.getSession(2))
	b.clearSession(1)
	assert.Nil(t, b.getSession(1))
}
