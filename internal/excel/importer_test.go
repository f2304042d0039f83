package excel

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/example/recallbot/internal/database"
	"github.com/example/recallbot/pkg/models"
)

// setupImportDB points the global connection at an in-memory SQLite
// database for one test.
func setupImportDB(t *testing.T) {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))

	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("DATABASE_PATH", ":memory:")
	require.NoError(t, database.Connect())

	t.Cleanup(func() {
		database.Close()
		database.DB = nil
		os.Chdir(wd)
	})
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestImportCardsFromCSV(t *testing.T) {
	setupImportDB(t)
	ctx := context.Background()

	csv := "front,back,hint\n" +
		"Глаголы,,\n" +
		"run,бежать,\n" +
		"jump,прыгать,как мяч\n" +
		",,\n" +
		",сирота,\n"
	path := writeFile(t, "cards.csv", csv)

	result, err := ImportCards(ctx, DefaultImportConfig(1, path))
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalProcessed)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 0, result.Skipped)
	require.Len(t, result.Errors, 1, "the row without a front is reported")

	cards, err := database.NewCardRepository().GetByOwner(ctx, 1)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, "Глаголы", cards[0].Deck, "deck header switches the deck")
	assert.Equal(t, "run", cards[0].Front)
	assert.Equal(t, "бежать", cards[0].Back)
	assert.Equal(t, "как мяч", cards[1].Hint)
	assert.Equal(t, models.CardStatusActive, cards[0].Status)
	assert.Equal(t, 1, cards[0].Interval)
	assert.InDelta(t, 2.5, cards[0].EaseFactor, 1e-9)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 1), cards[0].NextReview, time.Minute)
}

func TestReimportSkipsAndUpdates(t *testing.T) {
	setupImportDB(t)
	ctx := context.Background()

	path := writeFile(t, "cards.csv", "front,back\nrun,бежать\njump,прыгать\n")

	_, err := ImportCards(ctx, DefaultImportConfig(1, path))
	require.NoError(t, err)

	// The same file again changes nothing.
	again, err := ImportCards(ctx, DefaultImportConfig(1, path))
	require.NoError(t, err)
	assert.Equal(t, 0, again.Created)
	assert.Equal(t, 2, again.Skipped)

	// A changed translation refreshes the existing card in place.
	changed := writeFile(t, "changed.csv", "front,back\nrun,мчаться\njump,прыгать\n")
	result, err := ImportCards(ctx, DefaultImportConfig(1, changed))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 0, result.Created)

	cards, err := database.NewCardRepository().GetByOwner(ctx, 1)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, "мчаться", cards[0].Back)
}

func TestImportCardsFromExcel(t *testing.T) {
	setupImportDB(t)
	ctx := context.Background()

	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Вопрос"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "Ответ"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "sky"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", "небо"))
	require.NoError(t, f.SetCellValue("Sheet1", "C2", "Природа"))
	require.NoError(t, f.SetCellValue("Sheet1", "D2", "над головой"))
	require.NoError(t, f.SetCellValue("Sheet1", "A3", "sea"))
	require.NoError(t, f.SetCellValue("Sheet1", "B3", "море"))

	path := filepath.Join(t.TempDir(), "cards.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	result, err := ImportCards(ctx, DefaultImportConfig(7, path))
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalProcessed)
	assert.Equal(t, 2, result.Created)
	assert.Empty(t, result.Errors)

	cards, err := database.NewCardRepository().GetByOwner(ctx, 7)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, "Природа", cards[0].Deck)
	assert.Equal(t, "над головой", cards[0].Hint)
	assert.Equal(t, "", cards[1].Deck, "row without a deck column stays deckless")
}

func TestParseCSVRow(t *testing.T) {
	data, ok := parseCSVRow([]string{" run ", " бежать ", " hint "}, "Глаголы")
	require.True(t, ok)
	assert.Equal(t, "run", data.front)
	assert.Equal(t, "бежать", data.back)
	assert.Equal(t, "Глаголы", data.deck)
	assert.Equal(t, "hint", data.hint)

	_, ok = parseCSVRow([]string{"", ""}, "")
	assert.False(t, ok, "empty rows are skipped silently")

	_, ok = parseCSVRow([]string{"lonely"}, "")
	assert.False(t, ok, "a single field is not a card")
}

func TestDeckHeader(t *testing.T) {
	deck, ok := deckHeader([]string{"Глаголы", "", ""})
	require.True(t, ok)
	assert.Equal(t, "Глаголы", deck)

	_, ok = deckHeader([]string{"front", "back"})
	assert.False(t, ok, "a filled second field is a card row")

	_, ok = deckHeader([]string{"", ""})
	assert.False(t, ok)

	_, ok = deckHeader([]string{"alone"})
	assert.False(t, ok)
}

func TestColumnToIndex(t *testing.T) {
	tests := []struct {
		column string
		want   int
	}{
		{"A", 0},
		{"B", 1},
		{"Z", 25},
		{"AA", 26},
		{"a", 0},
		{"", -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, columnToIndex(tt.column), "column %q", tt.column)
	}
}

func TestCardKey(t *testing.T) {
	assert.Equal(t, cardKey("Dog", "animals"), cardKey("  dog ", "animals"), "case and spacing do not matter")
	assert.NotEqual(t, cardKey("dog", "animals"), cardKey("dog", "pets"), "same front in another deck is another card")
}
