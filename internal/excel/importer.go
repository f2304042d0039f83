package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/example/recallbot/internal/database"
	"github.com/example/recallbot/pkg/models"
	"github.com/xuri/excelize/v2"
)

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath    string // Path to the Excel or CSV file
	OwnerID     int64  // Telegram user the cards belong to
	FrontColumn string // Column with the card front
	BackColumn  string // Column with the card back
	DeckColumn  string // Column with the deck name
	HintColumn  string // Column with an optional hint
	SheetName   string // Name of the sheet to import
	StartRow    int    // The row to start importing from (1-based index)
	DefaultDeck string // Deck used when the row has none
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig(ownerID int64, filePath string) ImportConfig {
	return ImportConfig{
		FilePath:    filePath,
		OwnerID:     ownerID,
		FrontColumn: "A",
		BackColumn:  "B",
		DeckColumn:  "C",
		HintColumn:  "D",
		SheetName:   "Sheet1",
		StartRow:    2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Updated        int
	Skipped        int
	Errors         []string
}

// cardData holds one parsed row before it is written
type cardData struct {
	front string
	back  string
	deck  string
	hint  string
}

// ImportCards imports flashcards from an Excel or CSV file. Cards are
// matched by front text and deck within the owner's collection: matches
// get their back and hint refreshed, everything else is created as a new
// active card.
func ImportCards(ctx context.Context, config ImportConfig) (*ImportResult, error) {
	imp, err := newImporter(ctx, config)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(config.FilePath))
	if ext == ".csv" {
		return imp.importFromCSV()
	}
	return imp.importFromExcel()
}

// importer carries the shared state of one import run
type importer struct {
	ctx       context.Context
	config    ImportConfig
	cards     *database.CardRepository
	existing  map[string]*models.Card
	firstStep int
	result    *ImportResult
}

func newImporter(ctx context.Context, config ImportConfig) (*importer, error) {
	cards := database.NewCardRepository()

	// Load the collection once for duplicate detection
	existingCards, err := cards.GetByOwner(ctx, config.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get existing cards: %v", err)
	}
	existing := make(map[string]*models.Card, len(existingCards))
	for i := range existingCards {
		card := &existingCards[i]
		existing[cardKey(card.Front, card.Deck)] = card
	}

	schedule, err := database.NewScheduleRepository().GetOrCreate(ctx, config.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %v", err)
	}
	firstStep := 1
	if len(schedule.Intervals) > 0 {
		firstStep = schedule.Intervals[0]
	}

	return &importer{
		ctx:       ctx,
		config:    config,
		cards:     cards,
		existing:  existing,
		firstStep: firstStep,
		result:    &ImportResult{Errors: make([]string, 0)},
	}, nil
}

// importFromExcel imports cards from an Excel file
func (imp *importer) importFromExcel() (*ImportResult, error) {
	f, err := excelize.OpenFile(imp.config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(imp.config.SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %v", err)
	}

	for i, row := range rows {
		// Skip header rows
		if i < imp.config.StartRow-1 {
			continue
		}

		imp.result.TotalProcessed++

		data := parseExcelRow(row, imp.config)
		if err := imp.upsertCard(data); err != nil {
			imp.result.Errors = append(imp.result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
		}
	}

	return imp.result, nil
}

// importFromCSV imports cards from a CSV file. The format is
// front,back[,hint]; a row with only the first field filled switches the
// current deck for the rows below it.
func (imp *importer) importFromCSV() (*ImportResult, error) {
	file, err := os.Open(imp.config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %v", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	rowNum := 0
	currentDeck := imp.config.DefaultDeck

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %v", err)
		}

		rowNum++

		// Skip header rows
		if rowNum < imp.config.StartRow {
			continue
		}

		// Deck header row, e.g. "Глаголы,,"
		if deck, ok := deckHeader(row); ok {
			currentDeck = deck
			continue
		}

		data, ok := parseCSVRow(row, currentDeck)
		if !ok {
			continue
		}

		imp.result.TotalProcessed++
		if err := imp.upsertCard(data); err != nil {
			imp.result.Errors = append(imp.result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
		}
	}

	return imp.result, nil
}

// upsertCard writes one parsed row into the owner's collection
func (imp *importer) upsertCard(data cardData) error {
	if data.front == "" {
		return fmt.Errorf("front cannot be empty")
	}
	if data.back == "" {
		return fmt.Errorf("back cannot be empty")
	}

	key := cardKey(data.front, data.deck)
	if card, ok := imp.existing[key]; ok {
		if card.Back == data.back && (data.hint == "" || card.Hint == data.hint) {
			imp.result.Skipped++
			return nil
		}
		// Refresh the text, leave the scheduling state alone
		card.Back = data.back
		if data.hint != "" {
			card.Hint = data.hint
		}
		if err := imp.cards.Save(imp.ctx, card); err != nil {
			return fmt.Errorf("failed to update card: %v", err)
		}
		imp.result.Updated++
		return nil
	}

	now := time.Now()
	card := &models.Card{
		OwnerID:    imp.config.OwnerID,
		Front:      data.front,
		Back:       data.back,
		Deck:       data.deck,
		Hint:       data.hint,
		Status:     models.CardStatusActive,
		Interval:   1,
		EaseFactor: 2.5,
		NextReview: now.AddDate(0, 0, imp.firstStep),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := imp.cards.Create(imp.ctx, card); err != nil {
		return fmt.Errorf("failed to create card: %v", err)
	}
	imp.existing[key] = card
	imp.result.Created++
	return nil
}

// parseExcelRow extracts one card from a sheet row
func parseExcelRow(row []string, config ImportConfig) cardData {
	data := cardData{
		front: cell(row, config.FrontColumn),
		back:  cell(row, config.BackColumn),
		deck:  cell(row, config.DeckColumn),
		hint:  cell(row, config.HintColumn),
	}
	if data.deck == "" {
		data.deck = config.DefaultDeck
	}
	return data
}

// parseCSVRow extracts one card from a CSV record. Returns false for
// rows that should be silently skipped.
func parseCSVRow(row []string, currentDeck string) (cardData, bool) {
	if len(row) < 2 {
		return cardData{}, false
	}
	data := cardData{
		front: strings.TrimSpace(row[0]),
		back:  strings.TrimSpace(row[1]),
		deck:  currentDeck,
	}
	if len(row) > 2 {
		data.hint = strings.TrimSpace(row[2])
	}
	if data.front == "" && data.back == "" {
		return cardData{}, false
	}
	return data, true
}

// deckHeader reports whether the row is a deck header: the first field
// set, the rest empty
func deckHeader(row []string) (string, bool) {
	if len(row) < 2 {
		return "", false
	}
	first := strings.Trim(strings.TrimSpace(row[0]), "\"")
	if first == "" || strings.TrimSpace(row[1]) != "" {
		return "", false
	}
	return first, true
}

// cardKey builds the duplicate-detection key for a card
func cardKey(front, deck string) string {
	return strings.ToLower(strings.TrimSpace(front)) + "\x00" + strings.TrimSpace(deck)
}

// cell returns the trimmed value of the lettered column, or "" when the
// row is too short or the column is not configured
func cell(row []string, column string) string {
	idx := columnToIndex(column)
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// columnToIndex converts an Excel column letter to a zero-based index
func columnToIndex(column string) int {
	if column == "" {
		return -1
	}
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
