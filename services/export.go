package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"studymate-platform/internal/database"
	"studymate-platform/internal/logger"
	"studymate-platform/models"
)

// StudySetReader loads study sets for export.
type StudySetReader interface {
	GetDocument(ctx context.Context, ownerID, documentID string) (*models.Document, error)
	GetStudySet(ctx context.Context, ownerID, documentID, kind string) (*models.StudySet, error)
}

// ExportService renders a document's study sets as a spreadsheet the
// student can print or import into other tools.
type ExportService struct {
	store StudySetReader
}

func NewExportService(store StudySetReader) *ExportService {
	return &ExportService{store: store}
}

// ExportWorkbook builds an XLSX workbook with one sheet per study
// kind. Missing kinds are skipped; a document with no study sets at
// all is an error.
func (es *ExportService) ExportWorkbook(ctx context.Context, ownerID, documentID string) ([]byte, string, error) {
	doc, err := es.store.GetDocument(ctx, ownerID, documentID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("failed to close workbook", "error", err)
		}
	}()

	sheets := 0

	if flash, err := es.store.GetStudySet(ctx, ownerID, documentID, models.StudyKindFlashcards); err == nil {
		if err := writeFlashcardSheet(f, flash.Flashcards); err != nil {
			return nil, "", err
		}
		sheets++
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, "", err
	}

	if quiz, err := es.store.GetStudySet(ctx, ownerID, documentID, models.StudyKindQuiz); err == nil {
		if err := writeQuizSheet(f, quiz.QuizItems); err != nil {
			return nil, "", err
		}
		sheets++
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, "", err
	}

	if sheets == 0 {
		return nil, "", fmt.Errorf("document %s has no study sets to export", documentID)
	}

	// Drop the default sheet excelize creates.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		logger.Debug("failed to delete default sheet", "error", err)
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, "", fmt.Errorf("failed to render workbook: %w", err)
	}

	filename := fmt.Sprintf("%s-study-sets.xlsx", doc.Name)
	return buf.Bytes(), filename, nil
}

func writeFlashcardSheet(f *excelize.File, cards []models.Flashcard) error {
	const sheetName = "Flashcards"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create flashcard sheet: %w", err)
	}
	f.SetActiveSheet(index)

	f.SetCellValue(sheetName, "A1", "Front")
	f.SetCellValue(sheetName, "B1", "Back")

	for i, card := range cards {
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), card.Front)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), card.Back)
	}
	return nil
}

func writeQuizSheet(f *excelize.File, items []models.QuizItem) error {
	const sheetName = "Quiz"
	if _, err := f.NewSheet(sheetName); err != nil {
		return fmt.Errorf("failed to create quiz sheet: %w", err)
	}

	headers := []string{"Question", "Correct Answer", "Options"}
	for i, header := range headers {
		f.SetCellValue(sheetName, fmt.Sprintf("%c1", 'A'+i), header)
	}

	for i, item := range items {
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), item.Question)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), item.Options[item.Answer])

		keys := make([]string, 0, len(item.Options))
		for key := range item.Options {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		var options string
		for _, key := range keys {
			if options != "" {
				options += "; "
			}
			options += fmt.Sprintf("%s) %s", key, item.Options[key])
		}
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), options)
	}
	return nil
}
