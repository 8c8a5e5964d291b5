// Package export renders the ledger as a spreadsheet for review.
package export

import (
	"github.com/tealeg/xlsx"

	"call-transcriber/internal/app/model"
)

const sheetName = "Transcriptions"

var header = []string{"File Name", "File Date", "Duration (s)", "Speakers", "Status", "Transcription"}

// ToExcel writes records to outputFilePath, one row per ledger row. When
// onlyFailures is set only failed attempts are written.
func ToExcel(records []model.TranscriptionRecord, outputFilePath string, onlyFailures bool) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet(sheetName)
	if err != nil {
		return err
	}

	headerRow := sheet.AddRow()
	for _, title := range header {
		headerRow.AddCell().Value = title
	}

	for _, r := range records {
		failed := r.Failed()
		if onlyFailures && !failed {
			continue
		}
		row := sheet.AddRow()
		row.AddCell().Value = r.FileName
		row.AddCell().Value = r.FileDate
		row.AddCell().SetFloat(r.DurationSeconds)
		row.AddCell().SetInt(r.SpeakerCount)
		row.AddCell().Value = status(failed)
		row.AddCell().Value = r.Transcription
	}

	return file.Save(outputFilePath)
}

func status(failed bool) string {
	if failed {
		return "failed"
	}
	return "ok"
}
