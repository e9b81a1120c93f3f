package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/hweber/particletrack/internal/domain"
)

// csvColumns is the fixed export column order consumed by downstream
// analysis scripts. Do not reorder.
var csvColumns = []string{
	"Timestamp",
	"Filename",
	"File_Size_MB",
	"Predicted_Particle",
	"Confidence_Score",
	"Confidence_Percentage",
	"Storage_ID",
}

// ExportCSV renders records as CSV: every value quoted, file size in
// mebibytes to 3 decimals, confidence to 4 decimals, percentage to 2. Rows
// keep the incoming order (most recent first when fed from ListAll).
func ExportCSV(records []domain.PredictionRecord) []byte {
	var b strings.Builder
	writeRow(&b, csvColumns)

	for _, rec := range records {
		writeRow(&b, []string{
			time.UnixMilli(rec.CreatedAt).UTC().Format("2006-01-02T15:04:05.000Z"),
			rec.FileName,
			fmt.Sprintf("%.3f", float64(rec.FileSize)/1024/1024),
			rec.PredictedClass,
			fmt.Sprintf("%.4f", rec.Confidence),
			fmt.Sprintf("%.2f%%", rec.Confidence*100),
			rec.ID,
		})
	}

	return []byte(b.String())
}

func writeRow(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteByte('\n')
}

// ExportFileName is the dated attachment name for a CSV download.
func ExportFileName(now time.Time) string {
	return fmt.Sprintf("particle-predictions-%s.csv", now.UTC().Format("2006-01-02"))
}
