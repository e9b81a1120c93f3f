package service

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/hweber/particletrack/internal/domain"
)

func TestExportCSVRoundTrip(t *testing.T) {
	records := []domain.PredictionRecord{
		{
			ID:             "id-b",
			FileName:       "run9-muon-7f3a.png",
			FileSize:       2 * 1024 * 1024,
			PredictedClass: "w boson signal",
			Confidence:     0.9134,
			CreatedAt:      1714003200500,
		},
		{
			ID:             "id-a",
			FileName:       "run9-qcd-1c9d.png",
			FileSize:       512 * 1024,
			PredictedClass: "qcd background",
			Confidence:     0.6012,
			CreatedAt:      1714003100000,
		},
	}

	out := ExportCSV(records)

	rows, err := csv.NewReader(strings.NewReader(string(out))).ReadAll()
	if err != nil {
		t.Fatalf("exported CSV does not parse: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}

	wantHeader := []string{"Timestamp", "Filename", "File_Size_MB", "Predicted_Particle", "Confidence_Score", "Confidence_Percentage", "Storage_ID"}
	for i, col := range wantHeader {
		if rows[0][i] != col {
			t.Errorf("header[%d] = %q, want %q", i, rows[0][i], col)
		}
	}

	wantRows := [][]string{
		{"2024-04-25T00:00:00.500Z", "run9-muon-7f3a.png", "2.000", "w boson signal", "0.9134", "91.34%", "id-b"},
		{"2024-04-24T23:58:20.000Z", "run9-qcd-1c9d.png", "0.500", "qcd background", "0.6012", "60.12%", "id-a"},
	}

	for r, want := range wantRows {
		for c, v := range want {
			if rows[r+1][c] != v {
				t.Errorf("row %d col %d = %q, want %q", r, c, rows[r+1][c], v)
			}
		}
	}
}

func TestExportCSVQuotesEveryValue(t *testing.T) {
	out := string(ExportCSV([]domain.PredictionRecord{{
		ID:             "x",
		FileName:       "a.png",
		PredictedClass: "proton",
		Confidence:     0.5,
	}}))

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	for i, line := range lines {
		for _, field := range strings.Split(line, ",") {
			if !strings.HasPrefix(field, `"`) || !strings.HasSuffix(field, `"`) {
				t.Errorf("line %d field %s is not quoted", i, field)
			}
		}
	}
}

func TestExportCSVEscapesQuotes(t *testing.T) {
	out := ExportCSV([]domain.PredictionRecord{{
		ID:             "x",
		FileName:       `weird"name.png`,
		PredictedClass: "proton",
		Confidence:     0.5,
	}})

	rows, err := csv.NewReader(strings.NewReader(string(out))).ReadAll()
	if err != nil {
		t.Fatalf("exported CSV does not parse: %v", err)
	}
	if rows[1][1] != `weird"name.png` {
		t.Errorf("filename round-tripped as %q", rows[1][1])
	}
}

func TestExportCSVEmptyStore(t *testing.T) {
	out := string(ExportCSV(nil))
	if !strings.HasPrefix(out, `"Timestamp"`) {
		t.Errorf("empty export missing header: %q", out)
	}
	if strings.Count(out, "\n") != 1 {
		t.Errorf("empty export should be header only, got %q", out)
	}
}

func TestExportFileName(t *testing.T) {
	now := time.Date(2026, 8, 31, 15, 4, 5, 0, time.UTC)
	if got := ExportFileName(now); got != "particle-predictions-2026-08-31.csv" {
		t.Errorf("got %q", got)
	}
}
