package excel

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"groupstat/internal/dataset"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadFrameInfersColumnKinds(t *testing.T) {
	path := writeCSV(t, "score,arm,note\n1.5,control,ok\n2.5,treatment,\n,control,fine\n")

	frame, err := NewDataReader(path).ReadFrame()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if frame.Rows() != 3 {
		t.Fatalf("rows: %d", frame.Rows())
	}

	score, ok := frame.Column("score")
	if !ok || score.Kind != dataset.KindNumeric {
		t.Fatalf("score column: %+v", score)
	}
	if !math.IsNaN(score.Numeric[2]) {
		t.Fatal("empty numeric cell must become NaN")
	}

	arm, ok := frame.Column("arm")
	if !ok || arm.Kind != dataset.KindCategorical {
		t.Fatalf("arm column: %+v", arm)
	}

	note, _ := frame.Column("note")
	if note.Kind != dataset.KindCategorical {
		t.Fatal("mixed column must be categorical")
	}
	if !note.IsMissing(1) {
		t.Fatal("empty label must be missing")
	}
}

func TestReadFrameNumericWithMixedValuesFallsBack(t *testing.T) {
	path := writeCSV(t, "v\n1\ntwo\n3\n")

	frame, err := NewDataReader(path).ReadFrame()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, _ := frame.Column("v")
	if v.Kind != dataset.KindCategorical {
		t.Fatal("non-numeric cell must force the categorical kind")
	}
}

func TestReadFrameMissingFile(t *testing.T) {
	if _, err := NewDataReader("/nonexistent/data.csv").ReadFrame(); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestReadFrameRequiresDataRows(t *testing.T) {
	path := writeCSV(t, "only,header\n")
	if _, err := NewDataReader(path).ReadFrame(); err == nil {
		t.Fatal("expected error for a header-only file")
	}
}
