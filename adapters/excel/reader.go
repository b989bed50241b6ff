package excel

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"groupstat/internal/dataset"
)

// DataReader reads Excel and CSV files into an analysis frame
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewDataReader creates a reader that handles both Excel and CSV files
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType}
}

// ReadFrame reads the file into a Frame. Columns where every non-empty cell
// parses as a number become numeric (empty cells as NaN); everything else is
// categorical (empty cells as missing labels).
func (r *DataReader) ReadFrame() (*dataset.Frame, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	case "xlsx":
		rows, err = r.readExcelRows()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("file must have a header row and at least one data row")
	}

	return buildFrame(rows[0], rows[1:])
}

func (r *DataReader) readCSVRows() ([][]string, error) {
	f, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return rows, nil
}

func (r *DataReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	return rows, nil
}

func buildFrame(header []string, records [][]string) (*dataset.Frame, error) {
	frame := dataset.NewFrame()

	for col, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("column_%d", col+1)
		}

		cells := make([]string, len(records))
		numeric := true
		nonEmpty := 0
		for i, rec := range records {
			if col < len(rec) {
				cells[i] = strings.TrimSpace(rec[col])
			}
			if cells[i] == "" {
				continue
			}
			nonEmpty++
			if _, err := strconv.ParseFloat(cells[i], 64); err != nil {
				numeric = false
			}
		}

		if numeric && nonEmpty > 0 {
			values := make([]float64, len(cells))
			for i, c := range cells {
				if c == "" {
					values[i] = math.NaN()
					continue
				}
				values[i], _ = strconv.ParseFloat(c, 64)
			}
			if err := frame.AddNumeric(name, values); err != nil {
				return nil, err
			}
			continue
		}
		if err := frame.AddCategorical(name, cells); err != nil {
			return nil, err
		}
	}
	return frame, nil
}
