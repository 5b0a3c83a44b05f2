package events

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"simeval/domain/event"
	"simeval/internal/errors"
	"simeval/internal/logging"
)

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.DateOnly,
}

// Reader loads event records from CSV or Excel files. Columns are
// time, event, user, repo and an optional action, with no header required.
type Reader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	log      *slog.Logger
}

// NewReader creates a reader; the file type follows the extension and
// anything other than .xlsx is read as CSV.
func NewReader(filePath string) *Reader {
	fileType := "csv"
	if strings.EqualFold(filepath.Ext(filePath), ".xlsx") {
		fileType = "xlsx"
	}
	return &Reader{filePath: filePath, fileType: fileType, log: logging.New("events")}
}

// Load is shorthand for NewReader(path).Read().
func Load(path string) ([]event.Event, error) {
	return NewReader(path).Read()
}

// Read parses every record, sorted by time.
func (r *Reader) Read() ([]event.Event, error) {
	start := time.Now()
	var (
		rows [][]string
		err  error
	)
	switch r.fileType {
	case "xlsx":
		rows, err = r.readExcelRows()
	default:
		rows, err = r.readCSVRows()
	}
	if err != nil {
		return nil, err
	}

	events, err := parseRows(rows)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", r.filePath)
	}
	r.log.Info("events loaded", "file", r.filePath, "type", r.fileType, "events", len(events), "took", time.Since(start))
	return events, nil
}

// readExcelRows reads the first sheet of the workbook.
func (r *Reader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("failed to open Excel file: %w", err))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.InvalidInput(fmt.Sprintf("Excel file %s has no sheets", r.filePath))
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err))
	}
	return rows, nil
}

func (r *Reader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("failed to open CSV file: %w", err))
	}
	defer file.Close()
	return readCSV(file)
}

func readCSV(in io.Reader) ([][]string, error) {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("failed to read CSV: %w", err))
	}
	return rows, nil
}

// parseRows converts raw rows to events. A first row whose time column does
// not parse is taken as a header and skipped; blank rows are ignored.
func parseRows(rows [][]string) ([]event.Event, error) {
	events := make([]event.Event, 0, len(rows))
	for i, row := range rows {
		if blank(row) {
			continue
		}
		if len(row) < 4 {
			return nil, errors.InvalidInput(fmt.Sprintf("row %d: want at least 4 fields (time, event, user, repo), got %d", i+1, len(row)))
		}
		ts, err := ParseTime(row[0])
		if err != nil {
			if len(events) == 0 && i == firstNonBlank(rows) {
				continue
			}
			return nil, errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("row %d: %w", i+1, err))
		}
		e := event.Event{
			Time: ts,
			Type: strings.TrimSpace(row[1]),
			User: strings.TrimSpace(row[2]),
			Repo: strings.TrimSpace(row[3]),
		}
		if len(row) > 4 {
			e.Action = strings.ToLower(strings.TrimSpace(row[4]))
		}
		events = append(events, e)
	}
	sort.SliceStable(events, func(a, b int) bool { return events[a].Time.Before(events[b].Time) })
	return events, nil
}

// ParseTime accepts RFC 3339, "2006-01-02 15:04:05", a bare date or Unix
// seconds. Times without a zone are UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		whole := int64(secs)
		return time.Unix(whole, int64((secs-float64(whole))*1e9)).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// LoadUserLocations reads a user,country CSV. A header row is allowed.
func LoadUserLocations(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("open user locations: %w", err))
	}
	defer file.Close()

	rows, err := readCSV(file)
	if err != nil {
		return nil, err
	}
	locations := make(map[string]string, len(rows))
	for i, row := range rows {
		if blank(row) {
			continue
		}
		if len(row) < 2 {
			return nil, errors.InvalidInput(fmt.Sprintf("user locations row %d: want user,country", i+1))
		}
		user, country := strings.TrimSpace(row[0]), strings.TrimSpace(row[1])
		if i == 0 && strings.EqualFold(user, "user") {
			continue
		}
		locations[user] = country
	}
	return locations, nil
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func firstNonBlank(rows [][]string) int {
	for i, row := range rows {
		if !blank(row) {
			return i
		}
	}
	return -1
}
