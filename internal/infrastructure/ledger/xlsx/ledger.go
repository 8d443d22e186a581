package xlsx

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/oshomadesse/shiori/internal/core/domain"
)

const defaultSheet = "Sheet1"

// headerTokens marks rows that are column headings rather than data, kept
// compatible with the spreadsheet the feed historically read from.
var headerTokens = []string{"書籍", "タイトル", "Book", "回答", "タイムスタンプ"}

// Ledger is the exclusion ledger backed by an xlsx workbook, for setups
// that keep the list in a shared spreadsheet instead of a database.
// Layout: A=date, B=title, C=author, D=category, first row is a header.
type Ledger struct {
	path  string
	sheet string

	// Guards read-modify-write of the workbook within this process.
	// Cross-process overlap is the documented concurrent-run risk.
	mu sync.Mutex
}

func NewLedger(path, sheet string) *Ledger {
	if sheet == "" {
		sheet = defaultSheet
	}
	return &Ledger{path: path, sheet: sheet}
}

func (l *Ledger) ListTitles(_ context.Context) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := l.open()
	if err != nil {
		return nil, err
	}
	if f == nil {
		return []string{}, nil
	}
	defer f.Close()

	rows, err := f.GetRows(l.sheet)
	if err != nil {
		return nil, fmt.Errorf("read ledger sheet %q: %w", l.sheet, err)
	}

	out := make([]string, 0, len(rows))
	for i, row := range rows {
		if i == 0 || len(row) < 2 {
			continue
		}
		title := strings.TrimSpace(row[1])
		if title == "" || isHeaderRow(title) {
			continue
		}
		out = append(out, title)
	}
	return out, nil
}

func (l *Ledger) Append(_ context.Context, entry domain.LedgerEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := l.open()
	if err != nil {
		return err
	}

	create := f == nil
	if create {
		f = excelize.NewFile()
		for col, heading := range []string{"日付", "タイトル", "著者", "カテゴリー"} {
			cell, _ := excelize.CoordinatesToCellName(col+1, 1)
			if err := f.SetCellValue(l.sheet, cell, heading); err != nil {
				return fmt.Errorf("write ledger header: %w", err)
			}
		}
	}
	defer f.Close()

	rows, err := f.GetRows(l.sheet)
	if err != nil {
		return fmt.Errorf("read ledger sheet %q: %w", l.sheet, err)
	}
	next := len(rows) + 1

	values := []string{
		entry.Date.Format("2006-01-02"),
		entry.Title,
		entry.Author,
		entry.Category,
	}
	for col, v := range values {
		cell, _ := excelize.CoordinatesToCellName(col+1, next)
		if err := f.SetCellValue(l.sheet, cell, v); err != nil {
			return fmt.Errorf("write ledger row: %w", err)
		}
	}

	if err := f.SaveAs(l.path); err != nil {
		return fmt.Errorf("save ledger workbook: %w", err)
	}
	return nil
}

// open returns nil,nil when the workbook does not exist yet.
func (l *Ledger) open() (*excelize.File, error) {
	f, err := excelize.OpenFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open ledger workbook: %w", err)
	}
	return f, nil
}

func isHeaderRow(title string) bool {
	for _, token := range headerTokens {
		if strings.Contains(title, token) {
			return true
		}
	}
	return false
}
