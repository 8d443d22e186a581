package xlsx

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/oshomadesse/shiori/internal/core/domain"
)

func TestLedgerListTitlesOnMissingWorkbook(t *testing.T) {
	ledger := NewLedger(filepath.Join(t.TempDir(), "missing.xlsx"), "")

	titles, err := ledger.ListTitles(context.Background())
	if err != nil {
		t.Fatalf("ListTitles() error = %v", err)
	}
	if len(titles) != 0 {
		t.Fatalf("expected empty ledger, got %v", titles)
	}
}

func TestLedgerAppendThenList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "excluded.xlsx")
	ledger := NewLedger(path, "")
	ctx := context.Background()
	date := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	first := domain.LedgerEntry{Date: date, Title: "アトミック・ハビッツ", Author: "ジェームズ・クリアー", Category: "自己啓発"}
	if err := ledger.Append(ctx, first); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	second := domain.LedgerEntry{Date: date, Title: "ディープ・ワーク", Author: "カル・ニューポート", Category: "ビジネス"}
	if err := ledger.Append(ctx, second); err != nil {
		t.Fatalf("Append() second error = %v", err)
	}

	titles, err := ledger.ListTitles(ctx)
	if err != nil {
		t.Fatalf("ListTitles() error = %v", err)
	}
	if len(titles) != 2 {
		t.Fatalf("expected 2 titles, got %v", titles)
	}
	if titles[0] != "アトミック・ハビッツ" || titles[1] != "ディープ・ワーク" {
		t.Fatalf("unexpected titles: %v", titles)
	}
}

func TestLedgerListSkipsHeaderishRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "excluded.xlsx")
	ledger := NewLedger(path, "")
	ctx := context.Background()

	if err := ledger.Append(ctx, domain.LedgerEntry{Date: time.Now(), Title: "書籍タイトル一覧"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := ledger.Append(ctx, domain.LedgerEntry{Date: time.Now(), Title: "エッセンシャル思考"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	titles, err := ledger.ListTitles(ctx)
	if err != nil {
		t.Fatalf("ListTitles() error = %v", err)
	}
	if len(titles) != 1 || titles[0] != "エッセンシャル思考" {
		t.Fatalf("expected header-like row filtered, got %v", titles)
	}
}
