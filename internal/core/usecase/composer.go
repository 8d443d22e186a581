package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/oshomadesse/shiori/internal/core/domain"
)

// NoteName returns the well-known note name for a run date, one per
// calendar day. A second same-day run overwrites rather than duplicates.
func NoteName(date time.Time) string {
	return "Books-" + date.Format("2006-01-02") + ".md"
}

// ComposeNote builds the note document from the run's collected outputs.
// Pure function of its inputs: identical inputs yield byte-identical text.
// A missing required field here is a contract violation by an earlier stage,
// never a condition to retry.
func ComposeNote(c domain.Candidate, record *domain.ResearchRecord, artifact domain.RenderedArtifact, date time.Time) ([]byte, error) {
	if c.Title == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "compose note", fmt.Errorf("candidate has no title"))
	}
	if record == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "compose note", fmt.Errorf("nil research record"))
	}
	if err := record.Validate(); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "compose note", err)
	}
	if artifact.Link() == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "compose note", fmt.Errorf("artifact has no location"))
	}

	var b strings.Builder
	b.WriteString("---\ntags: [books]\n---\n\n")

	fmt.Fprintf(&b, "## 【 🧠 %s 】\n\n", c.Title)

	b.WriteString("### 📚 基本情報\n")
	fmt.Fprintf(&b, "- 👤 著者: %s\n", c.Author)
	fmt.Fprintf(&b, "- 🏷️ カテゴリー: [[%s]]\n", c.Category)
	fmt.Fprintf(&b, "- 📅 日付: %s\n\n", date.Format("2006-01-02"))

	b.WriteString("### 🎨 生成コンテンツ\n")
	fmt.Fprintf(&b, "- 🖼️ インフォグラフィック: [%s](%s)\n\n", c.Title, artifact.Link())

	b.WriteString("### ✅ 今日できるアクション\n")
	for _, action := range record.TodayActions {
		fmt.Fprintf(&b, "- [ ] %s\n", action)
	}
	b.WriteString("\n")

	b.WriteString("### 🗣️ 要約\n")
	b.WriteString("- 📣 核心的メッセージ\n")
	fmt.Fprintf(&b, "```\n%s\n```\n\n", record.CoreMessage)
	b.WriteString("- 🖊️ エグゼクティブ・サマリー\n")
	fmt.Fprintf(&b, "```\n問い: %s\n答え: %s\n根拠: %s\n```\n\n",
		record.ExecutiveSummary.Question,
		record.ExecutiveSummary.Answer,
		record.ExecutiveSummary.Evidence,
	)

	b.WriteString("### 📚 関連書籍\n")
	if len(record.RelatedBooks) == 0 {
		b.WriteString("- なし\n")
	}
	for _, rb := range record.RelatedBooks {
		line := rb.Title
		if rb.Author != "" {
			line = fmt.Sprintf("%s（%s）", rb.Title, rb.Author)
		}
		if rb.Relevance != "" {
			line += ": " + rb.Relevance
		}
		fmt.Fprintf(&b, "- %s\n", line)
	}

	return []byte(b.String()), nil
}
