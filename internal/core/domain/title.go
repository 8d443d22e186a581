package domain

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	bracketedRe = regexp.MustCompile(`\(.*?\)|（.*?）|\[.*?\]|【.*?】`)
	editionRe   = regexp.MustCompile(`新版|新装版|改訂版|増補改訂|増補|合本|完全版|決定版|新訳|普及版|第\s*\d+\s*版`)
	keepRe      = regexp.MustCompile(`[^0-9a-zぁ-んァ-ヶ一-龥]`)

	slugSpaceRe    = regexp.MustCompile(`\s+`)
	slugNonWordRe  = regexp.MustCompile(`[^\p{L}\p{N}_-]`)
	slugCollapseRe = regexp.MustCompile(`_+`)
)

// NormalizeTitle reduces a title to its comparable core: NFKC fold,
// lowercase, bracketed qualifiers and edition words removed, subtitle cut at
// the first colon, then stripped down to letters, digits and kana/kanji.
// Exclusion matching operates on this form only.
func NormalizeTitle(title string) string {
	t := strings.ToLower(strings.TrimSpace(norm.NFKC.String(title)))
	t = bracketedRe.ReplaceAllString(t, "")
	if idx := strings.IndexAny(t, ":："); idx >= 0 {
		t = t[:idx]
	}
	t = editionRe.ReplaceAllString(t, "")
	return keepRe.ReplaceAllString(t, "")
}

// TitleSlug derives the deterministic artifact base name from a title:
// whitespace becomes underscore, anything outside word characters becomes
// underscore, runs collapse. Two runs on the same title always produce the
// same name.
func TitleSlug(title string) string {
	s := norm.NFKC.String(title)
	s = slugSpaceRe.ReplaceAllString(s, "_")
	s = slugNonWordRe.ReplaceAllString(s, "_")
	s = slugCollapseRe.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if runes := []rune(s); len(runes) > 80 {
		s = strings.Trim(string(runes[:80]), "_")
	}
	if s == "" {
		return "infographic"
	}
	return s
}

// JapaneseLike reports whether a string is plausibly rendered in Japanese:
// at least one CJK rune, and either a CJK ratio of 0.30+ or a roman ratio of
// 0.50 or less. Keeps English titles and romanized authors out of the pool.
func JapaneseLike(s string) bool {
	var cjk, roman, total int
	for _, r := range norm.NFKC.String(s) {
		if unicode.IsSpace(r) {
			continue
		}
		isCJK := (r >= 0x3040 && r <= 0x30FF) || (r >= 0x4E00 && r <= 0x9FFF)
		if isCJK {
			cjk++
		} else if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
			roman++
		}
		if unicode.IsLetter(r) || isCJK {
			total++
		}
	}
	if total == 0 || cjk == 0 {
		return false
	}
	cjkRatio := float64(cjk) / float64(total)
	romanRatio := float64(roman) / float64(total)
	return cjkRatio >= 0.30 || romanRatio <= 0.50
}

// ExclusionSet holds previously-chosen titles keyed by normalized form.
// Append-only in normal operation; a title present here is never re-selected.
type ExclusionSet struct {
	byNorm map[string]string
	order  []string
}

func NewExclusionSet(titles []string) *ExclusionSet {
	s := &ExclusionSet{byNorm: make(map[string]string, len(titles))}
	for _, t := range titles {
		s.Add(t)
	}
	return s
}

func (s *ExclusionSet) Add(title string) {
	n := NormalizeTitle(title)
	if n == "" {
		return
	}
	if _, ok := s.byNorm[n]; ok {
		return
	}
	s.byNorm[n] = title
	s.order = append(s.order, title)
}

// Contains matches by normalized containment in either direction, so a
// re-recommended edition or subtitled variant of an excluded title still
// counts as excluded.
func (s *ExclusionSet) Contains(title string) bool {
	n := NormalizeTitle(title)
	if n == "" {
		return false
	}
	if _, ok := s.byNorm[n]; ok {
		return true
	}
	for existing := range s.byNorm {
		if strings.Contains(existing, n) || strings.Contains(n, existing) {
			return true
		}
	}
	return false
}

func (s *ExclusionSet) Len() int {
	return len(s.byNorm)
}

// Titles returns the raw titles in insertion order, for prompt construction.
func (s *ExclusionSet) Titles() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
