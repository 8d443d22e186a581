package domain

import "time"

// LedgerEntry is one appended row of the exclusion ledger:
// date chosen, title, author, category.
type LedgerEntry struct {
	Date     time.Time
	Title    string
	Author   string
	Category string
}

func NewLedgerEntry(date time.Time, c Candidate) LedgerEntry {
	return LedgerEntry{
		Date:     date,
		Title:    c.Title,
		Author:   c.Author,
		Category: c.Category,
	}
}
