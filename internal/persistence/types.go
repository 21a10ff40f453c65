package persistence

import "time"

// ProcessedDocument is the ledger record for one translated presentation.
// A document is keyed by (path, target language): retranslating the same
// file to a different language is a new record, rerunning the same pair
// overwrites.
type ProcessedDocument struct {
	Path         string
	OutputPath   string
	SourceLang   string
	TargetLang   string
	CharCount    int
	TranslatedAt time.Time
}
