package core

import "time"

// Export is the portable form of a Document.
type Export struct {
	Version    string      `json:"version"`
	ExportDate time.Time   `json:"exportDate"`
	Settings   Settings    `json:"settings"`
	Operations []Operation `json:"operations"`
}

// NewExport stamps d with the current format version.
func NewExport(d Document, at time.Time) Export {
	c := d.Clone()
	return Export{
		Version:    FormatVersion,
		ExportDate: at.UTC(),
		Settings:   c.Settings,
		Operations: c.Operations,
	}
}

// Document drops the export metadata.
func (e Export) Document() Document {
	return Document{Settings: e.Settings, Operations: e.Operations}.Clone()
}
