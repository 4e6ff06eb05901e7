// Package snapshot loads every dashboard table from a source into one
// immutable, parsed snapshot and swaps it in atomically.
package snapshot

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jalad-shrimali/opsdash/sheet"
)

// Table binds a schema to the endpoint (and optional sub-table) it is read
// from.
type Table struct {
	Name     string
	Endpoint string
	Sheet    string
	Schema   sheet.Schema
}

// TableData is one parsed table of a snapshot.
type TableData struct {
	Table   `json:"-"`
	Records []sheet.Record       `json:"-"`
	Rows    int                  `json:"rows"`
	Dropped int                  `json:"dropped"`
	Missing []sheet.MissingField `json:"missing,omitempty"`
}

// Snapshot is never modified after Refresh returns it.
type Snapshot struct {
	ID       uuid.UUID             `json:"id"`
	LoadedAt time.Time             `json:"loaded_at"`
	Tables   map[string]*TableData `json:"tables"`
	// Errors holds the endpoints that failed to load, by endpoint.
	Errors map[string]string `json:"errors,omitempty"`
}

// Records returns a table's records, or nil for an unknown table.
func (s *Snapshot) Records(table string) []sheet.Record {
	if td, ok := s.Tables[table]; ok {
		return td.Records
	}
	return nil
}

func (s *Snapshot) Table(name string) (*TableData, bool) {
	td, ok := s.Tables[name]
	return td, ok
}

// Names lists the loaded tables alphabetically.
func (s *Snapshot) Names() []string {
	names := make([]string, 0, len(s.Tables))
	for n := range s.Tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
