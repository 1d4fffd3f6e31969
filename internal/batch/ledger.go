package batch

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"inspiration-batch/internal/artifact"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Outcome is the ledger record for one processed entry. Path is set for
// success and skipped outcomes only.
type Outcome struct {
	ID     int    `json:"id"`
	Slug   string `json:"slug"`
	Status Status `json:"status"`
	Path   string `json:"path,omitempty"`
}

type Summary struct {
	Outcomes   []Outcome
	Success    int
	Skipped    int
	Failed     int
	LedgerPath string
}

func (s Summary) Total() int {
	return s.Success + s.Skipped + s.Failed
}

func (s *Summary) add(o Outcome) {
	s.Outcomes = append(s.Outcomes, o)
	switch o.Status {
	case StatusSuccess:
		s.Success++
	case StatusSkipped:
		s.Skipped++
	case StatusFailed:
		s.Failed++
	}
}

func LedgerName(label string) string {
	return label + "-results.json"
}

func writeLedger(store *artifact.Store, label string, outcomes []Outcome) (string, error) {
	if outcomes == nil {
		outcomes = []Outcome{}
	}
	data, err := json.MarshalIndent(outcomes, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode ledger: %w", err)
	}

	name := LedgerName(label)
	if err := store.WriteFile(name, data); err != nil {
		return "", fmt.Errorf("write ledger: %w", err)
	}
	return filepath.Join(store.Dir(), name), nil
}
