package catalog

import (
	"errors"
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

// maxLabelIDs is the longest id list spelled out in full in a label.
const maxLabelIDs = 8

var ErrSelection = errors.New("invalid selection")

// Range is a half-open index range over the filtered entries.
type Range struct {
	Start int
	End   int
}

// Selection narrows the filtered entries either by index range or by an
// explicit id allow-list, never both.
type Selection struct {
	Range *Range
	IDs   []int
}

func (s Selection) Validate() error {
	switch {
	case s.Range != nil && len(s.IDs) > 0:
		return fmt.Errorf("%w: range and ids are mutually exclusive", ErrSelection)
	case s.Range == nil && len(s.IDs) == 0:
		return fmt.Errorf("%w: either a range or ids is required", ErrSelection)
	case s.Range != nil && (s.Range.Start < 0 || s.Range.End < 0):
		return fmt.Errorf("%w: negative range bound %d-%d", ErrSelection, s.Range.Start, s.Range.End)
	}
	return nil
}

// Apply returns the selected entries in their original order. Requested ids
// that are not among entries are returned as missing.
func (s Selection) Apply(entries []Entry) (selected []Entry, missing []int) {
	if s.Range != nil {
		start := min(s.Range.Start, len(entries))
		end := min(s.Range.End, len(entries))
		if start >= end {
			return []Entry{}, nil
		}
		return entries[start:end], nil
	}

	wanted := make(map[int]bool, len(s.IDs))
	for _, id := range s.IDs {
		wanted[id] = false
	}

	selected = make([]Entry, 0, len(s.IDs))
	for _, e := range entries {
		seen, ok := wanted[e.ID]
		if !ok || seen {
			continue
		}
		wanted[e.ID] = true
		selected = append(selected, e)
	}

	for _, id := range s.IDs {
		if !wanted[id] {
			missing = append(missing, id)
			wanted[id] = true
		}
	}
	return selected, missing
}

// Label names the run for its ledger file. Long id lists are shortened to
// the first and last id, the count and a hash of the whole list, so the
// label stays a valid file name.
func (s Selection) Label() string {
	if s.Range != nil {
		return fmt.Sprintf("batch-%d-%d", s.Range.Start, s.Range.End)
	}
	parts := make([]string, len(s.IDs))
	for i, id := range s.IDs {
		parts[i] = strconv.Itoa(id)
	}
	if len(parts) <= maxLabelIDs {
		return "retry-" + strings.Join(parts, "-")
	}

	h := fnv.New32a()
	h.Write([]byte(strings.Join(parts, ",")))
	return fmt.Sprintf("retry-%s-%s-%dids-%08x", parts[0], parts[len(parts)-1], len(parts), h.Sum32())
}
