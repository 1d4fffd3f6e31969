package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/tidwall/sjson"

	"inspiration-batch/internal/fsutil"
)

const generatedImageKey = "generatedImage"

// Entry is one prompt in the catalog. Only the fields the pipeline reads are
// decoded; the rest of each object is kept verbatim in Catalog.
type Entry struct {
	ID             int      `json:"id"`
	Slug           string   `json:"slug"`
	Title          string   `json:"title,omitempty"`
	Prompts        []string `json:"prompts"`
	GeneratedImage string   `json:"generatedImage,omitempty"`
}

// UnmarshalJSON accepts any integral JSON number as the id, so 10001.0 reads
// as 10001. A missing or null id reads as 0.
func (e *Entry) UnmarshalJSON(data []byte) error {
	type plain Entry
	aux := struct {
		ID json.Number `json:"id"`
		*plain
	}{plain: (*plain)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	id, err := parseID(aux.ID)
	if err != nil {
		return err
	}
	e.ID = id
	return nil
}

func parseID(n json.Number) (int, error) {
	if n == "" {
		return 0, nil
	}
	if i, err := strconv.Atoi(string(n)); err == nil {
		return i, nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, fmt.Errorf("id %s: %w", n, err)
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("id %s is not an integer", n)
	}
	return int(f), nil
}

// FirstPrompt returns the prompt template the pipeline generates from.
func (e Entry) FirstPrompt() (string, bool) {
	if len(e.Prompts) == 0 {
		return "", false
	}
	return e.Prompts[0], true
}

// Catalog is the prompt document on disk. Entries and the raw objects share
// indexes; writes go through the raw objects so unknown fields and key order
// survive a rewrite.
//
// Only one process may write a catalog file at a time.
type Catalog struct {
	path    string
	raw     []json.RawMessage
	Entries []Entry
}

func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	c.path = path
	return c, nil
}

func Parse(data []byte) (*Catalog, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	entries := make([]Entry, len(raw))
	for i, obj := range raw {
		if err := json.Unmarshal(obj, &entries[i]); err != nil {
			return nil, fmt.Errorf("decode entry %d: %w", i, err)
		}
	}

	return &Catalog{
		raw:     raw,
		Entries: entries,
	}, nil
}

func (c *Catalog) Path() string {
	return c.path
}

// SetGeneratedImage records an artifact reference on the entry at index i,
// replacing an existing value in place or appending the key to the object.
func (c *Catalog) SetGeneratedImage(i int, ref string) error {
	if i < 0 || i >= len(c.raw) {
		return fmt.Errorf("entry index %d out of range", i)
	}

	value, err := marshalString(ref)
	if err != nil {
		return err
	}
	updated, err := sjson.SetRawBytes(c.raw[i], generatedImageKey, value)
	if err != nil {
		return fmt.Errorf("set %s on entry %d: %w", generatedImageKey, i, err)
	}

	c.raw[i] = updated
	c.Entries[i].GeneratedImage = ref
	return nil
}

// Bytes renders the document with two-space indentation. String contents are
// copied from the source as-is, so non-ASCII text is not escaped.
func (c *Catalog) Bytes() ([]byte, error) {
	var doc bytes.Buffer
	doc.WriteByte('[')
	for i, obj := range c.raw {
		if i > 0 {
			doc.WriteByte(',')
		}
		if err := json.Compact(&doc, obj); err != nil {
			return nil, fmt.Errorf("compact entry %d: %w", i, err)
		}
	}
	doc.WriteByte(']')

	var out bytes.Buffer
	if err := json.Indent(&out, doc.Bytes(), "", "  "); err != nil {
		return nil, fmt.Errorf("indent catalog: %w", err)
	}
	return out.Bytes(), nil
}

// Save rewrites the whole catalog at the path it was loaded from.
func (c *Catalog) Save() error {
	if c.path == "" {
		return errors.New("catalog has no source path")
	}
	data, err := c.Bytes()
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(c.path, data, 0o644)
}

func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("encode %q: %w", s, err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
