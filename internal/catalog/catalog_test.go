package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const sampleCatalog = `[
  {
    "id": 10001,
    "slug": "cafe-morning",
    "title": "Café ☕ 朝",
    "source": {
      "name": "gallery",
      "url": "https://example.com/?a=1&b=<2>"
    },
    "images": [],
    "prompts": [
      "a latte on a {argument name=\"table\" default=\"marble table\"}"
    ],
    "tags": [
      "food"
    ],
    "coverImage": null
  },
  {
    "id": 10002,
    "slug": "city-night",
    "title": "City",
    "prompts": [
      "neon city, vertical"
    ],
    "generatedImage": "/old/city-night.png"
  }
]`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "image-prompts.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	return path
}

func TestLoadDecodesEntries(t *testing.T) {
	c, err := Load(writeCatalog(t, sampleCatalog))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(c.Entries))
	}

	first := c.Entries[0]
	if first.ID != 10001 || first.Slug != "cafe-morning" || first.Title != "Café ☕ 朝" {
		t.Fatalf("unexpected first entry: %+v", first)
	}
	if p, ok := first.FirstPrompt(); !ok || !strings.HasPrefix(p, "a latte") {
		t.Fatalf("unexpected first prompt: %q", p)
	}
	if c.Entries[1].GeneratedImage != "/old/city-night.png" {
		t.Fatalf("generatedImage not decoded: %+v", c.Entries[1])
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing catalog")
	}
}

func TestParseRejectsNonArray(t *testing.T) {
	if _, err := Parse([]byte(`{"id": 1}`)); err == nil {
		t.Fatalf("expected error for object document")
	}
}

func TestBytesRoundTripIsStable(t *testing.T) {
	c, err := Parse([]byte(sampleCatalog))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out, err := c.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if string(out) != sampleCatalog {
		t.Fatalf("round trip changed the document:\n%s", out)
	}
}

func TestSetGeneratedImageAppendsAndReplaces(t *testing.T) {
	path := writeCatalog(t, sampleCatalog)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := c.SetGeneratedImage(0, "/generated-inspiration/cafe-morning.png"); err != nil {
		t.Fatalf("SetGeneratedImage(0): %v", err)
	}
	if err := c.SetGeneratedImage(1, "/generated-inspiration/city-night.png"); err != nil {
		t.Fatalf("SetGeneratedImage(1): %v", err)
	}
	if err := c.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	want := strings.Replace(sampleCatalog,
		`"coverImage": null`,
		`"coverImage": null,
    "generatedImage": "/generated-inspiration/cafe-morning.png"`, 1)
	want = strings.Replace(want, `"/old/city-night.png"`, `"/generated-inspiration/city-night.png"`, 1)

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(got) != want {
		t.Fatalf("unexpected document:\n%s\nwant:\n%s", got, want)
	}
}

func TestSetGeneratedImageOutOfRange(t *testing.T) {
	c, err := Parse([]byte(sampleCatalog))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := c.SetGeneratedImage(5, "x"); err == nil {
		t.Fatalf("expected out of range error")
	}
}

func TestSaveWithoutPath(t *testing.T) {
	c, err := Parse([]byte(`[]`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := c.Save(); err == nil {
		t.Fatalf("expected error when saving a parsed catalog")
	}
}

func TestRulesFilter(t *testing.T) {
	entries := []Entry{
		{ID: 10003, Slug: "c", Prompts: []string{"a mountain"}},
		{ID: 9999, Slug: "low", Prompts: []string{"fine prompt"}},
		{ID: 10001, Slug: "a", Prompts: []string{"a red square, 1:1"}},
		{ID: 10004, Slug: "upload", Prompts: []string{"Use the UPLOADED photo as base"}},
		{ID: 10005, Slug: "empty"},
		{ID: 10006, Slug: "attached", Prompts: []string{"restyle the attached photo"}},
		{ID: 10002, Slug: "b", Prompts: []string{"x", "uploaded only in the second prompt"}},
	}

	got := DefaultRules().Filter(entries)

	var slugs []string
	for _, e := range got {
		slugs = append(slugs, e.Slug)
	}
	want := []string{"c", "a", "b"}
	if !reflect.DeepEqual(slugs, want) {
		t.Fatalf("Filter slugs = %v, want %v", slugs, want)
	}
}

func TestRulesThresholdIsInclusive(t *testing.T) {
	r := Rules{MinID: 10000}
	if !r.Eligible(Entry{ID: 10000, Prompts: []string{"x"}}) {
		t.Fatalf("id equal to threshold should be eligible")
	}
	if r.Eligible(Entry{ID: 9999, Prompts: []string{"x"}}) {
		t.Fatalf("id below threshold should be excluded")
	}
}

func TestSelectionValidate(t *testing.T) {
	cases := []struct {
		name string
		sel  Selection
		ok   bool
	}{
		{"range", Selection{Range: &Range{Start: 0, End: 25}}, true},
		{"ids", Selection{IDs: []int{10015}}, true},
		{"both", Selection{Range: &Range{End: 1}, IDs: []int{1}}, false},
		{"neither", Selection{}, false},
		{"negative", Selection{Range: &Range{Start: -1, End: 2}}, false},
	}
	for _, tc := range cases {
		err := tc.sel.Validate()
		if tc.ok && err != nil {
			t.Errorf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok && !errors.Is(err, ErrSelection) {
			t.Errorf("%s: expected ErrSelection, got %v", tc.name, err)
		}
	}
}

func TestSelectionRangeClamps(t *testing.T) {
	entries := []Entry{{ID: 1}, {ID: 2}, {ID: 3}}

	cases := []struct {
		r    Range
		want []int
	}{
		{Range{0, 2}, []int{1, 2}},
		{Range{1, 25}, []int{2, 3}},
		{Range{5, 10}, nil},
		{Range{2, 1}, nil},
	}
	for _, tc := range cases {
		got, missing := Selection{Range: &tc.r}.Apply(entries)
		if len(missing) != 0 {
			t.Errorf("range %v reported missing ids %v", tc.r, missing)
		}
		var ids []int
		for _, e := range got {
			ids = append(ids, e.ID)
		}
		if !reflect.DeepEqual(ids, tc.want) {
			t.Errorf("range %v = %v, want %v", tc.r, ids, tc.want)
		}
	}
}

func TestSelectionIDsKeepCatalogOrderAndReportMissing(t *testing.T) {
	entries := []Entry{{ID: 10014}, {ID: 10015}, {ID: 10024}, {ID: 10073}}
	sel := Selection{IDs: []int{10073, 10015, 99999, 10015}}

	got, missing := sel.Apply(entries)

	var ids []int
	for _, e := range got {
		ids = append(ids, e.ID)
	}
	if !reflect.DeepEqual(ids, []int{10015, 10073}) {
		t.Fatalf("selected ids = %v", ids)
	}
	if !reflect.DeepEqual(missing, []int{99999}) {
		t.Fatalf("missing ids = %v", missing)
	}
}

func TestSelectionLabel(t *testing.T) {
	if got := (Selection{Range: &Range{Start: 0, End: 25}}).Label(); got != "batch-0-25" {
		t.Errorf("range label = %q", got)
	}
	if got := (Selection{IDs: []int{10015, 10024}}).Label(); got != "retry-10015-10024" {
		t.Errorf("ids label = %q", got)
	}
}

func TestSelectionLabelLongIDList(t *testing.T) {
	ids := make([]int, 0, 500)
	for id := 10001; id <= 10500; id++ {
		ids = append(ids, id)
	}

	label := Selection{IDs: ids}.Label()
	if !strings.HasPrefix(label, "retry-10001-10500-500ids-") {
		t.Fatalf("label = %q", label)
	}
	if len(label) > 64 {
		t.Fatalf("label is %d bytes: %q", len(label), label)
	}
	if again := (Selection{IDs: ids}).Label(); again != label {
		t.Fatalf("label not stable: %q vs %q", label, again)
	}

	swapped := append([]int(nil), ids...)
	swapped[1], swapped[2] = swapped[2], swapped[1]
	if other := (Selection{IDs: swapped}).Label(); other == label {
		t.Fatalf("different id lists share label %q", label)
	}
}

func TestParseAcceptsIntegralFloatIDs(t *testing.T) {
	c, err := Parse([]byte(`[
  {"id": 10001.0, "slug": "a", "prompts": ["x"]},
  {"id": 1.0002e4, "slug": "b", "prompts": ["y"]},
  {"slug": "c", "prompts": ["z"]},
  {"id": null, "slug": "d", "prompts": ["w"]}
]`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := []int{10001, 10002, 0, 0}
	for i, e := range c.Entries {
		if e.ID != want[i] {
			t.Errorf("entry %d id = %d, want %d", i, e.ID, want[i])
		}
	}
	if c.Entries[0].Slug != "a" || c.Entries[0].Prompts[0] != "x" {
		t.Errorf("other fields lost: %+v", c.Entries[0])
	}

	got, err := c.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if !strings.Contains(string(got), `"id": 10001.0`) {
		t.Errorf("id formatting not preserved:\n%s", got)
	}
}

func TestParseRejectsFractionalIDs(t *testing.T) {
	for _, doc := range []string{
		`[{"id": 10001.5, "slug": "a", "prompts": ["x"]}]`,
		`[{"id": 1e300, "slug": "a", "prompts": ["x"]}]`,
		`[{"id": "ten", "slug": "a", "prompts": ["x"]}]`,
	} {
		if _, err := Parse([]byte(doc)); err == nil {
			t.Errorf("Parse(%s) succeeded", doc)
		}
	}
}
