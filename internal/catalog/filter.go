package catalog

import "strings"

// DefaultMinID is the first id of the locally generable prompt range.
const DefaultMinID = 10001

// DefaultDisallow lists phrases marking prompts that need a user-supplied image.
var DefaultDisallow = []string{
	"uploaded",
	"reference image",
	"attached image",
	"attached photo",
}

type Rules struct {
	MinID    int
	Disallow []string
}

func DefaultRules() Rules {
	disallow := make([]string, len(DefaultDisallow))
	copy(disallow, DefaultDisallow)
	return Rules{
		MinID:    DefaultMinID,
		Disallow: disallow,
	}
}

// Eligible reports whether an entry can be generated without user input.
func (r Rules) Eligible(e Entry) bool {
	if e.ID < r.MinID {
		return false
	}
	first, ok := e.FirstPrompt()
	if !ok {
		return false
	}

	lower := strings.ToLower(first)
	for _, phrase := range r.Disallow {
		if phrase == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(phrase)) {
			return false
		}
	}
	return true
}

// Filter keeps eligible entries in catalog order.
func (r Rules) Filter(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if r.Eligible(e) {
			out = append(out, e)
		}
	}
	return out
}
