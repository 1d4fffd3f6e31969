package prompt

import "strings"

type AspectRatio string

const (
	Landscape AspectRatio = "16:9"
	Portrait  AspectRatio = "9:16"
	Square    AspectRatio = "1:1"
	Classic   AspectRatio = "4:3"
	Tall      AspectRatio = "3:4"
)

type aspectRule struct {
	ratio    AspectRatio
	keywords []string
}

// Order matters: the first rule with a matching keyword wins.
var aspectRules = []aspectRule{
	{ratio: Landscape, keywords: []string{"16:9", "horizontal", "landscape"}},
	{ratio: Portrait, keywords: []string{"9:16", "vertical", "portrait ratio"}},
	{ratio: Square, keywords: []string{"1:1", "square"}},
	{ratio: Classic, keywords: []string{"4:3"}},
	{ratio: Tall, keywords: []string{"3:4"}},
}

// ClassifyAspectRatio picks a target ratio from keyword hints in the prompt,
// falling back to Square.
func ClassifyAspectRatio(prompt string) AspectRatio {
	lower := strings.ToLower(prompt)
	for _, rule := range aspectRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.ratio
			}
		}
	}
	return Square
}
