package intake

import (
	"context"
	"regexp"
	"strings"
)

const textExtractorName = "text"

var linkExpr = regexp.MustCompile(`https?://[^\s]+`)

// TextExtractor finds http(s) links in free text.
type TextExtractor struct{}

// NewTextExtractor builds the plain-text strategy.
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

// Name identifies the strategy inside the registry.
func (t *TextExtractor) Name() string {
	return textExtractorName
}

// Extract returns links in order of first appearance, without trailing
// sentence punctuation and without repeats.
func (t *TextExtractor) Extract(_ context.Context, in Input) ([]string, error) {
	set := newLinkSet()
	collectText(set, in.Content)
	return set.links, nil
}

func collectText(set *linkSet, content string) {
	for _, match := range linkExpr.FindAllString(content, -1) {
		set.add(trimLink(match))
	}
}

func trimLink(link string) string {
	link = strings.TrimRight(link, ".,;")
	if link == "http://" || link == "https://" {
		return ""
	}
	return link
}
