// Package intake turns pasted text or HTML into the job links to submit.
package intake

import (
	"context"
	"fmt"
	"strings"
)

// Input is one blob of user-supplied content.
type Input struct {
	Content string
	// BaseURL resolves relative links found in HTML.
	BaseURL string
}

// Extractor pulls candidate job links out of an input.
type Extractor interface {
	Name() string
	Extract(ctx context.Context, in Input) ([]string, error)
}

// Registry keeps a mapping from extractor names to their implementations.
type Registry struct {
	extractors map[string]Extractor
}

// NewRegistry builds a registry with the text and HTML extractors.
func NewRegistry() *Registry {
	r := &Registry{extractors: map[string]Extractor{}}
	r.Register(NewTextExtractor())
	r.Register(NewHTMLExtractor(nil))
	return r
}

// Register adds or replaces an extractor.
func (r *Registry) Register(e Extractor) {
	if r.extractors == nil {
		r.extractors = map[string]Extractor{}
	}
	r.extractors[e.Name()] = e
}

// Resolve returns an extractor by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Extractor, error) {
	if e, ok := r.extractors[name]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("extractor %s is not registered", name)
}

// Links picks the extractor matching the content and runs it.
func (r *Registry) Links(ctx context.Context, in Input) ([]string, error) {
	e, err := r.Resolve(Detect(in.Content))
	if err != nil {
		return nil, err
	}
	links, err := e.Extract(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("%s extractor: %w", e.Name(), err)
	}
	return links, nil
}

// Detect names the extractor suited to content: "html" for markup, "text" otherwise.
func Detect(content string) string {
	head := strings.ToLower(strings.TrimSpace(content))
	if len(head) > 512 {
		head = head[:512]
	}
	for _, marker := range []string{"<!doctype html", "<html", "<body", "<a ", "<div", "<ul", "<table"} {
		if strings.Contains(head, marker) {
			return htmlExtractorName
		}
	}
	return textExtractorName
}

type linkSet struct {
	seen  map[string]struct{}
	links []string
}

func newLinkSet() *linkSet {
	return &linkSet{seen: map[string]struct{}{}}
}

func (s *linkSet) add(link string) {
	if link == "" {
		return
	}
	if _, ok := s.seen[link]; ok {
		return
	}
	s.seen[link] = struct{}{}
	s.links = append(s.links, link)
}
