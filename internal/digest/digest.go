// Package digest groups articles by theme and synthesizes one summary per theme.
package digest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"inboxbrief/internal/core"
	"inboxbrief/internal/logger"
	"inboxbrief/internal/themes"
)

// Group buckets articles by theme, newest first within a bucket, and returns
// the non-empty buckets in taxonomy order. Articles whose theme is not in the
// taxonomy land in the default bucket.
func Group(articles []core.Article, taxonomy *themes.Taxonomy) []core.ThemeGroup {
	buckets := make(map[string][]core.Article)
	for _, a := range articles {
		theme := a.Theme
		if !taxonomy.Has(theme) {
			theme = taxonomy.Default()
		}
		buckets[theme] = append(buckets[theme], a)
	}

	var groups []core.ThemeGroup
	for _, theme := range taxonomy.Labels() {
		bucket := buckets[theme]
		if len(bucket) == 0 {
			continue
		}
		sort.SliceStable(bucket, func(i, j int) bool {
			return bucket[i].Timestamp.After(bucket[j].Timestamp)
		})
		groups = append(groups, core.ThemeGroup{Theme: theme, Articles: bucket})
	}
	return groups
}

// SummaryMerger produces one merged summary from several labelled summaries.
type SummaryMerger interface {
	Synthesize(ctx context.Context, summaries string) (string, error)
}

// Synthesizer runs the second, cross-article pass for each theme group.
type Synthesizer struct {
	merger SummaryMerger
	delay  time.Duration
}

// NewSynthesizer creates a Synthesizer that pauses delay after each model call.
func NewSynthesizer(merger SummaryMerger, delay time.Duration) *Synthesizer {
	return &Synthesizer{merger: merger, delay: delay}
}

// Synthesize returns the merged summary for group. A single article is its
// own synthesis and costs no model call. The boolean is false when the model
// call failed.
func (s *Synthesizer) Synthesize(ctx context.Context, group core.ThemeGroup) (string, bool) {
	text, ok, _ := s.synthesize(ctx, group)
	return text, ok
}

// SynthesizeAll synthesizes every group in order, pausing after each
// successful model call.
func (s *Synthesizer) SynthesizeAll(ctx context.Context, groups []core.ThemeGroup) ([]core.SynthesizedTheme, error) {
	out := make([]core.SynthesizedTheme, 0, len(groups))
	for _, group := range groups {
		text, ok, called := s.synthesize(ctx, group)
		out = append(out, core.SynthesizedTheme{
			Theme:        group.Theme,
			Articles:     group.Articles,
			Synthesized:  text,
			HasSynthesis: ok,
		})

		if called && ok {
			if err := Pause(ctx, s.delay); err != nil {
				return out, err
			}
		}
	}
	return out, nil
}

// synthesize also reports whether the model was called.
func (s *Synthesizer) synthesize(ctx context.Context, group core.ThemeGroup) (string, bool, bool) {
	switch len(group.Articles) {
	case 0:
		return "", false, false
	case 1:
		return group.Articles[0].Summary, true, false
	}

	logger.Info("Synthesizing theme", "theme", group.Theme, "articles", len(group.Articles))

	text, err := s.merger.Synthesize(ctx, CombineSummaries(group.Articles))
	if err != nil {
		logger.Error("Theme synthesis failed", err, "theme", group.Theme)
		return "", false, true
	}
	text = strings.TrimSpace(text)
	if text == "" {
		logger.Warn("Theme synthesis returned nothing", "theme", group.Theme)
		return "", false, true
	}
	return text, true, true
}

// CombineSummaries formats articles as the synthesis prompt input.
func CombineSummaries(articles []core.Article) string {
	blocks := make([]string, 0, len(articles))
	for _, a := range articles {
		blocks = append(blocks, fmt.Sprintf("Newsletter: \"%s\"\n%s", a.Subject, a.Summary))
	}
	return strings.Join(blocks, "\n\n---\n\n")
}

// Pause waits for d or until ctx is done.
func Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
