package pipeline

import (
	"fmt"
	"time"

	"inboxbrief/internal/config"
	"inboxbrief/internal/content"
	"inboxbrief/internal/digest"
	"inboxbrief/internal/filter"
	"inboxbrief/internal/mail"
	"inboxbrief/internal/render"
	"inboxbrief/internal/summarize"
	"inboxbrief/internal/themes"
)

// Builder helps construct a fully configured Pipeline
type Builder struct {
	config       *Config
	mail         MailSource
	llmClient    LLMClient
	sink         DocumentSink
	kv           KeyValueStore
	runs         RunRecorder
	taxonomy     *themes.Taxonomy
	themes       config.Themes
	skipPatterns []string
	now          func() time.Time
}

// NewBuilder creates a new pipeline builder with default settings
func NewBuilder() *Builder {
	return &Builder{
		config: DefaultConfig(),
		themes: config.Themes{
			Labels:   config.DefaultThemeLabels,
			Default:  config.DefaultTheme,
			Keywords: config.DefaultKeywords,
		},
		skipPatterns: config.DefaultSkipPatterns,
		now:          time.Now,
	}
}

// WithSettings applies the application configuration
func (b *Builder) WithSettings(cfg *config.Config) *Builder {
	b.config = ConfigFromSettings(cfg)
	b.themes = cfg.Themes
	b.skipPatterns = cfg.Mail.SkipPatterns
	return b
}

// WithConfig sets the pipeline configuration
func (b *Builder) WithConfig(config *Config) *Builder {
	b.config = config
	return b
}

// WithMailSource sets the mail source
func (b *Builder) WithMailSource(source MailSource) *Builder {
	b.mail = source
	return b
}

// WithLLMClient sets the LLM client
func (b *Builder) WithLLMClient(client LLMClient) *Builder {
	b.llmClient = client
	return b
}

// WithSink sets the document sink
func (b *Builder) WithSink(sink DocumentSink) *Builder {
	b.sink = sink
	return b
}

// WithStore sets the key/value store holding the ledger
func (b *Builder) WithStore(kv KeyValueStore) *Builder {
	b.kv = kv
	return b
}

// WithRunRecorder enables run history
func (b *Builder) WithRunRecorder(runs RunRecorder) *Builder {
	b.runs = runs
	return b
}

// WithTaxonomy overrides the taxonomy built from settings
func (b *Builder) WithTaxonomy(taxonomy *themes.Taxonomy) *Builder {
	b.taxonomy = taxonomy
	return b
}

// WithSkipPatterns overrides the noise filter patterns
func (b *Builder) WithSkipPatterns(patterns []string) *Builder {
	b.skipPatterns = patterns
	return b
}

// WithClock sets the time source
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithoutDelay disables the pause between model calls
func (b *Builder) WithoutDelay() *Builder {
	b.config.Delay = 0
	return b
}

// WithDryRun leaves ledger, mail state and history untouched
func (b *Builder) WithDryRun(dryRun bool) *Builder {
	b.config.DryRun = dryRun
	return b
}

// Build constructs a fully configured Pipeline
func (b *Builder) Build() (*Pipeline, error) {
	// Validate required components
	switch {
	case b.mail == nil:
		return nil, fmt.Errorf("mail source is required")
	case b.llmClient == nil:
		return nil, fmt.Errorf("LLM client is required")
	case b.sink == nil:
		return nil, fmt.Errorf("document sink is required")
	case b.kv == nil:
		return nil, fmt.Errorf("key/value store is required")
	}

	taxonomy := b.taxonomy
	if taxonomy == nil {
		var err error
		taxonomy, err = TaxonomyFromSettings(b.themes)
		if err != nil {
			return nil, err
		}
	}

	noise, err := filter.New(b.skipPatterns)
	if err != nil {
		return nil, fmt.Errorf("invalid skip pattern: %w", err)
	}

	cfg := *b.config
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	summarizer := summarize.NewSummarizer(b.llmClient, themes.NewClassifier(taxonomy), summarize.SummarizerOptions{
		ModelName:        cfg.ModelName,
		Temperature:      cfg.Temperature,
		MaxTokens:        cfg.MaxTokens,
		MinSummaryLength: cfg.MinSummaryLength,
	})

	return &Pipeline{
		mail:        b.mail,
		sink:        b.sink,
		kv:          b.kv,
		runs:        b.runs,
		summarizer:  summarizer,
		synthesizer: digest.NewSynthesizer(summarizer, cfg.Delay),
		noise:       noise,
		normalizer:  content.NewNormalizer(cfg.MaxContentLength, cfg.MinContentLength),
		taxonomy:    taxonomy,
		builder:     render.NewBuilder(taxonomy, cfg.Location),
		config:      &cfg,
		now:         b.now,
	}, nil
}

// ConfigFromSettings derives the pipeline configuration from application settings
func ConfigFromSettings(cfg *config.Config) *Config {
	return &Config{
		Query:            mail.QueryFromConfig(cfg.Mail),
		MarkRead:         cfg.Mail.MarkRead,
		LedgerKey:        cfg.Storage.ProcessedIDsKey,
		MaxStoredIDs:     cfg.Storage.MaxStoredIDs,
		RecordSkipped:    cfg.Processing.RecordSkipped,
		MaxContentLength: cfg.Processing.MaxContentLength,
		MinContentLength: cfg.Processing.MinContentLength,
		MinSummaryLength: cfg.Processing.MinSummaryLength,
		ModelName:        cfg.AI.Gemini.Model,
		Temperature:      cfg.AI.Gemini.Temperature,
		MaxTokens:        cfg.AI.Gemini.MaxTokens,
		Delay:            cfg.AI.Gemini.DelayDuration(),
		Location:         cfg.Output.Location(),
	}
}

// TaxonomyFromSettings builds the taxonomy configured under themes
func TaxonomyFromSettings(cfg config.Themes) (*themes.Taxonomy, error) {
	keywords := make([]themes.Keyword, 0, len(cfg.Keywords))
	for _, k := range cfg.Keywords {
		keywords = append(keywords, themes.Keyword{Keyword: k.Keyword, Theme: k.Theme})
	}
	taxonomy, err := themes.NewTaxonomy(cfg.Labels, cfg.Default, keywords)
	if err != nil {
		return nil, fmt.Errorf("invalid theme taxonomy: %w", err)
	}
	return taxonomy, nil
}
