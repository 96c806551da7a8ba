package handlers

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"inboxbrief/internal/config"
	"inboxbrief/internal/docs"
	"inboxbrief/internal/googleauth"
	"inboxbrief/internal/llm"
	"inboxbrief/internal/logger"
	"inboxbrief/internal/mail"
	"inboxbrief/internal/pipeline"
	"inboxbrief/internal/render"
	"inboxbrief/internal/store"
)

// NewRunCmd creates the run command
func NewRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run one digest: fetch, summarize and write the brief",
		Long: `Fetch the configured newsletters, summarize each new one, synthesize
themes and prepend the brief to the configured sink.

With --dry-run the brief is printed to the terminal and the ledger, the
mailbox and the run history are left untouched.`,
		Run: func(cmd *cobra.Command, args []string) {
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			noDelay, _ := cmd.Flags().GetBool("no-delay")

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := runDigest(ctx, dryRun, noDelay); err != nil {
				logger.Error("Digest run failed", err)
				os.Exit(1)
			}
		},
	}

	runCmd.Flags().Bool("dry-run", false, "Print the brief without updating the ledger or mailbox")
	runCmd.Flags().Bool("no-delay", false, "Skip the pause between model calls")
	return runCmd
}

func runDigest(ctx context.Context, dryRun, noDelay bool) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}

	p, cleanup, err := buildPipeline(ctx, cfg, dryRun, noDelay)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := p.Run(ctx)
	if err != nil {
		return err
	}

	if !dryRun {
		fmt.Printf("✅ Brief written to %s: %d summarized, %d skipped, %d failed\n",
			cfg.Output.Sink, result.Run.Summarized, result.Run.Skipped, result.Run.Failed)
	}
	return nil
}

// buildPipeline wires the configured collaborators into a pipeline. The
// returned cleanup closes the store.
func buildPipeline(ctx context.Context, cfg *config.Config, dryRun, noDelay bool) (*pipeline.Pipeline, func(), error) {
	if err := cfg.ValidateForRun(dryRun); err != nil {
		return nil, nil, err
	}

	st, err := store.NewStore(cfg.Storage.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}
	cleanup := func() {
		if err := st.Close(); err != nil {
			logger.Error("Failed to close store", err)
		}
	}

	llmClient, err := llm.NewClient(ctx, llm.Config{
		APIKey:  cfg.AI.Gemini.APIKey,
		Model:   cfg.AI.Gemini.Model,
		Timeout: cfg.AI.Gemini.TimeoutDuration(),
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	source, err := newMailSource(ctx, cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	sink, err := newSink(ctx, cfg, dryRun)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	builder := pipeline.NewBuilder().
		WithSettings(cfg).
		WithMailSource(source).
		WithLLMClient(llmClient).
		WithSink(sink).
		WithStore(st).
		WithRunRecorder(st).
		WithDryRun(dryRun)
	if noDelay {
		builder = builder.WithoutDelay()
	}

	p, err := builder.Build()
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return p, cleanup, nil
}

func newMailSource(ctx context.Context, cfg *config.Config) (pipeline.MailSource, error) {
	switch cfg.Mail.Provider {
	case "imap":
		return mail.NewIMAPSource(cfg.Mail.IMAP), nil
	default:
		httpClient, err := googleauth.Client(ctx, cfg.Mail.Gmail.CredentialsFile, cfg.Mail.Gmail.TokenFile)
		if err != nil {
			return nil, fmt.Errorf("failed to authorize Gmail: %w", err)
		}
		source, err := mail.NewGmailSource(ctx, httpClient, cfg.Mail.Gmail.User)
		if err != nil {
			return nil, err
		}
		return source, nil
	}
}

func newSink(ctx context.Context, cfg *config.Config, dryRun bool) (pipeline.DocumentSink, error) {
	if dryRun {
		return render.NewTerminalSink(os.Stdout), nil
	}

	switch cfg.Output.Sink {
	case "markdown":
		return render.NewMarkdownFileSink(cfg.Output.Directory), nil
	case "terminal":
		return render.NewTerminalSink(os.Stdout), nil
	default:
		httpClient, err := googleauth.Client(ctx, cfg.Output.GDocs.CredentialsFile, cfg.Output.GDocs.TokenFile)
		if err != nil {
			return nil, fmt.Errorf("failed to authorize Google Docs: %w", err)
		}
		sink, err := docs.NewSink(ctx, httpClient, cfg.Output.GDocs.DocumentID)
		if err != nil {
			return nil, err
		}
		return sink, nil
	}
}
