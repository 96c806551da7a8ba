package handlers

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"inboxbrief/internal/core"
	"inboxbrief/internal/ledger"
	"inboxbrief/internal/store"
)

func TestRootCmdSubcommands(t *testing.T) {
	root := NewRootCmd()
	for _, name := range []string{"run", "preview", "ledger", "history", "schedule"} {
		if _, _, err := root.Find([]string{name}); err != nil {
			t.Errorf("Expected subcommand %q: %v", name, err)
		}
	}
}

func TestRunPreviewFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weekly-notes.md")
	if err := os.WriteFile(path, []byte("- **Chips**: supply tight\n- Rates unchanged\n"), 0644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := runPreview(context.Background(), []string{path}, "", strings.NewReader(""), &out); err != nil {
		t.Fatalf("runPreview failed: %v", err)
	}
	got := out.String()
	for _, want := range []string{"weekly-notes", "Chips", "Rates unchanged"} {
		if !strings.Contains(got, want) {
			t.Errorf("Expected output to contain %q, got %q", want, got)
		}
	}
}

func TestRunPreviewEmptyStdin(t *testing.T) {
	var out bytes.Buffer
	if err := runPreview(context.Background(), nil, "", strings.NewReader("\n\n"), &out); err != nil {
		t.Fatalf("runPreview failed: %v", err)
	}
	if !strings.Contains(out.String(), "Nothing to preview") {
		t.Errorf("Unexpected output %q", out.String())
	}
}

func TestPrintLedger(t *testing.T) {
	l := ledger.FromIDs([]string{"a", "b", "c"}, 10)

	var out bytes.Buffer
	printLedger(&out, l, 2)
	got := out.String()

	if !strings.Contains(got, "3 of 10") {
		t.Errorf("Expected count line, got %q", got)
	}
	if strings.Contains(got, "- a\n") || !strings.Contains(got, "- c\n") {
		t.Errorf("Expected only the newest IDs, got %q", got)
	}
}

func TestPrintHistory(t *testing.T) {
	started := time.Date(2025, 10, 20, 7, 0, 0, 0, time.UTC)
	runs := []core.RunRecord{{
		StartedAt:  started,
		FinishedAt: started.Add(42 * time.Second),
		Candidates: 5,
		Summarized: 3,
		Skipped:    2,
		Themes:     []string{"AI & ML", "Finance"},
	}}

	var out bytes.Buffer
	printHistory(&out, runs, &store.Stats{RunCount: 1, PropertyCount: 1}, time.UTC)
	got := out.String()

	for _, want := range []string{"2025-10-20 07:00", "42s", "3 summarized", "AI & ML, Finance", "Runs stored: 1"} {
		if !strings.Contains(got, want) {
			t.Errorf("Expected output to contain %q, got %q", want, got)
		}
	}
}
