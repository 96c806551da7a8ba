package mail

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-imap"
	gmailv1 "google.golang.org/api/gmail/v1"

	"inboxbrief/internal/config"
	"inboxbrief/internal/core"
)

func TestQueryGmail(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  string
	}{
		{"base", Query{Label: "Newsletters", NewerThan: "1d"}, "label:Newsletters newer_than:1d"},
		{
			"exclusions",
			Query{Label: "Newsletters", NewerThan: "1d", ExcludeSubjects: []string{"Intelligence Brief", " "}},
			`label:Newsletters newer_than:1d -subject:"Intelligence Brief"`,
		},
		{"empty", Query{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.query.Gmail(); got != tt.want {
				t.Errorf("Gmail() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseWindow(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"1d", 24 * time.Hour, false},
		{"12h", 12 * time.Hour, false},
		{"2w", 14 * 24 * time.Hour, false},
		{"1m", 30 * 24 * time.Hour, false},
		{"1Y", 365 * 24 * time.Hour, false},
		{"d", 0, true},
		{"5x", 0, true},
		{"-1d", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseWindow(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseWindow(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseWindow(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestQueryExcludes(t *testing.T) {
	q := Query{ExcludeSubjects: []string{"Intelligence Brief"}}
	if !q.Excludes("Your INTELLIGENCE brief for today") {
		t.Error("Expected case-insensitive exclusion")
	}
	if q.Excludes("Weekly AI roundup") {
		t.Error("Unexpected exclusion")
	}
}

func b64(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func testThread() *gmailv1.Thread {
	return &gmailv1.Thread{
		Id: "t1",
		Messages: []*gmailv1.Message{
			{Id: "m0", ThreadId: "t1", InternalDate: 1000},
			{
				Id:           "m1",
				ThreadId:     "t1",
				InternalDate: 1760972400000,
				Payload: &gmailv1.MessagePart{
					MimeType: "multipart/alternative",
					Headers: []*gmailv1.MessagePartHeader{
						{Name: "Subject", Value: "AI Weekly"},
						{Name: "from", Value: "AI Weekly <news@ai.example>"},
					},
					Parts: []*gmailv1.MessagePart{
						{MimeType: "text/html", Body: &gmailv1.MessagePartBody{Data: b64("<p>html body</p>")}},
						{MimeType: "text/plain", Body: &gmailv1.MessagePartBody{Data: b64("plain body")}},
					},
				},
			},
		},
	}
}

func TestCandidateFromThread(t *testing.T) {
	msg, ok := candidateFromThread(testThread())
	if !ok {
		t.Fatal("Expected a candidate")
	}

	if msg.ID != "m1" || msg.ThreadID != "t1" {
		t.Errorf("Expected latest message m1 in t1, got %s in %s", msg.ID, msg.ThreadID)
	}
	if msg.Subject != "AI Weekly" || msg.Sender != "AI Weekly <news@ai.example>" {
		t.Errorf("Unexpected headers %q / %q", msg.Subject, msg.Sender)
	}
	if msg.PlainBody != "plain body" || msg.HTMLBody != "<p>html body</p>" {
		t.Errorf("Unexpected bodies %q / %q", msg.PlainBody, msg.HTMLBody)
	}
	if !msg.Timestamp.Equal(time.UnixMilli(1760972400000)) || msg.Timestamp.Location() != time.UTC {
		t.Errorf("Unexpected timestamp %v", msg.Timestamp)
	}
	if msg.Permalink != "https://mail.google.com/mail/u/0/#all/t1" {
		t.Errorf("Unexpected permalink %s", msg.Permalink)
	}

	if _, ok := candidateFromThread(&gmailv1.Thread{Id: "empty"}); ok {
		t.Error("Expected no candidate for an empty thread")
	}
}

type fakeThreads struct {
	threads  map[string]*gmailv1.Thread
	order    []string
	query    string
	max      int64
	marked   []string
	listErr  error
	getErrID string
}

func (f *fakeThreads) List(_ context.Context, query string, max int64) ([]string, error) {
	f.query, f.max = query, max
	return f.order, f.listErr
}

func (f *fakeThreads) Get(_ context.Context, id string) (*gmailv1.Thread, error) {
	if id == f.getErrID {
		return nil, errors.New("backend error")
	}
	return f.threads[id], nil
}

func (f *fakeThreads) MarkRead(_ context.Context, id string) error {
	f.marked = append(f.marked, id)
	return nil
}

func TestGmailSourceFetch(t *testing.T) {
	api := &fakeThreads{
		threads:  map[string]*gmailv1.Thread{"t1": testThread()},
		order:    []string{"broken", "t1"},
		getErrID: "broken",
	}
	src := &GmailSource{api: api}

	got, err := src.Fetch(context.Background(), Query{Label: "Newsletters", NewerThan: "1d", MaxResults: 50})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if api.query != "label:Newsletters newer_than:1d" || api.max != 50 {
		t.Errorf("Unexpected search %q max=%d", api.query, api.max)
	}
	if len(got) != 1 || got[0].ID != "m1" {
		t.Fatalf("Expected the readable thread only, got %+v", got)
	}

	if err := src.MarkRead(context.Background(), got[0]); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	if len(api.marked) != 1 || api.marked[0] != "t1" {
		t.Errorf("Expected thread t1 marked read, got %v", api.marked)
	}
}

func TestGmailSourceFetch_SearchError(t *testing.T) {
	src := &GmailSource{api: &fakeThreads{listErr: errors.New("quota")}}
	if _, err := src.Fetch(context.Background(), Query{}); err == nil {
		t.Error("Expected search error")
	}
}

func TestParseMessage(t *testing.T) {
	raw := strings.Join([]string{
		"From: News <news@example.com>",
		"Subject: Hello",
		"MIME-Version: 1.0",
		`Content-Type: multipart/alternative; boundary="b1"`,
		"",
		"--b1",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"plain text",
		"--b1",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<p>html</p>",
		"--b1--",
		"",
	}, "\r\n")

	plain, html, err := parseMessage(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("parseMessage failed: %v", err)
	}
	if strings.TrimSpace(plain) != "plain text" {
		t.Errorf("Unexpected plain body %q", plain)
	}
	if strings.TrimSpace(html) != "<p>html</p>" {
		t.Errorf("Unexpected html body %q", html)
	}
}

func TestFormatSender(t *testing.T) {
	named := []*imap.Address{{PersonalName: "News", MailboxName: "news", HostName: "example.com"}}
	if got := formatSender(named); got != "News <news@example.com>" {
		t.Errorf("formatSender = %q", got)
	}
	bare := []*imap.Address{{MailboxName: "news", HostName: "example.com"}}
	if got := formatSender(bare); got != "news@example.com" {
		t.Errorf("formatSender = %q", got)
	}
	if got := formatSender(nil); got != "" {
		t.Errorf("formatSender(nil) = %q", got)
	}
}

func TestNewestUIDs(t *testing.T) {
	got := newestUIDs([]uint32{9, 3, 7, 1}, 2)
	if len(got) != 2 || got[0] != 7 || got[1] != 9 {
		t.Errorf("newestUIDs = %v, want [7 9]", got)
	}
	if got := newestUIDs([]uint32{2, 1}, 0); len(got) != 2 {
		t.Errorf("Expected all uids without a limit, got %v", got)
	}
}

func TestIMAPSourceMarkRead_InvalidUID(t *testing.T) {
	src := NewIMAPSource(config.IMAP{Host: "localhost", Username: "me"})
	err := src.MarkRead(context.Background(), core.CandidateMessage{ThreadID: "not-a-uid"})
	if err == nil {
		t.Error("Expected error for an invalid uid")
	}
}
