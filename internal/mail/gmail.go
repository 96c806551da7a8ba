package mail

import (
	"context"
	"fmt"
	"net/http"
	"time"

	gmailv1 "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"inboxbrief/internal/core"
	"inboxbrief/internal/logger"
)

const permalinkBase = "https://mail.google.com/mail/u/0/#all/"

// threadAPI is the subset of the Gmail API the source needs.
type threadAPI interface {
	List(ctx context.Context, query string, max int64) ([]string, error)
	Get(ctx context.Context, threadID string) (*gmailv1.Thread, error)
	MarkRead(ctx context.Context, threadID string) error
}

// GmailSource reads newsletter threads through the Gmail API.
type GmailSource struct {
	api threadAPI
}

// NewGmailSource creates a source for user ("me" for the authorized account).
func NewGmailSource(ctx context.Context, httpClient *http.Client, user string) (*GmailSource, error) {
	svc, err := gmailv1.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	if user == "" {
		user = "me"
	}
	return &GmailSource{api: &gmailThreads{svc: svc, user: user}}, nil
}

// Fetch returns the latest message of each matching thread, in search order.
// Threads that cannot be read are logged and skipped.
func (s *GmailSource) Fetch(ctx context.Context, q Query) ([]core.CandidateMessage, error) {
	query := q.Gmail()
	logger.Info("Searching emails", "query", query)

	ids, err := s.api.List(ctx, query, q.MaxResults)
	if err != nil {
		return nil, fmt.Errorf("failed to search threads: %w", err)
	}
	logger.Info("Found threads", "count", len(ids))

	candidates := make([]core.CandidateMessage, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		thread, err := s.api.Get(ctx, id)
		if err != nil {
			logger.Warn("Failed to read thread", "thread_id", id, "error", err.Error())
			continue
		}
		msg, ok := candidateFromThread(thread)
		if !ok {
			continue
		}
		candidates = append(candidates, msg)
	}
	return candidates, nil
}

// MarkRead removes the UNREAD label from the message's thread.
func (s *GmailSource) MarkRead(ctx context.Context, msg core.CandidateMessage) error {
	if err := s.api.MarkRead(ctx, msg.ThreadID); err != nil {
		return fmt.Errorf("mark thread %s read: %w", msg.ThreadID, err)
	}
	return nil
}

// candidateFromThread converts the latest message of a thread.
func candidateFromThread(thread *gmailv1.Thread) (core.CandidateMessage, bool) {
	if thread == nil || len(thread.Messages) == 0 {
		return core.CandidateMessage{}, false
	}
	msg := thread.Messages[len(thread.Messages)-1]

	threadID := msg.ThreadId
	if threadID == "" {
		threadID = thread.Id
	}

	return core.CandidateMessage{
		ID:        msg.Id,
		ThreadID:  threadID,
		Subject:   header(msg.Payload, "Subject"),
		Sender:    header(msg.Payload, "From"),
		Timestamp: time.UnixMilli(msg.InternalDate).UTC(),
		PlainBody: extractBody(msg.Payload, "text/plain"),
		HTMLBody:  extractBody(msg.Payload, "text/html"),
		Permalink: permalinkBase + threadID,
	}, true
}

// gmailThreads adapts the generated Gmail service.
type gmailThreads struct {
	svc  *gmailv1.Service
	user string
}

func (g *gmailThreads) List(ctx context.Context, query string, max int64) ([]string, error) {
	call := g.svc.Users.Threads.List(g.user).Q(query).Context(ctx)
	if max > 0 {
		call = call.MaxResults(max)
	}
	resp, err := call.Do()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(resp.Threads))
	for _, t := range resp.Threads {
		ids = append(ids, t.Id)
	}
	return ids, nil
}

func (g *gmailThreads) Get(ctx context.Context, threadID string) (*gmailv1.Thread, error) {
	return g.svc.Users.Threads.Get(g.user, threadID).Format("full").Context(ctx).Do()
}

func (g *gmailThreads) MarkRead(ctx context.Context, threadID string) error {
	req := &gmailv1.ModifyThreadRequest{RemoveLabelIds: []string{"UNREAD"}}
	_, err := g.svc.Users.Threads.Modify(g.user, threadID, req).Context(ctx).Do()
	return err
}
