package mail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	_ "github.com/emersion/go-message/charset"
	gomail "github.com/emersion/go-message/mail"

	"inboxbrief/internal/config"
	"inboxbrief/internal/core"
	"inboxbrief/internal/logger"
)

// IMAPSource reads newsletters from an IMAP mailbox named after the label.
type IMAPSource struct {
	cfg     config.IMAP
	mailbox string
	now     func() time.Time
}

// NewIMAPSource creates a source for the configured server. The mailbox is
// the query label, falling back to INBOX.
func NewIMAPSource(cfg config.IMAP) *IMAPSource {
	if cfg.Port == 0 {
		cfg.Port = 993
	}
	return &IMAPSource{cfg: cfg, now: time.Now}
}

// Fetch returns messages in the window, newest first.
func (s *IMAPSource) Fetch(ctx context.Context, q Query) ([]core.CandidateMessage, error) {
	since, err := q.Since(s.now())
	if err != nil {
		return nil, err
	}
	s.mailbox = mailboxName(q.Label)

	var candidates []core.CandidateMessage
	err = s.withSession(ctx, true, func(c *client.Client) error {
		criteria := imap.NewSearchCriteria()
		if !since.IsZero() {
			criteria.Since = since
		}

		uids, err := c.UidSearch(criteria)
		if err != nil {
			return fmt.Errorf("failed to search mailbox %s: %w", s.mailbox, err)
		}
		uids = newestUIDs(uids, q.MaxResults)
		logger.Info("Found messages", "mailbox", s.mailbox, "count", len(uids))
		if len(uids) == 0 {
			return nil
		}

		seqSet := new(imap.SeqSet)
		seqSet.AddNum(uids...)
		section := &imap.BodySectionName{Peek: true}
		items := []imap.FetchItem{imap.FetchUid, imap.FetchEnvelope, section.FetchItem()}

		messages := make(chan *imap.Message, len(uids))
		done := make(chan error, 1)
		go func() {
			done <- c.UidFetch(seqSet, items, messages)
		}()

		for msg := range messages {
			if msg == nil || msg.Envelope == nil {
				continue
			}
			if q.Excludes(msg.Envelope.Subject) {
				continue
			}
			candidate, err := s.candidateFromMessage(msg, section)
			if err != nil {
				logger.Warn("Failed to parse message", "uid", msg.Uid, "error", err.Error())
				continue
			}
			candidates = append(candidates, candidate)
		}

		if err := <-done; err != nil {
			return fmt.Errorf("failed to fetch messages: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Timestamp.After(candidates[j].Timestamp)
	})
	return candidates, nil
}

// MarkRead sets the \Seen flag on the message.
func (s *IMAPSource) MarkRead(ctx context.Context, msg core.CandidateMessage) error {
	uid, err := strconv.ParseUint(msg.ThreadID, 10, 32)
	if err != nil {
		return fmt.Errorf("invalid IMAP uid %q: %w", msg.ThreadID, err)
	}

	return s.withSession(ctx, false, func(c *client.Client) error {
		seqSet := new(imap.SeqSet)
		seqSet.AddNum(uint32(uid))
		item := imap.FormatFlagsOp(imap.AddFlags, true)
		if err := c.UidStore(seqSet, item, []interface{}{imap.SeenFlag}, nil); err != nil {
			return fmt.Errorf("failed to mark message %d as read: %w", uid, err)
		}
		return nil
	})
}

func (s *IMAPSource) withSession(ctx context.Context, readOnly bool, fn func(c *client.Client) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.cfg.Host == "" || s.cfg.Username == "" {
		return errors.New("IMAP not configured")
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var (
		c   *client.Client
		err error
	)
	if s.cfg.UseTLS {
		c, err = client.DialTLS(addr, nil)
	} else {
		c, err = client.Dial(addr)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to IMAP server: %w", err)
	}
	defer c.Logout()

	if err := c.Login(s.cfg.Username, s.cfg.Password); err != nil {
		return fmt.Errorf("IMAP login failed: %w", err)
	}

	mailbox := s.mailbox
	if mailbox == "" {
		mailbox = "INBOX"
	}
	if _, err := c.Select(mailbox, readOnly); err != nil {
		return fmt.Errorf("failed to select %s: %w", mailbox, err)
	}

	return fn(c)
}

func (s *IMAPSource) candidateFromMessage(msg *imap.Message, section *imap.BodySectionName) (core.CandidateMessage, error) {
	r := msg.GetBody(section)
	if r == nil {
		return core.CandidateMessage{}, errors.New("no body section")
	}
	plain, html, err := parseMessage(r)
	if err != nil {
		return core.CandidateMessage{}, err
	}

	env := msg.Envelope
	uid := strconv.FormatUint(uint64(msg.Uid), 10)
	id := strings.Trim(env.MessageId, "<>")
	if id == "" {
		id = s.mailbox + ":" + uid
	}

	return core.CandidateMessage{
		ID:        id,
		ThreadID:  uid,
		Subject:   env.Subject,
		Sender:    formatSender(env.From),
		Timestamp: env.Date.UTC(),
		PlainBody: plain,
		HTMLBody:  html,
	}, nil
}

// parseMessage returns the first text/plain and text/html bodies of a raw
// RFC 5322 message.
func parseMessage(r io.Reader) (plain, html string, err error) {
	mr, err := gomail.CreateReader(r)
	if err != nil {
		return "", "", fmt.Errorf("failed to create mail reader: %w", err)
	}

	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", "", fmt.Errorf("failed to read next part: %w", err)
		}

		h, ok := p.Header.(*gomail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := h.ContentType()
		switch {
		case strings.HasPrefix(contentType, "text/plain") && plain == "":
			b, err := io.ReadAll(p.Body)
			if err != nil {
				return "", "", fmt.Errorf("failed to read body: %w", err)
			}
			plain = string(b)
		case strings.HasPrefix(contentType, "text/html") && html == "":
			b, err := io.ReadAll(p.Body)
			if err != nil {
				return "", "", fmt.Errorf("failed to read body: %w", err)
			}
			html = string(b)
		}
	}

	return plain, html, nil
}

func formatSender(from []*imap.Address) string {
	if len(from) == 0 || from[0] == nil {
		return ""
	}
	addr := from[0]
	if addr.PersonalName == "" {
		return addr.Address()
	}
	return fmt.Sprintf("%s <%s>", addr.PersonalName, addr.Address())
}

// newestUIDs keeps the max highest uids; uids grow with arrival order.
func newestUIDs(uids []uint32, max int64) []uint32 {
	sorted := append([]uint32(nil), uids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	if max > 0 && int64(len(sorted)) > max {
		sorted = sorted[int64(len(sorted))-max:]
	}
	return sorted
}

func mailboxName(label string) string {
	if label = strings.TrimSpace(label); label != "" {
		return label
	}
	return "INBOX"
}
