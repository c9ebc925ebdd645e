package fetcher

import (
	"context"
	"fmt"
	"io"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/sirupsen/logrus"

	"inbox-scout-go/internal/model"
)

// recentWindowSize caps how many of the most recent messages one sync
// call pulls. This trades history completeness for a fixed latency
// ceiling per call.
const recentWindowSize = 10

// ConnectionParams are ready-to-use credentials for one mailbox session.
// They are supplied already decrypted and are held only for the duration
// of a single fetch.
type ConnectionParams struct {
	Host     string
	Port     int
	TLS      bool
	Username string
	Secret   string
}

// Addr returns the host:port dial address.
func (p ConnectionParams) Addr() string {
	return fmt.Sprintf("%s:%d", p.Host, p.Port)
}

// IMAPConnector fetches recent messages over a short-lived IMAP session.
// The connection is single, unpooled, and never reused across calls.
type IMAPConnector struct{}

// NewIMAPConnector creates a new IMAP connector
func NewIMAPConnector() *IMAPConnector {
	return &IMAPConnector{}
}

// RecentWindow returns the sequence range covering the most recent
// messages of a mailbox with total messages. A zero total yields (0, 0),
// meaning nothing to fetch.
func RecentWindow(total uint32) (from, to uint32) {
	if total == 0 {
		return 0, 0
	}
	from = uint32(1)
	if total > recentWindowSize {
		from = total - (recentWindowSize - 1)
	}
	return from, total
}

// FetchRecent opens one session, selects INBOX read-only and fetches the
// raw bodies of the most recent messages in sequence order. The session
// is closed on every exit path. Any connection, auth or fetch error fails
// the whole call; no partial result is returned in that case.
func (c *IMAPConnector) FetchRecent(ctx context.Context, params ConnectionParams) ([]model.RawMessage, error) {
	var cl *client.Client
	var err error

	if params.TLS {
		cl, err = client.DialTLS(params.Addr(), nil)
	} else {
		cl, err = client.Dial(params.Addr())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to IMAP server: %w", err)
	}
	defer cl.Logout()

	if err := cl.Login(params.Username, params.Secret); err != nil {
		return nil, fmt.Errorf("failed to login to IMAP server: %w", err)
	}

	// Read-only select so the fetch never mutates flags server-side.
	mbox, err := cl.Select("INBOX", true)
	if err != nil {
		return nil, fmt.Errorf("failed to select INBOX: %w", err)
	}

	from, to := RecentWindow(mbox.Messages)
	if to == 0 {
		return []model.RawMessage{}, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddRange(from, to)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{section.FetchItem()}

	messages := make(chan *imap.Message, to-from+1)
	done := make(chan error, 1)

	go func() {
		done <- cl.Fetch(seqset, items, messages)
	}()

	var raws []model.RawMessage
	for msg := range messages {
		body := msg.GetBody(section)
		if body == nil {
			logrus.Warnf("Message %d has no body section, skipping", msg.SeqNum)
			continue
		}

		data, err := io.ReadAll(body)
		if err != nil {
			logrus.Warnf("Failed to read body of message %d: %v", msg.SeqNum, err)
			continue
		}

		raws = append(raws, model.RawMessage{SeqNum: msg.SeqNum, Body: data})
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	logrus.Infof("Fetched %d messages from %s (window %d:%d of %d)", len(raws), params.Host, from, to, mbox.Messages)
	return raws, nil
}
