package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message/mail"
	"github.com/sirupsen/logrus"

	_ "github.com/emersion/go-message/charset"

	"inbox-scout-go/internal/model"
)

// snippetLength is how many characters of the body survive into the
// record's snippet.
const snippetLength = 100

// Parser normalizes raw MIME messages into email records. A failure on
// one message never affects the rest of a batch; the caller drops the
// message and moves on.
type Parser struct {
	html *HTMLParser
}

// NewParser creates a new message parser
func NewParser() *Parser {
	return &Parser{html: NewHTMLParser()}
}

// Parse converts one raw message into an email record with its raw fields
// populated. Ownership fields and category are attached downstream.
func (p *Parser) Parse(raw model.RawMessage) (model.EmailRecord, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw.Body))
	if err != nil {
		return model.EmailRecord{}, fmt.Errorf("failed to read message %d: %w", raw.SeqNum, err)
	}

	var record model.EmailRecord

	if id, err := mr.Header.MessageID(); err == nil {
		record.MessageID = id
	}
	if subject, err := mr.Header.Subject(); err == nil {
		record.Subject = subject
	}
	if date, err := mr.Header.Date(); err == nil && !date.IsZero() {
		d := date
		record.Date = &d
	}
	if addrs, err := mr.Header.AddressList("From"); err == nil {
		record.From = formatAddressList(addrs)
	}

	textBody, htmlBody, err := p.readParts(mr)
	if err != nil {
		return model.EmailRecord{}, fmt.Errorf("failed to read body of message %d: %w", raw.SeqNum, err)
	}

	record.Body = textBody
	if record.Body == "" && htmlBody != "" {
		text, err := p.html.Parse(htmlBody)
		if err != nil {
			logrus.Warnf("Failed to extract text from HTML part of message %d: %v", raw.SeqNum, err)
		} else {
			record.Body = text
		}
	}

	record.Snippet = snippet(record.Body)
	return record, nil
}

// readParts walks the message parts and returns the first text/plain and
// text/html bodies found. Attachments are skipped.
func (p *Parser) readParts(mr *mail.Reader) (textBody, htmlBody string, err error) {
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", "", err
		}

		header, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}

		contentType, _, err := header.ContentType()
		if err != nil {
			continue
		}

		content, err := io.ReadAll(part.Body)
		if err != nil {
			return "", "", err
		}

		switch {
		case strings.HasPrefix(contentType, "text/plain"):
			if textBody == "" {
				textBody = string(content)
			}
		case strings.HasPrefix(contentType, "text/html"):
			if htmlBody == "" {
				htmlBody = string(content)
			}
		}
	}

	return textBody, htmlBody, nil
}

// formatAddressList renders addresses as display text, e.g.
// "Jane Doe <jane@example.com>, bob@example.com".
func formatAddressList(addrs []*mail.Address) string {
	parts := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		if addr.Name != "" {
			parts = append(parts, fmt.Sprintf("%s <%s>", addr.Name, addr.Address))
		} else {
			parts = append(parts, addr.Address)
		}
	}
	return strings.Join(parts, ", ")
}

// snippet returns the first snippetLength characters of body.
func snippet(body string) string {
	runes := []rune(body)
	if len(runes) <= snippetLength {
		return body
	}
	return string(runes[:snippetLength])
}
