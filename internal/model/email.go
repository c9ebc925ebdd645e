package model

import "time"

// Category is the business label attached to every ingested email.
type Category string

const (
	CategoryInterested    Category = "Interested"
	CategoryNotInterested Category = "Not Interested"
	CategoryMeetingBooked Category = "Meeting Booked"
	CategorySpam          Category = "Spam"
	CategoryGeneral       Category = "General"
)

// Categories lists all valid labels in priority order. Normalization of
// inference responses walks this slice front to back, so the order is part
// of the classification contract.
var Categories = []Category{
	CategoryInterested,
	CategoryNotInterested,
	CategoryMeetingBooked,
	CategorySpam,
	CategoryGeneral,
}

// RawMessage is one unparsed message pulled from the mailbox. It only
// lives between fetch and parse.
type RawMessage struct {
	SeqNum uint32
	Body   []byte
}

// EmailRecord is the normalized, classified form of one email as it is
// written to the search index. MessageID is the document identifier;
// re-ingesting the same id overwrites the previous document.
type EmailRecord struct {
	MessageID   string     `json:"messageId"`
	Subject     string     `json:"subject"`
	From        string     `json:"from"`
	Date        *time.Time `json:"date"`
	Body        string     `json:"body"`
	Snippet     string     `json:"snippet"`
	OwnerUserID string     `json:"ownerUserId"`
	AccountID   string     `json:"accountId"`
	Folder      string     `json:"folder"`
	IsRead      bool       `json:"isRead"`
	Category    Category   `json:"category"`
}
