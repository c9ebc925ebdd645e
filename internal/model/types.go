package model

import "time"

// ConnectAccountRequest is the payload for linking a new mailbox.
type ConnectAccountRequest struct {
	Email        string `json:"email" binding:"required,email"`
	IMAPPassword string `json:"imap_password" binding:"required"`
	IMAPHost     string `json:"imap_host" binding:"required"`
	IMAPPort     int    `json:"imap_port"`
	TLS          *bool  `json:"tls"`
}

// ConnectedAccountResponse is the API view of a linked account.
type ConnectedAccountResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	IMAPHost  string    `json:"imap_host"`
	IMAPPort  int       `json:"imap_port"`
	TLS       bool      `json:"tls"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatRequest is the payload for asking a question about the inbox.
type ChatRequest struct {
	Query string `json:"query" binding:"required"`
}

// ChatResponse carries the assistant's answer.
type ChatResponse struct {
	Answer string `json:"answer"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Database  string            `json:"database"`
	Index     string            `json:"index"`
	Metrics   map[string]string `json:"metrics,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
