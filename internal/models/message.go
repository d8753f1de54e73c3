package models

import (
	"time"

	"github.com/gocql/gocql"
)

// Conversation and Message live in Scylla, not in the relational store.
type Conversation struct {
	ID            gocql.UUID `json:"id"`
	UserID        string     `json:"userId"`
	VendorID      string     `json:"vendorId"`
	CreatedAt     time.Time  `json:"createdAt"`
	LastMessageAt time.Time  `json:"lastMessageAt"`
}

type Message struct {
	ID             gocql.UUID `json:"id"` // timeuuid
	ConversationID gocql.UUID `json:"conversationId"`
	SenderID       string     `json:"senderId"`
	SenderRole     string     `json:"senderRole"` // "consumer", "vendor"
	Body           string     `json:"body"`
	SentAt         time.Time  `json:"sentAt"`
}

type AuditLog struct {
	ID           gocql.UUID `json:"id"`
	UserID       string     `json:"userId"`
	Action       string     `json:"action"`
	ResourceType string     `json:"resourceType"`
	ResourceID   string     `json:"resourceId"`
	Details      string     `json:"details,omitempty"`
	IPAddress    string     `json:"ipAddress,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}
