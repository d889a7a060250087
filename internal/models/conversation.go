package models

import (
	"time"

	"gorm.io/gorm"
)

// Conversation identifies one remote WhatsApp correspondent. While
// BotEnabled is true the ordering state machine answers; once the user asks
// for a human it flips to false and stays false until an operator re-enables
// it.
type Conversation struct {
	gorm.Model

	StoreID     string `json:"store_id" gorm:"index"`
	RemoteJID   string `json:"remote_jid" gorm:"uniqueIndex"`
	ContactName string `json:"contact_name"`
	BotEnabled  bool   `json:"bot_enabled" gorm:"default:true"`

	// SessionData holds the JSON-serialized ordering session for this
	// conversation. Exactly one session per conversation.
	SessionData string `json:"session_data"`
}

// Message is one line of the per-conversation chat log, both directions.
type Message struct {
	gorm.Model

	ConversationID uint      `json:"conversation_id" gorm:"index"`
	Body           string    `json:"body"`
	FromMe         bool      `json:"from_me"`
	Timestamp      time.Time `json:"timestamp"`
}

// BeforeCreate stamps the message when the transport did not provide a time.
func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	return nil
}
