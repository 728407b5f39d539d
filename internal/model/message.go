package model

import "strings"

// MessageType identifies who sent a conversation message.
type MessageType string

const (
	MessageTypeUser  MessageType = "USER"
	MessageTypeAgent MessageType = "AGENT"
)

// ParseMessageType maps a CSV type token to a MessageType. Unknown tokens are
// kept verbatim.
func ParseMessageType(token string) MessageType {
	switch strings.ToUpper(strings.TrimSpace(token)) {
	case "USER", "USER_MESSAGE":
		return MessageTypeUser
	case "AGENT", "AGENT_MESSAGE":
		return MessageTypeAgent
	default:
		return MessageType(token)
	}
}

// Message represents one message of an imported conversation.
type Message struct {
	ID        string      `json:"id"`
	Type      MessageType `json:"type"`
	Content   string      `json:"content"`
	Timestamp string      `json:"timestamp"` // zero-padded, sorts lexicographically
}
