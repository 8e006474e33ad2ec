// models/chat.go
package models

import "strings"

// Role identifies who authored a chat message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether the role is one the pipeline understands
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// ChatMessage is a single turn of the conversation replayed by the client on every request.
// The server never stores it.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body accepted by the query endpoint
type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
}

// Normalize lowercases roles and trims surrounding whitespace from role names.
// Content is left untouched.
func (r *ChatRequest) Normalize() {
	for i := range r.Messages {
		r.Messages[i].Role = Role(strings.ToLower(strings.TrimSpace(string(r.Messages[i].Role))))
	}
}
