package rag

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// PromptTemplate renders the system instruction sent ahead of the conversation
type PromptTemplate interface {
	SystemPrompt(contextChunks []string, question string) string
}

// TopicTemplate is an assistant that knows one subject. Retrieved chunks are
// embedded as a JSON array between START CONTEXT and END CONTEXT.
type TopicTemplate struct {
	Topic string
}

func (t TopicTemplate) SystemPrompt(contextChunks []string, question string) string {
	topic := t.Topic
	if topic == "" {
		topic = "Formula One"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are an AI assistant who knows everything about %s.\n", topic)
	fmt.Fprintf(&b, "Use the context below to augment what you know about %s.\n", topic)
	b.WriteString("If the context doesn't include the information you need, answer from your existing knowledge.\n")
	b.WriteString("Do NOT mention whether context was used.\n")
	b.WriteString("Format responses in markdown when applicable.\n")
	b.WriteString("\n----------\n")
	b.WriteString("START CONTEXT\n")
	b.WriteString(encodeContext(contextChunks))
	b.WriteString("\nEND CONTEXT\n")
	b.WriteString("QUESTION: ")
	b.WriteString(question)
	b.WriteString("\n----------")
	return b.String()
}

// encodeContext renders chunks as a JSON array of strings; no chunks renders nothing
func encodeContext(chunks []string) string {
	if len(chunks) == 0 {
		return ""
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(chunks); err != nil {
		return ""
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
