package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopicTemplate(t *testing.T) {
	prompt := TopicTemplate{Topic: "Formula One"}.SystemPrompt(
		[]string{"Monaco <street> circuit", `He said "box box"`},
		"Where is Monaco?",
	)

	assert.Contains(t, prompt, "knows everything about Formula One")
	assert.Contains(t, prompt, `["Monaco <street> circuit","He said \"box box\""]`)
	assert.Contains(t, prompt, "QUESTION: Where is Monaco?")
}

func TestTopicTemplateDefaultsTopic(t *testing.T) {
	prompt := TopicTemplate{}.SystemPrompt(nil, "q")
	assert.Contains(t, prompt, "about Formula One")
}

func TestEncodeContextEmpty(t *testing.T) {
	assert.Equal(t, "", encodeContext(nil))
}
