package types

import (
	"encoding/base64"
	"strings"
)

// MessageRole identifies the author of a conversation message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"    // RoleSystem is a system instruction.
	RoleUser      MessageRole = "user"      // RoleUser is a message from the user (or an observation sent on their behalf).
	RoleAssistant MessageRole = "assistant" // RoleAssistant is a message produced by the model.
)

// imagePlaceholder replaces image parts when a multimodal message is flattened to text.
const imagePlaceholder = "<image>"

// Image is a PNG image attached to a message.
type Image struct {
	// Data holds the encoded PNG bytes.
	Data []byte
}

// DataURI returns the image encoded as a base64 PNG data URI.
func (i Image) DataURI() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// ToolCall is a single function call requested by the model.
type ToolCall struct {
	// ID is the provider-assigned call identifier.
	ID string

	// Name is the tool name, e.g. "visit_url".
	Name string

	// Arguments holds the raw JSON object the model produced.
	Arguments string
}

// Message is a single conversation message. A message is multimodal when it
// carries images alongside its text content.
type Message struct {
	// Role is the author of the message.
	Role MessageRole

	// Content is the text content.
	Content string

	// Images are attached after the text, in order.
	Images []Image

	// ToolCalls are the function calls requested by the model (assistant only).
	ToolCalls []ToolCall

	// Usage reports token consumption for model responses.
	Usage *TokenUsage
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) *Message {
	return &Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a text-only user message.
func NewUserMessage(content string) *Message {
	return &Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates a text-only assistant message.
func NewAssistantMessage(content string) *Message {
	return &Message{Role: RoleAssistant, Content: content}
}

// NewMultimodalMessage creates a message with text followed by a single PNG image.
func NewMultimodalMessage(role MessageRole, content string, png []byte) *Message {
	return &Message{
		Role:    role,
		Content: content,
		Images:  []Image{{Data: png}},
	}
}

// IsMultimodal reports whether the message carries images.
func (m *Message) IsMultimodal() bool {
	return len(m.Images) > 0
}

// HasToolCalls reports whether the model requested any tool calls.
func (m *Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// Text flattens the message to a string, substituting a placeholder for each image.
func (m *Message) Text() string {
	if len(m.Images) == 0 {
		return m.Content
	}
	var b strings.Builder
	b.WriteString(m.Content)
	for range m.Images {
		b.WriteString(imagePlaceholder)
	}
	return b.String()
}

// Flatten returns a text-only copy of the message. Tool calls and usage are dropped.
func (m *Message) Flatten() *Message {
	return &Message{Role: m.Role, Content: m.Text()}
}
