package types

import "strings"

// InputType defines the type of input being sent to the agent.
type InputType string

const (
	InputTypeCancel    InputType = "cancel"     // aborts the turn in progress
	InputTypeUserInput InputType = "user_input" // a request typed by the user
	InputTypeReset     InputType = "reset"      // clears the conversation and reloads the start page
)

// Input is one message on the agent's input channel.
type Input struct {
	// Content is the user's request. Empty for cancel and reset.
	Content string

	Type InputType
}

// NewCancelInput creates a new cancellation input.
func NewCancelInput() *Input {
	return &Input{Type: InputTypeCancel}
}

// NewUserInput creates a new user text input.
func NewUserInput(content string) *Input {
	return &Input{Type: InputTypeUserInput, Content: content}
}

// NewResetInput creates a new reset input.
func NewResetInput() *Input {
	return &Input{Type: InputTypeReset}
}

// IsCancel returns true if this is a cancellation input.
func (i *Input) IsCancel() bool {
	return i.Type == InputTypeCancel
}

// IsUserInput returns true if this is a user text input.
func (i *Input) IsUserInput() bool {
	return i.Type == InputTypeUserInput
}

// IsReset reports whether the input asks for a reset, either explicitly or
// as a typed command such as "/reset".
func (i *Input) IsReset() bool {
	return i.Type == InputTypeReset || (i.Type == InputTypeUserInput && strings.TrimSpace(i.Content) == ResetCommand)
}

// ResetCommand typed as a request resets the conversation.
const ResetCommand = "/reset"
