// Package channel defines the external notification channel that roster
// projections are pushed to.
package channel

import (
	"context"
	"errors"
)

// ErrMessageNotFound reports that a referenced external message no longer
// exists, for example because someone deleted it by hand.
var ErrMessageNotFound = errors.New("channel message not found")

// Field is one titled block of a message.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// ButtonStyle selects how a button is emphasised.
type ButtonStyle int

const (
	ButtonPrimary ButtonStyle = iota
	ButtonSecondary
)

// Button is an interactive control that produces an inbound interaction
// carrying CustomID.
type Button struct {
	Label    string
	CustomID string
	Style    ButtonStyle
}

// Message is the channel-neutral content of one external message.
type Message struct {
	Content     string
	Title       string
	Description string
	Color       int
	Fields      []Field
	Buttons     []Button
}

// Channel creates and edits messages in an external channel.
type Channel interface {
	// Create posts msg to channelRef and returns the new message reference.
	Create(ctx context.Context, channelRef string, msg Message) (string, error)
	// Edit replaces the content of messageRef. It returns an error wrapping
	// ErrMessageNotFound when the message is gone.
	Edit(ctx context.Context, channelRef, messageRef string, msg Message) error
}
