// Package channeltest provides an in-memory notification channel for tests.
package channeltest

import (
	"context"
	"fmt"
	"sync"

	"github.com/louisbranch/raidroster/internal/services/roster/channel"
)

// Posted is one message held by the fake.
type Posted struct {
	ChannelRef string
	Ref        string
	Message    channel.Message
	Edits      int
}

// Channel records creates and edits in memory. Set CreateErr or EditErr to
// make the next calls fail.
type Channel struct {
	mu        sync.Mutex
	next      int
	messages  map[string]*Posted
	CreateErr error
	EditErr   error
	Creates   int
	EditCalls int
}

// New returns an empty fake channel.
func New() *Channel {
	return &Channel{messages: make(map[string]*Posted)}
}

// Create implements channel.Channel.
func (c *Channel) Create(_ context.Context, channelRef string, msg channel.Message) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Creates++
	if c.CreateErr != nil {
		return "", c.CreateErr
	}
	c.next++
	ref := fmt.Sprintf("msg-%d", c.next)
	c.messages[ref] = &Posted{ChannelRef: channelRef, Ref: ref, Message: msg}
	return ref, nil
}

// Edit implements channel.Channel.
func (c *Channel) Edit(_ context.Context, channelRef, messageRef string, msg channel.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.EditCalls++
	if c.EditErr != nil {
		return c.EditErr
	}
	posted, ok := c.messages[messageRef]
	if !ok || posted.ChannelRef != channelRef {
		return fmt.Errorf("edit %s: %w", messageRef, channel.ErrMessageNotFound)
	}
	posted.Message = msg
	posted.Edits++
	return nil
}

// Delete removes a message as if someone deleted it by hand.
func (c *Channel) Delete(ref string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.messages, ref)
}

// Get returns a copy of the message stored under ref.
func (c *Channel) Get(ref string) (Posted, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	posted, ok := c.messages[ref]
	if !ok {
		return Posted{}, false
	}
	return *posted, true
}

// Len reports how many messages exist.
func (c *Channel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}
