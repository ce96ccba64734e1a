// Package discord adapts the roster to Discord: it pushes projections as
// channel messages and turns component interactions into dispatcher calls.
package discord

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/louisbranch/raidroster/internal/services/roster/channel"
)

// MessageSession is the REST surface the channel needs.
type MessageSession interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Channel implements channel.Channel over Discord messages.
type Channel struct {
	session MessageSession
}

// NewChannel wraps session.
func NewChannel(session MessageSession) *Channel {
	return &Channel{session: session}
}

// Create implements channel.Channel.
func (c *Channel) Create(ctx context.Context, channelRef string, msg channel.Message) (string, error) {
	sent, err := c.session.ChannelMessageSendComplex(channelRef, &discordgo.MessageSend{
		Content:    msg.Content,
		Embeds:     []*discordgo.MessageEmbed{embed(msg)},
		Components: components(msg.Buttons),
	}, requestOptions(ctx)...)
	if err != nil {
		return "", fmt.Errorf("send message to %s: %w", channelRef, mapError(err))
	}
	return sent.ID, nil
}

// Edit implements channel.Channel.
func (c *Channel) Edit(ctx context.Context, channelRef, messageRef string, msg channel.Message) error {
	edit := discordgo.NewMessageEdit(channelRef, messageRef)
	embeds := []*discordgo.MessageEmbed{embed(msg)}
	comps := components(msg.Buttons)
	edit.Content = &msg.Content
	edit.Embeds = &embeds
	edit.Components = &comps
	if _, err := c.session.ChannelMessageEditComplex(edit, requestOptions(ctx)...); err != nil {
		return fmt.Errorf("edit message %s: %w", messageRef, mapError(err))
	}
	return nil
}

// requestOptions bind the call to ctx and disable discordgo's own retries;
// callers decide whether to try again.
func requestOptions(ctx context.Context) []discordgo.RequestOption {
	return []discordgo.RequestOption{
		discordgo.WithContext(ctx),
		discordgo.WithRestRetries(0),
		discordgo.WithRetryOnRatelimit(false),
	}
}

func mapError(err error) error {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil && restErr.Message.Code == discordgo.ErrCodeUnknownMessage {
		return fmt.Errorf("%w: %v", channel.ErrMessageNotFound, err)
	}
	return err
}

func embed(msg channel.Message) *discordgo.MessageEmbed {
	out := &discordgo.MessageEmbed{
		Title:       msg.Title,
		Description: msg.Description,
		Color:       msg.Color,
	}
	for _, field := range msg.Fields {
		out.Fields = append(out.Fields, &discordgo.MessageEmbedField{
			Name:   field.Name,
			Value:  field.Value,
			Inline: field.Inline,
		})
	}
	return out
}

func components(buttons []channel.Button) []discordgo.MessageComponent {
	if len(buttons) == 0 {
		return []discordgo.MessageComponent{}
	}
	row := discordgo.ActionsRow{}
	for _, button := range buttons {
		style := discordgo.PrimaryButton
		if button.Style == channel.ButtonSecondary {
			style = discordgo.SecondaryButton
		}
		row.Components = append(row.Components, discordgo.Button{
			Label:    button.Label,
			Style:    style,
			CustomID: button.CustomID,
		})
	}
	return []discordgo.MessageComponent{row}
}
