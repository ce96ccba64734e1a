package discord

import (
	"context"
	"fmt"
	"slices"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/louisbranch/raidroster/internal/platform/timeouts"
	"github.com/louisbranch/raidroster/internal/services/roster/dispatch"
	"github.com/louisbranch/raidroster/internal/services/roster/domain"
	"github.com/louisbranch/raidroster/internal/services/roster/render"
	"github.com/louisbranch/raidroster/internal/services/roster/storage"
)

// ExternalIdentityPrefix namespaces Discord user ids in the user table.
const ExternalIdentityPrefix = "discord:"

// InteractionSession is the interaction REST surface the gateway needs.
type InteractionSession interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Handler runs one interaction.
type Handler interface {
	Handle(ctx context.Context, in dispatch.Interaction) (dispatch.Result, error)
}

// RoleMapping maps guild role ids onto roster roles.
type RoleMapping struct {
	LeadRoleIDs  []string
	AdminRoleIDs []string
}

// Resolve returns the highest roster role granted by memberRoles.
func (m RoleMapping) Resolve(memberRoles []string) storage.UserRole {
	role := storage.UserRoleParticipant
	for _, id := range memberRoles {
		if slices.Contains(m.AdminRoleIDs, id) {
			return storage.UserRoleAdmin
		}
		if slices.Contains(m.LeadRoleIDs, id) {
			role = storage.UserRoleLead
		}
	}
	return role
}

// Gateway answers component interactions from the roster messages.
type Gateway struct {
	session InteractionSession
	handler Handler
	roles   RoleMapping
	loc     render.Localizer
	logger  *zap.Logger
}

// NewGateway builds a gateway. loc localizes error replies.
func NewGateway(session InteractionSession, handler Handler, roles RoleMapping, loc render.Localizer, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		session: session,
		handler: handler,
		roles:   roles,
		loc:     loc,
		logger:  logger,
	}
}

// OnInteractionCreate is registered with discordgo's AddHandler.
func (g *Gateway) OnInteractionCreate(_ *discordgo.Session, event *discordgo.InteractionCreate) {
	if event == nil || event.Interaction == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Interaction)
	defer cancel()
	if err := g.HandleInteraction(ctx, event.Interaction); err != nil {
		g.logger.Warn("discord interaction reply failed", zap.String("interaction_id", event.ID), zap.Error(err))
	}
}

// HandleInteraction acknowledges a roster component interaction with a
// deferred ephemeral reply, runs it, and posts the outcome as a follow-up.
// Interactions for other components are ignored.
func (g *Gateway) HandleInteraction(ctx context.Context, interaction *discordgo.Interaction) error {
	if interaction.Type != discordgo.InteractionMessageComponent {
		return nil
	}
	data := interaction.MessageComponentData()
	in, ok := dispatch.FromCustomID(data.CustomID, data.Values)
	if !ok {
		return nil
	}
	identity, ok := g.identity(interaction)
	if !ok {
		return fmt.Errorf("interaction %s carries no user", interaction.ID)
	}
	in.Identity = identity

	err := g.session.InteractionRespond(interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("defer interaction: %w", err)
	}

	result, err := g.handler.Handle(ctx, in)
	params := &discordgo.WebhookParams{Flags: discordgo.MessageFlagsEphemeral, Components: []discordgo.MessageComponent{}}
	params.Content = dispatch.Reply(g.loc, result, err)
	if err == nil && len(result.Options) > 0 {
		params.Components = []discordgo.MessageComponent{selectRow(result)}
	}
	if _, err := g.session.FollowupMessageCreate(interaction, true, params, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("follow up interaction: %w", err)
	}
	return nil
}

func (g *Gateway) identity(interaction *discordgo.Interaction) (domain.Identity, bool) {
	var (
		user  *discordgo.User
		nick  string
		roles []string
	)
	if member := interaction.Member; member != nil {
		user = member.User
		nick = member.Nick
		roles = member.Roles
	}
	if user == nil {
		user = interaction.User
	}
	if user == nil || user.ID == "" {
		return domain.Identity{}, false
	}
	name := nick
	if name == "" {
		name = user.GlobalName
	}
	if name == "" {
		name = user.Username
	}
	return domain.Identity{
		ExternalIdentity: ExternalIdentityPrefix + user.ID,
		DisplayName:      name,
		Role:             g.roles.Resolve(roles),
	}, true
}

func selectRow(result dispatch.Result) discordgo.ActionsRow {
	options := make([]discordgo.SelectMenuOption, 0, len(result.Options))
	for _, option := range result.Options {
		options = append(options, discordgo.SelectMenuOption{
			Label:       option.Label,
			Value:       option.Value,
			Description: option.Description,
		})
	}
	return discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.SelectMenu{
			CustomID:    result.SelectID,
			Placeholder: result.Placeholder,
			MaxValues:   1,
			Options:     options,
		},
	}}
}

// NewSession builds a bot session that only subscribes to guild events,
// which carry interactions.
func NewSession(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds
	return session, nil
}
