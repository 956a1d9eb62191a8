package handlers

import (
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"support-bot/config"
	"support-bot/lang"
	"support-bot/tickets"
)

// Handler wires inbound Discord events to the ticket lifecycle manager. All
// dependencies are injected; there is no package-level state.
type Handler struct {
	cfg        *config.Config
	manager    *tickets.Manager
	categories []tickets.Category
	log        *zap.Logger
}

func New(cfg *config.Config, manager *tickets.Manager, categories []tickets.Category, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{cfg: cfg, manager: manager, categories: categories, log: log}
}

func (h *Handler) Register(s *discordgo.Session) {
	s.AddHandler(h.onInteraction)
	s.AddHandler(h.onMessage)
}

func (h *Handler) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID == "" || i.Type != discordgo.InteractionMessageComponent {
		return
	}
	// Per-interaction error boundary: a panicking handler must never take
	// down the event loop, and the user still gets a private error.
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("interaction handler panicked",
				zap.String("custom_id", i.MessageComponentData().CustomID),
				zap.Any("panic", r))
			h.respond(s, i, lang.T("generic_error"), true)
		}
	}()

	customID := i.MessageComponentData().CustomID
	if cat, ok := tickets.CategoryByButton(h.categories, customID); ok {
		h.handleOpenButton(s, i, cat)
		return
	}
	switch customID {
	case tickets.ButtonClose:
		h.handleCloseButton(s, i)
	case tickets.ButtonDelete:
		h.handleDeleteButton(s, i)
	default:
		h.log.Debug("unknown component", zap.String("custom_id", customID))
	}
}

// respond answers the interaction exactly once: the initial response if none
// has been sent yet, otherwise an ephemeral followup.
func (h *Handler) respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string, ephemeral bool) {
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   flags,
		},
	})
	if err == nil {
		return
	}
	if _, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   flags,
	}); err != nil {
		h.log.Warn("failed to respond to interaction", zap.Error(err))
	}
}

// deferEphemeral acknowledges the interaction so slow platform calls do not
// outlive the response window; the result arrives via respond's followup.
func (h *Handler) deferEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		h.log.Warn("failed to defer interaction", zap.Error(err))
	}
}

func hasConfigRole(s *discordgo.Session, guildID string, member *discordgo.Member, allowedNames []string) bool {
	if member == nil || len(allowedNames) == 0 {
		return false
	}

	roles, err := s.GuildRoles(guildID)
	if err != nil {
		return false
	}

	nameSet := make(map[string]bool, len(allowedNames))
	for _, n := range allowedNames {
		nameSet[strings.ToLower(n)] = true
	}

	for _, role := range roles {
		if nameSet[strings.ToLower(role.Name)] {
			for _, memberRoleID := range member.Roles {
				if memberRoleID == role.ID {
					return true
				}
			}
		}
	}
	return false
}

func (h *Handler) isAdmin(s *discordgo.Session, guildID string, member *discordgo.Member) bool {
	if member == nil {
		return false
	}
	if member.Permissions&discordgo.PermissionAdministrator != 0 {
		return true
	}
	return hasConfigRole(s, guildID, member, h.cfg.Permissions.AdminRoles)
}
