package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"support-bot/lang"
	"support-bot/tickets"
)

func (h *Handler) handleOpenButton(s *discordgo.Session, i *discordgo.InteractionCreate, cat tickets.Category) {
	if i.Member == nil || i.Member.User == nil {
		return
	}
	h.deferEphemeral(s, i)

	ch, err := h.manager.Create(i.GuildID, i.Member.User, tickets.MemberDisplayName(i.Member), cat)
	var dup *tickets.DuplicateTicketError
	switch {
	case errors.As(err, &dup):
		h.respond(s, i, lang.T("ticket_exists", "channel", dup.ChannelID), true)
	case err != nil:
		h.log.Error("ticket creation failed",
			zap.String("user", i.Member.User.ID),
			zap.String("category", cat.Key),
			zap.Error(err))
		h.respond(s, i, lang.T("generic_error"), true)
	default:
		h.respond(s, i, lang.T("ticket_created", "channel", ch.ID), true)
	}
}

func (h *Handler) handleCloseButton(s *discordgo.Session, i *discordgo.InteractionCreate) {
	channel, err := s.Channel(i.ChannelID)
	if err != nil {
		h.log.Error("failed to fetch channel", zap.String("channel", i.ChannelID), zap.Error(err))
		h.respond(s, i, lang.T("generic_error"), true)
		return
	}
	if !h.manager.IsTicketChannel(channel) {
		h.respond(s, i, lang.T("not_ticket_channel"), true)
		return
	}

	h.deferEphemeral(s, i)
	switch err := h.manager.Close(channel, i.Member); {
	case errors.Is(err, tickets.ErrNotAuthorized):
		h.respond(s, i, lang.T("close_denied"), true)
	case err != nil:
		h.log.Error("ticket close failed", zap.String("channel", channel.ID), zap.Error(err))
		h.respond(s, i, lang.T("generic_error"), true)
	default:
		h.respond(s, i, lang.T("ticket_closed"), true)
	}
}

func (h *Handler) handleDeleteButton(s *discordgo.Session, i *discordgo.InteractionCreate) {
	channel, err := s.Channel(i.ChannelID)
	if err != nil {
		h.log.Error("failed to fetch channel", zap.String("channel", i.ChannelID), zap.Error(err))
		h.respond(s, i, lang.T("generic_error"), true)
		return
	}
	if !h.manager.IsTicketChannel(channel) {
		h.respond(s, i, lang.T("not_ticket_channel"), true)
		return
	}

	h.deferEphemeral(s, i)
	switch err := h.manager.Delete(channel, i.Member); {
	case errors.Is(err, tickets.ErrNotAuthorized):
		h.respond(s, i, lang.T("delete_denied"), true)
	case err != nil:
		h.log.Error("ticket delete failed", zap.String("channel", channel.ID), zap.Error(err))
		h.respond(s, i, lang.T("generic_error"), true)
	default:
		h.respond(s, i, lang.T("ticket_deleting"), true)
	}
}

// PostPanel sends the ticket panel with the three category buttons into the
// given channel.
func (h *Handler) PostPanel(s *discordgo.Session, channelID string) error {
	var desc strings.Builder
	desc.WriteString("Need help? Open a ticket by clicking one of the buttons below.\n\n")
	for _, cat := range h.categories {
		desc.WriteString(fmt.Sprintf("%s **%s** — %s\n", cat.Emoji, cat.Label, cat.Description))
	}

	embed := &discordgo.MessageEmbed{
		Title:       "🎫 Support Tickets",
		Description: desc.String(),
		Color:       0x5865F2,
		Footer:      &discordgo.MessageEmbedFooter{Text: "One open ticket per member"},
	}

	styles := []discordgo.ButtonStyle{discordgo.PrimaryButton, discordgo.DangerButton, discordgo.SecondaryButton}
	buttons := make([]discordgo.MessageComponent, 0, len(h.categories))
	for idx, cat := range h.categories {
		style := styles[idx%len(styles)]
		buttons = append(buttons, discordgo.Button{
			Label:    cat.Label,
			Style:    style,
			CustomID: cat.ButtonID,
			Emoji:    &discordgo.ComponentEmoji{Name: cat.Emoji},
		})
	}

	_, err := s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{discordgo.ActionsRow{Components: buttons}},
	})
	return err
}
