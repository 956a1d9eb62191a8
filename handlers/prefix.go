package handlers

import (
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"support-bot/lang"
)

// Plain-text prefix commands. These are process glue, not ticket logic:
// !ping, !clear, !reload, and !panel for posting the button panel.

func (h *Handler) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}
	cmd, args, ok := parseCommand(m.Content, h.cfg.Discord.Prefix)
	if !ok {
		return
	}

	switch cmd {
	case "ping":
		h.send(s, m.ChannelID, lang.T("pong"))
	case "clear":
		h.handleClear(s, m, args)
	case "reload":
		if !h.isAdmin(s, m.GuildID, m.Member) {
			h.send(s, m.ChannelID, lang.T("no_permission"))
			return
		}
		if err := lang.Reload(h.cfg.MessagesFile); err != nil {
			h.log.Error("message reload failed", zap.Error(err))
			h.send(s, m.ChannelID, lang.T("generic_error"))
			return
		}
		h.send(s, m.ChannelID, lang.T("reloaded"))
	case "panel":
		if !h.isAdmin(s, m.GuildID, m.Member) {
			h.send(s, m.ChannelID, lang.T("no_permission"))
			return
		}
		if err := h.PostPanel(s, m.ChannelID); err != nil {
			h.log.Error("panel post failed", zap.Error(err))
			h.send(s, m.ChannelID, lang.T("generic_error"))
			return
		}
	}
}

func (h *Handler) handleClear(s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	if !h.isAdmin(s, m.GuildID, m.Member) {
		h.send(s, m.ChannelID, lang.T("no_permission"))
		return
	}

	count := 10
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil {
			count = n
		}
	}
	if count < 1 {
		count = 1
	}
	if count > 100 {
		count = 100
	}

	msgs, err := s.ChannelMessages(m.ChannelID, count, m.ID, "", "")
	if err != nil {
		h.log.Error("failed to fetch messages for clear", zap.Error(err))
		h.send(s, m.ChannelID, lang.T("generic_error"))
		return
	}

	ids := make([]string, 0, len(msgs)+1)
	ids = append(ids, m.ID)
	for _, msg := range msgs {
		ids = append(ids, msg.ID)
	}
	if len(ids) == 1 {
		_ = s.ChannelMessageDelete(m.ChannelID, ids[0])
	} else if err := s.ChannelMessagesBulkDelete(m.ChannelID, ids); err != nil {
		h.log.Error("bulk delete failed", zap.Error(err))
		h.send(s, m.ChannelID, lang.T("generic_error"))
		return
	}
	h.send(s, m.ChannelID, lang.T("cleared", "count", strconv.Itoa(len(ids)-1)))
}

func (h *Handler) send(s *discordgo.Session, channelID, content string) {
	if _, err := s.ChannelMessageSend(channelID, content); err != nil {
		h.log.Warn("failed to send message", zap.String("channel", channelID), zap.Error(err))
	}
}

// parseCommand splits a prefixed message into its command word and
// arguments. ok is false for ordinary chatter.
func parseCommand(content, prefix string) (string, []string, bool) {
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return "", nil, false
	}
	fields := strings.Fields(strings.TrimPrefix(content, prefix))
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}
