package tickets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Platform is the slice of the Discord API the lifecycle manager needs.
// *discordgo.Session satisfies it.
type Platform interface {
	GuildChannels(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error)
	GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelPermissionSet(channelID, targetID string, targetType discordgo.PermissionOverwriteType, allow, deny int64, options ...discordgo.RequestOption) error
	ChannelDelete(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
}

const (
	creatorAllow = discordgo.PermissionViewChannel | discordgo.PermissionSendMessages |
		discordgo.PermissionAttachFiles | discordgo.PermissionReadMessageHistory
	staffAllow = discordgo.PermissionViewChannel | discordgo.PermissionSendMessages |
		discordgo.PermissionAttachFiles | discordgo.PermissionReadMessageHistory
	adminAllow = staffAllow | discordgo.PermissionManageChannels
	botAllow   = discordgo.PermissionViewChannel | discordgo.PermissionSendMessages |
		discordgo.PermissionReadMessageHistory
	closedAllow = discordgo.PermissionViewChannel | discordgo.PermissionReadMessageHistory
)

// Config carries everything the manager needs, injected at construction.
type Config struct {
	AdminRoles     []string
	Categories     []Category
	ParentCategory string
	BotUserID      string

	DeleteDelay   time.Duration
	RetryAttempts int
	RetryBackoff  time.Duration
	CallTimeout   time.Duration
}

// Manager orchestrates the ticket channel lifecycle: creation with
// role-based overwrites, authorization-checked close and delete.
type Manager struct {
	platform Platform
	registry *Registry
	cfg      Config
	log      *zap.Logger
}

func NewManager(p Platform, r *Registry, cfg Config, log *zap.Logger) *Manager {
	if cfg.DeleteDelay <= 0 {
		cfg.DeleteDelay = 5 * time.Second
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 500 * time.Millisecond
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 10 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{platform: p, registry: r, cfg: cfg, log: log}
}

// Create opens a ticket channel for the user, enforcing one open ticket per
// user. The registry is consulted first; the heuristic resolver covers
// channels created before this process started. Returns the new channel, or
// *DuplicateTicketError with the existing one.
func (m *Manager) Create(guildID string, user *discordgo.User, display string, cat Category) (*discordgo.Channel, error) {
	lock := m.registry.UserLock(user.ID)
	lock.Lock()
	defer lock.Unlock()

	var channels []*discordgo.Channel
	err := m.retry("list guild channels", func(opts ...discordgo.RequestOption) error {
		var err error
		channels, err = m.platform.GuildChannels(guildID, opts...)
		return err
	})
	if err != nil {
		return nil, err
	}

	if t, ok := m.registry.ByUser(user.ID); ok {
		if channelExists(channels, t.ChannelID) {
			return nil, &DuplicateTicketError{ChannelID: t.ChannelID}
		}
		// Channel was removed behind our back; forget the stale record.
		m.registry.Release(t.ChannelID)
	}

	if existing := FindAnyTicket(channels, user.ID, display); existing != nil {
		return nil, &DuplicateTicketError{ChannelID: existing.ID}
	}

	roles, err := m.guildRoles(guildID)
	if err != nil {
		return nil, err
	}
	adminIDs := m.roleIDs(roles, m.cfg.AdminRoles)
	staffIDs := m.roleIDs(roles, cat.Roles)

	overwrites := []*discordgo.PermissionOverwrite{
		{ID: guildID, Type: discordgo.PermissionOverwriteTypeRole, Deny: discordgo.PermissionViewChannel},
		{ID: user.ID, Type: discordgo.PermissionOverwriteTypeMember, Allow: creatorAllow},
	}
	if m.cfg.BotUserID != "" {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID: m.cfg.BotUserID, Type: discordgo.PermissionOverwriteTypeMember, Allow: botAllow,
		})
	}
	for _, id := range adminIDs {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID: id, Type: discordgo.PermissionOverwriteTypeRole, Allow: adminAllow,
		})
	}
	for _, id := range staffIDs {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID: id, Type: discordgo.PermissionOverwriteTypeRole, Allow: staffAllow,
		})
	}

	data := discordgo.GuildChannelCreateData{
		Name:                 ticketPrefix + cat.Slug + "-" + NormalizeName(display),
		Type:                 discordgo.ChannelTypeGuildText,
		Topic:                fmt.Sprintf("Ticket for %s (%s) | category: %s", display, user.ID, cat.Slug),
		ParentID:             m.cfg.ParentCategory,
		PermissionOverwrites: overwrites,
	}

	var ch *discordgo.Channel
	err = m.retry("create ticket channel", func(opts ...discordgo.RequestOption) error {
		var err error
		ch, err = m.platform.GuildChannelCreateComplex(guildID, data, opts...)
		return err
	})
	if err != nil {
		return nil, err
	}

	m.registry.Bind(Ticket{
		ChannelID: ch.ID,
		GuildID:   guildID,
		UserID:    user.ID,
		Category:  cat.Key,
		CreatedAt: time.Now(),
	})

	if err := m.postNotification(ch.ID, user.ID, cat, adminIDs, staffIDs); err != nil {
		// The channel exists and is tracked; a lost notification is not fatal.
		m.log.Warn("ticket notification failed",
			zap.String("channel", ch.ID), zap.Error(err))
	}

	m.log.Info("ticket created",
		zap.String("channel", ch.ID),
		zap.String("user", user.ID),
		zap.String("category", cat.Key))
	return ch, nil
}

// Close posts a closure notice and narrows the creator's overwrite to
// read-only. Allowed for admin roles, any category's staff role, and the
// detected creator. Closing an already-closed ticket is a no-op re-apply.
func (m *Manager) Close(channel *discordgo.Channel, actor *discordgo.Member) error {
	roles, err := m.guildRoles(channel.GuildID)
	if err != nil {
		return err
	}
	creatorID := m.creatorOf(channel)
	names := memberRoleNames(actor, roles)

	allowed := hasAnyRole(names, m.cfg.AdminRoles) ||
		hasAnyRole(names, m.allCategoryRoles()) ||
		m.actorIsCreator(channel, actor, creatorID)
	if !allowed {
		return ErrNotAuthorized
	}

	err = m.retry("post closure notice", func(opts ...discordgo.RequestOption) error {
		_, err := m.platform.ChannelMessageSendComplex(channel.ID, &discordgo.MessageSend{
			Content: fmt.Sprintf("🔒 Ticket closed by <@%s>. The creator can still read this channel.", actor.User.ID),
		}, opts...)
		return err
	})
	if err != nil {
		return err
	}

	if creatorID != "" {
		err = m.retry("narrow creator permissions", func(opts ...discordgo.RequestOption) error {
			return m.platform.ChannelPermissionSet(channel.ID, creatorID,
				discordgo.PermissionOverwriteTypeMember, closedAllow, discordgo.PermissionSendMessages, opts...)
		})
		if err != nil {
			return err
		}
	} else {
		m.log.Warn("no ticket creator detected on close", zap.String("channel", channel.ID))
	}

	m.registry.MarkClosed(channel.ID)
	m.log.Info("ticket closed", zap.String("channel", channel.ID), zap.String("actor", actor.User.ID))
	return nil
}

// Delete posts a countdown notice and removes the channel after a fixed,
// non-cancellable delay. Admin roles are always allowed; the detected
// creator is always denied, even when they also hold a staff role; any other
// category staff role is allowed. The countdown and removal run in the
// background so the caller can acknowledge the interaction.
func (m *Manager) Delete(channel *discordgo.Channel, actor *discordgo.Member) error {
	roles, err := m.guildRoles(channel.GuildID)
	if err != nil {
		return err
	}
	creatorID := m.creatorOf(channel)
	names := memberRoleNames(actor, roles)

	switch {
	case hasAnyRole(names, m.cfg.AdminRoles):
		// Admins may delete anything, their own ticket included.
	case m.actorIsCreator(channel, actor, creatorID):
		return ErrNotAuthorized
	case hasAnyRole(names, m.allCategoryRoles()):
	default:
		return ErrNotAuthorized
	}

	seconds := int(m.cfg.DeleteDelay.Round(time.Second) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	err = m.retry("post deletion notice", func(opts ...discordgo.RequestOption) error {
		_, err := m.platform.ChannelMessageSendComplex(channel.ID, &discordgo.MessageSend{
			Content: fmt.Sprintf("🗑️ This ticket will be deleted in %d seconds.", seconds),
		}, opts...)
		return err
	})
	if err != nil {
		return err
	}

	go func() {
		time.Sleep(m.cfg.DeleteDelay)
		err := m.retry("delete ticket channel", func(opts ...discordgo.RequestOption) error {
			_, err := m.platform.ChannelDelete(channel.ID, opts...)
			return err
		})
		if err != nil {
			m.log.Error("ticket deletion failed", zap.String("channel", channel.ID), zap.Error(err))
			return
		}
		m.registry.Release(channel.ID)
		m.log.Info("ticket deleted", zap.String("channel", channel.ID), zap.String("actor", actor.User.ID))
	}()
	return nil
}

// IsTicketChannel reports whether the channel is recognized as a ticket,
// either by the registry or by naming convention.
func (m *Manager) IsTicketChannel(channel *discordgo.Channel) bool {
	if channel == nil {
		return false
	}
	if _, ok := m.registry.ByChannel(channel.ID); ok {
		return true
	}
	return strings.HasPrefix(channel.Name, ticketPrefix)
}

func (m *Manager) postNotification(channelID, userID string, cat Category, adminIDs, staffIDs []string) error {
	var mentions strings.Builder
	mentions.WriteString(fmt.Sprintf("<@%s>", userID))
	for _, id := range adminIDs {
		mentions.WriteString(fmt.Sprintf(" <@&%s>", id))
	}
	for _, id := range staffIDs {
		mentions.WriteString(fmt.Sprintf(" <@&%s>", id))
	}

	embed := &discordgo.MessageEmbed{
		Title:       cat.Title,
		Description: fmt.Sprintf("Welcome <@%s>!\n\n%s", userID, cat.Description),
		Color:       cat.Color,
		Timestamp:   time.Now().Format(time.RFC3339),
	}

	return m.retry("post ticket notification", func(opts ...discordgo.RequestOption) error {
		_, err := m.platform.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
			Content: mentions.String(),
			Embeds:  []*discordgo.MessageEmbed{embed},
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.Button{
							Label: "Close Ticket", Style: discordgo.DangerButton,
							CustomID: ButtonClose,
							Emoji:    &discordgo.ComponentEmoji{Name: "🔒"},
						},
						discordgo.Button{
							Label: "Delete Ticket", Style: discordgo.SecondaryButton,
							CustomID: ButtonDelete,
							Emoji:    &discordgo.ComponentEmoji{Name: "🗑️"},
						},
					},
				},
			},
		}, opts...)
		return err
	})
}

// creatorOf prefers the registry record and falls back to the name/topic/
// overwrite heuristic for channels created by a prior process generation.
func (m *Manager) creatorOf(channel *discordgo.Channel) string {
	if t, ok := m.registry.ByChannel(channel.ID); ok {
		return t.UserID
	}
	return DetectCreator(channel, m.cfg.BotUserID)
}

func (m *Manager) actorIsCreator(channel *discordgo.Channel, actor *discordgo.Member, creatorID string) bool {
	if creatorID != "" && actor.User.ID == creatorID {
		return true
	}
	return Owns(channel, actor.User.ID, MemberDisplayName(actor))
}

func (m *Manager) allCategoryRoles() []string {
	var out []string
	for _, c := range m.cfg.Categories {
		out = append(out, c.Roles...)
	}
	return out
}

func (m *Manager) guildRoles(guildID string) ([]*discordgo.Role, error) {
	var roles []*discordgo.Role
	err := m.retry("list guild roles", func(opts ...discordgo.RequestOption) error {
		var err error
		roles, err = m.platform.GuildRoles(guildID, opts...)
		return err
	})
	return roles, err
}

// roleIDs resolves configured role names to guild role IDs,
// case-insensitively. Unknown names are logged and skipped.
func (m *Manager) roleIDs(roles []*discordgo.Role, names []string) []string {
	ids := make([]string, 0, len(names))
	for _, name := range names {
		found := false
		for _, r := range roles {
			if strings.EqualFold(r.Name, name) {
				ids = append(ids, r.ID)
				found = true
				break
			}
		}
		if !found {
			m.log.Warn("configured role not found in guild", zap.String("role", name))
		}
	}
	return ids
}

// retry runs a platform call with bounded retries, doubling backoff, and a
// per-attempt timeout. Exhaustion is surfaced as *PlatformError.
func (m *Manager) retry(op string, fn func(opts ...discordgo.RequestOption) error) error {
	var err error
	backoff := m.cfg.RetryBackoff
	for attempt := 1; attempt <= m.cfg.RetryAttempts; attempt++ {
		if attempt > 1 {
			time.Sleep(backoff)
			backoff *= 2
		}
		ctx, cancel := context.WithTimeout(context.Background(), m.cfg.CallTimeout)
		err = fn(discordgo.WithContext(ctx))
		cancel()
		if err == nil {
			return nil
		}
		m.log.Warn("platform call failed",
			zap.String("op", op), zap.Int("attempt", attempt), zap.Error(err))
	}
	return &PlatformError{Op: op, Err: err}
}

func channelExists(channels []*discordgo.Channel, id string) bool {
	for _, ch := range channels {
		if ch.ID == id {
			return true
		}
	}
	return false
}

func memberRoleNames(member *discordgo.Member, roles []*discordgo.Role) []string {
	if member == nil {
		return nil
	}
	byID := make(map[string]string, len(roles))
	for _, r := range roles {
		byID[r.ID] = r.Name
	}
	names := make([]string, 0, len(member.Roles))
	for _, id := range member.Roles {
		if name, ok := byID[id]; ok {
			names = append(names, name)
		}
	}
	return names
}

func hasAnyRole(memberRoles, wanted []string) bool {
	for _, have := range memberRoles {
		for _, want := range wanted {
			if strings.EqualFold(have, want) {
				return true
			}
		}
	}
	return false
}
