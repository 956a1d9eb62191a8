package tickets

import (
	"regexp"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// The identity resolver decides whether a user already owns a ticket channel
// without any stored state: ticket identity is inferred from channel naming
// conventions, topic metadata, and per-user permission overwrites. It is a
// best-effort heuristic and only the fallback path; the in-memory registry
// is consulted first and covers every channel created by this process.

const ticketPrefix = "ticket-"

// ticketKeywords mark a channel name as ticket-like for the overwrite-based
// match in FindAnyTicket.
var ticketKeywords = []string{"ticket", "support", "report", "unban"}

var topicIDPattern = regexp.MustCompile(`\d{17,20}`)

// NormalizeName converts a display name into the slug used in ticket channel
// names: lower-case, spaces replaced with hyphens.
func NormalizeName(display string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(display)), " ", "-")
}

// MemberDisplayName picks the name shown for a member: nickname, then global
// name, then username.
func MemberDisplayName(m *discordgo.Member) string {
	if m == nil {
		return ""
	}
	if m.Nick != "" {
		return m.Nick
	}
	if m.User != nil {
		if m.User.GlobalName != "" {
			return m.User.GlobalName
		}
		return m.User.Username
	}
	return ""
}

// FindAnyTicket scans the guild channel list for a ticket channel belonging
// to the user, in listing order. A `ticket-`-prefixed channel matches if its
// name contains the normalized display name or the user ID, or if it grants
// the user an explicit read+write overwrite and its name carries a ticket
// keyword. Returns nil when the user owns no ticket.
func FindAnyTicket(channels []*discordgo.Channel, userID, display string) *discordgo.Channel {
	norm := NormalizeName(display)
	for _, ch := range channels {
		if !strings.HasPrefix(ch.Name, ticketPrefix) {
			continue
		}
		if norm != "" && strings.Contains(ch.Name, norm) {
			return ch
		}
		if userID != "" && strings.Contains(ch.Name, userID) {
			return ch
		}
		if memberCanReadWrite(ch, userID) && nameHasKeyword(ch.Name) {
			return ch
		}
	}
	return nil
}

// FindTicketOfType is FindAnyTicket restricted to one category: the name
// must contain `ticket-<slug>`. A looser fallback accepts any ticket channel
// whose name carries both the username and the slug's first token.
func FindTicketOfType(channels []*discordgo.Channel, userID, display string, cat Category) *discordgo.Channel {
	norm := NormalizeName(display)
	fragment := ticketPrefix + cat.Slug
	for _, ch := range channels {
		if !strings.Contains(ch.Name, fragment) {
			continue
		}
		if (norm != "" && strings.Contains(ch.Name, norm)) || (userID != "" && strings.Contains(ch.Name, userID)) {
			return ch
		}
	}
	token := cat.firstSlugToken()
	for _, ch := range channels {
		if !strings.HasPrefix(ch.Name, ticketPrefix) {
			continue
		}
		if norm != "" && strings.Contains(ch.Name, norm) && strings.Contains(ch.Name, token) {
			return ch
		}
	}
	return nil
}

// Owns reports whether this specific channel looks like the user's ticket:
// topic carries the user ID, name carries the username, or an overwrite
// grants the user read+write.
func Owns(ch *discordgo.Channel, userID, display string) bool {
	if ch == nil {
		return false
	}
	if userID != "" && strings.Contains(ch.Topic, userID) {
		return true
	}
	if norm := NormalizeName(display); norm != "" && strings.Contains(ch.Name, norm) {
		return true
	}
	return memberCanReadWrite(ch, userID)
}

// DetectCreator recovers the ticket creator's user ID from a channel: the
// numeric ID embedded in the topic, else the first member overwrite that
// grants read+write. IDs in ignore (the bot's own identity) are skipped.
// Empty string when neither is present.
func DetectCreator(ch *discordgo.Channel, ignore ...string) string {
	if ch == nil {
		return ""
	}
	if id := topicIDPattern.FindString(ch.Topic); id != "" {
		return id
	}
	for _, ow := range ch.PermissionOverwrites {
		if ow.Type != discordgo.PermissionOverwriteTypeMember {
			continue
		}
		if ignored(ow.ID, ignore) {
			continue
		}
		if ow.Allow&discordgo.PermissionViewChannel != 0 && ow.Allow&discordgo.PermissionSendMessages != 0 {
			return ow.ID
		}
	}
	return ""
}

func ignored(id string, ignore []string) bool {
	for _, v := range ignore {
		if v == id {
			return true
		}
	}
	return false
}

func memberCanReadWrite(ch *discordgo.Channel, userID string) bool {
	if userID == "" {
		return false
	}
	for _, ow := range ch.PermissionOverwrites {
		if ow.Type == discordgo.PermissionOverwriteTypeMember && ow.ID == userID {
			return ow.Allow&discordgo.PermissionViewChannel != 0 &&
				ow.Allow&discordgo.PermissionSendMessages != 0
		}
	}
	return false
}

func nameHasKeyword(name string) bool {
	for _, kw := range ticketKeywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}
