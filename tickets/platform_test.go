package tickets

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
)

// fakePlatform is an in-memory stand-in for the Discord API, good enough for
// the lifecycle manager: it tracks channels, overwrites, roles, and sent
// messages, and can inject transient failures per operation.
type fakePlatform struct {
	mu       sync.Mutex
	nextID   int
	channels []*discordgo.Channel
	roles    []*discordgo.Role
	messages map[string][]*discordgo.MessageSend

	listFailures   int
	createFailures int
	sendFailures   int
	deleteFailures int
}

var errTransient = errors.New("transient platform failure")

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		roles: []*discordgo.Role{
			{ID: "r-admin", Name: "Admin"},
			{ID: "r-mod", Name: "Mod"},
			{ID: "r-support", Name: "Support Team"},
			{ID: "r-helper", Name: "Helper Team"},
			{ID: "r-report", Name: "Report Team"},
			{ID: "r-appeal", Name: "Appeal Team"},
		},
		messages: make(map[string][]*discordgo.MessageSend),
	}
}

func (f *fakePlatform) GuildChannels(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listFailures > 0 {
		f.listFailures--
		return nil, errTransient
	}
	out := make([]*discordgo.Channel, len(f.channels))
	copy(out, f.channels)
	return out, nil
}

func (f *fakePlatform) GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createFailures > 0 {
		f.createFailures--
		return nil, errTransient
	}
	f.nextID++
	ch := &discordgo.Channel{
		ID:                   fmt.Sprintf("chan-%d", f.nextID),
		GuildID:              guildID,
		Name:                 data.Name,
		Topic:                data.Topic,
		Type:                 data.Type,
		ParentID:             data.ParentID,
		PermissionOverwrites: data.PermissionOverwrites,
	}
	f.channels = append(f.channels, ch)
	return ch, nil
}

func (f *fakePlatform) GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.roles, nil
}

func (f *fakePlatform) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendFailures > 0 {
		f.sendFailures--
		return nil, errTransient
	}
	f.messages[channelID] = append(f.messages[channelID], data)
	return &discordgo.Message{ID: fmt.Sprintf("msg-%d", len(f.messages[channelID])), ChannelID: channelID}, nil
}

func (f *fakePlatform) ChannelPermissionSet(channelID, targetID string, targetType discordgo.PermissionOverwriteType, allow, deny int64, options ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := f.lookup(channelID)
	if ch == nil {
		return fmt.Errorf("no such channel: %s", channelID)
	}
	for _, ow := range ch.PermissionOverwrites {
		if ow.ID == targetID && ow.Type == targetType {
			ow.Allow = allow
			ow.Deny = deny
			return nil
		}
	}
	ch.PermissionOverwrites = append(ch.PermissionOverwrites, &discordgo.PermissionOverwrite{
		ID: targetID, Type: targetType, Allow: allow, Deny: deny,
	})
	return nil
}

func (f *fakePlatform) ChannelDelete(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteFailures > 0 {
		f.deleteFailures--
		return nil, errTransient
	}
	for idx, ch := range f.channels {
		if ch.ID == channelID {
			f.channels = append(f.channels[:idx], f.channels[idx+1:]...)
			return ch, nil
		}
	}
	return nil, fmt.Errorf("no such channel: %s", channelID)
}

func (f *fakePlatform) lookup(channelID string) *discordgo.Channel {
	for _, ch := range f.channels {
		if ch.ID == channelID {
			return ch
		}
	}
	return nil
}

func (f *fakePlatform) channel(channelID string) *discordgo.Channel {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lookup(channelID)
}

func (f *fakePlatform) hasChannel(channelID string) bool {
	return f.channel(channelID) != nil
}

func (f *fakePlatform) channelCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.channels)
}

func (f *fakePlatform) addChannel(ch *discordgo.Channel) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channels = append(f.channels, ch)
}

func (f *fakePlatform) removeChannel(channelID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for idx, ch := range f.channels {
		if ch.ID == channelID {
			f.channels = append(f.channels[:idx], f.channels[idx+1:]...)
			return
		}
	}
}

func (f *fakePlatform) sentMessages(channelID string) []*discordgo.MessageSend {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*discordgo.MessageSend, len(f.messages[channelID]))
	copy(out, f.messages[channelID])
	return out
}

func (f *fakePlatform) lastMessage(channelID string) *discordgo.MessageSend {
	msgs := f.sentMessages(channelID)
	if len(msgs) == 0 {
		return nil
	}
	return msgs[len(msgs)-1]
}

// Test fixtures shared across the package tests.

func testCategories() []Category {
	cats := DefaultCategories()
	for idx := range cats {
		switch cats[idx].Key {
		case "general":
			cats[idx].Roles = []string{"Support Team", "Helper Team"}
		case "report":
			cats[idx].Roles = []string{"Report Team"}
		case "unban":
			cats[idx].Roles = []string{"Appeal Team"}
		}
	}
	return cats
}

func testCategory(key string) Category {
	for _, c := range testCategories() {
		if c.Key == key {
			return c
		}
	}
	panic("unknown test category: " + key)
}

func testManager(fp *fakePlatform) (*Manager, *Registry) {
	reg := NewRegistry()
	m := NewManager(fp, reg, Config{
		AdminRoles:    []string{"Admin", "Mod"},
		Categories:    testCategories(),
		BotUserID:     "bot-1",
		DeleteDelay:   5 * time.Millisecond,
		RetryAttempts: 3,
		RetryBackoff:  time.Millisecond,
		CallTimeout:   time.Second,
	}, nil)
	return m, reg
}

func member(u *discordgo.User, roleIDs ...string) *discordgo.Member {
	return &discordgo.Member{User: u, Roles: roleIDs}
}

var (
	alice = &discordgo.User{ID: "100000000000000001", Username: "alice"}
	bob   = &discordgo.User{ID: "100000000000000002", Username: "bob"}
	carol = &discordgo.User{ID: "100000000000000003", Username: "carol"}
)

const testGuild = "guild-1"
