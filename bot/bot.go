package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"support-bot/config"
)

type Bot struct {
	Session *discordgo.Session
	Config  *config.Config
	log     *zap.Logger
	ready   chan struct{}
}

func New(cfg *config.Config, log *zap.Logger) (*Bot, error) {
	s, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, err
	}
	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentMessageContent
	return &Bot{
		Session: s,
		Config:  cfg,
		log:     log,
		ready:   make(chan struct{}),
	}, nil
}

func (b *Bot) Start() error {
	b.Session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		b.log.Info("bot logged in",
			zap.String("user", fmt.Sprintf("%s#%s", r.User.Username, r.User.Discriminator)))
		if err := s.UpdateGameStatus(0, b.Config.Discord.Presence); err != nil {
			b.log.Warn("failed to set presence", zap.Error(err))
		}
		select {
		case <-b.ready:
		default:
			close(b.ready)
		}
	})
	return b.Session.Open()
}

// WaitReady blocks until the gateway reports Ready. Handler wiring that
// needs the bot's own user ID waits on this.
func (b *Bot) WaitReady() {
	<-b.ready
}

func (b *Bot) Stop() {
	_ = b.Session.Close()
}
