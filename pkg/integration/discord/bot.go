package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/mklimuk/kai/pkg/capture"
	"go.uber.org/zap"
)

const commandPrefix = "!"

// Bot wraps the Discord session and the capture commands
type Bot struct {
	Session   *discordgo.Session
	Capturer  *capture.Capturer
	OnCommand func(command string)

	logger *zap.Logger
}

// NewBot creates a new Discord bot
func NewBot(token string, capturer *capture.Capturer, logger *zap.Logger) (*Bot, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	bot := &Bot{
		Session:  dg,
		Capturer: capturer,
		logger:   logger.Named("discord"),
	}
	dg.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentMessageContent
	dg.AddHandler(bot.messageCreate)

	return bot, nil
}

// Start opens the websocket connection
func (b *Bot) Start() error {
	if err := b.Session.Open(); err != nil {
		return fmt.Errorf("error opening Discord session: %w", err)
	}
	b.logger.Info("discord bot started")
	return nil
}

// Stop closes the websocket connection
func (b *Bot) Stop() error {
	return b.Session.Close()
}

func (b *Bot) messageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || (s.State != nil && s.State.User != nil && m.Author.ID == s.State.User.ID) {
		return
	}
	reply, ok := b.respond(m.Content)
	if !ok {
		return
	}
	if _, err := s.ChannelMessageSend(m.ChannelID, reply); err != nil {
		b.logger.Warn("failed to send Discord reply", zap.String("channel_id", m.ChannelID), zap.Error(err))
	}
}

func (b *Bot) respond(text string) (string, bool) {
	cmd, ok := capture.ParseCommand(text, commandPrefix)
	if !ok {
		return "", false
	}
	if b.OnCommand != nil {
		b.OnCommand(cmd.Name)
	}
	reply, err := b.Capturer.Handle(cmd, commandPrefix)
	if err != nil {
		b.logger.Warn("capture failed", zap.String("command", cmd.Name), zap.Error(err))
		return fmt.Sprintf("Error: %v", err), true
	}
	return reply, true
}
