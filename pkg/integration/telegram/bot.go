package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mklimuk/kai/pkg/capture"
	"go.uber.org/zap"
)

const commandPrefix = "/"

// Bot wraps the Telegram bot API and the capture commands
type Bot struct {
	API      *tgbotapi.BotAPI
	Capturer *capture.Capturer
	// AllowedChats limits who may capture; empty allows everyone.
	AllowedChats map[int64]bool
	OnCommand    func(command string)

	logger *zap.Logger
	stopCh chan struct{}
}

// NewBot creates a new Telegram bot
func NewBot(token string, capturer *capture.Capturer, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("error creating Telegram bot: %w", err)
	}
	return newBot(api, capturer, logger), nil
}

func newBot(api *tgbotapi.BotAPI, capturer *capture.Capturer, logger *zap.Logger) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{
		API:      api,
		Capturer: capturer,
		logger:   logger.Named("telegram"),
		stopCh:   make(chan struct{}),
	}
}

// Start begins polling for updates in a goroutine
func (b *Bot) Start() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := b.API.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-b.stopCh:
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				if update.Message != nil {
					b.handleMessage(update.Message)
				}
			}
		}
	}()

	b.logger.Info("telegram bot started", zap.String("user", b.API.Self.UserName))
	return nil
}

// Stop stops polling for updates
func (b *Bot) Stop() {
	close(b.stopCh)
	b.API.StopReceivingUpdates()
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	reply, ok := b.respond(msg.Chat.ID, msg.Text)
	if !ok {
		return
	}
	if _, err := b.API.Send(tgbotapi.NewMessage(msg.Chat.ID, reply)); err != nil {
		b.logger.Warn("failed to send Telegram reply", zap.Int64("chat_id", msg.Chat.ID), zap.Error(err))
	}
}

// respond returns the reply to a message, or ok=false when the bot should
// stay silent.
func (b *Bot) respond(chatID int64, text string) (reply string, ok bool) {
	cmd, ok := capture.ParseCommand(text, commandPrefix)
	if !ok {
		return "", false
	}
	if len(b.AllowedChats) > 0 && !b.AllowedChats[chatID] {
		b.logger.Info("ignoring command from unknown chat", zap.Int64("chat_id", chatID))
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
