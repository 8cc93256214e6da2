package telegram

import (
	"context"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

const (
	accessDeniedText = "Access Denied."
	internalErrText  = "Не удалось выполнить команду, попробуйте позже."

	// Telegram rejects messages longer than this many characters.
	maxMessageLength = 4096
)

// API is the part of the Bot API the bot uses.
type API interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error)
	SendMessage(ctx context.Context, chatID int64, text string, html bool) error
	SendDocument(ctx context.Context, chatID int64, path string) error
}

// Bot answers commands of allowed users through long polling.
type Bot struct {
	api         API
	commands    *Commands
	access      map[int64]bool
	pollTimeout time.Duration
	retryDelay  time.Duration
	logger      *logrus.Logger
}

func NewBot(api API, commands *Commands, accessIDs []int64, pollTimeout time.Duration, logger *logrus.Logger) *Bot {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	access := make(map[int64]bool, len(accessIDs))
	for _, id := range accessIDs {
		access[id] = true
	}

	return &Bot{
		api:         api,
		commands:    commands,
		access:      access,
		pollTimeout: pollTimeout,
		retryDelay:  3 * time.Second,
		logger:      logger,
	}
}

// Run polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	if len(b.access) == 0 {
		b.logger.Warn("No access ids configured, every user will be denied")
	}
	b.logger.WithField("allowed_users", len(b.access)).Info("Telegram bot started")

	var offset int64
	for {
		if ctx.Err() != nil {
			return nil
		}

		updates, err := b.api.GetUpdates(ctx, offset, b.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			b.logger.WithError(err).Error("Failed to get updates")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(b.retryDelay):
			}
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate answers a single update. Non-text updates are ignored.
func (b *Bot) HandleUpdate(ctx context.Context, update Update) {
	msg := update.Message
	if msg == nil || msg.Text == "" {
		return
	}

	var userID int64
	if msg.From != nil {
		userID = msg.From.ID
	}
	log := b.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"chat_id": msg.Chat.ID,
	})

	if msg.From == nil || !b.access[userID] {
		log.Warn("Access denied")
		b.send(ctx, msg.Chat.ID, accessDeniedText, false)
		return
	}

	log.WithField("command", msg.Text).Info("Command received")

	reply, err := b.commands.Handle(ctx, msg.Text)
	if err != nil {
		log.WithError(err).Error("Command failed")
		b.send(ctx, msg.Chat.ID, internalErrText, false)
		return
	}

	if reply.File != "" {
		defer os.Remove(reply.File)
		if err := b.api.SendDocument(ctx, msg.Chat.ID, reply.File); err != nil {
			log.WithError(err).Error("Failed to send document")
		}
		return
	}

	b.send(ctx, msg.Chat.ID, reply.Text, reply.HTML)
}

func (b *Bot) send(ctx context.Context, chatID int64, text string, html bool) {
	for _, chunk := range splitMessage(text, maxMessageLength) {
		if err := b.api.SendMessage(ctx, chatID, chunk, html); err != nil {
			b.logger.WithError(err).WithField("chat_id", chatID).Error("Failed to send message")
			return
		}
	}
}

// splitMessage breaks text into chunks of at most limit characters,
// cutting at line breaks where possible.
func splitMessage(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if currentLen > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			currentLen = 0
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		lineLen := utf8.RuneCountInString(line)
		if currentLen+lineLen > limit {
			flush()
		}
		for lineLen > limit {
			runes := []rune(line)
			chunks = append(chunks, string(runes[:limit]))
			line = string(runes[limit:])
			lineLen -= limit
		}
		current.WriteString(line)
		currentLen += lineLen
	}
	flush()

	return chunks
}
