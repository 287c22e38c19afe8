// Package telegram adapts the Telegram Bot API long-poll stream into
// pipeline messages. The listener is a pure source: it never replies, it
// only forwards group traffic to the ingestion pipeline.
package telegram

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/slotwatch/go-alert-backend/internal/config"
	"github.com/slotwatch/go-alert-backend/internal/ingest"
)

// Listener polls Telegram for updates and enqueues every text-bearing
// message on the pipeline.
type Listener struct {
	bot      *tgbotapi.BotAPI
	pipeline *ingest.Pipeline
	log      zerolog.Logger
	timeout  int
}

// NewListener authenticates against the Bot API. Returns an error when the
// token is rejected; callers should treat that as fatal at startup.
func NewListener(cfg config.TelegramConfig, p *ingest.Pipeline, log zerolog.Logger) (*Listener, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	return &Listener{
		bot:      bot,
		pipeline: p,
		log:      log.With().Str("component", "telegram").Logger(),
		timeout:  int(cfg.PollTimeout.Seconds()),
	}, nil
}

// Run long-polls for updates until ctx is canceled.
func (l *Listener) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = l.timeout
	u.AllowedUpdates = []string{"message", "channel_post"}

	updates := l.bot.GetUpdatesChan(u)
	l.log.Info().Str("bot", l.bot.Self.UserName).Msg("telegram listener started")

	for {
		select {
		case <-ctx.Done():
			l.bot.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			l.handleUpdate(update)
		}
	}
}

// handleUpdate converts one update into a pipeline message. Non-text
// updates are skipped; channel posts carry no sender, so the channel title
// doubles as the sender name.
func (l *Listener) handleUpdate(update tgbotapi.Update) {
	msg := update.Message
	if msg == nil {
		msg = update.ChannelPost
	}
	if msg == nil {
		return
	}
	text := msg.Text
	if text == "" {
		text = msg.Caption
	}
	if strings.TrimSpace(text) == "" {
		return
	}

	l.pipeline.Enqueue(ingest.Message{
		Text:      text,
		Sender:    senderOf(msg),
		Chat:      chatOf(msg),
		Timestamp: int64(msg.Date) * 1000,
	})
}

func senderOf(msg *tgbotapi.Message) ingest.Sender {
	if msg.From == nil {
		// Channel post: attribute to the channel itself.
		return ingest.Sender{DisplayName: msg.Chat.Title, FullName: msg.Chat.Title}
	}
	display := msg.From.UserName
	if display == "" {
		display = msg.From.FirstName
	}
	full := strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName)
	return ingest.Sender{DisplayName: display, FullName: full}
}

func chatOf(msg *tgbotapi.Message) ingest.Chat {
	title := msg.Chat.Title
	if title == "" {
		// Private chats have no title; fall back to the peer's name.
		title = strings.TrimSpace(msg.Chat.FirstName + " " + msg.Chat.LastName)
	}
	return ingest.Chat{Title: title, ID: strconv.FormatInt(msg.Chat.ID, 10)}
}
