// Package telegram receives submissions sent as files to a Telegram chat.
package telegram

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/AssetStation/asset-station-library/internal/attachment"
	"github.com/AssetStation/asset-station-library/internal/channel"
)

// Type is the channel type served by this adapter.
const Type = channel.Telegram

const messageLimit = 4096

// Config holds the bot credentials.
type Config struct {
	BotToken string
}

type TelegramAdapter struct {
	cfg    Config
	logger *slog.Logger
}

func NewTelegramAdapter(log *slog.Logger, cfg Config) *TelegramAdapter {
	if log == nil {
		log = slog.Default()
	}
	return &TelegramAdapter{
		cfg:    cfg,
		logger: log.With(slog.String("adapter", "telegram")),
	}
}

func (a *TelegramAdapter) Type() channel.ChannelType {
	return Type
}

func (a *TelegramAdapter) Connect(ctx context.Context, handler channel.Handler) (channel.Connection, error) {
	token := strings.TrimSpace(a.cfg.BotToken)
	if token == "" {
		return nil, errors.New("telegram bot token is required")
	}
	_ = tgbotapi.SetLogger(&slogBotLogger{log: a.logger})
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		a.logger.Error("create bot failed", slog.Any("error", err))
		return nil, err
	}
	a.logger.Info("bot online", slog.String("user", bot.Self.UserName))

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30
	updates := bot.GetUpdatesChan(updateConfig)
	connCtx, cancel := context.WithCancel(ctx)

	go func() {
		for {
			select {
			case <-connCtx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					a.logger.Info("updates channel closed")
					return
				}
				msg := update.Message
				if msg == nil {
					msg = update.ChannelPost
				}
				if msg == nil {
					continue
				}
				sub := toSubmission(msg, bot.Self.ID, bot.GetFileDirectURL, &replier{bot: bot, chatID: chatID(msg), replyTo: msg.MessageID})
				if len(sub.Attachments) == 0 {
					continue
				}
				a.logger.Debug("inbound received",
					slog.String("chat_id", sub.ChannelID),
					slog.String("message_id", sub.MessageID),
					slog.String("author", sub.Author.Name()),
				)
				go func() {
					if err := handler(connCtx, sub); err != nil {
						a.logger.Error("handle inbound failed", slog.String("message_id", sub.MessageID), slog.Any("error", err))
					}
				}()
			}
		}
	}()

	stop := func(context.Context) error {
		cancel()
		bot.StopReceivingUpdates()
		return nil
	}
	return channel.NewConnection(Type, stop), nil
}

func chatID(msg *tgbotapi.Message) int64 {
	if msg.Chat == nil {
		return 0
	}
	return msg.Chat.ID
}

// toSubmission keeps only media sent with a file name; compressed photos
// carry none and cannot be classified.
func toSubmission(msg *tgbotapi.Message, selfID int64, resolve func(fileID string) (string, error), r channel.Replier) channel.Submission {
	author := channel.Identity{}
	if msg.From != nil {
		author = channel.Identity{
			ID:          strconv.FormatInt(msg.From.ID, 10),
			Username:    strings.TrimSpace(msg.From.UserName),
			DisplayName: strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName),
			Bot:         msg.From.IsBot || msg.From.ID == selfID,
		}
	} else if msg.SenderChat != nil {
		author = channel.Identity{
			ID:          strconv.FormatInt(msg.SenderChat.ID, 10),
			Username:    strings.TrimSpace(msg.SenderChat.UserName),
			DisplayName: strings.TrimSpace(msg.SenderChat.Title),
		}
	}

	var attachments []channel.Attachment
	add := func(fileID, name, mime string, size int) {
		if strings.TrimSpace(fileID) == "" || strings.TrimSpace(name) == "" {
			return
		}
		attachments = append(attachments, channel.Attachment{
			Name:        name,
			Size:        int64(size),
			ContentType: attachment.NormalizeMime(mime),
			Opener: func(ctx context.Context) (io.ReadCloser, error) {
				url, err := resolve(fileID)
				if err != nil {
					return nil, err
				}
				return attachment.Fetch(ctx, nil, url)
			},
		})
	}
	if d := msg.Document; d != nil {
		add(d.FileID, d.FileName, d.MimeType, d.FileSize)
	}
	if v := msg.Video; v != nil {
		add(v.FileID, v.FileName, v.MimeType, v.FileSize)
	}
	if au := msg.Audio; au != nil {
		add(au.FileID, au.FileName, au.MimeType, au.FileSize)
	}
	if an := msg.Animation; an != nil {
		add(an.FileID, an.FileName, an.MimeType, an.FileSize)
	}

	return channel.Submission{
		Channel:     Type,
		ChannelID:   strconv.FormatInt(chatID(msg), 10),
		MessageID:   strconv.Itoa(msg.MessageID),
		Author:      author,
		Attachments: attachments,
		ReceivedAt:  time.Unix(int64(msg.Date), 0).UTC(),
		Replier:     r,
	}
}

// sender is the part of *tgbotapi.BotAPI used for replies.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type replier struct {
	bot     sender
	chatID  int64
	replyTo int
}

func (r *replier) Reply(_ context.Context, text string) (channel.StatusMessage, error) {
	message := tgbotapi.NewMessage(r.chatID, fitHTML(text, messageLimit))
	message.ParseMode = tgbotapi.ModeHTML
	message.ReplyToMessageID = r.replyTo
	sent, err := r.bot.Send(message)
	if err != nil {
		return nil, err
	}
	return &statusMessage{bot: r.bot, chatID: r.chatID, messageID: sent.MessageID}, nil
}

type statusMessage struct {
	bot       sender
	chatID    int64
	messageID int
}

func (s *statusMessage) Edit(_ context.Context, text string) error {
	edit := tgbotapi.NewEditMessageText(s.chatID, s.messageID, fitHTML(text, messageLimit))
	edit.ParseMode = tgbotapi.ModeHTML
	_, err := s.bot.Send(edit)
	return err
}
