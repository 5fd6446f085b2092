// Package discord receives submissions from a Discord guild channel.
package discord

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/AssetStation/asset-station-library/internal/attachment"
	"github.com/AssetStation/asset-station-library/internal/channel"
	"github.com/AssetStation/asset-station-library/internal/channel/adapters/adapterutil"
)

// Type is the channel type served by this adapter.
const Type = channel.Discord

// messageLimit is the maximum length of a Discord message.
const messageLimit = 2000

// Config holds the bot credentials.
type Config struct {
	BotToken string
}

type DiscordAdapter struct {
	cfg    Config
	logger *slog.Logger
}

func NewDiscordAdapter(log *slog.Logger, cfg Config) *DiscordAdapter {
	if log == nil {
		log = slog.Default()
	}
	return &DiscordAdapter{
		cfg:    cfg,
		logger: log.With(slog.String("adapter", "discord")),
	}
}

func (a *DiscordAdapter) Type() channel.ChannelType {
	return Type
}

func (a *DiscordAdapter) Connect(ctx context.Context, handler channel.Handler) (channel.Connection, error) {
	token := strings.TrimSpace(a.cfg.BotToken)
	if token == "" {
		return nil, errors.New("discord bot token is required")
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		a.logger.Error("create session failed", slog.Any("error", err))
		return nil, err
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentMessageContent

	connCtx, cancel := context.WithCancel(ctx)
	session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		a.logger.Info("bot online", slog.String("user", r.User.Username+"#"+r.User.Discriminator), slog.Int("guilds", len(r.Guilds)))
	})
	session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m == nil || m.Message == nil || m.Author == nil {
			return
		}
		selfID := ""
		if s.State != nil && s.State.User != nil {
			selfID = s.State.User.ID
		}
		sub := toSubmission(m.Message, selfID, s.Client, &replier{session: s, channelID: m.ChannelID, ref: m.Reference()})
		if len(sub.Attachments) > 0 {
			names := make([]string, 0, len(sub.Attachments))
			for _, att := range sub.Attachments {
				names = append(names, att.Name)
			}
			a.logger.Debug("inbound received",
				slog.String("channel_id", sub.ChannelID),
				slog.String("message_id", sub.MessageID),
				slog.String("author", sub.Author.Name()),
				slog.String("files", adapterutil.AttachmentNames(names)),
			)
		}
		// discordgo already runs each event handler on its own goroutine.
		if err := handler(connCtx, sub); err != nil {
			a.logger.Error("handle inbound failed", slog.String("message_id", sub.MessageID), slog.Any("error", err))
		}
	})

	if err := session.Open(); err != nil {
		cancel()
		a.logger.Error("open session failed", slog.Any("error", err))
		return nil, err
	}

	stop := func(context.Context) error {
		cancel()
		return session.Close()
	}
	return channel.NewConnection(Type, stop), nil
}

func toSubmission(m *discordgo.Message, selfID string, client *http.Client, r channel.Replier) channel.Submission {
	author := channel.Identity{}
	if m.Author != nil {
		author = channel.Identity{
			ID:          m.Author.ID,
			Username:    m.Author.Username,
			DisplayName: m.Author.GlobalName,
			Bot:         m.Author.Bot || (selfID != "" && m.Author.ID == selfID),
		}
	}
	attachments := make([]channel.Attachment, 0, len(m.Attachments))
	for _, item := range m.Attachments {
		if item == nil {
			continue
		}
		url := item.URL
		attachments = append(attachments, channel.Attachment{
			Name:        item.Filename,
			Size:        int64(item.Size),
			ContentType: attachment.NormalizeMime(item.ContentType),
			URL:         url,
			Opener: func(ctx context.Context) (io.ReadCloser, error) {
				return attachment.Fetch(ctx, client, url)
			},
		})
	}
	receivedAt := m.Timestamp
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}
	return channel.Submission{
		Channel:     Type,
		ChannelID:   m.ChannelID,
		MessageID:   m.ID,
		Author:      author,
		Attachments: attachments,
		ReceivedAt:  receivedAt.UTC(),
		Replier:     r,
	}
}

// messenger is the part of *discordgo.Session used for replies.
type messenger interface {
	ChannelMessageSendReply(channelID string, content string, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEdit(channelID, messageID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type replier struct {
	session   messenger
	channelID string
	ref       *discordgo.MessageReference
}

func (r *replier) Reply(ctx context.Context, text string) (channel.StatusMessage, error) {
	msg, err := r.session.ChannelMessageSendReply(r.channelID, adapterutil.Truncate(text, messageLimit), r.ref, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	return &statusMessage{session: r.session, channelID: r.channelID, messageID: msg.ID}, nil
}

type statusMessage struct {
	session   messenger
	channelID string
	messageID string
}

func (s *statusMessage) Edit(ctx context.Context, text string) error {
	_, err := s.session.ChannelMessageEdit(s.channelID, s.messageID, adapterutil.Truncate(text, messageLimit), discordgo.WithContext(ctx))
	return err
}
