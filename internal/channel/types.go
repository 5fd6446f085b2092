// Package channel abstracts the chat platform submissions arrive on.
package channel

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

// ChannelType names a chat platform.
type ChannelType string

const (
	Discord  ChannelType = "discord"
	Telegram ChannelType = "telegram"
)

func (c ChannelType) String() string { return string(c) }

// ParseChannelType normalizes a platform name from configuration.
func ParseChannelType(raw string) (ChannelType, error) {
	switch ChannelType(strings.ToLower(strings.TrimSpace(raw))) {
	case Discord:
		return Discord, nil
	case Telegram:
		return Telegram, nil
	default:
		return "", errors.New("unsupported channel type: " + raw)
	}
}

// Identity is the author of a submission.
type Identity struct {
	ID          string
	Username    string
	DisplayName string
	Bot         bool
}

// Name returns the best human-readable name for the author.
func (i Identity) Name() string {
	if v := strings.TrimSpace(i.Username); v != "" {
		return v
	}
	if v := strings.TrimSpace(i.DisplayName); v != "" {
		return v
	}
	return i.ID
}

// Attachment is one file of a submission. Size and ContentType are what the
// platform declared; nothing is downloaded until Open is called.
type Attachment struct {
	Name        string
	Size        int64
	ContentType string
	URL         string
	Opener      func(ctx context.Context) (io.ReadCloser, error)
}

// Open starts downloading the attachment payload.
func (a Attachment) Open(ctx context.Context) (io.ReadCloser, error) {
	if a.Opener == nil {
		return nil, errors.New("attachment " + a.Name + " cannot be opened")
	}
	return a.Opener(ctx)
}

// Submission is a message carrying files in a chat channel.
type Submission struct {
	Channel     ChannelType
	ChannelID   string
	MessageID   string
	Author      Identity
	Attachments []Attachment
	ReceivedAt  time.Time
	Replier     Replier
}

// Replier answers the submission in the channel it came from.
type Replier interface {
	Reply(ctx context.Context, text string) (StatusMessage, error)
}

// StatusMessage is a posted reply that can be rewritten in place.
type StatusMessage interface {
	Edit(ctx context.Context, text string) error
}
