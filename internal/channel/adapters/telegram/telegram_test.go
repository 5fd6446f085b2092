package telegram

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type fakeSender struct {
	sent []tgbotapi.Chattable
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: 77}, nil
}

func TestToSubmission(t *testing.T) {
	t.Parallel()

	msg := &tgbotapi.Message{
		MessageID: 5,
		Date:      1714557600,
		Chat:      &tgbotapi.Chat{ID: -100123},
		From:      &tgbotapi.User{ID: 42, UserName: "alice", FirstName: "Alice"},
		Document:  &tgbotapi.Document{FileID: "f1", FileName: "Icon_Star.png", MimeType: "image/png", FileSize: 12},
		Video:     &tgbotapi.Video{FileID: "f2", FileName: "", FileSize: 99},
		Photo:     []tgbotapi.PhotoSize{{FileID: "p1"}},
	}
	var resolved []string
	resolve := func(id string) (string, error) {
		resolved = append(resolved, id)
		return "", errors.New("offline")
	}
	sub := toSubmission(msg, 1, resolve, nil)

	if sub.ChannelID != "-100123" || sub.MessageID != "5" {
		t.Fatalf("unexpected ids: %s %s", sub.ChannelID, sub.MessageID)
	}
	if sub.Author.Name() != "alice" || sub.Author.Bot {
		t.Fatalf("unexpected author: %#v", sub.Author)
	}
	if len(sub.Attachments) != 1 || sub.Attachments[0].Name != "Icon_Star.png" || sub.Attachments[0].Size != 12 {
		t.Fatalf("unexpected attachments: %#v", sub.Attachments)
	}
	if len(resolved) != 0 {
		t.Fatalf("file url resolved before open")
	}
	if _, err := sub.Attachments[0].Open(context.Background()); err == nil {
		t.Fatalf("expected resolve error")
	}
	if len(resolved) != 1 || resolved[0] != "f1" {
		t.Fatalf("unexpected resolve calls: %v", resolved)
	}
}

func TestToSubmissionMarksSelfAsBot(t *testing.T) {
	t.Parallel()

	msg := &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}, From: &tgbotapi.User{ID: 9}}
	if !toSubmission(msg, 9, nil, nil).Author.Bot {
		t.Fatalf("expected own message to be flagged as bot")
	}
}

func TestReplyAndEditUseHTML(t *testing.T) {
	t.Parallel()

	fake := &fakeSender{}
	r := &replier{bot: fake, chatID: 10, replyTo: 5}
	status, err := r.Reply(context.Background(), "⏳ **Processing Video...**")
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if err := status.Edit(context.Background(), "❌ Thumbnail Error: `a<b`"); err != nil {
		t.Fatalf("edit: %v", err)
	}

	sent, ok := fake.sent[0].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("unexpected message type %T", fake.sent[0])
	}
	if sent.Text != "⏳ <b>Processing Video...</b>" || sent.ReplyToMessageID != 5 || sent.ParseMode != tgbotapi.ModeHTML {
		t.Fatalf("unexpected reply: %#v", sent)
	}
	edit, ok := fake.sent[1].(tgbotapi.EditMessageTextConfig)
	if !ok {
		t.Fatalf("unexpected edit type %T", fake.sent[1])
	}
	if edit.MessageID != 77 || edit.Text != "❌ Thumbnail Error: <code>a&lt;b</code>" {
		t.Fatalf("unexpected edit: %#v", edit)
	}
}

func TestToTelegramHTML(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"":                        "",
		"**File Too Big!** (a&b)": "<b>File Too Big!</b> (a&amp;b)",
		"`3D_Chair.fbx` *only*":   "<code>3D_Chair.fbx</code> <i>only</i>",
		"**a** and **b**":         "<b>a</b> and <b>b</b>",
	}
	for in, want := range cases {
		if got := toTelegramHTML(in); got != want {
			t.Fatalf("toTelegramHTML(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFitHTMLStaysWithinLimitAfterEscaping(t *testing.T) {
	t.Parallel()

	text := "❌ Thumbnail Error: " + strings.Repeat("<&>", 2000) + " **done**"
	got := fitHTML(text, messageLimit)
	if n := utf8.RuneCountInString(got); n > messageLimit {
		t.Fatalf("fitHTML output has %d runes, limit %d", n, messageLimit)
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected truncation marker, got suffix %q", got[len(got)-10:])
	}
	if !strings.HasPrefix(got, "❌ Thumbnail Error: &lt;&amp;&gt;") {
		t.Fatalf("unexpected prefix %q", got[:40])
	}

	short := "**Processing 3D...**"
	if got := fitHTML(short, messageLimit); got != "<b>Processing 3D...</b>" {
		t.Fatalf("fitHTML(%q) = %q", short, got)
	}
}

func TestReplyTextFitsTelegramLimit(t *testing.T) {
	t.Parallel()

	fake := &fakeSender{}
	r := &replier{bot: fake, chatID: 5, replyTo: 9}
	status, err := r.Reply(context.Background(), strings.Repeat("a&b ", 1500))
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if err := status.Edit(context.Background(), strings.Repeat("`x<y` ", 1000)); err != nil {
		t.Fatalf("edit: %v", err)
	}

	msg, ok := fake.sent[0].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("unexpected message type %T", fake.sent[0])
	}
	if n := utf8.RuneCountInString(msg.Text); n > messageLimit {
		t.Fatalf("reply text has %d runes", n)
	}
	edit, ok := fake.sent[1].(tgbotapi.EditMessageTextConfig)
	if !ok {
		t.Fatalf("unexpected edit type %T", fake.sent[1])
	}
	if n := utf8.RuneCountInString(edit.Text); n > messageLimit {
		t.Fatalf("edit text has %d runes", n)
	}
}
