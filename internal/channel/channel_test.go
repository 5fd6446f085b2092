package channel

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReceiver struct {
	handler Handler
	stopped bool
	err     error
}

func (f *fakeReceiver) Type() ChannelType { return Discord }

func (f *fakeReceiver) Connect(_ context.Context, handler Handler) (Connection, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.handler = handler
	return NewConnection(Discord, func(context.Context) error {
		f.stopped = true
		return nil
	}), nil
}

func submission(channelID string, bot bool) Submission {
	return Submission{
		Channel:     Discord,
		ChannelID:   channelID,
		MessageID:   "m1",
		Author:      Identity{ID: "u1", Username: "alice", Bot: bot},
		Attachments: []Attachment{{Name: "Icon_Star.png", Size: 10}},
	}
}

func TestGate(t *testing.T) {
	var seen []Submission
	next := func(_ context.Context, sub Submission) error {
		seen = append(seen, sub)
		return nil
	}
	h := Gate("123")(next)
	ctx := context.Background()

	require.NoError(t, h(ctx, submission("123", true)))
	require.NoError(t, h(ctx, submission("999", false)))
	noFiles := submission("123", false)
	noFiles.Attachments = nil
	require.NoError(t, h(ctx, noFiles))
	assert.Empty(t, seen)

	require.NoError(t, h(ctx, submission("123", false)))
	assert.Len(t, seen, 1)
}

func TestGateWithoutWatchedChannelDropsAll(t *testing.T) {
	called := false
	h := Gate("  ")(func(context.Context, Submission) error {
		called = true
		return nil
	})
	require.NoError(t, h(context.Background(), submission("", false)))
	assert.False(t, called)
}

func TestManagerDispatchesThroughMiddleware(t *testing.T) {
	recv := &fakeReceiver{}
	var got []string
	m := NewManager(nil, recv, func(_ context.Context, sub Submission) error {
		got = append(got, sub.MessageID)
		return nil
	})
	m.Use(Gate("123"))
	require.NoError(t, m.Start(context.Background()))

	require.NoError(t, recv.handler(context.Background(), submission("123", false)))
	require.NoError(t, recv.handler(context.Background(), submission("123", true)))
	assert.Equal(t, []string{"m1"}, got)

	require.NoError(t, m.Shutdown(context.Background()))
	assert.True(t, recv.stopped)
}

func TestManagerRecoversPanics(t *testing.T) {
	recv := &fakeReceiver{}
	m := NewManager(nil, recv, func(context.Context, Submission) error {
		panic("boom")
	})
	require.NoError(t, m.Start(context.Background()))

	err := recv.handler(context.Background(), submission("123", false))
	assert.ErrorContains(t, err, "boom")
}

func TestManagerHandlerOutlivesConnectionContext(t *testing.T) {
	recv := &fakeReceiver{}
	var handlerErr error
	m := NewManager(nil, recv, func(ctx context.Context, _ Submission) error {
		handlerErr = ctx.Err()
		return nil
	})
	require.NoError(t, m.Start(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, recv.handler(ctx, submission("123", false)))
	assert.NoError(t, handlerErr)
}

func TestManagerShutdownWaitsForInflight(t *testing.T) {
	recv := &fakeReceiver{}
	release := make(chan struct{})
	started := make(chan struct{})
	m := NewManager(nil, recv, func(context.Context, Submission) error {
		close(started)
		<-release
		return nil
	})
	require.NoError(t, m.Start(context.Background()))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = recv.handler(context.Background(), submission("123", false))
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, m.Shutdown(ctx))

	close(release)
	wg.Wait()
	assert.NoError(t, m.Shutdown(context.Background()))
}

func TestManagerStartErrors(t *testing.T) {
	m := NewManager(nil, &fakeReceiver{err: errors.New("bad token")}, func(context.Context, Submission) error { return nil })
	assert.ErrorContains(t, m.Start(context.Background()), "bad token")

	assert.Error(t, NewManager(nil, nil, nil).Start(context.Background()))
}

func TestParseChannelType(t *testing.T) {
	ct, err := ParseChannelType(" Discord ")
	require.NoError(t, err)
	assert.Equal(t, Discord, ct)
	_, err = ParseChannelType("slack")
	assert.Error(t, err)
}

func TestIdentityName(t *testing.T) {
	assert.Equal(t, "alice", Identity{ID: "1", Username: "alice", DisplayName: "Alice"}.Name())
	assert.Equal(t, "Alice", Identity{ID: "1", DisplayName: "Alice"}.Name())
	assert.Equal(t, "1", Identity{ID: "1"}.Name())
}

func TestAttachmentOpenWithoutOpener(t *testing.T) {
	_, err := Attachment{Name: "x.png"}.Open(context.Background())
	assert.Error(t, err)
}
