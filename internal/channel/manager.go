package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
)

// Manager owns the platform connection and dispatches its submissions.
type Manager struct {
	receiver    Receiver
	handler     Handler
	middlewares []Middleware
	logger      *slog.Logger

	mu       sync.Mutex
	conn     Connection
	inflight sync.WaitGroup
}

func NewManager(log *slog.Logger, receiver Receiver, handler Handler) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		receiver: receiver,
		handler:  handler,
		logger:   log.With(slog.String("component", "channel")),
	}
}

// Use registers middlewares; the first one registered runs first.
func (m *Manager) Use(mw ...Middleware) {
	m.middlewares = append(m.middlewares, mw...)
}

// Start connects the receiver. Calling Start twice is a no-op.
func (m *Manager) Start(ctx context.Context) error {
	if m.receiver == nil || m.handler == nil {
		return errors.New("channel manager not configured")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn != nil {
		return nil
	}

	handler := m.dispatch
	for i := len(m.middlewares) - 1; i >= 0; i-- {
		handler = m.middlewares[i](handler)
	}
	m.logger.Info("adapter start", slog.String("channel", m.receiver.Type().String()))
	conn, err := m.receiver.Connect(ctx, handler)
	if err != nil {
		return fmt.Errorf("connect %s: %w", m.receiver.Type(), err)
	}
	m.conn = conn
	return nil
}

// Shutdown stops the connection and waits for in-flight submissions until
// ctx is done.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()

	if conn != nil {
		m.logger.Info("adapter stop", slog.String("channel", conn.ChannelType().String()))
		if err := conn.Stop(ctx); err != nil && !errors.Is(err, ErrStopNotSupported) {
			m.logger.Warn("adapter stop failed", slog.Any("error", err))
		}
	}

	done := make(chan struct{})
	go func() {
		m.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for in-flight submissions: %w", ctx.Err())
	}
}

// dispatch runs the handler detached from the connection's lifetime so that
// stopping the adapter does not abort uploads half way.
func (m *Manager) dispatch(ctx context.Context, sub Submission) (err error) {
	m.inflight.Add(1)
	defer m.inflight.Done()
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("submission handler panic",
				slog.String("message_id", sub.MessageID),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			err = fmt.Errorf("submission handler panic: %v", r)
		}
	}()
	if err := m.handler(context.WithoutCancel(ctx), sub); err != nil {
		m.logger.Error("inbound processing failed", slog.String("channel", sub.Channel.String()), slog.String("message_id", sub.MessageID), slog.Any("error", err))
		return err
	}
	return nil
}
