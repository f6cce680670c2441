package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/parlalabs/parla-core/internal/bus"
	"github.com/parlalabs/parla-core/internal/protocol"
)

// Service subscribes to turn report events and persists them. It is a
// listener on the reporting side channel; the practice pipeline never waits
// on it.
type Service struct {
	store  *Store
	bus    *bus.Client
	sub    *nats.Subscription
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *slog.Logger
}

func NewService(parent context.Context, store *Store, busClient *bus.Client, log *slog.Logger) *Service {
	ctx, cancel := context.WithCancel(parent)
	return &Service{
		store:  store,
		bus:    busClient,
		ctx:    ctx,
		cancel: cancel,
		logger: log.With(slog.String("component", "journal")),
	}
}

func (s *Service) Start() error {
	if s.bus == nil {
		return nil
	}
	sub, err := s.bus.Conn().Subscribe(protocol.SubjectTurnReport, s.handleReport)
	if err != nil {
		return fmt.Errorf("subscribe turn reports: %w", err)
	}
	s.sub = sub
	return nil
}

func (s *Service) Close() {
	s.cancel()
	if s.sub != nil {
		_ = s.sub.Drain()
	}
	s.wg.Wait()
}

func (s *Service) Healthy() bool {
	return s.bus == nil || s.sub != nil
}

func (s *Service) handleReport(msg *nats.Msg) {
	var report protocol.TurnReport
	if err := json.Unmarshal(msg.Data, &report); err != nil {
		s.logger.Warn("failed to decode turn report", slogError(err))
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
		defer cancel()

		if err := s.store.AppendSession(ctx, report.SessionID); err != nil {
			s.logger.Warn("failed to persist session", slogError(err))
			return
		}
		if err := s.store.AppendReport(ctx, report); err != nil {
			s.logger.Warn("failed to persist turn report", slogError(err))
		}
	}()
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
