package services

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// EventService publishes file lifecycle events over NATS JetStream.
type EventService struct {
	nc  *nats.Conn
	js  nats.JetStreamContext
	log *zap.Logger
}

// ConnectEvents connects to NATS, initializes JetStream and ensures the
// file-events stream exists.
func ConnectEvents(url string, log *zap.Logger) (*EventService, error) {
	opts := []nats.Option{
		nats.Name("file-service"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, err
	}

	s := &EventService{nc: nc, js: js, log: log}
	if err := s.ensureStream(); err != nil {
		// JetStream may be disabled on the server; events are best-effort.
		log.Warn("failed to ensure file-events stream", zap.Error(err))
	}

	log.Info("connected to NATS", zap.String("url", url))
	return s, nil
}

func (s *EventService) ensureStream() error {
	if _, err := s.js.StreamInfo("file-events"); err == nil {
		return nil
	}
	_, err := s.js.AddStream(&nats.StreamConfig{
		Name:     "file-events",
		Subjects: []string{"files.*"},
		Storage:  nats.FileStorage,
		MaxAge:   30 * 24 * time.Hour,
	})
	return err
}

// Publish sends a durable event, e.g. subject "files.uploaded". Returns an
// error for the caller to log; publish failures never fail a request.
func (s *EventService) Publish(subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = s.js.Publish(subject, data, nats.MsgId(uuid.New().String()))
	return err
}

func (s *EventService) Close() {
	if s.nc != nil && s.nc.IsConnected() {
		s.nc.Close()
	}
}
