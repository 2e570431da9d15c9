// Package events publishes tour lifecycle events to NATS JetStream.
// Publishing is best-effort: a nil or disconnected publisher degrades to a
// logged warning, never a failed request.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// Event subjects
const (
	EventTourCreated    = "tour.created"
	EventTourUpdated    = "tour.updated"
	EventTourDeleted    = "tour.deleted"
	EventTourImported   = "tour.imported"
	EventSceneCreated   = "tour.scene.created"
	EventSceneUpdated   = "tour.scene.updated"
	EventSceneDeleted   = "tour.scene.deleted"
	EventSceneReordered = "tour.scene.reordered"
	EventHotspotCreated = "tour.hotspot.created"
	EventHotspotUpdated = "tour.hotspot.updated"
	EventHotspotDeleted = "tour.hotspot.deleted"
)

// TourEvent is published on every mutation of a tour graph. TourID is always
// set; SceneID and HotspotID narrow the scope for scene/hotspot events.
type TourEvent struct {
	EventType string    `json:"event_type"`
	TourID    string    `json:"tour_id"`
	SceneID   string    `json:"scene_id,omitempty"`
	HotspotID string    `json:"hotspot_id,omitempty"`
	Slug      string    `json:"slug,omitempty"`
	OwnerID   string    `json:"owner_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher wraps the NATS connection for tour events.
type Publisher struct {
	conn   *nats.Conn
	js     nats.JetStreamContext
	logger *logrus.Entry
}

// Config holds NATS connection configuration
type Config struct {
	URL string
}

// NewPublisher connects to NATS and ensures the tour events stream exists.
// Returns nil (and no error) when url is empty, disabling event publishing.
func NewPublisher(url string, logger *logrus.Logger) (*Publisher, error) {
	if url == "" {
		logger.Warn("NATS_URL not set, event publishing disabled")
		return nil, nil
	}

	entry := logger.WithField("component", "events.publisher")

	opts := []nats.Option{
		nats.Name("tour-service"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			entry.WithError(err).Warn("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			entry.WithField("url", nc.ConnectedUrl()).Info("NATS reconnected")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			entry.Info("NATS connection closed")
		}),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	// LimitsPolicy so multiple consumers (viewer cache invalidators,
	// analytics) can read the same events.
	_, err = js.AddStream(&nats.StreamConfig{
		Name:        "TOUR_EVENTS",
		Description: "Stream for virtual tour lifecycle events",
		Subjects:    []string{"tour.>"},
		Storage:     nats.FileStorage,
		Retention:   nats.LimitsPolicy,
		MaxAge:      24 * time.Hour * 7,
		MaxMsgs:     100000,
		Discard:     nats.DiscardOld,
	})
	if err != nil && err != nats.ErrStreamNameAlreadyInUse {
		entry.WithError(err).Warn("could not create TOUR_EVENTS stream (may already exist)")
	}

	entry.WithField("url", url).Info("NATS events publisher initialized")

	return &Publisher{conn: conn, js: js, logger: entry}, nil
}

// Publish emits one tour event. Safe to call on a nil publisher.
func (p *Publisher) Publish(ctx context.Context, event TourEvent) {
	if p == nil || p.js == nil {
		return
	}
	event.Timestamp = time.Now().UTC()

	data, err := json.Marshal(event)
	if err != nil {
		p.logger.WithError(err).Error("failed to marshal tour event")
		return
	}

	if _, err := p.js.Publish(event.EventType, data, nats.Context(ctx)); err != nil {
		p.logger.WithError(err).WithField("subject", event.EventType).
			Warn("failed to publish tour event")
	}
}

// IsConnected returns true if connected to NATS
func (p *Publisher) IsConnected() bool {
	return p != nil && p.conn != nil && p.conn.IsConnected()
}

// Close drains and closes the connection. Safe on a nil publisher.
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.logger.WithError(err).Warn("failed to drain NATS connection")
	}
}
