package diagram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// ErrNotConnected is returned when publishing without a live broker connection
var ErrNotConnected = errors.New("MQTT client not connected")

// IndicatorSummary is the per-indicator change-feed payload
type IndicatorSummary struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	Groups        []Group `json:"groups"`
	TotalSlices   int     `json:"totalSlices"`
	TotalProgress int     `json:"totalProgress"`
	Version       uint64  `json:"version"`
	Timestamp     int64   `json:"timestamp"`
}

// Publisher is a Sink that publishes workspace snapshots to MQTT
type Publisher struct {
	client        mqtt.Client
	publishPrefix string
	qos           byte
	retain        bool
	logger        *zap.Logger
}

// NewPublisher creates a snapshot publisher. If client is nil, publishing
// always fails with ErrNotConnected.
func NewPublisher(client mqtt.Client, prefix string, logger *zap.Logger) *Publisher {
	if prefix == "" {
		prefix = DefaultPublishPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		client:        client,
		publishPrefix: prefix,
		qos:           0,
		retain:        true,
		logger:        logger.Named("publisher"),
	}
}

// Name identifies the sink in logs
func (p *Publisher) Name() string {
	return "mqtt:" + p.publishPrefix
}

// WorkspaceTopic carries the complete workspace document
func (p *Publisher) WorkspaceTopic() string {
	return p.publishPrefix + "/workspace"
}

// IndicatorTopic carries one indicator summary
func (p *Publisher) IndicatorTopic(id int) string {
	return fmt.Sprintf("%s/indicators/%d", p.publishPrefix, id)
}

// Save publishes the workspace and a summary per indicator
func (p *Publisher) Save(ctx context.Context, ws Workspace) error {
	if p.client == nil || !p.client.IsConnected() {
		return ErrNotConnected
	}

	if err := p.publish(ctx, p.WorkspaceTopic(), ws); err != nil {
		return err
	}
	now := time.Now().Unix()
	for i := range ws.Indicators {
		ind := &ws.Indicators[i]
		summary := IndicatorSummary{
			ID:            ind.ID,
			Name:          ind.DisplayName(),
			Groups:        ind.Groups,
			TotalSlices:   ind.TotalSlices(),
			TotalProgress: totalProgress(ind.Groups),
			Version:       ws.Version,
			Timestamp:     now,
		}
		if err := p.publish(ctx, p.IndicatorTopic(ind.ID), summary); err != nil {
			return err
		}
	}
	p.logger.Debug("published workspace",
		zap.Int("indicators", len(ws.Indicators)), zap.Uint64("version", ws.Version))
	return nil
}

// SetQoS sets the Quality of Service level for publishing (0, 1, or 2)
func (p *Publisher) SetQoS(qos byte) {
	if qos <= 2 {
		p.qos = qos
	}
}

// SetRetain sets whether published messages should be retained by the broker
func (p *Publisher) SetRetain(retain bool) {
	p.retain = retain
}

func (p *Publisher) publish(ctx context.Context, topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", topic, err)
	}

	timeout := 2 * time.Second
	if dl, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(dl))
	}
	token := p.client.Publish(topic, p.qos, p.retain, payload)
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("publishing to %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	return nil
}

func totalProgress(groups []Group) int {
	n := 0
	for _, g := range groups {
		for _, s := range g.Slices {
			n += s.Progress
		}
	}
	return n
}
