package events

import (
	"context"
	"encoding/json"
	"log/slog"

	paho "github.com/eclipse/paho.mqtt.golang"

	"pagepilot/internal/domain"
)

type PublisherConfig struct {
	BrokerURL   string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
}

// Publisher broadcasts resolved intents over MQTT for companion consumers
// (dashboards, desktop agents). It is strictly best-effort: resolution never
// waits on it, and publish failures are logged and dropped.
type Publisher struct {
	cfg    PublisherConfig
	client paho.Client
	logger *slog.Logger
}

func NewPublisher(cfg PublisherConfig, logger *slog.Logger) *Publisher {
	return &Publisher{cfg: cfg, logger: logger}
}

func (p *Publisher) Enabled() bool {
	return p != nil && p.cfg.BrokerURL != ""
}

func (p *Publisher) Start(ctx context.Context) error {
	opts := paho.NewClientOptions().
		AddBroker(p.cfg.BrokerURL).
		SetClientID(p.cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetWill(TopicServerOnline(p.cfg.TopicPrefix), "0", 1, true)

	if p.cfg.Username != "" {
		opts.SetUsername(p.cfg.Username)
		opts.SetPassword(p.cfg.Password)
	}

	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		p.logger.Error("mqtt connection lost", "error", err)
	})

	p.client = paho.NewClient(opts)
	if token := p.client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}

	if token := p.client.Publish(TopicServerOnline(p.cfg.TopicPrefix), 1, true, "1"); token.Wait() && token.Error() != nil {
		return token.Error()
	}

	go func() {
		<-ctx.Done()
		p.client.Publish(TopicServerOnline(p.cfg.TopicPrefix), 1, true, "0")
		p.client.Disconnect(100)
	}()

	return nil
}

type intentEvent struct {
	RequestID string        `json:"request_id"`
	SessionID string        `json:"session_id"`
	Intent    domain.Intent `json:"intent"`
}

// PublishIntent emits one resolved intent. Fire and forget.
func (p *Publisher) PublishIntent(sessionID, requestID string, intent domain.Intent) {
	if !p.Enabled() || p.client == nil {
		return
	}

	body, err := json.Marshal(intentEvent{
		RequestID: requestID,
		SessionID: sessionID,
		Intent:    intent,
	})
	if err != nil {
		p.logger.Warn("marshal intent event failed", "error", err)
		return
	}

	topic := TopicIntent(p.cfg.TopicPrefix, sessionID, requestID)
	token := p.client.Publish(topic, 0, false, body)
	go func() {
		if token.Wait() && token.Error() != nil {
			p.logger.Warn("publish intent event failed", "topic", topic, "error", token.Error())
		}
	}()
}
