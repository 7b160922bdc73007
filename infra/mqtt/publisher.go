package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/energinet-labs/prosumer/core/model"
	"github.com/energinet-labs/prosumer/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker   string `json:"broker" koanf:"broker"`
	ClientID string `json:"client_id" koanf:"client_id"`
	Username string `json:"username" koanf:"username"`
	Password string `json:"password" koanf:"password"`
	// Topic is the prefix under which schedules are published, one message
	// per scenario at <topic>/<question>/<scenario>.
	Topic     string `json:"topic" koanf:"topic"`
	QoS       byte   `json:"qos" koanf:"qos"`
	TimeoutMS int    `json:"timeout_ms" koanf:"timeout_ms"`
}

func (c Config) timeout() time.Duration {
	if c.TimeoutMS > 0 {
		return time.Duration(c.TimeoutMS) * time.Millisecond
	}
	return 5 * time.Second
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Publisher pushes solved schedules to an MQTT broker.
type Publisher struct {
	cli pahoClient
	cfg Config
	log logger.Logger
}

// NewPublisher connects to the broker. The connection auto-reconnects until
// Close is called.
func NewPublisher(cfg Config) (*Publisher, error) {
	log := logger.New("mqtt-publisher")
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.OnConnect = func(paho.Client) { log.Infof("MQTT connected to %s", cfg.Broker) }
	opts.OnConnectionLost = func(_ paho.Client, err error) { log.Errorf("connection lost: %v", err) }

	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return &Publisher{cli: c, cfg: cfg, log: log}, nil
}

// schedulePayload is the wire format of one published schedule.
type schedulePayload struct {
	MessageID          string               `json:"message_id"`
	RunID              string               `json:"run_id"`
	Question           string               `json:"question"`
	Scenario           string               `json:"scenario"`
	Variant            string               `json:"variant"`
	Series             map[string][]float64 `json:"series"`
	BatteryCapacityKWh float64              `json:"battery_capacity_kWh"`
	Objective          float64              `json:"objective"`
	ActualProfit       float64              `json:"actual_profit"`
	PublishedAt        time.Time            `json:"published_at"`
}

func buildPayload(runID, question string, res *model.Result, now time.Time) schedulePayload {
	return schedulePayload{
		MessageID:          uuid.NewString(),
		RunID:              runID,
		Question:           question,
		Scenario:           res.Scenario,
		Variant:            res.Variant.String(),
		Series:             res.Series,
		BatteryCapacityKWh: res.BatteryCapacityKWh,
		Objective:          res.Objective,
		ActualProfit:       res.ActualProfit,
		PublishedAt:        now,
	}
}

// PublishSchedule sends one scenario's schedule as a JSON message.
func (p *Publisher) PublishSchedule(ctx context.Context, runID, question string, res *model.Result) error {
	payload, err := json.Marshal(buildPayload(runID, question, res, time.Now()))
	if err != nil {
		return fmt.Errorf("marshal schedule: %w", err)
	}
	topic := fmt.Sprintf("%s/%s/%s", p.cfg.Topic, question, res.Scenario)
	token := p.cli.Publish(topic, p.cfg.QoS, false, payload)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.cfg.timeout()):
		return fmt.Errorf("publish to %s timed out", topic)
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("publish to %s: %w", topic, err)
		}
		return nil
	}
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	p.cli.Disconnect(250)
}
