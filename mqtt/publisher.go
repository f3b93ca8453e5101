package mqtt

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/angas/pstryk-go/config"
	"github.com/angas/pstryk-go/types"
)

// Publisher pushes refresh results to an MQTT broker. Each direction gets
// a retained JSON message so late subscribers see the latest snapshot.
type Publisher struct {
	client paho.Client
	logger *slog.Logger
	prefix string
}

func NewPublisher(cnfg config.AppConfigMqtt) *Publisher {
	logger := slog.Default().With("module", "mqtt")
	opts := paho.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cnfg.Host, cnfg.Port))
	opts.SetClientID("pstryk")
	opts.SetUsername(cnfg.Username)
	opts.SetPassword(cnfg.Password)
	opts.SetAutoReconnect(true)
	opts.OnConnect = func(client paho.Client) {
		logger.Info("MQTT connected")
	}
	opts.OnConnectionLost = func(client paho.Client, err error) {
		logger.Warn("MQTT connection lost", slog.Any("error", err))
	}

	paho.CRITICAL = newPahoLogger(logger, slog.LevelError)
	paho.ERROR = newPahoLogger(logger, slog.LevelError)
	paho.WARN = newPahoLogger(logger, slog.LevelWarn)

	return &Publisher{
		client: paho.NewClient(opts),
		logger: logger,
		prefix: cnfg.GetTopicPrefix(),
	}
}

func (p *Publisher) Connect() error {
	p.logger.Debug("connecting MQTT client")
	if token := p.client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

func (p *Publisher) Disconnect() {
	p.logger.Info("disconnecting MQTT client")
	p.client.Disconnect(250)
}

// PublishRefresh publishes the full result plus a few flat convenience
// topics for consumers that can't parse JSON (dashboards, automations).
func (p *Publisher) PublishRefresh(dir types.Direction, res *types.RefreshResult) {
	if res == nil {
		return
	}

	payload, err := json.Marshal(res)
	if err != nil {
		p.logger.Error("marshalling refresh result", slog.Any("error", err))
		return
	}

	p.publish(fmt.Sprintf("%s/%s/snapshot", p.prefix, dir), payload)

	if res.Price != nil && res.Price.Current.IsValid() {
		p.publish(fmt.Sprintf("%s/%s/current_price", p.prefix, dir),
			[]byte(fmt.Sprintf("%.2f", res.Price.Current.Value())))
	}
	if res.Usage != nil && res.Usage.TotalUsageKwh.IsValid() {
		p.publish(fmt.Sprintf("%s/%s/total_usage_kwh", p.prefix, dir),
			[]byte(fmt.Sprintf("%.3f", res.Usage.TotalUsageKwh.Value())))
	}
}

func (p *Publisher) publish(topic string, payload []byte) {
	token := p.client.Publish(topic, 0, true, payload)
	if ok := token.WaitTimeout(5 * time.Second); !ok {
		p.logger.Warn("timeout publishing to MQTT", slog.String("topic", topic))
	} else if token.Error() != nil {
		p.logger.Error("publishing to MQTT", slog.String("topic", topic), slog.Any("error", token.Error()))
	}
}
