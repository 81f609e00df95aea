package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"timesgate/internal/domain"
)

// Executor runs one named action.
type Executor interface {
	Execute(ctx context.Context, req domain.ActionRequest) (*domain.ActionResult, error)
}

type Options struct {
	Broker      string
	Port        int
	Username    string
	Password    string
	ClientID    string
	TopicPrefix string
	DeviceID    string
	QoS         byte
}

func (o Options) CommandTopic() string {
	return fmt.Sprintf("%s/%s/command", o.TopicPrefix, o.DeviceID)
}

func (o Options) ResponseTopic() string {
	return fmt.Sprintf("%s/%s/response", o.TopicPrefix, o.DeviceID)
}

// Bridge takes ActionRequest messages from the command topic and publishes
// every ActionResult to the response topic.
type Bridge struct {
	opts     Options
	client   paho.Client
	executor Executor
	logger   *slog.Logger
	ctx      context.Context
}

func NewBridge(opts Options, executor Executor, logger *slog.Logger) *Bridge {
	b := &Bridge{
		opts:     opts,
		executor: executor,
		logger:   logger,
		ctx:      context.Background(),
	}

	clientID := opts.ClientID
	if clientID == "" {
		clientID = fmt.Sprintf("timesgate_%d", time.Now().Unix())
	}

	co := paho.NewClientOptions().AddBroker(fmt.Sprintf("tcp://%s:%d", opts.Broker, opts.Port))
	co.SetClientID(clientID)
	if opts.Username != "" {
		co.SetUsername(opts.Username)
		co.SetPassword(opts.Password)
	}
	co.SetAutoReconnect(true)
	co.SetOrderMatters(false)
	co.SetConnectionLostHandler(func(_ paho.Client, err error) {
		logger.Warn("MQTT connection lost", "error", err)
	})
	// Subscriptions do not survive a reconnect with a clean session.
	co.SetOnConnectHandler(func(c paho.Client) {
		if err := b.subscribe(c); err != nil {
			logger.Error("subscribing after connect", "error", err)
		}
	})

	b.client = paho.NewClient(co)
	return b
}

// Start connects to the broker. Requests are executed with ctx.
func (b *Bridge) Start(ctx context.Context) error {
	b.ctx = ctx
	if token := b.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT connection failed: %w", token.Error())
	}
	b.logger.Info("connected to MQTT broker", "broker", b.opts.Broker, "topic", b.opts.CommandTopic())
	return nil
}

func (b *Bridge) Stop() {
	if b.client.IsConnected() {
		b.client.Unsubscribe(b.opts.CommandTopic()).WaitTimeout(time.Second)
	}
	b.client.Disconnect(250)
	b.logger.Info("disconnected from MQTT broker")
}

func (b *Bridge) subscribe(c paho.Client) error {
	token := c.Subscribe(b.opts.CommandTopic(), b.opts.QoS, b.handleMessage)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe failed: %w", token.Error())
	}
	b.logger.Info("subscribed to command topic", "topic", b.opts.CommandTopic())
	return nil
}

func (b *Bridge) handleMessage(c paho.Client, msg paho.Message) {
	b.logger.Debug("MQTT command received", "topic", msg.Topic(), "bytes", len(msg.Payload()))

	reply := b.HandlePayload(b.ctx, msg.Payload())

	token := c.Publish(b.opts.ResponseTopic(), b.opts.QoS, false, reply)
	if token.Wait() && token.Error() != nil {
		b.logger.Error("publishing response", "topic", b.opts.ResponseTopic(), "error", token.Error())
	}
}

// HandlePayload executes one ActionRequest message and returns the encoded
// ActionResult. Undecodable messages yield a validation failure result.
func (b *Bridge) HandlePayload(ctx context.Context, payload []byte) []byte {
	var req domain.ActionRequest
	var result *domain.ActionResult

	if err := json.Unmarshal(payload, &req); err != nil {
		result = &domain.ActionResult{
			Error:     fmt.Sprintf("invalid request: %v", err),
			ErrorKind: domain.KindValidation,
		}
	} else {
		result, _ = b.executor.Execute(ctx, req)
	}

	out, err := json.Marshal(result)
	if err != nil {
		b.logger.Error("encoding response", "id", req.ID, "error", err)
		out, _ = json.Marshal(&domain.ActionResult{
			ID:        req.ID,
			Action:    req.Action,
			Success:   result.Success,
			Error:     fmt.Sprintf("encoding response: %v", err),
			ErrorKind: domain.KindInternal,
		})
	}
	return out
}
