package diagram

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// CommandHandler executes a command received over MQTT
type CommandHandler func(cmd Command) (CommandResult, error)

// MQTTClient manages the broker connection and the inbound command topic
type MQTTClient struct {
	client      mqtt.Client
	config      MQTTConfig
	handler     CommandHandler
	logger      *zap.Logger
	isConnected bool
	done        chan struct{}
	closeOnce   sync.Once
	mu          sync.RWMutex
}

// ConnectMQTT creates the client and starts connecting in the background.
// When no broker is configured MQTT is disabled and nil is returned.
func ConnectMQTT(cfg MQTTConfig, handler CommandHandler, logger *zap.Logger) (*MQTTClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Broker == "" {
		logger.Info("MQTT disabled: no broker configured")
		return nil, nil
	}
	if cfg.PublishPrefix == "" {
		return nil, fmt.Errorf("mqtt.publishPrefix is required when a broker is set")
	}

	c := newMQTTClient(nil, cfg, handler, logger)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = DefaultClientID
	}
	opts.SetClientID(clientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetCleanSession(false)
	opts.SetOrderMatters(true) // commands must apply in arrival order

	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(c.onConnectionLost)
	opts.SetReconnectingHandler(c.onReconnecting)

	c.client = mqtt.NewClient(opts)
	go c.connectWithRetry()

	return c, nil
}

func newMQTTClient(client mqtt.Client, cfg MQTTConfig, handler CommandHandler, logger *zap.Logger) *MQTTClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MQTTClient{
		client:  client,
		config:  cfg,
		handler: handler,
		logger:  logger.Named("mqtt"),
		done:    make(chan struct{}),
	}
}

// CommandTopic is where clients send JSON commands
func (c *MQTTClient) CommandTopic() string {
	return c.config.PublishPrefix + "/command"
}

// ResultTopic receives the result of every command
func (c *MQTTClient) ResultTopic() string {
	return c.config.PublishPrefix + "/command/result"
}

// connectWithRetry attempts to connect with exponential backoff until it
// succeeds or the client is disconnected
func (c *MQTTClient) connectWithRetry() {
	retryDelay := 1 * time.Second
	maxRetryDelay := 60 * time.Second

	for {
		c.logger.Info("connecting to MQTT broker", zap.String("broker", c.config.Broker))

		token := c.client.Connect()
		if token.WaitTimeout(10 * time.Second) {
			if token.Error() == nil {
				c.logger.Info("connected to MQTT broker")
				c.setConnected(true)
				return
			}
			c.logger.Warn("MQTT connection failed", zap.Error(token.Error()))
		} else {
			c.logger.Warn("MQTT connection timeout")
		}

		c.logger.Info("retrying MQTT connection", zap.Duration("delay", retryDelay))
		select {
		case <-c.done:
			return
		case <-time.After(retryDelay):
		}
		retryDelay *= 2
		if retryDelay > maxRetryDelay {
			retryDelay = maxRetryDelay
		}
	}
}

// onConnect subscribes to the command topic
func (c *MQTTClient) onConnect(client mqtt.Client) {
	c.setConnected(true)
	if c.handler == nil {
		return
	}
	topic := c.CommandTopic()
	token := client.Subscribe(topic, 1, c.handleCommand)
	if token.WaitTimeout(5*time.Second) && token.Error() != nil {
		c.logger.Error("subscribe failed", zap.String("topic", topic), zap.Error(token.Error()))
		return
	}
	c.logger.Info("subscribed", zap.String("topic", topic))
}

// onConnectionLost is a transient event; auto-reconnect will retry
func (c *MQTTClient) onConnectionLost(client mqtt.Client, err error) {
	c.logger.Warn("MQTT connection interrupted", zap.Error(err))
	c.setConnected(false)
}

func (c *MQTTClient) onReconnecting(client mqtt.Client, opts *mqtt.ClientOptions) {
	c.logger.Debug("MQTT reconnecting")
}

// handleCommand decodes a command payload, executes it and publishes the result
func (c *MQTTClient) handleCommand(client mqtt.Client, msg mqtt.Message) {
	var cmd Command
	if err := json.Unmarshal(msg.Payload(), &cmd); err != nil {
		c.logger.Warn("invalid command payload", zap.String("topic", msg.Topic()), zap.Error(err))
		c.publishResult(client, map[string]any{"error": err.Error()})
		return
	}

	res, err := c.handler(cmd)
	if err != nil {
		c.logger.Warn("command failed", zap.String("op", cmd.Op), zap.Error(err))
		c.publishResult(client, map[string]any{"op": cmd.Op, "error": err.Error()})
		return
	}
	c.logger.Debug("command executed", zap.String("op", cmd.Op), zap.Bool("applied", res.Applied))
	c.publishResult(client, res)
}

func (c *MQTTClient) publishResult(client mqtt.Client, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("marshaling command result", zap.Error(err))
		return
	}
	token := client.Publish(c.ResultTopic(), 0, false, payload)
	if token.WaitTimeout(2*time.Second) && token.Error() != nil {
		c.logger.Warn("publishing command result", zap.Error(token.Error()))
	}
}

// IsConnected returns true if the MQTT client is connected
func (c *MQTTClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isConnected
}

func (c *MQTTClient) setConnected(connected bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isConnected = connected
}

// Disconnect stops reconnect attempts and closes the connection
func (c *MQTTClient) Disconnect() {
	c.closeOnce.Do(func() { close(c.done) })
	if c.client != nil && c.client.IsConnected() {
		c.logger.Info("disconnecting from MQTT broker")
		c.client.Disconnect(250)
	}
	c.setConnected(false)
}

// Client returns the underlying MQTT client for publishing
func (c *MQTTClient) Client() mqtt.Client {
	return c.client
}
