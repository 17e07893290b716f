package feed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type MQTTConfig struct {
	Name     string
	Host     string
	Port     int
	Topic    string
	Username string
	Password string

	KeepAlive      time.Duration
	ConnectTimeout time.Duration
	ClientID       string

	Metrics *Metrics
}

// MQTTClient subscribes to one topic at QoS 0 and hands every payload to the
// handler, labelled with the topic name.
//
// It connects once. A lost connection ends Run with an error; reconnecting
// is left to the caller.
type MQTTClient struct {
	cfg     MQTTConfig
	handler Handler
	st      status
	running atomic.Bool

	lost chan error

	// newClient is swapped in tests.
	newClient func(*mqtt.ClientOptions) mqtt.Client
}

func NewMQTTClient(cfg MQTTConfig, handler Handler) (*MQTTClient, error) {
	if strings.TrimSpace(cfg.Name) == "" {
		return nil, fmt.Errorf("mqtt feed name is required")
	}
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, fmt.Errorf("mqtt feed host is required")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, fmt.Errorf("mqtt feed topic is required")
	}
	if handler == nil {
		return nil, fmt.Errorf("mqtt feed handler is nil")
	}
	if cfg.Port <= 0 {
		cfg.Port = 1883
	}
	if cfg.KeepAlive <= 0 {
		cfg.KeepAlive = 30 * time.Second
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.ClientID == "" {
		cfg.ClientID = fmt.Sprintf("luftraum-%s-%d", cfg.Name, os.Getpid())
	}
	c := &MQTTClient{cfg: cfg, handler: handler, newClient: mqtt.NewClient}
	c.st.state = StateDisconnected
	return c, nil
}

func (c *MQTTClient) Name() string { return c.cfg.Name }

func (c *MQTTClient) broker() string {
	return "tcp://" + net.JoinHostPort(c.cfg.Host, strconv.Itoa(c.cfg.Port))
}

func (c *MQTTClient) options() *mqtt.ClientOptions {
	return mqtt.NewClientOptions().
		AddBroker(c.broker()).
		SetClientID(c.cfg.ClientID).
		SetUsername(c.cfg.Username).
		SetPassword(c.cfg.Password).
		SetKeepAlive(c.cfg.KeepAlive).
		SetConnectTimeout(c.cfg.ConnectTimeout).
		SetCleanSession(true).
		SetAutoReconnect(false).
		SetConnectRetry(false).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(c.onConnectionLost)
}

// Run connects, subscribes and delivers messages until ctx is done (nil
// error) or the broker connection fails (non-nil error).
func (c *MQTTClient) Run(ctx context.Context) error {
	if c.running.Swap(true) {
		return fmt.Errorf("mqtt feed %s already running", c.cfg.Name)
	}
	defer c.running.Store(false)

	c.lost = make(chan error, 1)
	client := c.newClient(c.options())

	c.st.setState(StateConnecting, "")
	if err := waitToken(ctx, client.Connect()); err != nil {
		return c.fail(ctx, fmt.Errorf("mqtt feed %s connect %s: %w", c.cfg.Name, c.broker(), err))
	}
	if err := waitToken(ctx, client.Subscribe(c.cfg.Topic, 0, c.onMessage)); err != nil {
		client.Disconnect(250)
		return c.fail(ctx, fmt.Errorf("mqtt feed %s subscribe %q: %w", c.cfg.Name, c.cfg.Topic, err))
	}
	c.cfg.Metrics.connect(c.cfg.Name)
	c.st.setState(StateStreaming, "")
	log.Printf("feed %s subscribed broker=%s topic=%s", c.cfg.Name, c.broker(), c.cfg.Topic)

	select {
	case <-ctx.Done():
		client.Disconnect(250)
		c.st.setState(StateStopped, "")
		return nil
	case err := <-c.lost:
		return c.fail(ctx, fmt.Errorf("mqtt feed %s connection lost: %w", c.cfg.Name, err))
	}
}

func (c *MQTTClient) fail(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		c.st.setState(StateStopped, "")
		return nil
	}
	c.cfg.Metrics.disconnect(c.cfg.Name)
	c.st.setState(StateDisconnected, err.Error())
	return err
}

func (c *MQTTClient) onConnect(mqtt.Client) {
	log.Printf("feed %s connected broker=%s", c.cfg.Name, c.broker())
}

func (c *MQTTClient) onConnectionLost(_ mqtt.Client, err error) {
	if err == nil {
		err = errors.New("connection closed")
	}
	log.Printf("feed %s connection lost broker=%s: %v", c.cfg.Name, c.broker(), err)
	select {
	case c.lost <- err:
	default:
	}
}

func (c *MQTTClient) onMessage(_ mqtt.Client, msg mqtt.Message) {
	payload := msg.Payload()
	if !utf8.Valid(payload) {
		c.st.drop()
		return
	}
	line := strings.TrimRight(string(payload), "\r\n")
	if strings.TrimSpace(line) == "" {
		return
	}
	err := c.handler.Ingest(c.cfg.Name, c.cfg.Topic, line)
	c.st.seen(time.Now().UTC(), err != nil)
}

func (c *MQTTClient) Snapshot() Snapshot {
	out := Snapshot{Name: c.cfg.Name, Kind: "mqtt", Addr: net.JoinHostPort(c.cfg.Host, strconv.Itoa(c.cfg.Port)), Topic: c.cfg.Topic}
	c.st.fill(&out)
	return out
}

func waitToken(ctx context.Context, tok mqtt.Token) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-tok.Done():
		return tok.Error()
	}
}
