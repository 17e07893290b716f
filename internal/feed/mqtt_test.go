package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luftraum/internal/track"
)

type fakeToken struct {
	done chan struct{}
	err  error
}

func doneToken(err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                     { <-t.done; return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type fakeMessage struct {
	mqtt.Message
	topic   string
	payload []byte
}

func (m fakeMessage) Topic() string   { return m.topic }
func (m fakeMessage) Payload() []byte { return m.payload }

type fakeClient struct {
	mqtt.Client
	connectErr   error
	subscribeErr error

	subscribed   chan mqtt.MessageHandler
	topic        string
	qos          byte
	disconnected bool
}

func (f *fakeClient) Connect() mqtt.Token { return doneToken(f.connectErr) }

func (f *fakeClient) Subscribe(topic string, qos byte, cb mqtt.MessageHandler) mqtt.Token {
	f.topic = topic
	f.qos = qos
	if f.subscribeErr == nil {
		f.subscribed <- cb
	}
	return doneToken(f.subscribeErr)
}

func (f *fakeClient) Disconnect(uint) { f.disconnected = true }

func newTestMQTT(t *testing.T, fc *fakeClient, h Handler) *MQTTClient {
	t.Helper()
	c, err := NewMQTTClient(MQTTConfig{
		Name:      "club",
		Host:      "broker.local",
		Topic:     "adsb/sbs",
		Username:  "u",
		Password:  "p",
		KeepAlive: 15 * time.Second,
	}, h)
	require.NoError(t, err)
	c.newClient = func(*mqtt.ClientOptions) mqtt.Client { return fc }
	return c
}

func TestMQTTClientDeliversPayloadsLabelledByTopic(t *testing.T) {
	fc := &fakeClient{subscribed: make(chan mqtt.MessageHandler, 1)}
	store := track.NewStore()
	h := &recordingHandler{next: NewPipeline(store, nil, nil)}
	c := newTestMQTT(t, fc, h)

	cancel, done := runClient(t, c.Run)
	var cb mqtt.MessageHandler
	select {
	case cb = <-fc.subscribed:
	case <-time.After(3 * time.Second):
		t.Fatal("not subscribed")
	}
	assert.Equal(t, "adsb/sbs", fc.topic)
	assert.Equal(t, byte(0), fc.qos)

	cb(fc, fakeMessage{topic: "adsb/sbs", payload: []byte(posLine + "\n")})
	cb(fc, fakeMessage{topic: "adsb/sbs", payload: []byte{0xff, 0xfe, 0x00}})
	cb(fc, fakeMessage{topic: "adsb/sbs", payload: []byte(identLine)})

	assert.Equal(t, "BAW123", store.CallSign("4CA1C2"))
	_, ok := store.LatestPosition("4CA1C2")
	assert.True(t, ok)
	assert.Equal(t, []string{"club|adsb/sbs|" + posLine, "club|adsb/sbs|" + identLine}, h.all())

	snap := c.Snapshot()
	assert.Equal(t, "mqtt", snap.Kind)
	assert.Equal(t, "broker.local:1883", snap.Addr)
	assert.Equal(t, StateStreaming, snap.State)
	assert.Equal(t, uint64(2), snap.Lines)
	assert.Equal(t, uint64(1), snap.Dropped)

	cancel()
	require.NoError(t, waitDone(t, done))
	assert.True(t, fc.disconnected)
	assert.Equal(t, StateStopped, c.Snapshot().State)
}

func TestMQTTClientConnectionLostEndsRun(t *testing.T) {
	fc := &fakeClient{subscribed: make(chan mqtt.MessageHandler, 1)}
	c := newTestMQTT(t, fc, &recordingHandler{})

	cancel, done := runClient(t, c.Run)
	defer cancel()
	<-fc.subscribed

	c.onConnectionLost(fc, errors.New("pingresp not received"))
	err := waitDone(t, done)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pingresp not received")

	snap := c.Snapshot()
	assert.Equal(t, StateDisconnected, snap.State)
	assert.NotEmpty(t, snap.LastError)
}

func TestMQTTClientConnectFailure(t *testing.T) {
	fc := &fakeClient{connectErr: errors.New("not authorized")}
	c := newTestMQTT(t, fc, &recordingHandler{})
	err := c.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not authorized")
}

func TestMQTTClientSubscribeFailure(t *testing.T) {
	fc := &fakeClient{subscribeErr: errors.New("bad topic")}
	c := newTestMQTT(t, fc, &recordingHandler{})
	err := c.Run(context.Background())
	require.Error(t, err)
	assert.True(t, fc.disconnected)
}

func TestMQTTOptions(t *testing.T) {
	c, err := NewMQTTClient(MQTTConfig{Name: "club", Host: "broker.local", Port: 8883, Topic: "t", Username: "u", Password: "p", KeepAlive: 15 * time.Second}, &recordingHandler{})
	require.NoError(t, err)
	o := c.options()
	require.Len(t, o.Servers, 1)
	assert.Equal(t, "tcp://broker.local:8883", o.Servers[0].String())
	assert.Equal(t, "u", o.Username)
	assert.Equal(t, "p", o.Password)
	assert.Equal(t, int64(15), o.KeepAlive)
	assert.False(t, o.AutoReconnect)
}

func TestNewMQTTClientValidates(t *testing.T) {
	_, err := NewMQTTClient(MQTTConfig{Name: "x", Host: "h"}, &recordingHandler{})
	assert.EqualError(t, err, "mqtt feed topic is required")
	_, err = NewMQTTClient(MQTTConfig{Name: "x", Topic: "t"}, &recordingHandler{})
	assert.EqualError(t, err, "mqtt feed host is required")
}
