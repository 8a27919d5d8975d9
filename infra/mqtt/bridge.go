package mqtt

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/pulse/core/channel"
	"github.com/kilianp07/pulse/core/eventbus"
	"github.com/kilianp07/pulse/core/events"
	"github.com/kilianp07/pulse/core/monitoring"
	"github.com/kilianp07/pulse/infra/logger"
)

// Status is the JSON document published on the status topic.
type Status struct {
	Bus      string  `json:"bus"`
	Frame    uint64  `json:"frame"`
	MeanMS   float64 `json:"mean_ms"`
	StdDevMS float64 `json:"stddev_ms"`
	Samples  int     `json:"samples"`
	Time     int64   `json:"timestamp"`
}

// Bridge is an eventbus Observer connecting a bus to an MQTT broker.
type Bridge struct {
	cli pahoClient
	cfg Config
	log logger.Logger
	now func() time.Time

	mu      sync.RWMutex
	bus     string
	tx      channel.Sender[events.RemoteMessage]
	dropped int

	// pending holds the newest status payload not yet taken by the publisher.
	pending   chan []byte
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewBridge connects to the broker and starts the status publisher. The
// command topic is subscribed on every (re)connection. Messages received
// before Attach are dropped.
func NewBridge(cfg Config, log logger.Logger) (*Bridge, error) {
	cfg.SetDefaults()
	if log == nil {
		log = logger.New("mqtt_bridge")
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	br := &Bridge{
		cfg:     cfg,
		log:     log,
		now:     time.Now,
		pending: make(chan []byte, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		if token := c.Subscribe(cfg.CommandTopic, cfg.qos("command"), br.onCommand); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe error: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	br.cli = c
	go br.runPublisher()
	return br, nil
}

// Attach requests the RemoteMessage sender and registers a last callback
// publishing the newest frame timing.
func (br *Bridge) Attach(b *eventbus.Bus) {
	br.mu.Lock()
	br.bus = b.Name()
	br.tx = eventbus.RequestSender[events.RemoteMessage](b)
	br.mu.Unlock()
	eventbus.Last(b, br.publishStatus)
}

// Update is a no-op: commands are pushed as they arrive.
func (br *Bridge) Update() {}

// Dropped returns the number of commands received before Attach.
func (br *Bridge) Dropped() int {
	br.mu.RLock()
	defer br.mu.RUnlock()
	return br.dropped
}

func (br *Bridge) onCommand(_ paho.Client, msg paho.Message) {
	defer monitoring.Recover()
	payload := append([]byte(nil), msg.Payload()...)
	br.mu.Lock()
	tx := br.tx
	if !tx.Valid() {
		br.dropped++
	}
	br.mu.Unlock()
	tx.Push(events.RemoteMessage{Topic: msg.Topic(), Payload: payload, Received: br.now()})
}

func (br *Bridge) publishStatus(ft events.FrameTiming) {
	br.mu.RLock()
	bus := br.bus
	br.mu.RUnlock()
	st := Status{
		Bus:      bus,
		Frame:    ft.Frame,
		MeanMS:   float64(ft.Mean.Microseconds()) / 1000,
		StdDevMS: float64(ft.StdDev.Microseconds()) / 1000,
		Samples:  ft.Samples,
		Time:     br.now().UnixMilli(),
	}
	payload, err := json.Marshal(st)
	if err != nil {
		br.log.Errorf("encode status: %v", err)
		return
	}
	br.offer(payload)
}

// offer hands payload to the publisher without blocking the frame goroutine.
// A payload still waiting is replaced by the newer one.
func (br *Bridge) offer(payload []byte) {
	select {
	case br.pending <- payload:
		return
	default:
	}
	select {
	case <-br.pending:
	default:
	}
	// The frame goroutine is the only sender, so the slot is free now.
	br.pending <- payload
}

func (br *Bridge) runPublisher() {
	defer close(br.done)
	defer monitoring.Recover()
	for {
		select {
		case <-br.stop:
			return
		case payload := <-br.pending:
			if err := br.publish(br.cfg.StatusTopic, br.cfg.qos("status"), payload); err != nil {
				monitoring.CaptureException(err, map[string]string{"module": "mqtt", "topic": br.cfg.StatusTopic})
			}
		}
	}
}

func (br *Bridge) publish(topic string, qos byte, payload []byte) error {
	retries := br.cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	backoff := time.Duration(br.cfg.BackoffMS) * time.Millisecond
	if backoff <= 0 {
		backoff = 10 * time.Millisecond
	}
	timeout := time.Duration(br.cfg.PublishTimeoutMS) * time.Millisecond
	var publishErr error
	for attempt := 0; attempt <= retries; attempt++ {
		token := br.cli.Publish(topic, qos, false, payload)
		if token.WaitTimeout(timeout) {
			publishErr = token.Error()
		} else {
			publishErr = fmt.Errorf("publish on %s timed out after %s", topic, timeout)
		}
		if publishErr == nil {
			br.log.Debugf("published status on %s", topic)
			return nil
		}
		br.log.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		if attempt < retries {
			select {
			case <-br.stop:
				return publishErr
			case <-time.After(backoff * time.Duration(1<<attempt)):
			}
		}
	}
	return publishErr
}

// Close stops the status publisher and closes the MQTT connection. A status
// still waiting to be published is dropped.
func (br *Bridge) Close() error {
	br.closeOnce.Do(func() {
		close(br.stop)
		<-br.done
		if br.cli != nil && br.cli.IsConnected() {
			br.cli.Disconnect(250)
		}
	})
	return nil
}
