// Package chat maintains the kiosk's chat-message feed over MQTT. Messages
// arrive on broker callbacks and are buffered behind a mutex; the refresh
// task only ever asks for the formatted display text.
package chat

import (
	"fmt"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/lielu/kioskd/internal/kv"
)

// DefaultKeep is how many recent messages the feed retains.
const DefaultKeep = 5

// backlogKey is where the recent messages live in the kv bucket.
const backlogKey = "backlog"

// backlogTTL bounds how old a restored backlog may be.
const backlogTTL = 24 * time.Hour

// Feed is the chat data provider. Connection-state aware: until the broker
// connection is up DisplayText reports that instead of stale silence.
type Feed struct {
	client paho.Client
	topic  string
	title  string

	mu       sync.Mutex
	messages []string
	keep     int
	cache    kv.Bucket
}

// NewFeed creates a feed subscribed to topic on the given broker. The
// connection retries in the background; a broker that is down at startup
// does not fail the kiosk. cache may be nil; then the backlog lives only
// for the process lifetime.
func NewFeed(broker, topic, clientID string, cache kv.Bucket) *Feed {
	f := &Feed{topic: topic, title: "Chat:", keep: DefaultKeep, cache: cache}
	f.restore()

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(f.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Warn().Err(err).Msg("Chat broker connection lost")
		})

	f.client = paho.NewClient(opts)
	return f
}

// Start begins connecting. Non-blocking.
func (f *Feed) Start() {
	token := f.client.Connect()
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			log.Warn().Err(err).Msg("Chat broker connect failed, retrying in background")
		}
	}()
}

func (f *Feed) onConnect(c paho.Client) {
	log.Info().Str("topic", f.topic).Msg("Chat broker connected, subscribing")
	if token := c.Subscribe(f.topic, 0, f.onMessage); token.Wait() && token.Error() != nil {
		log.Error().Err(token.Error()).Str("topic", f.topic).Msg("Chat subscribe failed")
	}
}

func (f *Feed) onMessage(_ paho.Client, msg paho.Message) {
	text := strings.TrimSpace(string(msg.Payload()))
	if text == "" {
		return
	}

	f.mu.Lock()
	f.messages = append(f.messages, text)
	if len(f.messages) > f.keep {
		f.messages = f.messages[len(f.messages)-f.keep:]
	}
	backlog := append([]string(nil), f.messages...)
	f.mu.Unlock()

	f.persist(backlog)
}

// restore pulls the persisted backlog so a restart does not come up with
// an empty chat pane.
func (f *Feed) restore() {
	if f.cache == nil {
		return
	}
	var backlog []string
	ok, err := f.cache.Get(backlogKey, &backlog)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read chat backlog")
		return
	}
	if ok && len(backlog) > 0 {
		if len(backlog) > f.keep {
			backlog = backlog[len(backlog)-f.keep:]
		}
		f.messages = backlog
		log.Info().Int("messages", len(backlog)).Msg("Restored chat backlog")
	}
}

func (f *Feed) persist(backlog []string) {
	if f.cache == nil {
		return
	}
	if err := f.cache.Store(backlogKey, backlog, backlogTTL); err != nil {
		log.Warn().Err(err).Msg("Failed to persist chat backlog")
	}
}

// DisplayText formats the feed for the render surface.
func (f *Feed) DisplayText() string {
	if !f.client.IsConnected() {
		return f.title + "\n(connecting…)"
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.messages) == 0 {
		return f.title + "\n(no messages)"
	}
	return f.title + "\n" + strings.Join(f.messages, "\n")
}

// Close disconnects from the broker.
func (f *Feed) Close() {
	f.client.Disconnect(1000)
}

// Disabled is the feed used when no broker is configured.
type Disabled struct{}

// DisplayText reports the feature as off.
func (Disabled) DisplayText() string {
	return "Chat:\n(not configured)"
}

// ClientID builds a reasonably unique MQTT client id.
func ClientID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().Unix())
}
