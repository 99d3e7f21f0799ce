package docstore

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

// EventType identifies the mutation that produced a change event.
type EventType string

const (
	EventCreate EventType = "create"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
)

// Event is delivered to subscribers on every mutation in a collection.
type Event struct {
	Type       EventType `json:"type"`
	Collection string    `json:"collection"`
	Document   Document  `json:"document"`
}

// Publisher pushes change events out.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// Feed delivers change events per collection. The returned cancel func
// releases the subscription.
type Feed interface {
	Subscribe(ctx context.Context, collection string) (<-chan Event, func(), error)
}

// Notifier decorates a Store so every successful mutation publishes a
// change event. Publish failures are logged, never surfaced: the feed is
// best-effort and subscribers reload wholesale anyway.
type Notifier struct {
	Store
	pub Publisher
}

// WithNotifier wraps a store with change-event publication.
func WithNotifier(s Store, p Publisher) *Notifier {
	return &Notifier{Store: s, pub: p}
}

func (n *Notifier) Create(ctx context.Context, collection string, fields map[string]any) (Document, error) {
	doc, err := n.Store.Create(ctx, collection, fields)
	if err == nil {
		n.emit(ctx, Event{Type: EventCreate, Collection: collection, Document: doc})
	}
	return doc, err
}

func (n *Notifier) Update(ctx context.Context, collection, id string, fields map[string]any) (Document, error) {
	doc, err := n.Store.Update(ctx, collection, id, fields)
	if err == nil {
		n.emit(ctx, Event{Type: EventUpdate, Collection: collection, Document: doc})
	}
	return doc, err
}

func (n *Notifier) Delete(ctx context.Context, collection, id string) error {
	err := n.Store.Delete(ctx, collection, id)
	if err == nil {
		n.emit(ctx, Event{Type: EventDelete, Collection: collection, Document: Document{ID: id}})
	}
	return err
}

func (n *Notifier) emit(ctx context.Context, evt Event) {
	if n.pub == nil {
		return
	}
	if err := n.pub.Publish(ctx, evt); err != nil {
		log.Printf("change event publish failed: %v", err)
	}
}

// RedisFeed publishes and subscribes change events over Redis pub/sub,
// one channel per collection.
type RedisFeed struct {
	client *redis.Client
	prefix string
}

// NewRedisFeed creates a feed on the given client.
func NewRedisFeed(client *redis.Client, prefix string) *RedisFeed {
	if prefix == "" {
		prefix = "clubsched:changes:"
	}
	return &RedisFeed{client: client, prefix: prefix}
}

// Publish sends an event to the collection's channel.
func (f *RedisFeed) Publish(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return f.client.Publish(ctx, f.prefix+evt.Collection, payload).Err()
}

// Subscribe streams events for one collection until cancelled.
func (f *RedisFeed) Subscribe(ctx context.Context, collection string) (<-chan Event, func(), error) {
	ps := f.client.Subscribe(ctx, f.prefix+collection)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, transport(err)
	}
	out := make(chan Event)
	go func() {
		defer close(out)
		for msg := range ps.Channel() {
			var evt Event
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				log.Printf("change event decode failed: %v", err)
				continue
			}
			select {
			case out <- evt:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, func() { _ = ps.Close() }, nil
}

// Broker is an in-process Publisher+Feed for memory-backed deployments
// and tests.
type Broker struct {
	mu   sync.Mutex
	next int
	subs map[string]map[int]chan Event
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[int]chan Event)}
}

// Publish fans the event out to current subscribers without blocking;
// slow subscribers drop events and rely on wholesale reload.
func (b *Broker) Publish(ctx context.Context, evt Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs[evt.Collection] {
		select {
		case ch <- evt:
		default:
		}
	}
	return nil
}

// Subscribe registers a buffered subscriber for one collection.
func (b *Broker) Subscribe(ctx context.Context, collection string) (<-chan Event, func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[collection] == nil {
		b.subs[collection] = make(map[int]chan Event)
	}
	id := b.next
	b.next++
	ch := make(chan Event, 16)
	b.subs[collection][id] = ch
	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[collection][id]; ok {
			delete(b.subs[collection], id)
			close(ch)
		}
	}
	return ch, cancel, nil
}
