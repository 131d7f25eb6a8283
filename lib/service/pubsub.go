package service

import (
	"sync"

	"github.com/getAlby/lnpay.go/db/models"
	"github.com/google/uuid"
)

// Pubsub fans events out to registered listeners. Publishing never blocks:
// a listener whose buffer is full misses the event.
type Pubsub struct {
	mu   sync.RWMutex
	subs map[string]map[string]chan models.InvoiceEvent
}

func NewPubsub() *Pubsub {
	ps := &Pubsub{}
	ps.subs = make(map[string]map[string]chan models.InvoiceEvent)
	return ps
}

func (ps *Pubsub) Subscribe(topic string, ch chan models.InvoiceEvent) (subId string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.subs[topic] == nil {
		ps.subs[topic] = make(map[string]chan models.InvoiceEvent)
	}
	subId = uuid.NewString()
	ps.subs[topic][subId] = ch
	return subId
}

// Unsubscribe removes the listener and closes its channel. Calling it twice is a no-op.
func (ps *Pubsub) Unsubscribe(id string, topic string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.subs[topic] == nil {
		return
	}
	if ps.subs[topic][id] == nil {
		return
	}
	close(ps.subs[topic][id])
	delete(ps.subs[topic], id)
}

// Publish delivers msg to every listener of topic and returns how many received it.
func (ps *Pubsub) Publish(topic string, msg models.InvoiceEvent) (delivered int) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	for _, ch := range ps.subs[topic] {
		select {
		case ch <- msg:
			delivered++
		default:
		}
	}
	return delivered
}

func (ps *Pubsub) CountListeners(topic string) int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.subs[topic])
}
