package reservations

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Notifier produces seat snapshot streams for presentation collaborators.
// Every emission is a full snapshot, so a dropped emission can never leave
// a subscriber with a stale diff. Emissions are pushed on every ledger
// mutation and refreshed on a fixed interval.
type Notifier struct {
	service  Service
	interval time.Duration

	mu     sync.Mutex
	nextID int
	subs   map[uuid.UUID]map[int]chan *Snapshot
}

func NewNotifier(service Service, interval time.Duration) *Notifier {
	n := &Notifier{
		service:  service,
		interval: interval,
		subs:     make(map[uuid.UUID]map[int]chan *Snapshot),
	}
	service.SetOnChange(n.Publish)
	return n
}

// Subscribe returns a stream of full seat snapshots for a schedule. The
// first snapshot is delivered immediately. The stream is infinite until
// ctx is cancelled; the channel is then closed and the subscription
// removed.
func (n *Notifier) Subscribe(ctx context.Context, scheduleID uuid.UUID) (<-chan *Snapshot, error) {
	snapshot, err := n.service.Snapshot(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	// Capacity one: a pending emission is replaced by a newer full
	// snapshot rather than queued behind it.
	ch := make(chan *Snapshot, 1)
	ch <- snapshot

	n.mu.Lock()
	n.nextID++
	id := n.nextID
	if n.subs[scheduleID] == nil {
		n.subs[scheduleID] = make(map[int]chan *Snapshot)
	}
	n.subs[scheduleID][id] = ch
	n.mu.Unlock()

	go func() {
		<-ctx.Done()
		n.unsubscribe(scheduleID, id)
	}()

	return ch, nil
}

func (n *Notifier) unsubscribe(scheduleID uuid.UUID, id int) {
	n.mu.Lock()
	defer n.mu.Unlock()

	subs, ok := n.subs[scheduleID]
	if !ok {
		return
	}
	ch, ok := subs[id]
	if !ok {
		return
	}
	delete(subs, id)
	if len(subs) == 0 {
		delete(n.subs, scheduleID)
	}
	// Closing under the lock: Publish sends under the same lock, so a
	// send on a closed channel cannot happen.
	close(ch)
}

// Publish pushes a fresh snapshot of the schedule to every subscriber
func (n *Notifier) Publish(scheduleID uuid.UUID) {
	n.mu.Lock()
	hasSubs := len(n.subs[scheduleID]) > 0
	n.mu.Unlock()
	if !hasSubs {
		return
	}

	snapshot, err := n.service.Snapshot(context.Background(), scheduleID)
	if err != nil {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs[scheduleID] {
		offer(ch, snapshot)
	}
}

// offer replaces a stale pending snapshot with the newer one instead of
// blocking the publisher
func offer(ch chan *Snapshot, snapshot *Snapshot) {
	for {
		select {
		case ch <- snapshot:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

// Start runs the interval refresh until ctx is cancelled. Pushes on
// mutation give low latency; the ticker guarantees a bounded staleness
// even for quiet schedules.
func (n *Notifier) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(n.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				n.refreshAll()
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (n *Notifier) refreshAll() {
	n.mu.Lock()
	ids := make([]uuid.UUID, 0, len(n.subs))
	for scheduleID := range n.subs {
		ids = append(ids, scheduleID)
	}
	n.mu.Unlock()

	for _, scheduleID := range ids {
		n.Publish(scheduleID)
	}
}
