package realtime

import (
	"context"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/model"
	"github.com/mianjunaid1223/Collab-Studio/internal/telemetry"
	"go.uber.org/zap"
)

// Room is the set of sessions joined to one project.
type Room struct {
	id uuid.UUID

	mu    sync.RWMutex
	peers map[*peer]struct{}
}

func (r *Room) add(p *peer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.peers[p] = struct{}{}
}

// remove reports whether the room is empty afterwards.
func (r *Room) remove(p *peer) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.peers, p)
	return len(r.peers) == 0
}

func (r *Room) snapshot() []*peer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*peer, 0, len(r.peers))
	for p := range r.peers {
		out = append(out, p)
	}
	return out
}

// Hub is the registry of rooms on this instance. It implements
// service.Broadcaster for single-instance deployments.
type Hub struct {
	log *zap.Logger

	mu    sync.Mutex
	rooms map[uuid.UUID]*Room
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{log: log, rooms: make(map[uuid.UUID]*Room)}
}

// join moves p into the room of projectID, leaving its previous room.
func (h *Hub) join(p *peer, projectID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[projectID]
	if !ok {
		r = &Room{id: projectID, peers: make(map[*peer]struct{})}
		h.rooms[projectID] = r
	}
	if prev := p.setRoom(r); prev != nil && prev != r {
		h.dropLocked(prev, p)
	}
	r.add(p)
}

// leave removes p from its current room, if any.
func (h *Hub) leave(p *peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if prev := p.setRoom(nil); prev != nil {
		h.dropLocked(prev, p)
	}
}

func (h *Hub) dropLocked(r *Room, p *peer) {
	if r.remove(p) && h.rooms[r.id] == r {
		delete(h.rooms, r.id)
	}
}

// Members returns the number of sessions joined to projectID.
func (h *Hub) Members(projectID uuid.UUID) int {
	h.mu.Lock()
	r, ok := h.rooms[projectID]
	h.mu.Unlock()
	if !ok {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}

func (h *Hub) Broadcast(ctx context.Context, projectID uuid.UUID, events []model.CanvasEvent) error {
	return h.Deliver(ctx, projectID, events)
}

// Deliver enqueues events, in order, to every session joined to projectID on
// this instance.
func (h *Hub) Deliver(ctx context.Context, projectID uuid.UUID, events []model.CanvasEvent) error {
	msgs := make([][]byte, 0, len(events))
	for _, ev := range events {
		f, err := EventFrame(ev)
		if err != nil {
			return err
		}
		raw, err := sonic.Marshal(f)
		if err != nil {
			return err
		}
		msgs = append(msgs, raw)
		telemetry.RecordBroadcast(ctx, string(ev.Kind))
	}

	h.mu.Lock()
	r, ok := h.rooms[projectID]
	h.mu.Unlock()
	if !ok {
		return nil
	}

	for _, p := range r.snapshot() {
		for _, msg := range msgs {
			if !p.enqueue(msg) {
				break
			}
		}
	}
	return nil
}
