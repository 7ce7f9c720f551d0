package realtime

import (
	"context"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/model"
	"github.com/mianjunaid1223/Collab-Studio/internal/telemetry"
	"go.uber.org/zap"
	"golang.org/x/net/websocket"
)

// peer is one live session. Outbound frames go through a bounded queue drained
// by writeLoop, so enqueue never blocks on socket I/O.
type peer struct {
	conn   *websocket.Conn
	author *model.Author
	log    *zap.Logger

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	mu   sync.Mutex
	room *Room
}

func newPeer(conn *websocket.Conn, author *model.Author, buffer int, log *zap.Logger) *peer {
	if buffer <= 0 {
		buffer = 1
	}
	return &peer{
		conn:   conn,
		author: author,
		log:    log,
		send:   make(chan []byte, buffer),
		done:   make(chan struct{}),
	}
}

// enqueue queues an encoded frame. A full queue closes the session; the client
// resyncs when it reconnects.
func (p *peer) enqueue(msg []byte) bool {
	select {
	case <-p.done:
		return false
	default:
	}

	select {
	case p.send <- msg:
		return true
	default:
		p.log.Warn("realtime session too slow, disconnecting", zap.String("author_id", p.author.ID.String()))
		telemetry.RecordSlowConsumer(context.Background())
		p.close()
		return false
	}
}

func (p *peer) sendFrame(f Frame) bool {
	raw, err := sonic.Marshal(f)
	if err != nil {
		p.log.Error("marshal frame", zap.String("type", f.Type), zap.Error(err))
		return false
	}
	return p.enqueue(raw)
}

func (p *peer) sendPayload(typ, requestID string, payload any) bool {
	f, err := NewFrame(typ, requestID, payload)
	if err != nil {
		p.log.Error("build frame", zap.Error(err))
		return false
	}
	return p.sendFrame(f)
}

func (p *peer) sendError(requestID string, e ErrorPayload) bool {
	return p.sendPayload(FrameError, requestID, e)
}

func (p *peer) writeLoop() {
	for {
		select {
		case <-p.done:
			return
		case msg := <-p.send:
			if err := websocket.Message.Send(p.conn, string(msg)); err != nil {
				p.close()
				return
			}
		}
	}
}

func (p *peer) close() {
	p.closeOnce.Do(func() {
		close(p.done)
		_ = p.conn.Close()
	})
}

func (p *peer) closed() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// setRoom records the joined room and returns the previous one.
func (p *peer) setRoom(r *Room) *Room {
	p.mu.Lock()
	defer p.mu.Unlock()
	prev := p.room
	p.room = r
	return prev
}

func (p *peer) currentRoom() *Room {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.room
}
