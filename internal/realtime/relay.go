package realtime

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/model"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Relay fans events out through Redis pub/sub so that every instance delivers
// them to its own sessions. Each project has its own channel; Redis keeps
// publish order per channel, which preserves commit order.
type Relay struct {
	rdb    *redis.Client
	hub    *Hub
	prefix string
	log    *zap.Logger

	ready chan struct{}
}

type relayEnvelope struct {
	ProjectID uuid.UUID           `json:"project_id"`
	Events    []model.CanvasEvent `json:"events"`
}

func NewRelay(rdb *redis.Client, hub *Hub, prefix string, log *zap.Logger) *Relay {
	return &Relay{rdb: rdb, hub: hub, prefix: prefix, log: log, ready: make(chan struct{})}
}

func (r *Relay) channel(projectID uuid.UUID) string {
	return r.prefix + projectID.String()
}

// Broadcast publishes events to the project channel. Delivery to local
// sessions happens when the subscription in Run receives them.
func (r *Relay) Broadcast(ctx context.Context, projectID uuid.UUID, events []model.CanvasEvent) error {
	body, err := sonic.Marshal(relayEnvelope{ProjectID: projectID, Events: events})
	if err != nil {
		return fmt.Errorf("marshal relay envelope: %w", err)
	}
	return r.rdb.Publish(ctx, r.channel(projectID), body).Err()
}

// Ready is closed once Run has subscribed.
func (r *Relay) Ready() <-chan struct{} { return r.ready }

// Run subscribes to every project channel and delivers incoming events until
// ctx is done.
func (r *Relay) Run(ctx context.Context) error {
	sub := r.rdb.PSubscribe(ctx, r.prefix+"*")
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s*: %w", r.prefix, err)
	}
	close(r.ready)
	r.log.Info("realtime relay subscribed", zap.String("pattern", r.prefix+"*"))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return errors.New("relay subscription closed")
			}
			r.handle(ctx, msg)
		}
	}
}

func (r *Relay) handle(ctx context.Context, msg *redis.Message) {
	var env relayEnvelope
	if err := sonic.UnmarshalString(msg.Payload, &env); err != nil {
		r.log.Warn("decode relay message", zap.String("channel", msg.Channel), zap.Error(err))
		return
	}
	if env.ProjectID.String() != strings.TrimPrefix(msg.Channel, r.prefix) {
		r.log.Warn("relay message on wrong channel", zap.String("channel", msg.Channel))
		return
	}
	if err := r.hub.Deliver(ctx, env.ProjectID, env.Events); err != nil {
		r.log.Warn("deliver relay message", zap.String("channel", msg.Channel), zap.Error(err))
	}
}
