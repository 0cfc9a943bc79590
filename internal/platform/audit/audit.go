package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/statspub/measures-backend/internal/platform/logger"
)

// Event records a workflow transition or copy operation on a measure
// version. Delivery is fire-and-forget: publish failures are logged, never
// surfaced to the caller.
type Event struct {
	Kind             string    `json:"kind"`
	MeasureID        uuid.UUID `json:"measure_id"`
	MeasureVersionID uuid.UUID `json:"measure_version_id"`
	Version          string    `json:"version"`
	Status           string    `json:"status"`
	Actor            string    `json:"actor,omitempty"`
	At               time.Time `json:"at"`
}

const (
	EventStatusChanged  = "status_changed"
	EventVersionCreated = "version_created"
	EventVersionUpdated = "version_updated"
)

type Sink interface {
	Publish(ctx context.Context, e Event)
}

type redisSink struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

func NewRedisSink(baseLog *logger.Logger) (Sink, error) {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	channel := strings.TrimSpace(os.Getenv("REDIS_AUDIT_CHANNEL"))
	if channel == "" {
		channel = "measure-audit"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisSink{
		log:     baseLog.With("service", "AuditSink"),
		rdb:     rdb,
		channel: channel,
	}, nil
}

func (s *redisSink) Publish(ctx context.Context, e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	raw, err := json.Marshal(e)
	if err != nil {
		s.log.Error("marshal audit event failed", "error", err, "kind", e.Kind)
		return
	}
	if err := s.rdb.Publish(ctx, s.channel, raw).Err(); err != nil {
		s.log.Warn("publish audit event failed", "error", err, "kind", e.Kind)
	}
}

// NopSink drops every event. Used when REDIS_ADDR is not configured.
type NopSink struct{}

func (NopSink) Publish(ctx context.Context, e Event) {}
