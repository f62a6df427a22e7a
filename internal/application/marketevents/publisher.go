package marketevents

import (
	"context"
	"encoding/json"

	"nftmarket-backend/internal/domain"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Publisher hands committed events to external indexers. Publishing is best effort: the events
// are already durable in market_events, so failures are logged and not returned.
type Publisher interface {
	Publish(ctx context.Context, events []domain.MarketEvent)
}

const (
	DefaultChannel    = "market:events"
	DefaultHistoryKey = "market:events:recent"
	defaultHistoryLen = 500
)

// RedisPublisher publishes each event on a pub/sub channel and keeps a capped list of the most
// recent events for consumers that connect late.
type RedisPublisher struct {
	Rdb        *redis.Client
	Channel    string
	HistoryKey string
	HistoryLen int64
}

func (p *RedisPublisher) Publish(ctx context.Context, events []domain.MarketEvent) {
	if p == nil || p.Rdb == nil || len(events) == 0 {
		return
	}
	channel := p.Channel
	if channel == "" {
		channel = DefaultChannel
	}
	historyKey := p.HistoryKey
	if historyKey == "" {
		historyKey = DefaultHistoryKey
	}
	historyLen := p.HistoryLen
	if historyLen <= 0 {
		historyLen = defaultHistoryLen
	}

	pipe := p.Rdb.TxPipeline()
	for _, ev := range events {
		b, err := json.Marshal(ev)
		if err != nil {
			log.Warn().Err(err).Str("kind", ev.Kind).Msg("market event encode failed")
			continue
		}
		pipe.Publish(ctx, channel, b)
		pipe.LPush(ctx, historyKey, b)
	}
	pipe.LTrim(ctx, historyKey, 0, historyLen-1)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Warn().Err(err).Int("events", len(events)).Msg("market event publish failed")
	}
}

// Recent returns up to n of the most recently published events, newest first.
func (p *RedisPublisher) Recent(ctx context.Context, n int64) ([]domain.MarketEvent, error) {
	historyKey := p.HistoryKey
	if historyKey == "" {
		historyKey = DefaultHistoryKey
	}
	raw, err := p.Rdb.LRange(ctx, historyKey, 0, n-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.MarketEvent, 0, len(raw))
	for _, s := range raw {
		var ev domain.MarketEvent
		if err := json.Unmarshal([]byte(s), &ev); err != nil {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}
