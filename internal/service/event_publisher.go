package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"downloader-api/internal/entity"
)

// RedisPublisher fans job events out over Redis.
// Publish: PUBLISH channel <event>
// Finished events are also kept in a capped list: LPUSH recentKey + LTRIM.
type RedisPublisher struct {
	rdb         redis.UniversalClient
	channel     string
	recentKey   string
	recentLimit int64
}

func NewRedisPublisher(rdb redis.UniversalClient, channel, recentKey string, recentLimit int) *RedisPublisher {
	if recentLimit <= 0 {
		recentLimit = 100
	}
	return &RedisPublisher{
		rdb:         rdb,
		channel:     channel,
		recentKey:   recentKey,
		recentLimit: int64(recentLimit),
	}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev entity.JobEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	pipe := p.rdb.TxPipeline()
	pipe.Publish(ctx, p.channel, payload)
	if ev.Type == entity.EventFinished && p.recentKey != "" {
		pipe.LPush(ctx, p.recentKey, payload)
		pipe.LTrim(ctx, p.recentKey, 0, p.recentLimit-1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Recent returns up to limit finished records, newest first.
func (p *RedisPublisher) Recent(ctx context.Context, limit int) ([]entity.Job, error) {
	if p.recentKey == "" {
		return nil, nil
	}
	raw, err := p.rdb.LRange(ctx, p.recentKey, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis recent: %w", err)
	}

	out := make([]entity.Job, 0, len(raw))
	for _, item := range raw {
		var ev entity.JobEvent
		if err := json.Unmarshal([]byte(item), &ev); err != nil {
			continue
		}
		out = append(out, ev.Job)
	}
	return out, nil
}

// Subscribe streams events from the channel until ctx is done.
func (p *RedisPublisher) Subscribe(ctx context.Context, fn func(entity.JobEvent)) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe: %w", err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev entity.JobEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				continue
			}
			fn(ev)
		}
	}
}
