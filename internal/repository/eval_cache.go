package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"chess_review/internal/usecase/analysis"
)

const evalKeyPrefix = "eval:"

type redisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisEvalCache keeps the deepest finished search per FEN for ttl.
type RedisEvalCache struct {
	redis redisKV
	ttl   time.Duration
	log   *zap.SugaredLogger
}

func NewRedisEvalCache(client redisKV, ttl time.Duration, log *zap.SugaredLogger) *RedisEvalCache {
	return &RedisEvalCache{
		redis: client,
		ttl:   ttl,
		log:   log,
	}
}

func evalKey(fen string) string {
	return evalKeyPrefix + fen
}

func (c *RedisEvalCache) Load(ctx context.Context, fen string) (analysis.CachedEval, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	raw, err := c.redis.Get(ctx, evalKey(fen)).Bytes()
	if errors.Is(err, redis.Nil) {
		return analysis.CachedEval{}, false, nil
	}
	if err != nil {
		return analysis.CachedEval{}, false, fmt.Errorf("redis get eval: %w", err)
	}

	var cached analysis.CachedEval
	if err := json.Unmarshal(raw, &cached); err != nil {
		c.log.Warnw("dropping unreadable cached eval", "fen", fen, "error", err)
		return analysis.CachedEval{}, false, nil
	}
	return cached, true, nil
}

func (c *RedisEvalCache) Save(ctx context.Context, eval analysis.CachedEval) error {
	existing, ok, err := c.Load(ctx, eval.FEN)
	if err != nil {
		return err
	}
	if ok && existing.Depth > eval.Depth {
		return nil
	}

	raw, err := json.Marshal(eval)
	if err != nil {
		return fmt.Errorf("marshal eval: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.redis.Set(ctx, evalKey(eval.FEN), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set eval: %w", err)
	}
	c.log.Debugw("eval cached", "fen", eval.FEN, "depth", eval.Depth)
	return nil
}
