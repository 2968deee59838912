package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/viha/freshmart-api/internal/redisx"
)

// Store persists ledgers to Redis, one JSON blob per session. Persistence is
// best effort: cart semantics never depend on it.
type Store struct {
	Redis *redis.Client
}

func (s *Store) Save(ctx context.Context, sessionID string, lines []Line) error {
	b, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("marshal cart %s: %w", sessionID, err)
	}
	key := fmt.Sprintf(redisx.KeyCartSession, sessionID)
	return s.Redis.Set(ctx, key, b, redisx.TTLCartSession).Err()
}

// Load returns nil lines (not an error) when no cart is stored.
func (s *Store) Load(ctx context.Context, sessionID string) ([]Line, error) {
	key := fmt.Sprintf(redisx.KeyCartSession, sessionID)
	b, err := s.Redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var lines []Line
	if err := json.Unmarshal(b, &lines); err != nil {
		return nil, fmt.Errorf("decode cart %s: %w", sessionID, err)
	}
	return lines, nil
}

func (s *Store) Delete(ctx context.Context, sessionID string) error {
	return s.Redis.Del(ctx, fmt.Sprintf(redisx.KeyCartSession, sessionID)).Err()
}
