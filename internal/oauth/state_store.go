package oauth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// StateTTL bounds the time between the consent redirect and the callback.
const StateTTL = 10 * time.Minute

var ErrInvalidState = errors.New("invalid or expired state")

// StateStore keeps pending OAuth states in Redis so any instance can serve
// the callback.
type StateStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStateStore(client *redis.Client) *StateStore {
	return &StateStore{client: client, ttl: StateTTL}
}

// Issue generates a state bound to provider.
func (s *StateStore) Issue(ctx context.Context, provider string) (string, error) {
	state, err := GenerateState()
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, stateKey(state), provider, s.ttl).Err(); err != nil {
		return "", err
	}
	return state, nil
}

// Consume deletes the state and checks it was issued for provider. A state
// can be used once.
func (s *StateStore) Consume(ctx context.Context, state, provider string) error {
	if state == "" {
		return ErrInvalidState
	}

	stored, err := s.client.GetDel(ctx, stateKey(state)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrInvalidState
	}
	if err != nil {
		return err
	}
	if stored != provider {
		return ErrInvalidState
	}
	return nil
}

func stateKey(state string) string {
	return "oauth:state:" + state
}
