package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"jee-solver/internal/constants"
	"jee-solver/internal/models"
	"jee-solver/pkg/cache"
)

type keyValueStore interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	GetDel(ctx context.Context, key string) (string, error)
}

// HandoffRepository keeps prepared quizzes in Redis until a session
// consumes them. Each payload can be taken once.
type HandoffRepository struct {
	kv  keyValueStore
	ttl time.Duration
}

func NewHandoffRepository(kv keyValueStore, ttl time.Duration) *HandoffRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &HandoffRepository{kv: kv, ttl: ttl}
}

func (r *HandoffRepository) Put(ctx context.Context, quiz *models.Quiz) (string, error) {
	payload, err := json.Marshal(quiz)
	if err != nil {
		return "", fmt.Errorf("failed to marshal quiz: %w", err)
	}
	id := uuid.New().String()
	if err := r.kv.Set(ctx, constants.HandoffKeyPrefix+id, payload, r.ttl); err != nil {
		return "", fmt.Errorf("failed to store handoff: %w", err)
	}
	return id, nil
}

func (r *HandoffRepository) Take(ctx context.Context, id string) ([]byte, error) {
	val, err := r.kv.GetDel(ctx, constants.HandoffKeyPrefix+id)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to take handoff: %w", err)
	}
	return []byte(val), nil
}
