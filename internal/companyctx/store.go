package companyctx

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockhub-backend/internal/companies"
	"github.com/angelmondragon/stockhub-backend/pkg/config"
	"github.com/angelmondragon/stockhub-backend/pkg/enums"
)

const (
	companyField    = "company"
	permissionField = "permission"
)

// PersistedSelection is what survives between requests. It is a hint only;
// the permission is always re-resolved before use.
type PersistedSelection struct {
	Company    companies.CompanyDTO
	Permission enums.Permission
}

// SelectionStore persists one selection per user.
type SelectionStore interface {
	Load(ctx context.Context, userID uuid.UUID) (*PersistedSelection, error)
	Save(ctx context.Context, userID uuid.UUID, selection PersistedSelection) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

type keyValueStore interface {
	MGet(ctx context.Context, keys ...string) ([]string, []bool, error)
	SetAll(ctx context.Context, values map[string]string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	SelectionKey(prefix, userID, field string) string
}

// RedisStore keeps the selection in two keys, the serialized company and
// the permission string, written together with a shared TTL.
type RedisStore struct {
	kv     keyValueStore
	prefix string
	ttl    time.Duration
}

// NewRedisStore builds a selection store over the redis client.
func NewRedisStore(kv keyValueStore, cfg config.CompanyContextConfig) (*RedisStore, error) {
	if kv == nil {
		return nil, errors.New("redis client required")
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "company_ctx"
	}
	return &RedisStore{kv: kv, prefix: prefix, ttl: cfg.SelectionTTL}, nil
}

func (s *RedisStore) keys(userID uuid.UUID) (string, string) {
	id := userID.String()
	return s.kv.SelectionKey(s.prefix, id, companyField), s.kv.SelectionKey(s.prefix, id, permissionField)
}

// Load returns nil without error when nothing usable is stored. Partial or
// unreadable values are dropped.
func (s *RedisStore) Load(ctx context.Context, userID uuid.UUID) (*PersistedSelection, error) {
	companyKey, permissionKey := s.keys(userID)
	values, present, err := s.kv.MGet(ctx, companyKey, permissionKey)
	if err != nil {
		return nil, err
	}
	if len(present) < 2 || (!present[0] && !present[1]) {
		return nil, nil
	}
	if !present[0] || !present[1] {
		return nil, s.kv.Del(ctx, companyKey, permissionKey)
	}

	var company companies.CompanyDTO
	if err := json.Unmarshal([]byte(values[0]), &company); err != nil || company.ID == uuid.Nil {
		return nil, s.kv.Del(ctx, companyKey, permissionKey)
	}
	permission, err := enums.ParsePermission(values[1])
	if err != nil {
		return nil, s.kv.Del(ctx, companyKey, permissionKey)
	}
	return &PersistedSelection{Company: company, Permission: permission}, nil
}

// Save writes both keys atomically.
func (s *RedisStore) Save(ctx context.Context, userID uuid.UUID, selection PersistedSelection) error {
	payload, err := json.Marshal(selection.Company)
	if err != nil {
		return err
	}
	companyKey, permissionKey := s.keys(userID)
	return s.kv.SetAll(ctx, map[string]string{
		companyKey:    string(payload),
		permissionKey: selection.Permission.String(),
	}, s.ttl)
}

// Clear removes both keys.
func (s *RedisStore) Clear(ctx context.Context, userID uuid.UUID) error {
	companyKey, permissionKey := s.keys(userID)
	return s.kv.Del(ctx, companyKey, permissionKey)
}
