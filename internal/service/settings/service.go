package settings

import (
	"context"
	"fmt"
	"strings"
)

// Repository persists per-owner setting rows.
type Repository interface {
	Get(ctx context.Context, owner string) (map[string]string, error)
	Set(ctx context.Context, owner, key, value string) error
	Delete(ctx context.Context, owner, key string) error
}

// Service layers stored settings over process-level configuration.
type Service struct {
	repo Repository
	base map[string]string
}

// NewService creates a settings service. base holds the process-level
// values (from environment or config file) that stored rows override.
func NewService(repo Repository, base map[string]string) *Service {
	if base == nil {
		base = map[string]string{}
	}
	return &Service{repo: repo, base: base}
}

// Stored returns the raw stored values for an owner, without the process
// layer.
func (s *Service) Stored(ctx context.Context, owner string) (map[string]string, error) {
	return s.repo.Get(ctx, owner)
}

// Effective merges the three configuration layers for an owner. Later
// layers win: process config, then stored rows, then per-request
// overrides. Empty override values are ignored rather than clearing a
// key.
func (s *Service) Effective(ctx context.Context, owner string, overrides map[string]string) (map[string]string, error) {
	stored, err := s.repo.Get(ctx, owner)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(s.base)+len(stored)+len(overrides))
	for k, v := range s.base {
		if v != "" {
			out[k] = v
		}
	}
	for k, v := range stored {
		if v != "" {
			out[k] = v
		}
	}
	for k, v := range overrides {
		if v != "" {
			out[k] = v
		}
	}
	return out, nil
}

// Update writes a batch of settings for an owner. An empty value deletes
// the stored row, falling back to the process layer.
func (s *Service) Update(ctx context.Context, owner string, values map[string]string) error {
	for k, v := range values {
		k = strings.TrimSpace(k)
		if k == "" {
			return fmt.Errorf("setting key must not be empty")
		}
		if strings.TrimSpace(v) == "" {
			if err := s.repo.Delete(ctx, owner, k); err != nil {
				return err
			}
			continue
		}
		if err := s.repo.Set(ctx, owner, k, v); err != nil {
			return err
		}
	}
	return nil
}

// MaskSecrets returns a copy of values with credentials replaced by a
// short prefix. A key counts as secret when it names a key, token,
// secret, or password.
func MaskSecrets(values map[string]string) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		if isSecretKey(k) && v != "" {
			out[k] = mask(v)
		} else {
			out[k] = v
		}
	}
	return out
}

func isSecretKey(key string) bool {
	k := strings.ToLower(key)
	for _, marker := range []string{"key", "token", "secret", "password"} {
		if strings.Contains(k, marker) {
			return true
		}
	}
	return false
}

func mask(v string) string {
	if len(v) <= 4 {
		return "****"
	}
	return v[:4] + strings.Repeat("*", 4)
}
