package settings

import (
	"context"
	"errors"
	"testing"
)

type mockRepo struct {
	rows    map[string]map[string]string
	failGet bool
}

func newMockRepo() *mockRepo {
	return &mockRepo{rows: map[string]map[string]string{}}
}

func (m *mockRepo) Get(ctx context.Context, owner string) (map[string]string, error) {
	if m.failGet {
		return nil, errors.New("connection refused")
	}
	out := map[string]string{}
	for k, v := range m.rows[owner] {
		out[k] = v
	}
	return out, nil
}

func (m *mockRepo) Set(ctx context.Context, owner, key, value string) error {
	if m.rows[owner] == nil {
		m.rows[owner] = map[string]string{}
	}
	m.rows[owner][key] = value
	return nil
}

func (m *mockRepo) Delete(ctx context.Context, owner, key string) error {
	delete(m.rows[owner], key)
	return nil
}

func TestEffective_Precedence(t *testing.T) {
	repo := newMockRepo()
	repo.rows["u1"] = map[string]string{
		"BING_API_KEY": "stored-bing",
		"SENDER_NAME":  "Stored Name",
	}
	svc := NewService(repo, map[string]string{
		"BING_API_KEY":   "env-bing",
		"PEOPLE_API_KEY": "env-people",
	})

	got, err := svc.Effective(context.Background(), "u1", map[string]string{
		"SENDER_NAME": "Request Name",
	})
	if err != nil {
		t.Fatalf("Effective: %v", err)
	}

	want := map[string]string{
		"BING_API_KEY":   "stored-bing",
		"PEOPLE_API_KEY": "env-people",
		"SENDER_NAME":    "Request Name",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("key %s = %q, want %q", k, got[k], v)
		}
	}
}

func TestEffective_EmptyOverrideIgnored(t *testing.T) {
	svc := NewService(newMockRepo(), map[string]string{"SENDER_EMAIL": "me@corp.com"})

	got, err := svc.Effective(context.Background(), "", map[string]string{"SENDER_EMAIL": ""})
	if err != nil {
		t.Fatalf("Effective: %v", err)
	}
	if got["SENDER_EMAIL"] != "me@corp.com" {
		t.Errorf("empty override must not clear the key, got %q", got["SENDER_EMAIL"])
	}
}

func TestEffective_RepoErrorPropagates(t *testing.T) {
	repo := newMockRepo()
	repo.failGet = true
	if _, err := NewService(repo, nil).Effective(context.Background(), "u1", nil); err == nil {
		t.Error("expected repository error to propagate")
	}
}

func TestUpdate_SetAndDelete(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)

	err := svc.Update(context.Background(), "u1", map[string]string{"BING_API_KEY": "abc"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if repo.rows["u1"]["BING_API_KEY"] != "abc" {
		t.Errorf("stored rows: %+v", repo.rows["u1"])
	}

	err = svc.Update(context.Background(), "u1", map[string]string{"BING_API_KEY": ""})
	if err != nil {
		t.Fatalf("Update delete: %v", err)
	}
	if _, ok := repo.rows["u1"]["BING_API_KEY"]; ok {
		t.Error("empty value must delete the stored row")
	}
}

func TestUpdate_EmptyKeyRejected(t *testing.T) {
	svc := NewService(newMockRepo(), nil)
	if err := svc.Update(context.Background(), "u1", map[string]string{" ": "x"}); err == nil {
		t.Error("expected error for empty key")
	}
}

func TestMaskSecrets(t *testing.T) {
	got := MaskSecrets(map[string]string{
		"BING_API_KEY": "abcdef123456",
		"SENDER_NAME":  "Jane Roe",
		"PASSWORD":     "pw",
	})
	if got["BING_API_KEY"] != "abcd****" {
		t.Errorf("BING_API_KEY = %q", got["BING_API_KEY"])
	}
	if got["SENDER_NAME"] != "Jane Roe" {
		t.Errorf("non-secret value must pass through, got %q", got["SENDER_NAME"])
	}
	if got["PASSWORD"] != "****" {
		t.Errorf("short secret = %q", got["PASSWORD"])
	}
}
