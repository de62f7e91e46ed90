package credential

import (
	"context"
	"errors"
	"testing"
)

type memKV map[string]string

func (m memKV) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}

func (m memKV) Set(ctx context.Context, key, value string) error {
	m[key] = value
	return nil
}

func (m memKV) Delete(ctx context.Context, key string) error {
	delete(m, key)
	return nil
}

type failingKV struct{}

func (failingKV) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, errors.New("disk gone")
}

func (failingKV) Set(ctx context.Context, key, value string) error {
	return errors.New("disk gone")
}

func (failingKV) Delete(ctx context.Context, key string) error {
	return errors.New("disk gone")
}

func TestSaveLoadClear(t *testing.T) {
	ctx := context.Background()
	kv := memKV{}
	s := New(kv)

	if key, err := s.Load(ctx); err != nil || key != "" {
		t.Fatalf("expected no key, got %q %v", key, err)
	}
	saved, err := s.Save(ctx, "  abc123  ")
	if err != nil || saved != "abc123" {
		t.Fatalf("expected trimmed key, got %q %v", saved, err)
	}
	if kv[Key] != "abc123" {
		t.Fatalf("expected key under %q, got %v", Key, kv)
	}
	if key, _ := s.Load(ctx); key != "abc123" {
		t.Fatalf("expected stored key, got %q", key)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if key, _ := s.Load(ctx); key != "" {
		t.Fatalf("expected cleared key, got %q", key)
	}
}

func TestSaveRejectsBlank(t *testing.T) {
	s := New(memKV{})
	if _, err := s.Save(context.Background(), "   "); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

func TestStorageErrorsWrapped(t *testing.T) {
	s := New(failingKV{})
	if _, err := s.Load(context.Background()); err == nil {
		t.Fatalf("expected load error")
	}
	if _, err := s.Save(context.Background(), "k"); err == nil {
		t.Fatalf("expected save error")
	}
	if err := s.Clear(context.Background()); err == nil {
		t.Fatalf("expected clear error")
	}
}

func TestMask(t *testing.T) {
	if got := Mask("abcd1234efgh"); got != "abcd••••efgh" {
		t.Fatalf("unexpected mask %q", got)
	}
	if got := Mask("short"); got != "•••••" {
		t.Fatalf("unexpected mask %q", got)
	}
}
