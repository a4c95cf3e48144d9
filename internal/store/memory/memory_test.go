package memory

import (
	"context"
	"testing"
)

func TestStoreRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected absent key, got ok=%v err=%v", ok, err)
	}

	if err := s.Set(ctx, "k", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("set: %v", err)
	}

	value, ok, err := s.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("expected present key, got ok=%v err=%v", ok, err)
	}
	if string(value) != `{"a":1}` {
		t.Fatalf("unexpected value %q", value)
	}

	if err := s.Set(ctx, "k", []byte(`{"a":2}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	value, _, _ = s.Get(ctx, "k")
	if string(value) != `{"a":2}` {
		t.Fatalf("expected overwrite to win, got %q", value)
	}

	if err := s.Remove(ctx, "k"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Fatalf("expected key removed")
	}

	// Removing an absent key is a no-op.
	if err := s.Remove(ctx, "k"); err != nil {
		t.Fatalf("remove absent: %v", err)
	}
}

func TestStoreCopiesValues(t *testing.T) {
	s := New()
	ctx := context.Background()

	original := []byte("abc")
	if err := s.Set(ctx, "k", original); err != nil {
		t.Fatalf("set: %v", err)
	}
	original[0] = 'x'

	value, _, _ := s.Get(ctx, "k")
	if string(value) != "abc" {
		t.Fatalf("stored value aliased caller slice: %q", value)
	}

	value[0] = 'y'
	again, _, _ := s.Get(ctx, "k")
	if string(again) != "abc" {
		t.Fatalf("returned value aliased stored slice: %q", again)
	}
}
