package usecase

import (
	"context"
	"testing"

	"artcurator/internal/domain"
)

func TestCounterNext(t *testing.T) {
	t.Parallel()

	wall := &fakeWall{recent: []domain.WallPost{
		{Text: "обычный пост без счётчика", Timestamp: 300},
		{Text: "41 день без рерана Ху Тао", Timestamp: 200},
		{Text: "40 день без рерана Ху Тао", Timestamp: 100},
	}}
	resolver, err := NewCounterResolver(wall, `(\d+) день без рерана`)
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}

	value, ok, err := resolver.Next(context.Background(), 10)
	if err != nil {
		t.Fatalf("Next error: %v", err)
	}
	if !ok {
		t.Fatal("expected resolved counter")
	}
	// The newest matching post wins, older matches are ignored.
	if value != 42 {
		t.Fatalf("value = %d, want 42", value)
	}
}

func TestCounterUnresolved(t *testing.T) {
	t.Parallel()

	wall := &fakeWall{recent: []domain.WallPost{
		{Text: "no counter here", Timestamp: 100},
	}}
	resolver, err := NewCounterResolver(wall, `(\d+) день без рерана`)
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}

	value, ok, err := resolver.Next(context.Background(), 10)
	if err != nil {
		t.Fatalf("Next error: %v", err)
	}
	if ok {
		t.Fatalf("expected unresolved counter, got %d", value)
	}
}

func TestCounterResolveZero(t *testing.T) {
	t.Parallel()

	// A resolved value of zero is distinct from "unresolved".
	wall := &fakeWall{}
	resolver, err := NewCounterResolver(wall, `(\d+) день без рерана`)
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}

	value, ok := resolver.Resolve([]domain.WallPost{{Text: "0 день без рерана", Timestamp: 1}})
	if !ok || value != 0 {
		t.Fatalf("Resolve = %d, %v; want 0, true", value, ok)
	}
}

func TestCounterPatternValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewCounterResolver(&fakeWall{}, `\d+ день`); err == nil {
		t.Fatal("pattern without a capture group must be rejected")
	}
	if _, err := NewCounterResolver(&fakeWall{}, `(`); err == nil {
		t.Fatal("invalid pattern must be rejected")
	}
}
