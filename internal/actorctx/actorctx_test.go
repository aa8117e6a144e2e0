package actorctx

import (
	"context"
	"testing"
)

func TestActorRoundTrip(t *testing.T) {
	if _, ok := ActorFrom(context.Background()); ok {
		t.Fatal("empty context should carry no actor")
	}

	ctx := WithActor(context.Background(), "admin@example.com")
	got, ok := ActorFrom(ctx)
	if !ok || got != "admin@example.com" {
		t.Fatalf("got %q, %v", got, ok)
	}

	if _, ok := ActorFrom(WithActor(context.Background(), "")); ok {
		t.Fatal("blank actor should not count")
	}
}
