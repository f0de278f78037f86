package session_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/dhruvmehta/callguard/backend/internal/session"
)

func TestAppendInitializesUnseenSession(t *testing.T) {
	store := session.NewStore(0)

	got := store.Append("caller-1", "hello", session.PredictPolicy)
	if got != "hello" {
		t.Fatalf("unexpected joined text: %q", got)
	}
	if store.Len("caller-1") != 1 {
		t.Fatalf("expected 1 turn, got %d", store.Len("caller-1"))
	}
}

func TestAppendJoinsWithPolicySeparator(t *testing.T) {
	store := session.NewStore(0)

	store.Append("a", "first", session.PredictPolicy)
	got := store.Append("a", "second", session.PredictPolicy)
	if got != "first second" {
		t.Fatalf("predict join: got %q", got)
	}

	store.Append("b", "first", session.StreamPolicy)
	got = store.Append("b", "second", session.StreamPolicy)
	if got != "first, second" {
		t.Fatalf("stream join: got %q", got)
	}
}

func TestAppendTrimsToWindow(t *testing.T) {
	store := session.NewStore(0)
	policy := session.PredictPolicy

	for i := 0; i < 10; i++ {
		store.Append("caller", fmt.Sprintf("turn-%d", i), policy)
		want := i + 1
		if want > policy.Window {
			want = policy.Window
		}
		if got := store.Len("caller"); got != want {
			t.Fatalf("after %d appends: len=%d want=%d", i+1, got, want)
		}
	}

	turns := store.Turns("caller")
	if turns[0] != "turn-6" || turns[len(turns)-1] != "turn-9" {
		t.Fatalf("unexpected retained turns: %v", turns)
	}
}

func TestDedupeDropsExtendedPriorTurn(t *testing.T) {
	store := session.NewStore(0)

	store.Append("caller", "hi", session.StreamPolicy)
	got := store.Append("caller", "Hi there", session.StreamPolicy)

	if got != "Hi there" {
		t.Fatalf("expected prior fragment replaced, got %q", got)
	}
	if store.Len("caller") != 1 {
		t.Fatalf("expected 1 turn after dedupe, got %d", store.Len("caller"))
	}
}

func TestDedupeKeepsUnrelatedTurn(t *testing.T) {
	store := session.NewStore(0)

	store.Append("caller", "send the money", session.StreamPolicy)
	got := store.Append("caller", "to this account", session.StreamPolicy)

	if got != "send the money, to this account" {
		t.Fatalf("unexpected joined text: %q", got)
	}
}

func TestDedupeDisabledForPredictPolicy(t *testing.T) {
	store := session.NewStore(0)

	store.Append("caller", "hi", session.PredictPolicy)
	got := store.Append("caller", "hi there", session.PredictPolicy)

	if got != "hi hi there" {
		t.Fatalf("expected both turns kept, got %q", got)
	}
}

func TestSweepEvictsOnlyIdleSessions(t *testing.T) {
	store := session.NewStore(50 * time.Millisecond)

	store.Append("stale", "old", session.PredictPolicy)
	time.Sleep(80 * time.Millisecond)
	store.Append("fresh", "new", session.PredictPolicy)

	if evicted := store.Sweep(); evicted != 1 {
		t.Fatalf("expected 1 eviction, got %d", evicted)
	}
	if store.Len("stale") != 0 {
		t.Fatal("stale session should be gone")
	}
	if store.Len("fresh") != 1 {
		t.Fatal("fresh session should survive")
	}
}

func TestEvict(t *testing.T) {
	store := session.NewStore(0)
	store.Append("caller", "hello", session.PredictPolicy)
	store.Evict("caller")

	if store.Len("caller") != 0 {
		t.Fatal("expected session removed")
	}
}
