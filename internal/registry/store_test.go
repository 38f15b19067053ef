package registry

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"mvnd/internal/config"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.RegistryDir = filepath.Join(t.TempDir(), "registry")
	store, err := Open(&cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAddGetListRemove(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	tick := base
	store.now = func() time.Time { tick = tick.Add(time.Second); return tick }

	first := DaemonInfo{
		UID:      "d1",
		PID:      101,
		Address:  "/run/d1.sock",
		Spec:     CompatibilitySpec{Executable: "/usr/bin/mvndd", Options: []string{"-Xmx1g"}},
		State:    StateIdle,
		LastIdle: base,
	}
	second := DaemonInfo{UID: "d2", PID: 102, Address: "/run/d2.sock", Spec: CompatibilitySpec{Executable: "/usr/bin/mvndd"}}
	for _, info := range []DaemonInfo{first, second} {
		if err := store.Add(ctx, info); err != nil {
			t.Fatalf("Add(%s): %v", info.UID, err)
		}
	}

	got, err := store.Get(ctx, "d1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.PID != 101 || got.Address != "/run/d1.sock" || !got.Spec.Matches(first.Spec) {
		t.Fatalf("unexpected entry %+v", got)
	}
	if !got.LastIdle.Equal(base) || !got.LastBusy.IsZero() {
		t.Fatalf("unexpected timestamps idle=%v busy=%v", got.LastIdle, got.LastBusy)
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].UID != "d1" || list[1].UID != "d2" {
		t.Fatalf("unexpected list %+v", list)
	}
	if list[1].State != StateIdle {
		t.Fatalf("expected default state idle, got %q", list[1].State)
	}

	if err := store.Remove(ctx, "d1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := store.Remove(ctx, "d1"); err != nil {
		t.Fatalf("Remove of absent uid must be a no-op: %v", err)
	}
	if got, err := store.Get(ctx, "d1"); err != nil || got != nil {
		t.Fatalf("expected d1 gone, got %+v err=%v", got, err)
	}
}

func TestMarkBusyAndIdleUpdateTimestamps(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	if err := store.Add(ctx, DaemonInfo{UID: "d1", PID: 1, Address: "a"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	now = now.Add(time.Minute)
	if err := store.MarkBusy(ctx, "d1"); err != nil {
		t.Fatalf("MarkBusy: %v", err)
	}
	busyAt := now

	now = now.Add(time.Minute)
	if err := store.MarkIdle(ctx, "d1"); err != nil {
		t.Fatalf("MarkIdle: %v", err)
	}

	info, err := store.Get(ctx, "d1")
	if err != nil || info == nil {
		t.Fatalf("Get: %+v %v", info, err)
	}
	if info.State != StateIdle {
		t.Fatalf("expected idle, got %q", info.State)
	}
	if !info.LastBusy.Equal(busyAt) || !info.LastIdle.Equal(now) {
		t.Fatalf("unexpected marks busy=%v idle=%v", info.LastBusy, info.LastIdle)
	}
	if !info.LastActive().Equal(now) {
		t.Fatalf("LastActive = %v, want %v", info.LastActive(), now)
	}

	if err := store.MarkBusy(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLastActiveIsMaxOfMarks(t *testing.T) {
	early := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)
	cases := []struct {
		info DaemonInfo
		want time.Time
	}{
		{DaemonInfo{LastIdle: late, LastBusy: early}, late},
		{DaemonInfo{LastIdle: early, LastBusy: late}, late},
		{DaemonInfo{LastIdle: early}, early},
		{DaemonInfo{}, time.Time{}},
	}
	for i, tc := range cases {
		if got := tc.info.LastActive(); !got.Equal(tc.want) {
			t.Fatalf("case %d: LastActive = %v, want %v", i, got, tc.want)
		}
	}
}

func TestCompatibilitySpecMatches(t *testing.T) {
	a := CompatibilitySpec{Executable: "mvndd", Options: []string{"-a", "-b"}}
	if !a.Matches(CompatibilitySpec{Executable: "mvndd", Options: []string{"-a", "-b"}}) {
		t.Fatal("identical specs must match")
	}
	if a.Matches(CompatibilitySpec{Executable: "mvndd", Options: []string{"-b", "-a"}}) {
		t.Fatal("option order is significant")
	}
	if a.Matches(CompatibilitySpec{Executable: "other", Options: a.Options}) {
		t.Fatal("different executables must not match")
	}
	if !(CompatibilitySpec{}).Matches(CompatibilitySpec{Options: []string{}}) {
		t.Fatal("nil and empty options must match")
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.RegistryDir = t.TempDir()
	store, err := Open(&cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := store.db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = store.Close()

	if _, err := Open(&cfg); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestClaimTakesIdleDaemonOnce(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	if err := store.Add(ctx, DaemonInfo{UID: "d1", PID: 1, Address: "/tmp/d1.sock", State: StateIdle}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	claimed, err := store.Claim(ctx, "d1")
	if err != nil || !claimed {
		t.Fatalf("first claim: claimed=%v err=%v", claimed, err)
	}
	claimed, err = store.Claim(ctx, "d1")
	if err != nil || claimed {
		t.Fatalf("a busy daemon must not be claimed again: claimed=%v err=%v", claimed, err)
	}
	info, err := store.Get(ctx, "d1")
	if err != nil || info.State != StateBusy || info.LastBusy.IsZero() {
		t.Fatalf("unexpected entry after claim %+v (err %v)", info, err)
	}

	if err := store.MarkIdle(ctx, "d1"); err != nil {
		t.Fatalf("MarkIdle: %v", err)
	}
	if claimed, err := store.Claim(ctx, "d1"); err != nil || !claimed {
		t.Fatalf("claim after idle: claimed=%v err=%v", claimed, err)
	}
	if claimed, err := store.Claim(ctx, "missing"); err != nil || claimed {
		t.Fatalf("claim of unknown uid: claimed=%v err=%v", claimed, err)
	}
}

func TestConcurrentOpenOfFreshRegistry(t *testing.T) {
	const openers = 4
	for round := 0; round < 10; round++ {
		cfg := config.Default()
		cfg.Paths.RegistryDir = filepath.Join(t.TempDir(), "registry")

		var wg sync.WaitGroup
		errs := make(chan error, openers)
		for i := 0; i < openers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				store, err := Open(&cfg)
				if err != nil {
					errs <- fmt.Errorf("opener %d: %w", i, err)
					return
				}
				defer store.Close()
				if _, err := store.List(context.Background()); err != nil {
					errs <- fmt.Errorf("opener %d list: %w", i, err)
				}
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Fatalf("round %d: %v", round, err)
		}
	}
}
