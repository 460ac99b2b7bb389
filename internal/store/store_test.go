package store

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rs/zerolog"
)

type countingSnapshotter struct {
	loadSnap  Snapshot
	saveCalls int
	lastSaved Snapshot
}

func (c *countingSnapshotter) Load(_ context.Context) (Snapshot, error) {
	return c.loadSnap, nil
}

func (c *countingSnapshotter) Save(_ context.Context, snap Snapshot) error {
	c.saveCalls++
	c.lastSaved = snap
	return nil
}

func TestGuildDefaults(t *testing.T) {
	t.Parallel()

	s := New(nil, zerolog.Nop())
	settings := s.Guild("g1")
	if !settings.AutoTranslate || !settings.OnlineOnly || !settings.FlagReactions {
		t.Fatalf("unexpected defaults: %+v", settings)
	}
}

func TestUpdateGuild(t *testing.T) {
	t.Parallel()

	s := New(nil, zerolog.Nop())
	updated := s.UpdateGuild("g1", func(gs *GuildSettings) {
		gs.OnlineOnly = false
	})
	if updated.OnlineOnly {
		t.Fatal("update was not applied")
	}
	if got := s.Guild("g1"); got.OnlineOnly || !got.AutoTranslate {
		t.Fatalf("unexpected settings after update: %+v", got)
	}
	// Other guilds keep defaults.
	if got := s.Guild("g2"); !got.OnlineOnly {
		t.Fatal("unrelated guild was mutated")
	}
}

func TestSetUserLanguages(t *testing.T) {
	t.Parallel()

	s := New(nil, zerolog.Nop())
	s.SetUserLanguages("u1", []string{"fr", "es", "fr", ""})
	if got := s.UserLanguages("u1"); !reflect.DeepEqual(got, []string{"es", "fr"}) {
		t.Fatalf("UserLanguages = %v", got)
	}

	s.SetUserLanguages("u1", nil)
	if got := s.UserLanguages("u1"); got != nil {
		t.Fatalf("expected cleared preference, got %v", got)
	}
}

func TestSaveSkipsCleanStore(t *testing.T) {
	t.Parallel()

	snap := &countingSnapshotter{}
	s := New(snap, zerolog.Nop())

	if err := s.Save(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	if snap.saveCalls != 0 {
		t.Fatal("clean store must not be saved")
	}

	s.SetUserLanguages("u1", []string{"de"})
	if err := s.Save(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	if snap.saveCalls != 1 {
		t.Fatalf("saveCalls = %d, want 1", snap.saveCalls)
	}
	if got := snap.lastSaved.Users["u1"]; !reflect.DeepEqual(got, []string{"de"}) {
		t.Fatalf("saved users = %v", snap.lastSaved.Users)
	}

	// Saving again without changes is a no-op; force overrides.
	if err := s.Save(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	if snap.saveCalls != 1 {
		t.Fatal("unchanged store was saved again")
	}
	if err := s.Save(context.Background(), true); err != nil {
		t.Fatal(err)
	}
	if snap.saveCalls != 2 {
		t.Fatal("forced save did not run")
	}
}

func TestFileSnapshotterRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.json")
	snapshotter := NewFileSnapshotter(path)

	// Missing file loads as an empty snapshot.
	empty, err := snapshotter.Load(context.Background())
	if err != nil {
		t.Fatalf("Load missing file: %v", err)
	}
	if len(empty.Guilds) != 0 || len(empty.Users) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", empty)
	}

	want := Snapshot{
		Guilds: map[string]GuildSettings{
			"g1": {AutoTranslate: true, OnlineOnly: false, FlagReactions: true},
		},
		Users: map[string][]string{
			"u1": {"es", "fr"},
		},
	}
	if err := snapshotter.Save(context.Background(), want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := snapshotter.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestStoreLoadReplacesState(t *testing.T) {
	t.Parallel()

	snap := &countingSnapshotter{
		loadSnap: Snapshot{
			Guilds: map[string]GuildSettings{"g1": {AutoTranslate: false, OnlineOnly: true, FlagReactions: true}},
			Users:  map[string][]string{"u1": {"uk"}},
		},
	}
	s := New(snap, zerolog.Nop())
	s.SetUserLanguages("u2", []string{"pl"})

	if err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := s.Guild("g1"); got.AutoTranslate {
		t.Fatalf("loaded guild settings not applied: %+v", got)
	}
	if got := s.UserLanguages("u2"); got != nil {
		t.Fatalf("stale user preference survived load: %v", got)
	}
	if got := s.UserLanguages("u1"); !reflect.DeepEqual(got, []string{"uk"}) {
		t.Fatalf("UserLanguages = %v", got)
	}
}
