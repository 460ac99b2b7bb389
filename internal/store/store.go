// Package store holds per-guild settings and per-user language preferences.
// State lives in memory and is snapshotted opportunistically: on an interval
// while running and once at shutdown. Snapshot failures are logged, never
// fatal.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// GuildSettings are the per-server toggles mutated by config commands.
type GuildSettings struct {
	AutoTranslate bool `json:"auto_translate"`
	OnlineOnly    bool `json:"online_only"`
	FlagReactions bool `json:"flag_reactions"`
}

// DefaultGuildSettings returns the settings a guild has before anyone
// configures it: everything on.
func DefaultGuildSettings() GuildSettings {
	return GuildSettings{
		AutoTranslate: true,
		OnlineOnly:    true,
		FlagReactions: true,
	}
}

// Snapshot is the persisted form of the two settings maps.
type Snapshot struct {
	Guilds map[string]GuildSettings `json:"guilds"`
	Users  map[string][]string      `json:"users"`
}

// Snapshotter loads and saves settings snapshots. Implementations back onto
// a flat JSON file or a Postgres table pair.
type Snapshotter interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
}

// Store is the in-memory settings state shared by the event handlers.
type Store struct {
	mu     sync.RWMutex
	guilds map[string]GuildSettings
	users  map[string][]string
	dirty  bool

	snapshotter Snapshotter
	logger      zerolog.Logger
}

// New builds a store. A nil snapshotter keeps settings purely in memory.
func New(snapshotter Snapshotter, logger zerolog.Logger) *Store {
	return &Store{
		guilds:      make(map[string]GuildSettings),
		users:       make(map[string][]string),
		snapshotter: snapshotter,
		logger:      logger,
	}
}

// Load replaces in-memory state with the persisted snapshot.
func (s *Store) Load(ctx context.Context) error {
	if s == nil || s.snapshotter == nil {
		return nil
	}

	snap, err := s.snapshotter.Load(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.guilds = make(map[string]GuildSettings, len(snap.Guilds))
	for guildID, settings := range snap.Guilds {
		s.guilds[guildID] = settings
	}
	s.users = make(map[string][]string, len(snap.Users))
	for userID, codes := range snap.Users {
		s.users[userID] = append([]string(nil), codes...)
	}
	s.dirty = false
	return nil
}

// Guild returns the settings for a guild, defaulting when never configured.
func (s *Store) Guild(guildID string) GuildSettings {
	if s == nil {
		return DefaultGuildSettings()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if settings, ok := s.guilds[guildID]; ok {
		return settings
	}
	return DefaultGuildSettings()
}

// UpdateGuild applies a mutation to a guild's settings and returns the
// result.
func (s *Store) UpdateGuild(guildID string, update func(*GuildSettings)) GuildSettings {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, ok := s.guilds[guildID]
	if !ok {
		settings = DefaultGuildSettings()
	}
	update(&settings)
	s.guilds[guildID] = settings
	s.dirty = true
	return settings
}

// UserLanguages returns a user's explicitly stored language preferences.
func (s *Store) UserLanguages(userID string) []string {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	codes := s.users[userID]
	if len(codes) == 0 {
		return nil
	}
	return append([]string(nil), codes...)
}

// SetUserLanguages replaces a user's preferred languages. Duplicates are
// removed and the list is kept sorted. An empty list clears the preference.
func (s *Store) SetUserLanguages(userID string, codes []string) {
	unique := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		if code != "" {
			unique[code] = struct{}{}
		}
	}
	cleaned := make([]string, 0, len(unique))
	for code := range unique {
		cleaned = append(cleaned, code)
	}
	sort.Strings(cleaned)

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(cleaned) == 0 {
		delete(s.users, userID)
	} else {
		s.users[userID] = cleaned
	}
	s.dirty = true
}

// Save writes the current state through the snapshotter. A clean store is a
// no-op unless force is set.
func (s *Store) Save(ctx context.Context, force bool) error {
	if s == nil || s.snapshotter == nil {
		return nil
	}

	s.mu.Lock()
	if !s.dirty && !force {
		s.mu.Unlock()
		return nil
	}
	snap := s.snapshotLocked()
	s.dirty = false
	s.mu.Unlock()

	return s.snapshotter.Save(ctx, snap)
}

// RunAutosave periodically saves until ctx is cancelled, then saves one last
// time with a short deadline of its own.
func (s *Store) RunAutosave(ctx context.Context, interval time.Duration) {
	if s == nil || s.snapshotter == nil || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.Save(ctx, false); err != nil {
				s.logger.Warn().Err(err).Msg("settings autosave failed")
			}
		case <-ctx.Done():
			saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := s.Save(saveCtx, true); err != nil {
				s.logger.Warn().Err(err).Msg("final settings save failed")
			}
			cancel()
			return
		}
	}
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Guilds: make(map[string]GuildSettings, len(s.guilds)),
		Users:  make(map[string][]string, len(s.users)),
	}
	for guildID, settings := range s.guilds {
		snap.Guilds[guildID] = settings
	}
	for userID, codes := range s.users {
		snap.Users[userID] = append([]string(nil), codes...)
	}
	return snap
}
