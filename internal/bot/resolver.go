package bot

import (
	"sort"

	"github.com/glossabot/glossa/internal/lang"
)

// Preferences supplies a user's explicitly stored language list.
type Preferences interface {
	UserLanguages(userID string) []string
}

// Resolution is the resolver's output: the distinct languages needing a
// translation (one call per language, shared by everyone who needs it) and
// the participant-to-languages mapping retained for DM routing.
type Resolution struct {
	Targets    map[string]struct{}
	Recipients map[string][]string
}

// TargetList returns the needed languages in sorted order.
func (r Resolution) TargetList() []string {
	codes := make([]string, 0, len(r.Targets))
	for code := range r.Targets {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Resolver computes which participants should receive a translation of a
// message and which languages that requires.
type Resolver struct {
	registry    *lang.Registry
	preferences Preferences
}

func NewResolver(registry *lang.Registry, preferences Preferences) *Resolver {
	return &Resolver{registry: registry, preferences: preferences}
}

// Resolve walks the participant list supplied by the gateway. A participant
// is skipped when they authored the message, are a bot, cannot read the
// channel, or (with onlineOnly) are offline. A remaining participant whose
// language set is non-empty and does not contain the source language is a
// target: their whole language set joins the needed-translation set.
//
// An empty source language short-circuits to an empty resolution; nothing is
// translated without a known source.
func (r *Resolver) Resolve(msg Message, sourceLang string, participants []Participant, onlineOnly bool) Resolution {
	resolution := Resolution{
		Targets:    make(map[string]struct{}),
		Recipients: make(map[string][]string),
	}
	if sourceLang == "" {
		return resolution
	}

	for _, participant := range participants {
		if participant.ID == msg.AuthorID || participant.Bot || !participant.CanRead {
			continue
		}
		if onlineOnly && !participant.Online {
			continue
		}

		languages := r.participantLanguages(participant)
		if len(languages) == 0 {
			continue
		}
		if _, speaksSource := languages[sourceLang]; speaksSource {
			continue
		}

		codes := make([]string, 0, len(languages))
		for code := range languages {
			resolution.Targets[code] = struct{}{}
			codes = append(codes, code)
		}
		sort.Strings(codes)
		resolution.Recipients[participant.ID] = codes
	}

	return resolution
}

// participantLanguages is the union of the stored preference list and every
// role name matching a registered language.
func (r *Resolver) participantLanguages(participant Participant) map[string]struct{} {
	languages := make(map[string]struct{})

	if r.preferences != nil {
		for _, code := range r.preferences.UserLanguages(participant.ID) {
			if _, ok := r.registry.Lookup(code); ok {
				languages[lang.NormalizeCode(code)] = struct{}{}
			}
		}
	}

	for _, role := range participant.Roles {
		if code, ok := r.registry.MatchRole(role); ok {
			languages[code] = struct{}{}
		}
	}

	return languages
}
