package bot

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// PendingReply links a posted translated reply back to its source text,
// detected language, and the translations already computed, so flag
// reactions can be served later. A context is never mutated after it is
// stored; on-demand translations computed by the reaction handler are used
// once and not written back.
type PendingReply struct {
	OriginalID   string
	GuildID      string
	ChannelID    string
	SourceLang   string
	SourceText   string
	Translations map[string]string   // target code -> translated text
	Recipients   map[string][]string // participant ID -> language set
}

const (
	defaultPendingCapacity = 4096
	defaultPendingTTL      = 24 * time.Hour
)

// PendingReplies retains reply contexts keyed by the posted reply's message
// ID. Entries expire by capacity and age; the original bot kept them
// forever, which leaks in a long-running process.
type PendingReplies struct {
	lru *expirable.LRU[string, *PendingReply]
}

// NewPendingReplies builds the retained-context store. Non-positive
// arguments fall back to the defaults.
func NewPendingReplies(capacity int, ttl time.Duration) *PendingReplies {
	if capacity <= 0 {
		capacity = defaultPendingCapacity
	}
	if ttl <= 0 {
		ttl = defaultPendingTTL
	}
	return &PendingReplies{
		lru: expirable.NewLRU[string, *PendingReply](capacity, nil, ttl),
	}
}

func (p *PendingReplies) Put(replyID string, reply *PendingReply) {
	if p == nil || replyID == "" || reply == nil {
		return
	}
	p.lru.Add(replyID, reply)
}

func (p *PendingReplies) Get(replyID string) (*PendingReply, bool) {
	if p == nil {
		return nil, false
	}
	return p.lru.Get(replyID)
}

// Len reports the number of retained contexts.
func (p *PendingReplies) Len() int {
	if p == nil {
		return 0
	}
	return p.lru.Len()
}
