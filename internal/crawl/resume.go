package crawl

import (
	"context"
	"cqscraper/internal/components/store"
)

// Snapshot is the set of destination keys known to exist at some point in time.
type Snapshot struct {
	keys map[string]struct{}
}

func NewSnapshot(keys []string) *Snapshot {
	s := &Snapshot{keys: make(map[string]struct{}, len(keys))}
	for _, k := range keys {
		s.keys[k] = struct{}{}
	}
	return s
}

func (s *Snapshot) Has(key string) bool {
	_, ok := s.keys[key]
	return ok
}

func (s *Snapshot) Add(key string) {
	s.keys[key] = struct{}{}
}

func (s *Snapshot) Len() int {
	return len(s.keys)
}

// ResumeFilter decides whether an item was already stored. The decision only looks at
// key existence, never at the stored contents.
type ResumeFilter struct {
	store    store.API
	prefix   string
	snapshot *Snapshot
}

func NewResumeFilter(s store.API, prefix string) *ResumeFilter {
	return &ResumeFilter{
		store:    s,
		prefix:   prefix,
		snapshot: NewSnapshot(nil),
	}
}

// Refresh replaces the snapshot with a full listing of the prefix.
func (f *ResumeFilter) Refresh(ctx context.Context) error {
	keys, err := f.store.List(ctx, f.prefix)
	if err != nil {
		return err
	}
	f.snapshot = NewSnapshot(keys)
	return nil
}

func (f *ResumeFilter) Key(item Item) string {
	return store.Key(f.prefix, item.Name)
}

func (f *ResumeFilter) IsDone(item Item) bool {
	return f.snapshot.Has(f.Key(item))
}

// MarkDone records a successful upload so later checks in the same run see it.
func (f *ResumeFilter) MarkDone(item Item) {
	f.snapshot.Add(f.Key(item))
}

func (f *ResumeFilter) Known() int {
	return f.snapshot.Len()
}
