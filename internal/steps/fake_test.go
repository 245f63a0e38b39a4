package steps

import (
	"context"
	"sort"

	"github.com/kappu72/enbot-sub001/internal/catalog"
)

// fakeCatalog is an in-memory catalog.Store for step tests.
type fakeCatalog struct {
	entries []catalog.Entry
	nextID  int64
	err     error
}

func newFakeCatalog(entries ...catalog.Entry) *fakeCatalog {
	f := &fakeCatalog{entries: entries}
	for _, e := range entries {
		if e.ID >= f.nextID {
			f.nextID = e.ID + 1
		}
	}
	return f
}

func (f *fakeCatalog) Page(_ context.Context, kind catalog.Kind, page, size int) ([]catalog.Entry, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	var filtered []catalog.Entry
	for _, e := range f.entries {
		if e.Kind == kind {
			filtered = append(filtered, e)
		}
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].Name < filtered[j].Name })

	start := page * size
	if start >= len(filtered) {
		return nil, false, nil
	}
	end := start + size
	more := end < len(filtered)
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end], more, nil
}

func (f *fakeCatalog) Get(_ context.Context, id int64) (*catalog.Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.entries {
		if f.entries[i].ID == id {
			e := f.entries[i]
			return &e, nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (f *fakeCatalog) Add(_ context.Context, kind catalog.Kind, name string) (*catalog.Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.entries {
		if f.entries[i].Kind == kind && f.entries[i].Name == name {
			e := f.entries[i]
			return &e, nil
		}
	}
	f.nextID++
	e := catalog.Entry{ID: f.nextID, Kind: kind, Name: name}
	f.entries = append(f.entries, e)
	return &e, nil
}
