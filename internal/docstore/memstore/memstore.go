// Package memstore is an in-process docstore backend. It backs the test
// suites and the --backend memory demo mode.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/five82/shopfront/internal/docstore"
)

var _ docstore.Store = (*Store)(nil)

// Store keeps collections in memory and notifies live queries on every write.
type Store struct {
	mu          sync.Mutex
	collections map[string]map[string]map[string]any
	watchers    map[string]map[*watcher]struct{}
	newID       func() string
}

type watcher struct {
	feed  *docstore.Feed
	query docstore.Query
	docID string // set for single-document watches
	dirty chan struct{}
	fail  chan error
}

// New returns an empty store.
func New() *Store {
	return &Store{
		collections: make(map[string]map[string]map[string]any),
		watchers:    make(map[string]map[*watcher]struct{}),
		newID:       uuid.NewString,
	}
}

// Get returns a copy of the document.
func (s *Store) Get(ctx context.Context, path, id string) (docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return docstore.Document{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.collections[path][id]
	if !ok {
		return docstore.Document{}, fmt.Errorf("get %s/%s: %w", path, id, docstore.ErrNotFound)
	}
	return docstore.Document{ID: id, Data: docstore.CloneData(data)}, nil
}

// Set creates or overwrites a document.
func (s *Store) Set(ctx context.Context, path, id string, data map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(path, id, docstore.CloneData(data))
	s.notifyLocked(path)
	return nil
}

// Update merges fields into an existing document.
func (s *Store) Update(ctx context.Context, path, id string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.collections[path][id]
	if !ok {
		return fmt.Errorf("update %s/%s: %w", path, id, docstore.ErrNotFound)
	}
	for k, v := range docstore.CloneData(fields) {
		data[k] = v
	}
	s.notifyLocked(path)
	return nil
}

// Delete removes a document; deleting an absent document succeeds.
func (s *Store) Delete(ctx context.Context, path, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	coll := s.collections[path]
	if _, ok := coll[id]; !ok {
		return nil
	}
	delete(coll, id)
	s.notifyLocked(path)
	return nil
}

// Add stores data under a generated id.
func (s *Store) Add(ctx context.Context, path string, data map[string]any) (string, error) {
	id := s.newID()
	if err := s.Set(ctx, path, id, data); err != nil {
		return "", err
	}
	return id, nil
}

// List evaluates q against the current collection.
func (s *Store) List(ctx context.Context, q docstore.Query) (docstore.Page, error) {
	if err := ctx.Err(); err != nil {
		return docstore.Page{}, err
	}
	s.mu.Lock()
	docs := s.docsLocked(q.Path)
	s.mu.Unlock()
	return docstore.Apply(docs, q), nil
}

// SetAll writes every document and notifies watchers once.
func (s *Store) SetAll(ctx context.Context, path string, docs []docstore.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range docs {
		s.put(path, doc.ID, docstore.CloneData(doc.Data))
	}
	s.notifyLocked(path)
	return nil
}

// Watch opens a live query. The first snapshot is the current result set.
func (s *Store) Watch(ctx context.Context, q docstore.Query) *docstore.Feed {
	return s.watch(ctx, q, "")
}

// WatchDoc delivers zero or one documents each time the document changes.
func (s *Store) WatchDoc(ctx context.Context, path, id string) *docstore.Feed {
	return s.watch(ctx, docstore.Query{Path: path}, id)
}

// Close stops every open feed.
func (s *Store) Close() error {
	s.mu.Lock()
	var feeds []*docstore.Feed
	for _, set := range s.watchers {
		for w := range set {
			feeds = append(feeds, w.feed)
		}
	}
	s.mu.Unlock()
	for _, f := range feeds {
		f.Stop()
	}
	return nil
}

// BreakWatches ends every live query on path with err, the way a backend
// reports a revoked permission or a dropped listener.
func (s *Store) BreakWatches(path string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for w := range s.watchers[path] {
		select {
		case w.fail <- err:
		default:
		}
	}
}

// Watchers reports the number of open live queries on path.
func (s *Store) Watchers(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.watchers[path])
}

func (s *Store) watch(ctx context.Context, q docstore.Query, docID string) *docstore.Feed {
	w := &watcher{
		query: q,
		docID: docID,
		dirty: make(chan struct{}, 1),
		fail:  make(chan error, 1),
	}
	w.feed = docstore.NewFeed(func() { s.removeWatcher(q.Path, w) })
	w.dirty <- struct{}{}

	s.mu.Lock()
	set := s.watchers[q.Path]
	if set == nil {
		set = make(map[*watcher]struct{})
		s.watchers[q.Path] = set
	}
	set[w] = struct{}{}
	s.mu.Unlock()

	go s.run(ctx, w)
	return w.feed
}

func (s *Store) run(ctx context.Context, w *watcher) {
	defer w.feed.Finish()
	for {
		select {
		case <-ctx.Done():
			w.feed.Stop()
			return
		case <-w.feed.Done():
			return
		case err := <-w.fail:
			s.removeWatcher(w.query.Path, w)
			w.feed.Publish(docstore.Snapshot{Err: err})
			return
		case <-w.dirty:
			if !w.feed.Publish(docstore.Snapshot{Docs: s.evaluate(w)}) {
				return
			}
		}
	}
}

func (s *Store) evaluate(w *watcher) []docstore.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w.docID != "" {
		data, ok := s.collections[w.query.Path][w.docID]
		if !ok {
			return nil
		}
		return []docstore.Document{{ID: w.docID, Data: docstore.CloneData(data)}}
	}
	return docstore.Apply(s.docsLocked(w.query.Path), w.query).Docs
}

func (s *Store) removeWatcher(path string, w *watcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if set := s.watchers[path]; set != nil {
		delete(set, w)
		if len(set) == 0 {
			delete(s.watchers, path)
		}
	}
}

func (s *Store) put(path, id string, data map[string]any) {
	coll := s.collections[path]
	if coll == nil {
		coll = make(map[string]map[string]any)
		s.collections[path] = coll
	}
	coll[id] = data
}

func (s *Store) docsLocked(path string) []docstore.Document {
	coll := s.collections[path]
	docs := make([]docstore.Document, 0, len(coll))
	for id, data := range coll {
		docs = append(docs, docstore.Document{ID: id, Data: docstore.CloneData(data)})
	}
	return docs
}

// notifyLocked marks every watcher on path dirty. Pending notifications
// coalesce because each snapshot carries the full result set.
func (s *Store) notifyLocked(path string) {
	for w := range s.watchers[path] {
		select {
		case w.dirty <- struct{}{}:
		default:
		}
	}
}
