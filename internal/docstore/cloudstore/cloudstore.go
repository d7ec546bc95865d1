// Package cloudstore is the Cloud Firestore docstore backend.
package cloudstore

import (
	"context"
	"errors"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/five82/shopfront/internal/docstore"
)

var _ docstore.Store = (*Store)(nil)

// maxBatch is the Firestore per-commit write limit.
const maxBatch = 500

// NewApp initializes a Firebase Admin app from a service account file.
func NewApp(ctx context.Context, projectID, credentialsFile string) (*firebase.App, error) {
	if credentialsFile == "" {
		return nil, errors.New("firebase credentials file not configured")
	}
	if _, err := os.Stat(credentialsFile); err != nil {
		return nil, fmt.Errorf("service account json not found: %s", credentialsFile)
	}
	var cfg *firebase.Config
	if projectID != "" {
		cfg = &firebase.Config{ProjectID: projectID}
	}
	app, err := firebase.NewApp(ctx, cfg, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("firebase init: %w", err)
	}
	return app, nil
}

// Store wraps a Firestore client.
type Store struct {
	client *firestore.Client
}

// New opens the app's Firestore client.
func New(ctx context.Context, app *firebase.App) (*Store, error) {
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	return &Store{client: client}, nil
}

func notFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// Get reads one document.
func (s *Store) Get(ctx context.Context, path, id string) (docstore.Document, error) {
	snap, err := s.client.Collection(path).Doc(id).Get(ctx)
	if notFound(err) {
		return docstore.Document{}, fmt.Errorf("get %s/%s: %w", path, id, docstore.ErrNotFound)
	}
	if err != nil {
		return docstore.Document{}, fmt.Errorf("firestore get %s/%s: %w", path, id, err)
	}
	return docstore.Document{ID: snap.Ref.ID, Data: snap.Data()}, nil
}

// Set overwrites a document.
func (s *Store) Set(ctx context.Context, path, id string, data map[string]any) error {
	if _, err := s.client.Collection(path).Doc(id).Set(ctx, data); err != nil {
		return fmt.Errorf("firestore set %s/%s: %w", path, id, err)
	}
	return nil
}

// Update merges top-level fields into an existing document.
func (s *Store) Update(ctx context.Context, path, id string, fields map[string]any) error {
	updates := make([]firestore.Update, 0, len(fields))
	for k, v := range fields {
		updates = append(updates, firestore.Update{Path: k, Value: v})
	}
	_, err := s.client.Collection(path).Doc(id).Update(ctx, updates)
	if notFound(err) {
		return fmt.Errorf("update %s/%s: %w", path, id, docstore.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("firestore update %s/%s: %w", path, id, err)
	}
	return nil
}

// Delete removes a document. Firestore treats a missing document as success.
func (s *Store) Delete(ctx context.Context, path, id string) error {
	if _, err := s.client.Collection(path).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("firestore delete %s/%s: %w", path, id, err)
	}
	return nil
}

// Add creates a document with a server-assigned id.
func (s *Store) Add(ctx context.Context, path string, data map[string]any) (string, error) {
	ref, _, err := s.client.Collection(path).Add(ctx, data)
	if err != nil {
		return "", fmt.Errorf("firestore add %s: %w", path, err)
	}
	return ref.ID, nil
}

// List runs q on the server.
func (s *Store) List(ctx context.Context, q docstore.Query) (docstore.Page, error) {
	snaps, err := s.query(q).Documents(ctx).GetAll()
	if err != nil {
		return docstore.Page{}, fmt.Errorf("firestore list %s: %w", q.Path, err)
	}
	page := docstore.Page{Docs: make([]docstore.Document, 0, len(snaps))}
	for _, snap := range snaps {
		page.Docs = append(page.Docs, docstore.Document{ID: snap.Ref.ID, Data: snap.Data()})
	}
	if n := len(snaps); n > 0 {
		page.Cursor = docstore.NewCursor(page.Docs[n-1], q.OrderBy, snaps[n-1])
	}
	return page, nil
}

// SetAll commits docs in write batches of at most maxBatch.
func (s *Store) SetAll(ctx context.Context, path string, docs []docstore.Document) error {
	coll := s.client.Collection(path)
	for start := 0; start < len(docs); start += maxBatch {
		end := min(start+maxBatch, len(docs))
		batch := s.client.Batch()
		for _, doc := range docs[start:end] {
			batch.Set(coll.Doc(doc.ID), doc.Data)
		}
		if _, err := batch.Commit(ctx); err != nil {
			return fmt.Errorf("firestore batch %s [%d:%d]: %w", path, start, end, err)
		}
	}
	return nil
}

// Watch streams q's result set through a Firestore snapshot listener.
func (s *Store) Watch(parent context.Context, q docstore.Query) *docstore.Feed {
	ctx, cancel := context.WithCancel(parent)
	feed := docstore.NewFeed(cancel)
	it := s.query(q).Snapshots(ctx)

	go func() {
		defer feed.Finish()
		defer it.Stop()
		for {
			qs, err := it.Next()
			if err != nil {
				if ctx.Err() == nil && !errors.Is(err, iterator.Done) {
					feed.Publish(docstore.Snapshot{Err: fmt.Errorf("firestore listen %s: %w", q.Path, err)})
				}
				return
			}
			snaps, err := qs.Documents.GetAll()
			if err != nil {
				feed.Publish(docstore.Snapshot{Err: fmt.Errorf("firestore listen %s: %w", q.Path, err)})
				return
			}
			docs := make([]docstore.Document, 0, len(snaps))
			for _, snap := range snaps {
				docs = append(docs, docstore.Document{ID: snap.Ref.ID, Data: snap.Data()})
			}
			if !feed.Publish(docstore.Snapshot{Docs: docs}) {
				return
			}
		}
	}()
	return feed
}

// WatchDoc follows one document; a missing document yields an empty snapshot.
func (s *Store) WatchDoc(parent context.Context, path, id string) *docstore.Feed {
	ctx, cancel := context.WithCancel(parent)
	feed := docstore.NewFeed(cancel)
	it := s.client.Collection(path).Doc(id).Snapshots(ctx)

	go func() {
		defer feed.Finish()
		defer it.Stop()
		for {
			snap, err := it.Next()
			var docs []docstore.Document
			switch {
			case err == nil && snap.Exists():
				docs = []docstore.Document{{ID: snap.Ref.ID, Data: snap.Data()}}
			case err == nil, notFound(err):
			default:
				if ctx.Err() == nil && !errors.Is(err, iterator.Done) {
					feed.Publish(docstore.Snapshot{Err: fmt.Errorf("firestore listen %s/%s: %w", path, id, err)})
				}
				return
			}
			if !feed.Publish(docstore.Snapshot{Docs: docs}) {
				return
			}
		}
	}()
	return feed
}

// Close releases the Firestore client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) query(q docstore.Query) firestore.Query {
	fq := s.client.Collection(q.Path).Query
	if q.OrderBy != "" {
		dir := firestore.Asc
		if q.Direction == docstore.Desc {
			dir = firestore.Desc
		}
		fq = fq.OrderBy(q.OrderBy, dir)
	}
	if q.After != nil {
		if snap, ok := q.After.Native().(*firestore.DocumentSnapshot); ok {
			fq = fq.StartAfter(snap)
		} else if q.OrderBy != "" {
			fq = fq.StartAfter(q.After.Value())
		}
	}
	if q.Limit > 0 {
		fq = fq.Limit(q.Limit)
	}
	return fq
}
