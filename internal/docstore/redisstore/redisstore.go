// Package redisstore keeps docstore collections in Redis hashes and drives
// live queries off pub/sub change notifications.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/five82/shopfront/internal/docstore"
)

var _ docstore.Store = (*Store)(nil)

const maxTxRetries = 5

// Store is a docstore backend on a Redis client.
type Store struct {
	client *redis.Client
}

// New wraps an existing client. Close closes it.
func New(client *redis.Client) *Store {
	return &Store{client: client}
}

// Open connects to addr, which may be a redis:// URL or a plain host:port.
func Open(ctx context.Context, addr string) (*Store, error) {
	opts, err := redis.ParseURL(addr)
	if err != nil {
		opts = &redis.Options{
			Addr:         addr,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		}
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return New(client), nil
}

func hashKey(path string) string { return "doc:" + path }
func channel(path string) string { return "chg:" + path }

func encode(data map[string]any) (string, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	return string(b), nil
}

func decode(id, raw string) (docstore.Document, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return docstore.Document{}, fmt.Errorf("decode document %s: %w", id, err)
	}
	return docstore.Document{ID: id, Data: data}, nil
}

// Get reads one document.
func (s *Store) Get(ctx context.Context, path, id string) (docstore.Document, error) {
	raw, err := s.client.HGet(ctx, hashKey(path), id).Result()
	if errors.Is(err, redis.Nil) {
		return docstore.Document{}, fmt.Errorf("get %s/%s: %w", path, id, docstore.ErrNotFound)
	}
	if err != nil {
		return docstore.Document{}, fmt.Errorf("redis hget failed: %w", err)
	}
	return decode(id, raw)
}

// Set overwrites a document and announces the change.
func (s *Store) Set(ctx context.Context, path, id string, data map[string]any) error {
	encoded, err := encode(data)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, hashKey(path), id, encoded)
		pipe.Publish(ctx, channel(path), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Update merges fields into an existing document inside an optimistic
// WATCH transaction.
func (s *Store) Update(ctx context.Context, path, id string, fields map[string]any) error {
	key := hashKey(path)
	txf := func(tx *redis.Tx) error {
		raw, err := tx.HGet(ctx, key, id).Result()
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("update %s/%s: %w", path, id, docstore.ErrNotFound)
		}
		if err != nil {
			return err
		}
		doc, err := decode(id, raw)
		if err != nil {
			return err
		}
		for k, v := range fields {
			doc.Data[k] = v
		}
		encoded, err := encode(doc.Data)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, id, encoded)
			pipe.Publish(ctx, channel(path), id)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil && !errors.Is(err, docstore.ErrNotFound) {
			return fmt.Errorf("redis update failed: %w", err)
		}
		return err
	}
	return fmt.Errorf("redis update %s/%s: too much contention", path, id)
}

// Delete removes a document. Watchers are only notified when something
// was actually removed.
func (s *Store) Delete(ctx context.Context, path, id string) error {
	removed, err := s.client.HDel(ctx, hashKey(path), id).Result()
	if err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	if removed > 0 {
		if err := s.client.Publish(ctx, channel(path), id).Err(); err != nil {
			return fmt.Errorf("redis publish failed: %w", err)
		}
	}
	return nil
}

// Add writes data under a random UUID.
func (s *Store) Add(ctx context.Context, path string, data map[string]any) (string, error) {
	id := uuid.NewString()
	if err := s.Set(ctx, path, id, data); err != nil {
		return "", err
	}
	return id, nil
}

// List loads the collection and evaluates q client-side.
func (s *Store) List(ctx context.Context, q docstore.Query) (docstore.Page, error) {
	docs, err := s.all(ctx, q.Path)
	if err != nil {
		return docstore.Page{}, err
	}
	return docstore.Apply(docs, q), nil
}

// SetAll writes docs in a single MULTI and publishes one change.
func (s *Store) SetAll(ctx context.Context, path string, docs []docstore.Document) error {
	if len(docs) == 0 {
		return nil
	}
	values := make([]any, 0, 2*len(docs))
	for _, doc := range docs {
		encoded, err := encode(doc.Data)
		if err != nil {
			return err
		}
		values = append(values, doc.ID, encoded)
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, hashKey(path), values...)
		pipe.Publish(ctx, channel(path), "*")
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis batch set failed: %w", err)
	}
	return nil
}

// Watch opens a live query on q.
func (s *Store) Watch(ctx context.Context, q docstore.Query) *docstore.Feed {
	return s.watch(ctx, q, "")
}

// WatchDoc follows a single document.
func (s *Store) WatchDoc(ctx context.Context, path, id string) *docstore.Feed {
	return s.watch(ctx, docstore.Query{Path: path}, id)
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) all(ctx context.Context, path string) ([]docstore.Document, error) {
	entries, err := s.client.HGetAll(ctx, hashKey(path)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall failed: %w", err)
	}
	docs := make([]docstore.Document, 0, len(entries))
	for id, raw := range entries {
		doc, err := decode(id, raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *Store) evaluate(ctx context.Context, q docstore.Query, docID string) ([]docstore.Document, error) {
	if docID == "" {
		page, err := s.List(ctx, q)
		return page.Docs, err
	}
	doc, err := s.Get(ctx, q.Path, docID)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []docstore.Document{doc}, nil
}

func (s *Store) watch(parent context.Context, q docstore.Query, docID string) *docstore.Feed {
	ctx, cancel := context.WithCancel(parent)
	feed := docstore.NewFeed(cancel)
	go s.run(ctx, feed, q, docID)
	return feed
}

func (s *Store) run(ctx context.Context, feed *docstore.Feed, q docstore.Query, docID string) {
	defer feed.Finish()

	sub := s.client.Subscribe(ctx, channel(q.Path))
	defer sub.Close()

	// Confirm the subscription before reading so no change slips between
	// the initial snapshot and the first notification.
	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() == nil {
			feed.Publish(docstore.Snapshot{Err: fmt.Errorf("redis subscribe failed: %w", err)})
		}
		return
	}

	publish := func() bool {
		docs, err := s.evaluate(ctx, q, docID)
		if err != nil {
			if ctx.Err() == nil {
				feed.Publish(docstore.Snapshot{Err: err})
			}
			return false
		}
		return feed.Publish(docstore.Snapshot{Docs: docs})
	}
	if !publish() {
		return
	}

	changes := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			feed.Stop()
			return
		case msg, ok := <-changes:
			if !ok {
				return
			}
			if docID != "" && msg.Payload != docID && msg.Payload != "*" {
				continue
			}
		drain:
			for {
				select {
				case _, ok := <-changes:
					if !ok {
						return
					}
				default:
					break drain
				}
			}
			if !publish() {
				return
			}
		}
	}
}
