package docstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get and Update when the document does not exist.
var ErrNotFound = errors.New("document not found")

// Document is a schemaless record labeled with its persistent identifier.
type Document struct {
	ID   string
	Data map[string]any
}

// Clone returns a copy whose nested maps and slices are independent of d.
func (d Document) Clone() Document {
	return Document{ID: d.ID, Data: CloneData(d.Data)}
}

// Direction orders query results.
type Direction int

const (
	Asc Direction = iota
	Desc
)

// Query selects documents from a collection path such as "products" or
// "users/{uid}/cart".
type Query struct {
	Path      string
	OrderBy   string
	Direction Direction
	Limit     int
	After     *Cursor
}

// Cursor marks the last document of a fetched page. Backends that have a
// native handle (a Firestore snapshot) keep it in native; the others resume
// from the order-by value and document id.
type Cursor struct {
	id     string
	value  any
	native any
}

// NewCursor builds a cursor positioned on doc for a query ordered by orderBy.
func NewCursor(doc Document, orderBy string, native any) *Cursor {
	c := &Cursor{id: doc.ID, native: native}
	if orderBy != "" && doc.Data != nil {
		c.value = doc.Data[orderBy]
	}
	return c
}

// ID returns the id of the document the cursor points at.
func (c *Cursor) ID() string {
	if c == nil {
		return ""
	}
	return c.id
}

// Value returns the order-by field value of the cursor document.
func (c *Cursor) Value() any {
	if c == nil {
		return nil
	}
	return c.value
}

// Native returns the backend handle, if any.
func (c *Cursor) Native() any {
	if c == nil {
		return nil
	}
	return c.native
}

// Page is one result of a List call.
type Page struct {
	Docs   []Document
	Cursor *Cursor // nil when Docs is empty
}

// Store is the document database contract the storefront runs on.
//
// Delete of an absent document is not an error. Watch and WatchDoc never
// fail synchronously; errors are delivered on the feed, after which the
// feed ends.
type Store interface {
	Get(ctx context.Context, path, id string) (Document, error)
	Set(ctx context.Context, path, id string, data map[string]any) error
	Update(ctx context.Context, path, id string, fields map[string]any) error
	Delete(ctx context.Context, path, id string) error
	Add(ctx context.Context, path string, data map[string]any) (string, error)
	List(ctx context.Context, q Query) (Page, error)
	SetAll(ctx context.Context, path string, docs []Document) error
	Watch(ctx context.Context, q Query) *Feed
	WatchDoc(ctx context.Context, path, id string) *Feed
	Close() error
}

// CloneData deep-copies the maps and slices of a document body.
func CloneData(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneData(t)
	case []any:
		dup := make([]any, len(t))
		for i, item := range t {
			dup[i] = cloneValue(item)
		}
		return dup
	case []string:
		dup := make([]string, len(t))
		copy(dup, t)
		return dup
	case []map[string]any:
		dup := make([]map[string]any, len(t))
		for i, item := range t {
			dup[i] = CloneData(item)
		}
		return dup
	default:
		return v
	}
}
