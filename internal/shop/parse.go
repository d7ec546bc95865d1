package shop

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/five82/shopfront/internal/docstore"
)

// ErrNoID is returned for documents without a usable identifier.
var ErrNoID = errors.New("document has no id")

// ParseProduct projects a catalog document. The document id wins over any
// id field in the body.
func ParseProduct(doc docstore.Document) (Product, error) {
	id, err := docID(doc)
	if err != nil {
		return Product{}, err
	}
	d := doc.Data
	return Product{
		ID:          id,
		Title:       asString(d["title"]),
		Price:       asFloat(d["price"]),
		Category:    asString(d["category"]),
		Description: asString(d["description"]),
		Images:      asStrings(d["images"]),
		Thumbnail:   asString(d["thumbnail"]),
		Brand:       asString(d["brand"]),
		Rating:      asFloat(d["rating"]),
		Stock:       asInt(d["stock"]),
	}, nil
}

// ParseCartLine projects a cart document.
func ParseCartLine(doc docstore.Document) (CartLine, error) {
	id, err := docID(doc)
	if err != nil {
		return CartLine{}, err
	}
	d := doc.Data
	return CartLine{
		ID:       id,
		Title:    asString(d["title"]),
		Price:    asFloat(d["price"]),
		Category: asString(d["category"]),
		Images:   asStrings(d["images"]),
		Quantity: asInt(d["quantity"]),
	}, nil
}

// ParseFavorite projects a favorites document.
func ParseFavorite(doc docstore.Document) (FavoriteEntry, error) {
	id, err := docID(doc)
	if err != nil {
		return FavoriteEntry{}, err
	}
	d := doc.Data
	return FavoriteEntry{
		ID:       id,
		Title:    asString(d["title"]),
		Price:    asFloat(d["price"]),
		Category: asString(d["category"]),
		Images:   asStrings(d["images"]),
	}, nil
}

// ParseAll projects docs in order, skipping the ones parse rejects. The
// rejections are returned so callers can log them.
func ParseAll[T any](docs []docstore.Document, parse func(docstore.Document) (T, error)) ([]T, []error) {
	out := make([]T, 0, len(docs))
	var skipped []error
	for _, doc := range docs {
		v, err := parse(doc)
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		out = append(out, v)
	}
	return out, skipped
}

// QuantityOf reads the quantity field of a raw cart document, defaulting
// to 1 when it is missing or not a positive number.
func QuantityOf(data map[string]any) int {
	return CartLine{Quantity: asInt(data["quantity"])}.EffectiveQuantity()
}

// Fields is the stored form of a cart line.
func (l CartLine) Fields() map[string]any {
	m := map[string]any{
		"id":       l.ID,
		"title":    l.Title,
		"price":    l.Price,
		"category": l.Category,
		"quantity": l.Quantity,
	}
	if l.Images != nil {
		m["images"] = cloneStrings(l.Images)
	}
	return m
}

// Fields is the stored form of a favorites entry.
func (f FavoriteEntry) Fields() map[string]any {
	m := map[string]any{
		"id":       f.ID,
		"title":    f.Title,
		"price":    f.Price,
		"category": f.Category,
	}
	if f.Images != nil {
		m["images"] = cloneStrings(f.Images)
	}
	return m
}

// Fields is the stored form of a catalog product.
func (p Product) Fields() map[string]any {
	m := map[string]any{
		"id":          p.ID,
		"title":       p.Title,
		"price":       p.Price,
		"category":    p.Category,
		"description": p.Description,
		"thumbnail":   p.Thumbnail,
		"brand":       p.Brand,
		"rating":      p.Rating,
		"stock":       p.Stock,
	}
	if p.Images != nil {
		m["images"] = cloneStrings(p.Images)
	}
	return m
}

func docID(doc docstore.Document) (string, error) {
	id := strings.TrimSpace(doc.ID)
	if id == "" {
		id = strings.TrimSpace(asString(doc.Data["id"]))
	}
	if id == "" {
		return "", ErrNoID
	}
	return id, nil
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	}
	return ""
}

func asFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return finite(t)
	case float32:
		return finite(float64(t))
	case int:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case json.Number:
		f, _ := t.Float64()
		return finite(f)
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return finite(f)
	}
	return 0
}

func asInt(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int32:
		return int(t)
	case int64:
		return int(t)
	}
	f := asFloat(v)
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0
	}
	return int(f)
}

func asStrings(v any) []string {
	switch t := v.(type) {
	case []string:
		return cloneStrings(t)
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
