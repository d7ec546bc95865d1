package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/five82/shopfront/internal/docstore"
	"github.com/five82/shopfront/internal/shop"
)

const (
	// DefaultSource is the public catalog the importer reads.
	DefaultSource = "https://dummyjson.com/products?limit=100"
	// ImportBatchSize keeps each bulk write under Firestore's 500-write cap.
	ImportBatchSize  = 499
	defaultUserAgent = "shopfront/0.1"
	fetchTimeout     = 30 * time.Second
)

// sourceProduct is one entry of the dummyjson response.
type sourceProduct struct {
	ID                 int      `json:"id"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Price              float64  `json:"price"`
	DiscountPercentage float64  `json:"discountPercentage"`
	Rating             float64  `json:"rating"`
	Stock              int      `json:"stock"`
	Brand              string   `json:"brand"`
	Category           string   `json:"category"`
	Thumbnail          string   `json:"thumbnail"`
	Images             []string `json:"images"`
}

type sourceResponse struct {
	Products []sourceProduct `json:"products"`
	Total    int             `json:"total"`
	Skip     int             `json:"skip"`
	Limit    int             `json:"limit"`
}

func (p sourceProduct) document() docstore.Document {
	id := strconv.Itoa(p.ID)
	data := shop.Product{
		ID:          id,
		Title:       p.Title,
		Price:       p.Price,
		Category:    p.Category,
		Description: p.Description,
		Images:      p.Images,
		Thumbnail:   p.Thumbnail,
		Brand:       p.Brand,
		Rating:      p.Rating,
		Stock:       p.Stock,
	}.Fields()
	data["discountPercentage"] = p.DiscountPercentage
	return docstore.Document{ID: id, Data: data}
}

// Importer copies a remote catalog into the products collection.
type Importer struct {
	source    *url.URL
	http      *http.Client
	userAgent string
	store     docstore.Store
	log       logrus.FieldLogger
	batchSize int
}

// NewImporter returns an importer reading source, or DefaultSource when empty.
func NewImporter(source string, store docstore.Store, log logrus.FieldLogger) (*Importer, error) {
	trimmed := strings.TrimSpace(source)
	if trimmed == "" {
		trimmed = DefaultSource
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse catalog source %q: %w", source, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("catalog source %q: unsupported scheme", source)
	}
	return &Importer{
		source:    u,
		http:      &http.Client{Timeout: fetchTimeout},
		userAgent: defaultUserAgent,
		store:     store,
		log:       log,
		batchSize: ImportBatchSize,
	}, nil
}

// Import fetches the catalog and writes every product to products/{id}. It
// returns the number of products written.
func (i *Importer) Import(ctx context.Context) (int, error) {
	docs, err := i.fetch(ctx)
	if err != nil {
		return 0, err
	}
	i.log.WithField("count", len(docs)).Info("fetched catalog")
	if len(docs) == 0 {
		return 0, nil
	}

	written := 0
	for start := 0; start < len(docs); start += i.batchSize {
		end := min(start+i.batchSize, len(docs))
		if err := i.store.SetAll(ctx, shop.ProductsPath, docs[start:end]); err != nil {
			return written, fmt.Errorf("write products %d-%d: %w", start, end, err)
		}
		written = end
		i.log.WithField("written", written).Debug("committed product batch")
	}
	return written, nil
}

func (i *Importer) fetch(ctx context.Context) ([]docstore.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, i.source.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", i.userAgent)

	resp, err := i.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("catalog %s returned status %d", i.source.Host, resp.StatusCode)
	}
	var payload sourceResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	docs := make([]docstore.Document, 0, len(payload.Products))
	for _, p := range payload.Products {
		if p.ID <= 0 {
			i.log.WithField("title", p.Title).Warn("skipping catalog entry without id")
			continue
		}
		docs = append(docs, p.document())
	}
	return docs, nil
}
