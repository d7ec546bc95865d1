package shop

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/shopfront/internal/docstore"
)

func TestParseProduct_DocumentIDWins(t *testing.T) {
	p, err := ParseProduct(docstore.Document{ID: "7", Data: map[string]any{
		"id":     99,
		"title":  "Lamp",
		"price":  json.Number("12.50"),
		"images": []any{"a.png", 3, "", "b.png"},
	}})
	require.NoError(t, err)
	assert.Equal(t, "7", p.ID)
	assert.Equal(t, "Lamp", p.Title)
	assert.Equal(t, 12.5, p.Price)
	assert.Equal(t, []string{"a.png", "b.png"}, p.Images)
	assert.Empty(t, p.Category)
	assert.Empty(t, p.Description)
}

func TestParseProduct_RatingAndStock(t *testing.T) {
	p, err := ParseProduct(docstore.Document{ID: "3", Data: map[string]any{
		"rating": json.Number("4.56"),
		"stock":  int64(12),
	}})
	require.NoError(t, err)
	assert.Equal(t, 4.56, p.Rating)
	assert.Equal(t, 12, p.Stock)

	fields := p.Fields()
	assert.Equal(t, 4.56, fields["rating"])
	assert.Equal(t, 12, fields["stock"])
}

func TestParseProduct_FallsBackToBodyID(t *testing.T) {
	p, err := ParseProduct(docstore.Document{Data: map[string]any{"id": float64(12)}})
	require.NoError(t, err)
	assert.Equal(t, "12", p.ID)
}

func TestParseProduct_NoID(t *testing.T) {
	_, err := ParseProduct(docstore.Document{Data: map[string]any{"title": "x"}})
	assert.True(t, errors.Is(err, ErrNoID))
}

func TestParseCartLine_Quantities(t *testing.T) {
	tests := []struct {
		name      string
		raw       any
		stored    int
		effective int
	}{
		{"int", 3, 3, 3},
		{"int64", int64(4), 4, 4},
		{"float", 2.0, 2, 2},
		{"json number", json.Number("5"), 5, 5},
		{"missing", nil, 0, 1},
		{"garbage", "lots", 0, 1},
		{"zero", 0, 0, 1},
		{"negative", -2, -2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := map[string]any{"price": 1}
			if tt.raw != nil {
				data["quantity"] = tt.raw
			}
			l, err := ParseCartLine(docstore.Document{ID: "p", Data: data})
			require.NoError(t, err)
			assert.Equal(t, tt.stored, l.Quantity)
			assert.Equal(t, tt.effective, l.EffectiveQuantity())
			assert.Equal(t, tt.effective, QuantityOf(data))
		})
	}
}

func TestParseAll_SkipsUnusable(t *testing.T) {
	docs := []docstore.Document{
		{ID: "a", Data: map[string]any{"title": "A"}},
		{Data: map[string]any{"title": "orphan"}},
		{ID: "b", Data: map[string]any{"title": "B"}},
	}
	favs, skipped := ParseAll(docs, ParseFavorite)
	require.Len(t, favs, 2)
	assert.Equal(t, "a", favs[0].ID)
	assert.Equal(t, "b", favs[1].ID)
	require.Len(t, skipped, 1)
	assert.ErrorIs(t, skipped[0], ErrNoID)
}

func TestProductLineAndFavorite(t *testing.T) {
	p := Product{ID: "1", Title: "Mug", Price: 4.5, Category: "kitchen", Images: []string{"m.png"}}

	line := p.Line()
	assert.Equal(t, 1, line.Quantity)
	assert.Equal(t, "kitchen", line.Category)
	line.Images[0] = "changed"
	assert.Equal(t, "m.png", p.Images[0])

	fields := p.Favorite().Fields()
	assert.Equal(t, "1", fields["id"])
	assert.Equal(t, 4.5, fields["price"])
	assert.NotContains(t, fields, "quantity")
}

func TestPaths(t *testing.T) {
	assert.Equal(t, "users/u1/cart", CartPath("u1"))
	assert.Equal(t, "users/u1/favorites", FavoritesPath("u1"))
	assert.Equal(t, "stripe_customers/u1/payments", PaymentsPath("u1"))
}

func TestAuthUserName(t *testing.T) {
	assert.Equal(t, "Ada", AuthUser{DisplayName: "Ada", Email: "ada@example.com"}.Name())
	assert.Equal(t, "ada@example.com", AuthUser{Email: "ada@example.com"}.Name())
}
