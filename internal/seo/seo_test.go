package seo

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProductSchema(t *testing.T) {
	m := Product(ProductInput{
		Name:         "Divan",
		URL:          "https://lebem.uz/product/divan",
		Price:        150000,
		Rating:       4.5,
		ReviewsCount: 2,
	})
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(JSON(m)), &decoded))
	require.Equal(t, "Product", decoded["@type"])
	offers := decoded["offers"].(map[string]any)
	require.Equal(t, "UZS", offers["priceCurrency"])
	require.Contains(t, decoded, "aggregateRating")

	bare := Product(ProductInput{Name: "X"})
	require.NotContains(t, bare, "offers")
	require.NotContains(t, bare, "aggregateRating")
}

func TestScriptEscapesClosingTag(t *testing.T) {
	out := string(Script(map[string]any{"name": "</script><b>"}))
	require.False(t, strings.Contains(out, "</script>"))
}

func TestBreadcrumbList(t *testing.T) {
	m := BreadcrumbList([]BreadcrumbItem{{Name: "Bosh sahifa", Item: "/"}, {Name: "Divanlar", Item: "/category/divanlar"}})
	items := m["itemListElement"].([]map[string]any)
	require.Len(t, items, 2)
	require.Equal(t, 2, items[1]["position"])
}
