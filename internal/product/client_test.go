package product

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/foodlens/internal/cache"
	"github.com/ppiankov/foodlens/internal/metrics"
	"github.com/ppiankov/foodlens/internal/model"
)

const nutellaJSON = `{
  "status": 1,
  "code": "3017620422003",
  "product": {
    "code": "3017620422003",
    "product_name": "Nutella",
    "ingredients_text": "Sugar, palm oil, hazelnuts 13%, skimmed milk powder 8.7%, fat-reduced cocoa 7.4%, emulsifier: lecithins (soya), vanillin",
    "ingredients_text_with_allergens": "Sugar, palm oil, <span class=\"allergen\">hazelnuts</span> 13%, skimmed <span class=\"allergen\">milk</span> powder 8.7%",
    "nutriments": {
      "energy-kcal_100g": 539,
      "fat_100g": 30.9,
      "carbohydrates_100g": "57.5",
      "proteins_100g": 6.3,
      "sugars_100g": 56.3,
      "sodium_100g": 0.0428
    },
    "allergens_tags": ["en:milk", "en:nuts", "en:soybeans"],
    "additives_tags": ["en:e322", "en:e322i"]
  }
}`

func testConfig(baseURL string) (model.HTTPConfig, model.RateLimitingConfig) {
	return model.HTTPConfig{
			BaseURL:      baseURL,
			Timeout:      5 * time.Second,
			UserAgent:    "foodlens-test/0.1",
			MaxBodyBytes: 1 << 20,
		}, model.RateLimitingConfig{
			RequestsPerSecond: 0,
			BurstSize:         1,
		}
}

func TestClient_ByBarcode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v0/product/3017620422003.json", r.URL.Path)
		assert.Equal(t, "foodlens-test/0.1", r.Header.Get("User-Agent"))
		_, _ = fmt.Fprint(w, nutellaJSON)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	p, err := client.ByBarcode(context.Background(), "3017620422003")
	require.NoError(t, err)

	assert.Equal(t, "Nutella", p.Name)
	assert.Equal(t, "3017620422003", p.Barcode)
	assert.Equal(t, model.InputBarcode, p.Kind)
	assert.Equal(t, server.URL+"/product/3017620422003", p.SourceURL)

	require.Len(t, p.Ingredients, 7)
	assert.Equal(t, "Sugar", p.Ingredients[0])
	assert.Equal(t, "emulsifier: lecithins (soya)", p.Ingredients[5])

	assert.Equal(t, []string{"milk", "nuts", "soybeans", "hazelnuts"}, p.Allergens)
	assert.Equal(t, []string{"e322", "e322i"}, p.Additives)

	assert.Equal(t, 539.0, p.Nutrition[model.NutrientCalories])
	assert.Equal(t, 57.5, p.Nutrition[model.NutrientCarbs])
	assert.InDelta(t, 42.8, p.Nutrition[model.NutrientSodium], 1e-9)

	_, fiberKnown := p.Nutrition.Get(model.NutrientFiber)
	assert.False(t, fiberKnown, "missing nutriments stay unknown")
}

func TestClient_ByBarcodeNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"status":0,"status_verbose":"product not found"}`)
	}))
	defer server.Close()

	_, err := NewClient(testConfig(server.URL)).ByBarcode(context.Background(), "0000000000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_UpstreamNotFoundStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewClient(testConfig(server.URL)).ByBarcode(context.Background(), "123")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_UpstreamFailure(t *testing.T) {
	origSleep := fetchSleepFunc
	fetchSleepFunc = func(d time.Duration) {}
	defer func() { fetchSleepFunc = origSleep }()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewClient(testConfig(server.URL)).ByBarcode(context.Background(), "123")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
}

func TestClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cgi/search.pl", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "oat milk", q.Get("search_terms"))
		assert.Equal(t, "1", q.Get("search_simple"))
		assert.Equal(t, "process", q.Get("action"))
		assert.Equal(t, "1", q.Get("json"))
		assert.Equal(t, "1", q.Get("page_size"))
		_, _ = fmt.Fprint(w, `{"count":1,"products":[{"code":"7394376616037","product_name":"Oat Drink","ingredients_text":"Water, oats 10%, rapeseed oil, calcium carbonate, salt","nutriments":{}}]}`)
	}))
	defer server.Close()

	p, err := NewClient(testConfig(server.URL)).Search(context.Background(), "  oat milk ")
	require.NoError(t, err)

	assert.Equal(t, "Oat Drink", p.Name)
	assert.Equal(t, model.InputSearch, p.Kind)
	assert.Len(t, p.Ingredients, 5)
	assert.NotNil(t, p.Nutrition, "empty nutriments object means nutrition present")
	assert.Empty(t, p.Nutrition)
}

func TestClient_SearchNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"count":0,"products":[]}`)
	}))
	defer server.Close()

	_, err := NewClient(testConfig(server.URL)).Search(context.Background(), "unobtainium")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = NewClient(testConfig(server.URL)).Search(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_SearchFallsBackToQueryName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"count":1,"products":[{"ingredients_text":"water"}]}`)
	}))
	defer server.Close()

	p, err := NewClient(testConfig(server.URL)).Search(context.Background(), "tap water")
	require.NoError(t, err)
	assert.Equal(t, "tap water", p.Name)
	assert.Empty(t, p.SourceURL)
	assert.Nil(t, p.Nutrition)
}

func TestClient_CachesResponses(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = fmt.Fprint(w, nutellaJSON)
	}))
	defer server.Close()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	httpCfg, rl := testConfig(server.URL)
	client := NewClient(httpCfg, rl,
		WithCache(cache.NewMemoryCache(time.Minute, time.Minute)),
		WithMetrics(m),
	)

	for i := 0; i < 3; i++ {
		p, err := client.ByBarcode(context.Background(), "3017620422003")
		require.NoError(t, err)
		assert.Equal(t, "Nutella", p.Name)
	}

	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProductLookups.WithLabelValues("barcode", "miss")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ProductLookups.WithLabelValues("barcode", "hit")))
}

func TestClient_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `<html>maintenance</html>`)
	}))
	defer server.Close()

	_, err := NewClient(testConfig(server.URL)).ByBarcode(context.Background(), "123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode product")
}

func TestToFloat(t *testing.T) {
	tests := []struct {
		in   any
		want float64
		ok   bool
	}{
		{12.5, 12.5, true},
		{3, 3, true},
		{" 4.2 ", 4.2, true},
		{"n/a", 0, false},
		{nil, 0, false},
		{true, 0, false},
	}

	for _, tt := range tests {
		got, ok := toFloat(tt.in)
		assert.Equal(t, tt.ok, ok, "%v", tt.in)
		assert.Equal(t, tt.want, got, "%v", tt.in)
	}
}

func TestNutritionFrom_PrefersFirstCalorieKey(t *testing.T) {
	facts := nutritionFrom(map[string]any{
		"energy-kcal_100g": 100.0,
		"energy_kcal_100g": 250.0,
	})
	assert.Equal(t, model.NutritionFacts{model.NutrientCalories: 100}, facts)
	assert.Nil(t, nutritionFrom(nil))
}
