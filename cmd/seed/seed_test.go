package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/service"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httpclient"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/validator"
)

func TestGenerateProducts_ValidAndDeterministic(t *testing.T) {
	a := generateProducts(50, 7)
	b := generateProducts(50, 7)
	require.Len(t, a, 50)
	assert.Equal(t, a, b)

	for _, p := range a {
		require.NoError(t, validator.Validate(p), p.Title)
		assert.LessOrEqual(t, p.DiscountedPrice, p.Price)
	}
}

func TestLoadProducts_Fixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"title":"Kurta","price":1000,"discountedPrice":900,
		"topLevelCategory":"Men","secondLevelCategory":"Clothing","thirdLevelCategory":"Mens Kurta"}]`), 0o600))

	products, err := loadProducts(path, 0, 0)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Mens Kurta", products[0].ThirdLevelCategory)

	_, err = loadProducts(filepath.Join(t.TempDir(), "missing.json"), 0, 0)
	assert.Error(t, err)
}

func newTestSeeder(t *testing.T, srv *httptest.Server, batch int) *seeder {
	t.Helper()
	cfg := httpclient.DefaultConfig()
	cfg.MaxRetries = 0
	return &seeder{
		client: httpclient.NewCircuitBreakerClient(
			httpclient.New(cfg),
			httpclient.DefaultCircuitBreakerConfig("seed-test"),
			logger.Discard(),
		),
		baseURL:   srv.URL,
		batchSize: batch,
		logger:    logger.Discard(),
	}
}

func TestSeeder_SignInAndPushBatches(t *testing.T) {
	var batches atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/signin", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteData(w, http.StatusOK, map[string]string{"jwt": "admin-token"})
	})
	mux.HandleFunc("POST /api/admin/products/creates", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer admin-token" {
			httputil.WriteError(w, r, apperrors.Unauthorized("missing token"), nil)
			return
		}
		var batch []service.CreateProductInput
		if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
			httputil.WriteValidationError(w, r, err)
			return
		}
		batches.Add(1)
		httputil.WriteData(w, http.StatusCreated, map[string]int{"created": len(batch)})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := newTestSeeder(t, srv, 4)
	require.NoError(t, s.signIn(t.Context(), "admin@example.com", "secret"))

	created, err := s.push(t.Context(), generateProducts(10, 1))
	require.NoError(t, err)
	assert.Equal(t, 10, created)
	assert.Equal(t, int32(3), batches.Load())
}

func TestSeeder_StopsOnRejectedBatch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/admin/products/creates", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteError(w, r, apperrors.Forbidden("insufficient permissions"), nil)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := newTestSeeder(t, srv, 5)
	created, err := s.push(t.Context(), generateProducts(10, 1))

	require.Error(t, err)
	assert.Zero(t, created)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
}
