package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/auth"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/health"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/pkg/pagination"
)

// --- Mock repositories ---

type mockUserRepository struct{ mock.Mock }

func (m *mockUserRepository) Create(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) List(ctx context.Context, page pagination.Params) ([]domain.User, int, error) {
	args := m.Called(ctx, page)
	return args.Get(0).([]domain.User), args.Int(1), args.Error(2)
}

type mockCartRepository struct{ mock.Mock }

func (m *mockCartRepository) Create(ctx context.Context, userID string) (*domain.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockCartRepository) GetByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockCartRepository) AddItem(ctx context.Context, item *domain.CartItem) (bool, error) {
	args := m.Called(ctx, item)
	return args.Bool(0), args.Error(1)
}

func (m *mockCartRepository) GetItem(ctx context.Context, itemID string) (*domain.CartItem, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CartItem), args.Error(1)
}

func (m *mockCartRepository) UpdateItemQuantity(ctx context.Context, itemID string, quantity int) error {
	return m.Called(ctx, itemID, quantity).Error(0)
}

func (m *mockCartRepository) DeleteItem(ctx context.Context, itemID string) error {
	return m.Called(ctx, itemID).Error(0)
}

type mockCategoryRepository struct{ mock.Mock }

func (m *mockCategoryRepository) GetOrCreate(ctx context.Context, name string, parentID *string, level int) (*domain.Category, error) {
	args := m.Called(ctx, name, parentID, level)
	if c := args.Get(0); c != nil {
		return c.(*domain.Category), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockProductRepository struct{ mock.Mock }

func (m *mockProductRepository) Create(ctx context.Context, p *domain.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) Update(ctx context.Context, p *domain.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockProductRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockProductRepository) Exists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockProductRepository) List(ctx context.Context, f repository.ProductFilter) ([]domain.Product, int, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]domain.Product), args.Int(1), args.Error(2)
}

// nopCache always misses.
type nopCache struct{}

func (nopCache) Get(context.Context, string) (*domain.Product, error) { return nil, nil }
func (nopCache) Set(context.Context, *domain.Product) error           { return nil }
func (nopCache) Delete(context.Context, string) error                 { return nil }

// mockOrderRepository runs the placement builder against cart.
type mockOrderRepository struct {
	mock.Mock
	cart *domain.Cart
}

func (m *mockOrderRepository) Place(ctx context.Context, userID string, build repository.OrderBuilder) (string, error) {
	args := m.Called(ctx, userID)
	if err := args.Error(1); err != nil {
		return "", err
	}
	o, err := build(m.cart)
	if err != nil {
		return "", err
	}
	return o.ID, nil
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) List(ctx context.Context, f repository.OrderFilter) ([]domain.Order, int, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]domain.Order), args.Int(1), args.Error(2)
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) error {
	return m.Called(ctx, id, from, to).Error(0)
}

func (m *mockOrderRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// --- Test server ---

type nopWriter struct{}

func (nopWriter) WriteMessages(context.Context, ...kafka.Message) error { return nil }

func (nopWriter) Close() error { return nil }

const (
	testSecret  = "0123456789abcdef0123456789abcdef"
	customerID  = "11111111-1111-1111-1111-111111111111"
	otherUserID = "22222222-2222-2222-2222-222222222222"
	adminID     = "99999999-9999-9999-9999-999999999999"
	productID   = "550e8400-e29b-41d4-a716-446655440020"
	orderID     = "550e8400-e29b-41d4-a716-446655440001"
	cartItemID  = "550e8400-e29b-41d4-a716-446655440030"
)

type testServer struct {
	handler    http.Handler
	jwt        *auth.JWTManager
	users      *mockUserRepository
	carts      *mockCartRepository
	products   *mockProductRepository
	categories *mockCategoryRepository
	orders     *mockOrderRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWith(t, RouterConfig{
		ServiceName:   "storefront-test",
		CatalogMaxAge: time.Minute,
		CORS:          middleware.DefaultCORSConfig(),
	})
}

func newTestServerWith(t *testing.T, cfg RouterConfig) *testServer {
	t.Helper()
	l := logger.Discard()
	producer := event.NewProducer(pkgkafka.NewProducerWithWriter(nopWriter{}, nil, l), l)

	ts := &testServer{
		jwt:        auth.NewJWTManager(testSecret, time.Hour),
		users:      new(mockUserRepository),
		carts:      new(mockCartRepository),
		products:   new(mockProductRepository),
		categories: new(mockCategoryRepository),
		orders:     new(mockOrderRepository),
	}

	svc := Services{
		Users:    service.NewUserService(ts.users, ts.carts, ts.jwt, producer, l),
		Products: service.NewProductService(ts.products, ts.categories, nopCache{}, producer, l),
		Reviews:  service.NewReviewService(ts.products, nil, nil, l),
		Carts:    service.NewCartService(ts.carts, ts.products, l),
		Orders:   service.NewOrderService(ts.orders, producer, 0, l),
	}
	ts.handler = NewRouter(svc, ts.jwt.Validator(), health.NewHandler(), cfg, l)
	return ts
}

func (ts *testServer) token(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := ts.jwt.GenerateAccessToken(userID, userID+"@example.com", role)
	require.NoError(t, err)
	return tok
}

func (ts *testServer) do(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if req.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}
