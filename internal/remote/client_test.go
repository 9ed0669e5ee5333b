package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/refsync/internal/domain"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{BaseURL: srv.URL}, nil)
	require.NoError(t, err)
	return client
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{}, nil)
	require.Error(t, err)
}

func TestClient_ListProducts(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/products", r.URL.Path)
		// Каждый запрос несёт корреляционный идентификатор.
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"p1","name":"Keyboard","price":100},{"id":"p2","name":"Mouse","price":50}]`))
	})

	client := newTestClient(t, handler)
	products, err := NewProducts(client).List(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, int64(100), products[0].Price)
	assert.Equal(t, "Mouse", products[1].Name)
}

func TestClient_NotFoundMapsToErrNotFound(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	client := newTestClient(t, handler)
	_, err := NewOrders(client).Get(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
	assert.False(t, domain.IsTransport(err))
}

func TestClient_BadRequestMapsToValidationError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"price must be a number"}`))
	})

	client := newTestClient(t, handler)
	_, err := NewProducts(client).Create(context.Background(), domain.Product{Name: "broken"})
	require.Error(t, err)
	require.True(t, domain.IsValidation(err))

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "products", ve.Collection)
	assert.Equal(t, http.StatusBadRequest, ve.StatusCode)
	assert.Equal(t, "price must be a number", ve.Message)
}

func TestClient_ServerErrorMapsToTransportError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	client := newTestClient(t, handler)
	_, err := NewUsers(client).List(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsTransport(err))
}

func TestClient_UnreachableMapsToTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	client, err := NewClient(Config{BaseURL: baseURL}, nil)
	require.NoError(t, err)

	_, err = NewUsers(client).List(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsTransport(err))
}

func TestOrders_ListByUser_FiltersByQuery(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "u1", r.URL.Query().Get("userId"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"o1","userId":"u1","productIds":["p1"],"status":"pending","totalPrice":100}]`))
	})

	client := newTestClient(t, handler)
	orders, err := NewOrders(client).ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "u1", orders[0].UserID)
}

func TestOrders_PatchStatus_SendsOnlyStatus(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/orders/o1", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var patch map[string]interface{}
		require.NoError(t, json.Unmarshal(body, &patch))
		require.Len(t, patch, 1)
		assert.Equal(t, "shipped", patch["status"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"o1","userId":"u1","productIds":["p1"],"status":"shipped","totalPrice":100}`))
	})

	client := newTestClient(t, handler)
	order, err := NewOrders(client).PatchStatus(context.Background(), "o1", domain.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, order.Status)
}

func TestOrders_Replace_PutsFullRecord(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/orders/o1", r.URL.Path)

		var order domain.Order
		require.NoError(t, json.NewDecoder(r.Body).Decode(&order))
		assert.Equal(t, []string{"p1", "p1"}, order.ProductIDs)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(order)
	})

	client := newTestClient(t, handler)
	order, err := NewOrders(client).Replace(context.Background(), domain.Order{
		ID:         "o1",
		UserID:     "u1",
		ProductIDs: []string{"p1", "p1"},
		Status:     domain.OrderStatusPending,
		TotalPrice: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(20), order.TotalPrice)
}

func TestCollectionOf(t *testing.T) {
	cases := map[string]string{
		"/orders":      "orders",
		"/orders/42":   "orders",
		"/users/u1":    "users",
		"/products":    "products",
		"/products/p2": "products",
	}
	for path, want := range cases {
		if got := collectionOf(path); got != want {
			t.Errorf("collectionOf(%q) = %q, want %q", path, got, want)
		}
	}
}
