package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(1999), MinorUnits(19.99))
	assert.Equal(t, int64(2000), MinorUnits(19.999))
	assert.Equal(t, int64(100), MinorUnits(1))
	assert.Equal(t, int64(0), MinorUnits(0))
	assert.Equal(t, int64(10), MinorUnits(0.1))
	assert.Equal(t, int64(29995), MinorUnits(299.95))
}

func testClient(serverURL string) *Client {
	c := NewClient("sk_test_123", serverURL, "http://localhost:3000")
	return c
}

func TestCreateSessionSuccess(t *testing.T) {
	var gotForm map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{}
		for k := range r.PostForm {
			gotForm[k] = r.PostForm.Get(k)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"cs_test_abc","url":"https://pay.example.com/cs_test_abc"}`))
	}))
	defer srv.Close()

	items := []LineItem{
		{Name: "Chrono Watch", Image: "http://localhost:3000/static/uploads/w.jpg", UnitAmount: 1999, Quantity: 2},
		{Name: "Soundbar", UnitAmount: 29995, Quantity: 1},
	}

	session, err := testClient(srv.URL).CreateSession(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, "cs_test_abc", session.ID)
	assert.Equal(t, "https://pay.example.com/cs_test_abc", session.URL)

	assert.Equal(t, "payment", gotForm["mode"])
	assert.Equal(t, "http://localhost:3000/success", gotForm["success_url"])
	assert.Equal(t, "http://localhost:3000/cart", gotForm["cancel_url"])
	assert.Equal(t, "Chrono Watch", gotForm["line_items[0][price_data][product_data][name]"])
	assert.Equal(t, "1999", gotForm["line_items[0][price_data][unit_amount]"])
	assert.Equal(t, "2", gotForm["line_items[0][quantity]"])
	assert.Equal(t, "usd", gotForm["line_items[0][price_data][currency]"])
	assert.Equal(t, "http://localhost:3000/static/uploads/w.jpg", gotForm["line_items[0][price_data][product_data][images][0]"])

	// images key is omitted when the item has none
	_, hasImage := gotForm["line_items[1][price_data][product_data][images][0]"]
	assert.False(t, hasImage)
}

func TestCreateSessionInvalidRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"Invalid currency: xyz"}}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).CreateSession(context.Background(), []LineItem{{Name: "x", UnitAmount: 100, Quantity: 1}})
	require.Error(t, err)

	var gatewayErr *GatewayError
	require.ErrorAs(t, err, &gatewayErr)
	assert.True(t, gatewayErr.InvalidRequest())
	assert.Equal(t, "Invalid currency: xyz", gatewayErr.Message)
	assert.Equal(t, http.StatusBadRequest, gatewayErr.StatusCode)
}

func TestCreateSessionOpaqueFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`upstream exploded`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).CreateSession(context.Background(), []LineItem{{Name: "x", UnitAmount: 100, Quantity: 1}})
	require.Error(t, err)

	var gatewayErr *GatewayError
	require.ErrorAs(t, err, &gatewayErr)
	assert.False(t, gatewayErr.InvalidRequest())
	assert.Equal(t, "api_error", gatewayErr.Type)
	assert.Equal(t, http.StatusInternalServerError, gatewayErr.StatusCode)
}

func TestCreateSessionTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	client := testClient(srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.CreateSession(ctx, []LineItem{{Name: "x", UnitAmount: 100, Quantity: 1}})
	assert.ErrorIs(t, err, ErrTimeout)
}
