package market

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCreds struct {
	user  string
	token string
}

func (f *fakeCreds) UserName() string          { return f.user }
func (f *fakeCreds) AuthToken() string         { return f.token }
func (f *fakeCreds) SetAuthToken(token string) { f.token = token }

func newTestClient(t *testing.T, router *mux.Router, creds *fakeCreds) *Client {
	t.Helper()
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	// short interval keeps the suite fast; spacing has its own tests
	return NewClient(creds, WithBaseURL(srv.URL+"/"), WithGate(NewGate(time.Millisecond)))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestGetAllOwnOrdersSendsAuthHeaders(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/profile/{user}/orders", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "SomeTenno", mux.Vars(r)["user"])
		assert.Equal(t, "application/json; utf-8", r.Header.Get("Content-Type"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "en", r.Header.Get("language"))
		assert.Equal(t, "pc", r.Header.Get("platform"))
		assert.Equal(t, "header", r.Header.Get("auth_type"))
		assert.Equal(t, "JWT tok123", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"payload":{"sell_orders":[
			{"id":"o1","platinum":15,"quantity":2,"visible":true,"mod_rank":3,"item":{"id":"i1","url_name":"vaykor_hek"}},
			{"id":"o2","platinum":7.5,"quantity":1,"visible":false,"item":{"id":"i2","url_name":"rakta_cernos"}}
		],"buy_orders":[]}}`))
	}).Methods(http.MethodGet)

	c := newTestClient(t, router, &fakeCreds{user: "SomeTenno", token: "tok123"})
	resp, err := c.GetAllOwnOrders(context.Background())
	require.NoError(t, err)

	orders := resp.Payload.SellOrders
	require.Len(t, orders, 2)
	assert.Equal(t, "o1", orders[0].ID)
	require.NotNil(t, orders[0].ModRank)
	assert.Equal(t, 3, *orders[0].ModRank)
	assert.Equal(t, "vaykor_hek", orders[0].Item.URLName)
	assert.Nil(t, orders[1].ModRank)
	assert.InDelta(t, 7.5, orders[1].Platinum, 0.001)
	assert.False(t, orders[1].Visible)
	assert.Equal(t, int64(1), c.GetAPICallCount())
}

func TestGetAllOwnOrdersRequiresUserName(t *testing.T) {
	router := mux.NewRouter()
	router.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	})

	c := newTestClient(t, router, &fakeCreds{})
	_, err := c.GetAllOwnOrders(context.Background())
	assert.ErrorIs(t, err, ErrNoUserName)
	assert.Zero(t, c.GetAPICallCount())
}

func TestGetItemInfoIsUnauthenticated(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/items/{name}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secura_dual_cestra", mux.Vars(r)["name"])
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.Empty(t, r.Header.Get("auth_type"))
		assert.Equal(t, "pc", r.Header.Get("platform"))
		_, _ = w.Write([]byte(`{"payload":{"item":{"id":"a","items_in_set":[
			{"id":"a","url_name":"secura_dual_cestra","en":{"item_name":"Secura Dual Cestra","drop":[{"name":"The Perrin Sequence"}]}}
		]}}}`))
	}).Methods(http.MethodGet)

	c := newTestClient(t, router, &fakeCreds{user: "u", token: "t"})
	resp, err := c.GetItemInfo(context.Background(), "secura_dual_cestra")
	require.NoError(t, err)

	item := resp.Payload.Item
	assert.Equal(t, "a", item.ID)
	require.Len(t, item.ItemsInSet, 1)
	require.Len(t, item.ItemsInSet[0].En.Drop, 1)
	assert.Equal(t, "The Perrin Sequence", item.ItemsInSet[0].En.Drop[0].Name)
}

func TestGetAllItemsInfoAndGetOrder(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/items", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"payload":{"items":[{"id":"x","url_name":"synoid_gammacor","item_name":"Synoid Gammacor"}]}}`))
	}).Methods(http.MethodGet)
	router.HandleFunc("/profile/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "JWT t", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"payload":{"order":{"id":"` + mux.Vars(r)["id"] + `","platinum":20,"quantity":1,"visible":true}}}`))
	}).Methods(http.MethodGet)

	c := newTestClient(t, router, &fakeCreds{user: "u", token: "t"})

	items, err := c.GetAllItemsInfo(context.Background())
	require.NoError(t, err)
	require.Len(t, items.Payload.Items, 1)
	assert.Equal(t, "synoid_gammacor", items.Payload.Items[0].URLName)

	order, err := c.GetOrder(context.Background(), "o42")
	require.NoError(t, err)
	assert.Equal(t, "o42", order.Payload.Order.ID)
	assert.True(t, order.Payload.Order.Visible)

	assert.Equal(t, int64(2), c.GetAPICallCount())
	c.ResetAPICallCount()
	assert.Zero(t, c.GetAPICallCount())
}

func TestUpdateOrderRenewsToken(t *testing.T) {
	rank := 0
	router := mux.NewRouter()
	router.HandleFunc("/profile/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "o1", mux.Vars(r)["id"])
		assert.Equal(t, "JWT old-token", r.Header.Get("Authorization"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "o1", body["order_id"])
		assert.Equal(t, 12.0, body["platinum"])
		assert.Equal(t, 3.0, body["quantity"])
		assert.Equal(t, false, body["visible"])
		assert.Equal(t, 0.0, body["mod_rank"])

		w.Header().Set("Authorization", "JWT new-token")
		writeJSON(w, map[string]any{"payload": map[string]any{}})
	}).Methods(http.MethodPut)

	creds := &fakeCreds{user: "u", token: "old-token"}
	c := newTestClient(t, router, creds)

	err := c.UpdateOrder(context.Background(), "o1", OrderUpdate{
		OrderID:  "o1",
		Platinum: 12,
		Quantity: 3,
		Visible:  false,
		ModRank:  &rank,
	})
	require.NoError(t, err)
	assert.Equal(t, "new-token", creds.token)
}

func TestUpdateOrderOmitsMissingModRank(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/profile/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, has := body["mod_rank"]
		assert.False(t, has)
	}).Methods(http.MethodPut)

	creds := &fakeCreds{user: "u", token: "keep"}
	c := newTestClient(t, router, creds)
	require.NoError(t, c.UpdateOrder(context.Background(), "o1", OrderUpdate{OrderID: "o1", Visible: true}))
	assert.Equal(t, "keep", creds.token, "no header means no renewal")
}

func TestUpdateOrderFailureKeepsToken(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/profile/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Authorization", "JWT should-not-be-stored")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"request":["app.account.unauthorized"]}}`))
	}).Methods(http.MethodPut)

	creds := &fakeCreds{user: "u", token: "old-token"}
	c := newTestClient(t, router, creds)

	err := c.UpdateOrder(context.Background(), "o1", OrderUpdate{OrderID: "o1"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, http.MethodPut, apiErr.Method)
	assert.Contains(t, apiErr.Body, "unauthorized")
	assert.True(t, apiErr.IsUnauthorized())
	assert.Equal(t, "old-token", creds.token)
}

func TestRedirectStatusIsAnError(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/items", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMultipleChoices)
	})

	c := newTestClient(t, router, &fakeCreds{})
	_, err := c.GetAllItemsInfo(context.Background())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 300, apiErr.StatusCode)
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c := NewClient(&fakeCreds{}, WithBaseURL(srv.URL), WithGate(NewGate(time.Millisecond)))
	_, err := c.GetItemInfo(context.Background(), "anything")
	require.Error(t, err)

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestConsecutiveRequestsAreSpaced(t *testing.T) {
	var (
		mu       sync.Mutex
		received []time.Time
	)
	router := mux.NewRouter()
	router.HandleFunc("/items/{name}", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		received = append(received, time.Now())
		mu.Unlock()
		_, _ = w.Write([]byte(`{"payload":{"item":{"id":"a","items_in_set":[]}}}`))
	})
	router.HandleFunc("/items", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		received = append(received, time.Now())
		mu.Unlock()
		_, _ = w.Write([]byte(`{"payload":{"items":[]}}`))
	})
	srv := httptest.NewServer(router)
	defer srv.Close()

	gate := NewGate(DefaultMinInterval)
	c := NewClient(&fakeCreds{}, WithBaseURL(srv.URL), WithGate(gate))

	_, err := c.GetItemInfo(context.Background(), "a")
	require.NoError(t, err)
	first := gate.LastDispatch()

	_, err = c.GetAllItemsInfo(context.Background())
	require.NoError(t, err)
	second := gate.LastDispatch()

	assert.GreaterOrEqual(t, second.Sub(first), DefaultMinInterval)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 2)
	assert.GreaterOrEqual(t, received[1].Sub(received[0]), 300*time.Millisecond)
}
