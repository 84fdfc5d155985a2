package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/counterdeskhq/counterdesk/engine/model"
)

type staticToken string

func (s staticToken) AccessToken() string { return string(s) }

func personsEnvelope(names ...string) model.Envelope[model.PersonWire] {
	data := make([]model.PersonWire, 0, len(names))
	for i, name := range names {
		data = append(data, model.PersonWire{ID: i + 1, Name: name, Username: name})
	}
	return model.Envelope[model.PersonWire]{
		Data: data,
		Pagination: model.Pagination{
			CurrentPage: 1,
			LastPage:    1,
			PerPage:     10,
			Total:       len(names),
		},
	}
}

func TestPersonQueryOmitsEmptyParams(t *testing.T) {
	v := PersonQuery{Name: "alice", Page: 1, Limit: 10}.values()

	assert.Equal(t, "alice", v.Get("name"))
	assert.Equal(t, "1", v.Get("page"))
	assert.Equal(t, "10", v.Get("limit"))
	for _, absent := range []string{"q", "username", "email", "number_id", "phone", "sort", "dir"} {
		_, ok := v[absent]
		assert.False(t, ok, absent)
	}
}

func TestQuerySortParamsOnlyWhenActive(t *testing.T) {
	q := TransactionQuery{Sort: SortState{Key: "total", Direction: SortDesc}}
	v := q.values()
	assert.Equal(t, "total", v.Get("sort"))
	assert.Equal(t, "desc", v.Get("dir"))

	q.Sort = SortState{}
	v = q.values()
	_, ok := v["sort"]
	assert.False(t, ok)
	_, ok = v["dir"]
	assert.False(t, ok)
}

func TestFetchPersons(t *testing.T) {
	var gotAuth, gotRequestID, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		gotQuery = r.URL.RawQuery
		require.Equal(t, "/users", r.URL.Path)
		json.NewEncoder(w).Encode(personsEnvelope("Alice", "Bob"))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	c.SetTokenProvider(staticToken("tok-9"))

	page, err := c.FetchPersons(context.Background(), PersonQuery{Name: "a", Page: 2, Limit: 5})
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok-9", gotAuth)
	assert.NotEmpty(t, gotRequestID)
	assert.Contains(t, gotQuery, "name=a")
	assert.Contains(t, gotQuery, "page=2")

	require.Len(t, page.Rows, 2)
	assert.Equal(t, "Alice", page.Rows[0].Name)
	assert.Equal(t, 2, page.Pagination.Total)
}

func TestFetchNoTokenSendsNoAuthHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present := r.Header["Authorization"]
		assert.False(t, present)
		json.NewEncoder(w).Encode(personsEnvelope())
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	_, err := c.FetchPersons(context.Background(), PersonQuery{})
	require.NoError(t, err)
}

func TestFetchServerErrorLiftsMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"message": "database unavailable"})
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	_, err := c.FetchPersons(context.Background(), PersonQuery{})
	require.Error(t, err)

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusInternalServerError, fe.Status)
	assert.Equal(t, "database unavailable", fe.Message)
}

func TestFetchUnauthorizedNotifiesObserver(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "Unauthenticated."})
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	var fired atomic.Int32
	c.OnUnauthorized(func() { fired.Add(1) })

	_, err := c.FetchPersons(context.Background(), PersonQuery{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, int32(1), fired.Load())
}

func TestTokenUnauthorizedDoesNotNotify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/token", r.URL.Path)

		var req model.TokenRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "password", req.GrantType)
		assert.Equal(t, "2", req.ClientID)

		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "invalid username or password"})
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL, ClientID: "2", ClientSecret: "s"})
	var fired atomic.Int32
	c.OnUnauthorized(func() { fired.Add(1) })

	_, err := c.Token(context.Background(), "tess", "wrong")
	require.Error(t, err)

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "invalid username or password", fe.Message)
	assert.Equal(t, int32(0), fired.Load(), "bad login is not an expired session")
}

func TestTokenSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": model.TokenResponse{
			AccessToken: "tok-5",
			TokenType:   "Bearer",
			Roles:       []string{"manager"},
		}})
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	resp, err := c.Token(context.Background(), "tess", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-5", resp.AccessToken)
	assert.Equal(t, []string{"manager"}, resp.Roles)
}

func TestTokenMissingAccessTokenIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": map[string]string{}})
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	_, err := c.Token(context.Background(), "tess", "secret")
	require.Error(t, err)
}

func TestFetchUsesCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		json.NewEncoder(w).Encode(personsEnvelope("Alice"))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL, CacheTTL: time.Minute})

	_, err := c.FetchPersons(context.Background(), PersonQuery{Page: 1})
	require.NoError(t, err)
	_, err = c.FetchPersons(context.Background(), PersonQuery{Page: 1})
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load(), "identical request served from cache")

	// a different page misses
	_, err = c.FetchPersons(context.Background(), PersonQuery{Page: 2})
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())

	// invalidation forces a refetch
	c.InvalidateCache()
	_, err = c.FetchPersons(context.Background(), PersonQuery{Page: 1})
	require.NoError(t, err)
	assert.Equal(t, int32(3), hits.Load())
}

func TestFetchTransactionsConvertsWire(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wire := model.Transaction{
			ReceiptCode: "TRX-00000001",
			Type:        "renewal",
			Customer:    model.Customer{FullName: "Wei Tan", Phone: "6591234567"},
			Items: []model.TransactionItem{
				{PackageName: "Prepaid 10GB", Qty: 1, Price: 12, Total: 12},
			},
			Total: 12,
		}.Wire()
		json.NewEncoder(w).Encode(model.Envelope[model.TransactionWire]{
			Data:       []model.TransactionWire{wire},
			Pagination: model.Pagination{CurrentPage: 1, LastPage: 1, PerPage: 10, Total: 1},
		})
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	page, err := c.FetchTransactions(context.Background(), TransactionQuery{})
	require.NoError(t, err)

	require.Len(t, page.Rows, 1)
	tx := page.Rows[0]
	assert.Equal(t, "TRX-00000001", tx.ReceiptCode)
	assert.Equal(t, "Wei Tan", tx.Customer.FullName)
	assert.Equal(t, "6591234567", tx.Customer.Phone)
	assert.Equal(t, "Prepaid 10GB", tx.PackageName())
}

func TestPaginationEnvelope(t *testing.T) {
	pg := model.Pagination{CurrentPage: 2, LastPage: 3, PerPage: 10, Total: 25}
	assert.True(t, pg.HasPrev())
	assert.True(t, pg.HasNext())

	pg.CurrentPage = 1
	assert.False(t, pg.HasPrev())

	pg.CurrentPage = 3
	assert.False(t, pg.HasNext())

	// zero pages, as an empty result reports
	empty := model.Pagination{CurrentPage: 1, LastPage: 0}
	assert.False(t, empty.HasNext())
}
