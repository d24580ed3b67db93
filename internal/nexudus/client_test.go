package nexudus

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Infinitspace1/Infinitspace-datawarehouse/pkg/logger"
)

func init() {
	// The client logs through the package-global logger.
	_ = logger.Init("error", "console", "stdout")
}

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()

	tokens := NewTokenSource(server.URL, "static-token", "", "", server.Client(), nil)
	client := NewClient(Config{BaseURL: server.URL, PageSize: 2, MaxAttempts: 3}, tokens)
	client.retryCfg.InitialDelay = time.Millisecond
	client.retryCfg.MaxDelay = 5 * time.Millisecond
	return client
}

func TestFetchAllPagination(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer static-token", r.Header.Get("Authorization"))

		page := r.URL.Query().Get("page")
		switch page {
		case "1":
			fmt.Fprint(w, `{"Records":[{"Id":1},{"Id":2}],"CurrentPage":1,"HasNextPage":true}`)
		case "2":
			fmt.Fprint(w, `{"Records":[{"Id":3}],"CurrentPage":2,"HasNextPage":false}`)
		default:
			t.Fatalf("unexpected page %q", page)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server)

	records, err := client.Businesses(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 3)

	var first struct{ Id int64 }
	require.NoError(t, json.Unmarshal(records[0], &first))
	assert.Equal(t, int64(1), first.Id)
}

func TestFetchAllEmptyFirstPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Records":[],"HasNextPage":false}`)
	}))
	defer server.Close()

	records, err := newTestClient(t, server).CoworkerContracts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"Records":[{"Id":9}],"HasNextPage":false}`)
	}))
	defer server.Close()

	records, err := newTestClient(t, server).FloorPlanDesks(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRetryOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"Records":[{"Id":1}],"HasNextPage":false}`)
	}))
	defer server.Close()

	_, err := newTestClient(t, server).ExtraServices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestAuthErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := newTestClient(t, server).Businesses(context.Background())
	assert.ErrorIs(t, err, ErrAuth)
	assert.Equal(t, int32(1), calls.Load())
}

func TestResourceNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestClient(t, server).Resource(context.Background(), 123)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResourceFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/spaces/resources/42", r.URL.Path)
		fmt.Fprint(w, `{"Id":42,"Name":"Phone Booth"}`)
	}))
	defer server.Close()

	record, err := newTestClient(t, server).Resource(context.Background(), 42)
	require.NoError(t, err)

	var resource struct{ Name string }
	require.NoError(t, json.Unmarshal(record, &resource))
	assert.Equal(t, "Phone Booth", resource.Name)
}

func TestPasswordGrantCachesToken(t *testing.T) {
	var grants atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		grants.Add(1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "password", r.Form.Get("grant_type"))
		fmt.Fprint(w, `{"access_token":"granted-token","expires_in":3600}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	ts := NewTokenSource(server.URL, "", "user", "pass", server.Client(), nil)

	token, err := ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "granted-token", token)

	// Second call hits the in-struct cache, not the endpoint.
	_, err = ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), grants.Load())
}

func TestPasswordGrantRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	ts := NewTokenSource(server.URL, "", "user", "wrong", server.Client(), nil)
	_, err := ts.Token(context.Background())
	assert.ErrorIs(t, err, ErrAuth)
}
