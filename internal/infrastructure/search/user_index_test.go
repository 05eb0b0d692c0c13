package search_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/staff-auth/internal/application"
	"github.com/oksasatya/staff-auth/internal/infrastructure/search"
	"github.com/oksasatya/staff-auth/pkg/helpers"
)

type recorded struct {
	Method string
	Path   string
	Body   string
}

func newServer(t *testing.T, handle func(w http.ResponseWriter, r *http.Request)) (*search.UserIndex, *[]recorded) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []recorded
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, recorded{Method: r.Method, Path: r.URL.Path, Body: string(b)})
		mu.Unlock()
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handle(w, r)
	}))
	t.Cleanup(srv.Close)

	es, err := helpers.NewESClient([]string{srv.URL}, "", "", time.Second)
	require.NoError(t, err)
	return search.NewUserIndex(es, "users"), &reqs
}

func TestUserIndex_Index(t *testing.T) {
	idx, reqs := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	})

	v := application.UserView{ID: 7, Name: "Ada", Email: "ada@x.io", Role: "user", Status: "active", CreatedAt: time.Now().UTC()}
	require.NoError(t, idx.Index(context.Background(), v))

	require.Len(t, *reqs, 1)
	got := (*reqs)[0]
	assert.Equal(t, http.MethodPut, got.Method)
	assert.Equal(t, "/users/_doc/7", got.Path)
	assert.NotContains(t, got.Body, "password")

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(got.Body), &doc))
	assert.Equal(t, "ada@x.io", doc["email"])
}

func TestUserIndex_RemoveMissingIsFine(t *testing.T) {
	idx, reqs := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"result":"not_found"}`))
	})
	require.NoError(t, idx.Remove(context.Background(), 3))
	assert.Equal(t, http.MethodDelete, (*reqs)[0].Method)
	assert.Equal(t, "/users/_doc/3", (*reqs)[0].Path)
}

func TestUserIndex_Search(t *testing.T) {
	idx, reqs := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"hits":{"hits":[
			{"_id":"2","_source":{"id":2,"name":"Bob","email":"bob@x.io","role":"user","status":"active"}},
			{"_id":"1","_source":{"id":1,"name":"Bobby","email":"bobby@x.io","role":"manager","status":"active"}}
		]}}`))
	})

	out, err := idx.Search(context.Background(), "bob", 5)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, int64(2), out[0].ID)
	assert.Equal(t, "bobby@x.io", out[1].Email)

	got := (*reqs)[0]
	assert.Equal(t, "/users/_search", got.Path)
	assert.Contains(t, got.Body, `"size":5`)
	assert.Contains(t, got.Body, `"query":"bob"`)
}

func TestUserIndex_SearchError(t *testing.T) {
	idx, _ := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	})
	_, err := idx.Search(context.Background(), "bob", 5)
	assert.Error(t, err)
}

func TestUserIndex_RetriesUnavailableNode(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	idx, _ := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"result":"deleted"}`))
	})

	require.NoError(t, idx.Remove(context.Background(), 7))
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, calls)
}
