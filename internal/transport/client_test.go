package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/querydesk-go/internal/json"
	"github.com/lk2023060901/querydesk-go/internal/model"
	"github.com/lk2023060901/querydesk-go/pkg/serde"
	"github.com/lk2023060901/querydesk-go/pkg/util/merr"
)

type ClientSuite struct {
	suite.Suite
	mux    *http.ServeMux
	server *httptest.Server
	client *Client
}

func (s *ClientSuite) SetupTest() {
	s.mux = http.NewServeMux()
	s.server = httptest.NewServer(s.mux)

	client, err := NewClient(s.server.URL+"/api",
		WithRetry(3, time.Millisecond),
		WithTimeout(2*time.Second),
		WithHeader("Authorization", "Bearer token"),
		WithMinVersion("1.2.0"))
	s.Require().NoError(err)
	s.client = client
}

func (s *ClientSuite) TearDownTest() {
	s.server.Close()
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func (s *ClientSuite) TestGetAs() {
	s.mux.HandleFunc("/api/connections/c1", func(w http.ResponseWriter, r *http.Request) {
		s.Equal("Bearer token", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, `{"id":"c1","name":"local","driver":"postgres","options":{"host":"localhost"}}`)
	})

	res, err := s.client.Get(context.Background(), "/connections/c1")
	s.Require().NoError(err)
	s.Equal(http.StatusOK, res.Status())

	conn, err := As[model.Connection](res)
	s.Require().NoError(err)
	s.Equal("local", conn.Name)
	s.Equal(5432, conn.Options.Port)

	v, err := res.As(serde.New[model.Connection]())
	s.Require().NoError(err)
	s.Equal(conn, v)

	_, err = res.AsArray(serde.New[model.Connection]())
	s.True(serde.IsValidation(err))
}

func (s *ClientSuite) TestAsArrayKeepsOrderAndPath() {
	s.mux.HandleFunc("/api/connections", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[
			{"id":"a","name":"a","driver":"mysql"},
			{"id":"b","name":"b","driver":"sqlite"}
		]`)
	})
	s.mux.HandleFunc("/api/broken", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[{"id":"a","name":"a","driver":"mysql"},{"id":"b","name":"b","driver":"oracle"}]`)
	})

	res, err := s.client.Get(context.Background(), "/connections")
	s.Require().NoError(err)
	conns, err := AsArray[model.Connection](res)
	s.Require().NoError(err)
	s.Require().Len(conns, 2)
	s.Equal("a", conns[0].ID)
	s.Equal("b", conns[1].ID)

	items, err := res.AsArray(serde.New[model.Connection]())
	s.Require().NoError(err)
	s.Len(items, 2)

	_, err = res.As(serde.New[model.Connection]())
	s.True(serde.IsValidation(err))

	res, err = s.client.Get(context.Background(), "/broken")
	s.Require().NoError(err)
	_, err = AsArray[model.Connection](res)
	serr, ok := serde.AsError(err)
	s.Require().True(ok)
	s.Equal("/broken[1].driver", serr.Path())
}

func (s *ClientSuite) TestPostSerializesModel() {
	s.mux.HandleFunc("/api/queries", func(w http.ResponseWriter, r *http.Request) {
		s.Equal(http.MethodPost, r.Method)
		s.Equal("application/json", r.Header.Get("Content-Type"))
		data, err := io.ReadAll(r.Body)
		s.Require().NoError(err)
		s.JSONEq(`{"connectionId":"c1","query":"select 1","limit":10}`, string(data))
		writeJSON(w, http.StatusCreated, `{"id":"q1","connectionId":"c1","query":"select 1","startedAt":"2026-05-01T12:00:00Z","status":"running"}`)
	})

	res, err := s.client.Post(context.Background(), "/queries", &model.QueryRequest{
		ConnectionID: "c1",
		Query:        "",
	})
	s.Require().Error(err)
	s.True(serde.IsValidation(err))
	s.Nil(res)

	res, err = s.client.Post(context.Background(), "/queries", &model.QueryRequest{
		ConnectionID: "c1",
		Query:        "select 1",
		Limit:        10,
	})
	s.Require().NoError(err)
	s.Equal(http.StatusCreated, res.Status())
	entry, err := As[model.HistoryEntry](res)
	s.Require().NoError(err)
	s.Equal(model.QueryRunning, entry.Status)
}

func (s *ClientSuite) TestPutRawBody() {
	s.mux.HandleFunc("/api/settings", func(w http.ResponseWriter, r *http.Request) {
		s.Equal(http.MethodPut, r.Method)
		data, _ := io.ReadAll(r.Body)
		s.JSONEq(`{"theme":"dark"}`, string(data))
		w.WriteHeader(http.StatusNoContent)
	})

	res, err := s.client.Put(context.Background(), "/settings", map[string]any{"theme": "dark"})
	s.Require().NoError(err)
	s.Equal(http.StatusNoContent, res.Status())
	s.Nil(res.Raw())
}

func (s *ClientSuite) TestRetryOnServerError() {
	var calls atomic.Int32
	s.mux.HandleFunc("/api/flaky", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			writeJSON(w, http.StatusServiceUnavailable, `{"message":"warming up"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"ok":true}`)
	})

	res, err := s.client.Get(context.Background(), "/flaky")
	s.Require().NoError(err)
	s.Equal(int32(3), calls.Load())
	s.Equal(map[string]any{"ok": true}, res.Raw())
}

func (s *ClientSuite) TestRetryExhausted() {
	var calls atomic.Int32
	s.mux.HandleFunc("/api/down", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := s.client.Delete(context.Background(), "/down")
	s.Require().Error(err)
	s.ErrorIs(err, merr.ErrServiceUnavailable)
	s.Equal(int32(3), calls.Load())
}

func (s *ClientSuite) TestClientErrorNotRetried() {
	var calls atomic.Int32
	s.mux.HandleFunc("/api/missing", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusNotFound, `{"message":"connection not found"}`)
	})
	s.mux.HandleFunc("/api/plain", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, "bad request body")
	})

	_, err := s.client.Get(context.Background(), "/missing")
	s.Require().Error(err)
	s.Equal(int32(1), calls.Load())

	var apiErr *APIError
	s.Require().True(errors.As(err, &apiErr))
	s.Equal(http.StatusNotFound, apiErr.StatusCode)
	s.Equal("connection not found", apiErr.Message)
	s.ErrorIs(err, merr.ErrTransportStatus)
	s.Equal(merr.Code(merr.ErrTransportStatus), merr.Code(err))

	_, err = s.client.Post(context.Background(), "/plain", []byte(`{}`))
	s.Require().True(errors.As(err, &apiErr))
	s.Equal("bad request body", apiErr.Message)
}

func (s *ClientSuite) TestMalformedBody() {
	s.mux.HandleFunc("/api/garbage", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"id":`)
	})

	_, err := s.client.Get(context.Background(), "/garbage")
	s.ErrorIs(err, merr.ErrTransportProtocol)
}

func (s *ClientSuite) TestConcurrentGetsShareRequest() {
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	s.mux.HandleFunc("/api/catalog", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		writeJSON(w, http.StatusOK, `{"kind":"database","name":"shop"}`)
	})

	var wg sync.WaitGroup
	results := make([]*Resource, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = s.client.Get(context.Background(), "/catalog")
	}()
	<-started
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], _ = s.client.Get(context.Background(), "/catalog")
	}()
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	s.Equal(int32(1), calls.Load())
	s.Same(results[0], results[1])
}

func (s *ClientSuite) TestCheckServerVersion() {
	version := "1.4.2"
	s.mux.HandleFunc("/api/info", func(w http.ResponseWriter, r *http.Request) {
		data, _ := json.Marshal(map[string]any{"name": "querydesk-server", "version": version})
		writeJSON(w, http.StatusOK, string(data))
	})

	info, err := s.client.CheckServerVersion(context.Background())
	s.Require().NoError(err)
	s.Equal("querydesk-server", info.Name)

	version = "v1.1.9"
	_, err = s.client.CheckServerVersion(context.Background())
	s.ErrorIs(err, merr.ErrServiceIncompatible)

	version = "not-a-version"
	_, err = s.client.CheckServerVersion(context.Background())
	s.ErrorIs(err, merr.ErrServiceIncompatible)
}

func (s *ClientSuite) TestContextCanceled() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.client.Get(ctx, "/anything")
	s.ErrorIs(err, context.Canceled)
}

func TestClient(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func TestNewClientInvalidURL(t *testing.T) {
	for _, u := range []string{"", "localhost:8080", "ftp://host", "://bad"} {
		_, err := NewClient(u)
		if !errors.Is(err, merr.ErrParameterInvalid) {
			t.Fatalf("expected invalid parameter for %q, got %v", u, err)
		}
	}
}
