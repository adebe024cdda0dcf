package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ganot/neosearch/internal/gateway"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL, Token: "secret"}, nil)
	require.NoError(t, err)
	return client
}

func TestNewClient_RejectsRelativeURL(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "localhost:8000"}, nil)
	require.Error(t, err)
}

func TestClient_SendsAuthAndRequestID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.Equal(t, "req-42", r.Header.Get(RequestIDHeader))
		_, _ = io.WriteString(w, `[]`)
	})

	sessions, err := client.ListSessions(WithRequestID(context.Background(), "req-42"))
	require.NoError(t, err)
	require.Empty(t, sessions)
}

func TestClient_GeneratesRequestID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NotEmpty(t, r.Header.Get(RequestIDHeader))
		_, _ = io.WriteString(w, `[]`)
	})

	_, err := client.ListSessions(context.Background())
	require.NoError(t, err)
}

func TestClient_ListSessions(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodGet, r.Method)
			require.Equal(t, "/chatwindows", r.URL.Path)
			_, _ = io.WriteString(w, `[{"id":"a","title":"First"},{"id":"b","title":"Second","documents":[{"uuid":"d1","name":"x.pdf"}]}]`)
		})

		sessions, err := client.ListSessions(context.Background())
		require.NoError(t, err)
		require.Equal(t, []gateway.RemoteSession{
			{ID: "a", Title: "First"},
			{ID: "b", Title: "Second", Documents: []gateway.RemoteDocument{{UUID: "d1", Name: "x.pdf"}}},
		}, sessions)
	})

	t.Run("mapping", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"b":{"title":"Second"},"a":"First"}`)
		})

		sessions, err := client.ListSessions(context.Background())
		require.NoError(t, err)
		require.Equal(t, []gateway.RemoteSession{{ID: "a", Title: "First"}, {ID: "b", Title: "Second"}}, sessions)
	})

	t.Run("malformed", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"a":`)
		})

		_, err := client.ListSessions(context.Background())
		require.ErrorIs(t, err, gateway.ErrBadResponse)
	})
}

func TestClient_CreateSelectDelete(t *testing.T) {
	var mu sync.Mutex
	var calls []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, r.Method+" "+r.URL.Path+"?"+r.URL.RawQuery)
		mu.Unlock()
		switch r.URL.Path {
		case "/create-chatwindow":
			_, _ = io.WriteString(w, `{"chatwindow_uuid":"new"}`)
		case "/select-chatwindow":
			_, _ = io.WriteString(w, `{"chatwindow_uuid":"new","documents":[{"uuid":"d1","name":"a.pdf"}]}`)
		case "/delete-chatwindow", "/delete-doc":
			_, _ = io.WriteString(w, `{"status":"deleted"}`)
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	created, err := client.CreateSession(ctx)
	require.NoError(t, err)
	require.Equal(t, "new", created.ID)

	selected, err := client.SelectSession(ctx, "new")
	require.NoError(t, err)
	require.Equal(t, []gateway.RemoteDocument{{UUID: "d1", Name: "a.pdf"}}, selected.Documents)

	require.NoError(t, client.DeleteDocument(ctx, "new", "d1"))
	require.NoError(t, client.DeleteSession(ctx, "new"))

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{
		"POST /create-chatwindow?",
		"POST /select-chatwindow?chatwindow_uuid=new",
		"DELETE /delete-doc?chatwindow_uuid=new&doc_uuid=d1",
		"DELETE /delete-chatwindow?chatwindow_uuid=new",
	}, calls)
}

func TestClient_CreateSessionMissingID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	})

	_, err := client.CreateSession(context.Background())
	require.ErrorIs(t, err, gateway.ErrBadResponse)
}

func TestClient_RenameSession(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/chatwindows/abc/update-title", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "report.pdf", body["title"])
		_, _ = io.WriteString(w, `{"message":"Title updated successfully"}`)
	})

	require.NoError(t, client.RenameSession(context.Background(), "abc", "report.pdf"))
}

func TestClient_UploadDocument(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/upload", r.URL.Path)
		require.Equal(t, "s1", r.URL.Query().Get("chatwindow_uuid"))

		file, header, err := r.FormFile("pdf_file")
		require.NoError(t, err)
		defer file.Close()
		data, err := io.ReadAll(file)
		require.NoError(t, err)
		require.Equal(t, "report.pdf", header.Filename)
		require.Equal(t, "%PDF-1.4", string(data))

		_, _ = io.WriteString(w, `{"status":"success","doc_uuid":"d9","chunks_added":12}`)
	})

	uploaded, err := client.UploadDocument(context.Background(), "s1", "report.pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	require.Equal(t, &gateway.UploadedDocument{Status: "success", DocID: "d9", ChunksAdded: 12}, uploaded)
}

func TestClient_Search(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req gateway.SearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, gateway.SearchRequest{Query: "what?", TopK: 30, SessionID: "s1"}, req)
		_, _ = io.WriteString(w, `{"query":"what?","answer":"this","results":[{"text":"t","pdf_name":"a.pdf","score":0.5,"page_number":2}]}`)
	})

	resp, err := client.Search(context.Background(), gateway.SearchRequest{Query: "what?", TopK: 30, SessionID: "s1"})
	require.NoError(t, err)
	require.Equal(t, "this", resp.Answer)
	require.Equal(t, []gateway.SearchHit{{Text: "t", SourceName: "a.pdf", Score: 0.5, PageNumber: 2}}, resp.Results)
}

func TestClient_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, gateway.ErrNotFound},
		{http.StatusUnauthorized, gateway.ErrUnauthorized},
		{http.StatusForbidden, gateway.ErrUnauthorized},
		{http.StatusUnprocessableEntity, gateway.ErrRejected},
		{http.StatusInternalServerError, gateway.ErrUnavailable},
		{http.StatusBadGateway, gateway.ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				WriteDetail(w, tt.status, "ChatWindow not found")
			})

			err := client.DeleteSession(context.Background(), "x")
			require.ErrorIs(t, err, tt.want)
			require.Contains(t, err.Error(), "ChatWindow not found")
		})
	}
}

func TestClient_NetworkFailureIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client, err := NewClient(Config{BaseURL: url}, nil)
	require.NoError(t, err)

	_, err = client.ListSessions(context.Background())
	require.ErrorIs(t, err, gateway.ErrUnavailable)
}
