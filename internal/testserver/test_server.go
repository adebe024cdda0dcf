package testserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ganot/neosearch/internal/gateway"
	"github.com/ganot/neosearch/internal/transport"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// TestServer is an in-memory NeoSearch backend.
type TestServer struct {
	Server *httptest.Server
	Token  string

	mu       sync.Mutex
	windows  []*window
	failures map[string]int
	calls    map[string]int
}

type window struct {
	id     string
	title  string
	docs   []gateway.RemoteDocument
	chunks []chunk
}

type chunk struct {
	docID   string
	docName string
	page    int
	text    string
}

// New starts a backend that requires token (empty disables auth).
func New(t *testing.T, token string) *TestServer {
	t.Helper()

	ts := &TestServer{
		Token:    token,
		failures: make(map[string]int),
		calls:    make(map[string]int),
	}
	ts.Server = httptest.NewServer(ts.Router())
	t.Cleanup(ts.Server.Close)
	return ts
}

// Router wires the backend endpoints.
func (ts *TestServer) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(transport.RequestIDMiddleware)
	r.Use(transport.AuthMiddleware(ts.Token))

	r.Get("/chatwindows", ts.handleList)
	r.Post("/create-chatwindow", ts.handleCreate)
	r.Post("/select-chatwindow", ts.handleSelect)
	r.Delete("/delete-chatwindow", ts.handleDelete)
	r.Delete("/delete-doc", ts.handleDeleteDoc)
	r.Post("/upload", ts.handleUpload)
	r.Post("/search", ts.handleSearch)
	r.Patch("/chatwindows/{id}/update-title", ts.handleRename)

	return r
}

// URL returns the base URL of the backend.
func (ts *TestServer) URL() string {
	return ts.Server.URL
}

// FailNext makes the next n calls to op answer with a 500. op is the
// request path without the leading slash, e.g. "search" or "upload".
func (ts *TestServer) FailNext(op string, n int) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.failures[op] += n
}

// Calls reports how many requests reached op.
func (ts *TestServer) Calls(op string) int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.calls[op]
}

// Seed adds a window with the given title and returns its id.
func (ts *TestServer) Seed(title string) string {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	w := &window{id: uuid.NewString(), title: title}
	ts.windows = append(ts.windows, w)
	return w.id
}

// Title returns the stored title of a window.
func (ts *TestServer) Title(id string) string {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if w := ts.find(id); w != nil {
		return w.title
	}
	return ""
}

// Documents returns the stored documents of a window.
func (ts *TestServer) Documents(id string) []gateway.RemoteDocument {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if w := ts.find(id); w != nil {
		return slices.Clone(w.docs)
	}
	return nil
}

// enter counts the call and reports whether an injected failure fired.
func (ts *TestServer) enter(w http.ResponseWriter, op string) bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.calls[op]++
	if ts.failures[op] > 0 {
		ts.failures[op]--
		transport.WriteDetail(w, http.StatusInternalServerError, op+" failed")
		return false
	}
	return true
}

func (ts *TestServer) find(id string) *window {
	for _, w := range ts.windows {
		if w.id == id {
			return w
		}
	}
	return nil
}

func (ts *TestServer) handleList(w http.ResponseWriter, r *http.Request) {
	if !ts.enter(w, "chatwindows") {
		return
	}
	ts.mu.Lock()
	out := make([]map[string]string, 0, len(ts.windows))
	for _, win := range ts.windows {
		out = append(out, map[string]string{"id": win.id, "title": win.title})
	}
	ts.mu.Unlock()
	writeJSON(w, out)
}

func (ts *TestServer) handleCreate(w http.ResponseWriter, r *http.Request) {
	if !ts.enter(w, "create-chatwindow") {
		return
	}
	id := ts.Seed("New ChatWindow")
	writeJSON(w, map[string]string{"chatwindow_uuid": id})
}

func (ts *TestServer) handleSelect(w http.ResponseWriter, r *http.Request) {
	if !ts.enter(w, "select-chatwindow") {
		return
	}
	id := r.URL.Query().Get("chatwindow_uuid")
	ts.mu.Lock()
	win := ts.find(id)
	var docs []gateway.RemoteDocument
	if win != nil {
		docs = slices.Clone(win.docs)
	}
	ts.mu.Unlock()
	if win == nil {
		transport.WriteDetail(w, http.StatusNotFound, "ChatWindow not found")
		return
	}
	if docs == nil {
		docs = []gateway.RemoteDocument{}
	}
	writeJSON(w, map[string]any{"chatwindow_uuid": id, "documents": docs})
}

func (ts *TestServer) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !ts.enter(w, "delete-chatwindow") {
		return
	}
	id := r.URL.Query().Get("chatwindow_uuid")
	ts.mu.Lock()
	before := len(ts.windows)
	ts.windows = slices.DeleteFunc(ts.windows, func(win *window) bool { return win.id == id })
	removed := len(ts.windows) < before
	ts.mu.Unlock()
	if !removed {
		transport.WriteDetail(w, http.StatusNotFound, "ChatWindow not found")
		return
	}
	writeJSON(w, map[string]string{"status": "chatwindow deleted", "chatwindow_uuid": id})
}

func (ts *TestServer) handleDeleteDoc(w http.ResponseWriter, r *http.Request) {
	if !ts.enter(w, "delete-doc") {
		return
	}
	id := r.URL.Query().Get("chatwindow_uuid")
	docID := r.URL.Query().Get("doc_uuid")
	ts.mu.Lock()
	win := ts.find(id)
	if win != nil {
		win.docs = slices.DeleteFunc(win.docs, func(d gateway.RemoteDocument) bool { return d.UUID == docID })
		win.chunks = slices.DeleteFunc(win.chunks, func(c chunk) bool { return c.docID == docID })
	}
	ts.mu.Unlock()
	if win == nil {
		transport.WriteDetail(w, http.StatusNotFound, "ChatWindow not found")
		return
	}
	writeJSON(w, map[string]string{"status": "deleted", "doc_uuid": docID})
}

func (ts *TestServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	if !ts.enter(w, "upload") {
		return
	}
	id := r.URL.Query().Get("chatwindow_uuid")
	file, header, err := r.FormFile("pdf_file")
	if err != nil {
		transport.WriteDetail(w, http.StatusUnprocessableEntity, "pdf_file is required")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		transport.WriteDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()
	win := ts.find(id)
	if win == nil {
		transport.WriteDetail(w, http.StatusNotFound, "ChatWindow not found")
		return
	}
	doc := gateway.RemoteDocument{UUID: uuid.NewString(), Name: header.Filename}
	win.docs = append(win.docs, doc)
	added := 0
	for i, para := range strings.Split(string(data), "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		win.chunks = append(win.chunks, chunk{docID: doc.UUID, docName: doc.Name, page: i + 1, text: para})
		added++
	}
	writeJSON(w, map[string]any{"status": "success", "doc_uuid": doc.UUID, "chunks_added": added})
}

func (ts *TestServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	if !ts.enter(w, "search") {
		return
	}
	var req gateway.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		transport.WriteDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	ts.mu.Lock()
	win := ts.find(req.SessionID)
	var chunks []chunk
	if win != nil {
		chunks = slices.Clone(win.chunks)
	}
	ts.mu.Unlock()
	if win == nil {
		transport.WriteDetail(w, http.StatusNotFound, "ChatWindow not found")
		return
	}

	terms := strings.Fields(strings.ToLower(req.Query))
	var hits []gateway.SearchHit
	for _, c := range chunks {
		score := overlap(terms, strings.ToLower(c.text))
		if score == 0 {
			continue
		}
		hits = append(hits, gateway.SearchHit{Text: c.text, SourceName: c.docName, Score: score, PageNumber: c.page})
	}
	slices.SortStableFunc(hits, func(a, b gateway.SearchHit) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	if req.TopK > 0 && len(hits) > req.TopK {
		hits = hits[:req.TopK]
	}
	if hits == nil {
		hits = []gateway.SearchHit{}
	}

	answer := "No relevant passages found."
	if len(hits) > 0 {
		answer = fmt.Sprintf("According to %s: %s", hits[0].SourceName, hits[0].Text)
	}
	writeJSON(w, gateway.SearchResponse{
		Query:     req.Query,
		StartedAt: time.Now().UTC().Format(time.RFC3339),
		Answer:    answer,
		Results:   hits,
	})
}

func (ts *TestServer) handleRename(w http.ResponseWriter, r *http.Request) {
	if !ts.enter(w, "update-title") {
		return
	}
	id := chi.URLParam(r, "id")
	var body struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Title == "" {
		transport.WriteDetail(w, http.StatusUnprocessableEntity, "title is required")
		return
	}
	ts.mu.Lock()
	win := ts.find(id)
	if win != nil {
		win.title = body.Title
	}
	ts.mu.Unlock()
	if win == nil {
		transport.WriteDetail(w, http.StatusNotFound, "ChatWindow not found")
		return
	}
	writeJSON(w, map[string]string{"message": "Title updated successfully", "chatwindow_uuid": id, "title": body.Title})
}

func overlap(terms []string, text string) float64 {
	if len(terms) == 0 {
		return 0
	}
	matched := 0
	for _, term := range terms {
		if strings.Contains(text, strings.Trim(term, "?.,!")) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
