package gateway

// RemoteDocument is a document as reported by the remote store.
type RemoteDocument struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

// RemoteSession is one entry of the remote session list.
type RemoteSession struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Documents []RemoteDocument `json:"documents,omitempty"`
}

// CreatedSession is the result of creating a session remotely.
type CreatedSession struct {
	ID    string `json:"chatwindow_uuid"`
	Title string `json:"title,omitempty"`
}

// SelectedSession carries the authoritative document set of a selected session.
type SelectedSession struct {
	ID        string           `json:"chatwindow_uuid"`
	Documents []RemoteDocument `json:"documents"`
}

// UploadedDocument is the remote confirmation of a single upload.
type UploadedDocument struct {
	Status      string `json:"status,omitempty"`
	DocID       string `json:"doc_uuid"`
	ChunksAdded int    `json:"chunks_added"`
}

// SearchRequest describes a query against one session's documents.
type SearchRequest struct {
	Query     string `json:"query"`
	TopK      int    `json:"top_k"`
	SessionID string `json:"chatwindow_uuid"`
}

// SearchHit is one retrieved evidence fragment.
type SearchHit struct {
	Text       string  `json:"text"`
	SourceName string  `json:"pdf_name,omitempty"`
	Score      float64 `json:"score"`
	PageNumber int     `json:"page_number,omitempty"`
}

// SearchResponse is the synthesized answer plus its evidence.
type SearchResponse struct {
	Query     string      `json:"query,omitempty"`
	StartedAt string      `json:"started_at,omitempty"`
	Answer    string      `json:"answer,omitempty"`
	Results   []SearchHit `json:"results"`
}
