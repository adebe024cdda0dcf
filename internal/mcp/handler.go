package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ganot/neosearch/internal/domain/activity"
	"github.com/ganot/neosearch/internal/domain/session"
	"github.com/ganot/neosearch/internal/domain/upload"
)

// Handler dispatches MCP commands.
type Handler struct {
	sessions     SessionService
	uploads      UploadService
	search       SearchService
	conversation ConversationService
	activity     ActivityService
}

// NewHandler creates a new MCP handler.
func NewHandler(services Services) *Handler {
	return &Handler{
		sessions:     services.Sessions,
		uploads:      services.Uploads,
		search:       services.Search,
		conversation: services.Conversation,
		activity:     services.Activity,
	}
}

// Handle dispatches MCP requests to domain services.
func (h *Handler) Handle(ctx context.Context, method string, params json.RawMessage) (any, error) {
	switch method {
	case "list_sessions":
		return toSessionResponses(h.sessions.Sessions()), nil
	case "refresh_sessions":
		if err := h.sessions.Hydrate(ctx); err != nil {
			return nil, mapError(err)
		}
		return toSessionResponses(h.sessions.Sessions()), nil
	case "create_session":
		created, err := h.sessions.Create(ctx)
		if err != nil {
			return nil, mapError(err)
		}
		return toSessionResponse(created), nil
	case "select_session":
		var req SessionIDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := requireField("session_id", req.SessionID); err != nil {
			return nil, mapError(err)
		}
		if err := h.sessions.Select(ctx, req.SessionID); err != nil {
			return nil, mapError(err)
		}
		return h.sessionResponse(req.SessionID)
	case "delete_session":
		var req SessionIDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := requireField("session_id", req.SessionID); err != nil {
			return nil, mapError(err)
		}
		if err := h.sessions.Delete(ctx, req.SessionID); err != nil {
			return nil, mapError(err)
		}
		resp := DeleteSessionResponse{Deleted: req.SessionID, Sessions: toSessionResponses(h.sessions.Sessions())}
		if active, err := h.sessions.Active(); err == nil {
			resp.ActiveID = active.ID
		}
		return resp, nil
	case "rename_session":
		var req RenameSessionParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		title := strings.TrimSpace(req.Title)
		if err := requireField("session_id", req.SessionID); err != nil {
			return nil, mapError(err)
		}
		if err := requireField("title", title); err != nil {
			return nil, mapError(err)
		}
		if _, err := h.sessions.Get(req.SessionID); err != nil {
			return nil, mapError(err)
		}
		applied := h.sessions.Rename(ctx, req.SessionID, title)
		sess, err := h.sessions.Get(req.SessionID)
		if err != nil {
			return nil, mapError(err)
		}
		return RenameSessionResponse{Session: toSessionResponse(sess), Applied: applied}, nil
	case "list_documents":
		var req ListDocumentsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		sessionID, err := h.sessionOrActive(req.SessionID)
		if err != nil {
			return nil, mapError(err)
		}
		docs, err := h.sessions.Documents(sessionID)
		if err != nil {
			return nil, mapError(err)
		}
		return DocumentsResponse{SessionID: sessionID, Documents: docs}, nil
	case "upload_documents":
		var req UploadDocumentsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		files, err := filesFromParams(req)
		if err != nil {
			return nil, mapError(err)
		}
		result, err := h.uploads.Upload(ctx, files)
		if err != nil {
			return nil, mapError(err)
		}
		return toUploadResponse(result), nil
	case "delete_document":
		var req DeleteDocumentParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := requireField("doc_id", req.DocID); err != nil {
			return nil, mapError(err)
		}
		sessionID, err := h.sessionOrActive(req.SessionID)
		if err != nil {
			return nil, mapError(err)
		}
		if err := h.sessions.DeleteDocument(ctx, sessionID, req.DocID); err != nil {
			return nil, mapError(err)
		}
		docs, err := h.sessions.Documents(sessionID)
		if err != nil {
			return nil, mapError(err)
		}
		return DocumentsResponse{SessionID: sessionID, Documents: docs}, nil
	case "ask":
		var req AskParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		msg, err := h.search.Query(ctx, req.Question)
		if err != nil {
			return nil, mapError(err)
		}
		if msg == nil {
			return AskResponse{Skipped: h.askSkipReason(req.Question)}, nil
		}
		return AskResponse{MessageID: msg.ID, Answer: msg.Text, Evidence: msg.Evidence}, nil
	case "get_messages":
		msgs := h.conversation.Messages()
		resp := ConversationResponse{SessionID: h.conversation.Owner(), Messages: make([]MessageResponse, 0, len(msgs))}
		for _, msg := range msgs {
			resp.Messages = append(resp.Messages, MessageResponse{
				ID:            msg.ID,
				Sender:        msg.Sender,
				Text:          msg.Text,
				EvidenceCount: len(msg.Evidence),
				CreatedAt:     msg.CreatedAt,
			})
		}
		return resp, nil
	case "get_evidence":
		var req GetEvidenceParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		evidence, err := h.search.Evidence(req.MessageID)
		if err != nil {
			return nil, mapError(err)
		}
		return evidence, nil
	case "get_recent_activity":
		var req GetRecentActivityParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		opts := activity.ListActivityOptions{
			ActivityType: req.Type,
			Limit:        req.Limit,
			Offset:       req.Offset,
		}
		if req.SessionID != "" {
			opts.SessionID = &req.SessionID
		}
		entries, err := h.activity.GetRecentActivity(ctx, opts)
		if err != nil {
			return nil, mapError(err)
		}
		resp := make([]ActivityEntryResponse, 0, len(entries))
		for _, entry := range entries {
			resp = append(resp, ActivityEntryResponse{
				Timestamp: entry.CreatedAt,
				Type:      entry.ActivityType,
				SessionID: stringValue(entry.SessionID),
				Summary:   entry.Summary,
				Details:   entry.Details,
			})
		}
		return resp, nil
	default:
		return nil, fmt.Errorf("unknown method: %s", method)
	}
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return mapError(fmt.Errorf("%w: %w", ErrInvalidParams, err))
	}
	return nil
}

func requireField(name, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidParams, name)
	}
	return nil
}

func (h *Handler) sessionResponse(sessionID string) (SessionResponse, error) {
	sess, err := h.sessions.Get(sessionID)
	if err != nil {
		return SessionResponse{}, mapError(err)
	}
	return toSessionResponse(sess), nil
}

func (h *Handler) sessionOrActive(sessionID string) (string, error) {
	if sessionID != "" {
		return sessionID, nil
	}
	active, err := h.sessions.Active()
	if err != nil {
		return "", err
	}
	return active.ID, nil
}

func (h *Handler) askSkipReason(question string) string {
	active, err := h.sessions.Active()
	switch {
	case err != nil:
		return "no active chat window"
	case strings.TrimSpace(question) == "":
		return "question is empty"
	case !active.HasDocuments():
		return "active chat window has no documents"
	default:
		return "chat window changed before the answer arrived"
	}
}

func filesFromParams(req UploadDocumentsParams) ([]upload.File, error) {
	files := make([]upload.File, 0, len(req.Paths)+len(req.Files))
	for _, path := range req.Paths {
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("%w: empty path", ErrInvalidParams)
		}
		files = append(files, upload.PathFile(path))
	}
	for _, f := range req.Files {
		if f.Name == "" {
			return nil, fmt.Errorf("%w: inline file needs a name", ErrInvalidParams)
		}
		data, err := base64.StdEncoding.DecodeString(f.Content)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidParams, f.Name, err)
		}
		files = append(files, upload.BytesFile(f.Name, data))
	}
	return files, nil
}

func toUploadResponse(result *upload.Result) UploadResponse {
	if result == nil {
		return UploadResponse{Uploaded: []session.Document{}, Failed: []FailedFile{}, Skipped: "no active chat window or no files"}
	}
	resp := UploadResponse{
		SessionID: result.SessionID,
		Uploaded:  result.Uploaded,
		Failed:    make([]FailedFile, 0, len(result.Failed)),
		RenamedTo: result.RenamedTo,
	}
	if resp.Uploaded == nil {
		resp.Uploaded = []session.Document{}
	}
	for _, f := range result.Failed {
		resp.Failed = append(resp.Failed, FailedFile{Name: f.Name, Error: f.Err.Error()})
	}
	return resp
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}

func stringValue(val *string) string {
	if val == nil {
		return ""
	}
	return *val
}
