package mocks

import (
	"context"
	"io"

	"github.com/ganot/neosearch/internal/gateway"
	"github.com/stretchr/testify/mock"
)

// Gateway is a mock for gateway.Gateway.
type Gateway struct {
	mock.Mock
}

func (m *Gateway) ListSessions(ctx context.Context) ([]gateway.RemoteSession, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]gateway.RemoteSession); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Gateway) CreateSession(ctx context.Context) (*gateway.CreatedSession, error) {
	args := m.Called(ctx)
	if created, ok := args.Get(0).(*gateway.CreatedSession); ok {
		return created, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Gateway) SelectSession(ctx context.Context, sessionID string) (*gateway.SelectedSession, error) {
	args := m.Called(ctx, sessionID)
	if selected, ok := args.Get(0).(*gateway.SelectedSession); ok {
		return selected, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Gateway) DeleteSession(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *Gateway) RenameSession(ctx context.Context, sessionID, title string) error {
	args := m.Called(ctx, sessionID, title)
	return args.Error(0)
}

func (m *Gateway) DeleteDocument(ctx context.Context, sessionID, docID string) error {
	args := m.Called(ctx, sessionID, docID)
	return args.Error(0)
}

// UploadDocument records the file name only; the content reader is not part of the expectation.
func (m *Gateway) UploadDocument(ctx context.Context, sessionID, fileName string, content io.Reader) (*gateway.UploadedDocument, error) {
	args := m.Called(ctx, sessionID, fileName)
	if uploaded, ok := args.Get(0).(*gateway.UploadedDocument); ok {
		return uploaded, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Gateway) Search(ctx context.Context, req gateway.SearchRequest) (*gateway.SearchResponse, error) {
	args := m.Called(ctx, req)
	if resp, ok := args.Get(0).(*gateway.SearchResponse); ok {
		return resp, args.Error(1)
	}
	return nil, args.Error(1)
}
