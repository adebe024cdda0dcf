package upload_test

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/ganot/neosearch/internal/domain/message"
	"github.com/ganot/neosearch/internal/domain/session"
	"github.com/ganot/neosearch/internal/domain/upload"
	"github.com/ganot/neosearch/internal/gateway"
	"github.com/ganot/neosearch/internal/gateway/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	gw          *mocks.Gateway
	store       *session.Store
	log         *message.Log
	coordinator *upload.Coordinator
}

func newFixture(t *testing.T, gw upload.Gateway, gwMock *mocks.Gateway) *fixture {
	t.Helper()
	gwMock.On("CreateSession", mock.Anything).Return(&gateway.CreatedSession{ID: "s1"}, nil).Once()

	log := message.NewLog()
	store := session.NewStore(gwMock, log, nil, nil)
	_, err := store.Create(context.Background())
	require.NoError(t, err)

	return &fixture{
		gw:          gwMock,
		store:       store,
		log:         log,
		coordinator: upload.NewCoordinator(gw, store, log, nil, nil),
	}
}

func uploaded(id string) *gateway.UploadedDocument {
	return &gateway.UploadedDocument{Status: "ok", DocID: id, ChunksAdded: 4}
}

func TestUploadRenamesOnceWithFirstFileName(t *testing.T) {
	gw := &mocks.Gateway{}
	f := newFixture(t, gw, gw)

	gw.On("UploadDocument", mock.Anything, "s1", "a.pdf").Return(uploaded("d-a"), nil).Once()
	gw.On("UploadDocument", mock.Anything, "s1", "b.pdf").Return(uploaded("d-b"), nil).Once()
	gw.On("RenameSession", mock.Anything, "s1", "a.pdf").Return(nil).Once()

	result, err := f.coordinator.Upload(context.Background(), []upload.File{
		upload.BytesFile("a.pdf", []byte("a")),
		upload.BytesFile("b.pdf", []byte("b")),
	})
	require.NoError(t, err)
	f.store.Wait()

	require.Equal(t, "a.pdf", result.RenamedTo)
	require.Len(t, result.Uploaded, 2)
	gw.AssertNumberOfCalls(t, "RenameSession", 1)
	gw.AssertNotCalled(t, "RenameSession", mock.Anything, "s1", "b.pdf")

	docs, err := f.store.Documents("s1")
	require.NoError(t, err)
	require.Equal(t, []session.Document{{UUID: "d-a", Name: "a.pdf"}, {UUID: "d-b", Name: "b.pdf"}}, docs)

	sess, err := f.store.Get("s1")
	require.NoError(t, err)
	require.Equal(t, "a.pdf", sess.Title)
	require.Equal(t, 2, f.log.Len())
}

func TestUploadSkipsRenameWhenSessionHasDocuments(t *testing.T) {
	gw := &mocks.Gateway{}
	f := newFixture(t, gw, gw)
	_, err := f.store.AddDocument("s1", session.Document{UUID: "d0", Name: "old.pdf"})
	require.NoError(t, err)

	gw.On("UploadDocument", mock.Anything, "s1", "new.pdf").Return(uploaded("d1"), nil).Once()

	result, err := f.coordinator.Upload(context.Background(), []upload.File{upload.BytesFile("new.pdf", nil)})
	require.NoError(t, err)
	f.store.Wait()

	require.Empty(t, result.RenamedTo)
	gw.AssertNotCalled(t, "RenameSession", mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadPartialFailureContinuesBatch(t *testing.T) {
	gw := &mocks.Gateway{}
	f := newFixture(t, gw, gw)

	gw.On("UploadDocument", mock.Anything, "s1", "good.pdf").Return(uploaded("d-good"), nil).Once()
	gw.On("UploadDocument", mock.Anything, "s1", "bad.pdf").Return(nil, gateway.ErrUnavailable).Once()
	gw.On("UploadDocument", mock.Anything, "s1", "late.pdf").Return(uploaded("d-late"), nil).Once()
	gw.On("RenameSession", mock.Anything, "s1", "good.pdf").Return(nil).Once()

	result, err := f.coordinator.Upload(context.Background(), []upload.File{
		upload.BytesFile("good.pdf", nil),
		upload.BytesFile("bad.pdf", nil),
		upload.BytesFile("late.pdf", nil),
	})
	require.NoError(t, err)
	f.store.Wait()

	require.Len(t, result.Uploaded, 2)
	require.Len(t, result.Failed, 1)
	require.Equal(t, "bad.pdf", result.Failed[0].Name)
	require.ErrorIs(t, result.Failed[0].Err, upload.ErrUploadFailed)
	require.ErrorIs(t, result.Failed[0].Err, gateway.ErrUnavailable)

	docs, err := f.store.Documents("s1")
	require.NoError(t, err)
	require.Equal(t, []session.Document{{UUID: "d-good", Name: "good.pdf"}, {UUID: "d-late", Name: "late.pdf"}}, docs)

	msgs := f.log.Messages()
	require.Len(t, msgs, 3)
	require.Contains(t, msgs[1].Text, "bad.pdf")
	require.Equal(t, message.SenderAssistant, msgs[1].Sender)
}

func TestUploadUnreadableFileIsPerFileFailure(t *testing.T) {
	gw := &mocks.Gateway{}
	f := newFixture(t, gw, gw)

	missing := upload.PathFile(filepath.Join(t.TempDir(), "missing.pdf"))
	result, err := f.coordinator.Upload(context.Background(), []upload.File{missing})
	require.NoError(t, err)
	require.Len(t, result.Failed, 1)
	require.Empty(t, result.RenamedTo)
	gw.AssertNotCalled(t, "UploadDocument", mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadWithoutActiveSessionIsNoop(t *testing.T) {
	gw := &mocks.Gateway{}
	store := session.NewStore(gw, nil, nil, nil)
	coordinator := upload.NewCoordinator(gw, store, message.NewLog(), nil, nil)

	result, err := coordinator.Upload(context.Background(), []upload.File{upload.BytesFile("a.pdf", nil)})
	require.NoError(t, err)
	require.Nil(t, result)

	gw2 := &mocks.Gateway{}
	f := newFixture(t, gw2, gw2)
	result, err = f.coordinator.Upload(context.Background(), nil)
	require.NoError(t, err)
	require.Nil(t, result)
	gw2.AssertNotCalled(t, "UploadDocument", mock.Anything, mock.Anything, mock.Anything)
}

// gatedUploads parks every upload until released.
type gatedUploads struct {
	*mocks.Gateway
	entered chan string
	release chan struct{}
}

func (g *gatedUploads) UploadDocument(ctx context.Context, sessionID, fileName string, content io.Reader) (*gateway.UploadedDocument, error) {
	g.entered <- fileName
	<-g.release
	return g.Gateway.UploadDocument(ctx, sessionID, fileName, content)
}

func TestUploadRejectsConcurrentBatch(t *testing.T) {
	gw := &gatedUploads{Gateway: &mocks.Gateway{}, entered: make(chan string, 1), release: make(chan struct{})}
	f := newFixture(t, gw, gw.Gateway)
	_, err := f.store.AddDocument("s1", session.Document{UUID: "d0", Name: "old.pdf"})
	require.NoError(t, err)

	gw.On("UploadDocument", mock.Anything, "s1", "slow.pdf").Return(uploaded("d-slow"), nil).Once()

	errCh := make(chan error, 1)
	go func() {
		_, err := f.coordinator.Upload(context.Background(), []upload.File{upload.BytesFile("slow.pdf", nil)})
		errCh <- err
	}()
	require.Equal(t, "slow.pdf", <-gw.entered)
	require.True(t, f.coordinator.Busy("s1"))

	_, err = f.coordinator.Upload(context.Background(), []upload.File{upload.BytesFile("other.pdf", nil)})
	require.True(t, errors.Is(err, upload.ErrUploadBusy))

	close(gw.release)
	require.NoError(t, <-errCh)
	require.False(t, f.coordinator.Busy("s1"))
}
