package search_test

import (
	"context"
	"testing"

	"github.com/ganot/neosearch/internal/domain/message"
	"github.com/ganot/neosearch/internal/domain/search"
	"github.com/ganot/neosearch/internal/domain/session"
	"github.com/ganot/neosearch/internal/gateway"
	"github.com/ganot/neosearch/internal/gateway/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func activeStore(t *testing.T, gw *mocks.Gateway, docs ...string) (*session.Store, *message.Log) {
	t.Helper()
	gw.On("CreateSession", mock.Anything).Return(&gateway.CreatedSession{ID: "s1"}, nil).Once()
	log := message.NewLog()
	store := session.NewStore(gw, log, nil, nil)
	_, err := store.Create(context.Background())
	require.NoError(t, err)
	for _, doc := range docs {
		_, err := store.AddDocument("s1", session.Document{UUID: "id-" + doc, Name: doc})
		require.NoError(t, err)
	}
	return store, log
}

func TestQueryWithoutDocumentsIsNoop(t *testing.T) {
	gw := &mocks.Gateway{}
	store, log := activeStore(t, gw)
	orchestrator := search.NewOrchestrator(gw, store, log, nil, nil, 0)

	msg, err := orchestrator.Query(context.Background(), "hello")
	require.NoError(t, err)
	require.Nil(t, msg)
	require.Zero(t, log.Len())
	gw.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestQueryBlankTextIsNoop(t *testing.T) {
	gw := &mocks.Gateway{}
	store, log := activeStore(t, gw, "a.pdf")
	orchestrator := search.NewOrchestrator(gw, store, log, nil, nil, 0)

	msg, err := orchestrator.Query(context.Background(), "   ")
	require.NoError(t, err)
	require.Nil(t, msg)
	require.Zero(t, log.Len())
	gw.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestQueryWithoutActiveSessionIsNoop(t *testing.T) {
	gw := &mocks.Gateway{}
	log := message.NewLog()
	orchestrator := search.NewOrchestrator(gw, session.NewStore(gw, log, nil, nil), log, nil, nil, 0)

	msg, err := orchestrator.Query(context.Background(), "hello")
	require.NoError(t, err)
	require.Nil(t, msg)
	gw.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestQueryAppendsAnswerWithEvidence(t *testing.T) {
	gw := &mocks.Gateway{}
	store, log := activeStore(t, gw, "a.pdf")
	orchestrator := search.NewOrchestrator(gw, store, log, nil, nil, 5)

	gw.On("Search", mock.Anything, gateway.SearchRequest{Query: "what is x?", TopK: 5, SessionID: "s1"}).
		Return(&gateway.SearchResponse{
			Answer: "x is y",
			Results: []gateway.SearchHit{
				{Text: "x equals y", SourceName: "a.pdf", Score: 0.9, PageNumber: 3},
				{Text: "see also", SourceName: "a.pdf", Score: 0.4, PageNumber: 7},
			},
		}, nil).Once()

	msg, err := orchestrator.Query(context.Background(), "  what is x?  ")
	require.NoError(t, err)
	require.NotNil(t, msg)
	require.Equal(t, message.SenderAssistant, msg.Sender)
	require.Equal(t, "x is y", msg.Text)
	require.Len(t, msg.Evidence, 2)
	require.Equal(t, message.Chunk{Text: "x equals y", SourceDocumentName: "a.pdf", PageNumber: 3, Score: 0.9}, msg.Evidence[0])

	msgs := log.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, message.SenderUser, msgs[0].Sender)
	require.Equal(t, "what is x?", msgs[0].Text)

	evidence, err := orchestrator.Evidence(msg.ID)
	require.NoError(t, err)
	require.Equal(t, msg.Evidence, evidence)
	require.False(t, orchestrator.Searching("s1"))
}

func TestQueryEmptyAnswerUsesFallback(t *testing.T) {
	gw := &mocks.Gateway{}
	store, log := activeStore(t, gw, "a.pdf")
	orchestrator := search.NewOrchestrator(gw, store, log, nil, nil, 0)

	gw.On("Search", mock.Anything, mock.Anything).Return(&gateway.SearchResponse{}, nil).Once()

	msg, err := orchestrator.Query(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, search.EmptyAnswer, msg.Text)
	require.Empty(t, msg.Evidence)
}

func TestQueryFailureAppendsDegradedNotice(t *testing.T) {
	gw := &mocks.Gateway{}
	store, log := activeStore(t, gw, "a.pdf")
	orchestrator := search.NewOrchestrator(gw, store, log, nil, nil, 0)

	gw.On("Search", mock.Anything, mock.Anything).Return(nil, gateway.ErrUnavailable).Once()

	msg, err := orchestrator.Query(context.Background(), "hello")
	require.ErrorIs(t, err, search.ErrSearchFailed)
	require.ErrorIs(t, err, gateway.ErrUnavailable)
	require.Nil(t, msg)

	msgs := log.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, search.DegradedNotice, msgs[1].Text)
	require.Equal(t, message.SenderAssistant, msgs[1].Sender)
	require.False(t, orchestrator.Searching("s1"))
	gw.AssertNumberOfCalls(t, "Search", 1)
}

// gatedSearch parks Search until released.
type gatedSearch struct {
	*mocks.Gateway
	entered chan struct{}
	release chan struct{}
}

func (g *gatedSearch) Search(ctx context.Context, req gateway.SearchRequest) (*gateway.SearchResponse, error) {
	close(g.entered)
	<-g.release
	return g.Gateway.Search(ctx, req)
}

func TestQueryFlagsSearchingAndDropsAnswerAfterSwitch(t *testing.T) {
	gw := &gatedSearch{Gateway: &mocks.Gateway{}, entered: make(chan struct{}), release: make(chan struct{})}
	store, log := activeStore(t, gw.Gateway, "a.pdf")
	orchestrator := search.NewOrchestrator(gw, store, log, nil, nil, 0)

	gw.On("Search", mock.Anything, mock.Anything).Return(&gateway.SearchResponse{Answer: "late"}, nil).Once()
	gw.On("CreateSession", mock.Anything).Return(&gateway.CreatedSession{ID: "s2"}, nil).Once()

	type outcome struct {
		msg *message.Message
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		msg, err := orchestrator.Query(context.Background(), "hello")
		done <- outcome{msg, err}
	}()
	<-gw.entered
	require.True(t, orchestrator.Searching("s1"))

	_, err := store.Create(context.Background())
	require.NoError(t, err)

	close(gw.release)
	got := <-done
	require.NoError(t, got.err)
	require.Nil(t, got.msg)
	require.False(t, orchestrator.Searching("s1"))
	require.Equal(t, "s2", log.Owner())
	require.Zero(t, log.Len())
}
