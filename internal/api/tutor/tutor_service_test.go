package tutor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-lms-sdk/internal/api"
	"github.com/FACorreiaa/go-lms-sdk/internal/remote"
	"github.com/FACorreiaa/go-lms-sdk/internal/schema"
	"github.com/FACorreiaa/go-lms-sdk/internal/store"
	"github.com/FACorreiaa/go-lms-sdk/internal/types"
)

type stubGenerator struct {
	reply string
	err   error
}

func (g *stubGenerator) GenerateReply(context.Context, string, string) (string, error) {
	return g.reply, g.err
}

func newTestTutor(t *testing.T, gen Generator) (*TutorService, store.RecordStore) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := schema.NewRegistry(schema.DefaultDefinitions())
	records := store.NewRecordStore(registry, remote.NewMemoryBackend(), logger)
	return NewTutorService(records, gen, logger), records
}

func createSession(t *testing.T, records store.RecordStore, userID string) types.Record {
	t.Helper()
	session, err := records.Create(context.Background(), "aiTutorSessions", types.Record{
		"userId": userID,
		"topic":  "binary search trees",
	})
	require.NoError(t, err)
	return session
}

func TestAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("AppendsQuestionAndReply", func(t *testing.T) {
		svc, records := newTestTutor(t, &stubGenerator{reply: "Rotate around the pivot."})
		session := createSession(t, records, "user-1")

		updated, err := svc.Ask(ctx, session.ID(), "user-1", "How do rotations work?")
		require.NoError(t, err)

		messages, ok := updated["messages"].([]any)
		require.True(t, ok)
		require.Len(t, messages, 2)

		student := messages[0].(map[string]any)
		assert.Equal(t, "student", student["role"])
		assert.Equal(t, "How do rotations work?", student["content"])
		tutor := messages[1].(map[string]any)
		assert.Equal(t, "tutor", tutor["role"])
		assert.Equal(t, "Rotate around the pivot.", tutor["content"])
	})

	t.Run("ConcurrentExchangesAllSurvive", func(t *testing.T) {
		svc, records := newTestTutor(t, &stubGenerator{reply: "Good question."})
		session := createSession(t, records, "user-1")

		var wg sync.WaitGroup
		errs := make(chan error, 2)
		for _, q := range []string{"What is a leaf?", "What is the root?"} {
			wg.Add(1)
			go func(q string) {
				defer wg.Done()
				_, err := svc.Ask(ctx, session.ID(), "user-1", q)
				errs <- err
			}(q)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		final, err := records.Read(ctx, "aiTutorSessions", session.ID())
		require.NoError(t, err)
		messages, _ := final["messages"].([]any)
		require.Len(t, messages, 4)

		var questions []string
		for _, m := range messages {
			msg := m.(map[string]any)
			if msg["role"] == "student" {
				questions = append(questions, msg["content"].(string))
			}
		}
		assert.ElementsMatch(t, []string{"What is a leaf?", "What is the root?"}, questions)
	})

	t.Run("OnlyTheOwnerMayAsk", func(t *testing.T) {
		svc, records := newTestTutor(t, &stubGenerator{reply: "x"})
		session := createSession(t, records, "user-1")

		_, err := svc.Ask(ctx, session.ID(), "user-2", "leak the answers")
		assert.ErrorIs(t, err, api.ErrUnauthenticated)
	})

	t.Run("UnknownSession", func(t *testing.T) {
		svc, _ := newTestTutor(t, &stubGenerator{reply: "x"})
		_, err := svc.Ask(ctx, "missing", "user-1", "hello?")
		assert.ErrorIs(t, err, api.ErrNotFound)
	})

	t.Run("GeneratorFailureWritesNothing", func(t *testing.T) {
		svc, records := newTestTutor(t, &stubGenerator{err: errors.New("model unavailable")})
		session := createSession(t, records, "user-1")

		_, err := svc.Ask(ctx, session.ID(), "user-1", "anything")
		require.Error(t, err)

		unchanged, err := records.Read(ctx, "aiTutorSessions", session.ID())
		require.NoError(t, err)
		assert.Empty(t, unchanged["messages"])
	})
}
