package memory_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	memory "github.com/mstefarov/ragchat/internal/adapters/storage/memory"
	"github.com/mstefarov/ragchat/internal/domain"
)

func userMessage(text string) domain.Message {
	return domain.Message{
		ID:        domain.NewMessageID(),
		Content:   text,
		Sender:    domain.SenderUser,
		CreatedAt: time.Now(),
	}
}

func TestNewStoreSeedsOneActiveSession(t *testing.T) {
	store := memory.NewChatStore()

	sessions := store.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, sessions[0].ID, store.ActiveID())
	assert.Equal(t, domain.TitleSentinel, sessions[0].Title)

	msgs, err := store.Messages(store.ActiveID())
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.SenderAssistant, msgs[0].Sender)
	assert.Equal(t, domain.WelcomeText, msgs[0].Content)
	assert.Equal(t, 1, sessions[0].MessageCount)
}

func TestCreateSessionKeepsPreviousOnes(t *testing.T) {
	store := memory.NewChatStore()
	first := store.ActiveID()

	second := store.CreateSession()

	assert.Equal(t, second, store.ActiveID())
	assert.NotEqual(t, first, second)
	assert.Len(t, store.Sessions(), 2)
}

func TestSelectSession(t *testing.T) {
	store := memory.NewChatStore()
	first := store.ActiveID()
	store.CreateSession()

	require.NoError(t, store.SelectSession(first))
	assert.Equal(t, first, store.ActiveID())

	err := store.SelectSession("no-such-session")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.Equal(t, first, store.ActiveID(), "failed select must leave active unchanged")
}

func TestAppendMessageRecomputesMetadata(t *testing.T) {
	store := memory.NewChatStore()
	id := store.ActiveID()

	require.NoError(t, store.AppendMessage(id, userMessage("What is RAG?")))

	sess, err := store.Session(id)
	require.NoError(t, err)
	assert.Equal(t, len(sess.Messages), sess.MessageCount)
	assert.Equal(t, 2, sess.MessageCount)
	assert.Equal(t, "What is RAG?", sess.LastMessage)
	assert.Equal(t, "What is RAG?", sess.Title, "sentinel title replaced by first user question")

	// A later question must not retitle the session.
	require.NoError(t, store.AppendMessage(id, userMessage("And what is a vector store?")))
	sess, err = store.Session(id)
	require.NoError(t, err)
	assert.Equal(t, "What is RAG?", sess.Title)
	assert.Equal(t, 3, sess.MessageCount)
}

func TestAppendMessageTruncatesLongTitle(t *testing.T) {
	store := memory.NewChatStore()
	id := store.ActiveID()

	long := strings.Repeat("x", 80)
	require.NoError(t, store.AppendMessage(id, userMessage(long)))

	sess, err := store.Session(id)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sess.Title, strings.Repeat("x", 30)))
	assert.True(t, strings.HasSuffix(sess.Title, "…"))
	assert.Less(t, len([]rune(sess.Title)), len([]rune(long)))
}

func TestAppendMessageUnknownSession(t *testing.T) {
	store := memory.NewChatStore()
	err := store.AppendMessage("gone", userMessage("hello"))
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestDeleteActiveSessionPicksMostRecentSurvivor(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		now = now.Add(time.Second)
		return now
	}
	store := memory.NewChatStoreWithClock(clock)

	oldest := store.ActiveID()
	middle := store.CreateSession()
	newest := store.CreateSession()

	// newest is active; deleting it must fall back to the most recently
	// updated survivor, chosen after removal.
	store.DeleteSession(newest)

	assert.Equal(t, middle, store.ActiveID())
	assert.Len(t, store.Sessions(), 2)
	assert.NotEqual(t, newest, store.ActiveID())

	// Touch the oldest so it becomes the freshest survivor.
	require.NoError(t, store.AppendMessage(oldest, userMessage("still here")))
	store.DeleteSession(middle)
	assert.Equal(t, oldest, store.ActiveID())
}

func TestDeleteInactiveSessionKeepsActive(t *testing.T) {
	store := memory.NewChatStore()
	first := store.ActiveID()
	second := store.CreateSession()

	store.DeleteSession(first)

	assert.Equal(t, second, store.ActiveID())
	assert.Len(t, store.Sessions(), 1)
}

func TestDeleteLastSessionCreatesFreshOne(t *testing.T) {
	store := memory.NewChatStore()
	only := store.ActiveID()

	store.DeleteSession(only)

	sessions := store.Sessions()
	require.Len(t, sessions, 1)
	assert.NotEqual(t, only, sessions[0].ID)
	assert.Equal(t, sessions[0].ID, store.ActiveID())
	assert.Equal(t, domain.TitleSentinel, sessions[0].Title)
}

func TestDeleteUnknownSessionIsNoOp(t *testing.T) {
	store := memory.NewChatStore()
	active := store.ActiveID()

	store.DeleteSession("no-such-session")
	store.DeleteSession("no-such-session")

	assert.Equal(t, active, store.ActiveID())
	assert.Len(t, store.Sessions(), 1)
}

func TestSessionsSortedMostRecentFirst(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		now = now.Add(time.Minute)
		return now
	}
	store := memory.NewChatStoreWithClock(clock)

	first := store.ActiveID()
	store.CreateSession()
	require.NoError(t, store.AppendMessage(first, userMessage("bump")))

	sessions := store.Sessions()
	require.Len(t, sessions, 2)
	assert.Equal(t, first, sessions[0].ID)
}

func TestReadAccessorsReturnCopies(t *testing.T) {
	store := memory.NewChatStore()
	id := store.ActiveID()

	msgs, err := store.Messages(id)
	require.NoError(t, err)
	msgs[0].Content = "tampered"

	fresh, err := store.Messages(id)
	require.NoError(t, err)
	assert.Equal(t, domain.WelcomeText, fresh[0].Content)
}
