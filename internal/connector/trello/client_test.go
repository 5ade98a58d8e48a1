package trello_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexrelay/lexrelay/internal/apperr"
	"github.com/lexrelay/lexrelay/internal/connector/trello"
)

func newTestClient(t *testing.T, handler http.Handler) *trello.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return trello.NewClientWithHTTPClient(server.Client(), server.URL, "test-key", "test-token")
}

func TestMe(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/members/me", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "test-token", r.URL.Query().Get("token"))
		json.NewEncoder(w).Encode(map[string]string{"id": "M1", "username": "firmbot", "fullName": "Firm Bot"})
	}))

	m, err := client.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "firmbot", m.Username)
}

func TestBoards(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/members/me/boards", r.URL.Path)
		json.NewEncoder(w).Encode([]map[string]string{
			{"id": "B1", "name": "Collections", "url": "https://trello.com/b/B1"},
		})
	}))

	boards, err := client.Boards(context.Background())
	require.NoError(t, err)
	require.Len(t, boards, 1)
	assert.Equal(t, "Collections", boards[0].Name)
}

func TestBoards_EmptyBodyYieldsEmptySlice(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	}))

	boards, err := client.Boards(context.Background())
	require.NoError(t, err)
	assert.Empty(t, boards)
	assert.NotNil(t, boards)
}

func TestLists(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/boards/B1/lists", r.URL.Path)
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": "L1", "name": "To Collect", "closed": false},
			{"id": "L2", "name": "Archived", "closed": true},
		})
	}))

	lists, err := client.Lists(context.Background(), "B1")
	require.NoError(t, err)
	require.Len(t, lists, 2)
	assert.True(t, lists[1].Closed)
}

func TestCreateCard(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/cards", r.URL.Path)
		assert.Equal(t, "L1", r.URL.Query().Get("idList"))
		assert.Equal(t, "Follow up with Smith", r.URL.Query().Get("name"))
		json.NewEncoder(w).Encode(map[string]string{
			"id": "C9", "name": "Follow up with Smith",
			"url": "https://trello.com/c/C9/full", "shortUrl": "https://trello.com/c/C9",
		})
	}))

	card, err := client.CreateCard(context.Background(), "L1", "Follow up with Smith", "call about invoice")
	require.NoError(t, err)
	assert.Equal(t, "C9", card.ID)
	assert.Equal(t, "https://trello.com/c/C9", card.ShortURL)
}

func TestCreateCard_Unauthorized(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid token", http.StatusUnauthorized)
	}))

	_, err := client.CreateCard(context.Background(), "L1", "x", "")
	require.Error(t, err)
	assert.Equal(t, apperr.KindAuth, apperr.Normalize(err).Kind)
}
