package http

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/avetrov/DevConnect/internal/client/connections"
	"github.com/avetrov/DevConnect/internal/client/credstore"
	"github.com/avetrov/DevConnect/internal/client/feed"
	"github.com/avetrov/DevConnect/internal/client/gateway"
	"github.com/avetrov/DevConnect/internal/client/session"
	"github.com/avetrov/DevConnect/internal/devserver/store"
	"github.com/avetrov/DevConnect/internal/devserver/token"
	"github.com/avetrov/DevConnect/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestServer runs the full router backed by real store and token
// managers, seeded with ada, grace and linus.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s := store.New()
	for _, u := range []struct{ username, email string }{
		{"ada", "ada@example.com"},
		{"grace", "grace@example.com"},
		{"linus", "linus@example.com"},
	} {
		_, err := s.CreateUser(models.User{Username: u.username, Email: u.email}, "secret")
		require.NoError(t, err)
	}

	tokens := token.New("integration-secret", time.Minute)
	router := NewRouter(
		&AuthHandler{Users: s, Refresh: s, Tokens: tokens},
		&UsersHandler{Users: s},
		&ConnectionsHandler{Connections: s},
		tokens,
		zap.NewNop(),
	)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

// testClient wires the real client stack: credential store, session
// manager, gateway, feed cursor and connection store.
type testClient struct {
	session *session.Manager
	conns   *connections.Store
	cursor  *feed.Cursor
}

func newTestClient(t *testing.T, baseURL, credsPath string) *testClient {
	t.Helper()
	mgr := session.New(credstore.New(credsPath), zap.NewNop())
	gw, err := gateway.New(baseURL, mgr, zap.NewNop())
	require.NoError(t, err)
	mgr.SetGateway(gw)
	cursor := feed.New(gw, zap.NewNop())
	return &testClient{
		session: mgr,
		conns:   connections.New(gw, cursor, zap.NewNop()),
		cursor:  cursor,
	}
}

func TestIntegration_ConnectFlow(t *testing.T) {
	srv := newTestServer(t)
	baseURL := srv.URL + "/api"
	dir := t.TempDir()
	ctx := context.Background()

	ada := newTestClient(t, baseURL, filepath.Join(dir, "ada.json"))
	require.NoError(t, ada.session.Login(ctx, "ada@example.com", "secret"))
	require.Equal(t, session.StateAuthenticated, ada.session.State())
	require.NotNil(t, ada.session.CurrentUser())
	assert.Equal(t, "ada", ada.session.CurrentUser().Username)

	// Suggestions exclude ada herself and come back sorted by username.
	require.NoError(t, ada.cursor.FetchIfAbsent(ctx))
	head, ok := ada.cursor.Current()
	require.True(t, ok)
	assert.Equal(t, "grace", head.Username)

	require.NoError(t, ada.conns.Send(ctx, head.ID))
	next, ok := ada.cursor.Current()
	require.True(t, ok)
	assert.Equal(t, "linus", next.Username, "feed advances past the contacted user")

	sent, err := ada.conns.Sent(ctx)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, models.StatusPending, sent[0].Status)
	requestID := sent[0].ID

	// Grace sees and accepts the request.
	grace := newTestClient(t, baseURL, filepath.Join(dir, "grace.json"))
	require.NoError(t, grace.session.Login(ctx, "grace@example.com", "secret"))

	received, err := grace.conns.Received(ctx)
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, "ada", received[0].FromUser.Username)
	assert.Equal(t, requestID, received[0].ID)

	require.NoError(t, grace.conns.Accept(ctx, requestID))

	mutual, err := grace.conns.Mutual(ctx)
	require.NoError(t, err)
	require.Len(t, mutual, 1)
	assert.Equal(t, models.StatusAccepted, mutual[0].Status)

	received, err = grace.conns.Received(ctx)
	require.NoError(t, err)
	assert.Empty(t, received)

	// Ada's side observes the acceptance on the next fetch.
	mutual, err = ada.conns.Mutual(ctx)
	require.NoError(t, err)
	require.Len(t, mutual, 1)
	assert.Equal(t, "grace", mutual[0].Counterpart(ada.session.CurrentUser().ID).Username)

	ada.conns.InvalidateSent()
	sent, err = ada.conns.Sent(ctx)
	require.NoError(t, err)
	assert.Empty(t, sent, "accepted request leaves the pending sent list")
}

func TestIntegration_BlockRemovesFromSuggestions(t *testing.T) {
	srv := newTestServer(t)
	baseURL := srv.URL + "/api"
	ctx := context.Background()

	ada := newTestClient(t, baseURL, filepath.Join(t.TempDir(), "ada.json"))
	require.NoError(t, ada.session.Login(ctx, "ada@example.com", "secret"))

	require.NoError(t, ada.cursor.FetchIfAbsent(ctx))
	head, ok := ada.cursor.Current()
	require.True(t, ok)

	require.NoError(t, ada.conns.Block(ctx, head.ID))

	blocked, err := ada.conns.Blocked(ctx)
	require.NoError(t, err)
	require.Len(t, blocked, 1)
	assert.Equal(t, models.StatusBlocked, blocked[0].Status)

	// A reloaded feed no longer offers the blocked user.
	require.NoError(t, ada.cursor.Reload(ctx))
	for u, ok := ada.cursor.Current(); ok; u, ok = ada.cursor.Current() {
		assert.NotEqual(t, head.ID, u.ID)
		ada.cursor.Advance()
	}

	// Unblocking makes the user suggestible again.
	require.NoError(t, ada.conns.Unblock(ctx, blocked[0].ID))
	require.NoError(t, ada.cursor.Reload(ctx))
	seen := false
	for u, ok := ada.cursor.Current(); ok; u, ok = ada.cursor.Current() {
		if u.ID == head.ID {
			seen = true
		}
		ada.cursor.Advance()
	}
	assert.True(t, seen, "unblocked user returns to suggestions")
}

func TestIntegration_SessionRestoreAndRefresh(t *testing.T) {
	srv := newTestServer(t)
	baseURL := srv.URL + "/api"
	credsPath := filepath.Join(t.TempDir(), "credentials.json")
	ctx := context.Background()

	first := newTestClient(t, baseURL, credsPath)
	require.NoError(t, first.session.Login(ctx, "ada@example.com", "secret"))

	// The refresh token is single use and rotates on each exchange; the
	// cookie jar carries the rotation, so back-to-back refreshes work.
	tok1, ok := first.session.RefreshAccessToken(ctx)
	require.True(t, ok)
	tok2, ok := first.session.RefreshAccessToken(ctx)
	require.True(t, ok)
	assert.NotEmpty(t, tok1)
	assert.NotEmpty(t, tok2)

	// A fresh process with the same credential file restores the session
	// from the persisted access token alone.
	second := newTestClient(t, baseURL, credsPath)
	require.True(t, second.session.RestoreSession(ctx))
	require.Equal(t, session.StateAuthenticated, second.session.State())
	require.NotNil(t, second.session.CurrentUser())
	assert.Equal(t, "ada", second.session.CurrentUser().Username)

	// Logout purges the credential; a later process stays anonymous.
	second.session.Logout(ctx)
	assert.Equal(t, session.StateAnonymous, second.session.State())

	third := newTestClient(t, baseURL, credsPath)
	assert.False(t, third.session.RestoreSession(ctx))
	assert.Equal(t, session.StateAnonymous, third.session.State())
}
