// Package connections maintains the four client-side projections of
// connection requests (received, sent, mutual, blocked) and the
// transition rules that move entries between them.
//
// Every transition talks to the server first and only edits local state
// after the call succeeds, so a failed call leaves the projections
// untouched. Each successful mutation applies the minimal targeted edit
// instead of re-fetching, except where the affected projection cannot be
// recomputed from the mutation's own response (sending a request,
// blocking a user); those invalidate the projection so the next read
// fetches it from the source of truth.
package connections

import (
	"context"
	"sync"

	"github.com/avetrov/DevConnect/internal/client/feed"
	"github.com/avetrov/DevConnect/internal/client/gateway"
	"github.com/avetrov/DevConnect/internal/models"
	"go.uber.org/zap"
)

// Gateway defines the backend operations required by the Store.
type Gateway interface {
	Get(ctx context.Context, path string) (gateway.Result, error)
	Post(ctx context.Context, path string, body any) (gateway.Result, error)
	Patch(ctx context.Context, path string, body any) (gateway.Result, error)
	Delete(ctx context.Context, path string) (gateway.Result, error)
}

// Store holds the four projections. A nil slice means the projection has
// never been fetched; an empty slice means fetched and empty. All writes
// go through the named transition methods.
type Store struct {
	gw   Gateway
	feed *feed.Cursor
	log  *zap.Logger

	mu       sync.Mutex
	received []models.ConnectionRequest
	sent     []models.ConnectionRequest
	mutual   []models.ConnectionRequest
	blocked  []models.ConnectionRequest
}

// New constructs a Store. cursor is advanced past users acted on from
// the suggestion feed.
func New(gw Gateway, cursor *feed.Cursor, log *zap.Logger) *Store {
	return &Store{gw: gw, feed: cursor, log: log}
}

// Received returns the pending requests addressed to the current user,
// fetching them once when absent.
func (s *Store) Received(ctx context.Context) ([]models.ConnectionRequest, error) {
	return s.fetchIfAbsent(ctx, "/connections/received", &s.received, models.StatusPending)
}

// Sent returns the pending requests the current user has sent,
// fetching them once when absent.
func (s *Store) Sent(ctx context.Context) ([]models.ConnectionRequest, error) {
	return s.fetchIfAbsent(ctx, "/connections/sent", &s.sent, models.StatusPending)
}

// Mutual returns the accepted connections, fetching them once when absent.
func (s *Store) Mutual(ctx context.Context) ([]models.ConnectionRequest, error) {
	return s.fetchIfAbsent(ctx, "/connections", &s.mutual, models.StatusAccepted)
}

// Blocked returns the users blocked by the current user, fetching them
// once when absent.
func (s *Store) Blocked(ctx context.Context) ([]models.ConnectionRequest, error) {
	return s.fetchIfAbsent(ctx, "/connections/blocked", &s.blocked, models.StatusBlocked)
}

// fetchIfAbsent returns a copy of *slot, fetching it first if it has
// never been populated. The list endpoints do not carry a status field,
// so the status implied by the projection is stamped onto each entry.
// Concurrent fetches of the same still-nil projection are not
// deduplicated; the fetch is idempotent and the later response fully
// replaces the earlier one.
func (s *Store) fetchIfAbsent(ctx context.Context, path string, slot *[]models.ConnectionRequest, status models.ConnectionStatus) ([]models.ConnectionRequest, error) {
	s.mu.Lock()
	if *slot != nil {
		out := copyRequests(*slot)
		s.mu.Unlock()
		return out, nil
	}
	s.mu.Unlock()

	res, err := s.gw.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	var list []models.ConnectionRequest
	if err := res.Decode(&list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.ConnectionRequest{}
	}
	for i := range list {
		list[i].Status = status
	}

	s.mu.Lock()
	*slot = list
	out := copyRequests(*slot)
	s.mu.Unlock()
	s.log.Debug("projection fetched", zap.String("path", path), zap.Int("count", len(list)))
	return out, nil
}

// Send creates a connection request to the given user. On success the
// feed cursor is advanced past the user and the sent projection is
// invalidated: the new entry is not observable from the mutation's
// response, so the next read recomputes it from the server.
func (s *Store) Send(ctx context.Context, toUserID string) error {
	if _, err := s.gw.Post(ctx, "/connections/"+toUserID, nil); err != nil {
		return err
	}
	s.feed.Drop(toUserID)
	s.mu.Lock()
	s.sent = nil
	s.mu.Unlock()
	return nil
}

// Accept accepts a received request. On success the entry moves from
// received to mutual with its status rewritten. When the entry is no
// longer held locally (e.g. a duplicate click) the server call still
// runs but no local edit is applied, so mutual cannot gain duplicates.
func (s *Store) Accept(ctx context.Context, requestID string) error {
	if _, err := s.gw.Patch(ctx, "/connections/"+requestID+"/accept", nil); err != nil {
		return err
	}
	s.mu.Lock()
	if req, ok := takeByID(&s.received, requestID); ok {
		req.Status = models.StatusAccepted
		s.mutual = append(s.mutual, req)
	}
	s.mu.Unlock()
	return nil
}

// Reject declines a received request and removes it locally.
func (s *Store) Reject(ctx context.Context, requestID string) error {
	if _, err := s.gw.Patch(ctx, "/connections/"+requestID+"/reject", nil); err != nil {
		return err
	}
	s.mu.Lock()
	takeByID(&s.received, requestID)
	s.mu.Unlock()
	return nil
}

// Cancel withdraws a sent request and removes it locally.
func (s *Store) Cancel(ctx context.Context, requestID string) error {
	if _, err := s.gw.Patch(ctx, "/connections/"+requestID+"/cancel", nil); err != nil {
		return err
	}
	s.mu.Lock()
	takeByID(&s.sent, requestID)
	s.mu.Unlock()
	return nil
}

// Disconnect deletes a mutual connection and removes it locally.
func (s *Store) Disconnect(ctx context.Context, connectionID string) error {
	if _, err := s.gw.Delete(ctx, "/connections/"+connectionID); err != nil {
		return err
	}
	s.mu.Lock()
	takeByID(&s.mutual, connectionID)
	s.mu.Unlock()
	return nil
}

// Block blocks the given user. On success the feed cursor is advanced
// past the user and the blocked projection is invalidated.
func (s *Store) Block(ctx context.Context, toUserID string) error {
	if _, err := s.gw.Post(ctx, "/connections/"+toUserID+"/block", nil); err != nil {
		return err
	}
	s.feed.Drop(toUserID)
	s.mu.Lock()
	s.blocked = nil
	s.mu.Unlock()
	return nil
}

// Unblock removes a block record and removes it locally.
func (s *Store) Unblock(ctx context.Context, connectionID string) error {
	if _, err := s.gw.Delete(ctx, "/connections/"+connectionID+"/block"); err != nil {
		return err
	}
	s.mu.Lock()
	takeByID(&s.blocked, connectionID)
	s.mu.Unlock()
	return nil
}

// Ignore skips the given user in the feed. Purely local: no server
// record is kept, so a reloaded feed may resurface the user.
func (s *Store) Ignore(toUserID string) {
	s.feed.Drop(toUserID)
}

// InvalidateReceived forces the next read of received to fetch.
func (s *Store) InvalidateReceived() { s.invalidate(&s.received) }

// InvalidateSent forces the next read of sent to fetch.
func (s *Store) InvalidateSent() { s.invalidate(&s.sent) }

// InvalidateMutual forces the next read of mutual to fetch.
func (s *Store) InvalidateMutual() { s.invalidate(&s.mutual) }

// InvalidateBlocked forces the next read of blocked to fetch.
func (s *Store) InvalidateBlocked() { s.invalidate(&s.blocked) }

func (s *Store) invalidate(slot *[]models.ConnectionRequest) {
	s.mu.Lock()
	*slot = nil
	s.mu.Unlock()
}

// takeByID removes and returns the entry with the given id. Absent ids
// leave the list untouched and return ok=false.
func takeByID(list *[]models.ConnectionRequest, id string) (models.ConnectionRequest, bool) {
	for i, req := range *list {
		if req.ID == id {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return req, true
		}
	}
	return models.ConnectionRequest{}, false
}

func copyRequests(list []models.ConnectionRequest) []models.ConnectionRequest {
	out := make([]models.ConnectionRequest, len(list))
	copy(out, list)
	return out
}
