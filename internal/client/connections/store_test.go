package connections

import (
	"context"
	"encoding/json"
	"reflect"
	"testing"

	"github.com/avetrov/DevConnect/internal/client/feed"
	"github.com/avetrov/DevConnect/internal/client/gateway"
	"github.com/avetrov/DevConnect/internal/models"
	"go.uber.org/zap"
)

type call struct {
	method string
	path   string
}

// mockGateway records every call and answers via DoFunc. It backs both
// the store and the feed cursor in these tests.
type mockGateway struct {
	DoFunc func(method, path string) (gateway.Result, error)
	calls  []call
}

func (m *mockGateway) do(method, path string) (gateway.Result, error) {
	m.calls = append(m.calls, call{method, path})
	return m.DoFunc(method, path)
}

func (m *mockGateway) Get(ctx context.Context, path string) (gateway.Result, error) {
	return m.do("GET", path)
}
func (m *mockGateway) Post(ctx context.Context, path string, body any) (gateway.Result, error) {
	return m.do("POST", path)
}
func (m *mockGateway) Patch(ctx context.Context, path string, body any) (gateway.Result, error) {
	return m.do("PATCH", path)
}
func (m *mockGateway) Delete(ctx context.Context, path string) (gateway.Result, error) {
	return m.do("DELETE", path)
}

func (m *mockGateway) callsTo(method, path string) int {
	n := 0
	for _, c := range m.calls {
		if c.method == method && c.path == path {
			n++
		}
	}
	return n
}

func listResult(t *testing.T, v any) gateway.Result {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return gateway.Result{Data: data}
}

func okResult() gateway.Result {
	return gateway.Result{Data: []byte(`{}`)}
}

func req(id, fromID, toID string) models.ConnectionRequest {
	return models.ConnectionRequest{
		ID:       id,
		FromUser: models.User{ID: fromID},
		ToUser:   models.User{ID: toID},
	}
}

func newStore(gw *mockGateway) (*Store, *feed.Cursor) {
	cursor := feed.New(gw, zap.NewNop())
	return New(gw, cursor, zap.NewNop()), cursor
}

// snapshot captures all four projections for no-op comparisons.
func snapshot(s *Store) [4][]models.ConnectionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return [4][]models.ConnectionRequest{
		append([]models.ConnectionRequest(nil), s.received...),
		append([]models.ConnectionRequest(nil), s.sent...),
		append([]models.ConnectionRequest(nil), s.mutual...),
		append([]models.ConnectionRequest(nil), s.blocked...),
	}
}

func TestReceived_FetchIfAbsent(t *testing.T) {
	gw := &mockGateway{}
	gw.DoFunc = func(method, path string) (gateway.Result, error) {
		return listResult(t, []models.ConnectionRequest{req("r1", "U2", "U1")}), nil
	}
	s, _ := newStore(gw)

	list, err := s.Received(context.Background())
	if err != nil {
		t.Fatalf("Received failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != "r1" {
		t.Fatalf("unexpected list: %+v", list)
	}
	if list[0].Status != models.StatusPending {
		t.Errorf("status = %q; want pending stamped from the projection", list[0].Status)
	}

	// Second read skips the network entirely.
	if _, err := s.Received(context.Background()); err != nil {
		t.Fatalf("Received failed: %v", err)
	}
	if n := gw.callsTo("GET", "/connections/received"); n != 1 {
		t.Errorf("fetch calls = %d; want 1", n)
	}

	// The returned slice is a copy; mutating it must not reach the store.
	list[0].ID = "mutated"
	again, _ := s.Received(context.Background())
	if again[0].ID != "r1" {
		t.Error("projection was mutated through a returned slice")
	}
}

func TestMutual_PathAndStatus(t *testing.T) {
	gw := &mockGateway{}
	gw.DoFunc = func(method, path string) (gateway.Result, error) {
		if path != "/connections" {
			t.Errorf("mutual fetch path = %q; want /connections", path)
		}
		return listResult(t, []models.ConnectionRequest{req("c1", "U1", "U2")}), nil
	}
	s, _ := newStore(gw)

	list, err := s.Mutual(context.Background())
	if err != nil {
		t.Fatalf("Mutual failed: %v", err)
	}
	if list[0].Status != models.StatusAccepted {
		t.Errorf("status = %q; want accepted", list[0].Status)
	}
}

func TestAccept_MovesReceivedToMutual(t *testing.T) {
	gw := &mockGateway{}
	gw.DoFunc = func(method, path string) (gateway.Result, error) {
		if method != "PATCH" || path != "/connections/r1/accept" {
			t.Errorf("unexpected call %s %s", method, path)
		}
		return okResult(), nil
	}
	s, _ := newStore(gw)
	s.received = []models.ConnectionRequest{req("r1", "U2", "U1")}
	s.mutual = []models.ConnectionRequest{}

	if err := s.Accept(context.Background(), "r1"); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}

	if len(s.received) != 0 {
		t.Errorf("received = %+v; want empty", s.received)
	}
	if len(s.mutual) != 1 || s.mutual[0].ID != "r1" {
		t.Fatalf("mutual = %+v; want the accepted r1", s.mutual)
	}
	if s.mutual[0].Status != models.StatusAccepted {
		t.Errorf("moved status = %q; want accepted", s.mutual[0].Status)
	}
}

func TestTransition_FailureIsNoOp(t *testing.T) {
	gw := &mockGateway{}
	gw.DoFunc = func(method, path string) (gateway.Result, error) {
		return gateway.Result{}, &gateway.Error{Kind: gateway.KindConflict, Messages: []string{"already accepted"}}
	}
	s, cursor := newStore(gw)
	s.received = []models.ConnectionRequest{req("r1", "U2", "U1")}
	s.sent = []models.ConnectionRequest{req("s1", "U1", "U3")}
	s.mutual = []models.ConnectionRequest{req("c1", "U1", "U4")}
	s.blocked = []models.ConnectionRequest{req("b1", "U1", "U5")}

	before := snapshot(s)
	feedBefore := cursor.Len()

	if err := s.Accept(context.Background(), "r1"); err == nil {
		t.Fatal("expected error")
	}
	if err := s.Reject(context.Background(), "r1"); err == nil {
		t.Fatal("expected error")
	}
	if err := s.Cancel(context.Background(), "s1"); err == nil {
		t.Fatal("expected error")
	}
	if err := s.Disconnect(context.Background(), "c1"); err == nil {
		t.Fatal("expected error")
	}
	if err := s.Send(context.Background(), "U9"); err == nil {
		t.Fatal("expected error")
	}
	if err := s.Block(context.Background(), "U9"); err == nil {
		t.Fatal("expected error")
	}
	if err := s.Unblock(context.Background(), "b1"); err == nil {
		t.Fatal("expected error")
	}

	if !reflect.DeepEqual(before, snapshot(s)) {
		t.Error("projections changed after failed transitions")
	}
	if cursor.Len() != feedBefore {
		t.Error("feed cursor changed after failed transitions")
	}
}

func TestAccept_AbsentIdDoesNotDuplicate(t *testing.T) {
	gw := &mockGateway{}
	gw.DoFunc = func(method, path string) (gateway.Result, error) { return okResult(), nil }
	s, _ := newStore(gw)
	accepted := req("r1", "U2", "U1")
	accepted.Status = models.StatusAccepted
	s.received = []models.ConnectionRequest{}
	s.mutual = []models.ConnectionRequest{accepted}

	// Duplicate accept: the server call still runs, the local edit is a no-op.
	if err := s.Accept(context.Background(), "r1"); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	if len(s.mutual) != 1 {
		t.Errorf("mutual = %+v; duplicate accept must not duplicate the entry", s.mutual)
	}
	if n := gw.callsTo("PATCH", "/connections/r1/accept"); n != 1 {
		t.Errorf("server calls = %d; want 1", n)
	}
}

func TestReject_IdempotentRemoval(t *testing.T) {
	gw := &mockGateway{}
	gw.DoFunc = func(method, path string) (gateway.Result, error) { return okResult(), nil }
	s, _ := newStore(gw)
	s.received = []models.ConnectionRequest{req("r1", "U2", "U1")}

	if err := s.Reject(context.Background(), "r1"); err != nil {
		t.Fatalf("first Reject failed: %v", err)
	}
	if len(s.received) != 0 {
		t.Fatalf("received = %+v; want empty", s.received)
	}

	// Second reject: id already absent locally, removal is a no-op.
	if err := s.Reject(context.Background(), "r1"); err != nil {
		t.Fatalf("second Reject failed: %v", err)
	}
	if n := gw.callsTo("PATCH", "/connections/r1/reject"); n != 2 {
		t.Errorf("server calls = %d; want 2 (both attempts reach the server)", n)
	}
}

func TestSend_AdvancesFeedAndInvalidatesSent(t *testing.T) {
	gw := &mockGateway{}
	gw.DoFunc = func(method, path string) (gateway.Result, error) {
		switch {
		case method == "GET" && path == "/users/suggestions":
			return listResult(t, []models.User{{ID: "U9"}, {ID: "U10"}}), nil
		case method == "GET" && path == "/connections/sent":
			return listResult(t, []models.ConnectionRequest{}), nil
		case method == "POST" && path == "/connections/U9":
			return okResult(), nil
		}
		t.Errorf("unexpected call %s %s", method, path)
		return gateway.Result{}, nil
	}
	s, cursor := newStore(gw)
	if err := cursor.FetchIfAbsent(context.Background()); err != nil {
		t.Fatalf("feed fetch failed: %v", err)
	}
	if _, err := s.Sent(context.Background()); err != nil {
		t.Fatalf("Sent failed: %v", err)
	}

	if err := s.Send(context.Background(), "U9"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if u, ok := cursor.Current(); !ok || u.ID != "U10" {
		t.Errorf("feed head = %+v; want U10 after dropping U9", u)
	}
	if s.sent != nil {
		t.Error("sent projection should be invalidated")
	}

	// The next read recomputes from the source of truth.
	if _, err := s.Sent(context.Background()); err != nil {
		t.Fatalf("Sent failed: %v", err)
	}
	if n := gw.callsTo("GET", "/connections/sent"); n != 2 {
		t.Errorf("sent fetches = %d; want 2 (invalidation forces a re-fetch)", n)
	}
}

func TestBlock_AdvancesFeedAndInvalidatesBlocked(t *testing.T) {
	gw := &mockGateway{}
	gw.DoFunc = func(method, path string) (gateway.Result, error) {
		switch {
		case method == "GET" && path == "/users/suggestions":
			return listResult(t, []models.User{{ID: "U9"}}), nil
		case method == "POST" && path == "/connections/U9/block":
			return okResult(), nil
		}
		return listResult(t, []models.ConnectionRequest{}), nil
	}
	s, cursor := newStore(gw)
	if err := cursor.FetchIfAbsent(context.Background()); err != nil {
		t.Fatalf("feed fetch failed: %v", err)
	}
	s.blocked = []models.ConnectionRequest{}

	if err := s.Block(context.Background(), "U9"); err != nil {
		t.Fatalf("Block failed: %v", err)
	}
	if cursor.Len() != 0 {
		t.Error("feed should drop the blocked user")
	}
	if s.blocked != nil {
		t.Error("blocked projection should be invalidated")
	}
}

func TestIgnore_IsLocalOnly(t *testing.T) {
	gw := &mockGateway{}
	gw.DoFunc = func(method, path string) (gateway.Result, error) {
		return listResult(t, []models.User{{ID: "U9"}, {ID: "U10"}}), nil
	}
	s, cursor := newStore(gw)
	if err := cursor.FetchIfAbsent(context.Background()); err != nil {
		t.Fatalf("feed fetch failed: %v", err)
	}
	calls := len(gw.calls)

	s.Ignore("U9")

	if len(gw.calls) != calls {
		t.Error("Ignore must not issue a server call")
	}
	if u, _ := cursor.Current(); u.ID != "U10" {
		t.Errorf("feed head = %q; want U10", u.ID)
	}
}

func TestCancelDisconnectUnblock_RemoveLocally(t *testing.T) {
	gw := &mockGateway{}
	gw.DoFunc = func(method, path string) (gateway.Result, error) { return okResult(), nil }
	s, _ := newStore(gw)
	s.sent = []models.ConnectionRequest{req("s1", "U1", "U3")}
	s.mutual = []models.ConnectionRequest{req("c1", "U1", "U4")}
	s.blocked = []models.ConnectionRequest{req("b1", "U1", "U5")}

	if err := s.Cancel(context.Background(), "s1"); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if err := s.Disconnect(context.Background(), "c1"); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}
	if err := s.Unblock(context.Background(), "b1"); err != nil {
		t.Fatalf("Unblock failed: %v", err)
	}

	if len(s.sent)+len(s.mutual)+len(s.blocked) != 0 {
		t.Errorf("projections not emptied: sent=%v mutual=%v blocked=%v", s.sent, s.mutual, s.blocked)
	}
}

// membership counts the projections whose entries have userID as a
// counterpart of U1.
func membership(s *Store, userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, list := range [][]models.ConnectionRequest{s.received, s.sent, s.mutual, s.blocked} {
		for _, r := range list {
			if r.Counterpart("U1").ID == userID {
				n++
				break
			}
		}
	}
	return n
}

func TestMutualExclusionAcrossTransitions(t *testing.T) {
	gw := &mockGateway{}
	gw.DoFunc = func(method, path string) (gateway.Result, error) {
		switch {
		case method == "GET" && path == "/connections/received":
			return listResult(t, []models.ConnectionRequest{req("r1", "U2", "U1"), req("r2", "U3", "U1")}), nil
		case method == "GET" && path == "/connections/sent":
			return listResult(t, []models.ConnectionRequest{req("s1", "U1", "U4")}), nil
		case method == "GET" && path == "/users/suggestions":
			return listResult(t, []models.User{{ID: "U9"}}), nil
		case method == "GET":
			return listResult(t, []models.ConnectionRequest{}), nil
		}
		return okResult(), nil
	}
	s, cursor := newStore(gw)
	ctx := context.Background()

	if err := cursor.FetchIfAbsent(ctx); err != nil {
		t.Fatal(err)
	}
	for _, fetch := range []func(context.Context) ([]models.ConnectionRequest, error){
		s.Received, s.Sent, s.Mutual, s.Blocked,
	} {
		if _, err := fetch(ctx); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.Accept(ctx, "r1"); err != nil {
		t.Fatal(err)
	}
	if err := s.Reject(ctx, "r2"); err != nil {
		t.Fatal(err)
	}
	if err := s.Cancel(ctx, "s1"); err != nil {
		t.Fatal(err)
	}
	if err := s.Send(ctx, "U9"); err != nil {
		t.Fatal(err)
	}

	for _, userID := range []string{"U2", "U3", "U4", "U9"} {
		if n := membership(s, userID); n > 1 {
			t.Errorf("user %s appears in %d projections; want at most 1", userID, n)
		}
	}
	if n := membership(s, "U2"); n != 1 {
		t.Errorf("accepted counterpart U2 in %d projections; want exactly 1 (mutual)", n)
	}
}
