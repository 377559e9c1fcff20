package http

import (
	"net/http"

	"github.com/avetrov/DevConnect/internal/devserver/store"
	"github.com/avetrov/DevConnect/internal/middleware"
	"github.com/avetrov/DevConnect/internal/models"
	"github.com/go-chi/chi/v5"
)

// ConnectionStore defines the relationship operations required by
// ConnectionsHandler.
type ConnectionStore interface {
	SendRequest(fromID, toID string) (models.ConnectionRequest, error)
	Accept(requestID, selfID string) (models.ConnectionRequest, error)
	Reject(requestID, selfID string) error
	Cancel(requestID, selfID string) error
	Disconnect(connectionID, selfID string) error
	Block(selfID, targetID string) (models.ConnectionRequest, error)
	Unblock(connectionID, selfID string) error
	ListReceived(selfID string) []models.ConnectionRequest
	ListSent(selfID string) []models.ConnectionRequest
	ListMutual(selfID string) []models.ConnectionRequest
	ListBlocked(selfID string) []models.ConnectionRequest
}

// ConnectionsHandler handles the connection request endpoints.
type ConnectionsHandler struct {
	Connections ConnectionStore
}

// writeStoreError maps store errors onto the HTTP taxonomy: unknown or
// foreign records are 404, state conflicts are 409.
func writeStoreError(w http.ResponseWriter, err error) {
	switch err {
	case store.ErrNotFound:
		writeFailure(w, http.StatusNotFound, "connection not found")
	case store.ErrConflict:
		writeFailure(w, http.StatusConflict, "connection is not in a valid state for this action")
	default:
		writeFailure(w, http.StatusInternalServerError, "internal error")
	}
}

// Send handles POST /connections/{userID}: create a pending request.
func (h *ConnectionsHandler) Send(w http.ResponseWriter, r *http.Request) {
	selfID := middleware.GetUserIDFromContext(r.Context())
	req, err := h.Connections.SendRequest(selfID, chi.URLParam(r, "userID"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, req, "connection request sent")
}

// Accept handles PATCH /connections/{id}/accept.
func (h *ConnectionsHandler) Accept(w http.ResponseWriter, r *http.Request) {
	selfID := middleware.GetUserIDFromContext(r.Context())
	req, err := h.Connections.Accept(chi.URLParam(r, "id"), selfID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, req, "connection request accepted")
}

// Reject handles PATCH /connections/{id}/reject.
func (h *ConnectionsHandler) Reject(w http.ResponseWriter, r *http.Request) {
	selfID := middleware.GetUserIDFromContext(r.Context())
	if err := h.Connections.Reject(chi.URLParam(r, "id"), selfID); err != nil {
		writeStoreError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, nil, "connection request rejected")
}

// Cancel handles PATCH /connections/{id}/cancel.
func (h *ConnectionsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	selfID := middleware.GetUserIDFromContext(r.Context())
	if err := h.Connections.Cancel(chi.URLParam(r, "id"), selfID); err != nil {
		writeStoreError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, nil, "connection request cancelled")
}

// Disconnect handles DELETE /connections/{id}: remove a mutual link.
func (h *ConnectionsHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	selfID := middleware.GetUserIDFromContext(r.Context())
	if err := h.Connections.Disconnect(chi.URLParam(r, "id"), selfID); err != nil {
		writeStoreError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, nil, "disconnected")
}

// Block handles POST /connections/{userID}/block.
func (h *ConnectionsHandler) Block(w http.ResponseWriter, r *http.Request) {
	selfID := middleware.GetUserIDFromContext(r.Context())
	req, err := h.Connections.Block(selfID, chi.URLParam(r, "userID"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, req, "user blocked")
}

// Unblock handles DELETE /connections/{id}/block.
func (h *ConnectionsHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	selfID := middleware.GetUserIDFromContext(r.Context())
	if err := h.Connections.Unblock(chi.URLParam(r, "id"), selfID); err != nil {
		writeStoreError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, nil, "user unblocked")
}

// ListReceived handles GET /connections/received. List endpoints return
// the bare {data} shape without a success flag.
func (h *ConnectionsHandler) ListReceived(w http.ResponseWriter, r *http.Request) {
	selfID := middleware.GetUserIDFromContext(r.Context())
	writeData(w, h.Connections.ListReceived(selfID))
}

// ListSent handles GET /connections/sent.
func (h *ConnectionsHandler) ListSent(w http.ResponseWriter, r *http.Request) {
	selfID := middleware.GetUserIDFromContext(r.Context())
	writeData(w, h.Connections.ListSent(selfID))
}

// ListMutual handles GET /connections.
func (h *ConnectionsHandler) ListMutual(w http.ResponseWriter, r *http.Request) {
	selfID := middleware.GetUserIDFromContext(r.Context())
	writeData(w, h.Connections.ListMutual(selfID))
}

// ListBlocked handles GET /connections/blocked.
func (h *ConnectionsHandler) ListBlocked(w http.ResponseWriter, r *http.Request) {
	selfID := middleware.GetUserIDFromContext(r.Context())
	writeData(w, h.Connections.ListBlocked(selfID))
}
