package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"

	"github.com/freshkart/backend/internal/domain/cart"
	"github.com/freshkart/backend/internal/domain/catalog"
)

type addCartLineRequest struct {
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

// addCartLine upserts a cart line for the current user.
func (h *Handler) addCartLine(w http.ResponseWriter, r *http.Request) {
	var req addCartLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	variantID, err := uuid.Parse(req.VariantID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_variant", "variant_id must be a UUID")
		return
	}
	if req.Quantity <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "quantity must be greater than 0")
		return
	}

	// Reject unknown variants up front so the FK violation never surfaces
	// as a persistence failure.
	if _, err := h.variants.GetByID(r.Context(), variantID); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "invalid_variant", "variant not found")
			return
		}
		h.internalError(w, r, err)
		return
	}

	u := CurrentUser(r.Context())
	line, err := h.carts.Add(r.Context(), u.ID, variantID, req.Quantity)
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	e := &jx.Encoder{}
	encodeCartLine(e, *line)
	writeJSON(w, http.StatusOK, e)
}

// listCart returns the current user's cart lines.
func (h *Handler) listCart(w http.ResponseWriter, r *http.Request) {
	u := CurrentUser(r.Context())
	lines, err := h.carts.ListByUser(r.Context(), u.ID)
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	e := &jx.Encoder{}
	e.ArrStart()
	for _, l := range lines {
		encodeCartLine(e, l)
	}
	e.ArrEnd()
	writeJSON(w, http.StatusOK, e)
}

// removeCartLine deletes one of the current user's cart lines.
func (h *Handler) removeCartLine(w http.ResponseWriter, r *http.Request) {
	lineID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "line id must be a UUID")
		return
	}

	u := CurrentUser(r.Context())
	if err := h.carts.Remove(r.Context(), lineID, u.ID); err != nil {
		h.mapDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func encodeCartLine(e *jx.Encoder, l cart.Line) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(l.ID.String())
	e.FieldStart("variant_id")
	e.Str(l.VariantID.String())
	e.FieldStart("quantity")
	e.Int(l.Quantity)
	e.FieldStart("added_at")
	e.Str(l.AddedAt.Format(time.RFC3339))
	e.ObjEnd()
}
