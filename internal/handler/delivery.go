package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-faster/jx"
	"github.com/google/uuid"

	"github.com/freshkart/backend/internal/domain/delivery"
	"github.com/freshkart/backend/internal/domain/order"
	"github.com/freshkart/backend/internal/domain/user"
)

type updateDeliveryRequest struct {
	DeliveryStatus string `json:"delivery_status"`
}

// listDeliveries returns the caller's assigned deliveries, newest first.
func (h *Handler) listDeliveries(w http.ResponseWriter, r *http.Request) {
	u := CurrentUser(r.Context())
	if u.Role != user.RoleDeliveryPerson {
		writeError(w, http.StatusNotFound, "not_found", "no deliveries for this user")
		return
	}

	deliveries, err := h.deliverySvc.ListForPerson(r.Context(), u.ID)
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	e := &jx.Encoder{}
	e.ArrStart()
	for _, d := range deliveries {
		encodeDelivery(e, d)
	}
	e.ArrEnd()
	writeJSON(w, http.StatusOK, e)
}

// updateDeliveryStatus transitions a delivery on behalf of its assigned
// delivery person. Moving to delivered also marks the order's payment paid.
func (h *Handler) updateDeliveryStatus(w http.ResponseWriter, r *http.Request) {
	u := CurrentUser(r.Context())
	if u.Role != user.RoleDeliveryPerson {
		writeError(w, http.StatusNotFound, "not_found", "delivery not found")
		return
	}

	deliveryID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "delivery id must be a UUID")
		return
	}

	var req updateDeliveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	status, err := delivery.ParseStatus(req.DeliveryStatus)
	if err != nil {
		h.mapDomainError(w, r, err)
		return
	}

	d, err := h.deliverySvc.UpdateStatus(r.Context(), deliveryID, u.ID, status)
	if err != nil {
		h.mapDomainError(w, r, err)
		return
	}

	e := &jx.Encoder{}
	encodeDelivery(e, *d)
	writeJSON(w, http.StatusOK, e)
}

func encodeDelivery(e *jx.Encoder, d order.Delivery) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(d.ID.String())
	e.FieldStart("order_id")
	e.Str(d.OrderID.String())
	e.FieldStart("delivery_status")
	e.Str(string(d.Status))
	e.FieldStart("delivered_at")
	if d.DeliveredAt != nil {
		e.Str(d.DeliveredAt.Format(time.RFC3339))
	} else {
		e.Null()
	}
	e.ObjEnd()
}
