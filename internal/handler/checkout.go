package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-faster/jx"

	"github.com/freshkart/backend/internal/domain/checkout"
	"github.com/freshkart/backend/internal/domain/order"
)

type checkoutRequest struct {
	CouponCode string `json:"coupon_code"`
}

type placeOrderRequest struct {
	CouponCode string `json:"coupon_code"`
	Note       string `json:"note"`
}

// checkoutPreview prices the current cart without committing anything. Safe
// to call any number of times; the cart is never mutated.
func (h *Handler) checkoutPreview(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
			return
		}
	}

	u := CurrentUser(r.Context())
	lines, err := h.carts.ListPricedByUser(r.Context(), u.ID)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if len(lines) == 0 {
		writeError(w, http.StatusBadRequest, "empty_cart", "cart is empty")
		return
	}

	summary, err := h.calc.Summary(r.Context(), lines, req.CouponCode)
	if err != nil {
		h.mapDomainError(w, r, err)
		return
	}

	e := &jx.Encoder{}
	e.ObjStart()
	encodeSummaryFields(e, summary)
	e.FieldStart("coupon_code")
	e.Str(req.CouponCode)
	e.ObjEnd()
	writeJSON(w, http.StatusOK, e)
}

// placeOrder converts the current cart into an order.
func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
			return
		}
	}

	u := CurrentUser(r.Context())
	o, err := h.orderSvc.Place(r.Context(), order.PlaceRequest{
		UserID:     u.ID,
		CouponCode: req.CouponCode,
		Note:       req.Note,
	})
	if err != nil {
		h.mapDomainError(w, r, err)
		return
	}

	e := &jx.Encoder{}
	encodeOrder(e, *o)
	writeJSON(w, http.StatusCreated, e)
}

// listOrders returns the current user's orders, newest first.
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	u := CurrentUser(r.Context())
	orders, err := h.orders.ListByUser(r.Context(), u.ID)
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	e := &jx.Encoder{}
	e.ArrStart()
	for _, o := range orders {
		encodeOrder(e, o)
	}
	e.ArrEnd()
	writeJSON(w, http.StatusOK, e)
}

func encodeSummaryFields(e *jx.Encoder, s checkout.Summary) {
	e.FieldStart("subtotal")
	e.RawStr(s.Subtotal.String())
	e.FieldStart("tax_amount")
	e.RawStr(s.TaxAmount.String())
	e.FieldStart("shipping_fee")
	e.RawStr(s.ShippingFee.String())
	e.FieldStart("discount")
	e.RawStr(s.Discount.String())
	e.FieldStart("total_amount")
	e.RawStr(s.TotalAmount.String())
}

func encodeOrder(e *jx.Encoder, o order.Order) {
	e.ObjStart()
	e.FieldStart("order_id")
	e.Str(o.ID.String())
	e.FieldStart("status")
	e.Str(string(o.Status))
	e.FieldStart("coupon_code")
	e.Str(o.CouponCode)
	e.FieldStart("discount_amount")
	e.RawStr(o.DiscountAmount.String())
	e.FieldStart("tax_amount")
	e.RawStr(o.TaxAmount.String())
	e.FieldStart("shipping_fee")
	e.RawStr(o.ShippingFee.String())
	e.FieldStart("total_amount")
	e.RawStr(o.TotalAmount.String())
	e.FieldStart("created_at")
	e.Str(o.CreatedAt.Format(time.RFC3339))
	e.ObjEnd()
}
