// Package handler exposes the HTTP API. Requests are authenticated with an
// API key, decoded into per-endpoint structs, and delegated to the domain
// services; responses are encoded with jx.
package handler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/freshkart/backend/internal/domain/cart"
	"github.com/freshkart/backend/internal/domain/catalog"
	"github.com/freshkart/backend/internal/domain/checkout"
	"github.com/freshkart/backend/internal/domain/coupon"
	"github.com/freshkart/backend/internal/domain/delivery"
	"github.com/freshkart/backend/internal/domain/order"
	"github.com/freshkart/backend/internal/domain/user"
)

// apiKeyHeader carries the client's API key.
const apiKeyHeader = "X-API-Key"

// CartStore is the cart access the handlers need: the domain repository plus
// the priced read used by checkout previews.
type CartStore interface {
	cart.Repository
	ListPricedByUser(ctx context.Context, userID uuid.UUID) ([]checkout.Line, error)
}

// Handler wires the HTTP surface to the domain services.
type Handler struct {
	users       user.Repository
	variants    catalog.Repository
	carts       CartStore
	orders      order.Repository
	orderSvc    *order.Service
	deliverySvc *delivery.Service
	calc        *checkout.Calculator
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	users user.Repository,
	variants catalog.Repository,
	carts CartStore,
	orders order.Repository,
	orderSvc *order.Service,
	deliverySvc *delivery.Service,
	calc *checkout.Calculator,
) *Handler {
	return &Handler{
		users:       users,
		variants:    variants,
		carts:       carts,
		orders:      orders,
		orderSvc:    orderSvc,
		deliverySvc: deliverySvc,
		calc:        calc,
	}
}

// Routes returns the API mux. The catalog is public; everything else
// requires an API key.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.Handle("POST /api/cart", h.authenticated(h.addCartLine))
	mux.Handle("GET /api/cart", h.authenticated(h.listCart))
	mux.Handle("DELETE /api/cart/{id}", h.authenticated(h.removeCartLine))
	mux.Handle("POST /api/checkout", h.authenticated(h.checkoutPreview))
	mux.Handle("POST /api/orders", h.authenticated(h.placeOrder))
	mux.Handle("GET /api/orders", h.authenticated(h.listOrders))
	mux.Handle("GET /api/deliveries", h.authenticated(h.listDeliveries))
	mux.Handle("PATCH /api/deliveries/{id}", h.authenticated(h.updateDeliveryStatus))
	return mux
}

// --- Authentication ---

type currentUserKey struct{}

// CurrentUser extracts the authenticated user from the context.
func CurrentUser(ctx context.Context) *user.User {
	u, _ := ctx.Value(currentUserKey{}).(*user.User)
	return u
}

// authenticated resolves the API key to a user and stores it in the request
// context. Missing or unknown keys get 401.
func (h *Handler) authenticated(next func(http.ResponseWriter, *http.Request)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(apiKeyHeader)
		if key == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing API key")
			return
		}

		sum := sha256.Sum256([]byte(key))
		u, err := h.users.FindByAPIKeyHash(r.Context(), hex.EncodeToString(sum[:]))
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				writeError(w, http.StatusUnauthorized, "unauthorized", "invalid API key")
				return
			}
			h.internalError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), currentUserKey{}, u)
		next(w, r.WithContext(ctx))
	})
}

// --- Response helpers ---

func writeJSON(w http.ResponseWriter, status int, e *jx.Encoder) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError renders the uniform error envelope: a machine-readable code and
// a human-readable message.
func writeError(w http.ResponseWriter, status int, code, message string) {
	e := &jx.Encoder{}
	e.ObjStart()
	e.FieldStart("code")
	e.Str(code)
	e.FieldStart("message")
	e.Str(message)
	e.ObjEnd()
	writeJSON(w, status, e)
}

// internalError logs the failure and hides it behind a generic 500.
// Validation errors never reach here; they are expected and mapped to 400s
// without logging.
func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("request failed",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, "internal", "internal server error")
}

// mapDomainError translates expected domain failures to client errors and
// everything else to a 500.
func (h *Handler) mapDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, order.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, "empty_cart", "cart is empty")
	case errors.Is(err, order.ErrNoAddress):
		writeError(w, http.StatusBadRequest, "no_address", "no default address saved")
	case errors.Is(err, coupon.ErrInvalidCoupon):
		writeError(w, http.StatusBadRequest, "invalid_coupon", "invalid coupon code")
	case errors.Is(err, coupon.ErrMinimumNotMet):
		writeError(w, http.StatusBadRequest, "coupon_minimum_not_met", "minimum amount not reached for coupon")
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusBadRequest, "invalid_variant", "variant not found")
	case errors.Is(err, delivery.ErrUnknownStatus):
		writeError(w, http.StatusBadRequest, "invalid_status", "unknown delivery status")
	case errors.Is(err, delivery.ErrInvalidTransition):
		writeError(w, http.StatusBadRequest, "invalid_status_transition", "invalid delivery status transition")
	case errors.Is(err, delivery.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "delivery not found")
	case errors.Is(err, cart.ErrLineNotFound):
		writeError(w, http.StatusNotFound, "not_found", "cart line not found")
	default:
		h.internalError(w, r, err)
	}
}
