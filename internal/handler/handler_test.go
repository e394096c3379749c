package handler

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshkart/backend/internal/domain/cart"
	"github.com/freshkart/backend/internal/domain/catalog"
	"github.com/freshkart/backend/internal/domain/checkout"
	"github.com/freshkart/backend/internal/domain/coupon"
	"github.com/freshkart/backend/internal/domain/delivery"
	"github.com/freshkart/backend/internal/domain/order"
	"github.com/freshkart/backend/internal/domain/user"
)

// --- Mock implementations ---

type mockUserRepo struct {
	byHash     map[string]*user.User
	hasAddress bool
}

func (m *mockUserRepo) FindByAPIKeyHash(_ context.Context, hash string) (*user.User, error) {
	u, ok := m.byHash[hash]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (m *mockUserRepo) HasDefaultAddress(_ context.Context, _ uuid.UUID) (bool, error) {
	return m.hasAddress, nil
}

func (m *mockUserRepo) FirstDeliveryPerson(_ context.Context) (*user.User, error) {
	return nil, user.ErrNotFound
}

type mockVariantRepo struct {
	variants []catalog.Variant
}

func (m *mockVariantRepo) List(_ context.Context) ([]catalog.Variant, error) {
	return m.variants, nil
}

func (m *mockVariantRepo) GetByID(_ context.Context, id uuid.UUID) (*catalog.Variant, error) {
	for i := range m.variants {
		if m.variants[i].ID == id {
			return &m.variants[i], nil
		}
	}
	return nil, catalog.ErrNotFound
}

type mockCartStore struct {
	lines  []cart.Line
	priced []checkout.Line
	added  []cart.Line
}

func (m *mockCartStore) Add(_ context.Context, userID, variantID uuid.UUID, qty int) (*cart.Line, error) {
	l := cart.Line{ID: uuid.New(), UserID: userID, VariantID: variantID, Quantity: qty, AddedAt: time.Now()}
	m.added = append(m.added, l)
	return &l, nil
}

func (m *mockCartStore) ListByUser(_ context.Context, _ uuid.UUID) ([]cart.Line, error) {
	return m.lines, nil
}

func (m *mockCartStore) Remove(_ context.Context, lineID, _ uuid.UUID) error {
	for _, l := range m.lines {
		if l.ID == lineID {
			return nil
		}
	}
	return cart.ErrLineNotFound
}

func (m *mockCartStore) ListPricedByUser(_ context.Context, _ uuid.UUID) ([]checkout.Line, error) {
	return m.priced, nil
}

type mockOrderRepo struct {
	lines  []checkout.Line
	placed *order.Placement
}

func (m *mockOrderRepo) Place(ctx context.Context, _ uuid.UUID, build order.BuildFunc) (*order.Order, error) {
	p, err := build(ctx, m.lines)
	if err != nil {
		return nil, err
	}
	m.placed = p
	return &p.Order, nil
}

func (m *mockOrderRepo) ListByUser(_ context.Context, _ uuid.UUID) ([]order.Order, error) {
	return nil, nil
}

type mockCouponRepo struct {
	coupons map[string]*coupon.Coupon
}

func (m *mockCouponRepo) FindActive(_ context.Context, code string) (*coupon.Coupon, error) {
	c, ok := m.coupons[code]
	if !ok {
		return nil, coupon.ErrInvalidCoupon
	}
	return c, nil
}

func (m *mockCouponRepo) ListActiveCodes(_ context.Context) ([]string, error) {
	return nil, nil
}

type mockDeliveryRepo struct {
	delivery    *order.Delivery
	deliveredAt *time.Time
}

func (m *mockDeliveryRepo) GetByID(_ context.Context, id uuid.UUID) (*order.Delivery, error) {
	if m.delivery == nil || m.delivery.ID != id {
		return nil, delivery.ErrNotFound
	}
	d := *m.delivery
	return &d, nil
}

func (m *mockDeliveryRepo) ListByPerson(_ context.Context, personID uuid.UUID) ([]order.Delivery, error) {
	if m.delivery == nil || m.delivery.DeliveryPersonID == nil || *m.delivery.DeliveryPersonID != personID {
		return nil, nil
	}
	return []order.Delivery{*m.delivery}, nil
}

func (m *mockDeliveryRepo) UpdateStatus(_ context.Context, _ uuid.UUID, status order.DeliveryStatus, deliveredAt *time.Time) error {
	m.delivery.Status = status
	m.deliveredAt = deliveredAt
	return nil
}

// --- Test fixture ---

const testAPIKey = "secret-key"

func keyHash(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

type fixture struct {
	handler   http.Handler
	user      *user.User
	carts     *mockCartStore
	orders    *mockOrderRepo
	delivRepo *mockDeliveryRepo
}

func newFixture(t *testing.T, opts ...func(*fixture, *mockUserRepo, *mockCouponRepo)) *fixture {
	t.Helper()

	f := &fixture{
		user:      &user.User{ID: uuid.New(), Username: "alice", Role: user.RoleCustomer},
		carts:     &mockCartStore{},
		orders:    &mockOrderRepo{},
		delivRepo: &mockDeliveryRepo{},
	}
	users := &mockUserRepo{
		byHash:     map[string]*user.User{keyHash(testAPIKey): f.user},
		hasAddress: true,
	}
	coupons := &mockCouponRepo{coupons: map[string]*coupon.Coupon{}}

	for _, opt := range opts {
		opt(f, users, coupons)
	}

	calc := checkout.NewCalculator(coupon.NewRepoResolver(coupons), checkout.DefaultPricing())
	orderSvc := order.NewService(f.orders, users, calc, order.NewFirstAvailableAssigner(users))
	deliverySvc := delivery.NewService(f.delivRepo)

	variants := &mockVariantRepo{}
	for _, l := range f.orders.lines {
		variants.variants = append(variants.variants, l.Variant)
	}

	h := NewHandler(users, variants, f.carts, f.orders, orderSvc, deliverySvc, calc)
	f.handler = h.Routes()
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any, apiKey string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func pricedLine(price string, percent, qty int) checkout.Line {
	return checkout.Line{
		Variant: catalog.Variant{
			ID:              uuid.New(),
			ProductName:     "Toor Dal",
			Unit:            "1kg",
			UnitPrice:       decimal.RequireFromString(price),
			DiscountPercent: percent,
		},
		Quantity: qty,
	}
}

// --- Tests ---

func TestAuth(t *testing.T) {
	f := newFixture(t)

	t.Run("missing key", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/checkout", nil, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "unauthorized", decodeBody(t, rec)["code"])
	})

	t.Run("wrong key", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/checkout", nil, "nope")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestCheckoutPreview(t *testing.T) {
	t.Run("prices the cart", func(t *testing.T) {
		f := newFixture(t, func(f *fixture, _ *mockUserRepo, _ *mockCouponRepo) {
			f.carts.priced = []checkout.Line{pricedLine("1200.00", 0, 1)}
		})

		rec := f.do(t, http.MethodPost, "/api/checkout", map[string]any{}, testAPIKey)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		assert.EqualValues(t, 1200, body["subtotal"])
		assert.EqualValues(t, 60, body["tax_amount"])
		assert.EqualValues(t, 0, body["shipping_fee"])
		assert.EqualValues(t, 0, body["discount"])
		assert.EqualValues(t, 1260, body["total_amount"])
	})

	t.Run("shipping below threshold", func(t *testing.T) {
		f := newFixture(t, func(f *fixture, _ *mockUserRepo, _ *mockCouponRepo) {
			f.carts.priced = []checkout.Line{pricedLine("900.00", 0, 1)}
		})

		rec := f.do(t, http.MethodPost, "/api/checkout", map[string]any{}, testAPIKey)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		assert.EqualValues(t, 45, body["tax_amount"])
		assert.EqualValues(t, 50, body["shipping_fee"])
		assert.EqualValues(t, 995, body["total_amount"])
	})

	t.Run("empty cart", func(t *testing.T) {
		f := newFixture(t)

		rec := f.do(t, http.MethodPost, "/api/checkout", map[string]any{}, testAPIKey)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "empty_cart", decodeBody(t, rec)["code"])
	})

	t.Run("invalid coupon", func(t *testing.T) {
		f := newFixture(t, func(f *fixture, _ *mockUserRepo, _ *mockCouponRepo) {
			f.carts.priced = []checkout.Line{pricedLine("900.00", 0, 1)}
		})

		rec := f.do(t, http.MethodPost, "/api/checkout",
			map[string]any{"coupon_code": "BOGUS"}, testAPIKey)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_coupon", decodeBody(t, rec)["code"])
	})

	t.Run("coupon minimum not met", func(t *testing.T) {
		f := newFixture(t, func(f *fixture, _ *mockUserRepo, coupons *mockCouponRepo) {
			f.carts.priced = []checkout.Line{pricedLine("900.00", 0, 1)}
			coupons.coupons["SAVE100"] = &coupon.Coupon{
				Code:           "SAVE100",
				DiscountAmount: decimal.NewFromInt(100),
				MinimumAmount:  decimal.NewFromInt(1000),
				Active:         true,
			}
		})

		rec := f.do(t, http.MethodPost, "/api/checkout",
			map[string]any{"coupon_code": "SAVE100"}, testAPIKey)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "coupon_minimum_not_met", decodeBody(t, rec)["code"])
	})
}

func TestPlaceOrder(t *testing.T) {
	t.Run("creates the order", func(t *testing.T) {
		f := newFixture(t, func(f *fixture, _ *mockUserRepo, _ *mockCouponRepo) {
			f.orders.lines = []checkout.Line{pricedLine("1200.00", 0, 1)}
		})

		rec := f.do(t, http.MethodPost, "/api/orders",
			map[string]any{"note": "ring twice"}, testAPIKey)
		require.Equal(t, http.StatusCreated, rec.Code)

		body := decodeBody(t, rec)
		assert.Equal(t, "pending", body["status"])
		assert.EqualValues(t, 1260, body["total_amount"])
		require.NotNil(t, f.orders.placed)
		assert.Equal(t, "ring twice", f.orders.placed.Order.Note)
		assert.Len(t, f.orders.placed.Items, 1)
	})

	t.Run("empty cart", func(t *testing.T) {
		f := newFixture(t)

		rec := f.do(t, http.MethodPost, "/api/orders", map[string]any{}, testAPIKey)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "empty_cart", decodeBody(t, rec)["code"])
		assert.Nil(t, f.orders.placed)
	})

	t.Run("no address", func(t *testing.T) {
		f := newFixture(t, func(f *fixture, users *mockUserRepo, _ *mockCouponRepo) {
			f.orders.lines = []checkout.Line{pricedLine("100.00", 0, 1)}
			users.hasAddress = false
		})

		rec := f.do(t, http.MethodPost, "/api/orders", map[string]any{}, testAPIKey)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "no_address", decodeBody(t, rec)["code"])
	})
}

func TestAddCartLine(t *testing.T) {
	variantID := uuid.New()
	f := newFixture(t, func(f *fixture, _ *mockUserRepo, _ *mockCouponRepo) {
		f.orders.lines = []checkout.Line{{
			Variant:  catalog.Variant{ID: variantID, UnitPrice: decimal.NewFromInt(50)},
			Quantity: 1,
		}}
	})

	t.Run("valid", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/cart",
			map[string]any{"variant_id": variantID.String(), "quantity": 2}, testAPIKey)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, f.carts.added, 1)
	})

	t.Run("zero quantity", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/cart",
			map[string]any{"variant_id": variantID.String(), "quantity": 0}, testAPIKey)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown variant", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/cart",
			map[string]any{"variant_id": uuid.New().String(), "quantity": 1}, testAPIKey)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_variant", decodeBody(t, rec)["code"])
	})
}

func TestUpdateDeliveryStatus(t *testing.T) {
	newCourierFixture := func(t *testing.T, status order.DeliveryStatus) (*fixture, uuid.UUID) {
		var deliveryID uuid.UUID
		f := newFixture(t, func(f *fixture, users *mockUserRepo, _ *mockCouponRepo) {
			f.user.Role = user.RoleDeliveryPerson
			personID := f.user.ID
			deliveryID = uuid.New()
			f.delivRepo.delivery = &order.Delivery{
				ID:               deliveryID,
				OrderID:          uuid.New(),
				DeliveryPersonID: &personID,
				Status:           status,
			}
		})
		return f, deliveryID
	}

	t.Run("courier lists own deliveries", func(t *testing.T) {
		f, id := newCourierFixture(t, order.DeliveryPending)
		rec := f.do(t, http.MethodGet, "/api/deliveries", nil, testAPIKey)
		require.Equal(t, http.StatusOK, rec.Code)

		var out []map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		require.Len(t, out, 1)
		assert.Equal(t, id.String(), out[0]["id"])
	})

	t.Run("customer cannot list deliveries", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(t, http.MethodGet, "/api/deliveries", nil, testAPIKey)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("customer cannot transition", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(t, http.MethodPatch, "/api/deliveries/"+uuid.New().String(),
			map[string]any{"delivery_status": "assigned"}, testAPIKey)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unknown status", func(t *testing.T) {
		f, id := newCourierFixture(t, order.DeliveryPending)
		rec := f.do(t, http.MethodPatch, "/api/deliveries/"+id.String(),
			map[string]any{"delivery_status": "returned"}, testAPIKey)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_status", decodeBody(t, rec)["code"])
	})

	t.Run("backwards transition", func(t *testing.T) {
		f, id := newCourierFixture(t, order.DeliveryOutForDelivery)
		rec := f.do(t, http.MethodPatch, "/api/deliveries/"+id.String(),
			map[string]any{"delivery_status": "assigned"}, testAPIKey)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_status_transition", decodeBody(t, rec)["code"])
	})

	t.Run("delivered stamps timestamp", func(t *testing.T) {
		f, id := newCourierFixture(t, order.DeliveryOutForDelivery)
		rec := f.do(t, http.MethodPatch, "/api/deliveries/"+id.String(),
			map[string]any{"delivery_status": "delivered"}, testAPIKey)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		assert.Equal(t, "delivered", body["delivery_status"])
		assert.NotNil(t, body["delivered_at"])
		require.NotNil(t, f.delivRepo.deliveredAt)
	})
}
