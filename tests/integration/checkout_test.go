//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestProducts_DiscountedPrices(t *testing.T) {
	// 185 with 10% off is 166.50, rounded to the whole unit.
	dal := findVariant(t, "Toor Dal", "1kg")
	if dal.DiscountedPrice != 167 {
		t.Errorf("Toor Dal 1kg discounted price: got %v, want 167", dal.DiscountedPrice)
	}

	// No discount passes the unit price through.
	oil := findVariant(t, "Sunflower Oil", "1l")
	if oil.DiscountedPrice != 155 {
		t.Errorf("Sunflower Oil discounted price: got %v, want 155", oil.DiscountedPrice)
	}
}

func TestCheckout_NoAuth(t *testing.T) {
	resp := doRequest(t, http.MethodPost, "/api/checkout", map[string]any{}, "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	clearCart(t, customerKey)

	resp := doRequest(t, http.MethodPost, "/api/checkout", map[string]any{}, customerKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if body := decodeJSON[errorResponse](t, resp); body.Code != "empty_cart" {
		t.Errorf("code: got %q, want empty_cart", body.Code)
	}
}

func TestCheckout_BelowFreeShipping(t *testing.T) {
	clearCart(t, customerKey)
	dal := findVariant(t, "Toor Dal", "500g") // 95.00, no discount
	addToCart(t, customerKey, dal.ID, 2)

	resp := doRequest(t, http.MethodPost, "/api/checkout", map[string]any{}, customerKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	// 190 subtotal, 9.50 tax rounds to 10, 50 shipping.
	sum := decodeJSON[summaryResponse](t, resp)
	if sum.Subtotal != 190 {
		t.Errorf("subtotal: got %v, want 190", sum.Subtotal)
	}
	if sum.TaxAmount != 10 {
		t.Errorf("tax: got %v, want 10", sum.TaxAmount)
	}
	if sum.ShippingFee != 50 {
		t.Errorf("shipping: got %v, want 50", sum.ShippingFee)
	}
	if sum.TotalAmount != 250 {
		t.Errorf("total: got %v, want 250", sum.TotalAmount)
	}
}

func TestCheckout_FreeShippingWithCoupon(t *testing.T) {
	clearCart(t, customerKey)
	rice := findVariant(t, "Basmati Rice", "5kg") // 640.00, 5% off -> 608
	addToCart(t, customerKey, rice.ID, 2)

	resp := doRequest(t, http.MethodPost, "/api/checkout",
		map[string]any{"coupon_code": "FRESH100"}, customerKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	// 1216 subtotal, 60.80 tax rounds to 61, free shipping, 100 off.
	sum := decodeJSON[summaryResponse](t, resp)
	if sum.Subtotal != 1216 {
		t.Errorf("subtotal: got %v, want 1216", sum.Subtotal)
	}
	if sum.TaxAmount != 61 {
		t.Errorf("tax: got %v, want 61", sum.TaxAmount)
	}
	if sum.ShippingFee != 0 {
		t.Errorf("shipping: got %v, want 0", sum.ShippingFee)
	}
	if sum.Discount != 100 {
		t.Errorf("discount: got %v, want 100", sum.Discount)
	}
	if sum.TotalAmount != 1177 {
		t.Errorf("total: got %v, want 1177", sum.TotalAmount)
	}
}

func TestCheckout_CouponBelowMinimum(t *testing.T) {
	clearCart(t, customerKey)
	dal := findVariant(t, "Toor Dal", "500g")
	addToCart(t, customerKey, dal.ID, 2) // 190, WELCOME50 needs 500

	resp := doRequest(t, http.MethodPost, "/api/checkout",
		map[string]any{"coupon_code": "WELCOME50"}, customerKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if body := decodeJSON[errorResponse](t, resp); body.Code != "coupon_minimum_not_met" {
		t.Errorf("code: got %q, want coupon_minimum_not_met", body.Code)
	}
}

func TestCheckout_InvalidCoupon(t *testing.T) {
	clearCart(t, customerKey)
	dal := findVariant(t, "Toor Dal", "500g")
	addToCart(t, customerKey, dal.ID, 1)

	resp := doRequest(t, http.MethodPost, "/api/checkout",
		map[string]any{"coupon_code": "NOSUCHCODE"}, customerKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if body := decodeJSON[errorResponse](t, resp); body.Code != "invalid_coupon" {
		t.Errorf("code: got %q, want invalid_coupon", body.Code)
	}
}

func TestCheckout_InactiveCoupon(t *testing.T) {
	clearCart(t, customerKey)
	dal := findVariant(t, "Toor Dal", "500g")
	addToCart(t, customerKey, dal.ID, 1)

	resp := doRequest(t, http.MethodPost, "/api/checkout",
		map[string]any{"coupon_code": "EXPIRED20"}, customerKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if body := decodeJSON[errorResponse](t, resp); body.Code != "invalid_coupon" {
		t.Errorf("code: got %q, want invalid_coupon", body.Code)
	}
}
