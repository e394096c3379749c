package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/freshkart/backend/internal/domain/catalog"
)

// listProducts returns the variant catalog with discounted prices.
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	variants, err := h.variants.List(r.Context())
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	e := &jx.Encoder{}
	e.ArrStart()
	for _, v := range variants {
		encodeVariant(e, v)
	}
	e.ArrEnd()
	writeJSON(w, http.StatusOK, e)
}

func encodeVariant(e *jx.Encoder, v catalog.Variant) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(v.ID.String())
	e.FieldStart("product")
	e.Str(v.ProductName)
	e.FieldStart("unit")
	e.Str(v.Unit)
	e.FieldStart("unit_price")
	e.RawStr(v.UnitPrice.String())
	e.FieldStart("discount_percent")
	e.Int(v.DiscountPercent)
	e.FieldStart("discounted_price")
	e.RawStr(v.DiscountedPrice().String())
	e.FieldStart("stock")
	e.Int(v.Stock)
	e.ObjEnd()
}
