package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"medbill/internal/core"
)

// apiListPurchases handles GET /api/purchases?q=&supplier_id=&limit=&offset=.
func (h *Handler) apiListPurchases(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListPurchases(r.Context(), listRequest(r, "supplier_id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiSavePurchase handles POST /api/purchases.
// Body: { supplier_id, invoice_number, invoice_date, paid_amount?, payment_status?, notes?,
// items: [{medicine_id, batch_number, expiry_date, quantity, free_quantity?, tablets_per_strip?,
// purchase_price, mrp, selling_price?, gst_rate?, rack?, box?}] }
func (h *Handler) apiSavePurchase(w http.ResponseWriter, r *http.Request) {
	var body core.PurchaseInput
	if !decodeJSON(w, r, &body) {
		return
	}
	body.IdempotencyKey = idempotencyKey(r, body.IdempotencyKey)

	p, err := h.svc.SavePurchase(r.Context(), body)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, p)
}

func (h *Handler) apiGetPurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	p, err := h.svc.GetPurchase(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, p)
}

// apiUpdatePurchase handles PATCH /api/purchases/{id}. Only header fields
// can change.
func (h *Handler) apiUpdatePurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var body core.PurchaseHeaderUpdate
	if !decodeJSON(w, r, &body) {
		return
	}
	p, err := h.svc.UpdatePurchase(r.Context(), id, body)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, p)
}

// apiCreateBill handles POST /api/bills.
// Body: { bill_date?, customer_name?, customer_phone?, payment_mode?, items: [{batch_id, quantity}] }
func (h *Handler) apiCreateBill(w http.ResponseWriter, r *http.Request) {
	var body core.BillInput
	if !decodeJSON(w, r, &body) {
		return
	}
	body.IdempotencyKey = idempotencyKey(r, body.IdempotencyKey)

	b, err := h.svc.CreateBill(r.Context(), body)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, b)
}

// apiGetBill handles GET /api/bills/{ref}; ref is an ID or a bill number.
func (h *Handler) apiGetBill(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.GetBill(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, b)
}
