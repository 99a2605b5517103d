package web

import (
	"net/http"

	"medbill/internal/core"
)

// apiListSalesReturns handles GET /api/sales-returns?q=&bill_id=&limit=&offset=.
func (h *Handler) apiListSalesReturns(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListSalesReturns(r.Context(), listRequest(r, "bill_id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiProcessSalesReturn handles POST /api/sales-returns.
// Body: { bill_id, return_date?, reason?, items: [{bill_item_id, quantity}] }
// Quantities are pieces.
func (h *Handler) apiProcessSalesReturn(w http.ResponseWriter, r *http.Request) {
	var body core.SalesReturnInput
	if !decodeJSON(w, r, &body) {
		return
	}
	body.IdempotencyKey = idempotencyKey(r, body.IdempotencyKey)

	ret, err := h.svc.ProcessSalesReturn(r.Context(), body)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, ret)
}

func (h *Handler) apiGetSalesReturn(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	ret, err := h.svc.GetSalesReturn(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, ret)
}

// apiListSupplierReturns handles GET /api/supplier-returns?q=&supplier_id=&limit=&offset=.
func (h *Handler) apiListSupplierReturns(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListSupplierReturns(r.Context(), listRequest(r, "supplier_id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiProcessSupplierReturn handles POST /api/supplier-returns.
// Body: { supplier_id, return_date?, reason?, items: [{batch_id, quantity}] }
func (h *Handler) apiProcessSupplierReturn(w http.ResponseWriter, r *http.Request) {
	var body core.SupplierReturnInput
	if !decodeJSON(w, r, &body) {
		return
	}
	body.IdempotencyKey = idempotencyKey(r, body.IdempotencyKey)

	ret, err := h.svc.ProcessSupplierReturn(r.Context(), body)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, ret)
}

func (h *Handler) apiGetSupplierReturn(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	ret, err := h.svc.GetSupplierReturn(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, ret)
}
