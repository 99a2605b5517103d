package web

import (
	"net/http"

	"medbill/internal/core"
)

// apiListSuppliers handles GET /api/suppliers?q=&limit=.
func (h *Handler) apiListSuppliers(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListSuppliers(r.Context(), listRequest(r, ""))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiCreateSupplier handles POST /api/suppliers.
// Body: { name, contact_person?, phone?, email?, address?, gstin?, drug_license_no?, payment_terms_days? }
func (h *Handler) apiCreateSupplier(w http.ResponseWriter, r *http.Request) {
	var body core.SupplierInput
	if !decodeJSON(w, r, &body) {
		return
	}
	sup, err := h.svc.CreateSupplier(r.Context(), body)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, sup)
}

func (h *Handler) apiGetSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	sup, err := h.svc.GetSupplier(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, sup)
}

func (h *Handler) apiUpdateSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var body core.SupplierInput
	if !decodeJSON(w, r, &body) {
		return
	}
	sup, err := h.svc.UpdateSupplier(r.Context(), id, body)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, sup)
}

// apiDeactivateSupplier handles DELETE /api/suppliers/{id}. Suppliers are
// soft-deleted.
func (h *Handler) apiDeactivateSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeactivateSupplier(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
