package web

import (
	"net/http"

	"medbill/internal/core"
)

// apiSearchMedicines handles GET /api/medicines?q=&limit=.
func (h *Handler) apiSearchMedicines(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.SearchMedicines(r.Context(), listRequest(r, ""))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) apiCreateMedicine(w http.ResponseWriter, r *http.Request) {
	var body core.MedicineInput
	if !decodeJSON(w, r, &body) {
		return
	}
	m, err := h.svc.CreateMedicine(r.Context(), body)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, m)
}

func (h *Handler) apiGetMedicine(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	m, err := h.svc.GetMedicine(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, m)
}

func (h *Handler) apiUpdateMedicine(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var body core.MedicineInput
	if !decodeJSON(w, r, &body) {
		return
	}
	m, err := h.svc.UpdateMedicine(r.Context(), id, body)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, m)
}

func (h *Handler) apiDeactivateMedicine(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeactivateMedicine(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) apiCountMedicines(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.CountMedicines(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiImportMedicines handles POST /api/medicines/import. It always reads the
// configured bundle; the path is not taken from the request.
func (h *Handler) apiImportMedicines(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ImportMedicines(r.Context(), "")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiListBatches handles GET /api/medicines/{id}/batches?include_empty=true.
func (h *Handler) apiListBatches(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	includeEmpty := r.URL.Query().Get("include_empty") == "true"
	result, err := h.svc.ListBatches(r.Context(), id, includeEmpty)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiSearchStock handles GET /api/stock?q=&limit=.
func (h *Handler) apiSearchStock(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.SearchStock(r.Context(), listRequest(r, ""))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiExpiringBatches handles GET /api/batches/expiring?before=YYYY-MM-DD.
func (h *Handler) apiExpiringBatches(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ExpiringBatches(r.Context(), r.URL.Query().Get("before"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}
