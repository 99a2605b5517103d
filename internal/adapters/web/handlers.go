package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"medbill/internal/app"
)

const maxBodyBytes = 1 << 20 // 1 MB

// Handler holds the ApplicationService the routes delegate to.
type Handler struct {
	svc    app.ApplicationService
	logger *logrus.Logger
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins []string, logger *logrus.Logger) http.Handler {
	h := &Handler{svc: svc, logger: logger}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recoverer(logger))
	r.Use(CORS(allowedOrigins))
	r.Use(RequestBodyLimit(maxBodyBytes))

	r.Get("/api/health", h.health)

	r.Route("/api/suppliers", func(r chi.Router) {
		r.Get("/", h.apiListSuppliers)
		r.Post("/", h.apiCreateSupplier)
		r.Get("/{id}", h.apiGetSupplier)
		r.Put("/{id}", h.apiUpdateSupplier)
		r.Delete("/{id}", h.apiDeactivateSupplier)
	})

	r.Route("/api/medicines", func(r chi.Router) {
		r.Get("/", h.apiSearchMedicines)
		r.Post("/", h.apiCreateMedicine)
		r.Get("/count", h.apiCountMedicines)
		r.Post("/import", h.apiImportMedicines)
		r.Get("/{id}", h.apiGetMedicine)
		r.Put("/{id}", h.apiUpdateMedicine)
		r.Delete("/{id}", h.apiDeactivateMedicine)
		r.Get("/{id}/batches", h.apiListBatches)
	})

	r.Get("/api/stock", h.apiSearchStock)
	r.Get("/api/batches/expiring", h.apiExpiringBatches)

	r.Route("/api/purchases", func(r chi.Router) {
		r.Get("/", h.apiListPurchases)
		r.Post("/", h.apiSavePurchase)
		r.Get("/{id}", h.apiGetPurchase)
		r.Patch("/{id}", h.apiUpdatePurchase)
	})

	r.Post("/api/bills", h.apiCreateBill)
	r.Get("/api/bills/{ref}", h.apiGetBill)

	r.Route("/api/sales-returns", func(r chi.Router) {
		r.Get("/", h.apiListSalesReturns)
		r.Post("/", h.apiProcessSalesReturn)
		r.Get("/{id}", h.apiGetSalesReturn)
	})

	r.Route("/api/supplier-returns", func(r chi.Router) {
		r.Get("/", h.apiListSupplierReturns)
		r.Post("/", h.apiProcessSupplierReturn)
		r.Get("/{id}", h.apiGetSupplierReturn)
	})

	return r
}

// health reports whether the database is reachable.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	if err := h.svc.Health(r.Context()); err != nil {
		h.logger.WithError(err).Warn("health check failed")
		writeError(w, r, "database unavailable", "UNAVAILABLE", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, response{Status: "ok"})
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

// idParam parses the {id} URL parameter, writing 400 when it is not a positive integer.
func idParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, r, "invalid id "+chi.URLParam(r, "id"), "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// listRequest reads q, limit and offset, plus the named party filter.
func listRequest(r *http.Request, partyParam string) app.ListRequest {
	q := r.URL.Query()
	req := app.ListRequest{Search: strings.TrimSpace(q.Get("q"))}
	req.Limit, _ = strconv.Atoi(q.Get("limit"))
	req.Offset, _ = strconv.Atoi(q.Get("offset"))
	if partyParam != "" {
		req.PartyID, _ = strconv.Atoi(q.Get(partyParam))
	}
	return req
}

// idempotencyKey prefers the key in the body and falls back to the
// Idempotency-Key header.
func idempotencyKey(r *http.Request, bodyKey string) string {
	if strings.TrimSpace(bodyKey) != "" {
		return bodyKey
	}
	return strings.TrimSpace(r.Header.Get("Idempotency-Key"))
}
