package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"medbill/internal/app"
	"medbill/internal/core"
	"medbill/internal/ledger"
)

// fakeService implements only what each test needs; any other call panics
// through the nil embedded interface and is turned into a 500 by Recoverer.
type fakeService struct {
	app.ApplicationService

	healthErr      error
	supplierErr    error
	gotSupplier    core.SupplierInput
	gotPurchase    core.PurchaseInput
	salesReturnErr error
	gotBillRef     string
	gotList        app.ListRequest
}

func (f *fakeService) Health(ctx context.Context) error { return f.healthErr }

func (f *fakeService) CreateSupplier(ctx context.Context, in core.SupplierInput) (*core.Supplier, error) {
	f.gotSupplier = in
	if f.supplierErr != nil {
		return nil, f.supplierErr
	}
	return &core.Supplier{ID: 7, Name: in.Name, PaymentTermsDays: 30, IsActive: true}, nil
}

func (f *fakeService) GetSupplier(ctx context.Context, id int) (*core.Supplier, error) {
	return nil, fmt.Errorf("supplier %d: %w", id, core.ErrNotFound)
}

func (f *fakeService) ListPurchases(ctx context.Context, req app.ListRequest) (*app.PurchaseListResult, error) {
	f.gotList = req
	return &app.PurchaseListResult{}, nil
}

func (f *fakeService) SavePurchase(ctx context.Context, in core.PurchaseInput) (*core.Purchase, error) {
	f.gotPurchase = in
	return &core.Purchase{ID: 1, InvoiceNumber: in.InvoiceNumber, GrandTotal: decimal.RequireFromString("1120.00")}, nil
}

func (f *fakeService) ProcessSalesReturn(ctx context.Context, in core.SalesReturnInput) (*core.SalesReturn, error) {
	return nil, f.salesReturnErr
}

func (f *fakeService) GetBill(ctx context.Context, ref string) (*core.Bill, error) {
	f.gotBillRef = ref
	return &core.Bill{ID: 3, BillNumber: "BL26100001"}, nil
}

func newTestHandler(svc app.ApplicationService) http.Handler {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewHandler(svc, []string{"http://localhost:5173"}, logger)
}

func do(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return resp
}

func TestHealth(t *testing.T) {
	h := newTestHandler(&fakeService{})
	if rec := do(t, h, http.MethodGet, "/api/health", "", nil); rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	h = newTestHandler(&fakeService{healthErr: errors.New("connection refused")})
	if rec := do(t, h, http.MethodGet, "/api/health", "", nil); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestCreateSupplier(t *testing.T) {
	svc := &fakeService{}
	h := newTestHandler(svc)

	rec := do(t, h, http.MethodPost, "/api/suppliers", `{"name":"Apex Pharma","gstin":"27AAAAA0000A1Z5"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body)
	}
	if svc.gotSupplier.GSTIN != "27AAAAA0000A1Z5" {
		t.Errorf("gstin not passed through: %+v", svc.gotSupplier)
	}
	var sup core.Supplier
	if err := json.NewDecoder(rec.Body).Decode(&sup); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sup.ID != 7 || sup.Name != "Apex Pharma" {
		t.Errorf("unexpected supplier %+v", sup)
	}
}

func TestValidationErrorsReturn422WithDetails(t *testing.T) {
	svc := &fakeService{supplierErr: core.ValidationErrors{
		{Field: "name", Message: "is required"},
		{Field: "gstin", Message: "must be 15 characters"},
	}}
	h := newTestHandler(svc)

	rec := do(t, h, http.MethodPost, "/api/suppliers", `{}`, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	resp := decodeError(t, rec)
	if resp.Code != "VALIDATION_FAILED" {
		t.Errorf("expected VALIDATION_FAILED, got %s", resp.Code)
	}
	if len(resp.Details) != 2 || resp.Details[1].Field != "gstin" {
		t.Errorf("unexpected details %+v", resp.Details)
	}
	if resp.RequestID == "" {
		t.Error("expected request id in error body")
	}
}

func TestNotFoundReturns404(t *testing.T) {
	h := newTestHandler(&fakeService{})
	rec := do(t, h, http.MethodGet, "/api/suppliers/99", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Code != "NOT_FOUND" {
		t.Errorf("expected NOT_FOUND, got %s", resp.Code)
	}
}

func TestInvalidIDReturns400(t *testing.T) {
	h := newTestHandler(&fakeService{})
	rec := do(t, h, http.MethodGet, "/api/suppliers/abc", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestMalformedJSONReturns400(t *testing.T) {
	h := newTestHandler(&fakeService{})
	rec := do(t, h, http.MethodPost, "/api/suppliers", `{"name":`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestExcessReturnReturns409WithLine(t *testing.T) {
	svc := &fakeService{salesReturnErr: &core.LineError{
		Line: 2,
		Step: "compute reversal",
		Err:  fmt.Errorf("%w: requested 30, returnable 20", ledger.ErrExcessReturnQuantity),
	}}
	h := newTestHandler(svc)

	rec := do(t, h, http.MethodPost, "/api/sales-returns",
		`{"bill_id":1,"items":[{"bill_item_id":1,"quantity":5},{"bill_item_id":2,"quantity":30}]}`, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	resp := decodeError(t, rec)
	if resp.Code != "EXCESS_RETURN_QUANTITY" {
		t.Errorf("expected EXCESS_RETURN_QUANTITY, got %s", resp.Code)
	}
	if resp.Line != 2 {
		t.Errorf("expected line 2, got %d", resp.Line)
	}
}

func TestInternalErrorIsNotLeaked(t *testing.T) {
	svc := &fakeService{salesReturnErr: errors.New("pq: connection reset by peer at 10.0.0.5")}
	h := newTestHandler(svc)

	rec := do(t, h, http.MethodPost, "/api/sales-returns", `{"bill_id":1}`, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Error != "internal server error" {
		t.Errorf("expected generic message, got %q", resp.Error)
	}
}

func TestIdempotencyKeyHeader(t *testing.T) {
	body := `{"supplier_id":1,"invoice_number":"INV-1","invoice_date":"2026-10-01","items":[]}`

	t.Run("header used when body has none", func(t *testing.T) {
		svc := &fakeService{}
		h := newTestHandler(svc)
		rec := do(t, h, http.MethodPost, "/api/purchases", body, map[string]string{"Idempotency-Key": "abc-123"})
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
		if svc.gotPurchase.IdempotencyKey != "abc-123" {
			t.Errorf("expected key from header, got %q", svc.gotPurchase.IdempotencyKey)
		}
	})

	t.Run("body wins over header", func(t *testing.T) {
		svc := &fakeService{}
		h := newTestHandler(svc)
		withKey := strings.Replace(body, `"items"`, `"idempotency_key":"from-body","items"`, 1)
		do(t, h, http.MethodPost, "/api/purchases", withKey, map[string]string{"Idempotency-Key": "abc-123"})
		if svc.gotPurchase.IdempotencyKey != "from-body" {
			t.Errorf("expected key from body, got %q", svc.gotPurchase.IdempotencyKey)
		}
	})
}

func TestListPurchasesQuery(t *testing.T) {
	svc := &fakeService{}
	h := newTestHandler(svc)
	rec := do(t, h, http.MethodGet, "/api/purchases?q=INV&supplier_id=4&limit=20&offset=40", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	want := app.ListRequest{Search: "INV", PartyID: 4, Limit: 20, Offset: 40}
	if svc.gotList != want {
		t.Errorf("expected %+v, got %+v", want, svc.gotList)
	}
}

func TestGetBillByNumber(t *testing.T) {
	svc := &fakeService{}
	h := newTestHandler(svc)
	rec := do(t, h, http.MethodGet, "/api/bills/BL26100001", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.gotBillRef != "BL26100001" {
		t.Errorf("expected ref passed through, got %q", svc.gotBillRef)
	}
}

func TestUnimplementedCallRecovers(t *testing.T) {
	h := newTestHandler(&fakeService{})
	rec := do(t, h, http.MethodGet, "/api/medicines/count", "", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 from recovered panic, got %d", rec.Code)
	}
}

func TestRequestIDAndCORS(t *testing.T) {
	h := newTestHandler(&fakeService{})

	rec := do(t, h, http.MethodGet, "/api/health", "", map[string]string{"X-Request-ID": "req-42"})
	if got := rec.Header().Get("X-Request-ID"); got != "req-42" {
		t.Errorf("expected caller request id echoed, got %q", got)
	}

	rec = do(t, h, http.MethodGet, "/api/health", "", map[string]string{"X-Request-ID": "bad id!"})
	if got := rec.Header().Get("X-Request-ID"); got == "bad id!" || got == "" {
		t.Errorf("expected generated request id, got %q", got)
	}

	rec = do(t, h, http.MethodOptions, "/api/purchases", "", map[string]string{"Origin": "http://localhost:5173"})
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204 preflight, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Error("expected allowed origin header")
	}

	rec = do(t, h, http.MethodOptions, "/api/purchases", "", map[string]string{"Origin": "http://evil.test"})
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("expected no CORS header for unknown origin")
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"insufficient stock", fmt.Errorf("line 1: %w", ledger.ErrInsufficientStock), http.StatusConflict, "INSUFFICIENT_STOCK"},
		{"duplicate", fmt.Errorf("invoice: %w", core.ErrDuplicate), http.StatusConflict, "DUPLICATE"},
		{"expired", fmt.Errorf("batch: %w", core.ErrBatchExpired), http.StatusConflict, "BATCH_EXPIRED"},
		{"invalid quantity", ledger.ErrInvalidQuantity, http.StatusUnprocessableEntity, "VALIDATION_FAILED"},
		{"other", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := errorStatus(tt.err)
			if status != tt.status || code != tt.code {
				t.Errorf("expected %d %s, got %d %s", tt.status, tt.code, status, code)
			}
		})
	}
}
