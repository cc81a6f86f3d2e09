package httpapi

import (
	"net/http"
	"strings"

	"societyhub-data/internal/service"

	"go.uber.org/zap"
)

// PaymentsHandler 缴费 Handler
type PaymentsHandler struct {
	payments service.PaymentService
	logger   *zap.Logger
}

func NewPaymentsHandler(payments service.PaymentService, logger *zap.Logger) *PaymentsHandler {
	return &PaymentsHandler{payments: payments, logger: logger}
}

func (h *PaymentsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/v1/payments" && r.Method == http.MethodGet:
		h.List(w, r)
	case r.URL.Path == "/api/v1/payments" && r.Method == http.MethodPost:
		h.Create(w, r)
	case strings.HasSuffix(r.URL.Path, "/pay") && r.Method == http.MethodPost:
		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/v1/payments/"), "/pay")
		if id == "" || strings.Contains(id, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.MarkPaid(w, r, id)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *PaymentsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	payments, err := h.payments.ListPayments(r.Context(), q.Get("societyId"), q.Get("flatId"))
	if err != nil {
		h.logger.Error("ListPayments failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(payments))
}

func (h *PaymentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}

	societyID, _ := payload["societyId"].(string)
	flatID, _ := payload["flatId"].(string)
	userID, _ := payload["userId"].(string)
	payType, _ := payload["type"].(string)
	dueDate, _ := payload["dueDate"].(string)
	amount, _ := payload["amount"].(float64)

	payment, err := h.payments.CreatePayment(r.Context(), service.CreatePaymentRequest{
		SocietyID: societyID,
		FlatID:    flatID,
		UserID:    userID,
		Type:      payType,
		Amount:    int(amount),
		DueDate:   dueDate,
	})
	if err != nil {
		h.logger.Error("CreatePayment failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(payment))
}

func (h *PaymentsHandler) MarkPaid(w http.ResponseWriter, r *http.Request, id string) {
	var payload map[string]any
	_ = readBodyJSON(r, 1<<20, &payload)
	method, _ := payload["paymentMethod"].(string)

	if err := h.payments.MarkPaid(r.Context(), service.MarkPaidRequest{
		PaymentID: id,
		Method:    method,
	}); err != nil {
		h.logger.Error("MarkPaid failed", zap.String("payment_id", id), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"paid": true}))
}
