package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	appCheckout "github.com/arzanshop/checkout/internal/application/checkout"
	domainDiscount "github.com/arzanshop/checkout/internal/domain/discount"
	domainOrder "github.com/arzanshop/checkout/internal/domain/order"
	domainSession "github.com/arzanshop/checkout/internal/domain/session"
	domainWallet "github.com/arzanshop/checkout/internal/domain/wallet"
)

// Handler is the thin JSON adapter over the checkout entry points. The real
// deployment drives the engine from the messaging channel; this surface
// exists for operations and integration testing.
type Handler struct {
	checkout *appCheckout.Service
}

func NewHandler(checkoutSvc *appCheckout.Service) *Handler {
	return &Handler{checkout: checkoutSvc}
}

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/checkout/method", h.method(http.MethodPost, h.handleSelectMethod))
	mux.HandleFunc("/checkout/discount/answer", h.method(http.MethodPost, h.handleDiscountAnswer))
	mux.HandleFunc("/checkout/discount/code", h.method(http.MethodPost, h.handleSubmitCode))
	mux.HandleFunc("/checkout/discount/apply", h.method(http.MethodPost, h.handleApplyCode))
	mux.HandleFunc("/checkout/discount/cancel", h.method(http.MethodPost, h.handleCancelDiscountEntry))
	mux.HandleFunc("/checkout/receipt", h.method(http.MethodPost, h.handleSubmitReceipt))
	mux.HandleFunc("/checkout/comment", h.method(http.MethodPost, h.handleSetComment))
	mux.HandleFunc("/checkout/comment/edit", h.method(http.MethodPost, h.handleEditComment))
	mux.HandleFunc("/checkout/receipt/confirm", h.method(http.MethodPost, h.handleConfirmReceipt))
	mux.HandleFunc("/checkout/wallet/confirm", h.method(http.MethodPost, h.handleConfirmWallet))
	mux.HandleFunc("/checkout/mixed/amount", h.method(http.MethodPost, h.handleMixedAmount))
	mux.HandleFunc("/checkout/plan/confirm", h.method(http.MethodPost, h.handleConfirmPlan))
	mux.HandleFunc("/checkout/cancel", h.method(http.MethodPost, h.handleCancel))
	mux.HandleFunc("/checkout/summary", h.method(http.MethodGet, h.handleSummary))
	mux.HandleFunc("/orders/status", h.method(http.MethodPost, h.handleAdvanceStatus))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return mux
}

type actionRequest struct {
	UserID  int64 `json:"user_id"`
	OrderID int64 `json:"order_id"`
}

type resultResponse struct {
	OrderID    int64                        `json:"order_id"`
	Status     domainOrder.Status           `json:"status,omitempty"`
	Stage      domainSession.Stage          `json:"stage,omitempty"`
	Discount   domainSession.DiscountStatus `json:"discount,omitempty"`
	Applied    *appliedResponse             `json:"applied,omitempty"`
	MessageKey string                       `json:"message_key"`
}

type appliedResponse struct {
	Code           string `json:"code"`
	Title          string `json:"title"`
	DiscountAmount int64  `json:"discount_amount"`
	AmountTotal    int64  `json:"amount_total"`
}

func toResponse(res *appCheckout.Result) resultResponse {
	out := resultResponse{
		OrderID:    res.OrderID,
		Status:     res.Status,
		Stage:      res.Stage,
		Discount:   res.Discount,
		MessageKey: res.MessageKey,
	}
	if res.Applied != nil {
		out.Applied = &appliedResponse{
			Code:           res.Applied.Code,
			Title:          res.Applied.Title,
			DiscountAmount: res.Applied.DiscountAmount,
			AmountTotal:    res.Applied.AmountTotal,
		}
	}
	return out
}

func (h *Handler) handleSelectMethod(w http.ResponseWriter, r *http.Request) {
	var req struct {
		actionRequest
		Method string `json:"method"`
	}
	if err := decodeJSON(r.Context(), r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	res, err := h.checkout.SelectMethod(r.Context(), req.UserID, req.OrderID, domainSession.Method(req.Method))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(res))
}

func (h *Handler) handleDiscountAnswer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		actionRequest
		HasCode bool `json:"has_code"`
	}
	if err := decodeJSON(r.Context(), r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	res, err := h.checkout.AnswerDiscountPrompt(r.Context(), req.UserID, req.OrderID, req.HasCode)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(res))
}

func (h *Handler) handleSubmitCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		actionRequest
		Code string `json:"code"`
	}
	if err := decodeJSON(r.Context(), r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	res, err := h.checkout.SubmitCode(r.Context(), req.UserID, req.OrderID, req.Code)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(res))
}

func (h *Handler) handleApplyCode(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := decodeJSON(r.Context(), r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	res, err := h.checkout.ApplyCode(r.Context(), req.UserID, req.OrderID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(res))
}

func (h *Handler) handleCancelDiscountEntry(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := decodeJSON(r.Context(), r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	res, err := h.checkout.CancelDiscountEntry(r.Context(), req.UserID, req.OrderID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(res))
}

func (h *Handler) handleSubmitReceipt(w http.ResponseWriter, r *http.Request) {
	var req struct {
		actionRequest
		PhotoFileID    string `json:"photo_file_id"`
		DocumentFileID string `json:"document_file_id"`
		Text           string `json:"text"`
		Caption        string `json:"caption"`
	}
	if err := decodeJSON(r.Context(), r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	res, err := h.checkout.SubmitReceipt(r.Context(), req.UserID, req.OrderID, appCheckout.ReceiptInput{
		PhotoFileID:    req.PhotoFileID,
		DocumentFileID: req.DocumentFileID,
		Text:           req.Text,
		Caption:        req.Caption,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(res))
}

func (h *Handler) handleSetComment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		actionRequest
		Text string `json:"text"`
	}
	if err := decodeJSON(r.Context(), r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	res, err := h.checkout.SetComment(r.Context(), req.UserID, req.OrderID, req.Text)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(res))
}

func (h *Handler) handleEditComment(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := decodeJSON(r.Context(), r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	res, err := h.checkout.EditComment(r.Context(), req.UserID, req.OrderID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(res))
}

func (h *Handler) handleConfirmReceipt(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := decodeJSON(r.Context(), r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	res, err := h.checkout.ConfirmReceipt(r.Context(), req.UserID, req.OrderID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(res))
}

func (h *Handler) handleConfirmWallet(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := decodeJSON(r.Context(), r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	res, err := h.checkout.ConfirmWallet(r.Context(), req.UserID, req.OrderID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(res))
}

func (h *Handler) handleMixedAmount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		actionRequest
		Amount int64 `json:"amount"`
	}
	if err := decodeJSON(r.Context(), r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	res, err := h.checkout.SubmitMixedAmount(r.Context(), req.UserID, req.OrderID, req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(res))
}

func (h *Handler) handleConfirmPlan(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := decodeJSON(r.Context(), r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	res, err := h.checkout.ConfirmPlan(r.Context(), req.UserID, req.OrderID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(res))
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := decodeJSON(r.Context(), r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	res, err := h.checkout.Cancel(r.Context(), req.UserID, req.OrderID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(res))
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	userID, err := queryInt64(r, "user_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	orderID, err := queryInt64(r, "order_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	summary, err := h.checkout.CheckoutSummary(r.Context(), userID, orderID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleAdvanceStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID int64  `json:"order_id"`
		To      string `json:"to"`
	}
	if err := decodeJSON(r.Context(), r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	res, err := h.checkout.AdvanceStatus(r.Context(), req.OrderID, domainOrder.Status(req.To))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(res))
}

func (h *Handler) method(method string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
			return
		}
		handler(w, r)
	}
}

func queryInt64(r *http.Request, key string) (int64, error) {
	v, err := strconv.ParseInt(r.URL.Query().Get(key), 10, 64)
	if err != nil {
		return 0, errors.New(key + " must be an integer")
	}
	return v, nil
}

func decodeJSON(ctx context.Context, r *http.Request, dst any) error {
	_ = ctx
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domainOrder.ErrNotFound),
		errors.Is(err, domainWallet.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domainOrder.ErrNotOwner),
		errors.Is(err, appCheckout.ErrContactUnverified):
		writeError(w, http.StatusForbidden, err)
	case errors.Is(err, domainOrder.ErrInvalidStatus),
		errors.Is(err, domainOrder.ErrDiscountApplied),
		errors.Is(err, domainWallet.ErrInsufficientFunds),
		errors.Is(err, appCheckout.ErrPlanAlreadyUsed):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, domainOrder.ErrInvalidAmount),
		errors.Is(err, domainOrder.ErrAmountExceeded),
		errors.Is(err, domainSession.ErrMismatch),
		errors.Is(err, domainDiscount.ErrInvalidCode),
		errors.Is(err, domainDiscount.ErrAlreadyApplied),
		errors.Is(err, appCheckout.ErrInvalidMethod),
		errors.Is(err, appCheckout.ErrDiscountPending),
		errors.Is(err, appCheckout.ErrNoStagedCode),
		errors.Is(err, appCheckout.ErrInvalidReceipt),
		errors.Is(err, appCheckout.ErrInvalidComment),
		errors.Is(err, appCheckout.ErrPlanNotEligible):
		writeError(w, http.StatusBadRequest, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}
