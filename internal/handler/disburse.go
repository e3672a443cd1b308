package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	"github.com/chainwage/payroll-api/internal/domain"
	"github.com/chainwage/payroll-api/internal/logging"
)

var (
	disbursementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payroll_disbursements_total",
		Help: "Disbursement requests by outcome",
	}, []string{"outcome"})

	disbursementDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "payroll_disbursement_duration_seconds",
		Help:    "End-to-end disbursement latency including confirmation wait",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})
)

type disbursementService interface {
	Disburse(ctx context.Context, req domain.DisbursementRequest) (*domain.DisbursementResult, error)
}

type DisbursementHandler struct {
	disbursements disbursementService
}

func NewDisbursementHandler(disbursements disbursementService) *DisbursementHandler {
	return &DisbursementHandler{disbursements: disbursements}
}

type disburseRequest struct {
	Employer string     `json:"employer"`
	Data     []lineItem `json:"data"`
}

type lineItem struct {
	Address string          `json:"address"`
	Amount  decimal.Decimal `json:"amount"`
}

type disburseResponse struct {
	TransactionHash string `json:"transactionHash"`
	Timestamp       string `json:"timestamp"`
	GasUsed         uint64 `json:"gasUsed"`
}

// insufficientBalanceResponse reports the rejected batch with a success
// status; amounts are decimal strings of integer base units. The lowercase
// "totalbalance" key is part of the client contract.
type insufficientBalanceResponse struct {
	Employer     string `json:"employer"`
	TotalBalance string `json:"totalbalance"`
	Balance      string `json:"balance"`
}

// ServeHTTP dispatches on method itself: POST submits a batch, OPTIONS is
// the CORS preflight (always an empty success), everything else is a 405
// with the fixed error body.
func (h *DisbursementHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.disburse(w, r)
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	default:
		RespondMethodNotAllowed(w)
	}
}

func (h *DisbursementHandler) disburse(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	timer := prometheus.NewTimer(disbursementDuration)
	defer timer.ObserveDuration()

	var req disburseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		disbursementsTotal.WithLabelValues("invalid_input").Inc()
		RespondError(w, domain.ErrInvalidRequest)
		return
	}

	items := make([]domain.PaymentLineItem, len(req.Data))
	for i, d := range req.Data {
		items[i] = domain.PaymentLineItem{Recipient: d.Address, Amount: d.Amount}
	}

	result, err := h.disbursements.Disburse(r.Context(), domain.DisbursementRequest{
		Employer: req.Employer,
		Items:    items,
	})
	if err != nil {
		var insufficient *domain.InsufficientBalanceError
		if errors.As(err, &insufficient) {
			disbursementsTotal.WithLabelValues("insufficient_balance").Inc()
			RespondJSON(w, http.StatusOK, insufficientBalanceResponse{
				Employer:     insufficient.Employer,
				TotalBalance: insufficient.Requested.String(),
				Balance:      insufficient.Available.String(),
			})
			return
		}

		disbursementsTotal.WithLabelValues(outcomeLabel(err)).Inc()
		log.Warn("disbursement failed", "employer", req.Employer, "error", err)
		RespondError(w, err)
		return
	}

	disbursementsTotal.WithLabelValues("confirmed").Inc()
	RespondJSON(w, http.StatusOK, disburseResponse{
		TransactionHash: result.TxHash,
		Timestamp:       result.Timestamp.Format(time.RFC3339),
		GasUsed:         result.GasUsed,
	})
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrSignerMissing):
		return "config_error"
	case errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidAddress):
		return "invalid_input"
	case errors.Is(err, domain.ErrConfirmationTimeout):
		return "confirmation_timeout"
	default:
		return "ledger_error"
	}
}
