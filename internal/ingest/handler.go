package ingest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/spendtrack/spendtrack/internal/platform/httpx"
	"github.com/spendtrack/spendtrack/internal/shared"
)

// Handler exposes the HTTP ingestion endpoint.
type Handler struct {
	logger  *slog.Logger
	gateway *Gateway
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, gateway *Gateway) *Handler {
	return &Handler{logger: logger, gateway: gateway}
}

// MountRoutes registers ingestion routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.submit)
}

type signalRequest struct {
	Merchant    string           `json:"merchant"`
	Amount      *decimal.Decimal `json:"amount"`
	Currency    string           `json:"currency"`
	AccountHint string           `json:"accountHint"`
	RawText     string           `json:"rawText"`
	Source      string           `json:"source"`
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	var req signalRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	source := req.Source
	if source == "" {
		source = "api"
	}
	p, err := h.gateway.Submit(r.Context(), Signal{
		UserID:      id.UserID,
		Merchant:    req.Merchant,
		Amount:      req.Amount,
		Currency:    req.Currency,
		AccountHint: req.AccountHint,
		RawPayload:  req.RawText,
		Source:      source,
	})
	if err != nil {
		h.logger.Error("submit signal", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}
