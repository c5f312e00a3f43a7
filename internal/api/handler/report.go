package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/kasirku/kasir/internal/api/middleware"
	"github.com/kasirku/kasir/internal/api/response"
	"github.com/kasirku/kasir/internal/report"
)

const maxTopLimit = 100

type periodResponse struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type summaryResponse struct {
	Period       periodResponse `json:"period"`
	Transactions int            `json:"transactions"`
	Revenue      int64          `json:"revenue"`
	Discounts    int64          `json:"discounts"`
	CostOfGoods  int64          `json:"costOfGoods"`
	GrossProfit  int64          `json:"grossProfit"`
	Purchases    int64          `json:"purchases"`
}

type dayResponse struct {
	Date         string `json:"date"`
	Transactions int    `json:"transactions"`
	Revenue      int64  `json:"revenue"`
}

type topProductResponse struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Revenue   int64  `json:"revenue"`
}

// ReportHandler handles the report endpoints.
type ReportHandler struct {
	repo report.Repository
	now  func() time.Time
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(repo report.Repository) *ReportHandler {
	return &ReportHandler{repo: repo, now: time.Now}
}

// period reads from/to and applies the default window.
func (h *ReportHandler) period(w http.ResponseWriter, r *http.Request) (report.Period, bool) {
	from, to, ok := parseRange(w, r)
	if !ok {
		return report.Period{}, false
	}
	p, err := report.NewPeriod(from, to, h.now())
	if err != nil {
		if errors.Is(err, report.ErrInvalidPeriod) {
			invalidParam(w, r, "to must not be before from")
			return report.Period{}, false
		}
		response.Internal(w, "failed to build report period", err, middleware.GetRequestID(r.Context()))
		return report.Period{}, false
	}
	return p, true
}

// Summary handles GET /reports/summary.
func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}
	p, ok := h.period(w, r)
	if !ok {
		return
	}

	s, err := h.repo.Summary(r.Context(), scope, p)
	if err != nil {
		response.Internal(w, "failed to build summary report", err, requestID)
		return
	}

	response.Success(w, http.StatusOK, summaryResponse{
		Period:       periodResponse{From: formatTime(p.From), To: formatTime(p.To)},
		Transactions: s.Transactions,
		Revenue:      s.Revenue,
		Discounts:    s.Discounts,
		CostOfGoods:  s.CostOfGoods,
		GrossProfit:  s.GrossProfit,
		Purchases:    s.Purchases,
	}, requestID)
}

// Daily handles GET /reports/daily.
func (h *ReportHandler) Daily(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}
	p, ok := h.period(w, r)
	if !ok {
		return
	}

	days, err := h.repo.Daily(r.Context(), scope, p)
	if err != nil {
		response.Internal(w, "failed to build daily report", err, requestID)
		return
	}

	items := make([]dayResponse, 0, len(days))
	for _, d := range days {
		items = append(items, dayResponse{
			Date:         d.Date.Format(time.DateOnly),
			Transactions: d.Transactions,
			Revenue:      d.Revenue,
		})
	}
	response.Success(w, http.StatusOK, items, requestID)
}

// TopProducts handles GET /reports/top-products.
func (h *ReportHandler) TopProducts(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}
	p, ok := h.period(w, r)
	if !ok {
		return
	}

	limit := report.DefaultTopLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxTopLimit {
			invalidParam(w, r, "limit must be an integer between 1 and 100")
			return
		}
		limit = n
	}

	top, err := h.repo.TopProducts(r.Context(), scope, p, limit)
	if err != nil {
		response.Internal(w, "failed to build top products report", err, requestID)
		return
	}

	items := make([]topProductResponse, 0, len(top))
	for _, t := range top {
		items = append(items, topProductResponse{
			ProductID: t.ProductID.String(),
			Name:      t.Name,
			Quantity:  t.Quantity,
			Revenue:   t.Revenue,
		})
	}
	response.Success(w, http.StatusOK, items, requestID)
}
