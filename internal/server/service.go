// Package server exposes the pricing and circulars API over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joseph-ayodele/circulars-tracker/internal/common"
	"github.com/joseph-ayodele/circulars-tracker/internal/entity"
	"github.com/joseph-ayodele/circulars-tracker/internal/export"
	"github.com/joseph-ayodele/circulars-tracker/internal/loader"
	"github.com/joseph-ayodele/circulars-tracker/internal/offers"
	"github.com/joseph-ayodele/circulars-tracker/internal/repository"
)

// OfferSource answers aggregated pricing queries. Both the plain and the
// cached aggregator satisfy it.
type OfferSource interface {
	Offers(ctx context.Context, rawQuery string, q offers.Query) ([]entity.Offer, string, error)
}

type Service struct {
	offers   OfferSource
	repo     repository.CircularItemRepository
	loader   *loader.Service
	exporter *export.Service
	pool     *pgxpool.Pool
	logger   *slog.Logger
}

func NewService(src OfferSource, repo repository.CircularItemRepository, ldr *loader.Service, exporter *export.Service, pool *pgxpool.Pool, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{offers: src, repo: repo, loader: ldr, exporter: exporter, pool: pool, logger: logger}
}

// Router wires all routes. Callers own the http.Server around it.
func (s *Service) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/pricing/offers", s.handleOffers).Methods(http.MethodPost)

	c := r.PathPrefix("/circulars").Subrouter()
	c.HandleFunc("/items", s.handleItems).Methods(http.MethodGet)
	c.HandleFunc("/search", s.handleSearch).Methods(http.MethodGet)
	c.HandleFunc("/retailers", s.handleRetailers).Methods(http.MethodGet)
	c.HandleFunc("/retailers/{retailer}/categories", s.handleCategories).Methods(http.MethodGet)
	c.HandleFunc("/summary", s.handleSummary).Methods(http.MethodGet)
	c.HandleFunc("/find-price", s.handleFindPrice).Methods(http.MethodGet)
	c.HandleFunc("/reload/{retailer}", s.handleReload).Methods(http.MethodPost)
	c.HandleFunc("/export/{retailer}", s.handleExport).Methods(http.MethodGet)

	r.Use(s.logMiddleware)
	return r
}

func (s *Service) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, req)
		s.logger.Debug("http.request",
			"method", req.Method,
			"path", req.URL.Path,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
}

type offersRequest struct {
	Query       string   `json:"query"`
	ZipCode     string   `json:"zip_code,omitempty"`
	Lat         *float64 `json:"lat,omitempty"`
	Lng         *float64 `json:"lng,omitempty"`
	RadiusMiles float64  `json:"radius_miles,omitempty"`
}

type offersResponse struct {
	Offers          []entity.Offer `json:"offers"`
	NormalizedQuery string         `json:"normalized_query"`
}

func (s *Service) handleOffers(w http.ResponseWriter, req *http.Request) {
	var body offersRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	result, normalized, err := s.offers.Offers(req.Context(), body.Query, offers.Query{
		ZipCode:     body.ZipCode,
		Lat:         body.Lat,
		Lng:         body.Lng,
		RadiusMiles: body.RadiusMiles,
	})
	if err != nil {
		s.logger.Error("http.offers.failed", "query", body.Query, "error", err)
		writeError(w, http.StatusInternalServerError, "offer aggregation failed")
		return
	}
	if result == nil {
		result = []entity.Offer{}
	}
	writeJSON(w, http.StatusOK, offersResponse{Offers: result, NormalizedQuery: normalized})
}

func (s *Service) handleItems(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	offset, limit := 0, 100
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v >= 0 {
		offset = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		limit = v
	}

	items, err := s.repo.List(req.Context(), q.Get("retailer"), q.Get("category"), offset, limit)
	if err != nil {
		s.logger.Error("http.items.failed", "error", err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if items == nil {
		items = []entity.CircularItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Service) handleSearch(w http.ResponseWriter, req *http.Request) {
	term := req.URL.Query().Get("q")
	if term == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	items, err := s.repo.Search(req.Context(), term, req.URL.Query().Get("retailer"))
	if err != nil {
		s.logger.Error("http.search.failed", "term", term, "error", err)
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	if items == nil {
		items = []entity.CircularItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Service) handleRetailers(w http.ResponseWriter, req *http.Request) {
	retailers, err := s.repo.Retailers(req.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if retailers == nil {
		retailers = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"retailers": retailers})
}

func (s *Service) handleCategories(w http.ResponseWriter, req *http.Request) {
	retailer := mux.Vars(req)["retailer"]
	categories, err := s.repo.CategoriesForRetailer(req.Context(), retailer)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if categories == nil {
		categories = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"retailer": retailer, "categories": categories})
}

func (s *Service) handleSummary(w http.ResponseWriter, req *http.Request) {
	summary, err := s.repo.Summary(req.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Service) handleFindPrice(w http.ResponseWriter, req *http.Request) {
	item := req.URL.Query().Get("item")
	if item == "" {
		writeError(w, http.StatusBadRequest, "item is required")
		return
	}
	price, err := s.repo.FindPrice(req.Context(), item, req.URL.Query().Get("retailer"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"item": item, "price": price, "found": price != nil})
}

func (s *Service) handleReload(w http.ResponseWriter, req *http.Request) {
	retailer := mux.Vars(req)["retailer"]
	res, err := s.loader.ReloadRetailer(req.Context(), retailer)
	switch {
	case errors.Is(err, common.ErrUnknownRetailer):
		writeError(w, http.StatusNotFound, "unknown retailer: "+retailer)
		return
	case errors.Is(err, common.ErrNoDocuments):
		writeError(w, http.StatusNotFound, "no circulars found for "+retailer)
		return
	case err != nil:
		s.logger.Error("http.reload.failed", "retailer", retailer, "error", err)
		writeError(w, http.StatusInternalServerError, "reload failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Service) handleExport(w http.ResponseWriter, req *http.Request) {
	retailer := mux.Vars(req)["retailer"]
	data, err := s.exporter.ExportRetailerXLSX(req.Context(), retailer)
	if err != nil {
		s.logger.Error("http.export.failed", "retailer", retailer, "error", err)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", retailer+"-circular.xlsx"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Service) handleHealth(w http.ResponseWriter, req *http.Request) {
	status := map[string]string{"status": "ok"}
	code := http.StatusOK
	if s.pool != nil {
		if err := repository.HealthCheck(req.Context(), s.pool); err != nil {
			status["status"] = "degraded"
			status["database"] = err.Error()
			code = http.StatusServiceUnavailable
		} else {
			status["database"] = "ok"
		}
	}
	writeJSON(w, code, status)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
