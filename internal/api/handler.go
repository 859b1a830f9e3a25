package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/soltools/portfolio/internal/analytics"
	"github.com/soltools/portfolio/internal/domain"
	"github.com/soltools/portfolio/internal/solana"
)

// WalletScanner discovers a wallet's raw holdings.
type WalletScanner interface {
	ScanWallet(ctx context.Context, address string) ([]domain.Token, error)
}

// PortfolioBuilder prices and verifies scanned holdings.
type PortfolioBuilder interface {
	BuildPortfolio(ctx context.Context, address string, tokens []domain.Token) (domain.Portfolio, error)
}

// Handler provides HTTP endpoints for the portfolio API.
type Handler struct {
	scanner   WalletScanner
	portfolio PortfolioBuilder
	views     analytics.Repository
}

// NewHandler creates a new API handler. views may be nil when no database is
// configured; the analytics endpoints then answer 503.
func NewHandler(scanner WalletScanner, portfolio PortfolioBuilder, views analytics.Repository) *Handler {
	return &Handler{scanner: scanner, portfolio: portfolio, views: views}
}

// GetPortfolio handles GET /api/v1/portfolio/{address}.
func (h *Handler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")

	tokens, err := h.scanner.ScanWallet(r.Context(), address)
	if err != nil {
		if errors.Is(err, solana.ErrInvalidAddress) {
			writeError(w, http.StatusBadRequest, "invalid wallet address")
			return
		}
		slog.Error("wallet scan failed", "address", address, "error", err)
		writeError(w, http.StatusBadGateway, "wallet scan failed")
		return
	}

	p, err := h.portfolio.BuildPortfolio(r.Context(), address, tokens)
	if err != nil {
		slog.Error("building portfolio failed", "address", address, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// RecordPageView handles POST /api/v1/analytics/pageviews.
func (h *Handler) RecordPageView(w http.ResponseWriter, r *http.Request) {
	if h.views == nil {
		writeError(w, http.StatusServiceUnavailable, "analytics disabled")
		return
	}

	var req struct {
		Page    string `json:"page"`
		Visitor string `json:"visitor"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Page == "" {
		writeError(w, http.StatusBadRequest, "page is required")
		return
	}
	if req.Visitor == "" {
		req.Visitor = clientAddr(r)
	}

	if err := h.views.Record(r.Context(), req.Page, req.Visitor); err != nil {
		slog.Error("recording page view failed", "page", req.Page, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetAnalyticsSummary handles GET /api/v1/analytics/summary.
func (h *Handler) GetAnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	if h.views == nil {
		writeError(w, http.StatusServiceUnavailable, "analytics disabled")
		return
	}

	s, err := h.views.Summarize(r.Context())
	if err != nil {
		slog.Error("summarizing analytics failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// clientAddr extracts the visitor identity: forwarded header first, then the
// connection's remote address.
func clientAddr(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
		return
	}
	_, _ = w.Write([]byte("\n"))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
