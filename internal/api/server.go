package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/soltools/portfolio/internal/analytics"
)

// NewServer creates an HTTP server with all routes configured.
func NewServer(port string, scanner WalletScanner, portfolio PortfolioBuilder, views analytics.Repository, adminAPIKey string) *http.Server {
	handler := NewHandler(scanner, portfolio, views)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/portfolio/{address}", handler.GetPortfolio)
	mux.HandleFunc("POST /api/v1/analytics/pageviews", handler.RecordPageView)

	summaryHandler := http.HandlerFunc(handler.GetAnalyticsSummary)
	if adminAPIKey != "" {
		mux.Handle("GET /api/v1/analytics/summary", requireAuth(adminAPIKey, summaryHandler))
	} else {
		mux.Handle("GET /api/v1/analytics/summary", summaryHandler)
	}

	return &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func requireAuth(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if !strings.HasPrefix(auth, "Bearer ") || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
