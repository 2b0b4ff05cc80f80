package http

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Spok95/parking-rent/internal/api"
)

type Server struct {
	srv *http.Server
}

func New(addr string, exposeMetrics bool, h *api.Handler, webhook http.Handler) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	if exposeMetrics {
		mux.Handle("/metrics", promhttp.Handler())
	}

	mux.HandleFunc("POST /api/contractors", h.CreateContractor)
	mux.HandleFunc("GET /api/contractors", h.ListContractors)
	mux.HandleFunc("GET /api/contractors/{id}", h.GetContractor)
	mux.HandleFunc("PATCH /api/contractors/{id}", h.UpdateContractor)
	mux.HandleFunc("DELETE /api/contractors/{id}", h.DeleteContractor)
	mux.HandleFunc("GET /api/contractors/{id}/unpaid-months", h.UnpaidMonths)
	mux.HandleFunc("POST /api/checkout-sessions", h.CreateCheckoutSession)
	mux.HandleFunc("GET /api/payments/{id}/receipt", h.PaymentReceipt)
	mux.HandleFunc("GET /api/reports/payments.xlsx", h.ExportPayments)

	mux.Handle("POST /webhooks/stripe", webhook)

	return &Server{srv: &http.Server{Addr: addr, Handler: mux}}
}

func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
