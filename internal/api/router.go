package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// NewRouter wires every fulfillment operation to its route.
func NewRouter(h *Handler, logger *logrus.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(requestLogger(logger))

	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)

	r.HandleFunc("/orders", h.CreateOrder).Methods(http.MethodPost)
	r.HandleFunc("/orders/ready", h.ListReadyOrders).Methods(http.MethodGet)
	r.HandleFunc("/orders/number/{number}", h.GetOrderByNumber).Methods(http.MethodGet)
	r.HandleFunc("/orders/{id}", h.GetOrder).Methods(http.MethodGet)
	r.HandleFunc("/orders/{id}/status", h.TransitionStatus).Methods(http.MethodPut)
	r.HandleFunc("/orders/{id}/assign", h.AssignPartner).Methods(http.MethodPost)
	r.HandleFunc("/orders/{id}/accept", h.PartnerAccept).Methods(http.MethodPost)
	r.HandleFunc("/orders/{id}/reject", h.PartnerReject).Methods(http.MethodPost)
	r.HandleFunc("/orders/{id}/advance", h.PartnerAdvance).Methods(http.MethodPost)
	r.HandleFunc("/orders/{id}/rating", h.RateOrder).Methods(http.MethodPost)

	r.HandleFunc("/partners", h.RegisterPartner).Methods(http.MethodPost)
	r.HandleFunc("/partners/{id}", h.GetPartner).Methods(http.MethodGet)
	r.HandleFunc("/partners/{id}", h.UpdatePartnerProfile).Methods(http.MethodPatch)
	r.HandleFunc("/partners/{id}/availability", h.SetAvailability).Methods(http.MethodPut)
	r.HandleFunc("/partners/{id}/verification", h.DecideVerification).Methods(http.MethodPost)
	r.HandleFunc("/partners/{id}/orders", h.ListPartnerOrders).Methods(http.MethodGet)
	r.HandleFunc("/partners/{id}/stats", h.GetPartnerStats).Methods(http.MethodGet)

	r.HandleFunc("/vendors/{id}/orders", h.ListVendorOrders).Methods(http.MethodGet)
	r.HandleFunc("/vendors/{id}/stats", h.GetVendorStats).Methods(http.MethodGet)

	return r
}

// requestLogger tags every request with a generated id and logs method,
// path and duration on completion.
func requestLogger(logger *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := uuid.New().String()
			next.ServeHTTP(w, r)
			logger.WithFields(logrus.Fields{
				"request_id": requestID,
				"method":     r.Method,
				"path":       r.URL.Path,
				"duration":   time.Since(start).String(),
			}).Info("Request handled")
		})
	}
}
