package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/chowkart/chowkart/internal/fulfillment"
	"github.com/chowkart/chowkart/internal/models"
)

// Handler is the thin HTTP glue over the fulfillment service. Every
// route decodes, calls one service method and maps domain errors to
// status codes; no business rules live here.
type Handler struct {
	service *fulfillment.Service
	logger  *logrus.Logger
}

func NewHandler(service *fulfillment.Service, logger *logrus.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var input fulfillment.CreateOrderInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.logger.WithError(err).Error("Failed to decode order request")
		h.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.service.CreateOrder(r.Context(), input)
	if err != nil {
		h.respondWithDomainError(w, r, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"vendor_id":    order.VendorID,
		"total_amount": order.TotalAmount,
	}).Info("Order placed")

	h.respondWithJSON(w, http.StatusCreated, order)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetOrder(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondWithDomainError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, order)
}

func (h *Handler) GetOrderByNumber(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetOrderByNumber(r.Context(), mux.Vars(r)["number"])
	if err != nil {
		h.respondWithDomainError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, order)
}

func (h *Handler) TransitionStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status models.OrderStatus `json:"status"`
		Actor  string             `json:"actor"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.service.TransitionStatus(r.Context(), mux.Vars(r)["id"], body.Status, body.Actor)
	if err != nil {
		h.respondWithDomainError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, order)
}

// AssignPartner binds a specific partner when the body names one, or
// falls back to auto-assignment over the eligible pool.
func (h *Handler) AssignPartner(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PartnerID string `json:"partner_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	orderID := mux.Vars(r)["id"]
	var order *models.Order
	var err error
	if body.PartnerID == "" {
		order, err = h.service.AutoAssign(r.Context(), orderID)
	} else {
		order, err = h.service.AssignPartner(r.Context(), orderID, body.PartnerID)
	}
	if err != nil {
		h.respondWithDomainError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, order)
}

func (h *Handler) PartnerAccept(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PartnerID string `json:"partner_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.service.PartnerAccept(r.Context(), mux.Vars(r)["id"], body.PartnerID)
	if err != nil {
		h.respondWithDomainError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, order)
}

func (h *Handler) PartnerReject(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PartnerID string `json:"partner_id"`
		Reason    string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.service.PartnerReject(r.Context(), mux.Vars(r)["id"], body.PartnerID, body.Reason)
	if err != nil {
		h.respondWithDomainError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, order)
}

func (h *Handler) PartnerAdvance(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PartnerID string             `json:"partner_id"`
		Status    models.OrderStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.service.PartnerAdvance(r.Context(), mux.Vars(r)["id"], body.PartnerID, body.Status)
	if err != nil {
		h.respondWithDomainError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, order)
}

func (h *Handler) RateOrder(w http.ResponseWriter, r *http.Request) {
	var rating models.OrderRating
	if err := json.NewDecoder(r.Body).Decode(&rating); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.service.RateOrder(r.Context(), mux.Vars(r)["id"], rating)
	if err != nil {
		h.respondWithDomainError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, order)
}

func (h *Handler) ListReadyOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListReadyOrders(r.Context())
	if err != nil {
		h.respondWithDomainError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, orders)
}

func (h *Handler) ListVendorOrders(w http.ResponseWriter, r *http.Request) {
	status := models.OrderStatus(r.URL.Query().Get("status"))
	orders, err := h.service.ListVendorOrders(r.Context(), mux.Vars(r)["id"], status)
	if err != nil {
		h.respondWithDomainError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, orders)
}

func (h *Handler) ListPartnerOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListPartnerOrders(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondWithDomainError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, orders)
}

func (h *Handler) RegisterPartner(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	partner, err := h.service.RegisterPartner(r.Context(), body.UserID)
	if err != nil {
		h.respondWithDomainError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, partner)
}

func (h *Handler) GetPartner(w http.ResponseWriter, r *http.Request) {
	partner, err := h.service.GetPartner(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondWithDomainError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, partner)
}

func (h *Handler) UpdatePartnerProfile(w http.ResponseWriter, r *http.Request) {
	var update fulfillment.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	partner, completion, err := h.service.UpdatePartnerProfile(r.Context(), mux.Vars(r)["id"], update)
	if err != nil {
		h.respondWithDomainError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"partner":    partner,
		"completion": completion,
	})
}

func (h *Handler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IsAvailable bool `json:"is_available"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	partner, err := h.service.SetAvailability(r.Context(), mux.Vars(r)["id"], body.IsAvailable)
	if err != nil {
		h.respondWithDomainError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, partner)
}

func (h *Handler) DecideVerification(w http.ResponseWriter, r *http.Request) {
	var body struct {
		VendorID string `json:"vendor_id"`
		Action   string `json:"action"`
		Reason   string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	partner, err := h.service.DecideVerification(r.Context(), body.VendorID, mux.Vars(r)["id"], body.Action, body.Reason)
	if err != nil {
		h.respondWithDomainError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, partner)
}

func (h *Handler) GetPartnerStats(w http.ResponseWriter, r *http.Request) {
	window := fulfillment.StatsWindow(r.URL.Query().Get("window"))
	report, err := h.service.GetPartnerStats(r.Context(), mux.Vars(r)["id"], window)
	if err != nil {
		h.respondWithDomainError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, report)
}

func (h *Handler) GetVendorStats(w http.ResponseWriter, r *http.Request) {
	window := fulfillment.StatsWindow(r.URL.Query().Get("window"))
	report, err := h.service.GetVendorStats(r.Context(), mux.Vars(r)["id"], window)
	if err != nil {
		h.respondWithDomainError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, report)
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "chowkart",
	})
}

// respondWithDomainError maps domain sentinels to status codes. Unknown
// errors are logged and surfaced as 500 without detail.
func (h *Handler) respondWithDomainError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		h.logger.WithError(err).WithField("path", r.URL.Path).Error("Request failed")
		h.respondWithError(w, code, "Internal server error")
		return
	}
	h.respondWithError(w, code, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrOrderNotFound),
		errors.Is(err, models.ErrPartnerNotFound),
		errors.Is(err, models.ErrVendorNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrAlreadyAssigned):
		return http.StatusConflict
	case errors.Is(err, models.ErrAssignmentRejected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrNotAssignedToYou),
		errors.Is(err, models.ErrCoverageMismatch):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func (h *Handler) respondWithError(w http.ResponseWriter, code int, message string) {
	h.respondWithJSON(w, code, map[string]interface{}{
		"success": false,
		"message": message,
	})
}
