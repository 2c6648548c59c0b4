// Package handler содержит HTTP-обработчики API тестового стенда.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/fuelcheck/internal/middleware"
	"github.com/mmeshcher/fuelcheck/internal/model"
	"github.com/mmeshcher/fuelcheck/internal/service"
)

// Service определяет контракт стенда, используемый HTTP-обработчиками.
type Service interface {
	Authenticate(ctx context.Context, login, password string) error
	Buy(ctx context.Context, fuelID model.FuelID, quantity int) (string, error)
	Orders(ctx context.Context) []service.Order
	Order(ctx context.Context, id string) (service.Order, error)
	UpdateOrder(ctx context.Context, id, fuel string, quantity int) (service.Order, error)
	DeleteOrder(ctx context.Context, id string) error
	Energy(ctx context.Context) []service.Fuel
	Reset(ctx context.Context)
}

// Handler реализует HTTP-обработчики API стенда.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
	metrics        http.Handler
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware, metrics http.Handler) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
		metrics:        metrics,
	}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	Message     string `json:"message"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type orderResponse struct {
	Fuel     string `json:"fuel"`
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
	Time     string `json:"time"`
}

type energyResponse struct {
	EnergyID     int     `json:"energy_id"`
	PricePerUnit float64 `json:"price_per_unit"`
	QuantityOf   int     `json:"quantity_of_units"`
	UnitType     string  `json:"unit_type"`
}

// Login проверяет учётные данные и выдаёт токен доступа.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.Authenticate(r.Context(), req.Username, req.Password); err != nil {
		writeJSON(w, http.StatusUnauthorized, messageResponse{Message: "Bad credentials"})
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: h.authMiddleware.IssueToken(req.Username),
		Message:     "Success",
	})
}

// Buy покупает топливо: PUT /ENSEK/buy/{id}/{quantity}.
func (h *Handler) Buy(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	quantity, err := strconv.Atoi(chi.URLParam(r, "quantity"))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	msg, err := h.service.Buy(r.Context(), model.FuelID(id), quantity)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownFuel):
			writeJSON(w, http.StatusNotFound, messageResponse{Message: "Fuel not found"})
		case errors.Is(err, service.ErrInvalidQuantity):
			writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Quantity must be positive"})
		default:
			h.logger.Error("buy error", zap.Error(err), zap.Int("fuel_id", id))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	login, _ := middleware.GetLoginFromContext(r.Context())
	h.logger.Debug("purchase", zap.String("login", login), zap.Int("fuel_id", id), zap.Int("quantity", quantity))

	writeJSON(w, http.StatusOK, messageResponse{Message: msg})
}

// GetOrders возвращает список всех заказов.
func (h *Handler) GetOrders(w http.ResponseWriter, r *http.Request) {
	orders := h.service.Orders(r.Context())

	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, toOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetOrder возвращает заказ по номеру.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.Order(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			writeJSON(w, http.StatusNotFound, messageResponse{Message: "Order not found"})
			return
		}
		h.logger.Error("get order error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// UpdateOrder меняет заказ по номеру: POST /ENSEK/orders/{orderID}.
func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "orderID")

	var req orderResponse
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	o, err := h.service.UpdateOrder(r.Context(), id, req.Fuel, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			writeJSON(w, http.StatusNotFound, messageResponse{Message: "Order not found"})
		case errors.Is(err, service.ErrUnknownFuel):
			writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Fuel not found"})
		case errors.Is(err, service.ErrInvalidQuantity):
			writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Quantity must be positive"})
		default:
			h.logger.Error("update order error", zap.Error(err), zap.String("order", id))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// DeleteOrder удаляет заказ по номеру.
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "orderID")
	if err := h.service.DeleteOrder(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			writeJSON(w, http.StatusNotFound, messageResponse{Message: "Order not found"})
			return
		}
		h.logger.Error("delete order error", zap.Error(err), zap.String("order", id))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Order deleted"})
}

// Energy возвращает каталог топлива.
func (h *Handler) Energy(w http.ResponseWriter, r *http.Request) {
	resp := make(map[string]energyResponse)
	for _, f := range h.service.Energy(r.Context()) {
		resp[f.Name] = energyResponse{
			EnergyID:     int(f.ID),
			PricePerUnit: f.PricePerUnit,
			QuantityOf:   f.Stock,
			UnitType:     f.Unit,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Reset сбрасывает заказы и остатки стенда.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	h.service.Reset(r.Context())
	writeJSON(w, http.StatusOK, messageResponse{Message: "Success"})
}

func toOrderResponse(o service.Order) orderResponse {
	return orderResponse{
		Fuel:     o.Fuel,
		ID:       o.ID,
		Quantity: o.Quantity,
		Time:     o.CreatedAt.UTC().Format(http.TimeFormat),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
