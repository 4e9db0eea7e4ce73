package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/vladislavdragonenkov/cartstore/internal/domain"
	"github.com/vladislavdragonenkov/cartstore/internal/notify"
)

// Handler — HTTP слой поверх корзины.
type Handler struct {
	store         domain.CartStore
	notifications *notify.Recorder
	logger        *log.Entry
}

// NewHandler возвращает Handler. notifications может быть nil.
func NewHandler(store domain.CartStore, notifications *notify.Recorder, logger *log.Entry) *Handler {
	if logger == nil {
		logger = log.New().WithField("component", "cart-http")
	}
	return &Handler{store: store, notifications: notifications, logger: logger}
}

// RegisterRoutes регистрирует маршруты корзины на роутере.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/cart", h.GetCart).Methods(http.MethodGet)
	r.HandleFunc("/cart/products/{id:[0-9]+}", h.AddProduct).Methods(http.MethodPost)
	r.HandleFunc("/cart/products/{id:[0-9]+}", h.RemoveProduct).Methods(http.MethodDelete)
	r.HandleFunc("/cart/products/{id:[0-9]+}", h.UpdateProductAmount).Methods(http.MethodPut)
	r.HandleFunc("/cart/notifications", h.Notifications).Methods(http.MethodGet)
	r.Use(h.logRequests)
}

// NewRouter собирает mux.Router с маршрутами корзины.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("cart-http"))
	h.RegisterRoutes(r)
	return r
}

type cartResponse struct {
	Items   domain.Cart    `json:"items"`
	Summary domain.Summary `json:"summary"`
}

type updateAmountReq struct {
	Amount *int `json:"amount"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func (h *Handler) writeCart(w http.ResponseWriter) {
	cart := h.store.Cart()
	writeJSON(w, http.StatusOK, cartResponse{Items: cart, Summary: cart.Summary()})
}

func (h *Handler) writeDomainErr(w http.ResponseWriter, err error) {
	code := statusOf(err)
	if code == http.StatusInternalServerError {
		h.logger.WithError(err).Error("cart request failed")
	}
	writeErr(w, code, domain.FailureMessage(err))
}

func productID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id, err == nil
}

// GetCart handles GET /cart
func (h *Handler) GetCart(w http.ResponseWriter, _ *http.Request) {
	h.writeCart(w)
}

// AddProduct handles POST /cart/products/{id}
func (h *Handler) AddProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid product id")
		return
	}
	if err := h.store.AddProduct(r.Context(), id); err != nil {
		h.writeDomainErr(w, err)
		return
	}
	h.writeCart(w)
}

// RemoveProduct handles DELETE /cart/products/{id}
func (h *Handler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid product id")
		return
	}
	if err := h.store.RemoveProduct(r.Context(), id); err != nil {
		h.writeDomainErr(w, err)
		return
	}
	h.writeCart(w)
}

// UpdateProductAmount handles PUT /cart/products/{id}
// body: { "amount": 3 }
func (h *Handler) UpdateProductAmount(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid product id")
		return
	}
	var req updateAmountReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Amount == nil {
		writeErr(w, http.StatusBadRequest, "amount is required")
		return
	}
	if err := h.store.UpdateProductAmount(r.Context(), domain.AmountUpdate{ProductID: id, Amount: *req.Amount}); err != nil {
		h.writeDomainErr(w, err)
		return
	}
	h.writeCart(w)
}

// Notifications handles GET /cart/notifications?drain=true
func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	if h.notifications == nil {
		writeJSON(w, http.StatusOK, []notify.Notification{})
		return
	}
	if drain, _ := strconv.ParseBool(r.URL.Query().Get("drain")); drain {
		writeJSON(w, http.StatusOK, h.notifications.Drain())
		return
	}
	writeJSON(w, http.StatusOK, h.notifications.List())
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		h.logger.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start),
		}).Debug("http request")
	})
}

// statusOf сопоставляет доменную ошибку HTTP-статусу.
func statusOf(err error) int {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrInsufficientStock):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrProductNotFound), errors.Is(err, domain.ErrCatalogNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrProductFetch), errors.Is(err, domain.ErrStockFetch):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
