package catalogapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/vladislavdragonenkov/cartstore/internal/domain"
)

// Handler отдаёт каталог в формате json-server: /products, /products/{id}, /stock/{id}.
type Handler struct {
	repo   domain.CatalogRepository
	logger *log.Entry
}

// NewHandler возвращает Handler поверх репозитория каталога.
func NewHandler(repo domain.CatalogRepository, logger *log.Entry) *Handler {
	if logger == nil {
		logger = log.New().WithField("component", "catalog-api")
	}
	return &Handler{repo: repo, logger: logger}
}

// RegisterRoutes registers all routes on the provided router
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/products", h.ListProducts).Methods(http.MethodGet)
	r.HandleFunc("/products/{id:[0-9]+}", h.GetProduct).Methods(http.MethodGet)
	r.HandleFunc("/stock/{id:[0-9]+}", h.GetStock).Methods(http.MethodGet)
	r.HandleFunc("/stock/{id:[0-9]+}", h.SetStock).Methods(http.MethodPut)
}

// NewRouter собирает mux.Router с маршрутами каталога.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("catalog-api"))
	h.RegisterRoutes(r)
	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func (h *Handler) writeRepoErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrCatalogNotFound):
		// json-server отвечает на неизвестный id пустым объектом и 404
		writeJSON(w, http.StatusNotFound, struct{}{})
	case errors.Is(err, domain.ErrStockNegative):
		writeErr(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.WithError(err).Error("catalog request failed")
		writeErr(w, http.StatusInternalServerError, "internal error")
	}
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

// ListProducts handles GET /products
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.repo.ListProducts(r.Context())
	if err != nil {
		h.writeRepoErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// GetProduct handles GET /products/{id}
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.repo.GetProduct(r.Context(), pathID(r))
	if err != nil {
		h.writeRepoErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// GetStock handles GET /stock/{id}
func (h *Handler) GetStock(w http.ResponseWriter, r *http.Request) {
	s, err := h.repo.GetStock(r.Context(), pathID(r))
	if err != nil {
		h.writeRepoErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// SetStock handles PUT /stock/{id}
// body: { "amount": 5 }
func (h *Handler) SetStock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount *int `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Amount == nil {
		writeErr(w, http.StatusBadRequest, "amount is required")
		return
	}

	stock := domain.Stock{ID: pathID(r), Amount: *req.Amount}
	if err := h.repo.SetStock(r.Context(), stock); err != nil {
		h.writeRepoErr(w, err)
		return
	}
	h.logger.WithFields(log.Fields{"product_id": stock.ID, "amount": stock.Amount}).Info("stock updated")
	writeJSON(w, http.StatusOK, stock)
}
