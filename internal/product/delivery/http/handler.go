package http

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tair/eshoplite-products/internal/product/domain"
	"github.com/tair/eshoplite-products/internal/product/events"
	"github.com/tair/eshoplite-products/internal/product/usecase/command"
	"github.com/tair/eshoplite-products/internal/product/usecase/query"
	"github.com/tair/eshoplite-products/pkg/logger"
	"github.com/tair/eshoplite-products/pkg/problem"
)

// BasePath is the route prefix of every product endpoint
const BasePath = "/api/Product"

// routePrefix matches BasePath ignoring case
const routePrefix = "/{prefix:(?i)api/product}"

// ProductHandler handles HTTP requests for products using CQRS pattern
type ProductHandler struct {
	// Command handlers
	createHandler *command.CreateProductHandler
	updateHandler *command.UpdateProductHandler
	deleteHandler *command.DeleteProductHandler

	// Query handlers
	getProductHandler *query.GetProductHandler
	listHandler       *query.ListProductsHandler
	searchHandler     *query.SearchProductsHandler

	validate       *validator.Validate
	requestCounter *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	totalProducts  prometheus.GaugeFunc
}

// NewProductHandler creates a new product handler with CQRS pattern (manual DI)
func NewProductHandler(repo domain.ProductRepository, publisher events.Publisher, registerer prometheus.Registerer) (*ProductHandler, error) {
	return NewProductHandlerWithDI(
		command.NewCreateProductHandler(repo, publisher),
		command.NewUpdateProductHandler(repo, publisher),
		command.NewDeleteProductHandler(repo, publisher),
		query.NewGetProductHandler(repo),
		query.NewListProductsHandler(repo),
		query.NewSearchProductsHandler(repo),
		repo,
		registerer,
	)
}

// NewProductHandlerWithDI creates a new product handler using dependency injection.
// This is used by Wire for automatic dependency injection.
func NewProductHandlerWithDI(
	createHandler *command.CreateProductHandler,
	updateHandler *command.UpdateProductHandler,
	deleteHandler *command.DeleteProductHandler,
	getProductHandler *query.GetProductHandler,
	listHandler *query.ListProductsHandler,
	searchHandler *query.SearchProductsHandler,
	repo domain.ProductRepository,
	registerer prometheus.Registerer,
) (*ProductHandler, error) {
	requestCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "product_service_requests_total",
			Help: "Total number of requests to product service",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "product_service_request_duration_seconds",
			Help:    "Duration of product service requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Counted on scrape so seeded and externally written rows are included
	totalProducts := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "product_service_total_products",
			Help: "Total number of products in the catalogue",
		},
		func() float64 { return countProducts(repo) },
	)

	for _, c := range []prometheus.Collector{requestCounter, requestLatency, totalProducts} {
		if err := registerer.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register product metrics: %w", err)
		}
	}

	return &ProductHandler{
		createHandler:     createHandler,
		updateHandler:     updateHandler,
		deleteHandler:     deleteHandler,
		getProductHandler: getProductHandler,
		listHandler:       listHandler,
		searchHandler:     searchHandler,
		validate:          newValidator(),
		requestCounter:    requestCounter,
		requestLatency:    requestLatency,
		totalProducts:     totalProducts,
	}, nil
}

// productRequest is the body of create and update calls
type productRequest struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name" validate:"required,max=200"`
	Description string  `json:"description" validate:"max=2000"`
	Price       float64 `json:"price" validate:"gte=0"`
	ImageURL    string  `json:"imageUrl" validate:"max=500"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report json field names in validation problems
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// metricsMiddleware wraps handlers with Prometheus metrics
func (h *ProductHandler) metricsMiddleware(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		h.requestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(rw.statusCode)).Inc()
		h.requestLatency.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// RegisterRoutes maps every product endpoint onto router. The prefix matches
// in any letter case, so /api/product and /API/PRODUCT reach the same routes.
func (h *ProductHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc(routePrefix, h.metricsMiddleware(BasePath, h.ListProducts)).Methods(http.MethodGet)
	router.HandleFunc(routePrefix+"/search/{search}", h.metricsMiddleware(BasePath+"/search/{search}", h.SearchProducts)).Methods(http.MethodGet)
	router.HandleFunc(routePrefix+"/{id:[0-9]+}", h.metricsMiddleware(BasePath+"/{id}", h.GetProduct)).Methods(http.MethodGet)
	router.HandleFunc(routePrefix, h.metricsMiddleware(BasePath, h.CreateProduct)).Methods(http.MethodPost)
	router.HandleFunc(routePrefix+"/{id:[0-9]+}", h.metricsMiddleware(BasePath+"/{id}", h.UpdateProduct)).Methods(http.MethodPut)
	router.HandleFunc(routePrefix+"/{id:[0-9]+}", h.metricsMiddleware(BasePath+"/{id}", h.DeleteProduct)).Methods(http.MethodDelete)
}

// ListProducts handles GET /api/Product
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := pageParams(w, r)
	if !ok {
		return
	}

	products, err := h.listHandler.Handle(r.Context(), query.ListProductsQuery{Limit: limit, Offset: offset})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, products)
}

// SearchProducts handles GET /api/Product/search/{search}
func (h *ProductHandler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := pageParams(w, r)
	if !ok {
		return
	}

	q := query.SearchProductsQuery{
		Term:   mux.Vars(r)["search"],
		Limit:  limit,
		Offset: offset,
	}
	products, err := h.searchHandler.Handle(r.Context(), q)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, products)
}

// GetProduct handles GET /api/Product/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	product, err := h.getProductHandler.Handle(r.Context(), query.GetProductQuery{ID: id})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

// CreateProduct handles POST /api/Product
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}

	product, err := h.createHandler.Handle(r.Context(), command.CreateProductCommand{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("%s/%d", BasePath, product.ID))
	respondJSON(w, http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/Product/{id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	req, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}
	if req.ID != 0 && req.ID != id {
		problem.Write(w, r, problem.Validation(map[string][]string{
			"id": {"body id does not match the route id"},
		}))
		return
	}

	product, err := h.updateHandler.Handle(r.Context(), command.UpdateProductCommand{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/Product/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	if err := h.deleteHandler.Handle(r.Context(), command.DeleteProductCommand{ID: id}); err != nil {
		h.respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// RegisterHealthCheck exposes /health backed by a database ping
func (h *ProductHandler) RegisterHealthCheck(router *mux.Router, db *sql.DB) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			logger.Warn(r.Context()).Err(err).Msg("Health check failed")
			problem.Respond(w, r, http.StatusServiceUnavailable, "Database unavailable")
			return
		}

		respondJSON(w, http.StatusOK, map[string]string{"status": "Healthy"})
	}).Methods(http.MethodGet)
}

// decodeProduct reads and validates a product body, answering 400 on failure
func (h *ProductHandler) decodeProduct(w http.ResponseWriter, r *http.Request) (*productRequest, bool) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Respond(w, r, http.StatusBadRequest, "Invalid request body")
		return nil, false
	}

	if err := h.validate.Struct(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string][]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = append(fields[fe.Field()], validationMessage(fe))
			}
			problem.Write(w, r, problem.Validation(fields))
			return nil, false
		}
		problem.Respond(w, r, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return &req, true
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed the %s rule", fe.Field(), fe.Tag())
	}
}

// respondError maps use case errors onto problem responses
func (h *ProductHandler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		problem.Write(w, r, problem.Validation(verr.Fields))
	case errors.Is(err, domain.ErrProductNotFound):
		problem.Respond(w, r, http.StatusNotFound, "Product not found")
	default:
		logger.Error(r.Context()).Err(err).Str("path", r.URL.Path).Msg("Product request failed")
		problem.Respond(w, r, http.StatusInternalServerError, "An error occurred while processing your request.")
	}
}

func countProducts(repo domain.ProductRepository) float64 {
	if repo == nil {
		return 0
	}
	count, err := repo.Count(context.Background())
	if err != nil {
		logger.Logger.Warn().Err(err).Msg("Failed to count products for metrics")
		return 0
	}
	return float64(count)
}

func productID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil || id == 0 {
		problem.Respond(w, r, http.StatusNotFound, "Product not found")
		return 0, false
	}
	return uint(id), true
}

func pageParams(w http.ResponseWriter, r *http.Request) (limit, offset int, ok bool) {
	q := r.URL.Query()
	parse := func(name string) (int, bool) {
		raw := q.Get(name)
		if raw == "" {
			return 0, true
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			problem.Write(w, r, problem.Validation(map[string][]string{
				name: {fmt.Sprintf("%s must be a non-negative integer", name)},
			}))
			return 0, false
		}
		return v, true
	}

	if limit, ok = parse("limit"); !ok {
		return 0, 0, false
	}
	if offset, ok = parse("offset"); !ok {
		return 0, 0, false
	}
	return limit, offset, true
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
