package http

import (
	"net/http"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"github.com/swaggo/swag"

	"github.com/tair/eshoplite-products/internal/product/docs"
	"github.com/tair/eshoplite-products/pkg/problem"
)

// SchemaDocumentPath serves the API schema document
const SchemaDocumentPath = "/openapi/v1.json"

// RegisterSchemaRoutes exposes the API schema document and the Swagger UI.
// Callers only register these in development.
func RegisterSchemaRoutes(router *mux.Router) {
	router.HandleFunc(SchemaDocumentPath, func(w http.ResponseWriter, r *http.Request) {
		doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
		if err != nil {
			problem.Respond(w, r, http.StatusInternalServerError, "API schema unavailable")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(doc))
	}).Methods(http.MethodGet)

	// Swagger UI
	router.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.URL(SchemaDocumentPath),
	))
}

// ListProducts godoc
// @Summary List products
// @Description Get the product catalogue with optional pagination
// @Tags Product
// @Produce json
// @Param limit query int false "Limit"
// @Param offset query int false "Offset"
// @Success 200 {array} domain.Product
// @Failure 400 {object} problem.Details
// @Router /api/Product [get]
func (h *ProductHandler) ListProductsDoc() {}

// SearchProducts godoc
// @Summary Search products
// @Description Find products whose name contains the search term
// @Tags Product
// @Produce json
// @Param search path string true "Search term"
// @Success 200 {array} domain.Product
// @Router /api/Product/search/{search} [get]
func (h *ProductHandler) SearchProductsDoc() {}

// GetProduct godoc
// @Summary Get product by ID
// @Tags Product
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} domain.Product
// @Failure 404 {object} problem.Details
// @Router /api/Product/{id} [get]
func (h *ProductHandler) GetProductDoc() {}

// CreateProduct godoc
// @Summary Create a product
// @Tags Product
// @Accept json
// @Produce json
// @Param request body object{name=string,description=string,price=number,imageUrl=string} true "Product data"
// @Success 201 {object} domain.Product
// @Failure 400 {object} problem.Details
// @Router /api/Product [post]
func (h *ProductHandler) CreateProductDoc() {}

// UpdateProduct godoc
// @Summary Update a product
// @Tags Product
// @Accept json
// @Produce json
// @Param id path int true "Product ID"
// @Param request body object{name=string,description=string,price=number,imageUrl=string} true "Product data"
// @Success 200 {object} domain.Product
// @Failure 400 {object} problem.Details
// @Failure 404 {object} problem.Details
// @Router /api/Product/{id} [put]
func (h *ProductHandler) UpdateProductDoc() {}

// DeleteProduct godoc
// @Summary Delete a product
// @Tags Product
// @Param id path int true "Product ID"
// @Success 200
// @Failure 404 {object} problem.Details
// @Router /api/Product/{id} [delete]
func (h *ProductHandler) DeleteProductDoc() {}

// HealthCheck godoc
// @Summary Health check
// @Description Check service health and database connectivity
// @Tags Health
// @Produce json
// @Success 200 {object} object{status=string}
// @Failure 503 {object} problem.Details
// @Router /health [get]
func (h *ProductHandler) HealthCheckDoc() {}
