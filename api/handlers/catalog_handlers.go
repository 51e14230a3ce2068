package handlers

import (
	"net/http"

	"example.com/backstage/services/inventory/api/apierr"
	"example.com/backstage/services/inventory/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// CatalogHandler handles supermarket, subchain and product requests
type CatalogHandler struct {
	service service.Service
	log     *logrus.Logger
}

// NewCatalogHandler creates a new CatalogHandler instance
func NewCatalogHandler(svc service.Service, log *logrus.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: svc,
		log:     log,
	}
}

// CreateSupermarket handles supermarket creation
func (h *CatalogHandler) CreateSupermarket(c *gin.Context) {
	var in service.SupermarketInput
	if !bindJSON(c, h.log, &in) {
		return
	}

	supermarket, err := h.service.CreateSupermarket(c.Request.Context(), in)
	if err != nil {
		apierr.Write(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, supermarket)
}

// ListSupermarkets handles listing all supermarkets
func (h *CatalogHandler) ListSupermarkets(c *gin.Context) {
	supermarkets, err := h.service.ListSupermarkets(c.Request.Context())
	if err != nil {
		apierr.Write(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, supermarkets)
}

// GetSupermarket handles supermarket retrieval
func (h *CatalogHandler) GetSupermarket(c *gin.Context) {
	id, ok := parseID(c, h.log, "id")
	if !ok {
		return
	}

	supermarket, err := h.service.GetSupermarket(c.Request.Context(), id)
	if err != nil {
		apierr.Write(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, supermarket)
}

// UpdateSupermarket handles supermarket updates
func (h *CatalogHandler) UpdateSupermarket(c *gin.Context) {
	id, ok := parseID(c, h.log, "id")
	if !ok {
		return
	}
	var in service.SupermarketInput
	if !bindJSON(c, h.log, &in) {
		return
	}

	supermarket, err := h.service.UpdateSupermarket(c.Request.Context(), id, in)
	if err != nil {
		apierr.Write(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, supermarket)
}

// DeleteSupermarket removes a supermarket according to the deletion policy
func (h *CatalogHandler) DeleteSupermarket(c *gin.Context) {
	id, ok := parseID(c, h.log, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteSupermarket(c.Request.Context(), id); err != nil {
		apierr.Write(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListSubchains returns the subchains of one supermarket
func (h *CatalogHandler) ListSubchains(c *gin.Context) {
	id, ok := parseID(c, h.log, "id")
	if !ok {
		return
	}

	subchains, err := h.service.ListSubchains(c.Request.Context(), id)
	if err != nil {
		apierr.Write(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, subchains)
}

// CreateSubchain adds a subchain to the supermarket in the path
func (h *CatalogHandler) CreateSubchain(c *gin.Context) {
	supermarketID, ok := parseID(c, h.log, "id")
	if !ok {
		return
	}
	var in service.SubchainInput
	if !bindJSON(c, h.log, &in) {
		return
	}

	subchain, err := h.service.CreateSubchain(c.Request.Context(), supermarketID, in)
	if err != nil {
		apierr.Write(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, subchain)
}

func (h *CatalogHandler) GetSubchain(c *gin.Context) {
	id, ok := parseID(c, h.log, "id")
	if !ok {
		return
	}

	subchain, err := h.service.GetSubchain(c.Request.Context(), id)
	if err != nil {
		apierr.Write(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, subchain)
}

func (h *CatalogHandler) UpdateSubchain(c *gin.Context) {
	id, ok := parseID(c, h.log, "id")
	if !ok {
		return
	}
	var in service.SubchainInput
	if !bindJSON(c, h.log, &in) {
		return
	}

	subchain, err := h.service.UpdateSubchain(c.Request.Context(), id, in)
	if err != nil {
		apierr.Write(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, subchain)
}

func (h *CatalogHandler) DeleteSubchain(c *gin.Context) {
	id, ok := parseID(c, h.log, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteSubchain(c.Request.Context(), id); err != nil {
		apierr.Write(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateProduct handles product creation
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var in service.ProductInput
	if !bindJSON(c, h.log, &in) {
		return
	}

	product, err := h.service.CreateProduct(c.Request.Context(), in)
	if err != nil {
		apierr.Write(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// ListProducts returns every product with its current price
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	products, err := h.service.ListProducts(c.Request.Context())
	if err != nil {
		apierr.Write(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, ok := parseID(c, h.log, "id")
	if !ok {
		return
	}

	product, err := h.service.GetProduct(c.Request.Context(), id)
	if err != nil {
		apierr.Write(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// UpdateProduct changes the catalog entry. Recorded line items keep their price.
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c, h.log, "id")
	if !ok {
		return
	}
	var in service.ProductInput
	if !bindJSON(c, h.log, &in) {
		return
	}

	product, err := h.service.UpdateProduct(c.Request.Context(), id, in)
	if err != nil {
		apierr.Write(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// DeleteProduct refuses while any delivery or return references the product
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c, h.log, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteProduct(c.Request.Context(), id); err != nil {
		apierr.Write(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
