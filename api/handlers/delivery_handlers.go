package handlers

import (
	"net/http"

	"example.com/backstage/services/inventory/api/apierr"
	"example.com/backstage/services/inventory/internal/aggregate"
	"example.com/backstage/services/inventory/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// DeliveryHandler handles delivery and return requests
type DeliveryHandler struct {
	service service.Service
	log     *logrus.Logger
}

// NewDeliveryHandler creates a new DeliveryHandler instance
func NewDeliveryHandler(svc service.Service, log *logrus.Logger) *DeliveryHandler {
	return &DeliveryHandler{
		service: svc,
		log:     log,
	}
}

// StatusRequest is the body of a delivery status change
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// CreateDelivery records a delivery with its items in one transaction
func (h *DeliveryHandler) CreateDelivery(c *gin.Context) {
	var req aggregate.DeliveryRequest
	if !bindJSON(c, h.log, &req) {
		return
	}

	delivery, err := h.service.CreateDelivery(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		apierr.Write(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, delivery)
}

// ListDeliveries returns deliveries newest first
func (h *DeliveryHandler) ListDeliveries(c *gin.Context) {
	filter, err := listFilter(c)
	if err != nil {
		apierr.Write(c, h.log, err)
		return
	}

	deliveries, err := h.service.ListDeliveries(c.Request.Context(), filter)
	if err != nil {
		apierr.Write(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, deliveries)
}

func (h *DeliveryHandler) GetDelivery(c *gin.Context) {
	id, ok := parseID(c, h.log, "id")
	if !ok {
		return
	}

	delivery, err := h.service.GetDelivery(c.Request.Context(), id)
	if err != nil {
		apierr.Write(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, delivery)
}

// UpdateDelivery replaces the header and the full item set
func (h *DeliveryHandler) UpdateDelivery(c *gin.Context) {
	id, ok := parseID(c, h.log, "id")
	if !ok {
		return
	}
	var req aggregate.DeliveryRequest
	if !bindJSON(c, h.log, &req) {
		return
	}

	delivery, err := h.service.UpdateDelivery(c.Request.Context(), id, req)
	if err != nil {
		apierr.Write(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, delivery)
}

// UpdateDeliveryStatus handles delivery status updates
func (h *DeliveryHandler) UpdateDeliveryStatus(c *gin.Context) {
	id, ok := parseID(c, h.log, "id")
	if !ok {
		return
	}
	var req StatusRequest
	if !bindJSON(c, h.log, &req) {
		return
	}

	delivery, err := h.service.UpdateDeliveryStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		apierr.Write(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, delivery)
}

func (h *DeliveryHandler) DeleteDelivery(c *gin.Context) {
	id, ok := parseID(c, h.log, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteDelivery(c.Request.Context(), id); err != nil {
		apierr.Write(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateReturn records a return with its items in one transaction
func (h *DeliveryHandler) CreateReturn(c *gin.Context) {
	var req aggregate.ReturnRequest
	if !bindJSON(c, h.log, &req) {
		return
	}

	ret, err := h.service.CreateReturn(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		apierr.Write(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, ret)
}

// ListReturns returns returns newest first
func (h *DeliveryHandler) ListReturns(c *gin.Context) {
	filter, err := listFilter(c)
	if err != nil {
		apierr.Write(c, h.log, err)
		return
	}

	returns, err := h.service.ListReturns(c.Request.Context(), filter)
	if err != nil {
		apierr.Write(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, returns)
}

func (h *DeliveryHandler) GetReturn(c *gin.Context) {
	id, ok := parseID(c, h.log, "id")
	if !ok {
		return
	}

	ret, err := h.service.GetReturn(c.Request.Context(), id)
	if err != nil {
		apierr.Write(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, ret)
}

func (h *DeliveryHandler) UpdateReturn(c *gin.Context) {
	id, ok := parseID(c, h.log, "id")
	if !ok {
		return
	}
	var req aggregate.ReturnRequest
	if !bindJSON(c, h.log, &req) {
		return
	}

	ret, err := h.service.UpdateReturn(c.Request.Context(), id, req)
	if err != nil {
		apierr.Write(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, ret)
}

func (h *DeliveryHandler) DeleteReturn(c *gin.Context) {
	id, ok := parseID(c, h.log, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteReturn(c.Request.Context(), id); err != nil {
		apierr.Write(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
