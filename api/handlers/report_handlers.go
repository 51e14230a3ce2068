package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"example.com/backstage/services/inventory/api/apierr"
	"example.com/backstage/services/inventory/internal/report"
	"example.com/backstage/services/inventory/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ReportHandler serves the summary and the CSV exports
type ReportHandler struct {
	service service.Service
	log     *logrus.Logger
}

// NewReportHandler creates a new ReportHandler instance
func NewReportHandler(svc service.Service, log *logrus.Logger) *ReportHandler {
	return &ReportHandler{
		service: svc,
		log:     log,
	}
}

// Summary returns delivered and returned totals per supermarket
func (h *ReportHandler) Summary(c *gin.Context) {
	filter, err := listFilter(c)
	if err != nil {
		apierr.Write(c, h.log, err)
		return
	}

	summary, err := h.service.Summary(c.Request.Context(), filter)
	if err != nil {
		apierr.Write(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Export streams deliveries.csv or returns.csv
func (h *ReportHandler) Export(c *gin.Context) {
	kind, err := report.ParseKind(strings.TrimSuffix(c.Param("file"), ".csv"))
	if err != nil {
		apierr.Write(c, h.log, err)
		return
	}
	filter, err := listFilter(c)
	if err != nil {
		apierr.Write(c, h.log, err)
		return
	}

	var buf bytes.Buffer
	if err := h.service.ExportCSV(c.Request.Context(), kind, filter, &buf); err != nil {
		apierr.Write(c, h.log, err)
		return
	}

	filename := fmt.Sprintf("%s_%s.csv", kind, time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
