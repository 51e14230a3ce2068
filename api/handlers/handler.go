package handlers

import (
	"strconv"

	"example.com/backstage/services/inventory/api/apierr"
	"example.com/backstage/services/inventory/api/middleware"
	"example.com/backstage/services/inventory/internal/aggregate"
	"example.com/backstage/services/inventory/internal/repository"
	"example.com/backstage/services/inventory/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const maxPageSize = 500

// parseID reads a positive numeric path parameter. On failure the response is written.
func parseID(c *gin.Context, log *logrus.Logger, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		apierr.Write(c, log, apierr.NewValidationError("Invalid "+name))
		return 0, false
	}
	return uint(id), true
}

// bindJSON decodes the request body into dst. On failure the response is written.
func bindJSON(c *gin.Context, log *logrus.Logger, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		log.WithError(err).WithField("path", c.FullPath()).Warn("Invalid request body")
		apierr.Write(c, log, apierr.NewError("Invalid request body", apierr.ErrInvalidRequest.StatusCode, apierr.ErrInvalidRequest.Code))
		return false
	}
	return true
}

// listFilter reads from, to, supermarket_id, limit and offset query parameters
func listFilter(c *gin.Context) (repository.ListFilter, error) {
	var filter repository.ListFilter

	if raw := c.Query("from"); raw != "" {
		from, err := aggregate.ParseDate(raw)
		if err != nil {
			return filter, apierr.NewValidationError("from must be formatted as YYYY-MM-DD")
		}
		filter.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := aggregate.ParseDate(raw)
		if err != nil {
			return filter, apierr.NewValidationError("to must be formatted as YYYY-MM-DD")
		}
		filter.To = &to
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return filter, apierr.NewValidationError("to must not be before from")
	}

	var err error
	if filter.SupermarketID, err = uintQuery(c, "supermarket_id"); err != nil {
		return filter, err
	}
	limit, err := uintQuery(c, "limit")
	if err != nil {
		return filter, err
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset, err := uintQuery(c, "offset")
	if err != nil {
		return filter, err
	}
	filter.Limit, filter.Offset = int(limit), int(offset)
	return filter, nil
}

func uintQuery(c *gin.Context, name string) (uint, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, apierr.NewValidationError(name + " must be a non-negative integer")
	}
	return uint(v), nil
}

func requestMeta(c *gin.Context) service.RequestMeta {
	return service.RequestMeta{
		ClientIP:  middleware.ClientIP(c),
		UserAgent: c.Request.UserAgent(),
	}
}

// currentUserID returns the authenticated user id, 0 when the route is public
func currentUserID(c *gin.Context) uint {
	if user, ok := middleware.CurrentUser(c); ok {
		return user.ID
	}
	return 0
}
