package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openroad/driveadmin/internal/audit"
	"github.com/openroad/driveadmin/internal/bulk"
	"github.com/openroad/driveadmin/internal/database/records"
	"github.com/openroad/driveadmin/internal/schema"
)

// BulkController handles multi-record mutations.
type BulkController struct {
	coordinator *bulk.Coordinator
	registry    *schema.Registry
	auditor     *audit.Service
}

func NewBulkController(coordinator *bulk.Coordinator, registry *schema.Registry, auditor *audit.Service) *BulkController {
	return &BulkController{
		coordinator: coordinator,
		registry:    registry,
		auditor:     auditor,
	}
}

type bulkUpdateRequest struct {
	IDs   []int64 `json:"ids"`
	Field string  `json:"field"`
	Value any     `json:"value"`
}

// Update handles POST /api/admin/:entity/bulk. The response is 200 even when
// some records failed: per-record outcomes are in the body, and the request
// as a whole only fails on malformed input.
func (ctrl *BulkController) Update(c *gin.Context) {
	entity, ok := ctrl.registry.Parse(c.Param("entity"))
	if !ok {
		respondNotFound(c, "entity type")
		return
	}

	var body bulkUpdateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "malformed request body")
		return
	}

	result, err := ctrl.coordinator.BulkUpdate(c.Request.Context(), bulk.Request{
		Entity: entity,
		IDs:    body.IDs,
		Field:  body.Field,
		Value:  body.Value,
	})
	if err != nil {
		var validation *records.ValidationError
		switch {
		case errors.As(err, &validation):
			respondBadRequest(c, validation.Error())
		case errors.Is(err, records.ErrUnknownEntity):
			respondNotFound(c, "entity type")
		default:
			respondInternalError(c, err, "bulk update "+string(entity))
		}
		return
	}

	ctrl.auditor.LogBulkUpdate(GetActorID(c), entity, body.Field, len(result.Succeeded), len(result.Failed))
	c.JSON(http.StatusOK, DataResponse{Data: result})
}
