package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	auditdb "github.com/openroad/driveadmin/internal/database/audit"
)

// AuditController exposes the mutation audit trail, newest first.
type AuditController struct {
	repo     *auditdb.Repository
	pageSize int
}

func NewAuditController(repo *auditdb.Repository, pageSize int) *AuditController {
	return &AuditController{repo: repo, pageSize: pageSize}
}

// List handles GET /api/admin/audit. An optional entity_type query narrows
// the trail to one entity kind.
func (ctrl *AuditController) List(c *gin.Context) {
	page := parseIntQuery(c, "page", 1)
	pageSize := parseIntQuery(c, "page_size", ctrl.pageSize)
	if pageSize < 1 || pageSize > 100 {
		pageSize = ctrl.pageSize
	}

	events, total, err := ctrl.repo.ListEvents(page, pageSize, c.Query("entity_type"))
	if err != nil {
		respondInternalError(c, err, "list audit events")
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	c.JSON(http.StatusOK, DataResponse{
		Data: events,
		Meta: &ListMeta{
			Total:      total,
			Page:       page,
			PageSize:   pageSize,
			TotalPages: totalPages,
		},
	})
}
