package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openroad/driveadmin/internal/audit"
	"github.com/openroad/driveadmin/internal/database/records"
	"github.com/openroad/driveadmin/internal/protect"
	"github.com/openroad/driveadmin/internal/query"
	"github.com/openroad/driveadmin/internal/schema"
)

// RecordsController serves the generic database-interface endpoints: one set
// of handlers covers every registered entity kind.
type RecordsController struct {
	repo    *records.Repository
	engine  *query.Engine
	policy  *protect.Policy
	auditor *audit.Service
}

func NewRecordsController(repo *records.Repository, engine *query.Engine, policy *protect.Policy, auditor *audit.Service) *RecordsController {
	return &RecordsController{
		repo:    repo,
		engine:  engine,
		policy:  policy,
		auditor: auditor,
	}
}

// parseEntity resolves the :entity path segment against the registry.
// Unknown names get a 404, like an unknown id would.
func (ctrl *RecordsController) parseEntity(c *gin.Context) (schema.EntityType, bool) {
	t, ok := ctrl.repo.Registry().Parse(c.Param("entity"))
	if !ok {
		respondNotFound(c, "entity type")
		return "", false
	}
	return t, true
}

// List handles GET /api/admin/:entity.
func (ctrl *RecordsController) List(c *gin.Context) {
	entity, ok := ctrl.parseEntity(c)
	if !ok {
		return
	}

	q := query.Query{
		Search:   c.Query("search"),
		Sort:     c.Query("sort"),
		Page:     parseIntQuery(c, "page", 1),
		PageSize: parseIntQuery(c, "page_size", 0),
	}

	// filter[field]=v is equality, min[field]/max[field] are range bounds.
	// Unknown fields are dropped by the engine rather than rejected.
	for field, value := range c.QueryMap("filter") {
		q.Filters = append(q.Filters, query.Filter{Field: field, Op: query.OpEq, Value: value})
	}
	for field, value := range c.QueryMap("min") {
		q.Filters = append(q.Filters, query.Filter{Field: field, Op: query.OpGte, Value: value})
	}
	for field, value := range c.QueryMap("max") {
		q.Filters = append(q.Filters, query.Filter{Field: field, Op: query.OpLte, Value: value})
	}

	result, err := ctrl.engine.List(entity, q)
	if err != nil {
		respondInternalError(c, err, "list "+string(entity))
		return
	}

	c.JSON(http.StatusOK, DataResponse{
		Data: result.Records,
		Meta: &ListMeta{
			Total:      result.Total,
			Page:       result.Page,
			PageSize:   result.PageSize,
			TotalPages: result.TotalPages,
		},
	})
}

// Get handles GET /api/admin/:entity/:id.
func (ctrl *RecordsController) Get(c *gin.Context) {
	entity, ok := ctrl.parseEntity(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	rec, token, err := ctrl.repo.Get(entity, id)
	if err != nil {
		if errors.Is(err, records.ErrNotFound) {
			respondNotFound(c, "record")
			return
		}
		respondInternalError(c, err, "get "+string(entity))
		return
	}

	c.Header("ETag", token)
	c.JSON(http.StatusOK, DataResponse{Data: rec, Meta: &Meta{ETag: token}})
}

// Create handles POST /api/admin/:entity.
func (ctrl *RecordsController) Create(c *gin.Context) {
	entity, ok := ctrl.parseEntity(c)
	if !ok {
		return
	}

	var fields schema.Record
	if err := c.ShouldBindJSON(&fields); err != nil {
		respondBadRequest(c, "malformed request body")
		return
	}

	rec, token, err := ctrl.repo.Create(entity, fields)
	if err != nil {
		var validation *records.ValidationError
		if errors.As(err, &validation) {
			respondBadRequest(c, validation.Error())
			return
		}
		respondInternalError(c, err, "create "+string(entity))
		return
	}

	c.Header("ETag", token)
	c.JSON(http.StatusCreated, DataResponse{Data: rec, Meta: &Meta{ETag: token}})
}

// Update handles PATCH /api/admin/:entity/:id. The version token arrives in
// the If-Match header; a missing or stale token yields 409 with the current
// record so the caller can retry informed.
func (ctrl *RecordsController) Update(c *gin.Context) {
	entity, ok := ctrl.parseEntity(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var changes schema.Record
	if err := c.ShouldBindJSON(&changes); err != nil {
		respondBadRequest(c, "malformed request body")
		return
	}

	// Protection runs before any token comparison: probing a protected
	// record with tokens must not reveal whether they are current.
	current, _, err := ctrl.repo.Get(entity, id)
	if err != nil {
		if errors.Is(err, records.ErrNotFound) {
			respondNotFound(c, "record")
			return
		}
		respondInternalError(c, err, "get "+string(entity))
		return
	}
	if err := ctrl.policy.CheckUpdate(entity, current, changes); err != nil {
		respondProtected(c)
		return
	}

	rec, token, err := ctrl.repo.ConditionalUpdate(entity, id, c.GetHeader("If-Match"), changes)
	if err != nil {
		ctrl.auditor.LogUpdate(GetActorID(c), entity, id, fieldNames(changes), err)
		ctrl.respondMutationError(c, err)
		return
	}

	ctrl.auditor.LogUpdate(GetActorID(c), entity, id, fieldNames(changes), nil)
	c.Header("ETag", token)
	c.JSON(http.StatusOK, DataResponse{Data: rec, Meta: &Meta{ETag: token}})
}

// Delete handles DELETE /api/admin/:entity/:id.
func (ctrl *RecordsController) Delete(c *gin.Context) {
	entity, ok := ctrl.parseEntity(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	current, _, err := ctrl.repo.Get(entity, id)
	if err != nil {
		if errors.Is(err, records.ErrNotFound) {
			respondNotFound(c, "record")
			return
		}
		respondInternalError(c, err, "get "+string(entity))
		return
	}
	if err := ctrl.policy.CheckDelete(entity, current); err != nil {
		respondProtected(c)
		return
	}

	if err := ctrl.repo.ConditionalDelete(entity, id, c.GetHeader("If-Match")); err != nil {
		ctrl.auditor.LogDelete(GetActorID(c), entity, id, err)
		ctrl.respondMutationError(c, err)
		return
	}

	ctrl.auditor.LogDelete(GetActorID(c), entity, id, nil)
	c.JSON(http.StatusOK, gin.H{"message": "record deleted"})
}

// respondMutationError maps store-level mutation failures onto the wire.
func (ctrl *RecordsController) respondMutationError(c *gin.Context, err error) {
	var conflict *records.ConflictError
	var validation *records.ValidationError
	switch {
	case errors.As(err, &conflict):
		c.Header("ETag", conflict.ETag)
		c.JSON(http.StatusConflict, DataResponse{
			Data: conflict.Current,
			Meta: &Meta{ETag: conflict.ETag},
		})
	case errors.As(err, &validation):
		respondBadRequest(c, validation.Error())
	case errors.Is(err, records.ErrNotFound):
		respondNotFound(c, "record")
	default:
		respondInternalError(c, err, "mutate record")
	}
}

func fieldNames(changes schema.Record) []string {
	names := make([]string, 0, len(changes))
	for name := range changes {
		names = append(names, name)
	}
	return names
}
