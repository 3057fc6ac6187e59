package http

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/openroad/driveadmin/internal/auth"
)

// GetActorID extracts the authenticated administrator's account id from the
// Gin context. Returns 0 when auth is disabled.
func GetActorID(c *gin.Context) int64 {
	return auth.GetActorID(c)
}

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`    // machine-readable error code
	Details any    `json:"details,omitempty"` // additional context (current record on conflicts, etc.)
}

// Meta carries single-record metadata: the record's version token.
type Meta struct {
	ETag string `json:"etag"`
}

// ListMeta carries pagination metadata. A zero total is a real answer for an
// empty result set, so none of these fields are omitted.
type ListMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// DataResponse is the standard success envelope: payload plus metadata.
type DataResponse struct {
	Data any `json:"data"`
	Meta any `json:"meta,omitempty"`
}

// --- Error Response Helpers ---

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Code: "validation"})
}

// respondNotFound sends a 404 Not Found response.
func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found", Code: "not_found"})
}

// respondProtected sends a 403 for destructive operations against protected
// records. Distinct from validation errors on purpose.
func respondProtected(c *gin.Context) {
	c.JSON(http.StatusForbidden, ErrorResponse{Error: "record is protected", Code: "protected"})
}

// respondInternalError logs the error and sends a 500 response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Printf("Internal error (%s): %v", context, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// --- Parameter Parsing ---

// parseIDParam extracts and validates an integer ID from URL parameters.
// Responds with a 400 error and returns ok=false on bad input.
func parseIDParam(c *gin.Context, paramName string) (int64, bool) {
	idStr := c.Param(paramName)
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id < 1 {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return id, true
}

// parseIntQuery reads an optional positive integer query parameter, falling
// back to def when absent or malformed.
func parseIntQuery(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return n
}
