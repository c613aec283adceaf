package http

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarium/internal/database"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ListResponse wraps paginated data with its pagination block.
type ListResponse struct {
	Data       any                 `json:"data"`
	Pagination database.Pagination `json:"pagination"`
}

// --- Error Response Helpers ---

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

// respondNotFound sends a 404 Not Found response.
func respondNotFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: message})
}

// respondConflict sends a 409 Conflict response.
func respondConflict(c *gin.Context, message string) {
	c.JSON(http.StatusConflict, ErrorResponse{Error: message})
}

// respondInternalError logs the error and sends a 500 without leaking
// internals to the caller.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Printf("Internal error (%s): %v", context, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// --- Success Response Helpers ---

// respondSuccess sends a 200 OK response with a message.
func respondSuccess(c *gin.Context, message string) {
	c.JSON(http.StatusOK, SuccessResponse{Message: message})
}

// respondCreated sends a 201 Created response with data.
func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// --- Parameter Parsing ---

// parseIDParam extracts and validates an unsigned integer ID from URL
// parameters. Responds with 400 and returns false on failure.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	idStr := c.Param(paramName)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return uint(id), true
}

// parsePageParams reads page/limit/sort/order from the query string. Missing
// values fall back to defaults; non-numeric page or limit is a 400.
func parsePageParams(c *gin.Context) (database.PageParams, bool) {
	params := database.PageParams{
		Page:  1,
		Limit: database.DefaultPageSize,
		Sort:  c.Query("sort"),
		Order: c.Query("order"),
	}

	if pageStr := c.Query("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil || page < 1 {
			respondBadRequest(c, "invalid page parameter")
			return params, false
		}
		params.Page = page
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			respondBadRequest(c, "invalid limit parameter")
			return params, false
		}
		params.Limit = limit
	}

	return params, true
}

// parseCategoryIDs reads the repeatable category query parameter.
func parseCategoryIDs(c *gin.Context) ([]uint, bool) {
	values := c.QueryArray("category")
	if len(values) == 0 {
		return nil, true
	}

	ids := make([]uint, 0, len(values))
	for _, v := range values {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			respondBadRequest(c, "invalid category parameter")
			return nil, false
		}
		ids = append(ids, uint(id))
	}
	return ids, true
}
