package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarium/internal/database/categories"
)

// CategoriesController serves category management.
type CategoriesController struct {
	store CategoryStore
}

// NewCategoriesController creates the categories controller.
func NewCategoriesController(store CategoryStore) *CategoriesController {
	return &CategoriesController{store: store}
}

type categoryRequest struct {
	Name string `json:"name" binding:"required"`
}

// List returns all categories.
func (ctrl *CategoriesController) List(c *gin.Context) {
	all, err := ctrl.store.GetAll()
	if err != nil {
		respondInternalError(c, err, "list categories")
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": all, "count": len(all)})
}

// Create adds a category.
func (ctrl *CategoriesController) Create(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "name is required")
		return
	}

	category, err := ctrl.store.Create(req.Name)
	if err != nil {
		if errors.Is(err, categories.ErrNameTaken) {
			respondConflict(c, err.Error())
			return
		}
		respondInternalError(c, err, "create category")
		return
	}

	respondCreated(c, category)
}

// Delete removes a category and detaches it from its books.
func (ctrl *CategoriesController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.store.Delete(id); err != nil {
		if errors.Is(err, categories.ErrCategoryNotFound) {
			respondNotFound(c, "category not found")
			return
		}
		respondInternalError(c, err, "delete category")
		return
	}

	respondSuccess(c, "category deleted")
}
