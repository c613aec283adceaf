package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarium/internal/covers"
	"github.com/mrlokans/librarium/internal/database/books"
)

// CoversController serves upload and retrieval of book cover images.
type CoversController struct {
	storage *covers.Storage
	store   BookStore
}

// NewCoversController creates the covers controller.
func NewCoversController(storage *covers.Storage, store BookStore) *CoversController {
	return &CoversController{storage: storage, store: store}
}

// Upload stores a cover image for the book.
//
//	POST /api/books/:id/cover (multipart field "cover")
func (ctrl *CoversController) Upload(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if _, err := ctrl.store.GetByID(id); err != nil {
		if errors.Is(err, books.ErrBookNotFound) {
			respondNotFound(c, "book not found")
			return
		}
		respondInternalError(c, err, "upload cover")
		return
	}

	header, err := c.FormFile("cover")
	if err != nil {
		respondBadRequest(c, "cover file is required")
		return
	}

	name, err := ctrl.storage.Save(id, header)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	if err := ctrl.store.SetCoverPath(id, name); err != nil {
		respondInternalError(c, err, "store cover path")
		return
	}

	c.JSON(http.StatusOK, gin.H{"cover_path": name})
}

// Get streams the stored cover image.
//
//	GET /api/books/:id/cover
func (ctrl *CoversController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := ctrl.store.GetByID(id)
	if err != nil {
		respondNotFound(c, "book not found")
		return
	}

	if !ctrl.storage.Exists(book.CoverPath) {
		respondNotFound(c, "cover not found")
		return
	}

	c.File(ctrl.storage.Path(book.CoverPath))
}
