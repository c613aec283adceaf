package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarium/internal/database/books"
	"github.com/mrlokans/librarium/internal/entities"
)

// BooksController serves catalogue CRUD.
type BooksController struct {
	store BookStore
}

// NewBooksController creates the books controller.
func NewBooksController(store BookStore) *BooksController {
	return &BooksController{store: store}
}

type bookRequest struct {
	Title       string `json:"title" binding:"required"`
	Author      string `json:"author" binding:"required"`
	ISBN        string `json:"isbn"`
	CategoryIDs []uint `json:"category_ids"`
}

// List returns a filtered, paginated page of books.
//
//	GET /api/books?page=&limit=&search=&category=&sort=&order=
func (ctrl *BooksController) List(c *gin.Context) {
	params, ok := parsePageParams(c)
	if !ok {
		return
	}
	categoryIDs, ok := parseCategoryIDs(c)
	if !ok {
		return
	}

	bookRows, pagination, err := ctrl.store.List(params, c.Query("search"), categoryIDs)
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}

	c.JSON(http.StatusOK, ListResponse{Data: bookRows, Pagination: pagination})
}

// Get returns a single book.
func (ctrl *BooksController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := ctrl.store.GetByID(id)
	if err != nil {
		if errors.Is(err, books.ErrBookNotFound) {
			respondNotFound(c, "book not found")
			return
		}
		respondInternalError(c, err, "get book")
		return
	}

	c.JSON(http.StatusOK, book)
}

// Create adds a book to the catalogue. New books start available.
func (ctrl *BooksController) Create(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "title and author are required")
		return
	}

	book := &entities.Book{
		Title:  req.Title,
		Author: req.Author,
		ISBN:   req.ISBN,
	}
	if err := ctrl.store.Create(book, req.CategoryIDs); err != nil {
		respondInternalError(c, err, "create book")
		return
	}

	respondCreated(c, book)
}

// Update modifies a book's descriptive fields.
func (ctrl *BooksController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "title and author are required")
		return
	}

	book, err := ctrl.store.Update(id, req.Title, req.Author, req.ISBN, req.CategoryIDs)
	if err != nil {
		if errors.Is(err, books.ErrBookNotFound) {
			respondNotFound(c, "book not found")
			return
		}
		respondInternalError(c, err, "update book")
		return
	}

	c.JSON(http.StatusOK, book)
}

// Delete removes a book without an open loan.
func (ctrl *BooksController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.store.Delete(id); err != nil {
		if errors.Is(err, books.ErrBookNotFound) {
			respondNotFound(c, "book not found")
			return
		}
		respondBadRequest(c, err.Error())
		return
	}

	respondSuccess(c, "book deleted")
}
