package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/librarium/internal/auth"
	"github.com/mrlokans/librarium/internal/config"
	"github.com/mrlokans/librarium/internal/database"
	"github.com/mrlokans/librarium/internal/database/books"
	"github.com/mrlokans/librarium/internal/database/categories"
	"github.com/mrlokans/librarium/internal/database/loans"
	"github.com/mrlokans/librarium/internal/database/members"
	"github.com/mrlokans/librarium/internal/entities"
)

type testApp struct {
	router *gin.Engine
	db     *database.Database
}

func setupTestApp(t *testing.T) (*testApp, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbPath := "./test_api_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)

	authCfg := config.Auth{Mode: config.AuthModeNone}

	router := NewRouter(RouterConfig{
		Database:       db,
		LoanStore:      loans.NewRepository(db.DB, 14),
		BookStore:      books.NewRepository(db.DB),
		MemberStore:    members.NewRepository(db.DB),
		CategoryStore:  categories.NewRepository(db.DB),
		AuthMiddleware: auth.NewMiddleware(nil, nil, authCfg),
		Version:        "test",
	})

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}

	return &testApp{router: router, db: db}, cleanup
}

func (app *testApp) request(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	return w
}

func (app *testApp) createBook(t *testing.T, title string) *entities.Book {
	t.Helper()
	book := &entities.Book{Title: title, Author: "Author", ISBN: "isbn-" + title, Available: true}
	require.NoError(t, app.db.DB.Create(book).Error)
	return book
}

func (app *testApp) createMember(t *testing.T, name string) *entities.Member {
	t.Helper()
	member := &entities.Member{Name: name, Email: name + "@example.com"}
	require.NoError(t, app.db.DB.Create(member).Error)
	return member
}

func TestBorrowEndpoint(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()

	book := app.createBook(t, "Dune")
	member := app.createMember(t, "alice")

	w := app.request(t, "POST", "/api/loans/borrow", gin.H{
		"book_id":   book.ID,
		"member_id": member.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var loan LoanView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loan))
	assert.Equal(t, book.ID, loan.BookID)
	assert.Equal(t, member.ID, loan.MemberID)
	assert.Equal(t, entities.LoanStatusActive, loan.Status)
	assert.Equal(t, "Dune", loan.Book.Title)
}

func TestBorrowEndpoint_Errors(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()

	book := app.createBook(t, "Dune")
	alice := app.createMember(t, "alice")
	bob := app.createMember(t, "bob")

	// Missing fields
	w := app.request(t, "POST", "/api/loans/borrow", gin.H{"book_id": book.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown book
	w = app.request(t, "POST", "/api/loans/borrow", gin.H{"book_id": 9999, "member_id": alice.ID})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Unknown member
	w = app.request(t, "POST", "/api/loans/borrow", gin.H{"book_id": book.ID, "member_id": 9999})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Second borrow conflicts
	w = app.request(t, "POST", "/api/loans/borrow", gin.H{"book_id": book.ID, "member_id": alice.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	w = app.request(t, "POST", "/api/loans/borrow", gin.H{"book_id": book.ID, "member_id": bob.ID})
	assert.Equal(t, http.StatusConflict, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "book is not available", resp.Error)
}

func TestReturnEndpoint(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()

	book := app.createBook(t, "Dune")
	member := app.createMember(t, "alice")

	// Return without a loan
	w := app.request(t, "POST", "/api/loans/return", gin.H{"book_id": book.ID})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.request(t, "POST", "/api/loans/borrow", gin.H{"book_id": book.ID, "member_id": member.ID})
	require.Equal(t, http.StatusCreated, w.Code)

	w = app.request(t, "POST", "/api/loans/return", gin.H{"book_id": book.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp SuccessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "book returned", resp.Message)

	// Double return
	w = app.request(t, "POST", "/api/loans/return", gin.H{"book_id": book.ID})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListLoansEndpoint(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()

	member := app.createMember(t, "alice")
	for i := 0; i < 3; i++ {
		book := app.createBook(t, fmt.Sprintf("Book %d", i))
		w := app.request(t, "POST", "/api/loans/borrow", gin.H{"book_id": book.ID, "member_id": member.ID})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := app.request(t, "GET", "/api/loans?page=1&limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data       []LoanView          `json:"data"`
		Pagination database.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 2)
	assert.Equal(t, int64(3), resp.Pagination.Total)
	assert.Equal(t, 2, resp.Pagination.TotalPages)

	// Status filter
	w = app.request(t, "GET", "/api/loans?status=active", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 3)

	w = app.request(t, "GET", "/api/loans?status=returned", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Data)

	// Out-of-range page is empty, not an error
	w = app.request(t, "GET", "/api/loans?page=50", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Data)
	assert.Equal(t, int64(3), resp.Pagination.Total)
}

func TestListLoansEndpoint_BadInput(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()

	w := app.request(t, "GET", "/api/loans?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.request(t, "GET", "/api/loans?page=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.request(t, "GET", "/api/loans?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetLoanEndpoint(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()

	book := app.createBook(t, "Dune")
	member := app.createMember(t, "alice")

	w := app.request(t, "POST", "/api/loans/borrow", gin.H{"book_id": book.ID, "member_id": member.ID})
	require.Equal(t, http.StatusCreated, w.Code)

	var created LoanView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = app.request(t, "GET", fmt.Sprintf("/api/loans/%d", created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = app.request(t, "GET", "/api/loans/9999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.request(t, "GET", "/api/loans/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoansCSVExport(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()

	book := app.createBook(t, "Dune")
	member := app.createMember(t, "alice")

	w := app.request(t, "POST", "/api/loans/borrow", gin.H{"book_id": book.ID, "member_id": member.ID})
	require.Equal(t, http.StatusCreated, w.Code)

	w = app.request(t, "GET", "/api/loans/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "loans-")

	body := w.Body.String()
	assert.Contains(t, body, "loan_id,book_title")
	assert.Contains(t, body, "Dune")
	assert.Contains(t, body, "alice@example.com")
	assert.Contains(t, body, "active")
}

func TestDashboardStats(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()

	book := app.createBook(t, "Dune")
	app.createBook(t, "The Hobbit")
	member := app.createMember(t, "alice")

	w := app.request(t, "POST", "/api/loans/borrow", gin.H{"book_id": book.ID, "member_id": member.ID})
	require.Equal(t, http.StatusCreated, w.Code)

	// One overdue loan inserted directly
	overdueBook := app.createBook(t, "Late")
	now := time.Now()
	loan := &entities.Loan{
		BookID:     overdueBook.ID,
		MemberID:   member.ID,
		BorrowDate: now.AddDate(0, 0, -20),
		DueDate:    now.AddDate(0, 0, -6),
	}
	require.NoError(t, app.db.DB.Create(loan).Error)

	w = app.request(t, "GET", "/api/dashboard/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats map[string]int64
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, int64(3), stats["total_books"])
	assert.Equal(t, int64(1), stats["total_members"])
	assert.Equal(t, int64(2), stats["open_loans"])
	assert.Equal(t, int64(1), stats["overdue_loans"])
	assert.Equal(t, int64(1), stats["active_loans"])
}

func TestHealthEndpoint(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()

	w := app.request(t, "GET", "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "test", resp["version"])
}
