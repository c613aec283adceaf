package auth

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarium/internal/entities"
)

// MemberStore is the slice of the members repository the auth controller
// needs: self-registration creates a borrower record next to the account.
type MemberStore interface {
	Create(member *entities.Member) error
}

// Controller serves the JSON auth endpoints.
type Controller struct {
	service  *Service
	sessions *SessionManager
	members  MemberStore
}

// NewController creates the auth controller.
func NewController(service *Service, sessions *SessionManager, members MemberStore) *Controller {
	return &Controller{
		service:  service,
		sessions: sessions,
		members:  members,
	}
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register creates a librarian account plus a member record. A missing email
// gets the synthesized placeholder derived from the username.
func (ctrl *Controller) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	user, err := ctrl.service.CreateUser(req.Username, req.Email, req.Password, entities.UserRoleLibrarian)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserExists):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, ErrUsernameInvalid),
			errors.Is(err, ErrEmailInvalid),
			errors.Is(err, ErrPasswordTooShort),
			errors.Is(err, ErrPasswordTooLong):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			log.Printf("Internal error (register): %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	member := &entities.Member{
		Name:  req.Username,
		Email: PlaceholderEmail(req.Username),
	}
	if err := ctrl.members.Create(member); err != nil {
		// The account stands; the member record can be created later by an
		// admin.
		log.Printf("WARNING: failed to create member for user %s: %v", req.Username, err)
	}

	c.JSON(http.StatusCreated, gin.H{"user": user, "member": member})
}

// Login verifies credentials and starts a session.
func (ctrl *Controller) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	user, err := ctrl.service.Authenticate(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	if ctrl.sessions != nil {
		if err := ctrl.sessions.CreateSession(c.Request, user); err != nil {
			log.Printf("Internal error (login session): %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Logout destroys the current session.
func (ctrl *Controller) Logout(c *gin.Context) {
	if ctrl.sessions != nil {
		if err := ctrl.sessions.DestroySession(c.Request); err != nil {
			log.Printf("Internal error (logout): %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// GenerateToken issues a fresh API token for the authenticated user and
// returns the plaintext once.
func (ctrl *Controller) GenerateToken(c *gin.Context) {
	userID := GetUserID(c)
	if userID == DefaultUserID {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	token, err := ctrl.service.IssueToken(userID)
	if err != nil {
		log.Printf("Internal error (issue token): %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"message": "store this token now, it will not be shown again",
	})
}
