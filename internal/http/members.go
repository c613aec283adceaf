package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarium/internal/database/members"
	"github.com/mrlokans/librarium/internal/entities"
)

// MembersController serves member CRUD.
type MembersController struct {
	store MemberStore
}

// NewMembersController creates the members controller.
func NewMembersController(store MemberStore) *MembersController {
	return &MembersController{store: store}
}

type memberRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required"`
	Phone string `json:"phone"`
}

// List returns a filtered, paginated page of members.
//
//	GET /api/members?page=&limit=&search=&sort=&order=
func (ctrl *MembersController) List(c *gin.Context) {
	params, ok := parsePageParams(c)
	if !ok {
		return
	}

	memberRows, pagination, err := ctrl.store.List(params, c.Query("search"))
	if err != nil {
		respondInternalError(c, err, "list members")
		return
	}

	c.JSON(http.StatusOK, ListResponse{Data: memberRows, Pagination: pagination})
}

// Get returns a single member.
func (ctrl *MembersController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	member, err := ctrl.store.GetByID(id)
	if err != nil {
		if errors.Is(err, members.ErrMemberNotFound) {
			respondNotFound(c, "member not found")
			return
		}
		respondInternalError(c, err, "get member")
		return
	}

	c.JSON(http.StatusOK, member)
}

// Create registers a member.
func (ctrl *MembersController) Create(c *gin.Context) {
	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "name and email are required")
		return
	}

	member := &entities.Member{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	}
	if err := ctrl.store.Create(member); err != nil {
		if errors.Is(err, members.ErrEmailTaken) {
			respondConflict(c, err.Error())
			return
		}
		respondInternalError(c, err, "create member")
		return
	}

	respondCreated(c, member)
}

// Update modifies a member's contact details.
func (ctrl *MembersController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "name and email are required")
		return
	}

	member, err := ctrl.store.Update(id, req.Name, req.Email, req.Phone)
	if err != nil {
		if errors.Is(err, members.ErrMemberNotFound) {
			respondNotFound(c, "member not found")
			return
		}
		respondInternalError(c, err, "update member")
		return
	}

	c.JSON(http.StatusOK, member)
}

// Delete removes a member without an open loan.
func (ctrl *MembersController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.store.Delete(id); err != nil {
		if errors.Is(err, members.ErrMemberNotFound) {
			respondNotFound(c, "member not found")
			return
		}
		respondBadRequest(c, err.Error())
		return
	}

	respondSuccess(c, "member deleted")
}
