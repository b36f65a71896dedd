package handlers

import (
	"net/http"

	"github.com/lordofkekss/EFE/internal/models"
	"github.com/lordofkekss/EFE/internal/services"

	"github.com/gin-gonic/gin"
)

type ClassHandler struct {
	classService *services.ClassService
	starService  *services.StarService
}

func NewClassHandler(classService *services.ClassService, starService *services.StarService) *ClassHandler {
	return &ClassHandler{classService: classService, starService: starService}
}

type CreateClassRequest struct {
	Name       string `json:"name" binding:"required,min=1,max=255"`
	GradeLevel string `json:"grade_level,omitempty"`
}

type JoinClassRequest struct {
	JoinCode string `json:"join_code" binding:"required"`
}

type GrantStarsRequest struct {
	StudentID string `json:"student_id" binding:"required"`
	Amount    int    `json:"amount" binding:"required"`
}

// CreateClass godoc
// @Summary      Create a class with a fresh join code
// @Tags         classes
// @Security     BearerAuth
// @Param        request body CreateClassRequest true "Class data"
// @Success      201 {object} models.Class
// @Router       /api/v1/classes [post]
func (h *ClassHandler) CreateClass(c *gin.Context) {
	var req CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	userID, _ := callerIdentity(c)
	class, err := h.classService.CreateClass(userID, req.Name, req.GradeLevel)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, class)
}

// ListClasses godoc
// @Summary      List classes visible to the caller
// @Tags         classes
// @Security     BearerAuth
// @Router       /api/v1/classes [get]
func (h *ClassHandler) ListClasses(c *gin.Context) {
	userID, role := callerIdentity(c)
	classes, err := h.classService.ListClassesFor(userID, role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, classes)
}

// JoinClass godoc
// @Summary      Join a class by its join code
// @Tags         classes
// @Security     BearerAuth
// @Param        request body JoinClassRequest true "Join code"
// @Router       /api/v1/classes/join [post]
func (h *ClassHandler) JoinClass(c *gin.Context) {
	var req JoinClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	userID, _ := callerIdentity(c)
	class, err := h.classService.JoinByCode(userID, req.JoinCode)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, class)
}

// ListMembers godoc
// @Summary      List class members
// @Tags         classes
// @Security     BearerAuth
// @Param        id path string true "Class ID"
// @Router       /api/v1/classes/{id}/members [get]
func (h *ClassHandler) ListMembers(c *gin.Context) {
	classID := c.Param("id")
	userID, role := callerIdentity(c)

	if role != models.RoleAdmin && !h.classService.IsEnrolled(classID, userID) {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "not a member of this class"})
		return
	}

	members, err := h.classService.ListMembers(classID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, members)
}

// GrantStars godoc
// @Summary      Grant bonus stars to a student
// @Tags         stars
// @Security     BearerAuth
// @Param        request body GrantStarsRequest true "Grant"
// @Router       /api/v1/stars/grant [post]
func (h *ClassHandler) GrantStars(c *gin.Context) {
	var req GrantStarsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	userID, _ := callerIdentity(c)
	tx, err := h.starService.Grant(userID, req.StudentID, req.Amount, models.StarReasonBonus)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, tx)
}

// GetBalance godoc
// @Summary      Star balance of the caller
// @Tags         stars
// @Security     BearerAuth
// @Router       /api/v1/stars/balance [get]
func (h *ClassHandler) GetBalance(c *gin.Context) {
	userID, _ := callerIdentity(c)
	c.JSON(http.StatusOK, gin.H{"balance": h.starService.Balance(userID)})
}
