package handlers

import (
	"net/http"

	"github.com/lordofkekss/EFE/internal/models"
	"github.com/lordofkekss/EFE/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

type ContentHandler struct {
	courseService  *services.CourseService
	contentService *services.ContentService
	starService    *services.StarService
}

func NewContentHandler(courseService *services.CourseService, contentService *services.ContentService, starService *services.StarService) *ContentHandler {
	return &ContentHandler{
		courseService:  courseService,
		contentService: contentService,
		starService:    starService,
	}
}

type CreateNodeRequest struct {
	Type       string `json:"type" binding:"required,oneof=section lesson exercise media"`
	Title      string `json:"title" binding:"required,min=1,max=255"`
	Code       string `json:"code,omitempty"`
	OrderIndex int    `json:"order_index"`
	BodyMD     string `json:"body_md,omitempty"`
	Kind       string `json:"kind,omitempty"`
	PromptMD   string `json:"prompt_md,omitempty"`
}

type SaveSectionRequest struct {
	Title    string `json:"title,omitempty"`
	BodyHTML string `json:"body_html"`
}

type ReorderRequest struct {
	Order []services.OrderItem `json:"order" binding:"required"`
}

type ReleaseRequest struct {
	Release bool `json:"release"`
}

type SubmitExerciseRequest struct {
	Answer datatypes.JSON `json:"answer"`
}

// requireTeacherAccess loads the course and checks the caller is an
// enrolled teacher or admin. Writes the error response on failure.
func (h *ContentHandler) requireTeacherAccess(c *gin.Context, courseID string) bool {
	userID, role := callerIdentity(c)
	if role == models.RoleStudent {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "teachers only"})
		return false
	}
	course, err := h.courseService.GetCourse(courseID)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return false
	}
	if !h.courseService.CanAccess(course, userID, role) {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "not enrolled in this course"})
		return false
	}
	return true
}

// CreateNode godoc
// @Summary      Create a content node (with exercise payload for exercise nodes)
// @Tags         content
// @Security     BearerAuth
// @Param        id path string true "Course ID"
// @Param        request body CreateNodeRequest true "Node data"
// @Router       /api/v1/courses/{id}/content [post]
func (h *ContentHandler) CreateNode(c *gin.Context) {
	courseID := c.Param("id")
	if !h.requireTeacherAccess(c, courseID) {
		return
	}

	var req CreateNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	_, role := callerIdentity(c)
	node, err := h.contentService.CreateNode(courseID, role, services.CreateNodeInput{
		Type:       req.Type,
		Title:      req.Title,
		Code:       req.Code,
		OrderIndex: req.OrderIndex,
		BodyMD:     req.BodyMD,
		Kind:       req.Kind,
		PromptMD:   req.PromptMD,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, node)
}

// SaveSection godoc
// @Summary      Save a section body from the editor
// @Tags         content
// @Security     BearerAuth
// @Router       /api/v1/courses/{id}/sections/{node_id} [put]
func (h *ContentHandler) SaveSection(c *gin.Context) {
	courseID := c.Param("id")
	if !h.requireTeacherAccess(c, courseID) {
		return
	}

	var req SaveSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	node, err := h.contentService.SaveSection(courseID, c.Param("node_id"), req.Title, req.BodyHTML)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, node)
}

// Reorder godoc
// @Summary      Reorder the course content list
// @Tags         content
// @Security     BearerAuth
// @Router       /api/v1/courses/{id}/reorder [put]
func (h *ContentHandler) Reorder(c *gin.Context) {
	courseID := c.Param("id")
	if !h.requireTeacherAccess(c, courseID) {
		return
	}

	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.contentService.Reorder(courseID, req.Order); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Release godoc
// @Summary      Release or lock a content node for students
// @Tags         content
// @Security     BearerAuth
// @Router       /api/v1/courses/{id}/content/{node_id}/release [post]
func (h *ContentHandler) Release(c *gin.Context) {
	courseID := c.Param("id")
	if !h.requireTeacherAccess(c, courseID) {
		return
	}

	var req ReleaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.contentService.Release(courseID, c.Param("node_id"), req.Release); err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// SubmitExercise godoc
// @Summary      Submit an exercise answer (+1 star on first submission)
// @Tags         content
// @Security     BearerAuth
// @Router       /api/v1/courses/{id}/exercises/{node_id}/submit [post]
func (h *ContentHandler) SubmitExercise(c *gin.Context) {
	courseID := c.Param("id")
	userID, role := callerIdentity(c)

	course, err := h.courseService.GetCourse(courseID)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}
	if !h.courseService.CanAccess(course, userID, role) {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "not enrolled in this course"})
		return
	}

	node, err := h.contentService.GetNode(courseID, c.Param("node_id"))
	if err != nil || node.Type != models.NodeExercise {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "exercise not found"})
		return
	}

	var req SubmitExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	submission, err := h.starService.SubmitExercise(userID, node.ID, req.Answer)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, submission)
}
