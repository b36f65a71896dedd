package handlers

import (
	"net/http"

	"github.com/lordofkekss/EFE/internal/services"

	"github.com/gin-gonic/gin"
)

type CourseHandler struct {
	courseService *services.CourseService
}

func NewCourseHandler(courseService *services.CourseService) *CourseHandler {
	return &CourseHandler{courseService: courseService}
}

type CreateCourseRequest struct {
	ClassID     string `json:"class_id" binding:"required"`
	SubjectName string `json:"subject_name,omitempty"`
	SchoolYear  string `json:"school_year,omitempty"`
}

// CreateCourse godoc
// @Summary      Create a course for a class
// @Tags         courses
// @Security     BearerAuth
// @Param        request body CreateCourseRequest true "Course data"
// @Success      201 {object} models.Course
// @Router       /api/v1/courses [post]
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	var req CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	userID, role := callerIdentity(c)
	course, err := h.courseService.CreateCourse(userID, role, req.ClassID, req.SubjectName, req.SchoolYear)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, course)
}

// ListCourses godoc
// @Summary      List courses visible to the caller
// @Tags         courses
// @Security     BearerAuth
// @Router       /api/v1/courses [get]
func (h *CourseHandler) ListCourses(c *gin.Context) {
	userID, role := callerIdentity(c)
	courses, err := h.courseService.ListCoursesFor(userID, role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, courses)
}

// GetCourse godoc
// @Summary      Course detail with ordered content
// @Description  Students only see released content nodes
// @Tags         courses
// @Security     BearerAuth
// @Param        id path string true "Course ID"
// @Router       /api/v1/courses/{id} [get]
func (h *CourseHandler) GetCourse(c *gin.Context) {
	userID, role := callerIdentity(c)
	detail, err := h.courseService.Detail(c.Param("id"), userID, role)
	if err != nil {
		status := http.StatusNotFound
		if err.Error() == "not enrolled in this course" {
			status = http.StatusForbidden
		}
		c.JSON(status, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, detail)
}
