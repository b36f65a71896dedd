package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lordofkekss/EFE/internal/models"
	"github.com/lordofkekss/EFE/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var allowedDocExts = map[string]bool{
	"pdf": true, "png": true, "jpg": true, "jpeg": true,
	"doc": true, "docx": true, "ppt": true, "pptx": true,
	"xls": true, "xlsx": true, "txt": true,
}

type DocumentHandler struct {
	db            *gorm.DB
	courseService *services.CourseService
	uploadFolder  string
}

func NewDocumentHandler(db *gorm.DB, courseService *services.CourseService, uploadFolder string) *DocumentHandler {
	return &DocumentHandler{db: db, courseService: courseService, uploadFolder: uploadFolder}
}

// Upload godoc
// @Summary      Upload a course document
// @Tags         documents
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Param        id path string true "Course ID"
// @Param        file formData file true "Document"
// @Router       /api/v1/courses/{id}/documents [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
	courseID := c.Param("id")
	userID, role := callerIdentity(c)

	if role == models.RoleStudent {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "teachers only"})
		return
	}
	course, err := h.courseService.GetCourse(courseID)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}
	if !h.courseService.CanAccess(course, userID, role) {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "not enrolled in this course"})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "no file selected"})
		return
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(file.Filename), "."))
	if !allowedDocExts[ext] {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "file type not allowed"})
		return
	}

	filename := filepath.Base(file.Filename)
	courseDir := filepath.Join(h.uploadFolder, courseID)
	if err := os.MkdirAll(courseDir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "storage unavailable"})
		return
	}

	savePath := filepath.Join(courseDir, filename)
	if err := c.SaveUploadedFile(file, savePath); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to store file"})
		return
	}

	doc := models.Document{
		ID:         models.NewID(),
		CourseID:   courseID,
		Filename:   filename,
		Path:       filepath.ToSlash(filepath.Join(courseID, filename)),
		MimeType:   file.Header.Get("Content-Type"),
		UploadedBy: userID,
		UploadedAt: time.Now(),
	}
	if err := h.db.Create(&doc).Error; err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, doc)
}

// Download godoc
// @Summary      Download a course document
// @Tags         documents
// @Security     BearerAuth
// @Param        id path string true "Document ID"
// @Router       /api/v1/documents/{id} [get]
func (h *DocumentHandler) Download(c *gin.Context) {
	var doc models.Document
	if err := h.db.First(&doc, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "document not found"})
		return
	}

	userID, role := callerIdentity(c)
	course, err := h.courseService.GetCourse(doc.CourseID)
	if err != nil || !h.courseService.CanAccess(course, userID, role) {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "not enrolled in this course"})
		return
	}

	c.FileAttachment(filepath.Join(h.uploadFolder, filepath.FromSlash(doc.Path)), doc.Filename)
}
