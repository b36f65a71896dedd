package services

import (
	"errors"
	"time"

	"github.com/lordofkekss/EFE/internal/models"

	"gorm.io/gorm"
)

type ContentService struct {
	db *gorm.DB
}

func NewContentService(db *gorm.DB) *ContentService {
	return &ContentService{db: db}
}

type CreateNodeInput struct {
	Type       string
	Title      string
	Code       string
	OrderIndex int
	BodyMD     string
	// exercise-only fields
	Kind     string
	PromptMD string
}

func (s *ContentService) CreateNode(courseID, creatorRole string, in CreateNodeInput) (*models.ContentNode, error) {
	switch in.Type {
	case models.NodeSection, models.NodeLesson, models.NodeExercise, models.NodeMedia:
	default:
		return nil, errors.New("invalid content type")
	}
	if in.Title == "" {
		return nil, errors.New("title required")
	}

	node := models.ContentNode{
		ID:          models.NewID(),
		CourseID:    courseID,
		Code:        in.Code,
		Type:        in.Type,
		Title:       in.Title,
		BodyMD:      in.BodyMD,
		OrderIndex:  in.OrderIndex,
		GeneratedBy: creatorRole,
		Approved:    true,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&node).Error; err != nil {
			return err
		}
		if in.Type == models.NodeExercise {
			kind := in.Kind
			if kind == "" {
				kind = models.ExerciseShortAnswer
			}
			ex := models.Exercise{
				ID:            models.NewID(),
				ContentNodeID: node.ID,
				Kind:          kind,
				PromptMD:      in.PromptMD,
			}
			return tx.Create(&ex).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &node, nil
}

func (s *ContentService) GetNode(courseID, nodeID string) (*models.ContentNode, error) {
	var node models.ContentNode
	if err := s.db.Where("id = ? AND course_id = ?", nodeID, courseID).
		First(&node).Error; err != nil {
		return nil, errors.New("content node not found")
	}
	return &node, nil
}

func (s *ContentService) GetExercise(nodeID string) (*models.Exercise, error) {
	var ex models.Exercise
	if err := s.db.Where("content_node_id = ?", nodeID).First(&ex).Error; err != nil {
		return nil, errors.New("exercise not found")
	}
	return &ex, nil
}

// SaveSection updates a section or lesson body from the editor.
func (s *ContentService) SaveSection(courseID, nodeID, title, bodyHTML string) (*models.ContentNode, error) {
	node, err := s.GetNode(courseID, nodeID)
	if err != nil {
		return nil, err
	}
	if node.Type != models.NodeSection && node.Type != models.NodeLesson {
		return nil, errors.New("not a section")
	}

	updates := map[string]interface{}{"body_html": bodyHTML}
	if title != "" {
		updates["title"] = title
	}
	if err := s.db.Model(node).Updates(updates).Error; err != nil {
		return nil, err
	}
	return node, nil
}

type OrderItem struct {
	ID    string `json:"id"`
	Index int    `json:"index"`
}

func (s *ContentService) Reorder(courseID string, order []OrderItem) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, item := range order {
			tx.Model(&models.ContentNode{}).
				Where("id = ? AND course_id = ?", item.ID, courseID).
				Update("order_index", item.Index)
		}
		return nil
	})
}

// Release makes a node visible to students; release=false locks it again.
func (s *ContentService) Release(courseID, nodeID string, release bool) error {
	node, err := s.GetNode(courseID, nodeID)
	if err != nil {
		return err
	}
	if !release {
		return s.db.Model(node).Update("released_at", nil).Error
	}
	now := time.Now()
	return s.db.Model(node).Update("released_at", &now).Error
}

// OrderedNodes returns the course's full content list in slide order.
func (s *ContentService) OrderedNodes(courseID string) ([]models.ContentNode, error) {
	var nodes []models.ContentNode
	err := s.db.Where("course_id = ?", courseID).
		Order("order_index ASC").
		Find(&nodes).Error
	return nodes, err
}
