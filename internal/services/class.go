package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/lordofkekss/EFE/internal/models"

	"gorm.io/gorm"
)

type ClassService struct {
	db *gorm.DB
}

func NewClassService(db *gorm.DB) *ClassService {
	return &ClassService{db: db}
}

func (s *ClassService) CreateClass(teacherID, name, gradeLevel string) (*models.Class, error) {
	if name == "" {
		return nil, errors.New("class name required")
	}

	class := models.Class{
		ID:         models.NewID(),
		Name:       name,
		GradeLevel: gradeLevel,
		JoinCode:   s.generateUniqueCode(),
		CreatedBy:  teacherID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&class).Error; err != nil {
			return err
		}
		return tx.Create(&models.Enrollment{
			ID:          models.NewID(),
			ClassID:     class.ID,
			UserID:      teacherID,
			RoleInClass: models.EnrollTeacher,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &class, nil
}

func (s *ClassService) GetClass(classID string) (*models.Class, error) {
	var class models.Class
	if err := s.db.First(&class, "id = ?", classID).Error; err != nil {
		return nil, errors.New("class not found")
	}
	return &class, nil
}

// JoinByCode enrolls a student via class join code. Joining twice is a
// no-op returning the existing enrollment.
func (s *ClassService) JoinByCode(userID, code string) (*models.Class, error) {
	var class models.Class
	if err := s.db.Where("join_code = ?", code).First(&class).Error; err != nil {
		return nil, errors.New("class not found")
	}

	var existing models.Enrollment
	if err := s.db.Where("class_id = ? AND user_id = ?", class.ID, userID).
		First(&existing).Error; err == nil {
		return &class, nil
	}

	enrollment := models.Enrollment{
		ID:          models.NewID(),
		ClassID:     class.ID,
		UserID:      userID,
		RoleInClass: models.EnrollStudent,
		CreatedAt:   time.Now(),
	}
	if err := s.db.Create(&enrollment).Error; err != nil {
		return nil, err
	}
	return &class, nil
}

func (s *ClassService) ListClassesFor(userID, role string) ([]models.Class, error) {
	var classes []models.Class
	if role == models.RoleAdmin {
		err := s.db.Order("created_at DESC").Find(&classes).Error
		return classes, err
	}

	err := s.db.
		Joins("JOIN enrollments ON enrollments.class_id = classes.id").
		Where("enrollments.user_id = ?", userID).
		Order("classes.created_at DESC").
		Find(&classes).Error
	return classes, err
}

func (s *ClassService) ListMembers(classID string) ([]models.User, error) {
	var users []models.User
	err := s.db.
		Joins("JOIN enrollments ON enrollments.user_id = users.id").
		Where("enrollments.class_id = ?", classID).
		Order("users.username ASC").
		Find(&users).Error
	return users, err
}

func (s *ClassService) IsEnrolled(classID, userID string) bool {
	var count int64
	s.db.Model(&models.Enrollment{}).
		Where("class_id = ? AND user_id = ?", classID, userID).
		Count(&count)
	return count > 0
}

func (s *ClassService) IsClassTeacher(classID, userID string) bool {
	var count int64
	s.db.Model(&models.Enrollment{}).
		Where("class_id = ? AND user_id = ? AND role_in_class = ?", classID, userID, models.EnrollTeacher).
		Count(&count)
	return count > 0
}

func (s *ClassService) generateUniqueCode() string {
	for {
		buf := make([]byte, 3)
		if _, err := rand.Read(buf); err != nil {
			continue
		}
		code := hex.EncodeToString(buf)

		var count int64
		s.db.Model(&models.Class{}).Where("join_code = ?", code).Count(&count)
		if count == 0 {
			return code
		}
	}
}
