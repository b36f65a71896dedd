package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/lordofkekss/EFE/internal/models"

	"gorm.io/gorm"
)

type CourseService struct {
	db      *gorm.DB
	classes *ClassService
}

func NewCourseService(db *gorm.DB, classes *ClassService) *CourseService {
	return &CourseService{db: db, classes: classes}
}

// CurrentSchoolYear formats the school year containing now, with the
// rollover at the start of August ("2025/26").
func CurrentSchoolYear(now time.Time) string {
	y := now.Year()
	a, b := y, y+1
	if now.Month() < time.August {
		a, b = y-1, y
	}
	return fmt.Sprintf("%d/%02d", a, b%100)
}

func (s *CourseService) getOrCreateSubject(tx *gorm.DB, name string) (*models.Subject, error) {
	if name == "" {
		name = "Allgemein"
	}
	var subject models.Subject
	if err := tx.Where("name = ?", name).First(&subject).Error; err == nil {
		return &subject, nil
	}
	subject = models.Subject{ID: models.NewID(), Name: name}
	if err := tx.Create(&subject).Error; err != nil {
		return nil, err
	}
	return &subject, nil
}

func (s *CourseService) CreateCourse(callerID, callerRole, classID, subjectName, schoolYear string) (*models.Course, error) {
	var class models.Class
	if err := s.db.First(&class, "id = ?", classID).Error; err != nil {
		return nil, errors.New("class not found")
	}

	if callerRole != models.RoleAdmin && !s.classes.IsClassTeacher(classID, callerID) {
		return nil, errors.New("not a teacher of this class")
	}

	if schoolYear == "" {
		schoolYear = CurrentSchoolYear(time.Now())
	}

	var course models.Course
	err := s.db.Transaction(func(tx *gorm.DB) error {
		subject, err := s.getOrCreateSubject(tx, subjectName)
		if err != nil {
			return err
		}

		var existing models.Course
		if err := tx.Where("class_id = ? AND subject_id = ? AND school_year = ?",
			class.ID, subject.ID, schoolYear).First(&existing).Error; err == nil {
			return errors.New("course already exists for this class, subject and year")
		}

		course = models.Course{
			ID:         models.NewID(),
			ClassID:    class.ID,
			SubjectID:  subject.ID,
			SchoolYear: schoolYear,
		}
		return tx.Create(&course).Error
	})
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// EnsureCourseForClass returns the class's course, creating one with the
// default subject if none exists.
func (s *CourseService) EnsureCourseForClass(classID string) (*models.Course, error) {
	var course models.Course
	if err := s.db.Where("class_id = ?", classID).First(&course).Error; err == nil {
		return &course, nil
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		subject, err := s.getOrCreateSubject(tx, "")
		if err != nil {
			return err
		}
		course = models.Course{
			ID:         models.NewID(),
			ClassID:    classID,
			SubjectID:  subject.ID,
			SchoolYear: CurrentSchoolYear(time.Now()),
		}
		return tx.Create(&course).Error
	})
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (s *CourseService) GetCourse(courseID string) (*models.Course, error) {
	var course models.Course
	if err := s.db.First(&course, "id = ?", courseID).Error; err != nil {
		return nil, errors.New("course not found")
	}
	return &course, nil
}

// CanAccess reports whether the user may read a course: admins always,
// everyone else through enrollment in the owning class.
func (s *CourseService) CanAccess(course *models.Course, userID, role string) bool {
	if role == models.RoleAdmin {
		return true
	}
	return s.classes.IsEnrolled(course.ClassID, userID)
}

func (s *CourseService) ListCoursesFor(userID, role string) ([]models.Course, error) {
	var courses []models.Course
	if role == models.RoleAdmin {
		err := s.db.Order("created_at DESC").Find(&courses).Error
		return courses, err
	}

	err := s.db.
		Joins("JOIN enrollments ON enrollments.class_id = courses.class_id").
		Where("enrollments.user_id = ?", userID).
		Order("courses.created_at DESC").
		Find(&courses).Error
	return courses, err
}

type CourseDetail struct {
	Course    models.Course        `json:"course"`
	Sections  []models.ContentNode `json:"sections"`
	Exercises []models.ContentNode `json:"exercises"`
	Documents []models.Document    `json:"documents"`
}

// Detail returns the course with its ordered content split by kind.
// Students only see nodes that have been released.
func (s *CourseService) Detail(courseID, userID, role string) (*CourseDetail, error) {
	course, err := s.GetCourse(courseID)
	if err != nil {
		return nil, err
	}
	if !s.CanAccess(course, userID, role) {
		return nil, errors.New("not enrolled in this course")
	}

	var nodes []models.ContentNode
	if err := s.db.Where("course_id = ?", courseID).
		Order("order_index ASC").Find(&nodes).Error; err != nil {
		return nil, err
	}

	detail := &CourseDetail{Course: *course}
	for _, n := range nodes {
		if role == models.RoleStudent && n.ReleasedAt == nil {
			continue
		}
		switch n.Type {
		case models.NodeExercise:
			detail.Exercises = append(detail.Exercises, n)
		default:
			detail.Sections = append(detail.Sections, n)
		}
	}

	s.db.Where("course_id = ?", courseID).Find(&detail.Documents)
	return detail, nil
}
