package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/lordofkekss/EFE/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Class{},
		&models.Enrollment{},
		&models.Subject{},
		&models.Course{},
		&models.ContentNode{},
		&models.Exercise{},
		&models.Assignment{},
		&models.Submission{},
		&models.StarTransaction{},
		&models.RewardCatalog{},
		&models.UserRewardUnlock{},
		&models.Document{},
		&models.LiveSession{},
	))
	return db
}

func createUser(t *testing.T, db *gorm.DB, username, role string) *models.User {
	t.Helper()
	user := &models.User{
		ID:           models.NewID(),
		Username:     username,
		PasswordHash: "x",
		Role:         role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

type liveFixture struct {
	db       *gorm.DB
	classes  *ClassService
	content  *ContentService
	live     *LiveService
	teacher  *models.User
	student  *models.User
	outsider *models.User
	admin    *models.User
	class    *models.Class
	course   *models.Course
	nodes    []models.ContentNode
	exercise *models.Exercise
}

// newLiveFixture seeds a class with an enrolled teacher and student and
// a course of four slides: three sections and one exercise.
func newLiveFixture(t *testing.T) *liveFixture {
	t.Helper()
	db := newTestDB(t)

	f := &liveFixture{
		db:       db,
		classes:  NewClassService(db),
		content:  NewContentService(db),
		teacher:  createUser(t, db, "frau-schmidt", models.RoleTeacher),
		student:  createUser(t, db, "max", models.RoleStudent),
		outsider: createUser(t, db, "fremder", models.RoleStudent),
		admin:    createUser(t, db, "root", models.RoleAdmin),
	}
	f.live = NewLiveService(db, f.content, f.classes, NewSlideRenderer())

	class, err := f.classes.CreateClass(f.teacher.ID, "7b", "7")
	require.NoError(t, err)
	f.class = class
	_, err = f.classes.JoinByCode(f.student.ID, class.JoinCode)
	require.NoError(t, err)

	subject := models.Subject{ID: models.NewID(), Name: "Mathe"}
	require.NoError(t, db.Create(&subject).Error)
	course := models.Course{
		ID:         models.NewID(),
		ClassID:    class.ID,
		SubjectID:  subject.ID,
		SchoolYear: "2025/26",
	}
	require.NoError(t, db.Create(&course).Error)
	f.course = &course

	now := time.Now()
	for i, title := range []string{"Einführung", "Brüche", "Abschnitt 3"} {
		node := models.ContentNode{
			ID:         models.NewID(),
			CourseID:   course.ID,
			Type:       models.NodeSection,
			Title:      title,
			BodyHTML:   fmt.Sprintf("<p>%s</p>", title),
			OrderIndex: i,
			ReleasedAt: &now,
		}
		require.NoError(t, db.Create(&node).Error)
		f.nodes = append(f.nodes, node)
	}

	exNode := models.ContentNode{
		ID:         models.NewID(),
		CourseID:   course.ID,
		Type:       models.NodeExercise,
		Title:      "Übung 7",
		OrderIndex: 3,
		ReleasedAt: &now,
	}
	require.NoError(t, db.Create(&exNode).Error)
	f.nodes = append(f.nodes, exNode)

	ex := models.Exercise{
		ID:            models.NewID(),
		ContentNodeID: exNode.ID,
		Kind:          models.ExerciseShortAnswer,
		PromptMD:      "Berechne **2+2**.",
		AnswerSchema:  []byte(`{"text":"Die Antwort ist 4."}`),
	}
	require.NoError(t, db.Create(&ex).Error)
	f.exercise = &ex

	return f
}

func (f *liveFixture) startSession(t *testing.T) *models.LiveSession {
	t.Helper()
	session, err := f.live.GetOrCreateForCourse(f.course.ID, f.teacher.ID)
	require.NoError(t, err)
	return session
}
