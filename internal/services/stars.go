package services

import (
	"errors"
	"time"

	"github.com/lordofkekss/EFE/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type StarService struct {
	db *gorm.DB
}

func NewStarService(db *gorm.DB) *StarService {
	return &StarService{db: db}
}

func (s *StarService) Balance(userID string) int {
	var balance int64
	s.db.Model(&models.StarTransaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&balance)
	return int(balance)
}

func (s *StarService) Grant(grantedBy, userID string, amount int, reason string) (*models.StarTransaction, error) {
	if amount == 0 {
		return nil, errors.New("amount must be non-zero")
	}
	if reason == "" {
		reason = models.StarReasonBonus
	}
	tx := models.StarTransaction{
		ID:        models.NewID(),
		UserID:    userID,
		Amount:    amount,
		Reason:    reason,
		CreatedBy: &grantedBy,
	}
	if err := s.db.Create(&tx).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}

// SubmitExercise records a submission and credits one star. Repeated
// submissions for the same node bump the attempt counter instead of
// creating a second row, and do not earn again.
func (s *StarService) SubmitExercise(studentID, nodeID string, answer datatypes.JSON) (*models.Submission, error) {
	var existing models.Submission
	if err := s.db.Where("content_node_id = ? AND student_id = ?", nodeID, studentID).
		First(&existing).Error; err == nil {
		existing.AnswerJSON = answer
		existing.AttemptsCount++
		existing.SubmittedAt = time.Now()
		if err := s.db.Save(&existing).Error; err != nil {
			return nil, err
		}
		return &existing, nil
	}

	now := time.Now()
	submission := models.Submission{
		ID:            models.NewID(),
		ContentNodeID: nodeID,
		StudentID:     studentID,
		AnswerJSON:    answer,
		Status:        models.SubmissionSubmitted,
		AttemptsCount: 1,
		FirstSeenAt:   now,
		SubmittedAt:   now,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&submission).Error; err != nil {
			return err
		}
		return tx.Create(&models.StarTransaction{
			ID:     models.NewID(),
			UserID: studentID,
			Amount: 1,
			Reason: models.StarReasonSubmission,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

func (s *StarService) ListTransactions(userID string) ([]models.StarTransaction, error) {
	var txs []models.StarTransaction
	err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&txs).Error
	return txs, err
}
