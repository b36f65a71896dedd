package services

import (
	"errors"
	"time"

	"github.com/lordofkekss/EFE/internal/models"

	"gorm.io/gorm"
)

type RewardService struct {
	db    *gorm.DB
	stars *StarService
}

func NewRewardService(db *gorm.DB, stars *StarService) *RewardService {
	return &RewardService{db: db, stars: stars}
}

func (s *RewardService) ListCatalog() ([]models.RewardCatalog, error) {
	var rewards []models.RewardCatalog
	err := s.db.Order("cost_stars ASC").Find(&rewards).Error
	return rewards, err
}

// UpsertCatalog creates or updates a reward keyed by its stable key.
func (s *RewardService) UpsertCatalog(key, title, description, rewardType string, costStars int) (*models.RewardCatalog, error) {
	if key == "" || title == "" {
		return nil, errors.New("key and title required")
	}

	var reward models.RewardCatalog
	if err := s.db.Where("key = ?", key).First(&reward).Error; err != nil {
		reward = models.RewardCatalog{
			ID:        models.NewID(),
			Key:       key,
			Title:     title,
			CostStars: costStars,
		}
		if description != "" {
			reward.Description = description
		}
		if rewardType != "" {
			reward.Type = rewardType
		}
		if err := s.db.Create(&reward).Error; err != nil {
			return nil, err
		}
		return &reward, nil
	}

	reward.Title = title
	reward.CostStars = costStars
	if description != "" {
		reward.Description = description
	}
	if rewardType != "" {
		reward.Type = rewardType
	}
	if err := s.db.Save(&reward).Error; err != nil {
		return nil, err
	}
	return &reward, nil
}

// Unlock purchases a reward: checks the star balance, the reward's
// active window and per-student cap, then writes the spend transaction
// and the unlock row atomically.
func (s *RewardService) Unlock(userID, rewardID string) (*models.UserRewardUnlock, error) {
	var reward models.RewardCatalog
	if err := s.db.First(&reward, "id = ?", rewardID).Error; err != nil {
		return nil, errors.New("reward not found")
	}

	now := time.Now()
	if reward.ActiveFrom != nil && now.Before(*reward.ActiveFrom) {
		return nil, errors.New("reward not yet active")
	}
	if reward.ActiveTo != nil && now.After(*reward.ActiveTo) {
		return nil, errors.New("reward no longer active")
	}

	if reward.MaxPerStudent != nil {
		var owned int64
		s.db.Model(&models.UserRewardUnlock{}).
			Where("user_id = ? AND reward_id = ?", userID, rewardID).
			Count(&owned)
		if owned >= int64(*reward.MaxPerStudent) {
			return nil, errors.New("reward limit reached")
		}
	}

	var unlock models.UserRewardUnlock
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var balance int64
		tx.Model(&models.StarTransaction{}).
			Where("user_id = ?", userID).
			Select("COALESCE(SUM(amount), 0)").
			Scan(&balance)
		if balance < int64(reward.CostStars) {
			return errors.New("not enough stars")
		}

		if err := tx.Create(&models.StarTransaction{
			ID:     models.NewID(),
			UserID: userID,
			Amount: -reward.CostStars,
			Reason: models.StarReasonSpend,
		}).Error; err != nil {
			return err
		}

		unlock = models.UserRewardUnlock{
			ID:         models.NewID(),
			UserID:     userID,
			RewardID:   reward.ID,
			UnlockedAt: now,
			SpentStars: reward.CostStars,
		}
		return tx.Create(&unlock).Error
	})
	if err != nil {
		return nil, err
	}
	return &unlock, nil
}

func (s *RewardService) ListUnlocks(userID string) ([]models.UserRewardUnlock, error) {
	var unlocks []models.UserRewardUnlock
	err := s.db.Where("user_id = ?", userID).
		Order("unlocked_at DESC").
		Find(&unlocks).Error
	return unlocks, err
}
