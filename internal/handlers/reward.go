package handlers

import (
	"net/http"

	"github.com/lordofkekss/EFE/internal/services"

	"github.com/gin-gonic/gin"
)

type RewardHandler struct {
	rewardService *services.RewardService
}

func NewRewardHandler(rewardService *services.RewardService) *RewardHandler {
	return &RewardHandler{rewardService: rewardService}
}

type UpsertRewardRequest struct {
	Key         string `json:"key" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"`
	CostStars   int    `json:"cost_stars" binding:"required,min=1"`
}

type UnlockRequest struct {
	RewardID string `json:"reward_id" binding:"required"`
}

// ListCatalog godoc
// @Summary      List the reward catalog
// @Tags         rewards
// @Security     BearerAuth
// @Router       /api/v1/rewards [get]
func (h *RewardHandler) ListCatalog(c *gin.Context) {
	rewards, err := h.rewardService.ListCatalog()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, rewards)
}

// UpsertCatalog godoc
// @Summary      Create or update a reward
// @Tags         rewards
// @Security     BearerAuth
// @Param        request body UpsertRewardRequest true "Reward"
// @Router       /api/v1/rewards [post]
func (h *RewardHandler) UpsertCatalog(c *gin.Context) {
	var req UpsertRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	reward, err := h.rewardService.UpsertCatalog(req.Key, req.Title, req.Description, req.Type, req.CostStars)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, reward)
}

// Unlock godoc
// @Summary      Purchase a reward with stars
// @Tags         rewards
// @Security     BearerAuth
// @Param        request body UnlockRequest true "Reward to unlock"
// @Router       /api/v1/rewards/unlock [post]
func (h *RewardHandler) Unlock(c *gin.Context) {
	var req UnlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	userID, _ := callerIdentity(c)
	unlock, err := h.rewardService.Unlock(userID, req.RewardID)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, unlock)
}

// ListUnlocks godoc
// @Summary      List the caller's unlocked rewards
// @Tags         rewards
// @Security     BearerAuth
// @Router       /api/v1/rewards/unlocks [get]
func (h *RewardHandler) ListUnlocks(c *gin.Context) {
	userID, _ := callerIdentity(c)
	unlocks, err := h.rewardService.ListUnlocks(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, unlocks)
}
