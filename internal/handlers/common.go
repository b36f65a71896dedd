package handlers

import "github.com/gin-gonic/gin"

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

type MessageResponse struct {
	Message string `json:"message" example:"operation successful"`
}

func callerIdentity(c *gin.Context) (string, string) {
	return c.GetString("user_id"), c.GetString("role")
}
