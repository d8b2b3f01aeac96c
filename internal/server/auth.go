package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type registerPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Avatar   string `json:"avatar"`
}

type avatarPayload struct {
	Avatar *string `json:"avatar"`
}

func (h *httpHandler) handleRegister(c *gin.Context) {
	var request registerPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	if _, err := h.users.Register(c.Request.Context(), request.Username, request.Password, request.Avatar); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "New user created!"})
}

// handleLogin verifies HTTP Basic credentials and answers with a bearer
// token. Every failure path shares one status and message so usernames
// cannot be enumerated.
func (h *httpHandler) handleLogin(c *gin.Context) {
	username, password, ok := c.Request.BasicAuth()
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Could not verify"})
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), username, password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	token, _, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.logger.Error("failed to issue token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *httpHandler) handleProfile(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	user, err := h.users.Profile(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":       user.ID,
		"username": user.Username,
		"avatar":   user.Avatar,
	})
}

func (h *httpHandler) handleSetAvatar(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	var request avatarPayload
	if err := c.ShouldBindJSON(&request); err != nil || request.Avatar == nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "No avatar data"})
		return
	}

	if err := h.users.SetAvatar(c.Request.Context(), userID, *request.Avatar); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Avatar updated!"})
}
