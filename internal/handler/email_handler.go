package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"inbox-scout-go/internal/model"
)

// SearchEmails runs a fuzzy keyword search over the caller's indexed
// emails
func (h *Handler) SearchEmails(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "validation_error",
			Message: "Please provide a search query",
			Code:    http.StatusBadRequest,
		})
		return
	}

	results, err := h.querier.Search(c.Request.Context(), userID(c), query)
	if err != nil {
		logrus.Errorf("Search failed: %v", err)
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Error:   "search_error",
			Message: "Failed to search emails",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, results)
}

// ChatEmails answers a free-form question over the caller's indexed
// emails
func (h *Handler) ChatEmails(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "validation_error",
			Message: "Please provide a query",
			Code:    http.StatusBadRequest,
		})
		return
	}

	answer, err := h.chatter.Chat(c.Request.Context(), userID(c), req.Query)
	if err != nil {
		logrus.Errorf("Inbox chat failed: %v", err)
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Error:   "chat_error",
			Message: "Failed to generate an answer",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, model.ChatResponse{Answer: answer})
}

// GetFeed returns the caller's most recent indexed emails
func (h *Handler) GetFeed(c *gin.Context) {
	results, err := h.querier.Feed(c.Request.Context(), userID(c))
	if err != nil {
		logrus.Errorf("Feed query failed: %v", err)
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Error:   "search_error",
			Message: "Failed to fetch recent emails",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, results)
}
