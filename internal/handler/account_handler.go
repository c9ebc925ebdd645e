package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"inbox-scout-go/internal/model"
)

func accountResponse(account *model.ConnectedAccount) model.ConnectedAccountResponse {
	return model.ConnectedAccountResponse{
		ID:        account.ID,
		Email:     account.Email,
		IMAPHost:  account.IMAPHost,
		IMAPPort:  account.IMAPPort,
		TLS:       account.TLS,
		CreatedAt: account.CreatedAt,
	}
}

// ConnectAccount links a new mailbox for the caller
func (h *Handler) ConnectAccount(c *gin.Context) {
	var req model.ConnectAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
			Code:    http.StatusBadRequest,
		})
		return
	}

	account, err := h.accounts.Create(userID(c), req)
	if err != nil {
		logrus.Errorf("Failed to connect account: %v", err)
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to connect account",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusCreated, accountResponse(account))
}

// GetAccounts returns the caller's linked mailboxes
func (h *Handler) GetAccounts(c *gin.Context) {
	accounts, err := h.accounts.List(userID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to fetch accounts",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	responses := make([]model.ConnectedAccountResponse, 0, len(accounts))
	for i := range accounts {
		responses = append(responses, accountResponse(&accounts[i]))
	}

	c.JSON(http.StatusOK, responses)
}

// DeleteAccount unlinks one of the caller's mailboxes
func (h *Handler) DeleteAccount(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid account ID",
			Code:    http.StatusBadRequest,
		})
		return
	}

	if err := h.accounts.Delete(userID(c), uint(id)); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, model.ErrorResponse{
				Error:   "not_found",
				Message: "Account not found",
				Code:    http.StatusNotFound,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to delete account",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// SyncEmails runs one sync for a linked mailbox and returns the
// classified records. The caller waits for fetch, parse, classification
// and indexing; alert dispatch is not awaited.
func (h *Handler) SyncEmails(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid account ID",
			Code:    http.StatusBadRequest,
		})
		return
	}

	account, err := h.accounts.Get(userID(c), uint(id))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, model.ErrorResponse{
				Error:   "not_found",
				Message: "Account not found",
				Code:    http.StatusNotFound,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to fetch account",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	params, err := h.accounts.ConnectionParams(account)
	if err != nil {
		logrus.Errorf("Failed to prepare connection for account %d: %v", account.ID, err)
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Error:   "credential_error",
			Message: "Failed to prepare mailbox connection",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	records, err := h.syncer.SyncAccount(c.Request.Context(), userID(c), fmt.Sprintf("%d", account.ID), params)
	if err != nil {
		logrus.Errorf("Sync failed for account %d: %v", account.ID, err)
		c.JSON(http.StatusBadGateway, model.ErrorResponse{
			Error:   "sync_failed",
			Message: "Failed to fetch emails from the mailbox",
			Code:    http.StatusBadGateway,
		})
		return
	}

	c.JSON(http.StatusOK, records)
}
