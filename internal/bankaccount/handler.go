package bankaccount

import (
	"errors"
	"net/http"
	"strconv"

	"cashbox/internal/api"
	"cashbox/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type Handler struct {
	repo Repository
}

func NewHandler(db *sqlx.DB) *Handler {
	return &Handler{repo: NewRepository(db)}
}

func NewHandlerWithRepo(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// Create godoc
// @Summary      Add bank account
// @Tags         bank-accounts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      CreateRequest  true  "Bank account data"
// @Success      201      {object}  BankAccount
// @Failure      400      {object}  api.ErrorResponse
// @Failure      401      {object}  api.ErrorResponse
// @Router       /bank-accounts [post]
func (h *Handler) Create(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	account, err := h.repo.Create(c.Request.Context(), userID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to create bank account"})
		return
	}

	c.JSON(http.StatusCreated, account)
}

// List godoc
// @Summary      List own bank accounts
// @Tags         bank-accounts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   BankAccount
// @Failure      401  {object}  api.ErrorResponse
// @Router       /bank-accounts [get]
func (h *Handler) List(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	accounts, err := h.repo.ListByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to list bank accounts"})
		return
	}

	c.JSON(http.StatusOK, accounts)
}

// SetDefault godoc
// @Summary      Mark a bank account as default
// @Tags         bank-accounts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Bank account ID"
// @Success      200  {object}  api.MessageResponse
// @Failure      401  {object}  api.ErrorResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /bank-accounts/{id}/default [post]
func (h *Handler) SetDefault(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid bank account id"})
		return
	}

	if err := h.repo.SetDefault(c.Request.Context(), userID, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "bank account not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to update bank account"})
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "default bank account updated"})
}

// Delete godoc
// @Summary      Delete a bank account
// @Description  Refused while a pending or processing withdrawal targets it.
// @Tags         bank-accounts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Bank account ID"
// @Success      200  {object}  api.MessageResponse
// @Failure      401  {object}  api.ErrorResponse
// @Failure      404  {object}  api.ErrorResponse
// @Failure      409  {object}  api.ErrorResponse
// @Router       /bank-accounts/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid bank account id"})
		return
	}

	if err := h.repo.Delete(c.Request.Context(), userID, id); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "bank account not found"})
		case errors.Is(err, ErrHasOpenWithdrawal):
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "bank account has open withdrawals"})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to delete bank account"})
		}
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "bank account deleted"})
}
