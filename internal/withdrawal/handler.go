package withdrawal

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"cashbox/internal/api"
	"cashbox/internal/auth"
	"cashbox/internal/bankaccount"
	"cashbox/internal/db"
	"cashbox/internal/user"
	"cashbox/internal/wallet"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type Handler struct {
	service Service
}

func NewHandler(database *sqlx.DB, notifier Notifier, minWithdrawalCents, feeCents int64) *Handler {
	repo := NewRepository(database, wallet.NewRepository(database))
	return &Handler{
		service: NewService(repo, bankaccount.NewRepository(database), user.NewRepository(database), notifier, minWithdrawalCents, feeCents),
	}
}

func NewHandlerWithService(service Service) *Handler {
	return &Handler{service: service}
}

// Create godoc
// @Summary      Request a withdrawal
// @Description  Locks the requested amount and queues the payout for review.
// @Tags         withdrawals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      CreateRequest  true  "Amount and destination account"
// @Success      201      {object}  Withdrawal
// @Failure      400      {object}  api.ErrorResponse
// @Failure      422      {object}  api.ErrorResponse
// @Router       /withdrawals [post]
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

	w, err := h.service.Request(c.Request.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrBelowMinimum):
			c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Error: "amount is below the withdrawal minimum"})
		case errors.Is(err, ErrInvalidBankAccount):
			c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Error: "bank account not found"})
		case errors.Is(err, wallet.ErrInsufficientFunds):
			c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Error: "insufficient available balance"})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to create withdrawal"})
		}
		return
	}

	c.JSON(http.StatusCreated, w)
}

// ListOwn godoc
// @Summary      List own withdrawals
// @Tags         withdrawals
// @Produce      json
// @Security     BearerAuth
// @Param        page       query  int  false  "page number"
// @Param        page_size  query  int  false  "page size"
// @Success      200  {object}  api.Page
// @Router       /withdrawals [get]
func (h *Handler) ListOwn(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	page, pageSize := api.PageParams(c)
	withdrawals, total, err := h.service.ListOwn(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to list withdrawals"})
		return
	}

	c.JSON(http.StatusOK, api.NewPage(c, withdrawals, page, pageSize, total))
}

// Cancel godoc
// @Summary      Cancel a pending withdrawal
// @Description  Releases the locked funds back to the available balance.
// @Tags         withdrawals
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Withdrawal ID"
// @Success      200  {object}  Withdrawal
// @Failure      404  {object}  api.ErrorResponse
// @Failure      409  {object}  api.ErrorResponse
// @Router       /withdrawals/{id}/cancel [post]
func (h *Handler) Cancel(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid withdrawal id"})
		return
	}

	w, err := h.service.Cancel(c.Request.Context(), userID, id)
	if err != nil {
		writeTransitionError(c, err, "failed to cancel withdrawal")
		return
	}

	c.JSON(http.StatusOK, w)
}

// Approve godoc
// @Summary      Approve a pending withdrawal
// @Description  Moves the withdrawal into processing; funds stay locked.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                  true   "Withdrawal ID"
// @Param        request  body      UpdateStatusRequest  false  "Operator note"
// @Success      200      {object}  Withdrawal
// @Failure      404      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Router       /admin/withdrawals/{id}/approve [post]
func (h *Handler) Approve(c *gin.Context) {
	h.adminTransition(c, h.service.Approve, "failed to approve withdrawal")
}

// Complete godoc
// @Summary      Mark a withdrawal as paid out
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                  true   "Withdrawal ID"
// @Param        request  body      UpdateStatusRequest  false  "Operator note"
// @Success      200      {object}  Withdrawal
// @Failure      404      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Router       /admin/withdrawals/{id}/complete [post]
func (h *Handler) Complete(c *gin.Context) {
	h.adminTransition(c, h.service.Complete, "failed to complete withdrawal")
}

// Fail godoc
// @Summary      Mark a withdrawal as failed
// @Description  Releases the locked funds back to the available balance.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                  true   "Withdrawal ID"
// @Param        request  body      UpdateStatusRequest  false  "Operator note"
// @Success      200      {object}  Withdrawal
// @Failure      404      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Router       /admin/withdrawals/{id}/fail [post]
func (h *Handler) Fail(c *gin.Context) {
	h.adminTransition(c, h.service.Fail, "failed to mark withdrawal as failed")
}

// List godoc
// @Summary      List all withdrawals
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        status     query  string  false  "filter by status"
// @Param        page       query  int     false  "page number"
// @Param        page_size  query  int     false  "page size"
// @Success      200  {object}  api.Page
// @Router       /admin/withdrawals [get]
func (h *Handler) List(c *gin.Context) {
	page, pageSize := api.PageParams(c)

	withdrawals, total, err := h.service.List(c.Request.Context(), c.Query("status"), page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to list withdrawals"})
		return
	}

	c.JSON(http.StatusOK, api.NewPage(c, withdrawals, page, pageSize, total))
}

func (h *Handler) adminTransition(c *gin.Context, fn func(context.Context, int, string) (*Withdrawal, error), fallback string) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid withdrawal id"})
		return
	}

	var req UpdateStatusRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
			return
		}
	}

	w, err := fn(c.Request.Context(), id, req.Note)
	if err != nil {
		writeTransitionError(c, err, fallback)
		return
	}

	c.JSON(http.StatusOK, w)
}

func writeTransitionError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "withdrawal not found"})
	case errors.Is(err, ErrInvalidTransition):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "withdrawal status does not allow this transition"})
	case errors.Is(err, db.ErrTxConflict):
		c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{Error: "wallet is busy, please retry"})
	default:
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: fallback})
	}
}
