package topup

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"cashbox/internal/api"
	"cashbox/internal/auth"
	"cashbox/internal/db"
	"cashbox/internal/user"
	"cashbox/internal/wallet"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type Handler struct {
	service Service
}

func NewHandler(database *sqlx.DB, notifier Notifier) *Handler {
	repo := NewRepository(database, wallet.NewRepository(database))
	return &Handler{
		service: NewService(repo, user.NewRepository(database), notifier),
	}
}

func NewHandlerWithService(service Service) *Handler {
	return &Handler{service: service}
}

// ListPackages godoc
// @Summary      Top-up package catalog
// @Tags         topups
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   Package
// @Failure      500  {object}  api.ErrorResponse
// @Router       /packages [get]
func (h *Handler) ListPackages(c *gin.Context) {
	packages, err := h.service.Packages(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to load packages"})
		return
	}
	c.JSON(http.StatusOK, packages)
}

// Create godoc
// @Summary      Create a top-up intent
// @Description  Records a pending top-up and returns payment instructions.
// @Tags         topups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      CreateRequest  true  "Package and payment method"
// @Success      201      {object}  CreateResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Failure      422      {object}  api.ErrorResponse
// @Router       /topups [post]
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

	t, err := h.service.CreateIntent(c.Request.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrPackageNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "package not found"})
		case errors.Is(err, ErrPackageInactive):
			c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Error: "package is not available"})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to create topup"})
		}
		return
	}

	c.JSON(http.StatusCreated, CreateResponse{
		Topup:        *t,
		Instructions: fmt.Sprintf("Transfer the exact amount using reference %s", t.OrderCode),
	})
}

// Cancel godoc
// @Summary      Cancel a pending top-up
// @Tags         topups
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Top-up ID"
// @Success      200  {object}  api.MessageResponse
// @Failure      404  {object}  api.ErrorResponse
// @Failure      409  {object}  api.ErrorResponse
// @Router       /topups/{id}/cancel [post]
func (h *Handler) Cancel(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid topup id"})
		return
	}

	if err := h.service.Cancel(c.Request.Context(), userID, id); err != nil {
		writeTransitionError(c, err, "failed to cancel topup")
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "topup cancelled"})
}

// Complete godoc
// @Summary      Confirm a top-up payment
// @Description  Transitions the top-up to completed and credits the wallet.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Top-up ID"
// @Success      200  {object}  Topup
// @Failure      404  {object}  api.ErrorResponse
// @Failure      409  {object}  api.ErrorResponse
// @Router       /admin/topups/{id}/complete [post]
func (h *Handler) Complete(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid topup id"})
		return
	}

	t, err := h.service.Complete(c.Request.Context(), id)
	if err != nil {
		writeTransitionError(c, err, "failed to complete topup")
		return
	}

	c.JSON(http.StatusOK, t)
}

// Fail godoc
// @Summary      Mark a top-up as failed
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Top-up ID"
// @Success      200  {object}  Topup
// @Failure      404  {object}  api.ErrorResponse
// @Failure      409  {object}  api.ErrorResponse
// @Router       /admin/topups/{id}/fail [post]
func (h *Handler) Fail(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid topup id"})
		return
	}

	t, err := h.service.Fail(c.Request.Context(), id)
	if err != nil {
		writeTransitionError(c, err, "failed to mark topup as failed")
		return
	}

	c.JSON(http.StatusOK, t)
}

// List godoc
// @Summary      List all top-ups
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        status     query  string  false  "filter by status"
// @Param        page       query  int     false  "page number"
// @Param        page_size  query  int     false  "page size"
// @Success      200  {object}  api.Page
// @Router       /admin/topups [get]
func (h *Handler) List(c *gin.Context) {
	page, pageSize := api.PageParams(c)

	topups, total, err := h.service.List(c.Request.Context(), c.Query("status"), page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to list topups"})
		return
	}

	c.JSON(http.StatusOK, api.NewPage(c, topups, page, pageSize, total))
}

func writeTransitionError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "topup not found"})
	case errors.Is(err, ErrInvalidTransition):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "topup is no longer pending"})
	case errors.Is(err, db.ErrTxConflict):
		c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{Error: "wallet is busy, please retry"})
	default:
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: fallback})
	}
}
