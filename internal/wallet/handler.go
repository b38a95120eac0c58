package wallet

import (
	"net/http"

	"cashbox/internal/api"
	"cashbox/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type Handler struct {
	service Service
}

func NewHandler(db *sqlx.DB) *Handler {
	return &Handler{
		service: NewService(NewRepository(db)),
	}
}

func NewHandlerWithService(service Service) *Handler {
	return &Handler{service: service}
}

// GetBalances godoc
// @Summary      Wallet balances
// @Description  Returns current, available and locked balance in minor units.
// @Tags         wallet
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  Balances
// @Failure      401  {object}  api.ErrorResponse
// @Router       /wallet [get]
func (h *Handler) GetBalances(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	balances, err := h.service.Balances(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to load wallet"})
		return
	}

	c.JSON(http.StatusOK, balances)
}

// ListTransactions godoc
// @Summary      Transaction history
// @Description  Paginated top-up and withdrawal history, newest first.
// @Tags         wallet
// @Produce      json
// @Security     BearerAuth
// @Param        type       query  string  false  "topup or withdrawal"
// @Param        status     query  string  false  "filter by status"
// @Param        page       query  int     false  "page number"
// @Param        page_size  query  int     false  "page size"
// @Success      200  {object}  api.Page
// @Failure      401  {object}  api.ErrorResponse
// @Router       /wallet/transactions [get]
func (h *Handler) ListTransactions(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	page, pageSize := api.PageParams(c)
	f := HistoryFilter{
		Type:     c.Query("type"),
		Status:   c.Query("status"),
		Page:     page,
		PageSize: pageSize,
	}

	txs, total, err := h.service.History(c.Request.Context(), userID, f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to load transactions"})
		return
	}

	c.JSON(http.StatusOK, api.NewPage(c, txs, page, pageSize, total))
}
