package calendar

import (
	"net/http"
	"strconv"

	"go-leave/internal/shared/apperror"
	"go-leave/internal/shared/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	calendar *Calendar
}

func NewHandler(c *Calendar) *Handler {
	if c == nil {
		c = Default()
	}
	return &Handler{calendar: c}
}

// List serves GET /holidays?year=; without year it lists the whole calendar.
func (h *Handler) List(c *gin.Context) {
	year := 0
	if raw := c.Query("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil || y < 1 || y > 9999 {
			appErr := apperror.InvalidField("year")
			response.Error(c, appErr.HTTPStatus, appErr.Code, appErr.Message, nil)
			return
		}
		year = y
	}

	response.Success(c, http.StatusOK, h.calendar.List(year), nil)
}
