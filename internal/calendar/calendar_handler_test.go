package calendar_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-leave/internal/calendar"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestHandler_List(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cal, err := calendar.New([]calendar.Holiday{
		{Date: "2026-01-01", Name: "New Year's Day"},
		{Date: "2025-12-25", Name: "Christmas Day"},
		{Date: "2026-08-15", Name: "Independence Day"},
	})
	assert.NoError(t, err)
	h := calendar.NewHandler(cal)

	t.Run("by year", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/holidays?year=2026", nil)

		h.List(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Data []calendar.Holiday `json:"data"`
		}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, []calendar.Holiday{
			{Date: "2026-01-01", Name: "New Year's Day"},
			{Date: "2026-08-15", Name: "Independence Day"},
		}, body.Data)
	})

	t.Run("all", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/holidays", nil)

		h.List(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "2025-12-25")
	})

	t.Run("bad year", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/holidays?year=twenty", nil)

		h.List(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "year is invalid")
	})
}
