package api

import (
	"net/http"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/gin-gonic/gin"
)

type CityHandler struct {
	cities []string
}

func NewCityHandler(cities []string) *CityHandler {
	if cities == nil {
		cities = domain.Cities
	}
	return &CityHandler{cities: cities}
}

func (h *CityHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
}

func (h *CityHandler) list(c *gin.Context) {
	c.JSON(http.StatusOK, h.cities)
}
