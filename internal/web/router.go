package web

import (
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	"refreshLabel": refreshLabel,
	"millis":       func(seconds int) int { return seconds * 1000 },
	"fetchedAt": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format("2006-01-02 15:04:05 UTC")
	},
}

func (s *Server) newRouter(tmpl *template.Template) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(s.logger))
	router.SetHTMLTemplate(tmpl)

	router.GET("/", s.home)
	router.GET("/view", s.current)
	router.GET("/health", s.health)

	search := router.Group("/search")
	{
		search.GET("", s.enterSearch)
		search.POST("", s.submitSearch)
	}

	router.GET("/detail", s.enterDetail)
	coins := router.Group("/coins/:id")
	{
		coins.GET("", s.selectAsset)
		coins.GET("/chart.png", s.chartPNG)
	}

	router.POST("/favorites/:id/toggle", s.toggleFavorite)
	router.POST("/filter/favorites", s.toggleFilter)
	router.POST("/settings", s.settings)

	api := router.Group("/api")
	api.GET("/state", s.state)

	return router
}

func refreshLabel(seconds int) string {
	switch {
	case seconds <= 0:
		return "Off"
	case seconds%60 == 0:
		return fmt.Sprintf("%dm", seconds/60)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
