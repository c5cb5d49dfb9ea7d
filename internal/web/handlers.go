package web

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"coindash/internal/chart"
	"coindash/internal/dashboard"
	"coindash/internal/market"
	"coindash/internal/version"
)

const viewPath = "/view"

func (s *Server) render(c *gin.Context, status int) {
	c.HTML(status, "page.html", s.dash.Page())
}

// redirect sends the browser back to the active screen without navigating.
func redirect(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, viewPath)
}

func (s *Server) home(c *gin.Context) {
	_ = s.dash.Navigate(dashboard.ScreenHome)
	s.render(c, http.StatusOK)
}

func (s *Server) current(c *gin.Context) {
	s.render(c, http.StatusOK)
}

func (s *Server) enterSearch(c *gin.Context) {
	_ = s.dash.Navigate(dashboard.ScreenSearch)
	s.render(c, http.StatusOK)
}

func (s *Server) submitSearch(c *gin.Context) {
	query := c.PostForm("query")
	err := s.dash.SubmitSearch(c.Request.Context(), query)
	if errors.Is(err, dashboard.ErrInactiveScreen) {
		// the form lives on the search screen; another tab may have left it
		_ = s.dash.Navigate(dashboard.ScreenSearch)
		err = s.dash.SubmitSearch(c.Request.Context(), query)
	}
	if err != nil {
		s.logger.Debug().Err(err).Str("query", query).Msg("search request failed")
	}
	redirect(c)
}

func (s *Server) selectAsset(c *gin.Context) {
	if err := s.dash.SelectAsset(c.Param("id")); err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	s.settle(c.Request.Context())
	s.render(c, http.StatusOK)
}

func (s *Server) enterDetail(c *gin.Context) {
	if err := s.dash.Navigate(dashboard.ScreenDetail); err != nil {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	s.settle(c.Request.Context())
	s.render(c, http.StatusOK)
}

// settle gives in-flight detail loads a short window so the first render
// usually carries data; the page polls /view otherwise.
func (s *Server) settle(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, s.opts.SettleTimeout)
	defer cancel()
	_ = s.dash.Settle(ctx)
}

func (s *Server) chartPNG(c *gin.Context) {
	id := c.Param("id")
	points, cur, ok := s.dash.History(id)
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	opts := chart.Options{AssetID: id, Currency: cur, Width: s.opts.ChartWidth, Height: s.opts.ChartHeight}
	if err := chart.RenderPNG(&buf, points, opts); err != nil {
		if errors.Is(err, chart.ErrTooFewPoints) {
			c.Status(http.StatusNotFound)
			return
		}
		s.logger.Error().Err(err).Str("id", id).Msg("render chart failed")
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (s *Server) toggleFavorite(c *gin.Context) {
	if _, err := s.dash.ToggleFavorite(c.Request.Context(), c.Param("id")); err != nil {
		s.logger.Warn().Err(err).Msg("favorite toggle failed")
	}
	redirect(c)
}

func (s *Server) toggleFilter(c *gin.Context) {
	s.dash.ToggleFavoritesFilter()
	redirect(c)
}

func (s *Server) settings(c *gin.Context) {
	if raw := strings.TrimSpace(c.PostForm("sort")); raw != "" {
		key, err := market.ParseSortKey(raw)
		if err != nil {
			c.String(http.StatusBadRequest, err.Error())
			return
		}
		s.dash.SetSort(key)
	}

	if raw := strings.TrimSpace(c.PostForm("refresh")); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil {
			c.String(http.StatusBadRequest, "invalid refresh interval")
			return
		}
		if err := s.dash.SetRefreshInterval(seconds); err != nil {
			c.String(http.StatusBadRequest, err.Error())
			return
		}
	}

	if raw := strings.TrimSpace(c.PostForm("currency")); raw != "" && market.NormalizeCurrency(raw) != s.dash.Page().Currency {
		err := s.dash.SetCurrency(c.Request.Context(), market.Currency(raw))
		if errors.Is(err, dashboard.ErrUnsupportedCurrency) {
			c.String(http.StatusBadRequest, err.Error())
			return
		}
		// a failed listing reload shows up in the home status
	}

	redirect(c)
}

func (s *Server) state(c *gin.Context) {
	c.JSON(http.StatusOK, s.dash.Page())
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.Version})
}
