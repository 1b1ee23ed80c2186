package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/kiliankoe/shadowheist/internal/game"
)

// Archive is the read side of the results store.
type Archive interface {
	Recent(ctx context.Context, n int) ([]game.GameRecord, error)
	ForRoom(ctx context.Context, code string) ([]game.GameRecord, error)
}

// Register mounts the read-only HTTP API. archive may be nil, in which case the
// results routes are left out.
func Register(r gin.IRouter, reg *game.Registry, archive Archive) {
	g := r.Group("/api")

	g.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": reg.Rooms()})
	})

	g.GET("/rooms/:code", func(c *gin.Context) {
		snap, err := reg.Snapshot(c.Param("code"))
		if errors.Is(err, game.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "room_not_found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, snap)
	})

	if archive == nil {
		return
	}

	g.GET("/results", func(c *gin.Context) {
		n, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_limit"})
			return
		}
		recs, err := archive.Recent(c.Request.Context(), n)
		if err != nil {
			log.Error().Err(err).Msg("read recent results")
			c.JSON(http.StatusBadGateway, gin.H{"error": "archive_unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": recs})
	})

	g.GET("/results/:code", func(c *gin.Context) {
		code := strings.ToUpper(c.Param("code"))
		recs, err := archive.ForRoom(c.Request.Context(), code)
		if err != nil {
			log.Error().Err(err).Str("code", code).Msg("read room results")
			c.JSON(http.StatusBadGateway, gin.H{"error": "archive_unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": recs})
	})
}
