package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/covergrid/search-service/internal/repository"
	"github.com/covergrid/search-service/internal/service"
	"github.com/covergrid/search-service/pkg/log"
	"github.com/covergrid/search-service/pkg/response"
)

// Handler handles HTTP requests for the search service.
type Handler struct {
	streamService service.StreamService
	imageService  service.ImageService
}

// NewHandler creates a new HTTP handler.
func NewHandler(streamService service.StreamService, imageService service.ImageService) *Handler {
	return &Handler{
		streamService: streamService,
		imageService:  imageService,
	}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/search", h.Search)
	r.GET("/image", h.Image)
}

// Search streams incremental results for ?q= as newline-delimited JSON.
// The whole response is CDN-cacheable on a shorter horizon than the
// in-process result cache; the two tiers are independent.
func (h *Handler) Search(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		response.BadRequest(c, "search query must not be empty")
		return
	}

	c.Header("Content-Type", "application/json")
	c.Header("Cache-Control", "public, max-age=3600, s-maxage=86400, stale-while-revalidate=86400")
	c.Header("CDN-Cache-Control", "public, s-maxage=86400, stale-while-revalidate=86400")
	c.Header("X-Content-Type-Options", "nosniff")
	c.Status(http.StatusOK)

	for ev := range h.streamService.StreamSearch(ctx, query) {
		line, err := json.Marshal(ev)
		if err != nil {
			l.Error().Err(err).Msg("failed to marshal stream event")
			return
		}
		line = append(line, '\n')
		if _, err := c.Writer.Write(line); err != nil {
			// Write-after-close is best effort; the producer observes the
			// request context and stops on its own.
			l.Debug().Err(err).Str("query", query).Msg("client disconnected mid-stream")
			return
		}
		c.Writer.Flush()
	}
}

// Image relays an allow-listed upstream cover with immutable cache headers.
func (h *Handler) Image(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	rawURL := c.Query("url")
	blob, err := h.imageService.ProxyImage(ctx, rawURL)
	if err != nil {
		var statusErr *repository.UpstreamStatusError
		switch {
		case errors.Is(err, service.ErrDisallowedImageURL):
			response.BadRequest(c, "invalid image url")
		case errors.As(err, &statusErr):
			l.Warn().Int("status", statusErr.StatusCode).Str("url", rawURL).Msg("upstream image status relayed")
			c.String(statusErr.StatusCode, "image fetch failed")
		default:
			l.Error().Err(err).Str("url", rawURL).Msg("image proxy failed")
			response.Error(c, http.StatusBadGateway, "UPSTREAM_ERROR", "image proxy failed")
		}
		return
	}

	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.Data(http.StatusOK, blob.ContentType, blob.Data)
}
