package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tubegrab/tubegrab/internal/catalog"
	"github.com/tubegrab/tubegrab/internal/history"
	"github.com/tubegrab/tubegrab/internal/types"
)

type infoRequest struct {
	URL string `json:"url"`
}

type downloadRequest struct {
	URL  string `json:"url"`
	Itag string `json:"itag"`
}

type infoResponse struct {
	types.Metadata
	AvailableFormats []types.CatalogueEntry `json:"availableFormats"`
}

func (s *Server) handleVideoInfo(c *gin.Context) {
	var req infoRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "URL is required"})
		return
	}
	if _, ok := SourceID(req.URL); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid YouTube URL"})
		return
	}

	ctx := c.Request.Context()
	if s.opts.ResolveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.ResolveTimeout)
		defer cancel()
	}

	meta, err := s.resolver.ResolveMetadata(ctx, req.URL)
	if err != nil {
		s.renderError(c, err)
		return
	}
	renditions, err := s.resolver.ListRenditions(ctx, req.URL)
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, infoResponse{
		Metadata:         *meta,
		AvailableFormats: catalog.Normalize(renditions),
	})
}

func (s *Server) handleDownload(c *gin.Context) {
	var req downloadRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "URL is required"})
		return
	}
	if _, ok := SourceID(req.URL); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid YouTube URL"})
		return
	}
	if req.Itag == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Format (itag) is required"})
		return
	}

	// the request context covers the whole transfer so a client disconnect
	// tears the upstream stream down
	dl, err := s.relay.Open(c.Request.Context(), req.URL, req.Itag)
	if err != nil {
		s.renderError(c, err)
		return
	}
	defer dl.Close()

	c.Header("Content-Type", dl.ContentType)
	c.Header("Content-Disposition", `attachment; filename="`+dl.Filename+`"`)
	c.Header("Cache-Control", "no-cache")
	if dl.ContentLength > 0 {
		c.Header("Content-Length", strconv.FormatInt(dl.ContentLength, 10))
	}
	c.Status(http.StatusOK)

	if _, err := dl.Stream(c.Request.Context(), c.Writer); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		// headers are out; push the partial body downstream, then sever the
		// connection so the truncated response cannot read as complete
		c.Writer.Flush()
		panic(http.ErrAbortHandler)
	}

	entry := history.NewEntry(
		dl.Meta.ID,
		dl.Meta.Title,
		dl.Meta.Thumbnail,
		catalog.MediaKindOf(dl.Rendition),
		catalog.DisplayQualityOf(dl.Rendition),
	)
	if err := s.history.Add(context.WithoutCancel(c.Request.Context()), entry); err != nil {
		s.logger.Warn("recording download history failed", zap.Error(err))
	}
}

func (s *Server) handleHistoryList(c *gin.Context) {
	entries, err := s.history.List(c.Request.Context())
	if err != nil {
		s.logger.Warn("listing history failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load download history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": entries})
}

func (s *Server) handleHistoryClear(c *gin.Context) {
	if err := s.history.Clear(c.Request.Context()); err != nil {
		s.logger.Warn("clearing history failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear download history"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleHistoryRemove(c *gin.Context) {
	if err := s.history.Remove(c.Request.Context(), c.Param("id")); err != nil {
		s.logger.Warn("removing history entry failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove history entry"})
		return
	}
	c.Status(http.StatusNoContent)
}

// renderError maps a typed failure onto a status code and the one
// user-facing message. Raw causes stay in the logs.
func (s *Server) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, types.ErrInvalidInput):
		msg := "Invalid request"
		var inputErr *types.InvalidInputError
		if errors.As(err, &inputErr) {
			msg = inputErr.Message
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	case errors.Is(err, types.ErrUnsupportedSource):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid YouTube URL"})
		return
	case errors.Is(err, types.ErrRenditionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Selected format not available"})
		return
	case errors.Is(err, context.Canceled):
		// client is gone; nothing to render
		return
	}

	var resolveErr *types.ResolveError
	if errors.As(err, &resolveErr) {
		status := http.StatusInternalServerError
		if resolveErr.Reason == types.ReasonRateLimited {
			status = http.StatusTooManyRequests
		}
		s.logger.Warn("request failed",
			zap.String("reason", string(resolveErr.Reason)),
			zap.Error(err))
		c.JSON(status, gin.H{"error": resolveErr.Message})
		return
	}

	s.logger.Error("unclassified failure", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch video information"})
}
