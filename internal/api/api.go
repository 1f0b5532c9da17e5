package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rm-hull/circle-mockup/internal/imagen"
	"github.com/rm-hull/circle-mockup/internal/raster"
	"github.com/rm-hull/circle-mockup/internal/studio"
)

const (
	DefaultMaxUpload = 5 << 20
	maxWait          = 30 * time.Second
)

type Renderer interface {
	Render(src []byte) ([]byte, error)
}

type Handlers struct {
	renderer  Renderer
	generator imagen.Client
	studio    *studio.Studio
	model     string
	maxUpload int64
}

// New wires the handlers. generator may be nil when no provider key is
// configured, in which case generation requests are refused.
func New(renderer Renderer, generator imagen.Client, st *studio.Studio, model string) *Handlers {
	return &Handlers{
		renderer:  renderer,
		generator: generator,
		studio:    st,
		model:     model,
		maxUpload: DefaultMaxUpload,
	}
}

func (h *Handlers) Register(r gin.IRouter) {
	v1 := r.Group("/v1")
	v1.POST("/mockup", h.Convert)
	v1.POST("/mockup/generate", h.Generate)
	v1.POST("/studio/source", h.SubmitSource)
	v1.GET("/studio/result", h.Result)
}

type generateRequest struct {
	Prompt string `json:"prompt" binding:"required"`
	Model  string `json:"model"`
}

// Convert renders an uploaded image synchronously.
func (h *Handlers) Convert(c *gin.Context) {
	src, ok := h.readSource(c)
	if !ok {
		return
	}
	h.render(c, src)
}

// Generate asks the provider for an image and renders it.
func (h *Handlers) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.generator == nil {
		abortWithError(c, imagen.ErrMissingAPIKey)
		return
	}

	model := req.Model
	if model == "" {
		model = h.model
	}

	src, err := h.generator.Generate(c.Request.Context(), req.Prompt, model)
	if err != nil {
		log.Printf("Image generation failed: %v", err)
		if imagen.IsRetryable(err) {
			c.Header("Retry-After", "30")
		}
		abortWithError(c, err)
		return
	}
	h.render(c, src)
}

func (h *Handlers) render(c *gin.Context, src []byte) {
	out, err := h.renderer.Render(src)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="mockup.png"`)
	c.Data(http.StatusOK, "image/png", out)
}

// SubmitSource hands an image to the studio slot and returns immediately.
func (h *Handlers) SubmitSource(c *gin.Context) {
	src, ok := h.readSource(c)
	if !ok {
		return
	}
	t := h.studio.Submit(src)
	c.JSON(http.StatusAccepted, gin.H{"id": t.ID.String(), "seq": t.Seq})
}

// Result serves the studio slot. With ?wait=<duration> it blocks until the
// latest submission settles or the wait elapses.
func (h *Handlers) Result(c *gin.Context) {
	r := h.studio.Latest()

	if wait := c.Query("wait"); wait != "" && r.State == studio.Pending {
		d, err := time.ParseDuration(wait)
		if err != nil || d <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid wait duration %q", wait)})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), min(d, maxWait))
		defer cancel()
		if settled, err := h.studio.Wait(ctx, r.Seq); err == nil {
			r = settled
		} else {
			r = h.studio.Latest()
		}
	}

	c.Header("X-Studio-State", r.State.String())
	if r.State != studio.Empty {
		c.Header("X-Studio-Id", r.ID.String())
		c.Header("X-Studio-Seq", strconv.FormatUint(r.Seq, 10))
	}

	switch r.State {
	case studio.Ready:
		c.Data(http.StatusOK, "image/png", r.Data)
	case studio.Failed:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": r.Err.Error(), "id": r.ID.String()})
	default:
		c.Status(http.StatusNoContent)
	}
}

func (h *Handlers) readSource(c *gin.Context) ([]byte, bool) {
	var body io.Reader = c.Request.Body

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("missing image upload: %v", err)})
			return nil, false
		}
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return nil, false
		}
		defer func() {
			_ = f.Close()
		}()
		body = f
	}

	src, err := io.ReadAll(io.LimitReader(body, h.maxUpload+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("failed to read upload: %v", err)})
		return nil, false
	}
	if int64(len(src)) > h.maxUpload {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("image exceeds %d bytes", h.maxUpload)})
		return nil, false
	}
	if len(src) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty upload"})
		return nil, false
	}
	return src, true
}

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusFor(err), gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	var se *imagen.ServiceError
	switch {
	case errors.Is(err, raster.ErrDecode), errors.Is(err, imagen.ErrNoImage):
		return http.StatusUnprocessableEntity
	case errors.Is(err, imagen.ErrEmptyPrompt):
		return http.StatusBadRequest
	case errors.Is(err, imagen.ErrMissingAPIKey):
		return http.StatusServiceUnavailable
	case errors.Is(err, imagen.ErrModelNotFound):
		return http.StatusNotFound
	case errors.Is(err, imagen.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, imagen.ErrUnauthorized), errors.As(err, &se):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
