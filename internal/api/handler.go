package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Handler adapts Service to gin with thin HTTP adapters that translate
// query params and service errors into gin.H responses.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register wires the handler's routes onto r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/stations", h.listStations)
	r.GET("/status", h.status)
	r.POST("/tune", h.tune)
}

func (h *Handler) listStations(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Stations())
}

func (h *Handler) status(c *gin.Context) {
	station := c.Query("station")
	st, err := h.svc.Status(station)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) tune(c *gin.Context) {
	req := TuneRequest{Station: c.Query("station")}
	if raw := c.Query("frequency"); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "frequency must be a number"})
			return
		}
		req.Frequency = &f
	}

	st, err := h.svc.Tune(req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrUnknownStation):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrAmbiguousTune):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
