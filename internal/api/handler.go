// Package api exposes the pipeline entry points as JSON endpoints.
package api

import (
	"net/http"
	"strconv"
	"time"

	"erpsheets/internal/logger"
	"erpsheets/internal/report"
	"erpsheets/pkg/models"
	"erpsheets/pkg/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Handler serves the pipeline over HTTP.
type Handler struct {
	pipeline services.Pipeline
	log      zerolog.Logger
}

// NewHandler creates a handler over pipeline.
func NewHandler(pipeline services.Pipeline) *Handler {
	return &Handler{
		pipeline: pipeline,
		log:      logger.WithComponent("api"),
	}
}

// Router returns the gin engine with every route registered. Requests from allowedOrigins
// are accepted cross-origin; an empty list disables CORS.
func (h *Handler) Router(allowedOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.requestLogger())
	if len(allowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins: allowedOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}

	api := router.Group("/api")
	{
		api.GET("/dashboard", h.Dashboard)

		api.GET("/clients", h.ClientSummary)
		api.GET("/clients/:id", h.ClientDetails)

		api.GET("/margins/products", h.ProductMargins)
		api.GET("/margins/clients", h.ClientMargins)

		api.POST("/reports", h.Report)
		api.POST("/notes", h.AddNote)

		api.POST("/imports/invoices", h.ImportInvoices)
		api.POST("/imports/products", h.ImportProducts)
	}
	return router
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.log.Info().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("Request served")
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
	}
	c.JSON(status, NewErrorResponse(status, models.UserMessage(err), err.Error()))
}

// ClientSummary lists clients with an amount due.
// Query: sortBy (totalDue, totalPaid, totalOverdue, invoiceCount), limit.
func (h *Handler) ClientSummary(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, NewErrorResponse(http.StatusBadRequest, models.UserMessage(models.ErrInvalidRequest), "limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	summary, err := h.pipeline.GetClientSummary(c.Request.Context(), c.Query("sortBy"), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ClientDetails returns one client with invoices and notes.
func (h *Handler) ClientDetails(c *gin.Context) {
	client, err := h.pipeline.GetClientDetails(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

// ProductMargins returns the product margin overview.
func (h *Handler) ProductMargins(c *gin.Context) {
	overview, err := h.pipeline.GetProductMarginOverview(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

// ClientMargins returns the client margin overview.
func (h *Handler) ClientMargins(c *gin.Context) {
	overview, err := h.pipeline.GetClientMarginOverview(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

// Dashboard returns the receivables KPIs.
func (h *Handler) Dashboard(c *gin.Context) {
	d, err := h.pipeline.GetDashboard(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// Report builds a client report. With ?write=true the report is also written to the report sheet.
func (h *Handler) Report(c *gin.Context) {
	var req report.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(http.StatusBadRequest, models.UserMessage(models.ErrInvalidRequest), err.Error()))
		return
	}

	if c.Query("write") == "true" {
		r, err := h.pipeline.WriteReport(c.Request.Context(), req)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, r)
		return
	}

	cfg, r, err := h.pipeline.BuildClientReport(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"config": cfg, "report": r})
}

// AddNote stores a note.
func (h *Handler) AddNote(c *gin.Context) {
	var in services.NoteInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(http.StatusBadRequest, models.UserMessage(models.ErrInvalidRequest), err.Error()))
		return
	}

	note, err := h.pipeline.AddNote(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, note)
}

// ImportInvoices imports the receivables upload sheet.
func (h *Handler) ImportInvoices(c *gin.Context) {
	stats, err := h.pipeline.ImportInvoices(c.Request.Context(), nil, c.Query("sheet"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ImportProducts imports the product-income upload sheet.
func (h *Handler) ImportProducts(c *gin.Context) {
	stats, err := h.pipeline.ImportProducts(c.Request.Context(), nil, c.Query("sheet"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
