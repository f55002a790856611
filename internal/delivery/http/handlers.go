package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ilindan-dev/notification-engine/internal/domain/apperr"
	"github.com/ilindan-dev/notification-engine/internal/domain/model"
	repo "github.com/ilindan-dev/notification-engine/internal/domain/repository"
	"github.com/ilindan-dev/notification-engine/internal/notifiers"
	"github.com/rs/zerolog"
)

// Dispatcher is the part of notifiers.Dispatcher the handlers use.
type Dispatcher interface {
	Dispatch(ctx context.Context, n *model.Notification) (*model.Outcome, error)
	DispatchAll(ctx context.Context, ns []*model.Notification) []notifiers.DispatchResult
}

// TemplateReader is the read side of service.TemplateStore.
type TemplateReader interface {
	Get(ctx context.Context, id string) (*model.Template, bool, error)
	List(ctx context.Context) ([]*model.Template, error)
	ListByType(ctx context.Context, typ model.Channel) ([]*model.Template, error)
}

type Handlers struct {
	dispatcher Dispatcher
	templates  TemplateReader
	queue      repo.NotificationQueue
	logger     zerolog.Logger
}

// NewHandlers creates a new instance of Handlers.
func NewHandlers(dispatcher Dispatcher, templates TemplateReader, queue repo.NotificationQueue, logger *zerolog.Logger) *Handlers {
	return &Handlers{
		dispatcher: dispatcher,
		templates:  templates,
		queue:      queue,
		logger:     logger.With().Str("layer", "http_handler").Logger(),
	}
}

// RegisterRoutes sets up the routing for the notification API.
func (h *Handlers) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.POST("/notifications", h.EnqueueNotification)
		api.POST("/notifications/dispatch", h.DispatchNotification)
		api.POST("/notifications/fanout", h.FanoutNotification)
		api.GET("/templates", h.ListTemplates)
		api.GET("/templates/:id", h.GetTemplateByID)
	}
}

// DispatchNotification renders and sends one notification synchronously.
func (h *Handlers) DispatchNotification(c *gin.Context) {
	var req DispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn().Err(err).Msg("invalid request body")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Kind: apperr.KindValidation})
		return
	}

	outcome, err := h.dispatcher.Dispatch(c.Request.Context(), req.toNotification())
	if err != nil {
		resp := ErrorResponse{Error: err.Error(), Kind: apperr.KindOf(err)}
		if outcome != nil {
			o := toOutcomeResponse(outcome)
			resp.Outcome = &o
		}
		c.JSON(statusFor(err), resp)
		return
	}

	c.JSON(http.StatusOK, toOutcomeResponse(outcome))
}

// FanoutNotification dispatches several notifications concurrently.
// Per-notification failures are part of the response, not an HTTP error.
func (h *Handlers) FanoutNotification(c *gin.Context) {
	var req FanoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn().Err(err).Msg("invalid request body")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Kind: apperr.KindValidation})
		return
	}

	ns := make([]*model.Notification, len(req.Notifications))
	for i, r := range req.Notifications {
		ns[i] = r.toNotification()
	}

	results := h.dispatcher.DispatchAll(c.Request.Context(), ns)

	resp := FanoutResponse{Results: make([]OutcomeResponse, len(results))}
	for i, r := range results {
		resp.Results[i] = toOutcomeResponse(r.Outcome)
	}
	c.JSON(http.StatusOK, resp)
}

// EnqueueNotification publishes a notification to the dispatch queue for the worker.
func (h *Handlers) EnqueueNotification(c *gin.Context) {
	var req DispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn().Err(err).Msg("invalid request body")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Kind: apperr.KindValidation})
		return
	}

	n := req.toNotification()
	if err := h.queue.Publish(c.Request.Context(), n); err != nil {
		h.logger.Error().Err(err).Str("notification_id", n.ID).Msg("failed to enqueue notification")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "failed to enqueue notification", Kind: string(apperr.KindTransient)})
		return
	}

	c.JSON(http.StatusAccepted, EnqueueResponse{ID: n.ID, Status: string(n.Status)})
}

// ListTemplates returns all templates, optionally filtered by ?type=.
func (h *Handlers) ListTemplates(c *gin.Context) {
	var (
		templates []*model.Template
		err       error
	)
	if typ := c.Query("type"); typ != "" {
		templates, err = h.templates.ListByType(c.Request.Context(), model.Channel(typ))
	} else {
		templates, err = h.templates.List(c.Request.Context())
	}
	if err != nil {
		h.writeError(c, err, "failed to list templates")
		return
	}

	resp := make([]TemplateResponse, 0, len(templates))
	for _, t := range templates {
		resp = append(resp, toTemplateResponse(t))
	}
	c.JSON(http.StatusOK, resp)
}

// GetTemplateByID handles the HTTP request to retrieve a template.
func (h *Handlers) GetTemplateByID(c *gin.Context) {
	id := c.Param("id")

	t, ok, err := h.templates.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err, "failed to retrieve template")
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: apperr.NewNotFoundError("template", id).Error(), Kind: apperr.KindNotFound})
		return
	}

	c.JSON(http.StatusOK, toTemplateResponse(t))
}

func (h *Handlers) writeError(c *gin.Context, err error, msg string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error().Err(err).Msg(msg)
		c.JSON(status, ErrorResponse{Error: msg, Kind: apperr.KindInternal})
		return
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Kind: apperr.KindOf(err)})
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindProtected:
		return http.StatusConflict
	case string(apperr.KindTransient):
		return http.StatusServiceUnavailable
	case string(apperr.KindPermanent):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
