package notifiers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ilindan-dev/notification-engine/internal/domain/apperr"
	"github.com/ilindan-dev/notification-engine/internal/domain/model"
	"github.com/ilindan-dev/notification-engine/internal/metrics"
	"github.com/ilindan-dev/notification-engine/internal/render"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/ilindan-dev/notification-engine/internal/notifiers"

// TemplateLookup is the read side of the template store.
type TemplateLookup interface {
	Get(ctx context.Context, id string) (*model.Template, bool, error)
}

// DispatchResult pairs one input notification with its outcome.
type DispatchResult struct {
	Notification *model.Notification
	Outcome      *model.Outcome
	Err          error
}

// Dispatcher renders templates and routes notifications to the adapter serving their channel.
type Dispatcher struct {
	templates TemplateLookup
	notifiers map[model.Channel]Notifier
	tracer    trace.Tracer
	logger    zerolog.Logger
}

// NewDispatcher creates a Dispatcher. A later notifier replaces an earlier one for the same channel.
func NewDispatcher(templates TemplateLookup, logger *zerolog.Logger, notifiers ...Notifier) *Dispatcher {
	log := logger.With().Str("component", "dispatcher").Logger()

	notifiersMap := make(map[model.Channel]Notifier, len(notifiers))
	for _, n := range notifiers {
		notifiersMap[n.Channel()] = n
		log.Info().Str("channel", string(n.Channel())).Msg("notifier registered")
	}

	return &Dispatcher{
		templates: templates,
		notifiers: notifiersMap,
		tracer:    otel.Tracer(tracerName),
		logger:    log,
	}
}

// Dispatch renders the referenced template, if any, and hands the notification to its channel adapter.
// The caller's notification is never modified. The outcome is non-nil whenever n is non-nil.
func (d *Dispatcher) Dispatch(ctx context.Context, n *model.Notification) (*model.Outcome, error) {
	if n == nil {
		return nil, apperr.NewValidationError("notification", "is required")
	}

	ctx, span := d.tracer.Start(ctx, "notifiers.Dispatch", trace.WithAttributes(
		attribute.String("notification.id", n.ID),
		attribute.String("notification.channel", string(n.Channel)),
		attribute.String("notification.template_id", n.TemplateID),
	))
	defer span.End()

	start := time.Now()
	outcome, err := d.dispatch(ctx, n)

	channel := string(n.Channel)
	if !n.Channel.Valid() {
		channel = "unknown"
	}
	metrics.DispatchDuration.WithLabelValues(channel).Observe(time.Since(start).Seconds())
	metrics.NotificationsDispatched.WithLabelValues(channel, string(outcome.Result)).Inc()

	if err != nil {
		kind := apperr.KindOf(err)
		metrics.DispatchFailures.WithLabelValues(channel, kind).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		d.logger.Warn().Err(err).Str("notification_id", n.ID).Str("channel", channel).Str("kind", kind).Msg("dispatch failed")
		return outcome, err
	}

	span.SetAttributes(attribute.String("notification.result", string(outcome.Result)))
	return outcome, nil
}

func (d *Dispatcher) dispatch(ctx context.Context, n *model.Notification) (*model.Outcome, error) {
	prepared, err := d.prepare(ctx, n)
	if err != nil {
		return model.Failed(n, apperr.KindOf(err), err), err
	}

	notifier, ok := d.notifiers[prepared.Channel]
	if !ok {
		d.logger.Error().Str("channel", string(prepared.Channel)).Msg("no notifier found for channel")
		err := apperr.WrapValidation("channel", fmt.Sprintf("no notifier for channel %q", prepared.Channel), ErrUnsupportedChannel)
		return model.Failed(n, apperr.KindValidation, err), err
	}

	outcome, err := notifier.Send(ctx, prepared)
	if outcome == nil {
		outcome = model.Failed(prepared, apperr.KindOf(err), err)
	}
	return outcome, err
}

// prepare returns a copy of n with subject and message rendered from its template.
func (d *Dispatcher) prepare(ctx context.Context, n *model.Notification) (*model.Notification, error) {
	prepared := n.Clone()
	if n.TemplateID == "" {
		return prepared, nil
	}

	tmpl, ok, err := d.templates.Get(ctx, n.TemplateID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NewNotFoundError("template", n.TemplateID)
	}
	if tmpl.Type != n.Channel {
		return nil, apperr.WrapValidation("channel",
			fmt.Sprintf("template %s is %s, notification is %s", tmpl.ID, tmpl.Type, n.Channel), ErrChannelMismatch)
	}

	prepared.Subject = render.Render(tmpl.Subject, n.TemplateData)
	prepared.Message = render.Render(tmpl.Body, n.TemplateData)
	if prepared.Category == "" {
		prepared.Category = tmpl.Category
	}

	if missing := render.Unresolved(tmpl.Subject+"\n"+tmpl.Body, n.TemplateData); len(missing) > 0 {
		d.logger.Warn().Str("notification_id", n.ID).Str("template_id", tmpl.ID).Strs("placeholders", missing).Msg("unresolved template placeholders")
	}
	return prepared, nil
}

// DispatchAll dispatches every notification in its own goroutine and waits for all of them.
// Results are index-aligned with ns. A failure, or a panic, in one dispatch does not affect the others.
func (d *Dispatcher) DispatchAll(ctx context.Context, ns []*model.Notification) []DispatchResult {
	results := make([]DispatchResult, len(ns))

	var wg sync.WaitGroup
	for i, n := range ns {
		wg.Add(1)
		go func(i int, n *model.Notification) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					err := fmt.Errorf("dispatch panicked: %v", r)
					d.logger.Error().Err(err).Int("index", i).Msg("recovered from panic in dispatch")
					var outcome *model.Outcome
					if n != nil {
						outcome = model.Failed(n, apperr.KindInternal, err)
					}
					results[i] = DispatchResult{Notification: n, Outcome: outcome, Err: err}
				}
			}()
			outcome, err := d.Dispatch(ctx, n)
			results[i] = DispatchResult{Notification: n, Outcome: outcome, Err: err}
		}(i, n)
	}
	wg.Wait()

	return results
}
