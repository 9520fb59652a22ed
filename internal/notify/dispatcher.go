package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/phrazzld/scry-worker/internal/domain"
	"github.com/phrazzld/scry-worker/internal/platform/logger"
	"github.com/phrazzld/scry-worker/internal/redact"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DispatcherConfig holds the dispatcher's tunables.
type DispatcherConfig struct {
	// BodyMaxLength bounds message bodies, in runes.
	BodyMaxLength int
	// PruneInvalidTokens deletes tokens the gateway reports as unregistered.
	PruneInvalidTokens bool
}

// Dispatcher fans a notification out to every token of its recipients.
type Dispatcher struct {
	tokens  TokenSource
	gateway Gateway
	config  DispatcherConfig
	tracer  trace.Tracer
	logger  *slog.Logger

	wg sync.WaitGroup
}

// NewDispatcher creates a Dispatcher. The gateway is built once at process
// start and shared by every dispatch.
func NewDispatcher(tokens TokenSource, gateway Gateway, config DispatcherConfig, logger *slog.Logger) *Dispatcher {
	if config.BodyMaxLength <= 0 {
		config.BodyMaxLength = DefaultBodyMaxLength
	}
	return &Dispatcher{
		tokens:  tokens,
		gateway: gateway,
		config:  config,
		tracer:  otel.Tracer("github.com/phrazzld/scry-worker/internal/notify"),
		logger:  logger.With("component", "notification_dispatcher"),
	}
}

// Dispatch delivers req and reports per-token outcomes. It returns an error
// only when recipients cannot be resolved or the gateway rejects the whole
// batch; individual token failures are in the Report.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (*Report, error) {
	ctx, span := d.tracer.Start(ctx, "notify.dispatch",
		trace.WithAttributes(attribute.String("notify.recipients", req.Recipients.String())))
	defer span.End()

	log := logger.FromContextOrDefault(ctx, d.logger).With("recipients", req.Recipients.String())
	report := &Report{Recipients: req.Recipients}

	tokens, err := d.resolve(ctx, req.Recipients)
	if err != nil {
		span.SetStatus(codes.Error, "resolve failed")
		return report, fmt.Errorf("failed to resolve recipient tokens: %w", err)
	}
	if len(tokens) == 0 {
		log.Info("no delivery tokens registered, skipping notification")
		return report, nil
	}

	msg := Message{
		Title: req.Title,
		Body:  domain.TruncateText(strings.TrimSpace(req.Body), d.config.BodyMaxLength),
		Link:  req.Link,
		Data:  req.Data,
	}

	if req.Recipients.AdminPool {
		err = d.sendToMany(ctx, tokens, msg, report)
	} else {
		d.sendEach(ctx, tokens, msg, report)
	}
	if err != nil {
		span.SetStatus(codes.Error, "gateway rejected batch")
		return report, err
	}

	d.prune(ctx, report, log)

	span.SetAttributes(
		attribute.Int("notify.attempted", report.Attempted()),
		attribute.Int("notify.failed", report.Failed()))
	for _, o := range report.Outcomes {
		if !o.Delivered() {
			log.Warn("notification delivery failed",
				"user_id", o.UserID,
				"device_id", o.DeviceID,
				"error", redact.Error(o.Err))
		}
	}
	log.Info("notification dispatched",
		"attempted", report.Attempted(),
		"delivered", report.Delivered(),
		"failed", report.Failed(),
		"pruned", report.Pruned)
	return report, nil
}

// DispatchAsync runs Dispatch in the background. The caller never waits on
// delivery; Wait blocks until every background dispatch has returned.
func (d *Dispatcher) DispatchAsync(ctx context.Context, req Request) {
	ctx = context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if _, err := d.Dispatch(ctx, req); err != nil {
			logger.FromContextOrDefault(ctx, d.logger).Error("notification dispatch failed",
				"recipients", req.Recipients.String(),
				"error", redact.Error(err))
		}
	}()
}

// Wait blocks until in-flight background dispatches finish or ctx ends.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// resolve returns the recipients' tokens, dropping blank and repeated ones.
func (d *Dispatcher) resolve(ctx context.Context, r Recipients) ([]*domain.RecipientToken, error) {
	var (
		tokens []*domain.RecipientToken
		err    error
	)
	switch {
	case r.AdminPool:
		tokens, err = d.tokens.ListAdmins(ctx)
	case strings.TrimSpace(r.UserID) != "":
		tokens, err = d.tokens.ListByUser(ctx, r.UserID)
	default:
		return nil, errors.New("no recipients given")
	}
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(tokens))
	unique := make([]*domain.RecipientToken, 0, len(tokens))
	for _, t := range tokens {
		if t == nil || t.Token == "" {
			continue
		}
		if _, dup := seen[t.Token]; dup {
			continue
		}
		seen[t.Token] = struct{}{}
		unique = append(unique, t)
	}
	return unique, nil
}

func (d *Dispatcher) sendToMany(ctx context.Context, tokens []*domain.RecipientToken, msg Message, report *Report) error {
	values := make([]string, len(tokens))
	for i, t := range tokens {
		values[i] = t.Token
	}

	results, err := d.gateway.SendToMany(ctx, values, msg)
	if err != nil {
		for _, t := range tokens {
			report.Outcomes = append(report.Outcomes, outcomeFor(t, SendResult{Err: err}))
		}
		return fmt.Errorf("multicast send failed: %w", err)
	}

	for i, t := range tokens {
		res := SendResult{Err: errors.New("gateway returned no result for token")}
		if i < len(results) {
			res = results[i]
		}
		report.Outcomes = append(report.Outcomes, outcomeFor(t, res))
	}
	return nil
}

func (d *Dispatcher) sendEach(ctx context.Context, tokens []*domain.RecipientToken, msg Message, report *Report) {
	for _, t := range tokens {
		id, err := d.gateway.SendToOne(ctx, t.Token, msg)
		report.Outcomes = append(report.Outcomes, outcomeFor(t, SendResult{MessageID: id, Err: err}))
	}
}

func (d *Dispatcher) prune(ctx context.Context, report *Report, log *slog.Logger) {
	if !d.config.PruneInvalidTokens {
		return
	}
	for _, o := range report.Outcomes {
		if !errors.Is(o.Err, ErrUnregisteredToken) {
			continue
		}
		if err := d.tokens.DeleteByToken(ctx, o.Token); err != nil {
			log.Warn("failed to prune unregistered token",
				"user_id", o.UserID,
				"device_id", o.DeviceID,
				"error", redact.Error(err))
			continue
		}
		report.Pruned++
	}
}

func outcomeFor(t *domain.RecipientToken, res SendResult) Outcome {
	return Outcome{
		UserID:    t.UserID,
		DeviceID:  t.DeviceID,
		Token:     t.Token,
		MessageID: res.MessageID,
		Err:       res.Err,
	}
}
