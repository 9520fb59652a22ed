package fcm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/phrazzld/scry-worker/internal/config"
	"github.com/phrazzld/scry-worker/internal/notify"
	"github.com/phrazzld/scry-worker/internal/platform/logger"
	"google.golang.org/api/option"
)

// MaxTokensPerBatch is the FCM limit for one multicast request.
const MaxTokensPerBatch = 500

// messagingClient is the part of *messaging.Client the gateway uses.
type messagingClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// Gateway sends notifications through FCM.
type Gateway struct {
	client   messagingClient
	classify func(error) error
	logger   *slog.Logger
}

var _ notify.Gateway = (*Gateway)(nil)

// NewGateway creates a Gateway for cfg.ProjectID. Credentials come from
// cfg.CredentialsFile when set, otherwise from application default
// credentials.
func NewGateway(ctx context.Context, cfg config.NotifyConfig, logger *slog.Logger) (*Gateway, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create messaging client: %w", err)
	}

	return newGateway(client, logger), nil
}

func newGateway(client messagingClient, logger *slog.Logger) *Gateway {
	return &Gateway{
		client:   client,
		classify: classifyError,
		logger:   logger.With("component", "fcm_gateway"),
	}
}

// SendToMany multicasts msg, splitting tokens into batches of
// MaxTokensPerBatch. Results keep the order of tokens. A batch that fails as
// a whole marks each of its tokens with that error.
func (g *Gateway) SendToMany(ctx context.Context, tokens []string, msg notify.Message) ([]notify.SendResult, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	log := logger.FromContextOrDefault(ctx, g.logger)

	results := make([]notify.SendResult, 0, len(tokens))
	for start := 0; start < len(tokens); start += MaxTokensPerBatch {
		end := min(start+MaxTokensPerBatch, len(tokens))
		batch := tokens[start:end]

		resp, err := g.client.SendEachForMulticast(ctx, multicastMessage(batch, msg))
		if err != nil {
			if start == 0 && ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.WarnContext(ctx, "multicast batch failed", "batch_size", len(batch), "error", err)
			for range batch {
				results = append(results, notify.SendResult{Err: g.classify(err)})
			}
			continue
		}

		results = append(results, g.batchResults(batch, resp)...)
		log.DebugContext(ctx, "multicast batch sent",
			"batch_size", len(batch),
			"success_count", resp.SuccessCount,
			"failure_count", resp.FailureCount)
	}
	return results, nil
}

func (g *Gateway) batchResults(batch []string, resp *messaging.BatchResponse) []notify.SendResult {
	out := make([]notify.SendResult, len(batch))
	for i := range batch {
		if resp == nil || i >= len(resp.Responses) || resp.Responses[i] == nil {
			out[i] = notify.SendResult{Err: errors.New("missing response from gateway")}
			continue
		}
		r := resp.Responses[i]
		if r.Success {
			out[i] = notify.SendResult{MessageID: r.MessageID}
			continue
		}
		err := r.Error
		if err == nil {
			err = errors.New("delivery failed")
		}
		out[i] = notify.SendResult{Err: g.classify(err)}
	}
	return out
}

// SendToOne sends msg to a single device token.
func (g *Gateway) SendToOne(ctx context.Context, token string, msg notify.Message) (string, error) {
	id, err := g.client.Send(ctx, singleMessage(token, msg))
	if err != nil {
		return "", g.classify(err)
	}
	return id, nil
}

func notification(msg notify.Message) *messaging.Notification {
	return &messaging.Notification{Title: msg.Title, Body: msg.Body}
}

func webpush(msg notify.Message) *messaging.WebpushConfig {
	if msg.Link == "" {
		return nil
	}
	return &messaging.WebpushConfig{
		FCMOptions: &messaging.WebpushFCMOptions{Link: msg.Link},
	}
}

func multicastMessage(tokens []string, msg notify.Message) *messaging.MulticastMessage {
	return &messaging.MulticastMessage{
		Tokens:       tokens,
		Data:         msg.Data,
		Notification: notification(msg),
		Webpush:      webpush(msg),
	}
}

func singleMessage(token string, msg notify.Message) *messaging.Message {
	return &messaging.Message{
		Token:        token,
		Data:         msg.Data,
		Notification: notification(msg),
		Webpush:      webpush(msg),
	}
}

// classifyError wraps FCM token errors with the matching notify sentinel.
func classifyError(err error) error {
	switch {
	case err == nil:
		return nil
	case messaging.IsUnregistered(err):
		return fmt.Errorf("%w: %v", notify.ErrUnregisteredToken, err)
	case messaging.IsInvalidArgument(err):
		return fmt.Errorf("%w: %v", notify.ErrInvalidToken, err)
	default:
		return err
	}
}
