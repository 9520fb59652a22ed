package notify

import (
	"context"
	"errors"

	"github.com/phrazzld/scry-worker/internal/domain"
)

// Per-token delivery errors a Gateway reports. Gateways wrap the underlying
// provider error with one of these when it applies.
var (
	// ErrUnregisteredToken means the token is no longer valid and will never
	// be again. Such tokens may be pruned.
	ErrUnregisteredToken = errors.New("delivery token is unregistered")

	// ErrInvalidToken means the gateway rejected the token's format.
	ErrInvalidToken = errors.New("delivery token is invalid")
)

// DefaultBodyMaxLength bounds notification bodies.
const DefaultBodyMaxLength = 100

// Recipients selects who receives a notification: one user, or every
// member of the admin pool.
type Recipients struct {
	UserID    string
	AdminPool bool
}

// ToUser addresses a single user.
func ToUser(userID string) Recipients {
	return Recipients{UserID: userID}
}

// ToAdmins addresses the admin pool.
func ToAdmins() Recipients {
	return Recipients{AdminPool: true}
}

// String describes the recipients for logs.
func (r Recipients) String() string {
	if r.AdminPool {
		return "admin_pool"
	}
	return "user:" + r.UserID
}

// Request is one notification to dispatch.
type Request struct {
	Recipients Recipients
	Title      string
	Body       string
	// Link is an optional deep-link opened when the notice is tapped.
	Link string
	// Data is delivered alongside the notice as key/value pairs.
	Data map[string]string
}

// Message is the gateway-facing form of a Request.
type Message struct {
	Title string
	Body  string
	Link  string
	Data  map[string]string
}

// SendResult is a gateway's answer for one token.
type SendResult struct {
	MessageID string
	Err       error
}

// Gateway is the push notification provider.
type Gateway interface {
	// SendToMany sends msg to every token and returns one result per token,
	// in the same order. A non-nil error means no token was attempted.
	SendToMany(ctx context.Context, tokens []string, msg Message) ([]SendResult, error)

	// SendToOne sends msg to a single token.
	SendToOne(ctx context.Context, token string, msg Message) (string, error)
}

// TokenSource resolves recipients to their registered tokens.
type TokenSource interface {
	ListByUser(ctx context.Context, userID string) ([]*domain.RecipientToken, error)
	ListAdmins(ctx context.Context) ([]*domain.RecipientToken, error)
	DeleteByToken(ctx context.Context, token string) error
}

// Outcome is the delivery result for one token.
type Outcome struct {
	UserID    string
	DeviceID  string
	Token     string
	MessageID string
	Err       error
}

// Delivered reports whether the gateway accepted the message for this token.
func (o Outcome) Delivered() bool {
	return o.Err == nil
}

// Report summarizes one dispatch.
type Report struct {
	Recipients Recipients
	Outcomes   []Outcome
	// Pruned counts tokens removed after an unregistered outcome.
	Pruned int
}

// Attempted is the number of tokens a delivery was attempted for.
func (r *Report) Attempted() int {
	return len(r.Outcomes)
}

// Delivered is the number of successful deliveries.
func (r *Report) Delivered() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Delivered() {
			n++
		}
	}
	return n
}

// Failed is the number of failed deliveries.
func (r *Report) Failed() int {
	return r.Attempted() - r.Delivered()
}
