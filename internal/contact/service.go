package contact

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Message is an accepted contact form submission.
type Message struct {
	ID            string
	Name          string
	Email         string
	Subject       string
	Body          string
	ClientAddress string
	CreatedAt     time.Time
}

type Store interface {
	Save(ctx context.Context, msg *Message) error
}

type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

type Response struct {
	Success bool     `json:"success,omitempty"`
	Error   string   `json:"error,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

type Result struct {
	Status      int
	Response    Response
	ClearCookie bool
}

type Service struct {
	store        Store
	sender       Sender
	challengeTTL time.Duration
	logger       *slog.Logger
	now          func() time.Time
}

func NewService(store Store, sender Sender, challengeTTL time.Duration, logger *slog.Logger) *Service {
	if challengeTTL <= 0 {
		challengeTTL = DefaultChallengeTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, sender: sender, challengeTTL: challengeTTL, logger: logger, now: time.Now}
}

func (s *Service) ChallengeTTL() time.Duration {
	return s.challengeTTL
}

// IssueChallenge draws a new challenge and returns the cookie value holding
// its answer.
func (s *Service) IssueChallenge() (Challenge, string) {
	challenge := NewChallenge()
	return challenge, challenge.CookieValue(s.now().Add(s.challengeTTL))
}

// Handle runs a submission through the honeypot, the challenge and field
// validation, then records and delivers it.
func (s *Service) Handle(ctx context.Context, req Request, cookieValue string, clientAddress string) Result {
	if req.IsBot() {
		s.logger.Debug("contact honeypot triggered", slog.String("ip", clientAddress))
		return Result{Status: http.StatusOK, Response: Response{Success: true}}
	}

	expected, ok := ParseCookieValue(cookieValue, s.now())
	if !ok {
		return Result{Status: http.StatusBadRequest, Response: Response{Error: ErrKeyVerificationExpired}}
	}
	if !req.MathAnswer.Valid || req.MathAnswer.Value != expected {
		return Result{Status: http.StatusBadRequest, Response: Response{Error: ErrKeyInvalidAnswer}, ClearCookie: true}
	}

	if keys := req.Validate(); len(keys) > 0 {
		return Result{
			Status:      http.StatusBadRequest,
			Response:    Response{Error: ErrKeyValidation, Errors: keys},
			ClearCookie: true,
		}
	}

	msg := &Message{
		ID:            uuid.NewString(),
		Name:          req.Name,
		Email:         req.Email,
		Subject:       req.Subject,
		Body:          req.Message,
		ClientAddress: clientAddress,
		CreatedAt:     s.now().UTC(),
	}

	if s.store != nil {
		if err := s.store.Save(ctx, msg); err != nil {
			s.logger.Warn("failed to record contact message",
				slog.String("id", msg.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	if err := s.sender.Send(ctx, msg); err != nil {
		s.logger.Error("failed to deliver contact message",
			slog.String("id", msg.ID),
			slog.String("error", err.Error()),
		)
		return Result{Status: http.StatusInternalServerError, Response: Response{Error: errDeliveryFailed}, ClearCookie: true}
	}

	s.logger.Info("contact message delivered", slog.String("id", msg.ID))
	return Result{Status: http.StatusOK, Response: Response{Success: true}, ClearCookie: true}
}

// Unexpected is the response for requests that could not be read at all.
func Unexpected() Result {
	return Result{Status: http.StatusInternalServerError, Response: Response{Error: errUnexpected}}
}
