package automation

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shifthunter/backend/internal/matcher"
)

// ErrCaptcha is returned by a Provider when the platform interposes a
// captcha challenge. The runner may solve it and retry.
var ErrCaptcha = errors.New("captcha challenge encountered")

// Provider is the gig-platform client the runner polls through. The
// production implementation drives the platform's private API; tests
// and local development use StubProvider.
type Provider interface {
	// Login establishes or refreshes platform credentials for the
	// linked account. Safe to call repeatedly.
	Login(ctx context.Context, accountID string) error

	// FetchOffers returns the currently visible shift offers at the
	// given location codes.
	FetchOffers(ctx context.Context, accountID string, locationCodes []string) ([]matcher.Candidate, error)

	// AcceptOffer claims an offer on the platform. May return
	// ErrCaptcha.
	AcceptOffer(ctx context.Context, accountID string, c matcher.Candidate) error

	// SolveCaptcha attempts to clear an active captcha challenge.
	SolveCaptcha(ctx context.Context, accountID string) error
}

// StubProvider is a no-op Provider. It never surfaces offers, so the
// session machinery runs end to end without touching a real platform.
type StubProvider struct {
	log *slog.Logger
}

func NewStubProvider(log *slog.Logger) *StubProvider {
	return &StubProvider{log: log}
}

func (p *StubProvider) Login(ctx context.Context, accountID string) error {
	p.log.Debug("stub login", "account_id", accountID)
	return nil
}

func (p *StubProvider) FetchOffers(ctx context.Context, accountID string, locationCodes []string) ([]matcher.Candidate, error) {
	p.log.Debug("stub fetch offers", "account_id", accountID, "locations", len(locationCodes))
	return nil, nil
}

func (p *StubProvider) AcceptOffer(ctx context.Context, accountID string, c matcher.Candidate) error {
	p.log.Debug("stub accept offer", "account_id", accountID, "location", c.LocationCode)
	return nil
}

func (p *StubProvider) SolveCaptcha(ctx context.Context, accountID string) error {
	p.log.Debug("stub solve captcha", "account_id", accountID)
	return nil
}
