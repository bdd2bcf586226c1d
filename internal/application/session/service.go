package session

import (
	"context"

	domsession "github.com/Zhima-Mochi/minishop-storefront/internal/domain/session"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"
)

const (
	sessionService = "session-service"
	useCaseLogout  = "session.logout"
)

type Service struct {
	policy     domsession.Policy
	log        observability.Logger
	reqCounter observability.Counter
}

func NewService(policy domsession.Policy, tel observability.Observability) *Service {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Service{
		policy:     policy,
		log:        tel.Logger().With(observability.F("service", sessionService)),
		reqCounter: tel.Metrics().Counter(observability.MUsecaseRequests),
	}
}

// Logout returns the cookie that clears the caller's session. It has no side
// effects beyond that, so repeating it is harmless.
func (s *Service) Logout(ctx context.Context) domsession.Cookie {
	cookie := s.policy.Cleared()

	s.reqCounter.Add(1,
		observability.L("use_case", useCaseLogout),
		observability.L("outcome", "success"),
	)
	logctx.FromOr(ctx, s.log).Info("session_cleared",
		observability.F("use_case", useCaseLogout),
		observability.F("cookie", cookie.Name),
		observability.F("secure", cookie.Secure),
	)
	return cookie
}
