package automation

import (
	"context"
	"errors"
	"time"

	"github.com/shifthunter/backend/internal/app"
	"github.com/shifthunter/backend/internal/db"
	"github.com/shifthunter/backend/internal/matcher"
	"github.com/shifthunter/backend/internal/repository"
	"github.com/shifthunter/backend/internal/service/search"
	"github.com/shifthunter/backend/internal/utils/weekwindow"
)

// Runner drives every running search session: on each tick it polls
// the platform for offers at the user's configured locations, runs the
// preference checks, and claims matching shifts.
//
// Per-user poll cadence follows the configured strategy, so the tick
// interval only bounds how often cadences are re-evaluated.
type Runner struct {
	appCtx   *app.AppContext
	search   *search.Service
	sessions *repository.SessionRepository
	users    *repository.UserRepository
	provider Provider

	tick     time.Duration
	lastPoll map[uint64]time.Time
	now      func() time.Time
}

func NewRunner(appCtx *app.AppContext, searchSvc *search.Service, provider Provider) *Runner {
	return &Runner{
		appCtx:   appCtx,
		search:   searchSvc,
		sessions: repository.NewSessionRepository(appCtx.DB),
		users:    repository.NewUserRepository(appCtx.DB),
		provider: provider,
		tick:     appCtx.Config.Automation.Tick,
		lastPoll: make(map[uint64]time.Time),
		now:      time.Now,
	}
}

// Run blocks until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) {
	r.pollAll(ctx)

	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.pollAll(ctx)
		}
	}
}

func (r *Runner) pollAll(ctx context.Context) {
	running, err := r.sessions.ListRunning(ctx)
	if err != nil {
		r.appCtx.Logger.Error("list running sessions", "error", err)
		return
	}

	// drop cadence state for users with no running session, the map
	// would otherwise grow for the process lifetime
	active := make(map[uint64]struct{}, len(running))
	for i := range running {
		active[running[i].UserID] = struct{}{}
	}
	for userID := range r.lastPoll {
		if _, ok := active[userID]; !ok {
			delete(r.lastPoll, userID)
		}
	}

	for i := range running {
		if ctx.Err() != nil {
			return
		}
		r.pollSession(ctx, &running[i])
	}
}

func (r *Runner) pollSession(ctx context.Context, session *db.SearchSession) {
	log := r.appCtx.Logger.With("user_id", session.UserID, "session_id", session.ID)

	prefs, settings, err := r.search.Preferences(ctx, session.UserID)
	if err != nil {
		log.Error("load preferences", "error", err)
		return
	}

	now := r.now()
	if now.Sub(r.lastPoll[session.UserID]) < r.cadence(settings.Strategy) {
		return
	}
	r.lastPoll[session.UserID] = now

	if !weekwindow.WithinSchedule(settings.Schedule, settings.Timezone, now) {
		log.Debug("outside search schedule")
		return
	}

	user, err := r.users.GetByID(ctx, session.UserID)
	if err != nil {
		log.Error("load user", "error", err)
		return
	}
	if user.ExternalAccountID == "" {
		log.Warn("session running without a linked account")
		return
	}

	if err := r.provider.Login(ctx, user.ExternalAccountID); err != nil {
		log.Error("platform login", "error", err)
		return
	}

	candidates, err := r.provider.FetchOffers(ctx, user.ExternalAccountID, locationCodes(prefs))
	if err != nil {
		log.Error("fetch offers", "error", err)
		return
	}

	for _, c := range candidates {
		dec := matcher.Evaluate(prefs, c, r.now())

		if dec.Accept {
			if err := r.acceptOffer(ctx, user.ExternalAccountID, c, settings.AutoSolveCaptcha); err != nil {
				// the offer stays undecided, it may come round on the
				// next poll if still available
				log.Error("accept offer", "location", c.LocationCode, "error", err)
				continue
			}
		}

		session, err = r.search.RecordDecision(ctx, session, c, dec)
		if err != nil {
			log.Error("record decision", "location", c.LocationCode, "error", err)
			return
		}
		if session.Status != db.SessionRunning {
			log.Info("session stopped after accepted shift")
			return
		}
	}
}

// acceptOffer claims an offer, clearing one captcha challenge along the
// way when auto-solving is enabled.
func (r *Runner) acceptOffer(ctx context.Context, accountID string, c matcher.Candidate, autoSolve bool) error {
	err := r.provider.AcceptOffer(ctx, accountID, c)
	if !errors.Is(err, ErrCaptcha) {
		return err
	}
	if !autoSolve {
		return err
	}
	if err := r.provider.SolveCaptcha(ctx, accountID); err != nil {
		return err
	}
	return r.provider.AcceptOffer(ctx, accountID, c)
}

func (r *Runner) cadence(strategy string) time.Duration {
	if strategy == db.StrategyShortBurst {
		return r.appCtx.Config.Automation.ShortInterval
	}
	return r.appCtx.Config.Automation.SteadyInterval
}

func locationCodes(prefs matcher.Preferences) []string {
	codes := make([]string, 0, len(prefs.Locations))
	for _, rule := range prefs.Locations {
		codes = append(codes, rule.Code)
	}
	return codes
}
