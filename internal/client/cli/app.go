// Package cli is the interactive surface of the herdlog client: a small REPL
// over the editing session, plus terminal input helpers and a console
// notification sink.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jmezger/herdlog/internal/client/api"
	"github.com/jmezger/herdlog/internal/client/config"
	"github.com/jmezger/herdlog/internal/client/identity"
	"github.com/jmezger/herdlog/internal/client/repositories"
	"github.com/jmezger/herdlog/internal/client/services"
	"github.com/jmezger/herdlog/internal/common"
	"github.com/jmezger/herdlog/internal/logging"

	_ "modernc.org/sqlite"
)

type App struct {
	config *config.Config
	repos  *repositories.Repositories
	api    api.Client
	idp    identity.Provider
	log    logging.Logger

	// session is the currently open editing session, nil between entries.
	session *services.Session

	reader *bufio.Reader
	out    io.Writer
}

func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	repos, err := repositories.InitDatabase(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	tokens := api.TokenSourceFunc(func(ctx context.Context) (string, error) {
		raw, err := repos.Metadata.Get(ctx, common.MetaKeyAccessToken)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	})

	return &App{
		config: c,
		repos:  repos,
		api:    api.NewHTTPClient(c.APIBaseURL, tokens, log),
		idp:    identity.NewTokenProvider(repos.Metadata),
		log:    log,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}, nil
}

func (a *App) Run(ctx context.Context) {
	defer a.Close()
	fmt.Fprintln(a.out, "Welcome to herdlog (type 'help' for commands)")
	runREPL(ctx, a, a.status, bufio.NewScanner(os.Stdin))
}

func (a *App) Close() {
	a.closeSession()
	_ = a.api.Close()
	_ = a.repos.DB.Close()
}

func (a *App) closeSession() {
	if a.session != nil {
		a.session.Close()
		a.session = nil
	}
}

// status is the prompt suffix: the signed-in user plus, when an entry is
// open, the draft/analysis state.
func (a *App) status() string {
	s := ""
	if user, err := a.idp.CurrentUser(context.Background()); err == nil {
		s = user.ID
	}
	if a.session != nil {
		s += " editing"
		if state := a.session.AnalysisState(); state != "idle" {
			s += " " + string(state)
		}
	}
	if s == "" {
		return ""
	}
	return fmt.Sprintf("(%s)", s)
}

func (a *App) isLoggedIn() bool {
	_, err := a.idp.CurrentUser(context.Background())
	return err == nil
}

func (a *App) sessionConfig() services.SessionConfig {
	return services.SessionConfig{
		AutosaveInterval: a.config.AutosaveInterval,
		Poller: services.PollerOptions{
			Interval: a.config.PollInterval,
			Estimate: a.config.AnalysisEstimate,
			Ceiling:  a.config.AnalysisCeiling,
		},
		Dispatch: services.DispatchConfig{
			Enabled:             a.config.AIEnabled,
			RouteIntent:         a.config.RouteIntent,
			VectorMatchCount:    a.config.VectorMatchCount,
			VectorMinSimilarity: a.config.VectorMinSimilarity,
		},
		FollowCeiling: a.config.FollowCeiling,
	}
}

func (a *App) sessionDeps() services.Deps {
	return services.Deps{
		API:      a.api,
		Identity: a.idp,
		Drafts:   a.repos.Drafts,
		Metadata: a.repos.Metadata,
		Sink:     NewConsoleSink(a.out),
		Log:      a.log,
	}
}
