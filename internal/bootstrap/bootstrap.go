package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/easylaw/easylaw-cli/internal/config"
	"github.com/easylaw/easylaw-cli/internal/core/cache"
	"github.com/easylaw/easylaw-cli/internal/core/ports"
	"github.com/easylaw/easylaw-cli/internal/core/usecase"
	"github.com/easylaw/easylaw-cli/internal/infrastructure/api"
	"github.com/easylaw/easylaw-cli/internal/infrastructure/credstore"
	"github.com/easylaw/easylaw-cli/internal/infrastructure/resilience"
	"github.com/easylaw/easylaw-cli/internal/observability/logging"
	"github.com/easylaw/easylaw-cli/internal/observability/metrics"
)

// App wires the full client: credential store, cache, resilient API
// client, session store, and the per-resource services.
type App struct {
	Config  config.Config
	Log     *slog.Logger
	Metrics *metrics.ClientMetrics
	Cache   *cache.Store

	Sessions  ports.SessionManager
	Cases     ports.CaseService
	Chat      ports.ChatService
	Documents ports.DocumentService
	Users     ports.UserDirectory
	Tracker   *usecase.StatusTracker

	newDetail func(caseID string) *usecase.DetailController
}

func New(cfg config.Config) (*App, error) {
	log := logging.New("easylaw", cfg.LogLevel)
	clientMetrics := metrics.NewClientMetrics()
	store := cache.New(cfg.CacheTTL, clientMetrics)

	creds, err := credstore.New(cfg.CredentialsPath)
	if err != nil {
		return nil, fmt.Errorf("init credential store: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	client := api.NewClient(cfg.APIBaseURL, cfg.RequestTimeout, executor, clientMetrics)

	coordinator := usecase.NewMutationCoordinator(store, clientMetrics, log)
	sessions, err := usecase.NewSessionStore(client, creds, store, coordinator, log)
	if err != nil {
		return nil, err
	}

	// The client and the session store depend on each other: the client
	// needs the token, the store must hear about rejected credentials.
	// Both hooks bind late to break the cycle.
	client.SetTokenProvider(sessions)
	client.SetAuthRejectHandler(sessions.HandleAuthRejected)

	cases := usecase.NewCaseUseCase(client, store, coordinator, sessions, log)
	chat := usecase.NewChatUseCase(client, store, coordinator, sessions, log)
	documents := usecase.NewDocumentUseCase(client, store, coordinator, sessions, cfg.UploadMaxBytes(), log)

	return &App{
		Config:  cfg,
		Log:     log,
		Metrics: clientMetrics,
		Cache:   store,

		Sessions:  sessions,
		Cases:     cases,
		Chat:      chat,
		Documents: documents,
		Users:     usecase.NewUserUseCase(client, store, coordinator, sessions, log),
		Tracker:   usecase.NewStatusTracker(client, documents, cfg.PollInterval, log),

		newDetail: func(caseID string) *usecase.DetailController {
			return usecase.NewDetailController(caseID, cases, chat, documents, store, log)
		},
	}, nil
}

// NewDetailController opens a composed view over one case.
func (a *App) NewDetailController(caseID string) *usecase.DetailController {
	return a.newDetail(caseID)
}
