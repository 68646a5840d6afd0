package router

import (
	"database/sql"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	chadapters "pet-grooming-scheduler/internal/adapters/channels"
	mem "pet-grooming-scheduler/internal/adapters/storage/memory"
	pg "pet-grooming-scheduler/internal/adapters/storage/postgres"
	"pet-grooming-scheduler/internal/domain/notifications"
	"pet-grooming-scheduler/internal/domain/scheduling"
	"pet-grooming-scheduler/internal/middleware"
	"pet-grooming-scheduler/internal/platform/logger"
	"pet-grooming-scheduler/internal/ports/auth"
	channelports "pet-grooming-scheduler/internal/ports/channels"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, intenta DB_DSN y cae a in-memory.
	DB *sql.DB

	// Opcional: reglas de notificación. Si es nil, intenta RULES_FILE
	// y cae a las default.
	Rules *notifications.RuleTable

	// Opcional: providers por canal. Si falta alguno, se cubre con el
	// provider de log (modo dev).
	Providers map[notifications.Channel]channelports.Provider

	Logger logger.Logger
}

// App agrupa lo que arma el wiring: el handler HTTP y el barrido de
// notificaciones (el main decide cuándo arrancarlo y frenarlo).
type App struct {
	Handler http.Handler
	Sweeper *notifications.Sweeper
}

func NewApp(opts Options) App {
	log := opts.Logger
	if log == nil {
		log = logger.NewFromEnv()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	var (
		schedulingsRepo   scheduling.Repository
		notificationsRepo notifications.Repository
	)

	// Si no te pasan DB explícita, intenta por env (para dev/handoff)
	db := opts.DB
	if db == nil {
		if dsn := os.Getenv("DB_DSN"); dsn != "" {
			opened, err := pg.Open(dsn)
			if err == nil {
				db = opened
			}
		}
	}

	if db != nil {
		schedulingsRepo = pg.NewSchedulingsRepo(db)
		notificationsRepo = pg.NewNotificationsRepo(db)
	} else {
		schedulingsRepo = mem.NewSchedulingsRepo()
		notificationsRepo = mem.NewNotificationsRepo()
	}

	rules := opts.Rules
	if rules == nil {
		if path := os.Getenv("RULES_FILE"); path != "" {
			loaded, err := notifications.LoadRuleTable(path)
			if err != nil {
				log.Error("rules file ignored", map[string]any{"path": path, "err": err.Error()})
			} else {
				rules = loaded
			}
		}
	}
	if rules == nil {
		rules = notifications.DefaultRuleTable()
	}

	providers := fillProviders(opts.Providers, log)

	dispatcher := notifications.NewDispatcher(notificationsRepo, rules, providers, log)
	events := notifications.NewSchedulingEvents(dispatcher, nil, log)

	// Services por módulo
	schedulingSvc := scheduling.NewService(schedulingsRepo, events)
	notificationsSvc := notifications.NewService(notificationsRepo)

	// Rutas por módulo
	scheduling.RegisterRoutes(r, schedulingSvc)
	notifications.RegisterRoutes(r, notificationsSvc)

	sweeper := notifications.NewSweeper(dispatcher, log, os.Getenv("SWEEP_SCHEDULE"), 0)

	return App{Handler: r, Sweeper: sweeper}
}

// NewRouter es el atajo para tests y para quien no necesita el sweeper.
func NewRouter(opts Options) http.Handler {
	return NewApp(opts).Handler
}

// fillProviders completa los canales faltantes. Con CHANNEL_GATEWAY_URL
// los canales van por el gateway HTTP; sin gateway, provider de log.
func fillProviders(in map[notifications.Channel]channelports.Provider, log logger.Logger) map[notifications.Channel]channelports.Provider {
	out := map[notifications.Channel]channelports.Provider{}
	for ch, p := range in {
		out[ch] = p
	}

	if base := os.Getenv("CHANNEL_GATEWAY_URL"); base != "" {
		cfg := chadapters.Config{
			BaseURL:       base,
			APIKey:        os.Getenv("CHANNEL_GATEWAY_KEY"),
			Timeout:       10 * time.Second,
			RatePerSecond: 5,
			Burst:         10,
		}

		builders := map[notifications.Channel]func(chadapters.Config) (channelports.Provider, error){
			notifications.ChannelEmail:    chadapters.NewEmailProvider,
			notifications.ChannelSMS:      chadapters.NewSMSProvider,
			notifications.ChannelWhatsApp: chadapters.NewWhatsAppProvider,
		}
		for ch, build := range builders {
			if _, ok := out[ch]; ok {
				continue
			}
			p, err := build(cfg)
			if err != nil {
				log.Error("channel gateway provider", map[string]any{"channel": string(ch), "err": err.Error()})
				continue
			}
			out[ch] = p
		}
	}

	for _, ch := range []notifications.Channel{
		notifications.ChannelEmail,
		notifications.ChannelSMS,
		notifications.ChannelWhatsApp,
	} {
		if _, ok := out[ch]; !ok {
			out[ch] = chadapters.NewLogProvider(string(ch), log)
		}
	}
	return out
}
