package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/config"
	"quiz-attempt-service/internal/domain"
	amqppub "quiz-attempt-service/internal/infra/amqp"
	"quiz-attempt-service/internal/infra/memory"
	"quiz-attempt-service/internal/infra/mongodb"
	"quiz-attempt-service/internal/infra/postgres"
	redisstore "quiz-attempt-service/internal/infra/redis"
	"quiz-attempt-service/internal/logging"
	transport "quiz-attempt-service/internal/transport/http"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz attempt server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// components holds the backends selected by config and how to release them.
type components struct {
	quizzes   app.QuizRepository
	ledger    app.AttemptLedger
	locker    app.AttemptLocker
	publisher app.EventPublisher
	closers   []func()
}

func (c *components) close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format)

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	deps, err := buildComponents(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer deps.close()

	opts := []app.Option{
		app.WithCooldown(cfg.CooldownDuration()),
		app.WithLogger(log),
	}
	if deps.publisher != nil {
		opts = append(opts, app.WithPublisher(deps.publisher))
	}
	service := app.NewSubmissionService(deps.quizzes, deps.ledger, deps.locker, opts...)

	router := transport.NewRouter(
		transport.NewHandler(service, log, time.Now),
		transport.NewWSHandler(service, log, time.Now),
		log,
	)

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"port":             finalPort,
			"ledger":           cfg.Attempts.Ledger,
			"lock":             cfg.Attempts.Lock,
			"cooldown_minutes": service.CooldownMinutes(),
		}).Info("starting quiz attempt service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server...")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildComponents(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (*components, error) {
	deps := &components{}
	fail := func(err error) (*components, error) {
		deps.close()
		return nil, err
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		deps.closers = append(deps.closers, func() { _ = redisClient.Close() })
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fail(fmt.Errorf("ping redis: %w", err))
		}
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		p, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return fail(err)
		}
		pool = p
		deps.closers = append(deps.closers, pool.Close)
	}

	// Quiz definitions: Mongo, then Postgres, then the built-in samples.
	var loader memory.QuizLoader
	switch {
	case cfg.Mongo.URI != "":
		client, err := mongodb.Connect(ctx, cfg.Mongo.URI)
		if err != nil {
			return fail(err)
		}
		deps.closers = append(deps.closers, func() { _ = client.Disconnect(context.Background()) })
		loader = mongodb.NewQuizLoader(client.Database(cfg.Mongo.Database), cfg.Mongo.Collection)
	case pool != nil:
		loader = postgres.NewQuizLoader(pool)
	default:
		log.Warn("no quiz store configured, serving built-in sample quizzes")
		loader = memory.NewStaticQuizLoader(sampleQuizzes())
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	if redisClient != nil {
		deps.quizzes = redisstore.NewQuizRepository(redisClient, loader, config.TTLDuration(cfg.Redis.TTL, quizTTL))
	} else {
		deps.quizzes = memory.NewQuizRepository(loader, quizTTL)
	}

	switch cfg.Attempts.Ledger {
	case config.DriverPostgres:
		deps.ledger = postgres.NewAttemptLedger(pool)
	case config.DriverRedis:
		deps.ledger = redisstore.NewAttemptLedger(redisClient)
	default:
		log.Warn("attempts are kept in memory and lost on restart")
		deps.ledger = memory.NewAttemptLedger()
	}

	switch cfg.Attempts.Lock {
	case config.DriverPostgres:
		deps.locker = postgres.NewAttemptLocker(pool)
	case config.DriverRedis:
		deps.locker = redisstore.NewAttemptLocker(redisClient, config.TTLDuration(cfg.Attempts.LockTTL, 10*time.Second))
	default:
		deps.locker = memory.NewAttemptLocker()
	}

	if cfg.AMQP.URL != "" {
		publisher, err := amqppub.NewEventPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			return fail(err)
		}
		deps.closers = append(deps.closers, publisher.Close)
		deps.publisher = publisher
	}

	return deps, nil
}

// sampleQuizzes backs the service when no quiz store is configured, and seeds Postgres via migrate --seed.
func sampleQuizzes() map[string]domain.Quiz {
	material := "material-1"
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:    "quiz-1",
			Title: "Warm-up arithmetic",
			Questions: []domain.Question{
				{
					ID:    "q1",
					Text:  "What is 2 + 2?",
					Order: 1,
					Options: []domain.Option{
						{ID: "o1", Text: "3"},
						{ID: "o2", Text: "4", Correct: true},
						{ID: "o3", Text: "5"},
					},
				},
				{
					ID:    "q2",
					Text:  "What is 3 x 3?",
					Order: 2,
					Options: []domain.Option{
						{ID: "o4", Text: "6"},
						{ID: "o5", Text: "9", Correct: true},
					},
				},
			},
		},
		"quiz-2": {
			ID:          "quiz-2",
			Title:       "Chapter 1 review",
			Description: "Checks the key ideas of the first reading.",
			MaterialID:  &material,
			Questions: []domain.Question{
				{
					ID:    "c1",
					Text:  "Which word is a noun?",
					Order: 1,
					Options: []domain.Option{
						{ID: "c1a", Text: "run"},
						{ID: "c1b", Text: "table", Correct: true},
						{ID: "c1c", Text: "quickly"},
					},
				},
			},
		},
	}
}
