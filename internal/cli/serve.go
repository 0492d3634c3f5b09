package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"netexam/internal/app"
	"netexam/internal/broadcast"
	"netexam/internal/config"
	"netexam/internal/infra/file"
	"netexam/internal/infra/memory"
	pgloader "netexam/internal/infra/postgres"
	redisstore "netexam/internal/infra/redis"
	transport "netexam/internal/transport/http"
	"netexam/internal/transport/tcp"
)

const defaultRedisTTL = 24 * time.Hour

// NewServeCmd builds the subcommand that runs one exam.
func NewServeCmd(configPath *string) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the exam: participant sessions, admin API and countdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Server.Port = port
			}
			return runServe(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "participant websocket port (overrides config)")
	return cmd
}

func runServe(ctx context.Context, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg); err != nil {
			return err
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = newRedisClient(cfg)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
	}
	redisTTL := config.Duration(cfg.Redis.TTL, defaultRedisTTL)

	var loader app.ExamLoader = memory.NewStaticExamLoader(memory.SampleExams())
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		loader = pgloader.NewExamLoader(pool)
	}
	exam, err := loader.LoadExam(ctx, cfg.Exam.ID)
	if err != nil {
		return fmt.Errorf("load exam %q: %w", cfg.Exam.ID, err)
	}

	var scores app.ScoreStore = memory.NewScoreStore()
	var stateStore app.StateRecordStore = file.NewStateStore(cfg.Exam.StateFile)
	if redisClient != nil {
		scores = redisstore.NewScoreStore(redisClient, cfg.Exam.ID, redisTTL)
		stateStore = redisstore.NewStateStore(redisClient, cfg.Exam.ID, redisTTL)
	}
	state := app.NewSharedState(stateStore, cfg.ExamDuration())
	if err := state.Reset(ctx); err != nil {
		log.Warn().Err(err).Msg("could not reset persisted exam state")
	}

	var tcpListener net.Listener
	if cfg.Server.TCPAddr != "" {
		tcpListener, err = net.Listen("tcp", cfg.Server.TCPAddr)
		if err != nil {
			return fmt.Errorf("listen tcp sessions: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	var trigger app.StartTrigger = broadcast.UDPTrigger{Addr: cfg.Broadcast.ControlAddr}
	if cfg.EmbeddedBroadcaster() {
		svc, cleanup, err := newBroadcastService(cfg)
		if err != nil {
			return err
		}
		defer cleanup()
		control, err := net.ListenPacket("udp", cfg.Broadcast.ControlAddr)
		if err != nil {
			return fmt.Errorf("listen control address: %w", err)
		}
		defer control.Close()
		trigger = svc
		g.Go(func() error {
			return svc.Serve(gctx, control)
		})
	}

	coordinator := app.NewCoordinator(memory.NewDirectory(cfg.Roster), scores, state, trigger, exam, app.Options{
		Workers: cfg.Server.Workers,
	})

	servers := []*http.Server{
		{Addr: ":" + cfg.Server.Port, Handler: transport.NewWSHandler(gctx, coordinator).Routes(), ReadHeaderTimeout: 15 * time.Second},
		{Addr: ":" + cfg.Server.AdminPort, Handler: transport.NewAdminHandler(coordinator).Routes(), ReadHeaderTimeout: 15 * time.Second},
	}
	for _, srv := range servers {
		srv := srv
		g.Go(func() error {
			log.Info().Str("addr", srv.Addr).Msg("http listener started")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	if tcpListener != nil {
		g.Go(func() error {
			return tcp.NewServer(coordinator).Serve(gctx, tcpListener)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Str("addr", srv.Addr).Msg("http shutdown")
			}
		}
		return nil
	})

	log.Info().
		Str("exam", exam.ID).
		Int("questions", len(exam.Questions)).
		Dur("duration", cfg.ExamDuration()).
		Bool("embedded_broadcaster", cfg.EmbeddedBroadcaster()).
		Msg("exam ready, waiting for start command")
	return g.Wait()
}

func newRedisClient(cfg config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// newBroadcastService wires the UDP fan-out and, when configured, a NATS
// publisher behind one countdown service.
func newBroadcastService(cfg config.Config) (*broadcast.Service, func(), error) {
	udp, err := broadcast.NewUDPSender(cfg.Broadcast.FanoutAddr)
	if err != nil {
		return nil, nil, err
	}
	senders := []broadcast.Sender{udp}
	cleanup := func() { _ = udp.Close() }

	if cfg.Broadcast.NATSURL != "" {
		nc, err := broadcast.ConnectNATS(cfg.Broadcast.NATSURL)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		senders = append(senders, broadcast.NewNATSSender(nc, cfg.Broadcast.NATSSubject))
		cleanup = func() {
			_ = nc.Drain()
			_ = udp.Close()
		}
	}
	return broadcast.NewService(broadcast.Config{Duration: cfg.ExamDuration()}, senders...), cleanup, nil
}
