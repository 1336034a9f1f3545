package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/adityapw/fittrack/internal/assetcache"
	"github.com/adityapw/fittrack/internal/config"
	"github.com/adityapw/fittrack/internal/db"
	"github.com/adityapw/fittrack/internal/middleware"
	"github.com/adityapw/fittrack/internal/schedules"
	"github.com/adityapw/fittrack/internal/telemetry/metrics"
	"github.com/adityapw/fittrack/internal/telemetry/tracing"
	"github.com/adityapw/fittrack/internal/users"
	"github.com/adityapw/fittrack/internal/workouts"
	"github.com/adityapw/fittrack/pkg"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config      *config.Config
	dbPool      *pgxpool.Pool
	redisClient *redis.Client

	tokenService *users.TokenService
	assetWorker  *assetcache.Worker

	// telemetry
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config        *config.Config
	TokenSecret   string
	RedisPassword string
	VersionInfo   string
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         params.Config.PostgresHost,
		DBPort:         params.Config.PostgresPort,
		DBName:         params.Config.PostgresDBName,
		TracingEnabled: params.Config.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": params.Config.PostgresDBName},
	)
	promRegistry := metrics.SetupPrometheus(pgxpoolCollector)
	metricsManager := metrics.NewManager("fittrack", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(params.Config.RedisHost, strconv.Itoa(params.Config.RedisPort)),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.Config.TracingEnabled, "fittrack-backend", rdb)
	if err != nil {
		return nil, err
	}

	staticRootOk, err := pkg.PathExists(params.Config.StaticRootPath, true)
	if err != nil {
		return nil, fmt.Errorf("check static root path: %w", err)
	}
	if !staticRootOk {
		log.Warnf("static root path [%s] missing, asset requests will 404", params.Config.StaticRootPath)
	}

	assetWorker := assetcache.NewWorker(assetcache.NewWorkerParams{
		Version:  params.Config.AssetCacheVersion,
		Registry: assetcache.NewRegistry(),
		Fetcher:  assetcache.NewHandlerFetcher(http.FileServer(http.Dir(params.Config.StaticRootPath))),
		Metrics:  metricsManager,
	})

	return &Server{
		config:       params.Config,
		versionInfo:  params.VersionInfo,
		dbPool:       dbPool,
		redisClient:  rdb,
		tokenService: users.NewTokenService([]byte(params.TokenSecret), users.DefaultTokenTTL),
		assetWorker:  assetWorker,

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

func (s *Server) routerSetup() (*mux.Router, error) {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("fittrack-router"))

	api := r.PathPrefix("/api").Subrouter()

	workoutsRepo := workouts.NewRepo(s.dbPool)
	workoutsHandler := workouts.NewHandler(
		workoutsRepo,
		workouts.NewAnalyzer(workoutsRepo),
		s.metricsManager,
	)
	api.HandleFunc("/workouts", workoutsHandler.HandleList).Methods("GET", "OPTIONS").Name("list-workouts")
	api.HandleFunc("/workouts", workoutsHandler.HandleAdd).Methods("POST", "OPTIONS").Name("new-workout")
	api.HandleFunc("/workouts/{id}", workoutsHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-workout")
	api.HandleFunc("/workouts/{id}", workoutsHandler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-workout")
	api.HandleFunc("/workouts/{id}", workoutsHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("remove-workout")
	api.HandleFunc("/stats", workoutsHandler.HandleStats).Methods("GET", "OPTIONS").Name("workout-stats")

	schedulesHandler := schedules.NewHandler(schedules.NewRepo(s.dbPool))
	api.HandleFunc("/schedules", schedulesHandler.HandleList).Methods("GET", "OPTIONS").Name("list-schedules")
	api.HandleFunc("/schedules/{day}", schedulesHandler.HandleGetByDay).Methods("GET", "OPTIONS").Name("get-schedule")

	usersHandler := users.NewHandler(
		users.NewRepo(s.dbPool),
		s.tokenService,
		s.metricsManager,
	)
	authRateLimit := middleware.RateLimit(
		redis_rate.NewLimiter(s.redisClient),
		"auth",
		s.config.LoginRateLimitAllowedPerMin,
		s.metricsManager,
	)
	api.Handle("/auth/register", authRateLimit(http.HandlerFunc(usersHandler.HandleRegister))).
		Methods("POST", "OPTIONS").Name("register")
	api.Handle("/auth/login", authRateLimit(http.HandlerFunc(usersHandler.HandleLogin))).
		Methods("POST", "OPTIONS").Name("login")
	api.Handle("/auth/me", usersHandler.RequireAuth(http.HandlerFunc(usersHandler.HandleMe))).
		Methods("GET", "OPTIONS").Name("me")
	api.Handle("/auth/profile", usersHandler.RequireAuth(http.HandlerFunc(usersHandler.HandleUpdateProfile))).
		Methods("PUT", "OPTIONS").Name("update-profile")

	api.HandleFunc("/health", s.handleHealth).Methods("GET", "OPTIONS").Name("health")

	// everything outside /api is the web app, served through the
	// asset cache worker
	r.PathPrefix("/").Handler(s.assetWorker).Name("static")

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors())
	r.Use(middleware.DrainAndCloseRequest())

	return r, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	pkg.WriteAPIData(w, map[string]string{
		"status":    "ok",
		"version":   s.versionInfo,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}, http.StatusOK)
}

func (s *Server) Serve(ctx context.Context, host string, port int) {
	router, err := s.routerSetup()
	if err != nil {
		log.Fatalf("failed to setup router: %s", err)
	}

	if err := s.assetWorker.Install(ctx); err != nil {
		log.Warnf("asset cache install failed, serving live: %s", err)
	}

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{},
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, strconv.Itoa(s.config.PrometheusMetricsPort))
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown http server")
	}
	log.Warnln("server shut down")

	if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown metrics http server")
	}
	log.Warnln("metrics server shut down")
}
