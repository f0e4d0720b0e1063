package cli

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"photoflow/internal/cache"
	"photoflow/internal/credentials"
	"photoflow/internal/fetcher"
	"photoflow/internal/logging"
	"photoflow/internal/metrics"
	"photoflow/internal/photoslib"
	"photoflow/internal/progress"
	"photoflow/internal/startup"
	"photoflow/internal/transform"
)

// App bundles the wired application services shared by the commands.
type App struct {
	Config *startup.Config
	Logger logging.Logger
	Creds  *credentials.Store
	Client *photoslib.Client
	Cache  *cache.Store
	Fetch  *fetcher.Fetcher
	Cancel *progress.Flag
}

var app *App

// GetApp wires the application on first use. Commands that only touch
// local state (login, cache) get the same wiring; the remote client is
// built lazily enough that no network traffic happens until a request.
func GetApp() (*App, error) {
	if app != nil {
		return app, nil
	}

	logger := logging.New()
	config, err := startup.LoadConfig(logger)
	if err != nil {
		return nil, err
	}

	metrics.InitializeMetrics()
	if config.MetricsEnabled {
		go serveMetrics(config.MetricsPort, logger)
	}

	if err := transform.InitVips(logger); err != nil {
		logger.Debug("fast image path unavailable: %v", err)
	}

	creds := credentials.NewStore(config.CredentialsDir, logger)
	source := credentials.NewSource(creds, credentials.SourceConfig{}, logger)
	client := photoslib.NewClient(source, photoslib.Config{PageDelay: config.PageDelay}, logger)

	var store *cache.Store
	if config.CacheEnabled {
		store = cache.New(config.CacheDir, logger)
	}

	fetch := fetcher.New(client, store, fetcher.Config{
		Concurrency:  config.Concurrency,
		PacingWindow: config.PacingWindow,
	}, logger)

	flag := progress.NewFlag()
	watchSignals(flag, logger)

	app = &App{
		Config: config,
		Logger: logger,
		Creds:  creds,
		Client: client,
		Cache:  store,
		Fetch:  fetch,
		Cancel: flag,
	}
	return app, nil
}

// watchSignals cancels the batch flag on the first interrupt and exits
// hard on the second.
func watchSignals(flag *progress.Flag, logger logging.Logger) {
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		logger.Warn("interrupt received, cancelling (press again to force quit)")
		flag.Cancel()
		<-sigs
		logger.Error("second interrupt, exiting")
		os.Exit(1)
	}()
}

func serveMetrics(port string, logger logging.Logger) {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.Handler())
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logger.Info("metrics server listening on :%s", port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("metrics server error: %v", err)
	}
}
