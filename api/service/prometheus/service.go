// Package prometheus defines a service which is used for metrics collection
// and health of a mempool node.
package prometheus

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"runtime/pprof"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harmony-one/mempool/internal/utils"
)

// Config is the config for the prometheus service
type Config struct {
	Enabled bool
	IP      string
	Port    int
}

func (p Config) String() string {
	return fmt.Sprintf("%v, %v:%v", p.Enabled, p.IP, p.Port)
}

// Service provides Prometheus metrics via the /metrics route. This route will
// show all the metrics registered with PromRegistry.
type Service struct {
	config Config
	server *http.Server

	mu         sync.Mutex
	failStatus error
}

// Handler represents a path and handler func to serve on the same port as /metrics, /goroutinez, etc.
type Handler struct {
	Path    string
	Handler func(http.ResponseWriter, *http.Request)
}

var (
	registryOnce sync.Once
	registry     *prometheus.Registry
)

// NewService sets up a new instance for a given address host:port.
// An empty host will match with any IP so an address like ":19000" is perfectly acceptable.
func NewService(config Config, additionalHandlers ...Handler) *Service {
	utils.Logger().Debug().Str("Config", config.String()).Msg("Prometheus")

	s := &Service{config: config}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.InstrumentMetricHandler(
		PromRegistry(),
		promhttp.HandlerFor(PromRegistry(), promhttp.HandlerOpts{}),
	))
	mux.HandleFunc("/goroutinez", s.goroutinezHandler)

	// Register additional handlers.
	for _, h := range additionalHandlers {
		mux.HandleFunc(h.Path, h.Handler)
	}

	endpoint := fmt.Sprintf("%s:%d", config.IP, config.Port)
	s.server = &http.Server{Addr: endpoint, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	return s
}

// Handler returns the HTTP handler serving the metrics routes.
func (s *Service) Handler() http.Handler {
	return s.server.Handler
}

func (s *Service) goroutinezHandler(w http.ResponseWriter, _ *http.Request) {
	stack := debug.Stack()
	if _, err := w.Write(stack); err != nil {
		utils.Logger().Error().Err(err).Msg("Failed to write goroutines stack")
	}
	if err := pprof.Lookup("goroutine").WriteTo(w, 2); err != nil {
		utils.Logger().Error().Err(err).Msg("Failed to write pprof goroutines")
	}
}

// Start the prometheus service.
func (s *Service) Start() error {
	if !s.config.Enabled {
		utils.Logger().Info().Msg("Prometheus http server disabled...")
		return nil
	}
	go func() {
		utils.Logger().Info().Str("address", s.server.Addr).Msg("Starting prometheus service")
		err := s.server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			utils.Logger().Error().Msgf("Could not listen to host:port :%s: %v", s.server.Addr, err)
			s.mu.Lock()
			s.failStatus = err
			s.mu.Unlock()
		}
	}()
	return nil
}

// Stop the service gracefully.
func (s *Service) Stop() error {
	if !s.config.Enabled {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Status checks for any service failure conditions.
func (s *Service) Status() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failStatus
}

// PromRegistry return the registry of prometheus service
func PromRegistry() *prometheus.Registry {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	})
	return registry
}
