package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/theblitlabs/vecstake/pkg/logger"
)

// Status represents the health status of a component
type Status string

const (
	StatusOK      Status = "OK"
	StatusWarning Status = "WARNING"
	StatusError   Status = "ERROR"
)

// ComponentHealth represents the health status of a system component
type ComponentHealth struct {
	Name        string    `json:"name"`
	Status      Status    `json:"status"`
	Message     string    `json:"message"`
	LastChecked time.Time `json:"last_checked"`
}

// Check probes one component. A Warning result is reported as WARNING
// instead of ERROR.
type Check func(ctx context.Context) error

// Warning marks a check failure that does not make the service unhealthy.
type Warning struct {
	Message string
}

func (w *Warning) Error() string {
	return w.Message
}

// HealthChecker runs registered checks periodically and serves the last
// results.
type HealthChecker struct {
	mu         sync.RWMutex
	checks     map[string]Check
	components map[string]*ComponentHealth
	checkFreq  time.Duration
	timeout    time.Duration
	log        zerolog.Logger
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

func NewHealthChecker(checkFreq time.Duration) *HealthChecker {
	if checkFreq == 0 {
		checkFreq = 30 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &HealthChecker{
		checks:     make(map[string]Check),
		components: make(map[string]*ComponentHealth),
		checkFreq:  checkFreq,
		timeout:    5 * time.Second,
		log:        logger.WithComponent("health_checker"),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Register adds a named check. Register before Start.
func (hc *HealthChecker) Register(name string, check Check) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checks[name] = check
}

// Start begins periodic health checks
func (hc *HealthChecker) Start() {
	hc.log.Info().Dur("frequency", hc.checkFreq).Msg("Starting health checker")

	ticker := time.NewTicker(hc.checkFreq)
	go func() {
		defer close(hc.done)
		defer ticker.Stop()

		hc.CheckAll(hc.ctx)

		for {
			select {
			case <-ticker.C:
				hc.CheckAll(hc.ctx)
			case <-hc.ctx.Done():
				hc.log.Info().Msg("Health checker stopped")
				return
			}
		}
	}()
}

// Stop halts the health checker and waits for a running round to finish.
func (hc *HealthChecker) Stop() {
	hc.cancel()
	<-hc.done
}

// CheckAll runs every registered check once.
func (hc *HealthChecker) CheckAll(ctx context.Context) {
	hc.mu.RLock()
	checks := make(map[string]Check, len(hc.checks))
	for name, check := range hc.checks {
		checks[name] = check
	}
	hc.mu.RUnlock()

	for name, check := range checks {
		hc.run(ctx, name, check)
	}
}

func (hc *HealthChecker) run(ctx context.Context, name string, check Check) {
	ctx, cancel := context.WithTimeout(ctx, hc.timeout)
	defer cancel()

	health := &ComponentHealth{Name: name, Status: StatusOK, Message: "ok", LastChecked: time.Now()}

	if err := check(ctx); err != nil {
		health.Message = err.Error()
		var warning *Warning
		if errors.As(err, &warning) {
			health.Status = StatusWarning
			health.Message = warning.Message
		} else {
			health.Status = StatusError
			hc.log.Warn().Err(err).Str("check", name).Msg("Health check failed")
		}
	}

	hc.mu.Lock()
	hc.components[name] = health
	hc.mu.Unlock()
}

// GetAllHealth returns the health status of all components
func (hc *HealthChecker) GetAllHealth() map[string]*ComponentHealth {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	result := make(map[string]*ComponentHealth, len(hc.components))
	for k, v := range hc.components {
		componentCopy := *v
		result[k] = &componentCopy
	}

	return result
}

// GetComponentHealth returns the health status of a specific component
func (hc *HealthChecker) GetComponentHealth(name string) *ComponentHealth {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	if component, exists := hc.components[name]; exists {
		componentCopy := *component
		return &componentCopy
	}

	return nil
}

// Overall is ERROR if any component is, else WARNING if any component is,
// else OK.
func (hc *HealthChecker) Overall() Status {
	status := StatusOK
	for _, c := range hc.GetAllHealth() {
		switch c.Status {
		case StatusError:
			return StatusError
		case StatusWarning:
			status = StatusWarning
		}
	}
	return status
}

type report struct {
	Status     Status             `json:"status"`
	Components []*ComponentHealth `json:"components"`
}

// Handler serves the last results. The status code is 503 only when a
// component is in ERROR.
func (hc *HealthChecker) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		all := hc.GetAllHealth()
		rep := report{Status: hc.Overall(), Components: make([]*ComponentHealth, 0, len(all))}
		for _, c := range all {
			rep.Components = append(rep.Components, c)
		}
		sort.Slice(rep.Components, func(i, j int) bool { return rep.Components[i].Name < rep.Components[j].Name })

		w.Header().Set("Content-Type", "application/json")
		if rep.Status == StatusError {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(rep)
	})
}
