// Package smoke drives the full register, log in and predict flow against a
// running server and checks the rendered results.
package smoke

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/inningscast/pkg/logger"
)

// ErrFlowFailed is returned when any user's flow did not complete cleanly.
var ErrFlowFailed = errors.New("smoke flow failed")

// Run executes the complete smoke test.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	if err := config.Validate(); err != nil {
		return stats, err
	}

	logger.Get().Info(ctx, "starting inningscast smoke test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("users", config.Users),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Bool("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Protected route must reject anonymous requests
	if err := checkAnonymousRejected(ctx, config); err != nil {
		return stats, fmt.Errorf("anonymous check failed: %w", err)
	}

	// Step 3: Run every user's flow concurrently
	runUsers(ctx, config, stats)

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)

	if stats.Failures > 0 || stats.PredictionsInvalid > 0 {
		return stats, fmt.Errorf("%w: %d failures, %d invalid ranges", ErrFlowFailed, stats.Failures, stats.PredictionsInvalid)
	}
	logger.Get().Info(ctx, "smoke test completed successfully")
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client, err := newHTTPClient(config.BaseURL, config.Timeout)
	if err != nil {
		return err
	}
	status, _, _, err := client.Get(ctx, "/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", status)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

func checkAnonymousRejected(ctx context.Context, config *Config) error {
	client, err := newHTTPClient(config.BaseURL, config.Timeout)
	if err != nil {
		return err
	}
	status, _, _, err := client.PostForm(ctx, "/predict", matchForm(randomMatchState()))
	if err != nil {
		return err
	}
	if status != http.StatusUnauthorized {
		return fmt.Errorf("POST /predict without a session returned %d, want 401", status)
	}
	return nil
}

func runUsers(ctx context.Context, config *Config, stats *Stats) {
	var (
		registered int64
		loggedIn   int64
		ok         int64
		invalid    int64
		failed     int64
	)

	jobs := make(chan int, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				if ctx.Err() != nil {
					return
				}
				switch userFlow(ctx, config) {
				case outcomeOK:
					atomic.AddInt64(&registered, 1)
					atomic.AddInt64(&loggedIn, 1)
					atomic.AddInt64(&ok, 1)
				case outcomeInvalid:
					atomic.AddInt64(&registered, 1)
					atomic.AddInt64(&loggedIn, 1)
					atomic.AddInt64(&invalid, 1)
				case outcomeFailed:
					atomic.AddInt64(&registered, 1)
					atomic.AddInt64(&loggedIn, 1)
					atomic.AddInt64(&failed, 1)
				case outcomeNoLogin:
					atomic.AddInt64(&registered, 1)
					atomic.AddInt64(&failed, 1)
				default:
					atomic.AddInt64(&failed, 1)
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := 0; i < config.Users; i++ {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()

	wg.Wait()

	stats.UsersRegistered = int(atomic.LoadInt64(&registered))
	stats.LoginsSucceeded = int(atomic.LoadInt64(&loggedIn))
	stats.PredictionsOK = int(atomic.LoadInt64(&ok))
	stats.PredictionsInvalid = int(atomic.LoadInt64(&invalid))
	stats.Failures = int(atomic.LoadInt64(&failed))
}

// userFlow registers a fresh user, logs in, and submits one prediction.
func userFlow(ctx context.Context, config *Config) string {
	log := logger.Get()
	client, err := newHTTPClient(config.BaseURL, config.Timeout)
	if err != nil {
		return outcomeNoSignup
	}
	username, password := newUsername(), newPassword()

	status, _, _, err := client.PostForm(ctx, "/register", credentialsForm(username, password))
	if err != nil || status != http.StatusOK {
		log.Warn(ctx, "registration failed", logger.String("username", username), logger.Int("status", status))
		return outcomeNoSignup
	}

	status, _, resp, err := client.PostForm(ctx, "/token", credentialsForm(username, password))
	if err != nil || status != http.StatusFound || resp.Header.Get("Location") != "/predict" {
		log.Warn(ctx, "login failed", logger.String("username", username), logger.Int("status", status))
		return outcomeNoLogin
	}

	state := randomMatchState()
	status, body, _, err := client.PostForm(ctx, "/predict", matchForm(state))
	if err != nil || status != http.StatusOK {
		log.Warn(ctx, "prediction failed", logger.String("username", username), logger.Int("status", status))
		return outcomeFailed
	}

	lower, upper, err := parseRange(body)
	if err == nil {
		err = verifyRange(lower, upper)
	}
	if err != nil {
		log.Warn(ctx, "invalid result page", logger.String("username", username), logger.Error(err))
		return outcomeInvalid
	}

	log.Debug(ctx, "prediction",
		logger.String("batting", state.BattingTeam),
		logger.String("bowling", state.BowlingTeam),
		logger.Int("lower", lower),
		logger.Int("upper", upper))
	return outcomeOK
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(stats *Stats) {
	var successRate, usersPerSecond float64
	if stats.UsersRegistered > 0 {
		successRate = float64(stats.PredictionsOK) / float64(stats.UsersRegistered) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		usersPerSecond = float64(stats.PredictionsOK+stats.PredictionsInvalid) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("usersRegistered", stats.UsersRegistered),
		logger.Int("loginsSucceeded", stats.LoginsSucceeded),
		logger.Int("predictionsOK", stats.PredictionsOK),
		logger.Int("predictionsInvalid", stats.PredictionsInvalid),
		logger.Int("failures", stats.Failures),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("usersPerSecond", usersPerSecond))
}
