package payments

import (
	"context"
	"log"
	"time"
)

// JobProcessor handles background jobs for payment sessions
type JobProcessor struct {
	service Service
	config  *JobConfig
	done    chan struct{}
}

// JobConfig contains configuration for background jobs
type JobConfig struct {
	ExpiryCheckInterval time.Duration
}

// DefaultJobConfig returns default job configuration
func DefaultJobConfig() *JobConfig {
	return &JobConfig{
		ExpiryCheckInterval: 15 * time.Second,
	}
}

// NewJobProcessor creates a new job processor
func NewJobProcessor(service Service, config *JobConfig) *JobProcessor {
	if config == nil {
		config = DefaultJobConfig()
	}

	return &JobProcessor{
		service: service,
		config:  config,
		done:    make(chan struct{}),
	}
}

// Start starts all background jobs
func (jp *JobProcessor) Start(ctx context.Context) {
	log.Println("Starting payment session background jobs...")
	go jp.startExpiryProcessor(ctx)
}

// Stop stops all background jobs
func (jp *JobProcessor) Stop() {
	log.Println("Stopping payment session background jobs...")
	close(jp.done)
}

// startExpiryProcessor times out payment sessions whose deadline has
// passed. The deadline is also checked synchronously on every session
// operation; this only bounds how long an abandoned session can sit on
// its seats.
func (jp *JobProcessor) startExpiryProcessor(ctx context.Context) {
	ticker := time.NewTicker(jp.config.ExpiryCheckInterval)
	defer ticker.Stop()

	log.Printf("Started payment expiry processor with %v interval", jp.config.ExpiryCheckInterval)

	for {
		select {
		case <-ticker.C:
			if expired := jp.service.ExpireDue(ctx); expired > 0 {
				log.Printf("Expired %d payment session(s)", expired)
			}
		case <-jp.done:
			return
		case <-ctx.Done():
			return
		}
	}
}
