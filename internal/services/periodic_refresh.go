package services

import (
	"context"
	"log"
	"time"

	"github.com/dpup/survey.ersn.net/server/internal/config"
)

// PeriodicRefreshService reloads route definition files on an interval so a
// running server picks up re-issued route files during a survey campaign
// without a restart.
type PeriodicRefreshService struct {
	surveyService *SurveyService
	config        *config.SurveyConfig

	stopChan chan struct{}
	running  bool
}

// NewPeriodicRefreshService creates a periodic route reload service.
func NewPeriodicRefreshService(surveyService *SurveyService, cfg *config.SurveyConfig) *PeriodicRefreshService {
	return &PeriodicRefreshService{
		surveyService: surveyService,
		config:        cfg,
		stopChan:      make(chan struct{}),
	}
}

// Start begins periodic route reloads using the configured refresh interval.
func (p *PeriodicRefreshService) Start(ctx context.Context) error {
	if p.running {
		return nil
	}
	p.running = true

	interval := p.config.RefreshInterval
	log.Printf("Starting periodic route reload every %v", interval)
	go p.refreshLoop(ctx, interval)
	return nil
}

// Stop gracefully stops the reload loop.
func (p *PeriodicRefreshService) Stop() {
	if !p.running {
		return
	}
	p.running = false
	close(p.stopChan)
	log.Printf("Stopped periodic route reload")
}

// IsRunning returns whether the reload loop is active.
func (p *PeriodicRefreshService) IsRunning() bool {
	return p.running
}

func (p *PeriodicRefreshService) refreshLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("Route reload stopping due to context cancellation")
			return
		case <-p.stopChan:
			log.Printf("Route reload stopping due to stop signal")
			return
		case <-ticker.C:
			p.reload(ctx)
		}
	}
}

func (p *PeriodicRefreshService) reload(ctx context.Context) {
	reloadCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	if err := p.surveyService.LoadRoutes(reloadCtx); err != nil {
		log.Printf("Route reload failed: %v", err)
	}
}
