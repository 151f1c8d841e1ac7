package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/ebookshelf/internal/catalog"
)

// CatalogRefreshScheduler re-mirrors the catalog store from the database
// on a fixed schedule so that out-of-band writes eventually surface.
type CatalogRefreshScheduler struct {
	store    *catalog.Store
	schedule string

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewCatalogRefreshScheduler creates a new scheduler instance.
func NewCatalogRefreshScheduler(store *catalog.Store, schedule string) *CatalogRefreshScheduler {
	return &CatalogRefreshScheduler{
		store:    store,
		schedule: schedule,
		cron:     cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the periodic refresh.
func (s *CatalogRefreshScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		s.runRefresh()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule catalog refresh: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Catalog refresh scheduler: started with schedule '%s'", s.schedule)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running refresh to
// complete.
func (s *CatalogRefreshScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Catalog refresh scheduler: stopped")
}

// IsRunning reports whether the scheduler is active.
func (s *CatalogRefreshScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

func (s *CatalogRefreshScheduler) runRefresh() {
	log.Printf("Catalog refresh scheduler: refreshing catalog")

	if err := s.store.Refresh(); err != nil {
		log.Printf("Catalog refresh scheduler: refresh failed: %v", err)
		return
	}

	log.Printf("Catalog refresh scheduler: refreshed %d books", len(s.store.Books()))
}
