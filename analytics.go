package main

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Analytics event types.
const (
	EvtRunStart    = "run_start"
	EvtRunEnd      = "run_end"
	EvtScanQuick   = "scan_quick"
	EvtScanFull    = "scan_full"
	EvtDestroy     = "asteroid_destroyed"
	EvtPlayerDeath = "player_death"
)

const (
	analyticsQueueSize     = 1024
	analyticsBatchSize     = 64
	analyticsFlushInterval = 5 * time.Second
)

// AnalyticsEvent is one gameplay event queued for persistence.
type AnalyticsEvent struct {
	Type      string
	PlayerID  int64
	SessionID string
	Data      string
	CreatedAt time.Time
}

// Analytics batches gameplay events and writes them to the database off the
// game tick goroutines. Events are dropped when the queue is full; gameplay
// never blocks on analytics.
type Analytics struct {
	db  *DB
	log *zap.SugaredLogger

	events chan AnalyticsEvent
	stop   chan struct{}
	wg     sync.WaitGroup
}

func NewAnalytics(db *DB, log *zap.SugaredLogger) *Analytics {
	a := &Analytics{
		db:     db,
		log:    log,
		events: make(chan AnalyticsEvent, analyticsQueueSize),
		stop:   make(chan struct{}),
	}
	a.wg.Add(1)
	go a.run()
	return a
}

// Track queues an event. Non-blocking; drops on a full queue.
func (a *Analytics) Track(evtType string, playerID int64, sessionID, data string) {
	select {
	case a.events <- AnalyticsEvent{
		Type:      evtType,
		PlayerID:  playerID,
		SessionID: sessionID,
		Data:      data,
		CreatedAt: time.Now(),
	}:
	default:
		a.log.Debugw("analytics queue full, dropping event", "type", evtType)
	}
}

// Close flushes pending events and stops the writer.
func (a *Analytics) Close() {
	close(a.stop)
	a.wg.Wait()
}

func (a *Analytics) run() {
	defer a.wg.Done()

	ticker := time.NewTicker(analyticsFlushInterval)
	defer ticker.Stop()

	batch := make([]AnalyticsEvent, 0, analyticsBatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := a.db.InsertEvents(batch); err != nil {
			a.log.Errorw("insert analytics batch", "error", err, "count", len(batch))
		}
		batch = batch[:0]
	}

	for {
		select {
		case evt := <-a.events:
			batch = append(batch, evt)
			if len(batch) >= analyticsBatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-a.stop:
			// Drain whatever is still queued before exiting.
			for {
				select {
				case evt := <-a.events:
					batch = append(batch, evt)
					if len(batch) >= analyticsBatchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		}
	}
}
