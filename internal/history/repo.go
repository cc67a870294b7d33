package history

import (
	"encoding/json"
	"sync"
	"time"

	"replayverify/pkg/model"
)

// Repo records replay runs asynchronously, the way
// internal/storage/event_repo.go batches intercept events: a small
// in-memory buffer flushed on a ticker, on buffer-size threshold, or on
// Stop.
type Repo struct {
	db *DB

	bufferMu sync.Mutex
	buffer   []RunRecord

	batchSize int
	flushCh   chan struct{}
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

// NewRepo starts a Repo's async writer goroutine bound to db.
func NewRepo(db *DB) *Repo {
	r := &Repo{
		db:        db,
		buffer:    make([]RunRecord, 0, 16),
		batchSize: 20,
		flushCh:   make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
	}
	r.wg.Add(1)
	go r.asyncWriter()
	return r
}

func (r *Repo) asyncWriter() {
	defer r.wg.Done()
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			r.flush()
			return
		case <-ticker.C:
			r.flush()
		case <-r.flushCh:
			r.flush()
		}
	}
}

func (r *Repo) flush() {
	r.bufferMu.Lock()
	if len(r.buffer) == 0 {
		r.bufferMu.Unlock()
		return
	}
	toWrite := r.buffer
	r.buffer = make([]RunRecord, 0, 16)
	r.bufferMu.Unlock()

	if err := r.db.GormDB().CreateInBatches(toWrite, 50).Error; err != nil {
		_ = err
	}
}

// Stop drains the buffer and stops the writer goroutine. Callers
// should call this before process exit so the last run is durably
// recorded.
func (r *Repo) Stop() {
	close(r.stopCh)
	r.wg.Wait()
}

// Record queues a SessionResult for asynchronous persistence.
func (r *Repo) Record(result *model.SessionResult) error {
	reportJSON, err := json.Marshal(result)
	if err != nil {
		return err
	}

	record := RunRecord{
		SessionID:                   result.SessionID,
		ContractFile:                result.ContractFile,
		ComparisonMode:              string(result.ComparisonMode),
		Total:                       result.Summary.Total,
		Compatible:                  result.Summary.Compatible,
		Incompatible:                result.Summary.Incompatible,
		Errors:                      result.Summary.Errors,
		CompatibilityScore:          result.Summary.CompatibilityScore,
		EffectiveCompatibilityScore: result.Summary.EffectiveCompatibilityScore,
		ReportJSON:                  string(reportJSON),
		RunAt:                       result.Timestamp,
	}

	r.bufferMu.Lock()
	r.buffer = append(r.buffer, record)
	needFlush := len(r.buffer) >= r.batchSize
	r.bufferMu.Unlock()

	if needFlush {
		select {
		case r.flushCh <- struct{}{}:
		default:
		}
	}
	return nil
}

// Flush forces an immediate synchronous flush, used before reading
// back results in `session list|show` right after a `replay` run in
// the same process.
func (r *Repo) Flush() {
	r.flush()
}

// ListBySession returns recorded runs for sessionID, most recent first.
func (r *Repo) ListBySession(sessionID string, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	var records []RunRecord
	err := r.db.GormDB().
		Where("session_id = ?", sessionID).
		Order("run_at DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// List returns the most recent runs across all sessions.
func (r *Repo) List(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	var records []RunRecord
	err := r.db.GormDB().Order("run_at DESC").Limit(limit).Find(&records).Error
	return records, err
}
