package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Kamar-Folarin/github-insights/internal/config"
	"github.com/Kamar-Folarin/github-insights/internal/models"
)

// Processor runs work over items in bounded, retried batches
type Processor struct {
	config     config.BatchConfig
	statusChan chan models.BatchProgress
	mu         sync.Mutex
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewProcessor creates a new batch processor
func NewProcessor(cfg config.BatchConfig) *Processor {
	if cfg.Size <= 0 {
		cfg.Size = 100
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Processor{
		config:     cfg,
		statusChan: make(chan models.BatchProgress, 1),
		sleep:      sleepContext,
	}
}

// Progress returns a channel holding the latest progress snapshot
func (p *Processor) Progress() <-chan models.BatchProgress {
	return p.statusChan
}

// Process splits items into batches and runs fn over them with at most
// Workers batches in flight. The first batch error is returned once every
// started batch has finished.
func Process[T any](ctx context.Context, p *Processor, items []T, fn func(ctx context.Context, batch []T) error) error {
	totalItems := len(items)
	if totalItems == 0 {
		return nil
	}

	batchSize := p.config.Size
	totalBatches := (totalItems + batchSize - 1) / batchSize
	now := time.Now()
	progress := models.BatchProgress{
		TotalBatches:   totalBatches,
		TotalItems:     totalItems,
		StartTime:      now,
		LastUpdateTime: now,
	}

	var mu sync.Mutex
	p.updateProgress(progress)

	workerChan := make(chan struct{}, p.config.Workers)
	var wg sync.WaitGroup
	var processErr error

dispatch:
	for i := 0; i < totalBatches; i++ {
		select {
		case <-ctx.Done():
			mu.Lock()
			if processErr == nil {
				processErr = ctx.Err()
			}
			mu.Unlock()
			break dispatch
		case workerChan <- struct{}{}:
		}

		start := i * batchSize
		end := min(start+batchSize, totalItems)
		batch := items[start:end]

		wg.Add(1)
		go func(batchNum int) {
			defer wg.Done()
			defer func() { <-workerChan }()

			err := processBatchWithRetry(ctx, p, batch, fn)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if processErr == nil {
					processErr = fmt.Errorf("batch %d: %w", batchNum, err)
				}
				progress.Errors = append(progress.Errors, err.Error())
			} else {
				progress.ProcessedBatches++
				progress.ProcessedItems += len(batch)
			}
			progress.LastUpdateTime = time.Now()
			p.updateProgress(progress)
		}(i)
	}

	wg.Wait()
	return processErr
}

// processBatchWithRetry processes a batch with linear retry backoff
func processBatchWithRetry[T any](ctx context.Context, p *Processor, batch []T, fn func(ctx context.Context, batch []T) error) error {
	var lastErr error
	for retry := 0; retry <= p.config.MaxRetries; retry++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx, batch)
		if err == nil {
			return nil
		}
		lastErr = err

		if retry < p.config.MaxRetries {
			backoff := time.Duration(float64(p.config.BatchDelay) * float64(retry+1))
			if err := p.sleep(ctx, backoff); err != nil {
				return err
			}
		}
	}

	return fmt.Errorf("failed to process batch after %d retries: %w", p.config.MaxRetries, lastErr)
}

// updateProgress publishes a copy of progress, replacing any unread snapshot
func (p *Processor) updateProgress(progress models.BatchProgress) {
	progress.Errors = append([]string(nil), progress.Errors...)

	p.mu.Lock()
	defer p.mu.Unlock()

	select {
	case <-p.statusChan:
	default:
	}
	p.statusChan <- progress
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
