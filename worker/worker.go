package worker

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stitchwork/stitch/engine"
	"github.com/stitchwork/stitch/logger"
	"github.com/stitchwork/stitch/persistence"
	"go.uber.org/zap"
)

const claimRetryDelay = time.Second

// Worker is the process shell around the engine: it blocks on the work
// queue, runs each claimed execution to completion, and acks. One job
// at a time; horizontal scaling is more worker processes in the same
// consumer group.
type Worker struct {
	queue    persistence.ExecutionQueue
	engine   *engine.ExecutionEngine
	consumer string
	ctx      context.Context
	cancel   context.CancelFunc
	wg       *sync.WaitGroup
}

func NewWorker(queue persistence.ExecutionQueue, eng *engine.ExecutionEngine, wg *sync.WaitGroup) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		queue:    queue,
		engine:   eng,
		consumer: fmt.Sprintf("worker-%d-%s", os.Getpid(), uuid.New().String()[:8]),
		ctx:      ctx,
		cancel:   cancel,
		wg:       wg,
	}
}

func (w *Worker) Start() error {
	if err := w.queue.EnsureGroup(w.ctx); err != nil {
		return err
	}
	logger.Info("worker started, waiting for jobs", zap.String("consumer", w.consumer))
	w.wg.Add(1)
	go w.loop()
	return nil
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		if w.ctx.Err() != nil {
			logger.Info("stopping worker", zap.String("consumer", w.consumer))
			return
		}
		job, err := w.queue.Claim(w.ctx, w.consumer)
		if err != nil {
			if w.ctx.Err() != nil {
				logger.Info("stopping worker", zap.String("consumer", w.consumer))
				return
			}
			logger.Error("worker loop error", zap.String("consumer", w.consumer), zap.Error(err))
			time.Sleep(claimRetryDelay)
			continue
		}
		if job == nil {
			continue
		}
		logger.Info("picked execution", zap.String("executionId", job.ExecutionId), zap.String("workflowId", job.WorkflowId))
		w.engine.Run(w.ctx, job.ExecutionId, job.WorkflowId)
		// the attempt retires the job; there is no redelivery on
		// processing failure
		if err := w.queue.Ack(w.ctx, job.MessageId); err != nil {
			logger.Error("error acking execution", zap.String("messageId", job.MessageId), zap.Error(err))
		}
	}
}

func (w *Worker) Stop() error {
	w.cancel()
	return nil
}
