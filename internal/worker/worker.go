package worker

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/akolanti/RegGuru/internal/config"
	"github.com/akolanti/RegGuru/internal/job"
	"github.com/akolanti/RegGuru/internal/metrics"
	"github.com/akolanti/RegGuru/internal/rag"
	"github.com/akolanti/RegGuru/pkg/logger_i"
)

// one pool per process
var (
	_jobService        *job.Service
	_ragService        rag.Service
	stopWorkerChannel  chan bool
	workerWaitGroup    *sync.WaitGroup
	dispatcherChannel  chan bool
	currentWorkerCount int64
	minWorkerCount     = config.MinWorkerCount
	logger             = logger_i.NewLogger("WorkerPool")
)

func InitServices(jobService *job.Service, ragService rag.Service) {
	_jobService = jobService
	_ragService = ragService
	dispatcherChannel = jobService.DispatcherChannel
}

func InitWorkerPool(stopWorkerChan chan bool, waitGroup *sync.WaitGroup) {
	stopWorkerChannel = stopWorkerChan
	workerWaitGroup = waitGroup
	logger.Info("Initializing worker pool", "min", minWorkerCount, "max", config.MaxWorkerCount)
	go dispatcher()
}

// dispatcher starts the first worker, then one more per signal up to config.MaxWorkerCount.
func dispatcher() {
	createWorker()
	for range dispatcherChannel {
		if n := atomic.LoadInt64(&currentWorkerCount); n >= config.MaxWorkerCount {
			logger.Debug("Worker pool at capacity", "workers", n)
			continue
		}
		createWorker()
	}
}

func createWorker() {
	workerWaitGroup.Add(1)
	n := atomic.AddInt64(&currentWorkerCount, 1)
	metrics.IncrementActiveWorkerCount()
	logger.Info("Started worker", "workers", n)
	go worker()
}

func worker() {
	idle := time.NewTimer(config.IdleWorkerTimeout)
	defer idle.Stop()

	for {
		select {
		case currentJob := <-_jobService.JobChannel:
			metrics.DecrementJobsInQueue()
			executeJob(currentJob)
			idle.Reset(config.IdleWorkerTimeout)

		case <-stopWorkerChannel:
			finishWorker("stop signal", atomic.AddInt64(&currentWorkerCount, -1))
			return

		case <-idle.C:
			// uploads scale the pool up, idle time scales it back down to minWorkerCount
			if remaining, ok := reserveRetirement(); ok {
				finishWorker("idle timeout", remaining)
				return
			}
			idle.Reset(config.IdleWorkerTimeout)
		}
	}
}

// reserveRetirement takes one worker off the count unless that would go below minWorkerCount.
func reserveRetirement() (int64, bool) {
	for {
		n := atomic.LoadInt64(&currentWorkerCount)
		if n <= atomic.LoadInt64(&minWorkerCount) {
			return n, false
		}
		if atomic.CompareAndSwapInt64(&currentWorkerCount, n, n-1) {
			return n - 1, true
		}
	}
}
