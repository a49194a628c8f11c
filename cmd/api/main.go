// @title           RegGuru API
// @version         1.0
// @description     Asynchronous question answering over uploaded regulatory documents

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/akolanti/RegGuru/internal/config"
	"github.com/akolanti/RegGuru/internal/data/redisStore"
	"github.com/akolanti/RegGuru/internal/data/store"
	jobmodel "github.com/akolanti/RegGuru/internal/domain/jobModel"
	"github.com/akolanti/RegGuru/internal/handlers"
	"github.com/akolanti/RegGuru/internal/job"
	"github.com/akolanti/RegGuru/internal/rag"
	"github.com/akolanti/RegGuru/internal/server"
	"github.com/akolanti/RegGuru/internal/worker"
	"github.com/akolanti/RegGuru/pkg/logger_i"
)

var (
	listenAddr        string
	requestCount      int64
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {

	logger_i.Init()
	var logger = logger_i.NewLogger("main")
	settings := config.Get()

	//config
	flag.StringVar(&listenAddr, "listen-addr", config.ServerListenAddr, "server listen address")
	flag.Parse()

	//init buffered job channel
	jobChannel := make(chan jobmodel.Job, config.BufferLimit)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel = make(chan bool, 1)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	//init job service, job store, document registry and message store
	serviceConfig := job.ServiceConfig{
		JobChannel:        jobChannel,
		RequestCount:      requestCount,
		DispatcherChannel: dispatcherChannel,
	}
	logger.Info("Starting job service")

	jobRedis, jobErr := redisStore.NewRedisStore(serviceContext, settings, config.RedisJobStore)
	docRedis, docErr := redisStore.NewRedisStore(serviceContext, settings, config.RedisDocumentStore)
	msgRedis, msgErr := redisStore.NewRedisStore(serviceContext, settings, config.RedisMessageStore)
	if jobErr != nil || docErr != nil || msgErr != nil {
		logger.Error("Redis stores are offline, falling back to memory",
			"jobStore", jobErr, "documentStore", docErr, "messageStore", msgErr)
		closeIfOpen(jobRedis)
		closeIfOpen(docRedis)
		closeIfOpen(msgRedis)
		serviceConfig.JobStore = store.InitInMemoryJobStore()
		serviceConfig.Documents = store.InitInMemoryDocumentRegistry()
		serviceConfig.Messages = store.InitInMemoryMessageStore()
	} else {
		defer closeIfOpen(jobRedis)
		defer closeIfOpen(docRedis)
		defer closeIfOpen(msgRedis)
		serviceConfig.JobStore = store.NewRedisJobStore(jobRedis)
		serviceConfig.Documents = store.NewRedisDocumentRegistry(docRedis)
		serviceConfig.Messages = store.NewRedisMessageStore(msgRedis)
	}
	service := job.InitJobService(serviceConfig)

	ragService, _, err := rag.Build(serviceContext, settings)
	if err != nil {
		logger.Error("External services failed to initialize. Shutting down.", "error", err, "provider", settings.LLMProvider)
		return
	}

	handlers.InitJobHandler(service)

	//init worker pool
	worker.InitServices(service, ragService)
	worker.InitWorkerPool(stopWorkerChannel, &workerWaitGroup)

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(listenAddr)

	<-stopExecution
	logger.Info("Server stopped")
}

func closeIfOpen(s *redisStore.Store) {
	if s != nil {
		_ = s.Close()
	}
}
