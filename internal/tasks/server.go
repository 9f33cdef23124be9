package tasks

import (
	"errors"
	"fmt"

	"ruralsite/internal/config"
	"ruralsite/internal/utils/logger"

	"github.com/hibiken/asynq"
)

// Server handles task processing
type Server struct {
	server      *asynq.Server
	handler     *TaskHandler
	concurrency int
	logger      *logger.Logger
}

var queues = map[string]int{
	QueueDefault: 3,
	QueueLow:     1,
}

// NewServer creates a new task processing server
func NewServer(cfg config.RedisConfig, worker config.WorkerConfig, handler *TaskHandler) *Server {
	concurrency := worker.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	server := asynq.NewServer(RedisOpt(cfg), asynq.Config{
		Concurrency: concurrency,
		Queues:      queues,
		Logger:      asynqLogger{logger.New("ASYNQ")},
	})

	return &Server{
		server:      server,
		handler:     handler,
		concurrency: concurrency,
		logger:      logger.New("TASK_SERVER"),
	}
}

// Start starts the task processing server
func (s *Server) Start() error {
	s.logger.Info("starting task processing server concurrency %d queues %v", s.concurrency, queues)

	if err := s.server.Start(s.handler.Mux()); err != nil {
		return fmt.Errorf("failed to start task server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the task processing server
func (s *Server) Shutdown() {
	s.logger.Info("shutting down task processing server")
	s.server.Shutdown()
}

// asynqLogger routes asynq's internal logging into the console logger.
type asynqLogger struct {
	l *logger.Logger
}

func (a asynqLogger) Debug(args ...interface{}) { a.l.Debug("%s", fmt.Sprint(args...)) }
func (a asynqLogger) Info(args ...interface{})  { a.l.Info("%s", fmt.Sprint(args...)) }
func (a asynqLogger) Warn(args ...interface{})  { a.l.Warn("%s", fmt.Sprint(args...)) }
func (a asynqLogger) Error(args ...interface{}) {
	_ = a.l.Error("asynq", errors.New(fmt.Sprint(args...)))
}
func (a asynqLogger) Fatal(args ...interface{}) {
	_ = a.l.Error("asynq fatal", errors.New(fmt.Sprint(args...)))
}
