// Package server 提供HTTP服务器核心功能，包含Prometheus指标暴露、健康检查端点、
// 优雅关闭机制及系统信号监听能力，用于支撑服务可观测性和高可用性。
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/stats-agent/pkg/config"
)

// httpShutdownTimeout 优雅关闭超时时间，避免关闭流程无限阻塞
const httpShutdownTimeout = 5 * time.Second

// HTTPServer HTTP服务实例，封装监听地址、HTTP服务器核心对象和Prometheus指标注册器。
// 核心能力：暴露/metrics指标端点、/health健康检查端点、优雅启动/关闭
type HTTPServer struct {
	addr     string
	server   *http.Server
	registry *prometheus.Registry
	log      *zap.Logger
}

// statusWriter 包装http.ResponseWriter，用于捕获HTTP响应状态码
type statusWriter struct {
	http.ResponseWriter
	status int
}

// WriteHeader 记录响应状态码
func (w *statusWriter) WriteHeader(statusCode int) {
	w.status = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// NewHTTPServer 创建HTTP服务实例（依赖注入模式）
func NewHTTPServer(cfg *config.ServerConfig, log *zap.Logger, registry *prometheus.Registry) *HTTPServer {
	mux := http.NewServeMux()

	// logRequest 请求日志：方法、URL、客户端地址、状态码、耗时
	logRequest := func(r *http.Request, msg string, statusCode int, start time.Time) {
		log.Info(
			msg,
			zap.String("method", r.Method),
			zap.String("url", r.URL.String()),
			zap.String("remote", r.RemoteAddr),
			zap.Int("status", statusCode),
			zap.Duration("duration", time.Since(start)),
		)
	}

	// /metrics 端点：暴露Prometheus指标（含自定义注册器中的指标）
	mux.Handle("/metrics", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: 200}

		promhttp.HandlerFor(registry, promhttp.HandlerOpts{
			ErrorLog: zap.NewStdLog(log),
		}).ServeHTTP(ww, r)

		logRequest(r, "metrics request received", ww.status, start)
	}))

	// /health 端点：服务健康检查（无依赖检查，直接返回200 OK）
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: 200}

		ww.WriteHeader(http.StatusOK)
		_, _ = ww.Write([]byte("OK"))

		logRequest(r, "health check received", ww.status, start)
	})

	return &HTTPServer{
		addr:     cfg.Addr,
		registry: registry,
		log:      log,
		server: &http.Server{
			Addr:         cfg.Addr,
			Handler:      mux,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
	}
}

// Start 启动HTTP服务（非阻塞模式，监听错误在子goroutine中记录）
func (s *HTTPServer) Start() error {
	s.log.Info(
		"starting HTTP server",
		zap.String("listen_addr", s.addr),
		zap.Duration("read_timeout", s.server.ReadTimeout),
		zap.Duration("write_timeout", s.server.WriteTimeout),
		zap.Duration("idle_timeout", s.server.IdleTimeout),
	)

	go func() {
		if err := s.server.ListenAndServe(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				s.log.Fatal(
					"HTTP server failed to listen",
					zap.Error(err),
					zap.String("listen_addr", s.addr),
				)
			} else {
				s.log.Info(
					"HTTP server stopped listening",
					zap.String("listen_addr", s.addr),
				)
			}
		}
	}()
	return nil
}

// Shutdown 优雅关闭HTTP服务：停止接收新请求，等待现有请求在超时内完成
func (s *HTTPServer) Shutdown() error {
	s.log.Info("starting graceful shutdown of HTTP server", zap.String("listen_addr", s.addr))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		// 超时视为关闭完成
		if errors.Is(shutdownCtx.Err(), context.DeadlineExceeded) {
			return nil
		}
		s.log.Error("HTTP server shutdown failed", zap.Error(err), zap.String("listen_addr", s.addr))
		return err
	}
	s.log.Info("HTTP server shutdown successfully", zap.String("listen_addr", s.addr))
	return nil
}

// WaitForShutdown 监听系统退出信号（SIGINT/SIGTERM），触发优雅关闭流程
func WaitForShutdown(log *zap.Logger, shutdownFunc func() error) {
	if shutdownFunc == nil {
		log.Error("shutdownFunc is nil, cannot execute shutdown")
		return
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	log.Info("service is running, waiting for shutdown signal (SIGINT/SIGTERM)...")

	sig := <-sigChan
	log.Info("received shutdown signal", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	shutdownErrChan := make(chan error, 1)
	go func() {
		log.Info("starting graceful shutdown...")
		shutdownErrChan <- shutdownFunc()
		close(shutdownErrChan)
	}()

	select {
	case err := <-shutdownErrChan:
		if err != nil {
			log.Error("graceful shutdown failed", zap.Error(err))
		} else {
			log.Info("graceful shutdown completed successfully")
		}
	case <-ctx.Done():
		log.Error("graceful shutdown timed out", zap.Error(ctx.Err()))
	}

	log.Info("shutdown workflow finished, program exiting")
}
