package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/avallone/convertd/api/handlers"
	"github.com/avallone/convertd/api/routes"
	"github.com/avallone/convertd/config"
	"github.com/avallone/convertd/internal/service/conversion"
	"github.com/avallone/convertd/pkg/logger"
)

func main() {
	cfg := config.Get()

	log, err := logger.NewLogger(
		logger.WithLevel(cfg.LogLevel),
		logger.WithEncoding(cfg.LogEncoding),
		logger.WithOutputPaths([]string{"stdout", cfg.LogFile}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	convService, err := conversion.GetService(log)
	if err != nil {
		log.Fatal("Failed to get conversion service:", logger.Error(err))
	}

	h := handlers.NewHandlers(convService, log)
	r := gin.New()
	r.Use(gin.Recovery())
	r.MaxMultipartMemory = cfg.MaxUploadSize
	routes.SetupRoutes(r, h)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: r,
	}

	go func() {
		log.Info("Server starting", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server error:", logger.Error(err))
		}
	}()

	// wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown:", logger.Error(err))
	}
}
