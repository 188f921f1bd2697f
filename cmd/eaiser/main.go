package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eaiser/internal/auth"
	"eaiser/internal/config"
	"eaiser/internal/db"
	httpx "eaiser/internal/http"
	"eaiser/internal/jobs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	gdb, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := db.AutoMigrateAndIndexes(gdb); err != nil {
		log.Fatal(err)
	}

	jwtSvc, err := auth.NewJWT(cfg.JWTSecret)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	verifier, err := auth.NewGoogleVerifier(ctx, cfg.GoogleClientID)
	if err != nil {
		log.Fatal(err)
	}

	mail := &jobs.Repo{DB: gdb}
	svc := &auth.Service{
		Store:    &auth.GormStore{DB: gdb},
		JWT:      jwtSvc,
		Verifier: verifier,
		Mail:     mail,
	}

	r := httpx.NewRouter(cfg, svc, jwtSvc)

	// worker
	worker := &jobs.Worker{ID: "worker-1", Repo: mail, Mailer: jobs.LogMailer{}}
	go worker.Run(ctx)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("listening on %s\n", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
