package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"pet-grooming-scheduler/internal/platform/logger"
	"pet-grooming-scheduler/internal/router"
)

func main() {
	addr := ":8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}

	app := router.NewApp(router.Options{
		AuthVerifier: nil, // sin verifier para modo dev
		Logger:       logger.NewFromEnv(),
	})

	if err := app.Sweeper.Start(); err != nil {
		log.Fatalf("sweeper error: %v", err)
	}
	defer app.Sweeper.Stop()

	srv := &http.Server{
		Addr:         addr,
		Handler:      app.Handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.Printf("starting server on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}
