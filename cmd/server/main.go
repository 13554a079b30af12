/*
main.go - Clock and payroll server entry point

PURPOSE:
  Starts the HTTP server: opens the sqlite database, loads the overtime
  rule (defaults or a JSON file), wires the router, and shuts down
  gracefully on SIGINT/SIGTERM.

USAGE:
  server -port 3000 -db clock.db -rules rules.json
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fnenow/clock/api"
	"github.com/fnenow/clock/factory"
	"github.com/fnenow/clock/store/sqlite"
)

func main() {
	port := flag.Int("port", 3000, "HTTP port to listen on")
	dbPath := flag.String("db", "clock.db", "Path to the sqlite database file")
	rulesPath := flag.String("rules", "", "Optional JSON file with overtime rule overrides")
	flag.Parse()

	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	rule, err := factory.LoadRuleFile(*rulesPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load overtime rules")
	}

	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}
	defer store.Close()

	handler := api.NewHandler(store)
	handler.Engine.Rule = rule

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", *port),
		Handler: api.NewRouter(handler),
	}

	go func() {
		log.WithFields(logrus.Fields{
			"port": *port,
			"db":   *dbPath,
		}).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
