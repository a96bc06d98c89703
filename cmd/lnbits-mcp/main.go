package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/lnbits/lnbits-mcp-server/internal/config"
	"github.com/lnbits/lnbits-mcp-server/internal/mcp"
	"github.com/lnbits/lnbits-mcp-server/internal/session"
)

func main() {
	configPath := flag.String("config", "", "path to server config YAML (optional)")
	transport := flag.String("transport", "", "override transport: stdio or http")
	port := flag.Int("port", 0, "override HTTP port")
	flag.Parse()

	srvCfg, err := config.LoadServerConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *transport != "" {
		srvCfg.Transport = *transport
	}
	if *port != 0 {
		srvCfg.Port = *port
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Environment credentials seed the implicit default session in local
	// mode only. Remote callers always configure their own session.
	var defaults *config.Config
	if srvCfg.Transport == "stdio" {
		defaults, err = config.FromEnv()
		if err != nil {
			log.Fatalf("environment config: %v", err)
		}
		if defaults != nil {
			log.Printf("default session seeded from environment (url=%s, method=%s)",
				defaults.BaseURL, defaults.AuthMethod)
		}
	}

	store := session.NewStore(session.Options{
		TTL:           time.Duration(srvCfg.SessionTTLMinutes) * time.Minute,
		SweepInterval: time.Duration(srvCfg.SweepIntervalSeconds) * time.Second,
		AutoCreate:    srvCfg.Transport == "http",
		Defaults:      defaults,
	})
	defer store.Close()

	dispatcher := &mcp.Dispatcher{Store: store}
	server := mcp.NewServer(dispatcher)

	switch srvCfg.Transport {
	case "stdio":
		log.Printf("lnbits-mcp serving on stdio")
		if err := mcp.RunStdio(ctx, server); err != nil {
			log.Fatalf("server error: %v", err)
		}

	case "http":
		r := chi.NewRouter()
		r.Use(chiMiddleware.RequestID)
		r.Use(chiMiddleware.RealIP)
		r.Use(chiMiddleware.Recoverer)

		r.Mount("/mcp", mcp.NewStreamableHTTPHandler(server))
		r.Mount("/mcp/sse", mcp.NewSSEHandler(server))
		r.Mount("/mcp-rest", (&mcp.RESTHandler{Dispatcher: dispatcher}).Handler())
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"status":"ok","sessions":%d}`, store.Count())
		})

		addr := fmt.Sprintf(":%d", srvCfg.Port)
		httpServer := &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  120 * time.Second,
		}

		go func() {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh

			log.Println("shutting down...")
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer shutdownCancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				log.Printf("shutdown error: %v", err)
			}
			cancel()
		}()

		log.Printf("lnbits-mcp listening on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}

	default:
		log.Fatalf("unsupported transport %q", srvCfg.Transport)
	}
}
