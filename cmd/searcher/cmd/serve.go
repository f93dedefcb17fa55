package cmd

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadikovi/searcher/internal/cache"
	"github.com/sadikovi/searcher/internal/envconfig"
	"github.com/sadikovi/searcher/internal/httpapi"
	"github.com/sadikovi/searcher/internal/instance"
	"github.com/sadikovi/searcher/internal/search"
)

var (
	servePort      string
	serveInsecure  bool
	serveUseCache  bool
	serveSingleton bool
)

var serveHost = envconfig.Get("SEARCHER_HOST", "127.0.0.1", "host interface to bind the HTTP server to")

var serveCmd = &cobra.Command{
	Use:   "serve <dir>",
	Short: "Run a long-lived HTTP server searching a fixed directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := args[0]

		if serveSingleton {
			if addr, ok := instance.LoadAddress(dir); ok && instance.Ping(addr) {
				log.Info("searcher: reusing already-running instance", "addr", addr)
				return printAddr(addr)
			}
		}

		orchestrator := search.NewFindOrchestrator()
		orchestrator.Log = log
		if serveUseCache {
			orchestrator.Cache = cache.NewDirCache(5*time.Minute, time.Minute)
		}

		service := &httpapi.Service{Orchestrator: orchestrator, Log: log}

		host := serveHost
		if serveInsecure {
			host = "127.0.0.1"
		}
		listener, err := net.Listen("tcp", net.JoinHostPort(host, servePort))
		if err != nil {
			return err
		}
		addr := listener.Addr().String()

		if serveSingleton {
			if err := instance.SaveAddress(dir, addr); err != nil {
				log.Warn("searcher: failed to save connection params", "err", err)
			}
		}

		server := &http.Server{Handler: service.NewMux()}
		go shutdownOnSignal(server)

		log.Info("searcher: listening", "addr", addr, "dir", dir)
		if err := printAddr(addr); err != nil {
			return err
		}
		err = server.Serve(listener)
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	},
}

func printAddr(addr string) error {
	_, err := os.Stdout.WriteString(addr + "\n")
	return err
}

func shutdownOnSignal(s *http.Server) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	<-c
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		log.Error("searcher: graceful shutdown failed", "err", err)
	}
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "0", "port to listen on; 0 picks a free port")
	serveCmd.Flags().BoolVar(&serveInsecure, "insecure-dev", false, "force binding to 127.0.0.1 regardless of SEARCHER_HOST")
	serveCmd.Flags().BoolVar(&serveUseCache, "cache", true, "enable the directory cache for repeated searches")
	serveCmd.Flags().BoolVar(&serveSingleton, "singleton", true, "reuse (or advertise) a single running instance per directory")
	rootCmd.AddCommand(serveCmd)
}
