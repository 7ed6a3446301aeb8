// Command rasd serves host directories and printers to RISC OS
// machines over the Access/ShareFS protocol.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	access "github.com/andrewtimmins/riscos-access-server"
	"github.com/andrewtimmins/riscos-access-server/config"
	"github.com/andrewtimmins/riscos-access-server/spool"
)

var (
	cfgFile     string
	bindIP      string
	metricsAddr string
	trace       bool
)

var rootCmd = &cobra.Command{
	Use:           "rasd",
	Short:         "Access/ShareFS file and printer server for RISC OS clients",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load the configuration and serve until interrupted",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&cfgFile, "config", "access.yaml", "configuration file")
	serveCmd.Flags().StringVar(&bindIP, "bind", "", "IP address to bind the protocol sockets to")
	serveCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "loopback address for /metrics and /healthz (disabled if empty)")
	serveCmd.Flags().BoolVar(&trace, "trace", false, "log every protocol packet")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if bindIP != "" {
		cfg.Server.BindIP = bindIP
	}

	errorLog := log.New(os.Stderr, "rasd: ", log.LstdFlags)

	srv := access.NewServer(cfg)
	srv.ErrorLog = errorLog
	if trace || cfg.Server.LogLevel == "protocol" || cfg.Server.LogLevel == "debug" {
		srv.TraceLog = log.New(os.Stderr, "rasd trace: ", log.LstdFlags)
	}
	if len(cfg.Printers) > 0 {
		sp := spool.New(cfg.Printers, spool.ExecRunner{})
		sp.ErrorLog = errorLog
		srv.Spooler = sp
	}

	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		srv.Metrics = access.NewMetrics(reg)
		go func() {
			if err := http.ListenAndServe(metricsAddr, access.MetricsHandler(reg)); err != nil {
				errorLog.Printf("metrics server: %v", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = srv.ListenAndServe(ctx)
	if err == context.Canceled {
		return nil
	}
	return err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.New(os.Stderr, "rasd: ", 0).Println(err)
		os.Exit(1)
	}
}
