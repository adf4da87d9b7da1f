package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/pkg/browser"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"justapengu.in/pitwall"
	"justapengu.in/pitwall/internal/openf1"
)

var (
	configPath  string
	openBrowser bool
)

func init() {
	flag.StringVar(&configPath, "c", "./config.yml", "config path")
	flag.BoolVar(&openBrowser, "open", false, "open the dashboard in a browser once it is listening")
	flag.Parse()
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	config, err := pitwall.ReadConfig(configPath)

	if err != nil {
		logger.WithError(err).Fatalf("Could not read config at %s", configPath)
	}

	level, err := logrus.ParseLevel(config.LogLevel)

	if err != nil {
		logger.WithError(err).Warnf("Unknown log level %q, using info", config.LogLevel)
		level = logrus.InfoLevel
	}

	logger.SetLevel(level)

	cache, err := openf1.OpenResponseCache(config.Cache.Directory)

	if err != nil {
		logger.WithError(err).Fatalf("Could not open response cache in %s", config.Cache.Directory)
	}

	defer cache.Close()

	if n, err := cache.Len(); err == nil {
		logger.Infof("Using response cache %s (%d responses, %s)", cache.Path(), n, humanize.Bytes(uint64(cache.Size())))
	}

	client := openf1.New(
		openf1.WithBaseURL(config.Provider.BaseURL),
		openf1.WithHTTPClient(&http.Client{Timeout: config.Provider.Timeout}),
		openf1.WithCache(cache),
		openf1.WithLogger(logger),
		openf1.WithRequestHook(pitwall.ObserveProviderRequest),
	)

	var reporter pitwall.ErrorReporter

	if config.SentryDSN != "" {
		reporter, err = pitwall.NewSentryReporter(config.SentryDSN)

		if err != nil {
			logger.WithError(err).Error("Could not configure sentry, errors will not be reported")
		}
	}

	if config.Metrics.Enabled {
		if err := pitwall.RegisterMetrics(prometheus.DefaultRegisterer); err != nil {
			logger.WithError(err).Fatal("Could not register metrics")
		}
	}

	loader := pitwall.NewSessionLoader(client, config.Cache.MemoTTL, config.Provider.Timeout, reporter, logger)
	dashboard := pitwall.NewDashboard(config, loader, prometheus.DefaultGatherer, logger)

	listener, err := net.Listen("tcp", config.HTTP.Hostname)

	if err != nil {
		logger.WithError(err).Fatalf("Could not listen on %s", config.HTTP.Hostname)
	}

	server := &http.Server{
		Handler: dashboard.Router(),
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	go func() {
		for range c {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)

			if err := server.Shutdown(ctx); err != nil {
				logger.WithError(err).Error("Could not stop HTTP server")
			}

			cancel()
		}
	}()

	url := dashboardURL(listener.Addr().String())

	fmt.Printf("\n%s %d %s: %s\n", color.RedString("pitwall"), config.Event.Year, config.Event.Title, color.GreenString(url))
	fmt.Printf("%s\n\n", color.New(color.Faint).Sprint(driversLine(config)))

	if openBrowser || config.HTTP.OpenBrowser {
		if err := browser.OpenURL(url); err != nil {
			logger.WithError(err).Warn("Could not open browser")
		}
	}

	if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
		logger.WithError(err).Fatal("Could not serve dashboard")
	}

	logger.Infof("Server stopped. Exiting")
}

func dashboardURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)

	if err != nil {
		return "http://" + addr
	}

	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}

	return "http://" + net.JoinHostPort(host, port)
}

func driversLine(config *pitwall.Configuration) string {
	labels := make([]string, 0, len(config.Drivers))

	for _, driver := range config.Drivers {
		labels = append(labels, driver.Label())
	}

	return strings.Join(labels, " vs ")
}
