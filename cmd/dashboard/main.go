package main

import (
	"context"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"platewatch/internal/client"
	"platewatch/internal/config"
	"platewatch/internal/dashboard"
	"platewatch/internal/feed"
	"platewatch/internal/logger"
	"platewatch/internal/model"
	"platewatch/internal/render"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	dc := cfg.Dashboard

	// the terminal belongs to termui, so log to files only
	lg := logger.NewFileLogger(cfg)

	api, err := client.New(dc.APIURL,
		client.WithHTTPClient(&http.Client{Timeout: dc.FetchTimeout()}),
		client.WithSession(dc.Session),
		client.WithAPIToken(cfg.APIToken),
	)
	if err != nil {
		log.Fatalf("Failed to create API client: %v", err)
	}

	session := dc.Session
	if session == "" {
		lctx, cancel := context.WithTimeout(context.Background(), dc.FetchTimeout())
		session, err = api.Login(lctx, dc.Username, cfg.DashboardPassword())
		cancel()
		if err != nil {
			log.Fatalf("Failed to log in as %s: %v", dc.Username, err)
		}
		lg.Info("Logged in to %s as %s", dc.APIURL, dc.Username)
	}

	streamClient, err := sessionClient(dc.APIURL, session)
	if err != nil {
		log.Fatalf("Failed to create stream client: %v", err)
	}

	terminal := render.NewTerminal()
	element := feed.NewHTTPElement(streamClient)
	viewer, err := feed.NewViewer(element, terminal, api, feed.Options{
		BaseURL:        dc.APIURL,
		StreamTemplate: dc.StreamTemplate,
		RetryDelay:     dc.RetryDelay(),
		Logger:         lg,
	})
	if err != nil {
		log.Fatalf("Failed to create feed viewer: %v", err)
	}

	targets := render.Multi{terminal}
	if dc.ChartPNG != "" {
		targets = append(targets, render.NewPNGFile(dc.ChartPNG, lg))
	}
	dash, err := dashboard.New(api, targets, dashboard.Config{
		Interval:     dc.Interval(),
		FetchTimeout: dc.FetchTimeout(),
		LatestCount:  dc.Latest,
		FullDay:      dc.FullDay,
		TodayOnly:    dc.TodayOnly,
	}, lg)
	if err != nil {
		log.Fatalf("Failed to create dashboard: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		dash.Start(ctx)
	}()

	if dc.SimulateInterval() > 0 {
		sim := dashboard.NewSimulator(api, dc.SimulateInterval(), lg)
		wg.Add(1)
		go func() {
			defer wg.Done()
			sim.Run(ctx)
		}()
	}

	if dc.Camera != "" {
		viewer.InitWithKnownCamera(model.CameraID(dc.Camera))
	} else {
		go func() {
			dctx, cancel := context.WithTimeout(ctx, dc.FetchTimeout())
			defer cancel()
			viewer.InitByDiscovery(dctx)
		}()
	}

	if err := terminal.Run(ctx, stop); err != nil {
		lg.Error("Terminal: %v", err)
		log.Printf("Failed to start terminal UI: %v", err)
	}

	stop()
	viewer.Stop()
	wg.Wait()
	lg.Info("Dashboard stopped at %s", time.Now().Format(time.RFC3339))
}

// sessionClient returns a client without timeout, for long-lived streams,
// that presents the session cookie to the API host.
func sessionClient(apiURL, session string) (*http.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	if session != "" {
		u, err := url.Parse(apiURL)
		if err != nil {
			return nil, err
		}
		jar.SetCookies(u, []*http.Cookie{{Name: client.SessionCookie, Value: session, Path: "/"}})
	}
	return &http.Client{Jar: jar}, nil
}
