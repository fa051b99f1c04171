// Copyright © 2021-2023 The Gomon Project.

package serve

import (
	"context"
	"net/http"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zosmac/gocore"
	"github.com/zosmac/psmon/process"
	"github.com/zosmac/psmon/report"
	"github.com/zosmac/psmon/system"
	"golang.org/x/net/websocket"
)

type (
	// server holds what the endpoints report on.
	server struct {
		provider   *system.Provider
		pids       []process.Pid
		newAdapter func() *process.Adapter
		measures   *measures
	}
)

var (
	// httpHeader is added to the responses of the report endpoints.
	httpHeader = http.Header{
		"Access-Control-Allow-Origin": []string{"http://localhost"},
		"Content-Type":                []string{"application/json"},
	}
)

// Handler creates the psmon endpoints for reporting on the pids:
//   - /metrics: Prometheus metrics for the system and the pids
//   - /psmon/:  a JSON report of the system and the pids
//   - /ws:      a web socket that replies to each pid received with its JSON report entry
func Handler(provider *system.Provider, pids []process.Pid, newAdapter func() *process.Adapter) http.Handler {
	s := &server{
		provider:   provider,
		pids:       pids,
		newAdapter: newAdapter,
		measures:   &measures{},
	}

	// don't use the default registry as it adds Go runtime metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(&prometheusCollector{server: s})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/psmon/", s.psmonHandler)
	mux.Handle("/ws", websocket.Server{
		Handler: s.wsHandler,
		Handshake: func(c *websocket.Config, r *http.Request) error {
			return nil
		},
	})
	return mux
}

// psmonHandler responds with the JSON report.
func (s *server) psmonHandler(w http.ResponseWriter, r *http.Request) {
	s.measures.httpRequests.Add(1)
	rpt, err := report.Gather(r.Context(), s.provider, s.pids, s.newAdapter)
	if err != nil {
		gocore.Error("psmon report", err).Warn()
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	for key, values := range httpHeader {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	if err := report.Encode(w, "json", rpt); err != nil {
		gocore.Error("psmon report", err).Warn()
	}
}

// wsHandler replies to each pid received with the pid's JSON report entry.
func (s *server) wsHandler(ws *websocket.Conn) {
	defer ws.Close()
	for {
		var msg string
		if err := websocket.Message.Receive(ws, &msg); err != nil {
			gocore.Error("websocket Receive", err).Info()
			return
		}
		s.measures.httpRequests.Add(1)

		var entry report.Entry
		pid, err := strconv.Atoi(strings.TrimSpace(msg))
		if err != nil {
			entry.Error = "invalid pid " + strconv.Quote(msg)
		} else if rpt, err := report.Gather(ws.Request().Context(), s.provider, []process.Pid{process.Pid(pid)}, s.newAdapter); err != nil {
			entry = report.Entry{Pid: process.Pid(pid), Error: err.Error()}
		} else {
			entry = rpt.Processes[0]
		}

		if err := websocket.JSON.Send(ws, entry); err != nil {
			gocore.Error("websocket Send", err).Warn()
			return
		}
	}
}

// Serve runs the psmon HTTP server until the context is canceled. The server uses https
// if a certificate and key are found in the user's .ssh directory.
func Serve(ctx context.Context, provider *system.Provider, pids []process.Pid) error {
	if si, err := scrapeInterval(prometheusConfigURL); err == nil && si >= time.Second {
		flags.sample = sample(si) // sync sample interval default with Prometheus'
	}

	srv := &http.Server{
		Addr:    "localhost:" + strconv.Itoa(flags.port),
		Handler: Handler(provider, pids, process.New),
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background()) // let server perform cleanup with timeout
	}()

	// to enable https/wss, generate a self-signed certificate for localhost with
	// crypto/tls/generate_cert.go into ~/.ssh/cert.pem and ~/.ssh/key.pem
	scheme := "http"
	serve := func() error { return srv.ListenAndServe() }
	if u, err := user.Current(); err == nil {
		certfile := filepath.Join(u.HomeDir, ".ssh", "cert.pem")
		keyfile := filepath.Join(u.HomeDir, ".ssh", "key.pem")
		if _, err := os.Stat(certfile); err == nil {
			if _, err := os.Stat(keyfile); err == nil {
				scheme = "https"
				serve = func() error { return srv.ListenAndServeTLS(certfile, keyfile) }
			}
		}
	}

	gocore.Error("psmon server", nil, map[string]string{
		"listen": scheme + "://" + srv.Addr,
		"sample": flags.sample.String(),
	}).Info()

	if err := serve(); err != http.ErrServerClosed {
		return gocore.Error("psmon server", err)
	}
	return ctx.Err()
}
