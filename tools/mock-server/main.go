// Package main implements a mock Discord webhook receiver for local
// development. Point notifications.discord.webhook_url at it to see the
// price-change embeds bookwatch would post without a real Discord server.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"
)

type webhookPayload struct {
	Content string  `json:"content,omitempty"`
	Embeds  []embed `json:"embeds"`
}

type embed struct {
	Title       string `json:"title"`
	Color       int    `json:"color"`
	Description string `json:"description,omitempty"`
}

// message is a received webhook post.
type message struct {
	Webhook    string    `json:"webhook"`
	ReceivedAt time.Time `json:"received_at"`
	Embeds     []embed   `json:"embeds"`
}

// inbox stores received messages in arrival order.
type inbox struct {
	mu       sync.Mutex
	messages []message
}

func (b *inbox) add(m message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, m)
}

func (b *inbox) list() []message {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]message, len(b.messages))
	copy(out, b.messages)
	return out
}

func (b *inbox) clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = nil
}

func main() {
	port := flag.Int("port", 8089, "port to listen on")
	failStatus := flag.Int("fail-status", 0, "respond to every webhook post with this status code")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("starting mock Discord server", "addr", addr,
		"webhook_url", fmt.Sprintf("http://localhost:%d/api/webhooks/local/token", *port))

	srv := &http.Server{
		Addr:         addr,
		Handler:      requestLogger(logger, newMux(logger, &inbox{}, *failStatus)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func newMux(logger *slog.Logger, box *inbox, failStatus int) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/webhooks/{id}/{token}", webhookHandler(logger, box, failStatus))
	mux.HandleFunc("GET /messages", messagesHandler(box))
	mux.HandleFunc("DELETE /messages", func(w http.ResponseWriter, _ *http.Request) {
		box.clear()
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func webhookHandler(logger *slog.Logger, box *inbox, failStatus int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if failStatus != 0 {
			logger.Warn("rejecting webhook post", "status", failStatus)
			writeJSON(w, failStatus, map[string]any{"message": http.StatusText(failStatus), "code": 0})
			return
		}

		var p webhookPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Cannot send an empty message", "code": 50006})
			return
		}
		if p.Content == "" && len(p.Embeds) == 0 {
			writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Cannot send an empty message", "code": 50006})
			return
		}

		box.add(message{
			Webhook:    r.PathValue("id"),
			ReceivedAt: time.Now().UTC(),
			Embeds:     p.Embeds,
		})
		for _, e := range p.Embeds {
			logger.Info("notification", "title", e.Title, "description", e.Description)
		}

		// Discord answers webhook posts without ?wait=true with 204.
		w.WriteHeader(http.StatusNoContent)
	}
}

func messagesHandler(box *inbox) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, box.list())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
	json.NewEncoder(w).Encode(v)
}
