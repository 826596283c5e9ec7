package main

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	qrcode "github.com/skip2/go-qrcode"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// Same-host deployments only; the client is served from here.
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		return strings.Contains(origin, r.Host)
	},
}

// SetupRoutes wires the HTTP surface: websocket endpoint, QR join codes,
// health and the static client.
func SetupRoutes(mux *http.ServeMux, hub *Hub, cfg ServerConfig) {
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		if !hub.CanAccept(ip) {
			http.Error(w, "too many connections", http.StatusTooManyRequests)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			hub.log.Debugw("upgrade failed", "ip", ip, "error", err)
			return
		}
		NewClient(hub, conn, ip).Serve()
	})

	// QR code that encodes the join URL for a session, for handing a
	// running game to a phone.
	mux.HandleFunc("/qr/", func(w http.ResponseWriter, r *http.Request) {
		sid := strings.TrimPrefix(r.URL.Path, "/qr/")
		if sid == "" || hub.sessions.GetSession(sid) == nil {
			http.NotFound(w, r)
			return
		}
		joinURL := fmt.Sprintf("%s/?join=%s", strings.TrimRight(cfg.PublicURL, "/"), sid)
		png, err := qrcode.Encode(joinURL, qrcode.Medium, 256)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(png)
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"status":"ok","connections":%d}`, hub.ConnCount())
	})

	mux.Handle("/", noCache(http.FileServer(http.Dir(cfg.ClientDir))))
}

// noCache disables caching for the static client so updates apply on reload.
func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		next.ServeHTTP(w, r)
	})
}

// extractIP returns the client IP, honoring X-Forwarded-For from a proxy.
func extractIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.Index(fwd, ","); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
