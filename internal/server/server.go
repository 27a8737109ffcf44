package server

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/shaunagostinho/buslink/internal/gps"
	"github.com/shaunagostinho/buslink/internal/plc"
)

// Server polls the PLC and GPS providers and broadcasts snapshots to
// WebSocket clients.
type Server struct {
	cfg     *Config
	plcProv plc.Provider
	gpsProv gps.Provider
	webFS   fs.FS
	metrics http.Handler
	log     *zap.Logger

	clients   map[*wsClient]struct{}
	clientsMu sync.RWMutex

	upgrader websocket.Upgrader
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Snapshot is the JSON structure sent to all WebSocket clients.
type Snapshot struct {
	PLC      *plc.Status `json:"plc,omitempty"`
	PLCError string      `json:"plcError,omitempty"`
	GPS      *gps.Data   `json:"gps,omitempty"`
	Stamp    int64       `json:"stamp"` // Unix ms
}

// New creates a new Server. metricsHandler may be nil.
func New(cfg *Config, plcProv plc.Provider, gpsProv gps.Provider, webFS fs.FS, metricsHandler http.Handler, log *zap.Logger) *Server {
	return &Server{
		cfg:     cfg,
		plcProv: plcProv,
		gpsProv: gpsProv,
		webFS:   webFS,
		metrics: metricsHandler,
		log:     log,
		clients: make(map[*wsClient]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Serve embedded web files
	if s.webFS != nil {
		mux.Handle("/", http.FileServer(http.FS(s.webFS)))
	}
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/api/config", s.handleConfig)

	if s.metrics != nil && s.cfg.Metrics.Enabled {
		path := s.cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		mux.Handle(path, s.metrics)
	}
	return mux
}

// Run starts the HTTP server and data polling loops.
func (s *Server) Run(ctx context.Context) error {
	go s.pollLoop(ctx)

	srv := &http.Server{
		Addr:    s.cfg.Server.ListenAddr,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutCtx)
	}()

	s.log.Info("listening", zap.String("addr", s.cfg.Server.ListenAddr))
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &wsClient{
		conn: conn,
		send: make(chan []byte, 64),
	}

	s.clientsMu.Lock()
	s.clients[client] = struct{}{}
	n := len(s.clients)
	s.clientsMu.Unlock()
	s.log.Info("client connected", zap.Int("clients", n))

	// Writer goroutine
	go func() {
		defer conn.Close()
		for msg := range client.send {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				break
			}
		}
	}()

	// Reader goroutine (keep-alive, detects close)
	go func() {
		defer func() {
			s.clientsMu.Lock()
			delete(s.clients, client)
			n := len(s.clients)
			close(client.send)
			s.clientsMu.Unlock()
			s.log.Info("client disconnected", zap.Int("clients", n))
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	data, err := s.cfg.ToJSON()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// pollLoop requests data from the PLC and GPS independently, then
// broadcasts combined snapshots. GPS continues even if the PLC is down.
func (s *Server) pollLoop(ctx context.Context) {
	plcHz := s.cfg.PLC.PollHz
	if plcHz <= 0 {
		plcHz = 5
	}
	plcTicker := time.NewTicker(time.Second / time.Duration(plcHz))
	gpsTicker := time.NewTicker(100 * time.Millisecond) // 10 Hz
	broadcastTicker := time.NewTicker(200 * time.Millisecond)
	defer plcTicker.Stop()
	defer gpsTicker.Stop()
	defer broadcastTicker.Stop()

	var (
		mu       sync.Mutex
		lastPLC  *plc.Status
		lastGPS  *gps.Data
		plcError string
	)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-gpsTicker.C:
				if s.gpsProv == nil {
					continue
				}
				if data, err := s.gpsProv.Read(); err == nil {
					mu.Lock()
					lastGPS = data
					mu.Unlock()
				}
			}
		}
	}()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-plcTicker.C:
				if s.plcProv == nil || !s.plcProv.IsConnected() {
					continue
				}
				st, err := s.plcProv.Poll()
				mu.Lock()
				if err != nil {
					plcError = err.Error()
				} else {
					lastPLC, plcError = st, ""
				}
				mu.Unlock()
				if err != nil {
					s.log.Debug("poll failed", zap.Error(err))
				}
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-broadcastTicker.C:
			mu.Lock()
			snap := Snapshot{PLC: lastPLC, PLCError: plcError, GPS: lastGPS}
			mu.Unlock()

			// Only broadcast if we have at least something
			if snap.PLC != nil || snap.GPS != nil || snap.PLCError != "" {
				snap.Stamp = time.Now().UnixMilli()
				s.broadcast(snap)
			}
		}
	}
}

func (s *Server) broadcast(snap Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		return
	}

	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for client := range s.clients {
		select {
		case client.send <- data:
		default:
			// Client too slow, skip
		}
	}
}
