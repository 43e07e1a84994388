package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/boddenberg/trading-dashboard-bfa/internal/infra/observability"
	"github.com/boddenberg/trading-dashboard-bfa/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	streamWriteWait  = 5 * time.Second
	streamPongWait   = 30 * time.Second
	streamPingPeriod = streamPongWait * 9 / 10
)

type streamFrame struct {
	Type      string         `json:"type"` // dashboard | error
	Dashboard *dashboardView `json:"dashboard,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// dashboardStreamHandler upgrades to a websocket and pushes a recomputed
// dashboard immediately and then every StreamInterval. Upstream failures are
// sent as error frames and the stream keeps going. Query validation happens
// before the upgrade so bad requests get a plain 400.
func dashboardStreamHandler(svc *service.DashboardService, metrics *observability.Metrics, opts Options, logger *zap.Logger) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(opts.AllowedOrigins),
	}

	return func(w http.ResponseWriter, r *http.Request) {
		traderID := chi.URLParam(r, "traderId")
		q, err := parseDashboardQuery(r.URL.Query(), opts)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}
		defer conn.Close()

		metrics.StreamOpened()
		defer metrics.StreamClosed()

		// Upgrade hijacks the connection, so the request context is not
		// cancelled on disconnect; the read pump cancels ctx instead.
		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		go readPump(conn, cancel)

		log := logger.With(zap.String("trader_id", traderID))
		log.Debug("dashboard stream opened")

		ticker := time.NewTicker(opts.StreamInterval)
		defer ticker.Stop()
		ping := time.NewTicker(streamPingPeriod)
		defer ping.Stop()

		push := func() bool {
			frame := streamFrame{Type: "dashboard"}
			d, err := svc.GetDashboard(ctx, traderID, q)
			if err != nil {
				if ctx.Err() != nil {
					return false
				}
				frame = streamFrame{Type: "error", Error: err.Error()}
			} else {
				view := newDashboardView(d, svc.Location())
				frame.Dashboard = &view
			}
			conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(frame); err != nil {
				log.Debug("dashboard stream write failed", zap.Error(err))
				return false
			}
			return true
		}

		if !push() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				log.Debug("dashboard stream closed")
				return
			case <-ticker.C:
				if !push() {
					return
				}
			case <-ping.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
					return
				}
			}
		}
	}
}

// readPump drains client frames so control messages are processed and
// cancels the stream once the peer goes away.
func readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(streamPongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set["*"] || set[origin]
	}
}
