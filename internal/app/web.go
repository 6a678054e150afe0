package app

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/relabs-tech/cube_viewer/internal/orientation"
	"github.com/relabs-tech/cube_viewer/internal/scene"
)

//go:embed web
var webFiles embed.FS

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// clientQueue is how many frames a slow browser may fall behind before
// frames are dropped for it.
const clientQueue = 16

// WSMessage is what the viewer page receives over /ws.
type WSMessage struct {
	Type   string               `json:"type"` // scene, transform
	Camera *scene.Camera        `json:"camera,omitempty"`
	Nodes  map[string][]float64 `json:"nodes,omitempty"`
	Node   string               `json:"node,omitempty"`
	Matrix []float64            `json:"matrix,omitempty"`
}

// WebViewer renders the scene in a browser: a three.js page that mirrors
// the node transforms it receives over a websocket.
type WebViewer struct {
	scene *scene.Scene
	reg   *prometheus.Registry

	mu       sync.RWMutex
	last     Reading
	haveLast bool
	clients  map[*wsClient]struct{}
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewWebViewer registers itself as an observer of sc. reg, if set, is
// served on /metrics.
func NewWebViewer(sc *scene.Scene, reg *prometheus.Registry) *WebViewer {
	w := &WebViewer{
		scene:   sc,
		reg:     reg,
		clients: make(map[*wsClient]struct{}),
	}
	sc.Observe(w.onTransform)
	return w
}

// Offer records the latest reading for /api/orientation.
func (w *WebViewer) Offer(r Reading) {
	w.mu.Lock()
	w.last = r
	w.haveLast = true
	w.mu.Unlock()
}

func (w *WebViewer) onTransform(node string, t orientation.Transform) {
	payload, err := json.Marshal(WSMessage{Type: "transform", Node: node, Matrix: t.Elements()})
	if err != nil {
		log.Printf("web: json marshal error: %v", err)
		return
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	for c := range w.clients {
		select {
		case c.send <- payload:
		default:
			// browser is behind; it catches up with the next frame
		}
	}
}

// Handler serves the page, the websocket, the JSON API and metrics.
func (w *WebViewer) Handler() http.Handler {
	mux := http.NewServeMux()

	// JSON API endpoint: latest sample
	mux.HandleFunc("/api/orientation", func(rw http.ResponseWriter, r *http.Request) {
		w.mu.RLock()
		last, have := w.last, w.haveLast
		w.mu.RUnlock()

		if !have {
			http.Error(rw, "no data yet", http.StatusServiceUnavailable)
			return
		}

		rw.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(rw).Encode(last); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	mux.HandleFunc("/ws", w.handleWS)

	if w.reg != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(w.reg, promhttp.HandlerOpts{}))
	}

	static, err := fs.Sub(webFiles, "web")
	if err != nil {
		// embedded at build time
		panic(err)
	}
	mux.Handle("/", http.FileServer(http.FS(static)))

	return mux
}

func (w *WebViewer) handleWS(rw http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(rw, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}

	cam := w.scene.Camera()
	nodes := make(map[string][]float64)
	for name, t := range w.scene.Nodes() {
		nodes[name] = t.Elements()
	}
	if err := conn.WriteJSON(WSMessage{Type: "scene", Camera: &cam, Nodes: nodes}); err != nil {
		log.Printf("web: websocket write error: %v", err)
		conn.Close()
		return
	}

	c := &wsClient{conn: conn, send: make(chan []byte, clientQueue)}
	w.mu.Lock()
	w.clients[c] = struct{}{}
	w.mu.Unlock()

	go c.writeLoop()

	// Read until the page goes away; the page never sends anything we use.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("web: websocket error: %v", err)
			}
			break
		}
	}

	w.mu.Lock()
	delete(w.clients, c)
	w.mu.Unlock()
	close(c.send)
}

func (c *wsClient) writeLoop() {
	defer c.conn.Close()
	for payload := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

// ListenAndServe serves Handler on addr until ctx is cancelled.
func (w *WebViewer) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: w.Handler()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("web: viewer listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
