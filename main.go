package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"affiliate-video-server/modules/analyze"
	"affiliate-video-server/modules/brief"
	"affiliate-video-server/modules/common/config"
	"affiliate-video-server/modules/common/credential"
	"affiliate-video-server/modules/common/database"
	"affiliate-video-server/modules/common/gemini"
	redisClient "affiliate-video-server/modules/common/redis"
	"affiliate-video-server/modules/generate"
	"affiliate-video-server/modules/options"
	"affiliate-video-server/modules/worker"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins; tighten to specific domains in production.
		return true
	},
}

// Client is one WebSocket subscriber of a run's progress stream.
type Client struct {
	conn  *websocket.Conn
	runID string
	send  chan []byte
}

// RunHub fans a run's progress events out to its subscribers.
type RunHub struct {
	runID        string
	clients      map[*Client]bool
	mutex        sync.RWMutex
	createdAt    time.Time
	lastActivity time.Time
}

// HubManager owns one hub per run and implements generate.EventSink.
type HubManager struct {
	hubs    map[string]*RunHub
	mutex   sync.RWMutex
	metrics *ServerMetrics
}

// ServerMetrics - counters for /api/metrics
type ServerMetrics struct {
	TotalHubs        int       `json:"totalHubs"`
	ActiveHubs       int       `json:"activeHubs"`
	TotalConnections int       `json:"totalConnections"`
	StartTime        time.Time `json:"startTime"`
	mutex            sync.RWMutex
}

var hubManager = &HubManager{
	hubs: make(map[string]*RunHub),
	metrics: &ServerMetrics{
		StartTime: time.Now(),
	},
}

// ProgressEvent is the wire shape of every pushed event.
type ProgressEvent struct {
	Type    string      `json:"type"` // slot_updated | run_completed | run_failed
	RunID   string      `json:"run_id"`
	Slot    interface{} `json:"slot,omitempty"`
	Message string      `json:"message,omitempty"`
}

func (hm *HubManager) getOrCreateHub(runID string) *RunHub {
	hm.mutex.Lock()
	defer hm.mutex.Unlock()

	hub, exists := hm.hubs[runID]
	if !exists {
		now := time.Now()
		hub = &RunHub{
			runID:        runID,
			clients:      make(map[*Client]bool),
			createdAt:    now,
			lastActivity: now,
		}
		hm.hubs[runID] = hub

		hm.metrics.mutex.Lock()
		hm.metrics.TotalHubs++
		hm.metrics.ActiveHubs++
		hm.metrics.mutex.Unlock()

		log.Printf("✅ Created progress hub for run %s (Total: %d, Active: %d)",
			runID, hm.metrics.TotalHubs, hm.metrics.ActiveHubs)
	}

	hub.lastActivity = time.Now()
	return hub
}

func (hm *HubManager) hub(runID string) *RunHub {
	hm.mutex.RLock()
	defer hm.mutex.RUnlock()
	return hm.hubs[runID]
}

// SlotUpdated implements generate.EventSink.
func (hm *HubManager) SlotUpdated(runID string, item generate.ResultItem) {
	hm.broadcast(runID, ProgressEvent{Type: "slot_updated", RunID: runID, Slot: item})
}

// RunCompleted implements generate.EventSink.
func (hm *HubManager) RunCompleted(runID string) {
	hm.broadcast(runID, ProgressEvent{Type: "run_completed", RunID: runID})
}

// RunFailed implements generate.EventSink.
func (hm *HubManager) RunFailed(runID string, message string) {
	hm.broadcast(runID, ProgressEvent{Type: "run_failed", RunID: runID, Message: message})
}

// broadcast drops the event silently when the run has no subscribers:
// progress is also persisted, so a late client catches up over HTTP.
func (hm *HubManager) broadcast(runID string, event ProgressEvent) {
	hub := hm.hub(runID)
	if hub == nil {
		return
	}

	messageBytes, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error marshaling event: %v", err)
		return
	}

	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	hub.lastActivity = time.Now()

	for client := range hub.clients {
		select {
		case client.send <- messageBytes:
		default:
			close(client.send)
			delete(hub.clients, client)
		}
	}
}

func (h *RunHub) addClient(client *Client) {
	h.mutex.Lock()
	h.clients[client] = true
	h.lastActivity = time.Now()
	clientCount := len(h.clients)
	h.mutex.Unlock()

	hubManager.metrics.mutex.Lock()
	hubManager.metrics.TotalConnections++
	hubManager.metrics.mutex.Unlock()

	log.Printf("👤 Subscriber joined run %s (Subscribers: %d, Total Connections: %d)",
		h.runID, clientCount, hubManager.metrics.TotalConnections)
}

func (h *RunHub) removeClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, exists := h.clients[client]; exists {
		close(client.send)
		delete(h.clients, client)
		h.lastActivity = time.Now()
		log.Printf("👋 Subscriber left run %s (Remaining: %d)", h.runID, len(h.clients))
	}
}

// cleanupStaleHubs drops hubs with no subscribers that have been idle
// past the threshold.
func (hm *HubManager) cleanupStaleHubs(idleThreshold time.Duration) {
	hm.mutex.Lock()
	defer hm.mutex.Unlock()

	now := time.Now()
	cleaned := 0
	for runID, hub := range hm.hubs {
		hub.mutex.RLock()
		stale := len(hub.clients) == 0 && now.Sub(hub.lastActivity) > idleThreshold
		hub.mutex.RUnlock()

		if stale {
			delete(hm.hubs, runID)
			cleaned++

			hm.metrics.mutex.Lock()
			hm.metrics.ActiveHubs--
			hm.metrics.mutex.Unlock()

			log.Printf("🧹 Cleaned up idle progress hub: %s", runID)
		}
	}

	if cleaned > 0 {
		log.Printf("🗑️  Cleaned up %d idle hubs (Active: %d)", cleaned, hm.metrics.ActiveHubs)
	}
}

func (hm *HubManager) startCleanupRoutine() {
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			hm.cleanupStaleHubs(30 * time.Minute)
		}
	}()
	log.Printf("🔄 Started hub cleanup routine (every 5min, idle threshold 30min)")
}

// handleWebSocket - GET /ws/{runId}
func handleWebSocket(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["runId"]
	if runID == "" {
		http.Error(w, "runId is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		conn:  conn,
		runID: runID,
		send:  make(chan []byte, 256),
	}

	log.Printf("🔍 New WebSocket subscriber - Run: %s", runID)

	hub := hubManager.getOrCreateHub(runID)
	hub.addClient(client)

	go client.writePump()
	go client.readPump(hub)
}

// readPump drains the connection until it closes. The stream is one-way;
// incoming frames are ignored.
func (c *Client) readPump(hub *RunHub) {
	defer func() {
		hub.removeClient(c)
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("WebSocket write error: %v", err)
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// enableCORS - CORS middleware
func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "affiliate-video-server",
	})
}

func metricsHandler(engines *generate.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hubManager.metrics.mutex.RLock()
		startTime := hubManager.metrics.StartTime
		totalHubs := hubManager.metrics.TotalHubs
		activeHubs := hubManager.metrics.ActiveHubs
		totalConnections := hubManager.metrics.TotalConnections
		hubManager.metrics.mutex.RUnlock()

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"server": map[string]interface{}{
				"uptime":           time.Since(startTime).String(),
				"startTime":        startTime,
				"totalHubs":        totalHubs,
				"activeHubs":       activeHubs,
				"totalConnections": totalConnections,
				"activeRuns":       engines.Count(),
			},
		})
	}
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	rdb := redisClient.Connect(cfg)
	if rdb == nil {
		log.Fatal("❌ Failed to connect to Redis")
	}
	log.Println("✅ Redis connected successfully")

	dbClient := database.NewClient()
	if dbClient == nil {
		log.Fatal("❌ Failed to initialize database client")
	}

	creds := credential.NewStore(rdb)
	if len(cfg.GeminiAPIKeys) > 0 {
		if err := creds.Seed(context.Background(), cfg.GeminiAPIKeys[0]); err != nil {
			log.Printf("⚠️  Failed to seed credential store: %v", err)
		}
	}

	geminiClient := gemini.NewClient(cfg, creds)
	engineManager := generate.NewManager()
	briefGenerator := brief.NewGenerator(geminiClient)

	hubManager.startCleanupRoutine()

	// Evict engines for runs nobody has touched in a while; an engine
	// mid-run is never evicted.
	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			if evicted := engineManager.CleanupStale(2 * time.Hour); evicted > 0 {
				log.Printf("🧹 Evicted %d idle run engines", evicted)
			}
		}
	}()

	go worker.StartWorker(worker.Deps{
		Config:  cfg,
		RDB:     rdb,
		DB:      dbClient,
		Gemini:  geminiClient,
		Creds:   creds,
		Manager: engineManager,
		Events:  hubManager,
	})

	r := mux.NewRouter()
	r.Use(enableCORS)

	r.HandleFunc("/", healthCheck).Methods("GET")
	r.HandleFunc("/health", healthCheck).Methods("GET")
	r.HandleFunc("/ws/{runId}", handleWebSocket)
	r.HandleFunc("/api/metrics", metricsHandler(engineManager)).Methods("GET")

	options.NewHandler().RegisterRoutes(r)
	credential.NewHandler(creds).RegisterRoutes(r)
	analyze.NewHandler(analyze.NewService(geminiClient)).RegisterRoutes(r)

	if enqueue := worker.NewEnqueueHandler(rdb, dbClient); enqueue != nil {
		enqueue.RegisterRoutes(r)
	}
	if cancel := worker.NewCancelHandler(rdb, dbClient); cancel != nil {
		cancel.RegisterRoutes(r)
	}
	generate.NewHandler(engineManager, dbClient, briefGenerator).RegisterRoutes(r)

	log.Printf("🚀 Affiliate Video Server starting on port %s", cfg.Port)
	log.Printf("📡 WebSocket endpoint: ws://localhost:%s/ws/{runId}", cfg.Port)
	log.Printf("❤️  Health check: http://localhost:%s/health", cfg.Port)
	log.Printf("📊 Metrics: http://localhost:%s/api/metrics", cfg.Port)

	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
