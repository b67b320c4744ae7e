package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"betinsight-service/apifootball"
	"betinsight-service/config"
	"betinsight-service/logger"
	"betinsight-service/pkg/common"
	"betinsight-service/services"
)

type Server struct {
	config     *config.Config
	dashboard  *services.DashboardService
	poller     *services.FixturePoller
	wsHub      *Hub
	httpServer *http.Server
	upgrader   websocket.Upgrader
}

func NewServer(cfg *config.Config, dashboard *services.DashboardService, poller *services.FixturePoller, hub *Hub) *Server {
	return &Server{
		config:    cfg,
		dashboard: dashboard,
		poller:    poller,
		wsHub:     hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有来源(生产环境需要限制)
			},
		},
	}
}

// Handler 路由 + CORS
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()

	// API路由
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/dashboard", s.handleDashboard).Methods("GET")
	api.HandleFunc("/soccer", s.handleSoccer).Methods("GET")
	api.HandleFunc("/spina-zonke", s.handleSpinaZonke).Methods("GET")
	api.HandleFunc("/fixtures/live", s.handleLiveFixtures).Methods("GET")
	api.HandleFunc("/fixtures/upcoming", s.handleUpcomingFixtures).Methods("GET")
	api.HandleFunc("/fixtures/{id}/prediction", s.handlePrediction).Methods("GET")
	api.HandleFunc("/h2h/{home}/{away}", s.handleHeadToHead).Methods("GET")
	api.HandleFunc("/predictions/history", s.handlePredictionHistory).Methods("GET")
	api.HandleFunc("/predictions/high-confidence", s.handleHighConfidence).Methods("GET")

	// WebSocket路由
	router.HandleFunc("/ws", s.handleWebSocket)

	// CORS配置
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return c.Handler(router)
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         ":" + s.config.Port,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Printf("[Server] Listening on :%s", s.config.Port)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop() {
	if s.httpServer == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		logger.Errorf("[Server] Shutdown error: %v", err)
	}
}

// handleHealth 健康检查
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":      "ok",
		"time":        time.Now().Unix(),
		"environment": s.config.Environment,
	}
	if s.poller != nil {
		resp["poller"] = s.poller.Status()
	}
	if s.wsHub != nil {
		resp["clients"] = s.wsHub.ClientCount()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleWebSocket WebSocket连接处理
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Errorf("[Server] WebSocket upgrade error: %v", err)
		return
	}

	client := &Client{
		hub:     s.wsHub,
		conn:    conn,
		send:    make(chan []byte, 256),
		filters: make(map[string]bool),
	}

	client.hub.register <- client

	// 发送欢迎消息
	welcome := marshalMessage(&WSMessage{
		Type:      MessageConnected,
		Timestamp: time.Now().Unix(),
		Data: map[string]interface{}{
			"message": "Connected to BetInsight WebSocket",
		},
	})
	client.send <- welcome

	go client.writePump()
	go client.readPump()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorf("[Server] Failed to encode response: %v", err)
	}
}

// writeError 按错误类型映射状态码
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, common.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, common.ErrFixtureNotFound), errors.Is(err, apifootball.ErrPredictionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrStoreDisabled):
		status = http.StatusServiceUnavailable
	}

	resp := map[string]interface{}{
		"error": err.Error(),
	}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		resp["code"] = appErr.Code
		resp["message"] = appErr.Message
	}
	writeJSON(w, status, resp)
}
