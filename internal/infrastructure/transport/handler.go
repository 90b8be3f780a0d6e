package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"deploybot/app/usecase"
	"deploybot/internal/domain/repository"
	"deploybot/internal/infrastructure/manifest"
)

type DeployBotHandler struct {
	generateService   usecase.GenerateUsecase
	deploymentService usecase.DeploymentUsecase
	marketplace       repository.MarketplaceClient
	logger            *slog.Logger
	upgrader          websocket.Upgrader

	// метрики
	reqDuration *prometheus.HistogramVec
	reqCount    *prometheus.CounterVec
	errCount    *prometheus.CounterVec
}

func NewDeployBotHandler(
	generateService usecase.GenerateUsecase,
	deploymentService usecase.DeploymentUsecase,
	marketplace repository.MarketplaceClient,
	logger *slog.Logger,
) *DeployBotHandler {

	reqDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	reqCount := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed.",
		},
		[]string{"method", "path"},
	)

	errCount := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total number of HTTP request errors.",
		},
		[]string{"method", "path", "status"},
	)

	prometheus.MustRegister(reqDuration, reqCount, errCount)

	return &DeployBotHandler{
		generateService:   generateService,
		deploymentService: deploymentService,
		marketplace:       marketplace,
		logger:            logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		reqDuration: reqDuration,
		reqCount:    reqCount,
		errCount:    errCount,
	}
}

// Middleware для метрик
func (h *DeployBotHandler) withMetrics(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := r.URL.Path
		method := r.Method

		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rw, r)

		duration := time.Since(start).Seconds()
		statusStr := strconv.Itoa(rw.status)

		h.reqCount.WithLabelValues(method, path).Inc()
		h.reqDuration.WithLabelValues(method, path, statusStr).Observe(duration)

		if rw.status >= 400 {
			h.errCount.WithLabelValues(method, path, statusStr).Inc()
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (h *DeployBotHandler) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/generate", h.withMetrics(h.handleGenerate)).Methods(http.MethodPost)
	api.HandleFunc("/conversations/{id}", h.withMetrics(h.handleGetConversation)).Methods(http.MethodGet)
	api.HandleFunc("/conversations/{id}", h.withMetrics(h.handleDeleteConversation)).Methods(http.MethodDelete)
	api.HandleFunc("/validate", h.withMetrics(h.handleValidate)).Methods(http.MethodPost)
	api.HandleFunc("/deployments", h.withMetrics(h.handleCreateDeployment)).Methods(http.MethodPost)
	api.HandleFunc("/deployments", h.withMetrics(h.handleListDeployments)).Methods(http.MethodGet)
	api.HandleFunc("/deployments/{id}", h.withMetrics(h.handleGetDeployment)).Methods(http.MethodGet)
	api.HandleFunc("/deployments/{id}", h.withMetrics(h.handleDeleteDeployment)).Methods(http.MethodDelete)
	api.HandleFunc("/deployments/{id}/submit", h.withMetrics(h.handleSubmitDeployment)).Methods(http.MethodPost)
	api.HandleFunc("/balance", h.withMetrics(h.handleBalance)).Methods(http.MethodGet)
	api.HandleFunc("/health", h.withMetrics(h.handleHealth)).Methods(http.MethodGet)
	api.HandleFunc("/chat", h.handleChat)

	// Prometheus
	r.Handle("/metrics", promhttp.Handler())
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

// POST /api/v1/generate
func (h *DeployBotHandler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req usecase.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("bad request body: %w", err))
		return
	}

	res, err := h.generateService.Process(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrMissingInput):
			writeError(w, http.StatusBadRequest, err)
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, err)
		default:
			h.logger.Error("generate failed", "err", err)
			writeError(w, http.StatusInternalServerError, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// GET /api/v1/conversations/{id}
func (h *DeployBotHandler) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		writeError(w, http.StatusBadRequest, errors.New("id required"))
		return
	}
	conv, err := h.generateService.GetConversation(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, errors.New("conversation not found"))
			return
		}
		h.logger.Error("get conversation failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// DELETE /api/v1/conversations/{id}
func (h *DeployBotHandler) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		writeError(w, http.StatusBadRequest, errors.New("id required"))
		return
	}
	existed, err := h.generateService.DeleteConversation(r.Context(), id)
	if err != nil {
		h.logger.Error("delete conversation failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if !existed {
		writeError(w, http.StatusNotFound, errors.New("conversation not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type validateReq struct {
	Document string `json:"document"`
}

// POST /api/v1/validate
func (h *DeployBotHandler) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("bad request body: %w", err))
		return
	}
	if req.Document == "" {
		writeError(w, http.StatusBadRequest, errors.New("document is required"))
		return
	}

	writeJSON(w, http.StatusOK, manifest.Validate(req.Document))
}

type createDeploymentReq struct {
	ConversationID string `json:"conversation_id"`
}

// POST /api/v1/deployments
func (h *DeployBotHandler) handleCreateDeployment(w http.ResponseWriter, r *http.Request) {
	var req createDeploymentReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("bad request body: %w", err))
		return
	}
	if req.ConversationID == "" {
		writeError(w, http.StatusBadRequest, errors.New("conversation_id is required"))
		return
	}

	dep, err := h.deploymentService.CreateFromConversation(r.Context(), req.ConversationID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, errors.New("conversation not found"))
		case errors.Is(err, usecase.ErrConversationIncomplete):
			writeError(w, http.StatusBadRequest, err)
		default:
			h.logger.Error("create deployment failed", "conversation_id", req.ConversationID, "err", err)
			writeError(w, http.StatusInternalServerError, err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, dep)
}

// GET /api/v1/deployments
func (h *DeployBotHandler) handleListDeployments(w http.ResponseWriter, r *http.Request) {
	deps, err := h.deploymentService.ListDeployments(r.Context())
	if err != nil {
		h.logger.Error("list deployments failed", "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, deps)
}

// GET /api/v1/deployments/{id}
func (h *DeployBotHandler) handleGetDeployment(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		writeError(w, http.StatusBadRequest, errors.New("id required"))
		return
	}
	dep, err := h.deploymentService.GetDeployment(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, errors.New("deployment not found"))
			return
		}
		h.logger.Error("get deployment failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, dep)
}

// DELETE /api/v1/deployments/{id}
func (h *DeployBotHandler) handleDeleteDeployment(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		writeError(w, http.StatusBadRequest, errors.New("id required"))
		return
	}
	if err := h.deploymentService.DeleteDeployment(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, errors.New("deployment not found"))
			return
		}
		h.logger.Error("delete deployment failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/v1/deployments/{id}/submit
func (h *DeployBotHandler) handleSubmitDeployment(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		writeError(w, http.StatusBadRequest, errors.New("id required"))
		return
	}

	dep, err := h.deploymentService.SubmitDeployment(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, errors.New("deployment not found"))
			return
		}
		h.logger.Error("submit deployment failed", "id", id, "err", err)
		writeError(w, http.StatusBadGateway, err)
		return
	}

	writeJSON(w, http.StatusAccepted, dep)
}

// GET /api/v1/balance
func (h *DeployBotHandler) handleBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.marketplace.GetBalance(r.Context())
	if err != nil {
		h.logger.Error("get balance failed", "err", err)
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

// GET /api/v1/health
func (h *DeployBotHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"ok": true,
		"ts": time.Now().UTC(),
	}
	writeJSON(w, http.StatusOK, status)
}

type chatMessage struct {
	Description    string `json:"description,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	Answer         string `json:"answer,omitempty"`
}

// GET /api/v1/chat — websocket. Каждое входящее сообщение это один ход
// диалога; ответ повторяет формат /generate.
func (h *DeployBotHandler) handleChat(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	// id последнего начатого диалога; клиент может не присылать его явно.
	var conversationID string

	for {
		var msg chatMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read failed", "err", err)
			}
			return
		}

		req := usecase.GenerateRequest{
			Description:    msg.Description,
			ConversationID: msg.ConversationID,
			Answer:         msg.Answer,
		}
		if req.ConversationID == "" && req.Description == "" && conversationID != "" {
			req.ConversationID = conversationID
			req.Answer = msg.Answer
		}

		res, err := h.generateService.Process(r.Context(), req)
		if err != nil {
			if writeErr := conn.WriteJSON(map[string]string{"error": err.Error()}); writeErr != nil {
				return
			}
			continue
		}
		conversationID = res.ConversationID

		if err := conn.WriteJSON(res); err != nil {
			return
		}
	}
}
