package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Conversations
	ConversationsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "deploybot_conversations_created_total",
			Help: "Total number of clarification conversations created",
		},
	)
	ConversationsCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "deploybot_conversations_completed_total",
			Help: "Total number of conversations that reached a rendered manifest",
		},
	)
	ConversationTurns = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "deploybot_conversation_turns",
			Help:    "Number of question/answer turns per completed conversation",
			Buckets: prometheus.LinearBuckets(0, 1, 8),
		},
	)

	// Extraction
	ExtractionRuns = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "deploybot_extraction_runs_total",
			Help: "Total pattern-extraction passes over user text",
		},
	)
	MissingFields = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deploybot_missing_fields_total",
			Help: "Missing-parameter evaluations by field label",
		},
		[]string{"field"},
	)

	// LLM
	LLMRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deploybot_llm_requests_total",
			Help: "Number of LLM requests by model and operation",
		},
		[]string{"model", "op"}, // op: enhance|follow_up
	)
	LLMFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deploybot_llm_fallbacks_total",
			Help: "LLM calls that fell back to the deterministic path",
		},
		[]string{"op"},
	)

	// Manifest
	ManifestRenders = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "deploybot_manifest_renders_total",
			Help: "Total manifest render operations",
		},
	)
	ManifestValidations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deploybot_manifest_validations_total",
			Help: "Manifest validation runs by result",
		},
		[]string{"result"}, // result: valid|invalid|parse_error
	)

	// Marketplace
	SubmitRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deploybot_submit_requests_total",
			Help: "Manifest submissions to the marketplace by result",
		},
		[]string{"result"},
	)

	// DB / store ops
	DBOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deploybot_db_ops_total",
			Help: "Store operations performed",
		},
		[]string{"op"}, // op: get|put|delete|list|count
	)

	// Errors
	Errors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deploybot_errors_total",
			Help: "Errors encountered in components",
		},
		[]string{"component", "type"},
	)
)

func init() {
	prometheus.MustRegister(
		ConversationsCreated,
		ConversationsCompleted,
		ConversationTurns,

		ExtractionRuns,
		MissingFields,

		LLMRequests,
		LLMFallbacks,

		ManifestRenders,
		ManifestValidations,

		SubmitRequests,

		DBOps,
		Errors,
	)
}

func StartMetricsServer() {
	http.Handle("/metrics", promhttp.Handler())
	_ = http.ListenAndServe(":2112", nil)
}

// Conversations
func IncConversationsCreated() {
	ConversationsCreated.Inc()
}

func IncConversationsCompleted() {
	ConversationsCompleted.Inc()
}

func ObserveConversationTurns(n int) {
	ConversationTurns.Observe(float64(n))
}

// Extraction
func IncExtractionRun() {
	ExtractionRuns.Inc()
}

func IncMissingField(field string) {
	MissingFields.WithLabelValues(field).Inc()
}

// LLM
func IncLLMRequest(model, op string) {
	LLMRequests.WithLabelValues(model, op).Inc()
}

func IncLLMFallback(op string) {
	LLMFallbacks.WithLabelValues(op).Inc()
}

// Manifest
func IncManifestRender() {
	ManifestRenders.Inc()
}

func IncManifestValidation(result string) {
	ManifestValidations.WithLabelValues(result).Inc()
}

// Marketplace
func IncSubmitRequest(result string) {
	SubmitRequests.WithLabelValues(result).Inc()
}

// Store ops
func IncDBOp(op string) {
	DBOps.WithLabelValues(op).Inc()
}

// Errors
func IncError(component, typ string) {
	Errors.WithLabelValues(component, typ).Inc()
}
