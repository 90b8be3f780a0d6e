package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deploybot/internal/domain/entity"
)

func TestParseParamsPlainObject(t *testing.T) {
	params, err := parseParams(`{"cpu_units": 8, "memory_size": "16Gi"}`)
	require.NoError(t, err)
	assert.Equal(t, 8, params.CPUUnits)
	assert.Equal(t, "16Gi", params.MemorySize)
}

func TestParseParamsEmbeddedInProse(t *testing.T) {
	content := "Sure! Here is the corrected parameter set:\n```json\n{\"cpu_units\": 4, \"gpu\": {\"units\": 2, \"model\": \"a100\"}}\n```\nLet me know if you need anything else."
	params, err := parseParams(content)
	require.NoError(t, err)
	assert.Equal(t, 4, params.CPUUnits)
	require.NotNil(t, params.GPU)
	assert.Equal(t, "a100", params.GPU.Model)
}

func TestParseParamsNoObjectIsAnError(t *testing.T) {
	_, err := parseParams("I could not determine any parameters.")
	assert.Error(t, err)
}

func chatServer(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req["messages"])

		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]interface{}{"role": "assistant", "content": reply}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestEnhanceBackfillsAmount(t *testing.T) {
	srv := chatServer(t, `{"cpu_units": 8, "duration": "3h"}`)
	defer srv.Close()

	e := NewChatEnhancer("test-key", srv.URL, "test-model", 5*time.Second)

	pre := entity.ParameterSet{CPUUnits: 2, Amount: 9}
	out, err := e.Enhance(context.Background(), "8 cores for 3 hours", pre)
	require.NoError(t, err)

	assert.Equal(t, 8, out.CPUUnits)
	assert.Equal(t, float64(9), out.Amount)
}

func TestEnhanceTransportFailureReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	e := NewChatEnhancer("test-key", srv.URL, "test-model", 5*time.Second)

	pre := entity.ParameterSet{CPUUnits: 2}
	out, err := e.Enhance(context.Background(), "whatever", pre)
	assert.Error(t, err)
	// The pre-enhancement set comes back so callers can fall through with it.
	assert.Equal(t, pre, out)
}

func TestFollowUpQuestion(t *testing.T) {
	srv := chatServer(t, "How many CPU cores and how much memory do you need?")
	defer srv.Close()

	e := NewChatEnhancer("test-key", srv.URL, "test-model", 5*time.Second)

	q, err := e.FollowUpQuestion(context.Background(), []string{entity.LabelCPU, entity.LabelMemory}, "a box please")
	require.NoError(t, err)
	assert.Equal(t, "How many CPU cores and how much memory do you need?", q)
}
