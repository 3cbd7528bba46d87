package nlu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"pizzatalk/internal/common/errors"
	httpc "pizzatalk/internal/common/http"
	"pizzatalk/internal/common/logger"
)

// RemoteModels calls the model-serving service over HTTP. Both the intent
// classifier and the entity recognizers are served behind one base URL:
//
//	POST {base}/intent            {"text": "..."}  -> {"intent": "..."}
//	POST {base}/entities          {"text": "..."}  -> {"entities": {...}}
//	POST {base}/entities/indexed  {"text": "..."}  -> {"entities": {...}}
type RemoteModels struct {
	baseURL string
	client  *httpc.Client
	logger  logger.Logger
}

func NewRemoteModels(baseURL string, timeout time.Duration, log logger.Logger) *RemoteModels {
	return &RemoteModels{
		baseURL: baseURL,
		client:  httpc.NewClient(timeout),
		logger:  log,
	}
}

type predictRequest struct {
	Text string `json:"text"`
}

type intentResponse struct {
	Intent string `json:"intent"`
}

type entitiesResponse struct {
	Entities map[EntityKind][]string `json:"entities"`
}

type indexedEntitiesResponse struct {
	Entities map[EntityKind][]Occurrence `json:"entities"`
}

func (r *RemoteModels) PredictIntent(ctx context.Context, text string) (Intent, error) {
	var out intentResponse
	if err := r.post(ctx, "/intent", text, &out); err != nil {
		return IntentUnknown, errors.NewStandardError(errors.ErrCodeIntentPredictFailed, "intent prediction failed", err.Error(), true)
	}
	return Intent(out.Intent), nil
}

func (r *RemoteModels) Predict(ctx context.Context, text string) (map[EntityKind][]string, error) {
	var out entitiesResponse
	if err := r.post(ctx, "/entities", text, &out); err != nil {
		return nil, errors.NewStandardError(errors.ErrCodeEntityPredictFailed, "entity prediction failed", err.Error(), true)
	}
	return out.Entities, nil
}

func (r *RemoteModels) PredictWithIndex(ctx context.Context, text string) (map[EntityKind][]Occurrence, error) {
	var out indexedEntitiesResponse
	if err := r.post(ctx, "/entities/indexed", text, &out); err != nil {
		return nil, errors.NewStandardError(errors.ErrCodeEntityPredictFailed, "indexed entity prediction failed", err.Error(), true)
	}
	return out.Entities, nil
}

func (r *RemoteModels) post(ctx context.Context, path, text string, out interface{}) error {
	body, err := json.Marshal(predictRequest{Text: text})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, r.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.DoWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("call model service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		r.logger.Warn("model service returned non-OK status", map[string]interface{}{
			"path":   path,
			"status": resp.StatusCode,
			"body":   string(data),
		})
		return fmt.Errorf("model service returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
