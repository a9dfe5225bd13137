/*
Package classify provides suitability classifier implementations.

PURPOSE:
  The scoring engine treats the classifier as an injected capability
  (allocation.Classifier). This package supplies the two production
  implementations:

  - HTTPClassifier: posts the encoded feature text to an inference
    service and decodes {label, confidence}. This is how a hosted
    sequence-classification model is reached in deployment.
  - Heuristic: a deterministic rule classifier used as the default when
    no inference endpoint is configured, and in demos. It mirrors the
    degraded behavior of the scoring pipeline when the real model is
    absent: a candidate is "suitable" when capacity-like signals in the
    text look right, with modest confidence.

  Tests use allocation.ClassifierFunc stubs directly and need nothing
  from here.

SEE ALSO:
  - allocation/classifier.go: The interface and Prediction type
  - allocation/scorer.go:     Degraded-mode handling on errors
*/
package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/warp/workspace-engine/allocation"
)

// =============================================================================
// HTTP CLASSIFIER
// =============================================================================

// HTTPClassifier calls a remote inference endpoint. The request body is
// {"text": "..."} and the expected response is
// {"label": "positive"|"negative", "confidence": 0.0-1.0}.
type HTTPClassifier struct {
	URL    string
	Client *http.Client
}

// NewHTTPClassifier creates a classifier client with a sane default
// timeout. Per-call deadlines from the scorer still apply on top.
func NewHTTPClassifier(url string) *HTTPClassifier {
	return &HTTPClassifier{
		URL:    url,
		Client: &http.Client{Timeout: 5 * time.Second},
	}
}

type classifyRequest struct {
	Text string `json:"text"`
}

type classifyResponse struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

func (c *HTTPClassifier) Classify(ctx context.Context, text string) (allocation.Prediction, error) {
	body, err := json.Marshal(classifyRequest{Text: text})
	if err != nil {
		return allocation.Prediction{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return allocation.Prediction{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return allocation.Prediction{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return allocation.Prediction{}, fmt.Errorf("classifier returned status %d", resp.StatusCode)
	}

	var out classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return allocation.Prediction{}, fmt.Errorf("classifier response malformed: %w", err)
	}

	label := allocation.LabelNegative
	if out.Label == string(allocation.LabelPositive) {
		label = allocation.LabelPositive
	}
	return allocation.Prediction{Label: label, Confidence: out.Confidence}, nil
}

// =============================================================================
// HEURISTIC CLASSIFIER
// =============================================================================

// Heuristic is a deterministic stand-in for the learned model. It
// parses the capacity and team-size features out of the canonical
// encoding and votes positive when the workspace can hold the team,
// with confidence 0.5 (the model's "I don't really know" point), edging
// up slightly when the fit is generous.
type Heuristic struct{}

var (
	capacityRe = regexp.MustCompile(`Capacity: (\d+)\.`)
	teamSizeRe = regexp.MustCompile(`Team size needed: (\d+)\.`)
)

func (Heuristic) Classify(_ context.Context, text string) (allocation.Prediction, error) {
	capacity := extractInt(capacityRe, text)
	teamSize := extractInt(teamSizeRe, text)

	if capacity <= 0 || teamSize <= 0 {
		return allocation.Prediction{Label: allocation.LabelNegative, Confidence: 0.5}, nil
	}
	if capacity < teamSize {
		return allocation.Prediction{Label: allocation.LabelNegative, Confidence: 0.5}, nil
	}

	confidence := 0.5
	if capacity >= teamSize*2 {
		confidence = 0.6
	}
	return allocation.Prediction{Label: allocation.LabelPositive, Confidence: confidence}, nil
}

func extractInt(re *regexp.Regexp, text string) int {
	m := re.FindStringSubmatch(text)
	if len(m) != 2 {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}
