package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"
)

const visionID = "google-vision"

// Vision recognizes text through the Google Cloud Vision REST API.
// An absent API key is a configuration condition, not an error: the
// engine simply reports unavailable and the registry falls back.
type Vision struct {
	apiKey   string
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

func NewVision(apiKey, endpoint string, timeout time.Duration, logger *slog.Logger) *Vision {
	return &Vision{
		apiKey:   apiKey,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

func (v *Vision) ID() string { return visionID }

func (v *Vision) Available(_ context.Context) bool { return v.apiKey != "" }

type visionRequest struct {
	Requests []visionAnnotateRequest `json:"requests"`
}

type visionAnnotateRequest struct {
	Image    visionImage     `json:"image"`
	Features []visionFeature `json:"features"`
}

type visionImage struct {
	Content string `json:"content"`
}

type visionFeature struct {
	Type string `json:"type"`
}

type visionResponse struct {
	Responses []struct {
		FullTextAnnotation *struct {
			Text string `json:"text"`
		} `json:"fullTextAnnotation"`
		TextAnnotations []struct {
			Description string `json:"description"`
		} `json:"textAnnotations"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	} `json:"responses"`
}

// Recognize uploads the image for TEXT_DETECTION and returns the full
// text annotation. Charset and segmentation options do not apply to the
// cloud engine and are ignored.
func (v *Vision) Recognize(ctx context.Context, imagePath string, _ Options) (string, error) {
	if v.apiKey == "" {
		return "", NewEngineError(ErrorUnavailable, visionID, "api key not configured", nil)
	}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", NewEngineError(ErrorBadImage, visionID, "read image", err)
	}

	payload, err := json.Marshal(visionRequest{
		Requests: []visionAnnotateRequest{{
			Image:    visionImage{Content: base64.StdEncoding.EncodeToString(data)},
			Features: []visionFeature{{Type: "TEXT_DETECTION"}},
		}},
	})
	if err != nil {
		return "", NewEngineError(ErrorInternal, visionID, "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint+"?key="+v.apiKey, bytes.NewReader(payload))
	if err != nil {
		return "", NewEngineError(ErrorInternal, visionID, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", NewEngineError(ErrorTimeout, visionID, "request cancelled", ctx.Err())
		}
		return "", NewEngineError(ErrorUnavailable, visionID, "vision api call failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", NewEngineError(ErrorQuotaExceeded, visionID, "vision api quota exceeded", nil)
	}
	if resp.StatusCode != http.StatusOK {
		return "", NewEngineError(ErrorUnavailable, visionID,
			fmt.Sprintf("vision api returned status %d", resp.StatusCode), nil)
	}

	var parsed visionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", NewEngineError(ErrorInternal, visionID, "decode response", err)
	}

	if len(parsed.Responses) == 0 {
		return "", NewEngineError(ErrorEmptyResult, visionID, "empty response", nil)
	}
	r := parsed.Responses[0]
	if r.Error != nil {
		return "", NewEngineError(ErrorInternal, visionID, r.Error.Message, nil)
	}

	var text string
	switch {
	case r.FullTextAnnotation != nil && r.FullTextAnnotation.Text != "":
		text = r.FullTextAnnotation.Text
	case len(r.TextAnnotations) > 0:
		text = r.TextAnnotations[0].Description
	default:
		return "", NewEngineError(ErrorEmptyResult, visionID, "no text recognized", nil)
	}

	v.logger.DebugContext(ctx, "vision recognition complete", "chars", len(text))
	return text, nil
}
