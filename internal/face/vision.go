package face

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	dErrors "veridoc/pkg/domain-errors"
)

const visionID = "google-vision"

// Vision is the cloud backend. It has no embedding model; it runs face
// detection on both images and uses the averaged detection confidence
// as a similarity proxy. An empty API key means the backend is simply
// unavailable, which triggers fallback down the chain.
type Vision struct {
	apiKey   string
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

func NewVision(apiKey, endpoint string, timeout time.Duration, logger *slog.Logger) *Vision {
	if endpoint == "" {
		endpoint = "https://vision.googleapis.com/v1/images:annotate"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Vision{
		apiKey:   apiKey,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

func (v *Vision) ID() string { return visionID }

func (v *Vision) Available(_ context.Context) bool { return v.apiKey != "" }

type visionFaceRequest struct {
	Requests []visionFaceAnnotate `json:"requests"`
}

type visionFaceAnnotate struct {
	Image    visionFaceImage     `json:"image"`
	Features []visionFaceFeature `json:"features"`
}

type visionFaceImage struct {
	Content string `json:"content"`
}

type visionFaceFeature struct {
	Type       string `json:"type"`
	MaxResults int    `json:"maxResults"`
}

type visionFaceResponse struct {
	Responses []struct {
		FaceAnnotations []struct {
			DetectionConfidence float64 `json:"detectionConfidence"`
		} `json:"faceAnnotations"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	} `json:"responses"`
}

// Compare runs face detection on both images in a single annotate call.
func (v *Vision) Compare(ctx context.Context, idImagePath, selfiePath string) (Result, error) {
	if v.apiKey == "" {
		return Result{}, dErrors.New(dErrors.CodeUnavailable, "vision api key not configured")
	}

	idContent, err := encodeImage(idImagePath)
	if err != nil {
		return Result{}, err
	}
	selfieContent, err := encodeImage(selfiePath)
	if err != nil {
		return Result{}, err
	}

	feature := []visionFaceFeature{{Type: "FACE_DETECTION", MaxResults: 1}}
	payload, err := json.Marshal(visionFaceRequest{Requests: []visionFaceAnnotate{
		{Image: visionFaceImage{Content: idContent}, Features: feature},
		{Image: visionFaceImage{Content: selfieContent}, Features: feature},
	}})
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "encode vision request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint+"?key="+v.apiKey, bytes.NewReader(payload))
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "build vision request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "vision request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "read vision response")
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, dErrors.New(dErrors.CodeUnavailable,
			fmt.Sprintf("vision returned status %d", resp.StatusCode))
	}

	var parsed visionFaceResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "decode vision response")
	}
	if len(parsed.Responses) < 2 {
		return Result{}, dErrors.New(dErrors.CodeInternal, "vision returned incomplete response")
	}
	for _, r := range parsed.Responses {
		if r.Error != nil {
			return Result{}, dErrors.New(dErrors.CodeUnavailable, "vision annotation error: "+r.Error.Message)
		}
	}

	result := Result{
		IDHasFace:     len(parsed.Responses[0].FaceAnnotations) > 0,
		SelfieHasFace: len(parsed.Responses[1].FaceAnnotations) > 0,
	}
	if result.IDHasFace && result.SelfieHasFace {
		idConf := parsed.Responses[0].FaceAnnotations[0].DetectionConfidence
		selfieConf := parsed.Responses[1].FaceAnnotations[0].DetectionConfidence
		result.Similarity = (idConf + selfieConf) / 2
	}

	v.logger.DebugContext(ctx, "vision face comparison complete",
		"id_has_face", result.IDHasFace,
		"selfie_has_face", result.SelfieHasFace,
		"similarity", result.Similarity,
	)
	return result, nil
}

func encodeImage(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeBadRequest, "read image file")
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
