package transform

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"voicefx-bot/internal/effects"
)

// RemoteTransformer applies effects through a hosted media API: upload the
// raw audio tagged with an effect identifier, then download the processed
// asset from the URL the service returns. The whole round trip is awaited as
// one unit.
type RemoteTransformer struct {
	baseURL   string
	cloudName string
	apiKey    string
	apiSecret string
	client    *http.Client
}

// uploadResponse is the subset of the media API upload result we consume.
type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	URL       string `json:"url"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewRemoteTransformer creates a media-API-backed transformer.
func NewRemoteTransformer(baseURL, cloudName, apiKey, apiSecret string, timeout int) *RemoteTransformer {
	transport := &http.Transport{
		TLSHandshakeTimeout: 10 * time.Second,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
	}

	return &RemoteTransformer{
		baseURL:   baseURL,
		cloudName: cloudName,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		client: &http.Client{
			Timeout:   time.Duration(timeout) * time.Second,
			Transport: transport,
		},
	}
}

// Apply uploads the input audio with the effect's remote identifier and
// streams the processed asset back to outputPath.
func (t *RemoteTransformer) Apply(ctx context.Context, inputPath, outputPath string, effect effects.Effect) error {
	spec := effects.Resolve(effect)

	assetURL, err := t.upload(ctx, inputPath, spec.RemoteID)
	if err != nil {
		return fmt.Errorf("media API upload failed: %w", err)
	}

	if err := t.download(ctx, assetURL, outputPath); err != nil {
		return fmt.Errorf("media API asset download failed: %w", err)
	}

	log.Debugf("Applied remote effect %s: %s -> %s", spec.Effect, inputPath, outputPath)
	return nil
}

func (t *RemoteTransformer) upload(ctx context.Context, inputPath, remoteEffect string) (string, error) {
	file, err := os.Open(inputPath)
	if err != nil {
		return "", fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	signature := t.sign(remoteEffect, timestamp)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	fileWriter, err := writer.CreateFormFile("file", filepath.Base(inputPath))
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(fileWriter, file); err != nil {
		return "", fmt.Errorf("failed to copy file content: %w", err)
	}

	fields := map[string]string{
		"api_key":   t.apiKey,
		"timestamp": timestamp,
		"signature": signature,
		"effect":    remoteEffect,
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return "", fmt.Errorf("failed to write field %s: %w", key, err)
		}
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	uploadURL := fmt.Sprintf("%s/%s/video/upload", t.baseURL, t.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, &body)
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := t.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read upload response: %w", err)
	}

	var result uploadResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to decode upload response (status %s): %w", resp.Status, err)
	}
	if resp.StatusCode != http.StatusOK {
		if result.Error != nil {
			return "", fmt.Errorf("media API rejected upload: %s (status %s)", result.Error.Message, resp.Status)
		}
		return "", fmt.Errorf("media API upload returned status %s", resp.Status)
	}

	assetURL := result.SecureURL
	if assetURL == "" {
		assetURL = result.URL
	}
	if assetURL == "" {
		return "", fmt.Errorf("media API response contains no asset URL")
	}
	if _, err := url.ParseRequestURI(assetURL); err != nil {
		return "", fmt.Errorf("media API returned malformed asset URL %q: %w", assetURL, err)
	}

	return assetURL, nil
}

func (t *RemoteTransformer) download(ctx context.Context, assetURL, outputPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, assetURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("asset download returned status %s", resp.Status)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// sign computes the request signature over the signed parameters, sorted by
// name, concatenated with the API secret.
func (t *RemoteTransformer) sign(remoteEffect, timestamp string) string {
	payload := fmt.Sprintf("effect=%s&timestamp=%s%s", remoteEffect, timestamp, t.apiSecret)
	sum := sha1.Sum([]byte(payload))
	return hex.EncodeToString(sum[:])
}
