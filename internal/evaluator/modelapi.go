package evaluator

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"creatorscore/internal/config"
	"creatorscore/internal/retry"
)

// ModelClient evaluates one piece of media against a prompt and
// returns the model's raw text output.
type ModelClient interface {
	Evaluate(ctx context.Context, mediaURL, prompt string) (string, error)
}

// geminiClient talks to a generateContent-style model API. Media at or
// under the inline limit travels base64-inline with the request; larger
// media is uploaded to the file store first and referenced by URI.
type geminiClient struct {
	baseURL     string
	apiKey      string
	model       string
	inlineLimit int64
	http        *http.Client
	policy      retry.Policy
	log         zerolog.Logger
}

func newGeminiClient(cfg config.EvaluatorConfig, log zerolog.Logger) *geminiClient {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	inline := int64(cfg.InlineLimitMB) << 20
	if inline <= 0 {
		inline = 20 << 20
	}
	return &geminiClient{
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		inlineLimit: inline,
		http:        &http.Client{Timeout: timeout},
		policy:      retry.FromConfig(cfg.Retry),
		log:         log.With().Str("component", "modelapi").Logger(),
	}
}

type generatePart struct {
	Text       string `json:"text,omitempty"`
	InlineData *struct {
		MimeType string `json:"mime_type"`
		Data     string `json:"data"`
	} `json:"inline_data,omitempty"`
	FileData *struct {
		MimeType string `json:"mime_type"`
		FileURI  string `json:"file_uri"`
	} `json:"file_data,omitempty"`
}

type generateRequest struct {
	Contents []struct {
		Parts []generatePart `json:"parts"`
	} `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Evaluate downloads the media, ships it to the model with the rubric
// prompt and returns the model's text verdict.
func (g *geminiClient) Evaluate(ctx context.Context, mediaURL, prompt string) (string, error) {
	path, size, err := g.download(ctx, mediaURL)
	if err != nil {
		return "", err
	}
	defer os.Remove(path)

	media, err := g.mediaPart(ctx, path, size)
	if err != nil {
		return "", err
	}
	req := generateRequest{}
	req.Contents = append(req.Contents, struct {
		Parts []generatePart `json:"parts"`
	}{Parts: []generatePart{media, {Text: prompt}}})

	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	url := fmt.Sprintf("%s/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)
	var out string
	err = retry.Do(ctx, g.policy, func(ctx context.Context) error {
		// Fresh reader per attempt; the body is consumed on each send.
		resp, err := g.post(ctx, url, "application/json", bytes.NewReader(body), nil)
		if err != nil {
			return err
		}
		var gr generateResponse
		if err := json.Unmarshal(resp, &gr); err != nil {
			return fmt.Errorf("decode model response: %w", err)
		}
		if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
			return fmt.Errorf("model returned no candidates")
		}
		out = gr.Candidates[0].Content.Parts[0].Text
		return nil
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

// download streams the media to a temp file and reports its size.
func (g *geminiClient) download(ctx context.Context, mediaURL string) (string, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return "", 0, err
	}
	resp, err := g.http.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("download media: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("download media: status %d", resp.StatusCode)
	}
	f, err := os.CreateTemp("", "creatorscore-media-*.mp4")
	if err != nil {
		return "", 0, err
	}
	size, err := io.Copy(f, resp.Body)
	cerr := f.Close()
	if err != nil || cerr != nil {
		os.Remove(f.Name())
		if err == nil {
			err = cerr
		}
		return "", 0, fmt.Errorf("store media: %w", err)
	}
	return f.Name(), size, nil
}

// mediaPart picks inline or file-store transport based on size.
func (g *geminiClient) mediaPart(ctx context.Context, path string, size int64) (generatePart, error) {
	if size <= g.inlineLimit {
		b, err := os.ReadFile(path)
		if err != nil {
			return generatePart{}, err
		}
		var p generatePart
		p.InlineData = &struct {
			MimeType string `json:"mime_type"`
			Data     string `json:"data"`
		}{MimeType: "video/mp4", Data: base64.StdEncoding.EncodeToString(b)}
		return p, nil
	}
	uri, err := g.uploadFile(ctx, path, size)
	if err != nil {
		return generatePart{}, err
	}
	var p generatePart
	p.FileData = &struct {
		MimeType string `json:"mime_type"`
		FileURI  string `json:"file_uri"`
	}{MimeType: "video/mp4", FileURI: uri}
	return p, nil
}

// uploadFile pushes oversized media to the model's file store and
// returns the URI to reference in generateContent.
func (g *geminiClient) uploadFile(ctx context.Context, path string, size int64) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	uploadBase := strings.Replace(g.baseURL, "/v1beta", "/upload/v1beta", 1)
	url := fmt.Sprintf("%s/files?key=%s", uploadBase, g.apiKey)
	headers := map[string]string{
		"X-Goog-Upload-Protocol":       "raw",
		"X-Goog-Upload-Content-Length": fmt.Sprintf("%d", size),
	}
	var uri string
	err = retry.Do(ctx, g.policy, func(ctx context.Context) error {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return err
		}
		resp, err := g.post(ctx, url, "video/mp4", f, headers)
		if err != nil {
			return err
		}
		var body struct {
			File struct {
				URI string `json:"uri"`
			} `json:"file"`
		}
		if err := json.Unmarshal(resp, &body); err != nil {
			return fmt.Errorf("decode upload response: %w", err)
		}
		if body.File.URI == "" {
			return fmt.Errorf("upload returned no file uri")
		}
		uri = body.File.URI
		return nil
	})
	if err != nil {
		return "", err
	}
	return uri, nil
}

// post issues one POST and classifies the status for the retry layer.
func (g *geminiClient) post(ctx context.Context, url, contentType string, body io.Reader, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := g.http.Do(req)
	if err != nil {
		return nil, retry.Transient(err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, retry.Transient(err)
	}
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("model api status %d: %s", resp.StatusCode, firstLine(b))
		if retry.RetryableStatus(resp.StatusCode) {
			return nil, retry.Transient(err)
		}
		return nil, err
	}
	return b, nil
}

func firstLine(b []byte) string {
	s := strings.TrimSpace(string(b))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
