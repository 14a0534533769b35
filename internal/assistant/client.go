package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Request defaults matching the backend contracts.
const (
	DefaultAskK             = 4
	DefaultSummarySentences = 2
	DefaultImageSteps       = 40

	defaultImageWait = 60 * time.Second
)

// Client calls the assistant backend over HTTP. Every operation is a
// single attempt: failures are reported to the caller, never retried.
type Client struct {
	baseURL    string
	httpClient *http.Client
	imageWait  time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithImageWait overrides the image-generation wait budget.
func WithImageWait(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.imageWait = d
		}
	}
}

// NewClient constructs an assistant backend client.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		imageWait:  defaultImageWait,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ask sends a question about a document and returns the answer.
func (c *Client) Ask(ctx context.Context, docID, question string, k int) (string, error) {
	if k <= 0 {
		k = DefaultAskK
	}
	payload := map[string]any{
		"doc_id":   docID,
		"question": question,
		"k":        k,
	}
	var out struct {
		Answer string `json:"answer"`
	}
	if err := c.postJSON(ctx, "/ask", payload, &out); err != nil {
		return "", err
	}
	if out.Answer == "" {
		return "", ErrEmptyResult
	}
	return out.Answer, nil
}

// Summarize condenses text to the requested number of sentences.
func (c *Client) Summarize(ctx context.Context, text string, sentences int) (string, error) {
	if sentences <= 0 {
		sentences = DefaultSummarySentences
	}
	payload := map[string]any{
		"text":      text,
		"sentences": sentences,
	}
	var out struct {
		Summary string `json:"summary"`
	}
	if err := c.postJSON(ctx, "/summarize_text", payload, &out); err != nil {
		return "", err
	}
	if out.Summary == "" {
		return "", ErrEmptyResult
	}
	return out.Summary, nil
}

// GenerateImage requests an image for prompt and returns the raw base64
// preview. The call is aborted and reported as ErrTimeout when no response
// arrives within the wait budget.
func (c *Client) GenerateImage(ctx context.Context, prompt string, steps int) (string, error) {
	if steps <= 0 {
		steps = DefaultImageSteps
	}
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("prompt", prompt); err != nil {
		return "", fmt.Errorf("build form: %w", err)
	}
	if err := form.WriteField("steps", strconv.Itoa(steps)); err != nil {
		return "", fmt.Errorf("build form: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("build form: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.imageWait)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", &body)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", ErrTimeout
		}
		return "", &NetworkError{Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", backendError(resp)
	}
	var out struct {
		PreviewBase64 string `json:"preview_base64"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &NetworkError{Err: err}
	}
	if out.PreviewBase64 == "" {
		return "", ErrEmptyResult
	}
	return out.PreviewBase64, nil
}

// BookText fetches the raw text of a built-in book by id.
func (c *Client) BookText(ctx context.Context, docID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/book/"+url.PathEscape(docID), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &NetworkError{Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", backendError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &NetworkError{Err: err}
	}
	return string(data), nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return backendError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &NetworkError{Err: err}
	}
	return nil
}

func backendError(resp *http.Response) error {
	var errResp struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&errResp)
	return &BackendError{Status: resp.StatusCode, Detail: errResp.Error}
}
