package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OpenRouterClient 呼叫任何 OpenAI 相容的 /v1/chat/completions 端點
// OpenRouter、vLLM、LiteLLM、自架模型都適用
type OpenRouterClient struct {
	baseURL      string
	apiKey       string
	defaultModel string
	maxTokens    int
	temperature  float64
	httpClient   *http.Client
}

// NewOpenRouterClient 建立一個聊天補全客戶端
// baseURL 需包含 /v1 前綴，例如 "https://openrouter.ai/api/v1"
func NewOpenRouterClient(baseURL, apiKey, defaultModel string, maxTokens int, temperature float64) *OpenRouterClient {
	return &OpenRouterClient{
		baseURL:      strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:       strings.TrimSpace(apiKey),
		defaultModel: defaultModel,
		maxTokens:    maxTokens,
		temperature:  temperature,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

func (c *OpenRouterClient) applyDefaults(opts Options) Options {
	if opts.Model == "" {
		opts.Model = c.defaultModel
	}
	if opts.Temperature == 0 {
		opts.Temperature = c.temperature
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = c.maxTokens
	}
	return opts
}

func (c *OpenRouterClient) newRequest(ctx context.Context, messages []Message, opts Options, stream bool) (*http.Request, error) {
	reqBody := chatRequest{
		Model:       opts.Model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		Stream:      stream,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	url := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

// CreateChatCompletion 發出一次阻塞式補全呼叫並回傳完整結果
func (c *OpenRouterClient) CreateChatCompletion(ctx context.Context, messages []Message, opts Options) (*Completion, error) {
	opts = c.applyDefaults(opts)

	req, err := c.newRequest(ctx, messages, opts, false)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat completion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, decodeAPIError(resp)
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("chat completion decode: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from chat completion api")
	}

	return &Completion{
		Content: chatResp.Choices[0].Message.Content,
		Model:   chatResp.Model,
		Usage:   chatResp.Usage,
	}, nil
}

// CreateChatCompletionStream 開啟一個串流補全呼叫
// 呼叫端負責讀完或 Close，否則連線不會釋放
func (c *OpenRouterClient) CreateChatCompletionStream(ctx context.Context, messages []Message, opts Options) (Stream, error) {
	opts = c.applyDefaults(opts)

	req, err := c.newRequest(ctx, messages, opts, true)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat completion stream request: %w", err)
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, decodeAPIError(resp)
	}

	return &streamReader{
		ctx:     ctx,
		body:    resp.Body,
		scanner: bufio.NewScanner(resp.Body),
	}, nil
}

// streamReader 逐行解析上游的 SSE 串流
type streamReader struct {
	ctx     context.Context
	body    io.ReadCloser
	scanner *bufio.Scanner
	closed  bool
}

// Recv 回傳下一塊增量內容，串流正常結束時回傳 io.EOF
func (s *streamReader) Recv() (string, error) {
	if s.closed {
		return "", io.EOF
	}

	for {
		select {
		case <-s.ctx.Done():
			return "", s.ctx.Err()
		default:
		}

		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return "", fmt.Errorf("read stream: %w", err)
			}
			return "", io.EOF
		}

		line := s.scanner.Text()
		if line == "" {
			continue
		}
		// 略過註解與事件類型等非資料行
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			return "", io.EOF
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return "", fmt.Errorf("parse stream chunk: %w", err)
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		content := chunk.Choices[0].Delta.Content
		if content == "" {
			continue
		}
		return content, nil
	}
}

func (s *streamReader) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}

func decodeAPIError(resp *http.Response) error {
	var errResp errorResponse
	_ = json.NewDecoder(resp.Body).Decode(&errResp)
	if errResp.Error.Message != "" {
		return fmt.Errorf("chat completion api error: %s", errResp.Error.Message)
	}
	return fmt.Errorf("chat completion api error: %s", resp.Status)
}

// OpenAI 相容的請求與回應結構

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}
