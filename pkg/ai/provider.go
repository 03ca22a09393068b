package ai

import "context"

// Message 是送往聊天補全服務的一條上下文訊息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options 是單次補全的可選參數，零值欄位會落回客戶端的預設值
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Usage 是上游回報的 token 用量
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Completion 是一次非串流補全的結果
type Completion struct {
	Content string
	Model   string
	Usage   Usage
}

// Stream 逐塊讀取串流補全的內容，讀完時 Recv 回傳 io.EOF
type Stream interface {
	Recv() (string, error)
	Close() error
}

// Provider 是聊天補全服務的抽象，批次與串流兩種呼叫方式都要支援
type Provider interface {
	CreateChatCompletion(ctx context.Context, messages []Message, opts Options) (*Completion, error)
	CreateChatCompletionStream(ctx context.Context, messages []Message, opts Options) (Stream, error)
}
