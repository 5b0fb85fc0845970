package types

import "time"

// ChatRequest 聊天接口的请求体
type ChatRequest struct {
	Message   string `json:"message"`              // 用户的提问内容，必填
	SessionID string `json:"session_id,omitempty"` // 会话ID，缺省时由服务端生成
	Origin    string `json:"origin,omitempty"`     // 来源域名，仅用于CORS调试日志
}

// ChatResponse 非流式聊天接口的响应体
type ChatResponse struct {
	Response  string    `json:"response"`
	Sources   []string  `json:"sources"`
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id"`
}

// ChatStreamChunk 流式聊天接口的单个分片。
// 最后一个分片 IsComplete 为 true，并携带 Sources。
type ChatStreamChunk struct {
	Content    string   `json:"content"`
	IsComplete bool     `json:"is_complete"`
	Sources    []string `json:"sources,omitempty"`
}

// HistoryMessage 会话历史中的一条消息，type 为 "human" 或 "ai"
type HistoryMessage struct {
	Type      string `json:"type"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
}

// HistoryResponse 会话历史查询的响应体
type HistoryResponse struct {
	SessionID     string           `json:"session_id"`
	Messages      []HistoryMessage `json:"messages"`
	TotalMessages int              `json:"total_messages"`
}

// ClearHistoryResponse 清除会话历史的确认响应
type ClearHistoryResponse struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// ErrorResponse 统一的错误响应信封
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
	Details any    `json:"details,omitempty"` // 仅在debug模式下携带详细信息
}
