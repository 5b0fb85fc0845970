package agent

import (
	"context"
	"errors"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// MockResponse MockChatModel 的一次预设响应。
// StreamChunks非空时，Stream按块逐条吐出；否则把Content作为单块吐出。
type MockResponse struct {
	Content      string
	ToolCalls    []schema.ToolCall
	StreamChunks []string
	Err          error
}

// MockChatModel 用于测试的 model.ToolCallingChatModel 模拟实现，
// 按调用顺序依次返回预设响应，并记录每次调用收到的消息。
type MockChatModel struct {
	mu        sync.Mutex
	responses []MockResponse
	index     int

	// Calls 每次Generate/Stream调用收到的完整消息列表
	Calls [][]*schema.Message
	// BoundTools 最近一次WithTools/BindTools传入的工具
	BoundTools []*schema.ToolInfo
}

// NewMockChatModel 创建按顺序响应的模拟模型
func NewMockChatModel(responses ...MockResponse) *MockChatModel {
	return &MockChatModel{responses: responses}
}

func (m *MockChatModel) next(input []*schema.Message) (MockResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	recorded := make([]*schema.Message, len(input))
	copy(recorded, input)
	m.Calls = append(m.Calls, recorded)

	if m.index >= len(m.responses) {
		return MockResponse{}, errors.New("模拟模型的预设响应已用尽")
	}
	resp := m.responses[m.index]
	m.index++

	if resp.Err != nil {
		return MockResponse{}, resp.Err
	}
	return resp, nil
}

// Generate 实现 model.BaseChatModel 接口
func (m *MockChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	resp, err := m.next(input)
	if err != nil {
		return nil, err
	}
	return &schema.Message{
		Role:      schema.Assistant,
		Content:   resp.Content,
		ToolCalls: resp.ToolCalls,
	}, nil
}

// Stream 实现 model.BaseChatModel 接口
func (m *MockChatModel) Stream(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	resp, err := m.next(input)
	if err != nil {
		return nil, err
	}

	chunks := resp.StreamChunks
	if len(chunks) == 0 {
		chunks = []string{resp.Content}
	}

	sr, sw := schema.Pipe[*schema.Message](len(chunks) + 1)
	go func() {
		defer sw.Close()
		for i, chunk := range chunks {
			msg := &schema.Message{Role: schema.Assistant, Content: chunk}
			// 工具调用增量只随第一块下发，Index用于合并
			if i == 0 && len(resp.ToolCalls) > 0 {
				calls := make([]schema.ToolCall, len(resp.ToolCalls))
				copy(calls, resp.ToolCalls)
				for j := range calls {
					idx := j
					calls[j].Index = &idx
				}
				msg.ToolCalls = calls
			}
			if closed := sw.Send(msg, nil); closed {
				return
			}
		}
	}()
	return sr, nil
}

// BindTools 记录绑定的工具
func (m *MockChatModel) BindTools(tools []*schema.ToolInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BoundTools = tools
	return nil
}

// WithTools 实现 model.ToolCallingChatModel 接口。
// 为便于测试断言，返回自身而不是副本。
func (m *MockChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	if err := m.BindTools(tools); err != nil {
		return nil, err
	}
	return m, nil
}

// CallCount 返回模型被调用的总次数
func (m *MockChatModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

var _ model.ToolCallingChatModel = (*MockChatModel)(nil)
