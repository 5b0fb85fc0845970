package agent

import (
	"fmt"
	"sync"

	"github.com/cloudwego/eino/schema"
)

// ChatMemory 会话转录的存储接口。
// 每轮问答固定写入两条消息（用户提问 + 助手最终回答），
// 工具调用的中间消息不进入转录。
type ChatMemory interface {
	// GetHistory 返回指定会话的完整转录，按时间顺序。
	// 会话不存在时返回空切片和nil错误。
	GetHistory(sessionID string) ([]*schema.Message, error)

	// AddMessage 向指定会话追加一条消息
	AddMessage(sessionID string, message *schema.Message) error

	// AddMessages 向指定会话批量追加消息，保持顺序
	AddMessages(sessionID string, messages []*schema.Message) error

	// ClearHistory 清空指定会话的转录。会话不存在时静默成功。
	ClearHistory(sessionID string) error
}

// InMemoryChatMemory ChatMemory 的进程内实现，服务重启后转录丢失
type InMemoryChatMemory struct {
	mu        sync.RWMutex
	histories map[string][]*schema.Message
}

// NewInMemoryChatMemory 创建进程内会话存储
func NewInMemoryChatMemory() *InMemoryChatMemory {
	return &InMemoryChatMemory{
		histories: make(map[string][]*schema.Message),
	}
}

// GetHistory 实现 ChatMemory 接口
func (m *InMemoryChatMemory) GetHistory(sessionID string) ([]*schema.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	history, ok := m.histories[sessionID]
	if !ok {
		return []*schema.Message{}, nil
	}
	// 返回副本，调用方追加不会污染内部存储
	cpy := make([]*schema.Message, len(history))
	copy(cpy, history)
	return cpy, nil
}

// AddMessage 实现 ChatMemory 接口
func (m *InMemoryChatMemory) AddMessage(sessionID string, message *schema.Message) error {
	if message == nil {
		return fmt.Errorf("会话 %s 不能追加nil消息", sessionID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.histories[sessionID] = append(m.histories[sessionID], message)
	return nil
}

// AddMessages 实现 ChatMemory 接口
func (m *InMemoryChatMemory) AddMessages(sessionID string, messages []*schema.Message) error {
	if len(messages) == 0 {
		return nil
	}
	for _, msg := range messages {
		if msg == nil {
			return fmt.Errorf("会话 %s 批量追加中包含nil消息", sessionID)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.histories[sessionID] = append(m.histories[sessionID], messages...)
	return nil
}

// ClearHistory 实现 ChatMemory 接口
func (m *InMemoryChatMemory) ClearHistory(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.histories, sessionID)
	return nil
}

var _ ChatMemory = (*InMemoryChatMemory)(nil)
