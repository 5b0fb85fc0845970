package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"
)

// RedisChatMemory ChatMemory 的Redis实现，转录在服务重启后仍然保留。
// 每个会话对应一个Redis List，元素是JSON序列化的消息。
type RedisChatMemory struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration // 0表示不过期
}

// NewRedisChatMemory 创建Redis会话存储并校验连通性。
// keyPrefix为空时使用 "chatmemory:"。
func NewRedisChatMemory(client *redis.Client, keyPrefix string, ttl time.Duration) (*RedisChatMemory, error) {
	if client == nil {
		return nil, fmt.Errorf("redis客户端不能为nil")
	}
	if keyPrefix == "" {
		keyPrefix = "chatmemory:"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis连接检测失败: %w", err)
	}

	return &RedisChatMemory{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}, nil
}

func (rcm *RedisChatMemory) buildKey(sessionID string) string {
	return rcm.keyPrefix + sessionID
}

// GetHistory 实现 ChatMemory 接口
func (rcm *RedisChatMemory) GetHistory(sessionID string) ([]*schema.Message, error) {
	ctx := context.Background()
	key := rcm.buildKey(sessionID)

	serialized, err := rcm.client.LRange(ctx, key, 0, -1).Result()
	if errors.Is(err, redis.Nil) {
		return []*schema.Message{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取会话 %s 的转录失败: %w", sessionID, err)
	}

	messages := make([]*schema.Message, 0, len(serialized))
	for _, raw := range serialized {
		var msg schema.Message
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			return nil, fmt.Errorf("会话 %s 的转录存在损坏的消息: %w", sessionID, err)
		}
		messages = append(messages, &msg)
	}
	return messages, nil
}

// AddMessage 实现 ChatMemory 接口
func (rcm *RedisChatMemory) AddMessage(sessionID string, message *schema.Message) error {
	if message == nil {
		return fmt.Errorf("会话 %s 不能追加nil消息", sessionID)
	}
	return rcm.AddMessages(sessionID, []*schema.Message{message})
}

// AddMessages 实现 ChatMemory 接口。
// 批量写入放在一个事务Pipeline里，保证消息连续且TTL刷新原子生效。
func (rcm *RedisChatMemory) AddMessages(sessionID string, messages []*schema.Message) error {
	if len(messages) == 0 {
		return nil
	}
	ctx := context.Background()
	key := rcm.buildKey(sessionID)

	pipe := rcm.client.TxPipeline()
	for _, message := range messages {
		if message == nil {
			return fmt.Errorf("会话 %s 批量追加中包含nil消息", sessionID)
		}
		serialized, err := json.Marshal(message)
		if err != nil {
			return fmt.Errorf("序列化会话 %s 的消息失败: %w", sessionID, err)
		}
		pipe.RPush(ctx, key, serialized)
	}
	if rcm.ttl > 0 {
		pipe.Expire(ctx, key, rcm.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("写入会话 %s 的转录失败: %w", sessionID, err)
	}
	return nil
}

// ClearHistory 实现 ChatMemory 接口
func (rcm *RedisChatMemory) ClearHistory(sessionID string) error {
	ctx := context.Background()
	if err := rcm.client.Del(ctx, rcm.buildKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("清空会话 %s 的转录失败: %w", sessionID, err)
	}
	return nil
}

var _ ChatMemory = (*RedisChatMemory)(nil)
