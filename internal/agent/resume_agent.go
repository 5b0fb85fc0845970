package agent

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"resume-chat-go/internal/logger"
	"resume-chat-go/internal/types"
)

const extraKeyTimestamp = "timestamp"

// ResumeAgent 简历问答代理。
// 每个提问走一轮有界的工具调用循环：模型可以连续发起若干轮工具调用，
// 超出轮数上限视为失败。工具调用的中间消息只存在于当前提问内，
// 会话转录里每轮问答固定只有提问和最终回答两条。
type ResumeAgent struct {
	chatModel     model.ToolCallingChatModel
	tools         map[string]tool.InvokableTool
	memory        ChatMemory
	ownerName     string
	maxToolRounds int
}

// NewResumeAgent 创建代理并把工具声明绑定到模型上。
// maxToolRounds是单个提问内允许的工具调用轮数上限，必须为正。
func NewResumeAgent(ctx context.Context, chatModel model.ToolCallingChatModel, tools map[string]tool.InvokableTool, memory ChatMemory, ownerName string, maxToolRounds int) (*ResumeAgent, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("模型客户端不能为nil")
	}
	if memory == nil {
		memory = NewInMemoryChatMemory()
	}
	if maxToolRounds <= 0 {
		return nil, fmt.Errorf("maxToolRounds必须为正，当前为 %d", maxToolRounds)
	}

	// 按名字排序，保证每次启动的工具声明顺序一致
	names := make([]string, 0, len(tools))
	for name := range tools {
		names = append(names, name)
	}
	sort.Strings(names)

	infos := make([]*schema.ToolInfo, 0, len(names))
	for _, name := range names {
		info, err := tools[name].Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("获取工具 %s 的元信息失败: %w", name, err)
		}
		infos = append(infos, info)
	}

	bound, err := chatModel.WithTools(infos)
	if err != nil {
		return nil, fmt.Errorf("绑定工具到模型失败: %w", err)
	}

	return &ResumeAgent{
		chatModel:     bound,
		tools:         tools,
		memory:        memory,
		ownerName:     ownerName,
		maxToolRounds: maxToolRounds,
	}, nil
}

// Chat 处理一个提问并返回最终回答。
// 任何内部失败都转化为道歉文案返回，不向调用方抛错；
// 道歉文案同样作为助手回答写入转录。
func (a *ResumeAgent) Chat(ctx context.Context, sessionID, message string) string {
	answer, err := a.runToolLoop(ctx, sessionID, message)
	if err != nil {
		logger.Error().
			Err(err).
			Str("session_id", sessionID).
			Msg("提问处理失败，返回道歉文案")
		answer = fmt.Sprintf("I apologize, but I encountered an error processing your question: %v. Please try rephrasing your question or ask about a specific aspect of the resume.", err)
	}

	a.remember(sessionID, message, answer)
	return answer
}

// StreamChat 流式处理一个提问，返回文本块的读取端。
// 写入转录的回答恰好是所有下发文本块的拼接；
// 失败时下发一条错误文案块，同样计入转录。
func (a *ResumeAgent) StreamChat(ctx context.Context, sessionID, message string) *schema.StreamReader[string] {
	sr, sw := schema.Pipe[string](8)

	go func() {
		defer sw.Close()

		var emitted strings.Builder
		emit := func(text string) bool {
			if text == "" {
				return false
			}
			emitted.WriteString(text)
			return sw.Send(text, nil)
		}

		if err := a.runStreamLoop(ctx, sessionID, message, emit); err != nil {
			logger.Error().
				Err(err).
				Str("session_id", sessionID).
				Msg("流式提问处理失败，下发错误文案")
			emit(fmt.Sprintf("I encountered an error: %v. Please try again.", err))
		}

		a.remember(sessionID, message, emitted.String())
	}()

	return sr
}

// buildMessages 组装发给模型的消息：系统提示 + 会话转录 + 本次提问
func (a *ResumeAgent) buildMessages(sessionID, message string) ([]*schema.Message, error) {
	history, err := a.memory.GetHistory(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation history: %w", err)
	}

	msgs := make([]*schema.Message, 0, len(history)+2)
	msgs = append(msgs, schema.SystemMessage(SystemPrompt(a.ownerName)))
	msgs = append(msgs, history...)
	msgs = append(msgs, schema.UserMessage(message))
	return msgs, nil
}

func (a *ResumeAgent) runToolLoop(ctx context.Context, sessionID, message string) (string, error) {
	msgs, err := a.buildMessages(sessionID, message)
	if err != nil {
		return "", err
	}

	for round := 0; ; round++ {
		resp, err := a.chatModel.Generate(ctx, msgs)
		if err != nil {
			return "", err
		}

		if len(resp.ToolCalls) == 0 {
			return resp.Content, nil
		}
		if round >= a.maxToolRounds {
			return "", fmt.Errorf("exceeded maximum tool rounds (%d)", a.maxToolRounds)
		}

		toolMsgs, err := a.executeToolCalls(ctx, sessionID, resp.ToolCalls)
		if err != nil {
			return "", err
		}
		msgs = append(msgs, resp)
		msgs = append(msgs, toolMsgs...)
	}
}

// runStreamLoop 流式版本的工具调用循环。
// 每轮消费完整的模型流，文本块实时转发给emit；
// 流结束后合并所有块判断是否发起了工具调用。
func (a *ResumeAgent) runStreamLoop(ctx context.Context, sessionID, message string, emit func(string) bool) error {
	msgs, err := a.buildMessages(sessionID, message)
	if err != nil {
		return err
	}

	for round := 0; ; round++ {
		reader, err := a.chatModel.Stream(ctx, msgs)
		if err != nil {
			return err
		}

		var chunks []*schema.Message
		for {
			chunk, err := reader.Recv()
			if err == io.EOF {
				break
			}
			if err != nil {
				reader.Close()
				return err
			}
			chunks = append(chunks, chunk)
			if chunk.Content != "" {
				if closed := emit(chunk.Content); closed {
					reader.Close()
					return nil
				}
			}
		}
		reader.Close()

		if len(chunks) == 0 {
			return fmt.Errorf("model returned an empty stream")
		}
		full, err := schema.ConcatMessages(chunks)
		if err != nil {
			return fmt.Errorf("failed to assemble streamed response: %w", err)
		}

		if len(full.ToolCalls) == 0 {
			return nil
		}
		if round >= a.maxToolRounds {
			return fmt.Errorf("exceeded maximum tool rounds (%d)", a.maxToolRounds)
		}

		toolMsgs, err := a.executeToolCalls(ctx, sessionID, full.ToolCalls)
		if err != nil {
			return err
		}
		msgs = append(msgs, full)
		msgs = append(msgs, toolMsgs...)
	}
}

// executeToolCalls 依次执行一轮内的所有工具调用，结果封装为tool消息
func (a *ResumeAgent) executeToolCalls(ctx context.Context, sessionID string, calls []schema.ToolCall) ([]*schema.Message, error) {
	results := make([]*schema.Message, 0, len(calls))
	for _, call := range calls {
		name := call.Function.Name
		invokable, ok := a.tools[name]
		if !ok {
			return nil, fmt.Errorf("model requested unknown tool %q", name)
		}

		logger.Debug().
			Str("session_id", sessionID).
			Str("tool", name).
			Str("arguments", call.Function.Arguments).
			Msg("执行工具调用")

		output, err := invokable.InvokableRun(ctx, call.Function.Arguments)
		if err != nil {
			return nil, fmt.Errorf("tool %s failed: %w", name, err)
		}

		results = append(results, &schema.Message{
			Role:       schema.Tool,
			Content:    output,
			ToolCallID: call.ID,
			Name:       name,
		})
	}
	return results, nil
}

// remember 把本轮的提问和最终回答写入转录，带时间戳。
// 写入失败只记日志，不影响已经产生的回答。
func (a *ResumeAgent) remember(sessionID, question, answer string) {
	now := time.Now().UTC().Format(time.RFC3339)

	userMsg := schema.UserMessage(question)
	userMsg.Extra = map[string]any{extraKeyTimestamp: now}
	assistantMsg := schema.AssistantMessage(answer, nil)
	assistantMsg.Extra = map[string]any{extraKeyTimestamp: now}

	if err := a.memory.AddMessages(sessionID, []*schema.Message{userMsg, assistantMsg}); err != nil {
		logger.Error().
			Err(err).
			Str("session_id", sessionID).
			Msg("写入会话转录失败")
	}
}

// GetSessionHistory 返回会话转录的外部表示。
// user角色映射为"human"，assistant映射为"ai"，其他角色不应出现在转录里。
func (a *ResumeAgent) GetSessionHistory(sessionID string) ([]types.HistoryMessage, error) {
	history, err := a.memory.GetHistory(sessionID)
	if err != nil {
		return nil, fmt.Errorf("读取会话 %s 的转录失败: %w", sessionID, err)
	}

	messages := make([]types.HistoryMessage, 0, len(history))
	for _, msg := range history {
		var msgType string
		switch msg.Role {
		case schema.User:
			msgType = "human"
		case schema.Assistant:
			msgType = "ai"
		default:
			continue
		}

		timestamp := ""
		if msg.Extra != nil {
			if ts, ok := msg.Extra[extraKeyTimestamp].(string); ok {
				timestamp = ts
			}
		}

		messages = append(messages, types.HistoryMessage{
			Type:      msgType,
			Content:   msg.Content,
			Timestamp: timestamp,
		})
	}
	return messages, nil
}

// ClearMemory 清空会话转录
func (a *ResumeAgent) ClearMemory(sessionID string) error {
	return a.memory.ClearHistory(sessionID)
}

// OwnerName 返回简历主人的称呼
func (a *ResumeAgent) OwnerName() string {
	if strings.TrimSpace(a.ownerName) == "" {
		return DefaultOwnerName
	}
	return a.ownerName
}
