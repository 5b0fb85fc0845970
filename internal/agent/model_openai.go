package agent

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

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"resume-chat-go/internal/logger"
)

const (
	defaultOpenAIAPIURL = "https://api.openai.com/v1/chat/completions"
	defaultOpenAIModel  = "gpt-4o-mini"
)

// --- OpenAI 协议结构 ---

type openAIFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

type openAITool struct {
	Type     string         `json:"type"` // 固定为 "function"
	Function openAIFunction `json:"function"`
}

// openAIMessage 出站消息。不直接序列化 schema.Message，
// 避免Extra等内部字段泄漏到API请求里。
type openAIMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content"`
	ToolCalls  []openAIToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

type openAIToolCall struct {
	Index    *int   `json:"index,omitempty"`
	ID       string `json:"id,omitempty"`
	Type     string `json:"type,omitempty"`
	Function struct {
		Name      string `json:"name,omitempty"`
		Arguments string `json:"arguments,omitempty"`
	} `json:"function"`
}

type openAIChatRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Tools       []openAITool    `json:"tools,omitempty"`
	Temperature *float32        `json:"temperature,omitempty"`
	Stream      bool            `json:"stream,omitempty"`
}

type openAIResponseMessage struct {
	Role      string           `json:"role"`
	Content   *string          `json:"content"`
	ToolCalls []openAIToolCall `json:"tool_calls,omitempty"`
}

type openAIChatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Index        int                   `json:"index"`
		Message      openAIResponseMessage `json:"message"`
		FinishReason string                `json:"finish_reason"`
	} `json:"choices"`
}

// 流式增量块，逐条从SSE的data行解析
type openAIStreamChunk struct {
	Choices []struct {
		Delta struct {
			Role      string           `json:"role"`
			Content   string           `json:"content"`
			ToolCalls []openAIToolCall `json:"tool_calls"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

// OpenAIChatModel 实现 model.ToolCallingChatModel 接口，
// 对接OpenAI及任何OpenAI兼容的chat completions端点。
type OpenAIChatModel struct {
	apiKey      string
	modelName   string
	apiURL      string
	temperature float32
	httpClient  *http.Client
	boundTools  []openAITool
}

// NewOpenAIChatModel 创建模型客户端。modelName和apiURL为空时使用默认值。
func NewOpenAIChatModel(apiKey, modelName, apiURL string, temperature float32) (*OpenAIChatModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("API密钥不能为空")
	}
	if strings.TrimSpace(modelName) == "" {
		modelName = defaultOpenAIModel
	}
	if strings.TrimSpace(apiURL) == "" {
		apiURL = defaultOpenAIAPIURL
	}

	logger.Info().
		Str("api_url", apiURL).
		Str("model", modelName).
		Msg("初始化OpenAI兼容模型客户端")

	return &OpenAIChatModel{
		apiKey:      apiKey,
		modelName:   modelName,
		apiURL:      apiURL,
		temperature: temperature,
		httpClient:  &http.Client{Timeout: 120 * time.Second},
	}, nil
}

func toWireMessages(messages []*schema.Message) []openAIMessage {
	wire := make([]openAIMessage, 0, len(messages))
	for _, msg := range messages {
		if msg == nil {
			continue
		}
		wm := openAIMessage{
			Role:       string(msg.Role),
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
		}
		for _, tc := range msg.ToolCalls {
			otc := openAIToolCall{ID: tc.ID, Type: "function"}
			otc.Function.Name = tc.Function.Name
			otc.Function.Arguments = tc.Function.Arguments
			wm.ToolCalls = append(wm.ToolCalls, otc)
		}
		wire = append(wire, wm)
	}
	return wire
}

func fromWireToolCalls(calls []openAIToolCall) []schema.ToolCall {
	if len(calls) == 0 {
		return nil
	}
	result := make([]schema.ToolCall, len(calls))
	for i, tc := range calls {
		result[i] = schema.ToolCall{
			Index: tc.Index,
			ID:    tc.ID,
			Type:  "function",
			Function: schema.FunctionCall{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		}
	}
	return result
}

func (m *OpenAIChatModel) buildRequest(messages []*schema.Message, stream bool) openAIChatRequest {
	temp := m.temperature
	req := openAIChatRequest{
		Model:       m.modelName,
		Messages:    toWireMessages(messages),
		Temperature: &temp,
		Stream:      stream,
	}
	if len(m.boundTools) > 0 {
		req.Tools = m.boundTools
	}
	return req
}

func (m *OpenAIChatModel) doRequest(ctx context.Context, payload openAIChatRequest) (*http.Response, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("序列化请求体失败: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.apiURL, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+m.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	if payload.Stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	resp, err := m.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("发送HTTP请求失败: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("API请求失败，状态 %s: %s", resp.Status, string(body))
	}
	return resp, nil
}

// Generate 实现 model.BaseChatModel 接口
func (m *OpenAIChatModel) Generate(ctx context.Context, messages []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	resp, err := m.doRequest(ctx, m.buildRequest(messages, false))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应体失败: %w", err)
	}

	var apiResp openAIChatResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("反序列化API响应失败: %w", err)
	}
	if len(apiResp.Choices) == 0 {
		return nil, fmt.Errorf("API响应不包含任何choices")
	}

	choice := apiResp.Choices[0]
	content := ""
	if choice.Message.Content != nil {
		content = *choice.Message.Content
	}

	result := &schema.Message{
		Role:      schema.Assistant,
		Content:   content,
		ToolCalls: fromWireToolCalls(choice.Message.ToolCalls),
	}

	logger.Debug().
		Str("finish_reason", choice.FinishReason).
		Int("tool_calls", len(result.ToolCalls)).
		Msg("模型生成完成")
	return result, nil
}

// Stream 实现 model.BaseChatModel 接口。
// 返回的StreamReader逐块给出增量消息，工具调用增量带Index，
// 可用 schema.ConcatMessages 合并成完整消息。
func (m *OpenAIChatModel) Stream(ctx context.Context, messages []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	resp, err := m.doRequest(ctx, m.buildRequest(messages, true))
	if err != nil {
		return nil, err
	}

	sr, sw := schema.Pipe[*schema.Message](8)

	go func() {
		defer resp.Body.Close()
		defer sw.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if payload == "" {
				continue
			}
			if payload == "[DONE]" {
				return
			}

			var chunk openAIStreamChunk
			if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
				sw.Send(nil, fmt.Errorf("解析流式响应块失败: %w", err))
				return
			}
			if len(chunk.Choices) == 0 {
				continue
			}

			delta := chunk.Choices[0].Delta
			msg := &schema.Message{
				Role:      schema.Assistant,
				Content:   delta.Content,
				ToolCalls: fromWireToolCalls(delta.ToolCalls),
			}
			if closed := sw.Send(msg, nil); closed {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			sw.Send(nil, fmt.Errorf("读取流式响应失败: %w", err))
		}
	}()

	return sr, nil
}

// BindTools 把工具元信息转换成OpenAI的function声明。
// 参数schema由 ParamsOneOf 导出，不为每个工具硬编码。
func (m *OpenAIChatModel) BindTools(tools []*schema.ToolInfo) error {
	bound := make([]openAITool, 0, len(tools))
	for _, info := range tools {
		if info == nil {
			continue
		}

		params := json.RawMessage(`{"type":"object","properties":{}}`)
		if info.ParamsOneOf != nil {
			openAPISchema, err := info.ParamsOneOf.ToOpenAPIV3()
			if err != nil {
				return fmt.Errorf("导出工具 %s 的参数schema失败: %w", info.Name, err)
			}
			raw, err := json.Marshal(openAPISchema)
			if err != nil {
				return fmt.Errorf("序列化工具 %s 的参数schema失败: %w", info.Name, err)
			}
			params = raw
		}

		bound = append(bound, openAITool{
			Type: "function",
			Function: openAIFunction{
				Name:        info.Name,
				Description: info.Desc,
				Parameters:  params,
			},
		})
	}

	m.boundTools = bound
	logger.Info().Int("count", len(bound)).Msg("已绑定工具声明")
	return nil
}

// WithTools 实现 model.ToolCallingChatModel 接口，
// 返回绑定了工具的新实例，不修改原实例。
func (m *OpenAIChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	clone := *m
	clone.boundTools = nil
	if err := clone.BindTools(tools); err != nil {
		return nil, err
	}
	return &clone, nil
}

var (
	_ model.BaseChatModel        = (*OpenAIChatModel)(nil)
	_ model.ToolCallingChatModel = (*OpenAIChatModel)(nil)
)
