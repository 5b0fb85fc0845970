package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/test/mock"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-chat-go/internal/agent"
	"resume-chat-go/internal/api/handler"
	"resume-chat-go/internal/api/router"
	"resume-chat-go/internal/config"
	"resume-chat-go/internal/resume"
	"resume-chat-go/internal/types"
)

const handlerTestResumeJSON = `{
  "personal_info": {"name": "Jane Doe", "email": "jane@example.com"},
  "education": [],
  "experience": [],
  "skills": {"Programming Languages": ["Go", "Python"]},
  "projects": [],
  "summary": "Backend engineer."
}`

func newTestServer(t *testing.T, debug bool, responses ...agent.MockResponse) *server.Hertz {
	t.Helper()

	path := filepath.Join(t.TempDir(), "resume.json")
	require.NoError(t, os.WriteFile(path, []byte(handlerTestResumeJSON), 0644))

	cfg := config.DefaultConfig()
	cfg.Server.Debug = debug
	cfg.Resume.DataPath = path
	cfg.Resume.OwnerName = "Jane Doe"

	resumeAgent, err := agent.NewResumeAgent(
		context.Background(),
		agent.NewMockChatModel(responses...),
		resume.Tools(resume.NewStore(path)),
		agent.NewInMemoryChatMemory(),
		cfg.Resume.OwnerName,
		cfg.Agent.MaxToolRounds,
	)
	require.NoError(t, err)

	h := server.New(server.WithHostPorts("127.0.0.1:0"))
	router.RegisterRoutes(h, handler.NewChatHandler(cfg, resumeAgent))
	return h
}

func postJSON(t *testing.T, h *server.Hertz, url string, payload any) *ut.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return ut.PerformRequest(h.Engine, "POST", url,
		&ut.Body{Body: bytes.NewReader(body), Len: len(body)},
		ut.Header{Key: "Content-Type", Value: "application/json"},
	)
}

// postStreamJSON 发起SSE流式请求。ut.PerformRequest构造的上下文没有底层网络writer，
// sse劫持的chunked writer写入时会对nil writer崩溃，因此这里挂一个mock连接后直接ServeHTTP，
// 返回响应对象和写入连接的原始字节（含分块编码的SSE数据）。
func postStreamJSON(t *testing.T, h *server.Hertz, url string, payload any) (*protocol.Response, string) {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	ctx := ut.CreateUtRequestContext("POST", url,
		&ut.Body{Body: bytes.NewReader(body), Len: len(body)},
		ut.Header{Key: "Content-Type", Value: "application/json"},
	)
	conn := mock.NewConn("")
	ctx.SetConn(conn)
	h.Engine.ServeHTTP(context.Background(), ctx)

	rec := conn.WriterRecorder()
	wrote, err := rec.ReadBinary(rec.WroteLen())
	require.NoError(t, err)
	return &ctx.Response, string(wrote)
}

// TestChatEndpoint 基本问答流程
func TestChatEndpoint(t *testing.T) {
	h := newTestServer(t, false, agent.MockResponse{Content: "Jane is a backend engineer."})

	w := postJSON(t, h, "/api/chat", types.ChatRequest{Message: "Who is Jane?"})
	resp := w.Result()
	require.Equal(t, 200, resp.StatusCode())

	var body types.ChatResponse
	require.NoError(t, json.Unmarshal(resp.Body(), &body))
	assert.Equal(t, "Jane is a backend engineer.", body.Response)
	assert.Equal(t, []string{"resume_data"}, body.Sources)
	assert.NotEmpty(t, body.SessionID, "未携带session_id时服务端应生成")
	assert.False(t, body.Timestamp.IsZero())
	assert.Equal(t, body.SessionID, resp.Header.Get("X-Session-ID"))
}

// TestChatEndpointMissingMessage 缺失message字段返回400
func TestChatEndpointMissingMessage(t *testing.T) {
	h := newTestServer(t, false)

	w := postJSON(t, h, "/api/chat", types.ChatRequest{})
	resp := w.Result()
	require.Equal(t, 400, resp.StatusCode())

	var body types.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body(), &body))
	assert.Equal(t, "Validation Error", body.Error)
	assert.Contains(t, body.Message, "'message'")
}

// TestChatEndpointValidationDetailsDebugOnly 校验失败的details字段只在debug模式下下发
func TestChatEndpointValidationDetailsDebugOnly(t *testing.T) {
	hDebug := newTestServer(t, true)

	w := postJSON(t, hDebug, "/api/chat", types.ChatRequest{})
	resp := w.Result()
	require.Equal(t, 400, resp.StatusCode())

	var body types.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body(), &body))
	assert.Equal(t, "Validation Error", body.Error)
	require.NotNil(t, body.Details, "debug模式下应携带详细校验信息")
	assert.Contains(t, fmt.Sprintf("%v", body.Details), "message")

	// 非debug模式下details不下发
	h := newTestServer(t, false)
	w = postJSON(t, h, "/api/chat", types.ChatRequest{})
	var prodBody types.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Result().Body(), &prodBody))
	assert.Nil(t, prodBody.Details)
}

// TestChatEndpointGeneratedSessionIDsDistinct 每次生成的会话ID各不相同
func TestChatEndpointGeneratedSessionIDsDistinct(t *testing.T) {
	h := newTestServer(t, false,
		agent.MockResponse{Content: "first"},
		agent.MockResponse{Content: "second"},
	)

	var first, second types.ChatResponse
	w := postJSON(t, h, "/api/chat", types.ChatRequest{Message: "one"})
	require.NoError(t, json.Unmarshal(w.Result().Body(), &first))
	w = postJSON(t, h, "/api/chat", types.ChatRequest{Message: "two"})
	require.NoError(t, json.Unmarshal(w.Result().Body(), &second))

	assert.NotEmpty(t, first.SessionID)
	assert.NotEmpty(t, second.SessionID)
	assert.NotEqual(t, first.SessionID, second.SessionID)
}

// TestChatEndpointEchoesSessionID 请求携带的会话ID原样返回
func TestChatEndpointEchoesSessionID(t *testing.T) {
	h := newTestServer(t, false, agent.MockResponse{Content: "ok"})

	w := postJSON(t, h, "/api/chat", types.ChatRequest{Message: "hi", SessionID: "my-session"})
	var body types.ChatResponse
	require.NoError(t, json.Unmarshal(w.Result().Body(), &body))
	assert.Equal(t, "my-session", body.SessionID)
}

// TestHistoryRoundTrip 问答后查询历史，再清空
func TestHistoryRoundTrip(t *testing.T) {
	h := newTestServer(t, false, agent.MockResponse{Content: "The answer."})

	postJSON(t, h, "/api/chat", types.ChatRequest{Message: "The question?", SessionID: "s-history"})

	w := ut.PerformRequest(h.Engine, "GET", "/api/chat/history/s-history", nil)
	resp := w.Result()
	require.Equal(t, 200, resp.StatusCode())

	var history types.HistoryResponse
	require.NoError(t, json.Unmarshal(resp.Body(), &history))
	assert.Equal(t, "s-history", history.SessionID)
	assert.Equal(t, 2, history.TotalMessages, "一轮问答应产生两条历史消息")
	require.Len(t, history.Messages, 2)
	assert.Equal(t, "human", history.Messages[0].Type)
	assert.Equal(t, "The question?", history.Messages[0].Content)
	assert.Equal(t, "ai", history.Messages[1].Type)
	assert.Equal(t, "The answer.", history.Messages[1].Content)

	// 清空
	w = ut.PerformRequest(h.Engine, "DELETE", "/api/chat/history/s-history", nil)
	resp = w.Result()
	require.Equal(t, 200, resp.StatusCode())

	var cleared types.ClearHistoryResponse
	require.NoError(t, json.Unmarshal(resp.Body(), &cleared))
	assert.Equal(t, "Chat history cleared for session s-history", cleared.Message)
	assert.Equal(t, "s-history", cleared.SessionID)

	// 清空后历史为空
	w = ut.PerformRequest(h.Engine, "GET", "/api/chat/history/s-history", nil)
	require.NoError(t, json.Unmarshal(w.Result().Body(), &history))
	assert.Equal(t, 0, history.TotalMessages)
	assert.Empty(t, history.Messages)
}

// TestClearHistoryIdempotent 清空从未存在的会话同样返回成功
func TestClearHistoryIdempotent(t *testing.T) {
	h := newTestServer(t, false)

	w := ut.PerformRequest(h.Engine, "DELETE", "/api/chat/history/never-existed", nil)
	resp := w.Result()
	require.Equal(t, 200, resp.StatusCode())

	var cleared types.ClearHistoryResponse
	require.NoError(t, json.Unmarshal(resp.Body(), &cleared))
	assert.Equal(t, "Chat history cleared for session never-existed", cleared.Message)
}

// TestHealthEndpoint 健康检查
func TestHealthEndpoint(t *testing.T) {
	h := newTestServer(t, false)

	w := ut.PerformRequest(h.Engine, "GET", "/api/health", nil)
	resp := w.Result()
	require.Equal(t, 200, resp.StatusCode())

	var body map[string]string
	require.NoError(t, json.Unmarshal(resp.Body(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "resume-chatbot-backend", body["service"])
	assert.NotEmpty(t, body["timestamp"])
}

// TestRootEndpoint 服务元信息，docs入口受debug开关控制
func TestRootEndpoint(t *testing.T) {
	h := newTestServer(t, false)

	w := ut.PerformRequest(h.Engine, "GET", "/", nil)
	resp := w.Result()
	require.Equal(t, 200, resp.StatusCode())

	var body struct {
		Message   string            `json:"message"`
		Version   string            `json:"version"`
		Docs      string            `json:"docs"`
		Endpoints map[string]string `json:"endpoints"`
	}
	require.NoError(t, json.Unmarshal(resp.Body(), &body))
	assert.Equal(t, "Resume Q&A Chatbot API", body.Message)
	assert.Equal(t, "1.0.0", body.Version)
	assert.Equal(t, "Documentation disabled in production", body.Docs)
	assert.Equal(t, "/api/chat", body.Endpoints["chat"])
	assert.Equal(t, "/api/chat/stream", body.Endpoints["stream_chat"])

	// debug模式下docs入口可用
	hDebug := newTestServer(t, true)
	w = ut.PerformRequest(hDebug.Engine, "GET", "/", nil)
	require.NoError(t, json.Unmarshal(w.Result().Body(), &body))
	assert.Equal(t, "/docs", body.Docs)
}

// TestStreamChatEndpoint 流式接口按SSE格式下发分片，终止块带sources
func TestStreamChatEndpoint(t *testing.T) {
	h := newTestServer(t, false,
		agent.MockResponse{StreamChunks: []string{"Jane ", "knows Go."}},
	)

	resp, body := postStreamJSON(t, h, "/api/chat/stream", types.ChatRequest{Message: "Languages?", SessionID: "s-stream"})
	require.Equal(t, 200, resp.StatusCode())
	assert.Equal(t, "s-stream", resp.Header.Get("X-Session-ID"))
	assert.Contains(t, body, "data:")
	assert.Contains(t, body, "Jane ")
	assert.Contains(t, body, "knows Go.")
	assert.Contains(t, body, `"is_complete":true`)
	assert.Contains(t, body, `"resume_data"`)

	// 终止块之前的分片都带 is_complete=false
	assert.True(t, strings.Count(body, `"is_complete":false`) >= 2)
}

// TestStreamChatMissingMessage 流式接口同样校验message字段
func TestStreamChatMissingMessage(t *testing.T) {
	h := newTestServer(t, false)

	w := postJSON(t, h, "/api/chat/stream", types.ChatRequest{})
	resp := w.Result()
	require.Equal(t, 400, resp.StatusCode())

	var body types.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body(), &body))
	assert.Equal(t, "Validation Error", body.Error)
}
