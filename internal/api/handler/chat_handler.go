package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/google/uuid"
	"github.com/hertz-contrib/sse"

	"resume-chat-go/internal/agent"
	"resume-chat-go/internal/config"
	"resume-chat-go/internal/logger"
	"resume-chat-go/internal/types"
)

const serviceName = "resume-chatbot-backend"

// 所有回答都来自同一份简历文档
var responseSources = []string{"resume_data"}

// ChatHandler 聊天相关的HTTP处理器
type ChatHandler struct {
	cfg   *config.Config
	agent *agent.ResumeAgent
}

// NewChatHandler 创建聊天处理器
func NewChatHandler(cfg *config.Config, resumeAgent *agent.ResumeAgent) *ChatHandler {
	return &ChatHandler{
		cfg:   cfg,
		agent: resumeAgent,
	}
}

// bindChatRequest 解析并校验聊天请求体。
// 返回的sessionID在请求未携带时由服务端生成。
func (h *ChatHandler) bindChatRequest(c *app.RequestContext) (*types.ChatRequest, string, bool) {
	var req types.ChatRequest
	if err := c.BindAndValidate(&req); err != nil {
		resp := types.ErrorResponse{
			Error:   "Validation Error",
			Message: fmt.Sprintf("'body'. %v", err),
		}
		// 详细错误信息仅在debug模式下下发
		if h.cfg.Server.Debug {
			resp.Details = err.Error()
		}
		c.JSON(consts.StatusBadRequest, resp)
		return nil, "", false
	}

	if strings.TrimSpace(req.Message) == "" {
		resp := types.ErrorResponse{
			Error:   "Validation Error",
			Message: "'message'. Field required",
		}
		if h.cfg.Server.Debug {
			resp.Details = []map[string]any{
				{"loc": []string{"body", "message"}, "msg": "Field required", "type": "missing"},
			}
		}
		c.JSON(consts.StatusBadRequest, resp)
		return nil, "", false
	}

	// 记录挂件来源域名，便于排查CORS问题
	if req.Origin != "" {
		logger.Info().Str("origin", req.Origin).Msg("收到来自挂件的请求")
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	return &req, sessionID, true
}

// HandleChat 非流式聊天接口 POST /api/chat
func (h *ChatHandler) HandleChat(ctx context.Context, c *app.RequestContext) {
	req, sessionID, ok := h.bindChatRequest(c)
	if !ok {
		return
	}

	answer := h.agent.Chat(ctx, sessionID, req.Message)

	c.Header("X-Session-ID", sessionID)
	c.JSON(consts.StatusOK, types.ChatResponse{
		Response:  answer,
		Sources:   responseSources,
		Timestamp: time.Now().UTC(),
		SessionID: sessionID,
	})
}

// HandleStreamChat 流式聊天接口 POST /api/chat/stream。
// 每个文本块作为一条SSE事件下发，JSON编码；
// 流以一条 is_complete=true 的终止块结束。
func (h *ChatHandler) HandleStreamChat(ctx context.Context, c *app.RequestContext) {
	req, sessionID, ok := h.bindChatRequest(c)
	if !ok {
		return
	}

	c.SetStatusCode(consts.StatusOK)
	c.Header("X-Session-ID", sessionID)
	c.Header("Cache-Control", "no-cache")

	stream := sse.NewStream(c)
	publish := func(chunk types.ChatStreamChunk) bool {
		data, err := json.Marshal(chunk)
		if err != nil {
			logger.Error().Err(err).Msg("序列化流式分片失败")
			return false
		}
		if err := stream.Publish(&sse.Event{Data: data}); err != nil {
			// 客户端断开：停止下发，代理侧仍会完成转录写入
			logger.Warn().Err(err).Str("session_id", sessionID).Msg("流式下发中断")
			return false
		}
		return true
	}

	reader := h.agent.StreamChat(ctx, sessionID, req.Message)
	defer reader.Close()

	for {
		fragment, err := reader.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			publish(types.ChatStreamChunk{Content: fmt.Sprintf("Error: %v", err), IsComplete: true})
			return
		}
		if !publish(types.ChatStreamChunk{Content: fragment, IsComplete: false}) {
			return
		}
	}

	publish(types.ChatStreamChunk{Content: "", IsComplete: true, Sources: responseSources})
}

// HandleHistory 查询会话历史 GET /api/chat/history/:session_id
func (h *ChatHandler) HandleHistory(_ context.Context, c *app.RequestContext) {
	sessionID := c.Param("session_id")

	messages, err := h.agent.GetSessionHistory(sessionID)
	if err != nil {
		h.internalError(c, err, "Failed to retrieve history")
		return
	}

	c.JSON(consts.StatusOK, types.HistoryResponse{
		SessionID:     sessionID,
		Messages:      messages,
		TotalMessages: len(messages),
	})
}

// HandleClearHistory 清空会话历史 DELETE /api/chat/history/:session_id。
// 会话不存在时同样返回成功确认。
func (h *ChatHandler) HandleClearHistory(_ context.Context, c *app.RequestContext) {
	sessionID := c.Param("session_id")

	if err := h.agent.ClearMemory(sessionID); err != nil {
		h.internalError(c, err, "Failed to clear history")
		return
	}

	c.JSON(consts.StatusOK, types.ClearHistoryResponse{
		Message:   fmt.Sprintf("Chat history cleared for session %s", sessionID),
		SessionID: sessionID,
	})
}

// HandleHealth 健康检查 GET /api/health
func (h *ChatHandler) HandleHealth(_ context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, utils.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   serviceName,
	})
}

// HandleRoot 服务元信息 GET /
func (h *ChatHandler) HandleRoot(_ context.Context, c *app.RequestContext) {
	docs := "Documentation disabled in production"
	if h.cfg.Server.Debug {
		docs = "/docs"
	}

	c.JSON(consts.StatusOK, utils.H{
		"message": "Resume Q&A Chatbot API",
		"version": "1.0.0",
		"docs":    docs,
		"endpoints": utils.H{
			"chat":        "/api/chat",
			"stream_chat": "/api/chat/stream",
			"health":      "/api/health",
		},
	})
}

// internalError 统一的500响应，详细错误信息仅在debug模式下携带
func (h *ChatHandler) internalError(c *app.RequestContext, err error, summary string) {
	logger.Error().Err(err).Msg(summary)

	message := "An unexpected error occurred"
	if h.cfg.Server.Debug {
		message = fmt.Sprintf("%s: %v", summary, err)
	}
	c.JSON(consts.StatusInternalServerError, types.ErrorResponse{
		Error:   "Internal server error",
		Message: message,
		Type:    "internal_error",
	})
}
