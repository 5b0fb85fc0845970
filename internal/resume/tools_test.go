package resume

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testToolset(t *testing.T) map[string]func(ctx context.Context, args string) (string, error) {
	t.Helper()
	store := NewStore(writeTempResume(t, validResumeJSON))
	tools := Tools(store)
	require.Len(t, tools, 6)

	wrapped := make(map[string]func(ctx context.Context, args string) (string, error), len(tools))
	for name, tl := range tools {
		tl := tl
		wrapped[name] = func(ctx context.Context, args string) (string, error) {
			return tl.InvokableRun(ctx, args)
		}
	}
	return wrapped
}

// TestToolsInfo 验证工具元信息的名字与注册键一致
func TestToolsInfo(t *testing.T) {
	store := NewStore(writeTempResume(t, validResumeJSON))
	for name, tl := range Tools(store) {
		info, err := tl.Info(context.Background())
		require.NoError(t, err)
		assert.Equal(t, name, info.Name)
		assert.NotEmpty(t, info.Desc)
		require.NotNil(t, info.ParamsOneOf)
	}
}

// TestToolInvokeWithJSONArgs 标准JSON参数对象调用
func TestToolInvokeWithJSONArgs(t *testing.T) {
	tools := testToolset(t)

	out, err := tools[ToolGetSkills](context.Background(), `{"category": "programming"}`)
	require.NoError(t, err)
	assert.Equal(t, "Programming Languages: Python, Go, TypeScript", out)

	out, err = tools[ToolSearchResume](context.Background(), `{"keyword": "Kubernetes"}`)
	require.NoError(t, err)
	assert.Contains(t, out, "EXPERIENCE:")
}

// TestToolInvokeWithRawStringArgs 模型输出裸字符串而非JSON对象时按参数值处理
func TestToolInvokeWithRawStringArgs(t *testing.T) {
	tools := testToolset(t)

	out, err := tools[ToolGetSkills](context.Background(), `programming`)
	require.NoError(t, err)
	assert.Equal(t, "Programming Languages: Python, Go, TypeScript", out)
}

// TestToolInvokeEmptyArgs 空参数走无过滤路径
func TestToolInvokeEmptyArgs(t *testing.T) {
	tools := testToolset(t)

	out, err := tools[ToolGetEducation](context.Background(), `{}`)
	require.NoError(t, err)
	assert.Contains(t, out, "Institution: University of Washington")

	// search_resume的关键词为空时返回提示语而不是报错
	out, err = tools[ToolSearchResume](context.Background(), `{}`)
	require.NoError(t, err)
	assert.Equal(t, "Please provide a keyword to search for.", out)
}

// TestToolInvokeMissingDataFile 数据文件缺失时错误原样抛出
func TestToolInvokeMissingDataFile(t *testing.T) {
	store := NewStore("/nonexistent/resume.json")
	tools := Tools(store)

	_, err := tools[ToolGetPersonalInfo].InvokableRun(context.Background(), `{}`)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResumeNotFound)
}
