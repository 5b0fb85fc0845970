package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestSystemPromptOwnerName 系统提示中处处使用简历主人的姓名
func TestSystemPromptOwnerName(t *testing.T) {
	prompt := SystemPrompt("Jane Doe")
	assert.Contains(t, prompt, "representing Jane Doe.")
	assert.Contains(t, prompt, "Jane Doe's resume")
	assert.NotContains(t, prompt, "{owner}", "模板占位符必须全部被替换")
}

// TestSystemPromptDefaultOwner 未配置姓名时使用通用称呼
func TestSystemPromptDefaultOwner(t *testing.T) {
	for _, name := range []string{"", "   "} {
		prompt := SystemPrompt(name)
		assert.Contains(t, prompt, "representing "+DefaultOwnerName)
		assert.NotContains(t, prompt, "{owner}")
	}
}

// TestRedirectResponseWording 婉拒话术与系统提示中要求模型使用的句子一字不差
func TestRedirectResponseWording(t *testing.T) {
	redirect := RedirectResponse("Jane Doe")
	assert.Equal(t,
		"I'm here to help you learn about Jane Doe's professional background. Please ask me about their experience, skills, projects, or career journey.",
		redirect)

	// 系统提示里嵌入的就是这句话
	assert.Contains(t, SystemPrompt("Jane Doe"), redirect)
	assert.Contains(t, SystemPrompt(""), RedirectResponse(""))
}
