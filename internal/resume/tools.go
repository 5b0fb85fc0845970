package resume

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"resume-chat-go/internal/logger"
)

// 工具名称常量，模型通过这些名字发起工具调用
const (
	ToolGetPersonalInfo = "get_personal_info"
	ToolGetEducation    = "get_education"
	ToolGetExperience   = "get_experience"
	ToolGetSkills       = "get_skills"
	ToolGetProjects     = "get_projects"
	ToolSearchResume    = "search_resume"
)

// accessorTool 把一个简历视图包装成 eino 的 InvokableTool。
// 每次调用都通过 Store 重新加载文档，数据错误原样抛给工具调用层。
type accessorTool struct {
	store       *Store
	name        string
	desc        string
	argName     string
	argDesc     string
	argRequired bool
	render      func(doc *ResumeData, arg string) string
}

// Info 返回工具元信息，实现 tool.BaseTool 接口
func (t *accessorTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: t.name,
		Desc: t.desc,
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			t.argName: {
				Type:     schema.String,
				Desc:     t.argDesc,
				Required: t.argRequired,
			},
		}),
	}, nil
}

// InvokableRun 执行工具逻辑，实现 tool.InvokableTool 接口
func (t *accessorTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	arg := t.decodeArgument(argumentsInJSON)

	doc, err := t.store.Load(ctx)
	if err != nil {
		return "", err
	}
	return t.render(doc, arg), nil
}

// decodeArgument 从JSON参数对象中取出唯一的字符串参数。
// 模型偶尔会直接输出裸字符串而不是JSON对象，此时把原始输入当作参数值用。
func (t *accessorTool) decodeArgument(argumentsInJSON string) string {
	trimmed := strings.TrimSpace(argumentsInJSON)
	if trimmed == "" || trimmed == "{}" {
		return ""
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(trimmed), &args); err != nil {
		logger.Debug().
			Str("tool", t.name).
			Str("raw", trimmed).
			Msg("工具参数不是合法JSON，按裸字符串处理")
		return strings.Trim(trimmed, `"`)
	}

	if v, ok := args[t.argName]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Tools 构建完整的简历工具集，键为工具名
func Tools(store *Store) map[string]tool.InvokableTool {
	all := []*accessorTool{
		{
			store:   store,
			name:    ToolGetPersonalInfo,
			desc:    "Get personal information from resume including name, contact details, and professional summary.",
			argName: "query",
			argDesc: "Optional filter for specific personal info (e.g. \"contact\", \"summary\").",
			render: func(doc *ResumeData, arg string) string {
				return doc.FormatPersonalInfo(arg)
			},
		},
		{
			store:   store,
			name:    ToolGetEducation,
			desc:    "Get education history from resume including degrees, institutions, and achievements.",
			argName: "query",
			argDesc: "Optional filter for specific institutions, degrees, or fields of study.",
			render: func(doc *ResumeData, arg string) string {
				return doc.FormatEducation(arg)
			},
		},
		{
			store:   store,
			name:    ToolGetExperience,
			desc:    "Get work experience from resume including companies, positions, and accomplishments.",
			argName: "query",
			argDesc: "Optional filter for specific companies, positions, or technologies.",
			render: func(doc *ResumeData, arg string) string {
				return doc.FormatExperience(arg)
			},
		},
		{
			store:   store,
			name:    ToolGetSkills,
			desc:    "Get skills from resume organized by categories.",
			argName: "category",
			argDesc: "Optional filter for a specific skill category (e.g. \"programming\", \"web\", \"cloud\").",
			render: func(doc *ResumeData, arg string) string {
				return doc.FormatSkills(arg)
			},
		},
		{
			store:   store,
			name:    ToolGetProjects,
			desc:    "Get project portfolio from resume including descriptions, technologies, and links.",
			argName: "query",
			argDesc: "Optional filter for specific projects, technologies, or keywords.",
			render: func(doc *ResumeData, arg string) string {
				return doc.FormatProjects(arg)
			},
		},
		{
			store:       store,
			name:        ToolSearchResume,
			desc:        "Search across all resume sections for a specific keyword or phrase.",
			argName:     "keyword",
			argDesc:     "Keyword or phrase to search for across all resume data.",
			argRequired: true,
			render: func(doc *ResumeData, arg string) string {
				return doc.SearchAll(arg)
			},
		},
	}

	registry := make(map[string]tool.InvokableTool, len(all))
	for _, t := range all {
		registry[t.name] = t
	}
	return registry
}

// 编译期接口检查
var (
	_ tool.BaseTool      = (*accessorTool)(nil)
	_ tool.InvokableTool = (*accessorTool)(nil)
)
