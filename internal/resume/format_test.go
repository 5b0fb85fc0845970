package resume

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestResume(t *testing.T) *ResumeData {
	t.Helper()
	var doc ResumeData
	require.NoError(t, json.Unmarshal([]byte(validResumeJSON), &doc))
	require.NoError(t, doc.Validate())
	return &doc
}

// TestFormatPersonalInfoIgnoresFilter 个人信息视图无论传什么过滤词都返回全量
func TestFormatPersonalInfoIgnoresFilter(t *testing.T) {
	doc := loadTestResume(t)

	full := doc.FormatPersonalInfo("")
	filtered := doc.FormatPersonalInfo("contact")

	assert.Equal(t, full, filtered, "个人信息视图应忽略过滤参数")
	assert.Contains(t, full, "Name: Jane Doe")
	assert.Contains(t, full, "Email: jane@example.com")
	assert.Contains(t, full, "Professional Summary:")
	assert.Contains(t, full, "Full-stack engineer")
}

// TestFormatPersonalInfoLocationFallback 缺失location时显示占位文案
func TestFormatPersonalInfoLocationFallback(t *testing.T) {
	doc := loadTestResume(t)
	doc.PersonalInfo.Location = ""

	out := doc.FormatPersonalInfo("")
	assert.Contains(t, out, "Location: Not specified")
}

// TestFormatEducationFilterFallback 过滤无匹配时回退到全量列表
func TestFormatEducationFilterFallback(t *testing.T) {
	doc := loadTestResume(t)

	out := doc.FormatEducation("nonexistent-university")
	assert.Contains(t, out, "Institution: University of Washington",
		"无匹配时应回退到全量而不是返回空")
	assert.Contains(t, out, "Degree: B.S. in Computer Science")
	assert.Contains(t, out, "GPA: 3.8")
	assert.Contains(t, out, "Achievements: Dean's List, ACM member")
}

// TestFormatExperienceFilter 过滤匹配技术标签，且在职经历显示Present
func TestFormatExperienceFilter(t *testing.T) {
	doc := loadTestResume(t)

	out := doc.FormatExperience("kafka")
	assert.Contains(t, out, "Company: Globex")
	assert.NotContains(t, out, "Company: Acme Corp", "过滤有匹配时不应包含未匹配的条目")
	assert.Contains(t, out, "Duration: 2022-04 - Present")
	assert.Contains(t, out, "• Designed event pipeline")
}

// TestFormatSkillsCategoryFilter 技能按分类名做大小写不敏感过滤
func TestFormatSkillsCategoryFilter(t *testing.T) {
	doc := loadTestResume(t)

	out := doc.FormatSkills("programming")
	assert.Equal(t, "Programming Languages: Python, Go, TypeScript", out)

	// 无匹配回退到全量，保持键序
	all := doc.FormatSkills("quantum")
	lines := strings.Split(all, "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "Programming Languages:"))
	assert.True(t, strings.HasPrefix(lines[1], "Web Frameworks:"))
	assert.True(t, strings.HasPrefix(lines[2], "Cloud:"))
}

// TestFormatProjects 项目视图包含链接和时间线
func TestFormatProjects(t *testing.T) {
	doc := loadTestResume(t)

	out := doc.FormatProjects("")
	assert.Contains(t, out, "Project: Portfolio Site")
	assert.Contains(t, out, "Live Demo: https://janedoe.dev")
	assert.Contains(t, out, "GitHub: https://github.com/janedoe/portfolio")
	assert.Contains(t, out, "Timeline: 2021-01 - 2021-03")
}

// TestSearchAllEmptyKeyword 空关键词返回固定提示语
func TestSearchAllEmptyKeyword(t *testing.T) {
	doc := loadTestResume(t)

	assert.Equal(t, "Please provide a keyword to search for.", doc.SearchAll(""))
	assert.Equal(t, "Please provide a keyword to search for.", doc.SearchAll("   "))
}

// TestSearchAllNoMatch 无匹配返回带关键词的固定文案
func TestSearchAllNoMatch(t *testing.T) {
	doc := loadTestResume(t)

	out := doc.SearchAll("blockchain")
	assert.Equal(t, "No information found related to 'blockchain' in the resume.", out)
}

// TestSearchAllMultiSection 关键词命中多个章节时每个章节只出现一次，顺序固定
func TestSearchAllMultiSection(t *testing.T) {
	doc := loadTestResume(t)

	// "Python"同时出现在工作经历和技能里
	out := doc.SearchAll("python")
	assert.Equal(t, 1, strings.Count(out, "EXPERIENCE:"))
	assert.Equal(t, 1, strings.Count(out, "SKILLS:"))
	assert.NotContains(t, out, "EDUCATION:")
	assert.NotContains(t, out, "PROJECTS:")
	assert.Less(t, strings.Index(out, "EXPERIENCE:"), strings.Index(out, "SKILLS:"),
		"章节应按固定顺序输出")

	// 命中的章节输出全量渲染，不带关键词过滤
	assert.Contains(t, out, "Company: Acme Corp")
	assert.Contains(t, out, "Company: Globex")
}

// TestSearchAllCaseInsensitive 搜索大小写不敏感
func TestSearchAllCaseInsensitive(t *testing.T) {
	doc := loadTestResume(t)

	out := doc.SearchAll("KUBERNETES")
	assert.Contains(t, out, "EXPERIENCE:")
}

// TestSkillListRoundTrip 技能列表序列化保持键序
func TestSkillListRoundTrip(t *testing.T) {
	doc := loadTestResume(t)

	data, err := json.Marshal(doc.Skills)
	require.NoError(t, err)

	var decoded SkillList
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, doc.Skills, decoded)
}
