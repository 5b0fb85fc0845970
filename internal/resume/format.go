package resume

import (
	"fmt"
	"strconv"
	"strings"
)

// 本文件实现六个只读视图的文本渲染，输出直接喂给模型做上下文。
// 过滤都是大小写不敏感的子串匹配；除search外，过滤结果为空时回退到全量列表。

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func anyContainsFold(items []string, needle string) bool {
	for _, item := range items {
		if containsFold(item, needle) {
			return true
		}
	}
	return false
}

// FormatPersonalInfo 渲染个人信息和职业摘要。
// filter参数被接受但不生效，始终返回完整信息——这是沿袭下来的已知怪癖，
// 调用方依赖该行为，不要"顺手修复"。
func (r *ResumeData) FormatPersonalInfo(filter string) string {
	_ = filter

	info := r.PersonalInfo
	lines := []string{
		fmt.Sprintf("Name: %s", info.Name),
	}
	if info.Location != "" {
		lines = append(lines, fmt.Sprintf("Location: %s", info.Location))
	} else {
		lines = append(lines, "Location: Not specified")
	}
	lines = append(lines, fmt.Sprintf("Email: %s", info.Email))

	if info.Phone != "" {
		lines = append(lines, fmt.Sprintf("Phone: %s", info.Phone))
	}
	if info.LinkedIn != "" {
		lines = append(lines, fmt.Sprintf("LinkedIn: %s", info.LinkedIn))
	}
	if info.GitHub != "" {
		lines = append(lines, fmt.Sprintf("GitHub: %s", info.GitHub))
	}
	if info.Website != "" {
		lines = append(lines, fmt.Sprintf("Website: %s", info.Website))
	}

	if r.Summary != "" {
		lines = append(lines, fmt.Sprintf("\nProfessional Summary:\n%s", r.Summary))
	}

	return strings.Join(lines, "\n")
}

// FormatEducation 渲染教育经历，filter匹配学校、学位或专业
func (r *ResumeData) FormatEducation(filter string) string {
	entries := r.Education
	if strings.TrimSpace(filter) != "" {
		var filtered []Education
		for _, edu := range entries {
			if containsFold(edu.Institution, filter) ||
				containsFold(edu.Degree, filter) ||
				containsFold(edu.Field, filter) {
				filtered = append(filtered, edu)
			}
		}
		// 没有任何匹配时回退到全量，避免对模型返回空结果
		if len(filtered) > 0 {
			entries = filtered
		}
	}

	blocks := make([]string, 0, len(entries))
	for _, edu := range entries {
		lines := []string{
			fmt.Sprintf("Institution: %s", edu.Institution),
			fmt.Sprintf("Degree: %s in %s", edu.Degree, edu.Field),
			fmt.Sprintf("Graduation: %s", edu.GraduationDate),
		}
		if edu.GPA != nil {
			lines = append(lines, fmt.Sprintf("GPA: %s", strconv.FormatFloat(*edu.GPA, 'f', -1, 64)))
		}
		if len(edu.Achievements) > 0 {
			lines = append(lines, fmt.Sprintf("Achievements: %s", strings.Join(edu.Achievements, ", ")))
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	return strings.Join(blocks, "\n\n")
}

// FormatExperience 渲染工作经历，filter匹配公司、职位或技术标签
func (r *ResumeData) FormatExperience(filter string) string {
	entries := r.Experience
	if strings.TrimSpace(filter) != "" {
		var filtered []Experience
		for _, exp := range entries {
			if containsFold(exp.Company, filter) ||
				containsFold(exp.Position, filter) ||
				anyContainsFold(exp.Technologies, filter) {
				filtered = append(filtered, exp)
			}
		}
		if len(filtered) > 0 {
			entries = filtered
		}
	}

	blocks := make([]string, 0, len(entries))
	for _, exp := range entries {
		end := "Present"
		if exp.EndDate != nil && *exp.EndDate != "" {
			end = *exp.EndDate
		}
		lines := []string{
			fmt.Sprintf("Company: %s", exp.Company),
			fmt.Sprintf("Position: %s", exp.Position),
			fmt.Sprintf("Duration: %s - %s", exp.StartDate, end),
		}
		if exp.Location != "" {
			lines = append(lines, fmt.Sprintf("Location: %s", exp.Location))
		}
		lines = append(lines, "Key Accomplishments:")
		for _, desc := range exp.Description {
			lines = append(lines, fmt.Sprintf("• %s", desc))
		}
		if len(exp.Technologies) > 0 {
			lines = append(lines, fmt.Sprintf("Technologies: %s", strings.Join(exp.Technologies, ", ")))
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	return strings.Join(blocks, "\n\n")
}

// FormatSkills 渲染技能清单，category只匹配分类名，按源文件顺序输出
func (r *ResumeData) FormatSkills(category string) string {
	categories := r.Skills
	if strings.TrimSpace(category) != "" {
		var filtered SkillList
		for _, cat := range categories {
			if containsFold(cat.Name, category) {
				filtered = append(filtered, cat)
			}
		}
		if len(filtered) > 0 {
			categories = filtered
		}
	}

	lines := make([]string, 0, len(categories))
	for _, cat := range categories {
		lines = append(lines, fmt.Sprintf("%s: %s", cat.Name, strings.Join(cat.Skills, ", ")))
	}
	return strings.Join(lines, "\n")
}

// FormatProjects 渲染项目列表，filter匹配名称、描述或技术标签
func (r *ResumeData) FormatProjects(filter string) string {
	entries := r.Projects
	if strings.TrimSpace(filter) != "" {
		var filtered []Project
		for _, proj := range entries {
			if containsFold(proj.Name, filter) ||
				containsFold(proj.Description, filter) ||
				anyContainsFold(proj.Technologies, filter) {
				filtered = append(filtered, proj)
			}
		}
		if len(filtered) > 0 {
			entries = filtered
		}
	}

	blocks := make([]string, 0, len(entries))
	for _, proj := range entries {
		lines := []string{
			fmt.Sprintf("Project: %s", proj.Name),
			fmt.Sprintf("Description: %s", proj.Description),
			fmt.Sprintf("Technologies: %s", strings.Join(proj.Technologies, ", ")),
		}
		if proj.URL != "" {
			lines = append(lines, fmt.Sprintf("Live Demo: %s", proj.URL))
		}
		if proj.GitHubURL != "" {
			lines = append(lines, fmt.Sprintf("GitHub: %s", proj.GitHubURL))
		}
		if proj.StartDate != "" && proj.EndDate != "" {
			lines = append(lines, fmt.Sprintf("Timeline: %s - %s", proj.StartDate, proj.EndDate))
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	return strings.Join(blocks, "\n\n")
}

// SearchAll 对所有章节做关键词全文扫描。
// 命中的章节以固定顺序输出各自的全量渲染（不带过滤），每个章节最多出现一次。
func (r *ResumeData) SearchAll(keyword string) string {
	if strings.TrimSpace(keyword) == "" {
		return "Please provide a keyword to search for."
	}

	var sections []string

	if r.personalInfoMatches(keyword) {
		sections = append(sections, "PERSONAL INFO:", r.FormatPersonalInfo(""))
	}
	if r.educationMatches(keyword) {
		sections = append(sections, "EDUCATION:", r.FormatEducation(""))
	}
	if r.experienceMatches(keyword) {
		sections = append(sections, "EXPERIENCE:", r.FormatExperience(""))
	}
	if r.skillsMatch(keyword) {
		sections = append(sections, "SKILLS:", r.FormatSkills(""))
	}
	if r.projectsMatch(keyword) {
		sections = append(sections, "PROJECTS:", r.FormatProjects(""))
	}

	if len(sections) == 0 {
		return fmt.Sprintf("No information found related to '%s' in the resume.", keyword)
	}
	return strings.Join(sections, "\n\n")
}

func (r *ResumeData) personalInfoMatches(keyword string) bool {
	info := r.PersonalInfo
	fields := []string{info.Name, info.Email, info.Phone, info.Location, info.LinkedIn, info.GitHub, info.Website, r.Summary}
	for _, f := range fields {
		if f != "" && containsFold(f, keyword) {
			return true
		}
	}
	return false
}

func (r *ResumeData) educationMatches(keyword string) bool {
	for _, edu := range r.Education {
		if containsFold(edu.Institution, keyword) ||
			containsFold(edu.Degree, keyword) ||
			containsFold(edu.Field, keyword) ||
			containsFold(edu.GraduationDate, keyword) ||
			anyContainsFold(edu.Achievements, keyword) {
			return true
		}
	}
	return false
}

func (r *ResumeData) experienceMatches(keyword string) bool {
	for _, exp := range r.Experience {
		if containsFold(exp.Company, keyword) ||
			containsFold(exp.Position, keyword) ||
			containsFold(exp.StartDate, keyword) ||
			(exp.EndDate != nil && containsFold(*exp.EndDate, keyword)) ||
			containsFold(exp.Location, keyword) ||
			anyContainsFold(exp.Description, keyword) ||
			anyContainsFold(exp.Technologies, keyword) {
			return true
		}
	}
	return false
}

func (r *ResumeData) skillsMatch(keyword string) bool {
	for _, cat := range r.Skills {
		if containsFold(cat.Name, keyword) || anyContainsFold(cat.Skills, keyword) {
			return true
		}
	}
	return false
}

func (r *ResumeData) projectsMatch(keyword string) bool {
	for _, proj := range r.Projects {
		if containsFold(proj.Name, keyword) ||
			containsFold(proj.Description, keyword) ||
			containsFold(proj.StartDate, keyword) ||
			containsFold(proj.EndDate, keyword) ||
			containsFold(proj.URL, keyword) ||
			containsFold(proj.GitHubURL, keyword) ||
			anyContainsFold(proj.Technologies, keyword) {
			return true
		}
	}
	return false
}
