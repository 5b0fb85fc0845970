package resume

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// PersonalInfo 个人信息
type PersonalInfo struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	GitHub   string `json:"github,omitempty"`
	Website  string `json:"website,omitempty"`
}

// Education 一条教育经历
type Education struct {
	Institution    string   `json:"institution"`
	Degree         string   `json:"degree"`
	Field          string   `json:"field"`
	GraduationDate string   `json:"graduation_date"`
	GPA            *float64 `json:"gpa,omitempty"`
	Achievements   []string `json:"achievements,omitempty"`
}

// Experience 一条工作经历。EndDate为nil表示至今在职。
type Experience struct {
	Company      string   `json:"company"`
	Position     string   `json:"position"`
	StartDate    string   `json:"start_date"`
	EndDate      *string  `json:"end_date,omitempty"`
	Description  []string `json:"description"`
	Technologies []string `json:"technologies,omitempty"`
	Location     string   `json:"location,omitempty"`
}

// Project 一个项目
type Project struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
	URL          string   `json:"url,omitempty"`
	GitHubURL    string   `json:"github_url,omitempty"`
	StartDate    string   `json:"start_date,omitempty"`
	EndDate      string   `json:"end_date,omitempty"`
}

// SkillCategory 一个技能分类及其下的技能列表
type SkillCategory struct {
	Name   string
	Skills []string
}

// SkillList 有序的技能分类列表。
// JSON对象的键序即展示顺序，标准map会丢掉顺序，因此按token流手工解码。
type SkillList []SkillCategory

// UnmarshalJSON 实现 json.Unmarshaler，保留JSON对象的键出现顺序
func (s *SkillList) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("skills 必须是JSON对象")
	}

	result := make(SkillList, 0)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("skills 的键必须是字符串")
		}
		var skills []string
		if err := dec.Decode(&skills); err != nil {
			return fmt.Errorf("解析技能分类 %q 失败: %w", key, err)
		}
		result = append(result, SkillCategory{Name: key, Skills: skills})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	*s = result
	return nil
}

// MarshalJSON 实现 json.Marshaler，按原始顺序输出
func (s SkillList) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, cat := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(cat.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(cat.Skills)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ResumeData 完整的简历文档，每次访问都从磁盘重新加载
type ResumeData struct {
	PersonalInfo PersonalInfo `json:"personal_info"`
	Education    []Education  `json:"education"`
	Experience   []Experience `json:"experience"`
	Skills       SkillList    `json:"skills"`
	Projects     []Project    `json:"projects"`
	Summary      string       `json:"summary,omitempty"`
}

// Validate 校验必填字段，缺失则文档视为格式非法
func (r *ResumeData) Validate() error {
	if r.PersonalInfo.Name == "" {
		return fmt.Errorf("personal_info.name 为必填项")
	}
	if r.PersonalInfo.Email == "" {
		return fmt.Errorf("personal_info.email 为必填项")
	}
	for i, edu := range r.Education {
		if edu.Institution == "" || edu.Degree == "" || edu.Field == "" || edu.GraduationDate == "" {
			return fmt.Errorf("education[%d] 缺少必填字段 (institution/degree/field/graduation_date)", i)
		}
	}
	for i, exp := range r.Experience {
		if exp.Company == "" || exp.Position == "" || exp.StartDate == "" {
			return fmt.Errorf("experience[%d] 缺少必填字段 (company/position/start_date)", i)
		}
		if len(exp.Description) == 0 {
			return fmt.Errorf("experience[%d] 缺少必填字段 description", i)
		}
	}
	for i, proj := range r.Projects {
		if proj.Name == "" || proj.Description == "" {
			return fmt.Errorf("projects[%d] 缺少必填字段 (name/description)", i)
		}
		if proj.Technologies == nil {
			return fmt.Errorf("projects[%d] 缺少必填字段 technologies", i)
		}
	}
	return nil
}
