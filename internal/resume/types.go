package resume

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NotAvailable 是抽取引擎用来表示字段缺失的哨兵值，与空字符串语义不同。
const NotAvailable = "Not available"

// NamePlaceholder 用于 name/filename 缺失时的展示兜底。
const NamePlaceholder = "Unknown"

// Record 是规范化后的简历记录。经 ValidateJSON 产出后不再修改，
// 渲染器按值消费。
type Record struct {
	Name                   string            `json:"name"`
	Email                  string            `json:"email"`
	Mobile                 string            `json:"mobile"`
	Summary                string            `json:"summary"`
	Skills                 []SkillGroup      `json:"skills"`
	Certifications         []string          `json:"certifications"`
	Education              []string          `json:"education"`
	ProfessionalExperience []string          `json:"professional_experience"`
	ExperienceData         []ExperienceEntry `json:"experience_data"`
	Projects               []string          `json:"projects"`
	Links                  []Link            `json:"links"`
	Filename               string            `json:"filename"`
}

// ExperienceEntry 表示一段工作经历，任意字段都可能是哨兵值。
type ExperienceEntry struct {
	Company          string   `json:"company"`
	Role             string   `json:"role"`
	ClientEngagement string   `json:"clientEngagement"`
	Program          string   `json:"program"`
	StartDate        string   `json:"startDate"`
	EndDate          string   `json:"endDate"`
	Responsibilities []string `json:"responsibilities"`
}

// SkillGroup 对应线上格式中的单键映射 {category: [items...]}。
type SkillGroup struct {
	Category string
	Items    []string
}

// Link 仅在 PDF 头部渲染。
type Link struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// MarshalJSON 保持线上单键映射格式。
func (g SkillGroup) MarshalJSON() ([]byte, error) {
	items := g.Items
	if items == nil {
		items = []string{}
	}
	return json.Marshal(map[string][]string{g.Category: items})
}

// UnmarshalJSON 接受 {category: [items...]} 形式的单键对象。
func (g *SkillGroup) UnmarshalJSON(data []byte) error {
	var m map[string][]string
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("unmarshal skill group: %w", err)
	}
	for category, items := range m {
		g.Category = category
		g.Items = items
		break
	}
	return nil
}

// Present 判断字符串字段是否携带可渲染内容。
func Present(s string) bool {
	trimmed := strings.TrimSpace(s)
	return trimmed != "" && trimmed != NotAvailable
}

// HasValidResponsibilities 判断职责列表是否至少含一条有效条目。
func HasValidResponsibilities(responsibilities []string) bool {
	for _, r := range responsibilities {
		if Present(r) {
			return true
		}
	}
	return false
}

// DisplayName 返回用于文件命名与标题展示的名称。
func (r Record) DisplayName() string {
	if Present(r.Name) {
		return r.Name
	}
	return NamePlaceholder
}
