package resume

import (
	"strings"

	"github.com/tidwall/gjson"
)

// ValidateJSON 把任意 JSON 输入规范化为完整的 Record。
// 输入可以是 null、非对象或字段类型错误，输出永远是每个字段
// 都有定义的记录，绝不返回错误。
func ValidateJSON(raw []byte) Record {
	record := Record{
		Name:                   NamePlaceholder,
		Email:                  NotAvailable,
		Mobile:                 NotAvailable,
		Summary:                NotAvailable,
		Skills:                 []SkillGroup{},
		Certifications:         []string{},
		Education:              []string{},
		ProfessionalExperience: []string{},
		ExperienceData:         []ExperienceEntry{},
		Projects:               []string{},
		Links:                  []Link{},
		Filename:               NamePlaceholder,
	}

	parsed := gjson.ParseBytes(raw)
	if !parsed.IsObject() {
		return record
	}

	record.Name = stringOr(parsed.Get("name"), NamePlaceholder)
	record.Email = stringOr(parsed.Get("email"), NotAvailable)
	record.Mobile = stringOr(parsed.Get("mobile"), NotAvailable)
	record.Summary = stringOr(parsed.Get("summary"), NotAvailable)
	record.Filename = stringOr(parsed.Get("filename"), NamePlaceholder)

	record.Skills = parseSkills(parsed.Get("skills"))
	record.Certifications = parseStringList(parsed.Get("certifications"))
	record.Education = parseEducation(parsed.Get("education"))
	record.ProfessionalExperience = parseStringList(parsed.Get("professional_experience"))
	record.ExperienceData = parseExperienceData(parsed.Get("experience_data"))
	record.Projects = parseStringList(parsed.Get("projects"))
	record.Links = parseLinks(parsed.Get("links"))

	return record
}

// ValidateAll 逐条规范化批量结果，顺序与输入一致。
func ValidateAll(raws []gjson.Result) []Record {
	records := make([]Record, 0, len(raws))
	for _, raw := range raws {
		records = append(records, ValidateJSON([]byte(raw.Raw)))
	}
	return records
}

func stringOr(value gjson.Result, fallback string) string {
	if value.Type != gjson.String {
		return fallback
	}
	trimmed := strings.TrimSpace(value.Str)
	if trimmed == "" {
		return fallback
	}
	return trimmed
}

// parseSkills 只保留非空单键映射，且分类名非空白。
func parseSkills(value gjson.Result) []SkillGroup {
	groups := []SkillGroup{}
	if !value.IsArray() {
		return groups
	}
	for _, entry := range value.Array() {
		if !entry.IsObject() {
			continue
		}
		var group SkillGroup
		count := 0
		entry.ForEach(func(key, items gjson.Result) bool {
			count++
			group.Category = strings.TrimSpace(key.String())
			group.Items = []string{}
			for _, item := range items.Array() {
				if item.Type == gjson.String && strings.TrimSpace(item.Str) != "" {
					group.Items = append(group.Items, strings.TrimSpace(item.Str))
				}
			}
			return true
		})
		if count != 1 || group.Category == "" {
			continue
		}
		groups = append(groups, group)
	}
	return groups
}

// parseStringList 丢弃空白与哨兵条目。
func parseStringList(value gjson.Result) []string {
	entries := []string{}
	if !value.IsArray() {
		return entries
	}
	for _, entry := range value.Array() {
		if entry.Type != gjson.String {
			continue
		}
		trimmed := strings.TrimSpace(entry.Str)
		if trimmed == "" || trimmed == NotAvailable {
			continue
		}
		entries = append(entries, trimmed)
	}
	return entries
}

// parseEducation 兼容字符串与字符串数组两种线上形态。
func parseEducation(value gjson.Result) []string {
	if value.Type == gjson.String {
		trimmed := strings.TrimSpace(value.Str)
		if trimmed == "" || trimmed == NotAvailable {
			return []string{}
		}
		return []string{trimmed}
	}
	return parseStringList(value)
}

func parseExperienceData(value gjson.Result) []ExperienceEntry {
	entries := []ExperienceEntry{}
	if !value.IsArray() {
		return entries
	}
	for _, item := range value.Array() {
		if !item.IsObject() {
			continue
		}
		entry := ExperienceEntry{
			Company:          stringOr(item.Get("company"), NotAvailable),
			Role:             stringOr(item.Get("role"), NotAvailable),
			ClientEngagement: stringOr(item.Get("clientEngagement"), NotAvailable),
			Program:          stringOr(item.Get("program"), NotAvailable),
			StartDate:        stringOr(item.Get("startDate"), ""),
			EndDate:          stringOr(item.Get("endDate"), ""),
			Responsibilities: parseStringList(item.Get("responsibilities")),
		}
		entries = append(entries, entry)
	}
	return entries
}

func parseLinks(value gjson.Result) []Link {
	links := []Link{}
	if !value.IsArray() {
		return links
	}
	for _, item := range value.Array() {
		if !item.IsObject() {
			continue
		}
		linkType := strings.TrimSpace(item.Get("type").String())
		url := strings.TrimSpace(item.Get("url").String())
		if url == "" {
			continue
		}
		links = append(links, Link{Type: linkType, URL: url})
	}
	return links
}
