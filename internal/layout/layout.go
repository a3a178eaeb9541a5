package layout

import (
	"regexp"
	"strings"

	"resumex/internal/resume"
)

// ExperienceChunkSize 控制 Professional Experience 每页的条目数。
const ExperienceChunkSize = 15

// Column 指明区块落在固定模板的哪一栏。
type Column int

const (
	ColumnSidebar Column = iota
	ColumnMain
	ColumnAppendix
)

// Section 是 PDF 与 DOCX 渲染器共享的区块描述，由布局层统一产出，
// 两个渲染器只做视觉落位，避免各自漂移。
type Section struct {
	Title  string
	Column Column
}

var (
	SectionSkills         = Section{Title: "Technical Expertise", Column: ColumnSidebar}
	SectionCertifications = Section{Title: "Certifications", Column: ColumnSidebar}
	SectionEducation      = Section{Title: "Education", Column: ColumnSidebar}
	SectionSummary        = Section{Title: "Summary", Column: ColumnSidebar}
	SectionExperience     = Section{Title: "Professional Experience", Column: ColumnMain}
	SectionProjects       = Section{Title: "Projects", Column: ColumnMain}
	SectionAppendix       = Section{Title: "Professional Experience", Column: ColumnAppendix}
)

// SidebarSections 按固定顺序返回记录中有内容的侧栏区块。
func SidebarSections(record resume.Record) []Section {
	sections := []Section{}
	if len(record.Skills) > 0 {
		sections = append(sections, SectionSkills)
	}
	if len(record.Certifications) > 0 {
		sections = append(sections, SectionCertifications)
	}
	if len(record.Education) > 0 {
		sections = append(sections, SectionEducation)
	}
	if resume.Present(record.Summary) {
		sections = append(sections, SectionSummary)
	}
	return sections
}

// OrderExperiences 做稳定划分：有有效职责的条目在前，组内保持输入顺序。
func OrderExperiences(entries []resume.ExperienceEntry) []resume.ExperienceEntry {
	withResponsibilities := make([]resume.ExperienceEntry, 0, len(entries))
	withoutResponsibilities := make([]resume.ExperienceEntry, 0, len(entries))
	for _, entry := range entries {
		if resume.HasValidResponsibilities(entry.Responsibilities) {
			withResponsibilities = append(withResponsibilities, entry)
		} else {
			withoutResponsibilities = append(withoutResponsibilities, entry)
		}
	}
	return append(withResponsibilities, withoutResponsibilities...)
}

// ChunkExperience 把短列表按固定大小切页，空输入也返回一个空块，
// 保证页数可预期。
func ChunkExperience(items []string) [][]string {
	if len(items) == 0 {
		return [][]string{{}}
	}
	chunks := [][]string{}
	for start := 0; start < len(items); start += ExperienceChunkSize {
		end := start + ExperienceChunkSize
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}

var (
	trailingPunct = regexp.MustCompile(`[:;,.\s]+$`)
	innerPunct    = regexp.MustCompile(`[:,]`)
)

// CleanLabel 去掉标签自带的尾部标点再补一个冒号，避免出现 "Company::"。
func CleanLabel(label string) string {
	cleaned := trailingPunct.ReplaceAllString(strings.TrimSpace(label), "")
	cleaned = innerPunct.ReplaceAllString(cleaned, "")
	return cleaned + ":"
}

// BulletRow 是两种渲染器共用的行语义：项目符号 + 可选加粗标签 + 正文。
type BulletRow struct {
	Label string
	Value string
}

// Duration 渲染经历的时间段。两个日期齐全时输出 "start - end"，
// 只有一个时单独输出，避免悬空的分隔符。
func Duration(entry resume.ExperienceEntry) string {
	start := strings.TrimSpace(entry.StartDate)
	end := strings.TrimSpace(entry.EndDate)
	switch {
	case start != "" && end != "":
		return start + " - " + end
	case start != "":
		return start
	default:
		return end
	}
}

// ExperienceRows 按固定字段顺序展开一段经历：
// Company → Role → Duration → Client Engagement → Program →
// Responsibilities 标题 → 每条职责一行。哨兵与空白字段整行省略。
func ExperienceRows(entry resume.ExperienceEntry) []BulletRow {
	rows := []BulletRow{}
	appendField := func(label, value string) {
		if resume.Present(value) {
			rows = append(rows, BulletRow{Label: CleanLabel(label), Value: strings.TrimSpace(value)})
		}
	}

	appendField("Company", entry.Company)
	appendField("Role", entry.Role)
	appendField("Duration", Duration(entry))
	appendField("Client Engagement", entry.ClientEngagement)
	appendField("Program", entry.Program)

	if resume.HasValidResponsibilities(entry.Responsibilities) {
		rows = append(rows, BulletRow{Label: CleanLabel("Responsibilities")})
		for _, responsibility := range entry.Responsibilities {
			if resume.Present(responsibility) {
				rows = append(rows, BulletRow{Value: strings.TrimSpace(responsibility)})
			}
		}
	}
	return rows
}
