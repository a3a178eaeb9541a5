package pdf

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"

	"resumex/internal/layout"
	"resumex/internal/resume"
)

// 固定模板：794x1122 对应 A4 @ 96 DPI，打印时 PreferCSSPageSize 接管页面尺寸。
const documentTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        @page { size: A4; margin: 0; }
        body {
            margin: 0;
            padding: 0;
            font-family: Arial, sans-serif;
            font-size: 10pt;
            color: #000;
        }
        .a4-page {
            width: 794px; /* A4 @ 96 DPI */
            height: 1122px;
            background: white;
            box-sizing: border-box;
            page-break-after: always;
            display: flex;
            flex-direction: column;
        }
        .header-band {
            background: #000000;
            color: #ffffff;
            display: flex;
            align-items: center;
            padding: 18px 28px;
        }
        .header-band img { height: 52px; margin-right: 24px; }
        .header-band .name {
            font-size: 22pt;
            font-weight: bold;
            text-transform: uppercase;
            letter-spacing: 1px;
        }
        .header-band .links { margin-left: auto; text-align: right; font-size: 8pt; }
        .header-band .links a { color: #ffffff; text-decoration: none; display: block; }
        .columns { display: flex; flex: 1; min-height: 0; }
        .sidebar {
            width: 35%;
            background: #166a6a;
            color: #ffffff;
            padding: 20px 18px;
            box-sizing: border-box;
        }
        .sidebar h2 {
            font-size: 11pt;
            text-transform: uppercase;
            border-bottom: 1px solid rgba(255,255,255,0.5);
            padding-bottom: 4px;
            margin: 14px 0 8px 0;
        }
        .sidebar h2:first-child { margin-top: 0; }
        .sidebar .category { font-weight: bold; margin-top: 6px; }
        .sidebar ul { margin: 2px 0 6px 0; padding-left: 16px; }
        .sidebar p, .sidebar li { font-size: 9pt; line-height: 1.35; text-align: justify; }
        .main {
            width: 65%;
            padding: 20px 24px;
            box-sizing: border-box;
        }
        .main h2 {
            font-size: 12pt;
            color: #166a6a;
            text-transform: uppercase;
            border-bottom: 2px solid #166a6a;
            padding-bottom: 4px;
            margin: 0 0 10px 0;
        }
        .main .continued { font-style: italic; color: #555; font-size: 9pt; margin-bottom: 8px; }
        .bullet { display: flex; margin-bottom: 5px; line-height: 1.35; }
        .bullet .glyph { width: 16px; flex-shrink: 0; }
        .bullet .label { font-weight: bold; margin-right: 4px; white-space: nowrap; }
        .bullet .value { text-align: justify; }
        .appendix { padding: 26px 30px; box-sizing: border-box; }
        .appendix h2 {
            font-size: 13pt;
            color: #166a6a;
            text-transform: uppercase;
            border-bottom: 2px solid #166a6a;
            padding-bottom: 4px;
            margin: 0 0 12px 0;
        }
        .appendix .entry { margin-bottom: 14px; }
        .error-page {
            display: flex;
            align-items: center;
            justify-content: center;
            text-align: center;
            color: #b00020;
            font-size: 14pt;
        }
    </style>
</head>
<body>
{{range .Pages}}
    <div class="a4-page">
    {{if .First}}
        <div class="header-band">
            <img src="{{$.LogoURI}}" alt="logo" />
            <div class="name">{{$.Name}}</div>
            {{if $.Links}}
            <div class="links">
                {{range $.Links}}<a href="{{.URL}}">{{if .Type}}{{.Type}}: {{end}}{{.URL}}</a>{{end}}
            </div>
            {{end}}
        </div>
    {{end}}
    {{if .Appendix}}
        <div class="appendix">
            <h2>Professional Experience</h2>
            {{range .Entries}}
            <div class="entry">
                {{range .}}
                <div class="bullet">
                    <span class="glyph">&#9642;</span>
                    {{if .Label}}<span class="label">{{.Label}}</span>{{end}}
                    <span class="value">{{.Value}}</span>
                </div>
                {{end}}
            </div>
            {{end}}
            {{if .Education}}
            <h2>Education</h2>
            {{range .Education}}
            <div class="bullet"><span class="glyph">&#9642;</span><span class="value">{{.}}</span></div>
            {{end}}
            {{end}}
        </div>
    {{else}}
        <div class="columns">
            <div class="sidebar">
            {{if .First}}
                {{range .Sidebar}}
                <h2>{{.Title}}</h2>
                {{range .Skills}}
                <div class="category">{{.Category}}</div>
                <ul>{{range .Items}}<li>{{.}}</li>{{end}}</ul>
                {{end}}
                {{if .Items}}<ul>{{range .Items}}<li>{{.}}</li>{{end}}</ul>{{end}}
                {{if .Text}}<p>{{.Text}}</p>{{end}}
                {{end}}
            {{end}}
            </div>
            <div class="main">
                <h2>Professional Experience</h2>
                {{if .Continued}}<div class="continued">Continued</div>{{end}}
                {{range .Experience}}
                <div class="bullet"><span class="glyph">&#9642;</span><span class="value">{{.}}</span></div>
                {{end}}
                {{if .Projects}}
                <h2>Projects</h2>
                {{range .Projects}}
                <div class="bullet"><span class="glyph">&#9642;</span><span class="value">{{.}}</span></div>
                {{end}}
                {{end}}
            </div>
        </div>
    {{end}}
    </div>
{{end}}
</body>
</html>
`

const errorTemplate = `
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><style>
@page { size: A4; margin: 0; }
body { margin: 0; font-family: Arial, sans-serif; }
.a4-page { width: 794px; height: 1122px; display: flex; align-items: center; justify-content: center; color: #b00020; font-size: 14pt; }
</style></head>
<body><div class="a4-page">Resume could not be rendered: {{.}}</div></body>
</html>
`

var (
	docTmpl = template.Must(template.New("resume").Parse(documentTemplate))
	errTmpl = template.Must(template.New("error").Parse(errorTemplate))
)

type sectionView struct {
	Title  string
	Skills []resume.SkillGroup
	Items  []string
	Text   string
}

type pageView struct {
	First      bool
	Continued  bool
	Appendix   bool
	Sidebar    []sectionView
	Experience []string
	Projects   []string
	Entries    [][]layout.BulletRow
	Education  []string
}

type docView struct {
	Name    string
	Links   []resume.Link
	LogoURI template.URL
	Pages   []pageView
}

// BuildHTML 把规范化记录展开成分页 HTML。模板执行失败时降级为
// 单页错误文档，绝不向调用方抛出。
func BuildHTML(logger *slog.Logger, record resume.Record) string {
	view := buildView(record)

	var buf bytes.Buffer
	if err := docTmpl.Execute(&buf, view); err != nil {
		logger.Error("resume template execution failed", slog.Any("error", err))
		return errorHTML(err)
	}
	return buf.String()
}

func errorHTML(cause error) string {
	var buf bytes.Buffer
	if err := errTmpl.Execute(&buf, fmt.Sprintf("%v", cause)); err != nil {
		return "<!DOCTYPE html><html><body>Resume could not be rendered</body></html>"
	}
	return buf.String()
}

func buildView(record resume.Record) docView {
	chunks := layout.ChunkExperience(record.ProfessionalExperience)

	sidebar := []sectionView{}
	for _, section := range layout.SidebarSections(record) {
		switch section {
		case layout.SectionSkills:
			sidebar = append(sidebar, sectionView{Title: section.Title, Skills: record.Skills})
		case layout.SectionCertifications:
			sidebar = append(sidebar, sectionView{Title: section.Title, Items: record.Certifications})
		case layout.SectionEducation:
			sidebar = append(sidebar, sectionView{Title: section.Title, Items: record.Education})
		case layout.SectionSummary:
			sidebar = append(sidebar, sectionView{Title: section.Title, Text: record.Summary})
		}
	}

	pages := []pageView{{
		First:      true,
		Sidebar:    sidebar,
		Experience: chunks[0],
		Projects:   record.Projects,
	}}

	if len(record.ExperienceData) > 0 || len(record.Education) > 0 {
		entries := [][]layout.BulletRow{}
		for _, entry := range layout.OrderExperiences(record.ExperienceData) {
			rows := layout.ExperienceRows(entry)
			if len(rows) > 0 {
				entries = append(entries, rows)
			}
		}
		pages = append(pages, pageView{
			Appendix:  true,
			Entries:   entries,
			Education: record.Education,
		})
	}

	for _, chunk := range chunks[1:] {
		pages = append(pages, pageView{Continued: true, Experience: chunk})
	}

	return docView{
		Name:    record.DisplayName(),
		Links:   record.Links,
		LogoURI: template.URL(layout.LogoDataURI()),
		Pages:   pages,
	}
}
