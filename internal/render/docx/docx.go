package docx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"

	"resumex/internal/layout"
	"resumex/internal/resume"
)

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Default Extension="png" ContentType="image/png"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const rootRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const documentRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="media/logo.png"/>
</Relationships>`

const documentHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"` +
	` xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"` +
	` xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing">`

// A4 页面与节边距，单位 twip。
const (
	pageWidth      = 11906
	pageHeight     = 16838
	appendixMargin = 720
)

// Render 把规范化记录序列化为 DOCX 字节。构建是同步的，
// 任何序列化失败原样返回给调用方，由 HTTP 层转成用户可见错误。
func Render(record resume.Record) ([]byte, error) {
	document := buildDocument(record)

	var buf bytes.Buffer
	archive := zip.NewWriter(&buf)

	parts := []struct {
		name string
		data []byte
	}{
		{"[Content_Types].xml", []byte(contentTypesXML)},
		{"_rels/.rels", []byte(rootRelsXML)},
		{"word/_rels/document.xml.rels", []byte(documentRelsXML)},
		{"word/media/logo.png", layout.LogoPNG()},
		{"word/document.xml", []byte(document)},
	}
	for _, part := range parts {
		writer, err := archive.Create(part.name)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", part.name, err)
		}
		if _, err := writer.Write(part.data); err != nil {
			return nil, fmt.Errorf("write %s: %w", part.name, err)
		}
	}
	if err := archive.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}

// buildDocument 组装三节结构：满宽黑底头表、连续节双栏内容表、
// 换页节经历附录。
func buildDocument(record resume.Record) string {
	var body strings.Builder

	body.WriteString(headerTable(record))
	body.WriteString(sectionBreak("", 0))

	body.WriteString(contentTable(record))
	body.WriteString(sectionBreak("continuous", 0))

	body.WriteString(appendix(record))

	var doc strings.Builder
	doc.WriteString(documentHeader)
	doc.WriteString(`<w:body>`)
	doc.WriteString(body.String())
	doc.WriteString(sectPr("", appendixMargin))
	doc.WriteString(`</w:body></w:document>`)
	return doc.String()
}

func sectPr(breakType string, margin int) string {
	var sb strings.Builder
	sb.WriteString(`<w:sectPr>`)
	if breakType != "" {
		sb.WriteString(`<w:type w:val="` + breakType + `"/>`)
	}
	sb.WriteString(fmt.Sprintf(`<w:pgSz w:w="%d" w:h="%d"/>`, pageWidth, pageHeight))
	sb.WriteString(fmt.Sprintf(
		`<w:pgMar w:top="%d" w:right="%d" w:bottom="%d" w:left="%d" w:header="0" w:footer="0" w:gutter="0"/>`,
		margin, margin, margin, margin))
	sb.WriteString(`</w:sectPr>`)
	return sb.String()
}

// sectionBreak 把 sectPr 挂在一个空段落上结束当前节。
func sectionBreak(breakType string, margin int) string {
	return `<w:p><w:pPr>` + sectPr(breakType, margin) + `</w:pPr></w:p>`
}

// headerTable 是无边框满宽头表：Logo 格 + 黑底白字大写姓名格。
func headerTable(record resume.Record) string {
	logoCell := cell(750, colorBlack,
		paragraph(paraOpts{noSpacing: true}, logoDrawing()))
	nameCell := cell(4250, colorBlack,
		paragraph(paraOpts{noSpacing: true},
			textRun(record.DisplayName(), runOpts{bold: true, caps: true, color: colorWhite, size: sizeName})))
	return table(row(1700, logoCell, nameCell))
}

// contentTable 是 5/35/55/5 的双栏正文表：青底白字侧栏 + 黑字主栏。
func contentTable(record resume.Record) string {
	sidebar := []string{}
	for _, section := range layout.SidebarSections(record) {
		sidebar = append(sidebar, headingPara(section.Title, sizeSidebarHeading, colorWhite))
		switch section {
		case layout.SectionSkills:
			for _, group := range record.Skills {
				sidebar = append(sidebar, paragraph(paraOpts{},
					textRun(group.Category, runOpts{bold: true, color: colorWhite, size: sizeBody})))
				for _, item := range group.Items {
					sidebar = append(sidebar, bulletPara("", item, colorWhite))
				}
			}
		case layout.SectionCertifications:
			for _, certification := range record.Certifications {
				sidebar = append(sidebar, bulletPara("", certification, colorWhite))
			}
		case layout.SectionEducation:
			for _, education := range record.Education {
				sidebar = append(sidebar, bulletPara("", education, colorWhite))
			}
		case layout.SectionSummary:
			sidebar = append(sidebar, bodyPara(record.Summary, colorWhite))
		}
	}

	main := []string{}
	if len(record.ProfessionalExperience) > 0 {
		main = append(main, headingPara(layout.SectionExperience.Title, sizeSidebarHeading, colorBlack))
		for _, item := range record.ProfessionalExperience {
			main = append(main, bulletPara("", item, colorBlack))
		}
	}
	if len(record.Projects) > 0 {
		main = append(main, headingPara(layout.SectionProjects.Title, sizeSidebarHeading, colorBlack))
		for _, project := range record.Projects {
			main = append(main, bulletPara("", project, colorBlack))
		}
	}

	cells := []string{
		cell(250, colorTeal),
		cell(1750, colorTeal, sidebar...),
		cell(2750, "", main...),
		cell(250, ""),
	}
	return table(row(0, cells...))
}

// appendix 按固定排序输出详细经历，然后是教育背景。
func appendix(record resume.Record) string {
	var sb strings.Builder
	sb.WriteString(headingPara(layout.SectionAppendix.Title, sizeAppendixHead, colorBlack))

	for _, entry := range layout.OrderExperiences(record.ExperienceData) {
		rows := layout.ExperienceRows(entry)
		if len(rows) == 0 {
			continue
		}
		for _, bulletRow := range rows {
			sb.WriteString(bulletPara(bulletRow.Label, bulletRow.Value, colorBlack))
		}
		sb.WriteString(emptyPara())
	}

	if len(record.Education) > 0 {
		sb.WriteString(headingPara("Education", sizeAppendixHead, colorBlack))
		for _, education := range record.Education {
			sb.WriteString(bulletPara("", education, colorBlack))
		}
	}
	return sb.String()
}
