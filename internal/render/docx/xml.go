package docx

import (
	"fmt"
	"strings"
)

// WordprocessingML 的尺寸约定：字号用半磅，行距按 240 = 单倍行距，
// 缩进与制表位用 twip。所有数值都来自固定的视觉模板。
const (
	fontName = "Arial"

	colorBlack = "000000"
	colorWhite = "FFFFFF"
	colorTeal  = "166a6a"

	sizeName           = 44
	sizeSidebarHeading = 28
	sizeAppendixHead   = 32
	sizeBody           = 20

	lineSpacing  = 276 // 1.15 x 240
	spacingAfter = 120
	indentLeft   = 400
	indentHang   = 200
	tabStop      = 400

	bulletGlyph = "▪"
)

func escape(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
	)
	return replacer.Replace(s)
}

type runOpts struct {
	bold  bool
	color string
	size  int
	caps  bool
}

// textRun 生成一个带固定字体属性的 w:r。
func textRun(text string, opts runOpts) string {
	var props strings.Builder
	props.WriteString(`<w:rFonts w:ascii="` + fontName + `" w:hAnsi="` + fontName + `"/>`)
	if opts.bold {
		props.WriteString(`<w:b/>`)
	}
	if opts.caps {
		props.WriteString(`<w:caps/>`)
	}
	if opts.color != "" {
		props.WriteString(`<w:color w:val="` + opts.color + `"/>`)
	}
	if opts.size > 0 {
		props.WriteString(fmt.Sprintf(`<w:sz w:val="%d"/><w:szCs w:val="%d"/>`, opts.size, opts.size))
	}
	return `<w:r><w:rPr>` + props.String() + `</w:rPr><w:t xml:space="preserve">` + escape(text) + `</w:t></w:r>`
}

type paraOpts struct {
	justify   bool
	bulleted  bool
	noSpacing bool
}

func paraProps(opts paraOpts) string {
	var props strings.Builder
	props.WriteString(`<w:pPr>`)
	if opts.bulleted {
		props.WriteString(fmt.Sprintf(`<w:tabs><w:tab w:val="left" w:pos="%d"/></w:tabs>`, tabStop))
		props.WriteString(fmt.Sprintf(`<w:ind w:left="%d" w:hanging="%d"/>`, indentLeft, indentHang))
	}
	if !opts.noSpacing {
		props.WriteString(fmt.Sprintf(`<w:spacing w:after="%d" w:line="%d" w:lineRule="auto"/>`, spacingAfter, lineSpacing))
	}
	if opts.justify {
		props.WriteString(`<w:jc w:val="both"/>`)
	} else {
		props.WriteString(`<w:jc w:val="left"/>`)
	}
	props.WriteString(`</w:pPr>`)
	return props.String()
}

func paragraph(opts paraOpts, runs ...string) string {
	return `<w:p>` + paraProps(opts) + strings.Join(runs, "") + `</w:p>`
}

// bulletRun 输出方块符号加 w:tab，制表符必须是 run 元素而不是
// w:t 里的字面字符，否则 Word 不会对齐到制表位。
func bulletRun(color string) string {
	return `<w:r><w:rPr><w:rFonts w:ascii="` + fontName + `" w:hAnsi="` + fontName + `"/>` +
		`<w:color w:val="` + color + `"/>` +
		fmt.Sprintf(`<w:sz w:val="%d"/><w:szCs w:val="%d"/>`, sizeBody, sizeBody) +
		`</w:rPr><w:t xml:space="preserve">` + bulletGlyph + `</w:t><w:tab/></w:r>`
}

// bulletPara 输出固定模板的行语义：方块符号加制表位，
// 可选加粗标签，正文两端对齐。
func bulletPara(label, value, color string) string {
	runs := []string{bulletRun(color)}
	if label != "" {
		runs = append(runs, textRun(label+" ", runOpts{bold: true, color: color, size: sizeBody}))
	}
	if value != "" {
		runs = append(runs, textRun(value, runOpts{color: color, size: sizeBody}))
	}
	return paragraph(paraOpts{justify: true, bulleted: true}, runs...)
}

// headingPara 输出区块标题，左对齐加粗。
func headingPara(text string, size int, color string) string {
	return paragraph(paraOpts{}, textRun(text, runOpts{bold: true, caps: true, color: color, size: size}))
}

func bodyPara(text, color string) string {
	return paragraph(paraOpts{justify: true}, textRun(text, runOpts{color: color, size: sizeBody}))
}

func emptyPara() string {
	return paragraph(paraOpts{noSpacing: true})
}

// cell 组装 w:tc。width 以 1/50 百分比计（w:type="pct"），
// shading 为空时不加底色。
func cell(widthPct int, shading string, content ...string) string {
	var props strings.Builder
	props.WriteString(`<w:tcPr>`)
	props.WriteString(fmt.Sprintf(`<w:tcW w:w="%d" w:type="pct"/>`, widthPct))
	if shading != "" {
		props.WriteString(`<w:shd w:val="clear" w:color="auto" w:fill="` + shading + `"/>`)
	}
	props.WriteString(`<w:vAlign w:val="top"/>`)
	props.WriteString(`</w:tcPr>`)
	body := strings.Join(content, "")
	if body == "" {
		body = emptyPara()
	}
	return `<w:tc>` + props.String() + body + `</w:tc>`
}

func row(height int, cells ...string) string {
	var props string
	if height > 0 {
		props = fmt.Sprintf(`<w:trPr><w:trHeight w:val="%d" w:hRule="exact"/></w:trPr>`, height)
	}
	return `<w:tr>` + props + strings.Join(cells, "") + `</w:tr>`
}

// table 输出无边框全宽表格。
func table(rows ...string) string {
	props := `<w:tblPr>` +
		`<w:tblW w:w="5000" w:type="pct"/>` +
		`<w:tblBorders>` +
		`<w:top w:val="none" w:sz="0" w:space="0" w:color="auto"/>` +
		`<w:left w:val="none" w:sz="0" w:space="0" w:color="auto"/>` +
		`<w:bottom w:val="none" w:sz="0" w:space="0" w:color="auto"/>` +
		`<w:right w:val="none" w:sz="0" w:space="0" w:color="auto"/>` +
		`<w:insideH w:val="none" w:sz="0" w:space="0" w:color="auto"/>` +
		`<w:insideV w:val="none" w:sz="0" w:space="0" w:color="auto"/>` +
		`</w:tblBorders>` +
		`<w:tblCellMar>` +
		`<w:top w:w="80" w:type="dxa"/>` +
		`<w:left w:w="120" w:type="dxa"/>` +
		`<w:bottom w:w="80" w:type="dxa"/>` +
		`<w:right w:w="120" w:type="dxa"/>` +
		`</w:tblCellMar>` +
		`</w:tblPr>`
	return `<w:tbl>` + props + strings.Join(rows, "") + `</w:tbl>`
}

// logoDrawing 内联嵌入 Logo 图片，r:embed 指向文档关系 rId1。
// 尺寸按源图 60x66 像素换算 EMU（1px = 9525 EMU）。
func logoDrawing() string {
	const widthEMU, heightEMU = 571500, 628650
	return fmt.Sprintf(`<w:r><w:drawing>`+
		`<wp:inline distT="0" distB="0" distL="0" distR="0">`+
		`<wp:extent cx="%d" cy="%d"/>`+
		`<wp:docPr id="1" name="logo"/>`+
		`<a:graphic xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">`+
		`<a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/picture">`+
		`<pic:pic xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture">`+
		`<pic:nvPicPr><pic:cNvPr id="1" name="logo"/><pic:cNvPicPr/></pic:nvPicPr>`+
		`<pic:blipFill><a:blip r:embed="rId1"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>`+
		`<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%d" cy="%d"/></a:xfrm>`+
		`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr>`+
		`</pic:pic></a:graphicData></a:graphic></wp:inline></w:drawing></w:r>`,
		widthEMU, heightEMU, widthEMU, heightEMU)
}
