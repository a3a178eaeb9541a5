package docx

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"

	"resumex/internal/resume"
)

func renderToParts(t *testing.T, raw string) map[string]string {
	t.Helper()

	data, err := Render(resume.ValidateJSON([]byte(raw)))
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}

	parts := map[string]string{}
	for _, file := range reader.File {
		rc, err := file.Open()
		if err != nil {
			t.Fatalf("open %s: %v", file.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read %s: %v", file.Name, err)
		}
		parts[file.Name] = string(content)
	}
	return parts
}

func TestRenderProducesValidPackage(t *testing.T) {
	parts := renderToParts(t, `{"name": "Jane Doe"}`)

	for _, name := range []string{
		"[Content_Types].xml",
		"_rels/.rels",
		"word/_rels/document.xml.rels",
		"word/media/logo.png",
		"word/document.xml",
	} {
		if _, ok := parts[name]; !ok {
			t.Errorf("missing part %s", name)
		}
	}

	if !strings.HasPrefix(parts["word/media/logo.png"], "\x89PNG") {
		t.Error("logo part is not a PNG")
	}
}

func TestRenderDocumentStructure(t *testing.T) {
	parts := renderToParts(t, `{
		"name": "Jane Doe",
		"summary": "Engineer.",
		"skills": [{"Languages": ["Go"]}],
		"certifications": ["CKA"],
		"education": ["B.Sc."],
		"professional_experience": ["Did things"],
		"experience_data": [{"company": "Acme", "role": "Dev", "responsibilities": ["Shipped"]}]
	}`)
	document := parts["word/document.xml"]

	for _, want := range []string{
		"Jane Doe",
		`<w:caps/>`,
		`w:fill="166a6a"`,
		`w:fill="000000"`,
		`<w:trHeight w:val="1700" w:hRule="exact"/>`,
		`<w:spacing w:after="120" w:line="276" w:lineRule="auto"/>`,
		`<w:ind w:left="400" w:hanging="200"/>`,
		`<w:tab w:val="left" w:pos="400"/>`,
		"▪</w:t><w:tab/>",
		"Technical Expertise",
		"Certifications",
		"Education",
		"Professional Experience",
		"Company:",
		"Responsibilities:",
		`<w:type w:val="continuous"/>`,
		`w:top="720"`,
		`r:embed="rId1"`,
	} {
		if !strings.Contains(document, want) {
			t.Errorf("document missing %q", want)
		}
	}

	if strings.Contains(document, "::") {
		t.Error("label with doubled colon leaked into document")
	}
	if count := strings.Count(document, "<w:sectPr>"); count != 3 {
		t.Errorf("expected 3 sections, got %d", count)
	}
}

func TestRenderEducationSentinelOmitted(t *testing.T) {
	parts := renderToParts(t, `{"name": "A", "education": "Not available"}`)
	if strings.Contains(parts["word/document.xml"], "Education") {
		t.Fatal("sentinel education should not render a section")
	}
}

func TestRenderEmptyRecord(t *testing.T) {
	parts := renderToParts(t, `{}`)
	document := parts["word/document.xml"]

	if !strings.Contains(document, "Unknown") {
		t.Error("placeholder name missing")
	}
	if strings.Contains(document, "Not available") {
		t.Error("sentinel value leaked into document")
	}
}

func TestRenderEscapesMarkup(t *testing.T) {
	parts := renderToParts(t, `{"name": "A <B> & C"}`)
	document := parts["word/document.xml"]

	if strings.Contains(document, "<B>") {
		t.Fatal("unescaped markup in document")
	}
	if !strings.Contains(document, "A &lt;B&gt; &amp; C") {
		t.Fatal("expected escaped name text")
	}
}

func TestRenderAppendixOrdering(t *testing.T) {
	parts := renderToParts(t, `{
		"name": "A",
		"experience_data": [
			{"company": "NoResp", "responsibilities": []},
			{"company": "HasResp", "responsibilities": ["x"]}
		]
	}`)
	document := parts["word/document.xml"]

	hasResp := strings.Index(document, "HasResp")
	noResp := strings.Index(document, "NoResp")
	if hasResp == -1 || noResp == -1 {
		t.Fatal("both entries should render")
	}
	if hasResp > noResp {
		t.Fatal("entries with responsibilities should come first")
	}
}
