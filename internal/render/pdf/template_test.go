package pdf

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"resumex/internal/resume"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleRecord() resume.Record {
	return resume.ValidateJSON([]byte(`{
		"name": "Jane Doe",
		"summary": "Platform engineer with ten years of delivery experience.",
		"skills": [{"Languages": ["Go", "Python"]}],
		"certifications": ["CKA"],
		"education": ["B.Sc. Computer Science"],
		"professional_experience": ["Led migration to Kubernetes"],
		"experience_data": [
			{"company": "Acme", "role": "Engineer", "startDate": "2020", "endDate": "2023",
			 "responsibilities": ["Built the deployment pipeline"]}
		],
		"links": [{"type": "GitHub", "url": "https://github.com/janedoe"}]
	}`))
}

func TestBuildHTMLFullRecord(t *testing.T) {
	html := BuildHTML(discardLogger(), sampleRecord())

	if !strings.Contains(html, "Jane Doe") {
		t.Fatal("name missing from output")
	}

	for _, want := range []string{
		"Technical Expertise",
		"Certifications",
		"Education",
		"Summary",
		"Professional Experience",
		"Acme",
		"Company:",
		"Duration:",
		"2020 - 2023",
		"https://github.com/janedoe",
		"#166a6a",
		"data:image/png;base64,",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestBuildHTMLEmptyRecordStillOnePage(t *testing.T) {
	html := BuildHTML(discardLogger(), resume.ValidateJSON([]byte(`{}`)))

	if got := strings.Count(html, `class="a4-page"`); got != 1 {
		t.Fatalf("expected exactly 1 page, got %d", got)
	}
	if !strings.Contains(html, "Unknown") {
		t.Error("placeholder name missing")
	}
	if strings.Contains(html, "Education") {
		t.Error("empty record should not render an Education section")
	}
}

func TestBuildHTMLEducationSentinelOmitsSection(t *testing.T) {
	record := resume.ValidateJSON([]byte(`{"name": "A", "education": "Not available"}`))
	html := BuildHTML(discardLogger(), record)
	if strings.Contains(html, ">Education<") {
		t.Fatal("sentinel education should not render a section")
	}
}

func TestBuildHTMLOverflowPages(t *testing.T) {
	items := make([]string, 0, 31)
	for i := 0; i < 31; i++ {
		items = append(items, `"bullet"`)
	}
	raw := `{"name": "A", "professional_experience": [` + strings.Join(items, ",") + `]}`
	html := BuildHTML(discardLogger(), resume.ValidateJSON([]byte(raw)))

	// 第一块在首页，两块溢出页
	if got := strings.Count(html, `class="a4-page"`); got != 3 {
		t.Fatalf("expected 3 pages, got %d", got)
	}
	if got := strings.Count(html, "Continued"); got != 2 {
		t.Fatalf("expected 2 continued markers, got %d", got)
	}
}

func TestBuildHTMLNeverFailsOnMalformedInput(t *testing.T) {
	inputs := [][]byte{
		nil,
		[]byte(`null`),
		[]byte(`{"skills": 12, "experience_data": [{"responsibilities": 5}]}`),
		[]byte(`{"name": "<script>alert(1)</script>"}`),
	}
	for _, input := range inputs {
		html := BuildHTML(discardLogger(), resume.ValidateJSON(input))
		if html == "" {
			t.Errorf("input %q produced empty document", input)
		}
		if strings.Contains(html, "<script>alert(1)</script>") {
			t.Error("unescaped script tag in output")
		}
	}
}
