package progress

// 任务状态机：pending → processing(stage) → completed | failed。
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// 引擎上报的阶段码。未知阶段按保守的 10% 处理。
const (
	StageUpload     = "upload"
	StageProcessing = "processing"
	StageExtraction = "extraction"
	StageParsing    = "parsing"
	StageCompletion = "completion"
	StageCompleted  = "completed"
	StageFailed     = "failed"
)

// stagePercents 是引擎缺省 progress 时的近似百分比兜底表，
// 本地不做单调性校验，信任引擎的阶段顺序。
var stagePercents = map[string]int{
	StageUpload:                     10,
	StageProcessing:                 15,
	"converting_docx_to_pdf":        25,
	"conversion_to_image_all_pages": 40,
	"parsing_all_pages_with_vision": 70,
	StageExtraction:                 50,
	StageParsing:                    80,
	StageCompletion:                 95,
	StageCompleted:                  100,
	StageFailed:                     0,
}

var stageMessages = map[string]string{
	StageUpload:                     "File uploaded successfully",
	StageProcessing:                 "Starting processing...",
	"converting_docx_to_pdf":        "Converting document to PDF...",
	"conversion_to_image_all_pages": "Converting pages to images...",
	"parsing_all_pages_with_vision": "Analyzing pages with AI vision...",
	StageExtraction:                 "Extracting text from document...",
	StageParsing:                    "Parsing resume data...",
	StageCompletion:                 "Finalizing results...",
	StageCompleted:                  "Processing completed!",
	StageFailed:                     "Processing failed",
}

// PercentFor 优先使用引擎给的数值，缺省时查兜底表。
func PercentFor(stage string, reported *int) int {
	if reported != nil && *reported >= 0 && *reported <= 100 {
		return *reported
	}
	if percent, ok := stagePercents[stage]; ok {
		return percent
	}
	return 10
}

// MessageFor 把阶段码翻译成用户可见文案。
func MessageFor(stage string) string {
	if message, ok := stageMessages[stage]; ok {
		return message
	}
	return "Processing..."
}

// Terminal 判断状态是否已到终态。
func Terminal(status string) bool {
	return status == StatusCompleted || status == StatusFailed
}
