package config

// Default metadata patterns, tuned for Korean office documents. The whole
// set is replaceable through the config file; a different corpus can swap
// in its own date formats and label conventions.
var (
	defaultDatePatterns = []string{
		`\d{4}[-년./]\s*\d{1,2}[-월./]\s*\d{1,2}`,
		`\d{4}\.\s*\d{1,2}\.\s*\d{1,2}`,
		`\d{4}/\d{1,2}/\d{1,2}`,
	}
	defaultDepartmentPatterns = []string{
		`(?:소속|부서|팀)\s*[:：]?\s*([가-힣]+(?:팀|부|과|센터))`,
		`([가-힣]+(?:팀|부|과|센터))`,
	}
	defaultAuthorPatterns = []string{
		`(?:작성자|기안자|담당자)\s*[:：]?\s*([가-힣]{2,4}(?:\s*(?:팀원|대리|과장|차장|부장|이사))?)`,
	}
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "./munseo.db"
	}
	if cfg.Pipeline.ChunkSize == 0 {
		cfg.Pipeline.ChunkSize = 500
	}
	if cfg.Pipeline.ChunkOverlap == 0 {
		cfg.Pipeline.ChunkOverlap = 100
	}
	if cfg.Pipeline.Workers == 0 {
		cfg.Pipeline.Workers = 4
	}
	if cfg.Pipeline.MinCharsPerPage == 0 {
		cfg.Pipeline.MinCharsPerPage = 50
	}
	if cfg.Pipeline.NoiseRunLength == 0 {
		cfg.Pipeline.NoiseRunLength = 4
	}
	if cfg.Pipeline.NoiseRepeatLength == 0 {
		cfg.Pipeline.NoiseRepeatLength = 4
	}
	if cfg.OCR.Language == "" {
		cfg.OCR.Language = "kor+eng"
	}
	if cfg.OCR.DPI == 0 {
		cfg.OCR.DPI = 300
	}
	if cfg.OCR.LocalCommand == "" {
		cfg.OCR.LocalCommand = "tesseract"
	}
	if cfg.Convert.DismissRetries == 0 {
		cfg.Convert.DismissRetries = 5
	}
	if cfg.Convert.MinChars == 0 {
		cfg.Convert.MinChars = 1500
	}
	if cfg.Convert.CharsPerKB == 0 {
		cfg.Convert.CharsPerKB = 100
	}
	if cfg.Metadata.TitleMaxLen == 0 {
		cfg.Metadata.TitleMaxLen = 100
	}
	if cfg.Metadata.DatePatterns == nil {
		cfg.Metadata.DatePatterns = defaultDatePatterns
	}
	if cfg.Metadata.DepartmentPatterns == nil {
		cfg.Metadata.DepartmentPatterns = defaultDepartmentPatterns
	}
	if cfg.Metadata.AuthorPatterns == nil {
		cfg.Metadata.AuthorPatterns = defaultAuthorPatterns
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{
			".txt", ".md", ".csv", ".pdf", ".docx", ".xlsx", ".pptx",
			".hwp", ".hwpx", ".jpg", ".jpeg", ".png",
		}
	}
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
