package constants

// Application constants
const (
	AppName = "doc-translate-prep"
	// AppVersion is injected at build time via ldflags in main.go
)

// File processing constants
const (
	DefaultFilePermission = 0644
	DefaultDirPermission  = 0755
)

// Batching defaults. Translation services commonly cap a request at a
// few thousand characters and a few dozen elements.
const (
	DefaultGroupSize = 25
	DefaultMaxSize   = 5000
)

// Extensions grouped by the output naming rule
var (
	SpreadsheetExtensions = []string{".xls", ".xlsx"}
	SlideExtensions       = []string{".ppt", ".pptx"}
	WordExtensions        = []string{".doc", ".docx", ".pdf"}
	TextExtensions        = []string{".txt"}
)

// Container extensions produced by the naming rule
const (
	SpreadsheetOutputExt = ".xlsx"
	SlideOutputExt       = ".pptx"
	WordOutputExt        = ".docx"
	TextOutputExt        = ".txt"
)

// Error messages
const (
	ErrUnsupportedFormat = "unsupported file format"
	ErrDirectoryInput    = "directory expansion is the caller's responsibility"
)
