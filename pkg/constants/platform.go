package constants

import (
	"runtime"
)

// PlatformConfig lists where external tools usually live on each platform
type PlatformConfig struct {
	SofficePaths  []string
	TempDirPrefix string
}

// GetPlatformConfig returns platform-specific configuration
func GetPlatformConfig() *PlatformConfig {
	switch runtime.GOOS {
	case "windows":
		return &PlatformConfig{
			SofficePaths: []string{
				"soffice.exe",
				"C:\\Program Files\\LibreOffice\\program\\soffice.exe",
				"C:\\Program Files (x86)\\LibreOffice\\program\\soffice.exe",
			},
			TempDirPrefix: "doc-translate-prep-",
		}
	case "darwin":
		return &PlatformConfig{
			SofficePaths: []string{
				"/Applications/LibreOffice.app/Contents/MacOS/soffice",
				"soffice",
				"/opt/homebrew/bin/soffice",
				"/usr/local/bin/soffice",
			},
			TempDirPrefix: "doc-translate-prep-",
		}
	default: // Linux and other Unix-like systems
		return &PlatformConfig{
			SofficePaths: []string{
				"soffice",
				"libreoffice",
				"/usr/bin/soffice",
				"/usr/lib/libreoffice/program/soffice",
				"/opt/libreoffice/program/soffice",
				"/snap/bin/libreoffice",
			},
			TempDirPrefix: "doc-translate-prep-",
		}
	}
}

// IsWindows returns true if running on Windows
func IsWindows() bool {
	return runtime.GOOS == "windows"
}
