package validation

import (
	"fmt"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
)

// ValidatePath checks that path can name a file (session store, log file)
// on the current OS.
func ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	// Check for null bytes (invalid on all platforms)
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("path cannot contain null bytes")
	}

	if strings.HasSuffix(path, "/") || strings.HasSuffix(path, string(filepath.Separator)) {
		return fmt.Errorf("path %q names a directory, not a file", path)
	}

	if runtime.GOOS == "windows" {
		return validateWindowsPath(filepath.Clean(path))
	}

	return nil
}

// Windows invalid characters: < > : " | ? *
const windowsInvalidChars = `<>:"|?*`

var windowsReservedNames = []string{"CON", "PRN", "AUX", "NUL"}

func validateWindowsPath(path string) error {
	rest := strings.TrimPrefix(path, filepath.VolumeName(path))
	for _, char := range windowsInvalidChars {
		if strings.ContainsRune(rest, char) {
			return fmt.Errorf("path contains invalid character: %q", char)
		}
	}

	// Reserved device names apply to the base name without extension
	base := filepath.Base(path)
	if idx := strings.LastIndex(base, "."); idx != -1 {
		base = base[:idx]
	}
	base = strings.ToUpper(base)

	if slices.Contains(windowsReservedNames, base) {
		return fmt.Errorf("%q is a reserved name on Windows", base)
	}
	for i := 1; i <= 9; i++ {
		if base == fmt.Sprintf("COM%d", i) || base == fmt.Sprintf("LPT%d", i) {
			return fmt.Errorf("%q is a reserved name on Windows", base)
		}
	}

	if strings.HasSuffix(path, " ") || strings.HasSuffix(path, ".") {
		return fmt.Errorf("path cannot end with space or period on Windows")
	}

	return nil
}
