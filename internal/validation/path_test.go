package validation

import (
	"runtime"
	"testing"
)

func TestValidatePath_Empty(t *testing.T) {
	err := ValidatePath("")
	if err == nil {
		t.Error("Expected error for empty path")
	}
}

func TestValidatePath_NullByte(t *testing.T) {
	err := ValidatePath("session\x00.yaml")
	if err == nil {
		t.Error("Expected error for path with null byte")
	}
}

func TestValidatePath_Directory(t *testing.T) {
	err := ValidatePath("logs/")
	if err == nil {
		t.Error("Expected error for path naming a directory")
	}
}

func TestValidatePath_UnixValid(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Skipping Unix-specific test on Windows")
	}

	paths := []string{
		"./session.yaml",
		"/home/user/.config/crm-admin/session.yaml",
		"crm-admin.log",
		".hidden",
		"file with spaces.log",
	}

	for _, path := range paths {
		err := ValidatePath(path)
		if err != nil {
			t.Errorf("Expected no error for %q, got: %v", path, err)
		}
	}
}

func TestValidatePath_WindowsInvalidChars(t *testing.T) {
	if runtime.GOOS != "windows" {
		t.Skip("Skipping Windows-specific test on non-Windows platform")
	}

	invalidPaths := []string{
		"test<path",
		"test>path",
		"test:path",
		`test"path`,
		"test|path",
		"test?path",
		"test*path",
	}

	for _, path := range invalidPaths {
		err := ValidatePath(path)
		if err == nil {
			t.Errorf("Expected error for %q on Windows", path)
		}
	}
}

func TestValidatePath_WindowsReservedNames(t *testing.T) {
	if runtime.GOOS != "windows" {
		t.Skip("Skipping Windows-specific test on non-Windows platform")
	}

	reservedPaths := []string{"CON", "NUL", "COM1", "LPT9", "CON.log", "aux.yaml"}

	for _, path := range reservedPaths {
		err := ValidatePath(path)
		if err == nil {
			t.Errorf("Expected error for reserved name %q on Windows", path)
		}
	}
}

func TestValidatePath_WindowsValid(t *testing.T) {
	if runtime.GOOS != "windows" {
		t.Skip("Skipping Windows-specific test on non-Windows platform")
	}

	paths := []string{
		`C:\Users\test\session.yaml`,
		`\\server\share\crm-admin.log`,
		`session.yaml`,
	}

	for _, path := range paths {
		err := ValidatePath(path)
		if err != nil {
			t.Errorf("Expected no error for %q, got: %v", path, err)
		}
	}
}
