package errors

import (
	"path/filepath"
	"strings"
	"unicode"
)

// DocumentExt is the only file extension the viewer accepts.
const DocumentExt = ".md"

// MaxDocumentSize bounds the documents the viewer will read (8 MiB).
const MaxDocumentSize = 8 << 20

// ValidateDocumentName checks that name refers to a Markdown document.
// The check is on the name only; it mirrors a file picker restricted to
// ".md" and rejects everything else with ErrCodeInvalidFileType.
func ValidateDocumentName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidInput, "no file selected")
	}
	if !strings.EqualFold(filepath.Ext(name), DocumentExt) {
		return New(ErrCodeInvalidFileType, "please select a Markdown (%s) file", DocumentExt)
	}
	return nil
}

// ValidateDocument checks document content before extraction.
// Empty or whitespace-only documents are rejected with ErrCodeInvalidInput.
func ValidateDocument(content []byte) error {
	if len(content) == 0 || strings.TrimSpace(string(content)) == "" {
		return New(ErrCodeInvalidInput, "document is empty")
	}
	if len(content) > MaxDocumentSize {
		return New(ErrCodeInvalidInput, "document too large (max %d bytes)", MaxDocumentSize)
	}
	return nil
}

// ValidateElementID validates an element identifier supplied from outside
// the process (HTTP API). Identifiers come from rendered scenes, so the rules
// only reject values that can never appear there.
//
// Validation rules:
//   - Maximum length of 512 characters
//   - No control characters
//   - No whitespace
//
// The empty string is valid and means "no selection".
func ValidateElementID(id string) error {
	const maxIDLength = 512
	if len(id) > maxIDLength {
		return New(ErrCodeInvalidInput, "element id too long (max %d characters)", maxIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "element id contains invalid characters")
		}
	}
	return nil
}

// ValidatePath validates a filesystem path given on the command line.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	return nil
}
