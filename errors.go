package packetc

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	// Compile-time diagnostics. All of these abort the build.
	CodeSyntaxError                = "syntax_error"
	CodeUnknownName                = "unknown_name"
	CodeCyclicImport               = "cyclic_import"
	CodeDuplicateDeclaration       = "duplicate_declaration"
	CodeCyclicAlias                = "cyclic_alias"
	CodeCyclicType                 = "cyclic_type"
	CodeInvalidUnion               = "invalid_union"
	CodeInvalidMapKey              = "invalid_map_key"
	CodeDefaultTypeMismatch        = "default_type_mismatch"
	CodeConflictingOptionalDefault = "conflicting_optional_default"
	CodeEnumValueConflict          = "enum_value_conflict"

	// Runtime codec failures. Returned, never panicked.
	CodeInvalidType            = "invalid_type"
	CodeTruncated              = "truncated"
	CodeTrailingData           = "trailing_data"
	CodeDiscriminantOutOfRange = "discriminant_out_of_range"
	CodeInvalidEnumValue       = "invalid_enum_value"
	CodeDuplicateKey           = "duplicate_key"
	CodeOverflow               = "overflow"
)

// Issue represents a single diagnostic entry.
type Issue struct {
	Path    string // Slash path into the offending declaration or value (for example: /Pet/pictures/2).
	Code    string // One of the codes listed above.
	Message string
	Hint    string // Optional: remediation hints, expected-token descriptions, etc.
	Cause   error  // Optional: underlying error.
	Offset  int64  // Byte offset into the wire input (-1 when not a codec failure).
	Line    int    // 1-based source line for compile-time diagnostics (0 when unknown).
	Col     int    // 1-based source column for compile-time diagnostics (0 when unknown).
	// Params carries structured parameters (e.g., {"expected":"int32", "got":"string"})
	// for i18n and observability.
	Params map[string]any
}

// Issues is a collection of diagnostics that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. syntax_error at /pet.packet:3:14
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
		if it.Line > 0 {
			fmt.Fprintf(b, ":%d:%d", it.Line, it.Col)
		}
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// IsParseFailure reports whether err carries at least one runtime codec
// failure (as opposed to a compile-time diagnostic).
func IsParseFailure(err error) bool {
	iss, ok := AsIssues(err)
	if !ok {
		return false
	}
	for _, it := range iss {
		switch it.Code {
		case CodeInvalidType, CodeTruncated, CodeTrailingData,
			CodeDiscriminantOutOfRange, CodeInvalidEnumValue,
			CodeDuplicateKey, CodeOverflow:
			return true
		}
	}
	return false
}
