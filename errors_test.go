package packetc_test

import (
	"fmt"
	"strings"
	"testing"

	packetc "github.com/reoring/packetc"
)

func TestIssues_ErrorSummary(t *testing.T) {
	iss := packetc.Issues{
		{Path: "/pet.packet", Code: packetc.CodeSyntaxError, Line: 3, Col: 14},
		{Path: "/Pet/owner", Code: packetc.CodeConflictingOptionalDefault},
		{Path: "/a", Code: packetc.CodeInvalidMapKey},
		{Path: "/b", Code: packetc.CodeInvalidUnion},
	}
	s := iss.Error()
	if !strings.Contains(s, "syntax_error at /pet.packet:3:14") {
		t.Fatalf("summary missing location: %q", s)
	}
	if !strings.Contains(s, "total 4") {
		t.Fatalf("summary missing overflow count: %q", s)
	}
}

func TestAsIssues_ThroughWrapping(t *testing.T) {
	iss := packetc.Issues{{Path: "/", Code: packetc.CodeTruncated}}
	wrapped := fmt.Errorf("decode: %w", iss)
	got, ok := packetc.AsIssues(wrapped)
	if !ok || got[0].Code != packetc.CodeTruncated {
		t.Fatalf("expected unwrap to Issues, got %v", wrapped)
	}
	if _, ok := packetc.AsIssues(nil); ok {
		t.Fatalf("nil is not Issues")
	}
}

func TestIsParseFailure_SeparatesRuntimeFromCompile(t *testing.T) {
	if !packetc.IsParseFailure(packetc.Issues{{Code: packetc.CodeDiscriminantOutOfRange}}) {
		t.Fatalf("runtime code should be a parse failure")
	}
	if packetc.IsParseFailure(packetc.Issues{{Code: packetc.CodeCyclicAlias}}) {
		t.Fatalf("compile diagnostics are not parse failures")
	}
}
