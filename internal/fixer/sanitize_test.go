package fixer

import (
	"strings"
	"testing"
)

func TestSanitizeEmptyInput(t *testing.T) {
	if got := Sanitize(""); got != "" {
		t.Errorf("Sanitize(\"\") = %q, want empty", got)
	}
}

func TestSanitizePrependsSingleDeclaration(t *testing.T) {
	code := "import pygame\npygame.init()"
	got := Sanitize(code)

	if !strings.HasPrefix(got, EncodingDecl+"\n") {
		t.Errorf("sanitized code must start with the encoding declaration, got %q", got)
	}
	if strings.Count(got, EncodingDecl) != 1 {
		t.Errorf("expected exactly one encoding declaration, got %d", strings.Count(got, EncodingDecl))
	}
}

func TestSanitizeRemovesDuplicateDeclarations(t *testing.T) {
	code := EncodingDecl + "\nimport pygame\n" + EncodingDecl + "\nx = 1"
	got := Sanitize(code)

	if strings.Count(got, EncodingDecl) != 1 {
		t.Errorf("expected exactly one encoding declaration, got %d", strings.Count(got, EncodingDecl))
	}
	if !strings.Contains(got, "x = 1") {
		t.Errorf("sanitation must keep code lines, got %q", got)
	}
}

func TestSanitizeKeepsCodeSharingDeclarationLine(t *testing.T) {
	code := "x = 1  " + EncodingDecl + "\nprint(x)"
	got := Sanitize(code)

	if !strings.Contains(got, "x = 1") {
		t.Errorf("code sharing a declaration line must survive, got %q", got)
	}
	if strings.Count(got, EncodingDecl) != 1 {
		t.Errorf("expected exactly one encoding declaration, got %d", strings.Count(got, EncodingDecl))
	}
	if twice := Sanitize(got); twice != got {
		t.Errorf("not idempotent:\nonce:  %q\ntwice: %q", got, twice)
	}
}

func TestSanitizeBlanksNonPrintable(t *testing.T) {
	code := "x = 'приветé'\nprint(x)"
	got := Sanitize(code)

	for _, r := range got {
		if (r < 32 || r > 126) && r != '\n' && r != '\t' && r != '\r' {
			t.Fatalf("non-printable rune %q survived sanitation", r)
		}
	}
	if !strings.Contains(got, "print(x)") {
		t.Errorf("ASCII lines must survive, got %q", got)
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{
		"import pygame",
		EncodingDecl + "\nimport pygame\npygame.init()",
		"комментарий\nx = 1",
		"",
	}
	for _, code := range inputs {
		once := Sanitize(code)
		twice := Sanitize(once)
		if once != twice {
			t.Errorf("Sanitize is not idempotent for %q:\nonce:  %q\ntwice: %q", code, once, twice)
		}
	}
}
