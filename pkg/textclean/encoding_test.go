package textclean

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDecodeFallback(t *testing.T) {
	t.Run("valid utf-8", func(t *testing.T) {
		content, enc, err := DecodeFallback([]byte("plain café text"))
		if err != nil {
			t.Fatal(err)
		}
		if enc != "utf-8" {
			t.Errorf("encoding = %q, want utf-8", enc)
		}
		if content != "plain café text" {
			t.Errorf("content = %q", content)
		}
	})

	t.Run("latin-1 bytes", func(t *testing.T) {
		// "café" with the é as a raw 0xE9 byte, invalid as UTF-8.
		content, enc, err := DecodeFallback([]byte{'c', 'a', 'f', 0xE9})
		if err != nil {
			t.Fatal(err)
		}
		if enc != "latin-1" {
			t.Errorf("encoding = %q, want latin-1", enc)
		}
		if content != "café" {
			t.Errorf("content = %q, want café", content)
		}
	})

	t.Run("windows-1252 bytes decode through the chain", func(t *testing.T) {
		// 0x93 is a smart quote in windows-1252 and a C1 control in
		// latin-1. The chain tries latin-1 first, so the byte decodes to
		// the control character, which BinaryStrip later removes.
		content, enc, err := DecodeFallback([]byte{'a', 0x93, 'b'})
		if err != nil {
			t.Fatal(err)
		}
		if enc != "latin-1" {
			t.Errorf("encoding = %q, want latin-1 (first fallback wins)", enc)
		}

		c := NewCleaner(nil)
		if got := c.BinaryStrip(content); got != "ab" {
			t.Errorf("BinaryStrip(%q) = %q, want %q", content, got, "ab")
		}
	})
}

func TestReadFileFallback(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "latin1.txt")
	if err := os.WriteFile(path, []byte{'c', 'a', 'f', 0xE9, '\n'}, 0o644); err != nil {
		t.Fatal(err)
	}

	content, enc, err := ReadFileFallback(path)
	if err != nil {
		t.Fatal(err)
	}
	if enc != "latin-1" || content != "café\n" {
		t.Errorf("ReadFileFallback = %q, %q", content, enc)
	}

	if _, _, err := ReadFileFallback(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}
