package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Saveがファイルを保存し、ID由来のパスを返すことを検証
func TestLocalDocumentStore_Save(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalDocumentStore(dir)
	if err != nil {
		t.Fatalf("NewLocalDocumentStore returned error: %v", err)
	}

	path, err := store.Save("doc-1", "レシート.pdf", strings.NewReader("pdf content"))
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if path != "doc-1.pdf" {
		t.Errorf("path = %q, want %q", path, "doc-1.pdf")
	}

	data, err := os.ReadFile(filepath.Join(dir, path))
	if err != nil {
		t.Fatalf("saved file not readable: %v", err)
	}
	if string(data) != "pdf content" {
		t.Errorf("file content = %q, want %q", string(data), "pdf content")
	}
}

// 元ファイル名にディレクトリが含まれていても拡張子のみ使用されることを検証
func TestLocalDocumentStore_Save_IgnoresDirectoryInName(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalDocumentStore(dir)
	if err != nil {
		t.Fatalf("NewLocalDocumentStore returned error: %v", err)
	}

	path, err := store.Save("doc-2", "../../etc/passwd.txt", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if path != "doc-2.txt" {
		t.Errorf("path = %q, want %q", path, "doc-2.txt")
	}
}

// Deleteがファイルを削除し、存在しない場合も冪等であることを検証
func TestLocalDocumentStore_Delete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalDocumentStore(dir)
	if err != nil {
		t.Fatalf("NewLocalDocumentStore returned error: %v", err)
	}

	path, err := store.Save("doc-3", "warranty.jpg", strings.NewReader("jpg"))
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	if err := store.Delete(path); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, path)); !os.IsNotExist(err) {
		t.Error("file should be deleted")
	}

	// 2回目の削除もエラーにならない
	if err := store.Delete(path); err != nil {
		t.Errorf("second Delete should be idempotent, got error: %v", err)
	}
}

// baseDir外を指すパスの削除が拒否されることを検証
func TestLocalDocumentStore_Delete_RejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalDocumentStore(dir)
	if err != nil {
		t.Fatalf("NewLocalDocumentStore returned error: %v", err)
	}

	if err := store.Delete("../outside.txt"); err == nil {
		t.Error("expected error for traversal path")
	}
	if err := store.Delete("/etc/passwd"); err == nil {
		t.Error("expected error for absolute path")
	}
}
