// Package storage は保証書類ファイルの保存と削除を提供する。
// ファイルの実体はローカルディスクのアップロードディレクトリに置き、
// パスのみをwarranty_documentsテーブルに保存する。
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DocumentStore は書類ファイルの永続化インターフェース。
type DocumentStore interface {
	// Save はファイル内容を保存し、DBに記録する相対パスを返す。
	// ファイル名はID由来のものを使用し、元のファイル名はDB側で保持する。
	Save(id, originalName string, r io.Reader) (string, error)

	// Delete は指定パスのファイルを削除する。
	// ファイルが既に存在しない場合はエラーにしない（冪等）。
	Delete(path string) error
}

// LocalDocumentStore はローカルディスクを使用したDocumentStoreの実装。
type LocalDocumentStore struct {
	baseDir string
}

// NewLocalDocumentStore はLocalDocumentStoreを生成する。
// baseDirが存在しない場合は作成する。
func NewLocalDocumentStore(baseDir string) (*LocalDocumentStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("アップロードディレクトリの作成に失敗しました: %w", err)
	}
	return &LocalDocumentStore{baseDir: baseDir}, nil
}

// Save はファイル内容を保存し、相対パスを返す。
// 保存名は「<id><元ファイルの拡張子>」。パストラバーサルを防ぐため
// 元ファイル名はベース名の拡張子のみ使用する。
func (s *LocalDocumentStore) Save(id, originalName string, r io.Reader) (string, error) {
	ext := filepath.Ext(filepath.Base(originalName))
	name := id + ext
	fullPath := filepath.Join(s.baseDir, name)

	f, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("書類ファイルの作成に失敗しました: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("書類ファイルの書き込みに失敗しました: %w", err)
	}

	return name, nil
}

// Delete は指定パスのファイルを削除する。存在しない場合は何もしない。
// baseDirの外を指すパスは拒否する。
func (s *LocalDocumentStore) Delete(path string) error {
	clean := filepath.Clean(path)
	if strings.Contains(clean, "..") || filepath.IsAbs(clean) {
		return fmt.Errorf("不正な書類パスです: %s", path)
	}

	fullPath := filepath.Join(s.baseDir, clean)
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("書類ファイルの削除に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ DocumentStore = (*LocalDocumentStore)(nil)
