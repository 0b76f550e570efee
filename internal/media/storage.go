package media

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LogoDir はMEDIA_ROOT配下の企業ロゴの保存先。
const LogoDir = "firma/logo"

// Storage はメディアファイルをローカルディスクに保存する。
type Storage struct {
	root string
}

// NewStorage はrootを基点とするStorageを生成する。
func NewStorage(root string) *Storage {
	return &Storage{root: root}
}

// Save はdir配下にファイルを書き込み、MEDIA_ROOTからの相対パスを返す。
// 同名のファイルは置き換える。一時ファイルへ書いてからリネームする。
func (s *Storage) Save(dir, name string, data []byte) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid file name: %q", name)
	}

	absDir := filepath.Join(s.root, filepath.FromSlash(dir))
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}

	tmp, err := os.CreateTemp(absDir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write media file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close media file: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(absDir, name)); err != nil {
		return "", fmt.Errorf("failed to move media file: %w", err)
	}

	return path.Join(dir, name), nil
}

// extensionFor は画像のMIMEタイプに対応する拡張子を返す。
func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/svg+xml":
		return ".svg"
	case "image/webp":
		return ".webp"
	case "image/x-icon", "image/vnd.microsoft.icon", "image/ico":
		return ".ico"
	}
	return ".img"
}

// LogoFileName は企業IDと画像形式からロゴのファイル名を決める。
func LogoFileName(companyID, mimeType string) string {
	return companyID + extensionFor(mimeType)
}
