package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"capstone-hub/backend/config"
)

// Storage 附件存储契约
// 业务层只依赖 Store 返回的可访问 URL，不关心底层介质
type Storage interface {
	Store(ctx context.Context, key string, contentType string, body io.Reader) (string, error)
}

// New 按配置选择存储实现
func New(cfg *config.StorageConfig) (Storage, error) {
	switch cfg.Driver {
	case "s3":
		return newS3Storage(cfg)
	case "local", "":
		return newLocalStorage(cfg.LocalDir)
	default:
		return nil, fmt.Errorf("未知的存储驱动: %s", cfg.Driver)
	}
}

// ── 本地目录实现（开发环境用） ──

type localStorage struct {
	dir string
}

func newLocalStorage(dir string) (*localStorage, error) {
	if dir == "" {
		dir = "./uploads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建上传目录失败: %w", err)
	}
	return &localStorage{dir: dir}, nil
}

func (s *localStorage) Store(_ context.Context, key string, _ string, body io.Reader) (string, error) {
	// key 可能含路径分隔，统一落到单层目录
	name := strings.ReplaceAll(key, "/", "_")
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("创建文件失败: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, body); err != nil {
		return "", fmt.Errorf("写入文件失败: %w", err)
	}

	return "/uploads/" + name, nil
}
