package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"capstone-hub/backend/config"
)

// s3Storage AWS S3 存储实现
// 凭证走 SDK 默认链（环境变量 / 实例 Profile）
type s3Storage struct {
	client  *s3.S3
	bucket  string
	baseURL string
}

func newS3Storage(cfg *config.StorageConfig) (*s3Storage, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.S3Region),
	})
	if err != nil {
		return nil, fmt.Errorf("初始化 AWS 会话失败: %w", err)
	}

	baseURL := cfg.S3BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.S3Region)
	}

	return &s3Storage{
		client:  s3.New(sess),
		bucket:  cfg.S3Bucket,
		baseURL: baseURL,
	}, nil
}

func (s *s3Storage) Store(ctx context.Context, key string, contentType string, body io.Reader) (string, error) {
	// PutObject 需要 ReadSeeker，小附件直接读入内存
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("读取附件内容失败: %w", err)
	}

	_, err = s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("上传 S3 失败: %w", err)
	}

	return s.baseURL + "/" + key, nil
}
