package resume

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	// ErrResumeNotFound 简历数据文件不存在
	ErrResumeNotFound = errors.New("resume data file not found")
	// ErrResumeInvalid 简历数据文件内容非法（JSON错误或缺少必填字段）
	ErrResumeInvalid = errors.New("invalid resume data file")
)

// Store 简历文档的只读访问器。
// 不做任何进程内缓存，每次Load都重新读盘，外部对文件的修改在下一次调用即可见。
type Store struct {
	path string
}

// NewStore 创建一个简历访问器，path为简历JSON文件路径
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path 返回简历文件的解析后路径
func (s *Store) Path() string {
	if filepath.IsAbs(s.path) {
		return s.path
	}
	wd, err := os.Getwd()
	if err != nil {
		return s.path
	}
	return filepath.Join(wd, s.path)
}

// Load 读取并解析简历文档。文件缺失和格式非法是两类可区分的错误，
// 都原样抛给调用方（工具调用层），不在这里吞掉。
func (s *Store) Load(ctx context.Context) (*ResumeData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := s.Path()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrResumeNotFound, path)
		}
		return nil, fmt.Errorf("读取简历文件 %s 失败: %w", path, err)
	}

	var doc ResumeData
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResumeInvalid, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResumeInvalid, err)
	}
	return &doc, nil
}
