// Package importer 从 JSON 数据文件批量导入影人与电影
package importer

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
)

// PersonRecord 影人数据，日期为 ISO 格式，空串表示未知
type PersonRecord struct {
	Name string `json:"name"`
	DOB  string `json:"dob"`
	DOD  string `json:"dod"`
}

// MediaLinkRecord 观看链接数据
type MediaLinkRecord struct {
	URL    string `json:"url"`
	Host   string `json:"host"`
	Free   bool   `json:"free"`
	Active bool   `json:"active"`
}

// MovieRecord 电影数据
type MovieRecord struct {
	Title       string            `json:"title"`
	Studio      string            `json:"studio"`
	ReleaseDate string            `json:"release date"`
	BasedOn     json.RawMessage   `json:"based on"` // "n/a" 或 [作品, 作者]
	Cast        [][]string        `json:"cast"`     // [演员, 角色]
	Director    string            `json:"director"`
	Camera      string            `json:"camera"`
	Composer    string            `json:"composer"`
	Producers   []string          `json:"producer"`
	Writers     []string          `json:"writers"`
	MediaLinks  []MediaLinkRecord `json:"media_links"`
}

// LoadJSON 读取 JSON 数据文件
func LoadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return records, nil
}

// FailLog 按电影名记录导入失败的条目
type FailLog struct {
	mu      sync.Mutex
	entries map[string][]string
}

// NewFailLog 创建失败记录
func NewFailLog() *FailLog {
	return &FailLog{entries: make(map[string][]string)}
}

// Add 追加一条失败说明
func (f *FailLog) Add(movie, note string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[movie] = append(f.entries[movie], note)
}

// Entries 返回某部电影的失败说明
func (f *FailLog) Entries(movie string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.entries[movie]...)
}

// Movies 返回有失败记录的电影名，按名称排序
func (f *FailLog) Movies() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.entries))
	for name := range f.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len 失败条目总数
func (f *FailLog) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, notes := range f.entries {
		n += len(notes)
	}
	return n
}

// Save 以 JSON 写入文件
func (f *FailLog) Save(path string) error {
	f.mu.Lock()
	data, err := json.MarshalIndent(f.entries, "", "  ")
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
