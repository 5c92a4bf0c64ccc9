// Package output 记录各分析的输出流，并渲染为 HTML 图表、PNG 曲线与 YAML 摘要。
package output

import (
	"encoding/json"
	"io"
	"sort"
	"sync"

	"hbcircuit/types"
)

// Record 一个输出类别的历史数据
type Record struct {
	Names  []string    // 未知量名称
	Time   []float64   // 时间列
	Values [][]float64 // 每个时间点的解
}

// Render 以 JSON 输出
func (r *Record) Render(w io.Writer) error { return json.NewEncoder(w).Encode(r) }

// Manager 按类别（transient、startup、hb_ic ...）分流记录
type Manager struct {
	mu       sync.Mutex
	names    []string
	category string
	records  map[string]*Record
}

// NewManager 创建输出管理器，默认类别为 transient
func NewManager(names []string) *Manager {
	return &Manager{
		names:    names,
		category: types.CategoryTransient,
		records:  make(map[string]*Record),
	}
}

// Push 切换当前类别，返回恢复函数
func (m *Manager) Push(category string) func() {
	m.mu.Lock()
	prev := m.category
	m.category = category
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		m.category = prev
		m.mu.Unlock()
	}
}

// Category 当前类别
func (m *Manager) Category() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.category
}

// Record 向当前类别追加一个时间点
func (m *Manager) Record(t float64, x []float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[m.category]
	if !ok {
		r = &Record{Names: m.names}
		m.records[m.category] = r
	}
	n := len(x)
	if len(m.names) > 0 && len(m.names) < n {
		n = len(m.names)
	}
	r.Time = append(r.Time, t)
	r.Values = append(r.Values, append([]float64(nil), x[:n]...))
}

// Get 返回类别的记录，不存在时为 nil
func (m *Manager) Get(category string) *Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[category]
}

// Categories 已记录的类别（排序）
func (m *Manager) Categories() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.records))
	for k := range m.records {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
