package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Param 单个选项参数 KEY=VALUE
type Param struct {
	Tag   string // 键（统一大写）
	Value string // 原始值
}

// OptionBlock 选项块，如 `.OPTIONS HBINT NUMFREQ=7 TAHB=1`
type OptionBlock struct {
	Name   string  // 块名称（HBINT、LINSOL-HB ...）
	Params []Param // 参数列表，保持书写顺序
}

// NewOptionBlock 创建选项块
func NewOptionBlock(name string, params ...Param) OptionBlock {
	return OptionBlock{Name: strings.ToUpper(name), Params: params}
}

// ParseOptionBlock 解析 "KEY=VAL" 字段列表
func ParseOptionBlock(name string, fields []string) (OptionBlock, error) {
	ob := NewOptionBlock(name)
	for _, f := range fields {
		k, v, ok := strings.Cut(f, "=")
		if !ok || k == "" {
			return ob, fmt.Errorf("选项 %q 格式错误，应为 KEY=VALUE", f)
		}
		ob.Set(k, v)
	}
	return ob, nil
}

// Set 设置参数（不区分大小写，重复键覆盖）
func (ob *OptionBlock) Set(tag, value string) {
	tag = strings.ToUpper(strings.TrimSpace(tag))
	value = strings.TrimSpace(value)
	for i := range ob.Params {
		if ob.Params[i].Tag == tag {
			ob.Params[i].Value = value
			return
		}
	}
	ob.Params = append(ob.Params, Param{Tag: tag, Value: value})
}

// Lookup 查找参数原始值
func (ob OptionBlock) Lookup(tag string) (string, bool) {
	tag = strings.ToUpper(tag)
	for _, p := range ob.Params {
		if p.Tag == tag {
			return p.Value, true
		}
	}
	return "", false
}

// Int 读取整数参数
func (p Param) Int() (int, error) {
	if v, err := strconv.Atoi(p.Value); err == nil {
		return v, nil
	}
	f, err := ParseValue(p.Value)
	if err != nil {
		return 0, fmt.Errorf("参数 %s=%q 不是整数: %w", p.Tag, p.Value, err)
	}
	return int(f), nil
}

// Float 读取浮点参数（支持工程单位后缀）
func (p Param) Float() (float64, error) {
	f, err := ParseValue(p.Value)
	if err != nil {
		return 0, fmt.Errorf("参数 %s=%q 不是数值: %w", p.Tag, p.Value, err)
	}
	return f, nil
}

// Bool 读取布尔参数，接受 1/0、TRUE/FALSE、YES/NO
func (p Param) Bool() (bool, error) {
	switch strings.ToUpper(p.Value) {
	case "", "1", "TRUE", "YES", "ON":
		return true, nil
	case "0", "FALSE", "NO", "OFF":
		return false, nil
	}
	if f, err := ParseValue(p.Value); err == nil {
		return f != 0, nil
	}
	return false, fmt.Errorf("参数 %s=%q 不是布尔值", p.Tag, p.Value)
}

// 工程单位后缀，按匹配优先级排列（MEG 必须先于 M）
var unitSuffixes = []struct {
	suffix string
	scale  float64
}{
	{"MEG", 1e6},
	{"T", 1e12},
	{"G", 1e9},
	{"K", 1e3},
	{"M", 1e-3},
	{"U", 1e-6},
	{"N", 1e-9},
	{"P", 1e-12},
	{"F", 1e-15},
}

// ParseValue 解析带工程单位后缀的数值，如 1k、10u、2.2MEG、5mV
func ParseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("空数值")
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, nil
	}
	// 取最长数字前缀
	end := 0
	for end < len(s) {
		c := s[end]
		if (c >= '0' && c <= '9') || c == '.' || c == '+' || c == '-' ||
			((c == 'e' || c == 'E') && end+1 < len(s) && (isDigit(s[end+1]) || s[end+1] == '-' || s[end+1] == '+')) {
			end++
			continue
		}
		break
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, fmt.Errorf("无法解析数值 %q", s)
	}
	rest := strings.ToUpper(s[end:])
	for _, u := range unitSuffixes {
		if strings.HasPrefix(rest, u.suffix) {
			return v * u.scale, nil
		}
	}
	// 未知后缀视为单位名（V、A、HZ ...）
	return v, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
