package types

// AnalysisMode 当前运行的分析类型
type AnalysisMode int

const (
	ModeNone      AnalysisMode = iota // 无
	ModeTransient                     // 瞬态分析
	ModeDCSweep                       // 直流扫描（单点稳态）
	ModeHB                            // 谐波平衡
)

func (m AnalysisMode) String() string {
	switch m {
	case ModeTransient:
		return "TRANSIENT"
	case ModeDCSweep:
		return "DCSWEEP"
	case ModeHB:
		return "HB"
	}
	return "NONE"
}

// 输出流类别
const (
	CategoryTransient = "transient" // 普通瞬态输出
	CategoryStartup   = "startup"   // 预热周期输出
	CategoryHBIC      = "hb_ic"     // 谐波平衡初值瞬态输出
	CategoryHB        = "hb"        // 谐波平衡结果
)
