package hb

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"hbcircuit/types"
)

const (
	defaultNumFreq = 21
	toleranceFloor = 1e-6 // 容差校准下限
	sampleFactor   = 1.2  // 每周期所需样本数 = 1.2 * NUMFREQ
)

// Policy 初始化阶段子运行失败后的处理策略
type Policy int

const (
	// PolicyLenient 记录失败并继续执行后续阶段
	PolicyLenient Policy = iota
	// PolicyStrict 跳过剩余的自适应阶段
	PolicyStrict
)

func (p Policy) String() string {
	if p == PolicyStrict {
		return "STRICT"
	}
	return "LENIENT"
}

// Config 谐波平衡配置，Run 开始后不再修改
type Config struct {
	NumHarmonics   int     // 频率点数 N（奇数）
	Period         float64 // 基波周期
	StartupPeriods int     // 预热周期数，0 表示不运行
	AdaptiveGrid   bool    // TAHB=1：由瞬态历史插值得到初值
	VoltageLimiter bool    // 器件电压限幅
	DebugLevel     int
	TestMode       bool // 跳过牛顿求解，直接使用初值
	SaveICData     bool // 初值瞬态输出到 hb_ic 类别
	Policy         Policy
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{NumHarmonics: defaultNumFreq, AdaptiveGrid: true}
}

// Apply 解析 HBINT 选项块，未识别的键给出警告
func (c *Config) Apply(ob types.OptionBlock, log logrus.FieldLogger) error {
	for _, p := range ob.Params {
		var err error
		switch p.Tag {
		case "NUMFREQ":
			c.NumHarmonics, err = p.Int()
		case "STARTUPPERIODS":
			c.StartupPeriods, err = p.Int()
		case "SAVEICDATA":
			// 出现即启用，值不参与
			c.SaveICData = true
		case "TEST":
			c.TestMode, err = p.Bool()
		case "DEBUGLEVEL":
			c.DebugLevel, err = p.Int()
		case "TAHB":
			var v int
			v, err = p.Int()
			c.AdaptiveGrid = v == 1
		case "VOLTLIM":
			c.VoltageLimiter, err = p.Bool()
		case "FREQ":
			var f float64
			if f, err = p.Float(); err == nil {
				if f <= 0 {
					err = fmt.Errorf("频率必须大于0: %g", f)
				} else {
					c.Period = 1 / f
				}
			}
		case "PERIOD":
			c.Period, err = p.Float()
		case "POLICY":
			switch strings.ToUpper(p.Value) {
			case "LENIENT":
				c.Policy = PolicyLenient
			case "STRICT":
				c.Policy = PolicyStrict
			default:
				err = fmt.Errorf("未知策略 %q", p.Value)
			}
		default:
			log.WithField("option", p.Tag).Warn("Unrecognized HBINT option")
		}
		if err != nil {
			return fmt.Errorf("HBINT %s: %w", p.Tag, err)
		}
	}
	return nil
}

// normalize 校验配置；偶数 N 增加到 N+1
func (c *Config) normalize(log logrus.FieldLogger) error {
	if c.NumHarmonics < 1 {
		return fmt.Errorf("NUMFREQ 必须至少为1: %d", c.NumHarmonics)
	}
	if c.NumHarmonics%2 == 0 {
		log.WithField("numfreq", c.NumHarmonics).Warn("NUMFREQ 必须为奇数，已增加1")
		c.NumHarmonics++
	}
	if !(c.Period > 0) {
		return fmt.Errorf("基波周期必须大于0: %g", c.Period)
	}
	if c.StartupPeriods < 0 {
		return fmt.Errorf("STARTUPPERIODS 不能为负: %d", c.StartupPeriods)
	}
	return nil
}
