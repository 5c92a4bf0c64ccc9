// Package hbcircuit 网表解析与谐波平衡仿真入口。
package hbcircuit

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"

	"hbcircuit/device"
	"hbcircuit/hb"
	"hbcircuit/nonlinear"
	"hbcircuit/output"
	"hbcircuit/tia"
	"hbcircuit/types"
)

// ErrNotConverged 谐波平衡分析失败
var ErrNotConverged = errors.New("谐波平衡分析未成功")

// Netlist 解析后的网表
type Netlist struct {
	Title    string
	Circuit  *device.Circuit
	Freq     float64           // .HB 基波频率，0 表示取源频率
	HBInt    types.OptionBlock // .OPTIONS HBINT
	LinSolHB types.OptionBlock // .OPTIONS LINSOL-HB
	LinSol   *types.OptionBlock
}

// Load 加载网表文件
func Load(filename string) (*Netlist, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Parse(file)
}

// Parse 解析网表，标题由 .TITLE 给出
func Parse(r io.Reader) (*Netlist, error) {
	nl := &Netlist{
		Circuit:  device.NewCircuit(),
		HBInt:    types.NewOptionBlock("HBINT"),
		LinSolHB: types.NewOptionBlock("LINSOL-HB"),
	}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '*' || line[0] == '#' {
			continue
		}
		if i := strings.Index(line, ";"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		fields := strings.Fields(line)
		var err error
		if fields[0][0] == '.' {
			err = nl.command(fields)
		} else {
			err = nl.element(fields)
		}
		if errors.Is(err, errEnd) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("第 %d 行 %q: %w", lineNo, line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(nl.Circuit.Devices()) == 0 {
		return nil, errors.New("网表中没有元件")
	}
	return nl, nil
}

var errEnd = errors.New(".END")

// ------------------------------ 命令 ------------------------------

func (nl *Netlist) command(fields []string) error {
	switch strings.ToUpper(fields[0]) {
	case ".END":
		return errEnd
	case ".TITLE":
		nl.Title = strings.Join(fields[1:], " ")
	case ".HB":
		if len(fields) < 2 {
			return errors.New(".HB 缺少基波频率")
		}
		f, err := types.ParseValue(fields[1])
		if err != nil {
			return err
		}
		if f <= 0 {
			return fmt.Errorf("基波频率必须大于0: %g", f)
		}
		nl.Freq = f
	case ".OPTIONS", ".OPTION":
		if len(fields) < 2 {
			return errors.New(".OPTIONS 缺少选项块名称")
		}
		ob, err := types.ParseOptionBlock(fields[1], fields[2:])
		if err != nil {
			return err
		}
		switch ob.Name {
		case "HBINT":
			mergeInto(&nl.HBInt, ob)
		case "LINSOL-HB":
			mergeInto(&nl.LinSolHB, ob)
		case "LINSOL":
			if nl.LinSol == nil {
				nl.LinSol = &ob
			} else {
				mergeInto(nl.LinSol, ob)
			}
		default:
			return fmt.Errorf("未知选项块 %s", ob.Name)
		}
	default:
		return fmt.Errorf("未知命令 %s", fields[0])
	}
	return nil
}

func mergeInto(dst *types.OptionBlock, src types.OptionBlock) {
	for _, p := range src.Params {
		dst.Set(p.Tag, p.Value)
	}
}

// ------------------------------ 元件 ------------------------------

func (nl *Netlist) element(fields []string) error {
	if len(fields) < 3 {
		return fmt.Errorf("元件定义引脚不足")
	}
	c := nl.Circuit
	name := fields[0]
	n1, n2 := c.Node(fields[1]), c.Node(fields[2])
	rest := fields[3:]

	var (
		d   device.Device
		err error
	)
	switch strings.ToUpper(name[:1]) {
	case "R", "C", "L":
		if len(rest) < 1 {
			return fmt.Errorf("元件 %s 缺少数值", name)
		}
		v, perr := types.ParseValue(rest[0])
		if perr != nil {
			return perr
		}
		switch strings.ToUpper(name[:1]) {
		case "R":
			d, err = device.NewResistor(name, n1, n2, v)
		case "C":
			d, err = device.NewCapacitor(name, n1, n2, v)
		default:
			d, err = device.NewInductor(name, n1, n2, c.Branch(name), v)
		}
	case "D":
		p := device.DefaultDiodeParams()
		if err := diodeParams(&p, rest); err != nil {
			return err
		}
		d, err = device.NewDiode(name, n1, n2, p)
	case "V":
		w, werr := parseWaveform(rest)
		if werr != nil {
			return werr
		}
		d = device.NewVoltageSource(name, n1, n2, c.Branch(name), w)
	case "I":
		w, werr := parseWaveform(rest)
		if werr != nil {
			return werr
		}
		d = device.NewCurrentSource(name, n1, n2, w)
	case "E", "G":
		// Ename op on cp cn gain
		if len(rest) < 3 {
			return fmt.Errorf("受控源 %s 需要控制节点和增益", name)
		}
		cp, cn := c.Node(rest[0]), c.Node(rest[1])
		gain, perr := types.ParseValue(rest[2])
		if perr != nil {
			return perr
		}
		if strings.ToUpper(name[:1]) == "E" {
			d = device.NewVCVS(name, n1, n2, cp, cn, c.Branch(name), gain)
		} else {
			d = device.NewVCCS(name, n1, n2, cp, cn, gain)
		}
	default:
		return fmt.Errorf("未知元件类型 %s", name)
	}
	if err != nil {
		return err
	}
	return c.Add(d)
}

func diodeParams(p *device.DiodeParams, fields []string) error {
	ob, err := types.ParseOptionBlock("D", fields)
	if err != nil {
		return err
	}
	for _, kv := range ob.Params {
		v, err := kv.Float()
		if err != nil {
			return err
		}
		switch kv.Tag {
		case "IS":
			p.IS = v
		case "N":
			p.N = v
		case "CJO":
			p.CJO = v
		default:
			return fmt.Errorf("未知二极管参数 %s", kv.Tag)
		}
	}
	return nil
}

// parseWaveform 解析 "DC v"、"v" 或 "SIN(vo va freq)"
func parseWaveform(fields []string) (device.Waveform, error) {
	src := strings.NewReplacer("(", " ", ")", " ").Replace(strings.Join(fields, " "))
	tok := strings.Fields(src)
	if len(tok) == 0 {
		return device.Waveform{}, errors.New("源缺少数值")
	}
	switch strings.ToUpper(tok[0]) {
	case "SIN":
		if len(tok) < 4 {
			return device.Waveform{}, errors.New("SIN 需要 vo va freq")
		}
		var v [3]float64
		for i := range v {
			f, err := types.ParseValue(tok[i+1])
			if err != nil {
				return device.Waveform{}, err
			}
			v[i] = f
		}
		return device.Waveform{Offset: v[0], Amplitude: v[1], Freq: v[2]}, nil
	case "DC":
		tok = tok[1:]
		if len(tok) == 0 {
			return device.Waveform{}, errors.New("DC 缺少数值")
		}
	}
	f, err := types.ParseValue(tok[0])
	if err != nil {
		return device.Waveform{}, err
	}
	return device.Waveform{Offset: f}, nil
}

// ------------------------------ 仿真 ------------------------------

// Options 仿真选项
type Options struct {
	Log       logrus.FieldLogger
	Tracer    trace.Tracer
	Metrics   hb.PhaseObserver
	Transient *tia.Params // nil 使用默认瞬态参数
	Record    bool        // 记录初值瞬态的逐步输出
}

// Result 仿真结果
type Result struct {
	Steady  *output.Steady
	Output  hb.Output
	Stats   types.Stats
	Records *output.Manager
	Phases  []hb.Phase
}

// HBConfig 由 .HB 频率（缺省取第一个周期源）与 HBINT 选项块得到谐波平衡配置
func (nl *Netlist) HBConfig(log logrus.FieldLogger) (hb.Config, error) {
	cfg := hb.DefaultConfig()
	switch {
	case nl.Freq > 0:
		cfg.Period = 1 / nl.Freq
	case nl.Circuit.Fundamental() > 0:
		cfg.Period = 1 / nl.Circuit.Fundamental()
	}
	if err := cfg.Apply(nl.HBInt, log); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Simulate 对网表执行谐波平衡分析
func (nl *Netlist) Simulate(ctx context.Context, opts Options) (*Result, error) {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	c := nl.Circuit
	cfg, err := nl.HBConfig(log)
	if err != nil {
		return nil, err
	}

	names := c.UnknownNames()
	ds := tia.NewDataStore(c.SolutionSize(), c.StateSize(), c.StoreSize())
	nls := nonlinear.NewManager(log)
	res := &Result{}
	var rec tia.Recorder
	var router hb.OutputRouter
	if opts.Record {
		res.Records = output.NewManager(names)
		rec, router = res.Records, res.Records
	}
	params := tia.DefaultParams()
	if opts.Transient != nil {
		params = *opts.Transient
	}
	hctx := &hb.Context{
		Device:   c,
		Store:    ds,
		NLS:      nls,
		Analyses: hb.NewAnalyses(c, ds, nls, rec, log),
		Params:   params,
		Output:   router,
		Log:      log,
		Tracer:   opts.Tracer,
		Metrics:  opts.Metrics,
	}
	h := hb.New(cfg, hctx)
	if err := h.SetHBLinSolOptions(nl.LinSolHB); err != nil {
		return nil, err
	}
	if nl.LinSol != nil {
		if err := h.SetLinSolOptions(*nl.LinSol); err != nil {
			return nil, err
		}
	}

	ok := h.Run(ctx)
	res.Stats = h.Stats()
	res.Phases = h.Phases()
	if !ok {
		return res, ErrNotConverged
	}
	out, err := h.PrepareOutput(h.Solution())
	if err != nil {
		return res, err
	}
	res.Output = out
	res.Steady = out.Steady(names)
	return res, nil
}

// Node 按名称查找未知量索引
func (r *Result) Node(name string) (int, bool) {
	if r.Steady == nil {
		return 0, false
	}
	name = strings.ToUpper(name)
	for i, n := range r.Steady.Names {
		if n == name || n == "V("+name+")" {
			return i, true
		}
	}
	return 0, false
}
