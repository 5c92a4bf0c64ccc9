package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"hbcircuit"
	"hbcircuit/logging"
	"hbcircuit/observability"
	"hbcircuit/output"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "hbcircuit <netlist>",
	Short: "谐波平衡稳态电路仿真",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		return run(cmd.Context(), args[0])
	},
	SilenceUsage: true,
}

var defaultConfigCmd = &cobra.Command{
	Use:   "default-config",
	Short: "输出默认配置（YAML）",
	RunE: func(cmd *cobra.Command, args []string) error {
		setDefaults()
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(viper.AllSettings()); err != nil {
			return err
		}
		return enc.Close()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "配置文件 (yaml)")
	flags.String("log-level", "", "日志级别 debug|info|warn|error")
	flags.String("log-format", "", "日志格式 text|json")
	flags.Bool("verbose", false, "详细输出")
	flags.String("out-dir", "", "输出目录")
	flags.String("probe", "", "绘图的未知量，如 out 或 I(V1)")
	flags.Int("numfreq", 0, "覆盖 HBINT NUMFREQ")
	flags.Int("startup-periods", -1, "覆盖 HBINT STARTUPPERIODS")
	flags.String("policy", "", "初始化失败策略 lenient|strict")
	flags.Bool("trace", false, "输出 OpenTelemetry span 到标准输出")

	for key, flag := range map[string]string{
		"log.level":          "log-level",
		"log.format":         "log-format",
		"log.verbose":        "verbose",
		"output.dir":         "out-dir",
		"output.probe":       "probe",
		"hb.numfreq":         "numfreq",
		"hb.startup_periods": "startup-periods",
		"hb.policy":          "policy",
		"tracing.enabled":    "trace",
	} {
		viper.BindPFlag(key, flags.Lookup(flag))
	}
	viper.SetEnvPrefix("HBCIRCUIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(defaultConfigCmd)
}

func setDefaults() {
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
	viper.SetDefault("log.verbose", false)
	viper.SetDefault("output.dir", ".")
	viper.SetDefault("output.html", true)
	viper.SetDefault("output.png", true)
	viper.SetDefault("output.summary", true)
	viper.SetDefault("output.metrics", true)
	viper.SetDefault("output.record", true)
	viper.SetDefault("output.probe", "")
	viper.SetDefault("hb.numfreq", 0)
	viper.SetDefault("hb.startup_periods", -1)
	viper.SetDefault("hb.policy", "")
	viper.SetDefault("tracing.enabled", false)
	viper.SetDefault("tracing.service_name", "hbcircuit")
	viper.SetDefault("tracing.sample_ratio", 1.0)
}

func loadConfig() error {
	setDefaults()
	if configPath == "" {
		return nil
	}
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("读取配置失败: %w", err)
	}
	return nil
}

func run(ctx context.Context, netlist string) error {
	log := logging.New(logging.Config{
		Level:   viper.GetString("log.level"),
		Format:  viper.GetString("log.format"),
		Verbose: viper.GetBool("log.verbose"),
	})

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     viper.GetBool("tracing.enabled"),
		ServiceName: viper.GetString("tracing.service_name"),
		SampleRatio: viper.GetFloat64("tracing.sample_ratio"),
	}, log)
	if err != nil {
		return err
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdown, log)

	nl, err := hbcircuit.Load(netlist)
	if err != nil {
		return err
	}
	applyOverrides(nl)
	cfg, err := nl.HBConfig(log)
	if err != nil {
		return err
	}
	logging.LevelForDebug(log, cfg.DebugLevel)

	reg := prometheus.NewRegistry()
	metrics, err := observability.NewHBCollector(reg)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"netlist": netlist, "title": nl.Title}).Info("开始仿真")
	res, simErr := nl.Simulate(ctx, hbcircuit.Options{
		Log:     log,
		Tracer:  otel.Tracer(observability.TracerName),
		Metrics: metrics,
		Record:  viper.GetBool("output.record"),
	})

	dir := viper.GetString("output.dir")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if viper.GetBool("output.metrics") {
		if err := metrics.WriteTextfile(filepath.Join(dir, "hb.prom")); err != nil {
			log.WithError(err).Warn("写出指标失败")
		}
	}
	if simErr != nil {
		return simErr
	}
	return writeOutputs(ctx, dir, res, log)
}

// applyOverrides 命令行/配置覆盖网表中的 HBINT 选项
func applyOverrides(nl *hbcircuit.Netlist) {
	if n := viper.GetInt("hb.numfreq"); n > 0 {
		nl.HBInt.Set("NUMFREQ", fmt.Sprint(n))
	}
	if s := viper.GetInt("hb.startup_periods"); s >= 0 {
		nl.HBInt.Set("STARTUPPERIODS", fmt.Sprint(s))
	}
	if p := viper.GetString("hb.policy"); p != "" {
		nl.HBInt.Set("POLICY", p)
	}
}

// writeOutputs 并发写出 HTML 图表、PNG 与 YAML 摘要
func writeOutputs(ctx context.Context, dir string, res *hbcircuit.Result, log logrus.FieldLogger) error {
	probe := len(res.Steady.Names) - 1
	if name := viper.GetString("output.probe"); name != "" {
		i, ok := res.Node(name)
		if !ok {
			return fmt.Errorf("未知的绘图未知量 %s", name)
		}
		probe = i
	} else {
		for i, n := range res.Steady.Names {
			if strings.HasPrefix(n, "V(") {
				probe = i
			}
		}
	}

	g, _ := errgroup.WithContext(ctx)
	write := func(name string, fn func(f *os.File) error) {
		g.Go(func() error {
			path := filepath.Join(dir, name)
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			if err := fn(f); err != nil {
				f.Close()
				return fmt.Errorf("%s: %w", path, err)
			}
			log.WithField("file", path).Info("输出完成")
			return f.Close()
		})
	}
	if viper.GetBool("output.html") {
		write("hb.html", func(f *os.File) error { return output.RenderCharts(f, res.Records, res.Steady) })
	}
	if viper.GetBool("output.png") {
		write("waveform.png", func(f *os.File) error { return output.WaveformPNG(f, res.Steady, probe) })
		write("spectrum.png", func(f *os.File) error { return output.SpectrumPNG(f, res.Steady, probe) })
	}
	if viper.GetBool("output.summary") {
		write("summary.yaml", func(f *os.File) error { return output.WriteSummary(f, res.Steady, res.Stats) })
	}
	return g.Wait()
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
