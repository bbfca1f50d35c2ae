package main

import (
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/benz9527/xtree/lib/infra"
	"github.com/benz9527/xtree/lib/xlog"
)

type MetricsMode string

const (
	MetricsNone       MetricsMode = "none"
	MetricsStdout     MetricsMode = "stdout"
	MetricsPrometheus MetricsMode = "prometheus"
)

const (
	envLogLevel      = "XLOG_LVL"
	envKeys          = "XTREE_KEYS"
	envDelete        = "XTREE_DELETE"
	envRandom        = "XTREE_RANDOM"
	envRandomMax     = "XTREE_RANDOM_MAX"
	envStressWorkers = "XTREE_STRESS_WORKERS"
	envMetrics       = "XTREE_METRICS"
	envMetricsAddr   = "XTREE_METRICS_ADDR"
)

var (
	defaultKeys   = []int{12, 7, 13, 21, 15, 2, 4, 33, 1, 27, 17}
	defaultDelete = []int{12}
)

type Config struct {
	LogLevel      xlog.LogLevel
	Keys          []int
	Delete        []int
	Random        int
	RandomMax     int
	StressWorkers int
	Metrics       MetricsMode
	MetricsAddr   string
}

func defaultConfig() *Config {
	return &Config{
		LogLevel:      xlog.LogLevelDebug,
		Keys:          slices.Clone(defaultKeys),
		Delete:        slices.Clone(defaultDelete),
		Random:        100,
		RandomMax:     10_000,
		StressWorkers: 0,
		Metrics:       MetricsNone,
		MetricsAddr:   ":9464",
	}
}

// LoadConfig reads the driver config from the environment.
// An absent or blank variable keeps its default value.
// All the malformed variables are reported together.
func LoadConfig(getenv func(key string) string) (*Config, error) {
	cfg := defaultConfig()
	if getenv == nil {
		return cfg, nil
	}

	var err error
	lookup := func(key string) (string, bool) {
		v := strings.TrimSpace(getenv(key))
		return v, len(v) > 0
	}
	parseInts := func(key string, dst *[]int) {
		v, ok := lookup(key)
		if !ok {
			return
		}
		ints, e := parseIntList(v)
		if e != nil {
			err = infra.AppendErrorStack(err, infra.WrapErrorStackWithMessage(e, key))
			return
		}
		*dst = ints
	}
	parseInt := func(key string, dst *int, lowest int) {
		v, ok := lookup(key)
		if !ok {
			return
		}
		i, e := strconv.Atoi(v)
		if e != nil {
			err = infra.AppendErrorStack(err, infra.WrapErrorStackWithMessage(e, key))
			return
		}
		if i < lowest {
			err = infra.AppendErrorStack(err, infra.NewErrorStack(key+" must not be less than "+strconv.Itoa(lowest)))
			return
		}
		*dst = i
	}

	if v, ok := lookup(envLogLevel); ok {
		lvl := xlog.LogLevel(strings.ToUpper(v))
		if !lo.Contains([]xlog.LogLevel{xlog.LogLevelDebug, xlog.LogLevelInfo, xlog.LogLevelWarn, xlog.LogLevelError}, lvl) {
			err = infra.AppendErrorStack(err, infra.NewErrorStack("unknown "+envLogLevel+" "+v))
		} else {
			cfg.LogLevel = lvl
		}
	}
	parseInts(envKeys, &cfg.Keys)
	parseInts(envDelete, &cfg.Delete)
	parseInt(envRandom, &cfg.Random, 0)
	parseInt(envRandomMax, &cfg.RandomMax, 1)
	parseInt(envStressWorkers, &cfg.StressWorkers, 0)
	if v, ok := lookup(envMetrics); ok {
		mode := MetricsMode(strings.ToLower(v))
		if !lo.Contains([]MetricsMode{MetricsNone, MetricsStdout, MetricsPrometheus}, mode) {
			err = infra.AppendErrorStack(err, infra.NewErrorStack("unknown "+envMetrics+" "+v))
		} else {
			cfg.Metrics = mode
		}
	}
	if v, ok := lookup(envMetricsAddr); ok {
		cfg.MetricsAddr = v
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseIntList parses "1, 2,,3" into [1 2 3], the blank items are skipped.
func parseIntList(list string) ([]int, error) {
	items := lo.Compact(lo.Map(strings.Split(list, ","), func(item string, _ int) string {
		return strings.TrimSpace(item)
	}))
	res := make([]int, 0, len(items))
	for _, item := range items {
		i, err := strconv.Atoi(item)
		if err != nil {
			return nil, err
		}
		res = append(res, i)
	}
	return res, nil
}
