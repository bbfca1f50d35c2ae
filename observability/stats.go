package observability

import (
	"context"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	otelruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/benz9527/xtree/lib/infra"
	"github.com/benz9527/xtree/lib/tree"
)

const (
	meterNamePrefix = "xtree"
	defaultTreeName = "default"
)

func meterName(name string) string {
	builder := &strings.Builder{}
	builder.WriteString(meterNamePrefix)
	builder.WriteString("/")
	if name = strings.TrimSpace(name); len(name) > 0 {
		builder.WriteString(name)
	} else {
		builder.WriteString(defaultTreeName)
	}
	return builder.String()
}

type statsCfg struct {
	mp   metric.MeterProvider
	name string
}

type StatsOption func(cfg *statsCfg)

// WithMeterProvider replaces the otel global meter provider.
func WithMeterProvider(mp metric.MeterProvider) StatsOption {
	return func(cfg *statsCfg) {
		if mp != nil {
			cfg.mp = mp
		}
	}
}

// WithStatsName is the meter name suffix and the "tree" attribute value.
func WithStatsName(name string) StatsOption {
	return func(cfg *statsCfg) {
		cfg.name = name
	}
}

func newStatsCfg(opts ...StatsOption) *statsCfg {
	cfg := &statsCfg{
		name: defaultTreeName,
	}
	for _, o := range opts {
		if o != nil {
			o(cfg)
		}
	}
	if cfg.mp == nil {
		cfg.mp = otel.GetMeterProvider()
	}
	return cfg
}

// RBTreeStats observes a tree shape on every metrics collection.
type RBTreeStats interface {
	Unregister() error
}

type rbtreeStats[K any] struct {
	tree         tree.RBTree[K]
	size         metric.Int64ObservableGauge
	height       metric.Int64ObservableGauge
	blackHeight  metric.Int64ObservableGauge
	registration metric.Registration
}

func (stats *rbtreeStats[K]) observe(ctx context.Context, ob metric.Observer, attrs metric.ObserveOption) error {
	var size, height, blackHeight int64
	// One snapshot for all gauges, a synchronized tree is read locked once.
	tree.View[K](stats.tree, func(t tree.RBTree[K]) {
		size = t.Len()
		height = int64(tree.Height[K](t))
		blackHeight = int64(tree.BlackHeight[K](t))
	})
	ob.ObserveInt64(stats.size, size, attrs)
	ob.ObserveInt64(stats.height, height, attrs)
	ob.ObserveInt64(stats.blackHeight, blackHeight, attrs)
	return nil
}

func (stats *rbtreeStats[K]) Unregister() error {
	if stats == nil || stats.registration == nil {
		return nil
	}
	return stats.registration.Unregister()
}

// NewRBTreeStats registers the size, height and black height gauges of the tree.
// A black height of -1 reports a black violation.
// Only a tree built by tree.NewSyncRBTree is accepted.
func NewRBTreeStats[K any](t tree.RBTree[K], opts ...StatsOption) (RBTreeStats, error) {
	if t == nil {
		return nil, infra.NewErrorStack("[observability] nil rbtree to observe")
	}
	// The gauges are read by the exporter goroutine.
	if !tree.IsSyncRBTree[K](t) {
		return nil, infra.NewErrorStack("[observability] rbtree to observe is not synchronized")
	}
	cfg := newStatsCfg(opts...)
	meter := cfg.mp.Meter(
		meterName(cfg.name),
		metric.WithInstrumentationVersion(otelruntime.Version()),
	)
	stats := &rbtreeStats[K]{
		tree: t,
		size: lo.Must[metric.Int64ObservableGauge](meter.Int64ObservableGauge(
			"xtree.rbtree.size",
			metric.WithDescription(`The number of keys in the rbtree.`),
			metric.WithUnit("{key}"),
		)),
		height: lo.Must[metric.Int64ObservableGauge](meter.Int64ObservableGauge(
			"xtree.rbtree.height",
			metric.WithDescription(`The nodes' number of the longest root to leaf path.`),
			metric.WithUnit("{node}"),
		)),
		blackHeight: lo.Must[metric.Int64ObservableGauge](meter.Int64ObservableGauge(
			"xtree.rbtree.black_height",
			metric.WithDescription(`The black nodes' number from the root (excluded) to any leaf.`),
			metric.WithUnit("{node}"),
		)),
	}
	attrs := metric.WithAttributes(attribute.String("tree", cfg.name))
	reg, err := meter.RegisterCallback(func(ctx context.Context, ob metric.Observer) error {
		return stats.observe(ctx, ob, attrs)
	}, stats.size, stats.height, stats.blackHeight)
	if err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "[observability] register rbtree gauges")
	}
	stats.registration = reg
	return stats, nil
}

var appStatsOnce sync.Once

// InitAppStats registers the process gauges and starts the otel runtime
// instrumentation. Only the first call takes effect.
func InitAppStats(opts ...StatsOption) (err error) {
	appStatsOnce.Do(func() {
		cfg := newStatsCfg(opts...)
		meter := cfg.mp.Meter(
			meterName(cfg.name),
			metric.WithInstrumentationVersion(otelruntime.Version()),
		)
		_ = lo.Must[metric.Int64ObservableUpDownCounter](meter.Int64ObservableUpDownCounter(
			"xtree.app.goroutines",
			metric.WithDescription(`The application goroutines' info.`),
			metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
				ob.Observe(int64(runtime.NumGoroutine()))
				return nil
			}),
		))
		_ = lo.Must[metric.Int64ObservableUpDownCounter](meter.Int64ObservableUpDownCounter(
			"xtree.app.processes",
			metric.WithDescription(`The application processes' info.`),
			metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
				ob.Observe(int64(runtime.GOMAXPROCS(0)))
				return nil
			}),
		))
		err = otelruntime.Start(
			otelruntime.WithMeterProvider(cfg.mp),
			otelruntime.WithMinimumReadMemStatsInterval(time.Second),
		)
	})
	return err
}
