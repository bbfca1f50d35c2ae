package main

import (
	"context"
	"fmt"
	randv2 "math/rand/v2"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/benz9527/xtree/lib/infra"
	"github.com/benz9527/xtree/lib/tree"
	"github.com/benz9527/xtree/lib/xlog"
	"github.com/benz9527/xtree/observability"
)

const stressKeysPerTask = 1000

type Runner struct {
	cfg      *Config
	logger   xlog.XLogger
	exporter *observability.MetricsExporter
}

func NewRunner(cfg *Config, logger xlog.XLogger, exporter *observability.MetricsExporter) *Runner {
	return &Runner{
		cfg:      cfg,
		logger:   logger,
		exporter: exporter,
	}
}

// Run executes the scenario, the randomized harness and the stress run
// in order. Every failed step is reported, a later step still runs.
func (r *Runner) Run(ctx context.Context) error {
	if err := observability.InitAppStats(
		observability.WithMeterProvider(r.exporter.MeterProvider()),
	); err != nil {
		r.logger.ErrorStack(infra.WrapErrorStack(err), "app stats init failed")
	}

	var err error
	steps := []struct {
		name string
		fn   func(ctx context.Context) error
	}{
		{"scenario", r.runScenario},
		{"random", r.runRandom},
		{"stress", r.runStress},
	}
	for _, step := range steps {
		if ctx.Err() != nil {
			return infra.AppendErrorStack(err, ctx.Err())
		}
		if e := step.fn(ctx); e != nil {
			r.logger.ErrorStack(e, "rbtree run failed", zap.String("step", step.name))
			err = infra.AppendErrorStack(err, e)
			continue
		}
		r.logger.Info("rbtree run passed", zap.String("step", step.name))
	}
	return err
}

func (r *Runner) newStats(t tree.RBTree[int], name string) func() {
	stats, err := observability.NewRBTreeStats[int](t,
		observability.WithMeterProvider(r.exporter.MeterProvider()),
		observability.WithStatsName(name),
	)
	if err != nil {
		r.logger.ErrorStack(err, "rbtree stats register failed", zap.String("tree", name))
		return func() {}
	}
	return func() {
		if err := stats.Unregister(); err != nil {
			r.logger.Error(err, "rbtree stats unregister failed", zap.String("tree", name))
		}
	}
}

func (r *Runner) dump(t tree.RBTree[int], msg string) {
	sb := &strings.Builder{}
	if err := tree.Dump[int](sb, t); err != nil {
		r.logger.Error(err, "rbtree dump failed")
		return
	}
	r.logger.Debug(msg, zap.String("tree", sb.String()))
}

func inorderKeys(t tree.RBTree[int]) []int {
	keys := make([]int, 0, t.Len())
	t.Foreach(func(idx int64, color tree.RBColor, key int) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

func validateStep(t tree.RBTree[int], op string, key int) error {
	if err := tree.Validate[int](t); err != nil {
		return infra.WrapErrorStackWithMessage(err, fmt.Sprintf("%s %d", op, key))
	}
	return nil
}

func (r *Runner) runScenario(ctx context.Context) error {
	t := tree.NewSyncRBTree[int](tree.NewRBTree[int]())
	defer t.Release()
	unregister := r.newStats(t, "scenario")
	defer unregister()

	for _, key := range r.cfg.Keys {
		t.Insert(key)
		if err := validateStep(t, "insert", key); err != nil {
			return err
		}
	}
	r.logger.Info("rbtree keys inserted",
		zap.Ints("keys", r.cfg.Keys),
		zap.Ints("inorder", inorderKeys(t)),
		zap.Int("height", tree.Height[int](t)),
		zap.Int("blackHeight", tree.BlackHeight[int](t)),
	)
	r.dump(t, "rbtree after insertion")

	for _, key := range r.cfg.Delete {
		t.Delete(key)
		if err := validateStep(t, "delete", key); err != nil {
			return err
		}
		if t.Contains(key) {
			return infra.NewErrorStack(fmt.Sprintf("deleted key %d is still present", key))
		}
	}
	if len(r.cfg.Delete) > 0 {
		r.logger.Info("rbtree keys deleted",
			zap.Ints("keys", r.cfg.Delete),
			zap.Ints("inorder", inorderKeys(t)),
		)
		r.dump(t, "rbtree after deletion")
	}
	return nil
}

// runRandom inserts random keys then deletes them one by one,
// the tree is validated after every single operation.
func (r *Runner) runRandom(ctx context.Context) error {
	if r.cfg.Random <= 0 {
		return nil
	}
	keys := make([]int, 0, r.cfg.Random)
	for i := 0; i < r.cfg.Random; i++ {
		keys = append(keys, randv2.IntN(r.cfg.RandomMax))
	}
	keys = lo.Uniq(keys)

	t := tree.NewSyncRBTree[int](tree.NewRBTree[int]())
	defer t.Release()
	unregister := r.newStats(t, "random")
	defer unregister()

	for _, key := range keys {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !t.Insert(key) {
			return infra.NewErrorStack(fmt.Sprintf("unique key %d is not inserted", key))
		}
		if err := validateStep(t, "insert", key); err != nil {
			return err
		}
	}
	r.logger.Info("rbtree random keys inserted",
		zap.Int("total", len(keys)),
		zap.Int("height", tree.Height[int](t)),
		zap.Int("blackHeight", tree.BlackHeight[int](t)),
	)

	for _, key := range keys {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !t.Delete(key) {
			return infra.NewErrorStack(fmt.Sprintf("present key %d is not deleted", key))
		}
		if err := validateStep(t, "delete", key); err != nil {
			return err
		}
	}
	if t.Root() != nil || t.Len() != 0 {
		return infra.NewErrorStack(fmt.Sprintf("rbtree is not empty, %d keys left", t.Len()))
	}
	return nil
}

// runStress writes disjoint key ranges into a synchronized tree
// from an ants pool, then validates the tree.
func (r *Runner) runStress(ctx context.Context) error {
	workers := r.cfg.StressWorkers
	if workers <= 0 {
		return nil
	}

	t := tree.NewSyncRBTree[int](tree.NewRBTree[int]())
	defer t.Release()
	unregister := r.newStats(t, "stress")
	defer unregister()

	pool, err := ants.NewPool(workers, ants.WithLogger(xlog.NewAntsXLogger(r.logger)))
	if err != nil {
		return infra.WrapErrorStackWithMessage(err, "stress pool")
	}
	defer pool.Release()

	var (
		wg       sync.WaitGroup
		inserted atomic.Int64
		deleted  atomic.Int64
		submit   error
	)
	for task := 0; task < workers*4; task++ {
		if ctx.Err() != nil {
			submit = ctx.Err()
			break
		}
		base := task * stressKeysPerTask
		wg.Add(1)
		if e := pool.Submit(func() {
			defer wg.Done()
			for i := 0; i < stressKeysPerTask; i++ {
				if t.Insert(base + i) {
					inserted.Add(1)
				}
				if i&0x1 == 0 && t.Delete(base+i) {
					deleted.Add(1)
				}
			}
		}); e != nil {
			wg.Done()
			submit = e
			break
		}
	}
	wg.Wait()
	if submit != nil {
		return infra.WrapErrorStackWithMessage(submit, "stress submit")
	}

	if err := tree.Validate[int](t); err != nil {
		return infra.WrapErrorStackWithMessage(err, "stress")
	}
	if expected := inserted.Load() - deleted.Load(); t.Len() != expected {
		return infra.NewErrorStack(fmt.Sprintf("stress rbtree size %d, expected %d", t.Len(), expected))
	}
	r.logger.Info("rbtree stress finished",
		zap.Int("workers", workers),
		zap.Int64("inserted", inserted.Load()),
		zap.Int64("deleted", deleted.Load()),
		zap.Int("height", tree.Height[int](t)),
	)
	return nil
}
