package xlog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap/zapcore"
)

type fxTestConfig struct {
	name string
}

type fxTestService struct {
	cfg *fxTestConfig
}

func newFxTestService(cfg *fxTestConfig) *fxTestService {
	return &fxTestService{cfg: cfg}
}

func TestFxXLogger_AppLifecycle(t *testing.T) {
	parentLogger, w := newTestXLogger(t, LogLevelDebug)
	started := false
	app := fxtest.New(t,
		fx.WithLogger(func() fxevent.Logger {
			return NewFxXLogger(parentLogger)
		}),
		fx.Supply(&fxTestConfig{name: "rbtree"}),
		fx.Provide(newFxTestService),
		fx.Invoke(func(lc fx.Lifecycle, svc *fxTestService) {
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					started = svc.cfg.name == "rbtree"
					return nil
				},
				OnStop: func(context.Context) error {
					return nil
				},
			})
		}),
	)
	app.RequireStart()
	app.RequireStop()
	require.True(t, started)
	require.NoError(t, parentLogger.Sync())

	out := w.String()
	for _, msg := range []string{
		"LOGGER Initialized custom logger",
		"SUPPLY type only",
		"PROVIDE rtype from constructor",
		"INVOKING",
		"HOOK OnStart successfully",
		"RUNNING",
		"HOOK OnStop successfully",
	} {
		require.Contains(t, out, `"msg":"`+msg+`"`)
	}
	require.Contains(t, out, `"component":"Fx"`)
	require.Contains(t, out, `"rtype":"*xlog.fxTestService"`)
}

func TestFxXLogger_StartFailed(t *testing.T) {
	parentLogger, w := newTestXLogger(t, LogLevelInfo)
	app := fx.New(
		fx.WithLogger(func() fxevent.Logger {
			return NewFxXLogger(parentLogger)
		}),
		fx.Invoke(func(lc fx.Lifecycle) {
			lc.Append(fx.StartHook(func() error {
				return errors.New("listen failed")
			}))
		}),
	)
	require.NoError(t, app.Err())
	require.Error(t, app.Start(context.Background()))
	require.NoError(t, parentLogger.Sync())

	out := w.String()
	require.Contains(t, out, `"msg":"HOOK OnStart failed"`)
	require.Contains(t, out, `"msg":"Start failed, rolling back"`)
	require.Contains(t, out, "listen failed")
	require.NotContains(t, out, `"msg":"RUNNING"`)
}

func TestFxXLogger_InvokeFailed(t *testing.T) {
	parentLogger, w := newTestXLogger(t, LogLevelInfo)
	app := fx.New(
		fx.WithLogger(func() fxevent.Logger {
			return NewFxXLogger(parentLogger)
		}),
		fx.Invoke(func(*fxTestService) {}),
	)
	require.Error(t, app.Err())
	require.NoError(t, parentLogger.Sync())
	require.Contains(t, w.String(), `"msg":"Error fx.Invoke"`)
}

func TestFxXLogger_FailedEvents(t *testing.T) {
	testcases := []struct {
		event fxevent.Event
		msg   string
	}{
		{&fxevent.Supplied{TypeName: "*main.Config", Err: errors.New("supply")}, "SUPPLY ERROR"},
		{&fxevent.Provided{ConstructorName: "main.NewRunner()", Err: errors.New("provide")}, "Error after options were applied"},
		{&fxevent.OnStopExecuted{FunctionName: "srv.Shutdown", Err: errors.New("stop hook")}, "HOOK OnStop failed"},
		{&fxevent.Stopped{Err: errors.New("stopped")}, "Failed to stop cleanly"},
		{&fxevent.RolledBack{Err: errors.New("rollback")}, "Couldn't roll back cleanly"},
		{&fxevent.Started{Err: errors.New("start")}, "Failed to start"},
		{&fxevent.LoggerInitialized{Err: errors.New("logger")}, "Failed to initialize custom logger"},
	}
	parentLogger, w := newTestXLogger(t, LogLevelError)
	logger := NewFxXLogger(parentLogger)
	for _, tc := range testcases {
		t.Run(tc.msg, func(tt *testing.T) {
			w.Reset()
			logger.LogEvent(tc.event)
			require.NoError(tt, parentLogger.Sync())
			require.Contains(tt, w.String(), `"msg":"`+tc.msg+`"`)
			require.Contains(tt, w.String(), `"lvl":"ERROR"`)
		})
	}
}

func TestFxXLogger_FollowParentLevel(t *testing.T) {
	var nilLogger *FxXLogger
	nilLogger.LogEvent(&fxevent.Started{})

	parentLogger, w := newTestXLogger(t, LogLevelInfo)
	logger := NewFxXLogger(parentLogger)
	logger.LogEvent(&fxevent.Started{})
	require.NoError(t, parentLogger.Sync())
	require.Empty(t, w.String())

	parentLogger.IncreaseLogLevel(zapcore.DebugLevel)
	logger.LogEvent(&fxevent.Started{})
	require.NoError(t, parentLogger.Sync())
	require.Contains(t, w.String(), `"msg":"RUNNING"`)
}
