package logger

import (
	"strings"

	"go.uber.org/fx/fxevent"
)

// FxLoggerAdapter routes fx lifecycle events into this package's logger.
// Successful wiring events go to DEBUG; failures go to ERROR.
type FxLoggerAdapter struct{}

// NewFxLoggerAdapter creates a new instance of FxLoggerAdapter.
func NewFxLoggerAdapter() fxevent.Logger {
	return &FxLoggerAdapter{}
}

// LogEvent logs events from Fx.
func (l *FxLoggerAdapter) LogEvent(event fxevent.Event) {
	switch e := event.(type) {
	case *fxevent.OnStartExecuted:
		hookEvent("OnStart", e.FunctionName, e.Err)
	case *fxevent.OnStopExecuted:
		hookEvent("OnStop", e.FunctionName, e.Err)
	case *fxevent.Supplied:
		failOrDebug(e.Err, "fx: supply failed", "fx: supplied %s", e.TypeName)
	case *fxevent.Provided:
		if e.Err != nil {
			Errorf("fx: provide failed: %v", e.Err)
			return
		}
		Debugf("fx: provided %s", strings.Join(e.OutputTypeNames, ", "))
	case *fxevent.Invoked:
		failOrDebug(e.Err, "fx: invoke failed", "fx: invoked %s", shortFuncName(e.FunctionName))
	case *fxevent.RollingBack:
		Errorf("fx: start failed, rolling back: %v", e.StartErr)
	case *fxevent.Started:
		failOrDebug(e.Err, "fx: start failed", "fx: application started")
	case *fxevent.Stopped:
		failOrDebug(e.Err, "fx: stop failed", "fx: application stopped")
	case *fxevent.LoggerInitialized:
		failOrDebug(e.Err, "fx: custom logger failed", "fx: logger %s installed", e.ConstructorName)
	}
}

func hookEvent(kind, funcName string, err error) {
	if err != nil {
		Errorf("fx: %s hook %s failed: %v", kind, shortFuncName(funcName), err)
		return
	}
	Debugf("fx: %s hook %s done", kind, shortFuncName(funcName))
}

func failOrDebug(err error, failMsg, okFormat string, v ...interface{}) {
	if err != nil {
		Errorf("%s: %v", failMsg, err)
		return
	}
	Debugf(okFormat, v...)
}

// shortFuncName strips closure suffixes such as ".func1" from a function name reported by fx.
func shortFuncName(funcName string) string {
	if idx := strings.LastIndex(funcName, ".func"); idx != -1 {
		return funcName[:idx]
	}
	return funcName
}
