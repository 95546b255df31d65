package script

import (
	"strings"

	"github.com/dop251/goja"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// registerConsole binds console.log, console.warn and console.error to the
// logger.
func registerConsole(vm *goja.Runtime, log *zap.Logger) {
	console := vm.NewObject()
	for name, level := range map[string]zapcore.Level{
		"log":   zapcore.InfoLevel,
		"info":  zapcore.InfoLevel,
		"debug": zapcore.DebugLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
	} {
		_ = console.Set(name, func(call goja.FunctionCall) goja.Value {
			if ce := log.Check(level, formatArgs(call.Arguments)); ce != nil {
				ce.Write(zap.String("source", "console."+name))
			}
			return goja.Undefined()
		})
	}
	_ = vm.Set("console", console)
}

func formatArgs(args []goja.Value) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = arg.String()
	}
	return strings.Join(parts, " ")
}
