package script

import (
	"strconv"
	"strings"

	"github.com/dop251/goja"

	"vpui/pkg/ui"
)

// classListAccessor implements the DOMTokenList subset of element.classList.
type classListAccessor struct {
	ctx *domContext
	el  *ui.Element
}

func (cl *classListAccessor) Get(key string) goja.Value {
	vm := cl.ctx.vm
	e := cl.el
	switch key {
	case "length":
		return vm.ToValue(len(e.Classes()))
	case "value":
		return vm.ToValue(strings.Join(e.Classes(), " "))
	case "add":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			for _, arg := range call.Arguments {
				e.AddClass(arg.String())
			}
			return goja.Undefined()
		})
	case "remove":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			for _, arg := range call.Arguments {
				e.RemoveClass(arg.String())
			}
			return goja.Undefined()
		})
	case "toggle":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) == 0 {
				panic(vm.NewTypeError("Failed to execute 'toggle': 1 argument required"))
			}
			token := call.Arguments[0].String()
			if len(call.Arguments) > 1 {
				if call.Arguments[1].ToBoolean() {
					e.AddClass(token)
					return vm.ToValue(true)
				}
				e.RemoveClass(token)
				return vm.ToValue(false)
			}
			return vm.ToValue(e.ToggleClass(token))
		})
	case "contains":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			return vm.ToValue(e.HasClass(call.Argument(0).String()))
		})
	case "item":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			return cl.item(int(call.Argument(0).ToInteger()))
		})
	}
	if i, err := strconv.Atoi(key); err == nil {
		return cl.item(i)
	}
	return goja.Undefined()
}

func (cl *classListAccessor) item(i int) goja.Value {
	classes := cl.el.Classes()
	if i < 0 || i >= len(classes) {
		return goja.Null()
	}
	return cl.ctx.vm.ToValue(classes[i])
}

func (cl *classListAccessor) Set(string, goja.Value) bool { return false }

func (cl *classListAccessor) Has(key string) bool {
	switch key {
	case "length", "value", "add", "remove", "toggle", "contains", "item":
		return true
	}
	i, err := strconv.Atoi(key)
	return err == nil && i >= 0 && i < len(cl.el.Classes())
}

func (cl *classListAccessor) Delete(string) bool { return false }

func (cl *classListAccessor) Keys() []string {
	keys := make([]string, len(cl.el.Classes()))
	for i := range keys {
		keys[i] = strconv.Itoa(i)
	}
	return keys
}
