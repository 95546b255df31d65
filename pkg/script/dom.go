package script

import (
	"strings"

	"github.com/dop251/goja"

	"vpui/pkg/ui"
)

// domContext holds the bindings of one engine. Proxies are cached per
// element so the same JS object comes back for the same element.
type domContext struct {
	vm    *goja.Runtime
	doc   *ui.Document
	cache map[*ui.Element]*goja.Object
	nodes map[*goja.Object]*ui.Element
}

// registerDocument sets up the global document object.
func registerDocument(vm *goja.Runtime, doc *ui.Document) *domContext {
	ctx := &domContext{
		vm:    vm,
		doc:   doc,
		cache: make(map[*ui.Element]*goja.Object),
		nodes: make(map[*goja.Object]*ui.Element),
	}

	obj := vm.NewObject()
	_ = obj.Set("getElementById", func(call goja.FunctionCall) goja.Value {
		return ctx.proxyOrNull(doc.ElementByID(call.Argument(0).String()))
	})
	_ = obj.Set("querySelector", func(call goja.FunctionCall) goja.Value {
		e, err := doc.QuerySelector(call.Argument(0).String())
		if err != nil {
			panic(vm.NewGoError(err))
		}
		return ctx.proxyOrNull(e)
	})
	_ = obj.Set("querySelectorAll", func(call goja.FunctionCall) goja.Value {
		all, err := doc.QuerySelectorAll(call.Argument(0).String())
		if err != nil {
			panic(vm.NewGoError(err))
		}
		return ctx.array(all)
	})
	_ = obj.Set("createElement", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			panic(vm.NewTypeError("Failed to execute 'createElement' on 'Document': 1 argument required"))
		}
		return ctx.proxy(doc.CreateElement(strings.ToLower(call.Arguments[0].String())))
	})
	_ = obj.Set("createTextNode", func(call goja.FunctionCall) goja.Value {
		return ctx.proxy(doc.CreateText(call.Argument(0).String()))
	})
	_ = obj.Set("addStyleSheet", func(call goja.FunctionCall) goja.Value {
		if err := doc.LoadStylesheet(call.Argument(0).String()); err != nil {
			panic(vm.NewGoError(err))
		}
		return goja.Undefined()
	})
	_ = obj.Set("update", func(goja.FunctionCall) goja.Value {
		doc.Update()
		return goja.Undefined()
	})
	_ = obj.Set("body", ctx.proxy(doc.Body()))
	_ = vm.Set("document", obj)
	return ctx
}

func (ctx *domContext) proxy(e *ui.Element) *goja.Object {
	if o, ok := ctx.cache[e]; ok {
		return o
	}
	o := ctx.vm.NewDynamicObject(&elementAccessor{ctx: ctx, el: e})
	ctx.cache[e] = o
	ctx.nodes[o] = e
	return o
}

func (ctx *domContext) proxyOrNull(e *ui.Element) goja.Value {
	if e == nil {
		return goja.Null()
	}
	return ctx.proxy(e)
}

func (ctx *domContext) array(els []*ui.Element) goja.Value {
	vals := make([]any, len(els))
	for i, e := range els {
		vals[i] = ctx.proxy(e)
	}
	return ctx.vm.NewArray(vals...)
}

// unwrap returns the element behind a proxy, or nil.
func (ctx *domContext) unwrap(v goja.Value) *ui.Element {
	if v == nil || goja.IsNull(v) || goja.IsUndefined(v) {
		return nil
	}
	o, ok := v.(*goja.Object)
	if !ok {
		return nil
	}
	return ctx.nodes[o]
}

// forget drops the proxies of a removed subtree.
func (ctx *domContext) forget(e *ui.Element) {
	for _, c := range e.AllChildren() {
		ctx.forget(c)
	}
	if o, ok := ctx.cache[e]; ok {
		delete(ctx.nodes, o)
		delete(ctx.cache, e)
	}
}

// element unwraps argument i or throws a TypeError.
func (ctx *domContext) element(call goja.FunctionCall, i int, method string) *ui.Element {
	e := ctx.unwrap(call.Argument(i))
	if e == nil {
		panic(ctx.vm.NewTypeError("Failed to execute '" + method + "': parameter is not an element"))
	}
	return e
}

// check turns a Go error into a JS exception.
func (ctx *domContext) check(err error) {
	if err != nil {
		panic(ctx.vm.NewGoError(err))
	}
}

// elementAccessor implements goja.DynamicObject over a ui.Element.
type elementAccessor struct {
	ctx *domContext
	el  *ui.Element
}

var elementKeys = []string{
	"tagName", "id", "className", "textContent", "innerHTML", "classList",
	"parentElement", "children", "childElementCount", "firstElementChild", "lastElementChild",
	"getAttribute", "setAttribute", "hasAttribute", "removeAttribute",
	"appendChild", "removeChild", "remove", "append", "replaceChildren",
	"querySelector", "querySelectorAll", "matches",
	"setStyle", "setImage", "setPseudoClass",
	"scrollTop", "scrollLeft", "getBoundingClientRect",
}

func (a *elementAccessor) Get(key string) goja.Value {
	vm := a.ctx.vm
	e := a.el
	if e.Document() == nil {
		return goja.Undefined()
	}

	switch key {
	case "tagName":
		return vm.ToValue(strings.ToUpper(e.Tag()))
	case "id":
		return vm.ToValue(e.ID())
	case "className":
		return vm.ToValue(strings.Join(e.Classes(), " "))
	case "textContent":
		return vm.ToValue(textContent(e))
	case "classList":
		return vm.NewDynamicObject(&classListAccessor{ctx: a.ctx, el: e})
	case "parentElement":
		return a.ctx.proxyOrNull(e.Parent())
	case "children":
		return a.ctx.array(e.Children())
	case "childElementCount":
		return vm.ToValue(len(e.Children()))
	case "firstElementChild":
		kids := e.Children()
		if len(kids) == 0 {
			return goja.Null()
		}
		return a.ctx.proxy(kids[0])
	case "lastElementChild":
		kids := e.Children()
		if len(kids) == 0 {
			return goja.Null()
		}
		return a.ctx.proxy(kids[len(kids)-1])
	case "scrollTop":
		return vm.ToValue(e.Geometry().ScrollTop)
	case "scrollLeft":
		return vm.ToValue(e.Geometry().ScrollLeft)

	case "getAttribute":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			v, ok := e.Attribute(call.Argument(0).String())
			if !ok {
				return goja.Null()
			}
			return vm.ToValue(v)
		})
	case "hasAttribute":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			_, ok := e.Attribute(call.Argument(0).String())
			return vm.ToValue(ok)
		})
	case "setAttribute":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			a.setAttribute(call.Argument(0).String(), call.Argument(1).String())
			return goja.Undefined()
		})
	case "removeAttribute":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			e.RemoveAttribute(call.Argument(0).String())
			return goja.Undefined()
		})

	case "appendChild":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			child := a.ctx.element(call, 0, "appendChild")
			if child.Parent() != nil {
				panic(vm.NewTypeError("Failed to execute 'appendChild': the element is attached elsewhere"))
			}
			a.ctx.check(e.AppendChild(child))
			return a.ctx.proxy(child)
		})
	case "append":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			for _, arg := range call.Arguments {
				child := a.ctx.unwrap(arg)
				if child == nil {
					child = e.Document().CreateText(arg.String())
				}
				a.ctx.check(e.AppendChild(child))
			}
			return goja.Undefined()
		})
	case "removeChild":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			child := a.ctx.element(call, 0, "removeChild")
			a.ctx.forget(child)
			a.ctx.check(e.RemoveChild(child))
			return goja.Undefined()
		})
	case "remove":
		return vm.ToValue(func(goja.FunctionCall) goja.Value {
			if e.Parent() == nil {
				return goja.Undefined()
			}
			a.ctx.forget(e)
			a.ctx.check(e.Remove())
			return goja.Undefined()
		})
	case "replaceChildren":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			a.clear()
			for i := range call.Arguments {
				a.ctx.check(e.AppendChild(a.ctx.element(call, i, "replaceChildren")))
			}
			return goja.Undefined()
		})

	case "querySelector":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			all := a.query(call.Argument(0).String())
			if len(all) == 0 {
				return goja.Null()
			}
			return a.ctx.proxy(all[0])
		})
	case "querySelectorAll":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			return a.ctx.array(a.query(call.Argument(0).String()))
		})
	case "matches":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			all, err := e.Document().QuerySelectorAll(call.Argument(0).String())
			a.ctx.check(err)
			for _, m := range all {
				if m == e {
					return vm.ToValue(true)
				}
			}
			return vm.ToValue(false)
		})

	case "setStyle":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			a.ctx.check(e.SetStyle(call.Argument(0).String()))
			return goja.Undefined()
		})
	case "setImage":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			e.SetImage(call.Argument(0).String())
			return goja.Undefined()
		})
	case "setPseudoClass":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			e.SetPseudoClass(call.Argument(0).String(), call.Argument(1).ToBoolean())
			return goja.Undefined()
		})
	case "getBoundingClientRect":
		return vm.ToValue(func(goja.FunctionCall) goja.Value {
			r := e.Geometry().Border
			o := vm.NewObject()
			for k, v := range map[string]float64{
				"x": r.X, "y": r.Y, "left": r.X, "top": r.Y,
				"width": r.Width, "height": r.Height,
				"right": r.X + r.Width, "bottom": r.Y + r.Height,
			} {
				_ = o.Set(k, v)
			}
			return o
		})
	}
	return goja.Undefined()
}

func (a *elementAccessor) Set(key string, val goja.Value) bool {
	e := a.el
	if e.Document() == nil {
		return false
	}
	switch key {
	case "id":
		e.SetID(val.String())
	case "className":
		a.setAttribute("class", val.String())
	case "textContent":
		a.clear()
		e.SetText(val.String())
	case "innerHTML":
		a.clear()
		e.SetText("")
		a.ctx.check(ui.BuildHTML(e.Document(), e, strings.NewReader(val.String())))
	case "scrollTop":
		e.SetScrollTop(val.ToFloat())
	case "scrollLeft":
		e.SetScrollLeft(val.ToFloat())
	default:
		return false
	}
	return true
}

func (a *elementAccessor) Has(key string) bool {
	for _, k := range elementKeys {
		if k == key {
			return true
		}
	}
	return false
}

func (a *elementAccessor) Delete(string) bool { return false }

func (a *elementAccessor) Keys() []string { return elementKeys }

// setAttribute maps id and class onto the element's selector state.
func (a *elementAccessor) setAttribute(name, value string) {
	e := a.el
	switch name {
	case "id":
		e.SetID(value)
	case "class":
		want := strings.Fields(value)
		for _, c := range e.Classes() {
			e.RemoveClass(c)
		}
		for _, c := range want {
			e.AddClass(c)
		}
	case "style":
		a.ctx.check(e.SetStyle(value))
	case "src":
		e.SetImage(value)
		e.SetAttribute(name, value)
	default:
		e.SetAttribute(name, value)
	}
}

func (a *elementAccessor) clear() {
	for _, c := range a.el.Children() {
		a.ctx.forget(c)
		a.ctx.check(a.el.RemoveChild(c))
	}
}

// query matches selectors against the descendants of the element.
func (a *elementAccessor) query(selectors string) []*ui.Element {
	all, err := a.el.Document().QuerySelectorAll(selectors)
	a.ctx.check(err)
	var out []*ui.Element
	for _, m := range all {
		for p := m.Parent(); p != nil; p = p.Parent() {
			if p == a.el {
				out = append(out, m)
				break
			}
		}
	}
	return out
}

// textContent concatenates the text of e and its explicit descendants.
func textContent(e *ui.Element) string {
	var b strings.Builder
	b.WriteString(e.Text())
	for _, c := range e.Children() {
		b.WriteString(textContent(c))
	}
	return b.String()
}
