package scripting

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Navigator is what scripts can do to the scene stack.
type Navigator interface {
	Push(name string) error
	Pop()
	Switch(name string) error
	Exit()
}

// Engine wraps a single gopher-lua VM. Scripts register behaviours with
// behavior(name, { update = fn, admitted = fn, evicted = fn }); components
// look their behaviour up by name on every call, so a reload takes effect
// on the next step. Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
	dir string

	behaviors map[string]*lua.LTable
	nav       Navigator
	errors    int
}

// NewEngine creates a Lua engine and loads all scripts under scriptsDir.
// A missing directory is not an error.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{
		vm:        vm,
		log:       log,
		dir:       scriptsDir,
		behaviors: make(map[string]*lua.LTable),
	}
	e.registerGlobals()

	if scriptsDir != "" {
		if err := e.loadDir(scriptsDir); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load scripts: %w", err)
		}
	}
	return e, nil
}

// loadDir loads every .lua file below dir in lexical order.
func (e *Engine) loadDir(dir string) error {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".lua" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil // skip missing dirs
		}
		return err
	}
	sort.Strings(files)
	for _, path := range files {
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

func (e *Engine) registerGlobals() {
	e.vm.SetGlobal("behavior", e.vm.NewFunction(e.luaBehavior))
	e.vm.SetGlobal("log", e.vm.NewFunction(func(L *lua.LState) int {
		e.log.Info("lua", zap.String("msg", L.CheckString(1)))
		return 0
	}))
	e.vm.SetGlobal("push_scene", e.vm.NewFunction(func(L *lua.LState) int {
		return e.navigate(L, func(n Navigator) error { return n.Push(L.CheckString(1)) })
	}))
	e.vm.SetGlobal("switch_scene", e.vm.NewFunction(func(L *lua.LState) int {
		return e.navigate(L, func(n Navigator) error { return n.Switch(L.CheckString(1)) })
	}))
	e.vm.SetGlobal("pop_scene", e.vm.NewFunction(func(L *lua.LState) int {
		return e.navigate(L, func(n Navigator) error { n.Pop(); return nil })
	}))
	e.vm.SetGlobal("exit", e.vm.NewFunction(func(L *lua.LState) int {
		return e.navigate(L, func(n Navigator) error { n.Exit(); return nil })
	}))
}

// luaBehavior implements behavior(name, table).
func (e *Engine) luaBehavior(L *lua.LState) int {
	name := L.CheckString(1)
	tbl := L.CheckTable(2)
	if _, ok := e.behaviors[name]; ok {
		e.log.Debug("lua behaviour replaced", zap.String("name", name))
	}
	e.behaviors[name] = tbl
	return 0
}

// navigate returns true, or false and a message, to the script.
func (e *Engine) navigate(L *lua.LState, fn func(Navigator) error) int {
	if e.nav == nil {
		L.Push(lua.LFalse)
		L.Push(lua.LString("no navigator"))
		return 2
	}
	if err := fn(e.nav); err != nil {
		L.Push(lua.LFalse)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LTrue)
	return 1
}

// SetNavigator connects the stack globals to n.
func (e *Engine) SetNavigator(n Navigator) { e.nav = n }

// LoadString runs a chunk of Lua source. name is used in error messages.
func (e *Engine) LoadString(name, src string) error {
	fn, err := e.vm.Load(strings.NewReader(src), name)
	if err != nil {
		return fmt.Errorf("compile %s: %w", name, err)
	}
	e.vm.Push(fn)
	if err := e.vm.PCall(0, lua.MultRet, nil); err != nil {
		return fmt.Errorf("run %s: %w", name, err)
	}
	return nil
}

// Reload runs path again, replacing the behaviours it registers. A file
// that no longer exists is skipped.
func (e *Engine) Reload(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		e.log.Info("lua script removed", zap.String("file", path))
		return nil
	}
	if err := e.vm.DoFile(path); err != nil {
		return fmt.Errorf("reload %s: %w", path, err)
	}
	e.log.Info("lua script reloaded", zap.String("file", path))
	return nil
}

// HasBehavior reports whether a behaviour with that name is registered.
func (e *Engine) HasBehavior(name string) bool {
	_, ok := e.behaviors[name]
	return ok
}

// Behaviors returns the registered behaviour names, sorted.
func (e *Engine) Behaviors() []string {
	names := make([]string, 0, len(e.behaviors))
	for n := range e.behaviors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Errors counts failed script calls since the engine started.
func (e *Engine) Errors() int { return e.errors }

// Dir returns the scripts directory.
func (e *Engine) Dir() string { return e.dir }

// call runs hook of behaviour name with args. Missing hooks are skipped.
// Script errors are logged and counted, never raised into the step.
func (e *Engine) call(name, hook string, args ...lua.LValue) {
	tbl, ok := e.behaviors[name]
	if !ok {
		e.errors++
		e.log.Error("lua behaviour not found", zap.String("name", name))
		return
	}
	fn, ok := tbl.RawGetString(hook).(*lua.LFunction)
	if !ok {
		return
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, args...); err != nil {
		e.errors++
		e.log.Error("lua call error",
			zap.String("behavior", name),
			zap.String("hook", hook),
			zap.Error(err))
	}
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
