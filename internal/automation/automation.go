// Package automation drives processor parameters from Lua scripts during
// offline renders.
//
// A script defines a global function automate(t) that receives the block
// start time in seconds and returns a table of parameter values, or nil
// to leave every parameter unchanged:
//
//	function automate(t)
//	  return { cutoffHz = 200 + 4000 * (0.5 + 0.5 * math.sin(t)) }
//	end
package automation

import (
	"errors"
	"fmt"
	"sort"

	lua "github.com/yuin/gopher-lua"

	"github.com/cwbudde/algo-vcf/dsp/filter/ladder"
)

// FuncName is the Lua global every script must define.
const FuncName = "automate"

var (
	// ErrMissingFunc is returned when a script does not define automate.
	ErrMissingFunc = errors.New("automation: script does not define function " + FuncName)
	// ErrBadResult is returned when automate returns something other than
	// nil or a table of numbers keyed by parameter ID.
	ErrBadResult = errors.New("automation: invalid automate result")
)

// Setter receives parameter updates. vcf.Processor implements it.
type Setter interface {
	SetParameter(id ladder.ParamID, value float64) error
}

// Script is a loaded automation script. It is not safe for concurrent use.
type Script struct {
	state *lua.LState
	fn    *lua.LFunction
}

// Load compiles and runs the script file at path.
func Load(path string) (*Script, error) {
	return load(func(l *lua.LState) error { return l.DoFile(path) })
}

// LoadString compiles and runs src.
func LoadString(src string) (*Script, error) {
	return load(func(l *lua.LState) error { return l.DoString(src) })
}

func load(run func(*lua.LState) error) (*Script, error) {
	l := lua.NewState(lua.Options{SkipOpenLibs: true})

	if err := openSafeLibs(l); err != nil {
		l.Close()
		return nil, err
	}

	if err := run(l); err != nil {
		l.Close()
		return nil, fmt.Errorf("automation: load: %w", err)
	}

	fn, ok := l.GetGlobal(FuncName).(*lua.LFunction)
	if !ok {
		l.Close()
		return nil, ErrMissingFunc
	}

	return &Script{state: l, fn: fn}, nil
}

// openSafeLibs opens the libraries a script may use. os and io stay closed.
func openSafeLibs(l *lua.LState) error {
	libs := []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	}

	for _, lib := range libs {
		err := l.CallByParam(lua.P{
			Fn:      l.NewFunction(lib.open),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name))
		if err != nil {
			return fmt.Errorf("automation: open %s: %w", lib.name, err)
		}
	}

	// Base exposes file loaders.
	for _, name := range []string{"dofile", "loadfile"} {
		l.SetGlobal(name, lua.LNil)
	}

	return nil
}

// Apply evaluates automate(seconds) and forwards the returned values to p
// in parameter-ID order.
func (s *Script) Apply(p Setter, seconds float64) error {
	values, err := s.Eval(seconds)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(values))
	for id := range values {
		ids = append(ids, string(id))
	}

	sort.Strings(ids)

	for _, id := range ids {
		if err := p.SetParameter(ladder.ParamID(id), values[ladder.ParamID(id)]); err != nil {
			return fmt.Errorf("automation: t=%.3fs: %w", seconds, err)
		}
	}

	return nil
}

// Eval evaluates automate(seconds) and returns the parameter values it
// produced. Unknown parameter IDs are rejected.
func (s *Script) Eval(seconds float64) (map[ladder.ParamID]float64, error) {
	err := s.state.CallByParam(lua.P{
		Fn:      s.fn,
		NRet:    1,
		Protect: true,
	}, lua.LNumber(seconds))
	if err != nil {
		return nil, fmt.Errorf("automation: t=%.3fs: %w", seconds, err)
	}

	ret := s.state.Get(-1)
	s.state.Pop(1)

	if ret == lua.LNil {
		return nil, nil
	}

	tbl, ok := ret.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("%w: got %s", ErrBadResult, ret.Type())
	}

	values := make(map[ladder.ParamID]float64)

	var bad error

	tbl.ForEach(func(k, v lua.LValue) {
		if bad != nil {
			return
		}

		key, ok := k.(lua.LString)
		if !ok {
			bad = fmt.Errorf("%w: non-string key %s", ErrBadResult, k.String())
			return
		}

		num, ok := v.(lua.LNumber)
		if !ok {
			bad = fmt.Errorf("%w: %s is %s, want number", ErrBadResult, key, v.Type())
			return
		}

		id := ladder.ParamID(key)
		if _, err := ladder.RangeOf(id); err != nil {
			bad = err
			return
		}

		values[id] = float64(num)
	})

	if bad != nil {
		return nil, bad
	}

	return values, nil
}

// Close releases the Lua state.
func (s *Script) Close() {
	s.state.Close()
}
