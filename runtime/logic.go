package runtime

import (
	"context"
	"fmt"
	"maps"
	"regexp"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/leofalp/agentgraph/agent"
)

// Logic types understood by logic nodes.
const (
	LogicValidate  = "validate"
	LogicCondition = "condition"
	LogicTransform = "transform"
)

// defaultLogicTimeout bounds a single logic node's Lua evaluation.
const defaultLogicTimeout = 5 * time.Second

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// runLogic executes a logic node under the executor's logic timeout. A
// script still running at the deadline fails the node.
func (e *Executor) runLogic(ctx context.Context, data agent.LogicData, vars map[string]any) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, e.logicTimeout)
	defer cancel()

	output, err := executeLogic(ctx, data, vars)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("logic script did not finish within %s: %w", e.logicTimeout, ctxErr)
	}
	return output, err
}

// executeLogic dispatches on the logic type, inferring it from whichever
// expression is set when the type is blank. Unknown types pass through.
func executeLogic(ctx context.Context, data agent.LogicData, vars map[string]any) (map[string]any, error) {
	logicType := data.LogicType
	if logicType == "" {
		switch {
		case data.Condition != "":
			logicType = LogicCondition
		case data.Transformation != "":
			logicType = LogicTransform
		case data.Validation != "":
			logicType = LogicValidate
		}
	}

	switch logicType {
	case LogicCondition:
		return evaluateCondition(ctx, data.Condition, vars), nil
	case LogicValidate:
		return runValidation(ctx, data.Validation, vars), nil
	case LogicTransform:
		return runTransformation(ctx, data.Transformation, vars)
	default:
		return map[string]any{}, nil
	}
}

// evaluateCondition evaluates a Lua expression against `data`. An empty or
// "true" condition passes; evaluation errors count as false.
func evaluateCondition(ctx context.Context, condition string, vars map[string]any) map[string]any {
	condition = strings.TrimSpace(condition)
	if condition == "" || condition == "true" {
		return map[string]any{keyConditionMet: true}
	}

	L := newSandbox(ctx, vars)
	defer L.Close()

	if err := L.DoString("return " + condition); err != nil {
		return map[string]any{keyConditionMet: false, "conditionError": err.Error()}
	}
	met := lua.LVAsBool(L.Get(-1))
	return map[string]any{keyConditionMet: met, "conditionResult": met}
}

// runValidation runs a Lua chunk that calls error() to reject the input.
func runValidation(ctx context.Context, script string, vars map[string]any) map[string]any {
	L := newSandbox(ctx, vars)
	defer L.Close()

	if err := L.DoString(script); err != nil {
		return map[string]any{"validated": false, "validationError": luaMessage(err), "validationRule": script}
	}
	return map[string]any{"validated": true}
}

// runTransformation runs a Lua chunk that returns a table; its fields become
// the node result. Returning nothing yields an empty result.
func runTransformation(ctx context.Context, script string, vars map[string]any) (map[string]any, error) {
	L := newSandbox(ctx, vars)
	defer L.Close()

	if err := L.DoString(script); err != nil {
		return nil, fmt.Errorf("transformation failed: %s", luaMessage(err))
	}
	if L.GetTop() == 0 {
		return map[string]any{}, nil
	}

	switch value := luaToGo(L.Get(-1)).(type) {
	case map[string]any:
		return value, nil
	case nil:
		return map[string]any{}, nil
	default:
		return map[string]any{"transformed": value}, nil
	}
}

// newSandbox returns a state with only the base, table, string and math
// libraries, minus file loading, printing and randomness. `data` and
// `input` both expose vars.
func newSandbox(ctx context.Context, vars map[string]any) *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	L.SetContext(ctx)

	lua.OpenBase(L)
	for _, name := range []string{"loadfile", "dofile", "load", "loadstring", "print", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	if math, ok := L.GetGlobal("math").(*lua.LTable); ok {
		L.SetField(math, "random", lua.LNil)
		L.SetField(math, "randomseed", lua.LNil)
	}

	data := goToLua(L, maps.Clone(vars))
	L.SetGlobal("data", data)
	L.SetGlobal("input", data)

	L.SetGlobal("isString", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LBool(L.Get(1).Type() == lua.LTString))
		return 1
	}))
	L.SetGlobal("isNumber", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LBool(L.Get(1).Type() == lua.LTNumber))
		return 1
	}))
	L.SetGlobal("isEmail", L.NewFunction(func(L *lua.LState) int {
		s, ok := L.Get(1).(lua.LString)
		L.Push(lua.LBool(ok && emailPattern.MatchString(string(s))))
		return 1
	}))
	L.SetGlobal("isRequired", L.NewFunction(func(L *lua.LState) int {
		v := L.Get(1)
		L.Push(lua.LBool(v != lua.LNil && v.String() != ""))
		return 1
	}))
	L.SetGlobal("minLength", L.NewFunction(func(L *lua.LState) int {
		s, ok := L.Get(1).(lua.LString)
		L.Push(lua.LBool(ok && len([]rune(string(s))) >= L.CheckInt(2)))
		return 1
	}))
	L.SetGlobal("maxLength", L.NewFunction(func(L *lua.LState) int {
		s, ok := L.Get(1).(lua.LString)
		L.Push(lua.LBool(ok && len([]rune(string(s))) <= L.CheckInt(2)))
		return 1
	}))
	L.SetGlobal("inRange", L.NewFunction(func(L *lua.LState) int {
		n, ok := L.Get(1).(lua.LNumber)
		L.Push(lua.LBool(ok && n >= L.CheckNumber(2) && n <= L.CheckNumber(3)))
		return 1
	}))

	return L
}

func goToLua(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case float64:
		return lua.LNumber(val)
	case int:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []any:
		tbl := L.NewTable()
		for i, item := range val {
			L.SetTable(tbl, lua.LNumber(i+1), goToLua(L, item))
		}
		return tbl
	case []string:
		tbl := L.NewTable()
		for i, item := range val {
			L.SetTable(tbl, lua.LNumber(i+1), lua.LString(item))
		}
		return tbl
	case map[string]any:
		tbl := L.NewTable()
		for k, item := range val {
			L.SetField(tbl, k, goToLua(L, item))
		}
		return tbl
	default:
		return lua.LString(fmt.Sprintf("%v", val))
	}
}

// luaToGo converts tables with a non-empty array part to slices and every
// other table to a map.
func luaToGo(v lua.LValue) any {
	switch val := v.(type) {
	case *lua.LNilType:
		return nil
	case lua.LBool:
		return bool(val)
	case lua.LNumber:
		return float64(val)
	case lua.LString:
		return string(val)
	case *lua.LTable:
		if n := val.MaxN(); n > 0 {
			out := make([]any, 0, n)
			for i := 1; i <= n; i++ {
				out = append(out, luaToGo(val.RawGetInt(i)))
			}
			return out
		}
		out := map[string]any{}
		val.ForEach(func(key, value lua.LValue) {
			out[key.String()] = luaToGo(value)
		})
		return out
	default:
		return val.String()
	}
}

// luaMessage strips the chunk location and traceback from a Lua error.
func luaMessage(err error) string {
	if apiErr, ok := err.(*lua.ApiError); ok {
		message := apiErr.Object.String()
		if i := strings.Index(message, ": "); i >= 0 && strings.HasPrefix(message, "<string>") {
			message = message[i+2:]
		}
		return message
	}
	return err.Error()
}
