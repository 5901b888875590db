package expr

import (
	"github.com/google/cel-go/cel"
	"github.com/vuuvv/errors"
	"github.com/vuuvv/structlayout/codec"
	"github.com/vuuvv/structlayout/core"
)

// Env holds the CEL variables of one decoded buffer.
type Env struct {
	Fields  map[string]any // 字段值
	Offsets map[string]any // 字段偏移
	Sizes   map[string]any // 字段大小
}

// NewEnv collects the non-padding rows of a decode.
func NewEnv(rows []codec.FieldValue) *Env {
	env := &Env{
		Fields:  make(map[string]any, len(rows)),
		Offsets: make(map[string]any, len(rows)),
		Sizes:   make(map[string]any, len(rows)),
	}
	for _, row := range rows {
		if row.Item.IsPadding() {
			continue
		}
		env.Fields[row.Name] = row.Raw.Native()
		env.Offsets[row.Name] = int64(row.Offset)
		env.Sizes[row.Name] = int64(row.Size)
	}
	return env
}

type Evaluator struct {
	src string
	prg cel.Program
}

func Compile(src string) (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("fields", cel.MapType(cel.StringType, cel.DynType)),  // fields为所有字段的值
		cel.Variable("offsets", cel.MapType(cel.StringType, cel.IntType)), // offsets为字段的字节偏移
		cel.Variable("sizes", cel.MapType(cel.StringType, cel.IntType)),
	)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	ast, issues := env.Compile(src)
	if issues != nil && issues.Err() != nil {
		return nil, core.NewError(core.KindValue).Detailf("compile %q", src).Cause(issues.Err()).Build()
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &Evaluator{src: src, prg: prg}, nil
}

func (e *Evaluator) Execute(env *Env) (any, error) {
	input := map[string]any{
		"fields":  env.Fields,
		"offsets": env.Offsets,
		"sizes":   env.Sizes,
	}
	out, _, err := e.prg.Eval(input)
	if err != nil {
		return nil, errors.Wrapf(err, "evaluate %q", e.src)
	}
	return out.Value(), nil
}

// Check runs a boolean expression. Any other result type is a value error.
func (e *Evaluator) Check(env *Env) (bool, error) {
	out, err := e.Execute(env)
	if err != nil {
		return false, err
	}
	ok, isBool := out.(bool)
	if !isBool {
		return false, core.NewError(core.KindValue).Detailf("%q returned %T, want bool", e.src, out).Build()
	}
	return ok, nil
}
