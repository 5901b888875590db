package registry

import (
	"github.com/vuuvv/structlayout/core"
	"github.com/vuuvv/structlayout/log"
	"github.com/vuuvv/structlayout/utils"
	"go.uber.org/zap"
	"maps"
	"slices"
)

// 64 位目标平台的内置类型表
var baseTypes = map[string]core.TypeInfo{
	"char":               {Size: 1, Align: 1},
	"signed char":        {Size: 1, Align: 1},
	"unsigned char":      {Size: 1, Align: 1},
	"bool":               {Size: 1, Align: 1},
	"short":              {Size: 2, Align: 2},
	"unsigned short":     {Size: 2, Align: 2},
	"int":                {Size: 4, Align: 4},
	"unsigned int":       {Size: 4, Align: 4},
	"long":               {Size: 8, Align: 8},
	"unsigned long":      {Size: 8, Align: 8},
	"long long":          {Size: 8, Align: 8},
	"unsigned long long": {Size: 8, Align: 8},
	"float":              {Size: 4, Align: 4},
	"double":             {Size: 8, Align: 8},
	core.TypePointer:     {Size: 8, Align: 8},
}

var defaultAliases = map[string]string{
	"U8":  "unsigned char",
	"U16": "unsigned short",
	"U32": "unsigned int",
	"U64": "unsigned long long",

	// C 中等价的常见写法
	"_Bool":                  "bool",
	"signed":                 "int",
	"signed int":             "int",
	"unsigned":               "unsigned int",
	"short int":              "short",
	"signed short":           "short",
	"signed short int":       "short",
	"unsigned short int":     "unsigned short",
	"long int":               "long",
	"signed long":            "long",
	"signed long int":        "long",
	"unsigned long int":      "unsigned long",
	"long long int":          "long long",
	"signed long long":       "long long",
	"signed long long int":   "long long",
	"unsigned long long int": "unsigned long long",
}

// Registry resolves type names to size/alignment. It is read-only once built
// and safe for concurrent use.
type Registry struct {
	aliases map[string]string
	custom  map[string]core.TypeInfo
}

// New builds a registry from the defaults plus cfg. A nil cfg yields the defaults only.
func New(cfg *Config) (*Registry, error) {
	reg := &Registry{
		aliases: maps.Clone(defaultAliases),
		custom:  map[string]core.TypeInfo{},
	}
	if cfg != nil {
		for k, v := range cfg.Aliases {
			k, v = core.CollapseSpace(k), core.CollapseSpace(v)
			if k == "" || v == "" || k == v {
				continue
			}
			reg.aliases[k] = v
		}
		for k, info := range cfg.Types {
			k = core.CollapseSpace(k)
			if k == "" || info.Size == 0 || info.Align == 0 {
				log.Warn("skip custom type with non-positive size or align", zap.String("type", k))
				continue
			}
			reg.custom[k] = info
		}
	}

	collapsed, err := collapseAliases(reg.aliases)
	if err != nil {
		return nil, err
	}
	reg.aliases = collapsed
	return reg, nil
}

// MustNew panics when cfg is invalid. Only meant for the defaults and tests.
func MustNew(cfg *Config) *Registry {
	reg, err := New(cfg)
	if err != nil {
		utils.Panicf("invalid registry config: %v", err)
	}
	return reg
}

// collapseAliases points every alias straight at the end of its chain so a
// single lookup is enough and Normalize stays idempotent.
func collapseAliases(aliases map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(aliases))
	for name := range aliases {
		seen := map[string]bool{name: true}
		target := aliases[name]
		for {
			next, ok := aliases[target]
			if !ok {
				break
			}
			if seen[target] {
				return nil, core.NewError(core.KindInvalidArgument).
					Type(name).
					Detailf("alias cycle through %q", target).
					Build()
			}
			seen[target] = true
			target = next
		}
		out[name] = target
	}
	return out, nil
}

// Normalize collapses whitespace and maps an alias to its canonical name.
// Unmapped names come back whitespace-collapsed but otherwise unchanged.
func (this *Registry) Normalize(name string) string {
	name = core.CollapseSpace(name)
	if target, ok := this.aliases[name]; ok {
		return target
	}
	return name
}

// Resolve looks a type up in alias, custom, base order.
func (this *Registry) Resolve(name string) (core.TypeInfo, error) {
	canonical := this.Normalize(name)
	if info, ok := this.custom[canonical]; ok {
		return info, nil
	}
	if info, ok := baseTypes[canonical]; ok {
		return info, nil
	}
	return core.TypeInfo{}, core.NewError(core.KindUnknownType).Type(name).Build()
}

func (this *Registry) Known(name string) bool {
	_, err := this.Resolve(name)
	return err == nil
}

func (this *Registry) BaseTypes() map[string]core.TypeInfo {
	return maps.Clone(baseTypes)
}

func (this *Registry) Aliases() map[string]string {
	return maps.Clone(this.aliases)
}

func (this *Registry) CustomTypes() map[string]core.TypeInfo {
	return maps.Clone(this.custom)
}

// TypeNames lists every resolvable name, sorted.
func (this *Registry) TypeNames() []string {
	names := make([]string, 0, len(baseTypes)+len(this.custom)+len(this.aliases))
	for k := range baseTypes {
		names = append(names, k)
	}
	for k := range this.custom {
		if _, dup := baseTypes[k]; !dup {
			names = append(names, k)
		}
	}
	for k := range this.aliases {
		if this.Known(k) {
			names = append(names, k)
		}
	}
	slices.Sort(names)
	return slices.Compact(names)
}
