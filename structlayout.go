package structlayout

import (
	"github.com/vuuvv/structlayout/codec"
	"github.com/vuuvv/structlayout/core"
	"github.com/vuuvv/structlayout/expr"
	"github.com/vuuvv/structlayout/layout"
	"github.com/vuuvv/structlayout/log"
	"github.com/vuuvv/structlayout/parser"
	"github.com/vuuvv/structlayout/registry"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type AggregateDef = core.AggregateDef
type StructDef = core.StructDef
type UnionDef = core.UnionDef
type MemberDef = core.MemberDef
type FlatMember = core.FlatMember
type AggregateKind = core.AggregateKind
type LayoutItem = core.LayoutItem
type TypeInfo = core.TypeInfo
type Endian = core.Endian
type Error = core.Error

var (
	ErrParse           = core.ErrParse
	ErrUnknownType     = core.ErrUnknownType
	ErrInvalidArgument = core.ErrInvalidArgument
	ErrOverflow        = core.ErrOverflow
	ErrValue           = core.ErrValue
	ErrRange           = core.ErrRange
)

const (
	KindStruct = core.KindStruct
	KindUnion  = core.KindUnion
	Little     = core.Little
	Big        = core.Big
)

type Registry = registry.Registry
type RegistryConfig = registry.Config

var NewRegistry = registry.New
var LoadRegistryConfig = registry.LoadConfig
var RegistryConfigFromEnv = registry.ConfigFromEnv

type Result = layout.Result
type Value = codec.Value
type FieldValue = codec.FieldValue
type Assembly = codec.Assembly

var ParseDefinition = parser.Parse
var ParseAll = parser.ParseAll
var ParseLegacy = parser.ParseLegacy
var WithTarget = parser.WithTarget

var DecodeField = codec.Extract
var DecodeHex = codec.DecodeHex
var EncodeField = codec.EncodeField
var AssembleFlexible = codec.AssembleFlexible

var CompileCheck = expr.Compile
var NewCheckEnv = expr.NewEnv

func ComputeLayout(reg *Registry, def AggregateDef) (*Result, error) {
	return layout.New(reg).Compute(def)
}

func ComputeMembers(reg *Registry, members []MemberDef, kind AggregateKind, pack uint) (*Result, error) {
	return layout.New(reg).ComputeMembers(members, kind, pack)
}

// ValidateMembers checks a hand-written member list against a declared struct size.
func ValidateMembers(reg *Registry, members []FlatMember, totalSize uint) []error {
	return layout.New(reg).Validate(members, totalSize)
}

// Setup installs a zap development logger unless a global one is already enabled.
func Setup() {
	var logger *zap.Logger
	var err error
	if !zap.L().Core().Enabled(zapcore.PanicLevel) {
		logger, err = zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
	} else {
		logger = zap.L()
	}
	log.SetLogger(logger)
	log.SetDefaultLogger(logger)
}
