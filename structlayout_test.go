package structlayout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vuuvv/structlayout/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const header = `
#pragma pack(push, 1)
typedef struct Packet {
    U8  kind;
    U32 length;
    unsigned short flags : 3;
    unsigned short ttl   : 5;
} Packet;
#pragma pack(pop)
`

func TestEndToEnd(t *testing.T) {
	reg, err := NewRegistry(nil)
	require.NoError(t, err)

	def, err := ParseDefinition(header)
	require.NoError(t, err)
	assert.Equal(t, KindStruct, def.Kind())

	r, err := ComputeLayout(reg, def)
	require.NoError(t, err)
	assert.Equal(t, uint(7), r.TotalSize)
	assert.Equal(t, uint(1), r.Alignment)

	length, ok := r.Find("length")
	require.True(t, ok)
	assert.Equal(t, uint(1), length.Offset)

	buf, err := EncodeField("0x1234", int(length.Size), Big)
	require.NoError(t, err)
	v, err := DecodeField(append(make([]byte, 1), buf...), length, Big)
	require.NoError(t, err)
	assert.Equal(t, "4660", v.String())

	a, err := AssembleFlexible("0x07 0x44332211 0xA5", int(r.TotalSize))
	require.NoError(t, err)
	rows, err := DecodeHex("07 11223344 a5 00", r.Items, r.TotalSize, Little)
	require.NoError(t, err)
	assert.Equal(t, "7", rows[0].Value)
	assert.Len(t, a.Data, 7)

	ev, err := CompileCheck("fields.kind == 7 && fields.flags == 5 && fields.ttl == 20")
	require.NoError(t, err)
	pass, err := ev.Check(NewCheckEnv(rows))
	require.NoError(t, err)
	assert.True(t, pass)
}

func TestComputeMembers(t *testing.T) {
	reg, err := NewRegistry(nil)
	require.NoError(t, err)
	r, err := ComputeMembers(reg, []MemberDef{{Type: "char", Name: "c"}, {Type: "double", Name: "d"}}, KindUnion, 0)
	require.NoError(t, err)
	assert.Equal(t, uint(8), r.TotalSize)
}

func TestValidateMembers(t *testing.T) {
	reg, err := NewRegistry(nil)
	require.NoError(t, err)
	errs := ValidateMembers(reg, []FlatMember{{Type: "int", Name: "a"}, {Type: "int", Name: "a"}}, 8)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrInvalidArgument)
}

func TestSetupKeepsEnabledGlobal(t *testing.T) {
	prev := zap.L()
	defer zap.ReplaceGlobals(prev)
	defer log.SetDefaultLogger(nil)
	defer log.SetLogger(nil)

	example := zap.NewExample()
	zap.ReplaceGlobals(example)
	Setup()
	assert.Same(t, example, log.Logger())
	assert.Same(t, example, log.DefaultLogger())
}

func TestSetupInstallsDevelopment(t *testing.T) {
	prev := zap.L()
	defer zap.ReplaceGlobals(prev)
	defer log.SetDefaultLogger(nil)
	defer log.SetLogger(nil)

	zap.ReplaceGlobals(zap.New(zapcore.NewNopCore()))
	Setup()
	assert.True(t, log.Logger().Core().Enabled(zapcore.DebugLevel))
}
