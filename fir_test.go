package fir

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hwgo/fir/ir"
	"github.com/hwgo/fir/transform"
)

// twoMemCircuit has structurally identical memories in two modules, so a
// full pipeline run exercises deduplication ahead of lowering.
func twoMemCircuit() *ir.Circuit {
	mem := func(name string) *ir.StmtMemory {
		gran := 8
		return &ir.StmtMemory{
			Name:     name,
			DataType: ir.VectorType{Elem: ir.UIntType{Width: 8}, Len: 4},
			Depth:    1024,
			MaskGran: &gran,
			Readers:  []string{"r"},
			Writers:  []string{"w"},
		}
	}
	return &ir.Circuit{Main: "Top", Modules: []*ir.Module{
		{Name: "Top", Body: ir.Block(mem("tbl"))},
		{Name: "Leaf", Body: ir.Block(mem("cache"))},
	}}
}

func TestLower_EndToEnd(t *testing.T) {
	state, err := Lower(twoMemCircuit(), nil)
	require.NoError(t, err)

	// Dedup folds the two memories into one wrapper/black-box pair.
	require.Len(t, state.Circuit.Modules, 4)
	require.NotNil(t, state.Circuit.Module("tbl"))
	bb := state.Circuit.Module("tbl_ext")
	require.NotNil(t, bb)
	assert.True(t, bb.External)

	// The composed rename map resolves both original references.
	assert.Equal(t, []ir.Target{
		ir.ComponentTarget("Top", "Top", "tbl"),
		ir.ComponentTarget("Top", "Top", "tbl.tbl_ext"),
	}, state.Renames.Targets(ir.ComponentTarget("Top", "Top", "tbl")))
	assert.Equal(t, []ir.Target{
		ir.ComponentTarget("Top", "Leaf", "cache"),
		ir.ComponentTarget("Top", "Leaf", "cache.tbl_ext"),
	}, state.Renames.Targets(ir.ComponentTarget("Top", "Leaf", "cache")))

	// Per-run state is consumed by the runner.
	assert.Nil(t, state.Circuit.Module("cache"))
}

func TestLower_ValidationRejectsBadCircuit(t *testing.T) {
	c := &ir.Circuit{Main: "Missing", Modules: []*ir.Module{
		{Name: "Top", Body: ir.Block()},
	}}

	_, err := Lower(c, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid circuit")
}

func TestLower_ValidationCanBeDisabled(t *testing.T) {
	c := &ir.Circuit{Main: "Top", Modules: []*ir.Module{
		{Name: "Top", Body: ir.Block()},
		{Name: "Top", Body: ir.Block()}, // duplicate name
	}}

	opts := DefaultOptions()
	opts.Validate = false
	_, err := LowerWithOptions(c, nil, opts)
	assert.NoError(t, err)
}

func TestConfString(t *testing.T) {
	state, err := Lower(twoMemCircuit(), nil)
	require.NoError(t, err)

	require.Len(t, Summaries(state), 1)
	assert.Equal(t,
		"name tbl_ext depth 1024 width 32 ports read,mwrite mask_gran 8\n",
		ConfString(state))
}

func TestConfString_Unmasked(t *testing.T) {
	state := transform.CircuitState{
		Annotations: []transform.Annotation{
			transform.MemorySummaryAnnotation{
				T: ir.CircuitTarget("Top"),
				Summaries: []transform.MemorySummary{
					{Name: "m_ext", Width: 8, Depth: 4, Readers: 1, Writers: 1},
					{Name: "q_ext", Width: 16, Depth: 32, ReadWriters: 2},
				},
			},
		},
	}

	assert.Equal(t,
		"name m_ext depth 4 width 8 ports read,write\n"+
			"name q_ext depth 32 width 16 ports rw,rw\n",
		ConfString(state))
}

func TestWriteConf(t *testing.T) {
	state, err := Lower(twoMemCircuit(), nil)
	require.NoError(t, err)

	fs := afero.NewMemMapFs()
	require.NoError(t, WriteConf(fs, "build/top.conf", state))

	got, err := afero.ReadFile(fs, "build/top.conf")
	require.NoError(t, err)
	assert.Equal(t, ConfString(state), string(got))
}

func TestWriteConf_NoSummaries(t *testing.T) {
	c := &ir.Circuit{Main: "Top", Modules: []*ir.Module{
		{Name: "Top", Body: ir.Block()},
	}}
	state, err := Lower(c, nil)
	require.NoError(t, err)

	err = WriteConf(afero.NewMemMapFs(), "out.conf", state)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no memory summaries")
}
