package fir

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"

	"github.com/hwgo/fir/transform"
)

// Summaries returns the memory summaries a lowering run attached to the
// state, or nil if no memories were replaced.
func Summaries(state transform.CircuitState) []transform.MemorySummary {
	for _, a := range state.Annotations {
		if s, ok := a.(transform.MemorySummaryAnnotation); ok {
			return s.Summaries
		}
	}
	return nil
}

// ConfString renders the replaced-memory summaries as a configuration file
// for downstream macro-replacement tooling, one line per memory:
//
//	name <blackbox> depth <d> width <w> ports <list> [mask_gran <g>]
//
// The ports list names each port kind in reader, writer, readwriter order;
// masked writers are prefixed with "m".
func ConfString(state transform.CircuitState) string {
	var sb strings.Builder
	for _, s := range Summaries(state) {
		fmt.Fprintf(&sb, "name %s depth %d width %d ports %s", s.Name, s.Depth, s.Width, portList(s))
		if s.MaskGran > 0 {
			fmt.Fprintf(&sb, " mask_gran %d", s.MaskGran)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// WriteConf writes ConfString's output to path. Writing through an afero
// filesystem keeps the side effect injectable for tests.
func WriteConf(fs afero.Fs, path string, state transform.CircuitState) error {
	conf := ConfString(state)
	if conf == "" {
		return errors.Newf("state carries no memory summaries")
	}
	if err := afero.WriteFile(fs, path, []byte(conf), 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}

func portList(s transform.MemorySummary) string {
	write := "write"
	rw := "rw"
	if s.MaskGran > 0 {
		write = "mwrite"
		rw = "mrw"
	}
	var parts []string
	for i := 0; i < s.Readers; i++ {
		parts = append(parts, "read")
	}
	for i := 0; i < s.Writers; i++ {
		parts = append(parts, write)
	}
	for i := 0; i < s.ReadWriters; i++ {
		parts = append(parts, rw)
	}
	return strings.Join(parts, ",")
}
