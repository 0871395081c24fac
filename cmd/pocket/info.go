package main

import (
	"fmt"
	"io"

	"github.com/born-ml/pocket/internal/layer"
	"github.com/born-ml/pocket/internal/simd"
)

func runInfo(args []string, stdout, stderr io.Writer) error {
	fs, flags := newFlagSet("info", stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(stdout, "cpu:      %s\n", simd.Features())

	if flags.model == "" {
		return nil
	}

	m, err := flags.load(stderr)
	if err != nil {
		return err
	}
	defer m.Close()

	_, _ = fmt.Fprintf(stdout, "threads:  %d\n", m.Threads())
	_, _ = fmt.Fprintf(stdout, "layers:   %d\n", len(m.Layers()))
	for i, l := range m.Layers() {
		_, _ = fmt.Fprintf(stdout, "  %3d  %s\n", i, describe(l))
	}
	return nil
}

func describe(l layer.Layer) string {
	switch l := l.(type) {
	case *layer.AveragePooling1D:
		return fmt.Sprintf("%s(pool_size=%d)", l.Kind(), l.PoolSize())
	case *layer.Dense:
		return fmt.Sprintf("%s(%d -> %d)", l.Kind(), l.Inputs(), l.Units())
	case *layer.Activation:
		return fmt.Sprintf("%s(%s)", l.Kind(), l.Func())
	default:
		return l.Kind().String()
	}
}
