package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/born-ml/pocket/tensor"
)

// tensorJSON is the on-disk form of an input or output tensor.
type tensorJSON struct {
	Input string    `json:"input,omitempty"`
	Shape []int     `json:"shape"`
	Data  []float32 `json:"data"`
}

func runPredict(args []string, stdout, stderr io.Writer) error {
	fs, flags := newFlagSet("predict", stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("at least one input file is required")
	}

	m, err := flags.load(stderr)
	if err != nil {
		return err
	}
	defer m.Close()

	inputs, err := readInputs(fs.Args(), flags.threads)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	for i, in := range inputs {
		out, err := m.Predict(in)
		if err != nil {
			return fmt.Errorf("%s: %w", fs.Arg(i), err)
		}
		rec := tensorJSON{Input: fs.Arg(i), Shape: out.Dims(), Data: out.Data()}
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
	}
	return nil
}

// readInputs decodes every file concurrently, keeping argument order.
func readInputs(paths []string, limit int) ([]*tensor.Tensor, error) {
	inputs := make([]*tensor.Tensor, len(paths))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			x, err := readTensorFile(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			inputs[i] = x
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return inputs, nil
}

func readTensorFile(path string) (*tensor.Tensor, error) {
	//nolint:gosec // G304: input paths are supplied by the user
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	return decodeTensor(f)
}

func decodeTensor(r io.Reader) (*tensor.Tensor, error) {
	var v tensorJSON
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to decode tensor: %w", err)
	}
	if len(v.Shape) == 0 {
		return nil, errors.New("tensor shape is empty")
	}
	return tensor.FromSlice(v.Data, v.Shape...)
}
