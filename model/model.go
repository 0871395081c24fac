// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package model loads pocket models and runs inference on the CPU.
//
// A model file holds an ordered list of layers. Every layer runs on a shared
// fork-join worker pool sized by Options.Parallel:
//
//	m, err := model.LoadFile("classifier.pktm", model.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer m.Close()
//
//	in, _ := tensor.FromSlice(samples, steps, features)
//	out, err := m.Predict(in)
//
// Models can also be assembled in code and written with Save:
//
//	pool, _ := model.NewAveragePooling1D(2)
//	m := model.New([]model.Layer{pool, model.NewGlobalAveragePooling1D()}, model.DefaultOptions())
//	err := m.Save(w)
package model

import (
	"io"

	"github.com/born-ml/pocket/internal/layer"
	"github.com/born-ml/pocket/internal/model"
	"github.com/born-ml/pocket/internal/parallel"
)

// Model is a loaded layer pipeline. Safe for concurrent Predict calls.
type Model = model.Model

// Options configures loading and execution.
type Options = model.Options

// ParallelConfig configures the worker pool (thread count and loop unrolling).
type ParallelConfig = parallel.Config

// Layer is a single step of the pipeline.
type Layer = layer.Layer

// Kind identifies a layer type in the model file.
type Kind = layer.Kind

// Layer kinds.
const (
	KindDense                  Kind = layer.KindDense
	KindActivation             Kind = layer.KindActivation
	KindAveragePooling1D       Kind = layer.KindAveragePooling1D
	KindGlobalAveragePooling1D Kind = layer.KindGlobalAveragePooling1D
)

// ActivationFunc identifies an element-wise activation.
type ActivationFunc = layer.ActivationFunc

// Activation functions.
const (
	Linear      ActivationFunc = layer.Linear
	ReLU        ActivationFunc = layer.ReLU
	Sigmoid     ActivationFunc = layer.Sigmoid
	Tanh        ActivationFunc = layer.Tanh
	Softplus    ActivationFunc = layer.Softplus
	HardSigmoid ActivationFunc = layer.HardSigmoid
)

// ShapeError reports an input tensor a layer cannot process.
type ShapeError = layer.ShapeError

// Errors returned by loading and inference.
var (
	ErrInvalidShape     = layer.ErrInvalidShape
	ErrInvalidParameter = layer.ErrInvalidParameter
	ErrUnknownKind      = layer.ErrUnknownKind
	ErrClosed           = model.ErrClosed
	ErrNotEncodable     = model.ErrNotEncodable
)

// DefaultOptions returns options using every host core.
func DefaultOptions() Options {
	return model.DefaultOptions()
}

// DefaultParallelConfig returns the default worker pool configuration.
func DefaultParallelConfig() ParallelConfig {
	return parallel.DefaultConfig()
}

// Load reads a model from r.
func Load(r io.Reader, opts Options) (*Model, error) {
	return model.Load(r, opts)
}

// LoadFile reads a model from the file at path.
func LoadFile(path string, opts Options) (*Model, error) {
	return model.LoadFile(path, opts)
}

// New builds a model from layers constructed in code.
func New(layers []Layer, opts Options) *Model {
	return model.New(layers, opts)
}

// NewAveragePooling1D creates a pooling layer averaging poolSize consecutive steps.
func NewAveragePooling1D(poolSize int) (Layer, error) {
	l, err := layer.NewAveragePooling1D(poolSize)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// NewGlobalAveragePooling1D creates a layer averaging all steps per feature.
func NewGlobalAveragePooling1D() Layer {
	return layer.NewGlobalAveragePooling1D()
}

// NewDense creates a fully connected layer.
// weights is row-major with shape (inputs, units).
func NewDense(inputs, units int, weights, biases []float32) (Layer, error) {
	l, err := layer.NewDense(inputs, units, weights, biases)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// NewActivation creates an element-wise activation layer.
func NewActivation(fn ActivationFunc) (Layer, error) {
	l, err := layer.NewActivation(fn)
	if err != nil {
		return nil, err
	}
	return l, nil
}
