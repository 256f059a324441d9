// Copyright 2025 Tabular ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the GPU array backend built on WebGPU.
//
// WebGPU is a cross-platform compute API; this backend stores column
// buffers in GPU memory and moves data explicitly via Upload and ToHost.
//
// Example:
//
//	gpu, err := webgpu.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer gpu.Release()
//
//	arr, err := gpu.Upload(data, native.Shape{4}, native.Float32)
package webgpu

import (
	internalwebgpu "github.com/tabular-ml/tabular/internal/backend/webgpu"
)

// Backend owns a WebGPU instance, adapter, device, and queue.
type Backend = internalwebgpu.Backend

// Array is a GPU-resident array backed by a WebGPU buffer.
type Array = internalwebgpu.Array

// New creates a WebGPU backend. Call Release when done to free GPU
// resources.
func New() (*Backend, error) {
	return internalwebgpu.New()
}

// Default returns the process-wide shared backend, creating it on first
// use.
func Default() (*Backend, error) {
	return internalwebgpu.Default()
}

// IsAvailable reports whether a WebGPU adapter can be initialized on
// this system.
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
