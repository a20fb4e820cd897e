// Package onnxsession wraps per-model ONNX Runtime session construction.
//
// The teacher snapshots each engine (pipertts, melotts, whisper, paraformer)
// through a root-level speech.OnnxConfig that copies a plain Config struct
// by reflection and hands back a ready-to-use session factory. That root
// package isn't part of this module, so this package plays the same role:
// build it once per process, then call NewSession per .onnx file each model
// bundle needs (duration/pitch/decoder).
package onnxsession

import (
	"fmt"

	ort "github.com/getcharzp/onnxruntime_purego"
	"github.com/up-zero/gotool/convertutil"

	"github.com/voicevoxcore/voicevoxcore-go/voicevoxerror"
)

// Config is the public, per-process knob set. Fields are copied into engine
// by name, mirroring convertutil.CopyProperties(cfg, oc) in every teacher
// engine's NewEngine.
type Config struct {
	OnnxRuntimeLibPath string
	UseCuda            bool
	NumThreads         int
}

// Engine owns the loaded onnxruntime shared library and the session options
// derived from Config. One Engine is shared by every model bundle in a
// process; sessions opened from it are independent and may be destroyed
// without affecting the others.
type Engine struct {
	OnnxRuntimeLibPath string
	UseCuda            bool
	NumThreads         int

	runtime        *ort.Engine
	SessionOptions *ort.SessionOptions
}

// New loads the onnxruntime shared library and builds session options from
// the already-populated fields. Call it after CopyProperties, exactly as the
// teacher's oc.New() is called right after convertutil.CopyProperties(cfg, oc).
func (e *Engine) New() error {
	runtime, err := ort.NewEngine(e.OnnxRuntimeLibPath)
	if err != nil {
		return fmt.Errorf("load onnxruntime: %w", err)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		runtime.Destroy()
		return fmt.Errorf("build session options: %w", err)
	}

	if e.NumThreads > 0 {
		opts.SetIntraOpNumThreads(e.NumThreads)
		opts.SetInterOpNumThreads(e.NumThreads)
	}

	if e.UseCuda {
		if err := opts.AppendExecutionProviderCUDA(); err != nil {
			opts.Destroy()
			runtime.Destroy()
			return translateCudaError(err)
		}
	}

	e.runtime = runtime
	e.SessionOptions = opts
	return nil
}

// translateCudaError maps a CUDA execution-provider append failure to the
// GpuUnsupported sentinel, so a caller requesting UseCuda on a CPU-only
// build can distinguish it via errors.Is. Split out from New so the
// translation is testable without a real onnxruntime shared library in
// the loop.
func translateCudaError(err error) error {
	if err == nil {
		return nil
	}
	return voicevoxerror.Wrap(voicevoxerror.GpuUnsupported, err)
}

// NewSession opens a model file against this Engine's runtime and options,
// the same call shape every teacher engine uses:
// oc.OnnxEngine.NewSession(modelPath, oc.SessionOptions).
func (e *Engine) NewSession(modelPath string) (*ort.Session, error) {
	if e.runtime == nil {
		return nil, fmt.Errorf("onnxsession: engine not initialized, call New first")
	}
	return e.runtime.NewSession(modelPath, e.SessionOptions)
}

// Destroy releases the session options and the underlying runtime handle.
// Sessions opened from this Engine must be destroyed by the caller first.
func (e *Engine) Destroy() {
	if e.SessionOptions != nil {
		e.SessionOptions.Destroy()
	}
	if e.runtime != nil {
		e.runtime.Destroy()
	}
}

// NewFromConfig copies cfg's fields into a fresh Engine and initializes it,
// collapsing the teacher's two-step oc := new(...); CopyProperties(...); oc.New()
// into one call. The resulting Engine's NewSession is what internal/infer.New
// takes as its Opener.
func NewFromConfig(cfg Config) (*Engine, error) {
	e := new(Engine)
	if err := convertutil.CopyProperties(cfg, e); err != nil {
		return nil, fmt.Errorf("copy onnx config: %w", err)
	}
	if err := e.New(); err != nil {
		return nil, err
	}
	return e, nil
}
