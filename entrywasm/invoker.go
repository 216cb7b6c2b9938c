package entrywasm

import (
	"context"
	"encoding/binary"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/modware/mod-runtime/errors"
	"github.com/modware/mod-runtime/loader"
)

// hostModule is the import namespace entry payloads see.
const hostModule = "host"

// Invoker executes wasm entry payloads. The zero value is ready to use.
type Invoker struct{}

// New returns a wasm entry invoker.
func New() *Invoker {
	return &Invoker{}
}

// Invoke extracts the payload at call.Offset, instantiates it in a fresh
// runtime, and runs the export matching call.Kind. A payload without a
// cleanup export succeeds trivially for cleanup calls; a missing init
// export is an error.
func (inv *Invoker) Invoke(ctx context.Context, call loader.EntryCall) (loader.Status, error) {
	phase := errors.PhaseInit
	if call.Kind == loader.EntryCleanup {
		phase = errors.PhaseUnload
	}

	blob, err := payload(phase, call.Memory, call.Offset)
	if err != nil {
		return 0, err
	}

	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	if err := instantiateHost(ctx, rt, call.Services); err != nil {
		return 0, errors.Wrap(phase, errors.KindInitFailed, err, "host module setup failed")
	}

	guest, err := rt.Instantiate(ctx, blob)
	if err != nil {
		return 0, errors.Wrap(phase, errors.KindInitFailed, err, "entry payload failed to instantiate")
	}

	fn := guest.ExportedFunction(call.Kind.String())
	if fn == nil {
		if call.Kind == loader.EntryCleanup {
			// Cleanup is optional; nothing to run is success.
			return loader.StatusOK, nil
		}
		return 0, errors.New(phase, errors.KindInitFailed).
			Detail("entry payload exports no %q function", call.Kind).Build()
	}

	results, err := fn.Call(ctx)
	if err != nil {
		return 0, errors.Wrap(phase, errors.KindInitFailed, err, "entry trapped")
	}
	if len(results) != 1 {
		return 0, errors.New(phase, errors.KindInitFailed).
			Detail("entry returned %d results, want 1", len(results)).Build()
	}
	return loader.Status(int32(uint32(results[0]))), nil
}

// payload frames the wasm blob out of module memory: a 4-byte little-endian
// length at offset, then the binary itself.
func payload(phase errors.Phase, mem []byte, offset uint32) ([]byte, error) {
	size := uint32(len(mem))
	if offset > size || size-offset < 4 {
		return nil, errors.New(phase, errors.KindOutOfBounds).
			Detail("entry offset %d leaves no room for a length prefix in %d bytes", offset, size).Build()
	}
	n := binary.LittleEndian.Uint32(mem[offset:])
	if size-offset-4 < n {
		return nil, errors.New(phase, errors.KindOutOfBounds).
			Detail("entry payload of %d bytes at offset %d exceeds module memory", n, offset).Build()
	}
	if n == 0 {
		return nil, errors.New(phase, errors.KindInvalidInput).Detail("empty entry payload").Build()
	}
	return mem[offset+4 : offset+4+n], nil
}

// instantiateHost registers the service functions entry code may import.
func instantiateHost(ctx context.Context, rt wazero.Runtime, svc *loader.Services) error {
	resolve := func(_ context.Context, m api.Module, ptr, n uint32) uint32 {
		if svc == nil || svc.Resolve == nil {
			return 0
		}
		name, ok := m.Memory().Read(ptr, n)
		if !ok {
			return 0
		}
		addr, ok := svc.Resolve(string(name))
		if !ok {
			return 0
		}
		return addr
	}
	logfn := func(_ context.Context, m api.Module, ptr, n uint32) {
		if svc == nil || svc.Log == nil {
			return
		}
		msg, ok := m.Memory().Read(ptr, n)
		if !ok {
			return
		}
		svc.Log.Info("module entry", zap.ByteString("message", msg))
	}

	_, err := rt.NewHostModuleBuilder(hostModule).
		NewFunctionBuilder().WithFunc(resolve).Export("resolve").
		NewFunctionBuilder().WithFunc(logfn).Export("log").
		Instantiate(ctx)
	return err
}
