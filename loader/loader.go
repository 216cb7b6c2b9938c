package loader

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/modware/mod-runtime/alloc"
	"github.com/modware/mod-runtime/errors"
	"github.com/modware/mod-runtime/mod"
	"github.com/modware/mod-runtime/symbol"
)

// Source supplies a module image. Len is what the source claims to hold;
// Bytes is what it actually yields. A source that yields fewer bytes than it
// reported is treated as truncated, not merely invalid.
type Source interface {
	// Name identifies the source for handles, logs, and errors.
	Name() string
	// Len returns the source's reported size in bytes.
	Len() int
	// Bytes yields the image bytes.
	Bytes() ([]byte, error)
}

// Config carries the loader's collaborators. Zero fields get defaults:
// a fresh arena of alloc.DefaultArenaSize and no entry invoker.
type Config struct {
	// Allocator places module images. Defaults to a new Arena.
	Allocator alloc.Allocator
	// Invoker runs init and cleanup entry points. When nil, any module
	// declaring an init entry fails to load.
	Invoker Invoker
}

// addressableUnits is the highest base a patched base word can express.
const addressableUnits = 1 << 16

// Loader owns module instances from first byte to final free.
type Loader struct {
	mu       sync.Mutex
	alloc    alloc.Allocator
	registry *symbol.Registry
	invoker  Invoker

	nextID  uint32
	modules map[uint32]*Module
}

// New creates a loader from cfg. A nil cfg means all defaults.
func New(cfg *Config) *Loader {
	if cfg == nil {
		cfg = &Config{}
	}
	a := cfg.Allocator
	if a == nil {
		a = alloc.NewArena(alloc.DefaultArenaSize)
	}
	return &Loader{
		alloc:    a,
		registry: symbol.NewRegistry(),
		invoker:  cfg.Invoker,
		nextID:   1,
		modules:  make(map[uint32]*Module),
	}
}

// Load runs a source through the full pipeline and returns a Resident
// module. On any failure the completed steps are unwound in reverse and the
// returned error carries the failing phase; nothing of the attempt remains
// in the allocator or the registry.
func (l *Loader) Load(ctx context.Context, src Source) (*Module, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	m := &Module{id: l.nextID, name: src.Name(), state: StateDiscovered}
	l.nextID++

	if err := l.load(ctx, m, src); err != nil {
		Logger().Warn("module load failed",
			zap.String("module", m.name),
			zap.Uint32("id", m.id),
			zap.String("state", m.state.String()),
			zap.Error(err))
		l.unwind(m)
		return nil, err
	}

	l.modules[m.id] = m
	Logger().Info("module resident",
		zap.String("module", m.name),
		zap.Uint32("id", m.id),
		zap.Uint32("base", m.block.Base),
		zap.Uint16("total_units", m.header.TotalUnits),
		zap.Uint16("resident_units", m.header.ResidentUnits))
	return m, nil
}

func (l *Loader) load(ctx context.Context, m *Module, src Source) error {
	data, err := src.Bytes()
	if err != nil {
		return errors.Wrap(errors.PhaseValidate, errors.KindInvalidInput, err,
			"source failed to yield image bytes")
	}

	// Validation. Everything here runs before any allocation, so a rejected
	// image costs no memory.
	h, err := mod.ParseHeader(data)
	if err != nil {
		return err
	}
	if len(data) < src.Len() && uint32(src.Len()) == h.TotalBytes() {
		// The source reported the declared size but delivered less.
		return errors.TruncatedImage(int(h.TotalBytes()), len(data))
	}
	if err := mod.ValidateImage(h, data); err != nil {
		return err
	}
	relocs, err := mod.ParseRelocations(h, data)
	if err != nil {
		return err
	}
	exports, err := mod.ParseExports(h, data)
	if err != nil {
		return err
	}
	m.header = h
	m.state = StateValidated

	// Allocation. The whole image, cold region included, is placed as one
	// block so the cold tail can be freed in place later.
	block, err := l.alloc.Allocate(h.TotalBytes(), h.AlignmentBytes())
	if err != nil {
		return errors.New(errors.PhaseAllocate, errors.KindOutOfMemory).
			Detail("failed to allocate %d bytes (align %d)", h.TotalBytes(), h.AlignmentBytes()).
			Cause(err).Build()
	}
	m.block = block
	m.state = StateAllocated
	if block.Base%mod.UnitSize != 0 || block.Base/mod.UnitSize+uint32(h.TotalUnits) > addressableUnits {
		return errors.New(errors.PhaseAllocate, errors.KindOutOfMemory).
			Detail("block at %d does not fit the unit address space", block.Base).Build()
	}

	// Load: image copy plus BSS zero-fill. The BSS range sits at the end of
	// the resident region; its file content is scratch and is overwritten.
	copy(block.Data, data)
	bssStart := h.ResidentBytes() - h.BSSBytes()
	clear(block.Data[bssStart:h.ResidentBytes()])
	m.state = StateLoaded

	baseUnits := uint16(block.Base / mod.UnitSize)
	if err := applyRelocations(block.Data, baseUnits, relocs); err != nil {
		return err
	}
	m.state = StateRelocated

	// Publish. The batch covers every export; the registry takes it
	// all-or-nothing.
	batch := make([]symbol.Entry, len(exports))
	for i := range exports {
		batch[i] = symbol.Entry{
			Name:    exports[i].Name(),
			Address: block.Base + uint32(exports[i].Offset),
			Flags:   exports[i].Flags,
			Owner:   m.id,
		}
		if exports[i].IsCleanup() {
			m.cleanupOffset = uint32(exports[i].Offset)
			m.hasCleanup = true
		}
	}
	if err := l.registry.Publish(m.id, batch); err != nil {
		return err
	}
	m.published = true
	m.state = StateSymbolsPublished

	// Init. Offset zero means the module has no init entry.
	if h.InitEntryOffset != 0 {
		status, err := l.invoke(ctx, m, EntryInit, h.InitEntryOffset)
		if err != nil {
			return err
		}
		if status != StatusOK {
			return errors.InitFailed(int32(status))
		}
	}
	m.state = StateResident
	return nil
}

// invoke runs one entry point through the configured invoker.
func (l *Loader) invoke(ctx context.Context, m *Module, kind EntryKind, offset uint32) (Status, error) {
	phase := errors.PhaseInit
	if kind == EntryCleanup {
		phase = errors.PhaseUnload
	}
	if l.invoker == nil {
		return 0, errors.New(phase, errors.KindInitFailed).
			Detail("module declares a %s entry but no invoker is configured", kind).Build()
	}
	status, err := l.invoker.Invoke(ctx, EntryCall{
		Kind:       kind,
		ModuleID:   m.id,
		ModuleName: m.name,
		Memory:     m.block.Data,
		Base:       m.block.Base,
		Offset:     offset,
		Services:   l.services(),
	})
	if err != nil {
		return status, errors.Wrap(phase, errors.KindInitFailed, err,
			kind.String()+" entry did not complete")
	}
	return status, nil
}

// services builds the core service table entry points receive.
func (l *Loader) services() *Services {
	return &Services{
		Version: ServicesVersion,
		Resolve: l.Resolve,
		Log:     Logger(),
	}
}

// unwind rolls back a failed load in reverse step order and parks the
// instance in StateFailed.
func (l *Loader) unwind(m *Module) {
	if m.published {
		l.registry.Revoke(m.id)
		m.published = false
	}
	if m.state >= StateAllocated {
		if err := l.alloc.Free(m.block.Base, m.block.Size()); err != nil {
			Logger().Error("unwind free failed",
				zap.String("module", m.name), zap.Error(err))
		}
		m.block = alloc.Block{}
	}
	m.state = StateFailed
}

// Resolve looks up a published symbol. It is safe to call concurrently with
// load and unload; a module's exports appear and vanish as a unit.
func (l *Loader) Resolve(name string) (uint32, bool) {
	e, ok := l.registry.Lookup(name)
	if !ok {
		return 0, false
	}
	return e.Address, true
}

// DiscardCold releases a resident module's init-only tail. The first call
// frees exactly the cold region; later calls are no-ops. A module with no
// cold region is treated as already discarded.
func (l *Loader) DiscardCold(m *Module) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if m.state != StateResident {
		return errors.InvalidState(errors.PhaseDiscard, "discard", m.state.String())
	}
	if m.discarded || m.header.ColdUnits == 0 {
		m.discarded = true
		return nil
	}

	h := m.header
	if err := l.alloc.Free(m.block.Base+h.ResidentBytes(), h.ColdBytes()); err != nil {
		return errors.Wrap(errors.PhaseDiscard, errors.KindInvalidInput, err,
			"allocator refused the cold range")
	}
	m.block.Data = l.alloc.Bytes(m.block.Base, h.ResidentBytes())
	m.discarded = true

	Logger().Debug("cold region discarded",
		zap.String("module", m.name),
		zap.Uint32("id", m.id),
		zap.Uint32("freed_bytes", h.ColdBytes()))
	return nil
}

// Unload tears down a resident module: run its cleanup entry if it declared
// one, revoke its symbols, and free its memory. The cleanup entry runs while
// the module's symbols are still resolvable. A failing cleanup is logged but
// does not stop the teardown.
func (l *Loader) Unload(ctx context.Context, m *Module) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if m.state != StateResident {
		return errors.InvalidState(errors.PhaseUnload, "unload", m.state.String())
	}
	m.state = StateUnloading

	if m.hasCleanup {
		status, err := l.invoke(ctx, m, EntryCleanup, m.cleanupOffset)
		if err != nil {
			Logger().Warn("cleanup entry failed",
				zap.String("module", m.name), zap.Error(err))
		} else if status != StatusOK {
			Logger().Warn("cleanup entry reported failure",
				zap.String("module", m.name), zap.Int32("status", int32(status)))
		}
	}

	l.registry.Revoke(m.id)
	m.published = false

	if err := l.alloc.Free(m.block.Base, m.block.Size()); err != nil {
		m.state = StateFailed
		return errors.Wrap(errors.PhaseUnload, errors.KindInvalidInput, err,
			"allocator refused the module block")
	}
	m.block = alloc.Block{}
	m.state = StateFreed
	delete(l.modules, m.id)

	Logger().Info("module unloaded",
		zap.String("module", m.name), zap.Uint32("id", m.id))
	return nil
}

// QueryFootprint reports a module's current and long-term memory demand in
// 16-byte units. It answers for any instance that still holds memory.
func (l *Loader) QueryFootprint(m *Module) (Footprint, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if m.state.terminal() || m.header == nil {
		return Footprint{}, errors.InvalidState(errors.PhaseConfig, "footprint query", m.state.String())
	}
	return m.footprint(), nil
}

// Modules returns the currently tracked instances in id order.
func (l *Loader) Modules() []*Module {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]*Module, 0, len(l.modules))
	for _, m := range l.modules {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// Symbols returns a stable snapshot of every published symbol.
func (l *Loader) Symbols() []symbol.Entry {
	return l.registry.Snapshot()
}

// BytesSource is an in-memory Source.
type BytesSource struct {
	ImageName string
	Image     []byte
}

// Name returns the source's name.
func (s *BytesSource) Name() string { return s.ImageName }

// Len returns the image length.
func (s *BytesSource) Len() int { return len(s.Image) }

// Bytes returns the image.
func (s *BytesSource) Bytes() ([]byte, error) { return s.Image, nil }
