package alloc

// Recorder wraps an Allocator and counts successful calls. Tests use it to
// assert that every allocation on a failure path is matched by a free.
type Recorder struct {
	Inner Allocator

	Allocs int
	Frees  int
}

// NewRecorder wraps inner in a call-counting probe.
func NewRecorder(inner Allocator) *Recorder {
	return &Recorder{Inner: inner}
}

func (r *Recorder) Allocate(size, align uint32) (Block, error) {
	b, err := r.Inner.Allocate(size, align)
	if err == nil {
		r.Allocs++
	}
	return b, err
}

func (r *Recorder) Free(base, size uint32) error {
	err := r.Inner.Free(base, size)
	if err == nil {
		r.Frees++
	}
	return err
}

func (r *Recorder) Bytes(base, size uint32) []byte {
	return r.Inner.Bytes(base, size)
}
