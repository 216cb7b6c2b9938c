package alloc

// Block is a contiguous allocation inside the arena's address space. Base is
// the block's byte address; Data aliases the arena's backing store for
// exactly the allocated range.
type Block struct {
	Base uint32
	Data []byte
}

// Size returns the block size in bytes.
func (b Block) Size() uint32 {
	return uint32(len(b.Data))
}

// Allocator hands out aligned blocks and takes back arbitrary subranges of
// them. Free with the block's own base and size releases it entirely;
// freeing a tail subrange shrinks it in place.
type Allocator interface {
	Allocate(size, align uint32) (Block, error)
	Free(base, size uint32) error
	// Bytes returns the backing store for a range previously handed out by
	// Allocate. It is how a caller re-slices a block after a partial free.
	Bytes(base, size uint32) []byte
}
