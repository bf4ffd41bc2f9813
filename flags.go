package memfs

// OpenFlag selects the access mode and behavior of an [Context.Open]
// call. The values mirror the conventional O_* bits, so exactly one of
// O_RDONLY, O_WRONLY or O_RDWR must be given, OR'd with any of the
// remaining flags.
type OpenFlag int

const (
	O_RDONLY OpenFlag = 0x0
	O_WRONLY OpenFlag = 0x1
	O_RDWR   OpenFlag = 0x2

	// O_CREATE creates the file if it does not exist.
	O_CREATE OpenFlag = 0x40
	// O_EXCL makes O_CREATE fail when the path already exists. It has no
	// effect without O_CREATE.
	O_EXCL OpenFlag = 0x80
	// O_TRUNC discards existing content on open. Requires a writable
	// access mode.
	O_TRUNC OpenFlag = 0x200
	// O_APPEND makes every write land atomically at the end of file,
	// ignoring the descriptor position.
	O_APPEND OpenFlag = 0x400

	// O_ACCMODE masks the access mode bits.
	O_ACCMODE OpenFlag = 0x3
)

func (f OpenFlag) has(bit OpenFlag) bool {
	return f&bit != 0
}

func (f OpenFlag) accessMode() OpenFlag {
	return f & O_ACCMODE
}

func (f OpenFlag) readable() bool {
	mode := f.accessMode()
	return mode == O_RDONLY || mode == O_RDWR
}

func (f OpenFlag) writable() bool {
	mode := f.accessMode()
	return mode == O_WRONLY || mode == O_RDWR
}
