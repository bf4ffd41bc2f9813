package memfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glacya/memfs/config"
)

// Test helpers to build seed requests
func newFileRequest(path string, content []byte) *FileCreateRequest {
	return &FileCreateRequest{
		NodeRequest: NodeRequest{Path: path, Type: FileNodeType},
		Content:     content,
	}
}

func newDirRequest(path string) *DirCreateRequest {
	return &DirCreateRequest{
		NodeRequest: NodeRequest{Path: path, Type: DirNodeType},
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("NilConfigUsesDefaults", func(t *testing.T) {
		fs := New(nil)

		stats := fs.Stats()
		assert.Equal(t, int64(1), stats.Dirs)
		assert.Equal(t, int64(0), stats.Files)

		ctx := fs.NewContext()
		defer ctx.Release()
		wd, err := ctx.Getwd()
		require.NoError(t, err)
		assert.Equal(t, "/", wd)
	})

	t.Run("CustomConfig", func(t *testing.T) {
		cfg := config.NewDefaultConfig()
		cfg.MaxOpenFiles = 1
		ctx := New(cfg).NewContext()
		defer ctx.Release()

		_, err := ctx.Open("only.txt", O_CREATE|O_WRONLY)
		require.NoError(t, err)
		_, err = ctx.Open("only.txt", O_WRONLY)
		assert.ErrorIs(t, err, ErrTooManyOpenFiles)
	})
}

func TestMemFS_AddFileNode(t *testing.T) {
	t.Parallel()

	t.Run("Basic", func(t *testing.T) {
		fs := New(nil)

		info, err := fs.AddFileNode(newFileRequest("/docs/readme.md", []byte("hello")))
		require.NoError(t, err)
		assert.Equal(t, "readme.md", info.Name)
		assert.Equal(t, "/docs/readme.md", info.Path)
		assert.Equal(t, KindFile, info.Kind)
		assert.Equal(t, int64(5), info.Size)

		// Parent directories are created on the way
		ctx := fs.NewContext()
		defer ctx.Release()
		parent, err := ctx.Stat("/docs")
		require.NoError(t, err)
		assert.Equal(t, KindDir, parent.Kind)
		assert.Equal(t, []byte("hello"), readTestFile(t, ctx, "/docs/readme.md"))
	})

	t.Run("AtRoot", func(t *testing.T) {
		fs := New(nil)

		info, err := fs.AddFileNode(newFileRequest("/top.txt", nil))
		require.NoError(t, err)
		assert.Equal(t, "/top.txt", info.Path)
		assert.Equal(t, int64(0), info.Size)
	})

	t.Run("Duplicate", func(t *testing.T) {
		fs := New(nil)

		_, err := fs.AddFileNode(newFileRequest("/once.txt", nil))
		require.NoError(t, err)
		_, err = fs.AddFileNode(newFileRequest("/once.txt", []byte("again")))
		assert.ErrorIs(t, err, ErrExist)
	})

	t.Run("DirectoryPath", func(t *testing.T) {
		fs := New(nil)

		_, err := fs.AddFileNode(newFileRequest("/docs/", nil))
		assert.ErrorIs(t, err, ErrInvalid)
		_, err = fs.AddFileNode(newFileRequest("/", nil))
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("ThroughFile", func(t *testing.T) {
		fs := New(nil)

		_, err := fs.AddFileNode(newFileRequest("/wall.txt", nil))
		require.NoError(t, err)
		_, err = fs.AddFileNode(newFileRequest("/wall.txt/below.txt", nil))
		assert.ErrorIs(t, err, ErrNotDir)
	})

	t.Run("ContentOverLimit", func(t *testing.T) {
		cfg := config.NewDefaultConfig()
		cfg.MaxFileSize = 4
		fs := New(cfg)

		_, err := fs.AddFileNode(newFileRequest("/big.bin", []byte("way past the cap")))
		assert.ErrorIs(t, err, ErrFileTooLarge)

		// The failed seed leaves no file behind
		ctx := fs.NewContext()
		defer ctx.Release()
		_, err = ctx.Stat("/big.bin")
		assert.ErrorIs(t, err, ErrNotExist)
		assert.Equal(t, int64(0), fs.Stats().Files)
		assert.Equal(t, int64(0), fs.Stats().Bytes)
	})
}

func TestMemFS_AddDirNode(t *testing.T) {
	t.Parallel()

	t.Run("Nested", func(t *testing.T) {
		fs := New(nil)

		info, err := fs.AddDirNode(newDirRequest("/a/b/c"))
		require.NoError(t, err)
		assert.Equal(t, "/a/b/c", info.Path)
		assert.Equal(t, KindDir, info.Kind)
		assert.Equal(t, int64(4), fs.Stats().Dirs)
	})

	t.Run("ExistingDirectory", func(t *testing.T) {
		fs := New(nil)

		first, err := fs.AddDirNode(newDirRequest("/cache"))
		require.NoError(t, err)
		second, err := fs.AddDirNode(newDirRequest("/cache"))
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, int64(2), fs.Stats().Dirs)
	})

	t.Run("FileInTheWay", func(t *testing.T) {
		fs := New(nil)

		_, err := fs.AddFileNode(newFileRequest("/wall.txt", nil))
		require.NoError(t, err)
		_, err = fs.AddDirNode(newDirRequest("/wall.txt"))
		assert.ErrorIs(t, err, ErrNotDir)
	})
}

func TestMemFS_Seed(t *testing.T) {
	t.Parallel()

	t.Run("Mixed", func(t *testing.T) {
		fs := New(nil)

		dirs, files := fs.Seed([]NodeRequestor{
			newDirRequest("/etc"),
			newDirRequest("/var/log"),
			newFileRequest("/etc/hosts", []byte("localhost")),
			newFileRequest("/var/log/boot.log", []byte("ok\n")),
		})
		assert.Equal(t, 2, dirs)
		assert.Equal(t, 2, files)

		ctx := fs.NewContext()
		defer ctx.Release()
		assert.Equal(t, []byte("localhost"), readTestFile(t, ctx, "/etc/hosts"))
		assert.Equal(t, []byte("ok\n"), readTestFile(t, ctx, "/var/log/boot.log"))
	})

	t.Run("DirectoriesFirst", func(t *testing.T) {
		fs := New(nil)

		// The file request precedes its directory in the batch
		dirs, files := fs.Seed([]NodeRequestor{
			newFileRequest("/pack/data.bin", []byte("1234")),
			newDirRequest("/pack"),
		})
		assert.Equal(t, 1, dirs)
		assert.Equal(t, 1, files)

		ctx := fs.NewContext()
		defer ctx.Release()
		info, err := ctx.Stat("/pack/data.bin")
		require.NoError(t, err)
		assert.Equal(t, int64(4), info.Size)
	})

	t.Run("SkipsFailures", func(t *testing.T) {
		fs := New(nil)
		_, err := fs.AddFileNode(newFileRequest("/wall.txt", nil))
		require.NoError(t, err)

		dirs, files := fs.Seed([]NodeRequestor{
			newDirRequest("/wall.txt/sub"),
			newFileRequest("/ok.txt", nil),
			newFileRequest("/ok.txt", []byte("duplicate")),
		})
		assert.Equal(t, 0, dirs)
		assert.Equal(t, 1, files)
	})

	t.Run("MismatchedType", func(t *testing.T) {
		fs := New(nil)

		// A file request claiming to be a directory seeds nothing
		bogus := newFileRequest("/odd.txt", nil)
		bogus.Type = DirNodeType
		dirs, files := fs.Seed([]NodeRequestor{bogus})
		assert.Equal(t, 0, dirs)
		assert.Equal(t, 0, files)
	})

	t.Run("Empty", func(t *testing.T) {
		fs := New(nil)

		dirs, files := fs.Seed(nil)
		assert.Equal(t, 0, dirs)
		assert.Equal(t, 0, files)
	})
}

func TestMemFS_Walk(t *testing.T) {
	t.Parallel()

	fs := New(nil)
	fs.Seed([]NodeRequestor{
		newDirRequest("/logs"),
		newFileRequest("/docs/readme.md", []byte("hi")),
		newFileRequest("/top.txt", nil),
	})

	type visit struct {
		depth int
		name  string
	}
	var visits []visit
	fs.Walk(func(depth int, info NodeInfo) {
		visits = append(visits, visit{depth, info.Name})
	})

	assert.Equal(t, []visit{
		{0, "/"},
		{1, "docs"},
		{2, "readme.md"},
		{1, "logs"},
		{1, "top.txt"},
	}, visits)
}

func TestMemFS_Stats(t *testing.T) {
	t.Parallel()

	fs := New(nil)
	fs.Seed([]NodeRequestor{
		newDirRequest("/data"),
		newFileRequest("/data/a.bin", []byte("12345")),
		newFileRequest("/data/b.bin", []byte("123")),
	})

	stats := fs.Stats()
	assert.Equal(t, int64(2), stats.Dirs)
	assert.Equal(t, int64(2), stats.Files)
	assert.Equal(t, int64(8), stats.Bytes)
	assert.Equal(t, int64(0), stats.OrphanedFiles)
	assert.Equal(t, int64(0), stats.OpenDescriptors)
}
