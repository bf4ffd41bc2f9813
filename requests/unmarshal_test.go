package requests

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glacya/memfs"
)

func TestGetNodeType(t *testing.T) {
	t.Parallel()

	nodeType, err := GetNodeType([]byte(`{"path": "/a.txt", "type": "file"}`))
	require.NoError(t, err)
	assert.Equal(t, memfs.FileNodeType, nodeType)

	nodeType, err = GetNodeType([]byte(`{"path": "/a", "type": "dir"}`))
	require.NoError(t, err)
	assert.Equal(t, memfs.DirNodeType, nodeType)

	// Absent type probes as empty
	nodeType, err = GetNodeType([]byte(`{"path": "/a.txt"}`))
	require.NoError(t, err)
	assert.Equal(t, memfs.NodeCreateRequestType(""), nodeType)

	_, err = GetNodeType([]byte(`{not json`))
	assert.Error(t, err)
}

func TestUnmarshalFileRequest(t *testing.T) {
	t.Parallel()

	t.Run("PlainContent", func(t *testing.T) {
		req, err := UnmarshalFileRequest([]byte(`{
			"path": "/etc/hosts",
			"type": "file",
			"content": "localhost"
		}`))
		require.NoError(t, err)

		assert.Equal(t, "/etc/hosts", req.Path)
		assert.Equal(t, memfs.FileNodeType, req.Type)
		assert.Equal(t, []byte("localhost"), req.Content)
		// A UUID is generated when the request does not carry one
		assert.NotEmpty(t, req.UUID)
	})

	t.Run("Base64Content", func(t *testing.T) {
		req, err := UnmarshalFileRequest([]byte(`{
			"path": "/bin/tool",
			"type": "file",
			"content": "aGVsbG8=",
			"encoding": "base64"
		}`))
		require.NoError(t, err)
		assert.Equal(t, []byte("hello"), req.Content)
	})

	t.Run("ExplicitUUID", func(t *testing.T) {
		req, err := UnmarshalFileRequest([]byte(`{
			"path": "/a.txt",
			"type": "file",
			"uuid": "fixed-id"
		}`))
		require.NoError(t, err)
		assert.Equal(t, "fixed-id", req.UUID)
		assert.Nil(t, req.Content)
	})

	t.Run("BadBase64", func(t *testing.T) {
		_, err := UnmarshalFileRequest([]byte(`{
			"path": "/bad.bin",
			"type": "file",
			"content": "not base64!!!",
			"encoding": "base64"
		}`))
		assert.Error(t, err)
	})

	t.Run("UnknownEncoding", func(t *testing.T) {
		_, err := UnmarshalFileRequest([]byte(`{
			"path": "/odd.bin",
			"type": "file",
			"content": "data",
			"encoding": "rot13"
		}`))
		assert.ErrorContains(t, err, "unknown content encoding")
	})
}

func TestUnmarshalDirRequest(t *testing.T) {
	t.Parallel()

	req, err := UnmarshalDirRequest([]byte(`{"path": "/var/log", "type": "dir"}`))
	require.NoError(t, err)
	assert.Equal(t, "/var/log", req.Path)
	assert.Equal(t, memfs.DirNodeType, req.Type)
	assert.NotEmpty(t, req.UUID)
}

func TestUnmarshalNodeRequests(t *testing.T) {
	t.Parallel()

	t.Run("Mixed", func(t *testing.T) {
		reqs, err := UnmarshalNodeRequests([]byte(`[
			{"path": "/etc", "type": "dir"},
			{"path": "/etc/hosts", "type": "file", "content": "localhost"}
		]`))
		require.NoError(t, err)
		require.Len(t, reqs, 2)

		dir, ok := reqs[0].(*memfs.DirCreateRequest)
		require.True(t, ok)
		assert.Equal(t, "/etc", dir.GetPath())

		file, ok := reqs[1].(*memfs.FileCreateRequest)
		require.True(t, ok)
		assert.Equal(t, "/etc/hosts", file.GetPath())
		assert.Equal(t, []byte("localhost"), file.Content)
	})

	t.Run("UnknownType", func(t *testing.T) {
		_, err := UnmarshalNodeRequests([]byte(`[{"path": "/a", "type": "symlink"}]`))
		assert.ErrorContains(t, err, "unknown node type")
	})

	t.Run("NotAnArray", func(t *testing.T) {
		_, err := UnmarshalNodeRequests([]byte(`{"path": "/a", "type": "dir"}`))
		assert.Error(t, err)
	})

	t.Run("Empty", func(t *testing.T) {
		reqs, err := UnmarshalNodeRequests([]byte(`[]`))
		require.NoError(t, err)
		assert.Empty(t, reqs)
	})
}

func TestUnmarshalNodeRequestsYAML(t *testing.T) {
	t.Parallel()

	t.Run("Mixed", func(t *testing.T) {
		reqs, err := UnmarshalNodeRequestsYAML([]byte(`
- path: /etc
  type: dir
- path: /etc/hosts
  type: file
  content: localhost
- path: /bin/tool
  type: file
  content: aGVsbG8=
  encoding: base64
  uuid: fixed-id
`))
		require.NoError(t, err)
		require.Len(t, reqs, 3)

		file, ok := reqs[2].(*memfs.FileCreateRequest)
		require.True(t, ok)
		assert.Equal(t, "/bin/tool", file.GetPath())
		assert.Equal(t, []byte("hello"), file.Content)
		assert.Equal(t, "fixed-id", file.UUID)
	})

	t.Run("UnknownType", func(t *testing.T) {
		_, err := UnmarshalNodeRequestsYAML([]byte("- path: /a\n  type: link\n"))
		assert.ErrorContains(t, err, "unknown node type")
	})
}

func TestDecodeContent(t *testing.T) {
	t.Parallel()

	content := "payload"
	encoding := "utf8"

	data, err := decodeContent(nil, nil)
	require.NoError(t, err)
	assert.Nil(t, data)

	data, err = decodeContent(&content, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)

	data, err = decodeContent(&content, &encoding)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	t.Run("JSON", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "seed.json")
		require.NoError(t, os.WriteFile(path, []byte(`[
			{"path": "/data", "type": "dir"},
			{"path": "/data/blob.bin", "type": "file", "content": "aGVsbG8=", "encoding": "base64"}
		]`), 0o644))

		reqs, err := LoadFile(path)
		require.NoError(t, err)
		assert.Len(t, reqs, 2)
	})

	t.Run("YAML", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "seed.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
- path: /etc
  type: dir
- path: /etc/motd
  type: file
  content: welcome
`), 0o644))

		reqs, err := LoadFile(path)
		require.NoError(t, err)
		assert.Len(t, reqs, 2)
	})

	t.Run("SeedsFilesystem", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "seed.yml")
		require.NoError(t, os.WriteFile(path, []byte(`
- path: /srv/www
  type: dir
- path: /srv/www/index.html
  type: file
  content: <html></html>
`), 0o644))

		reqs, err := LoadFile(path)
		require.NoError(t, err)

		fs := memfs.New(nil)
		dirs, files := fs.Seed(reqs)
		assert.Equal(t, 1, dirs)
		assert.Equal(t, 1, files)

		ctx := fs.NewContext()
		defer ctx.Release()
		fd, err := ctx.Open("/srv/www/index.html", memfs.O_RDONLY)
		require.NoError(t, err)
		data, err := ctx.Read(fd, 64)
		require.NoError(t, err)
		assert.Equal(t, []byte("<html></html>"), data)
		require.NoError(t, ctx.Close(fd))
	})

	t.Run("UnsupportedExtension", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "seed.toml")
		require.NoError(t, os.WriteFile(path, []byte("x = 1"), 0o644))

		_, err := LoadFile(path)
		assert.ErrorContains(t, err, "unsupported extension")
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "absent.json"))
		assert.Error(t, err)
	})
}
