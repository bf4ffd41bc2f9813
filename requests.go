package memfs

// NodeRequest has common fields embedded in concrete request types
type NodeRequest struct {
	Path string
	Type NodeCreateRequestType
	UUID string // Optional UUID to enable correlating results at request time
}

// NodeCreateRequestType valid types are FileNodeType "file", DirNodeType "dir"
type NodeCreateRequestType string

const (
	FileNodeType NodeCreateRequestType = "file"
	DirNodeType  NodeCreateRequestType = "dir"
)

// Implement NodeRequestor interface for the base type
func (r *NodeRequest) GetType() NodeCreateRequestType {
	return r.Type
}

func (r *NodeRequest) GetPath() string {
	return r.Path
}

// FileCreateRequest seeds a regular file with its initial content.
type FileCreateRequest struct {
	NodeRequest
	Content []byte
}

// DirCreateRequest seeds a directory, parents included.
type DirCreateRequest struct {
	NodeRequest
}
