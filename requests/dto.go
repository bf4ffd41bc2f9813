package requests

import (
	"github.com/glacya/memfs"
)

// NodeRequestDTO is the wire representation of [memfs.NodeRequest]
type NodeRequestDTO struct {
	Path string                      `json:"path" yaml:"path"`
	Type memfs.NodeCreateRequestType `json:"type" yaml:"type"`
	UUID *string                     `json:"uuid,omitempty" yaml:"uuid,omitempty"` // Optional UUID to enable linking at request time
}

// FileRequestDTO is the wire representation of [memfs.FileCreateRequest]
//
// Content travels as a string; Encoding says how to read it:
//
//	"utf8"   - the string bytes are the file content (default)
//	"base64" - the string is standard base64 of the file content
type FileRequestDTO struct {
	NodeRequestDTO `yaml:",inline"`
	Content        *string `json:"content,omitempty" yaml:"content,omitempty"`
	Encoding       *string `json:"encoding,omitempty" yaml:"encoding,omitempty"`
}

type DirRequestDTO struct {
	NodeRequestDTO `yaml:",inline"`
}
