package requests

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/glacya/memfs"
	"github.com/glacya/memfs/internal/util"
)

// GetNodeType extracts the node type from JSON without full unmarshaling
func GetNodeType(data []byte) (memfs.NodeCreateRequestType, error) {
	var meta struct {
		Type memfs.NodeCreateRequestType `json:"type"`
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return "", err
	}
	return meta.Type, nil
}

// UnmarshalFileRequest handles file-specific unmarshaling with content decoding
func UnmarshalFileRequest(data []byte) (*memfs.FileCreateRequest, error) {
	var dto FileRequestDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, err
	}

	content, err := decodeContent(dto.Content, dto.Encoding)
	if err != nil {
		return nil, fmt.Errorf("file request %s: %w", dto.Path, err)
	}

	return &memfs.FileCreateRequest{
		NodeRequest: convertNodeDTO(dto.NodeRequestDTO),
		Content:     content,
	}, nil
}

// UnmarshalDirRequest handles explicit directory unmarshaling (no content)
func UnmarshalDirRequest(data []byte) (*memfs.DirCreateRequest, error) {
	var dto DirRequestDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, err
	}

	return &memfs.DirCreateRequest{
		NodeRequest: convertNodeDTO(dto.NodeRequestDTO),
	}, nil
}

// UnmarshalNodeRequests parses a JSON array of create requests,
// dispatching each element on its "type" field
func UnmarshalNodeRequests(data []byte) ([]memfs.NodeRequestor, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	reqs := make([]memfs.NodeRequestor, 0, len(raw))
	for i, element := range raw {
		nodeType, err := GetNodeType(element)
		if err != nil {
			return nil, fmt.Errorf("request %d: %w", i, err)
		}

		var req memfs.NodeRequestor
		switch nodeType {
		case memfs.FileNodeType:
			req, err = UnmarshalFileRequest(element)
		case memfs.DirNodeType:
			req, err = UnmarshalDirRequest(element)
		default:
			return nil, fmt.Errorf("request %d: unknown node type %q", i, nodeType)
		}
		if err != nil {
			return nil, fmt.Errorf("request %d: %w", i, err)
		}
		reqs = append(reqs, req)
	}

	return reqs, nil
}

// UnmarshalNodeRequestsYAML parses a YAML sequence of create requests,
// dispatching each element on its "type" field
func UnmarshalNodeRequestsYAML(data []byte) ([]memfs.NodeRequestor, error) {
	var elements []yaml.Node
	if err := yaml.Unmarshal(data, &elements); err != nil {
		return nil, err
	}

	reqs := make([]memfs.NodeRequestor, 0, len(elements))
	for i, element := range elements {
		var meta struct {
			Type memfs.NodeCreateRequestType `yaml:"type"`
		}
		if err := element.Decode(&meta); err != nil {
			return nil, fmt.Errorf("request %d: %w", i, err)
		}

		switch meta.Type {
		case memfs.FileNodeType:
			var dto FileRequestDTO
			if err := element.Decode(&dto); err != nil {
				return nil, fmt.Errorf("request %d: %w", i, err)
			}
			content, err := decodeContent(dto.Content, dto.Encoding)
			if err != nil {
				return nil, fmt.Errorf("request %d: file request %s: %w", i, dto.Path, err)
			}
			reqs = append(reqs, &memfs.FileCreateRequest{
				NodeRequest: convertNodeDTO(dto.NodeRequestDTO),
				Content:     content,
			})
		case memfs.DirNodeType:
			var dto DirRequestDTO
			if err := element.Decode(&dto); err != nil {
				return nil, fmt.Errorf("request %d: %w", i, err)
			}
			reqs = append(reqs, &memfs.DirCreateRequest{
				NodeRequest: convertNodeDTO(dto.NodeRequestDTO),
			})
		default:
			return nil, fmt.Errorf("request %d: unknown node type %q", i, meta.Type)
		}
	}

	return reqs, nil
}

// LoadFile reads a batch of create requests from a .json, .yaml or .yml file
func LoadFile(path string) ([]memfs.NodeRequestor, error) {
	logger := util.GetLogger("Requests.LoadFile")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load requests: %w", err)
	}

	var reqs []memfs.NodeRequestor
	switch ext := filepath.Ext(path); ext {
	case ".json":
		reqs, err = UnmarshalNodeRequests(data)
	case ".yaml", ".yml":
		reqs, err = UnmarshalNodeRequestsYAML(data)
	default:
		return nil, fmt.Errorf("load requests %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("load requests %s: %w", path, err)
	}

	logger.Debug().Str("path", path).Int("count", len(reqs)).Msg("Loaded node requests")
	return reqs, nil
}

// decodeContent turns the wire string into file bytes per the encoding field
func decodeContent(content, encoding *string) ([]byte, error) {
	if content == nil {
		return nil, nil
	}
	switch enc := valueOrDefault(encoding, "utf8"); enc {
	case "utf8", "":
		return []byte(*content), nil
	case "base64":
		decoded, err := base64.StdEncoding.DecodeString(*content)
		if err != nil {
			return nil, fmt.Errorf("decode base64 content: %w", err)
		}
		return decoded, nil
	default:
		return nil, fmt.Errorf("unknown content encoding %q", enc)
	}
}

// Conversion logic with defaults in the unmarshaling layer
func convertNodeDTO(dto NodeRequestDTO) memfs.NodeRequest {
	return memfs.NodeRequest{
		Path: dto.Path,
		Type: dto.Type,
		UUID: valueOrDefault(dto.UUID, uuid.New().String()),
	}
}

func valueOrDefault[T any](ptr *T, defaultVal T) T {
	if ptr != nil {
		return *ptr
	}
	return defaultVal
}
