package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/studiowebux/apiquest/internal/collection"
	"github.com/studiowebux/apiquest/internal/errdef"
	"github.com/studiowebux/apiquest/internal/types"
)

// Document is the on-disk shape of an exported collection
type Document struct {
	Groups []types.Group `json:"groups" yaml:"groups"`
}

// Importer is the part of the store an import writes through
type Importer interface {
	Loader
	CreateGroup(name string) (int64, error)
	CreateRequest(groupID int64, req types.Request) (int64, error)
}

// ImportResult counts what an import changed
type ImportResult struct {
	Groups   int
	Requests int
	Skipped  []string
}

// Export writes the whole collection as yaml or json
func Export(w io.Writer, store Loader, format string) error {
	groups, err := store.LoadAll()
	if err != nil {
		return err
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	doc := Document{Groups: groups}

	switch format {
	case "", "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		return nil
	}
	return errdef.New(errdef.CodeValidation, "unknown export format %q (yaml, json)", format)
}

// ReadDocument parses an export file. The extension picks the decoder:
// .yaml/.yml for yaml, .json/.jsonc for JSON with comments allowed.
func ReadDocument(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ParseDocument(data, filepath.Ext(path))
}

// ParseDocument decodes data in the format named by ext
func ParseDocument(data []byte, ext string) (Document, error) {
	var doc Document
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return Document{}, errdef.Wrap(errdef.CodeValidation, err, "invalid yaml")
		}
	case ".json", ".jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), &doc); err != nil {
			return Document{}, errdef.Wrap(errdef.CodeValidation, err, "invalid json")
		}
	default:
		return Document{}, errdef.New(errdef.CodeValidation, "unsupported file type %q (yaml, yml, json, jsonc)", ext)
	}
	return doc, nil
}

// Import adds the groups and requests of doc to store. Existing groups are
// merged into; a request whose name already exists in its group is skipped.
// The document is validated as a whole before anything is written.
func Import(store Importer, doc Document) (ImportResult, error) {
	var result ImportResult

	existing, err := store.LoadAll()
	if err != nil {
		return result, err
	}
	coll, err := collection.FromGroups(existing)
	if err != nil {
		return result, err
	}
	groupIDs := make(map[string]int64, len(existing))
	for _, g := range existing {
		groupIDs[g.Name] = g.ID
	}

	planned := make([]types.Group, 0, len(doc.Groups))
	for _, g := range doc.Groups {
		name := strings.TrimSpace(g.Name)
		if name == "" {
			return result, collection.ErrEmptyName
		}
		group := types.Group{Name: name}
		for _, r := range g.Requests {
			req, err := normalizeRequest(r)
			if err != nil {
				return result, errdef.Wrap(errdef.CodeValidation, err, "group %q", name)
			}
			group.Requests = append(group.Requests, req)
		}
		planned = append(planned, group)
	}

	for _, g := range planned {
		if _, ok := groupIDs[g.Name]; !ok {
			id, err := store.CreateGroup(g.Name)
			if err != nil {
				return result, err
			}
			if err := coll.AddGroup(types.Group{ID: id, Name: g.Name}); err != nil {
				return result, err
			}
			groupIDs[g.Name] = id
			result.Groups++
		}

		for _, req := range g.Requests {
			if err := coll.ValidateNewRequest(g.Name, req.Name); err != nil {
				result.Skipped = append(result.Skipped, g.Name+"/"+req.Name)
				continue
			}
			id, err := store.CreateRequest(groupIDs[g.Name], req)
			if err != nil {
				return result, err
			}
			req.ID = id
			if err := coll.AddRequest(g.Name, req); err != nil {
				return result, err
			}
			result.Requests++
		}
	}
	return result, nil
}

// normalizeRequest rebuilds r through the model so derived state (the
// Authorization header) is recomputed instead of trusted
func normalizeRequest(r types.Request) (types.Request, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return types.Request{}, collection.ErrEmptyName
	}

	method := types.MethodGet
	if r.Method != "" {
		m, ok := types.ParseMethod(string(r.Method))
		if !ok {
			return types.Request{}, errdef.New(errdef.CodeValidation, "request %q: unsupported method %q", name, r.Method)
		}
		method = m
	}

	req := types.NewRequest(name, method)
	req.Details.URL = r.Details.URL
	req.Details.Body = r.Details.Body
	for k, v := range r.Details.Params {
		req.Details.Params[k] = v
	}
	for k, v := range r.Details.Headers {
		if !types.IsAuthorizationHeader(k) {
			req.Details.Headers[k] = v
		}
	}

	req.Details.SetAuthType(types.ParseAuthType(string(r.Details.AuthType)))
	if req.Details.AuthType == types.AuthBasic && r.Details.Basic != nil {
		basic := *r.Details.Basic
		req.Details.Basic = &basic
		req.Details.SyncAuthorization()
	}
	return req, nil
}
