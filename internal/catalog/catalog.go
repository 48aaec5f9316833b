// Package catalog implements the system catalogs spec.md §1(d) treats as
// an opaque external collaborator (relCat/attrCat) and §4.6 consumes via
// getInfo/getRelInfo.
//
// Grounded on tuannm99-novasql's internal/catalog/model.go (TableMeta
// shape) and internal/engine/db.go's JSON read-modify-write persistence
// pattern (writeTableMeta/readTableMeta). The Datatype enum is narrowed
// from the teacher's six-variant record.ColumnType to spec.md's three
// (STRING, INTEGER, FLOAT), since the filter and attribute model never
// needs more than that.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Carina-TzuHsuan/CS564/internal/status"
)

// Datatype is spec.md's attribute type enum.
type Datatype int

const (
	STRING Datatype = iota
	INTEGER
	FLOAT
)

func (t Datatype) String() string {
	switch t {
	case STRING:
		return "STRING"
	case INTEGER:
		return "INTEGER"
	case FLOAT:
		return "FLOAT"
	default:
		return "UNKNOWN"
	}
}

// Sizeof returns the fixed byte width of an INTEGER or FLOAT attribute of
// this type, mirroring C's sizeof(int)/sizeof(float): both 4 bytes here.
func (t Datatype) Sizeof() int {
	switch t {
	case INTEGER, FLOAT:
		return 4
	default:
		return 0
	}
}

// AttrInfo describes one attribute as given by a caller creating a
// relation: name, type, and (for STRING) declared length.
type AttrInfo struct {
	Name   string   `json:"name"`
	Type   Datatype `json:"type"`
	Length int      `json:"length"`
}

// AttrDesc is the catalog's resolved attribute descriptor: physical
// offset and length within a tuple, as attrCat.getInfo returns in
// spec.md §4.6.
type AttrDesc struct {
	RelName    string   `json:"rel_name"`
	AttrName   string   `json:"attr_name"`
	AttrType   Datatype `json:"attr_type"`
	AttrLen    int      `json:"attr_len"`
	AttrOffset int      `json:"attr_offset"`
}

// RelDesc is the catalog's relation descriptor, as relCat.getInfo returns.
type RelDesc struct {
	RelName  string     `json:"rel_name"`
	AttrCnt  int        `json:"attr_cnt"`
	RecLen   int        `json:"rec_len"`
	Attrs    []AttrDesc `json:"attrs"`
}

// Catalog persists relation and attribute metadata as one JSON file per
// relation under dataDir, the way tuannm99-novasql's Database persists a
// TableMeta JSON file per table.
type Catalog struct {
	dataDir string
}

// New creates a Catalog rooted at dataDir.
func New(dataDir string) (*Catalog, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("catalog: create dir %s: %w", dataDir, err)
	}
	return &Catalog{dataDir: dataDir}, nil
}

func (c *Catalog) metaPath(relName string) string {
	return filepath.Join(c.dataDir, relName+".catalog.json")
}

// CreateRelation registers a new relation's schema, computing each
// attribute's physical offset and total record length. Fails with
// status.ErrRelExists if the relation is already registered.
func (c *Catalog) CreateRelation(relName string, attrs []AttrInfo) (RelDesc, error) {
	if _, err := os.Stat(c.metaPath(relName)); err == nil {
		return RelDesc{}, status.ErrRelExists
	}

	desc := RelDesc{RelName: relName, AttrCnt: len(attrs)}
	offset := 0
	for _, a := range attrs {
		length := a.Length
		if a.Type == INTEGER || a.Type == FLOAT {
			length = a.Type.Sizeof()
		}
		desc.Attrs = append(desc.Attrs, AttrDesc{
			RelName:    relName,
			AttrName:   a.Name,
			AttrType:   a.Type,
			AttrLen:    length,
			AttrOffset: offset,
		})
		offset += length
	}
	desc.RecLen = offset

	if err := c.write(relName, desc); err != nil {
		return RelDesc{}, err
	}
	return desc, nil
}

// DropRelation removes a relation's catalog entry. It does not touch the
// underlying heap file — callers that also want the data gone call
// heap.DestroyHeapFile separately.
func (c *Catalog) DropRelation(relName string) error {
	if err := os.Remove(c.metaPath(relName)); err != nil {
		if os.IsNotExist(err) {
			return status.ErrRelNotFound
		}
		return fmt.Errorf("catalog: drop %s: %w", relName, err)
	}
	return nil
}

func (c *Catalog) write(relName string, desc RelDesc) error {
	data, err := json.MarshalIndent(desc, "", "  ")
	if err != nil {
		return fmt.Errorf("catalog: marshal %s: %w", relName, err)
	}
	if err := os.WriteFile(c.metaPath(relName), data, 0o644); err != nil {
		return fmt.Errorf("catalog: write %s: %w", relName, err)
	}
	return nil
}

func (c *Catalog) read(relName string) (RelDesc, error) {
	data, err := os.ReadFile(c.metaPath(relName))
	if err != nil {
		if os.IsNotExist(err) {
			return RelDesc{}, status.ErrRelNotFound
		}
		return RelDesc{}, fmt.Errorf("catalog: read %s: %w", relName, err)
	}
	var desc RelDesc
	if err := json.Unmarshal(data, &desc); err != nil {
		return RelDesc{}, fmt.Errorf("catalog: unmarshal %s: %w", relName, err)
	}
	return desc, nil
}

// GetRelInfo is relCat.getInfo: the relation's descriptor.
func (c *Catalog) GetRelInfo(relName string) (RelDesc, error) {
	return c.read(relName)
}

// GetAttrInfo is attrCat.getInfo: one attribute's descriptor.
func (c *Catalog) GetAttrInfo(relName, attrName string) (AttrDesc, error) {
	desc, err := c.read(relName)
	if err != nil {
		return AttrDesc{}, err
	}
	for _, a := range desc.Attrs {
		if a.AttrName == attrName {
			return a, nil
		}
	}
	return AttrDesc{}, status.ErrAttrNotFound
}

// GetRelAttrs is attrCat.getRelInfo: every attribute of a relation, in
// declared (physical) order.
func (c *Catalog) GetRelAttrs(relName string) ([]AttrDesc, error) {
	desc, err := c.read(relName)
	if err != nil {
		return nil, err
	}
	return desc.Attrs, nil
}
