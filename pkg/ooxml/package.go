// Package ooxml reads and writes Office Open XML packages: the zip
// containers behind .docx, .xlsx and .pptx files. It exposes parts as etree
// documents, resolves relationships between parts and can save modified
// parts back in place.
package ooxml

import (
	"archive/zip"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/beevik/etree"

	"github.com/nodewee/doc-translate-prep/pkg/utils"
)

const contentTypesPart = "[Content_Types].xml"

type entry struct {
	name     string
	method   uint16
	modified time.Time
	data     []byte
}

// Package is an OOXML container held in memory. The backing file is closed
// once Open returns.
type Package struct {
	path    string
	entries []*entry
	index   map[string]*entry
	parts   map[string]*etree.Document
	dirty   map[string]bool
}

// Relationship is one entry of a part's relationship list
type Relationship struct {
	ID     string
	Type   string
	Target string
}

// Kind returns the last segment of the relationship type URI, which is
// identical for Transitional and Strict documents
func (r Relationship) Kind() string {
	return r.Type[strings.LastIndex(r.Type, "/")+1:]
}

// Open reads every entry of the container at path into memory
func Open(filePath string) (*Package, error) {
	zr, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, utils.NewParseError(fmt.Sprintf("not a valid OOXML package: %s", filePath), err)
	}
	defer zr.Close()

	pkg := &Package{
		path:  filePath,
		index: make(map[string]*entry, len(zr.File)),
		parts: make(map[string]*etree.Document),
		dirty: make(map[string]bool),
	}

	for _, f := range zr.File {
		data, err := readZipFile(f)
		if err != nil {
			return nil, utils.NewParseError(fmt.Sprintf("failed to read package entry %s", f.Name), err)
		}
		e := &entry{
			name:     f.Name,
			method:   f.Method,
			modified: f.Modified,
			data:     data,
		}
		pkg.entries = append(pkg.entries, e)
		pkg.index[normalizeName(f.Name)] = e
	}

	if !pkg.Has(contentTypesPart) {
		return nil, utils.NewParseError(fmt.Sprintf("package has no %s: %s", contentTypesPart, filePath), nil)
	}
	return pkg, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// part names are case-insensitive and never carry a leading slash here
func normalizeName(name string) string {
	return strings.ToLower(strings.TrimPrefix(name, "/"))
}

// Path returns the file the package was opened from
func (p *Package) Path() string {
	return p.path
}

// Has reports whether the package contains the named part
func (p *Package) Has(name string) bool {
	_, ok := p.index[normalizeName(name)]
	return ok
}

// Names returns every part name in container order
func (p *Package) Names() []string {
	names := make([]string, 0, len(p.entries))
	for _, e := range p.entries {
		names = append(names, e.name)
	}
	return names
}

// Part parses the named XML part. The parsed document is cached, so
// modifications are visible to later calls and are written by Save once the
// part is marked dirty.
func (p *Package) Part(name string) (*etree.Document, error) {
	key := normalizeName(name)
	if doc, ok := p.parts[key]; ok {
		return doc, nil
	}
	e, ok := p.index[key]
	if !ok {
		return nil, utils.NewParseError(fmt.Sprintf("package has no part %s", name), nil)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(e.data); err != nil {
		return nil, utils.NewParseError(fmt.Sprintf("malformed XML in part %s", name), err)
	}
	if doc.Root() == nil {
		return nil, utils.NewParseError(fmt.Sprintf("part %s has no root element", name), nil)
	}
	p.parts[key] = doc
	return doc, nil
}

// MarkDirty schedules a parsed part to be serialized on Save
func (p *Package) MarkDirty(name string) {
	p.dirty[normalizeName(name)] = true
}

// Save writes the package back to the file it was opened from
func (p *Package) Save() error {
	return p.SaveAs(p.path)
}

// SaveAs serializes every dirty part and writes the container to filePath,
// keeping the entry order and compression it was read with
func (p *Package) SaveAs(filePath string) error {
	for key := range p.dirty {
		doc, ok := p.parts[key]
		if !ok {
			continue
		}
		data, err := doc.WriteToBytes()
		if err != nil {
			return utils.NewParseError(fmt.Sprintf("failed to serialize part %s", key), err)
		}
		p.index[key].data = data
	}

	files := make([]File, 0, len(p.entries))
	for _, e := range p.entries {
		files = append(files, File{Name: e.name, Data: e.data, Stored: e.method == zip.Store, Modified: e.modified})
	}
	if err := WritePackage(filePath, files); err != nil {
		return err
	}
	p.dirty = make(map[string]bool)
	return nil
}

// relsPartName returns the relationship part for source. The package itself
// is addressed by the empty source.
func relsPartName(source string) string {
	dir, file := path.Split(normalizeName(source))
	return dir + "_rels/" + file + ".rels"
}

// Relationships returns the internal relationships declared by source, in
// declaration order. A part without a relationship part has none.
func (p *Package) Relationships(source string) ([]Relationship, error) {
	relsName := relsPartName(source)
	if !p.Has(relsName) {
		return nil, nil
	}
	doc, err := p.Part(relsName)
	if err != nil {
		return nil, err
	}

	var rels []Relationship
	for _, el := range doc.Root().ChildElements() {
		if el.Tag != "Relationship" || el.SelectAttrValue("TargetMode", "") == "External" {
			continue
		}
		rels = append(rels, Relationship{
			ID:     el.SelectAttrValue("Id", ""),
			Type:   el.SelectAttrValue("Type", ""),
			Target: resolveTarget(source, el.SelectAttrValue("Target", "")),
		})
	}
	return rels, nil
}

func resolveTarget(source, target string) string {
	if t, err := url.PathUnescape(target); err == nil {
		target = t
	}
	if strings.HasPrefix(target, "/") {
		return path.Clean(strings.TrimPrefix(target, "/"))
	}
	return path.Clean(path.Join(path.Dir(normalizeName(source)), target))
}

// Related returns the targets of source's relationships of the given kind
// (last segment of the relationship type, e.g. "header"), in declaration order
func (p *Package) Related(source, kind string) ([]string, error) {
	rels, err := p.Relationships(source)
	if err != nil {
		return nil, err
	}
	var targets []string
	for _, r := range rels {
		if r.Kind() == kind && p.Has(r.Target) {
			targets = append(targets, r.Target)
		}
	}
	return targets, nil
}

// RelatedByID returns the target of source's relationship with the given id
func (p *Package) RelatedByID(source, id string) (string, bool, error) {
	rels, err := p.Relationships(source)
	if err != nil {
		return "", false, err
	}
	for _, r := range rels {
		if r.ID == id && p.Has(r.Target) {
			return r.Target, true, nil
		}
	}
	return "", false, nil
}

// MainPart returns the package's main document part
func (p *Package) MainPart() (string, error) {
	targets, err := p.Related("", "officeDocument")
	if err != nil {
		return "", err
	}
	if len(targets) == 0 {
		return "", utils.NewParseError(fmt.Sprintf("package has no main document part: %s", p.path), nil)
	}
	return targets[0], nil
}

// MainDocument parses the main part and checks its root element
func (p *Package) MainDocument(ns Namespace, rootLocal string) (string, *etree.Element, error) {
	name, err := p.MainPart()
	if err != nil {
		return "", nil, err
	}
	doc, err := p.Part(name)
	if err != nil {
		return "", nil, err
	}
	root := doc.Root()
	if root == nil {
		return "", nil, utils.NewParseError(fmt.Sprintf("empty main part in %s", p.path), nil)
	}
	if !Is(root, ns, rootLocal) {
		return "", nil, utils.NewParseError(
			fmt.Sprintf("unexpected main part root <%s> in %s", root.FullTag(), p.path), nil)
	}
	return name, root, nil
}
