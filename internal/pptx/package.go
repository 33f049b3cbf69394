package pptx

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/klauspost/compress/zip"
	"github.com/seventv/slide-inverter/internal/archive"
	"go.uber.org/multierr"
)

const (
	contentTypesPart = "[Content_Types].xml"
	rootRelsPart     = "_rels/.rels"

	relTypeOfficeDocument = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	relTypeSlide          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"
	relTypeImage          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"

	nsRelationships = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
)

// pkg is an OPC package held in memory. Parts that were parsed for editing
// are kept in xml and serialised again on save; every other part is written
// back untouched.
type pkg struct {
	parts map[string][]byte
	order []string
	xml   map[string]*etree.Document
}

func readPackage(data []byte) (*pkg, error) {
	return readPackageLimit(data, archive.DefaultLimits)
}

func readPackageLimit(data []byte, limits archive.Limits) (*pkg, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	p := &pkg{
		parts: map[string][]byte{},
		xml:   map[string]*etree.Document{},
	}

	budget := archive.NewBudget(limits)
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}

		b, err := budget.Read(f)
		if err != nil {
			return nil, multierr.Append(fmt.Errorf("failed to read part %s", f.Name), err)
		}

		if _, ok := p.parts[f.Name]; !ok {
			p.order = append(p.order, f.Name)
		}
		p.parts[f.Name] = b
	}

	if _, ok := p.parts[contentTypesPart]; !ok {
		return nil, fmt.Errorf("missing %s", contentTypesPart)
	}

	return p, nil
}

func (p *pkg) has(name string) bool {
	_, ok := p.parts[name]
	return ok
}

func (p *pkg) put(name string, data []byte) {
	if !p.has(name) {
		p.order = append(p.order, name)
	}
	p.parts[name] = data
}

func (p *pkg) remove(name string) {
	delete(p.parts, name)
	delete(p.xml, name)

	for i, n := range p.order {
		if n == name {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// document parses a part once; later calls return the same tree.
func (p *pkg) document(name string) (*etree.Document, error) {
	if doc, ok := p.xml[name]; ok {
		return doc, nil
	}

	data, ok := p.parts[name]
	if !ok {
		return nil, fmt.Errorf("missing part %s", name)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, multierr.Append(fmt.Errorf("failed to parse %s", name), err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("empty part %s", name)
	}

	p.xml[name] = doc

	return doc, nil
}

func (p *pkg) write(w io.Writer) error {
	for name, doc := range p.xml {
		b, err := doc.WriteToBytes()
		if err != nil {
			return multierr.Append(fmt.Errorf("failed to serialise %s", name), err)
		}
		p.parts[name] = b
	}

	zw := zip.NewWriter(w)

	names := make([]string, 0, len(p.order))
	names = append(names, contentTypesPart)
	for _, n := range p.order {
		if n != contentTypesPart {
			names = append(names, n)
		}
	}

	for _, name := range names {
		fw, err := zw.Create(name)
		if err != nil {
			return multierr.Append(fmt.Errorf("failed to create part %s", name), err)
		}
		if _, err := fw.Write(p.parts[name]); err != nil {
			return multierr.Append(fmt.Errorf("failed to write part %s", name), err)
		}
	}

	return zw.Close()
}

// relsName is the relationships part that belongs to part.
func relsName(part string) string {
	dir, file := path.Split(part)
	return dir + "_rels/" + file + ".rels"
}

// resolveTarget turns a relationship target into a part name.
func resolveTarget(source, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}

	return strings.TrimPrefix(path.Join(path.Dir(source), target), "/")
}

// relativeTarget is the inverse of resolveTarget for parts in sibling folders.
func relativeTarget(source, part string) string {
	srcDir := strings.Split(path.Dir(source), "/")
	dst := strings.Split(part, "/")

	i := 0
	for i < len(srcDir) && i < len(dst)-1 && srcDir[i] == dst[i] {
		i++
	}

	up := strings.Repeat("../", len(srcDir)-i)

	return up + strings.Join(dst[i:], "/")
}

type relationships struct {
	pkg    *pkg
	source string
	name   string
	doc    *etree.Document
}

// rels loads or creates the relationships of a part.
func (p *pkg) rels(source string) (*relationships, error) {
	name := relsName(source)
	if !p.has(name) {
		doc := etree.NewDocument()
		doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
		root := doc.CreateElement("Relationships")
		root.CreateAttr("xmlns", "http://schemas.openxmlformats.org/package/2006/relationships")
		p.put(name, nil)
		p.xml[name] = doc
	}

	doc, err := p.document(name)
	if err != nil {
		return nil, err
	}

	return &relationships{pkg: p, source: source, name: name, doc: doc}, nil
}

func (r *relationships) all() []*etree.Element {
	return r.doc.Root().SelectElements("Relationship")
}

func (r *relationships) byID(id string) *etree.Element {
	for _, el := range r.all() {
		if el.SelectAttrValue("Id", "") == id {
			return el
		}
	}

	return nil
}

// target resolves an internal relationship to a part name.
func (r *relationships) target(id string) (string, error) {
	el := r.byID(id)
	if el == nil {
		return "", fmt.Errorf("relationship %s not found in %s", id, r.name)
	}
	if el.SelectAttrValue("TargetMode", "") == "External" {
		return "", fmt.Errorf("relationship %s is external", id)
	}

	return resolveTarget(r.source, el.SelectAttrValue("Target", "")), nil
}

func (r *relationships) firstOfType(typ string) (string, bool) {
	for _, el := range r.all() {
		if el.SelectAttrValue("Type", "") == typ {
			return resolveTarget(r.source, el.SelectAttrValue("Target", "")), true
		}
	}

	return "", false
}

func (r *relationships) nextID() string {
	max := 0
	for _, el := range r.all() {
		id := el.SelectAttrValue("Id", "")
		if n, err := strconv.Atoi(strings.TrimPrefix(id, "rId")); err == nil && n > max {
			max = n
		}
	}

	return "rId" + strconv.Itoa(max+1)
}

func (r *relationships) add(typ, part string) string {
	id := r.nextID()

	el := r.doc.Root().CreateElement("Relationship")
	el.CreateAttr("Id", id)
	el.CreateAttr("Type", typ)
	el.CreateAttr("Target", relativeTarget(r.source, part))

	return id
}

func (r *relationships) removeID(id string) {
	if el := r.byID(id); el != nil {
		r.doc.Root().RemoveChild(el)
	}
}

// ensureDefault registers a content type for an extension if none exists.
func (p *pkg) ensureDefault(ext, contentType string) error {
	doc, err := p.document(contentTypesPart)
	if err != nil {
		return err
	}

	root := doc.Root()
	for _, el := range root.SelectElements("Default") {
		if strings.EqualFold(el.SelectAttrValue("Extension", ""), ext) {
			return nil
		}
	}

	el := etree.NewElement("Default")
	el.CreateAttr("Extension", ext)
	el.CreateAttr("ContentType", contentType)

	// Defaults precede Overrides
	idx := len(root.Child)
	if first := root.SelectElement("Override"); first != nil {
		idx = first.Index()
	}
	root.InsertChildAt(idx, el)

	return nil
}

// referencedTargets collects every internal part referenced by any
// relationships part in the package.
func (p *pkg) referencedTargets() (map[string]bool, error) {
	refs := map[string]bool{}

	for _, name := range p.order {
		if !strings.HasSuffix(name, ".rels") {
			continue
		}

		doc, err := p.document(name)
		if err != nil {
			return nil, err
		}

		source := sourceOfRels(name)
		for _, el := range doc.Root().SelectElements("Relationship") {
			if el.SelectAttrValue("TargetMode", "") == "External" {
				continue
			}
			refs[resolveTarget(source, el.SelectAttrValue("Target", ""))] = true
		}
	}

	return refs, nil
}

func sourceOfRels(name string) string {
	dir, file := path.Split(name)
	dir = strings.TrimSuffix(dir, "_rels/")

	return dir + strings.TrimSuffix(file, ".rels")
}

// pruneMedia drops media parts nothing points at anymore.
func (p *pkg) pruneMedia() error {
	refs, err := p.referencedTargets()
	if err != nil {
		return err
	}

	orphans := []string{}
	for _, name := range p.order {
		if strings.HasPrefix(name, "ppt/media/") && !refs[name] {
			orphans = append(orphans, name)
		}
	}

	sort.Strings(orphans)
	for _, name := range orphans {
		p.remove(name)
	}

	return nil
}
