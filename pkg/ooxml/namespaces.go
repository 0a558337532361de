package ooxml

import (
	"strings"

	"github.com/beevik/etree"
)

// Namespace groups the URIs a vocabulary is published under. Transitional
// and Strict documents use different URIs for the same elements.
type Namespace []string

// Known vocabularies
var (
	WordML = Namespace{
		"http://schemas.openxmlformats.org/wordprocessingml/2006/main",
		"http://purl.oclc.org/ooxml/wordprocessingml/main",
	}
	SpreadsheetML = Namespace{
		"http://schemas.openxmlformats.org/spreadsheetml/2006/main",
		"http://purl.oclc.org/ooxml/spreadsheetml/main",
	}
	PresentationML = Namespace{
		"http://schemas.openxmlformats.org/presentationml/2006/main",
		"http://purl.oclc.org/ooxml/presentationml/main",
		"http://schemas.microsoft.com/office/powerpoint/2018/8/main",
	}
	DrawingML = Namespace{
		"http://schemas.openxmlformats.org/drawingml/2006/main",
		"http://purl.oclc.org/ooxml/drawingml/main",
	}
	OfficeRelationships = Namespace{
		"http://schemas.openxmlformats.org/officeDocument/2006/relationships",
		"http://purl.oclc.org/ooxml/officeDocument/relationships",
	}
	MarkupCompatibility = Namespace{
		"http://schemas.openxmlformats.org/markup-compatibility/2006",
	}
)

// Has reports whether uri belongs to the namespace
func (n Namespace) Has(uri string) bool {
	for _, u := range n {
		if u == uri {
			return true
		}
	}
	return false
}

// Is reports whether e is the element local in namespace ns
func Is(e *etree.Element, ns Namespace, local string) bool {
	return e != nil && e.Tag == local && ns.Has(e.NamespaceURI())
}

// Children returns the direct children of e named local in ns
func Children(e *etree.Element, ns Namespace, local string) []*etree.Element {
	var out []*etree.Element
	for _, c := range e.ChildElements() {
		if Is(c, ns, local) {
			out = append(out, c)
		}
	}
	return out
}

// Child returns the first direct child of e named local in ns
func Child(e *etree.Element, ns Namespace, local string) *etree.Element {
	for _, c := range e.ChildElements() {
		if Is(c, ns, local) {
			return c
		}
	}
	return nil
}

// Descendants returns every element below e named local in ns, in document order
func Descendants(e *etree.Element, ns Namespace, local string) []*etree.Element {
	var out []*etree.Element
	var walk func(*etree.Element)
	walk = func(el *etree.Element) {
		for _, c := range el.ChildElements() {
			if Is(c, ns, local) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(e)
	return out
}

// AttrValue returns the value of the attribute local in ns on e
func AttrValue(e *etree.Element, ns Namespace, local string) (string, bool) {
	for i := range e.Attr {
		a := &e.Attr[i]
		if a.Key == local && ns.Has(a.NamespaceURI()) {
			return a.Value, true
		}
	}
	return "", false
}

// RelID returns the r:id attribute of e
func RelID(e *etree.Element) string {
	v, _ := AttrValue(e, OfficeRelationships, "id")
	return v
}

// InnerText concatenates the text of every leaf element below e, in document
// order. Whitespace between elements is not included.
func InnerText(e *etree.Element) string {
	var sb strings.Builder
	var walk func(*etree.Element)
	walk = func(el *etree.Element) {
		kids := el.ChildElements()
		if len(kids) == 0 {
			sb.WriteString(el.Text())
			return
		}
		for _, c := range kids {
			walk(c)
		}
	}
	walk(e)
	return sb.String()
}
