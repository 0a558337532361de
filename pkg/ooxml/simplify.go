package ooxml

import (
	"sort"
	"strings"

	"github.com/beevik/etree"
)

type simplifyAction int

const (
	keep simplifyAction = iota
	drop
	unwrap
)

// WordprocessingML elements removed with their content. Deleted and
// moved-away revisions go away when revisions are accepted; the rest is
// markup that never carries translatable text.
var droppedWordElements = map[string]bool{
	"del":                   true,
	"moveFrom":              true,
	"moveFromRangeStart":    true,
	"moveFromRangeEnd":      true,
	"moveToRangeStart":      true,
	"moveToRangeEnd":        true,
	"rPrChange":             true,
	"pPrChange":             true,
	"sectPrChange":          true,
	"tblPrChange":           true,
	"tblPrExChange":         true,
	"tblGridChange":         true,
	"tcPrChange":            true,
	"trPrChange":            true,
	"numberingChange":       true,
	"bookmarkStart":         true,
	"bookmarkEnd":           true,
	"commentRangeStart":     true,
	"commentRangeEnd":       true,
	"commentReference":      true,
	"footnoteReference":     true,
	"endnoteReference":      true,
	"fldChar":               true,
	"instrText":             true,
	"delInstrText":          true,
	"softHyphen":            true,
	"webHidden":             true,
	"lastRenderedPageBreak": true,
	"proofErr":              true,
	"noProof":               true,
	"sdtPr":                 true,
	"sdtEndPr":              true,
	"smartTagPr":            true,
}

// WordprocessingML containers replaced by their children
var unwrappedWordElements = map[string]bool{
	"ins":        true,
	"moveTo":     true,
	"sdt":        true,
	"sdtContent": true,
	"fldSimple":  true,
	"smartTag":   true,
}

// SimplifyMarkup rewrites a WordprocessingML part in place so that its text
// runs are easy to walk. It accepts tracked revisions, strips bookmarks,
// comment anchors, note references, field codes, proofing marks and rsid
// attributes, unwraps content controls, simple fields and smart tags, and
// merges adjacent runs that share formatting. Hyperlinks, permission ranges
// and tabs are left alone. It reports whether the part changed.
func SimplifyMarkup(doc *etree.Document) bool {
	root := doc.Root()
	if root == nil {
		return false
	}

	changed := simplifyElement(root)
	if pruneIgnorable(root) {
		changed = true
	}
	if coalesceRuns(root) {
		changed = true
	}
	return changed
}

func classify(e *etree.Element) simplifyAction {
	if !WordML.Has(e.NamespaceURI()) {
		return keep
	}
	switch {
	case droppedWordElements[e.Tag]:
		return drop
	case unwrappedWordElements[e.Tag]:
		return unwrap
	}
	return keep
}

// simplifyElement works bottom-up so that unwrapped children are already
// clean when they are lifted into their new parent
func simplifyElement(e *etree.Element) bool {
	changed := stripRsids(e)

	for i := 0; i < len(e.Child); {
		child, ok := e.Child[i].(*etree.Element)
		if !ok {
			i++
			continue
		}
		if simplifyElement(child) {
			changed = true
		}

		switch classify(child) {
		case drop:
			e.RemoveChildAt(i)
			changed = true
		case unwrap:
			kids := append([]etree.Token(nil), child.Child...)
			e.RemoveChildAt(i)
			for k, kid := range kids {
				e.InsertChildAt(i+k, kid)
			}
			i += len(kids)
			changed = true
		default:
			i++
		}
	}
	return changed
}

func stripRsids(e *etree.Element) bool {
	kept := e.Attr[:0]
	for _, a := range e.Attr {
		if strings.HasPrefix(a.Key, "rsid") && a.Space != "" && a.Space != "xmlns" {
			continue
		}
		kept = append(kept, a)
	}
	changed := len(kept) != len(e.Attr)
	e.Attr = kept
	return changed
}

// pruneIgnorable drops prefixes from mc:Ignorable that the root does not
// declare, which would otherwise make strict consumers reject the part
func pruneIgnorable(root *etree.Element) bool {
	for i := range root.Attr {
		a := &root.Attr[i]
		if a.Key != "Ignorable" || !MarkupCompatibility.Has(a.NamespaceURI()) {
			continue
		}

		declared := make(map[string]bool)
		for _, d := range root.Attr {
			if d.Space == "xmlns" {
				declared[d.Key] = true
			}
		}
		var kept []string
		for _, prefix := range strings.Fields(a.Value) {
			if declared[prefix] {
				kept = append(kept, prefix)
			}
		}
		value := strings.Join(kept, " ")
		if value == a.Value {
			return false
		}
		if value == "" {
			root.RemoveAttr(a.FullKey())
		} else {
			a.Value = value
		}
		return true
	}
	return false
}

// coalesceRuns merges neighbouring w:r siblings that hold nothing but text
// and carry identical run properties
func coalesceRuns(e *etree.Element) bool {
	changed := false
	var prev *etree.Element
	for i := 0; i < len(e.Child); {
		switch tok := e.Child[i].(type) {
		case *etree.CharData:
			if !tok.IsWhitespace() {
				prev = nil
			}
			i++
		case *etree.Element:
			if coalesceRuns(tok) {
				changed = true
			}
			if !isTextRun(tok) {
				prev = nil
				i++
				continue
			}
			if prev != nil && runProps(prev) == runProps(tok) {
				pt := Child(prev, WordML, "t")
				pt.SetText(pt.Text() + Child(tok, WordML, "t").Text())
				setPreserve(pt)
				e.RemoveChildAt(i)
				changed = true
				continue
			}
			prev = tok
			i++
		default:
			i++
		}
	}
	return changed
}

func isTextRun(e *etree.Element) bool {
	if !Is(e, WordML, "r") {
		return false
	}
	texts := 0
	for _, c := range e.ChildElements() {
		switch {
		case Is(c, WordML, "rPr"):
		case Is(c, WordML, "t"):
			texts++
		default:
			return false
		}
	}
	return texts == 1
}

func setPreserve(t *etree.Element) {
	for i := range t.Attr {
		if t.Attr[i].Space == "xml" && t.Attr[i].Key == "space" {
			t.Attr[i].Value = "preserve"
			return
		}
	}
	t.CreateAttr("xml:space", "preserve")
}

// runProps returns a canonical form of the run's w:rPr for comparison
func runProps(run *etree.Element) string {
	rpr := Child(run, WordML, "rPr")
	if rpr == nil {
		return ""
	}
	var sb strings.Builder
	canonical(&sb, rpr)
	return sb.String()
}

func canonical(sb *strings.Builder, e *etree.Element) {
	sb.WriteString("<")
	sb.WriteString(e.Tag)
	attrs := make([]string, 0, len(e.Attr))
	for _, a := range e.Attr {
		if a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns") {
			continue
		}
		attrs = append(attrs, a.Key+"="+a.Value)
	}
	sort.Strings(attrs)
	for _, a := range attrs {
		sb.WriteString(" ")
		sb.WriteString(a)
	}
	sb.WriteString(">")
	for _, c := range e.ChildElements() {
		canonical(sb, c)
	}
	sb.WriteString(strings.TrimSpace(e.Text()))
	sb.WriteString("</>")
}
