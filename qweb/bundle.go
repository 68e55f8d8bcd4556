// LoadTemplates is adapted from this module's teacher's legacy
// chtml/component.go bundle-loading idiom: build an etree document, find
// each named child, and hand its serialized subtree to the token-stream
// parser. This is the one piece of true XML (not HTML-token-stream) parsing
// this system needs — splitting a "<templates>...</templates>" bundle into
// its named top-level templates before each is parsed individually by
// Parse — so it keeps etree for that rather than inventing a second ad hoc
// splitter.

package qweb

import (
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
)

// LoadTemplates parses a "<templates><t t-name=\"a\">...</t><t t-name=\"b\">...</t></templates>"
// bundle and returns each named template's root Node, keyed by its t-name.
func LoadTemplates(r io.Reader) (map[string]*Node, error) {
	return LoadTemplatesWithSource("", r)
}

// LoadTemplatesWithSource parses like LoadTemplates, attaching name to every
// Source within the bundle.
func LoadTemplatesWithSource(name string, r io.Reader) (map[string]*Node, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, newParseError(nil, fmt.Errorf("parse template bundle: %w", err))
	}

	root := doc.Root()
	if root == nil {
		return nil, newParseError(nil, fmt.Errorf("empty template bundle"))
	}

	out := make(map[string]*Node)
	for _, child := range root.ChildElements() {
		tname := child.SelectAttrValue("t-name", "")
		if tname == "" {
			return nil, newParseError(nil, fmt.Errorf("template bundle child <%s> is missing t-name", child.Tag))
		}

		sub := etree.NewDocument()
		// child may itself carry "t-name" plus structural content; re-root
		// it as its own document so Parse sees it as a single fragment.
		root := child.Copy()
		root.RemoveAttr("t-name")
		sub.SetRoot(root)

		var b strings.Builder
		if _, err := sub.WriteTo(&b); err != nil {
			return nil, newParseError(nil, fmt.Errorf("serialize template %q: %w", tname, err))
		}

		n, err := ParseWithSource(name, strings.NewReader(b.String()))
		if err != nil {
			return nil, fmt.Errorf("template %q: %w", tname, err)
		}
		out[tname] = n
	}
	return out, nil
}
