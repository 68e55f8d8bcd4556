// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// Modifications (carried forward from this module's teacher's
// chtml/doctype.go, itself a trimmed copy of golang.org/x/net/html's
// doctype parsing):
//  - Removed quirks-mode detection to keep the node model simpler: a
//    template's DOCTYPE is passed through for round-tripping, never used to
//    pick a rendering mode.

package qweb

import (
	"strings"
)

// parseDoctype turns the raw data of a DoctypeToken into a DoctypeNode,
// recording "system"/"public" identifiers as plain attributes when present.
func parseDoctype(s string) *Node {
	n := &Node{Type: DoctypeNode}

	space := strings.IndexAny(s, whitespace)
	if space == -1 {
		space = len(s)
	}
	n.Data = NewExprRaw(strings.ToLower(s[:space]))
	s = strings.TrimLeft(s[space:], whitespace)

	if len(s) < 6 {
		return n
	}

	key := strings.ToLower(s[:6])
	s = s[6:]
	for key == "public" || key == "system" {
		s = strings.TrimLeft(s, whitespace)
		if s == "" {
			break
		}
		quote := s[0]
		if quote != '"' && quote != '\'' {
			break
		}
		s = s[1:]
		q := strings.IndexRune(s, rune(quote))
		var id string
		if q == -1 {
			id = s
			s = ""
		} else {
			id = s[:q]
			s = s[q+1:]
		}
		n.Attr = append(n.Attr, Attribute{Key: key, Val: NewExprRaw(id)})
		if key == "public" {
			key = "system"
		} else {
			key = ""
		}
	}
	return n
}

const whitespace = " \t\r\n\f"
