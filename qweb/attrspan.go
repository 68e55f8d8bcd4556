// scanAttributeSpans is adapted from this module's teacher's
// chtml/attr_scanner.go: golang.org/x/net/html's tokenizer reports a start
// tag's attributes as an ordered list but not their byte offsets within the
// raw tag text, so this walks the raw tag bytes by hand to recover them —
// needed so CompileError/RenderError can point at the exact attribute that
// failed rather than just the enclosing tag.

package qweb

func scanAttributeSpans(raw []byte, baseOffset int, attrs []string) map[string]Span {
	result := make(map[string]Span, len(attrs))
	pos := 0

	if pos < len(raw) && raw[pos] == '<' {
		pos++
	}
	for pos < len(raw) && !isAttrSpace(raw[pos]) && raw[pos] != '>' && raw[pos] != '/' {
		pos++
	}

	attrIndex := 0
	for pos < len(raw) && attrIndex < len(attrs) {
		for pos < len(raw) && isAttrSpace(raw[pos]) {
			pos++
		}
		if pos >= len(raw) || raw[pos] == '>' || raw[pos] == '/' {
			break
		}

		for pos < len(raw) && raw[pos] != '=' && !isAttrSpace(raw[pos]) && raw[pos] != '>' && raw[pos] != '/' {
			pos++
		}
		for pos < len(raw) && isAttrSpace(raw[pos]) {
			pos++
		}
		if pos >= len(raw) || raw[pos] != '=' {
			attrIndex++
			continue
		}
		pos++
		for pos < len(raw) && isAttrSpace(raw[pos]) {
			pos++
		}
		if pos >= len(raw) {
			break
		}

		valueStart := pos
		var valueEnd int
		if raw[pos] == '"' || raw[pos] == '\'' {
			quote := raw[pos]
			pos++
			valueStart = pos
			for pos < len(raw) && raw[pos] != quote {
				if raw[pos] == '\\' && pos+1 < len(raw) {
					pos += 2
				} else {
					pos++
				}
			}
			valueEnd = pos
			if pos < len(raw) {
				pos++
			}
		} else {
			for pos < len(raw) && !isAttrSpace(raw[pos]) && raw[pos] != '>' && raw[pos] != '/' {
				pos++
			}
			valueEnd = pos
		}

		if attrIndex < len(attrs) {
			result[attrs[attrIndex]] = Span{
				Offset: baseOffset + valueStart,
				Length: valueEnd - valueStart,
			}
		}
		attrIndex++
	}
	return result
}

func isAttrSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f'
}
