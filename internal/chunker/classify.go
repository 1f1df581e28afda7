package chunker

import (
	"strings"

	"github.com/dshills/codechunk/pkg/types"
)

// decl is the classification of a statement head
type decl struct {
	kind        types.DeclKind
	name        string
	modifiers   []string
	scan        levelKind
	transparent bool
}

// classify decides whether a statement is a declaration boundary and of
// which kind. Statements that are neither declarations nor blocks yield
// false.
func (sc *scanner) classify(h *head) (decl, bool) {
	sig := h.sig
	if !h.hasBody() && len(sig) > 0 {
		if last := sc.toks[sig[len(sig)-1]]; last.Kind == types.TokenPunct && sc.table.IsTerminator(last.Text) {
			sig = sig[:len(sig)-1]
		}
	}
	if len(sig) == 0 {
		return decl{}, false
	}
	paren := h.paren
	if paren >= len(sig) {
		paren = -1
	}

	first := sc.toks[sig[0]]
	if first.Kind == types.TokenKeyword && sc.table.IsControl(first.Text) {
		if h.hasBody() {
			return decl{kind: types.KindOther, scan: levelAtomic}, true
		}
		return decl{}, false
	}

	var mods []string
	p := 0
	if tk := sc.table.TemplateKeyword; tk != "" && first.Kind == types.TokenKeyword && first.Text == tk {
		if len(sig) > 1 && sc.toks[sig[1]].Is("<") {
			q := sc.closeAngle(sig, 1)
			mods = append(mods, sc.normalized(sig[0], sig[q]))
			p = q + 1
			if paren >= 0 && paren < p {
				paren = sc.firstParen(sig, p)
			}
		} else if !h.hasBody() {
			return decl{kind: types.KindTemplate, name: sc.templateName(sig[1:])}, true
		}
		if p >= len(sig) {
			return decl{}, false
		}
	}

	if h.hasBody() && sc.table.IsTransparent(sc.toks[sig[p]].Text) &&
		len(sig) == p+2 && sc.toks[sig[p+1]].Kind == types.TokenString {
		return decl{transparent: true}, true
	}

	// namespace, possibly after leading modifier keywords
	for k := p; k < len(sig); k++ {
		t := sc.toks[sig[k]]
		if t.Kind != types.TokenKeyword {
			break
		}
		if !sc.table.IsNamespace(t.Text) {
			continue
		}
		if h.assign >= 0 {
			return decl{}, false
		}
		d := decl{
			name:      sc.joined(sig[k+1:]),
			modifiers: append(mods, sc.modifiers(sig[p:k])...),
			scan:      levelNamespace,
			kind:      types.KindNamespace,
		}
		if !h.hasBody() {
			d.kind, d.scan = types.KindOther, levelAtomic
		}
		return d, true
	}

	// function keyword
	for k := p; k < len(sig); k++ {
		if paren >= 0 && k > paren {
			break
		}
		t := sc.toks[sig[k]]
		if t.Kind != types.TokenKeyword || !sc.table.IsFunction(t.Text) {
			continue
		}
		if h.assign >= 0 && h.assign < k {
			return decl{}, false
		}
		name, recv := sc.functionName(sig, p, k)
		d := decl{kind: types.KindFunction, name: name, modifiers: append(mods, sc.modifiers(sig[p:k])...), scan: levelAtomic}
		if recv != "" {
			d.modifiers = append(d.modifiers, recv)
		}
		if h.hasBody() {
			return d, true
		}
		if sc.table.Prototypes {
			d.kind = types.KindOther
			return d, true
		}
		return decl{}, false
	}

	// class-like keyword
	for k := p; k < len(sig); k++ {
		if paren >= 0 && k > paren {
			break
		}
		t := sc.toks[sig[k]]
		if t.Kind != types.TokenKeyword {
			continue
		}
		kind, ok := sc.table.ClassKind(t.Text)
		if !ok {
			continue
		}
		if h.assign >= 0 && h.assign < k {
			break
		}
		d, ok := sc.classDecl(h, sig, p, k, kind)
		if !ok {
			break
		}
		d.modifiers = append(mods, d.modifiers...)
		return d, true
	}

	// parenthesis heuristic
	if !sc.table.RequireFunctionKeyword && paren >= 0 && (h.assign < 0 || h.assign > paren) {
		name := sc.nameBefore(sig, p, paren)
		if name != "" {
			d := decl{kind: types.KindFunction, name: name, modifiers: append(mods, sc.modifiers(sig[p:paren])...), scan: levelAtomic}
			if h.hasBody() {
				return d, true
			}
			if sc.table.Prototypes {
				d.kind = types.KindOther
				return d, true
			}
			return decl{}, false
		}
	}

	if !h.hasBody() {
		return decl{}, false
	}
	// brace initializers such as "int v{1, 2};" are plain statements
	if end, ok := sc.matchBrace(h.body); ok {
		if n := sc.nextSignificant(end + 1); n < len(sc.toks) && sc.toks[n].Kind == types.TokenPunct && sc.table.IsTerminator(sc.toks[n].Text) {
			return decl{}, false
		}
	}
	return decl{kind: types.KindOther, name: sc.lastIdent(sig, p, len(sig)), scan: levelAtomic}, true
}

// classDecl classifies a head whose keyword at k is class-like
func (sc *scanner) classDecl(h *head, sig []int, p, k int, kind types.DeclKind) (decl, bool) {
	j := k + 1
	for j < len(sig) {
		t := sc.toks[sig[j]]
		if _, ok := sc.table.ClassKind(t.Text); ok && t.Kind == types.TokenKeyword {
			j++
			continue
		}
		if t.Is("[") {
			j = sc.skipGroup(sig, j, "[", "]")
			continue
		}
		if t.Is("<") {
			j = sc.closeAngle(sig, j) + 1
			continue
		}
		if t.Kind == types.TokenKeyword && !sc.table.IsContextual(t.Text) && j+1 < len(sig) && sc.toks[sig[j+1]].Is("(") {
			j = sc.skipGroup(sig, j+1, "(", ")")
			continue
		}
		break
	}

	name := ""
	if j < len(sig) && sc.toks[sig[j]].Kind == types.TokenIdent && !sc.table.IsContextual(sc.toks[sig[j]].Text) {
		var parts []string
		parts = append(parts, sc.toks[sig[j]].Text)
		j++
		for j+1 < len(sig) && (sc.toks[sig[j]].Is("::") || sc.toks[sig[j]].Is(".")) && sc.toks[sig[j+1]].Kind == types.TokenIdent {
			parts = append(parts, sc.toks[sig[j]].Text, sc.toks[sig[j+1]].Text)
			j += 2
		}
		name = strings.Join(parts, "")
		if j < len(sig) && sc.toks[sig[j]].Is("<") {
			j = sc.closeAngle(sig, j) + 1
		}
		// impl Trait for Type
		if j+1 < len(sig) && sc.toks[sig[j]].Kind == types.TokenKeyword && sc.toks[sig[j]].Text == "for" &&
			sc.toks[sig[j+1]].Kind == types.TokenIdent {
			name = sc.toks[sig[j+1]].Text
		}
		if j < len(sig) {
			f := sc.toks[sig[j]]
			if f.Kind == types.TokenIdent && !sc.table.IsContextual(f.Text) {
				return decl{}, false
			}
			if f.Is("*") || f.Is("&") || f.Is("&&") {
				return decl{}, false
			}
		}
	} else if j < len(sig) && !h.hasBody() {
		return decl{}, false
	} else {
		name = sc.lastIdent(sig, p, k)
	}

	d := decl{kind: kind, name: name, modifiers: sc.modifiers(sig[p:k])}
	if !h.hasBody() {
		if j < len(sig) {
			return decl{}, false
		}
		d.kind, d.scan = types.KindOther, levelAtomic
		return d, true
	}
	if kind == types.KindEnum {
		d.scan = levelAtomic
	} else {
		d.scan = levelClass
	}
	return d, true
}

// functionName returns the name following a function keyword at k, and the
// receiver text when the keyword is followed by a parenthesized receiver.
func (sc *scanner) functionName(sig []int, p, k int) (string, string) {
	j := k + 1
	recv := ""
	if j < len(sig) && sc.toks[sig[j]].Is("(") {
		end := sc.skipGroup(sig, j, "(", ")")
		if end < len(sig) && sc.toks[sig[end]].Kind == types.TokenIdent {
			recv = sc.normalized(sig[j], sig[end-1])
			j = end
		}
	}
	if j < len(sig) && sc.toks[sig[j]].Is("*") {
		j++
	}
	if j < len(sig) && sc.toks[sig[j]].Kind == types.TokenIdent {
		return sc.toks[sig[j]].Text, recv
	}
	return sc.lastIdent(sig, p, k), recv
}

// nameBefore returns the declarator name preceding the parameter list at
// paren: a possibly qualified identifier, destructor, or operator name.
func (sc *scanner) nameBefore(sig []int, p, paren int) string {
	if op := sc.table.OperatorKeyword; op != "" {
		for k := paren - 1; k >= p; k-- {
			t := sc.toks[sig[k]]
			if t.Kind != types.TokenKeyword || t.Text != op {
				continue
			}
			var b strings.Builder
			b.WriteString(sc.qualifier(sig, p, k))
			if k == paren-1 {
				b.WriteString(op + "()")
				return b.String()
			}
			for q := k; q < paren; q++ {
				b.WriteString(sc.toks[sig[q]].Text)
				if q == k && sc.toks[sig[q+1]].Kind != types.TokenPunct {
					b.WriteByte(' ')
				}
			}
			return b.String()
		}
	}

	k := paren - 1
	if k >= p && sc.toks[sig[k]].Is(">") {
		depth := 0
		for ; k >= p; k-- {
			t := sc.toks[sig[k]]
			if t.Is(">") {
				depth++
			} else if t.Is("<") {
				depth--
				if depth == 0 {
					k--
					break
				}
			}
		}
	}
	if k < p || sc.toks[sig[k]].Kind != types.TokenIdent {
		return ""
	}
	name := sc.toks[sig[k]].Text
	if k-1 >= p && sc.toks[sig[k-1]].Is("~") {
		name = "~" + name
		k--
	}
	return sc.qualifier(sig, p, k) + name
}

// qualifier returns the "A::B::" prefix ending just before sig[k]
func (sc *scanner) qualifier(sig []int, p, k int) string {
	var parts []string
	for k-2 >= p && sc.toks[sig[k-1]].Is("::") && sc.toks[sig[k-2]].Kind == types.TokenIdent {
		parts = append([]string{sc.toks[sig[k-2]].Text, "::"}, parts...)
		k -= 2
	}
	return strings.Join(parts, "")
}

// templateName names an explicit instantiation such as
// "template class Box<int>;"
func (sc *scanner) templateName(sig []int) string {
	for k, idx := range sig {
		t := sc.toks[idx]
		if _, ok := sc.table.ClassKind(t.Text); ok && k+1 < len(sig) && sc.toks[sig[k+1]].Kind == types.TokenIdent {
			return sc.toks[sig[k+1]].Text
		}
	}
	for k := len(sig) - 1; k >= 0; k-- {
		if t := sc.toks[sig[k]]; t.Kind == types.TokenIdent && k+1 < len(sig) && (sc.toks[sig[k+1]].Is("(") || sc.toks[sig[k+1]].Is("<")) {
			return t.Text
		}
	}
	return sc.lastIdent(sig, 0, len(sig))
}

// modifiers returns the modifier keywords among toks
func (sc *scanner) modifiers(sig []int) []string {
	var out []string
	for _, idx := range sig {
		t := sc.toks[idx]
		if (t.Kind == types.TokenKeyword || sc.table.IsContextual(t.Text)) && modifierWords[t.Text] {
			out = append(out, t.Text)
		}
	}
	return out
}

// joined concatenates identifier and separator texts, as in a namespace name
func (sc *scanner) joined(sig []int) string {
	var b strings.Builder
	for _, idx := range sig {
		t := sc.toks[idx]
		if t.Kind == types.TokenIdent || t.Is("::") || t.Is(".") {
			b.WriteString(t.Text)
		}
	}
	return b.String()
}

// lastIdent returns the last non-contextual identifier in sig[from:to]
func (sc *scanner) lastIdent(sig []int, from, to int) string {
	for k := to - 1; k >= from; k-- {
		t := sc.toks[sig[k]]
		if t.Kind == types.TokenIdent && !sc.table.IsContextual(t.Text) {
			return t.Text
		}
	}
	return ""
}

// closeAngle returns the position in sig of the '>' closing the '<' at open
func (sc *scanner) closeAngle(sig []int, open int) int {
	depth := 0
	for k := open; k < len(sig); k++ {
		switch sc.toks[sig[k]].Text {
		case "<":
			depth++
		case ">":
			depth--
		case ">>":
			depth -= 2
		}
		if depth <= 0 {
			return k
		}
	}
	return len(sig) - 1
}

// skipGroup returns the position in sig just past the group opened at open
func (sc *scanner) skipGroup(sig []int, open int, l, r string) int {
	depth := 0
	for k := open; k < len(sig); k++ {
		t := sc.toks[sig[k]]
		if t.Is(l) {
			depth++
		} else if t.Is(r) {
			depth--
			if depth == 0 {
				return k + 1
			}
		}
	}
	return len(sig)
}

func (sc *scanner) firstParen(sig []int, from int) int {
	for k := from; k < len(sig); k++ {
		if sc.toks[sig[k]].Is("(") {
			return k
		}
	}
	return -1
}

// normalized returns the whitespace-collapsed source from token i to token j
func (sc *scanner) normalized(i, j int) string {
	return strings.Join(strings.Fields(string(sc.s.Src[sc.toks[i].Start:sc.toks[j].End])), " ")
}

func (sc *scanner) nextSignificant(i int) int {
	for i < len(sc.toks) && !sc.s.significant(i) {
		i++
	}
	return i
}
