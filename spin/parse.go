package spin

import (
	"strconv"
	"strings"

	"github.com/context-fabric/fabric/ferr"
)

type rawLine struct {
	indent int
	tokens []string
	lineNo int
}

// Parse compiles a SPIN template string into a Template, per spec §4.5's
// template syntax. Blank lines and lines whose first non-blank character
// is "#" are ignored.
func Parse(src string) (*Template, error) {
	p := &parser{lines: tokenizeLines(src)}
	atoms, err := p.parseBlock(0, -1)
	if err != nil {
		return nil, err
	}
	return &Template{Atoms: atoms, TopLevel: idsOf(rootsOf(atoms, -1))}, nil
}

func tokenizeLines(src string) []rawLine {
	var out []rawLine
	for i, raw := range strings.Split(src, "\n") {
		trimmed := strings.TrimLeft(raw, " ")
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		out = append(out, rawLine{
			indent: len(raw) - len(trimmed),
			tokens: strings.Fields(trimmed),
			lineNo: i + 1,
		})
	}
	return out
}

// parser walks rawLine in order, consuming one indentation block at a
// time. Atom IDs are handed out from one shared counter so every atom in
// a template, including those inside quantifier bodies, has a stable,
// globally unique ID.
type parser struct {
	lines      []rawLine
	pos        int
	nextAtomID int
}

// parseBlock consumes every line indented at exactly the level of the
// first line it sees (which must be >= minIndent), plus their nested
// children and quantifier bodies, stopping at the first line indented
// less than that level (or end of input). parentID is the atom these
// lines nest under, -1 at the template's top level. The returned slice
// holds every atom declared in this block and its descendants, in
// declaration order — but never atoms belonging to a quantifier body,
// which are scoped to that Quantifier.Body instead.
func (p *parser) parseBlock(minIndent, parentID int) ([]*Atom, error) {
	var block []*Atom
	blockIndent := -1
	var prevSibling *Atom

	for p.pos < len(p.lines) {
		line := p.lines[p.pos]
		if line.indent < minIndent {
			break
		}
		if blockIndent == -1 {
			blockIndent = line.indent
		}
		if line.indent < blockIndent {
			break
		}
		if line.indent > blockIndent {
			return nil, &ferr.TemplateParseError{Line: line.lineNo, Col: line.indent + 1,
				Expected: []string{"line at indent " + strconv.Itoa(blockIndent)}, Found: line.tokens[0]}
		}

		if kw, ok := quantifierKeyword(line.tokens[0]); ok {
			if prevSibling == nil {
				return nil, &ferr.TemplateParseError{Line: line.lineNo, Col: 1,
					Expected: []string{"atom before quantifier"}, Found: line.tokens[0]}
			}
			p.pos++
			bodyAtoms, err := p.parseBlock(blockIndent+1, prevSibling.ID)
			if err != nil {
				return nil, err
			}
			q := &Quantifier{
				HostAtomID: prevSibling.ID,
				Keyword:    kw,
				OrWithPrev: kw == "or",
				Body:       &Template{Atoms: bodyAtoms, TopLevel: idsOf(rootsOf(bodyAtoms, prevSibling.ID))},
			}
			liftNegatedRoots(q, prevSibling)
			prevSibling.Quantifiers = append(prevSibling.Quantifiers, q)
			continue
		}

		var siblingID = -1
		if prevSibling != nil {
			siblingID = prevSibling.ID
		}
		atom, err := p.parseAtomLine(line, parentID, siblingID)
		if err != nil {
			return nil, err
		}
		block = append(block, atom)
		prevSibling = atom
		p.pos++

		children, err := p.parseBlock(blockIndent+1, atom.ID)
		if err != nil {
			return nil, err
		}
		block = append(block, children...)
	}

	return block, nil
}

func (p *parser) parseAtomLine(line rawLine, parentID, prevSibling int) (*Atom, error) {
	tokens := line.tokens
	negated := false
	if tokens[0] == "/-/" {
		negated = true
		tokens = tokens[1:]
	}

	sibRel := RelBefore
	if rel, ok := matchRelOp(tokens); ok {
		sibRel = rel
		tokens = tokens[1:]
	}

	if len(tokens) == 0 {
		return nil, &ferr.TemplateParseError{Line: line.lineNo, Col: line.indent + 1,
			Expected: []string{"atom type name"}, Found: ""}
	}

	atom, err := parseAtom(tokens, line.lineNo, line.indent)
	if err != nil {
		return nil, err
	}
	atom.ID = p.nextAtomID
	p.nextAtomID++
	atom.Negated = negated
	atom.ParentID = parentID
	if parentID != -1 {
		// Default indentation containment: parent embeds child (spec §4.5
		// "Indentation encodes the default containment relation").
		atom.ParentRel = RelEmbeds
	}
	atom.SiblingID = prevSibling
	if prevSibling != -1 {
		atom.SiblingRel = sibRel
	}
	return atom, nil
}

// liftNegatedRoots splits q.Body's root atoms into positive roots (kept
// in q.Body) and "/-/"-negated roots, each of which becomes its own
// synthetic /without/ quantifier on the same host — negating a body root
// and its subtree independently of the body's positive match, rather
// than requiring it to co-occur in one joined binding. Negation nested
// below a body root (not itself a root) is not lifted; it is evaluated
// as an ordinary, non-excluding atom, a documented scope limitation.
func liftNegatedRoots(q *Quantifier, host *Atom) {
	body := q.Body
	var positiveRoots []int
	var negativeRoots []int
	for _, id := range body.TopLevel {
		if body.Atom(id).Negated {
			negativeRoots = append(negativeRoots, id)
		} else {
			positiveRoots = append(positiveRoots, id)
		}
	}
	if len(negativeRoots) == 0 {
		return
	}
	body.TopLevel = positiveRoots

	for _, id := range negativeRoots {
		sub := subtreeOf(body.Atoms, id)
		host.Quantifiers = append(host.Quantifiers, &Quantifier{
			HostAtomID: host.ID,
			Keyword:    "without",
			Body:       &Template{Atoms: sub, TopLevel: []int{id}},
		})
	}
}

func subtreeOf(atoms []*Atom, rootID int) []*Atom {
	inSubtree := map[int]bool{rootID: true}
	var out []*Atom
	for _, a := range atoms {
		if inSubtree[a.ID] || inSubtree[a.ParentID] {
			inSubtree[a.ID] = true
			out = append(out, a)
		}
	}
	return out
}

func rootsOf(atoms []*Atom, parentID int) []*Atom {
	var out []*Atom
	for _, a := range atoms {
		if a.ParentID == parentID {
			out = append(out, a)
		}
	}
	return out
}

func idsOf(atoms []*Atom) []int {
	out := make([]int, len(atoms))
	for i, a := range atoms {
		out[i] = a.ID
	}
	return out
}

func quantifierKeyword(tok string) (string, bool) {
	switch tok {
	case "/where/", "/have/", "/without/", "/with/", "/or/":
		return strings.Trim(tok, "/"), true
	}
	return "", false
}

func matchRelOp(tokens []string) (RelOp, bool) {
	if len(tokens) == 0 {
		return "", false
	}
	for _, op := range relOps {
		if tokens[0] == string(op) {
			return op, true
		}
	}
	return "", false
}
