package markup

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

var (
	kindMathInline = ast.NewNodeKind("MathInline")
	kindMathBlock  = ast.NewNodeKind("MathBlock")
)

// mathInlineNode is $...$ or single line $$...$$ inside text.
type mathInlineNode struct {
	ast.BaseInline
	source  []byte
	display bool
}

func (n *mathInlineNode) Kind() ast.NodeKind { return kindMathInline }

func (n *mathInlineNode) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Source": string(n.source)}, nil)
}

// mathBlockNode is a $$ fenced display formula.
type mathBlockNode struct {
	ast.BaseBlock
	body   bytes.Buffer
	indent int
	single bool
}

func (n *mathBlockNode) Kind() ast.NodeKind { return kindMathBlock }

func (n *mathBlockNode) IsRaw() bool { return true }

func (n *mathBlockNode) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Source": n.body.String()}, nil)
}

type mathInlineParser struct{}

func (p *mathInlineParser) Trigger() []byte {
	return []byte{'$'}
}

func (p *mathInlineParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, _ := block.PeekLine()

	open := 0
	for open < len(line) && line[open] == '$' {
		open++
	}
	if open > 2 || open >= len(line) {
		return nil
	}

	var end, stop int
	if open == 2 {
		i := bytes.Index(line[2:], []byte("$$"))
		if i <= 0 {
			return nil
		}
		end, stop = 2+i, 2+i+2
	} else {
		// $5 and $6 is not math: opening must be followed by non space,
		// closing must follow non space and must not precede a digit
		if isSpace(line[1]) {
			return nil
		}
		end = -1
		for i := 2; i < len(line); i++ {
			if line[i] == '\\' {
				i++
				continue
			}
			if line[i] != '$' {
				continue
			}
			if isSpace(line[i-1]) || (i+1 < len(line) && line[i+1] >= '0' && line[i+1] <= '9') {
				continue
			}
			end = i
			break
		}
		if end < 0 {
			return nil
		}
		stop = end + 1
	}

	src := bytes.TrimSpace(line[open:end])
	if len(src) == 0 {
		return nil
	}
	block.Advance(stop)
	return &mathInlineNode{source: append([]byte(nil), src...), display: open == 2}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

type mathBlockParser struct{}

func (p *mathBlockParser) Trigger() []byte {
	return []byte{'$'}
}

func (p *mathBlockParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, _ := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 || !bytes.HasPrefix(line[pos:], []byte("$$")) {
		return nil, parser.NoChildren
	}
	node := &mathBlockNode{indent: pos}
	rest := bytes.TrimSpace(line[pos+2:])
	if len(rest) == 0 {
		return node, parser.NoChildren
	}
	// whole formula on the opening line
	if len(rest) <= 2 || !bytes.HasSuffix(rest, []byte("$$")) || bytes.Contains(rest[:len(rest)-2], []byte("$$")) {
		return nil, parser.NoChildren
	}
	node.body.Write(bytes.TrimSpace(rest[:len(rest)-2]))
	node.single = true
	return node, parser.NoChildren
}

func (p *mathBlockParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	n := node.(*mathBlockNode)
	if n.single {
		return parser.Close
	}
	line, segment := reader.PeekLine()
	if line == nil {
		return parser.Close
	}

	newline := 0
	if len(line) > 0 && line[len(line)-1] == '\n' {
		newline = 1
	}
	if w, pos := util.IndentWidth(line, reader.LineOffset()); w < 4 {
		if trimmed := bytes.TrimSpace(line[pos:]); bytes.Equal(trimmed, []byte("$$")) {
			reader.Advance(segment.Stop - segment.Start - newline + segment.Padding)
			return parser.Close
		}
	}

	content := line
	for i := 0; i < n.indent && len(content) > 0 && content[0] == ' '; i++ {
		content = content[1:]
	}
	n.body.Write(content)
	reader.Advance(segment.Stop - segment.Start - newline + segment.Padding)
	return parser.Continue | parser.NoChildren
}

func (p *mathBlockParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (p *mathBlockParser) CanInterruptParagraph() bool {
	return true
}

func (p *mathBlockParser) CanAcceptIndentedLine() bool {
	return false
}

type mathExtension struct{}

// Extend registers $ and $$ math parsing. Fenced code is tried first so a
// code block opened with ``` is never taken for math.
func (e *mathExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithBlockParsers(util.Prioritized(&mathBlockParser{}, 701)),
		parser.WithInlineParsers(util.Prioritized(&mathInlineParser{}, 500)),
	)
}
