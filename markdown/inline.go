package markdown

import (
	"errors"
	"strings"

	"github.com/shodgson/mdengine/model"
)

// inlineOptions restricts which productions a recursive call to parseInline
// may recognize. The top-level call (one per source line) allows
// everything; nested calls narrow this down according to the nesting rules:
// code may nest inside strong/em/link text, but strong and em may not nest
// in each other, and link/image text doesn't recurse into links or images.
type inlineOptions struct {
	allowStrong     bool
	allowEm         bool
	allowCode       bool
	allowLink       bool
	allowImage      bool
	allowAutolink   bool
	allowBareURL    bool
	allowBlockquote bool
}

func fullInlineOptions() inlineOptions {
	return inlineOptions{
		allowStrong: true, allowEm: true, allowCode: true, allowLink: true,
		allowImage: true, allowAutolink: true, allowBareURL: true, allowBlockquote: true,
	}
}

// codeOnlyOptions is used for link text and other inline content where only
// code-span nesting is permitted.
func codeOnlyOptions() inlineOptions {
	return inlineOptions{allowCode: true}
}

// withoutStrong/withoutEm return opts with the named emphasis production
// turned off, so that strong content cannot itself open an em span and vice
// versa.
func (o inlineOptions) withoutStrong() inlineOptions { o.allowStrong = false; return o }
func (o inlineOptions) withoutEm() inlineOptions     { o.allowEm = false; return o }

type inlineScanner struct {
	line    string
	lineNum int
	pos     int
	opts    inlineOptions
	nodes   []*model.Node
	pending strings.Builder
}

// ParseInline is the inline parser's entry point (component B): given a full
// source line and a starting index, it returns the inline nodes consumed
// from that position, plus the index just past the last consumed rune.
func ParseInline(line string, start, lineNum int) ([]*model.Node, int, error) {
	s := &inlineScanner{line: line, lineNum: lineNum, pos: start, opts: fullInlineOptions()}
	if err := s.run(); err != nil {
		return nil, 0, err
	}
	return s.nodes, s.pos, nil
}

func parseInlineRestricted(line string, start, lineNum int, opts inlineOptions) ([]*model.Node, int, error) {
	s := &inlineScanner{line: line, lineNum: lineNum, pos: start, opts: opts}
	if err := s.run(); err != nil {
		return nil, 0, err
	}
	return s.nodes, s.pos, nil
}

func (s *inlineScanner) fail(reason string) error {
	return syntaxErrorf(s.lineNum, s.line, reason)
}

// flush turns any accumulated plain text into a text node.
func (s *inlineScanner) flush() {
	if s.pending.Len() == 0 {
		return
	}
	s.nodes = append(s.nodes, model.New(model.Text, model.Inline).WithText(model.Unescape(s.pending.String())))
	s.pending.Reset()
}

func (s *inlineScanner) emit(n *model.Node) {
	s.flush()
	s.nodes = append(s.nodes, n)
}

// precededByDoubleSpace reports whether the two characters immediately
// before pos are both spaces.
func precededByDoubleSpace(line string, pos int) bool {
	return pos >= 2 && line[pos-1] == ' ' && line[pos-2] == ' '
}

func followedBySpace(line string, pos int) bool {
	return pos < len(line) && line[pos] == ' '
}

// trailingDoubleSpace reports whether the two characters immediately before
// the closing delimiter at contentEnd are both spaces.
func trailingDoubleSpace(line string, contentEnd int) bool {
	return contentEnd >= 2 && line[contentEnd-1] == ' ' && line[contentEnd-2] == ' '
}

func (s *inlineScanner) run() error {
	line := s.line
	for s.pos < len(line) {
		c := line[s.pos]

		if c == '\\' && s.pos+1 < len(line) && strings.IndexByte(escapableBytes, line[s.pos+1]) >= 0 {
			s.pending.WriteByte(c)
			s.pending.WriteByte(line[s.pos+1])
			s.pos += 2
			continue
		}

		switch {
		case c == '*' && s.opts.allowStrong && strings.HasPrefix(line[s.pos:], "**"):
			if ok, err := s.tryStrong(); err != nil {
				return err
			} else if ok {
				continue
			}
		case c == '*' && s.opts.allowEm:
			if ok, err := s.tryEm(); err != nil {
				return err
			} else if ok {
				continue
			}
		case c == '`' && s.opts.allowCode:
			if ok, err := s.tryCode(); err != nil {
				return err
			} else if ok {
				continue
			}
		case c == '!' && s.opts.allowImage && s.pos+1 < len(line) && line[s.pos+1] == '[':
			if ok, err := s.tryImage(); err != nil {
				return err
			} else if ok {
				continue
			}
		case c == '[' && s.opts.allowLink:
			if ok, err := s.tryLink(); err != nil {
				return err
			} else if ok {
				continue
			}
		case c == '<' && s.opts.allowAutolink:
			if ok, err := s.tryAutolink(); err != nil {
				return err
			} else if ok {
				continue
			}
		case c == 'h' && s.opts.allowBareURL && (strings.HasPrefix(line[s.pos:], "http://") || strings.HasPrefix(line[s.pos:], "https://")):
			if ok, err := s.tryBareURL(); err != nil {
				return err
			} else if ok {
				continue
			}
		case c == '>' && s.opts.allowBlockquote && s.pos+1 < len(line) && line[s.pos+1] == ' ' &&
			(s.pos == 0 || line[s.pos-1] == ' '):
			if ok, err := s.tryInlineBlockquote(); err != nil {
				return err
			} else if ok {
				return nil // absorbs the remainder of the line
			}
		}

		s.pending.WriteByte(c)
		s.pos++
	}
	s.flush()
	return nil
}

const escapableBytes = "*\\`![]<>()"

// findClosing scans for close starting at from, skipping escaped characters.
// When nestable is set, each occurrence of open raises the depth by one and
// must be matched by its own close first. It returns the index of the first
// character of the matching close, or -1. Used for `**` and `*` with
// nestable false; brackets and parens are scanned by scanBalanced.
func findClosing(line string, from int, open, close string, nestable bool) int {
	depth := 1
	i := from
	for i < len(line) {
		if line[i] == '\\' && i+1 < len(line) && strings.IndexByte(escapableBytes, line[i+1]) >= 0 {
			i += 2
			continue
		}
		if nestable && strings.HasPrefix(line[i:], open) {
			depth++
			i += len(open)
			continue
		}
		if strings.HasPrefix(line[i:], close) {
			depth--
			if depth == 0 {
				return i
			}
			i += len(close)
			continue
		}
		i++
	}
	return -1
}

func (s *inlineScanner) tryStrong() (bool, error) {
	start := s.pos
	if precededByDoubleSpace(s.line, start) {
		return false, s.fail("whitespace violation before strong emphasis")
	}
	contentStart := start + 2
	if followedBySpace(s.line, contentStart) {
		return false, s.fail("strong emphasis may not start with a space")
	}
	end := findClosing(s.line, contentStart, "**", "**", false)
	if end < 0 {
		return false, nil
	}
	if trailingDoubleSpace(s.line, end) {
		return false, s.fail("strong emphasis may not end with two trailing spaces")
	}
	inner, _, err := parseInlineRestricted(s.line[contentStart:end], 0, s.lineNum, fullInlineOptions().withoutEm())
	if err != nil {
		return false, err
	}
	node := model.New(model.Strong, model.Inline).AppendChildren(inner)
	s.emit(node)
	s.pos = end + 2
	return true, nil
}

func (s *inlineScanner) tryEm() (bool, error) {
	start := s.pos
	if precededByDoubleSpace(s.line, start) {
		return false, s.fail("whitespace violation before emphasis")
	}
	contentStart := start + 1
	if followedBySpace(s.line, contentStart) {
		return false, s.fail("emphasis may not start with a space")
	}
	end := findClosing(s.line, contentStart, "*", "*", false)
	if end < 0 {
		return false, nil
	}
	if trailingDoubleSpace(s.line, end) {
		return false, s.fail("emphasis may not end with two trailing spaces")
	}
	inner, _, err := parseInlineRestricted(s.line[contentStart:end], 0, s.lineNum, fullInlineOptions().withoutStrong())
	if err != nil {
		return false, err
	}
	node := model.New(model.Em, model.Inline).AppendChildren(inner)
	s.emit(node)
	s.pos = end + 1
	return true, nil
}

func (s *inlineScanner) tryCode() (bool, error) {
	start := s.pos
	if precededByDoubleSpace(s.line, start) {
		return false, s.fail("whitespace violation before code span")
	}
	contentStart := start + 1
	if followedBySpace(s.line, contentStart) {
		return false, s.fail("code span may not start with a space")
	}
	end := strings.IndexByte(s.line[contentStart:], '`')
	if end < 0 {
		return false, nil
	}
	end += contentStart
	if trailingDoubleSpace(s.line, end) {
		return false, s.fail("code span may not end with two trailing spaces")
	}
	attr := model.NewAttrs().SetString("translate", "no")
	node := model.New(model.Code, model.Inline).WithAttr(attr)
	node.AppendChild(model.New(model.Text, model.Inline).WithText(s.line[contentStart:end]))
	s.emit(node)
	s.pos = end + 1
	return true, nil
}

// scanBalanced extracts the substring between an opening delimiter already
// consumed up to contentStart and a matching close char, allowing the same
// open/close pair to nest inside at any depth (used for link text `[...]`
// and link/image destinations `(...)`). Inner occurrences of open and close
// are kept, escaped, in the returned text so callers can Unescape them back out after
// extraction; the encoder unescapes href again right before emission.
func scanBalanced(line string, contentStart int, openCh, closeCh byte) (content string, endIdx int, ok bool) {
	var b strings.Builder
	depth := 1
	i := contentStart
	for i < len(line) {
		c := line[i]
		if c == '\\' && i+1 < len(line) && strings.IndexByte(escapableBytes, line[i+1]) >= 0 {
			b.WriteByte(c)
			b.WriteByte(line[i+1])
			i += 2
			continue
		}
		if c == openCh {
			depth++
			b.WriteByte('\\')
			b.WriteByte(c)
			i++
			continue
		}
		if c == closeCh {
			depth--
			if depth == 0 {
				return b.String(), i, true
			}
			b.WriteByte('\\')
			b.WriteByte(c)
			i++
			continue
		}
		b.WriteByte(c)
		i++
	}
	return "", 0, false
}

func (s *inlineScanner) tryLink() (bool, error) {
	start := s.pos
	if precededByDoubleSpace(s.line, start) {
		return false, s.fail("whitespace violation before link")
	}
	if followedBySpace(s.line, start+1) {
		return false, s.fail("link may not start with a space")
	}
	text, bracketEnd, ok := scanBalanced(s.line, start+1, '[', ']')
	if !ok || bracketEnd+1 >= len(s.line) || s.line[bracketEnd+1] != '(' {
		return false, nil
	}
	url, parenEnd, ok := scanBalanced(s.line, bracketEnd+2, '(', ')')
	if !ok {
		return false, nil
	}
	if trailingDoubleSpace(s.line, parenEnd) {
		return false, s.fail("link may not end with two trailing spaces")
	}
	inner, _, err := parseInlineRestricted(text, 0, s.lineNum, codeOnlyOptions())
	if err != nil {
		return false, err
	}
	attr := model.NewAttrs().SetString("href", url)
	node := model.New(model.A, model.Inline).WithAttr(attr).AppendChildren(inner)
	s.emit(node)
	s.pos = parenEnd + 1
	return true, nil
}

func (s *inlineScanner) tryImage() (bool, error) {
	start := s.pos
	if precededByDoubleSpace(s.line, start) {
		return false, s.fail("whitespace violation before image")
	}
	if followedBySpace(s.line, start+2) {
		return false, s.fail("image may not start with a space")
	}
	alt, bracketEnd, ok := scanBalanced(s.line, start+2, '[', ']')
	if !ok || bracketEnd+1 >= len(s.line) || s.line[bracketEnd+1] != '(' {
		return false, nil
	}
	rest, parenEnd, ok := scanBalanced(s.line, bracketEnd+2, '(', ')')
	if !ok {
		return false, nil
	}
	if trailingDoubleSpace(s.line, parenEnd) {
		return false, s.fail("image may not end with two trailing spaces")
	}
	src, title, hasTitle, err := splitImageSrcTitle(rest)
	if err != nil {
		return false, s.fail(err.Error())
	}
	attr := model.NewAttrs()
	attr.SetString("loading", "lazy")
	attr.SetString("decoding", "async")
	attr.SetString("src", src)
	attr.SetString("alt", model.Unescape(alt))
	if hasTitle {
		attr.SetString("title", title)
	}
	node := model.New(model.Img, model.Inline).WithAttr(attr)
	s.emit(node)
	s.pos = parenEnd + 1
	return true, nil
}

// splitImageSrcTitle splits `src "title"` or `src 'title'`, requiring the
// quote delimiters to match.
func splitImageSrcTitle(rest string) (src, title string, hasTitle bool, err error) {
	i := strings.IndexByte(rest, ' ')
	if i < 0 {
		return model.Unescape(rest), "", false, nil
	}
	src = rest[:i]
	j := i + 1
	for j < len(rest) && rest[j] == ' ' {
		j++
	}
	if j >= len(rest) {
		return model.Unescape(src), "", false, nil
	}
	quote := rest[j]
	if quote != '\'' && quote != '"' {
		return "", "", false, errBadTitleDelimiter
	}
	if !strings.HasSuffix(rest, string(quote)) || len(rest)-1 <= j {
		return "", "", false, errBadTitleDelimiter
	}
	title = rest[j+1 : len(rest)-1]
	return model.Unescape(src), model.Unescape(title), true, nil
}

var errBadTitleDelimiter = errors.New("image title delimiter must be ' or \" and must match")

func (s *inlineScanner) tryAutolink() (bool, error) {
	start := s.pos
	if precededByDoubleSpace(s.line, start) {
		return false, s.fail("whitespace violation before autolink")
	}
	end := strings.IndexByte(s.line[start+1:], '>')
	if end < 0 {
		// "if no `>` is found, emit `<` + rest as literal text": the `<`
		// itself falls back to a literal character; scanning resumes from
		// the next rune as usual.
		return false, nil
	}
	if followedBySpace(s.line, start+1) {
		return false, s.fail("autolink may not start with a space")
	}
	end += start + 1
	if trailingDoubleSpace(s.line, end) {
		return false, s.fail("autolink may not end with two trailing spaces")
	}
	url := s.line[start+1 : end]
	attr := model.NewAttrs().SetString("href", url)
	node := model.New(model.A, model.Inline).WithAttr(attr)
	node.AppendChild(model.New(model.Text, model.Inline).WithText(url))
	s.emit(node)
	s.pos = end + 1
	return true, nil
}

func (s *inlineScanner) tryBareURL() (bool, error) {
	start := s.pos
	if precededByDoubleSpace(s.line, start) {
		return false, s.fail("whitespace violation before bare URL")
	}
	end := start
	for end < len(s.line) {
		c := s.line[end]
		if c == ' ' || c == ')' || c == '\t' {
			break
		}
		end++
	}
	if end == start {
		return false, nil
	}
	url := s.line[start:end]
	attr := model.NewAttrs().SetString("href", url)
	node := model.New(model.A, model.Inline).WithAttr(attr)
	node.AppendChild(model.New(model.Text, model.Inline).WithText(url))
	s.emit(node)
	s.pos = end
	return true, nil
}

func (s *inlineScanner) tryInlineBlockquote() (bool, error) {
	contentStart := s.pos + 2
	inner, _, err := parseInlineRestricted(s.line, contentStart, s.lineNum, fullInlineOptions())
	if err != nil {
		return false, err
	}
	p := model.New(model.P, model.Inline).AppendChildren(inner)
	bq := model.New(model.Blockquote, model.Inline)
	bq.AppendChild(p)
	s.emit(bq)
	s.pos = len(s.line)
	return true, nil
}

// CoalesceText merges consecutive text-node siblings in nodes into one.
// Decode applies it to a heading's inline nodes before attaching them.
func CoalesceText(nodes []*model.Node) []*model.Node {
	if len(nodes) < 2 {
		return nodes
	}
	out := make([]*model.Node, 0, len(nodes))
	for _, n := range nodes {
		if n.IsText() && len(out) > 0 && out[len(out)-1].IsText() {
			prev := out[len(out)-1]
			out[len(out)-1] = model.New(model.Text, model.Inline).WithText(prev.Text + n.Text)
			continue
		}
		out = append(out, n)
	}
	return out
}
