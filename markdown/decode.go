// Package markdown implements the two recognizer stages of the engine: the
// line-oriented block parser (component C, this file) and the
// character-by-character inline parser (component B, inline.go) it
// delegates text to.
package markdown

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/shodgson/mdengine/model"
)

var (
	reFence      = regexp.MustCompile("^```(.*)$")
	reCustom     = regexp.MustCompile(`^:::([a-zA-Z]*)(?: +(.*))?$`)
	reHeading    = regexp.MustCompile(`^(#+)( +)(.+)$`)
	reOrderedLI  = regexp.MustCompile(`^( *)(\d+)\.( +)(.+)$`)
	reBulletLI   = regexp.MustCompile(`^( *)-( +)(.+)$`)
	reDD         = regexp.MustCompile(`^:( +)(.+)$`)
	reBlockquote = regexp.MustCompile(`^>( +)(.+)$`)
	reCaption    = regexp.MustCompile(`^Caption: (.+)$`)
	reTableRow   = regexp.MustCompile(`^\|(.*)\|$`)
	reAlignCell  = regexp.MustCompile(`^\s*:?-+:?\s*$`)
)

var rawHTMLTags = map[string]bool{
	"iframe": true, "div": true, "span": true, "p": true, "pre": true, "code": true,
}

// Decode parses a document in the engine's Markdown dialect into its AST
// root, line by line, in recognizer order. It halts and returns a
// *SyntaxError on the first grammar violation.
func Decode(source string) (*model.Node, error) {
	lines := strings.Split(source, "\n")
	root := model.New(model.Root, model.Block).WithLevel(0)
	cursor := root

	var htmlNode *model.Node
	htmlNodeLastLine := -2

	for i, line := range lines {
		lineNum := i + 1

		// 1. Code fence: opens or closes a `pre`, regardless of cursor.
		if m := reFence.FindStringSubmatch(line); m != nil {
			if cursor.Name == model.Pre {
				cursor = cursor.Parent
				continue
			}
			lang, path := splitFenceTrailer(m[1])
			attr := model.NewAttrs()
			if lang != "" {
				attr.SetString("lang", lang)
			}
			if path != "" {
				attr.SetString("path", path)
			}
			pre := model.New(model.Pre, model.Block).WithAttr(attr)
			cursor.AppendChild(pre)
			cursor = pre
			continue
		}

		// 2. Inside a pre: every line is appended verbatim until the fence
		// closes it (handled above).
		if cursor.Name == model.Pre {
			cursor.AppendChild(model.New(model.Text, model.Inline).WithText(line))
			continue
		}

		// 3. Custom block marker.
		if m := reCustom.FindStringSubmatch(line); m != nil {
			var err error
			cursor, err = handleCustomBlock(cursor, m[1], m[2], lineNum, line)
			if err != nil {
				return nil, err
			}
			continue
		}

		// 4. Raw HTML.
		if isRawHTMLLine(line) {
			if htmlNode != nil && htmlNodeLastLine == i-1 {
				htmlNode.AppendChild(model.New(model.Raw, model.Block).WithText(line))
			} else {
				htmlNode = model.New(model.HTML, model.Block)
				htmlNode.AppendChild(model.New(model.Raw, model.Block).WithText(line))
				cursor.AppendChild(htmlNode)
			}
			htmlNodeLastLine = i
			continue
		}

		// 5. Blank line.
		if line == "" {
			cursor = riseToSection(cursor)
			continue
		}

		// 6. Heading.
		if m := reHeading.FindStringSubmatch(line); m != nil {
			if len(m[2]) != 1 {
				return nil, syntaxErrorf(lineNum, line, "whitespace violation after heading marker")
			}
			var err error
			cursor, err = handleHeading(cursor, len(m[1]), m[3], lineNum, line)
			if err != nil {
				return nil, err
			}
			continue
		}

		// 7. Ordered list item.
		if m := reOrderedLI.FindStringSubmatch(line); m != nil {
			if len(m[3]) != 1 {
				return nil, syntaxErrorf(lineNum, line, "whitespace violation after list marker")
			}
			var err error
			cursor, err = handleListItem(cursor, model.OL, m[1], m[4], lineNum, line)
			if err != nil {
				return nil, err
			}
			continue
		}

		// 8. Unordered list item.
		if m := reBulletLI.FindStringSubmatch(line); m != nil {
			if len(m[2]) != 1 {
				return nil, syntaxErrorf(lineNum, line, "whitespace violation after list marker")
			}
			var err error
			cursor, err = handleListItem(cursor, model.UL, m[1], m[3], lineNum, line)
			if err != nil {
				return nil, err
			}
			continue
		}

		// 9. Definition dd.
		if m := reDD.FindStringSubmatch(line); m != nil {
			if len(m[1]) != 1 {
				return nil, syntaxErrorf(lineNum, line, "whitespace violation after definition marker")
			}
			if err := attachDefinition(cursor, m[2], lineNum, line); err != nil {
				return nil, err
			}
			continue
		}

		// 10. Blockquote line.
		if m := reBlockquote.FindStringSubmatch(line); m != nil {
			if len(m[1]) != 1 {
				return nil, syntaxErrorf(lineNum, line, "whitespace violation after blockquote marker")
			}
			var err error
			cursor, err = attachBlockquoteLine(cursor, m[2], lineNum, line)
			if err != nil {
				return nil, err
			}
			continue
		}

		// 11. Table caption.
		if m := reCaption.FindStringSubmatch(line); m != nil {
			cursor = handleCaption(cursor, m[1])
			continue
		}

		// 12. Table row.
		if m := reTableRow.FindStringSubmatch(line); m != nil {
			var err error
			cursor, err = handleTableRow(cursor, m[1], lineNum, line)
			if err != nil {
				return nil, err
			}
			continue
		}

		// 13. Space-only line.
		if strings.TrimSpace(line) == "" {
			return nil, syntaxErrorf(lineNum, line, "whitespace violation: space-only line")
		}

		// 14. Fallthrough: paragraph.
		p := model.New(model.P, model.Block)
		inlineNodes, _, err := ParseInline(line, 0, lineNum)
		if err != nil {
			return nil, err
		}
		p.AppendChildren(inlineNodes)
		cursor.AppendChild(p)
	}

	return root, nil
}

func splitFenceTrailer(trailer string) (lang, path string) {
	if trailer == "" {
		return "", ""
	}
	parts := strings.SplitN(trailer, ":", 2)
	lang = parts[0]
	if len(parts) > 1 {
		path = parts[1]
	}
	return lang, path
}

// isRawHTMLLine recognizes a leading-whitespace-wrapped `<tag` or `</tag`
// where tag is one of the fixed whitelist, or an HTML comment opener.
// Tokenized with golang.org/x/net/html rather than a hand-rolled tag-name
// scan, for the same reason a DOM serializer would: nested/quoted `>` inside
// an attribute value would defeat a naive scan.
func isRawHTMLLine(line string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	if !strings.HasPrefix(trimmed, "<") {
		return false
	}
	if strings.HasPrefix(trimmed, "<!--") {
		return true
	}
	z := html.NewTokenizer(strings.NewReader(trimmed))
	tt := z.Next()
	if tt != html.StartTagToken && tt != html.EndTagToken {
		return false
	}
	name, _ := z.TagName()
	return rawHTMLTags[string(name)]
}

// riseToSection walks up from cursor to the nearest `section` node, or the
// root if none is found first.
func riseToSection(cursor *model.Node) *model.Node {
	result := cursor
	cursor.Ancestors(func(n *model.Node) bool {
		result = n
		return n.Name != model.Section && n.Parent != nil
	})
	return result
}

// riseSectionTo walks up from start to the nearest section-or-root ancestor
// whose Level equals target.
func riseSectionTo(start *model.Node, target int) *model.Node {
	result := start
	start.Ancestors(func(n *model.Node) bool {
		result = n
		if n.Parent == nil {
			return false
		}
		return !(n.Name == model.Section && n.Level == target)
	})
	return result
}

func handleHeading(cursor *model.Node, level int, text string, lineNum int, line string) (*model.Node, error) {
	anc := riseToSection(cursor)
	c := anc.Level
	var parent *model.Node
	switch {
	case c < level:
		if level != c+1 {
			return nil, syntaxErrorf(lineNum, line, "invalid sectioning: heading level jumped from %d to %d", c, level)
		}
		parent = anc
	case c == level:
		parent = anc.Parent
	default:
		parent = riseSectionTo(anc, level-1)
		if parent.Level != level-1 {
			return nil, syntaxErrorf(lineNum, line, "invalid sectioning: no ancestor at level %d", level-1)
		}
	}

	section := model.New(model.Section, model.Block).WithLevel(level)
	parent.AppendChild(section)

	inlineNodes, _, err := ParseInline(text, 0, lineNum)
	if err != nil {
		return nil, err
	}
	heading := model.New(model.Heading, model.Block)
	heading.AppendChildren(CoalesceText(inlineNodes))
	section.AppendChild(heading)
	return section, nil
}

// riseListTo walks up the list ancestry from start (skipping through `li`
// nodes) to the nearest `ul`/`ol` ancestor at the given level.
func riseListTo(start *model.Node, level int) *model.Node {
	found := start
	hit := false
	start.Ancestors(func(n *model.Node) bool {
		if (n.Name == model.UL || n.Name == model.OL) && n.Level == level {
			found = n
			hit = true
			return false
		}
		return true
	})
	if !hit {
		return start
	}
	return found
}

func handleListItem(cursor *model.Node, kind, indent, text string, lineNum int, line string) (*model.Node, error) {
	if len(indent)%2 != 0 {
		return nil, syntaxErrorf(lineNum, line, "indent violation: odd-numbered list indentation")
	}
	depth := len(indent) / 2

	inlineNodes, _, err := ParseInline(text, 0, lineNum)
	if err != nil {
		return nil, err
	}
	li := model.New(model.LI, model.Block).WithLevel(depth)
	li.AppendChildren(inlineNodes)

	isList := cursor.Name == model.UL || cursor.Name == model.OL

	if !isList {
		newList := model.New(kind, model.Block).WithLevel(depth)
		cursor.AppendChild(newList)
		newList.AppendChild(li)
		return newList, nil
	}

	switch {
	case cursor.Level == depth:
		if cursor.Name == kind {
			cursor.AppendChild(li)
			return cursor, nil
		}
		newList := model.New(kind, model.Block).WithLevel(depth)
		cursor.Parent.AppendChild(newList)
		newList.AppendChild(li)
		return newList, nil
	case cursor.Level == depth-1:
		last := cursor.LastChild()
		if last == nil || last.Name != model.LI {
			return nil, syntaxErrorf(lineNum, line, "indent violation: nested list has no parent item")
		}
		newList := model.New(kind, model.Block).WithLevel(depth)
		last.AppendChild(newList)
		newList.AppendChild(li)
		return newList, nil
	case cursor.Level > depth:
		target := riseListTo(cursor, depth)
		if target.Name == kind {
			target.AppendChild(li)
			return target, nil
		}
		newList := model.New(kind, model.Block).WithLevel(depth)
		target.Parent.AppendChild(newList)
		newList.AppendChild(li)
		return newList, nil
	default:
		return nil, syntaxErrorf(lineNum, line, "indent violation: list nesting skipped a level")
	}
}

func attachDefinition(cursor *model.Node, text string, lineNum int, line string) error {
	prev := cursor.LastChild()
	if prev == nil {
		return syntaxErrorf(lineNum, line, "structural violation: dd without a preceding p or dl")
	}

	inlineNodes, _, err := ParseInline(text, 0, lineNum)
	if err != nil {
		return err
	}

	switch prev.Name {
	case model.P:
		cursor.Children = cursor.Children[:len(cursor.Children)-1]
		dt := model.New(model.DT, model.Block)
		dt.AppendChildren(prev.Children)
		dd := model.New(model.DD, model.Block)
		dd.AppendChildren(inlineNodes)
		div := model.New(model.Div, model.Block)
		div.AppendChild(dt)
		div.AppendChild(dd)
		dl := model.New(model.DL, model.Block)
		dl.AppendChild(div)
		cursor.AppendChild(dl)
		return nil
	case model.DL:
		lastDiv := prev.LastChild()
		if lastDiv == nil || lastDiv.Name != model.Div {
			return syntaxErrorf(lineNum, line, "structural violation: malformed definition list")
		}
		dd := model.New(model.DD, model.Block)
		dd.AppendChildren(inlineNodes)
		lastDiv.AppendChild(dd)
		return nil
	default:
		return syntaxErrorf(lineNum, line, "structural violation: dd without a preceding p or dl")
	}
}

func findFirstLink(nodes []*model.Node) *model.Node {
	for _, n := range nodes {
		if n.Name == model.A {
			return n
		}
		if found := findFirstLink(n.Children); found != nil {
			return found
		}
	}
	return nil
}

func attachBlockquoteLine(cursor *model.Node, text string, lineNum int, line string) (*model.Node, error) {
	bq := cursor
	if bq.Name != model.Blockquote {
		bq = model.New(model.Blockquote, model.Block)
		cursor.AppendChild(bq)
	}

	p := model.New(model.P, model.Block)
	if strings.HasPrefix(text, "--- ") {
		rem := text[len("--- "):]
		inlineNodes, _, err := ParseInline(rem, 0, lineNum)
		if err != nil {
			return nil, err
		}
		p.AddText("--- ")
		cite := model.New(model.Cite, model.Inline)
		cite.AppendChildren(inlineNodes)
		p.AppendChild(cite)
		if link := findFirstLink(inlineNodes); link != nil {
			if href, ok := link.Attr.Get("href"); ok && href != nil {
				if bq.Attr == nil {
					bq.Attr = model.NewAttrs()
				}
				bq.Attr.SetString("cite", model.Unescape(*href))
			}
		}
	} else {
		inlineNodes, _, err := ParseInline(text, 0, lineNum)
		if err != nil {
			return nil, err
		}
		p.AppendChildren(inlineNodes)
	}
	bq.AppendChild(p)
	return bq, nil
}

func handleCaption(cursor *model.Node, text string) *model.Node {
	figcaption := model.New(model.Figcaption, model.Block).WithText(model.Unescape(text))
	table := model.New(model.Table, model.Block)
	thead := model.New(model.THead, model.Block)
	table.AppendChild(thead)
	figure := model.New(model.Figure, model.Block)
	figure.AppendChild(figcaption)
	figure.AppendChild(table)
	cursor.AppendChild(figure)
	return thead
}

func splitTableCells(s string) []string {
	parts := strings.Split(s, "|")
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}

func isAlignRow(cells []string) bool {
	count := 0
	for _, c := range cells {
		if !reAlignCell.MatchString(c) {
			return false
		}
		if strings.Contains(c, "-") {
			count++
		}
	}
	return count > 0
}

func cellAlign(cell string) model.Align {
	left := strings.HasPrefix(cell, ":")
	right := strings.HasSuffix(cell, ":")
	switch {
	case left && !right:
		return model.AlignLeft
	case right && !left:
		return model.AlignRight
	default:
		return model.AlignCenter
	}
}

func setAlign(n *model.Node, a model.Align) {
	if n.Attr == nil {
		n.Attr = model.NewAttrs()
	}
	n.Attr.SetString("align", string(a))
}

func handleTableRow(cursor *model.Node, raw string, lineNum int, line string) (*model.Node, error) {
	cells := splitTableCells(raw)

	switch cursor.Name {
	case model.THead:
		if isAlignRow(cells) {
			headerRow := cursor.LastChild()
			if headerRow == nil || headerRow.Name != model.TR {
				return nil, syntaxErrorf(lineNum, line, "structural violation: alignment row without a header row")
			}
			aligns := make([]model.Align, len(cells))
			for i, c := range cells {
				aligns[i] = cellAlign(c)
			}
			for i, th := range headerRow.Children {
				if i < len(aligns) {
					setAlign(th, aligns[i])
				}
			}
			tbody := model.New(model.TBody, model.Block)
			tbody.Aligns = aligns
			cursor.Parent.AppendChild(tbody)
			return tbody, nil
		}
		tr := model.New(model.TR, model.Block)
		for _, cell := range cells {
			th := model.New(model.TH, model.Block)
			inlineNodes, _, err := ParseInline(cell, 0, lineNum)
			if err != nil {
				return nil, err
			}
			th.AppendChildren(inlineNodes)
			tr.AppendChild(th)
		}
		cursor.AppendChild(tr)
		return cursor, nil
	case model.TBody:
		tr := model.New(model.TR, model.Block)
		for i, cell := range cells {
			td := model.New(model.TD, model.Block)
			if i < len(cursor.Aligns) {
				setAlign(td, cursor.Aligns[i])
			}
			inlineNodes, _, err := ParseInline(cell, 0, lineNum)
			if err != nil {
				return nil, err
			}
			td.AppendChildren(inlineNodes)
			tr.AppendChild(td)
		}
		cursor.AppendChild(tr)
		return cursor, nil
	default:
		return nil, syntaxErrorf(lineNum, line, "structural violation: Table caption required")
	}
}

func nearestDetails(cursor *model.Node) *model.Node {
	var found *model.Node
	cursor.Ancestors(func(n *model.Node) bool {
		if n.Name == model.Details {
			found = n
			return false
		}
		return true
	})
	return found
}

func handleCustomBlock(cursor *model.Node, name, trailing string, lineNum int, line string) (*model.Node, error) {
	trailing = strings.TrimSpace(trailing)

	if name == "" {
		target := nearestDetails(cursor)
		if target == nil {
			return nil, syntaxErrorf(lineNum, line, "structural violation: unmatched ::: close")
		}
		return target.Parent, nil
	}

	var class, summaryText string
	switch name {
	case "details":
		class = "details"
		summaryText = trailing
	case "message":
		if trailing == "" {
			class, summaryText = "message", "message"
		} else {
			class, summaryText = trailing, trailing
		}
	default:
		return nil, syntaxErrorf(lineNum, line, "structural violation: unknown custom block %q", name)
	}

	details := model.New(model.Details, model.Block)
	details.Attr = model.NewAttrs().SetString("class", class)
	summary := model.New(model.Summary, model.Block)
	inlineNodes, _, err := ParseInline(summaryText, 0, lineNum)
	if err != nil {
		return nil, err
	}
	summary.AppendChildren(inlineNodes)
	details.AppendChild(summary)
	inner := model.New(model.Section, model.Block).WithLevel(0)
	details.AppendChild(inner)
	cursor.AppendChild(details)
	return inner, nil
}
