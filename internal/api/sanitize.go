package api

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var allowedTags = map[atom.Atom]bool{
	atom.P: true, atom.Br: true, atom.Strong: true, atom.B: true, atom.Em: true, atom.I: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.Ul: true, atom.Ol: true,
	atom.Li: true, atom.Code: true, atom.Pre: true, atom.Blockquote: true, atom.A: true,
	atom.Del: true, atom.Hr: true,
}

// droppedWithContent are removed together with everything inside them.
var droppedWithContent = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Iframe: true, atom.Object: true, atom.Template: true,
}

// SanitizeHTML keeps a small allowlist of formatting tags. Links keep only
// http(s) hrefs and gain rel="nofollow noopener". Everything else is reduced
// to its escaped text.
func SanitizeHTML(fragment string) string {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	})
	if err != nil {
		return html.EscapeString(fragment)
	}
	var buf bytes.Buffer
	for _, node := range nodes {
		writeSanitized(&buf, node)
	}
	return buf.String()
}

func writeSanitized(buf *bytes.Buffer, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		buf.WriteString(html.EscapeString(n.Data))
		return
	case html.ElementNode:
	default:
		return
	}
	if droppedWithContent[n.DataAtom] {
		return
	}
	allowed := allowedTags[n.DataAtom]
	if allowed {
		buf.WriteByte('<')
		buf.WriteString(n.Data)
		if n.DataAtom == atom.A {
			for _, attr := range n.Attr {
				if attr.Key == "href" && safeHref(attr.Val) {
					buf.WriteString(` href="`)
					buf.WriteString(html.EscapeString(attr.Val))
					buf.WriteString(`" rel="nofollow noopener"`)
					break
				}
			}
		}
		buf.WriteByte('>')
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		writeSanitized(buf, child)
	}
	if allowed && n.DataAtom != atom.Br && n.DataAtom != atom.Hr {
		buf.WriteString("</")
		buf.WriteString(n.Data)
		buf.WriteByte('>')
	}
}

func safeHref(href string) bool {
	lower := strings.ToLower(strings.TrimSpace(href))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
