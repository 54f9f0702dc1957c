package freewebnovel

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/brogergvhs/noveld/internal/book"
)

// junkSelector matches everything dropped from descriptions and chapter
// bodies. html.Render writes the children of the raw-text elements in this
// list unescaped, which is not valid XHTML, so they go as well.
const junkSelector = `script, style, ins, noscript, iframe, noembed, noframes, xmp, plaintext, ` +
	`.ad, .ads, .adsbygoogle, [id^="ad-"], [class*="advert"]`

// Sanitize strips ads and scripts from an HTML fragment and rewrites image
// sources to absolute URLs against base. The result is serialized with void
// elements self-closed so it can go straight into an XHTML page. Running it on
// its own output changes nothing.
func Sanitize(fragment string, base *url.URL) (string, error) {
	root, err := parseFragment(fragment)
	if err != nil {
		return "", err
	}

	sel := goquery.NewDocumentFromNode(root).Selection
	clean(sel, base)

	out, err := sel.Html()
	if err != nil {
		return "", fmt.Errorf("render fragment: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// clean mutates sel in place.
func clean(sel *goquery.Selection, base *url.URL) {
	sel.Find(junkSelector).Remove()

	sel.Find("img[src]").Each(func(_ int, img *goquery.Selection) {
		src, _ := img.Attr("src")
		img.SetAttr("src", resolveURL(base, src))
	})

	for _, n := range sel.Nodes {
		scrub(n)
	}
}

// reAttrName accepts attribute names that are also valid XML names.
var reAttrName = regexp.MustCompile(`^[A-Za-z_:][-A-Za-z0-9_:.]*$`)

// scrub drops comments below n and strips characters XML cannot carry from
// text and attribute values.
func scrub(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling

		switch c.Type {
		case html.CommentNode:
			n.RemoveChild(c)
		case html.TextNode:
			c.Data = book.StripInvalidXML(c.Data)
		case html.ElementNode:
			attrs := c.Attr[:0]
			for _, a := range c.Attr {
				if !reAttrName.MatchString(a.Key) {
					continue
				}
				a.Val = book.StripInvalidXML(a.Val)
				attrs = append(attrs, a)
			}
			c.Attr = attrs
			scrub(c)
		}

		c = next
	}
}

// parseFragment parses s as the children of a <div>, so leading elements are
// never hoisted into a synthetic <head>.
func parseFragment(s string) (*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}

	nodes, err := html.ParseFragment(strings.NewReader(s), ctx)
	if err != nil {
		return nil, fmt.Errorf("parse fragment: %w", err)
	}

	root := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return root, nil
}

func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || base == nil {
		return href
	}

	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if u.IsAbs() {
		return u.String()
	}

	return base.ResolveReference(u).String()
}
