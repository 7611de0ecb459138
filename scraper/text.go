package scraper

import (
	"bytes"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// NodeText concatenates every text node under node.
func NodeText(node *html.Node) string {
	var buf bytes.Buffer
	nodeTextRecursive(node, &buf)
	return buf.String()
}

func nodeTextRecursive(node *html.Node, buf *bytes.Buffer) {
	if node == nil {
		return
	}
	switch node.Type {
	case html.TextNode:
		buf.WriteString(node.Data)
		return
	case html.ElementNode:
		if node.Data == "br" {
			buf.WriteByte('\n')
			return
		}
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		nodeTextRecursive(child, buf)
	}
	if node.Type == html.ElementNode && (node.Data == "p" || node.Data == "div" || node.Data == "li") {
		buf.WriteByte('\n')
	}
}

// StripTags turns an HTML fragment into plain text, keeping line breaks from
// <br> and block elements.
func StripTags(fragment string) string {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	})
	if err != nil {
		return NormalizeSpace(fragment)
	}
	var buf bytes.Buffer
	for _, n := range nodes {
		nodeTextRecursive(n, &buf)
	}
	return NormalizeLines(buf.String())
}

var blankLines = regexp.MustCompile(`\n{3,}`)

// NormalizeLines collapses whitespace inside each line and keeps at most one
// blank line between paragraphs.
func NormalizeLines(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = NormalizeSpace(line)
	}
	out := strings.Join(lines, "\n")
	out = blankLines.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

// NormalizeSpace trims s and collapses internal whitespace runs to one space.
func NormalizeSpace(s string) string {
	fields := strings.FieldsFunc(s, unicode.IsSpace)
	return strings.Join(fields, " ")
}

var (
	fileSizeRegexp  = regexp.MustCompile(`(?i)(\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:[.,]\d+)?)\s*(KB|MB|GB)\b`)
	thousandsRegexp = regexp.MustCompile(`^\d{1,3}(?:,\d{3})+$`)
)

// ParseFileSize finds the first "<n> KB|MB|GB" in s and converts it to bytes
// using 1024 multiples. "1,234.5" and "1,234" use comma grouping; "48,2" uses a
// decimal comma.
func ParseFileSize(s string) (int64, bool) {
	m := fileSizeRegexp.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseFloat(normalizeNumber(m[1]), 64)
	if err != nil {
		return 0, false
	}
	switch strings.ToUpper(m[2]) {
	case "GB":
		n *= 1024 * 1024 * 1024
	case "MB":
		n *= 1024 * 1024
	case "KB":
		n *= 1024
	}
	return int64(math.Round(n)), true
}

func normalizeNumber(num string) string {
	if strings.Contains(num, ".") || thousandsRegexp.MatchString(num) {
		return strings.ReplaceAll(num, ",", "")
	}
	return strings.ReplaceAll(num, ",", ".")
}

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"INR": "₹",
	"KRW": "₩",
	"AUD": "A$",
	"CAD": "CA$",
}

// FormatPrice renders a storefront price. Zero is "Free"; an empty currency is
// taken as USD and codes without a known symbol are appended after the amount.
func FormatPrice(price float64, currency string) string {
	if price == 0 {
		return "Free"
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = "USD"
	}
	decimals := 2
	if currency == "JPY" || currency == "KRW" {
		decimals = 0
	}
	amount := strconv.FormatFloat(price, 'f', decimals, 64)
	if sym, ok := currencySymbols[currency]; ok {
		return sym + amount
	}
	return amount + " " + currency
}
