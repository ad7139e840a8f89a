package parser

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/dgallion1/manuscript/internal/segment"
	"golang.org/x/text/encoding/charmap"
)

// RTFParser handles .rtf files. It keeps text and line structure and drops
// every other control word.
type RTFParser struct{}

var rtfBlankLines = regexp.MustCompile(`\n[ \t]*(?:\n[ \t]*)+`)

// rtfSkipDestinations are groups whose content is never visible text.
var rtfSkipDestinations = map[string]bool{
	"fonttbl": true, "colortbl": true, "stylesheet": true, "info": true,
	"pict": true, "object": true, "header": true, "headerl": true,
	"headerr": true, "headerf": true, "footer": true, "footerl": true,
	"footerr": true, "footerf": true, "footnote": true, "fldinst": true,
	"listtable": true, "listoverridetable": true, "rsidtbl": true,
	"generator": true, "themedata": true, "colorschememapping": true,
	"latentstyles": true, "datastore": true, "xmlnstbl": true,
	"filetbl": true, "revtbl": true, "pgdsctbl": true,
}

// rtfSymbols maps symbol control words to their text.
var rtfSymbols = map[string]string{
	"par":       "\n\n",
	"sect":      "\n\n",
	"page":      "\n\n",
	"line":      "\n",
	"tab":       "\t",
	"emdash":    "—",
	"endash":    "–",
	"bullet":    "•",
	"lquote":    "‘",
	"rquote":    "’",
	"ldblquote": "“",
	"rdblquote": "”",
	"emspace":   " ",
	"enspace":   " ",
}

func (p *RTFParser) Parse(r io.Reader, filename string) ([]segment.RawParagraph, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read rtf: %w", err)
	}
	text, err := RTFToText(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptContainer, filename, err)
	}
	return splitParagraphs(text), nil
}

// splitParagraphs splits plain text on blank lines into paragraphs with no
// style hint.
func splitParagraphs(text string) []segment.RawParagraph {
	var paras []segment.RawParagraph
	for _, block := range rtfBlankLines.Split(text, -1) {
		if t := trimLines(block); t != "" {
			paras = append(paras, segment.RawParagraph{Text: t})
		}
	}
	return paras
}

type rtfGroup struct {
	skip bool
	uc   int
}

// RTFToText strips control words and groups from an RTF document.
// Paragraph ends become blank lines and \line becomes a single newline.
func RTFToText(src []byte) (string, error) {
	if !bytes.HasPrefix(bytes.TrimLeft(src, " \t\r\n"), []byte(`{\rtf`)) {
		return "", fmt.Errorf("missing {\\rtf header")
	}

	var (
		out     strings.Builder
		stack   []rtfGroup
		cur     = rtfGroup{uc: 1}
		pending int  // characters still to drop after a \uN escape
		high    rune // high surrogate waiting for its pair
	)
	latin1 := charmap.ISO8859_1

	emit := func(s string) {
		if cur.skip {
			return
		}
		if pending > 0 {
			pending--
			return
		}
		if high != 0 {
			out.WriteRune(utf8.RuneError)
			high = 0
		}
		out.WriteString(s)
	}

	for i := 0; i < len(src); i++ {
		c := src[i]
		switch c {
		case '{':
			stack = append(stack, cur)
			pending = 0
		case '}':
			if len(stack) == 0 {
				return "", fmt.Errorf("unbalanced group at offset %d", i)
			}
			cur = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			pending = 0
		case '\r', '\n':
		case '\\':
			if i+1 >= len(src) {
				continue
			}
			next := src[i+1]
			switch {
			case next == '\\' || next == '{' || next == '}':
				emit(string(next))
				i++
			case next == '\'':
				if i+3 >= len(src) {
					return "", fmt.Errorf("truncated hex escape at offset %d", i)
				}
				b, err := strconv.ParseUint(string(src[i+2:i+4]), 16, 8)
				if err != nil {
					return "", fmt.Errorf("bad hex escape at offset %d: %w", i, err)
				}
				emit(string(latin1.DecodeByte(byte(b))))
				i += 3
			case next == '*':
				cur.skip = true
				i++
			case next == '~':
				emit(" ")
				i++
			case next == '_':
				emit("-")
				i++
			case next == '\r' || next == '\n':
				emit("\n\n")
				i++
			case isASCIILetter(next):
				word, param, hasParam, end := readControlWord(src, i+1)
				i = end - 1
				switch {
				case rtfSkipDestinations[word]:
					cur.skip = true
				case word == "uc" && hasParam:
					cur.uc = param
				case word == "u" && hasParam:
					if param < 0 {
						param += 65536
					}
					r := rune(param)
					switch {
					case r >= 0xD800 && r < 0xDC00 && !cur.skip && pending == 0:
						emit("")
						high = r
					case r >= 0xDC00 && r < 0xE000 && high != 0:
						pair := utf16.DecodeRune(high, r)
						high = 0
						emit(string(pair))
					default:
						emit(string(r))
					}
					if !cur.skip {
						pending = cur.uc
					}
				default:
					if s, ok := rtfSymbols[word]; ok {
						emit(s)
					}
				}
			default:
				// Other control symbols (\-, \|, \:) carry no text.
				i++
			}
		default:
			if c < 0x80 {
				emit(string(c))
			} else {
				emit(string(latin1.DecodeByte(c)))
			}
		}
	}
	if len(stack) != 0 {
		return "", fmt.Errorf("%d unclosed groups at end of input", len(stack))
	}
	if high != 0 {
		out.WriteRune(utf8.RuneError)
	}
	return out.String(), nil
}

// readControlWord parses a control word starting at src[start] (the first
// letter). It returns the index just past the word, its optional numeric
// parameter and the single space delimiter.
func readControlWord(src []byte, start int) (word string, param int, hasParam bool, end int) {
	j := start
	for j < len(src) && isASCIILetter(src[j]) {
		j++
	}
	word = string(src[start:j])
	k := j
	if k < len(src) && src[k] == '-' {
		k++
	}
	d := k
	for d < len(src) && src[d] >= '0' && src[d] <= '9' {
		d++
	}
	if d > k {
		n, err := strconv.Atoi(string(src[j:d]))
		if err == nil {
			param, hasParam = n, true
		}
		j = d
	}
	if j < len(src) && src[j] == ' ' {
		j++
	}
	return word, param, hasParam, j
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
