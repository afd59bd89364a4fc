package types

import (
	"strconv"
	"strings"
)

// TokenKind distinguishes literal text from property holes in a template.
type TokenKind int

const (
	// TextToken is literal text, with "{{" and "}}" already unescaped
	TextToken TokenKind = iota
	// PropertyToken is a "{Name}" hole
	PropertyToken
)

// Destructuring is the capturing hint placed in front of a hole name.
type Destructuring int

const (
	// DestructureDefault renders the value as-is
	DestructureDefault Destructuring = iota
	// DestructureStructure ("@") renders the value as structured data
	DestructureStructure
	// DestructureStringify ("$") renders the value as a string
	DestructureStringify
)

// Token is one element of a parsed message template.
type Token struct {
	Kind        TokenKind
	Raw         string // original template text for this token
	Text        string // unescaped literal text for TextToken
	Name        string // property name for PropertyToken
	Format      string // format specifier after ':'
	Alignment   int    // padding width after ','; negative means left-aligned
	Destructure Destructuring
}

// MessageTemplate is the raw, unrendered message text of an event together
// with its parsed tokens. The raw text is the stable identity of the message.
type MessageTemplate struct {
	Text   string
	Tokens []Token
}

// ParseTemplate parses text into a MessageTemplate. Parsing never fails:
// malformed holes are kept as literal text.
func ParseTemplate(text string) *MessageTemplate {
	return &MessageTemplate{Text: text, Tokens: parseTokens(text)}
}

// PropertyNames returns the distinct hole names in order of first appearance.
func (t *MessageTemplate) PropertyNames() []string {
	var names []string
	seen := make(map[string]bool)
	for _, tok := range t.Tokens {
		if tok.Kind != PropertyToken || seen[tok.Name] {
			continue
		}
		seen[tok.Name] = true
		names = append(names, tok.Name)
	}
	return names
}

// String returns the raw template text.
func (t *MessageTemplate) String() string {
	return t.Text
}

func parseTokens(text string) []Token {
	var tokens []Token
	var lit strings.Builder
	var raw strings.Builder

	flush := func() {
		if raw.Len() == 0 {
			return
		}
		tokens = append(tokens, Token{Kind: TextToken, Raw: raw.String(), Text: lit.String()})
		lit.Reset()
		raw.Reset()
	}

	for i := 0; i < len(text); {
		c := text[i]
		switch {
		case c == '{' && i+1 < len(text) && text[i+1] == '{':
			lit.WriteByte('{')
			raw.WriteString("{{")
			i += 2
		case c == '}' && i+1 < len(text) && text[i+1] == '}':
			lit.WriteByte('}')
			raw.WriteString("}}")
			i += 2
		case c == '{':
			end := strings.IndexByte(text[i+1:], '}')
			if end < 0 {
				lit.WriteString(text[i:])
				raw.WriteString(text[i:])
				i = len(text)
				continue
			}
			hole := text[i : i+end+2]
			tok, ok := parseHole(hole)
			if !ok {
				lit.WriteString(hole)
				raw.WriteString(hole)
			} else {
				flush()
				tokens = append(tokens, tok)
			}
			i += end + 2
		default:
			lit.WriteByte(c)
			raw.WriteByte(c)
			i++
		}
	}
	flush()
	return tokens
}

// parseHole parses "{[@$]Name[,align][:format]}".
func parseHole(hole string) (Token, bool) {
	body := hole[1 : len(hole)-1]
	tok := Token{Kind: PropertyToken, Raw: hole}

	if body == "" {
		return tok, false
	}
	switch body[0] {
	case '@':
		tok.Destructure = DestructureStructure
		body = body[1:]
	case '$':
		tok.Destructure = DestructureStringify
		body = body[1:]
	}

	if idx := strings.IndexByte(body, ':'); idx >= 0 {
		tok.Format = body[idx+1:]
		body = body[:idx]
	}
	if idx := strings.IndexByte(body, ','); idx >= 0 {
		align, err := strconv.Atoi(strings.TrimSpace(body[idx+1:]))
		if err != nil {
			return tok, false
		}
		tok.Alignment = align
		body = body[:idx]
	}

	if !validName(body) {
		return tok, false
	}
	tok.Name = body
	return tok, true
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' {
			continue
		}
		return false
	}
	return true
}
