package emitter

import (
	"go/token"
	"strconv"
	"strings"
	"unicode"
)

// receiver names the receiver of every generated method
const receiver = "m"

// exportedName joins parts into one exported identifier. Characters that
// cannot appear in an identifier split words.
func exportedName(parts ...string) string {
	var b strings.Builder
	for _, part := range parts {
		words := strings.FieldsFunc(part, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		for _, w := range words {
			runes := []rune(w)
			runes[0] = unicode.ToUpper(runes[0])
			b.WriteString(string(runes))
		}
	}
	return b.String()
}

// argName turns a field or parameter name into a usable argument name
func argName(name string, i int) string {
	if name == "" || name == "_" || name == receiver {
		return "arg" + strconv.Itoa(i)
	}
	var arg string
	if strings.ToUpper(name) == name {
		arg = strings.ToLower(name)
	} else {
		runes := []rune(name)
		runes[0] = unicode.ToLower(runes[0])
		arg = string(runes)
	}
	if token.IsKeyword(arg) || arg == receiver {
		return arg + "Arg"
	}
	return arg
}

// fieldName turns a parameter name into an exported field name
func fieldName(name string, i int) string {
	if f := exportedName(name); f != "" {
		return f
	}
	return "Arg" + strconv.Itoa(i)
}

// snakeCase converts a Go identifier into a file name stem
func snakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			prevLower := i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1]))
			nextLower := i > 0 && i+1 < len(runes) && unicode.IsUpper(runes[i-1]) && unicode.IsLower(runes[i+1])
			if prevLower || nextLower {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// nameSet hands out member names of one generated type
type nameSet map[string]struct{}

// claim takes the first free candidate
func (s nameSet) claim(candidates ...string) (string, bool) {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if _, taken := s[c]; !taken {
			s[c] = struct{}{}
			return c, true
		}
	}
	return "", false
}
