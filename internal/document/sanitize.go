package document

import "strings"

// xmlEscaper escapes the five reserved XML characters.
var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// xmlUnescaper reverses the five standard entities. The non-amp entities are
// replaced first so that double-escaped input collapses one level per pass.
var xmlUnescaper = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&apos;", "'",
	"&amp;", "&",
)

// Escape returns s with XML reserved characters escaped. Input that already
// carries standard entities is normalized first, so Escape is idempotent:
// Escape(Escape(s)) == Escape(s).
func Escape(s string) string {
	return xmlEscaper.Replace(Unescape(s))
}

// Unescape resolves the five standard XML entities in s.
func Unescape(s string) string {
	if !strings.ContainsRune(s, '&') {
		return s
	}
	return xmlUnescaper.Replace(s)
}

// clean normalizes free text before it enters the document tree. The tree
// serializer escapes reserved characters exactly once on output, so text is
// stored unescaped here; pre-escaped caller input does not double-escape.
func clean(s string) string {
	return Unescape(s)
}
