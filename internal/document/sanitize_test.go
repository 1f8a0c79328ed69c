package document_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rezonia/einvoice-sri/internal/document"
)

func TestEscape(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"plain text", "ACME S.A.", "ACME S.A."},
		{"ampersand", "Juan & Hijos", "Juan &amp; Hijos"},
		{"angle brackets", "a<b>c", "a&lt;b&gt;c"},
		{"quotes", `say "hola"`, "say &quot;hola&quot;"},
		{"apostrophe", "O'Higgins", "O&apos;Higgins"},
		{"already escaped", "Juan &amp; Hijos", "Juan &amp; Hijos"},
		{"mixed escaped and raw", "A &lt;b&gt; & c", "A &lt;b&gt; &amp; c"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, document.Escape(tt.in))
		})
	}
}

func TestEscape_Idempotent(t *testing.T) {
	inputs := []string{
		"Juan & Hijos",
		"a<b>'c'\"d\"",
		"&amp;&lt;&gt;&quot;&apos;",
		"plain",
	}
	for _, in := range inputs {
		once := document.Escape(in)
		assert.Equal(t, once, document.Escape(once), "input %q", in)
	}
}

func TestUnescape(t *testing.T) {
	assert.Equal(t, "Juan & Hijos", document.Unescape("Juan &amp; Hijos"))
	assert.Equal(t, `a<b>"c"'d'`, document.Unescape("a&lt;b&gt;&quot;c&quot;&apos;d&apos;"))
	assert.Equal(t, "no entities", document.Unescape("no entities"))
}
