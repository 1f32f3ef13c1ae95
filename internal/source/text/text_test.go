package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlain(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain text", "  Perfect   Days ", "Perfect Days"},
		{"named entities", "Tom &amp; Jerry &lt;3&gt; &quot;Live&quot; &apos;24", `Tom & Jerry <3> "Live" '24`},
		{"numeric references", "Am&#233;lie &#x2014; 4K", "Amélie — 4K"},
		{"extended named entity", "Caf&eacute; Society&nbsp;", "Café Society"},
		{"strips tags", "<p>Directed by <em>Wim Wenders</em></p>\n<p>Japan, 2023</p>", "Directed by Wim Wenders Japan, 2023"},
		{"bare ampersand", "Q & A", "Q & A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Plain(tt.in))
		})
	}
}
