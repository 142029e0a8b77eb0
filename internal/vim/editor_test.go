package vim

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tednaaa/resto/internal/editor"
)

func press(e *Editor, keys ...Key) Effect {
	var last Effect
	for _, k := range keys {
		last = e.Handle(k)
	}
	return last
}

func typeString(e *Editor, s string) Effect {
	return press(e, Keys(s)...)
}

var esc = NamedKey("esc")

func TestNewEditor(t *testing.T) {
	t.Run("starts in normal mode with empty buffer", func(t *testing.T) {
		e := NewEditor()
		assert.Equal(t, ModeNormal, e.Mode())
		assert.Equal(t, "", e.Text())
	})

	t.Run("pre-seeded text", func(t *testing.T) {
		e := NewEditor(WithText("a\nb"))
		assert.Equal(t, "a\nb", e.Text())
	})

	t.Run("single line strips newlines", func(t *testing.T) {
		e := NewEditor(WithSingleLine(), WithText("https://x\n.com"))
		assert.Equal(t, "https://x.com", e.Text())
		assert.True(t, e.SingleLine())
	})
}

func TestEditor_Insert(t *testing.T) {
	t.Run("i inserts before cursor", func(t *testing.T) {
		e := NewEditor(WithText("bc"))
		effect := typeString(e, "ia")
		assert.True(t, effect.Changed)
		assert.Equal(t, "abc", e.Text())
		assert.Equal(t, ModeInsert, e.Mode())
	})

	t.Run("a appends after cursor", func(t *testing.T) {
		e := NewEditor(WithText("ac"))
		typeString(e, "ab")
		assert.Equal(t, "abc", e.Text())
	})

	t.Run("A and I", func(t *testing.T) {
		e := NewEditor(WithText("  mid"))
		typeString(e, "A!")
		press(e, esc)
		typeString(e, "I<")
		assert.Equal(t, "  <mid!", e.Text())
	})

	t.Run("o and O open lines", func(t *testing.T) {
		e := NewEditor(WithText("middle"))
		typeString(e, "obelow")
		press(e, esc)
		typeString(e, "ggOabove")
		assert.Equal(t, "above\nmiddle\nbelow", e.Text())
	})

	t.Run("esc moves back one column", func(t *testing.T) {
		e := NewEditor()
		typeString(e, "iabc")
		assert.Equal(t, editor.Position{Col: 3}, e.Buffer().Cursor())
		press(e, esc)
		assert.Equal(t, ModeNormal, e.Mode())
		assert.Equal(t, editor.Position{Col: 2}, e.Buffer().Cursor())
	})

	t.Run("esc at line start stays", func(t *testing.T) {
		e := NewEditor(WithText("abc"))
		press(e, RuneKey('i'), esc)
		assert.Equal(t, editor.Position{}, e.Buffer().Cursor())
		assert.Equal(t, "abc", e.Text())
	})

	t.Run("enter and backspace", func(t *testing.T) {
		e := NewEditor()
		press(e, RuneKey('i'), RuneKey('a'), NamedKey("enter"), RuneKey('b'))
		assert.Equal(t, "a\nb", e.Text())
		press(e, NamedKey("backspace"), NamedKey("backspace"))
		assert.Equal(t, "a", e.Text())
	})

	t.Run("single line ignores enter", func(t *testing.T) {
		e := NewEditor(WithSingleLine())
		press(e, RuneKey('i'), RuneKey('a'), NamedKey("enter"), RuneKey('b'))
		assert.Equal(t, "ab", e.Text())
	})

	t.Run("insert then delete restores text", func(t *testing.T) {
		e := NewEditor(WithText("GET /users"))
		press(e, RuneKey('A'))
		typeString(e, "?page=2")
		for range "?page=2" {
			press(e, NamedKey("backspace"))
		}
		assert.Equal(t, "GET /users", e.Text())
	})
}

func TestEditor_NormalEdits(t *testing.T) {
	t.Run("x deletes and yanks", func(t *testing.T) {
		e := NewEditor(WithText("abc"))
		effect := typeString(e, "2x")
		assert.Equal(t, "c", e.Text())
		assert.True(t, effect.HasYank)
		assert.Equal(t, "ab", effect.Yanked)
	})

	t.Run("dd and p", func(t *testing.T) {
		e := NewEditor(WithText("one\ntwo\nthree"))
		effect := typeString(e, "dd")
		assert.Equal(t, "one", effect.Yanked)
		assert.Equal(t, "two\nthree", e.Text())

		typeString(e, "p")
		assert.Equal(t, "two\none\nthree", e.Text())
		assert.Equal(t, 1, e.Buffer().Cursor().Line)
	})

	t.Run("yy and P", func(t *testing.T) {
		e := NewEditor(WithText("a\nb"))
		typeString(e, "jyyP")
		assert.Equal(t, "a\nb\nb", e.Text())
		assert.Equal(t, 1, e.Buffer().Cursor().Line)
	})

	t.Run("count dd", func(t *testing.T) {
		e := NewEditor(WithText("1\n2\n3\n4"))
		effect := typeString(e, "3dd")
		assert.Equal(t, "1\n2\n3", effect.Yanked)
		assert.Equal(t, "4", e.Text())
	})

	t.Run("cc clears the line into insert", func(t *testing.T) {
		e := NewEditor(WithText("old\nkeep"))
		typeString(e, "ccnew")
		assert.Equal(t, "new\nkeep", e.Text())
		assert.Equal(t, ModeInsert, e.Mode())
	})

	t.Run("D and C", func(t *testing.T) {
		e := NewEditor(WithText("hello world"))
		typeString(e, "wD")
		assert.Equal(t, "hello ", e.Text())

		e = NewEditor(WithText("hello world"))
		typeString(e, "wCthere")
		assert.Equal(t, "hello there", e.Text())
	})

	t.Run("charwise put after cursor", func(t *testing.T) {
		e := NewEditor(WithText("ac"))
		typeString(e, "xp")
		assert.Equal(t, "ca", e.Text())
	})

	t.Run("undo and redo", func(t *testing.T) {
		e := NewEditor(WithText("abc"))
		typeString(e, "x")
		typeString(e, "x")
		assert.Equal(t, "c", e.Text())

		typeString(e, "u")
		assert.Equal(t, "bc", e.Text())
		typeString(e, "u")
		assert.Equal(t, "abc", e.Text())
		typeString(e, "u")
		assert.Equal(t, "abc", e.Text())

		press(e, NamedKey("ctrl+r"))
		assert.Equal(t, "bc", e.Text())
	})

	t.Run("an insert session is one undo step", func(t *testing.T) {
		e := NewEditor()
		typeString(e, "ihello")
		press(e, esc)
		typeString(e, "u")
		assert.Equal(t, "", e.Text())
	})

	t.Run("put with empty register is a no-op", func(t *testing.T) {
		e := NewEditor(WithText("abc"))
		effect := typeString(e, "p")
		assert.False(t, effect.Changed)
	})
}

func TestEditor_Visual(t *testing.T) {
	t.Run("yank returns to normal without changing text", func(t *testing.T) {
		e := NewEditor(WithText("hello world"))
		effect := typeString(e, "vey")
		assert.Equal(t, ModeNormal, e.Mode())
		assert.Equal(t, "hello", effect.Yanked)
		assert.False(t, effect.Changed)
		assert.False(t, e.Buffer().HasSelection())
		assert.Equal(t, "hello", e.Register())
	})

	t.Run("delete removes selection", func(t *testing.T) {
		e := NewEditor(WithText("hello world"))
		effect := typeString(e, "wv$d")
		assert.Equal(t, "world", effect.Yanked)
		assert.Equal(t, "hello ", e.Text())
		assert.Equal(t, ModeNormal, e.Mode())
	})

	t.Run("change enters insert", func(t *testing.T) {
		e := NewEditor(WithText("GET x"))
		typeString(e, "v2lcPUT")
		assert.Equal(t, "PUT x", e.Text())
		assert.Equal(t, ModeInsert, e.Mode())
	})

	t.Run("esc clears selection and keeps text", func(t *testing.T) {
		e := NewEditor(WithText("abc\ndef"))
		typeString(e, "vjl")
		require.True(t, e.Buffer().HasSelection())
		press(e, esc)
		assert.Equal(t, ModeNormal, e.Mode())
		assert.False(t, e.Buffer().HasSelection())
		assert.Equal(t, "abc\ndef", e.Text())
	})

	t.Run("p replaces selection with register", func(t *testing.T) {
		e := NewEditor(WithText("foo bar"))
		typeString(e, "veywvep")
		assert.Equal(t, "foo foo", e.Text())
	})
}

func TestEditor_Command(t *testing.T) {
	t.Run("submits command line", func(t *testing.T) {
		e := NewEditor(WithText("body"))
		typeString(e, ":clear all")
		assert.Equal(t, "clear all", e.CommandLine())
		assert.Equal(t, ModeCommand, e.Mode())

		effect := press(e, NamedKey("enter"))
		assert.True(t, effect.Submitted)
		assert.Equal(t, "clear all", effect.Command)
		assert.Equal(t, ModeNormal, e.Mode())
		assert.Equal(t, "", e.CommandLine())
		assert.Equal(t, "body", e.Text())
	})

	t.Run("command keys never touch the buffer", func(t *testing.T) {
		e := NewEditor(WithText("body"))
		effect := typeString(e, ":dd")
		assert.False(t, effect.Changed)
		assert.Equal(t, "body", e.Text())
	})

	t.Run("empty submit does nothing", func(t *testing.T) {
		e := NewEditor()
		effect := press(e, RuneKey(':'), NamedKey("enter"))
		assert.False(t, effect.Submitted)
		assert.Equal(t, ModeNormal, e.Mode())
	})

	t.Run("esc discards", func(t *testing.T) {
		e := NewEditor()
		typeString(e, ":send")
		effect := press(e, esc)
		assert.False(t, effect.Submitted)
		assert.Equal(t, ModeNormal, e.Mode())
	})
}

func TestEditor_Paste(t *testing.T) {
	t.Run("normal mode inserts at cursor", func(t *testing.T) {
		e := NewEditor(WithText("ac"))
		typeString(e, "l")
		effect := e.Paste("b")
		assert.True(t, effect.Changed)
		assert.Equal(t, "abc", e.Text())
		assert.Equal(t, ModeNormal, e.Mode())
	})

	t.Run("insert mode inserts multi-line text", func(t *testing.T) {
		e := NewEditor()
		typeString(e, "i")
		e.Paste("{\n  \"a\": 1\n}")
		assert.Equal(t, "{\n  \"a\": 1\n}", e.Text())
	})

	t.Run("visual mode replaces selection", func(t *testing.T) {
		e := NewEditor(WithText("http://old"))
		typeString(e, "v$")
		e.Paste("https://new")
		assert.Equal(t, "https://new", e.Text())
		assert.Equal(t, ModeNormal, e.Mode())
	})

	t.Run("command mode appends to the command line", func(t *testing.T) {
		e := NewEditor(WithText("keep"))
		typeString(e, ":import ")
		e.Paste("curl \\\n  https://x.com")
		assert.Equal(t, "import curl    https://x.com", e.CommandLine())
		assert.Equal(t, "keep", e.Text())
	})

	t.Run("command mode drops line continuations", func(t *testing.T) {
		e := NewEditor()
		typeString(e, ":import ")
		e.Paste("curl -X POST \\\r\n  https://x.com \\\n  -d a=1")
		assert.Equal(t, "import curl -X POST    https://x.com    -d a=1", e.CommandLine())
		assert.Equal(t, "keep", e.Text())
	})

	t.Run("bracketed paste message", func(t *testing.T) {
		e := NewEditor(WithSingleLine())
		typeString(e, "i")
		e.HandleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("https://a\n.b"), Paste: true})
		assert.Equal(t, "https://a.b", e.Text())
	})
}

func TestEditor_KeyBursts(t *testing.T) {
	t.Run("normal mode runs each rune as a motion", func(t *testing.T) {
		e := NewEditor(WithText("line1\nline2\nline3"))
		effect := e.HandleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("jj")})
		assert.False(t, effect.Changed)
		assert.Equal(t, "line1\nline2\nline3", e.Text())
		assert.Equal(t, 2, e.Buffer().Cursor().Line)
	})

	t.Run("visual mode keeps the selection text", func(t *testing.T) {
		e := NewEditor(WithText("line1\nline2\nline3"))
		typeString(e, "v")
		e.HandleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("jj")})
		assert.Equal(t, "line1\nline2\nline3", e.Text())
		assert.Equal(t, ModeVisual, e.Mode())
	})

	t.Run("yy in one message yanks the line", func(t *testing.T) {
		e := NewEditor(WithText("abc"))
		effect := e.HandleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("yy")})
		assert.True(t, effect.HasYank)
		assert.Equal(t, "abc", effect.Yanked)
	})
}

func TestEditor_SetText(t *testing.T) {
	e := NewEditor(WithText("old"))
	typeString(e, "i")
	e.SetText("new")
	assert.Equal(t, ModeNormal, e.Mode())
	assert.Equal(t, "new", e.Text())

	typeString(e, "u")
	assert.Equal(t, "old", e.Text())
}

func TestEditor_PanesAreIndependent(t *testing.T) {
	url := NewEditor(WithSingleLine())
	body := NewEditor()

	typeString(url, "i")
	assert.Equal(t, ModeInsert, url.Mode())
	assert.Equal(t, ModeNormal, body.Mode())

	typeString(body, "v")
	assert.Equal(t, ModeInsert, url.Mode())
	assert.Equal(t, ModeVisual, body.Mode())
}
