package web

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/pkweb/internal/pkapi"
	"github.com/ziadkadry99/pkweb/internal/view"
)

func TestAvatarURL(t *testing.T) {
	assert.Equal(t, PlaceholderAvatarURL, AvatarURL(""))
	assert.Equal(t, PlaceholderAvatarURL, AvatarURL("  "))
	assert.Equal(t, "https://cdn.example/a.png", AvatarURL("https://cdn.example/a.png"))
}

func TestSystemName(t *testing.T) {
	assert.Equal(t, "Unnamed", SystemName(nil))
	assert.Equal(t, "Unnamed", SystemName(&pkapi.System{ID: "a"}))
	assert.Equal(t, "Sys", SystemName(&pkapi.System{ID: "a", Name: "Sys"}))
}

func TestColorHex(t *testing.T) {
	tests := map[string]string{
		"ff00aa":  "ff00aa",
		"#FF00AA": "ff00aa",
		"":        "",
		"fff":     "",
		"gg0000":  "",
		"ff00aa0": "",
	}
	for in, want := range tests {
		assert.Equal(t, want, ColorHex(in), "ColorHex(%q)", in)
	}
}

func TestFormatBirthday(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"1990-04-12", "Apr 12, 1990"},
		{"0001-12-25", "Dec 25"},
		{"0004-02-29", "Feb 29"},
		{"", ""},
		{"not a date", "not a date"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatBirthday(tt.in), "FormatBirthday(%q)", tt.in)
	}
}

func TestMarkdownEscapesRawHTML(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	out := string(r.Markdown("hello *there*\n\n<img src=x onerror=alert(1)>"))
	assert.Contains(t, out, "<em>there</em>")
	assert.NotContains(t, out, "onerror")
}

func TestSystemHTMLStates(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	html, err := r.SystemHTML(NewSystemData("abcde", "", view.Snapshot{State: view.Loading}))
	require.NoError(t, err)
	assert.Contains(t, html, `class="loading"`)

	html, err = r.SystemHTML(NewSystemData("abcde", "", view.Snapshot{State: view.Failed, Err: errors.New("boom")}))
	require.NoError(t, err)
	assert.Contains(t, html, "boom")
	assert.Contains(t, html, `href="/system/abcde"`)

	members := []pkapi.Member{{ID: "1", Name: "Ann"}, {ID: "2", Name: "Ben"}}
	html, err = r.SystemHTML(NewSystemData("abcde", "", view.Snapshot{
		State:   view.Loaded,
		System:  &pkapi.System{ID: "abcde"},
		Members: members,
	}))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(html, `class="member"`))
	assert.Contains(t, html, "Unnamed")
}

func TestNotFoundPageUsesBasePath(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Page(&buf, "notfound", &PageData{Delay: 5}))
	assert.Contains(t, buf.String(), `content="5;url=/"`)

	assert.Error(t, r.Page(&buf, "nope", &PageData{}))
}

func TestDelaySeconds(t *testing.T) {
	assert.Equal(t, 3, DelaySeconds(3e9))
	assert.Equal(t, 2, DelaySeconds(1500e6))
}
