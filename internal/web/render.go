package web

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"github.com/ziadkadry99/pkweb/internal/pkapi"
	"github.com/ziadkadry99/pkweb/internal/view"
)

// PlaceholderAvatarURL is shown for systems and members without an avatar.
const PlaceholderAvatarURL = "https://discordapp.com/assets/6debd47ed13483642cf09e832ed0bc1b.png"

// UnnamedSystem is displayed when a system has no name.
const UnnamedSystem = "Unnamed"

// PageData is passed to every page template.
type PageData struct {
	Title    string
	BasePath string
	LoggedIn bool
	LoginURL string
	CSRF     template.HTML
	Error    string
	Delay    int    // not-found redirect delay in seconds
	Target   string // post-login navigation target
	System   *SystemData
}

// SystemData is the render model of a system profile.
type SystemData struct {
	ID       string
	BasePath string
	State    string
	System   *pkapi.System
	Members  []pkapi.Member
	Error    string
}

// NewSystemData builds the render model for a snapshot.
func NewSystemData(id, basePath string, snap view.Snapshot) *SystemData {
	d := &SystemData{
		ID:       id,
		BasePath: basePath,
		State:    snap.State.String(),
		System:   snap.System,
		Members:  snap.Members,
	}
	if snap.Err != nil {
		d.Error = snap.Err.Error()
	}
	if d.System == nil {
		d.System = &pkapi.System{ID: id}
	}
	return d
}

// Renderer executes the embedded page templates.
type Renderer struct {
	md    goldmark.Markdown
	pages map[string]*template.Template
}

var pageSources = map[string]string{
	"home":     homeTemplate,
	"shell":    systemShellTemplate,
	"system":   systemPageTemplate,
	"notfound": notFoundTemplate,
	"login":    loginTemplate,
}

// NewRenderer parses every page template.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{
		// Raw HTML in descriptions is escaped (WithUnsafe is not set).
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				highlighting.NewHighlighting(
					highlighting.WithStyle("github"),
				),
			),
			goldmark.WithRendererOptions(
				goldmarkHTML.WithHardWraps(),
			),
		),
		pages: make(map[string]*template.Template),
	}

	base, err := template.New("base").Funcs(r.funcs()).Parse(baseTemplates)
	if err != nil {
		return nil, fmt.Errorf("parsing base templates: %w", err)
	}
	for name, src := range pageSources {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base templates: %w", err)
		}
		if _, err := clone.Parse(src); err != nil {
			return nil, fmt.Errorf("parsing %s template: %w", name, err)
		}
		r.pages[name] = clone
	}
	return r, nil
}

func (r *Renderer) funcs() template.FuncMap {
	return template.FuncMap{
		"avatarURL":  AvatarURL,
		"systemName": SystemName,
		"birthday":   FormatBirthday,
		"colorHex":   ColorHex,
		"cssColor": func(hex string) template.CSS {
			// hex has already passed ColorHex.
			return template.CSS("#" + hex)
		},
		"markdown": r.Markdown,
	}
}

// Page renders the full page called name.
func (r *Renderer) Page(w io.Writer, name string, data *PageData) error {
	return r.Fragment(w, name, "page", data)
}

// Fragment renders one named template of a page.
func (r *Renderer) Fragment(w io.Writer, page, name string, data *PageData) error {
	t, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	return t.ExecuteTemplate(w, name, data)
}

// SystemHTML renders just the system profile body.
func (r *Renderer) SystemHTML(d *SystemData) (string, error) {
	var buf bytes.Buffer
	if err := r.pages["system"].ExecuteTemplate(&buf, "system", d); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Markdown renders a description. On error the escaped source is shown.
func (r *Renderer) Markdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(buf.String())
}

// AvatarURL returns url, or the placeholder when it is empty.
func AvatarURL(url string) string {
	if strings.TrimSpace(url) == "" {
		return PlaceholderAvatarURL
	}
	return url
}

// SystemName returns the display name of s.
func SystemName(s *pkapi.System) string {
	if s == nil || strings.TrimSpace(s.Name) == "" {
		return UnnamedSystem
	}
	return s.Name
}

var hexColor = regexp.MustCompile(`^[0-9a-fA-F]{6}$`)

// ColorHex normalizes a member color to six lowercase hex digits, or
// returns "" when it is not a valid RGB triple.
func ColorHex(c string) string {
	c = strings.TrimPrefix(strings.TrimSpace(c), "#")
	if !hexColor.MatchString(c) {
		return ""
	}
	return strings.ToLower(c)
}

// FormatBirthday renders an ISO date as "Jan 02, 2006". Years 0001 and
// 0004 mark a birthday without a year and are left out.
func FormatBirthday(s string) string {
	if s == "" {
		return ""
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return s
	}
	if t.Year() == 1 || t.Year() == 4 {
		return t.Format("Jan 02")
	}
	return t.Format("Jan 02, 2006")
}

// DelaySeconds rounds a redirect delay up to whole seconds.
func DelaySeconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}

// StyleCSS returns the stylesheet served at /static/style.css.
func StyleCSS() string { return styleCSS }
