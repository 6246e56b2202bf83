package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/yuin/goldmark"

	"github.com/slighter12/sysprop-go/registry"
	"github.com/slighter12/sysprop-go/schema"
)

//go:embed templates/*.html
var templateFS embed.FS

var markdown = goldmark.New()

// Pages renders the HTML views through echo's Renderer hook.
type Pages struct {
	templates *template.Template
}

func NewPages() (*Pages, error) {
	tmpl, err := template.New("").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse page templates: %w", err)
	}
	return &Pages{templates: tmpl}, nil
}

func (p *Pages) Render(w io.Writer, name string, data any, _ echo.Context) error {
	return p.templates.ExecuteTemplate(w, name, data)
}

// renderMarkdown converts tool documentation to HTML. Raw HTML in the source
// is not passed through.
func renderMarkdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(buf.String())
}

type toolView struct {
	Name    string
	Summary string
	Doc     template.HTML
	URL     string
	FormURL string
	Params  []string
}

func newToolView(tool *registry.Tool) toolView {
	return toolView{
		Name:    tool.Name(),
		Summary: tool.Summary(),
		Doc:     renderMarkdown(tool.Detail()),
		URL:     "/api/" + tool.Name(),
		FormURL: "/tool/" + tool.Name(),
		Params:  tool.Schema().Names(),
	}
}

type fieldView struct {
	Name      string
	Label     string
	Kind      schema.Kind
	Required  bool
	Boolean   bool
	Rangeable bool
	Choices   []string

	Value   string
	Checked bool

	RangeOn bool
	Start   string
	Stop    string
	Count   string

	Errors []string
}

// RangeName returns the form key of one rangeable sub-field.
func (f fieldView) RangeName(suffix string) string {
	return f.Name + suffix
}

type pageData struct {
	Title  string
	Tools  []toolView
	Tool   *toolView
	Fields []fieldView
	Result template.HTML
	Errors []string
}

func indexPage(reg *registry.Registry) pageData {
	return pageData{Title: "Welcome", Tools: toolViews(reg)}
}

func apiPage(reg *registry.Registry) pageData {
	return pageData{Title: "JSON API Documentation", Tools: toolViews(reg)}
}

func toolViews(reg *registry.Registry) []toolView {
	tools := reg.List()
	views := make([]toolView, 0, len(tools))
	for _, tool := range tools {
		views = append(views, newToolView(tool))
	}
	return views
}

// formPage builds the input form for tool. submitted and fieldErrors are nil
// on the first visit and hold the previous attempt on a re-render.
func formPage(tool *registry.Tool, submitted url.Values, fieldErrors map[string][]string) pageData {
	view := newToolView(tool)
	fields := tool.Schema().Fields()
	data := pageData{Title: tool.Summary(), Tool: &view, Fields: make([]fieldView, 0, len(fields))}
	for _, field := range fields {
		data.Fields = append(data.Fields, newFieldView(field, submitted, fieldErrors[field.Name]))
	}
	return data
}

func resultPage(tool *registry.Tool, fragment []byte) pageData {
	view := newToolView(tool)
	return pageData{Title: tool.Summary(), Tool: &view, Result: template.HTML(fragment)}
}

func newFieldView(field schema.FieldSpec, submitted url.Values, errs []string) fieldView {
	fv := fieldView{
		Name:      field.Name,
		Label:     field.DisplayLabel(),
		Kind:      field.Kind,
		Required:  field.Has(schema.ValidatorRequired),
		Boolean:   field.Kind == schema.KindBoolean,
		Rangeable: field.Kind == schema.KindRangeableFloat,
		Errors:    errs,
	}
	for _, v := range field.Validators {
		if v.Kind == schema.ValidatorAnyOf {
			for _, choice := range v.Values {
				fv.Choices = append(fv.Choices, fmt.Sprint(choice))
			}
		}
	}

	if submitted == nil {
		fv.Value = defaultText(field.Default)
		fv.Checked = field.Default == true
		fv.Start = fv.Value
		fv.Count = "1"
		return fv
	}

	fv.Value = submitted.Get(field.Name)
	_, fv.Checked = submitted[field.Name]
	if fv.Rangeable {
		fv.Start = submitted.Get(field.Name + schema.RangeStartSuffix)
		fv.Stop = submitted.Get(field.Name + schema.RangeStopSuffix)
		fv.Count = submitted.Get(field.Name + schema.RangeCountSuffix)
		_, fv.RangeOn = submitted[field.Name+schema.RangeFlagSuffix]
		if fv.Start == "" {
			fv.Start = fv.Value
		}
	}
	return fv
}

func defaultText(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case bool:
		return ""
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case schema.Structured:
		return v.CanonicalString()
	default:
		return fmt.Sprint(v)
	}
}
