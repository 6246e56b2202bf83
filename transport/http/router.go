package http

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/slighter12/sysprop-go/dispatch"
	"github.com/slighter12/sysprop-go/logger"
	"github.com/slighter12/sysprop-go/registry"
	"github.com/slighter12/sysprop-go/render"
	"github.com/slighter12/sysprop-go/schema"
)

var catalogueOffers = []string{render.MediaHTML, render.MediaJSON}

func RegisterRoutes(e *echo.Echo, s *Server) {
	e.GET("/", s.handleIndex)
	e.GET("/api", s.handleCatalogue)
	e.POST("/api/:name", s.handleAPICall)
	e.GET("/tool/:name", s.handleToolForm)
	e.POST("/tool/:name", s.handleToolSubmit)
}

func (s *Server) handleIndex(c echo.Context) error {
	return c.Render(http.StatusOK, "index", indexPage(s.dispatcher.Registry()))
}

// catalogueEntry is one tool in the machine-readable catalogue.
type catalogueEntry struct {
	URL    string   `json:"url"`
	Title  string   `json:"title"`
	Doc    string   `json:"doc"`
	Params []string `json:"params"`
}

// Catalogue maps each registered tool name to its entry, in registry order.
func Catalogue(reg *registry.Registry) *orderedmap.OrderedMap[string, catalogueEntry] {
	catalogue := orderedmap.New[string, catalogueEntry]()
	for _, tool := range reg.List() {
		catalogue.Set(tool.Name(), catalogueEntry{
			URL:    "/api/" + tool.Name(),
			Title:  tool.Summary(),
			Doc:    tool.Detail(),
			Params: tool.Schema().Names(),
		})
	}
	return catalogue
}

func (s *Server) handleCatalogue(c echo.Context) error {
	mediaType, ok := render.Negotiate(c.Request().Header.Get(echo.HeaderAccept), catalogueOffers)
	if !ok {
		return c.String(http.StatusNotAcceptable, "Not acceptable")
	}
	if mediaType == render.MediaHTML {
		return c.Render(http.StatusOK, "api", apiPage(s.dispatcher.Registry()))
	}
	return c.JSON(http.StatusOK, Catalogue(s.dispatcher.Registry()))
}

type apiFieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type apiError struct {
	Kind    dispatch.Kind   `json:"kind"`
	Message string          `json:"message"`
	Tool    string          `json:"tool,omitempty"`
	Fields  []apiFieldError `json:"fields,omitempty"`
}

// ErrorDocument is the body of every locally handled API failure.
type ErrorDocument struct {
	Error apiError `json:"error"`
}

func newErrorDocument(err *dispatch.Error) ErrorDocument {
	doc := ErrorDocument{Error: apiError{Kind: err.Kind, Message: err.Message, Tool: err.Tool}}
	for _, f := range err.Fields {
		doc.Error.Fields = append(doc.Error.Fields, apiFieldError{Field: f.Field, Message: f.Message})
	}
	return doc
}

func (s *Server) handleAPICall(c echo.Context) error {
	req := c.Request()
	resp, err := s.dispatcher.Dispatch(req.Context(), dispatch.Request{
		Tool:          c.Param("name"),
		Source:        schema.SourceJSON,
		Body:          req.Body,
		ContentLength: req.ContentLength,
		ContentType:   req.Header.Get(echo.HeaderContentType),
		// The API always answers in JSON.
		Accept: render.MediaJSON,
	})
	if err != nil {
		if derr, ok := errors.AsType[*dispatch.Error](err); ok {
			logger.Debug("API call rejected", "tool", derr.Tool, "kind", derr.Kind, "error", err)
			return c.JSON(derr.Status(), newErrorDocument(derr))
		}
		return err
	}
	return c.Blob(http.StatusOK, resp.MediaType, resp.Body)
}

func (s *Server) lookup(name string) (*registry.Tool, error) {
	tool, err := s.dispatcher.Registry().Lookup(name)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Unknown tool").SetInternal(err)
	}
	return tool, nil
}

func (s *Server) handleToolForm(c echo.Context) error {
	tool, err := s.lookup(c.Param("name"))
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "form", formPage(tool, nil, nil))
}

func (s *Server) handleToolSubmit(c echo.Context) error {
	req := c.Request()
	resp, err := s.dispatcher.Dispatch(req.Context(), dispatch.Request{
		Tool:          c.Param("name"),
		Source:        schema.SourceForm,
		Body:          req.Body,
		ContentLength: req.ContentLength,
		ContentType:   req.Header.Get(echo.HeaderContentType),
		Accept:        req.Header.Get(echo.HeaderAccept),
	})
	if err != nil {
		derr, ok := errors.AsType[*dispatch.Error](err)
		if !ok {
			return err
		}
		if derr.Kind == dispatch.KindValidation {
			return s.renderInvalidForm(c, derr)
		}
		return echo.NewHTTPError(derr.Status(), derr.Message).SetInternal(err)
	}

	if resp.MediaType == render.MediaHTML {
		return c.Render(http.StatusOK, "result", resultPage(resp.Tool, resp.Body))
	}
	return c.Blob(http.StatusOK, resp.MediaType, resp.Body)
}

func (s *Server) renderInvalidForm(c echo.Context, derr *dispatch.Error) error {
	tool, err := s.lookup(derr.Tool)
	if err != nil {
		return err
	}
	fieldErrors := make(map[string][]string, len(derr.Fields))
	for _, f := range derr.Fields {
		fieldErrors[f.Field] = append(fieldErrors[f.Field], f.Message)
	}
	submitted := url.Values{}
	if form, ok := derr.Input.(schema.FormPayload); ok && form != nil {
		submitted = form.Values()
	}
	return c.Render(http.StatusBadRequest, "form", formPage(tool, submitted, fieldErrors))
}
