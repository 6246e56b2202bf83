package dispatch

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/slighter12/sysprop-go/registry"
	"github.com/slighter12/sysprop-go/render"
	"github.com/slighter12/sysprop-go/schema"
	"github.com/slighter12/sysprop-go/telemetry"
)

var errBoom = errors.New("boom")

func testRegistry() *registry.Registry {
	return registry.Discover([]registry.Candidate{
		{
			Name:    "echo_temperature",
			Summary: "Echo temperatures",
			Schema:  schema.MustNew(schema.RangeableFloat("temperature", schema.Required(), schema.Between(200, 400))),
			Handler: func(args schema.Args) (any, error) {
				out := orderedmap.New[string, any]()
				out.Set("temperature", args.Floats("temperature"))
				return out, nil
			},
		},
		{
			Name:    "explode",
			Schema:  schema.MustNew(),
			Handler: func(schema.Args) (any, error) { return nil, errBoom },
		},
		{
			Name:    "unrenderable",
			Schema:  schema.MustNew(),
			Handler: func(schema.Args) (any, error) { return make(chan int), nil },
		},
	})
}

func jsonRequest(tool, body string) Request {
	return Request{
		Tool:          tool,
		Source:        schema.SourceJSON,
		Body:          strings.NewReader(body),
		ContentLength: int64(len(body)),
		ContentType:   "application/json",
		Accept:        render.MediaJSON,
	}
}

func formRequest(tool, body, accept string) Request {
	return Request{
		Tool:          tool,
		Source:        schema.SourceForm,
		Body:          strings.NewReader(body),
		ContentLength: int64(len(body)),
		ContentType:   "application/x-www-form-urlencoded",
		Accept:        accept,
	}
}

func TestDispatchJSONRange(t *testing.T) {
	d := New(testRegistry())
	resp, err := d.Dispatch(context.Background(), jsonRequest("echo_temperature",
		`{"temperature": {"start": 250, "stop": 350, "count": 3}}`))
	require.NoError(t, err)
	assert.Equal(t, render.MediaJSON, resp.MediaType)
	assert.Equal(t, `{"temperature":[250,300,350]}`, string(resp.Body))
	assert.Equal(t, "echo_temperature", resp.Tool.Name())
}

func TestDispatchUnknownToolBothSources(t *testing.T) {
	d := New(testRegistry())
	for _, req := range []Request{
		jsonRequest("nonexistent", `{}`),
		formRequest("nonexistent", "", render.MediaHTML),
	} {
		_, err := d.Dispatch(context.Background(), req)
		require.True(t, IsNotFound(err), "source %s: %v", req.Source, err)
		assert.True(t, registry.IsToolNotFound(err))

		derr, ok := errors.AsType[*Error](err)
		require.True(t, ok)
		assert.Equal(t, http.StatusNotFound, derr.Status())
	}
}

func TestDispatchRejectsOversizeBeforeParsing(t *testing.T) {
	d := New(testRegistry(), WithLimits(Limits{APIBodyBytes: 64}))
	garbage := "{" + strings.Repeat("not json at all ", 10)

	// Declared length over the ceiling.
	_, err := d.Dispatch(context.Background(), jsonRequest("echo_temperature", garbage))
	require.True(t, IsPayloadTooLarge(err), "got %v", err)

	// Unknown length: the ceiling is enforced while reading.
	req := jsonRequest("echo_temperature", garbage)
	req.ContentLength = -1
	_, err = d.Dispatch(context.Background(), req)
	require.True(t, IsPayloadTooLarge(err), "got %v", err)
	assert.False(t, IsBadPayload(err))

	derr, _ := errors.AsType[*Error](err)
	assert.Equal(t, http.StatusRequestEntityTooLarge, derr.Status())
}

func TestDispatchFormCeilingIsSeparate(t *testing.T) {
	d := New(testRegistry(), WithLimits(Limits{APIBodyBytes: 16, FormBodyBytes: 1024}))
	body := "temperature=300&padding=" + strings.Repeat("x", 100)
	resp, err := d.Dispatch(context.Background(), formRequest("echo_temperature", body, render.MediaJSON))
	require.NoError(t, err)
	assert.Equal(t, `{"temperature":[300]}`, string(resp.Body))
}

func TestDispatchBadJSON(t *testing.T) {
	d := New(testRegistry())
	for _, body := range []string{`{"temperature": `, `[1,2]`, `"text"`} {
		_, err := d.Dispatch(context.Background(), jsonRequest("echo_temperature", body))
		assert.True(t, IsBadPayload(err), "%s: %v", body, err)
	}
}

func TestDispatchValidationCarriesFieldsAndInput(t *testing.T) {
	d := New(testRegistry())
	_, err := d.Dispatch(context.Background(), formRequest("echo_temperature", "temperature=500", render.MediaHTML))

	derr, ok := errors.AsType[*Error](err)
	require.True(t, ok)
	assert.Equal(t, KindValidation, derr.Kind)
	assert.Equal(t, http.StatusBadRequest, derr.Status())
	require.Len(t, derr.Fields, 1)
	assert.Equal(t, "temperature", derr.Fields[0].Field)
	assert.ErrorIs(t, err, schema.ErrValidation)

	form, ok := derr.Input.(schema.FormPayload)
	require.True(t, ok)
	assert.Equal(t, "500", form.Values().Get("temperature"))
}

func TestDispatchRangeWithoutStartSkipsHandler(t *testing.T) {
	calls := 0
	reg := registry.Discover([]registry.Candidate{{
		Name:   "optional_temperature",
		Schema: schema.MustNew(schema.RangeableFloat("temperature", schema.Between(200, 400))),
		Handler: func(args schema.Args) (any, error) {
			calls++
			return args.Floats("temperature"), nil
		},
	}})
	d := New(reg)

	_, err := d.Dispatch(context.Background(), jsonRequest("optional_temperature",
		`{"temperature": {"stop": 300, "count": 3}}`))
	require.True(t, IsValidation(err), "got %v", err)
	assert.Zero(t, calls)

	resp, err := d.Dispatch(context.Background(), jsonRequest("optional_temperature", `{}`))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "[]", string(resp.Body))
}

func TestDispatchNegotiatesFormResults(t *testing.T) {
	d := New(testRegistry())
	body := "temperature-range=on&temperature-start=250&temperature-stop=350&temperature-count=2"

	resp, err := d.Dispatch(context.Background(), formRequest("echo_temperature", body, "application/xml"))
	require.NoError(t, err)
	assert.Equal(t, render.MediaXML, resp.MediaType)
	assert.Contains(t, string(resp.Body), "<result><temperature><item>250</item><item>350</item></temperature></result>")

	resp, err = d.Dispatch(context.Background(), formRequest("echo_temperature", body, "text/html"))
	require.NoError(t, err)
	assert.Equal(t, render.MediaHTML, resp.MediaType)
	assert.Contains(t, string(resp.Body), `<table class="result-mapping">`)

	_, err = d.Dispatch(context.Background(), formRequest("echo_temperature", body, "image/png"))
	assert.True(t, IsNotAcceptable(err))
}

func TestDispatchMultipartUsesFileContents(t *testing.T) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("temperature", "t.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("310"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	d := New(testRegistry())
	resp, err := d.Dispatch(context.Background(), Request{
		Tool:          "echo_temperature",
		Source:        schema.SourceForm,
		Body:          &buf,
		ContentLength: -1,
		ContentType:   w.FormDataContentType(),
		Accept:        render.MediaJSON,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"temperature":[310]}`, string(resp.Body))
}

func TestDispatchPropagatesHandlerAndRenderErrors(t *testing.T) {
	d := New(testRegistry())

	_, err := d.Dispatch(context.Background(), jsonRequest("explode", `{}`))
	assert.Same(t, errBoom, err)

	_, err = d.Dispatch(context.Background(), jsonRequest("unrenderable", ``))
	_, ok := errors.AsType[*render.Error](err)
	assert.True(t, ok, "got %v", err)
	_, ok = errors.AsType[*Error](err)
	assert.False(t, ok)
}

func TestDispatchObserved(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	obs, err := telemetry.NewObserver(mp.Meter("test"), noop.NewTracerProvider().Tracer("test"))
	require.NoError(t, err)

	d := New(testRegistry(), WithObserver(obs))
	_, _ = d.Dispatch(context.Background(), jsonRequest("echo_temperature", `{"temperature": 300}`))
	_, _ = d.Dispatch(context.Background(), jsonRequest("nonexistent", `{}`))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	outcomes := map[string]int64{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != "sysprop.dispatch.requests" {
				continue
			}
			for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
				v, _ := dp.Attributes.Value("outcome")
				outcomes[v.AsString()] += dp.Value
			}
		}
	}
	assert.Equal(t, map[string]int64{"ok": 1, "not_found": 1}, outcomes)
}
