package lsp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/removestar/pkg/observability"
	"github.com/Sumatoshi-tech/removestar/pkg/removestar"
)

const helpersModule = "def load(): pass\ndef save(): pass\n"

// recorder captures the notifications a handler sends to the client.
type recorder struct {
	published []*protocol.PublishDiagnosticsParams
}

func (r *recorder) context() *glsp.Context {
	return &glsp.Context{
		Notify: func(method string, params any) {
			if method != methodPublishDiagnostics {
				return
			}

			if p, ok := params.(*protocol.PublishDiagnosticsParams); ok {
				r.published = append(r.published, p)
			}
		},
	}
}

func (r *recorder) last(t *testing.T) *protocol.PublishDiagnosticsParams {
	t.Helper()
	require.NotEmpty(t, r.published)

	return r.published[len(r.published)-1]
}

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "helpers.py"), []byte(helpersModule), 0o600))

	return NewServer(removestar.DefaultOptions(), nil, false), dir
}

func openDocument(t *testing.T, srv *Server, rec *recorder, uri, text string) {
	t.Helper()

	require.NoError(t, srv.didOpen(rec.context(), &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, LanguageID: "python", Version: 1, Text: text},
	}))
}

func TestServer_Initialize(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)

	res, err := srv.initialize(&glsp.Context{}, &protocol.InitializeParams{})
	require.NoError(t, err)

	result, ok := res.(protocol.InitializeResult)
	require.True(t, ok)
	assert.Equal(t, "removestar", result.ServerInfo.Name)
	assert.Equal(t, true, result.Capabilities.CodeActionProvider)

	syncOpts, ok := result.Capabilities.TextDocumentSync.(*protocol.TextDocumentSyncOptions)
	require.True(t, ok)
	require.NotNil(t, syncOpts.Change)
	assert.Equal(t, protocol.TextDocumentSyncKindFull, *syncOpts.Change)
}

func TestServer_DidOpenPublishesDiagnostics(t *testing.T) {
	t.Parallel()

	srv, dir := newTestServer(t)
	rec := &recorder{}
	uri := PathToURI(filepath.Join(dir, "main.py"))

	openDocument(t, srv, rec, uri, "from .helpers import *\n\nload()\nmissing()\n")

	published := rec.last(t)
	assert.Equal(t, uri, published.URI)
	require.Len(t, published.Diagnostics, 2)

	star := published.Diagnostics[0]
	assert.Equal(t, protocol.Range{
		Start: protocol.Position{Line: 0, Character: 0},
		End:   protocol.Position{Line: 0, Character: 22},
	}, star.Range)
	assert.Equal(t, "'from .helpers import *' can be replaced with 'from .helpers import load'", star.Message)
	assert.Equal(t, CodeStarImport, star.Code.Value)
	assert.Equal(t, protocol.DiagnosticSeverityWarning, *star.Severity)
	assert.Equal(t, "removestar", *star.Source)

	unresolved := published.Diagnostics[1]
	assert.Equal(t, protocol.Range{
		Start: protocol.Position{Line: 3, Character: 0},
		End:   protocol.Position{Line: 3, Character: 7},
	}, unresolved.Range)
	assert.Equal(t, "could not find import for 'missing'", unresolved.Message)
	assert.Equal(t, string(removestar.KindUnresolved), unresolved.Code.Value)
}

func TestServer_UnusedStarImport(t *testing.T) {
	t.Parallel()

	srv, dir := newTestServer(t)
	rec := &recorder{}

	openDocument(t, srv, rec, PathToURI(filepath.Join(dir, "main.py")), "from .helpers import *\nx = 1\n")

	published := rec.last(t)
	require.Len(t, published.Diagnostics, 1)
	assert.Equal(t, "'from .helpers import *' is unused and can be removed", published.Diagnostics[0].Message)
}

func TestServer_ErrorDiagnostics(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		text     string
		line     protocol.UInteger
		contains string
	}{
		{"syntax error", "from .helpers import *\ndef (:\n", 1, "syntax error"},
		{"missing module", "from .nope import *\n", 0, "module not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv, dir := newTestServer(t)
			rec := &recorder{}

			openDocument(t, srv, rec, PathToURI(filepath.Join(dir, "main.py")), tt.text)

			published := rec.last(t)
			require.Len(t, published.Diagnostics, 1)

			diag := published.Diagnostics[0]
			assert.Equal(t, protocol.DiagnosticSeverityError, *diag.Severity)
			assert.Equal(t, CodeError, diag.Code.Value)
			assert.Equal(t, tt.line, diag.Range.Start.Line)
			assert.Contains(t, diag.Message, tt.contains)
		})
	}
}

func TestServer_DidChangeSaveClose(t *testing.T) {
	t.Parallel()

	srv, dir := newTestServer(t)
	rec := &recorder{}
	uri := PathToURI(filepath.Join(dir, "main.py"))

	openDocument(t, srv, rec, uri, "from .helpers import *\nsave()\n")
	require.Len(t, rec.last(t).Diagnostics, 1)

	require.NoError(t, srv.didChange(rec.context(), &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
			Version:                2,
		},
		ContentChanges: []any{protocol.TextDocumentContentChangeEventWhole{Text: "from .helpers import save\nsave()\n"}},
	}))

	doc, ok := srv.docs.get(uri)
	require.True(t, ok)
	assert.Equal(t, "from .helpers import save\nsave()\n", doc.text)
	assert.Empty(t, rec.last(t).Diagnostics)
	require.NotNil(t, rec.last(t).Version)
	assert.EqualValues(t, 2, *rec.last(t).Version)

	saved := "from .helpers import *\nload()\n"
	require.NoError(t, srv.didSave(rec.context(), &protocol.DidSaveTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		Text:         &saved,
	}))
	assert.Len(t, rec.last(t).Diagnostics, 1)

	count := len(rec.published)

	require.NoError(t, srv.didClose(rec.context(), &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	}))

	_, ok = srv.docs.get(uri)
	assert.False(t, ok)
	assert.Len(t, rec.published, count+1)
	assert.Empty(t, rec.last(t).Diagnostics)
}

func TestServer_StaleChangeIgnored(t *testing.T) {
	t.Parallel()

	srv, dir := newTestServer(t)
	rec := &recorder{}
	uri := PathToURI(filepath.Join(dir, "main.py"))

	openDocument(t, srv, rec, uri, "from .helpers import *\nsave()\n")

	count := len(rec.published)

	require.NoError(t, srv.didChange(rec.context(), &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
			Version:                0,
		},
		ContentChanges: []any{protocol.TextDocumentContentChangeEventWhole{Text: "x = 1\n"}},
	}))

	assert.Len(t, rec.published, count)

	doc, ok := srv.docs.get(uri)
	require.True(t, ok)
	assert.Equal(t, "from .helpers import *\nsave()\n", doc.text)
}

func TestServer_RequestMetrics(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	requests, err := observability.NewRequestMetrics(mp.Meter("test"))
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "helpers.py"), []byte(helpersModule), 0o600))

	srv := NewServer(removestar.DefaultOptions(), requests, false)
	rec := &recorder{}
	uri := PathToURI(filepath.Join(dir, "main.py"))

	openDocument(t, srv, rec, uri, "from .helpers import *\nload()\n")

	_, err = srv.codeAction(rec.context(), &protocol.CodeActionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	})
	require.NoError(t, err)

	var data metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &data))

	ops := make(map[string]int64)

	for _, scope := range data.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != "removestar.requests.total" {
				continue
			}

			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)

			for _, dp := range sum.DataPoints {
				op, _ := dp.Attributes.Value("op")
				ops[op.AsString()] += dp.Value
			}
		}
	}

	assert.Equal(t, map[string]int64{"lsp.diagnostics": 1, "lsp.codeAction": 1}, ops)
}

func TestLastFullText(t *testing.T) {
	t.Parallel()

	ranged := protocol.TextDocumentContentChangeEvent{Range: &protocol.Range{}, Text: "partial"}

	tests := []struct {
		name    string
		changes []any
		want    string
		ok      bool
	}{
		{"empty", nil, "", false},
		{"whole", []any{protocol.TextDocumentContentChangeEventWhole{Text: "a"}}, "a", true},
		{"event without range", []any{protocol.TextDocumentContentChangeEvent{Text: "b"}}, "b", true},
		{"ranged only", []any{ranged}, "", false},
		{"last whole wins", []any{
			protocol.TextDocumentContentChangeEventWhole{Text: "old"},
			protocol.TextDocumentContentChangeEventWhole{Text: "new"},
			ranged,
		}, "new", true},
		{"raw map", []any{map[string]any{"text": "c"}}, "c", true},
		{"raw ranged map", []any{map[string]any{"text": "c", "range": map[string]any{}}}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := lastFullText(tt.changes)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestServer_CodeAction(t *testing.T) {
	t.Parallel()

	srv, dir := newTestServer(t)
	rec := &recorder{}
	uri := PathToURI(filepath.Join(dir, "main.py"))

	openDocument(t, srv, rec, uri, "from .helpers import *\n\nload()\nsave()\n")

	published := rec.last(t)
	foreign := protocol.Diagnostic{Message: "line too long"}

	res, err := srv.codeAction(rec.context(), &protocol.CodeActionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		Context: protocol.CodeActionContext{
			Diagnostics: append([]protocol.Diagnostic{foreign}, published.Diagnostics...),
		},
	})
	require.NoError(t, err)

	actions, ok := res.([]protocol.CodeAction)
	require.True(t, ok)
	require.Len(t, actions, 1)

	action := actions[0]
	assert.Equal(t, ActionTitle, action.Title)
	assert.Equal(t, protocol.CodeActionKindQuickFix, *action.Kind)
	assert.Equal(t, published.Diagnostics, action.Diagnostics)

	require.NotNil(t, action.Edit)

	edits := action.Edit.Changes[uri]
	require.Len(t, edits, 1)
	assert.Equal(t, "from .helpers import load, save\n\nload()\nsave()\n", edits[0].NewText)
	assert.Equal(t, protocol.Range{End: protocol.Position{Line: 4, Character: 0}}, edits[0].Range)
}

func TestServer_CodeActionNone(t *testing.T) {
	t.Parallel()

	srv, dir := newTestServer(t)
	rec := &recorder{}
	starURI := PathToURI(filepath.Join(dir, "star.py"))
	cleanURI := PathToURI(filepath.Join(dir, "clean.py"))

	openDocument(t, srv, rec, starURI, "from .helpers import *\nload()\n")
	openDocument(t, srv, rec, cleanURI, "x = 1\n")

	tests := []struct {
		name string
		uri  string
		only []protocol.CodeActionKind
	}{
		{"no star imports", cleanURI, nil},
		{"unknown document", PathToURI(filepath.Join(dir, "closed.py")), nil},
		{"other kinds requested", starURI, []protocol.CodeActionKind{protocol.CodeActionKindRefactor}},
	}

	for _, tt := range tests {
		res, err := srv.codeAction(rec.context(), &protocol.CodeActionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: tt.uri},
			Context:      protocol.CodeActionContext{Only: tt.only},
		})
		require.NoError(t, err, tt.name)
		assert.Nil(t, res, tt.name)
	}
}
