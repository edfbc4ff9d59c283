// Package lsp provides a Language Server Protocol (LSP) server that reports
// Python star imports and offers a quick fix replacing them with explicit
// imports.
package lsp

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/Sumatoshi-tech/removestar/pkg/observability"
	"github.com/Sumatoshi-tech/removestar/pkg/removestar"
	"github.com/Sumatoshi-tech/removestar/pkg/version"
)

const (
	serverName = "removestar"

	methodPublishDiagnostics = "textDocument/publishDiagnostics"
)

// ActionTitle is the title of the quick fix code action.
const ActionTitle = "Replace star imports"

const (
	opDiagnostics = "lsp.diagnostics"
	opCodeAction  = "lsp.codeAction"
)

// Server implements the removestar LSP server.
type Server struct {
	docs     *documents
	handler  protocol.Handler
	fixer    *removestar.Fixer
	logger   *slog.Logger
	requests *observability.RequestMetrics
	debug    bool
}

// NewServer creates a server fixing documents with opts. requests may be nil.
func NewServer(opts removestar.Options, requests *observability.RequestMetrics, debug bool) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	srv := &Server{
		docs:     newDocuments(),
		fixer:    removestar.NewFixer(opts),
		logger:   logger,
		requests: requests,
		debug:    debug,
	}

	srv.handler = protocol.Handler{
		Initialize:             srv.initialize,
		Initialized:            srv.initialized,
		Shutdown:               srv.shutdown,
		SetTrace:               srv.setTrace,
		TextDocumentDidOpen:    srv.didOpen,
		TextDocumentDidChange:  srv.didChange,
		TextDocumentDidSave:    srv.didSave,
		TextDocumentDidClose:   srv.didClose,
		TextDocumentCodeAction: srv.codeAction,
	}

	return srv
}

// Run serves on stdio until the client exits.
func (srv *Server) Run() error {
	if err := server.NewServer(&srv.handler, serverName, srv.debug).RunStdio(); err != nil {
		return fmt.Errorf("lsp server: %w", err)
	}

	return nil
}

func (srv *Server) initialize(_ *glsp.Context, _ *protocol.InitializeParams) (any, error) {
	capabilities := srv.handler.CreateServerCapabilities()

	// Documents are re-analyzed as a whole, so ask for full text on change.
	if syncOpts, ok := capabilities.TextDocumentSync.(*protocol.TextDocumentSyncOptions); ok {
		full := protocol.TextDocumentSyncKindFull
		syncOpts.Change = &full
	}

	serverVersion := version.Version

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &serverVersion,
		},
	}, nil
}

func (srv *Server) initialized(_ *glsp.Context, _ *protocol.InitializedParams) error {
	return nil
}

func (srv *Server) shutdown(_ *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)

	return nil
}

func (srv *Server) setTrace(_ *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)

	return nil
}

func (srv *Server) didOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	doc := params.TextDocument

	srv.docs.open(doc.URI, doc.Text, doc.Version)
	srv.publishDiagnostics(ctx, doc.URI)

	return nil
}

func (srv *Server) didChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	text, ok := lastFullText(params.ContentChanges)
	if !ok || !srv.docs.update(uri, text, params.TextDocument.Version) {
		return nil
	}

	srv.publishDiagnostics(ctx, uri)

	return nil
}

// lastFullText returns the text of the last change carrying the whole
// document. Range edits are ignored since the server asks for full sync.
func lastFullText(changes []any) (string, bool) {
	for _, change := range slices.Backward(changes) {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			return c.Text, true
		case protocol.TextDocumentContentChangeEvent:
			if c.Range == nil {
				return c.Text, true
			}
		case map[string]any:
			if _, ranged := c["range"]; ranged {
				continue
			}

			if text, textOK := c["text"].(string); textOK {
				return text, true
			}
		}
	}

	return "", false
}

// didSave re-analyzes the document since the modules it imports from may
// have been saved too.
func (srv *Server) didSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	if srv.docs.saved(params.TextDocument.URI, params.Text) {
		srv.publishDiagnostics(ctx, params.TextDocument.URI)
	}

	return nil
}

func (srv *Server) didClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI
	srv.docs.close(uri)

	ctx.Notify(methodPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})

	return nil
}

func (srv *Server) codeAction(_ *glsp.Context, params *protocol.CodeActionParams) (any, error) {
	if only := params.Context.Only; len(only) > 0 && !slices.Contains(only, protocol.CodeActionKindQuickFix) {
		return nil, nil
	}

	uri := params.TextDocument.URI

	done := srv.requests.Begin(context.Background(), opCodeAction)
	doc, ok := srv.analyze(uri)
	done(ok && doc.err != nil)

	if !ok || doc.err != nil || !doc.result.Changed() {
		return nil, nil
	}

	kind := protocol.CodeActionKindQuickFix
	preferred := true

	return []protocol.CodeAction{{
		Title:       ActionTitle,
		Kind:        &kind,
		Diagnostics: ownDiagnostics(params.Context.Diagnostics),
		IsPreferred: &preferred,
		Edit: &protocol.WorkspaceEdit{
			Changes: map[protocol.DocumentUri][]protocol.TextEdit{
				uri: {{Range: splitDocument(doc.text).whole(), NewText: doc.result.Source}},
			},
		},
	}}, nil
}

// analyze returns the open document with its fix outcome, running the
// fixer unless an outcome is cached for the current text.
func (srv *Server) analyze(uri protocol.DocumentUri) (document, bool) {
	doc, ok := srv.docs.get(uri)
	if !ok || doc.analyzed {
		return doc, ok
	}

	doc.result, doc.err = srv.fix(uri, doc.text)
	doc.analyzed = true
	srv.docs.remember(uri, doc, doc.result, doc.err)

	return doc, true
}

// fix runs the fixer on a document. Relative modules resolve from the
// document's directory; unsaved documents resolve from the working directory.
func (srv *Server) fix(uri, text string) (*removestar.Result, error) {
	path := URIToPath(uri)

	dir := "."
	if path != "" {
		dir = filepath.Dir(path)
	}

	result, err := srv.fixer.Fix(context.Background(), text, dir, path)
	if err != nil {
		srv.logger.Debug("lsp: fix failed", "uri", uri, "error", err)

		return nil, err
	}

	return result, nil
}

func (srv *Server) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri) {
	done := srv.requests.Begin(context.Background(), opDiagnostics)

	doc, ok := srv.analyze(uri)
	if !ok {
		done(false)

		return
	}

	done(doc.err != nil)

	var diagnostics []protocol.Diagnostic
	if doc.err != nil {
		diagnostics = []protocol.Diagnostic{errorDiagnostic(splitDocument(doc.text), doc.err)}
	} else {
		diagnostics = resultDiagnostics(doc.text, doc.result)
	}

	params := &protocol.PublishDiagnosticsParams{URI: uri, Diagnostics: diagnostics}
	if doc.version >= 0 {
		version := protocol.UInteger(doc.version)
		params.Version = &version
	}

	ctx.Notify(methodPublishDiagnostics, params)
}
