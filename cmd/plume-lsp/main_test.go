package main

import (
	"testing"

	"plume/internal/lsp"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

type published struct {
	method string
	params *protocol.PublishDiagnosticsParams
}

func recordingContext(out *[]published) *glsp.Context {
	return &glsp.Context{
		Notify: func(method string, params any) {
			p, _ := params.(*protocol.PublishDiagnosticsParams)
			*out = append(*out, published{method: method, params: p})
		},
	}
}

func TestDidOpenPublishesDiagnostics(t *testing.T) {
	store = lsp.NewStore()
	var got []published
	ctx := recordingContext(&got)

	err := textDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: "file:///a.plm", Text: "print ;", Version: 1},
	})
	if err != nil {
		t.Fatalf("didOpen: %v", err)
	}
	if len(got) != 1 || got[0].method != protocol.ServerTextDocumentPublishDiagnostics {
		t.Fatalf("notifications: %+v", got)
	}
	diags := got[0].params.Diagnostics
	if len(diags) != 1 || diags[0].Message != "Error at ';': Expect expression." {
		t.Fatalf("diagnostics: %+v", diags)
	}
}

func TestDidChangeIgnoresStaleVersions(t *testing.T) {
	store = lsp.NewStore()
	var got []published
	ctx := recordingContext(&got)
	store.Set("file:///a.plm", "print 1;", 5)

	err := textDocumentDidChange(ctx, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: "file:///a.plm"},
			Version:                4,
		},
		ContentChanges: []any{protocol.TextDocumentContentChangeEventWhole{Text: "print"}},
	})
	if err != nil {
		t.Fatalf("didChange: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("stale change published %+v", got)
	}
	if doc, _ := store.Get("file:///a.plm"); doc.Text != "print 1;" {
		t.Fatalf("stale change stored %q", doc.Text)
	}
}

func TestDidCloseClearsDiagnostics(t *testing.T) {
	store = lsp.NewStore()
	var got []published
	ctx := recordingContext(&got)
	store.Set("file:///a.plm", "print", 1)

	if err := textDocumentDidClose(ctx, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file:///a.plm"},
	}); err != nil {
		t.Fatalf("didClose: %v", err)
	}
	if len(got) != 1 || len(got[0].params.Diagnostics) != 0 {
		t.Fatalf("notifications: %+v", got)
	}
	if _, ok := store.Get("file:///a.plm"); ok {
		t.Fatal("document still stored")
	}
}

func TestDocumentSymbolsForOtherFiles(t *testing.T) {
	store = lsp.NewStore()
	store.Set("file:///notes.txt", "var x = 1;", 1)
	res, err := textDocumentDocumentSymbol(nil, &protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file:///notes.txt"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if syms, ok := res.([]protocol.DocumentSymbol); !ok || len(syms) != 0 {
		t.Fatalf("symbols: %#v", res)
	}
}

func TestSemanticTokensHandler(t *testing.T) {
	store = lsp.NewStore()
	store.Set("file:///a.plm", "print 1;", 1)
	res, err := textDocumentSemanticTokensFull(nil, &protocol.SemanticTokensParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file:///a.plm"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Data) != 10 {
		t.Fatalf("data: %v", res.Data)
	}
}
