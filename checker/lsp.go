package checker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/jsonrpc2"
	"go.lsp.dev/protocol"
)

const coqLanguageID = "coq"

// LSPChecker validates proofs through a coq-lsp server instead of the batch
// compiler. A fresh server process is started for each check, the code is
// opened as a document, and the first publishDiagnostics notification decides
// the outcome. Error diagnostics are rendered in coqc's textual shape so the
// rest of the loop treats both checker modes identically.
type LSPChecker struct {
	Command  []string
	Root     string
	Filename string
	ErrorLog string
	Wait     time.Duration
	Debug    bool
}

// NewLSPChecker builds a checker that launches the given server command.
func NewLSPChecker(command []string, filename string) *LSPChecker {
	return &LSPChecker{Command: command, Filename: filename}
}

// Check writes the code to the target file, opens it on a fresh server, and
// waits for the server's diagnostics.
func (c *LSPChecker) Check(ctx context.Context, code string) (Result, error) {
	filename := c.filename()
	if err := os.WriteFile(filename, []byte(code), 0o644); err != nil {
		return Result{}, fmt.Errorf("write proof file: %w", err)
	}
	absPath, err := filepath.Abs(filename)
	if err != nil {
		return Result{}, err
	}
	root, err := filepath.Abs(c.root())
	if err != nil {
		return Result{}, err
	}

	procCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	command := c.command()
	cmd := exec.CommandContext(procCtx, command[0], command[1:]...)
	cmd.Dir = root
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return Result{}, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Result{}, err
	}
	logDst := io.Discard
	if c.Debug {
		logDst = os.Stderr
	}
	go func() { _, _ = io.Copy(logDst, stderr) }()

	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("start %s: %w", command[0], err)
	}
	defer func() {
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
	}()

	session := newLSPSession(procCtx, &stdioReadWriteCloser{reader: stdout, writer: stdin})
	defer session.close()

	if err := session.initialize(procCtx, root); err != nil {
		return Result{}, fmt.Errorf("lsp handshake: %w", err)
	}
	uri := protocol.DocumentURI(pathToURI(absPath))
	if err := session.didOpen(procCtx, uri, code); err != nil {
		return Result{}, fmt.Errorf("open document: %w", err)
	}
	diags, err := session.waitDiagnostics(procCtx, uri, c.wait())
	if err != nil {
		return Result{}, fmt.Errorf("await diagnostics: %w", err)
	}

	rendered := renderDiagnostics(filename, diags)
	if rendered == "" {
		return Result{Success: true, Message: SuccessMessage}, nil
	}
	if writeErr := os.WriteFile(c.errorLog(), []byte(rendered), 0o644); writeErr != nil {
		return Result{}, fmt.Errorf("write error log: %w", writeErr)
	}
	return Result{Success: false, Message: rendered}, nil
}

func (c *LSPChecker) command() []string {
	if len(c.Command) > 0 {
		return c.Command
	}
	return []string{"coq-lsp"}
}

func (c *LSPChecker) root() string {
	if c.Root != "" {
		return c.Root
	}
	return "."
}

func (c *LSPChecker) filename() string {
	if c.Filename != "" {
		return c.Filename
	}
	return "temp.v"
}

func (c *LSPChecker) errorLog() string {
	if c.ErrorLog != "" {
		return c.ErrorLog
	}
	return "coq_error.log"
}

func (c *LSPChecker) wait() time.Duration {
	if c.Wait > 0 {
		return c.Wait
	}
	return 10 * time.Second
}

// lspSession wraps one JSON-RPC connection to a language server and collects
// the diagnostics the server pushes.
type lspSession struct {
	conn        *jsonrpc2.Conn
	mu          sync.Mutex
	diagnostics map[protocol.DocumentURI][]protocol.Diagnostic
}

func newLSPSession(ctx context.Context, rwc io.ReadWriteCloser) *lspSession {
	session := &lspSession{diagnostics: make(map[protocol.DocumentURI][]protocol.Diagnostic)}
	handler := jsonrpc2.HandlerWithError(func(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
		if !req.Notif {
			return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: "method not handled"}
		}
		switch req.Method {
		case "textDocument/publishDiagnostics":
			var params protocol.PublishDiagnosticsParams
			if err := json.Unmarshal(*req.Params, &params); err != nil {
				return nil, err
			}
			session.mu.Lock()
			session.diagnostics[params.URI] = params.Diagnostics
			session.mu.Unlock()
			return nil, nil
		default:
			return nil, nil
		}
	})
	stream := jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{})
	session.conn = jsonrpc2.NewConn(ctx, stream, handler)
	return session
}

func (s *lspSession) initialize(ctx context.Context, root string) error {
	params := &protocol.InitializeParams{
		ProcessID: int32(os.Getpid()),
		RootURI:   protocol.DocumentURI(pathToURI(root)),
		ClientInfo: &protocol.ClientInfo{
			Name:    "qedloop",
			Version: "0.1",
		},
		Capabilities: protocol.ClientCapabilities{
			TextDocument: &protocol.TextDocumentClientCapabilities{
				PublishDiagnostics: &protocol.PublishDiagnosticsClientCapabilities{},
			},
		},
	}
	var result protocol.InitializeResult
	if err := s.conn.Call(ctx, "initialize", params, &result); err != nil {
		return err
	}
	return s.conn.Notify(ctx, "initialized", &protocol.InitializedParams{})
}

func (s *lspSession) didOpen(ctx context.Context, uri protocol.DocumentURI, text string) error {
	params := protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        uri,
			LanguageID: protocol.LanguageIdentifier(coqLanguageID),
			Version:    1,
			Text:       text,
		},
	}
	return s.conn.Notify(ctx, "textDocument/didOpen", params)
}

// waitDiagnostics polls until the server has published diagnostics for the
// document. A published empty list counts as a report.
func (s *lspSession) waitDiagnostics(ctx context.Context, uri protocol.DocumentURI, wait time.Duration) ([]protocol.Diagnostic, error) {
	deadline := time.After(wait)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		s.mu.Lock()
		if diags, ok := s.diagnostics[uri]; ok {
			s.mu.Unlock()
			return diags, nil
		}
		s.mu.Unlock()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline:
			return nil, errors.New("diagnostics timeout")
		case <-ticker.C:
		}
	}
}

func (s *lspSession) close() {
	if s.conn != nil {
		_ = s.conn.Close()
	}
}

// renderDiagnostics joins the error-severity diagnostics in coqc's shape.
// Warnings and hints are skipped; an unset severity counts as an error.
func renderDiagnostics(filename string, diags []protocol.Diagnostic) string {
	var parts []string
	for _, d := range diags {
		if d.Severity > protocol.DiagnosticSeverityError {
			continue
		}
		parts = append(parts, renderDiagnostic(filename, d))
	}
	return strings.Join(parts, "\n")
}

// renderDiagnostic converts one LSP diagnostic to coqc's textual shape.
// LSP lines are zero-based; coqc reports one-based lines.
func renderDiagnostic(filename string, d protocol.Diagnostic) string {
	return fmt.Sprintf("File \"%s\", line %d, characters %d-%d:\nError: %s",
		filename, d.Range.Start.Line+1, d.Range.Start.Character, d.Range.End.Character, d.Message)
}

type stdioReadWriteCloser struct {
	reader io.ReadCloser
	writer io.WriteCloser
}

func (s *stdioReadWriteCloser) Read(p []byte) (int, error)  { return s.reader.Read(p) }
func (s *stdioReadWriteCloser) Write(p []byte) (int, error) { return s.writer.Write(p) }
func (s *stdioReadWriteCloser) Close() error {
	_ = s.reader.Close()
	return s.writer.Close()
}

func pathToURI(path string) string {
	path = filepath.Clean(path)
	if runtime.GOOS == "windows" {
		path = strings.ReplaceAll(path, "\\", "/")
		return "file:///" + strings.ReplaceAll(path, ":", "%3A")
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return "file://" + path
}
