package strategy

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/readergate/readergate/internal/reader"
)

const (
	exaProtocolVersion = "2024-11-05"
	exaToolName        = "crawling_exa"
	exaMaxCharacters   = 50000
	exaSessionHeader   = "Mcp-Session-Id"
)

// exaFailureSignals are substrings the crawl tool embeds in otherwise
// well-formed responses when the live crawl did not produce content.
var exaFailureSignals = []string{
	"CRAWL_LIVECRAWL_TIMEOUT",
	"CRAWL_LIVECRAWL_ERROR",
	"CRAWL_NOT_FOUND",
}

// rpcRequest is the JSON-RPC 2.0 frame the Exa MCP endpoint speaks.
type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcResponse struct {
	Result *struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// exaCrawlPayload is the inner JSON sometimes carried in the tool result's
// text content.
type exaCrawlPayload struct {
	Results []struct {
		Text    string `json:"text"`
		Content string `json:"content"`
		Title   string `json:"title"`
	} `json:"results"`
}

// exaAdapter crawls through the Exa MCP endpoint. One session id is shared
// process-wide; any error clears it so the next call re-initializes. A
// duplicate initialize from concurrent calls is harmless since each call
// adopts the latest session id the server returns.
type exaAdapter struct {
	client  *http.Client
	url     string
	timeout time.Duration
	logger  *zap.Logger

	mu        sync.Mutex
	sessionID string
}

func (a *exaAdapter) ID() reader.StrategyID { return reader.StrategyExa }

func (a *exaAdapter) Fetch(ctx context.Context, rawURL string) reader.Result {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	session, err := a.ensureSession(ctx)
	if err != nil {
		a.clearSession()
		return reader.Failure(a.ID(), errText(err))
	}

	call := rpcRequest{
		JSONRPC: "2.0",
		ID:      2,
		Method:  "tools/call",
		Params: map[string]any{
			"name": exaToolName,
			"arguments": map[string]any{
				"url":           rawURL,
				"maxCharacters": exaMaxCharacters,
			},
		},
	}
	rpc, _, err := a.post(ctx, call, session)
	if err != nil {
		a.clearSession()
		return reader.Failure(a.ID(), errText(err))
	}
	if rpc.Error != nil {
		a.clearSession()
		return reader.Failure(a.ID(), "rpc error: "+rpc.Error.Message)
	}
	if rpc.Result == nil || len(rpc.Result.Content) == 0 {
		a.clearSession()
		return reader.Failure(a.ID(), "empty tool result")
	}

	text := rpc.Result.Content[0].Text
	for _, signal := range exaFailureSignals {
		if strings.Contains(text, signal) {
			a.clearSession()
			return reader.Failure(a.ID(), "crawl failed: "+signal)
		}
	}

	markdown, title := parseExaText(text)
	if strings.TrimSpace(markdown) == "" {
		a.clearSession()
		return reader.Failure(a.ID(), "empty crawl content")
	}
	a.logger.Debug("exa crawl succeeded",
		zap.String("url", rawURL),
		zap.Int("bytes", len(markdown)),
	)
	return reader.MarkdownResult(a.ID(), markdown, title)
}

// ensureSession returns the current session id, initializing one when none
// is held.
func (a *exaAdapter) ensureSession(ctx context.Context) (string, error) {
	a.mu.Lock()
	session := a.sessionID
	a.mu.Unlock()
	if session != "" {
		return session, nil
	}

	initialize := rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "initialize",
		Params: map[string]any{
			"protocolVersion": exaProtocolVersion,
			"capabilities":    map[string]any{},
			"clientInfo": map[string]any{
				"name":    "readergate",
				"version": "1.0",
			},
		},
	}
	_, session, err := a.post(ctx, initialize, "")
	if err != nil {
		return "", err
	}
	if session == "" {
		return "", fmt.Errorf("initialize returned no %s header", exaSessionHeader)
	}
	a.setSession(session)
	return session, nil
}

// post sends one JSON-RPC frame and decodes the SSE-framed response. It
// returns the parsed frame and the session id echoed by the server.
func (a *exaAdapter) post(ctx context.Context, frame rpcRequest, session string) (rpcResponse, string, error) {
	payload, err := json.Marshal(frame)
	if err != nil {
		return rpcResponse{}, "", fmt.Errorf("marshal rpc frame: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(payload))
	if err != nil {
		return rpcResponse{}, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	if session != "" {
		req.Header.Set(exaSessionHeader, session)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return rpcResponse{}, "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return rpcResponse{}, "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return rpcResponse{}, "", fmt.Errorf("http status %d", resp.StatusCode)
	}

	// Adopt whatever session the server hands back, even mid-conversation.
	echoed := resp.Header.Get(exaSessionHeader)
	if echoed != "" {
		a.setSession(echoed)
	} else {
		echoed = session
	}

	data := sseData(body)
	var rpc rpcResponse
	if err := json.Unmarshal(data, &rpc); err != nil {
		return rpcResponse{}, "", fmt.Errorf("decode rpc response: %w", err)
	}
	return rpc, echoed, nil
}

func (a *exaAdapter) setSession(id string) {
	a.mu.Lock()
	a.sessionID = id
	a.mu.Unlock()
}

func (a *exaAdapter) clearSession() {
	a.setSession("")
}

// sseData extracts the JSON payload of the first "data:" line when the body
// is an SSE frame; plain JSON bodies pass through unchanged.
func sseData(body []byte) []byte {
	if !bytes.Contains(body, []byte("data:")) {
		return body
	}
	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if rest, ok := bytes.CutPrefix(line, []byte("data:")); ok {
			return bytes.TrimSpace(rest)
		}
	}
	return body
}

// parseExaText interprets the tool result text, which is either a JSON
// results envelope or the raw crawled text.
func parseExaText(text string) (markdown, title string) {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "{") {
		var payload exaCrawlPayload
		if err := json.Unmarshal([]byte(trimmed), &payload); err == nil && len(payload.Results) > 0 {
			first := payload.Results[0]
			body := first.Text
			if body == "" {
				body = first.Content
			}
			return body, first.Title
		}
	}
	return text, ""
}
