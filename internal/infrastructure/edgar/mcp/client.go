// Package mcp adapts a SEC EDGAR MCP server into the filing source port.
// The server runs as a child process speaking MCP over stdio; every tool
// call goes through the shared resilience executor so EDGAR sees a paced,
// retried, circuit-broken request stream.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/brettvantil/edgar-answer-engine/internal/core/domain"
	"github.com/brettvantil/edgar-answer-engine/internal/core/ports"
	"github.com/brettvantil/edgar-answer-engine/internal/infrastructure/resilience"
)

const (
	defaultCallTimeout = 30 * time.Second

	toolSearchFilings    = "search_filings"
	toolGetFilingContent = "get_filing_content"
	defaultClientName    = "edgar-answer-engine"
	defaultClientVersion = "2.0"
)

type Config struct {
	// Command launches the MCP server process, e.g. "uvx".
	Command string
	Args    []string
	// Env is passed to the child process; the SEC_EDGAR_USER_AGENT entry
	// identifies this client to EDGAR per the fair-access policy.
	Env []string

	CallTimeout time.Duration

	SearchTool  string
	ContentTool string
}

func (c Config) normalize() Config {
	if c.CallTimeout <= 0 {
		c.CallTimeout = defaultCallTimeout
	}
	if c.SearchTool == "" {
		c.SearchTool = toolSearchFilings
	}
	if c.ContentTool == "" {
		c.ContentTool = toolGetFilingContent
	}
	return c
}

// FilingSource is the MCP-backed implementation of ports.FilingSource.
type FilingSource struct {
	client   *mcpclient.Client
	cfg      Config
	executor *resilience.Executor
}

var _ ports.FilingSource = (*FilingSource)(nil)

// New spawns the MCP server process and performs the protocol handshake.
func New(ctx context.Context, cfg Config, executor *resilience.Executor) (*FilingSource, error) {
	cfg = cfg.normalize()
	if cfg.Command == "" {
		return nil, fmt.Errorf("edgar mcp: command is required")
	}
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig())
	}

	client, err := mcpclient.NewStdioMCPClient(cfg.Command, cfg.Env, cfg.Args...)
	if err != nil {
		return nil, fmt.Errorf("start mcp server: %w", err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    defaultClientName,
		Version: defaultClientVersion,
	}
	initReq.Params.Capabilities = mcp.ClientCapabilities{}

	initCtx, cancel := context.WithTimeout(ctx, cfg.CallTimeout)
	defer cancel()
	result, err := client.Initialize(initCtx, initReq)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("initialize mcp session: %w", err)
	}
	slog.Info("edgar_mcp_connected",
		"server_name", result.ServerInfo.Name,
		"server_version", result.ServerInfo.Version,
	)

	return &FilingSource{client: client, cfg: cfg, executor: executor}, nil
}

func (s *FilingSource) Close() error {
	return s.client.Close()
}

func (s *FilingSource) ListFilings(ctx context.Context, criteria domain.DiscoveryCriteria, pageToken string) (ports.FilingPage, error) {
	args := searchArguments(criteria, pageToken)

	var page ports.FilingPage
	err := s.executor.Execute(ctx, "edgar.search_filings", func(ctx context.Context) error {
		payload, err := s.callTool(ctx, s.cfg.SearchTool, args)
		if err != nil {
			return err
		}
		parsed, err := parseFilingPage(payload)
		if err != nil {
			return domain.WrapError(domain.ErrSourceUnrecoverable, "parse filing page", err)
		}
		page = parsed
		return nil
	}, classifyEdgarError)
	if err != nil {
		return ports.FilingPage{}, fmt.Errorf("list filings: %w", err)
	}
	return page, nil
}

func (s *FilingSource) FetchFilingContent(ctx context.Context, filing domain.DiscoveredFiling, sections []string) ([]domain.FilingSection, error) {
	args := contentArguments(filing, sections)

	var parsed []domain.FilingSection
	err := s.executor.Execute(ctx, "edgar.get_filing_content", func(ctx context.Context) error {
		payload, err := s.callTool(ctx, s.cfg.ContentTool, args)
		if err != nil {
			return err
		}
		sections, err := parseFilingSections(payload)
		if err != nil {
			return domain.WrapError(domain.ErrSourceUnrecoverable, "parse filing content", err)
		}
		parsed = sections
		return nil
	}, classifyEdgarError)
	if err != nil {
		return nil, fmt.Errorf("fetch filing content %s: %w", filing.AccessionNumber, err)
	}
	return parsed, nil
}

// callTool invokes one MCP tool and returns the concatenated text payload.
func (s *FilingSource) callTool(ctx context.Context, tool string, args map[string]any) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()

	req := mcp.CallToolRequest{}
	req.Params.Name = tool
	req.Params.Arguments = args

	result, err := s.client.CallTool(callCtx, req)
	if err != nil {
		return "", fmt.Errorf("call tool %s: %w", tool, err)
	}

	text := textPayload(result.Content)
	if result.IsError {
		return "", toolError(tool, text)
	}
	return text, nil
}

func textPayload(content []mcp.Content) string {
	var out string
	for _, item := range content {
		if text, ok := item.(mcp.TextContent); ok {
			out += text.Text
		}
	}
	return out
}
