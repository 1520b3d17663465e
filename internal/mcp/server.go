// Package mcp exposes the document pipeline over the Model Context
// Protocol so agent runtimes can call extraction and analysis as tools.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/inkwell-ai/docsense/internal/analysis"
	"github.com/inkwell-ai/docsense/internal/config"
	"github.com/inkwell-ai/docsense/internal/extraction"
	"github.com/inkwell-ai/docsense/internal/pipeline"
)

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	service   *pipeline.Service
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, service *pipeline.Service, logger *slog.Logger) (*Server, error) {
	if service == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	mcpServer := server.NewMCPServer(
		cfg.ServiceName,
		cfg.Version,
		server.WithToolCapabilities(false), // static tool set
	)

	s := &Server{
		config:    cfg,
		service:   service,
		mcpServer: mcpServer,
		logger:    logger,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	extractTool := mcp.NewTool(
		"extract_text",
		mcp.WithDescription("Extract text from a document, routing between cloud OCR, local parsing and a diagnostic fallback"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the document file"),
		),
	)
	s.mcpServer.AddTool(extractTool, s.handleExtractText)

	analyzeTool := mcp.NewTool(
		"analyze_text",
		mcp.WithDescription("Analyze text: metrics, structure, entities, sentiment and sensitivity"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Text to analyze"),
		),
		mcp.WithString("filename",
			mcp.Description("Optional source filename for the report"),
		),
	)
	s.mcpServer.AddTool(analyzeTool, s.handleAnalyzeText)

	pipelineTool := mcp.NewTool(
		"run_pipeline",
		mcp.WithDescription("Extract text from a document and analyze it in one call"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the document file"),
		),
	)
	s.mcpServer.AddTool(pipelineTool, s.handleRunPipeline)
}

// Handler functions
func (s *Server) handleExtractText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	buf, err := s.loadDocument(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := s.service.ExtractText(ctx, buf)
	return mcp.NewToolResultText(s.formatExtractionResult(path, result)), nil
}

func (s *Server) handleAnalyzeText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := request.GetArguments()
	filename := ""
	if f, ok := args["filename"].(string); ok {
		filename = f
	}

	result := s.service.AnalyzeText(ctx, text, filename)
	if !result.Success {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %s", result.Error)), nil
	}

	return mcp.NewToolResultText(s.formatAnalysisReport(result.Analysis)), nil
}

func (s *Server) handleRunPipeline(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	buf, err := s.loadDocument(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	full := s.service.RunFullPipeline(ctx, buf)

	text := s.formatExtractionResult(path, full.Extraction)
	if full.Analysis.Success {
		text += "\n" + s.formatAnalysisReport(full.Analysis.Analysis)
	} else {
		text += fmt.Sprintf("\nAnalysis failed: %s\n", full.Analysis.Error)
	}

	return mcp.NewToolResultText(text), nil
}

// loadDocument reads a file into a document buffer, inferring the MIME
// type from the file extension.
func (s *Server) loadDocument(path string) (*extraction.DocumentBuffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if idx := strings.IndexByte(mimeType, ';'); idx >= 0 {
		mimeType = mimeType[:idx]
	}

	return &extraction.DocumentBuffer{
		Data:     data,
		MIMEType: mimeType,
		Filename: filepath.Base(path),
	}, nil
}

// Formatting methods
func (s *Server) formatExtractionResult(path string, result *extraction.ExtractionResult) string {
	text := fmt.Sprintf("Extraction result for: %s\n", path)
	text += fmt.Sprintf("Method: %s\n", result.Method)
	text += fmt.Sprintf("Confidence: %.2f\n", result.Confidence)
	text += fmt.Sprintf("Pages: %d\n", result.PageCount)
	text += fmt.Sprintf("Words: %d\n", result.WordCount)
	if result.CostEstimate > 0 {
		text += fmt.Sprintf("Estimated cost: $%.4f\n", result.CostEstimate)
	}
	text += fmt.Sprintf("Processing time: %dms\n", result.ProcessingTimeMs)

	if len(result.Warnings) > 0 {
		text += "\nWarnings:\n"
		for _, w := range result.Warnings {
			text += fmt.Sprintf("  - %s\n", w)
		}
	}
	if len(result.Errors) > 0 {
		text += "\nErrors:\n"
		for _, e := range result.Errors {
			text += fmt.Sprintf("  - %s\n", e)
		}
	}

	text += "\nContent:\n"
	text += result.Text

	return text
}

func (s *Server) formatAnalysisReport(report *analysis.Report) string {
	text := "Analysis Report\n"
	if report.Filename != "" {
		text += fmt.Sprintf("File: %s\n", report.Filename)
	}
	text += fmt.Sprintf("Language: %s\n", report.Language)
	text += fmt.Sprintf("Words: %d\n", report.Metrics.WordCount)
	text += fmt.Sprintf("Sentences: %d\n", report.Metrics.SentenceCount)
	text += fmt.Sprintf("Paragraphs: %d\n", report.Metrics.ParagraphCount)
	text += fmt.Sprintf("Reading time: %.1f minute(s)\n", report.Metrics.ReadingTimeMinutes)
	text += fmt.Sprintf("Complexity: %.1f/10\n", report.Metrics.ComplexityScore)
	text += fmt.Sprintf("Sentiment: %s (score %.2f, confidence %.2f)\n",
		report.Sentiment.Label, report.Sentiment.Score, report.Sentiment.Confidence)
	text += fmt.Sprintf("Sensitivity: %s\n", report.Sensitivity)

	entityCount := 0
	for _, matches := range report.Entities {
		entityCount += len(matches)
	}
	if entityCount > 0 {
		text += fmt.Sprintf("\nEntities (%d):\n", entityCount)
		for kind, matches := range report.Entities {
			if len(matches) == 0 {
				continue
			}
			text += fmt.Sprintf("  %s: %s\n", kind, strings.Join(matches, ", "))
		}
	}

	if report.Summary != "" {
		text += fmt.Sprintf("\nSummary:\n%s\n", report.Summary)
	}

	if len(report.Recommendations) > 0 {
		text += "\nRecommendations:\n"
		for _, r := range report.Recommendations {
			text += fmt.Sprintf("  - %s\n", r)
		}
	}

	return text
}

// Run starts the MCP server over standard I/O.
func (s *Server) Run(_ context.Context) error {
	s.logger.Info("starting MCP server", "service", s.config.ServiceName, "version", s.config.Version)

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
