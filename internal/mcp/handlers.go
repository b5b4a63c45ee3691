package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/pkweb/internal/pkapi"
	"github.com/ziadkadry99/pkweb/internal/view"
)

// handleGetSystem loads a system and its members.
func (s *Server) handleGetSystem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: id"), nil
	}

	snap := s.loader.LoadSync(ctx, id)
	if snap.State != view.Loaded {
		return loadError(id, snap.Err), nil
	}
	return mcp.NewToolResultText(formatSystem(snap.System, snap.Members)), nil
}

// handleListMembers returns just the member list of a system.
func (s *Server) handleListMembers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: id"), nil
	}

	snap := s.loader.LoadSync(ctx, id)
	if snap.State != view.Loaded {
		return loadError(id, snap.Err), nil
	}

	if request.GetString("format", "text") == "json" {
		data, err := json.MarshalIndent(snap.Members, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encoding members: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}

	if len(snap.Members) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("System %s has no members.", id)), nil
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d member(s):\n", len(snap.Members)))
	for _, m := range snap.Members {
		writeMember(&sb, m)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// handleGetOwnSystem looks up the system of the stored token.
func (s *Server) handleGetOwnSystem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	token := s.token()
	if token == "" {
		return mcp.NewToolResultError("No PluralKit token stored. Run `pkweb auth token` first."), nil
	}

	sys, err := s.api.OwnSystem(ctx, token)
	if err != nil {
		if pkapi.IsUnauthorized(err) {
			return mcp.NewToolResultError("The stored PluralKit token was rejected."), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("own system lookup failed: %v", err)), nil
	}

	snap := s.loader.LoadSync(ctx, sys.ID)
	if snap.State != view.Loaded {
		return mcp.NewToolResultText(formatSystem(sys, nil)), nil
	}
	return mcp.NewToolResultText(formatSystem(snap.System, snap.Members)), nil
}

func loadError(id string, err error) *mcp.CallToolResult {
	if pkapi.IsNotFound(err) {
		return mcp.NewToolResultError(fmt.Sprintf("No system found with ID %q.", id))
	}
	return mcp.NewToolResultError(fmt.Sprintf("loading system %s failed: %v", id, err))
}

// formatSystem renders a system as plain text for AI agent consumption.
func formatSystem(sys *pkapi.System, members []pkapi.Member) string {
	var sb strings.Builder
	name := sys.Name
	if name == "" {
		name = "Unnamed"
	}
	sb.WriteString(fmt.Sprintf("System: %s (%s)\n", name, sys.ID))
	if sys.Tag != "" {
		sb.WriteString(fmt.Sprintf("Tag: %s\n", sys.Tag))
	}
	if sys.Description != "" {
		sb.WriteString("\n")
		sb.WriteString(sys.Description)
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("\nMembers (%d):\n", len(members)))
	for _, m := range members {
		writeMember(&sb, m)
	}
	return sb.String()
}

func writeMember(sb *strings.Builder, m pkapi.Member) {
	sb.WriteString(fmt.Sprintf("- %s [%s]", m.Name, m.ID))
	if m.Pronouns != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", m.Pronouns))
	}
	sb.WriteString("\n")
}
