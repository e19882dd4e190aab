package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	livemcp "github.com/claude/liveset/internal/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "LiveSet server URL (e.g. https://liveset.tail1234.ts.net)")
	apiKey := flag.String("api-key", os.Getenv("LIVESET_API_KEY"), "API key; not needed when the server is reached over the tailnet")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("liveset-mcp", Version)
		return
	}

	// stdout carries the MCP protocol.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *serverURL == "" {
		fmt.Fprintf(os.Stderr, "Usage: liveset-mcp -server <URL> [-api-key KEY]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	client := livemcp.NewHTTPClient(*serverURL, *apiKey)
	s := livemcp.New(client, Version, log)

	log.Info("liveset-mcp serving stdio", "server", *serverURL, "version", Version)
	if err := server.ServeStdio(s); err != nil {
		log.Error("stdio server stopped", "error", err)
		os.Exit(1)
	}
}
