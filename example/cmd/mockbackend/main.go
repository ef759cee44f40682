// Standalone mock indexing backend for trying the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockbackend
//
// Then in another terminal:
//
//	go run ./cmd/indexwatch --backend http://localhost:8000 projects list
//	go run ./cmd/indexwatch --backend http://localhost:8000 index <id> --wait
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/jpalmerr/indexwatch/example/mockbackend"
)

func main() {
	fmt.Println("Mock indexing backend starting on :8000")
	fmt.Println("Indexing takes 5-15s and fails one time in five")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	b := mockbackend.New(logger, "api-gateway", "billing", "search-ui")

	if err := http.ListenAndServe(":8000", b.Handler()); err != nil {
		logger.Error("mock server error", "error", err)
		os.Exit(1)
	}
}
