package cli

import (
	"fmt"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v4"

	"github.com/frijol-dev/frijol/internal/loader"
)

const swaggerPage = `<!DOCTYPE html>
<html>
<head>
  <title>Swagger UI</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({url: "/openapi.json", dom_id: "#swagger-ui"});
  </script>
</body>
</html>`

const redocPage = `<!DOCTYPE html>
<html>
<head>
  <title>Redoc</title>
</head>
<body>
  <redoc spec-url="/openapi.json"></redoc>
  <script src="https://cdn.jsdelivr.net/npm/redoc@2/bundles/redoc.standalone.js"></script>
</body>
</html>`

func PreviewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview <spec>",
		Short: "Serve Swagger UI and Redoc for a specification",
		Args:  cobra.ExactArgs(1),
		RunE:  runPreview,
	}
	cmd.Flags().IntP("port", "p", 8000, "Port to run the preview server on")
	return cmd
}

func runPreview(cmd *cobra.Command, args []string) error {
	port, _ := cmd.Flags().GetInt("port")

	result, err := loader.Load(cmd.Context(), args[0], false)
	if err != nil {
		return fmt.Errorf("loading spec: %w", err)
	}

	// The raw document may be YAML; the UI endpoints expect JSON.
	var tree any
	if err := yaml.Unmarshal(result.Raw, &tree); err != nil {
		return fmt.Errorf("decoding spec: %w", err)
	}
	specJSON, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("encoding spec as JSON: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/openapi.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(specJSON)
	})
	mux.HandleFunc("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, swaggerPage)
	})
	mux.HandleFunc("/redoc", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, redocPage)
	})

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	cmd.PrintErrf("Preview server running for %s\n", result.Title)
	cmd.PrintErrf("  - Swagger UI: http://%s/docs\n", addr)
	cmd.PrintErrf("  - Redoc:      http://%s/redoc\n", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return server.ListenAndServe()
}
