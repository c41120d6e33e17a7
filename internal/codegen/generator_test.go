package codegen

import (
	"strings"
	"testing"

	"github.com/frijol-dev/frijol/internal/config"
	"github.com/frijol-dev/frijol/internal/ir"
	"github.com/frijol-dev/frijol/internal/loader"
	"github.com/stretchr/testify/require"
)

const petstore = `
openapi: 3.0.3
info:
  title: Petstore
  version: 1.0.0
components:
  schemas:
    Pet:
      type: object
      required: [id]
      properties:
        id:
          type: integer
          format: int64
        name:
          type: string
          nullable: true
    Status:
      type: string
      enum: [available, sold]
paths:
  /pets/{petId}:
    get:
      operationId: getPet
      parameters:
        - name: petId
          in: path
          required: true
          schema:
            type: integer
            format: int64
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Pet'
`

func newTestGenerator(t *testing.T) (*Generator, *loader.Result) {
	t.Helper()
	res, err := loader.Parse([]byte(petstore), false)
	require.NoError(t, err)

	gen, err := New(&config.Config{
		Spec:    "petstore.yaml",
		Output:  t.TempDir(),
		Package: "petstore",
		Targets: []string{"types", "client"},
	}, nil)
	require.NoError(t, err)
	return gen, res
}

func TestBuildIR(t *testing.T) {
	gen, res := newTestGenerator(t)

	model, err := gen.BuildIR(res)
	require.NoError(t, err)

	require.Equal(t, "Petstore", model.Title.Value())
	require.Equal(t, "1.0.0", model.Version.Value())
	require.Len(t, model.Types, 2)
	require.Len(t, model.Operations, 1)

	op := model.Operations[0]
	require.Equal(t, "/pets/{pet_id}", op.NormalizedPath)
	require.Equal(t, ir.KindReference, op.SuccessType().Kind)
}

func TestGenerateRendersTargets(t *testing.T) {
	gen, res := newTestGenerator(t)

	outputs, err := gen.Generate(res)
	require.NoError(t, err)
	require.Len(t, outputs, 2)

	var types, client string
	for _, out := range outputs {
		switch out.Filename {
		case "types.go":
			types = out.Content
		case "client.go":
			client = out.Content
		}
	}

	require.Contains(t, types, "package petstore")
	require.Contains(t, types, "type Pet struct")
	require.Contains(t, types, "`json:\"id\"`")
	require.Contains(t, types, "`json:\"name,omitempty\"`")
	require.Contains(t, types, "type Status string")
	require.Contains(t, types, `StatusAvailable Status = "available"`)

	require.Contains(t, client, "func NewClient(baseURL string) *Client")
	require.Contains(t, client, "func (c *Client) GetPet(ctx context.Context, petID int64) (Pet, *http.Response, error)")
	require.Contains(t, client, `fmt.Sprintf("/pets/%v", petID)`)
	require.False(t, strings.Contains(client, "{petId}"), "original token must not leak into requests")
}

func TestGenerateNeutralizesHostileMetadata(t *testing.T) {
	const hostile = `
openapi: 3.0.3
info:
  title: "Pets\nvar Injected = 1 //"
  version: "0.1\nvar AlsoInjected = 2 //"
components:
  schemas:
    Pet:
      type: object
      properties:
        name: {type: string}
paths:
  /pets:
    get:
      operationId: listPets
      responses:
        "200":
          description: ok
`
	res, err := loader.Parse([]byte(hostile), false)
	require.NoError(t, err)

	gen, err := New(&config.Config{
		Spec:    "hostile.yaml",
		Output:  t.TempDir(),
		Package: "petstore",
		Targets: []string{"types", "client"},
	}, nil)
	require.NoError(t, err)

	outputs, err := gen.Generate(res)
	require.NoError(t, err)
	require.Len(t, outputs, 2)

	for _, out := range outputs {
		// A title or version line break must stay inside a comment, never
		// become a top-level declaration.
		for _, line := range strings.Split(out.Content, "\n") {
			trimmed := strings.TrimSpace(line)
			require.False(t, strings.HasPrefix(trimmed, "var Injected"),
				"%s: document title escaped its comment", out.Filename)
			require.False(t, strings.HasPrefix(trimmed, "var AlsoInjected"),
				"%s: document version escaped its comment", out.Filename)
		}
		require.Contains(t, out.Content, "// var Injected")
	}
}
