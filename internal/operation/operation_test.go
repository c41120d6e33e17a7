package operation

import (
	"testing"

	"github.com/frijol-dev/frijol/internal/document"
	"github.com/frijol-dev/frijol/internal/ir"
	"github.com/frijol-dev/frijol/internal/resolver"
	"github.com/frijol-dev/frijol/internal/sanitize"
	"github.com/frijol-dev/frijol/internal/specerr"
	"github.com/frijol-dev/frijol/internal/translate"
	"github.com/stretchr/testify/require"
)

func extract(t *testing.T, src string) ([]ir.Operation, error) {
	t.Helper()
	root, err := document.Parse([]byte(src))
	require.NoError(t, err)

	r := resolver.New(root, nil)
	require.NoError(t, r.ResolveDocument())

	san := sanitize.New(nil)
	tr := translate.New(r.Table(), san, nil)
	return New(root, r, tr, san, nil).Extract()
}

func mustExtract(t *testing.T, src string) []ir.Operation {
	t.Helper()
	ops, err := extract(t, src)
	require.NoError(t, err)
	return ops
}

func TestExtractNormalizesPathTokens(t *testing.T) {
	ops := mustExtract(t, `
openapi: 3.0.3
paths:
  /users/{userId}:
    get:
      operationId: getUser
      parameters:
        - name: userId
          in: path
          required: true
          schema: {type: integer}
      responses:
        "200":
          description: ok
`)
	require.Len(t, ops, 1)
	op := ops[0]

	require.Equal(t, "GetUser", op.Name.Value())
	require.Equal(t, "GET", op.Method)
	require.Equal(t, "/users/{userId}", op.Path)
	require.Equal(t, "/users/{user_id}", op.NormalizedPath)

	require.Len(t, op.Tokens, 1)
	require.Equal(t, "userId", op.Tokens[0].Original)
	require.Equal(t, "user_id", op.Tokens[0].Normalized)

	// The path parameter binds to the normalized token name.
	require.Len(t, op.Parameters, 1)
	p := op.Parameters[0]
	require.Equal(t, "user_id", p.Name.Value())
	require.Equal(t, "userId", p.APIName)
	require.Equal(t, ir.LocationPath, p.Location)
	require.True(t, p.Required)
	require.Equal(t, ir.PrimitiveInteger, p.Type.Primitive)
}

func TestTokenNormalizationIsBijective(t *testing.T) {
	tokens := normalizeTokens("/a/{petId}/b/{pet_id}/c/{PetID}")
	require.Len(t, tokens, 3)

	seen := make(map[string]string)
	for _, tok := range tokens {
		_, dup := seen[tok.Normalized]
		require.False(t, dup, "normalized token %q not unique", tok.Normalized)
		seen[tok.Normalized] = tok.Original
	}

	// Denormalizing through the pairing recovers the original set.
	require.Equal(t, "petId", seen["pet_id"])
	require.Equal(t, "pet_id", seen["pet_id_2"])
	require.Equal(t, "PetID", seen["pet_id_3"])
}

func TestExtractParameterOrderingAndSharedParams(t *testing.T) {
	ops := mustExtract(t, `
openapi: 3.0.3
paths:
  /pets/{petId}:
    parameters:
      - name: petId
        in: path
        required: true
        schema: {type: integer}
    get:
      parameters:
        - name: X-Trace
          in: header
          schema: {type: string}
        - name: limit
          in: query
          schema:
            type: integer
            default: 20
        - name: session
          in: cookie
          schema: {type: string}
      responses:
        "200":
          description: ok
`)
	op := ops[0]
	require.Len(t, op.Parameters, 4)

	// Grouped path, query, header, cookie regardless of declaration order.
	require.Equal(t, ir.LocationPath, op.Parameters[0].Location)
	require.Equal(t, ir.LocationQuery, op.Parameters[1].Location)
	require.Equal(t, ir.LocationHeader, op.Parameters[2].Location)
	require.Equal(t, ir.LocationCookie, op.Parameters[3].Location)

	limit := op.Parameters[1]
	require.Equal(t, "limit", limit.Name.Value())
	require.Equal(t, ir.DefaultPresent, limit.Default.State)
	require.Equal(t, int64(20), limit.Default.Value)

	require.Equal(t, "x_trace", op.Parameters[2].Name.Value())
	require.Equal(t, "X-Trace", op.Parameters[2].APIName)
}

func TestExtractUnknownLocationFails(t *testing.T) {
	_, err := extract(t, `
openapi: 3.0.3
paths:
  /pets:
    get:
      parameters:
        - name: weird
          in: matrix
          schema: {type: string}
      responses:
        "200":
          description: ok
`)
	require.ErrorIs(t, err, specerr.ErrSchema)

	var schemaErr *specerr.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	require.Contains(t, schemaErr.Message, "matrix")
}

func TestExtractUnknownMethodFails(t *testing.T) {
	_, err := extract(t, `
openapi: 3.0.3
paths:
  /pets:
    fetch:
      responses:
        "200":
          description: ok
`)
	require.ErrorIs(t, err, specerr.ErrSchema)
}

func TestExtractIgnoresPathItemFieldsAndExtensions(t *testing.T) {
	ops := mustExtract(t, `
openapi: 3.0.3
paths:
  /pets:
    summary: Pet collection
    description: Everything about pets.
    x-internal: true
    get:
      responses:
        "200":
          description: ok
`)
	require.Len(t, ops, 1)
	require.Equal(t, "GET", ops[0].Method)
}

func TestExtractResponseClasses(t *testing.T) {
	ops := mustExtract(t, `
openapi: 3.0.3
components:
  schemas:
    Pet:
      type: object
      properties:
        name: {type: string}
    Error:
      type: object
      properties:
        message: {type: string}
paths:
  /pets:
    get:
      responses:
        "200":
          description: one
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Pet'
        "206":
          description: partial
          content:
            application/json:
              schema:
                type: array
                items:
                  $ref: '#/components/schemas/Pet'
        "404":
          description: missing
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Error'
        default:
          description: skipped
`)
	op := ops[0]
	require.Equal(t, []ir.StatusClass{ir.Status2xx, ir.Status4xx}, op.ResponseClasses())

	// Two 2xx codes merge into a union for the class.
	success := op.SuccessType()
	require.Equal(t, ir.KindUnion, success.Kind)
	require.Len(t, success.Members, 2)
	require.Equal(t, "Pet", success.Members[0].Ref.Value())
	require.Equal(t, ir.KindArray, success.Members[1].Kind)

	errType := op.ErrorType()
	require.Equal(t, ir.KindReference, errType.Kind)
	require.Equal(t, "Error", errType.Ref.Value())
}

func TestExtractBodylessResponse(t *testing.T) {
	ops := mustExtract(t, `
openapi: 3.0.3
paths:
  /pets/{petId}:
    delete:
      parameters:
        - name: petId
          in: path
          required: true
          schema: {type: integer}
      responses:
        "204":
          description: deleted
`)
	op := ops[0]
	require.Equal(t, []ir.StatusClass{ir.Status2xx}, op.ResponseClasses())
	require.Nil(t, op.SuccessType())
}

func TestExtractBodyMediaTypePriority(t *testing.T) {
	ops := mustExtract(t, `
openapi: 3.0.3
paths:
  /pets:
    post:
      requestBody:
        required: true
        content:
          application/x-www-form-urlencoded:
            schema:
              type: object
              properties:
                name: {type: string}
          application/json:
            schema:
              type: object
              properties:
                name: {type: string}
      responses:
        "201":
          description: created
`)
	body := ops[0].Body
	require.NotNil(t, body)
	require.Equal(t, "application/json", body.MediaType)
	require.True(t, body.Required)
	require.Equal(t, ir.KindObject, body.Type.Kind)
}

func TestExtractBodyUnsupportedMediaType(t *testing.T) {
	ops := mustExtract(t, `
openapi: 3.0.3
paths:
  /pets:
    post:
      requestBody:
        content:
          text/csv:
            schema: {type: string}
      responses:
        "201":
          description: created
`)
	body := ops[0].Body
	require.NotNil(t, body)
	require.Empty(t, body.MediaType)
	require.Equal(t, ir.PrimitiveAny, body.Type.Primitive)
	require.False(t, body.Required)
}

func TestExtractParameterRef(t *testing.T) {
	ops := mustExtract(t, `
openapi: 3.0.3
components:
  parameters:
    Limit:
      name: limit
      in: query
      schema: {type: integer}
paths:
  /pets:
    get:
      parameters:
        - $ref: '#/components/parameters/Limit'
      responses:
        "200":
          description: ok
`)
	require.Len(t, ops[0].Parameters, 1)
	require.Equal(t, "limit", ops[0].Parameters[0].Name.Value())
	require.Equal(t, ir.LocationQuery, ops[0].Parameters[0].Location)
}

func TestExtractSynthesizedName(t *testing.T) {
	ops := mustExtract(t, `
openapi: 3.0.3
paths:
  /users/{userId}/posts:
    get:
      responses:
        "200":
          description: ok
`)
	require.Equal(t, "GetUsersUserIDPosts", ops[0].Name.Value())
}

func TestExtractDocSynthesis(t *testing.T) {
	ops := mustExtract(t, `
openapi: 3.0.3
paths:
  /pets:
    description: The pet collection.
    get:
      summary: List pets.
      description: Returns every pet.
      responses:
        "200":
          description: ok
    post:
      responses:
        "201":
          description: created
`)
	require.Equal(t, "List pets.\n\nReturns every pet.\n\nThe pet collection.", ops[0].Doc.Value())
	require.Equal(t, noDescription, ops[1].Doc.Value())
}
