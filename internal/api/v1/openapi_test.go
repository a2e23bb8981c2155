package apiv1

import (
	"context"
	"net/http"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const openAPIPath = "../../../public/docs/api/v1/openapi.yml"

func loadSpec(t *testing.T) *openapi3.T {
	t.Helper()
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(openAPIPath)
	require.NoError(t, err, "openapi.yml must parse")
	require.NoError(t, doc.Validate(context.Background()), "openapi.yml must be a valid OpenAPI 3 document")
	return doc
}

func TestOpenAPIDocumentIsValid(t *testing.T) {
	doc := loadSpec(t)
	assert.Equal(t, "PixelVault API", doc.Info.Title)
	require.NotEmpty(t, doc.Servers)
	assert.Equal(t, "/api/v1", doc.Servers[0].URL)
}

// TestRegisteredRoutesAreDocumented walks the fiber route table and checks
// every v1 operation appears in the published document, so handlers and spec
// cannot drift apart silently.
func TestRegisteredRoutesAreDocumented(t *testing.T) {
	doc := loadSpec(t)

	app := fiber.New()
	v1 := app.Group("/api/v1")
	passThrough := func(c *fiber.Ctx) error { return c.Next() }
	RegisterHandlers(v1, NewAPIServer(), passThrough)

	documented := map[string]bool{}
	for path, item := range doc.Paths.Map() {
		for method := range item.Operations() {
			documented[method+" /api/v1"+path] = true
		}
	}

	for _, routes := range app.Stack() {
		for _, route := range routes {
			if route.Method == http.MethodHead || route.Method == "USE" {
				continue
			}
			if route.Path == "/api/v1" || route.Path == "/" {
				continue
			}
			key := route.Method + " " + route.Path
			assert.True(t, documented[key], "route %s is not documented in openapi.yml", key)
		}
	}
}
