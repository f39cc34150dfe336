package pages

import (
	"bytes"
	"context"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partyline-dev/partyline/internal/interruptors"
	"github.com/partyline-dev/partyline/internal/models"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestDocumentWrapsChildren(t *testing.T) {
	ctx := templ.WithChildren(context.Background(), Login())
	var buf bytes.Buffer
	require.NoError(t, Document("Sign in").Render(ctx, &buf))

	html := buf.String()
	assert.Contains(t, html, "<title>Sign in | Partyline</title>")
	assert.Contains(t, html, `<form id="sign-in" data-action="signIn">`)
	assert.Contains(t, html, "</body></html>")
}

func TestHomeEscapesAndShowsAdminLink(t *testing.T) {
	html := render(t, Home(interruptors.User{Name: "<Alice>", Email: "a@example.com", Role: models.RoleAdmin}))
	assert.Contains(t, html, "Welcome, &lt;Alice&gt;")
	assert.Contains(t, html, `href="/admin"`)

	html = render(t, Home(interruptors.User{Name: "Bob", Email: "b@example.com", Role: models.RoleUser}))
	assert.NotContains(t, html, `href="/admin"`)
	assert.Contains(t, html, "(user)")
}

func TestAdminSelectsCurrentRole(t *testing.T) {
	u := models.User{Name: "Carol", Email: "c@example.com", Role: "host"}
	u.ID = "01HZX0000000000000000000CC"

	html := render(t, Admin([]models.User{u}))
	assert.Contains(t, html, `data-user-id="01HZX0000000000000000000CC"`)
	assert.Contains(t, html, `<option value="host" selected>host</option>`)
	assert.Contains(t, html, `<option value="admin">admin</option>`)
}
