package texts

import (
	"context"
	"testing"

	"github.com/bluehax/soapbot/bot/platform"
	"github.com/bluehax/soapbot/bot/workspace"
	"github.com/bluehax/soapbot/core/telegram/commands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(t *testing.T, name string) Entry {
	t.Helper()
	for _, e := range Catalog() {
		if e.Name == name {
			return e
		}
	}
	t.Fatalf("no catalog entry %q", name)
	return Entry{}
}

func TestCatalogNamesAndAliasesAreUnique(t *testing.T) {
	seen := make(map[string]string)
	for _, e := range Catalog() {
		for _, name := range append([]string{e.Name}, e.Aliases...) {
			prev, dup := seen[name]
			require.Falsef(t, dup, "%q claimed by both %q and %q", name, prev, e.Name)
			seen[name] = e.Name
		}
	}
}

func TestSoaperCommandsAreGated(t *testing.T) {
	for _, name := range []string{"soapnormal", "soaplottery", "findserial", "soapwait", "nodonors"} {
		assert.Equal(t, commands.RoleSoaper, entry(t, name).MinRole, name)
	}
	assert.Equal(t, commands.RoleDefault, entry(t, "hacksguide").MinRole)
}

func TestRenderPingsOwnerFromTopic(t *testing.T) {
	client := platform.NewMemoryClient()
	ws, err := client.CreateWorkspace(context.Background(), "someone-soap", "soap",
		workspace.TopicFor(42, workspace.KindSoap))
	require.NoError(t, err)

	out := entry(t, "soapnormal").Render(ws, client)
	assert.Contains(t, out.Content, "<@42>")
	assert.Contains(t, out.Content, "SOAP Transfer has completed")
}

func TestRenderEmbedEntryKeepsMentionInContent(t *testing.T) {
	client := platform.NewMemoryClient()
	ws, err := client.CreateWorkspace(context.Background(), "someone-soap", "soap",
		workspace.TopicFor(42, workspace.KindSoap))
	require.NoError(t, err)

	out := entry(t, "nodonors").Render(ws, client)
	assert.Equal(t, "<@42>", out.Content)
	assert.Contains(t, out.Embed.Title, "Donors on Cooldown")
}

func TestRenderWithoutOwnerTokenLeavesMessageAlone(t *testing.T) {
	client := platform.NewMemoryClient()
	ws, err := client.CreateWorkspace(context.Background(), "someone-soap", "soap", "no token here")
	require.NoError(t, err)

	out := entry(t, "soapnormal").Render(ws, client)
	assert.NotContains(t, out.Content, "<@")
}

func TestNonPingingEntryUnchanged(t *testing.T) {
	client := platform.NewMemoryClient()
	ws, err := client.CreateWorkspace(context.Background(), "someone-soap", "soap",
		workspace.TopicFor(42, workspace.KindSoap))
	require.NoError(t, err)

	out := entry(t, "hacksguide").Render(ws, client)
	assert.Empty(t, out.Content)
}
