package progress

import (
	"context"
	"testing"

	"github.com/bluehax/soapbot/bot/platform"
	"github.com/bluehax/soapbot/bot/tasks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSurface(t *testing.T) (*Surface, *platform.MemoryClient, *platform.Workspace) {
	t.Helper()
	client := platform.NewMemoryClient()
	ws, err := client.CreateWorkspace(context.Background(), "someone-soap", "soap", "<@42>")
	require.NoError(t, err)
	return NewSurface(client, tasks.NewRegistry()), client, ws
}

func countSentinels(msgs []platform.Outgoing) int {
	n := 0
	for _, m := range msgs {
		if m.Embed != nil && m.Embed.Author == Sentinel {
			n++
		}
	}
	return n
}

func TestUpdateEditsSingleMessage(t *testing.T) {
	surface, client, ws := newSurface(t)
	ctx := context.Background()

	surface.Start(ctx, ws, "Transfer starting")
	for _, p := range []int{10, 25, 60, 90, 100} {
		surface.Update(ctx, ws, p, "working")
	}

	msgs := client.Transcript(ws.ID)
	require.Equal(t, 1, countSentinels(msgs))
	for _, m := range msgs {
		if m.Embed != nil && m.Embed.Author == Sentinel {
			assert.Contains(t, m.Embed.Title, "100%")
		}
	}
}

func TestUpdateWithoutStartSendsNew(t *testing.T) {
	surface, client, ws := newSurface(t)
	ctx := context.Background()

	surface.Update(ctx, ws, 35, "Checking serial number")

	msgs := client.Transcript(ws.ID)
	require.Equal(t, 1, countSentinels(msgs))
}

func TestLowerPercentOverwrites(t *testing.T) {
	surface, client, ws := newSurface(t)
	ctx := context.Background()

	surface.Start(ctx, ws, "start")
	surface.Update(ctx, ws, 90, "almost")
	surface.Update(ctx, ws, 10, "rolled back")

	msgs := client.Transcript(ws.ID)
	require.Equal(t, 1, countSentinels(msgs))
	for _, m := range msgs {
		if m.Embed != nil && m.Embed.Author == Sentinel {
			assert.Contains(t, m.Embed.Title, "10%")
		}
	}
}

func TestRemoveDeletesAndDrainsTask(t *testing.T) {
	client := platform.NewMemoryClient()
	reg := tasks.NewRegistry()
	surface := NewSurface(client, reg)
	ctx := context.Background()

	ws, err := client.CreateWorkspace(ctx, "someone-soap", "soap", "<@42>")
	require.NoError(t, err)

	surface.Start(ctx, ws, "start")
	surface.Remove(ctx, ws)
	reg.Wait(ws.ID)

	assert.Equal(t, 0, countSentinels(client.Transcript(ws.ID)))
	assert.Equal(t, 0, reg.Active(ws.ID))
}

func TestRemoveWithoutMessageIsNoop(t *testing.T) {
	client := platform.NewMemoryClient()
	reg := tasks.NewRegistry()
	surface := NewSurface(client, reg)
	ctx := context.Background()

	ws, err := client.CreateWorkspace(ctx, "someone-soap", "soap", "<@42>")
	require.NoError(t, err)

	surface.Remove(ctx, ws)
	reg.Wait(ws.ID)
	assert.Empty(t, client.Transcript(ws.ID))
}

func TestBarRendering(t *testing.T) {
	out := render(40, "working")
	assert.Equal(t, "[████░░░░░░] 40%", out.Embed.Title)
	out = render(100, "done")
	assert.Equal(t, "[██████████] 100%", out.Embed.Title)
	out = render(-5, "clamped")
	assert.Equal(t, "[░░░░░░░░░░] 0%", out.Embed.Title)
}
