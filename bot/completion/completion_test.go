package completion

import (
	"context"
	"testing"
	"time"

	"github.com/bluehax/soapbot/bot/platform"
	"github.com/bluehax/soapbot/bot/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlow(t *testing.T, autoClose time.Duration) (*Flow, *platform.MemoryClient, *platform.Workspace) {
	t.Helper()
	client := platform.NewMemoryClient()
	prov := workspace.NewProvisioner(workspace.Options{
		Client:         client,
		SoapCategories: []string{"soap"},
		NNIDCategories: []string{"nnid"},
		DestroyDelay:   time.Millisecond,
	})
	flow := NewFlow(Options{
		Client:           client,
		Provisioner:      prov,
		ResponderMention: "@soapers",
		AutoClose:        autoClose,
	})
	ws, err := client.CreateWorkspace(context.Background(), "someone-soap", "soap", "<@42>")
	require.NoError(t, err)
	return flow, client, ws
}

func countDestructs(msgs []platform.Outgoing) int {
	n := 0
	for _, m := range msgs {
		if m.Content == "Self-destruct sequence initiated!" {
			n++
		}
	}
	return n
}

func waitGone(t *testing.T, client *platform.MemoryClient, wsID int64) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if _, alive := client.Workspace(wsID); !alive {
			return
		}
		select {
		case <-deadline:
			t.Fatal("workspace not destroyed in time")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestDeliverPostsOutcomeButtons(t *testing.T) {
	flow, client, ws := newFlow(t, time.Hour)
	flow.Deliver(context.Background(), ws, 42, Outcome{Serial: "ABC123456"})

	msgs := client.Transcript(ws.ID)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Embed.Title, "SOAP Complete")
	assert.Contains(t, msgs[0].Embed.Body, "ABC123456")
	require.Len(t, msgs[0].Buttons, 1)
	assert.Equal(t, ActionWorks, msgs[0].Buttons[0][0].Data)
	assert.Equal(t, ActionBroken, msgs[0].Buttons[0][1].Data)
}

func TestLotteryOutcomeMentionsLottery(t *testing.T) {
	flow, client, ws := newFlow(t, time.Hour)
	flow.Deliver(context.Background(), ws, 42, Outcome{Lottery: true})

	msgs := client.Transcript(ws.ID)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Embed.Title, "Lottery")
}

func TestCloseCancelsTimerAndDestroysOnce(t *testing.T) {
	flow, client, ws := newFlow(t, 50*time.Millisecond)
	ctx := context.Background()

	flow.OnWorks(ctx, ws)
	require.True(t, flow.TimerActive(ws.ID))

	flow.OnClose(ctx, ws)
	assert.False(t, flow.TimerActive(ws.ID))

	_, alive := client.Workspace(ws.ID)
	assert.False(t, alive)

	// timer window passes; no second destruction
	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, 1, countDestructs(client.Transcript(ws.ID)))
}

func TestAutoCloseFiresWhenIgnored(t *testing.T) {
	flow, client, ws := newFlow(t, 20*time.Millisecond)
	flow.OnWorks(context.Background(), ws)

	waitGone(t, client, ws.ID)
	assert.Equal(t, 1, countDestructs(client.Transcript(ws.ID)))
	assert.False(t, flow.TimerActive(ws.ID))
}

func TestCancelAfterFiredIsNoop(t *testing.T) {
	flow, client, ws := newFlow(t, 10*time.Millisecond)
	flow.OnWorks(context.Background(), ws)
	waitGone(t, client, ws.ID)

	flow.CancelAutoClose(ws.ID)
	flow.CancelAutoClose(ws.ID)
	assert.Equal(t, 1, countDestructs(client.Transcript(ws.ID)))
}

func TestOnWorksIsIdempotentForTimer(t *testing.T) {
	flow, client, ws := newFlow(t, 30*time.Millisecond)
	ctx := context.Background()

	flow.OnWorks(ctx, ws)
	flow.OnWorks(ctx, ws)
	waitGone(t, client, ws.ID)
	assert.Equal(t, 1, countDestructs(client.Transcript(ws.ID)))
}

func TestMoreQuestionsCancelsTimerAndShowsMenu(t *testing.T) {
	flow, client, ws := newFlow(t, 30*time.Millisecond)
	ctx := context.Background()

	flow.OnWorks(ctx, ws)
	flow.OnMore(ctx, ws)
	assert.False(t, flow.TimerActive(ws.ID))

	time.Sleep(80 * time.Millisecond)
	_, alive := client.Workspace(ws.ID)
	assert.True(t, alive)

	msgs := client.Transcript(ws.ID)
	last := msgs[len(msgs)-1]
	assert.Contains(t, last.Embed.Title, "SOAP Helper")
}

func TestBrokenSkipsTimer(t *testing.T) {
	flow, client, ws := newFlow(t, time.Hour)
	flow.OnBroken(context.Background(), ws)

	assert.False(t, flow.TimerActive(ws.ID))
	msgs := client.Transcript(ws.ID)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Embed.Title, "SOAP Helper")
}

func TestEscalatePingsResponder(t *testing.T) {
	flow, client, ws := newFlow(t, time.Hour)
	flow.HandleTopic(context.Background(), ws, 42, TopicEscalate)

	msgs := client.Transcript(ws.ID)
	require.Len(t, msgs, 1)
	assert.Equal(t, "@soapers", msgs[0].Content)
	assert.Contains(t, msgs[0].Embed.Title, "Assistance Requested")
}

func TestTopicAnswersCarryResolutionFollowup(t *testing.T) {
	flow, client, ws := newFlow(t, time.Hour)
	flow.HandleTopic(context.Background(), ws, 42, TopicLottery)

	msgs := client.Transcript(ws.ID)
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].Embed.Title, "SOAP Lottery")
	assert.Contains(t, msgs[1].Embed.Title, "resolve your issue")
	assert.Equal(t, ResolutionYes, msgs[1].Buttons[0][0].Data)
}

func TestKnownErrorCodeShowsSteps(t *testing.T) {
	flow, client, ws := newFlow(t, time.Hour)
	flow.ReportErrorCode(context.Background(), ws, 42, "eShop", " 022-2452 ")

	msgs := client.Transcript(ws.ID)
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].Embed.Title, "Region Mismatch")
	assert.Contains(t, msgs[0].Embed.Body, "Steps to resolve")
}

func TestUnknownErrorCodePagesSoaper(t *testing.T) {
	flow, client, ws := newFlow(t, time.Hour)
	flow.ReportErrorCode(context.Background(), ws, 42, "eShop", "999-9999")

	msgs := client.Transcript(ws.ID)
	require.Len(t, msgs, 1)
	assert.Equal(t, "@soapers", msgs[0].Content)
	assert.Contains(t, msgs[0].Embed.Body, "not in our database")
}

func TestUnresolvedReopensMenu(t *testing.T) {
	flow, client, ws := newFlow(t, time.Hour)
	ctx := context.Background()

	flow.HandleResolution(ctx, ws, ResolutionNo)
	msgs := client.Transcript(ws.ID)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Embed.Title, "SOAP Helper")

	flow.HandleResolution(ctx, ws, ResolutionYes)
	assert.Len(t, client.Transcript(ws.ID), 1)
}
