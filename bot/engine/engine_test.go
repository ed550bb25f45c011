package engine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/bluehax/soapbot/bot/completion"
	"github.com/bluehax/soapbot/bot/platform"
	"github.com/bluehax/soapbot/bot/progress"
	"github.com/bluehax/soapbot/bot/tasks"
	"github.com/bluehax/soapbot/bot/tracker"
	"github.com/bluehax/soapbot/bot/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	jobID       = "150000000000000000"
	workerChan  = int64(900)
	statusStart = "SOAP_STATUS " + jobID + " PROGRESS START"
)

type fixture struct {
	engine  *Engine
	client  *platform.MemoryClient
	store   *tracker.Store
	tasks   *tasks.Registry
	ws      *platform.Workspace
	nnidWS  *platform.Workspace
	cleanup func()
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := platform.NewMemoryClient()
	reg := tasks.NewRegistry()
	store, err := tracker.Open(filepath.Join(t.TempDir(), "tracker_counts.json"))
	require.NoError(t, err)

	prov := workspace.NewProvisioner(workspace.Options{
		Client:         client,
		SoapCategories: []string{"soap", "manual-soap"},
		NNIDCategories: []string{"nnid"},
		DestroyDelay:   time.Millisecond,
	})
	flow := completion.NewFlow(completion.Options{
		Client:           client,
		Provisioner:      prov,
		ResponderMention: "@soapers",
		AutoClose:        time.Hour,
	})

	ctx := context.Background()
	ws, err := client.CreateWorkspace(ctx, "someone-soap", "soap",
		workspace.TopicFor(150000000000000000, workspace.KindSoap))
	require.NoError(t, err)
	nnidWS, err := client.CreateWorkspace(ctx, "other-nnid", "nnid",
		"This is the NNID channel for <@160000000000000000>, please follow all provided instructions.")
	require.NoError(t, err)

	eng := New(Options{
		Client:          client,
		Progress:        progress.NewSurface(client, reg),
		Completion:      flow,
		Tracker:         store,
		WorkerChannelID: workerChan,
		SoapCategories:  []string{"soap", "manual-soap"},
		NNIDCategories:  []string{"nnid"},
	})
	return &fixture{engine: eng, client: client, store: store, tasks: reg, ws: ws, nnidWS: nnidWS}
}

func (f *fixture) acks() []string {
	var out []string
	for _, m := range f.client.ChannelTranscript(workerChan) {
		out = append(out, m.Content)
	}
	return out
}

func TestMalformedLinesYieldNoAck(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, line := range []string{
		"hello there",
		"SOAP_STATUS 12345 PROGRESS START",              // id too short
		"SOAP_STATUS " + jobID,                          // missing phase
		"SOAP_STATUS " + jobID + " PROGRESS START EXTRA ARG", // trailing garbage
	} {
		assert.False(t, f.engine.HandleWorkerLine(ctx, line), line)
	}
	assert.Empty(t, f.acks())
}

func TestProgressLineAcksAndUpdates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.True(t, f.engine.HandleWorkerLine(ctx, statusStart))
	assert.Equal(t, []string{"RESPONSE_ACK " + jobID + " PROGRESS"}, f.acks())

	msgs := f.client.Transcript(f.ws.ID)
	require.Len(t, msgs, 1)
	assert.Equal(t, progress.Sentinel, msgs[0].Embed.Author)
	assert.Contains(t, msgs[0].Embed.Title, "0%")
}

func TestCaseInsensitiveLine(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.engine.HandleWorkerLine(context.Background(),
		"soap_status "+jobID+" progress queued"))
	msgs := f.client.Transcript(f.ws.ID)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Embed.Title, "10%")
}

func TestUnknownDetailAckedButIgnored(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.engine.HandleWorkerLine(context.Background(),
		"SOAP_STATUS "+jobID+" PROGRESS REticulating_SPLINES"))
	assert.Len(t, f.acks(), 1)
	assert.Empty(t, f.client.Transcript(f.ws.ID))
}

func TestUnknownJobAckedWithoutRouting(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.engine.HandleWorkerLine(context.Background(),
		"SOAP_STATUS 999999999999999999 PROGRESS START"))
	assert.Len(t, f.acks(), 1)
	assert.Empty(t, f.client.Transcript(f.ws.ID))
}

func TestFullLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, token := range []string{"START", "QUEUED", "SERIAL_CHECK_ATTEMPT", "SYSTEM_TRANSFER_SUCCESS"} {
		require.True(t, f.engine.HandleWorkerLine(ctx, "SOAP_STATUS "+jobID+" PROGRESS "+token))
	}
	require.True(t, f.engine.HandleWorkerLine(ctx, "SOAP_STATUS "+jobID+" SUCCESS ABC123456"))
	f.tasks.Wait(f.ws.ID)

	// one ack per accepted line
	assert.Len(t, f.acks(), 5)

	// progress message removed, completion message delivered
	msgs := f.client.Transcript(f.ws.ID)
	var sentinels, completions int
	for _, m := range msgs {
		if m.Embed == nil {
			continue
		}
		if m.Embed.Author == progress.Sentinel {
			sentinels++
		}
		if m.Embed.Title == "🧼 SOAP Complete!" {
			completions++
			assert.Contains(t, m.Embed.Body, "ABC123456")
		}
	}
	assert.Equal(t, 0, sentinels)
	assert.Equal(t, 1, completions)

	soap, nnid := f.store.Read()
	assert.Equal(t, 1, soap)
	assert.Equal(t, 0, nnid)
}

func TestLotterySkipsSerialAndCountsOnce(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.engine.HandleWorkerLine(context.Background(),
		"SOAP_STATUS "+jobID+" LOTTERY SKIP"))
	f.tasks.Wait(f.ws.ID)

	msgs := f.client.Transcript(f.ws.ID)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Embed.Title, "Lottery")
	assert.NotContains(t, msgs[0].Embed.Body, "SKIP")

	soap, _ := f.store.Read()
	assert.Equal(t, 1, soap)
}

func TestNNIDJobIncrementsNNIDCounter(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.engine.HandleWorkerLine(context.Background(),
		"SOAP_STATUS 160000000000000000 SUCCESS SKIP"))
	f.tasks.Wait(f.nnidWS.ID)

	soap, nnid := f.store.Read()
	assert.Equal(t, 0, soap)
	assert.Equal(t, 1, nnid)
}

func TestSerialMismatchErrorReport(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.engine.HandleWorkerLine(context.Background(),
		"SOAP_STATUS "+jobID+" ERROR SERIAL_MISMATCH"))

	msgs := f.client.Transcript(f.ws.ID)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Embed.Title, "Transfer Error")
	assert.Contains(t, msgs[0].Embed.Body, "serial number")

	soap, nnid := f.store.Read()
	assert.Zero(t, soap)
	assert.Zero(t, nnid)
}

func TestOwnerIDParsing(t *testing.T) {
	assert.Equal(t, int64(150000000000000000), ownerID(workspace.TopicFor(150000000000000000, workspace.KindSoap)))
	assert.Zero(t, ownerID("no token"))
	assert.Zero(t, ownerID("<@9999999999999999999999999>")) // wider than int64
}
