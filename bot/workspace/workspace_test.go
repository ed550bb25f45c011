package workspace

import (
	"context"
	"testing"
	"time"

	"github.com/bluehax/soapbot/bot/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProvisioner(client *platform.MemoryClient, now func() time.Time) *Provisioner {
	return NewProvisioner(Options{
		Client:         client,
		SoapCategories: []string{"soap", "manual-soap"},
		NNIDCategories: []string{"nnid"},
		QuietStartHour: 22,
		QuietEndHour:   8,
		QuietUTCOffset: -5,
		BoomSticker:    "boom-sticker",
		DestroyDelay:   time.Millisecond,
		Now:            now,
	})
}

func daytime() time.Time {
	// 17:00 UTC = noon at UTC-5
	return time.Date(2026, 3, 10, 17, 0, 0, 0, time.UTC)
}

func lateNight() time.Time {
	// 04:00 UTC = 23:00 previous day at UTC-5
	return time.Date(2026, 3, 10, 4, 0, 0, 0, time.UTC)
}

func TestNameFor(t *testing.T) {
	assert.Equal(t, "some-user-soap", NameFor("Some.User", KindSoap))
	assert.Equal(t, "dots-nnid", NameFor("..dots..", KindNNID))
	assert.Equal(t, "a-b-c-soap", NameFor(".a.b.c.", KindSoap))
}

func TestOwnerID(t *testing.T) {
	id, ok := OwnerID(TopicFor(123456789, KindSoap))
	require.True(t, ok)
	assert.Equal(t, "123456789", id)

	_, ok = OwnerID("no mention here")
	assert.False(t, ok)
}

func TestCreateProvisionsWorkspace(t *testing.T) {
	client := platform.NewMemoryClient()
	p := newProvisioner(client, daytime)
	req := Requester{ID: 42, Handle: "Some.User"}

	res := p.CreateOrGet(context.Background(), req, KindSoap)
	require.Equal(t, StatusCreated, res.Status)
	require.NotNil(t, res.Workspace)
	assert.Equal(t, "some-user-soap", res.Workspace.Name)
	assert.Equal(t, "soap", res.Workspace.Category)

	owner, ok := OwnerID(res.Workspace.Topic)
	require.True(t, ok)
	assert.Equal(t, "42", owner)

	assert.Contains(t, client.AccessList(res.Workspace.ID), int64(42))

	msgs := client.Transcript(res.Workspace.ID)
	require.Len(t, msgs, 1)
	require.NotNil(t, msgs[0].Embed)
	assert.Contains(t, msgs[0].Embed.Title, "Welcome to Your SOAP Channel")
	assert.Contains(t, msgs[0].Content, "42")
}

func TestCreateIsIdempotent(t *testing.T) {
	client := platform.NewMemoryClient()
	p := newProvisioner(client, daytime)
	req := Requester{ID: 42, Handle: "someone"}

	first := p.CreateOrGet(context.Background(), req, KindSoap)
	require.Equal(t, StatusCreated, first.Status)

	second := p.CreateOrGet(context.Background(), req, KindSoap)
	require.Equal(t, StatusAlreadyExists, second.Status)
	assert.Equal(t, first.Workspace.ID, second.Workspace.ID)
	assert.Contains(t, second.Message, "already made")
}

func TestExistenceScanSpansCategorySet(t *testing.T) {
	client := platform.NewMemoryClient()
	p := newProvisioner(client, daytime)
	_, err := client.CreateWorkspace(context.Background(), "someone-soap", "manual-soap", TopicFor(42, KindSoap))
	require.NoError(t, err)

	res := p.CreateOrGet(context.Background(), Requester{ID: 42, Handle: "someone"}, KindSoap)
	assert.Equal(t, StatusAlreadyExists, res.Status)
}

func TestKindsDoNotCollide(t *testing.T) {
	client := platform.NewMemoryClient()
	p := newProvisioner(client, daytime)
	req := Requester{ID: 42, Handle: "someone"}

	soap := p.CreateOrGet(context.Background(), req, KindSoap)
	nnid := p.CreateOrGet(context.Background(), req, KindNNID)
	require.Equal(t, StatusCreated, soap.Status)
	require.Equal(t, StatusCreated, nnid.Status)
	assert.NotEqual(t, soap.Workspace.ID, nnid.Workspace.ID)
	assert.Equal(t, "nnid", nnid.Workspace.Category)
}

func TestCreateFailureBecomesErrorResult(t *testing.T) {
	client := platform.NewMemoryClient()
	client.FailCreate = assert.AnError
	p := newProvisioner(client, daytime)

	res := p.CreateOrGet(context.Background(), Requester{ID: 42, Handle: "someone"}, KindSoap)
	assert.Equal(t, StatusError, res.Status)
	assert.Contains(t, res.Message, "Error creating workspace")
}

func TestMissingCategoryIsError(t *testing.T) {
	client := platform.NewMemoryClient()
	p := NewProvisioner(Options{Client: client, Now: daytime, DestroyDelay: time.Millisecond})

	res := p.CreateOrGet(context.Background(), Requester{ID: 42, Handle: "someone"}, KindSoap)
	assert.Equal(t, StatusError, res.Status)
	assert.Contains(t, res.Message, "category not found")
}

func TestAfterHoursNotice(t *testing.T) {
	client := platform.NewMemoryClient()
	p := newProvisioner(client, lateNight)

	res := p.CreateOrGet(context.Background(), Requester{ID: 42, Handle: "someone"}, KindNNID)
	require.Equal(t, StatusCreated, res.Status)

	msgs := client.Transcript(res.Workspace.ID)
	require.Len(t, msgs, 2)
	require.NotNil(t, msgs[1].Embed)
	assert.Contains(t, msgs[1].Embed.Title, "After Hours Notice")
}

func TestNoNoticeDuringDay(t *testing.T) {
	client := platform.NewMemoryClient()
	p := newProvisioner(client, daytime)

	res := p.CreateOrGet(context.Background(), Requester{ID: 42, Handle: "someone"}, KindSoap)
	require.Equal(t, StatusCreated, res.Status)
	assert.Len(t, client.Transcript(res.Workspace.ID), 1)
}

func TestDestroySequence(t *testing.T) {
	client := platform.NewMemoryClient()
	p := newProvisioner(client, daytime)

	res := p.CreateOrGet(context.Background(), Requester{ID: 42, Handle: "someone"}, KindSoap)
	require.Equal(t, StatusCreated, res.Status)
	ws := res.Workspace

	require.NoError(t, p.Destroy(context.Background(), ws))
	_, alive := client.Workspace(ws.ID)
	assert.False(t, alive)

	msgs := client.Transcript(ws.ID)
	require.GreaterOrEqual(t, len(msgs), 3)
	assert.Equal(t, "Self-destruct sequence initiated!", msgs[1].Content)
	assert.Equal(t, "boom-sticker", msgs[2].Sticker)
}

func TestDestroyGoneWorkspaceIsSuccess(t *testing.T) {
	client := platform.NewMemoryClient()
	p := newProvisioner(client, daytime)

	ws := &platform.Workspace{ID: 999, Name: "ghost-soap"}
	assert.NoError(t, p.Destroy(context.Background(), ws))
}
