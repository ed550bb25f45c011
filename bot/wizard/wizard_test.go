package wizard

import (
	"context"
	"testing"
	"time"

	"github.com/bluehax/soapbot/bot/platform"
	"github.com/bluehax/soapbot/bot/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWizard(restricted ...int64) (*Wizard, *platform.MemoryClient) {
	client := platform.NewMemoryClient()
	prov := workspace.NewProvisioner(workspace.Options{
		Client:         client,
		SoapCategories: []string{"soap", "manual-soap"},
		NNIDCategories: []string{"nnid"},
		DestroyDelay:   time.Millisecond,
	})
	return New(prov, client, restricted), client
}

func answer(t *testing.T, w *Wizard, req workspace.Requester, job workspace.Kind, step, choice string) platform.Outgoing {
	t.Helper()
	out, err := w.Answer(context.Background(), req, EncodeCallback(job, step, choice))
	require.NoError(t, err)
	return out
}

func TestBeginRendersFirstQuestion(t *testing.T) {
	w, _ := newWizard()
	req := workspace.Requester{ID: 42, Handle: "someone"}

	out := w.Begin(context.Background(), req, workspace.KindSoap)
	require.NotNil(t, out.Embed)
	assert.Contains(t, out.Embed.Body, "Question 1 of 3")
	require.Len(t, out.Buttons, 3)
	assert.Equal(t, EncodeCallback(workspace.KindSoap, StepFiles, ChoiceYes), out.Buttons[0][0].Data)
}

func TestAcceptPathCreatesWorkspace(t *testing.T) {
	w, client := newWizard()
	req := workspace.Requester{ID: 42, Handle: "someone"}
	ctx := context.Background()

	out := answer(t, w, req, workspace.KindSoap, StepFiles, ChoiceYes)
	assert.Contains(t, out.Embed.Body, "Question 2 of 3")

	out = answer(t, w, req, workspace.KindSoap, StepAccess, ChoiceYes)
	assert.Contains(t, out.Embed.Body, "Question 3 of 3")

	out = answer(t, w, req, workspace.KindSoap, StepFirmware, ChoiceYes)
	assert.Contains(t, out.Embed.Title, "Ready to Proceed")

	existing, err := client.Workspaces(ctx, []string{"soap"})
	require.NoError(t, err)
	require.Len(t, existing, 1)
	assert.Equal(t, "someone-soap", existing[0].Name)
}

func TestRejectionLeavesNoSideEffects(t *testing.T) {
	w, client := newWizard()
	req := workspace.Requester{ID: 42, Handle: "someone"}

	out := answer(t, w, req, workspace.KindSoap, StepFiles, ChoiceNo)
	assert.Contains(t, out.Embed.Title, "Unable to Request SOAP")
	assert.Empty(t, out.Buttons)

	existing, err := client.Workspaces(context.Background(), []string{"soap", "manual-soap"})
	require.NoError(t, err)
	assert.Empty(t, existing)
}

func TestUnsureIsTerminal(t *testing.T) {
	w, _ := newWizard()
	req := workspace.Requester{ID: 42, Handle: "someone"}

	out := answer(t, w, req, workspace.KindSoap, StepFirmware, ChoiceUnsure)
	assert.Contains(t, out.Embed.Title, "How to Check for CFW")
	assert.Empty(t, out.Buttons)
}

func TestNNIDAccessStepBranches(t *testing.T) {
	w, _ := newWizard()
	req := workspace.Requester{ID: 42, Handle: "someone"}

	out := answer(t, w, req, workspace.KindNNID, StepAccess, "broken")
	assert.Contains(t, out.Embed.Body, "Question 3 of 3")

	out = answer(t, w, req, workspace.KindNNID, StepAccess, "new_to_old")
	assert.Contains(t, out.Embed.Body, "Question 3 of 3")

	out = answer(t, w, req, workspace.KindNNID, StepAccess, ChoiceNo)
	assert.Contains(t, out.Embed.Body, "system transfer")
}

func TestAcceptTwiceIsIdempotent(t *testing.T) {
	w, client := newWizard()
	req := workspace.Requester{ID: 42, Handle: "someone"}

	answer(t, w, req, workspace.KindSoap, StepFirmware, ChoiceYes)
	out := answer(t, w, req, workspace.KindSoap, StepFirmware, ChoiceYes)
	assert.Contains(t, out.Embed.Title, "Channel Already Exists")

	existing, err := client.Workspaces(context.Background(), []string{"soap", "manual-soap"})
	require.NoError(t, err)
	assert.Len(t, existing, 1)
}

func TestBeginShortCircuitsOnExistingWorkspace(t *testing.T) {
	w, _ := newWizard()
	req := workspace.Requester{ID: 42, Handle: "someone"}

	answer(t, w, req, workspace.KindSoap, StepFirmware, ChoiceYes)
	out := w.Begin(context.Background(), req, workspace.KindSoap)
	assert.Contains(t, out.Embed.Title, "Channel Already Exists")
}

func TestRestrictedGateBlocksNNIDOnly(t *testing.T) {
	w, _ := newWizard(42)
	req := workspace.Requester{ID: 42, Handle: "someone"}
	ctx := context.Background()

	out := w.Begin(ctx, req, workspace.KindNNID)
	assert.Contains(t, out.Embed.Title, "Restricted")

	out = w.Begin(ctx, req, workspace.KindSoap)
	assert.Contains(t, out.Embed.Body, "Question 1 of 3")
}

func TestDecodeCallback(t *testing.T) {
	job, step, choice, err := DecodeCallback("soap:files:yes")
	require.NoError(t, err)
	assert.Equal(t, workspace.KindSoap, job)
	assert.Equal(t, StepFiles, step)
	assert.Equal(t, ChoiceYes, choice)

	_, _, _, err = DecodeCallback("soap:files")
	assert.Error(t, err)
	_, _, _, err = DecodeCallback("")
	assert.Error(t, err)
}

func TestRequestMessageCarriesEntryButton(t *testing.T) {
	out := RequestMessage(workspace.KindSoap)
	require.Len(t, out.Buttons, 1)
	assert.Equal(t, EntryUnique, out.Buttons[0][0].Unique)
	assert.Equal(t, "soap", out.Buttons[0][0].Data)

	out = RequestMessage(workspace.KindNNID)
	assert.Equal(t, "nnid", out.Buttons[0][0].Data)
}
