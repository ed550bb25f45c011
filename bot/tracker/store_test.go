package tracker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bluehax/soapbot/bot/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tracker_counts.json")
	s, err := Open(path)
	require.NoError(t, err)
	return s, path
}

func TestOpenInitializesFile(t *testing.T) {
	s, path := tempStore(t)
	_, err := os.Stat(path)
	require.NoError(t, err)
	soap, nnid := s.Read()
	assert.Equal(t, 0, soap)
	assert.Equal(t, 0, nnid)
}

func TestIncrementSurvivesReopen(t *testing.T) {
	s, path := tempStore(t)
	require.NoError(t, s.Increment(CategorySoap))
	require.NoError(t, s.Increment(CategorySoap))
	require.NoError(t, s.Increment(CategoryNNID))

	// simulate restart between increments
	reopened, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, reopened.Increment(CategorySoap))
	require.NoError(t, reopened.Increment(CategoryNNID))

	soap, nnid := reopened.Read()
	assert.Equal(t, 3, soap)
	assert.Equal(t, 2, nnid)
}

func TestReadToleratesCorruptFile(t *testing.T) {
	s, path := tempStore(t)
	require.NoError(t, s.Increment(CategorySoap))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	soap, nnid := s.Read()
	assert.Equal(t, 0, soap)
	assert.Equal(t, 0, nnid)

	// next increment starts from the tolerated zero state
	require.NoError(t, s.Increment(CategoryNNID))
	soap, nnid = s.Read()
	assert.Equal(t, 0, soap)
	assert.Equal(t, 1, nnid)
}

func TestReadToleratesMissingFile(t *testing.T) {
	s, path := tempStore(t)
	require.NoError(t, os.Remove(path))
	soap, nnid := s.Read()
	assert.Equal(t, 0, soap)
	assert.Equal(t, 0, nnid)
}

func TestIncrementUnknownCategory(t *testing.T) {
	s, _ := tempStore(t)
	assert.Error(t, s.Increment(Category("dsi")))
}

func TestSyncUpdatesDisplays(t *testing.T) {
	s, _ := tempStore(t)
	require.NoError(t, s.Increment(CategorySoap))
	require.NoError(t, s.Increment(CategoryNNID))
	require.NoError(t, s.Increment(CategoryNNID))

	client := platform.NewMemoryClient()
	syncer := NewSyncer(s, client, 100, 200)
	soap, nnid := syncer.Sync(context.Background())

	assert.Equal(t, 1, soap)
	assert.Equal(t, 2, nnid)
	assert.Equal(t, "🧼 SOAPs Served: 1", client.ChannelLabel(100))
	assert.Equal(t, "🔄 NNIDs Served: 2", client.ChannelLabel(200))
}

func TestSyncSkipsFailedDisplay(t *testing.T) {
	s, _ := tempStore(t)
	client := platform.NewMemoryClient()
	client.FailLabel = assert.AnError

	syncer := NewSyncer(s, client, 100, 200)
	soap, nnid := syncer.Sync(context.Background())
	assert.Equal(t, 0, soap)
	assert.Equal(t, 0, nnid)
	assert.Empty(t, client.ChannelLabel(100))
}
