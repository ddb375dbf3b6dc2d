package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expo-open-ota/eoas/internal/expoconfig"
	"github.com/expo-open-ota/eoas/internal/ota"
)

func TestConnect(t *testing.T) {
	t.Run("uses the origin of the updates url", func(t *testing.T) {
		e := newTestEnv(t)
		client, err := Connect(context.Background(), e.deps, e.dir)
		require.NoError(t, err)
		assert.Same(t, e.client, client)
		assert.Equal(t, []string{"https://ota.example.com"}, e.urls)
	})

	t.Run("project without expo", func(t *testing.T) {
		e := newTestEnv(t)
		_, err := Connect(context.Background(), e.deps, t.TempDir())
		assert.Error(t, err)
		assert.Empty(t, e.urls)
	})

	t.Run("no updates url", func(t *testing.T) {
		e := newTestEnv(t)
		e.config.cfg = expoconfig.Config{"name": "App"}
		_, err := Connect(context.Background(), e.deps, e.dir)
		assert.ErrorIs(t, err, expoconfig.ErrNoUpdatesURL)
	})
}

func TestFilterUpdates(t *testing.T) {
	updates := []ota.Update{
		{UpdateUUID: "a", Platform: "ios"},
		{UpdateUUID: "b", Platform: "android"},
		{UpdateUUID: "c", Platform: "ios"},
	}

	tests := []struct {
		platform expoconfig.RequestedPlatform
		want     []string
	}{
		{"", []string{"a", "b", "c"}},
		{expoconfig.RequestAll, []string{"a", "b", "c"}},
		{expoconfig.RequestIOS, []string{"a", "c"}},
		{expoconfig.RequestAndroid, []string{"b"}},
	}
	for _, tt := range tests {
		var got []string
		for _, u := range FilterUpdates(updates, tt.platform) {
			got = append(got, u.UpdateUUID)
		}
		assert.Equal(t, tt.want, got, string(tt.platform))
	}
}
