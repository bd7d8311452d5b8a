package cloud

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/klondike/internal/model"
)

func sampleBundle() model.Bundle {
	settings := model.Settings{MusicOn: true, Draw3: true}
	return model.Bundle{
		Settings:  &settings,
		Unlocked:  []int{1, 2, 3},
		HasUnseen: true,
		Board: &model.Snapshot{
			Version:  model.SnapshotVersion,
			DrawMode: model.DrawThree,
			Stock:    []model.SnapshotCard{{Key: "as"}},
			Waste:    []model.SnapshotCard{{Key: "10h", FaceUp: true}},
		},
		ExportedAtMs: 1700000000000,
	}
}

func TestBundleCodecs(t *testing.T) {
	for _, format := range []string{FormatJSON, FormatYAML} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, EncodeBundle(&buf, sampleBundle(), format))
			out, err := DecodeBundle(&buf, format)
			require.NoError(t, err)
			assert.Equal(t, sampleBundle(), out)
		})
	}
}

func TestYAMLUsesWireNames(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeBundle(&buf, sampleBundle(), FormatYAML))
	out := buf.String()
	assert.Contains(t, out, "hasNewAchievements: true")
	assert.Contains(t, out, "savegame:")
	assert.Contains(t, out, "faceUp: true")
}

func TestDecodeNullSavegame(t *testing.T) {
	b, err := DecodeBundle(strings.NewReader(`{"unlocked":[4],"hasNewAchievements":false,"savegame":null,"ts":5}`), FormatJSON)
	require.NoError(t, err)
	assert.Nil(t, b.Board)
	assert.Nil(t, b.Settings)
	assert.Equal(t, []int{4}, b.Unlocked)
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFromPath("backup.YML"))
	assert.Equal(t, FormatYAML, FormatFromPath("dir/backup.yaml"))
	assert.Equal(t, FormatJSON, FormatFromPath("backup.json"))
	assert.Equal(t, FormatJSON, FormatFromPath("backup"))
}

func TestUnknownFormat(t *testing.T) {
	assert.Error(t, EncodeBundle(&bytes.Buffer{}, model.Bundle{}, "xml"))
	_, err := DecodeBundle(strings.NewReader(""), "xml")
	assert.Error(t, err)
}
