package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/calcdata/internal/model"
)

const sample = `{
  "groups": [
    {
      "id": "1",
      "name": "Human"
    }
  ],
  "jobs": {
    "1": [
      {
        "id": "10",
        "name": "Warrior",
        "specs": [
          {
            "id": "101",
            "name": "Templar"
          }
        ]
      }
    ]
  },
  "skills": {
    "101": [
      {
        "id": "s1",
        "name": "Holy <Strike> & Co",
        "maxLevel": 5,
        "requires": {
          "job": {
            "name": "Templar",
            "level": 12,
            "id": "101"
          }
        },
        "lvlReq": [
          5,
          5,
          5,
          20,
          20
        ],
        "info": {
          "type": "Active",
          "weapons": [
            "Mace"
          ]
        },
        "progression": {
          "damage": [
            120,
            "n/a"
          ]
        }
      }
    ]
  },
  "dna": {
    "101": []
  }
}
`

func TestLoadSave_RoundTripIsByteStable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	ds, err := Load(path)
	require.NoError(t, err)
	require.Len(t, ds.Skills["101"], 1)
	assert.Equal(t, model.TextStat("n/a"), ds.Skills["101"][0].Progression["damage"][1])
	assert.NotNil(t, ds.DNA["101"])

	require.NoError(t, Save(path, ds))
	out, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sample, string(out))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dataset: read")
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"groups": [`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dataset: decode")
}

func TestSave_MissingDirectory(t *testing.T) {
	err := Save(filepath.Join(t.TempDir(), "no", "data.json"), &model.Dataset{})
	require.Error(t, err)
}

func TestMarshal_TrailingNewline(t *testing.T) {
	out, err := Marshal(&model.Dataset{})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"groups\": null,\n  \"jobs\": null,\n  \"skills\": null,\n  \"dna\": null\n}\n", string(out))
}
