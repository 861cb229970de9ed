package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/nutriforecast/internal/domain/nutrition"
)

const familyYAML = `
horizonDays: 60
sharedIntake:
  calories: 4000
  proteinG: 150
  fatG: 130
  carbsG: 520
profiles:
  - id: mum
    gender: female
    age: 38
    heightCm: 163
    weightKg: 58
    exerciseFrequency: light
    exerciseDuration: short
    exerciseIntensity: low
  - id: dad
    gender: male
    age: 40
    heightCm: 178
    weightKg: 82
    exerciseFrequency: moderate
    exerciseDuration: medium
    exerciseIntensity: medium
`

func TestAnalyzeCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "family.yaml")
	require.NoError(t, os.WriteFile(path, []byte(familyYAML), 0o600))

	out, err := run(t, "analyze", "--file", path, "--days", "30", "--allocation", "tdee")
	require.NoError(t, err)

	var result nutrition.BatchResult
	require.NoError(t, json.Unmarshal(out, &result))
	require.Equal(t, 30, result.HorizonDays)
	require.Equal(t, nutrition.AllocateByTDEE, result.Allocation)
	require.Len(t, result.Outcomes, 2)
	require.Equal(t, "mum", result.Outcomes[0].ProfileID)
	require.Nil(t, result.Outcomes[1].Failure)
}

func TestAnalyzeCommand_RejectsBadFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "family.yaml")
	require.NoError(t, os.WriteFile(path, []byte(familyYAML), 0o600))

	_, err := run(t, "analyze", "--file", path, "--mode", "sometimes")
	require.Error(t, err)

	_, err = run(t, "analyze", "--file", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestClassifyCommand(t *testing.T) {
	out, err := run(t, "classify", "--height", "160", "--weight", "68", "--gender", "female")
	require.NoError(t, err)

	var img nutrition.BodyImage
	require.NoError(t, json.Unmarshal(out, &img))
	require.Equal(t, 4, img.TypeCode)

	_, err = run(t, "classify", "--height", "10", "--weight", "75", "--gender", "female")
	require.Error(t, err)
}

func run(t *testing.T, args ...string) ([]byte, error) {
	t.Helper()
	cmd := newRootCommand(slog.New(slog.NewTextHandler(io.Discard, nil)))
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.Bytes(), err
}
