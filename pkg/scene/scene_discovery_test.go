package scene

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTitleCase(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"studio-lights", "Studio Lights"},
		{"glass_ball", "Glass Ball"},
		{"simple", "Simple"},
		{"UPPER-case", "Upper Case"},
		{"", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, titleCase(tc.input))
		})
	}
}

func writeScene(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParseSceneMetadata(t *testing.T) {
	dir := t.TempDir()

	testCases := []struct {
		file     string
		content  string
		expected SceneInfo
	}{
		{
			file: "complete.yaml",
			content: `# Scene: Studio
# Variant: Warm
# Description: Two warm lights
# Group: Studio Variants
background: [0, 0, 0]
`,
			expected: SceneInfo{
				ID:          "yaml:complete",
				Name:        "Studio",
				DisplayName: "Studio - Warm",
				Description: "Two warm lights",
				Group:       "Studio Variants",
				Type:        TypeYAML,
				Variant:     "Warm",
			},
		},
		{
			file:    "no-metadata.yml",
			content: "background: [0, 0, 0]\n# Scene: ignored after the header\n",
			expected: SceneInfo{
				ID:          "yaml:no-metadata",
				Name:        "No Metadata",
				DisplayName: "No Metadata",
				Group:       "Scene Files",
				Type:        TypeYAML,
			},
		},
		{
			file:    "robot_arm.glb",
			content: "glTF",
			expected: SceneInfo{
				ID:          "gltf:robot_arm",
				Name:        "Robot Arm",
				DisplayName: "Robot Arm",
				Group:       "Scene Files",
				Type:        TypeGLTF,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.file, func(t *testing.T) {
			path := writeScene(t, dir, tc.file, tc.content)
			tc.expected.FilePath = path

			info, err := ParseSceneMetadata(path)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, info)
		})
	}
}

func TestListSceneFiles(t *testing.T) {
	dir := t.TempDir()
	writeScene(t, dir, "b.yaml", "# Scene: Bravo\n")
	writeScene(t, dir, "a.gltf", "{}")
	writeScene(t, dir, "notes.txt", "not a scene")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.yaml"), 0755))

	scenes, err := ListSceneFiles(dir)
	require.NoError(t, err)
	require.Len(t, scenes, 2)
	assert.Equal(t, "A", scenes[0].DisplayName)
	assert.Equal(t, "Bravo", scenes[1].DisplayName)

	missing, err := ListSceneFiles(filepath.Join(dir, "nope"))
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestListAllScenes(t *testing.T) {
	dir := t.TempDir()
	writeScene(t, dir, "zeta.yaml", "# Group: Alpha Group\n")
	writeScene(t, dir, "plain.yaml", "background: [0, 0, 0]\n")

	response, err := ListAllScenes(dir)
	require.NoError(t, err)
	require.Len(t, response.Groups, 3)

	assert.Equal(t, builtinGroup, response.Groups[0].Name)
	assert.Len(t, response.Groups[0].Scenes, len(Names()))
	assert.Equal(t, "Alpha Group", response.Groups[1].Name)
	assert.Equal(t, "Scene Files", response.Groups[2].Name)

	for _, info := range response.Groups[0].Scenes {
		assert.NotEmpty(t, info.Description, info.ID)
		_, err := Create(info.ID)
		assert.NoError(t, err, "builtin ids are accepted by Create")
	}
}
