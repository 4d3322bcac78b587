package scene

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// Scene types reported by discovery
const (
	TypeBuiltin = "builtin"
	TypeYAML    = "yaml"
	TypeGLTF    = "gltf"
)

const builtinGroup = "Built-in Scenes"

// SceneInfo represents a discovered scene with its metadata
type SceneInfo struct {
	ID          string `json:"id"`                 // Unique identifier
	Name        string `json:"name"`               // Scene name
	DisplayName string `json:"displayName"`        // UI display name
	Description string `json:"description"`        // Optional description
	Group       string `json:"group"`              // Grouping category
	Type        string `json:"type"`               // builtin, yaml or gltf
	FilePath    string `json:"filePath,omitempty"` // Path to the scene file (file types only)
	Variant     string `json:"variant,omitempty"`  // Variant name (optional)
}

// SceneGroup represents a group of related scenes
type SceneGroup struct {
	Name   string      `json:"name"`
	Scenes []SceneInfo `json:"scenes"`
}

// ScenesResponse represents the complete response for /api/scenes
type ScenesResponse struct {
	Groups []SceneGroup `json:"groups"`
}

var builtinDescriptions = map[string]string{
	"default": "Ground sphere, one colored subject and two lights",
	"single":  "Grey sphere under a single white light",
	"empty":   "No primitives, background only",
	"grid":    "Rainbow grid of spheres with increasing reflection",
}

// sceneFileTypes maps a file extension to its scene type
var sceneFileTypes = map[string]string{
	".yaml": TypeYAML,
	".yml":  TypeYAML,
	".gltf": TypeGLTF,
	".glb":  TypeGLTF,
}

// ListBuiltinScenes describes the scenes available through Create
func ListBuiltinScenes() []SceneInfo {
	var scenes []SceneInfo
	for _, name := range Names() {
		scenes = append(scenes, SceneInfo{
			ID:          name,
			Name:        name,
			DisplayName: titleCase(name),
			Description: builtinDescriptions[name],
			Group:       builtinGroup,
			Type:        TypeBuiltin,
		})
	}
	return scenes
}

// ListSceneFiles scans dir for scene files. A missing directory yields an empty list.
func ListSceneFiles(dir string) ([]SceneInfo, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []SceneInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan scenes directory: %w", err)
	}

	var scenes []SceneInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := sceneFileTypes[strings.ToLower(filepath.Ext(entry.Name()))]; !ok {
			continue
		}

		filePath := filepath.Join(dir, entry.Name())
		info, err := ParseSceneMetadata(filePath)
		if err != nil {
			// Keep going; one unreadable header should not hide the other scenes
			log.Warn().Err(err).Str("path", filePath).Msg("failed to parse scene metadata")
			continue
		}
		scenes = append(scenes, info)
	}

	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].DisplayName < scenes[j].DisplayName
	})
	return scenes, nil
}

// ParseSceneMetadata extracts metadata from the header comments of a YAML scene file.
// glTF files have no comments and get values derived from the file name.
func ParseSceneMetadata(filePath string) (SceneInfo, error) {
	filename := filepath.Base(filePath)
	ext := filepath.Ext(filename)
	nameWithoutExt := strings.TrimSuffix(filename, ext)
	sceneType := sceneFileTypes[strings.ToLower(ext)]

	info := SceneInfo{
		ID:          fmt.Sprintf("%s:%s", sceneType, nameWithoutExt),
		Name:        titleCase(nameWithoutExt),
		DisplayName: titleCase(nameWithoutExt),
		Group:       "Scene Files",
		Type:        sceneType,
		FilePath:    filePath,
	}
	if sceneType != TypeYAML {
		return info, nil
	}

	file, err := os.Open(filePath)
	if err != nil {
		return info, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "#") {
			break
		}

		content := strings.TrimSpace(strings.TrimPrefix(line, "#"))
		key, value, ok := strings.Cut(content, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch key {
		case "Scene":
			info.Name = value
		case "Variant":
			info.Variant = value
		case "Description":
			info.Description = value
		case "Group":
			info.Group = value
		}
	}

	if info.Variant != "" {
		info.DisplayName = fmt.Sprintf("%s - %s", info.Name, info.Variant)
	} else {
		info.DisplayName = info.Name
	}
	return info, scanner.Err()
}

// ListAllScenes returns built-in scenes and the scene files in dir, grouped by category
func ListAllScenes(dir string) (ScenesResponse, error) {
	var response ScenesResponse

	files, err := ListSceneFiles(dir)
	if err != nil {
		return response, err
	}

	groupMap := make(map[string][]SceneInfo)
	for _, info := range append(ListBuiltinScenes(), files...) {
		groupMap[info.Group] = append(groupMap[info.Group], info)
	}

	// Built-in first, then alphabetical
	var groupNames []string
	for groupName := range groupMap {
		if groupName != builtinGroup {
			groupNames = append(groupNames, groupName)
		}
	}
	sort.Strings(groupNames)

	if builtins, ok := groupMap[builtinGroup]; ok {
		response.Groups = append(response.Groups, SceneGroup{Name: builtinGroup, Scenes: builtins})
	}
	for _, groupName := range groupNames {
		response.Groups = append(response.Groups, SceneGroup{Name: groupName, Scenes: groupMap[groupName]})
	}
	return response, nil
}

// titleCase converts a filename-style string to title case
// e.g., "studio-lights" -> "Studio Lights"
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}
	return strings.Join(words, " ")
}
