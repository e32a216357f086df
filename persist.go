package scenecast

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/sync/errgroup"
)

// ErrNameCollision is returned by SaveConfig when the target file exists and
// the policy is CollisionAbort.
var ErrNameCollision = errors.New("config name already exists")

// CollisionPolicy decides what SaveConfig does when the target file exists.
type CollisionPolicy uint8

const (
	CollisionOverwrite CollisionPolicy = iota // replace the existing file
	CollisionRename                           // append "_Copy" until the name is free
	CollisionAbort                            // fail with ErrNameCollision
)

// sceneDocument is the top-level scene JSON contract.
type sceneDocument struct {
	ConfigName             string         `json:"configName"`
	CanvasSize             int            `json:"canvasSize"`
	BackgroundColor        string         `json:"backgroundColor"`
	BackgroundImagePath    string         `json:"backgroundImagePath,omitempty"`
	BackgroundImageOpacity float64        `json:"backgroundImageOpacity"`
	MoveSpeed              float64        `json:"moveSpeed"`
	Elements               []elementEntry `json:"elements"`
}

// elementEntry is one element in the scene JSON. Only the fields for the
// entry's type are populated.
type elementEntry struct {
	Type    string  `json:"type"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Scale   float64 `json:"scale"`
	Opacity float64 `json:"opacity"`
	ZIndex  int     `json:"zIndex"`

	Text            string  `json:"text,omitempty"`
	FontSize        float64 `json:"fontSize,omitempty"`
	TextColor       string  `json:"textColor,omitempty"`
	TextColor2      string  `json:"textColor2,omitempty"`
	UseTextGradient bool    `json:"useTextGradient,omitempty"`

	LiveKind                string `json:"liveKind,omitempty"`
	DateFormat              string `json:"dateFormat,omitempty"`
	UsageDisplayStyle       string `json:"usageDisplayStyle,omitempty"`
	UsageStartColor         string `json:"usageStartColor,omitempty"`
	UsageEndColor           string `json:"usageEndColor,omitempty"`
	UsageNeedleColor        string `json:"usageNeedleColor,omitempty"`
	UsageBarBackgroundColor string `json:"usageBarBackgroundColor,omitempty"`

	ImagePath string  `json:"imagePath,omitempty"`
	Rotation  float64 `json:"rotation,omitempty"`
	MirroredX bool    `json:"mirroredX,omitempty"`

	VideoPath              string `json:"videoPath,omitempty"`
	VideoFramesCacheFolder string `json:"videoFramesCacheFolder,omitempty"`

	MoveDirX *float64 `json:"moveDirX,omitempty"`
	MoveDirY *float64 `json:"moveDirY,omitempty"`
}

// importedMoveSpeed is the default speed attached to elements whose JSON
// entry carries a move direction; the schema stores direction only.
const importedMoveSpeed = 60.0

// ExportScene serializes the scene to the JSON contract. Resource paths are
// stored relative to outputFolder where possible. Shape elements have no
// schema entry and are skipped.
func ExportScene(s *Scene, configName, outputFolder string) ([]byte, error) {
	doc := sceneDocument{
		ConfigName:             configName,
		CanvasSize:             s.CanvasSize,
		BackgroundColor:        s.Background.Color.Hex(),
		BackgroundImageOpacity: s.Background.ImageOpacity,
		MoveSpeed:              s.MoveSpeed,
		Elements:               make([]elementEntry, 0, len(s.elements)),
	}
	if s.Background.Kind == BackgroundImage {
		doc.BackgroundImagePath = relativizeResourcePath(outputFolder, s.Background.ImagePath)
	}

	for _, e := range s.elements {
		if e.Kind == KindShape {
			continue
		}
		entry := elementEntry{
			Type:    e.Kind.String(),
			X:       e.X,
			Y:       e.Y,
			Scale:   e.Scale,
			Opacity: e.Opacity,
			ZIndex:  e.ZIndex,
		}
		switch e.Kind {
		case KindText:
			entry.Text = e.Text
			entry.FontSize = e.FontSize
			entry.TextColor = e.TextColor.Hex()
			entry.TextColor2 = e.TextColor2.Hex()
			entry.UseTextGradient = e.UseTextGradient
		case KindLiveText:
			b := e.Live
			if b == nil {
				continue
			}
			entry.FontSize = e.FontSize
			entry.LiveKind = b.Kind.String()
			entry.DateFormat = b.DateFormat
			entry.UsageDisplayStyle = b.Style.String()
			entry.UsageStartColor = b.StartColor.Hex()
			entry.UsageEndColor = b.EndColor.Hex()
			entry.UsageNeedleColor = b.NeedleColor.Hex()
			entry.UsageBarBackgroundColor = b.BarBackgroundColor.Hex()
		case KindImage:
			entry.ImagePath = relativizeResourcePath(outputFolder, e.ImagePath)
			entry.Rotation = e.Rotation
			entry.MirroredX = e.MirroredX
		case KindVideo:
			entry.VideoPath = relativizeResourcePath(outputFolder, e.VideoPath)
			entry.VideoFramesCacheFolder = e.VideoCacheFolder
			if entry.VideoFramesCacheFolder == "" {
				entry.VideoFramesCacheFolder = VideoCacheKey(e.VideoPath)
			}
		}
		if e.Motion != nil {
			dx, dy := e.Motion.Direction.X, e.Motion.Direction.Y
			entry.MoveDirX = &dx
			entry.MoveDirY = &dy
		}
		doc.Elements = append(doc.Elements, entry)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export scene: %w", err)
	}
	return data, nil
}

// ImportScene builds a fresh scene from a JSON document, resolving resource
// paths against outputFolder. Malformed JSON or a bad color aborts the
// import with an error and no scene; a caller's current scene is never
// touched. Missing resource files do not fail the import; elements keep
// their (resolved or literal) paths and degrade to placeholders until the
// resources are loaded.
func ImportScene(data []byte, outputFolder string) (*Scene, string, error) {
	var doc sceneDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, "", fmt.Errorf("import scene: %w", err)
	}
	if doc.CanvasSize <= 0 {
		return nil, "", fmt.Errorf("import scene: invalid canvasSize %d", doc.CanvasSize)
	}

	s := NewScene(doc.CanvasSize)
	s.MoveSpeed = doc.MoveSpeed
	if s.MoveSpeed <= 0 {
		s.MoveSpeed = 1
	}

	bg, err := ParseHexColor(doc.BackgroundColor)
	if err != nil {
		return nil, "", fmt.Errorf("import scene: background: %w", err)
	}
	s.Background.Color = bg
	if doc.BackgroundImagePath != "" {
		s.Background.Kind = BackgroundImage
		s.Background.ImagePath = ResolveResourcePath(outputFolder, doc.BackgroundImagePath)
		s.Background.ImageOpacity = doc.BackgroundImageOpacity
		if s.Background.ImageOpacity <= 0 {
			s.Background.ImageOpacity = 1
		}
	}

	for i, entry := range doc.Elements {
		e, err := importElement(entry, outputFolder)
		if err != nil {
			return nil, "", fmt.Errorf("import scene: element %d: %w", i, err)
		}
		if e == nil {
			continue
		}
		s.AddElement(e)
	}
	return s, doc.ConfigName, nil
}

// importElement reconstructs one element from its JSON entry. Unknown types
// are skipped (nil, nil) so newer documents degrade instead of failing.
func importElement(entry elementEntry, outputFolder string) (*Element, error) {
	var e *Element
	switch entry.Type {
	case "Text":
		e = NewTextElement(entry.Text, orDefault(entry.FontSize, defaultLiveFontSize))
		if c, err := parseOptionalColor(entry.TextColor); err != nil {
			return nil, err
		} else if c != nil {
			e.TextColor = *c
		}
		if c, err := parseOptionalColor(entry.TextColor2); err != nil {
			return nil, err
		} else if c != nil {
			e.TextColor2 = *c
		}
		e.UseTextGradient = entry.UseTextGradient
	case "LiveText":
		kind, ok := parseLiveKind(entry.LiveKind)
		if !ok {
			return nil, fmt.Errorf("unknown liveKind %q", entry.LiveKind)
		}
		e = NewLiveTextElement(kind)
		e.FontSize = orDefault(entry.FontSize, defaultLiveFontSize)
		b := e.Live
		b.DateFormat = entry.DateFormat
		for _, c := range []struct {
			hex string
			dst *Color
		}{
			{entry.UsageStartColor, &b.StartColor},
			{entry.UsageEndColor, &b.EndColor},
			{entry.UsageNeedleColor, &b.NeedleColor},
			{entry.UsageBarBackgroundColor, &b.BarBackgroundColor},
		} {
			parsed, err := parseOptionalColor(c.hex)
			if err != nil {
				return nil, err
			}
			if parsed != nil {
				*c.dst = *parsed
			}
		}
		if style, ok := parseDisplayStyle(entry.UsageDisplayStyle); ok {
			b.Style = style
		}
		e.remeasure()
	case "Image":
		e = NewImageElement(ResolveResourcePath(outputFolder, entry.ImagePath))
		e.Rotation = entry.Rotation
		e.MirroredX = entry.MirroredX
	case "Video":
		e = NewVideoElement(nil)
		e.VideoPath = ResolveResourcePath(outputFolder, entry.VideoPath)
		e.VideoCacheFolder = entry.VideoFramesCacheFolder
	default:
		return nil, nil
	}

	e.X = entry.X
	e.Y = entry.Y
	if entry.Scale > 0 {
		e.Scale = entry.Scale
	}
	e.SetOpacity(orDefault(entry.Opacity, 1))
	e.ZIndex = entry.ZIndex

	if entry.MoveDirX != nil && entry.MoveDirY != nil {
		e.Motion = &MotionConfig{
			Type:              MotionBounce,
			Speed:             importedMoveSpeed,
			Direction:         Vec2{*entry.MoveDirX, *entry.MoveDirY},
			RespectBoundaries: true,
		}
	}
	return e, nil
}

// LoadSceneResources decodes the backdrop and every image element's raster
// in parallel, then attaches the results. Missing or undecodable files are
// skipped (the element degrades to a placeholder); only filesystem-level
// surprises like permission errors surface.
func LoadSceneResources(s *Scene) error {
	var g errgroup.Group
	type loaded struct {
		apply func(image.Image)
		img   image.Image
	}
	results := make([]loaded, 0, len(s.elements)+1)
	var mu sync.Mutex

	queue := func(path string, apply func(image.Image)) {
		g.Go(func() error {
			img, err := decodeImageFile(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "[scenecast] resource %s: %v\n", path, err)
				return nil
			}
			mu.Lock()
			results = append(results, loaded{apply: apply, img: img})
			mu.Unlock()
			return nil
		})
	}

	if s.Background.Kind == BackgroundImage && s.Background.ImagePath != "" {
		bg := &s.Background
		queue(bg.ImagePath, bg.SetImage)
	}
	for _, e := range s.elements {
		if e.Kind == KindImage && e.ImagePath != "" {
			queue(e.ImagePath, e.SetImage)
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}
	// Apply sequentially: decoded pixels may arrive on any goroutine, but
	// scene mutation stays on the caller's thread.
	for _, r := range results {
		r.apply(r.img)
	}
	return nil
}

// decodeImageFile opens and decodes a raster file.
func decodeImageFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}

// --- Path resolution ---

// resourceProbeDirs are the folders under the output folder searched, in
// order, when resolving a stored resource path.
var resourceProbeDirs = []string{
	"",
	"Resources",
	filepath.Join("Resources", "Images"),
	filepath.Join("Resources", "Videos"),
	filepath.Join("Resources", "Backgrounds"),
}

// ResolveResourcePath maps a stored (usually relative) resource path to an
// existing file by probing the output folder, the Resources folder, and its
// Images/Videos/Backgrounds subfolders in that order. If nothing matches,
// the literal path is returned unchanged.
func ResolveResourcePath(outputFolder, stored string) string {
	if stored == "" {
		return ""
	}
	if filepath.IsAbs(stored) {
		return stored
	}
	for _, dir := range resourceProbeDirs {
		candidate := filepath.Join(outputFolder, dir, stored)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return stored
}

// relativizeResourcePath stores a path relative to the output folder when
// the file lives under it; anything else is stored literally.
func relativizeResourcePath(outputFolder, path string) string {
	if path == "" || outputFolder == "" {
		return path
	}
	rel, err := filepath.Rel(outputFolder, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}

// --- Config saving ---

// invalidNameRunes are characters stripped from user-supplied config names.
const invalidNameRunes = `\/:*?"<>|`

// SanitizeConfigName strips filesystem-invalid characters and collapses
// whitespace runs in a user-supplied config name. An empty result becomes
// "Untitled".
func SanitizeConfigName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	lastSpace := false
	for _, r := range name {
		switch {
		case strings.ContainsRune(invalidNameRunes, r), unicode.IsControl(r):
			// dropped
		case unicode.IsSpace(r):
			if !lastSpace && b.Len() > 0 {
				b.WriteByte(' ')
				lastSpace = true
			}
		default:
			b.WriteRune(r)
			lastSpace = false
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "Untitled"
	}
	return out
}

// SaveConfig writes a scene document (and optional preview JPEG) into
// OutputFolder/Configs/{name}.json, applying the collision policy when the
// target already exists: overwrite it, rename by appending "_Copy" until the
// name is free, or abort with ErrNameCollision. An existing file is never
// silently corrupted.
func SaveConfig(outputFolder, name string, doc, preview []byte, policy CollisionPolicy) (string, error) {
	configDir := filepath.Join(outputFolder, "Configs")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", fmt.Errorf("save config: %w", err)
	}

	name = SanitizeConfigName(name)
	path := filepath.Join(configDir, name+".json")
	if _, err := os.Stat(path); err == nil {
		switch policy {
		case CollisionOverwrite:
			// fall through and replace
		case CollisionRename:
			for {
				name += "_Copy"
				path = filepath.Join(configDir, name+".json")
				if _, err := os.Stat(path); err != nil {
					break
				}
			}
		case CollisionAbort:
			return "", fmt.Errorf("save config %s: %w", name, ErrNameCollision)
		}
	}

	if err := os.WriteFile(path, doc, 0o644); err != nil {
		return "", fmt.Errorf("save config: %w", err)
	}
	if preview != nil {
		previewPath := filepath.Join(configDir, name+".preview.jpg")
		if err := os.WriteFile(previewPath, preview, 0o644); err != nil {
			return "", fmt.Errorf("save config preview: %w", err)
		}
	}
	return path, nil
}

// orDefault substitutes def for non-positive values.
func orDefault(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}

// parseOptionalColor parses a hex color, treating "" as absent.
func parseOptionalColor(s string) (*Color, error) {
	if s == "" {
		return nil, nil
	}
	c, err := ParseHexColor(s)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// parseLiveKind maps a serialized live kind name back to its value.
func parseLiveKind(s string) (LiveKind, bool) {
	for i, name := range liveKindNames {
		if name == s {
			return LiveKind(i), true
		}
	}
	return 0, false
}

// parseDisplayStyle maps a serialized display style name back to its value.
func parseDisplayStyle(s string) (DisplayStyle, bool) {
	for i, name := range displayStyleNames {
		if name == s {
			return DisplayStyle(i), true
		}
	}
	return 0, false
}
