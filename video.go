package scenecast

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// defaultFrameRate substitutes when the source container reports no usable
// rate.
const defaultFrameRate = 25.0

// videoCacheMetaFile is the per-cache metadata filename.
const videoCacheMetaFile = "cache.json"

// VideoCache holds one decoded video as an ordered JPEG-per-frame sequence.
// Caches are shared by reference between the loader and any number of video
// elements; the frame buffers live until the last reference is dropped.
type VideoCache struct {
	SourcePath string
	FrameRate  float64

	frames [][]byte
}

// FrameCount returns the number of decoded frames.
func (c *VideoCache) FrameCount() int {
	return len(c.frames)
}

// Frame returns the JPEG bytes of frame i. Panics if i is out of range.
func (c *VideoCache) Frame(i int) []byte {
	return c.frames[i]
}

// videoCacheMeta is the on-disk cache descriptor.
type videoCacheMeta struct {
	SourcePath string  `json:"sourcePath"`
	FrameRate  float64 `json:"frameRate"`
	FrameCount int     `json:"frameCount"`
}

// VideoCacheKey derives the cache directory name for a source file:
// the source folder hashed, joined with the bare filename. Two files with
// the same name in different folders get distinct caches.
func VideoCacheKey(path string) string {
	dir := filepath.Dir(path)
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	h := fnv.New32a()
	h.Write([]byte(dir))
	return fmt.Sprintf("%08x_%s", h.Sum32(), base)
}

// LoadVideo decodes path into a frame cache under cacheDir, deriving the
// cache folder name from the path. See LoadVideoInto.
func LoadVideo(path, cacheDir string) (*VideoCache, error) {
	return LoadVideoInto(path, cacheDir, VideoCacheKey(path))
}

// LoadVideoInto decodes path into the named frame cache folder under
// cacheDir, or reloads a prior decode when the cached frame count still
// matches what is on disk. Scene documents record the folder name, so a
// relocated project reuses its cache even though the resolved source path
// changed. Decoding shells out to ffprobe and ffmpeg, the same pipeline in
// reverse that encoders use, extracting JPEG frames at quality ≈85.
func LoadVideoInto(path, cacheDir, folder string) (*VideoCache, error) {
	if folder == "" {
		folder = VideoCacheKey(path)
	}
	frameDir := filepath.Join(cacheDir, folder)

	if cache, err := loadCachedFrames(path, frameDir); err == nil {
		return cache, nil
	}

	rate, err := probeFrameRate(path)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", path, err)
	}

	if err := os.RemoveAll(frameDir); err != nil {
		return nil, fmt.Errorf("reset cache %s: %w", frameDir, err)
	}
	if err := os.MkdirAll(frameDir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache %s: %w", frameDir, err)
	}

	// -q:v 3 lands near libjpeg quality 85.
	cmd := exec.Command("ffmpeg", "-y", "-i", path,
		"-q:v", "3", filepath.Join(frameDir, "frame_%05d.jpg"))
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("decode %s: %w: %s", path, err, firstLine(out))
	}

	frames, err := readFrameFiles(frameDir)
	if err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("decode %s: no frames produced", path)
	}

	meta := videoCacheMeta{SourcePath: path, FrameRate: rate, FrameCount: len(frames)}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode cache meta: %w", err)
	}
	if err := os.WriteFile(filepath.Join(frameDir, videoCacheMetaFile), data, 0o644); err != nil {
		return nil, fmt.Errorf("write cache meta: %w", err)
	}

	return &VideoCache{SourcePath: path, FrameRate: rate, frames: frames}, nil
}

// InvalidateVideoCache removes the on-disk cache for the given source file.
// In-memory caches already handed out keep their frames.
func InvalidateVideoCache(path, cacheDir string) error {
	return os.RemoveAll(filepath.Join(cacheDir, VideoCacheKey(path)))
}

// loadCachedFrames reconstructs a cache from disk. Fails if the metadata is
// absent or the frame count on disk no longer matches it.
func loadCachedFrames(path, frameDir string) (*VideoCache, error) {
	data, err := os.ReadFile(filepath.Join(frameDir, videoCacheMetaFile))
	if err != nil {
		return nil, err
	}
	var meta videoCacheMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse cache meta: %w", err)
	}
	frames, err := readFrameFiles(frameDir)
	if err != nil {
		return nil, err
	}
	if len(frames) != meta.FrameCount {
		return nil, fmt.Errorf("cache %s: frame count changed (%d on disk, %d expected)",
			frameDir, len(frames), meta.FrameCount)
	}
	rate := meta.FrameRate
	if rate <= 0 {
		rate = defaultFrameRate
	}
	return &VideoCache{SourcePath: path, FrameRate: rate, frames: frames}, nil
}

// readFrameFiles loads every frame_*.jpg under dir in name order.
func readFrameFiles(dir string) ([][]byte, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read cache %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() && strings.HasPrefix(name, "frame_") && strings.HasSuffix(name, ".jpg") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	frames := make([][]byte, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read frame %s: %w", name, err)
		}
		frames = append(frames, data)
	}
	return frames, nil
}

// probeFrameRate asks ffprobe for the container's average frame rate.
func probeFrameRate(path string) (float64, error) {
	cmd := exec.Command("ffprobe", "-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=avg_frame_rate",
		"-of", "default=noprint_wrappers=1:nokey=1", path)
	out, err := cmd.Output()
	if err != nil {
		return 0, err
	}
	rate := parseFrameRate(strings.TrimSpace(string(out)))
	if rate <= 0 {
		rate = defaultFrameRate
	}
	return rate, nil
}

// parseFrameRate parses ffprobe's "num/den" rational (or a bare number).
// Returns 0 when unparseable.
func parseFrameRate(s string) float64 {
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err1 := strconv.ParseFloat(num, 64)
		d, err2 := strconv.ParseFloat(den, 64)
		if err1 != nil || err2 != nil || d == 0 {
			return 0
		}
		return n / d
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// firstLine trims command output to its first non-empty line for error
// messages.
func firstLine(out []byte) string {
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

// Player cycles a cache's frames into a callback at the source frame rate.
// Playback loops: the cursor advances modulo the frame count and never
// reverses. Each video element owns an independent player, so a scene may
// host any number of concurrently playing videos.
type Player struct {
	cache   *VideoCache
	cursor  int
	playing bool

	// OnFrame receives each frame as it becomes current.
	OnFrame func(index int, jpeg []byte)
}

// NewPlayer creates a paused player over the given cache.
// Panics if cache is nil or empty.
func NewPlayer(cache *VideoCache) *Player {
	if cache == nil || cache.FrameCount() == 0 {
		panic("scenecast: player needs a non-empty video cache")
	}
	return &Player{cache: cache}
}

// FrameInterval returns the playback tick cadence, 1000/frameRate ms.
func (p *Player) FrameInterval() float64 {
	rate := p.cache.FrameRate
	if rate <= 0 {
		rate = defaultFrameRate
	}
	return 1000 / rate
}

// Play starts (or restarts) playback from the current cursor and emits the
// current frame immediately.
func (p *Player) Play() {
	p.playing = true
	p.emit()
}

// Pause suspends playback, keeping the cursor. Idempotent.
func (p *Player) Pause() {
	p.playing = false
}

// Resume continues playback from the held cursor. Idempotent.
func (p *Player) Resume() {
	p.playing = true
}

// Playing reports whether the player is advancing.
func (p *Player) Playing() bool {
	return p.playing
}

// Cursor returns the current frame index.
func (p *Player) Cursor() int {
	return p.cursor
}

// Seek jumps to the given frame index, wrapped into range, and emits it.
func (p *Player) Seek(index int) {
	n := p.cache.FrameCount()
	index %= n
	if index < 0 {
		index += n
	}
	p.cursor = index
	p.emit()
}

// Advance moves to the next frame (looping) and emits it. No-op while
// paused. Called by the scheduler's per-player playback task.
func (p *Player) Advance() {
	if !p.playing {
		return
	}
	p.cursor = (p.cursor + 1) % p.cache.FrameCount()
	p.emit()
}

func (p *Player) emit() {
	if p.OnFrame != nil {
		p.OnFrame(p.cursor, p.cache.Frame(p.cursor))
	}
}
