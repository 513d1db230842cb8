// Package annotate drives a labeling pass over a directory of images: the
// in-progress polygon, the completed polygons per image, and the export of
// the resulting annotation records. It knows nothing about windows or input
// devices; the capture shell feeds it points in image-pixel space.
package annotate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"github.com/nrodrigues/niri-trainer-go/internal/content"
	"github.com/nrodrigues/niri-trainer-go/internal/geometry"
)

// ExportLayout is the timestamp embedded in export filenames.
const ExportLayout = "20060102_150405"

var (
	// ErrNoImages means the input directory holds nothing to label.
	ErrNoImages = errors.New("annotate: no images found in input directory")

	// ErrPolygonTooSmall guards closing a ring below 3 points.
	ErrPolygonTooSmall = errors.New("annotate: polygon needs at least 3 points")

	// ErrAllLabeled is returned when every image has been saved.
	ErrAllLabeled = errors.New("annotate: all images labeled")

	// ErrNothingToExport is returned when no records have been saved yet.
	ErrNothingToExport = errors.New("annotate: no labeled records to export")
)

// ImageInfo describes one image queued for labeling.
type ImageInfo struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Labeled bool   `json:"labeled"`
}

// Workspace is the labeling session for one input directory. Not safe for
// concurrent use.
type Workspace struct {
	images []ImageInfo
	index  int

	current   geometry.Polygon
	completed []geometry.Polygon

	difficulty content.Difficulty
	records    []content.Record

	now func() time.Time
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
}

// NewWorkspace scans dir for images and opens a labeling session over them,
// in filename order. Images that fail to decode are skipped.
func NewWorkspace(dir string) (*Workspace, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("annotate: read input directory %s: %w", dir, err)
	}

	var images []ImageInfo
	for _, entry := range entries {
		if entry.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		img, err := imaging.Open(path)
		if err != nil {
			continue
		}
		bounds := img.Bounds()

		images = append(images, ImageInfo{
			Name:   entry.Name(),
			Path:   path,
			Width:  bounds.Dx(),
			Height: bounds.Dy(),
		})
	}

	if len(images) == 0 {
		return nil, ErrNoImages
	}

	return &Workspace{
		images:     images,
		difficulty: content.DifficultyMedium,
		now:        time.Now,
	}, nil
}

// Current returns the image being labeled.
func (w *Workspace) Current() (ImageInfo, error) {
	if w.index >= len(w.images) {
		return ImageInfo{}, ErrAllLabeled
	}
	return w.images[w.index], nil
}

// Images returns the full labeling queue.
func (w *Workspace) Images() []ImageInfo {
	return append([]ImageInfo(nil), w.images...)
}

// Remaining returns how many images are still unlabeled.
func (w *Workspace) Remaining() int {
	return len(w.images) - w.index
}

// SetDifficulty tags the current image's difficulty.
func (w *Workspace) SetDifficulty(d content.Difficulty) error {
	if !d.Valid() {
		return fmt.Errorf("annotate: unknown difficulty %q", d)
	}
	w.difficulty = d
	return nil
}

// AddPoint appends a vertex to the in-progress polygon.
func (w *Workspace) AddPoint(p geometry.Point) {
	w.current = append(w.current, p)
}

// UndoPoint removes the last vertex, if any. Edits are only possible before
// the polygon is closed.
func (w *Workspace) UndoPoint() {
	if len(w.current) > 0 {
		w.current = w.current[:len(w.current)-1]
	}
}

// ClearPolygon discards the in-progress polygon entirely.
func (w *Workspace) ClearPolygon() {
	w.current = nil
}

// CurrentPolygon returns the in-progress ring.
func (w *Workspace) CurrentPolygon() geometry.Polygon {
	return append(geometry.Polygon(nil), w.current...)
}

// ClosePolygon finishes the in-progress ring and adds it to the completed
// set for the current image.
func (w *Workspace) ClosePolygon() error {
	if len(w.current) < geometry.MinVertices {
		return ErrPolygonTooSmall
	}
	w.completed = append(w.completed, w.current)
	w.current = nil
	return nil
}

// DropLastPolygon removes the most recently completed polygon.
func (w *Workspace) DropLastPolygon() {
	if len(w.completed) > 0 {
		w.completed = w.completed[:len(w.completed)-1]
	}
}

// CompletedCount returns the number of closed polygons on the current image.
func (w *Workspace) CompletedCount() int {
	return len(w.completed)
}

// SaveCurrent turns the completed polygons into the current image's record
// and advances to the next image. Saving with no polygons produces a
// negative case; that derivation happens here, at labeling time, and nowhere
// else.
func (w *Workspace) SaveCurrent() (content.Record, error) {
	info, err := w.Current()
	if err != nil {
		return content.Record{}, err
	}

	rec := content.NewRecord(info.Name, w.difficulty, w.completed, w.now())
	w.records = append(w.records, rec)
	w.images[w.index].Labeled = true

	w.index++
	w.current = nil
	w.completed = nil

	return rec, nil
}

// Records returns the saved records in labeling order.
func (w *Workspace) Records() []content.Record {
	return append([]content.Record(nil), w.records...)
}

// Export writes every saved record to a timestamped interchange file in
// outDir and returns its path.
func (w *Workspace) Export(outDir string) (string, error) {
	if len(w.records) == 0 {
		return "", ErrNothingToExport
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("annotate: create output directory: %w", err)
	}

	name := fmt.Sprintf("annotations_%s.json", w.now().Format(ExportLayout))
	path := filepath.Join(outDir, name)
	if err := content.Save(path, w.records); err != nil {
		return "", err
	}

	return path, nil
}
