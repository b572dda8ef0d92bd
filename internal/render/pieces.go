package render

import (
	"bytes"
	"embed"
	"fmt"
	"image"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/park285/chessx/internal/board"
)

//go:embed assets/pieces/*.svg
var pieceFiles embed.FS

// sprite is a piece rasterized at one square size.
type sprite struct {
	cell board.Cell
	size int
}

var (
	spritesMu sync.RWMutex
	sprites   = map[sprite]*image.RGBA{}
)

// pieceSprite rasterizes the SVG of cell at size x size pixels, once per size.
func pieceSprite(cell board.Cell, size int) (*image.RGBA, error) {
	if cell.IsEmpty() {
		return nil, fmt.Errorf("render: no sprite for an empty square")
	}
	key := sprite{cell: cell, size: size}
	spritesMu.RLock()
	img, ok := sprites[key]
	spritesMu.RUnlock()
	if ok {
		return img, nil
	}

	name := spriteAsset(cell)
	data, err := pieceFiles.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	// image.NewRGBA starts fully transparent
	img = image.NewRGBA(image.Rect(0, 0, size, size))
	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(size, size, scanner), 1.0)

	spritesMu.Lock()
	sprites[key] = img
	spritesMu.Unlock()
	return img, nil
}

// spriteAsset names the embedded file for cell: color initial plus the uppercase letter,
// e.g. "wK" or "bN".
func spriteAsset(cell board.Cell) string {
	letter := cell.Letter()
	prefix := byte('w')
	if cell.Color == board.Black {
		prefix = 'b'
		letter -= 'a' - 'A'
	}
	return fmt.Sprintf("assets/pieces/%c%c.svg", prefix, letter)
}
