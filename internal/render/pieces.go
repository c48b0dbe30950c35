package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"sync"

	nchess "github.com/corentings/chess/v2"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

const pieceSVGHeader = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 45 45">` +
	`<g fill="%s" stroke="%s" stroke-width="1.5" stroke-linejoin="round">`

// Silhouettes on a 45x45 grid.
var pieceShapes = map[nchess.PieceType]string{
	nchess.Pawn: `<circle cx="22.5" cy="14" r="5.5"/>` +
		`<path d="M17 21h11l3 14H14z"/>` +
		`<rect x="11" y="34" width="23" height="5"/>`,
	nchess.Rook: `<path d="M11 9h5v4h4V9h5v4h4V9h5v7l-3 3v13H14V19l-3-3z"/>` +
		`<rect x="10" y="32" width="25" height="7"/>`,
	nchess.Knight: `<path d="M14 39h20v-5c0-10-3-17-8-22l-2-5-3 4c-4 3-7 7-9 12l3 3 5-4 2 1c-5 4-8 9-8 16z"/>`,
	nchess.Bishop: `<circle cx="22.5" cy="8" r="2.5"/>` +
		`<ellipse cx="22.5" cy="20" rx="6.5" ry="9"/>` +
		`<path d="M17 28h11l2 6H15z"/>` +
		`<rect x="11" y="34" width="23" height="5"/>`,
	nchess.Queen: `<circle cx="9" cy="12" r="2.5"/><circle cx="22.5" cy="8" r="2.5"/><circle cx="36" cy="12" r="2.5"/>` +
		`<path d="M9 15l4 16h19l4-16-7 8-6.5-12L16 23z"/>` +
		`<rect x="11" y="31" width="23" height="7"/>`,
	nchess.King: `<path d="M21 4h3v4h4v3h-4v4h-3v-4h-4V8h4z"/>` +
		`<path d="M10 20c4-5 21-5 25 0l-4 12H14z"/>` +
		`<rect x="11" y="32" width="23" height="7"/>`,
}

var (
	whitePieceFill   = "#f8f8f4"
	whitePieceStroke = "#1c1c1c"
	blackPieceFill   = "#222222"
	blackPieceStroke = "#0a0a0a"
)

type pieceCacheKey struct {
	piece nchess.Piece
	size  int
}

var (
	pieceCache   = map[pieceCacheKey]image.Image{}
	pieceCacheMu sync.RWMutex
)

func pieceSVG(piece nchess.Piece) (string, error) {
	shape, ok := pieceShapes[piece.Type()]
	if !ok {
		return "", fmt.Errorf("no shape for piece %v", piece)
	}
	fill, stroke := whitePieceFill, whitePieceStroke
	if piece.Color() == nchess.Black {
		fill, stroke = blackPieceFill, blackPieceStroke
	}
	return fmt.Sprintf(pieceSVGHeader, fill, stroke) + shape + `</g></svg>`, nil
}

func renderPieceImage(piece nchess.Piece, size int) (image.Image, error) {
	key := pieceCacheKey{piece: piece, size: size}

	pieceCacheMu.RLock()
	if img, ok := pieceCache[key]; ok {
		pieceCacheMu.RUnlock()
		return img, nil
	}
	pieceCacheMu.RUnlock()

	src, err := pieceSVG(piece)
	if err != nil {
		return nil, err
	}
	icon, err := oksvg.ReadIconStream(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse piece svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	pieceCacheMu.Lock()
	pieceCache[key] = img
	pieceCacheMu.Unlock()
	return img, nil
}
