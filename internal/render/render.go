// Package render draws replay positions as PNG images.
package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"strings"

	nchess "github.com/corentings/chess/v2"
	"github.com/park285/cheese-review/internal/chess"
	"github.com/park285/cheese-review/internal/replay"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Highlight marks the last move, in coordinate squares ("e2", "e4").
type Highlight struct {
	From string
	To   string
}

type Options struct {
	Orientation replay.Orientation
	LastMove    *Highlight
	// Check tints the king of the side to move.
	Check   bool
	Title   string
	Caption string
}

type BoardRenderer interface {
	RenderPNG(ctx context.Context, pos chess.Position, opts Options) ([]byte, error)
}

type pngRenderer struct {
	squareSize int
}

const defaultSquareSize = 64

func NewBoardRenderer(squareSize int) BoardRenderer {
	if squareSize <= 0 {
		squareSize = defaultSquareSize
	}
	return &pngRenderer{squareSize: squareSize}
}

// layout maps board squares to pixels for one orientation.
type layout struct {
	squareSize  int
	origin      image.Point
	orientation replay.Orientation
}

func (l layout) squareRect(sq nchess.Square) image.Rectangle {
	col := int(sq.File())
	row := 7 - int(sq.Rank())
	if l.orientation == replay.BlackAtBottom {
		col = 7 - col
		row = 7 - row
	}
	x := l.origin.X + col*l.squareSize
	y := l.origin.Y + row*l.squareSize
	return image.Rect(x, y, x+l.squareSize, y+l.squareSize)
}

func (r *pngRenderer) RenderPNG(ctx context.Context, pos chess.Position, opts Options) ([]byte, error) {
	opt, err := nchess.FEN(string(pos))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", chess.ErrInvalidPosition, err)
	}
	board := nchess.NewGame(opt).Position().Board()

	const (
		sideMargin   = 28
		topMargin    = 56
		bottomMargin = 44
		panelRadius  = 8
	)
	boardSize := r.squareSize * 8
	totalWidth := boardSize + sideMargin*2
	totalHeight := boardSize + topMargin + bottomMargin
	lay := layout{
		squareSize:  r.squareSize,
		origin:      image.Point{X: sideMargin, Y: topMargin},
		orientation: opts.Orientation,
	}
	boardRect := image.Rect(sideMargin, topMargin, sideMargin+boardSize, topMargin+boardSize)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, totalWidth, totalHeight))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)

	drawer := &font.Drawer{Dst: img, Face: basicfont.Face7x13}
	drawHeader(img, drawer, opts.Title, boardRect, panelRadius)
	drawSquares(img, lay)
	drawLastMove(img, lay, opts.LastMove)
	if opts.Check {
		drawCheck(img, lay, board, pos.WhiteToMove())
	}
	if err := drawPieces(img, lay, board); err != nil {
		return nil, err
	}
	drawCoordinates(drawer, lay, boardRect)
	if caption := strings.TrimSpace(opts.Caption); caption != "" {
		rect := image.Rect(boardRect.Min.X, boardRect.Max.Y+20, boardRect.Max.X, totalHeight)
		drawCenteredString(drawer, rect, caption, captionTextColor)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return pngBuf.Bytes(), nil
}

var (
	backgroundColor     = color.RGBA{R: 38, G: 36, B: 33, A: 255}
	lightSquare         = color.RGBA{233, 207, 163, 255}
	darkSquare          = color.RGBA{187, 136, 96, 255}
	lastMoveFill        = color.NRGBA{R: 255, G: 228, B: 120, A: 130}
	lastMoveArrow       = color.NRGBA{R: 148, G: 207, B: 255, A: 170}
	checkFill           = color.NRGBA{R: 230, G: 40, B: 40, A: 150}
	headerPanelColor    = color.NRGBA{R: 28, G: 31, B: 46, A: 250}
	headerTextColor     = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	captionTextColor    = color.NRGBA{R: 204, G: 210, B: 236, A: 255}
	coordinateTextColor = color.NRGBA{R: 8, G: 214, B: 120, A: 255}
	allRanks            = []nchess.Rank{nchess.Rank1, nchess.Rank2, nchess.Rank3, nchess.Rank4, nchess.Rank5, nchess.Rank6, nchess.Rank7, nchess.Rank8}
	allFiles            = []nchess.File{nchess.FileA, nchess.FileB, nchess.FileC, nchess.FileD, nchess.FileE, nchess.FileF, nchess.FileG, nchess.FileH}
)

func drawHeader(img *image.RGBA, drawer *font.Drawer, title string, boardRect image.Rectangle, radius int) {
	title = strings.TrimSpace(title)
	if title == "" {
		return
	}
	const height = 30
	rect := image.Rect(boardRect.Min.X, boardRect.Min.Y-height-12, boardRect.Max.X, boardRect.Min.Y-12)
	drawRoundedPanel(img, rect, radius, headerPanelColor)
	title = truncateWithEllipsis(drawer.Face, title, rect.Dx()-24)
	drawCenteredString(drawer, rect, title, headerTextColor)
}

func drawSquares(dst imagedraw.Image, lay layout) {
	for _, rank := range allRanks {
		for _, file := range allFiles {
			sq := nchess.NewSquare(file, rank)
			imagedraw.Draw(dst, lay.squareRect(sq), image.NewUniform(squareColor(sq)), image.Point{}, imagedraw.Src)
		}
	}
}

func drawPieces(dst imagedraw.Image, lay layout, board *nchess.Board) error {
	for sq, piece := range board.SquareMap() {
		if piece == nchess.NoPiece {
			continue
		}
		img, err := renderPieceImage(piece, lay.squareSize)
		if err != nil {
			return err
		}
		imagedraw.Draw(dst, lay.squareRect(sq), img, image.Point{}, imagedraw.Over)
	}
	return nil
}

func drawLastMove(img *image.RGBA, lay layout, hl *Highlight) {
	if hl == nil {
		return
	}
	from, okFrom := parseSquare(hl.From)
	to, okTo := parseSquare(hl.To)
	if !okFrom || !okTo {
		return
	}
	drawSquareOverlay(img, lay.squareRect(from), lastMoveFill)
	drawSquareOverlay(img, lay.squareRect(to), lastMoveFill)
	drawArrow(img, lay.squareRect(from), lay.squareRect(to), lay.squareSize, lastMoveArrow)
}

func drawCheck(img *image.RGBA, lay layout, board *nchess.Board, whiteToMove bool) {
	king := nchess.BlackKing
	if whiteToMove {
		king = nchess.WhiteKing
	}
	for sq, piece := range board.SquareMap() {
		if piece == king {
			drawSquareOverlay(img, lay.squareRect(sq), checkFill)
			return
		}
	}
}

// drawCoordinates labels files below and ranks left of the board in the
// order they appear for the current orientation.
func drawCoordinates(drawer *font.Drawer, lay layout, boardRect image.Rectangle) {
	drawer.Src = image.NewUniform(coordinateTextColor)
	ascent := drawer.Face.Metrics().Ascent.Ceil()
	for _, file := range allFiles {
		r := lay.squareRect(nchess.NewSquare(file, nchess.Rank1))
		drawCenteredText(drawer, file.String(), r.Min.X+lay.squareSize/2, boardRect.Max.Y+ascent+2)
	}
	for _, rank := range allRanks {
		r := lay.squareRect(nchess.NewSquare(nchess.FileA, rank))
		drawCenteredText(drawer, rank.String(), boardRect.Min.X-14, r.Min.Y+lay.squareSize/2+ascent/2)
	}
}

func parseSquare(s string) (nchess.Square, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return nchess.NoSquare, false
	}
	return nchess.NewSquare(nchess.File(s[0]-'a'), nchess.Rank(s[1]-'1')), true
}

func squareColor(sq nchess.Square) color.Color {
	if (int(sq.File())+int(sq.Rank()))%2 == 0 {
		return darkSquare
	}
	return lightSquare
}

func drawCenteredString(drawer *font.Drawer, rect image.Rectangle, text string, clr color.Color) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	metrics := drawer.Face.Metrics()
	width := drawer.MeasureString(text).Round()
	x := rect.Min.X + (rect.Dx()-width)/2
	if x < rect.Min.X {
		x = rect.Min.X
	}
	baseline := rect.Min.Y + (rect.Dy()+metrics.Ascent.Ceil()-metrics.Descent.Ceil())/2
	drawer.Src = image.NewUniform(clr)
	drawer.Dot = fixed.P(x, baseline)
	drawer.DrawString(text)
}

func drawCenteredText(drawer *font.Drawer, text string, centerX, baseline int) {
	if text == "" {
		return
	}
	width := drawer.MeasureString(text).Round()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}

func truncateWithEllipsis(face font.Face, text string, maxWidth int) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || maxWidth <= 0 || face == nil {
		return trimmed
	}
	drawer := font.Drawer{Face: face}
	if drawer.MeasureString(trimmed).Round() <= maxWidth {
		return trimmed
	}
	const ellipsis = "..."
	if drawer.MeasureString(ellipsis).Round() > maxWidth {
		return ""
	}
	runes := []rune(trimmed)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + ellipsis
		if drawer.MeasureString(candidate).Round() <= maxWidth {
			return candidate
		}
	}
	return ellipsis
}
