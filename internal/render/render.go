// Package render draws a board position as a PNG image.
package render

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/park285/chessx/internal/board"
)

// Options decorate the rendered board.
type Options struct {
	Header   string
	Turn     string
	Selected *board.Square
	Targets  []board.Square
	LastMove *board.Move
	// Flip draws the board from black's side.
	Flip bool
}

type Renderer struct {
	squareSize int
}

// New returns a renderer drawing squares of squareSize pixels. Non-positive sizes use 64.
func New(squareSize int) *Renderer {
	if squareSize <= 0 {
		squareSize = 64
	}
	return &Renderer{squareSize: squareSize}
}

const (
	sideMargin    = 28
	topMargin     = 84
	bottomMargin  = 28
	panelHeight   = 26
	panelGap      = 10
	gapToBoard    = 14
	panelRadius   = 10
	panelPaddingX = 18
	shadowOffsetY = 4
)

var (
	lightSquare     = color.RGBA{233, 207, 163, 255}
	darkSquare      = color.RGBA{187, 136, 96, 255}
	selectedFill    = color.NRGBA{R: 255, G: 228, B: 120, A: 150}
	targetDot       = color.NRGBA{R: 40, G: 40, B: 40, A: 110}
	lastMoveFill    = color.NRGBA{R: 148, G: 207, B: 255, A: 120}
	hudPanelColor   = color.NRGBA{R: 28, G: 31, B: 46, A: 250}
	hudTurnColor    = color.NRGBA{R: 32, G: 35, B: 52, A: 245}
	hudShadowColor  = color.NRGBA{0, 0, 0, 50}
	hudTextPrimary  = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	hudTextTurn     = color.NRGBA{R: 204, G: 210, B: 236, A: 255}
	coordinateColor = color.NRGBA{R: 8, G: 150, B: 90, A: 255}
)

type layout struct {
	origin image.Point
	size   int
	flip   bool
}

func (l layout) rect(sq board.Square) image.Rectangle {
	row, col := sq.Row, sq.Col
	if l.flip {
		row, col = board.Size-1-row, board.Size-1-col
	}
	x := l.origin.X + col*l.size
	y := l.origin.Y + row*l.size
	return image.Rect(x, y, x+l.size, y+l.size)
}

// PNG renders b with the given decorations.
func (r *Renderer) PNG(ctx context.Context, b board.Board, opts Options) ([]byte, error) {
	if r == nil {
		return nil, errors.New("render: nil renderer")
	}
	boardSize := r.squareSize * board.Size
	l := layout{origin: image.Pt(sideMargin, topMargin), size: r.squareSize, flip: opts.Flip}
	boardRect := image.Rect(l.origin.X, l.origin.Y, l.origin.X+boardSize, l.origin.Y+boardSize)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, boardSize+sideMargin*2, boardSize+topMargin+bottomMargin))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, imagedraw.Src)

	face := basicfont.Face7x13
	drawHUD(img, face, opts, boardRect)
	drawSquares(img, l)
	drawLastMove(img, l, opts.LastMove)
	if opts.Selected != nil && opts.Selected.InBounds() {
		imagedraw.Draw(img, l.rect(*opts.Selected), image.NewUniform(selectedFill), image.Point{}, imagedraw.Over)
	}
	if err := drawPieces(img, b, l); err != nil {
		return nil, err
	}
	for _, t := range opts.Targets {
		if !t.InBounds() {
			continue
		}
		rc := l.rect(t)
		center := image.Pt(rc.Min.X+l.size/2, rc.Min.Y+l.size/2)
		drawDisc(img, center, l.size/7, targetDot)
	}
	drawCoordinates(img, face, l)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawSquares(dst imagedraw.Image, l layout) {
	for row := 0; row < board.Size; row++ {
		for col := 0; col < board.Size; col++ {
			clr := lightSquare
			if (row+col)%2 == 1 {
				clr = darkSquare
			}
			imagedraw.Draw(dst, l.rect(board.Sq(row, col)), image.NewUniform(clr), image.Point{}, imagedraw.Src)
		}
	}
}

func drawPieces(dst imagedraw.Image, b board.Board, l layout) error {
	for row := 0; row < board.Size; row++ {
		for col := 0; col < board.Size; col++ {
			cell := b[row][col]
			if cell.IsEmpty() {
				continue
			}
			img, err := pieceSprite(cell, l.size)
			if err != nil {
				return err
			}
			imagedraw.Draw(dst, l.rect(board.Sq(row, col)), img, image.Point{}, imagedraw.Over)
		}
	}
	return nil
}

func drawLastMove(img *image.RGBA, l layout, mv *board.Move) {
	if mv == nil || mv.Kind == board.NoMove {
		return
	}
	for _, sq := range []board.Square{mv.From, mv.To} {
		if sq.InBounds() {
			imagedraw.Draw(img, l.rect(sq), image.NewUniform(lastMoveFill), image.Point{}, imagedraw.Over)
		}
	}
}

func drawHUD(img *image.RGBA, face font.Face, opts Options, boardRect image.Rectangle) {
	drawer := &font.Drawer{Dst: img, Face: face}

	title := strings.TrimSpace(opts.Header)
	turn := strings.TrimSpace(opts.Turn)

	turnBottom := boardRect.Min.Y - gapToBoard
	turnTop := turnBottom - panelHeight
	titleBottom := turnTop - panelGap
	titleTop := titleBottom - panelHeight

	if title != "" {
		w := min(drawer.MeasureString(title).Round()+panelPaddingX*2, boardRect.Dx())
		rect := image.Rect(boardRect.Min.X, titleTop, boardRect.Min.X+w, titleBottom)
		drawRoundedPanel(img, rect.Add(image.Pt(0, shadowOffsetY)), panelRadius, hudShadowColor)
		drawRoundedPanel(img, rect, panelRadius, hudPanelColor)
		drawCenteredString(drawer, rect, truncateWithEllipsis(face, title, rect.Dx()-panelPaddingX*2), hudTextPrimary)
	}
	if turn != "" {
		w := min(drawer.MeasureString(turn).Round()+panelPaddingX*2, boardRect.Dx())
		left := boardRect.Min.X + (boardRect.Dx()-w)/2
		rect := image.Rect(left, turnTop, left+w, turnBottom)
		drawRoundedPanel(img, rect.Add(image.Pt(0, shadowOffsetY)), panelRadius, hudShadowColor)
		drawRoundedPanel(img, rect, panelRadius, hudTurnColor)
		drawCenteredString(drawer, rect, truncateWithEllipsis(face, turn, rect.Dx()-panelPaddingX*2), hudTextTurn)
	}
}

func drawCoordinates(dst imagedraw.Image, face font.Face, l layout) {
	drawer := &font.Drawer{Dst: dst, Face: face, Src: image.NewUniform(coordinateColor)}
	ascent := face.Metrics().Ascent.Ceil()
	for i := 0; i < board.Size; i++ {
		rank := l.rect(board.Sq(i, 0))
		file := l.rect(board.Sq(board.Size-1, i))
		if l.flip {
			rank = l.rect(board.Sq(i, board.Size-1))
			file = l.rect(board.Sq(0, i))
		}
		name := board.Sq(i, i).String()
		drawCenteredText(drawer, name[1:], l.origin.X-sideMargin/2, rank.Min.Y+l.size/2+ascent/2)
		drawCenteredText(drawer, name[:1], file.Min.X+l.size/2, l.origin.Y+board.Size*l.size+ascent+4)
	}
}
