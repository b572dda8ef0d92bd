package msgcat

import "github.com/park285/chessx/internal/board"

// StatusData feeds the status templates.
type StatusData struct {
	White      string
	Black      string
	Side       string
	MoveNumber int
}

// NewStatusData localizes the side to move.
func (c *Catalog) NewStatusData(white, black string, side board.Color, moveNumber int) StatusData {
	key := "side.white"
	if side == board.Black {
		key = "side.black"
	}
	return StatusData{White: white, Black: black, Side: c.Text(key, nil), MoveNumber: moveNumber}
}

// Status renders the three-line status as HTML, the way the board client shows it.
func (c *Catalog) Status(white, black string, side board.Color, moveNumber int) string {
	return c.Text("status.html", c.NewStatusData(white, black, side, moveNumber))
}

// StatusText is Status with plain newlines.
func (c *Catalog) StatusText(white, black string, side board.Color, moveNumber int) string {
	return c.Text("status.text", c.NewStatusData(white, black, side, moveNumber))
}
