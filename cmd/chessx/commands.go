package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/park285/chessx/internal/board"
	"github.com/park285/chessx/internal/msgcat"
	"github.com/park285/chessx/internal/pollclient"
	"github.com/park285/chessx/pkg/chessdto"
)

var errUsage = errors.New("usage")

type cli struct {
	client *pollclient.Client
	cat    *msgcat.Catalog
	out    io.Writer
}

func (c *cli) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "show":
		fs := flag.NewFlagSet("show", flag.ContinueOnError)
		pngPath := fs.String("png", "", "write the rendered board to this file")
		flip := fs.Bool("flip", false, "black at the bottom")
		if err := fs.Parse(args); err != nil {
			return errUsage
		}
		st, err := c.client.Game(ctx)
		if err != nil {
			return err
		}
		c.printState(st)
		if *pngPath != "" {
			img, err := c.client.BoardPNG(ctx, *flip)
			if err != nil {
				return err
			}
			return os.WriteFile(*pngPath, img, 0o644)
		}
		return nil
	case "legal":
		fs := flag.NewFlagSet("legal", flag.ContinueOnError)
		free := fs.Bool("free", false, "ignore piece rules")
		if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
			return errUsage
		}
		sq, err := board.ParseSquare(fs.Arg(0))
		if err != nil {
			return err
		}
		lt, err := c.client.Legal(ctx, sq, *free)
		if err != nil {
			return err
		}
		if len(lt.Targets) == 0 {
			fmt.Fprintln(c.out, c.cat.Text("cli.no_targets", map[string]any{"From": sq.String()}))
			return nil
		}
		names := make([]string, 0, len(lt.Targets))
		for _, t := range lt.Targets {
			names = append(names, t.Name)
		}
		fmt.Fprintln(c.out, c.cat.Text("cli.targets", map[string]any{"From": sq.String(), "Targets": strings.Join(names, " ")}))
		return nil
	case "move":
		fs := flag.NewFlagSet("move", flag.ContinueOnError)
		free := fs.Bool("free", false, "ignore piece rules")
		if err := fs.Parse(args); err != nil || fs.NArg() != 2 {
			return errUsage
		}
		return c.move(ctx, fs.Arg(0), fs.Arg(1), *free)
	case "castle":
		if len(args) != 1 {
			return errUsage
		}
		wing, err := board.ParseWing(args[0])
		if err != nil {
			return err
		}
		cur, err := c.client.Game(ctx)
		if err != nil {
			return err
		}
		st, err := c.client.Castle(ctx, board.Color(cur.Color), wing)
		return c.after(ctx, st, err)
	case "undo":
		st, err := c.client.Undo(ctx)
		return c.after(ctx, st, err)
	case "reset":
		st, err := c.client.Reset(ctx)
		return c.after(ctx, st, err)
	case "names":
		if len(args) != 2 {
			return errUsage
		}
		st, err := c.client.SetNames(ctx, args[0], args[1])
		return c.after(ctx, st, err)
	case "say":
		if len(args) == 0 {
			return errUsage
		}
		msgs, err := c.client.Say(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		c.printChat(msgs)
		return nil
	case "chat":
		msgs, err := c.client.Chat(ctx)
		if err != nil {
			return err
		}
		c.printChat(msgs)
		return nil
	case "login":
		if len(args) != 1 {
			return errUsage
		}
		resp, err := c.client.Login(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out, c.cat.Text("cli.token", map[string]any{"Token": resp.Token}))
		return nil
	case "watch":
		fs := flag.NewFlagSet("watch", flag.ContinueOnError)
		poll := fs.Bool("poll", false, "poll /game instead of the websocket stream")
		if err := fs.Parse(args); err != nil {
			return errUsage
		}
		fmt.Fprintln(c.out, c.cat.Text("cli.watching", nil))
		show := func(st chessdto.GameState) { c.printState(&st) }
		if *poll {
			return c.client.Poll(ctx, 0, show)
		}
		return c.client.Watch(ctx, show)
	default:
		return errUsage
	}
}

// planMove validates from->to against st locally and builds the submission. ok is false
// for an illegal move, which the caller drops without a word.
func planMove(st *chessdto.GameState, fromStr, toStr string, free bool) (chessdto.MoveRequest, bool, error) {
	from, err := board.ParseSquare(fromStr)
	if err != nil {
		return chessdto.MoveRequest{}, false, err
	}
	to, err := board.ParseSquare(toStr)
	if err != nil {
		return chessdto.MoveRequest{}, false, err
	}
	b, err := board.Decode(st.FEN)
	if err != nil {
		return chessdto.MoveRequest{}, false, err
	}
	side, err := board.ParseColor(st.Color)
	if err != nil {
		return chessdto.MoveRequest{}, false, err
	}
	legal, err := board.IsLegal(b, side, from, to, free)
	if err != nil || !legal {
		return chessdto.MoveRequest{}, false, err
	}
	next, err := board.ApplyMove(b, from, to)
	if err != nil {
		return chessdto.MoveRequest{}, false, err
	}
	return chessdto.MoveRequest{
		FEN:   board.Encode(next),
		Color: string(side.Opponent()),
		Base:  st.FEN,
	}, true, nil
}

func (c *cli) move(ctx context.Context, from, to string, free bool) error {
	st, err := c.client.Game(ctx)
	if err != nil {
		return err
	}
	req, ok, err := planMove(st, from, to, free)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	next, err := c.client.Move(ctx, req)
	return c.after(ctx, next, err)
}

// after prints the state of a mutation. Conflicts and strict-mode refusals reprint the
// server's current state instead of failing.
func (c *cli) after(ctx context.Context, st *chessdto.GameState, err error) error {
	if err == nil {
		c.printState(st)
		return nil
	}
	var apiErr *pollclient.APIError
	if !errors.As(err, &apiErr) || (!pollclient.IsConflict(err) && !pollclient.IsIllegal(err)) {
		return err
	}
	if pollclient.IsConflict(err) {
		fmt.Fprintln(c.out, c.cat.Text("cli.conflict", nil))
	}
	if apiErr.State != nil {
		c.printState(apiErr.State)
		return nil
	}
	fresh, gerr := c.client.Game(ctx)
	if gerr != nil {
		return gerr
	}
	c.printState(fresh)
	return nil
}

func (c *cli) printState(st *chessdto.GameState) {
	fmt.Fprint(c.out, formatBoard(st.FEN))
	side := board.White
	if st.Color == string(board.Black) {
		side = board.Black
	}
	fmt.Fprintln(c.out, c.cat.StatusText(st.White, st.Black, side, st.MoveNumber))
}

func (c *cli) printChat(msgs []chessdto.ChatMessage) {
	if len(msgs) == 0 {
		fmt.Fprintln(c.out, c.cat.Text("cli.chat_empty", nil))
		return
	}
	for _, m := range msgs {
		fmt.Fprintln(c.out, c.cat.Text("cli.chat_line", map[string]any{
			"Time": m.Datetime.Local().Format("15:04"),
			"Text": m.Text,
		}))
	}
}

// formatBoard draws the position with rank and file labels, rank 8 on top.
func formatBoard(position string) string {
	b, err := board.Decode(position)
	if err != nil {
		return position + "\n"
	}
	var sb strings.Builder
	for row := 0; row < board.Size; row++ {
		fmt.Fprintf(&sb, "%d ", board.Size-row)
		for col := 0; col < board.Size; col++ {
			l := b[row][col].Letter()
			if l == 0 {
				l = '.'
			}
			sb.WriteByte(' ')
			sb.WriteByte(l)
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("   a b c d e f g h\n")
	return sb.String()
}
