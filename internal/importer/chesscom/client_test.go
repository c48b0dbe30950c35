package chesscom

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/park285/cheese-review/internal/domain"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

type fakeAPI struct {
	mu    sync.Mutex
	paths []string
	reply map[string]func(ctx *fasthttp.RequestCtx)
}

func (f *fakeAPI) handle(ctx *fasthttp.RequestCtx) {
	path := string(ctx.Path())
	f.mu.Lock()
	f.paths = append(f.paths, path)
	h := f.reply[path]
	f.mu.Unlock()
	if h == nil {
		ctx.SetStatusCode(fasthttp.StatusNotFound)
		return
	}
	h(ctx)
}

func startFakeAPI(t *testing.T, api *fakeAPI) *Client {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: api.handle}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = ln.Close() })

	clock := func() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC) }
	return NewClient("http://api.test/pub",
		WithDial(func(string) (net.Conn, error) { return ln.Dial() }),
		WithClock(clock),
		WithTimeout(2*time.Second),
	)
}

func jsonReply(body string) func(*fasthttp.RequestCtx) {
	return func(ctx *fasthttp.RequestCtx) {
		ctx.SetContentType("application/json")
		ctx.SetBodyString(body)
	}
}

const marchArchive = `{"games":[
 {"uuid":"a","url":"https://www.chess.com/game/live/1","pgn":"1. e4 e5 1-0","time_control":"600","rules":"chess","end_time":1710000000,
  "white":{"username":"Alice","rating":1500,"result":"win"},"black":{"username":"bob","rating":1490,"result":"resigned"}},
 {"uuid":"b","url":"https://www.chess.com/game/live/2","pgn":"1. d4 d5 1/2-1/2","time_control":"180","rules":"chess","end_time":1710500000,
  "white":{"username":"bob","rating":1495,"result":"agreed"},"black":{"username":"Alice","rating":1505,"result":"agreed"}}
]}`

const februaryArchive = `{"games":[
 {"uuid":"c","url":"https://www.chess.com/game/daily/3","pgn":"1. c4 1-0","rules":"chess960","end_time":1707000000,
  "white":{"username":"Alice","result":"win"},"black":{"username":"carol","result":"timeout"}}
]}`

func TestRecentGamesWalksMonthsAndSkipsFailures(t *testing.T) {
	api := &fakeAPI{reply: map[string]func(*fasthttp.RequestCtx){
		"/pub/player/alice/games/2024/03": jsonReply(marchArchive),
		"/pub/player/alice/games/2024/02": jsonReply(februaryArchive),
		"/pub/player/alice/games/2024/01": func(ctx *fasthttp.RequestCtx) {
			ctx.SetStatusCode(fasthttp.StatusBadRequest)
		},
	}}
	c := startFakeAPI(t, api)

	games, err := c.RecentGames(context.Background(), "Alice", 4)
	if err != nil {
		t.Fatalf("RecentGames: %v", err)
	}
	if len(games) != 3 {
		t.Fatalf("games=%d", len(games))
	}
	if games[0].UUID != "b" || games[1].UUID != "a" || games[2].UUID != "c" {
		t.Fatalf("order=%s,%s,%s", games[0].UUID, games[1].UUID, games[2].UUID)
	}
	api.mu.Lock()
	defer api.mu.Unlock()
	want := []string{
		"/pub/player/alice/games/2024/03",
		"/pub/player/alice/games/2024/02",
		"/pub/player/alice/games/2024/01",
		"/pub/player/alice/games/2023/12",
	}
	if len(api.paths) != len(want) {
		t.Fatalf("paths=%v", api.paths)
	}
	for i := range want {
		if api.paths[i] != want[i] {
			t.Fatalf("paths=%v", api.paths)
		}
	}
}

func TestMonthlyGamesRetriesRateLimit(t *testing.T) {
	var calls int
	api := &fakeAPI{reply: map[string]func(*fasthttp.RequestCtx){
		"/pub/player/bob/games/2024/03": func(ctx *fasthttp.RequestCtx) {
			calls++
			if calls == 1 {
				ctx.SetStatusCode(fasthttp.StatusTooManyRequests)
				return
			}
			jsonReply(marchArchive)(ctx)
		},
	}}
	c := startFakeAPI(t, api)
	games, err := c.MonthlyGames(context.Background(), "bob", 2024, time.March)
	if err != nil {
		t.Fatalf("MonthlyGames: %v", err)
	}
	if len(games) != 2 || calls != 2 {
		t.Fatalf("games=%d calls=%d", len(games), calls)
	}
}

func TestMonthlyGamesNotFound(t *testing.T) {
	c := startFakeAPI(t, &fakeAPI{})
	_, err := c.MonthlyGames(context.Background(), "nobody", 2024, time.March)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestMonthlyGamesBadRequestIsNotRetried(t *testing.T) {
	var calls int
	api := &fakeAPI{reply: map[string]func(*fasthttp.RequestCtx){
		"/pub/player/bob/games/2024/03": func(ctx *fasthttp.RequestCtx) {
			calls++
			ctx.SetStatusCode(fasthttp.StatusBadRequest)
			ctx.SetBodyString("bad")
		},
	}}
	c := startFakeAPI(t, api)
	_, err := c.MonthlyGames(context.Background(), "bob", 2024, time.March)
	var se *StatusError
	if !errors.As(err, &se) || se.Status != fasthttp.StatusBadRequest || se.Body != "bad" {
		t.Fatalf("want StatusError, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls=%d", calls)
	}
}

func TestImportRequests(t *testing.T) {
	games := []Game{
		{URL: "u1", PGN: "1. e4", Rules: "chess", EndTime: 1710000000,
			White: Player{Username: "w", Rating: 1200, Result: "win"}, Black: Player{Username: "b", Result: "checkmated"}},
		{URL: "u2", Rules: "chess960"},
		{URL: "u3", White: Player{Result: "timevsinsufficient"}, Black: Player{Result: "timeout"}},
	}
	reqs := ImportRequests("owner", games)
	if len(reqs) != 2 {
		t.Fatalf("variants must be dropped, got %d", len(reqs))
	}
	r := reqs[0]
	if r.Owner != "owner" || r.Source != domain.PlatformChessCom || r.Result != domain.ResultWhiteWins {
		t.Fatalf("req=%+v", r)
	}
	if r.Players.White != "w" || r.WhiteRating != 1200 || !r.Date.Equal(time.Unix(1710000000, 0)) {
		t.Fatalf("req=%+v", r)
	}
	if reqs[1].Result != domain.ResultDraw {
		t.Fatalf("timevsinsufficient is a draw, got %s", reqs[1].Result)
	}
}
