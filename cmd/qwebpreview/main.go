// Command qwebpreview is a dev-time live-reload server: it mounts one
// widget per WebSocket connection and pushes a freshly serialized render
// every time the widget's scope is touched, either by an incoming client
// message or by the widget's own scheduler waking up.
//
// Adapted from this module's teacher's pages.go servePage WebSocket loop
// (DESIGN.md §7): the same "read vars from the socket, render on
// mainScope.Touched(), write the result back" shape, rebuilt against
// widget/domtree instead of chtml.Component/net/http file routing — there
// is no filesystem component router here, only a fixed template bundle
// loaded once at startup.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/gorilla/websocket"

	"github.com/dpotapov/goqweb/domtree"
	"github.com/dpotapov/goqweb/qweb"
	"github.com/dpotapov/goqweb/widget"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type htmler interface{ HTML() string }

func main() {
	bundle := flag.String("bundle", "", "path to a <templates> XML bundle file")
	tmpl := flag.String("template", "", "name of the template to preview")
	addr := flag.String("addr", ":8089", "listen address")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *bundle == "" || *tmpl == "" {
		logger.Error("both -bundle and -template are required")
		os.Exit(2)
	}

	qw := qweb.New()
	qw.Logger = logger

	f, err := os.Open(*bundle)
	if err != nil {
		logger.Error("open bundle", "error", err)
		os.Exit(1)
	}
	err = qw.LoadTemplatesWithSource(*bundle, f)
	_ = f.Close()
	if err != nil {
		logger.Error("load bundle", "error", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", serveShell)
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWS(w, r, qw, *tmpl, logger)
	})

	logger.Info("qwebpreview listening", "addr", *addr, "template", *tmpl)
	if err := http.ListenAndServe(*addr, mux); err != nil {
		logger.Error("listen", "error", err)
		os.Exit(1)
	}
}

func serveShell(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(shellHTML))
}

// serveWS mirrors pages.go's servePage WebSocket branch: a reader goroutine
// feeds incoming {"vars": ...} messages into varsC, a select loop renders
// either on a fresh message or whenever the mounted widget's scope is
// touched, and writes the serialized result back as a single text frame.
func serveWS(w http.ResponseWriter, r *http.Request, qw *qweb.QWeb, tmpl string, logger *slog.Logger) {
	ws, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("upgrade websocket", "error", err)
		return
	}
	defer func() { _ = ws.Close() }()

	doc := domtree.MemoryDocument{}
	root := doc.CreateElement("div")

	touched := make(chan struct{}, 1)
	notify := func() {
		select {
		case touched <- struct{}{}:
		default:
		}
	}

	env := widget.NewEnv(qw, doc, notify)

	w1 := widget.New(env, nil, widget.Spec{Template: tmpl})
	if err := w1.Mount(root); err != nil {
		logger.Error("mount widget", "error", err)
		return
	}
	if err := pushFrame(ws, root); err != nil {
		return
	}

	varsC := make(chan map[string]any)
	done := make(chan error, 1)

	go func() {
		for {
			var msg struct {
				Vars map[string]any `json:"vars"`
			}
			if err := ws.ReadJSON(&msg); err != nil {
				if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					err = nil
				} else {
					err = fmt.Errorf("read websocket message: %w", err)
				}
				done <- err
				return
			}
			varsC <- msg.Vars
		}
	}()

	for {
		select {
		case vars := <-varsC:
			w1.UpdateState(vars)
		case <-touched:
			for _, dirty := range env.Scheduler.Dirty() {
				if err := dirty.Rerender(); err != nil {
					logger.Warn("rerender widget", "error", err)
				}
			}
			if err := pushFrame(ws, root); err != nil {
				return
			}
		case err := <-done:
			if err != nil {
				logger.Warn("websocket closed", "error", err)
			}
			w1.Destroy()
			return
		}
	}
}

func pushFrame(ws *websocket.Conn, root domtree.Node) error {
	h, ok := root.(htmler)
	if !ok {
		return fmt.Errorf("qwebpreview: domtree.Node does not implement HTML()")
	}
	return ws.WriteMessage(websocket.TextMessage, []byte(h.HTML()))
}

const shellHTML = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>qwebpreview</title></head>
<body>
<div id="app">loading...</div>
<script>
const ws = new WebSocket("ws://" + location.host + "/ws");
ws.onmessage = (ev) => { document.getElementById("app").innerHTML = ev.data; };
</script>
</body>
</html>`
