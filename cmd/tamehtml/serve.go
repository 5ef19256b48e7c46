package main

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tamehtml/tamehtml"
	"github.com/tamehtml/tamehtml/sax"
)

// wsUpgrader accepts inspector connections; the tool binds to localhost,
// so cross-origin checks stay at their defaults.
var wsUpgrader = websocket.Upgrader{}

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a live event inspector",
		Long: `Serves a single-page inspector. The page sends HTML source over a
websocket; the server parses it and streams the balanced event list back as
JSON frames.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flagConfig)
			if err != nil {
				return err
			}
			cfg.Augmentations = true

			mux := http.NewServeMux()
			mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				_, _ = w.Write([]byte(inspectorPage))
			})
			mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
				conn, err := wsUpgrader.Upgrade(w, r, nil)
				if err != nil {
					log.WithError(err).Error("websocket upgrade failed")
					return
				}
				defer conn.Close()
				serveInspector(cfg, conn)
			})

			log.WithField("addr", addr).Info("inspector listening")
			return http.ListenAndServe(addr, mux)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8980", "listen address")
	return cmd
}

// wireEvent is the JSON shape of one event frame.
type wireEvent struct {
	Type   string            `json:"type"`
	Name   string            `json:"name,omitempty"`
	Text   string            `json:"text,omitempty"`
	Attrs  map[string]string `json:"attrs,omitempty"`
	Line   int               `json:"line,omitempty"`
	Column int               `json:"column,omitempty"`
	Synth  bool              `json:"synth,omitempty"`
}

func serveInspector(cfg tamehtml.Config, conn *websocket.Conn) {
	for {
		_, src, err := conn.ReadMessage()
		if err != nil {
			return
		}
		log.WithFields(logrus.Fields{"bytes": len(src)}).Debug("parsing inspector input")
		var events []wireEvent
		h := sax.HandlerFunc(func(ev *sax.Event) error {
			we := wireEvent{Type: ev.Type.String(), Name: ev.Name, Text: ev.Text, Synth: ev.Synthesized}
			if len(ev.Attrs) > 0 {
				we.Attrs = make(map[string]string, len(ev.Attrs))
				for _, a := range ev.Attrs {
					we.Attrs[a.Name] = a.Value
				}
			}
			if ev.Aug != nil {
				we.Line = ev.Aug.Begin.Line
				we.Column = ev.Aug.Begin.Column
			}
			events = append(events, we)
			return nil
		})
		if err := tamehtml.New(cfg).Parse(strings.NewReader(string(src)), h); err != nil {
			log.WithError(err).Error("parse failed")
			continue
		}
		if err := conn.WriteJSON(events); err != nil {
			return
		}
	}
}

const inspectorPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>tamehtml inspector</title>
<style>
body { font-family: monospace; margin: 1rem; }
textarea { width: 100%; height: 10rem; }
#events div { white-space: pre; }
.synth { color: #888; }
</style>
</head>
<body>
<h1>tamehtml inspector</h1>
<textarea id="src">&lt;p&gt;hello&lt;/p&gt;</textarea>
<p><button id="parse">Parse</button></p>
<div id="events"></div>
<script>
const ws = new WebSocket("ws://" + location.host + "/ws");
const out = document.getElementById("events");
ws.onmessage = (msg) => {
  out.innerHTML = "";
  for (const ev of JSON.parse(msg.data)) {
    const div = document.createElement("div");
    let line = ev.type;
    if (ev.name) line += " " + ev.name;
    if (ev.text) line += " " + JSON.stringify(ev.text);
    if (ev.line) line = ev.line + ":" + ev.column + " " + line;
    div.textContent = line;
    if (ev.synth) div.className = "synth";
    out.appendChild(div);
  }
};
document.getElementById("parse").onclick = () => {
  ws.send(document.getElementById("src").value);
};
</script>
</body>
</html>
`
