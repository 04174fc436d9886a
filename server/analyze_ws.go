package server

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const wsWriteWait = 5 * time.Second

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// analyzeMessage is one frame of the analysis stream.
type analyzeMessage struct {
	Type     string            `json:"type"`
	RootMove *moveScoreDTO     `json:"root_move,omitempty"`
	Index    int               `json:"index,omitempty"`
	Result   *bestMoveResponse `json:"result,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// handleAnalyze reads search requests from the socket and answers each
// with one root_move frame per scored root move followed by a result
// frame. The connection stays open for further requests.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	logger := requestLogger(r)
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("ws-upgrade-failed")
		return
	}
	defer conn.Close()

	send := func(msg analyzeMessage) error {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return conn.WriteJSON(msg)
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug().Err(err).Msg("ws-read-failed")
			}
			return
		}

		var req searchRequest
		if err := decodeJSON(bytes.NewReader(data), &req); err != nil {
			if send(analyzeMessage{Type: "error", Error: err.Error()}) != nil {
				return
			}
			continue
		}
		job, err := s.newJob(req)
		if err != nil {
			if send(analyzeMessage{Type: "error", Error: err.Error()}) != nil {
				return
			}
			continue
		}

		var (
			index   int
			sendErr error
		)
		resp, err := job.run(r.Context(), func(ms moveScoreDTO) {
			if sendErr != nil {
				return
			}
			index++
			sendErr = send(analyzeMessage{Type: "root_move", RootMove: &ms, Index: index})
		})
		if sendErr != nil {
			logger.Debug().Err(sendErr).Msg("ws-write-failed")
			return
		}
		if err != nil {
			_ = send(analyzeMessage{Type: "error", Error: err.Error()})
			return
		}
		if err := send(analyzeMessage{Type: "result", Result: &resp}); err != nil {
			return
		}
		logger.Info().Int("depth", resp.Depth).Int("nodes", resp.Nodes).Msg("analysis-done")
	}
}
