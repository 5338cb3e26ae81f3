package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/desertthunder/moodlist/internal/formatter"
	"github.com/desertthunder/moodlist/internal/models"
	"github.com/desertthunder/moodlist/internal/tasks"
)

// progressEvent is the data of a "progress" server-sent event.
type progressEvent struct {
	State   string `json:"state"`
	Step    int    `json:"step"`
	Total   int    `json:"total"`
	Message string `json:"message"`
}

type generation struct {
	result *models.PlaylistResult
	err    error
}

func writeEvent(w io.Writer, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}

// events runs a generation for ?mood= and streams its workflow states as server-sent events.
//
// The stream ends with a "result" event, or an "error" event whose body carries the HTTP status the
// POST endpoint would have answered with.
func (a *App) events(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	mood := r.URL.Query().Get("mood")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan generation, 1)
	go func() {
		result, err := a.generator.Generate(r.Context(), SessionFrom(r.Context()), mood, progress)
		close(progress)
		done <- generation{result, err}
	}()

	for update := range progress {
		writeEvent(w, "progress", progressEvent{
			State:   update.State.String(),
			Step:    update.Step,
			Total:   update.Total,
			Message: update.Message,
		})
		if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
			a.logger.Debug("event stream closed", "error", err)
		}
	}

	out := <-done
	if out.err != nil {
		body := errorBody{Error: tasks.Message(out.err), Kind: KindName(out.err), Status: StatusFor(out.err)}
		var partial *tasks.PartialSuccessError
		if errors.As(out.err, &partial) {
			body.PlaylistID = partial.PlaylistID
			body.Playlist = out.result
		}
		writeEvent(w, "error", body)
	} else {
		writeEvent(w, "result", playlistBody{Playlist: out.result, URL: formatter.PlaylistURL(out.result.PlaylistID)})
	}
	rc.Flush()
}
